// Package events reads and writes the newline-delimited JSON metric log a load
// run produces.
//
// Each line is one record in the k6 JSON output shape:
//
//	{"type":"Point","metric":"http_reqs","data":{"time":"2025-01-01T10:00:00Z","value":1,"tags":{"case":"1"}}}
//
// # Reading
//
// [Scanner] walks a log one line at a time and yields an [Event] per parseable
// record. Lines that are not JSON objects are skipped without error, so a
// truncated or noisy log still yields every record that survived:
//
//	sc, f, err := events.Open("results.ndjson")
//	if err != nil {
//		return err
//	}
//	defer f.Close()
//	for sc.Scan() {
//		ev := sc.Event()
//		...
//	}
//	if err := sc.Err(); err != nil {
//		return err
//	}
//
// Only read failures of the underlying stream are reported, wrapped in
// [ErrInputUnreadable].
//
// # Writing
//
// [Writer] emits Point and Metric records and is safe for concurrent use by
// load workers. [Create] holds an exclusive lock on the results file until
// [Writer.Close].
package events
