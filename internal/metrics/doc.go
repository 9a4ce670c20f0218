// Package metrics provides in-process metrics aggregation for a running load test.
//
// The collector feeds the live dashboard, the progress line, the end-of-run
// summary and threshold evaluation. The NDJSON metric stream is written
// separately by the events package; the two are fed from the same request
// observations.
//
// # Collector
//
// The central [Collector] type aggregates metrics from all virtual users:
//
//	collector := metrics.NewCollector()
//	collector.Start()
//
//	collector.RecordRequest(latency, err, &metrics.RequestMetadata{
//		Endpoint:     "1 SMS Basic",
//		Category:     "sms",
//		StatusCode:   "200",
//		ChecksPassed: 3,
//	})
//	collector.RecordIteration(iterationDuration)
//	collector.SetVUs(activeUsers)
//
//	stats := collector.Stats(elapsed)
//
// # Statistics
//
// [Stats] carries request counts, latency percentiles (P50, P90, P95, P99)
// read from an HDR histogram, check pass/fail totals, iteration counts,
// current and peak VUs, failure status buckets per category, and a
// per-case [EndpointStats] breakdown.
//
// # Time-Series Data
//
// [Collector.Snapshot] appends a [DataPoint] covering the interval since the
// previous call; the dashboard takes one per second.
//
// # Thread Safety
//
// All Collector methods are safe for concurrent use.
package metrics
