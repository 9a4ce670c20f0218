// Package httpclient builds and sends Odyssey API requests.
//
// [NewRequestBuilder] binds a base URL and default JSON headers; Build turns a
// catalog case plus per-iteration data into an *http.Request:
//
//	builder, err := httpclient.NewRequestBuilderWithAuth(cfg.BaseURL, nil, auth.NewStaticTokenProvider(cfg.AuthToken))
//	if err != nil {
//		return err
//	}
//	req, err := builder.Build(ctx, c, data)
//
// Paths containing {job} use the job number held in the virtual user's
// variable store, so a send that returns a JobNumber feeds later queries.
//
// # HTTP Client
//
// The [NewClient] function creates an HTTP client optimized for load testing with
// configurable timeouts and connection reuse:
//
//	client := httpclient.NewClient(30 * time.Second)
//	resp, err := client.Do(req)
package httpclient
