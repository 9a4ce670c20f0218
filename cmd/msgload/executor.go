package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/odysseylab/msgload/internal/catalog"
	"github.com/odysseylab/msgload/internal/datapool"
	"github.com/odysseylab/msgload/internal/events"
	"github.com/odysseylab/msgload/internal/httpclient"
	"github.com/odysseylab/msgload/internal/metrics"
	"github.com/odysseylab/msgload/internal/runner"
	"github.com/odysseylab/msgload/internal/tracing"
	"github.com/odysseylab/msgload/internal/variables"
)

const (
	maxLoggedBodyBytes = 1024
	maxBodyReadSize    = 1024 * 1024
)

// pointTypes declares every metric the executor emits.
var pointTypes = []struct {
	name string
	typ  events.MetricType
}{
	{events.MetricVUs, events.MetricTypeGauge},
	{events.MetricIterations, events.MetricTypeCounter},
	{events.MetricIterationDuration, events.MetricTypeTrend},
	{events.MetricHTTPReqs, events.MetricTypeCounter},
	{events.MetricHTTPReqFailed, events.MetricTypeRate},
	{events.MetricHTTPReqDuration, events.MetricTypeTrend},
	{events.MetricChecks, events.MetricTypeRate},
	{events.MetricAPIErrors, events.MetricTypeCounter},
	{events.MetricAPISuccessRate, events.MetricTypeRate},
	{events.MetricAPIResponseTime, events.MetricTypeTrend},
}

// executorConfig wires an executor.
type executorConfig struct {
	Client    *http.Client
	Builder   *httpclient.RequestBuilder
	Cases     []catalog.Case
	Pools     datapool.Pools
	Seed      int64
	JobNumber string
	MaxVUs    int
	Retries   int
	Scenario  string
	Tags      map[string]string // attached to every point
	Collector *metrics.Collector
	Points    *events.Writer
	Tracing   *tracing.Provider
	Failures  runner.FailureLogger // nil disables failure logging
}

// vuState is owned by a single worker.
type vuState struct {
	store  variables.Store
	source *datapool.Source
	rnd    *rand.Rand
}

// executor runs catalog cases for virtual users and records what it observes.
type executor struct {
	client    *http.Client
	builder   *httpclient.RequestBuilder
	cases     []catalog.Case
	jobNumber string
	scenario  string
	tags      map[string]string
	collector *metrics.Collector
	points    *events.Writer
	tracer    trace.Tracer
	propagate bool
	failures  runner.FailureLogger
	policy    runner.RetryPolicy
	retries   int
	vus       []*vuState
}

// callOutcome is what one catalog call produced.
type callOutcome struct {
	status  int
	latency time.Duration
	body    []byte
	err     error
}

func newExecutor(cfg executorConfig) (*executor, error) {
	if cfg.Client == nil || cfg.Builder == nil {
		return nil, errors.New("executor requires an HTTP client and request builder")
	}
	if len(cfg.Cases) == 0 {
		return nil, errors.New("executor requires at least one test case")
	}
	if cfg.Collector == nil {
		return nil, errors.New("executor requires a metrics collector")
	}
	if cfg.MaxVUs <= 0 {
		cfg.MaxVUs = 1
	}
	if cfg.JobNumber == "" {
		cfg.JobNumber = catalog.DefaultJobNumber
	}

	e := &executor{
		client:    cfg.Client,
		builder:   cfg.Builder,
		cases:     cfg.Cases,
		jobNumber: cfg.JobNumber,
		scenario:  cfg.Scenario,
		tags:      cfg.Tags,
		collector: cfg.Collector,
		points:    cfg.Points,
		tracer:    cfg.Tracing.Tracer(),
		propagate: cfg.Tracing.ShouldPropagate(),
		failures:  cfg.Failures,
		retries:   cfg.Retries,
		vus:       make([]*vuState, cfg.MaxVUs),
	}
	if cfg.Retries > 0 {
		e.policy = runner.NewRetryPolicy(cfg.Retries)
	}
	for i := range e.vus {
		seed := cfg.Seed + int64(i)
		e.vus[i] = &vuState{
			store:  variables.NewStore(map[string]string{variables.KeyJobNumber: cfg.JobNumber}),
			source: datapool.NewSource(cfg.Pools, seed),
			rnd:    rand.New(rand.NewSource(seed)),
		}
	}
	return e, nil
}

// Declare writes the metric declarations at the head of the log.
func (e *executor) Declare() error {
	if e.points == nil {
		return nil
	}
	for _, p := range pointTypes {
		if err := e.points.Declare(p.name, p.typ); err != nil {
			return err
		}
	}
	return nil
}

// ReportVUs feeds the vus gauge.
func (e *executor) ReportVUs(n int) {
	e.collector.SetVUs(n)
	e.emit(events.MetricVUs, float64(n), time.Now(), e.tags)
}

// Iterate runs one iteration for virtual user vu: one catalog case, chosen at
// random from the selection.
func (e *executor) Iterate(ctx context.Context, vu int) error {
	st := e.vu(vu)
	c := e.pick(st)
	start := time.Now()

	err := e.call(variables.NewContext(ctx, st.store), vu, st, c)

	elapsed := time.Since(start)
	e.collector.RecordIteration(elapsed)
	tags := e.caseTags(c, "")
	now := time.Now()
	e.emit(events.MetricIterations, 1, now, tags)
	e.emit(events.MetricIterationDuration, durationMs(elapsed), now, tags)
	return err
}

func (e *executor) vu(idx int) *vuState {
	if idx < 0 || idx >= len(e.vus) {
		idx = 0
	}
	return e.vus[idx]
}

func (e *executor) pick(st *vuState) catalog.Case {
	if len(e.cases) == 1 {
		return e.cases[0]
	}
	return e.cases[st.rnd.Intn(len(e.cases))]
}

// call sends c with retries and records the final attempt.
func (e *executor) call(ctx context.Context, vu int, st *vuState, c catalog.Case) error {
	data := catalog.NewData(st.source, variables.Lookup(ctx, variables.KeyJobNumber, e.jobNumber))
	ctx, span := tracing.StartCallSpan(ctx, e.tracer, tracing.CallInfo{
		CaseID:   c.ID,
		CaseName: c.Name,
		Category: c.Category,
		Scenario: e.scenario,
		Method:   c.Method,
		URL:      e.builder.BaseURL() + c.Target(data),
		VU:       vu,
	})

	var out callOutcome
	var attempt runner.Requester = runner.RequesterFunc(func(ctx context.Context) error {
		out = e.send(ctx, c, data)
		return out.err
	})
	if e.failures != nil {
		attempt = runner.WithLogging(attempt, e.failures)
	}
	if e.retries > 0 {
		attempt = runner.WithRetry(attempt, e.policy)
	}
	err := attempt.Do(ctx)

	checks := c.Evaluate(out.status, out.latency, out.body)
	passed, failed := 0, 0
	for _, ch := range checks {
		if ch.Passed {
			passed++
		} else {
			failed++
		}
	}
	if err == nil {
		if job, ok := c.Captured(out.body); ok {
			st.store.Set(variables.KeyJobNumber, job)
		}
	}

	status := ""
	if out.status > 0 {
		status = strconv.Itoa(out.status)
	}
	e.collector.RecordRequest(out.latency, err, &metrics.RequestMetadata{
		Endpoint:     caseLabel(c),
		Category:     c.Category,
		StatusCode:   status,
		ChecksPassed: passed,
		ChecksFailed: failed,
	})
	e.emitRequest(c, status, out.latency, err, checks)

	if out.status > 0 {
		tracing.EndSpan(span, err, tracing.AttrHTTPStatus.Int(out.status))
	} else {
		tracing.EndSpan(span, err)
	}
	return err
}

// send performs one attempt.
func (e *executor) send(ctx context.Context, c catalog.Case, data *catalog.Data) callOutcome {
	req, err := e.builder.Build(ctx, c, data)
	if err != nil {
		return callOutcome{err: err}
	}
	if e.propagate {
		tracing.InjectHTTPHeaders(ctx, req.Header)
	}

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return callOutcome{latency: time.Since(start), err: err}
	}
	defer resp.Body.Close()

	// Body read errors are non-fatal; checks then see an empty body.
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyReadSize))
	if readErr != nil {
		body = nil
	}
	out := callOutcome{status: resp.StatusCode, latency: time.Since(start), body: body}
	if resp.StatusCode >= 400 {
		snippet := body
		if len(snippet) > maxLoggedBodyBytes {
			snippet = snippet[:maxLoggedBodyBytes]
		}
		out.err = &runner.HTTPError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}
	return out
}

func (e *executor) emitRequest(c catalog.Case, status string, latency time.Duration, err error, checks []catalog.Check) {
	if e.points == nil {
		return
	}
	now := time.Now()
	tags := e.caseTags(c, status)
	ms := durationMs(latency)

	failed := 0.0
	if err != nil {
		failed = 1
	}
	e.emit(events.MetricHTTPReqs, 1, now, tags)
	e.emit(events.MetricHTTPReqDuration, ms, now, tags)
	e.emit(events.MetricHTTPReqFailed, failed, now, tags)

	ok := err == nil
	for _, ch := range checks {
		checkTags := withTag(tags, "check", ch.Name)
		if ch.Passed {
			e.emit(events.MetricChecks, 1, now, checkTags)
		} else {
			ok = false
			e.emit(events.MetricChecks, 0, now, checkTags)
		}
	}

	e.emit(events.MetricAPIResponseTime, ms, now, tags)
	if ok {
		e.emit(events.MetricAPISuccessRate, 1, now, tags)
	} else {
		e.emit(events.MetricAPISuccessRate, 0, now, tags)
		e.emit(events.MetricAPIErrors, 1, now, tags)
	}
}

func (e *executor) emit(metric string, value float64, at time.Time, tags map[string]string) {
	if e.points == nil {
		return
	}
	// Write errors are sticky and surface from Close.
	_ = e.points.WritePoint(metric, value, at, tags)
}

func (e *executor) caseTags(c catalog.Case, status string) map[string]string {
	tags := make(map[string]string, len(e.tags)+4)
	for k, v := range e.tags {
		tags[k] = v
	}
	tags["case"] = strconv.Itoa(c.ID)
	tags["name"] = c.Name
	tags["category"] = c.Category
	if status != "" {
		tags["status"] = status
	}
	return tags
}

func withTag(tags map[string]string, key, value string) map[string]string {
	out := make(map[string]string, len(tags)+1)
	for k, v := range tags {
		out[k] = v
	}
	out[key] = value
	return out
}

func caseLabel(c catalog.Case) string {
	return fmt.Sprintf("%d %s", c.ID, c.Name)
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
