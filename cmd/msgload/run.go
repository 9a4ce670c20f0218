package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/odysseylab/msgload/internal/auth"
	"github.com/odysseylab/msgload/internal/catalog"
	"github.com/odysseylab/msgload/internal/config"
	"github.com/odysseylab/msgload/internal/dashboard"
	"github.com/odysseylab/msgload/internal/datapool"
	"github.com/odysseylab/msgload/internal/events"
	"github.com/odysseylab/msgload/internal/httpclient"
	"github.com/odysseylab/msgload/internal/logging"
	"github.com/odysseylab/msgload/internal/metrics"
	"github.com/odysseylab/msgload/internal/output"
	"github.com/odysseylab/msgload/internal/report"
	"github.com/odysseylab/msgload/internal/runner"
	"github.com/odysseylab/msgload/internal/scenario"
	"github.com/odysseylab/msgload/internal/threshold"
	"github.com/odysseylab/msgload/internal/tracing"
)

const (
	progressInterval = time.Second
	shutdownTimeout  = 5 * time.Second
)

// ErrThresholdsFailed is returned when at least one threshold did not pass.
var ErrThresholdsFailed = errors.New("thresholds failed")

// zapFailureLogger logs failed requests through the operational log.
type zapFailureLogger struct {
	log *zap.Logger
}

func (l zapFailureLogger) LogFailure(err error) {
	if err == nil {
		return
	}
	var httpErr *runner.HTTPError
	if errors.As(err, &httpErr) {
		l.log.Warn("request failed",
			zap.Int("status", httpErr.StatusCode),
			zap.String("body", httpErr.Body),
		)
		return
	}
	l.log.Warn("request failed", zap.Error(err))
}

// runLoad executes the run subcommand. args are the raw flags after "run".
func runLoad(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	for _, warning := range cfg.Warnings() {
		log.Warn(warning)
	}

	sc, err := cfg.ResolveScenario()
	if err != nil {
		return err
	}
	if err := sc.Validate(); err != nil {
		return err
	}
	cases, err := catalog.Select(sc.Cases)
	if err != nil {
		return err
	}

	pools := datapool.Defaults()
	if cfg.DataFile != "" {
		if pools, err = datapool.Load(cfg.DataFile); err != nil {
			return err
		}
	}

	thresholds, err := buildThresholds(sc, cfg.Thresholds)
	if err != nil {
		return err
	}

	provider := auth.NewStaticTokenProvider(cfg.AuthToken)
	defer provider.Close()
	builder, err := httpclient.NewRequestBuilderWithAuth(cfg.BaseURL, nil, provider)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tp, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("tracing shutdown", zap.Error(err))
		}
	}()

	points, err := events.Create(cfg.ResultsFile)
	if err != nil {
		return err
	}
	pointsClosed := false
	defer func() {
		if !pointsClosed {
			_ = points.Close()
		}
	}()

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	runID := uuid.NewString()
	collector := metrics.NewCollector()

	var failures runner.FailureLogger
	if cfg.LogErrors {
		failures = zapFailureLogger{log: log}
	}
	exec, err := newExecutor(executorConfig{
		Client:    httpclient.NewClient(cfg.Timeout),
		Builder:   builder,
		Cases:     cases,
		Pools:     pools,
		Seed:      seed,
		JobNumber: cfg.JobNumber,
		MaxVUs:    sc.MaxVUs(),
		Retries:   cfg.Retries,
		Scenario:  sc.Name,
		Tags:      runTags(sc, cfg, runID),
		Collector: collector,
		Points:    points,
		Tracing:   tp,
		Failures:  failures,
	})
	if err != nil {
		return err
	}
	if err := exec.Declare(); err != nil {
		return err
	}

	info := output.RunInfo{
		RunID:       runID,
		Scenario:    sc.Name,
		Environment: cfg.Environment,
		BaseURL:     cfg.BaseURL,
		MaxVUs:      sc.MaxVUs(),
		ResultsFile: cfg.ResultsFile,
	}

	r := runner.New(runner.Options{
		MaxVUs:        sc.MaxVUs(),
		Plan:          sc,
		Duration:      sc.TotalDuration(),
		Iterations:    cfg.Iterations,
		RatePerSecond: cfg.Rate,
		ThinkTime:     newThinkTime(cfg.ThinkTimeMin, cfg.ThinkTimeMax, seed),
		Iteration:     exec.Iterate,
		OnVUs:         exec.ReportVUs,
	})

	var dash *dashboard.Dashboard
	if cfg.Dashboard {
		dash, err = dashboard.New(collector, dashboard.RunConfig{
			Scenario:    sc.Name,
			Executor:    sc.Executor,
			Environment: cfg.Environment,
			BaseURL:     cfg.BaseURL,
			MaxVUs:      sc.MaxVUs(),
			Duration:    sc.TotalDuration(),
			Iterations:  cfg.Iterations,
			Rate:        cfg.Rate,
			Timeout:     cfg.Timeout,
			Retries:     cfg.Retries,
			Cases:       len(cases),
			ConfigFile:  cfg.ConfigFile,
		}, cancel)
		if err != nil {
			return err
		}
		dash.Start()
	}

	var progress *output.ProgressReporter
	if !cfg.JSONOutput && !cfg.Dashboard {
		output.PrintHeader(stdout, info, sc.Description)
		progress = output.NewProgressReporter(collector, progressInterval, sc.TotalDuration(), stdout)
		progress.Start()
	}

	log.Info("run started",
		zap.String("run_id", runID),
		zap.String("scenario", sc.Name),
		zap.Int("max_vus", sc.MaxVUs()),
		zap.Duration("duration", sc.TotalDuration()),
		zap.Int("cases", len(cases)),
	)

	// The collector's clock starts with the load, not with setup.
	collector.Start()
	result := r.Run(ctx)

	if dash != nil {
		dash.Stop()
	}
	if progress != nil {
		progress.Stop()
	}

	stats := collector.Stats(result.Duration)
	pointsClosed = true
	if err := points.Close(); err != nil {
		return fmt.Errorf("results file: %w", err)
	}
	log.Info("run finished",
		zap.Int64("iterations", result.Iterations),
		zap.Int64("errors", result.Errors),
		zap.Duration("elapsed", result.Duration),
	)

	results := threshold.NewEvaluator(thresholds).Evaluate(stats)
	if cfg.JSONOutput {
		if err := output.PrintJSONReport(stdout, info, stats, results); err != nil {
			return err
		}
	} else {
		output.PrintReport(stdout, stats)
		output.PrintThresholds(stdout, results)
	}

	if cfg.HTMLOutput != "" {
		if _, err := report.Generate(cfg.ResultsFile, cfg.HTMLOutput, report.Options{Logger: log}); err != nil {
			return fmt.Errorf("html report: %w", err)
		}
	}

	if !threshold.AllPassed(results) {
		return ErrThresholdsFailed
	}
	return nil
}

// buildThresholds parses the scenario's merged thresholds followed by the
// extra "metric:expr" ones from the config.
func buildThresholds(sc scenario.Scenario, extra []string) ([]threshold.Threshold, error) {
	base, err := threshold.ParseMap(sc.MergedThresholds())
	if err != nil {
		return nil, fmt.Errorf("scenario %s thresholds: %w", sc.Name, err)
	}
	more, err := threshold.ParseMultiple(extra)
	if err != nil {
		return nil, err
	}
	return append(base, more...), nil
}

// runTags are attached to every metric point of the run.
func runTags(sc scenario.Scenario, cfg *config.Config, runID string) map[string]string {
	tags := make(map[string]string, len(sc.Tags)+4)
	for k, v := range sc.Tags {
		tags[k] = v
	}
	tags["scenario"] = sc.Name
	tags["testid"] = scenario.TestID
	tags["environment"] = cfg.Environment
	tags["run_id"] = runID
	return tags
}

// newThinkTime returns a uniform pause in [lo, hi]. It is called from every
// worker, so the random source is guarded.
func newThinkTime(lo, hi time.Duration, seed int64) func() time.Duration {
	if hi <= 0 {
		return nil
	}
	if hi <= lo {
		return func() time.Duration { return lo }
	}
	var mu sync.Mutex
	rnd := rand.New(rand.NewSource(seed))
	span := int64(hi - lo)
	return func() time.Duration {
		mu.Lock()
		defer mu.Unlock()
		return lo + time.Duration(rnd.Int63n(span+1))
	}
}
