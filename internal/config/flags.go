package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/odysseylab/msgload/internal/catalog"
)

// RegisterFlags registers all run flags on a cobra command.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags())
}

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "msgload run",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Target flags
	flags.StringP("environment", "e", EnvironmentTest, "Target environment: test, staging or production")
	flags.String("base-url", "", "Override the environment's API base URL")
	flags.String("auth-token", "", "Authorization header value (\"Bearer <token>\")")
	flags.String("job-number", catalog.DefaultJobNumber, "Job number used by job queries until a send returns one")

	// Load control flags
	flags.StringP("scenario", "s", "default", "Load scenario to run (see 'msgload scenarios')")
	flags.String("test-case", "", "Comma-separated catalog case IDs to run (0 or empty means all)")
	flags.Int("vus", 0, "Run a constant number of virtual users instead of the scenario's profile")
	flags.DurationP("duration", "d", 0, "Duration of the constant-vus override (e.g. 30s, 5m)")
	flags.IntP("iterations", "i", 0, "Stop after this many iterations (0 means unlimited)")
	flags.IntP("rate", "r", 0, "Iterations per second limit across all VUs (0 means unlimited)")
	flags.Duration("think-time-min", defaultThinkMin, "Minimum pause between iterations of one VU")
	flags.Duration("think-time-max", defaultThinkMax, "Maximum pause between iterations of one VU")
	flags.Duration("timeout", 0, "Per-request timeout (defaults to the environment profile)")
	flags.Int("retries", 0, "Retries per request (defaults to the environment profile)")
	flags.Int64("seed", 0, "Seed for test data generation (0 picks one from the clock)")
	flags.StringToString("tag", nil, "Extra tag attached to every metric point, key=value (repeatable)")

	// Output flags
	flags.StringP("out", "o", DefaultResultsFile, "NDJSON metric stream written during the run")
	flags.String("html-output", "", "Render an HTML report from the metric stream after the run")
	flags.Bool("json-output", false, "Emit the end-of-run summary as JSON")
	flags.Bool("dashboard", false, "Show live terminal dashboard with metrics")
	flags.Bool("log-errors", false, "Log each failed request")
	flags.String("log-level", "info", "Operational log level: debug, info, warn or error")
	flags.String("data-file", "", "YAML or JSON file overriding the built-in test data pools")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")

	// Threshold flags
	flags.StringSlice("threshold", nil, "Extra threshold as metric:expression (repeatable, e.g. 'http_req_duration:p(95)<2000')")

	// Tracing flags
	flags.Bool("tracing", false, "Enable OpenTelemetry tracing")
	flags.String("tracing-endpoint", "", "OTLP collector endpoint (host:port)")
	flags.String("tracing-protocol", "grpc", "OTLP protocol: grpc or http")
	flags.String("tracing-service-name", "", "Service name reported with spans")
	flags.Float64("tracing-sample-rate", 1.0, "Fraction of iterations to sample (0.0-1.0)")
	flags.Bool("tracing-insecure", false, "Disable TLS towards the collector")
	flags.Bool("tracing-propagate", true, "Inject W3C traceparent headers into requests")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s [flags]\n\nFlags:\n", cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config, overriding
// values from the config file and environment.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if fs.Changed("environment") {
		val, err := fs.GetString("environment")
		if err != nil {
			return err
		}
		cfg.Environment = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("base-url") {
		val, err := fs.GetString("base-url")
		if err != nil {
			return err
		}
		cfg.BaseURL = strings.TrimSpace(val)
	}
	if fs.Changed("auth-token") {
		val, err := fs.GetString("auth-token")
		if err != nil {
			return err
		}
		cfg.AuthToken = strings.TrimSpace(val)
	}
	if fs.Changed("job-number") {
		val, err := fs.GetString("job-number")
		if err != nil {
			return err
		}
		cfg.JobNumber = strings.TrimSpace(val)
	}
	if fs.Changed("scenario") {
		val, err := fs.GetString("scenario")
		if err != nil {
			return err
		}
		cfg.Scenario = strings.TrimSpace(val)
	}
	if fs.Changed("test-case") {
		val, err := fs.GetString("test-case")
		if err != nil {
			return err
		}
		ids, err := catalog.ParseIDs(val)
		if err != nil {
			return fmt.Errorf("test-case: %w", err)
		}
		cfg.TestCases = ids
	}
	if fs.Changed("vus") {
		val, err := fs.GetInt("vus")
		if err != nil {
			return err
		}
		cfg.VUs = val
	}
	if fs.Changed("duration") {
		val, err := fs.GetDuration("duration")
		if err != nil {
			return err
		}
		cfg.Duration = val
	}
	if fs.Changed("iterations") {
		val, err := fs.GetInt("iterations")
		if err != nil {
			return err
		}
		cfg.Iterations = val
	}
	if fs.Changed("rate") {
		val, err := fs.GetInt("rate")
		if err != nil {
			return err
		}
		cfg.Rate = val
	}
	if fs.Changed("think-time-min") {
		val, err := fs.GetDuration("think-time-min")
		if err != nil {
			return err
		}
		cfg.ThinkTimeMin = val
	}
	if fs.Changed("think-time-max") {
		val, err := fs.GetDuration("think-time-max")
		if err != nil {
			return err
		}
		cfg.ThinkTimeMax = val
	}
	if fs.Changed("timeout") {
		val, err := fs.GetDuration("timeout")
		if err != nil {
			return err
		}
		cfg.Timeout = val
	}
	if fs.Changed("retries") {
		val, err := fs.GetInt("retries")
		if err != nil {
			return err
		}
		cfg.Retries = val
	}
	if fs.Changed("seed") {
		val, err := fs.GetInt64("seed")
		if err != nil {
			return err
		}
		cfg.Seed = val
	}
	if fs.Changed("tag") {
		val, err := fs.GetStringToString("tag")
		if err != nil {
			return err
		}
		if cfg.Tags == nil {
			cfg.Tags = map[string]string{}
		}
		for k, v := range val {
			cfg.Tags[strings.TrimSpace(k)] = v
		}
	}
	if fs.Changed("out") {
		val, err := fs.GetString("out")
		if err != nil {
			return err
		}
		cfg.ResultsFile = strings.TrimSpace(val)
	}
	if fs.Changed("html-output") {
		val, err := fs.GetString("html-output")
		if err != nil {
			return err
		}
		cfg.HTMLOutput = strings.TrimSpace(val)
	}
	if fs.Changed("json-output") {
		val, err := fs.GetBool("json-output")
		if err != nil {
			return err
		}
		cfg.JSONOutput = val
	}
	if fs.Changed("dashboard") {
		val, err := fs.GetBool("dashboard")
		if err != nil {
			return err
		}
		cfg.Dashboard = val
	}
	if fs.Changed("log-errors") {
		val, err := fs.GetBool("log-errors")
		if err != nil {
			return err
		}
		cfg.LogErrors = val
	}
	if fs.Changed("log-level") {
		val, err := fs.GetString("log-level")
		if err != nil {
			return err
		}
		cfg.LogLevel = val
	}
	if fs.Changed("data-file") {
		val, err := fs.GetString("data-file")
		if err != nil {
			return err
		}
		cfg.DataFile = strings.TrimSpace(val)
	}
	if fs.Changed("threshold") {
		val, err := fs.GetStringSlice("threshold")
		if err != nil {
			return err
		}
		cfg.Thresholds = append(cfg.Thresholds, val...)
	}
	if err := applyTracingFlags(&cfg.Tracing, fs); err != nil {
		return err
	}
	return nil
}

func applyTracingFlags(t *TracingConfig, fs *pflag.FlagSet) error {
	if fs.Changed("tracing") {
		val, err := fs.GetBool("tracing")
		if err != nil {
			return err
		}
		t.Enable = val
	}
	if fs.Changed("tracing-endpoint") {
		val, err := fs.GetString("tracing-endpoint")
		if err != nil {
			return err
		}
		t.Endpoint = strings.TrimSpace(val)
	}
	if fs.Changed("tracing-protocol") {
		val, err := fs.GetString("tracing-protocol")
		if err != nil {
			return err
		}
		t.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("tracing-service-name") {
		val, err := fs.GetString("tracing-service-name")
		if err != nil {
			return err
		}
		t.ServiceName = val
	}
	if fs.Changed("tracing-sample-rate") {
		val, err := fs.GetFloat64("tracing-sample-rate")
		if err != nil {
			return err
		}
		t.SampleRate = val
	}
	if fs.Changed("tracing-insecure") {
		val, err := fs.GetBool("tracing-insecure")
		if err != nil {
			return err
		}
		t.Insecure = val
	}
	if fs.Changed("tracing-propagate") {
		val, err := fs.GetBool("tracing-propagate")
		if err != nil {
			return err
		}
		t.Propagate = &val
	}
	return nil
}
