// Command msgload drives load against the Odyssey messaging API, records every
// observation to an NDJSON metric log and renders reports from it.
//
//	msgload run [flags]
//	msgload report <input> <output>
//	msgload cases
//	msgload scenarios
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/odysseylab/msgload/internal/report"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCommand(ctx, stdout, stderr)
	if args == nil {
		// cobra falls back to os.Args for a nil slice.
		args = []string{}
	}
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCommand(ctx context.Context, stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "msgload",
		Short:         "Load testing for the Odyssey messaging API",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	runCmd := &cobra.Command{
		Use:   "run [flags]",
		Short: "Run a load scenario and write its metric log",
		// Flags are parsed by config.Loader so file, environment and flag
		// precedence live in one place.
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(ctx, args, stdout, stderr)
		},
	}

	casesCmd := &cobra.Command{
		Use:   "cases",
		Short: "List the API test case catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printCases(stdout)
		},
	}

	scenariosCmd := &cobra.Command{
		Use:   "scenarios",
		Short: "List the load scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printScenarios(stdout)
		},
	}

	root.AddCommand(runCmd, report.NewCommand("report", stderr), casesCmd, scenariosCmd)
	return root
}
