package report

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/odysseylab/msgload/internal/logging"
)

// ErrUsage is returned when the command is not given exactly an input and an
// output path.
var ErrUsage = errors.New("expected exactly two arguments: <input> <output>")

// NewCommand returns the "<input> <output>" report command. It takes no
// flags: every argument, including "--help" or a path starting with "-", is
// positional. Usage and the operational log go to stderr.
func NewCommand(use string, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           use + " <input> <output>",
		Short:         "Render an HTML summary from an NDJSON metric log",
		SilenceErrors: true,
		SilenceUsage:  true,
		// Flag parsing is off so cobra's built-in --help is not recognized.
		DisableFlagParsing: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
				return ErrUsage
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logging.New("info", cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			_, err = Generate(args[0], args[1], Options{Now: time.Now, Logger: log})
			return err
		},
	}
	cmd.SetOut(stderr)
	cmd.SetErr(stderr)
	return cmd
}
