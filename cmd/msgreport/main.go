// Command msgreport renders an HTML summary from a load run's NDJSON metric log.
//
//	msgreport <input> <output>
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/odysseylab/msgload/internal/report"
)

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stderr io.Writer) error {
	cmd := report.NewCommand("msgreport", stderr)
	if args == nil {
		// cobra falls back to os.Args for a nil slice.
		args = []string{}
	}
	cmd.SetArgs(args)
	return cmd.Execute()
}
