package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/odysseylab/msgload/internal/catalog"
	"github.com/odysseylab/msgload/internal/scenario"
)

func printCases(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCATEGORY\tMETHOD\tPATH\tNAME")
	for _, c := range catalog.All() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", c.ID, c.Category, c.Method, c.Path, c.Name)
	}
	return tw.Flush()
}

func printScenarios(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tEXECUTOR\tMAX VUS\tDURATION\tCASES\tDESCRIPTION")
	for _, name := range scenario.Names() {
		sc, err := scenario.Lookup(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
			sc.Name,
			sc.Executor,
			sc.MaxVUs(),
			formatDuration(sc.TotalDuration()),
			formatCases(sc.Cases),
			sc.Description,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	for _, group := range []string{"quick", "medium", "long"} {
		fmt.Fprintf(w, "%-7s %s\n", group+":", strings.Join(scenario.Matrix()[group], ", "))
	}
	return nil
}

func formatCases(ids []int) string {
	if len(ids) == 0 {
		return "all"
	}
	return catalog.FormatIDs(ids)
}

// formatDuration trims the zero units time.Duration.String leaves on whole
// minutes and hours.
func formatDuration(d time.Duration) string {
	s := d.String()
	if strings.HasSuffix(s, "m0s") {
		s = s[:len(s)-2]
	}
	if strings.HasSuffix(s, "h0m") {
		s = s[:len(s)-2]
	}
	return s
}
