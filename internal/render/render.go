// Package render writes comparison reports as plain text.
package render

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/usestring/pairdiff/internal/compare"
	"github.com/usestring/pairdiff/pkg/types"
)

// Options controls report output.
type Options struct {
	ContextLines int  // Unified diff context; negative selects the default
	OnlyDiff     bool // Skip comparisons whose sides are identical
}

// Report writes one block per result, sorted by comparison name, followed
// by the failed comparisons. It returns the diffs it rendered.
func Report(w io.Writer, report *types.Report, opts Options) ([]types.DiffResult, error) {
	results := slices.Clone(report.Results)
	slices.SortFunc(results, func(a, b types.ComparisonResult) int {
		return strings.Compare(a.Name, b.Name)
	})

	diffs := make([]types.DiffResult, 0, len(results))
	for _, res := range results {
		d := compare.Diff(res, opts.ContextLines)
		diffs = append(diffs, d)
		if opts.OnlyDiff && d.Identical {
			continue
		}
		if err := writeDiff(w, d); err != nil {
			return diffs, err
		}
	}

	if len(report.Failures) > 0 {
		failures := slices.Clone(report.Failures)
		slices.SortFunc(failures, func(a, b *types.ComparisonFailure) int {
			return strings.Compare(a.Name, b.Name)
		})
		if _, err := fmt.Fprintf(w, "Failed comparisons (%d):\n", len(failures)); err != nil {
			return diffs, err
		}
		for _, f := range failures {
			if _, err := fmt.Fprintf(w, "  - %s\n", f.Error()); err != nil {
				return diffs, err
			}
		}
	}
	return diffs, nil
}

func writeDiff(w io.Writer, d types.DiffResult) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s => %s\n", d.Name, d.LeftURL, d.RightURL)
	if d.StatusChanged {
		fmt.Fprintf(&b, "  status: %d => %d\n", d.LeftStatus, d.RightStatus)
	} else {
		fmt.Fprintf(&b, "  status: %d\n", d.LeftStatus)
	}

	switch {
	case d.Identical:
		b.WriteString("  identical\n")
	case d.Unified == "":
		b.WriteString("  bodies identical\n")
	default:
		fmt.Fprintf(&b, "  severity: %s (+%d -%d)\n", d.Severity, d.Added, d.Removed)
		b.WriteString(d.Unified)
		if !strings.HasSuffix(d.Unified, "\n") {
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}
