package compare

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/usestring/pairdiff/pkg/types"
)

// Diff compares the normalized bodies of both sides line by line.
// A negative contextLines selects DefaultContextLines.
func Diff(result types.ComparisonResult, contextLines int) types.DiffResult {
	if contextLines < 0 {
		contextLines = DefaultContextLines
	}

	out := types.DiffResult{
		Name:          result.Name,
		LeftURL:       result.Left.URL,
		RightURL:      result.Right.URL,
		LeftStatus:    result.Left.StatusCode,
		RightStatus:   result.Right.StatusCode,
		StatusChanged: result.Left.StatusCode != result.Right.StatusCode,
	}

	a := difflib.SplitLines(result.Left.Body)
	b := difflib.SplitLines(result.Right.Body)
	out.Added, out.Removed = countChanges(a, b)

	if result.Left.Body != result.Right.Body {
		unified, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        a,
			B:        b,
			FromFile: sideLabel("left", result.Left.URL),
			ToFile:   sideLabel("right", result.Right.URL),
			Context:  contextLines,
		})
		if err != nil {
			// Only write errors can surface here and the target is a buffer.
			unified = fmt.Sprintf("diff failed: %v\n", err)
		}
		out.Unified = unified
	}

	out.Identical = !out.StatusChanged && result.Left.Body == result.Right.Body
	out.Severity = computeSeverity(&out)
	return out
}

// countChanges counts lines present only on the right (added) and only on
// the left (removed).
func countChanges(a, b []string) (added, removed int) {
	m := difflib.NewMatcher(a, b)
	for _, op := range m.GetOpCodes() {
		switch op.Tag {
		case 'r':
			removed += op.I2 - op.I1
			added += op.J2 - op.J1
		case 'd':
			removed += op.I2 - op.I1
		case 'i':
			added += op.J2 - op.J1
		}
	}
	return added, removed
}

// computeSeverity grades a diff.
// "high": status codes differ.
// "medium": more than mediumChangeLines lines changed.
// "low": any other body difference.
// "none": identical.
func computeSeverity(d *types.DiffResult) types.Severity {
	switch {
	case d.Identical:
		return types.SeverityNone
	case d.StatusChanged:
		return types.SeverityHigh
	case d.Added+d.Removed > mediumChangeLines:
		return types.SeverityMedium
	default:
		return types.SeverityLow
	}
}

func sideLabel(side, url string) string {
	if url == "" {
		return side
	}
	return side + " " + url
}
