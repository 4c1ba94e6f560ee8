package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/pairdiff/pkg/types"
)

func sampleReport() *types.Report {
	return &types.Report{
		Results: []types.ComparisonResult{
			{
				Name:  "zeta",
				Left:  types.FetchedResponse{URL: "http://a/z", StatusCode: 200, Body: "{\n  \"v\": 1\n}"},
				Right: types.FetchedResponse{URL: "http://b/z", StatusCode: 200, Body: "{\n  \"v\": 2\n}"},
			},
			{
				Name:  "alpha",
				Left:  types.FetchedResponse{URL: "http://a/a", StatusCode: 200, Body: "{}"},
				Right: types.FetchedResponse{URL: "http://b/a", StatusCode: 200, Body: "{}"},
			},
			{
				Name:  "mid",
				Left:  types.FetchedResponse{URL: "http://a/m", StatusCode: 200, Body: "[]"},
				Right: types.FetchedResponse{URL: "http://b/m", StatusCode: 404, Body: "[]"},
			},
		},
		Failures: []*types.ComparisonFailure{
			{Name: "broken", Side: types.SideRight, URL: "http://b/x", Err: errors.New("connection refused")},
		},
	}
}

func TestReport_SortedBlocksAndFailures(t *testing.T) {
	var buf bytes.Buffer
	diffs, err := Report(&buf, sampleReport(), Options{ContextLines: 3})
	require.NoError(t, err)
	require.Len(t, diffs, 3)
	assert.Equal(t, "alpha", diffs[0].Name)
	assert.Equal(t, "mid", diffs[1].Name)
	assert.Equal(t, "zeta", diffs[2].Name)

	out := buf.String()
	alpha := strings.Index(out, "alpha: http://a/a => http://b/a")
	mid := strings.Index(out, "mid: http://a/m => http://b/m")
	zeta := strings.Index(out, "zeta: http://a/z => http://b/z")
	failed := strings.Index(out, "Failed comparisons (1):")
	require.True(t, alpha >= 0 && mid > alpha && zeta > mid && failed > zeta, out)

	assert.Contains(t, out, "  identical\n")
	assert.Contains(t, out, "  status: 200 => 404\n")
	assert.Contains(t, out, "  bodies identical\n")
	assert.Contains(t, out, "-  \"v\": 1\n+  \"v\": 2\n")
	assert.Contains(t, out, `  - comparison "broken" right (http://b/x): connection refused`)
}

func TestReport_OnlyDiffSkipsIdentical(t *testing.T) {
	var buf bytes.Buffer
	diffs, err := Report(&buf, sampleReport(), Options{ContextLines: 3, OnlyDiff: true})
	require.NoError(t, err)
	assert.Len(t, diffs, 3)
	assert.NotContains(t, buf.String(), "alpha:")
	assert.Contains(t, buf.String(), "zeta:")
}

func TestReport_Empty(t *testing.T) {
	var buf bytes.Buffer
	diffs, err := Report(&buf, &types.Report{}, Options{})
	require.NoError(t, err)
	assert.Empty(t, diffs)
	assert.Empty(t, buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed pipe") }

func TestReport_WriteError(t *testing.T) {
	_, err := Report(failingWriter{}, sampleReport(), Options{})
	require.Error(t, err)
}
