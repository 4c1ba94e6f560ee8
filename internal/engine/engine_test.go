package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/pairdiff/internal/cache"
	"github.com/usestring/pairdiff/pkg/types"
)

func countingServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/left":
			_, _ = w.Write([]byte(`{"a":1,"b":2}`))
		default:
			_, _ = w.Write([]byte(`{"a":1,"b":3}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T) Config {
	return Config{
		CachePath: filepath.Join(t.TempDir(), "cache", "pairs.json"),
		Timeout:   5 * time.Second,
		Workers:   4,
		MemoItems: 16,
	}
}

func TestEngine_CompareProducesResults(t *testing.T) {
	var hits atomic.Int32
	srv := countingServer(t, &hits)

	specs := []types.ComparisonSpec{{
		Name:  "users",
		Left:  types.RequestSpec{URL: srv.URL + "/left"},
		Right: types.RequestSpec{URL: srv.URL + "/right"},
	}}

	e, err := New(testConfig(t), specs)
	require.NoError(t, err)
	assert.Nil(t, e.Cache(), "no spec asked for caching")

	report, err := e.Compare(context.Background(), specs)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	res := report.Results[0]
	assert.Equal(t, "{\n  \"a\": 1,\n  \"b\": 2\n}", res.Left.Body)
	assert.Equal(t, "{\n  \"a\": 1,\n  \"b\": 3\n}", res.Right.Body)

	require.NoError(t, e.Close())
}

func TestEngine_NoCacheFileWithoutCachedSpecs(t *testing.T) {
	var hits atomic.Int32
	srv := countingServer(t, &hits)
	cfg := testConfig(t)

	specs := []types.ComparisonSpec{{
		Name:  "x",
		Left:  types.RequestSpec{URL: srv.URL + "/left"},
		Right: types.RequestSpec{URL: srv.URL + "/right"},
	}}
	e, err := New(cfg, specs)
	require.NoError(t, err)
	require.NoError(t, e.Close())

	_, err = os.Stat(cfg.CachePath)
	assert.True(t, os.IsNotExist(err))
}

func TestEngine_CachePersistsAcrossRuns(t *testing.T) {
	var hits atomic.Int32
	srv := countingServer(t, &hits)
	cfg := testConfig(t)

	specs := []types.ComparisonSpec{{
		Name:  "cached",
		Left:  types.RequestSpec{URL: srv.URL + "/left", UseCache: true},
		Right: types.RequestSpec{URL: srv.URL + "/right"},
	}}

	first, err := New(cfg, specs)
	require.NoError(t, err)
	require.NotNil(t, first.Cache())
	report1, err := first.Compare(context.Background(), specs)
	require.NoError(t, err)
	require.NoError(t, first.Close())
	assert.Equal(t, int32(2), hits.Load())

	second, err := New(cfg, specs)
	require.NoError(t, err)
	report2, err := second.Compare(context.Background(), specs)
	require.NoError(t, err)
	require.NoError(t, second.Close())

	// Only the uncached right side hits the network again.
	assert.Equal(t, int32(3), hits.Load())
	assert.Equal(t, report1.Results[0].Left, report2.Results[0].Left)
}

func TestEngine_ConfigurationErrors(t *testing.T) {
	valid := types.RequestSpec{URL: "http://example.com"}

	tests := []struct {
		name  string
		specs []types.ComparisonSpec
	}{
		{"empty name", []types.ComparisonSpec{{Name: "", Left: valid, Right: valid}}},
		{"empty url", []types.ComparisonSpec{{Name: "a", Left: types.RequestSpec{}, Right: valid}}},
		{"relative url", []types.ComparisonSpec{{Name: "a", Left: valid, Right: types.RequestSpec{URL: "/x"}}}},
		{"duplicate names", []types.ComparisonSpec{{Name: "a", Left: valid, Right: valid}, {Name: "a", Left: valid, Right: valid}}},
		{"both auth schemes", []types.ComparisonSpec{{Name: "a", Left: types.RequestSpec{
			URL:  "http://example.com",
			Auth: types.Auth{Kind: types.AuthBasic, Username: "u", Token: "t"},
		}, Right: valid}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(testConfig(t), tt.specs)
			require.ErrorIs(t, err, types.ErrInvalidSpec)
		})
	}
}

func TestEngine_CorruptCacheIsFatal(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.CachePath), 0o755))
	require.NoError(t, os.WriteFile(cfg.CachePath, []byte("garbage"), 0o644))

	specs := []types.ComparisonSpec{{
		Name:  "x",
		Left:  types.RequestSpec{URL: "http://example.com", UseCache: true},
		Right: types.RequestSpec{URL: "http://example.com"},
	}}
	_, err := New(cfg, specs)
	require.ErrorIs(t, err, cache.ErrCorrupt)
}

func TestEngine_CloseOnce(t *testing.T) {
	cfg := testConfig(t)
	cfg.AlwaysCache = true

	e, err := New(cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, e.Cache())

	require.NoError(t, e.Close())
	assert.ErrorIs(t, e.Close(), ErrClosed)

	_, err = e.Compare(context.Background(), nil)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = e.FetchOne(context.Background(), types.RequestSpec{URL: "http://example.com"})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestEngine_CompareRejectsInvalidSpecs(t *testing.T) {
	e, err := New(testConfig(t), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })

	_, err = e.Compare(context.Background(), []types.ComparisonSpec{{Name: "x"}})
	assert.ErrorIs(t, err, types.ErrInvalidSpec)
}

func TestEngine_OnComplete(t *testing.T) {
	var hits atomic.Int32
	srv := countingServer(t, &hits)

	var completed atomic.Int32
	specs := []types.ComparisonSpec{
		{Name: "a", Left: types.RequestSpec{URL: srv.URL + "/left"}, Right: types.RequestSpec{URL: srv.URL + "/right"}},
		{Name: "b", Left: types.RequestSpec{URL: srv.URL + "/left"}, Right: types.RequestSpec{URL: srv.URL + "/right"}},
	}
	e, err := New(testConfig(t), specs, WithOnComplete(func(string, error) { completed.Add(1) }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })

	_, err = e.Compare(context.Background(), specs)
	require.NoError(t, err)
	assert.Equal(t, int32(2), completed.Load())
}
