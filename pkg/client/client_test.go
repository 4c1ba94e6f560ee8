package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/pairdiff/pkg/types"
)

func strPtr(s string) *string { return &s }

func jsonServer(t *testing.T, hits *atomic.Int32, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDo_SendsMethodHeadersQueryAndAuth(t *testing.T) {
	var got *http.Request
	srv := jsonServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	c := New()
	resp, err := c.Do(context.Background(), types.RequestSpec{
		Method:  "post",
		URL:     srv.URL + "/items?existing=1",
		Headers: map[string]string{"X-Env": "staging"},
		Query:   map[string]string{"page": "2"},
		Auth:    types.BasicAuth("alice", strPtr("secret")),
	})
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/items", got.URL.Path)
	assert.Equal(t, "1", got.URL.Query().Get("existing"))
	assert.Equal(t, "2", got.URL.Query().Get("page"))
	assert.Equal(t, "staging", got.Header.Get("X-Env"))
	assert.Equal(t, DefaultUserAgent, got.Header.Get("User-Agent"))
	user, pass, ok := got.BasicAuth()
	require.True(t, ok)
	assert.Equal(t, "alice", user)
	assert.Equal(t, "secret", pass)

	assert.Equal(t, uint16(http.StatusCreated), resp.StatusCode)
	assert.Equal(t, "application/json", resp.ContentType)
	assert.Equal(t, []byte(`{"ok":true}`), resp.Body)
	assert.Contains(t, resp.URL, "page=2")
}

func TestDo_BearerAuth(t *testing.T) {
	var auth string
	srv := jsonServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := New().Do(context.Background(), types.RequestSpec{
		URL:  srv.URL,
		Auth: types.BearerAuth("tok123"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok123", auth)
}

func TestDo_BasicAuthWithoutPassword(t *testing.T) {
	var user, pass string
	var ok bool
	srv := jsonServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok = r.BasicAuth()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := New().Do(context.Background(), types.RequestSpec{
		URL:  srv.URL,
		Auth: types.BasicAuth("bob", nil),
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "bob", user)
	assert.Empty(t, pass)
}

func TestDo_URLWithoutQueryIsSentVerbatim(t *testing.T) {
	srv := jsonServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})

	u := srv.URL + "/a?b=c&a=d"
	resp, err := New().Do(context.Background(), types.RequestSpec{URL: u})
	require.NoError(t, err)
	assert.Equal(t, u, resp.URL)
}

func TestDo_NonSuccessStatusIsNotAnError(t *testing.T) {
	srv := jsonServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	})

	resp, err := New().Do(context.Background(), types.RequestSpec{URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, uint16(500), resp.StatusCode)
}

func TestDo_InvalidHeaderFailsBeforeNetwork(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
	}{
		{"space in name", map[string]string{"Bad Name": "v"}},
		{"colon in name", map[string]string{"X:Y": "v"}},
		{"newline in value", map[string]string{"X-Ok": "a\nb"}},
		{"empty name", map[string]string{"": "v"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			srv := jsonServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
			})

			_, err := New().Do(context.Background(), types.RequestSpec{URL: srv.URL, Headers: tt.headers})
			require.ErrorIs(t, err, ErrInvalidHeader)
			assert.Equal(t, int32(0), hits.Load())
		})
	}
}

func TestDo_InvalidMethod(t *testing.T) {
	_, err := New().Do(context.Background(), types.RequestSpec{Method: "GE T", URL: "http://example.invalid"})
	require.ErrorIs(t, err, ErrInvalidMethod)
}

func TestDo_RelativeURL(t *testing.T) {
	_, err := New().Do(context.Background(), types.RequestSpec{URL: "/just/a/path"})
	require.ErrorIs(t, err, ErrInvalidURL)
}

func TestDo_MissingContentType(t *testing.T) {
	srv := jsonServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		// A nil value suppresses the sniffed Content-Type.
		w.Header()["Content-Type"] = nil
		_, _ = w.Write([]byte(`{"a":1}`))
	})

	_, err := New().Do(context.Background(), types.RequestSpec{URL: srv.URL})
	require.ErrorIs(t, err, ErrMissingContentType)
}

func TestDo_Timeout(t *testing.T) {
	srv := jsonServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	c := New(WithTimeout(50 * time.Millisecond))
	start := time.Now()
	_, err := c.Do(context.Background(), types.RequestSpec{URL: srv.URL})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDo_BodyTooLarge(t *testing.T) {
	srv := jsonServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`"` + strings.Repeat("x", 64) + `"`))
	})

	_, err := New(WithMaxBodyBytes(16)).Do(context.Background(), types.RequestSpec{URL: srv.URL})
	require.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestBuildRequest_HostHeaderAndUserAgentOverride(t *testing.T) {
	c := New(WithUserAgent("ua/1"))
	req, err := c.BuildRequest(context.Background(), types.RequestSpec{
		URL:     "http://127.0.0.1:8080/x",
		Headers: map[string]string{"host": "api.internal", "User-Agent": "custom"},
	})
	require.NoError(t, err)
	assert.Equal(t, "api.internal", req.Host)
	assert.Equal(t, "custom", req.Header.Get("User-Agent"))
	assert.Equal(t, http.MethodGet, req.Method)
}

func TestNew_OptionDefaults(t *testing.T) {
	c := New(WithTimeout(0), WithMaxBodyBytes(-1))
	assert.Equal(t, DefaultTimeout, c.Timeout())
	assert.Equal(t, DefaultMaxBodyBytes, c.maxBodyBytes)
}
