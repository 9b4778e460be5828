package serp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider returns canned results or a canned error
type stubProvider struct {
	name  string
	items []Result
	err   error
	calls int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Search(ctx context.Context, keyword string) ([]Result, error) {
	s.calls++
	return s.items, s.err
}

func TestFallbackPrefersPrimary(t *testing.T) {
	primary := &stubProvider{name: "primary", items: []Result{{Position: 1, URL: "https://a.example/"}}}
	secondary := &stubProvider{name: "secondary", items: []Result{{Position: 1, URL: "https://b.example/"}}}

	f := &Fallback{Primary: primary, Secondary: secondary}

	items, err := f.Search(context.Background(), "shoes")
	require.NoError(t, err)
	assert.Equal(t, primary.items, items)
	assert.Equal(t, 0, secondary.calls)
}

func TestFallbackUsesSecondaryOnPrimaryError(t *testing.T) {
	primary := &stubProvider{name: "primary", err: errors.New("quota exceeded")}
	secondary := &stubProvider{name: "secondary", items: []Result{{Position: 1, URL: "https://b.example/"}}}

	f := &Fallback{Primary: primary, Secondary: secondary}

	items, err := f.Search(context.Background(), "shoes")
	require.NoError(t, err)
	assert.Equal(t, secondary.items, items)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestFallbackTotalFailureIsEmptyNotError(t *testing.T) {
	primary := &stubProvider{name: "primary", err: errors.New("down")}
	secondary := &stubProvider{name: "secondary", err: errors.New("also down")}

	f := &Fallback{Primary: primary, Secondary: secondary}

	items, err := f.Search(context.Background(), "shoes")
	require.NoError(t, err)
	assert.Equal(t, []Result{}, items)
}

func TestSerperClientRequiresKey(t *testing.T) {
	c := NewSerperClient("", Query{GL: "ua", HL: "uk", TopN: 30}, http.DefaultClient)

	_, err := c.Search(context.Background(), "shoes")
	assert.Error(t, err)
}

func TestSerpAPIClientWithoutKeyIsEmpty(t *testing.T) {
	c := NewSerpAPIClient("", Query{GL: "ua", HL: "uk", TopN: 30}, http.DefaultClient)

	items, err := c.Search(context.Background(), "shoes")
	require.NoError(t, err)
	assert.Equal(t, []Result{}, items)
}

func TestDoWithRetryRecoversFromTransientStatus(t *testing.T) {
	var attempts int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&attempts, 1) < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	body, err := doWithRetry(context.Background(), srv.Client(), func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, srv.URL, nil)
	})

	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, int64(3), atomic.LoadInt64(&attempts))
}

func TestDoWithRetryStopsOnPermanentStatus(t *testing.T) {
	var attempts int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&attempts, 1)
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := doWithRetry(context.Background(), srv.Client(), func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, srv.URL, nil)
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Equal(t, int64(1), atomic.LoadInt64(&attempts))
}

func TestDoWithRetryGivesUpAfterMaxRetries(t *testing.T) {
	var attempts int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&attempts, 1)
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := doWithRetry(context.Background(), srv.Client(), func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, srv.URL, nil)
	})

	require.Error(t, err)
	// Initial attempt plus the bounded retries
	assert.Equal(t, int64(maxProviderRetries+1), atomic.LoadInt64(&attempts))
}

func TestDoWithRetryHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := doWithRetry(ctx, srv.Client(), func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, srv.URL, nil)
	})

	assert.Error(t, err)
}
