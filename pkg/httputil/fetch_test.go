package httputil

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/choropleth/pkg/cache"
	"github.com/matzehuels/choropleth/pkg/errors"
)

func fastFetcher(t *testing.T) *Fetcher {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	f := NewFetcher(c, nil)
	f.Backoff = cache.Backoff{Attempts: 3, Delay: time.Millisecond}
	return f
}

func TestFetchCaches(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"type": "FeatureCollection", "features": []}`)
	}))
	defer srv.Close()

	f := fastFetcher(t)
	for i := 0; i < 3; i++ {
		data, err := f.Fetch(context.Background(), srv.URL+"/india.geojson")
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if len(data) == 0 {
			t.Fatal("empty body")
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("server called %d times, want 1", n)
	}
}

func TestFetchRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	data, err := fastFetcher(t).Fetch(context.Background(), srv.URL)
	if err != nil || string(data) != "ok" {
		t.Fatalf("Fetch = %q, %v", data, err)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("server called %d times, want 3", n)
	}
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCode  errors.Code
		wantCalls int32
	}{
		{"not found", http.StatusNotFound, errors.ErrCodeNotFound, 1},
		{"forbidden", http.StatusForbidden, errors.ErrCodeInvalidInput, 1},
		{"server error", http.StatusInternalServerError, "", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := fastFetcher(t).Fetch(context.Background(), srv.URL)
			if err == nil {
				t.Fatal("want error")
			}
			if tt.wantCode != "" && !errors.Is(err, tt.wantCode) {
				t.Errorf("err = %v, want %s", err, tt.wantCode)
			}
			if tt.wantCode == "" && !cache.IsRetryable(err) {
				t.Errorf("err = %v, want retryable", err)
			}
			if n := calls.Load(); n != tt.wantCalls {
				t.Errorf("calls = %d, want %d", n, tt.wantCalls)
			}
		})
	}
}

func TestIsURL(t *testing.T) {
	tests := map[string]bool{
		"https://example.org/india.topo.json": true,
		"http://localhost:8000/a.json":        true,
		"india.topo.json":                     false,
		"/data/https.json":                    false,
	}
	for in, want := range tests {
		if got := IsURL(in); got != want {
			t.Errorf("IsURL(%q) = %v, want %v", in, got, want)
		}
	}
}
