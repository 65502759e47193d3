package bible

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestAllVersionsCoalescesConcurrentFetches(t *testing.T) {
	var calls int64
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		<-release
		w.Write([]byte(`{"response":{"data":{"versions":[
			{"id":111,"abbreviation":"NIV","local_abbreviation":"NIV","title":"New International Version","local_title":"New International Version","language":{"name":"English","local_name":"English"}}
		]}}}`))
	}))
	defer srv.Close()

	cache := NewVersionCache(NewClient(srv.URL, "", zap.NewNop()))

	const workers = 8
	results := make([][]ApiVersion, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.AllVersions(context.Background(), "en")
		}(i)
	}

	// Let every worker reach the in-flight call before the upstream answers.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Errorf("upstream calls = %d, want 1", got)
	}
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d error = %v", i, errs[i])
		}
		if !reflect.DeepEqual(results[i], results[0]) {
			t.Errorf("worker %d got a different result", i)
		}
	}
}

func TestAllVersionsCachesForProcessLifetime(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.Write([]byte(`{"response":{"data":{"versions":[]}}}`))
	}))
	defer srv.Close()

	cache := NewVersionCache(NewClient(srv.URL, "", zap.NewNop()))
	for i := 0; i < 3; i++ {
		if _, err := cache.AllVersions(context.Background(), "en"); err != nil {
			t.Fatalf("AllVersions() error = %v", err)
		}
	}
	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Errorf("upstream calls = %d, want 1", got)
	}
}

func TestAllVersionsDoesNotCacheFailures(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&calls, 1) == 1 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"response":{"data":{"versions":[]}}}`))
	}))
	defer srv.Close()

	cache := NewVersionCache(NewClient(srv.URL, "", zap.NewNop()))
	if _, err := cache.AllVersions(context.Background(), "en"); err == nil {
		t.Fatal("first fetch should fail")
	}
	if _, err := cache.AllVersions(context.Background(), "en"); err != nil {
		t.Fatalf("second fetch should succeed, got %v", err)
	}
	if got := atomic.LoadInt64(&calls); got != 2 {
		t.Errorf("upstream calls = %d, want 2", got)
	}
}

func TestVersionDetailCacheKeyedByLanguageAndAbbreviation(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.Write([]byte(`{"id":1,"abbreviation":"X","books":[{"usfm":"GEN","human":"Genesis","first_chapter":{"usfm":"GEN.1","human":"1"},"last_chapter":{"usfm":"GEN.50","human":"50"}}]}`))
	}))
	defer srv.Close()

	cache := NewVersionCache(NewClient(srv.URL, "", zap.NewNop()))
	ctx := context.Background()

	if _, err := cache.VersionDetail(ctx, "en", "NIV"); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.VersionDetail(ctx, "en", "NIV"); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.VersionDetail(ctx, "es", "NIV"); err != nil {
		t.Fatal(err)
	}
	if got := atomic.LoadInt64(&calls); got != 2 {
		t.Errorf("upstream calls = %d, want 2 (one per language key)", got)
	}
}
