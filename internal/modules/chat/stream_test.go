package chat

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

// chunkedReader returns one predefined chunk per Read call, simulating a
// network stream that splits lines at arbitrary byte boundaries.
type chunkedReader struct {
	chunks []string
	pos    int
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.chunks) {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[r.pos])
	r.pos++
	return n, nil
}

func (r *chunkedReader) Close() error { return nil }

func drain(t *testing.T, r *DeltaReader) string {
	t.Helper()
	var full strings.Builder
	for {
		delta, err := r.Next()
		if err == io.EOF {
			return full.String()
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		full.WriteString(delta)
	}
}

func deltaLine(content string) string {
	return `data: {"choices":[{"delta":{"content":"` + content + `"}}]}` + "\n"
}

func TestDeltaReaderAccumulates(t *testing.T) {
	body := deltaLine("Hel") + deltaLine("lo") + deltaLine(" world") + "data: [DONE]\n"
	r := NewDeltaReader(io.NopCloser(strings.NewReader(body)), zap.NewNop())

	if got := drain(t, r); got != "Hello world" {
		t.Errorf("content = %q, want %q", got, "Hello world")
	}
}

func TestDeltaReaderSkipsBadLine(t *testing.T) {
	body := deltaLine("Hel") + "data: {not json at all\n" + deltaLine("lo") + "data: [DONE]\n"
	r := NewDeltaReader(io.NopCloser(strings.NewReader(body)), zap.NewNop())

	if got := drain(t, r); got != "Hello" {
		t.Errorf("content = %q, want %q (bad line contributes nothing)", got, "Hello")
	}
}

func TestDeltaReaderWithoutEventPrefix(t *testing.T) {
	body := `{"choices":[{"delta":{"content":"plain"}}]}` + "\n[DONE]\n"
	r := NewDeltaReader(io.NopCloser(strings.NewReader(body)), zap.NewNop())

	if got := drain(t, r); got != "plain" {
		t.Errorf("content = %q, want %q", got, "plain")
	}
}

func TestDeltaReaderCarriesPartialLinesAcrossReads(t *testing.T) {
	line := deltaLine("Hello")
	r := NewDeltaReader(&chunkedReader{chunks: []string{
		line[:10],
		line[10:] + deltaLine(" world")[:5],
		deltaLine(" world")[5:],
		"data: [DONE]\n",
	}}, zap.NewNop())

	if got := drain(t, r); got != "Hello world" {
		t.Errorf("content = %q, want %q", got, "Hello world")
	}
}

func TestDeltaReaderStopsAtSentinel(t *testing.T) {
	body := deltaLine("kept") + "data: [DONE]\n" + deltaLine("dropped")
	r := NewDeltaReader(io.NopCloser(strings.NewReader(body)), zap.NewNop())

	if got := drain(t, r); got != "kept" {
		t.Errorf("content = %q, want %q (nothing after sentinel)", got, "kept")
	}
}

func TestDeltaReaderEOFWithoutSentinel(t *testing.T) {
	body := deltaLine("partial")
	r := NewDeltaReader(io.NopCloser(strings.NewReader(body)), zap.NewNop())

	if got := drain(t, r); got != "partial" {
		t.Errorf("content = %q, want %q", got, "partial")
	}
}

func TestCompletionClientStream(t *testing.T) {
	var gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.Write([]byte(deltaLine("hola") + "data: [DONE]\n"))
	}))
	defer srv.Close()

	client := NewCompletionClient(srv.URL, "fg-test-key", zap.NewNop())
	reader, err := client.Stream(context.Background(), "es", []PromptMessage{
		{Role: "user", Content: "hola"},
	})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	defer reader.Close()

	if gotAuth != "fg-test-key" {
		t.Errorf("Authorization = %q, want the raw key", gotAuth)
	}
	for _, want := range []string{`"stream":true`, `"lang":"es"`, `"type":1`, `"content":"hola"`} {
		if !strings.Contains(gotBody, want) {
			t.Errorf("request body missing %s: %s", want, gotBody)
		}
	}
	if got := drain(t, reader); got != "hola" {
		t.Errorf("content = %q", got)
	}
}

func TestCompletionClientNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewCompletionClient(srv.URL, "bad-key", zap.NewNop())
	if _, err := client.Stream(context.Background(), "es", nil); err == nil {
		t.Fatal("expected an error for non-2xx status")
	}
}
