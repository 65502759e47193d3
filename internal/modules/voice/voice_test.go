package voice

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func TestSynthesizeSendsMultipartForm(t *testing.T) {
	var gotText, gotLang, gotVoice, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("expected multipart form: %v", err)
		}
		gotText = r.FormValue("texto")
		gotLang = r.FormValue("lang")
		gotVoice = r.FormValue("voice")
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte("QUJD\n"))
	}))
	defer srv.Close()

	svc := NewService(srv.URL, "fg-voice-key", "es-VE-SebastianNeural", "http://unused", nil, zap.NewNop())
	encoded, key, err := svc.Synthesize(context.Background(), "En el principio", "es", "")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if gotText != "En el principio" || gotLang != "es" {
		t.Errorf("form = texto:%q lang:%q", gotText, gotLang)
	}
	if gotVoice != "es-VE-SebastianNeural" {
		t.Errorf("voice = %q, want the default voice", gotVoice)
	}
	if gotAuth != "fg-voice-key" {
		t.Errorf("Authorization = %q, want the raw key", gotAuth)
	}
	if encoded != "QUJD" {
		t.Errorf("encoded = %q", encoded)
	}
	if key == "" {
		t.Error("cache key should not be empty")
	}
}

func TestSynthesizeUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusPaymentRequired)
	}))
	defer srv.Close()

	svc := NewService(srv.URL, "key", "v", "http://unused", nil, zap.NewNop())
	if _, _, err := svc.Synthesize(context.Background(), "text", "es", ""); err == nil {
		t.Fatal("expected an error for non-2xx status")
	}
}

func newProxyRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(svc, nil)
	r.POST("/api/audio-bible-proxy", h.proxyAudioBible)
	return r
}

func TestAudioBibleProxyValidatesRequiredFields(t *testing.T) {
	svc := NewService("http://unused", "key", "v", "http://unused", nil, zap.NewNop())
	r := newProxyRouter(svc)

	bodies := []string{
		`{}`,
		`{"bible_abbreviation":"RVR1960"}`,
		`{"bible_abbreviation":"RVR1960","bible_book":"GEN","bible_chapter":"1"}`,
		`not json`,
	}
	for _, body := range bodies {
		req := httptest.NewRequest(http.MethodPost, "/api/audio-bible-proxy", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, w.Code)
		}
		if !strings.Contains(w.Body.String(), "Missing required parameters") {
			t.Errorf("body %q: response = %s", body, w.Body.String())
		}
	}
}

func TestAudioBibleProxyRelaysUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/audio-bible" {
			t.Errorf("upstream path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"audio_url":"https://cdn.example/gen-1.mp3"}`))
	}))
	defer upstream.Close()

	svc := NewService("http://unused", "key", "v", upstream.URL, nil, zap.NewNop())
	r := newProxyRouter(svc)

	body := `{"bible_abbreviation":"RVR1960","bible_book":"GEN","bible_chapter":"1","bible_lang":"es"}`
	req := httptest.NewRequest(http.MethodPost, "/api/audio-bible-proxy", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "gen-1.mp3") {
		t.Errorf("response = %s", w.Body.String())
	}
}

func TestAudioBibleProxyRelaysUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"chapter audio not available"}`))
	}))
	defer upstream.Close()

	svc := NewService("http://unused", "key", "v", upstream.URL, nil, zap.NewNop())
	r := newProxyRouter(svc)

	body := `{"bible_abbreviation":"RVR1960","bible_book":"GEN","bible_chapter":"999","bible_lang":"es"}`
	req := httptest.NewRequest(http.MethodPost, "/api/audio-bible-proxy", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want upstream 404 relayed", w.Code)
	}
	if !strings.Contains(w.Body.String(), "chapter audio not available") {
		t.Errorf("response = %s", w.Body.String())
	}
}
