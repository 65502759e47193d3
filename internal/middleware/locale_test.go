package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func newLocaleRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Locale(zap.NewNop()))
	r.NoRoute(func(c *gin.Context) {
		c.String(http.StatusOK, "page:%s", c.Request.URL.Path)
	})
	return r
}

func doLocaleRequest(t *testing.T, r *gin.Engine, path string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLocaleRedirects(t *testing.T) {
	r := newLocaleRouter()

	tests := []struct {
		name     string
		path     string
		headers  map[string]string
		wantCode int
		wantLoc  string
	}{
		{
			name:     "root redirects to negotiated language",
			path:     "/",
			headers:  map[string]string{"Accept-Language": "es-MX,es;q=0.9"},
			wantCode: http.StatusFound,
			wantLoc:  "/es",
		},
		{
			name:     "root falls back to en",
			path:     "/",
			wantCode: http.StatusFound,
			wantLoc:  "/en",
		},
		{
			name:     "cookie beats accept-language",
			path:     "/",
			headers:  map[string]string{"Cookie": "i18next=es", "Accept-Language": "en"},
			wantCode: http.StatusFound,
			wantLoc:  "/es",
		},
		{
			name:     "bare bible path gets default edition",
			path:     "/en/bible",
			wantCode: http.StatusFound,
			wantLoc:  "/en/bible/NIV/GEN/1",
		},
		{
			name:     "bare bible path for spanish",
			path:     "/es/bible",
			wantCode: http.StatusFound,
			wantLoc:  "/es/bible/RVR1960/GEN/1",
		},
		{
			name:     "missing prefix is inserted",
			path:     "/bible/NIV/JHN/3",
			headers:  map[string]string{"Cookie": "i18next=en"},
			wantCode: http.StatusFound,
			wantLoc:  "/en/bible/NIV/JHN/3",
		},
		{
			name:     "query string survives redirect",
			path:     "/bible/NIV/JHN/3?verse=16",
			headers:  map[string]string{"Cookie": "i18next=en"},
			wantCode: http.StatusFound,
			wantLoc:  "/en/bible/NIV/JHN/3?verse=16",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doLocaleRequest(t, r, tt.path, tt.headers)
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantCode)
			}
			if loc := w.Header().Get("Location"); loc != tt.wantLoc {
				t.Errorf("Location = %q, want %q", loc, tt.wantLoc)
			}
		})
	}
}

func TestLocalePassThrough(t *testing.T) {
	r := newLocaleRouter()

	for _, path := range []string{
		"/en/bible/NIV/GEN/1",
		"/es",
		"/api/versions/en",
		"/ping",
		"/logo.png",
	} {
		w := doLocaleRequest(t, r, path, nil)
		if w.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", path, w.Code)
		}
	}
}

func TestLocalePrefixedPathSetsCookie(t *testing.T) {
	r := newLocaleRouter()
	w := doLocaleRequest(t, r, "/es/bible/RVR1960/GEN/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !hasCookie(w, "i18next", "es") {
		t.Error("expected i18next=es cookie to be set")
	}
}

func TestLocaleRefererSetsCookieOnExcludedPath(t *testing.T) {
	r := newLocaleRouter()
	w := doLocaleRequest(t, r, "/api/versions/es", map[string]string{
		"Referer": "https://biblia.chat/es/bible/RVR1960/GEN/1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !hasCookie(w, "i18next", "es") {
		t.Error("expected referer language to refresh the cookie")
	}
}

func hasCookie(w *httptest.ResponseRecorder, name, value string) bool {
	res := w.Result()
	defer res.Body.Close()
	for _, c := range res.Cookies() {
		if c.Name == name && c.Value == value {
			return true
		}
	}
	return false
}
