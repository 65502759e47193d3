package reader

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/biblia-chat/core/internal/modules/bible"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func newPageRouter(upstreamURL string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	client := bible.NewClient(upstreamURL, "", zap.NewNop())
	h := NewHandler(bible.NewVersionCache(client), client, zap.NewNop())
	r := gin.New()
	r.NoRoute(h.ServePage)
	return r
}

func getPage(t *testing.T, r *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const genesisOne = `{
	"data": {
		"title": "Génesis 1",
		"usfm": "GEN.1",
		"content": [
			{"type": "heading", "text": "La creación"},
			{"type": "verse", "number": 1, "usfm": "GEN.1.1", "text": "En el principio creó Dios los cielos y la tierra."},
			{"type": "verse", "number": 2, "usfm": "GEN.1.2", "text": "Y la tierra estaba desordenada y vacía."}
		],
		"next_chapter": {"usfm": ["GEN.2"], "human": "2"}
	}
}`

func TestChapterPageRendersVerses(t *testing.T) {
	// The page fetches the chapter and the edition list for its language.
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/RVR1960/gen/1":
			w.Write([]byte(genesisOne))
		case "/api/es/":
			w.Write([]byte(`{"response":{"data":{"versions":[
				{"id":149,"abbreviation":"RVR1960","local_abbreviation":"RVR1960","title":"Reina Valera 1960","local_title":"Reina Valera 1960","language":{"name":"Spanish","local_name":"Espanol"}}
			]}}}`))
		default:
			t.Errorf("unexpected upstream path %q", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	defer upstream.Close()

	w := getPage(t, newPageRouter(upstream.URL), "/es/bible/RVR1960/GEN/1")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		"Génesis 1",
		"<sup>1</sup>En el principio",
		"<sup>2</sup>Y la tierra",
		"La creación",
		`href="/es/bible/RVR1960/GEN/2"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(body, `rel="prev"`) {
		t.Error("first chapter should have no previous link")
	}
}

func TestChapterPageErrorPanelIncludesParameters(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer upstream.Close()

	w := getPage(t, newPageRouter(upstream.URL), "/es/bible/BOGUS/XYZ/99")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Could not load the requested Bible chapter. Please try again later.") {
		t.Error("error panel text missing")
	}
	if !strings.Contains(body, "(Details: lang=es, version=BOGUS, book=XYZ, chapter=99)") {
		t.Errorf("error details missing, body = %s", body)
	}
}

func TestLandingLinksDefaultChapter(t *testing.T) {
	w := getPage(t, newPageRouter("http://unused"), "/en")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `href="/en/bible/NIV/GEN/1"`) {
		t.Errorf("landing link missing, body = %s", w.Body.String())
	}
}

func TestUnsupportedLanguageIs404(t *testing.T) {
	r := newPageRouter("http://unused")
	for _, path := range []string{"/fr", "/fr/bible/LSG/GEN/1", "/"} {
		if w := getPage(t, r, path); w.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", path, w.Code)
		}
	}
}
