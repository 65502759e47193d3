// Package reader serves the language-prefixed HTML pages: the landing
// page and the chapter view. Pages are registered as the router fallback
// so the /api surface keeps priority.
package reader

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/biblia-chat/core/internal/i18n"
	"github.com/biblia-chat/core/internal/modules/bible"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	versions *bible.VersionCache
	client   *bible.Client
	log      *zap.Logger
}

func NewHandler(versions *bible.VersionCache, client *bible.Client, log *zap.Logger) *Handler {
	return &Handler{versions: versions, client: client, log: log}
}

// ServePage dispatches /{lng} and /{lng}/bible/{version}/{book}/{chapter}.
// It runs as the router fallback; anything else under a language prefix is
// a page-level 404.
func (h *Handler) ServePage(c *gin.Context) {
	segments := splitPath(c.Request.URL.Path)
	if len(segments) == 0 || !i18n.IsSupported(segments[0]) {
		c.Status(http.StatusNotFound)
		return
	}
	lng := segments[0]

	switch {
	case len(segments) == 1:
		h.landing(c, lng)
	case len(segments) == 5 && segments[1] == "bible":
		h.chapter(c, lng, segments[2], segments[3], segments[4])
	default:
		h.notFoundPage(c, lng)
	}
}

func (h *Handler) landing(c *gin.Context, lng string) {
	version := i18n.DefaultBibleVersions[lng]
	data := landingData{
		Lng:       lng,
		StartHref: "/" + lng + "/bible/" + version + "/" + i18n.DefaultBook + "/" + i18n.DefaultChapter,
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := landingTemplate.Execute(c.Writer, data); err != nil {
		h.log.Error("landing render failed", zap.Error(err))
	}
}

func (h *Handler) chapter(c *gin.Context, lng, version, book, chapter string) {
	ctx := c.Request.Context()
	content, err := h.client.Chapter(ctx, version, book, chapter)
	if err != nil {
		h.errorPanel(c, lng, version, book, chapter)
		return
	}

	// The version list feeds the edition picker; the page still renders
	// without it.
	versions, err := h.versions.AllVersions(ctx, lng)
	if err != nil {
		versions = nil
	}

	data := chapterData{
		Lng:      lng,
		Version:  version,
		Book:     book,
		Chapter:  chapter,
		Title:    content.Title,
		Content:  content.Content,
		Versions: versions,
		PrevHref: chapterHref(lng, version, content.PreviousChapter),
		NextHref: chapterHref(lng, version, content.NextChapter),
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := chapterTemplate.Execute(c.Writer, data); err != nil {
		h.log.Error("chapter render failed", zap.Error(err))
	}
}

func (h *Handler) errorPanel(c *gin.Context, lng, version, book, chapter string) {
	data := chapterData{Lng: lng, Version: version, Book: book, Chapter: chapter}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := errorTemplate.Execute(c.Writer, data); err != nil {
		h.log.Error("error panel render failed", zap.Error(err))
	}
}

func (h *Handler) notFoundPage(c *gin.Context, lng string) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusNotFound)
	_ = notFoundTemplate.Execute(c.Writer, landingData{Lng: lng, StartHref: "/" + lng})
}

// chapterHref builds a page link from an adjacent-chapter reference whose
// usfm looks like "GEN.2".
func chapterHref(lng, version string, link *bible.ChapterLink) string {
	if link == nil || len(link.USFM) == 0 {
		return ""
	}
	parts := strings.SplitN(link.USFM[0], ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return ""
	}
	return "/" + lng + "/bible/" + version + "/" + parts[0] + "/" + parts[1]
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

type landingData struct {
	Lng       string
	StartHref string
}

type chapterData struct {
	Lng      string
	Version  string
	Book     string
	Chapter  string
	Title    string
	Content  []bible.ContentItem
	Versions []bible.ApiVersion
	PrevHref string
	NextHref string
}

const pageStyle = `body { margin: 0; padding: 24px; font: 17px/1.8 Georgia, "Times New Roman", serif; color: #222; background: #fffdf8; }
    main { max-width: 720px; margin: 0 auto; }
    h1 { font-size: 26px; margin: 0 0 20px; }
    sup { font-size: 11px; font-weight: 600; margin-right: 4px; color: #8a6d3b; }
    nav { display: flex; justify-content: space-between; margin: 28px 0; font-family: sans-serif; }
    nav a { text-decoration: none; color: #8a6d3b; }
    .heading { font-family: sans-serif; font-size: 15px; font-weight: 700; margin: 22px 0 8px; }
    .reference { font-style: italic; color: #666; }
    .error-panel { border: 1px solid #e0c9c9; background: #fbf3f3; border-radius: 8px; padding: 20px; font-family: sans-serif; }`

var landingTemplate = template.Must(template.New("landing").Parse(`<!doctype html>
<html lang="{{.Lng}}">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>biblia.chat</title>
  <style>` + pageStyle + `</style>
</head>
<body>
  <main>
    <h1>biblia.chat</h1>
    <p><a href="{{.StartHref}}">Read the Bible</a></p>
  </main>
</body>
</html>`))

var chapterTemplate = template.Must(template.New("chapter").Parse(`<!doctype html>
<html lang="{{.Lng}}">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>{{.Title}}</title>
  <style>` + pageStyle + `</style>
</head>
<body>
  <main>
    <h1>{{.Title}}</h1>
    {{range .Content}}{{if .IsVerse}}<p><sup>{{.Number}}</sup>{{.Text}}</p>
    {{else if eq .Type "heading"}}<p class="heading">{{.Text}}</p>
    {{else if eq .Type "reference"}}<p class="reference">{{.Text}}</p>
    {{else if .Text}}<p>{{.Text}}</p>
    {{end}}{{end}}
    <nav>
      {{if .PrevHref}}<a href="{{.PrevHref}}" rel="prev">&larr;</a>{{else}}<span></span>{{end}}
      {{if .NextHref}}<a href="{{.NextHref}}" rel="next">&rarr;</a>{{else}}<span></span>{{end}}
    </nav>
  </main>
</body>
</html>`))

var errorTemplate = template.Must(template.New("error").Parse(`<!doctype html>
<html lang="{{.Lng}}">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Error</title>
  <style>` + pageStyle + `</style>
</head>
<body>
  <main>
    <div class="error-panel">
      <h1>Error</h1>
      <p>Could not load the requested Bible chapter. Please try again later.</p>
      <p>(Details: lang={{.Lng}}, version={{.Version}}, book={{.Book}}, chapter={{.Chapter}})</p>
    </div>
  </main>
</body>
</html>`))

var notFoundTemplate = template.Must(template.New("notfound").Parse(`<!doctype html>
<html lang="{{.Lng}}">
<head>
  <meta charset="utf-8" />
  <title>Not found</title>
  <style>` + pageStyle + `</style>
</head>
<body>
  <main>
    <h1>Page not found</h1>
    <p><a href="{{.StartHref}}">Back to the start</a></p>
  </main>
</body>
</html>`))
