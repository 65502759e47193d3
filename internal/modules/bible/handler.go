package bible

import (
	"strings"

	"github.com/biblia-chat/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	cache  *VersionCache
	client *Client
}

func NewHandler(cache *VersionCache, client *Client) *Handler {
	return &Handler{cache: cache, client: client}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/versions/:lng", h.listVersions)
	// The single-segment shape is legacy: its value is an abbreviation,
	// not a language code.
	rg.GET("/bible-version/:lng", h.legacyVersionDetail)
	rg.GET("/bible-version/:lng/:abbreviation", h.versionDetail)
	rg.GET("/chapter/:version/:book/:chapter", h.chapter)
}

// GET /api/versions/:lng
func (h *Handler) listVersions(c *gin.Context) {
	lng := strings.TrimSpace(c.Param("lng"))
	if lng == "" {
		response.BadRequest(c, "missing language parameter")
		return
	}

	versions, err := h.cache.AllVersions(c.Request.Context(), lng)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, versions)
}

// GET /api/bible-version/:lng/:abbreviation
func (h *Handler) versionDetail(c *gin.Context) {
	lng := strings.TrimSpace(c.Param("lng"))
	abbreviation := strings.TrimSpace(c.Param("abbreviation"))
	if lng == "" || abbreviation == "" {
		response.BadRequest(c, "missing language or Bible abbreviation parameter")
		return
	}

	detail, err := h.cache.VersionDetail(c.Request.Context(), lng, abbreviation)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, detail)
}

// GET /api/bible-version/:abbreviation (legacy shape)
func (h *Handler) legacyVersionDetail(c *gin.Context) {
	abbreviation := strings.TrimSpace(c.Param("lng"))
	if abbreviation == "" {
		response.BadRequest(c, "missing Bible abbreviation parameter")
		return
	}

	detail, err := h.client.VersionDetailLegacy(c.Request.Context(), abbreviation)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, detail)
}

// GET /api/chapter/:version/:book/:chapter
func (h *Handler) chapter(c *gin.Context) {
	version := strings.TrimSpace(c.Param("version"))
	book := strings.TrimSpace(c.Param("book"))
	chapter := strings.TrimSpace(c.Param("chapter"))
	if version == "" || book == "" || chapter == "" {
		response.BadRequest(c, "missing version, book or chapter parameter")
		return
	}

	content, err := h.client.Chapter(c.Request.Context(), version, book, chapter)
	if err != nil {
		response.NotFoundMsg(c, "could not load the requested chapter")
		return
	}
	response.OK(c, content)
}
