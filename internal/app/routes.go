package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/biblia-chat/core/internal/middleware"
	"github.com/biblia-chat/core/internal/modules/auth"
	"github.com/biblia-chat/core/internal/modules/bible"
	"github.com/biblia-chat/core/internal/modules/chat"
	"github.com/biblia-chat/core/internal/modules/reader"
	"github.com/biblia-chat/core/internal/modules/voice"
	pkgredis "github.com/biblia-chat/core/internal/pkg/redis"
	"github.com/biblia-chat/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(rc *pkgredis.Client) {
	r := a.router
	db := a.db
	cfg := a.cfg
	authMW := middleware.Auth(db)

	// Rate limiting runs on every route; language routing only touches
	// page paths.
	r.Use(middleware.RateLimit(rc.Raw()))
	r.Use(middleware.Locale(a.logger))

	// Shared services
	bibleClient := bible.NewClient(cfg.BibleAPI.BaseURL, cfg.BibleAPI.Token, a.logger)
	versionCache := bible.NewVersionCache(bibleClient)
	completions := chat.NewCompletionClient(cfg.ChatAPI.URL, cfg.ChatAPI.APIKey, a.logger)
	chatSvc := chat.NewService(db, completions, a.logger)
	voiceSvc := voice.NewService(cfg.VoiceAPI.URL, cfg.VoiceAPI.APIKey, cfg.VoiceAPI.DefaultVoice, cfg.BibleAPI.BaseURL, rc, a.logger)
	authSvc := auth.NewService(db)
	pages := reader.NewHandler(versionCache, bibleClient, a.logger)

	// Language-prefixed HTML pages are the fallback around the API.
	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			response.NotFound(c)
			return
		}
		pages.ServePage(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": "pong"})
	})

	api := r.Group("/api")
	api.Use(middleware.OptionalAuth(db))
	api.Use(middleware.HTTPCache(rc.Raw(), middleware.HTTPCacheOptions{
		TTL:             60 * time.Second,
		EnableCDNHeader: true,
		Disable:         cfg.IsDev(),
		SkipPaths: []string{
			"/api/auth/*",
			"/api/chat",
			"/api/topics/*",
			"/api/voice*",
			"/api/audio-bible-proxy",
		},
	}))

	auth.NewHandler(authSvc).RegisterRoutes(api, authMW)
	bible.NewHandler(versionCache, bibleClient).RegisterRoutes(api)
	chat.NewHandler(chatSvc).RegisterRoutes(api, authMW)
	voice.NewHandler(voiceSvc, chatSvc).RegisterRoutes(api, authMW)
}
