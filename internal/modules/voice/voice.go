package voice

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/biblia-chat/core/internal/middleware"
	"github.com/biblia-chat/core/internal/modules/chat"
	redispkg "github.com/biblia-chat/core/internal/pkg/redis"
	"github.com/biblia-chat/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	voiceCachePrefix = "biblia:voice:"
	voiceCacheTTL    = 7 * 24 * time.Hour
)

// Service proxies the audio-synthesis API and the audio Bible endpoint.
// Synthesized audio is cached in Redis keyed by a hash of text, language
// and voice, so repeated playback of the same message costs one upstream
// call.
type Service struct {
	voiceURL     string
	apiKey       string
	defaultVoice string
	bibleBaseURL string
	cache        *redispkg.Client
	http         *http.Client
	log          *zap.Logger
}

func NewService(voiceURL, apiKey, defaultVoice, bibleBaseURL string, cache *redispkg.Client, log *zap.Logger) *Service {
	return &Service{
		voiceURL:     voiceURL,
		apiKey:       apiKey,
		defaultVoice: defaultVoice,
		bibleBaseURL: strings.TrimRight(bibleBaseURL, "/"),
		cache:        cache,
		http:         &http.Client{Timeout: 60 * time.Second},
		log:          log,
	}
}

// audioKey is stable for one (text, lang, voice) triple.
func audioKey(text, lang, voice string) string {
	h := sha256.Sum256([]byte(text + "\x00" + lang + "\x00" + voice))
	return fmt.Sprintf("%x", h)
}

// Synthesize returns base64-encoded audio for the text, together with the
// cache key it was stored under.
func (s *Service) Synthesize(ctx context.Context, text, lang, voice string) (string, string, error) {
	if voice == "" {
		voice = s.defaultVoice
	}
	key := audioKey(text, lang, voice)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, voiceCachePrefix+key); err == nil && cached != "" {
			return cached, key, nil
		}
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	_ = form.WriteField("texto", text)
	_ = form.WriteField("lang", lang)
	_ = form.WriteField("voice", voice)
	if err := form.Close(); err != nil {
		return "", "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.voiceURL, &body)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", s.apiKey)

	resp, err := s.http.Do(req)
	if err != nil {
		s.log.Error("voice request failed", zap.String("url", s.voiceURL), zap.Error(err))
		return "", "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		s.log.Error("voice non-success status",
			zap.String("url", s.voiceURL),
			zap.Int("status", resp.StatusCode),
			zap.String("body", strings.TrimSpace(string(raw))),
		)
		return "", "", fmt.Errorf("voice request failed with status %d", resp.StatusCode)
	}

	encoded := strings.TrimSpace(string(raw))
	if s.cache != nil {
		if err := s.cache.Set(ctx, voiceCachePrefix+key, encoded, voiceCacheTTL); err != nil {
			s.log.Warn("voice cache write failed", zap.Error(err))
		}
	}
	return encoded, key, nil
}

// CachedAudio returns the decoded audio bytes for a cache key, or nil when
// the entry expired.
func (s *Service) CachedAudio(ctx context.Context, key string) ([]byte, error) {
	if s.cache == nil {
		return nil, nil
	}
	encoded, err := s.cache.Get(ctx, voiceCachePrefix+key)
	if err != nil || encoded == "" {
		return nil, err
	}
	return base64.StdEncoding.DecodeString(encoded)
}

// audioBibleRequest carries the four required proxy parameters.
type audioBibleRequest struct {
	BibleAbbreviation string `json:"bible_abbreviation"`
	BibleBook         string `json:"bible_book"`
	BibleChapter      string `json:"bible_chapter"`
	BibleLang         string `json:"bible_lang"`
}

// ProxyAudioBible forwards the request and relays the upstream status and
// payload as-is, extracting a message from upstream error bodies when one
// is present.
func (s *Service) ProxyAudioBible(ctx context.Context, dto audioBibleRequest) (int, []byte, error) {
	payload, err := json.Marshal(dto)
	if err != nil {
		return 0, nil, err
	}

	url := s.bibleBaseURL + "/api/audio-bible"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		s.log.Error("audio bible request failed", zap.String("url", url), zap.Error(err))
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

type Handler struct {
	svc     *Service
	chatSvc *chat.Service
}

func NewHandler(svc *Service, chatSvc *chat.Service) *Handler {
	return &Handler{svc: svc, chatSvc: chatSvc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.POST("/voice", authMW, h.synthesize)
	rg.GET("/voice/audio/:key", h.serveAudio)
	rg.POST("/audio-bible-proxy", h.proxyAudioBible)
	rg.POST("/topics/:id/messages/:index/audio", authMW, h.messageAudio)
}

// POST /api/voice
//
// Accepts the same multipart form as the upstream service and returns the
// base64 audio body.
func (h *Handler) synthesize(c *gin.Context) {
	text := c.PostForm("texto")
	if strings.TrimSpace(text) == "" {
		response.BadRequest(c, "texto is required")
		return
	}
	lang := c.DefaultPostForm("lang", "es")
	voice := c.PostForm("voice")

	encoded, _, err := h.svc.Synthesize(c.Request.Context(), text, lang, voice)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	c.String(http.StatusOK, encoded)
}

// GET /api/voice/audio/:key
func (h *Handler) serveAudio(c *gin.Context) {
	audio, err := h.svc.CachedAudio(c.Request.Context(), c.Param("key"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if len(audio) == 0 {
		response.NotFoundMsg(c, "audio not found or expired")
		return
	}
	c.Data(http.StatusOK, "audio/mpeg", audio)
}

// POST /api/audio-bible-proxy
func (h *Handler) proxyAudioBible(c *gin.Context) {
	var dto audioBibleRequest
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameters"})
		return
	}
	if dto.BibleAbbreviation == "" || dto.BibleBook == "" || dto.BibleChapter == "" || dto.BibleLang == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameters"})
		return
	}

	status, body, err := h.svc.ProxyAudioBible(c.Request.Context(), dto)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if status >= http.StatusBadRequest {
		c.JSON(status, gin.H{"error": upstreamErrorMessage(status, body)})
		return
	}
	c.Data(http.StatusOK, "application/json", body)
}

// POST /api/topics/:id/messages/:index/audio
//
// Synthesizes a chat message and records the playback URL on it.
func (h *Handler) messageAudio(c *gin.Context) {
	topicID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid topic id")
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		response.BadRequest(c, "invalid message index")
		return
	}

	userID := middleware.CurrentUserID(c)
	msg, err := h.chatSvc.Message(userID, uint(topicID), index)
	if err != nil {
		response.NotFoundMsg(c, err.Error())
		return
	}
	if strings.TrimSpace(msg.Content) == "" {
		response.BadRequest(c, "message has no content")
		return
	}

	lang := c.DefaultQuery("lang", "es")
	_, key, err := h.svc.Synthesize(c.Request.Context(), msg.Content, lang, c.Query("voice"))
	if err != nil {
		response.InternalError(c, err)
		return
	}

	audioURL := "/api/voice/audio/" + key
	if err := h.chatSvc.SetMessageAudioURL(userID, uint(topicID), index, audioURL); err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"audio_url": audioURL})
}

func upstreamErrorMessage(status int, body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	if len(bytes.TrimSpace(body)) > 0 {
		return string(body)
	}
	return fmt.Sprintf("External API error: %d", status)
}
