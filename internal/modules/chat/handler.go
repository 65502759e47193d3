package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/biblia-chat/core/internal/i18n"
	"github.com/biblia-chat/core/internal/middleware"
	"github.com/biblia-chat/core/internal/models"
	"github.com/biblia-chat/core/internal/pkg/pagination"
	"github.com/biblia-chat/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	topics := rg.Group("/topics", authMW)
	topics.GET("", h.listTopics)
	topics.POST("", h.createTopic)
	topics.PATCH("/:id", h.renameTopic)
	topics.DELETE("/:id", h.deleteTopic)
	topics.GET("/:id/chat", h.getChat)
	topics.PATCH("/:id/messages/:index", h.editMessage)
	topics.DELETE("/:id/messages/:index", h.deleteMessage)
	topics.GET("/:id/messages/:index/share", h.shareMessage)

	rg.POST("/chat", authMW, h.sendMessage)
}

// GET /api/topics
func (h *Handler) listTopics(c *gin.Context) {
	topics, page, err := h.svc.ListTopics(middleware.CurrentUserID(c), pagination.FromContext(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, topics, page)
}

// POST /api/topics
func (h *Handler) createTopic(c *gin.Context) {
	var dto createTopicDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	topic, err := h.svc.CreateTopic(middleware.CurrentUserID(c), dto.Name)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, topic)
}

// PATCH /api/topics/:id
func (h *Handler) renameTopic(c *gin.Context) {
	topicID, ok := parseTopicID(c)
	if !ok {
		return
	}
	var dto renameTopicDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	topic, err := h.svc.RenameTopic(middleware.CurrentUserID(c), topicID, dto.Name)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.OK(c, topic)
}

// DELETE /api/topics/:id
func (h *Handler) deleteTopic(c *gin.Context) {
	topicID, ok := parseTopicID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteTopic(middleware.CurrentUserID(c), topicID); err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.NoContent(c)
}

// GET /api/topics/:id/chat
func (h *Handler) getChat(c *gin.Context) {
	topicID, ok := parseTopicID(c)
	if !ok {
		return
	}
	chat, err := h.svc.ChatForTopic(middleware.CurrentUserID(c), topicID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.OK(c, chat)
}

// PATCH /api/topics/:id/messages/:index
func (h *Handler) editMessage(c *gin.Context) {
	topicID, index, ok := parseMessageRef(c)
	if !ok {
		return
	}
	var dto editMessageDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	chat, err := h.svc.EditMessage(middleware.CurrentUserID(c), topicID, index, dto.Content)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.OK(c, chat)
}

// DELETE /api/topics/:id/messages/:index
func (h *Handler) deleteMessage(c *gin.Context) {
	topicID, index, ok := parseMessageRef(c)
	if !ok {
		return
	}
	chat, err := h.svc.DeleteMessage(middleware.CurrentUserID(c), topicID, index)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.OK(c, chat)
}

// GET /api/topics/:id/messages/:index/share
func (h *Handler) shareMessage(c *gin.Context) {
	topicID, index, ok := parseMessageRef(c)
	if !ok {
		return
	}
	msg, err := h.svc.Message(middleware.CurrentUserID(c), topicID, index)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	if msg.Role != models.RoleAssistant {
		response.BadRequest(c, "only assistant messages can be shared")
		return
	}
	rendered, err := RenderMessageHTML(msg.Content)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, rendered)
}

// POST /api/chat
//
// Appends the user message, then relays the assistant reply as SSE data
// events. The reply is persisted server-side after every delta, so a
// dropped connection leaves the partial message in the chat.
func (h *Handler) sendMessage(c *gin.Context) {
	var dto sendMessageDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	lang := dto.Lang
	if !i18n.IsSupported(lang) {
		lang = i18n.FallbackLanguage
	}

	userID := middleware.CurrentUserID(c)
	topic, _, err := h.svc.AddUserMessage(userID, dto.TopicID, dto.Content, lang)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	sendEvent := func(eventType, data string) {
		fmt.Fprintf(c.Writer, "data: %s\n\n", fmt.Sprintf(`{"type":%q,"data":%s}`, eventType, data))
		c.Writer.Flush()
	}

	topicJSON, _ := json.Marshal(topic)
	sendEvent("topic", string(topicJSON))

	msg, err := h.svc.SendMessage(c.Request.Context(), userID, topic.ID, lang, func(delta string) {
		deltaJSON, _ := json.Marshal(delta)
		sendEvent("delta", string(deltaJSON))
	})
	if err != nil {
		// msg is nil when the chat could not even be read.
		content := i18n.ChatErrorMessage(lang)
		if msg != nil {
			content = msg.Content
		}
		errJSON, _ := json.Marshal(content)
		sendEvent("error", string(errJSON))
		return
	}

	msgJSON, _ := json.Marshal(msg)
	sendEvent("done", string(msgJSON))
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrTopicNotFound):
		response.NotFoundMsg(c, "topic not found")
	case errors.Is(err, ErrMessageNotFound):
		response.NotFoundMsg(c, "message not found")
	default:
		response.InternalError(c, err)
	}
}

func parseTopicID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid topic id")
		return 0, false
	}
	return uint(id), true
}

func parseMessageRef(c *gin.Context) (uint, int, bool) {
	topicID, ok := parseTopicID(c)
	if !ok {
		return 0, 0, false
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		response.BadRequest(c, "invalid message index")
		return 0, 0, false
	}
	return topicID, index, true
}
