package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/biblia-chat/core/internal/middleware"
	"github.com/biblia-chat/core/internal/models"
	"github.com/biblia-chat/core/internal/pkg/response"
	sessionpkg "github.com/biblia-chat/core/internal/pkg/session"
	"github.com/gin-gonic/gin"
)

type registerDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginDTO struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token string     `json:"token"`
	User  userResult `json:"user"`
}

type userResult struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Image string `json:"image,omitempty"`
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	a := rg.Group("/auth")

	a.POST("/register", h.register)
	a.POST("/login", h.login)
	a.POST("/sign-out", authMW, h.signOut)
	a.GET("/get-session", middleware.OptionalAuth(h.svc.db), h.getSession)
	a.GET("/list-sessions", authMW, h.listSessions)
	a.POST("/revoke-other-sessions", authMW, h.revokeOtherSessions)
}

// POST /api/auth/register
//
// Responds with the registration form's message shape: 201 on success,
// 400 for validation failures, 409 when the email is taken, 500 otherwise.
func (h *Handler) register(c *gin.Context) {
	var dto registerDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": ErrEmailRequired.Error()})
		return
	}

	_, err := h.svc.Register(dto.Email, dto.Password, dto.Name)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully."})
	case errors.Is(err, ErrEmailRequired), errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrPasswordTooWeak):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred during registration."})
	}
}

// POST /api/auth/login
func (h *Handler) login(c *gin.Context) {
	var dto loginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	u, err := h.svc.Authorize(dto.Email, dto.Password)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if u == nil {
		response.UnprocessableEntity(c, "invalid email or password")
		return
	}

	token, _, err := sessionpkg.Issue(h.svc.db, u.ID, c.ClientIP(), c.Request.UserAgent(), sessionpkg.DefaultTTL)
	if err != nil {
		response.InternalError(c, err)
		return
	}

	now := time.Now()
	h.svc.db.Model(u).Updates(map[string]interface{}{
		"last_login_time": &now,
		"last_login_ip":   c.ClientIP(),
	})

	response.OK(c, loginResponse{
		Token: token,
		User:  userResult{ID: u.ID, Email: u.Email, Name: u.Name, Image: u.Image},
	})
}

// POST /api/auth/sign-out
func (h *Handler) signOut(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	if sid := middleware.CurrentSessionID(c); sid != "" {
		_ = sessionpkg.Revoke(h.svc.db, userID, sid)
	}
	response.OK(c, gin.H{"success": true})
}

// GET /api/auth/get-session
func (h *Handler) getSession(c *gin.Context) {
	if !middleware.IsAuthenticated(c) {
		response.OK(c, nil)
		return
	}
	userID := middleware.CurrentUserID(c)

	var u models.UserModel
	if err := h.svc.db.First(&u, "id = ?", userID).Error; err != nil {
		response.OK(c, nil)
		return
	}
	response.OK(c, gin.H{
		"user": userResult{ID: u.ID, Email: u.Email, Name: u.Name, Image: u.Image},
		"session": gin.H{
			"userId": userID,
		},
	})
}

// GET /api/auth/list-sessions
func (h *Handler) listSessions(c *gin.Context) {
	sessions, err := sessionpkg.ListActive(h.svc.db, middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, sessions)
}

// POST /api/auth/revoke-other-sessions
func (h *Handler) revokeOtherSessions(c *gin.Context) {
	err := sessionpkg.RevokeAllExcept(h.svc.db, middleware.CurrentUserID(c), middleware.CurrentSessionID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"status": true})
}
