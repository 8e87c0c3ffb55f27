package handler

import (
	"net/http"

	"github.com/RigelNana/baselibrary/services/mint-service/backend"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// PromptHandler proxies the prompt-config service. Per-user routes act on
// the user_id taken from the session token.
type PromptHandler struct {
	backend *backend.Client
	logger  *logrus.Logger
}

func NewPromptHandler(b *backend.Client, logger *logrus.Logger) *PromptHandler {
	return &PromptHandler{backend: b, logger: logger}
}

func currentUser(c *gin.Context) (string, bool) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated", "detail": "session token carries no subject"})
		return "", false
	}
	return userID, true
}

// Placeholders 列出所有占位符
// GET /api/prompt/placeholders
func (h *PromptHandler) Placeholders(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c, catalogueTimeout)
	defer cancel()

	out, err := h.backend.Placeholders(ctx, sess)
	if err != nil {
		writeError(c, h.logger, "list placeholders failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"placeholders": out})
}

// Profiles 列出预设
// GET /api/prompt/profiles?category=
func (h *PromptHandler) Profiles(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c, catalogueTimeout)
	defer cancel()

	out, err := h.backend.Profiles(ctx, sess, c.Query("category"))
	if err != nil {
		writeError(c, h.logger, "list profiles failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profiles": out})
}

// Profile 获取单个预设
// GET /api/prompt/profiles/:id
func (h *PromptHandler) Profile(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c, catalogueTimeout)
	defer cancel()

	out, err := h.backend.Profile(ctx, sess, c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "get profile failed", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// MySettings 当前用户的占位符设置
// GET /api/prompt/me
func (h *PromptHandler) MySettings(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c, catalogueTimeout)
	defer cancel()

	out, err := h.backend.UserPlaceholders(ctx, sess, userID)
	if err != nil {
		writeError(c, h.logger, "get user settings failed", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type placeholderValueRequest struct {
	ValueID string `json:"value_id" binding:"required"`
}

// SetPlaceholder 设置单个占位符的取值
// PUT /api/prompt/me/placeholders/:placeholder_id
func (h *PromptHandler) SetPlaceholder(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req placeholderValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "detail": err.Error()})
		return
	}
	ctx, cancel := requestContext(c, catalogueTimeout)
	defer cancel()

	if err := h.backend.UpdateUserPlaceholder(ctx, sess, userID, c.Param("placeholder_id"), req.ValueID); err != nil {
		writeError(c, h.logger, "update placeholder failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

// ApplyProfile 应用预设
// POST /api/prompt/me/apply/:id
func (h *PromptHandler) ApplyProfile(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c, catalogueTimeout)
	defer cancel()

	out, err := h.backend.ApplyProfile(ctx, sess, userID, c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "apply profile failed", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// ResetSettings 重置为默认设置
// POST /api/prompt/me/reset
func (h *PromptHandler) ResetSettings(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c, catalogueTimeout)
	defer cancel()

	out, err := h.backend.ResetUserSettings(ctx, sess, userID)
	if err != nil {
		writeError(c, h.logger, "reset settings failed", err)
		return
	}
	c.JSON(http.StatusOK, out)
}
