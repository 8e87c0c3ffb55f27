package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/RigelNana/baselibrary/services/mint-service/backend"
	"github.com/RigelNana/baselibrary/services/mint-service/hitl"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const maxImageSize = 10 << 20

// ProcessHandler drives material generation and its human-in-the-loop
// checkpoints on the backend.
type ProcessHandler struct {
	backend *backend.Client
	timeout time.Duration
	logger  *logrus.Logger
}

func NewProcessHandler(b *backend.Client, timeout time.Duration, logger *logrus.Logger) *ProcessHandler {
	return &ProcessHandler{backend: b, timeout: timeout, logger: logger}
}

// readImages 读取表单中的 images 字段
func readImages(c *gin.Context) ([]backend.Image, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	headers := form.File["images"]
	images := make([]backend.Image, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > maxImageSize {
			return nil, fmt.Errorf("image %s exceeds %d bytes", fh.Filename, maxImageSize)
		}
		data, err := readFileHeader(fh)
		if err != nil {
			return nil, err
		}
		images = append(images, backend.Image{Name: fh.Filename, Data: data})
	}
	return images, nil
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Process 开始生成材料
// POST /api/process (multipart: question, settings, wallet_address, images[])
func (h *ProcessHandler) Process(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	question := c.PostForm("question")
	if question == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}
	settings := backend.MaterialSettings{Difficulty: backend.Intermediate, Volume: backend.Standard}
	if raw := c.PostForm("settings"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &settings); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings", "detail": err.Error()})
			return
		}
	}
	images, err := readImages(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid images", "detail": err.Error()})
		return
	}
	ctx, cancel := detached(c, h.timeout)
	defer cancel()

	st, err := h.backend.Process(ctx, sess, backend.ProcessRequest{
		Question:      question,
		Settings:      settings,
		WalletAddress: c.PostForm("wallet_address"),
		Images:        images,
	})
	if err != nil {
		writeError(c, h.logger, "process failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// Feedback 向暂停的线程提交反馈
// POST /api/process/:thread_id/feedback (multipart: message, question, wallet_address, images[])
func (h *ProcessHandler) Feedback(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	message := c.PostForm("message")
	if message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}
	images, err := readImages(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid images", "detail": err.Error()})
		return
	}
	ctx, cancel := detached(c, h.timeout)
	defer cancel()

	st, err := h.backend.SendFeedback(ctx, sess, backend.FeedbackRequest{
		ThreadID:      c.Param("thread_id"),
		Message:       message,
		Question:      c.PostForm("question"),
		WalletAddress: c.PostForm("wallet_address"),
		Images:        images,
	})
	if err != nil {
		writeError(c, h.logger, "feedback failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// ThreadState 查询线程状态
// GET /api/process/:thread_id
func (h *ProcessHandler) ThreadState(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c, catalogueTimeout)
	defer cancel()

	st, err := h.backend.ThreadState(ctx, sess, c.Param("thread_id"))
	if err != nil {
		writeError(c, h.logger, "thread state failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// HITLNodes 列出可配置的检查点
// GET /api/hitl/nodes
func HITLNodes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"nodes": hitl.Nodes()})
}

// HITLConfig 获取线程的检查点配置
// GET /api/hitl/:thread_id
func (h *ProcessHandler) HITLConfig(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c, catalogueTimeout)
	defer cancel()

	cfg, err := h.backend.HITLConfig(ctx, sess, c.Param("thread_id"))
	if err != nil {
		writeError(c, h.logger, "hitl config failed", err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

type hitlNodeRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// UpdateHITLNode 开关单个检查点
// PATCH /api/hitl/:thread_id/node/:node
func (h *ProcessHandler) UpdateHITLNode(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	node := c.Param("node")
	if hitl.Lookup(node).Unknown() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown hitl node", "detail": node})
		return
	}
	var req hitlNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "detail": err.Error()})
		return
	}
	ctx, cancel := requestContext(c, catalogueTimeout)
	defer cancel()

	cfg, err := h.backend.UpdateHITLNode(ctx, sess, c.Param("thread_id"), node, *req.Enabled)
	if err != nil {
		writeError(c, h.logger, "hitl node update failed", err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

type hitlBulkRequest struct {
	EnableAll *bool `json:"enable_all" binding:"required"`
}

// BulkUpdateHITL 批量开关检查点
// POST /api/hitl/:thread_id/bulk
func (h *ProcessHandler) BulkUpdateHITL(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	var req hitlBulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "detail": err.Error()})
		return
	}
	ctx, cancel := requestContext(c, catalogueTimeout)
	defer cancel()

	cfg, err := h.backend.BulkUpdateHITL(ctx, sess, c.Param("thread_id"), *req.EnableAll)
	if err != nil {
		writeError(c, h.logger, "hitl bulk update failed", err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}
