package handler

import (
	"net/http"
	"time"

	"github.com/RigelNana/baselibrary/services/mint-service/contenthash"
	"github.com/RigelNana/baselibrary/services/mint-service/pinata"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const pinTimeout = 2 * time.Minute

type PinataHandler struct {
	pinata *pinata.Client
	logger *logrus.Logger
}

func NewPinataHandler(p *pinata.Client, logger *logrus.Logger) *PinataHandler {
	return &PinataHandler{pinata: p, logger: logger}
}

// ListPins 列出已固定的内容
// GET /api/pins
func (h *PinataHandler) ListPins(c *gin.Context) {
	ctx, cancel := requestContext(c, catalogueTimeout)
	defer cancel()

	pins, err := h.pinata.ListPinned(ctx)
	if err != nil {
		writeError(c, h.logger, "list pins failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pins": pins, "count": len(pins)})
}

// Unpin 取消固定
// DELETE /api/pins/:cid
func (h *PinataHandler) Unpin(c *gin.Context) {
	ctx, cancel := requestContext(c, catalogueTimeout)
	defer cancel()

	if err := h.pinata.Unpin(ctx, c.Param("cid")); err != nil {
		writeError(c, h.logger, "unpin failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "unpinned"})
}

// UploadText 固定一段文本
// POST /api/pins/text
func (h *PinataHandler) UploadText(c *gin.Context) {
	var req hashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "detail": err.Error()})
		return
	}
	ctx, cancel := detached(c, pinTimeout)
	defer cancel()

	cid, err := h.pinata.UploadText(ctx, req.Content)
	if err != nil {
		writeError(c, h.logger, "upload text failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cid":          cid,
		"url":          h.pinata.ContentURL(cid),
		"content_hash": contenthash.Hash(req.Content),
	})
}

// UploadFile 固定上传的文件
// POST /api/pins/file (multipart: file)
func (h *PinataHandler) UploadFile(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required", "detail": err.Error()})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read file", "detail": err.Error()})
		return
	}
	defer f.Close()

	ctx, cancel := detached(c, pinTimeout)
	defer cancel()

	cid, err := h.pinata.UploadFile(ctx, fh.Filename, f)
	if err != nil {
		writeError(c, h.logger, "upload file failed", err)
		return
	}
	h.logger.Infof("pinned file %s (%d bytes) as %s", fh.Filename, fh.Size, cid)
	c.JSON(http.StatusOK, gin.H{"cid": cid, "url": h.pinata.ContentURL(cid), "filename": fh.Filename})
}

// GetContent 读取固定的文本内容
// GET /api/content/:cid
func (h *PinataHandler) GetContent(c *gin.Context) {
	ctx, cancel := requestContext(c, catalogueTimeout)
	defer cancel()

	text, err := h.pinata.GetText(ctx, c.Param("cid"))
	if err != nil {
		writeError(c, h.logger, "get content failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cid":          c.Param("cid"),
		"content":      text,
		"content_hash": contenthash.Hash(text),
		"word_count":   contenthash.WordCount(text),
	})
}
