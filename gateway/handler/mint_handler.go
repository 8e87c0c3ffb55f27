package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/RigelNana/baselibrary/services/mint-service/contenthash"
	"github.com/RigelNana/baselibrary/services/mint-service/service"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type MintHandler struct {
	mint        service.MintService
	unavailable error
	timeout     time.Duration
	logger      *logrus.Logger
}

// NewMintHandler takes the mint service and the reason it is unavailable;
// with a nil service every mint route answers 503 with that reason.
func NewMintHandler(mint service.MintService, unavailable error, timeout time.Duration, logger *logrus.Logger) *MintHandler {
	if mint == nil && unavailable == nil {
		unavailable = errors.New("minting is not configured")
	}
	if mint == nil {
		logger.Warnf("mint routes disabled: %v", unavailable)
	}
	return &MintHandler{mint: mint, unavailable: unavailable, timeout: timeout, logger: logger}
}

func (h *MintHandler) ready(c *gin.Context) bool {
	if h.mint == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "minting is not configured", "detail": h.unavailable.Error()})
		return false
	}
	return true
}

// Mint 为已有材料铸造 NFT
// POST /api/materials/:id/mint
func (h *MintHandler) Mint(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	ctx, cancel := detached(c, h.timeout)
	defer cancel()

	res, err := h.mint.MintMaterial(ctx, sess, c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "mint failed", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// CreateWithNFT 铸造并创建新材料
// POST /api/materials/create-with-nft
func (h *MintHandler) CreateWithNFT(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	var req service.CreateParams
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "detail": err.Error()})
		return
	}
	ctx, cancel := detached(c, h.timeout)
	defer cancel()

	res, err := h.mint.CreateMaterial(ctx, sess, req)
	if err != nil {
		writeError(c, h.logger, "create with nft failed", err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

type updateContentRequest struct {
	Content string `json:"content" binding:"required"`
}

// UpdateContent 更新已铸造材料的内容
// PUT /api/materials/:id/content
func (h *MintHandler) UpdateContent(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	var req updateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "detail": err.Error()})
		return
	}
	ctx, cancel := detached(c, h.timeout)
	defer cancel()

	res, err := h.mint.UpdateContent(ctx, sess, c.Param("id"), req.Content)
	if err != nil {
		writeError(c, h.logger, "content update failed", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type hashRequest struct {
	Content string `json:"content" binding:"required"`
}

// Hash 计算内容哈希（无需认证）
// POST /api/content-hash
func Hash(c *gin.Context) {
	var req hashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"content_hash": contenthash.Hash(req.Content),
		"word_count":   contenthash.WordCount(req.Content),
	})
}

// CheckDuplicate 检查内容是否已被铸造
// POST /api/materials/check-duplicate
func (h *MintHandler) CheckDuplicate(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	var req hashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "detail": err.Error()})
		return
	}
	ctx, cancel := requestContext(c, 30*time.Second)
	defer cancel()

	res, err := h.mint.CheckDuplicate(ctx, sess, req.Content)
	if err != nil {
		writeError(c, h.logger, "duplicate check failed", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Ownership 查询材料归属与铸造状态
// GET /api/materials/:id/ownership?wallet=0x...
func (h *MintHandler) Ownership(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c, 30*time.Second)
	defer cancel()

	check, err := h.mint.Ownership(ctx, sess, c.Param("id"), c.Query("wallet"))
	if err != nil {
		writeError(c, h.logger, "ownership lookup failed", err)
		return
	}
	c.JSON(http.StatusOK, check)
}

// ListAttempts 列出铸造记录
// GET /api/attempts?status=reconciliation_gap&limit=50 (limit=0 lists all)
// GET /api/materials/:id/attempts
func (h *MintHandler) ListAttempts(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit", "detail": c.Query("limit")})
		return
	}
	ctx, cancel := requestContext(c, 10*time.Second)
	defer cancel()

	var attempts interface{}
	if id := c.Param("id"); id != "" {
		attempts, err = h.mint.AttemptsForMaterial(ctx, id)
	} else {
		attempts, err = h.mint.ListAttempts(ctx, c.Query("status"), limit)
	}
	if err != nil {
		writeError(c, h.logger, "list attempts failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attempts": attempts})
}

// Reconcile 重新提交后端同步
// POST /api/attempts/:id/reconcile
func (h *MintHandler) Reconcile(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	ctx, cancel := detached(c, h.timeout)
	defer cancel()

	rec, err := h.mint.Reconcile(ctx, sess, c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "reconcile failed", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Wallet 返回铸造钱包地址
// GET /api/wallet
func (h *MintHandler) Wallet(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallet_address": h.mint.Wallet()})
}
