package handler

import (
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/RigelNana/baselibrary/services/mint-service/backend"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const catalogueTimeout = 30 * time.Second

// MaterialHandler proxies the backend catalogue with the caller's session.
type MaterialHandler struct {
	backend *backend.Client
	logger  *logrus.Logger
}

func NewMaterialHandler(b *backend.Client, logger *logrus.Logger) *MaterialHandler {
	return &MaterialHandler{backend: b, logger: logger}
}

func materialsFilter(c *gin.Context) backend.MaterialsFilter {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return backend.MaterialsFilter{
		Page:     page,
		PageSize: size,
		Subject:  c.Query("subject"),
		Grade:    c.Query("grade"),
		Status:   backend.MaterialStatus(c.Query("status")),
	}
}

// ListMaterials 列出公开材料
// GET /api/materials?page=1&page_size=20&subject=math
func (h *MaterialHandler) ListMaterials(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c, catalogueTimeout)
	defer cancel()

	resp, err := h.backend.ListMaterials(ctx, sess, materialsFilter(c))
	if err != nil {
		writeError(c, h.logger, "list materials failed", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListMyMaterials 列出当前用户的材料
// GET /api/materials/my
func (h *MaterialHandler) ListMyMaterials(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c, catalogueTimeout)
	defer cancel()

	resp, err := h.backend.ListMyMaterials(ctx, sess, materialsFilter(c))
	if err != nil {
		writeError(c, h.logger, "list my materials failed", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetMaterial 获取单个材料
// GET /api/materials/:id?include_content=true
func (h *MaterialHandler) GetMaterial(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c, catalogueTimeout)
	defer cancel()

	include, _ := strconv.ParseBool(c.DefaultQuery("include_content", "false"))
	m, err := h.backend.GetMaterial(ctx, sess, c.Param("id"), include)
	if err != nil {
		writeError(c, h.logger, "get material failed", err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// UpdateMaterial 修改材料元数据
// PATCH /api/materials/:id
func (h *MaterialHandler) UpdateMaterial(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	var upd backend.MaterialUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "detail": err.Error()})
		return
	}
	ctx, cancel := requestContext(c, catalogueTimeout)
	defer cancel()

	m, err := h.backend.UpdateMaterial(ctx, sess, c.Param("id"), upd)
	if err != nil {
		writeError(c, h.logger, "update material failed", err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// DeleteMaterial 删除材料
// DELETE /api/materials/:id
func (h *MaterialHandler) DeleteMaterial(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c, catalogueTimeout)
	defer cancel()

	if err := h.backend.DeleteMaterial(ctx, sess, c.Param("id")); err != nil {
		writeError(c, h.logger, "delete material failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// NFTMetadata 返回材料的 NFT 元数据
// GET /api/materials/:id/nft-metadata
func (h *MaterialHandler) NFTMetadata(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c, catalogueTimeout)
	defer cancel()

	meta, err := h.backend.NFTMetadata(ctx, sess, c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "nft metadata failed", err)
		return
	}
	c.JSON(http.StatusOK, meta)
}

type byTokensRequest struct {
	TokenIDs []string `json:"token_ids" binding:"required"`
}

// MaterialsByTokens 按 tokenId 批量查询材料
// POST /api/materials/by-tokens
func (h *MaterialHandler) MaterialsByTokens(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	var req byTokensRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "detail": err.Error()})
		return
	}
	ids := make([]*big.Int, 0, len(req.TokenIDs))
	for _, s := range req.TokenIDs {
		id, ok := new(big.Int).SetString(s, 10)
		if !ok || id.Sign() < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token id", "detail": s})
			return
		}
		ids = append(ids, id)
	}
	ctx, cancel := requestContext(c, catalogueTimeout)
	defer cancel()

	materials, err := h.backend.MaterialsByTokens(ctx, sess, ids)
	if err != nil {
		writeError(c, h.logger, "materials by tokens failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"materials": materials})
}

// SubjectStats 学科统计
// GET /api/stats/subjects
func (h *MaterialHandler) SubjectStats(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c, catalogueTimeout)
	defer cancel()

	stats, err := h.backend.SubjectStats(ctx, sess)
	if err != nil {
		writeError(c, h.logger, "subject stats failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subjects": stats})
}

// MyStats 当前用户统计
// GET /api/stats/me
func (h *MaterialHandler) MyStats(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c, catalogueTimeout)
	defer cancel()

	stats, err := h.backend.MyStats(ctx, sess)
	if err != nil {
		writeError(c, h.logger, "user stats failed", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// BlockchainStats 链上统计
// GET /api/stats/blockchain
func (h *MaterialHandler) BlockchainStats(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c, catalogueTimeout)
	defer cancel()

	stats, err := h.backend.BlockchainStats(ctx, sess)
	if err != nil {
		writeError(c, h.logger, "blockchain stats failed", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Leaderboard 排行榜
// GET /api/leaderboard?page=1&page_size=20
func (h *MaterialHandler) Leaderboard(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	ctx, cancel := requestContext(c, catalogueTimeout)
	defer cancel()

	board, err := h.backend.Leaderboard(ctx, sess, page, size)
	if err != nil {
		writeError(c, h.logger, "leaderboard failed", err)
		return
	}
	c.JSON(http.StatusOK, board)
}
