package handler

import (
	"net/http"

	"github.com/RigelNana/baselibrary/services/mint-service/backend"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	backend *backend.Client
	logger  *logrus.Logger
}

func NewAuthHandler(b *backend.Client, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{backend: b, logger: logger}
}

type nonceRequest struct {
	WalletAddress string `json:"wallet_address" binding:"required"`
}

// RequestNonce expects wallet_address ->
// 1. 校验地址格式
// 2. 向后端申请签名挑战
// POST /api/auth/nonce
func (h *AuthHandler) RequestNonce(c *gin.Context) {
	var req nonceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "detail": err.Error()})
		return
	}
	if !common.IsHexAddress(req.WalletAddress) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wallet address", "detail": req.WalletAddress})
		return
	}
	addr := common.HexToAddress(req.WalletAddress)
	ctx, cancel := requestContext(c, catalogueTimeout)
	defer cancel()

	nonce, err := h.backend.RequestNonce(ctx, addr.Hex())
	if err != nil {
		writeError(c, h.logger, "request nonce failed", err)
		return
	}
	c.JSON(http.StatusOK, nonce)
}

// VerifySignature 用签名换取访问令牌
// POST /api/auth/verify
func (h *AuthHandler) VerifySignature(c *gin.Context) {
	var req backend.SignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.WalletAddress == "" || req.Signature == "" || req.Nonce == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	ctx, cancel := requestContext(c, catalogueTimeout)
	defer cancel()

	// 令牌只返回给调用方，不写入网关的操作员会话
	resp, err := h.backend.VerifySignature(ctx, backend.NewTokenSession(""), req)
	if err != nil {
		writeError(c, h.logger, "verify signature failed", err)
		return
	}
	h.logger.Infof("wallet signed in: %s", resp.User.WalletAddress)
	c.JSON(http.StatusOK, resp)
}

// Me 返回当前用户
// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c, catalogueTimeout)
	defer cancel()

	user, err := h.backend.Me(ctx, sess)
	if err != nil {
		writeError(c, h.logger, "get current user failed", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Logout 结束后端会话
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c, catalogueTimeout)
	defer cancel()

	// 请求级会话的清理只影响本次请求的副本
	if err := h.backend.Logout(ctx, backend.NewTokenSession(sess.Token())); err != nil {
		writeError(c, h.logger, "logout failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
