package router

import (
	"net/http"

	"github.com/RigelNana/baselibrary/gateway/docs"
	"github.com/RigelNana/baselibrary/gateway/handler"
	"github.com/RigelNana/baselibrary/gateway/middleware"
	metricsgin "github.com/RigelNana/baselibrary/pkg/metrics/gin"
	"github.com/RigelNana/baselibrary/services/mint-service/backend"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Auth     *handler.AuthHandler
	Material *handler.MaterialHandler
	Process  *handler.ProcessHandler
	Pinata   *handler.PinataHandler
	Mint     *handler.MintHandler
	Prompt   *handler.PromptHandler
	// Session backs requests that carry no Authorization header.
	Session *backend.Session
}

func Setup(h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), metricsgin.PrometheusMiddleware("gateway", "/health", "/metrics"))
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	docs.RegisterRoutes(r)

	api := r.Group("/api")
	{
		api.POST("/auth/nonce", h.Auth.RequestNonce)
		api.POST("/auth/verify", h.Auth.VerifySignature)
		api.POST("/content-hash", handler.Hash)
		api.GET("/hitl/nodes", handler.HITLNodes)
		api.GET("/wallet", h.Mint.Wallet)
	}

	authed := api.Group("")
	authed.Use(middleware.SessionAuth(h.Session))
	{
		authed.GET("/auth/me", h.Auth.Me)
		authed.POST("/auth/logout", h.Auth.Logout)

		authed.GET("/materials", h.Material.ListMaterials)
		authed.GET("/materials/my", h.Material.ListMyMaterials)
		authed.POST("/materials/by-tokens", h.Material.MaterialsByTokens)
		authed.GET("/materials/:id", h.Material.GetMaterial)
		authed.PATCH("/materials/:id", h.Material.UpdateMaterial)
		authed.DELETE("/materials/:id", h.Material.DeleteMaterial)
		authed.GET("/materials/:id/nft-metadata", h.Material.NFTMetadata)
		authed.GET("/stats/subjects", h.Material.SubjectStats)
		authed.GET("/stats/me", h.Material.MyStats)
		authed.GET("/stats/blockchain", h.Material.BlockchainStats)
		authed.GET("/leaderboard", h.Material.Leaderboard)

		authed.POST("/materials/:id/mint", h.Mint.Mint)
		authed.POST("/materials/create-with-nft", h.Mint.CreateWithNFT)
		authed.PUT("/materials/:id/content", h.Mint.UpdateContent)
		authed.POST("/materials/check-duplicate", h.Mint.CheckDuplicate)
		authed.GET("/materials/:id/ownership", h.Mint.Ownership)
		authed.GET("/materials/:id/attempts", h.Mint.ListAttempts)
		authed.GET("/attempts", h.Mint.ListAttempts)
		authed.POST("/attempts/:id/reconcile", h.Mint.Reconcile)

		authed.POST("/process", h.Process.Process)
		authed.GET("/process/:thread_id", h.Process.ThreadState)
		authed.POST("/process/:thread_id/feedback", h.Process.Feedback)
		authed.GET("/hitl/:thread_id", h.Process.HITLConfig)
		authed.PATCH("/hitl/:thread_id/node/:node", h.Process.UpdateHITLNode)
		authed.POST("/hitl/:thread_id/bulk", h.Process.BulkUpdateHITL)

		authed.GET("/prompt/placeholders", h.Prompt.Placeholders)
		authed.GET("/prompt/profiles", h.Prompt.Profiles)
		authed.GET("/prompt/profiles/:id", h.Prompt.Profile)
		authed.GET("/prompt/me", h.Prompt.MySettings)
		authed.PUT("/prompt/me/placeholders/:placeholder_id", h.Prompt.SetPlaceholder)
		authed.POST("/prompt/me/apply/:id", h.Prompt.ApplyProfile)
		authed.POST("/prompt/me/reset", h.Prompt.ResetSettings)

		authed.GET("/pins", h.Pinata.ListPins)
		authed.POST("/pins/text", h.Pinata.UploadText)
		authed.POST("/pins/file", h.Pinata.UploadFile)
		authed.DELETE("/pins/:cid", h.Pinata.Unpin)
		authed.GET("/content/:cid", h.Pinata.GetContent)
	}
	return r
}
