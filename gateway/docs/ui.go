package docs

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// OpenAPI specification served at /openapi.json
const openapiJSON = `{
  "openapi": "3.0.3",
  "info": {
    "title": "Base Library Gateway API",
    "version": "0.2.0"
  },
  "servers": [
    {
      "url": "/"
    }
  ],
  "tags": [
    {
      "name": "auth",
      "description": "Wallet sign-in"
    },
    {
      "name": "materials",
      "description": "Catalogue"
    },
    {
      "name": "stats",
      "description": "Statistics"
    },
    {
      "name": "mint",
      "description": "NFT minting"
    },
    {
      "name": "processing",
      "description": "Generation and checkpoints"
    },
    {
      "name": "prompt",
      "description": "Prompt configuration"
    },
    {
      "name": "ipfs",
      "description": "Pinned content"
    }
  ],
  "components": {
    "securitySchemes": {
      "bearerAuth": {
        "type": "http",
        "scheme": "bearer",
        "bearerFormat": "JWT"
      }
    }
  },
  "paths": {
    "/api/auth/nonce": {
      "post": {"summary": "Request a sign-in challenge","tags": ["auth"],"requestBody": {"required": true},"responses": {"200": {"description": "OK"}}}
    },
    "/api/auth/verify": {
      "post": {"summary": "Exchange a signed challenge for a token","tags": ["auth"],"requestBody": {"required": true},"responses": {"200": {"description": "OK"}}}
    },
    "/api/auth/me": {
      "get": {"summary": "Current user","tags": ["auth"],"security": [{"bearerAuth": []}],"responses": {"200": {"description": "OK"}}}
    },
    "/api/auth/logout": {
      "post": {"summary": "Logout","tags": ["auth"],"security": [{"bearerAuth": []}],"responses": {"200": {"description": "OK"}}}
    },
    "/api/materials": {
      "get": {"summary": "List materials","tags": ["materials"],"security": [{"bearerAuth": []}],"responses": {"200": {"description": "OK"}}}
    },
    "/api/materials/my": {
      "get": {"summary": "List my materials","tags": ["materials"],"security": [{"bearerAuth": []}],"responses": {"200": {"description": "OK"}}}
    },
    "/api/materials/by-tokens": {
      "post": {"summary": "Materials by token ids","tags": ["materials"],"security": [{"bearerAuth": []}],"requestBody": {"required": true},"responses": {"200": {"description": "OK"}}}
    },
    "/api/materials/{id}": {
      "get": {"summary": "Get material","tags": ["materials"],"security": [{"bearerAuth": []}],"parameters": [{"name": "id","in": "path","required": true,"schema": {"type": "string"}}],"responses": {"200": {"description": "OK"}}},
      "patch": {"summary": "Update material","tags": ["materials"],"security": [{"bearerAuth": []}],"parameters": [{"name": "id","in": "path","required": true,"schema": {"type": "string"}}],"requestBody": {"required": true},"responses": {"200": {"description": "OK"}}},
      "delete": {"summary": "Delete material","tags": ["materials"],"security": [{"bearerAuth": []}],"parameters": [{"name": "id","in": "path","required": true,"schema": {"type": "string"}}],"responses": {"200": {"description": "OK"}}}
    },
    "/api/materials/{id}/nft-metadata": {
      "get": {"summary": "NFT metadata","tags": ["materials"],"security": [{"bearerAuth": []}],"parameters": [{"name": "id","in": "path","required": true,"schema": {"type": "string"}}],"responses": {"200": {"description": "OK"}}}
    },
    "/api/stats/subjects": {
      "get": {"summary": "Subject statistics","tags": ["stats"],"security": [{"bearerAuth": []}],"responses": {"200": {"description": "OK"}}}
    },
    "/api/stats/me": {
      "get": {"summary": "My statistics","tags": ["stats"],"security": [{"bearerAuth": []}],"responses": {"200": {"description": "OK"}}}
    },
    "/api/stats/blockchain": {
      "get": {"summary": "Blockchain statistics","tags": ["stats"],"security": [{"bearerAuth": []}],"responses": {"200": {"description": "OK"}}}
    },
    "/api/leaderboard": {
      "get": {"summary": "Leaderboard","tags": ["stats"],"security": [{"bearerAuth": []}],"responses": {"200": {"description": "OK"}}}
    },
    "/api/content-hash": {
      "post": {"summary": "Hash content","tags": ["mint"],"requestBody": {"required": true},"responses": {"200": {"description": "OK"}}}
    },
    "/api/wallet": {
      "get": {"summary": "Minting wallet address","tags": ["mint"],"responses": {"200": {"description": "OK"}}}
    },
    "/api/materials/{id}/mint": {
      "post": {"summary": "Mint an NFT for a material","tags": ["mint"],"security": [{"bearerAuth": []}],"parameters": [{"name": "id","in": "path","required": true,"schema": {"type": "string"}}],"responses": {"200": {"description": "OK"},"202": {"description": "Minted on chain, backend sync pending (reconciliation gap)"},"400": {"description": "Validation error"},"409": {"description": "Content already registered"},"422": {"description": "Chain error"},"502": {"description": "Network error"},"503": {"description": "Minting not configured"}}}
    },
    "/api/materials/create-with-nft": {
      "post": {"summary": "Mint and create a material","tags": ["mint"],"security": [{"bearerAuth": []}],"requestBody": {"required": true},"responses": {"200": {"description": "OK"},"202": {"description": "Minted on chain, backend sync pending (reconciliation gap)"},"400": {"description": "Validation error"},"409": {"description": "Content already registered"},"422": {"description": "Chain error"},"502": {"description": "Network error"},"503": {"description": "Minting not configured"},"201": {"description": "Created"}}}
    },
    "/api/materials/{id}/content": {
      "put": {"summary": "Update minted content","tags": ["mint"],"security": [{"bearerAuth": []}],"parameters": [{"name": "id","in": "path","required": true,"schema": {"type": "string"}}],"requestBody": {"required": true},"responses": {"200": {"description": "OK"},"202": {"description": "Minted on chain, backend sync pending (reconciliation gap)"},"400": {"description": "Validation error"},"409": {"description": "Content already registered"},"422": {"description": "Chain error"},"502": {"description": "Network error"},"503": {"description": "Minting not configured"}}}
    },
    "/api/materials/check-duplicate": {
      "post": {"summary": "Check whether content is registered","tags": ["mint"],"security": [{"bearerAuth": []}],"requestBody": {"required": true},"responses": {"200": {"description": "OK"}}}
    },
    "/api/materials/{id}/ownership": {
      "get": {"summary": "Ownership and mint status","tags": ["mint"],"security": [{"bearerAuth": []}],"parameters": [{"name": "id","in": "path","required": true,"schema": {"type": "string"}}],"responses": {"200": {"description": "OK"}}}
    },
    "/api/materials/{id}/attempts": {
      "get": {"summary": "Mint attempts for a material","tags": ["mint"],"security": [{"bearerAuth": []}],"parameters": [{"name": "id","in": "path","required": true,"schema": {"type": "string"}}],"responses": {"200": {"description": "OK"}}}
    },
    "/api/attempts": {
      "get": {"summary": "List mint attempts","tags": ["mint"],"security": [{"bearerAuth": []}],"responses": {"200": {"description": "OK"}}}
    },
    "/api/attempts/{id}/reconcile": {
      "post": {"summary": "Retry backend sync for a gap","tags": ["mint"],"security": [{"bearerAuth": []}],"parameters": [{"name": "id","in": "path","required": true,"schema": {"type": "string"}}],"responses": {"200": {"description": "OK"}}}
    },
    "/api/process": {
      "post": {"summary": "Start material generation","tags": ["processing"],"security": [{"bearerAuth": []}],"requestBody": {"required": true},"responses": {"200": {"description": "OK"}}}
    },
    "/api/process/{thread_id}": {
      "get": {"summary": "Thread state","tags": ["processing"],"security": [{"bearerAuth": []}],"parameters": [{"name": "thread_id","in": "path","required": true,"schema": {"type": "string"}}],"responses": {"200": {"description": "OK"}}}
    },
    "/api/process/{thread_id}/feedback": {
      "post": {"summary": "Send feedback to a paused thread","tags": ["processing"],"security": [{"bearerAuth": []}],"parameters": [{"name": "thread_id","in": "path","required": true,"schema": {"type": "string"}}],"requestBody": {"required": true},"responses": {"200": {"description": "OK"}}}
    },
    "/api/hitl/nodes": {
      "get": {"summary": "Known checkpoints","tags": ["processing"],"responses": {"200": {"description": "OK"}}}
    },
    "/api/hitl/{thread_id}": {
      "get": {"summary": "Checkpoint configuration","tags": ["processing"],"security": [{"bearerAuth": []}],"parameters": [{"name": "thread_id","in": "path","required": true,"schema": {"type": "string"}}],"responses": {"200": {"description": "OK"}}}
    },
    "/api/hitl/{thread_id}/node/{node}": {
      "patch": {"summary": "Toggle a checkpoint","tags": ["processing"],"security": [{"bearerAuth": []}],"parameters": [{"name": "thread_id","in": "path","required": true,"schema": {"type": "string"}},{"name": "node","in": "path","required": true,"schema": {"type": "string"}}],"requestBody": {"required": true},"responses": {"200": {"description": "OK"}}}
    },
    "/api/hitl/{thread_id}/bulk": {
      "post": {"summary": "Toggle all checkpoints","tags": ["processing"],"security": [{"bearerAuth": []}],"parameters": [{"name": "thread_id","in": "path","required": true,"schema": {"type": "string"}}],"requestBody": {"required": true},"responses": {"200": {"description": "OK"}}}
    },
    "/api/prompt/placeholders": {
      "get": {"summary": "List prompt placeholders","tags": ["prompt"],"security": [{"bearerAuth": []}],"responses": {"200": {"description": "OK"}}}
    },
    "/api/prompt/profiles": {
      "get": {"summary": "List prompt profiles","tags": ["prompt"],"security": [{"bearerAuth": []}],"responses": {"200": {"description": "OK"}}}
    },
    "/api/prompt/profiles/{id}": {
      "get": {"summary": "Get a prompt profile","tags": ["prompt"],"security": [{"bearerAuth": []}],"parameters": [{"name": "id","in": "path","required": true,"schema": {"type": "string"}}],"responses": {"200": {"description": "OK"}}}
    },
    "/api/prompt/me": {
      "get": {"summary": "My placeholder settings","tags": ["prompt"],"security": [{"bearerAuth": []}],"responses": {"200": {"description": "OK"}}}
    },
    "/api/prompt/me/placeholders/{placeholder_id}": {
      "put": {"summary": "Set a placeholder value","tags": ["prompt"],"security": [{"bearerAuth": []}],"parameters": [{"name": "placeholder_id","in": "path","required": true,"schema": {"type": "string"}}],"requestBody": {"required": true},"responses": {"200": {"description": "OK"}}}
    },
    "/api/prompt/me/apply/{id}": {
      "post": {"summary": "Apply a profile","tags": ["prompt"],"security": [{"bearerAuth": []}],"parameters": [{"name": "id","in": "path","required": true,"schema": {"type": "string"}}],"responses": {"200": {"description": "OK"}}}
    },
    "/api/prompt/me/reset": {
      "post": {"summary": "Reset my settings","tags": ["prompt"],"security": [{"bearerAuth": []}],"responses": {"200": {"description": "OK"}}}
    },
    "/api/pins": {
      "get": {"summary": "List pins","tags": ["ipfs"],"security": [{"bearerAuth": []}],"responses": {"200": {"description": "OK"}}}
    },
    "/api/pins/text": {
      "post": {"summary": "Pin text","tags": ["ipfs"],"security": [{"bearerAuth": []}],"requestBody": {"required": true},"responses": {"200": {"description": "OK"}}}
    },
    "/api/pins/file": {
      "post": {"summary": "Pin a file","tags": ["ipfs"],"security": [{"bearerAuth": []}],"requestBody": {"required": true},"responses": {"200": {"description": "OK"}}}
    },
    "/api/pins/{cid}": {
      "delete": {"summary": "Unpin","tags": ["ipfs"],"security": [{"bearerAuth": []}],"parameters": [{"name": "cid","in": "path","required": true,"schema": {"type": "string"}}],"responses": {"200": {"description": "OK"}}}
    },
    "/api/content/{cid}": {
      "get": {"summary": "Read pinned text","tags": ["ipfs"],"security": [{"bearerAuth": []}],"parameters": [{"name": "cid","in": "path","required": true,"schema": {"type": "string"}}],"responses": {"200": {"description": "OK"}}}
    }
  }
}`

// RegisterRoutes wires the API documentation endpoints into the Gin engine.
// - GET /openapi.json: OpenAPI 3.0 spec
// - GET /docs: Swagger UI (via CDN) loading /openapi.json
func RegisterRoutes(r *gin.Engine) {
	// convenience: redirect root to docs
	r.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/docs") })
	r.GET("/openapi.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(openapiJSON))
	})
	r.GET("/docs", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(swaggerHTML))
	})
}

// Simple Swagger-UI page using CDN assets, pointing to /openapi.json
const swaggerHTML = `<!doctype html>
<html>
<head>
  <meta charset="utf-8"/>
  <title>Base Library API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  <style>body { margin: 0; padding: 0; }</style>
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.json',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
 </body>
</html>`
