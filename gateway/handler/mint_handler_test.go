package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/RigelNana/baselibrary/gateway/middleware"
	"github.com/RigelNana/baselibrary/services/mint-service/backend"
	"github.com/RigelNana/baselibrary/services/mint-service/contenthash"
	"github.com/RigelNana/baselibrary/services/mint-service/models"
	"github.com/RigelNana/baselibrary/services/mint-service/pinata"
	"github.com/RigelNana/baselibrary/services/mint-service/service"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMint struct {
	result  *service.MintResult
	err     error
	session *backend.Session
	params  service.CreateParams
	content string
	status  string
	limit   int
}

func (f *fakeMint) MintMaterial(_ context.Context, sess *backend.Session, id string) (*service.MintResult, error) {
	f.session = sess
	return f.result, f.err
}

func (f *fakeMint) CreateMaterial(_ context.Context, sess *backend.Session, p service.CreateParams) (*service.MintResult, error) {
	f.session = sess
	f.params = p
	return f.result, f.err
}

func (f *fakeMint) UpdateContent(_ context.Context, sess *backend.Session, id, content string) (*service.MintResult, error) {
	f.content = content
	return f.result, f.err
}

func (f *fakeMint) CheckDuplicate(_ context.Context, _ *backend.Session, content string) (*service.DuplicateResult, error) {
	return &service.DuplicateResult{ContentHash: contenthash.Hash(content)}, f.err
}

func (f *fakeMint) Ownership(_ context.Context, _ *backend.Session, id, wallet string) (*service.OwnershipCheck, error) {
	return &service.OwnershipCheck{IsOwner: wallet != "", CanMint: wallet != ""}, f.err
}

func (f *fakeMint) Wallet() string { return "0x00000000000000000000000000000000000000Aa" }

func (f *fakeMint) ListAttempts(_ context.Context, status string, limit int) ([]*models.MintAttempt, error) {
	f.status, f.limit = status, limit
	return []*models.MintAttempt{{Flow: models.FlowMint, Status: models.AttemptStatusReconciliationGap}}, f.err
}

func (f *fakeMint) AttemptsForMaterial(_ context.Context, id string) ([]*models.MintAttempt, error) {
	return []*models.MintAttempt{{Flow: models.FlowMint, MaterialID: id}}, f.err
}

func (f *fakeMint) Reconcile(_ context.Context, _ *backend.Session, id string) (*models.MintAttempt, error) {
	return &models.MintAttempt{Status: models.AttemptStatusReconciled}, f.err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newMintRouter(mint service.MintService, fallback *backend.Session) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewMintHandler(mint, nil, time.Minute, quietLogger())
	r := gin.New()
	r.POST("/api/content-hash", Hash)
	r.GET("/api/wallet", h.Wallet)
	authed := r.Group("/api", middleware.SessionAuth(fallback))
	authed.POST("/materials/:id/mint", h.Mint)
	authed.POST("/materials/create-with-nft", h.CreateWithNFT)
	authed.PUT("/materials/:id/content", h.UpdateContent)
	authed.POST("/materials/check-duplicate", h.CheckDuplicate)
	authed.GET("/materials/:id/ownership", h.Ownership)
	authed.GET("/materials/:id/attempts", h.ListAttempts)
	authed.GET("/attempts", h.ListAttempts)
	authed.POST("/attempts/:id/reconcile", h.Reconcile)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Authorization", "Bearer test-token")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestMintSuccess(t *testing.T) {
	mint := &fakeMint{result: &service.MintResult{TokenID: big.NewInt(7), TxHash: "0xabc"}}
	r := newMintRouter(mint, nil)

	w := do(r, http.MethodPost, "/api/materials/m1/mint", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(7), body["token_id"])
	assert.Equal(t, "test-token", mint.session.Token())
}

func TestMintErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &service.WorkflowError{Kind: service.KindValidation, Stage: "validate", Err: service.ErrEmptyContent}, http.StatusBadRequest},
		{"conflict", &service.WorkflowError{Kind: service.KindConflict, Stage: "duplicate_check", TokenID: big.NewInt(42), Err: service.ErrDuplicateContent}, http.StatusConflict},
		{"network", &service.WorkflowError{Kind: service.KindNetwork, Stage: "uploading", Err: errors.New("pinata down")}, http.StatusBadGateway},
		{"chain", &service.WorkflowError{Kind: service.KindChain, Stage: "confirming", Err: errors.New("reverted")}, http.StatusUnprocessableEntity},
		{"backend unauthorized", &backend.APIError{StatusCode: 401, Message: "expired"}, http.StatusUnauthorized},
		{"backend not found", &backend.APIError{StatusCode: 404, Message: "no such material"}, http.StatusNotFound},
		{"backend 500", &backend.APIError{StatusCode: 500, Message: "boom"}, http.StatusBadGateway},
		{"pinata not configured", pinata.ErrNotConfigured, http.StatusServiceUnavailable},
		{"ledger disabled", service.ErrLedgerDisabled, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newMintRouter(&fakeMint{err: tc.err}, nil)
			w := do(r, http.MethodPost, "/api/materials/m1/mint", "")
			assert.Equal(t, tc.want, w.Code)
			body := decode(t, w)
			assert.Equal(t, "mint failed", body["error"])
		})
	}
}

func TestMintConflictCarriesToken(t *testing.T) {
	err := &service.WorkflowError{Kind: service.KindConflict, Stage: "duplicate_check", TokenID: big.NewInt(42), Err: service.ErrDuplicateContent}
	r := newMintRouter(&fakeMint{err: err}, nil)

	w := do(r, http.MethodPost, "/api/materials/m1/mint", "")
	require.Equal(t, http.StatusConflict, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(42), body["token_id"])
	assert.Equal(t, "conflict", body["kind"])
}

func TestMintReconciliationGapIsAccepted(t *testing.T) {
	res := &service.MintResult{AttemptID: "a1", TokenID: big.NewInt(9), TxHash: "0xdef"}
	err := &service.WorkflowError{Kind: service.KindReconciliationGap, Stage: "syncing", TokenID: big.NewInt(9), Result: res, Err: service.ErrSyncFailed}
	r := newMintRouter(&fakeMint{err: err}, nil)

	w := do(r, http.MethodPost, "/api/materials/m1/mint", "")
	require.Equal(t, http.StatusAccepted, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["reconciliation_required"])
	result, ok := body["result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "0xdef", result["tx_hash"])
	assert.Equal(t, "a1", result["attempt_id"])
}

func TestMintRequiresSession(t *testing.T) {
	r := newMintRouter(&fakeMint{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/materials/m1/mint", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMintUsesFallbackSession(t *testing.T) {
	mint := &fakeMint{result: &service.MintResult{}}
	r := newMintRouter(mint, backend.NewTokenSession("operator"))
	req := httptest.NewRequest(http.MethodPost, "/api/materials/m1/mint", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "operator", mint.session.Token())
}

func TestMintDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewMintHandler(nil, errors.New("no wallet key"), time.Minute, quietLogger())
	r := gin.New()
	r.GET("/api/wallet", h.Wallet)

	w := do(r, http.MethodGet, "/api/wallet", "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "no wallet key", decode(t, w)["detail"])
}

func TestCreateWithNFT(t *testing.T) {
	mint := &fakeMint{result: &service.MintResult{MaterialID: "m2"}}
	r := newMintRouter(mint, nil)

	w := do(r, http.MethodPost, "/api/materials/create-with-nft", `{"title":"Fractions","subject":"math","content":"one half"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "math", mint.params.Subject)
	assert.Equal(t, "one half", mint.params.Content)

	w = do(r, http.MethodPost, "/api/materials/create-with-nft", `{"title":"Fractions"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateContent(t *testing.T) {
	mint := &fakeMint{result: &service.MintResult{}}
	r := newMintRouter(mint, nil)

	w := do(r, http.MethodPut, "/api/materials/m1/content", `{"content":"v2"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "v2", mint.content)

	w = do(r, http.MethodPut, "/api/materials/m1/content", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHashNeedsNoSession(t *testing.T) {
	r := newMintRouter(&fakeMint{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/content-hash", strings.NewReader(`{"content":"a b c"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, contenthash.Hash("a b c"), body["content_hash"])
	assert.Equal(t, float64(3), body["word_count"])
}

func TestCheckDuplicateAndOwnership(t *testing.T) {
	r := newMintRouter(&fakeMint{}, nil)

	w := do(r, http.MethodPost, "/api/materials/check-duplicate", `{"content":"x"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, contenthash.Hash("x"), decode(t, w)["content_hash"])

	w = do(r, http.MethodGet, "/api/materials/m1/ownership?wallet=0xabc", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["can_mint"])
}

func TestAttemptsRoutes(t *testing.T) {
	mint := &fakeMint{}
	r := newMintRouter(mint, nil)

	w := do(r, http.MethodGet, "/api/attempts?status=reconciliation_gap&limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "reconciliation_gap", mint.status)
	assert.Equal(t, 5, mint.limit)
	assert.Len(t, decode(t, w)["attempts"], 1)

	w = do(r, http.MethodGet, "/api/materials/m7/attempts", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/api/attempts/a1/reconcile", "")
	require.Equal(t, http.StatusOK, w.Code)

	r = newMintRouter(&fakeMint{err: service.ErrLedgerDisabled}, nil)
	w = do(r, http.MethodGet, "/api/attempts", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAttemptsLimit(t *testing.T) {
	mint := &fakeMint{}
	r := newMintRouter(mint, nil)

	w := do(r, http.MethodGet, "/api/attempts", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 50, mint.limit)

	w = do(r, http.MethodGet, "/api/attempts?limit=0", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, mint.limit)

	mint.limit = 99
	for _, bad := range []string{"abc", "-1"} {
		w = do(r, http.MethodGet, "/api/attempts?limit="+bad, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
	}
	assert.Equal(t, 99, mint.limit)
}
