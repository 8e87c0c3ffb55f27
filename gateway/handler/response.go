package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/RigelNana/baselibrary/gateway/middleware"
	"github.com/RigelNana/baselibrary/services/mint-service/backend"
	"github.com/RigelNana/baselibrary/services/mint-service/pinata"
	"github.com/RigelNana/baselibrary/services/mint-service/service"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var workflowStatus = map[service.ErrorKind]int{
	service.KindValidation:        http.StatusBadRequest,
	service.KindConflict:          http.StatusConflict,
	service.KindNetwork:           http.StatusBadGateway,
	service.KindChain:             http.StatusUnprocessableEntity,
	service.KindReconciliationGap: http.StatusAccepted,
}

// writeError maps err onto a status code and a gin.H{"error","detail"} body.
func writeError(c *gin.Context, logger *logrus.Logger, msg string, err error) {
	var we *service.WorkflowError
	if errors.As(err, &we) {
		body := gin.H{"error": msg, "kind": we.Kind, "stage": we.Stage, "detail": err.Error()}
		switch we.Kind {
		case service.KindConflict:
			if we.TokenID != nil {
				body["token_id"] = we.TokenID
			}
		case service.KindReconciliationGap:
			// The NFT exists; only the catalogue entry lags.
			body["reconciliation_required"] = true
			body["result"] = we.Result
		}
		if we.Kind != service.KindValidation && we.Kind != service.KindConflict {
			logger.Errorf("%s: %v", msg, err)
		}
		c.JSON(workflowStatus[we.Kind], body)
		return
	}

	status := http.StatusInternalServerError
	var pinErr *pinata.APIError
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, pinata.ErrEmptyCID):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrLedgerDisabled), errors.Is(err, pinata.ErrNotConfigured):
		status = http.StatusServiceUnavailable
	case backend.StatusCode(err) >= 400 && backend.StatusCode(err) < 500:
		status = backend.StatusCode(err)
	case backend.StatusCode(err) >= 500, errors.As(err, &pinErr):
		status = http.StatusBadGateway
	}
	if status >= 500 {
		logger.Errorf("%s: %v", msg, err)
	}
	c.JSON(status, gin.H{"error": msg, "detail": err.Error()})
}

func requireSession(c *gin.Context) (*backend.Session, bool) {
	sess := middleware.SessionFrom(c)
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return nil, false
	}
	return sess, true
}

// detached returns a context that survives the client going away, so a
// workflow that already touched the chain runs to completion and records
// its outcome.
func detached(c *gin.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(c.Request.Context()), timeout)
}

func requestContext(c *gin.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), timeout)
}
