package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/RigelNana/baselibrary/pkg/metrics"
	"github.com/RigelNana/baselibrary/services/mint-service/events"
	"github.com/RigelNana/baselibrary/services/mint-service/models"
	"github.com/RigelNana/baselibrary/services/mint-service/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// attempt tracks one workflow run in the ledger. Ledger and event writes
// are detached from the request context so that an abandoned request still
// records its outcome. They never fail the workflow.
type attempt struct {
	repo   repository.MintAttemptRepository
	pub    events.Publisher
	logger *logrus.Logger

	rec        models.MintAttempt
	stage      string
	stageStart time.Time
}

func (s *MintServiceImpl) begin(ctx context.Context, flow, materialID, wallet, contentHash string, meta any) *attempt {
	a := &attempt{
		repo:   s.attempts,
		pub:    s.events,
		logger: s.logger,
		rec: models.MintAttempt{
			Flow:          flow,
			MaterialID:    materialID,
			WalletAddress: wallet,
			ContentHash:   contentHash,
			Stage:         "idle",
			Status:        models.AttemptStatusPending,
		},
		stage:      "idle",
		stageStart: time.Now(),
	}
	if meta != nil {
		if raw, err := json.Marshal(meta); err == nil {
			a.rec.Metadata = datatypes.JSON(raw)
		}
	}
	if a.repo == nil {
		a.rec.ID = uuid.New()
		return a
	}
	if err := a.repo.Create(context.WithoutCancel(ctx), &a.rec); err != nil {
		a.logger.Errorf("failed to record %s attempt for %s: %v", flow, contentHash, err)
		a.rec.ID = uuid.New()
		a.repo = nil
	}
	return a
}

func (a *attempt) ID() string { return a.rec.ID.String() }

func (a *attempt) ledger(ctx context.Context, what string, fn func(context.Context) error) {
	if a.repo == nil {
		return
	}
	if err := fn(context.WithoutCancel(ctx)); err != nil {
		a.logger.Warnf("attempt %s: failed to record %s: %v", a.ID(), what, err)
	}
}

// enter closes the current stage and starts the next one.
func (a *attempt) enter(ctx context.Context, stage string) {
	now := time.Now()
	if a.stage != "idle" {
		metrics.RecordStage(a.stage, now.Sub(a.stageStart))
	}
	a.stage, a.stageStart = stage, now
	a.rec.Stage = stage
	a.ledger(ctx, "stage", func(ctx context.Context) error {
		return a.repo.UpdateStage(ctx, a.rec.ID, stage)
	})
}

func (a *attempt) recordRefs(ctx context.Context, refs repository.ChainRefs) {
	if refs.IPFSCid != "" {
		a.rec.IPFSCid = refs.IPFSCid
	}
	if refs.TxHash != "" {
		a.rec.TxHash = refs.TxHash
	}
	if refs.TokenID != "" {
		a.rec.TokenID = refs.TokenID
	}
	a.ledger(ctx, "chain refs", func(ctx context.Context) error {
		return a.repo.RecordChainRefs(ctx, a.rec.ID, refs)
	})
}

func (a *attempt) setMaterialID(ctx context.Context, materialID string) {
	if materialID == "" || materialID == a.rec.MaterialID {
		return
	}
	a.rec.MaterialID = materialID
	a.ledger(ctx, "material id", func(ctx context.Context) error {
		return a.repo.SetMaterialID(ctx, a.rec.ID, materialID)
	})
}

func (a *attempt) flagRace(ctx context.Context) {
	a.rec.RaceAnomaly = true
	a.ledger(ctx, "race anomaly", func(ctx context.Context) error {
		return a.repo.FlagRaceAnomaly(ctx, a.rec.ID)
	})
}

func (a *attempt) finish(ctx context.Context, status string, err error, event events.Type) {
	if a.stage != "idle" {
		metrics.RecordStage(a.stage, time.Since(a.stageStart))
	}
	kind, msg := "", ""
	outcome := status
	if err != nil {
		msg = err.Error()
		kind = string(KindOf(err))
		if status == models.AttemptStatusFailed && kind != "" {
			outcome = kind
		}
	}
	metrics.MintAttemptsTotal.WithLabelValues(a.rec.Flow, outcome).Inc()

	a.rec.Status = status
	a.ledger(ctx, "status", func(ctx context.Context) error {
		return a.repo.MarkStatus(ctx, a.rec.ID, status, kind, msg)
	})
	if event == "" || a.pub == nil {
		return
	}
	e := events.Event{
		Type:        event,
		AttemptID:   a.ID(),
		MaterialID:  a.rec.MaterialID,
		Wallet:      a.rec.WalletAddress,
		ContentHash: a.rec.ContentHash,
		IPFSCid:     a.rec.IPFSCid,
		TxHash:      a.rec.TxHash,
		TokenID:     a.rec.TokenID,
		ErrorKind:   kind,
		Error:       msg,
	}
	if perr := a.pub.Publish(context.WithoutCancel(ctx), e); perr != nil {
		a.logger.Warnf("attempt %s: failed to publish %s: %v", a.ID(), event, perr)
	}
}

func (a *attempt) fail(ctx context.Context, err *WorkflowError) error {
	a.logger.WithFields(logrus.Fields{
		"attempt": a.ID(),
		"flow":    a.rec.Flow,
		"kind":    err.Kind,
		"stage":   err.Stage,
	}).Warnf("workflow failed: %v", err.Err)
	event := events.MintFailed
	if err.Kind == KindValidation || err.Kind == KindConflict {
		event = ""
	}
	a.finish(ctx, models.AttemptStatusFailed, err, event)
	return err
}
