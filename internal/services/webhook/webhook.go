// Package webhook accepts gateway push notifications. Intake answers at once
// and hands valid events to a worker pool that drives reconciliation.
package webhook

import (
	"context"
	"errors"
	"time"

	"github.com/fastprodman/walletledger/internal/config"
	"github.com/fastprodman/walletledger/internal/gateway/paystack"
	"github.com/fastprodman/walletledger/internal/ledger"
	"github.com/fastprodman/walletledger/internal/metrics"
	"github.com/fastprodman/walletledger/internal/services/reconcile"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Reconciler interface {
	Reconcile(ctx context.Context, reference string) (reconcile.Result, error)
}

// Disposition says what intake did with one delivery.
type Disposition string

const (
	Queued           Disposition = "queued"
	Duplicate        Disposition = "duplicate"
	Ignored          Disposition = "ignored"
	InvalidSignature Disposition = "invalid_signature"
	Malformed        Disposition = "malformed"
	Dropped          Disposition = "dropped"
)

const reconcileTimeout = 30 * time.Second

type job struct {
	event     string
	reference string
	key       string
}

type Processor struct {
	secret  string
	workers int
	rec     Reconciler
	dedupe  Deduper
	queue   chan job
}

func New(cfg config.WebhookConfig, rec Reconciler, dedupe Deduper) *Processor {
	if dedupe == nil {
		dedupe = NoDedupe()
	}

	return &Processor{
		secret:  cfg.Secret,
		workers: max(cfg.Workers, 1),
		rec:     rec,
		dedupe:  dedupe,
		queue:   make(chan job, max(cfg.QueueSize, 1)),
	}
}

// Handle never blocks on reconciliation and never reports failure to the
// caller; the HTTP layer answers 200 whatever the disposition.
func (p *Processor) Handle(ctx context.Context, body []byte, signature string) Disposition {
	d := p.intake(ctx, body, signature)
	metrics.WebhookEvents.WithLabelValues(string(d)).Inc()
	return d
}

func (p *Processor) intake(ctx context.Context, body []byte, signature string) Disposition {
	if !paystack.ValidSignature(p.secret, body, signature) {
		zap.L().Warn("webhook signature mismatch", zap.Int("body_bytes", len(body)))
		return InvalidSignature
	}

	ev, err := paystack.ParseEvent(body)
	if err != nil {
		zap.L().Warn("webhook payload rejected", zap.Error(err))
		return Malformed
	}

	switch ev.Event {
	case paystack.EventChargeSuccess, paystack.EventChargeFailed:
	default:
		zap.L().Debug("webhook event ignored", zap.String("event", ev.Event))
		return Ignored
	}

	key := "webhook:v1:" + ev.Event + ":" + ev.Data.Reference

	first, err := p.dedupe.Claim(ctx, key)
	if err != nil {
		// The ledger's conditional transition still makes a replay harmless.
		zap.L().Warn("webhook dedupe unavailable", zap.Error(err))
		first = true
	}

	if !first {
		return Duplicate
	}

	select {
	case p.queue <- job{event: ev.Event, reference: ev.Data.Reference, key: key}:
		metrics.WebhookQueueDepth.Inc()
		return Queued
	default:
		zap.L().Error("webhook queue full; event dropped",
			zap.String("reference", ev.Data.Reference))
		p.release(key)
		return Dropped
	}
}

// Run starts the workers and blocks until ctx is cancelled and every worker
// has finished its current event. Events still queued at that point are
// left to gateway retries and the stale sweep.
func (p *Processor) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for i := range p.workers {
		g.Go(func() error {
			p.work(gctx, i)
			return nil
		})
	}

	return g.Wait()
}

func (p *Processor) work(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-p.queue:
			metrics.WebhookQueueDepth.Dec()
			p.process(ctx, id, j)
		}
	}
}

func (p *Processor) process(ctx context.Context, worker int, j job) {
	// Reconciliation finishes even if shutdown starts mid-event.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reconcileTimeout)
	defer cancel()

	log := zap.L().With(
		zap.Int("worker", worker),
		zap.String("event", j.event),
		zap.String("reference", j.reference))

	res, err := p.rec.Reconcile(rctx, j.reference)
	if err != nil {
		if transient(err) {
			// Let the gateway's own retry through next time.
			p.release(j.key)
		}

		log.Error("webhook reconciliation failed", zap.Error(err))
		return
	}

	log.Info("webhook reconciled",
		zap.String("outcome", string(res.Outcome)),
		zap.String("status", string(res.Transaction.Status)))
}

// transient reports whether a redelivery of the same event could succeed.
// Validation, missing references and ledger invariant failures give the same
// answer every time, so their claim is kept.
func transient(err error) bool {
	switch {
	case errors.Is(err, ledger.ErrInvariantViolation),
		errors.Is(err, ledger.ErrNotFound),
		errors.Is(err, ledger.ErrValidation):
		return false
	default:
		return true
	}
}

func (p *Processor) release(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := p.dedupe.Release(ctx, key)
	if err != nil {
		zap.L().Warn("webhook dedupe release", zap.String("key", key), zap.Error(err))
	}
}
