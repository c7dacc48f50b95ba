package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/fastprodman/walletledger/internal/ledger"
	"github.com/fastprodman/walletledger/internal/metrics"
	"go.uber.org/zap"
)

type SweepReport struct {
	Checked      int
	Settled      int
	Failed       int
	Refunded     int
	StillPending []ledger.Transaction
	// AwaitingReview lists stale withdrawals. They are reported, never
	// verified.
	AwaitingReview []ledger.Transaction
	Errors         map[string]string
}

// Stale lists gateway-backed transactions PENDING for longer than olderThan.
func (s *Service) Stale(ctx context.Context, olderThan time.Duration, limit int) ([]ledger.Transaction, error) {
	stale, err := s.ledger.Transactions().ListStalePending(ctx, s.db, time.Now().Add(-olderThan), limit)
	if err != nil {
		return nil, err
	}

	metrics.StalePending.Set(float64(len(stale)))

	return stale, nil
}

// AwaitingReview lists withdrawals PENDING for longer than olderThan. They
// wait on an admin decision rather than on the gateway.
func (s *Service) AwaitingReview(ctx context.Context, olderThan time.Duration, limit int) ([]ledger.Transaction, error) {
	return s.ledger.Transactions().ListAwaitingReview(ctx, s.db, time.Now().Add(-olderThan), limit)
}

// Sweep re-verifies every stale transaction. Nothing is failed without an
// authoritative gateway answer; unreachable gateways leave rows PENDING.
func (s *Service) Sweep(ctx context.Context, olderThan time.Duration, limit int) (SweepReport, error) {
	stale, err := s.Stale(ctx, olderThan, limit)
	if err != nil {
		return SweepReport{}, fmt.Errorf("list stale: %w", err)
	}

	report := SweepReport{Errors: make(map[string]string)}

	for _, t := range stale {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		report.Checked++

		res, err := s.Reconcile(ctx, t.Reference)
		if err != nil {
			report.Errors[t.Reference] = err.Error()
			report.StillPending = append(report.StillPending, t)
			continue
		}

		switch {
		case res.Outcome == OutcomeRefunded:
			report.Refunded++
		case res.Transaction.Status == ledger.StatusCompleted:
			report.Settled++
		case res.Transaction.Status == ledger.StatusFailed, res.Transaction.Status == ledger.StatusCancelled:
			report.Failed++
		default:
			report.StillPending = append(report.StillPending, res.Transaction)
		}
	}

	report.AwaitingReview, err = s.AwaitingReview(ctx, olderThan, limit)
	if err != nil {
		return report, fmt.Errorf("list awaiting review: %w", err)
	}

	zap.L().Info("stale sweep finished",
		zap.Int("checked", report.Checked),
		zap.Int("settled", report.Settled),
		zap.Int("failed", report.Failed),
		zap.Int("refunded", report.Refunded),
		zap.Int("awaiting_review", len(report.AwaitingReview)),
		zap.Int("still_pending", len(report.StillPending)))

	return report, nil
}
