package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fastprodman/walletledger/internal/infra/pgutils"
	"github.com/fastprodman/walletledger/internal/ledger"
	"github.com/fastprodman/walletledger/internal/metrics"
	"github.com/fastprodman/walletledger/internal/services/payout"
	"go.uber.org/zap"
)

type ReviewRequest struct {
	AdminID       string
	TransactionID string
	Status        ledger.Status // COMPLETED, FAILED or CANCELLED
	Reason        string
}

// Review is the admin override for a PENDING transaction. It goes through
// the same conditional transition as reconciliation, so it cannot double
// apply against a concurrent gateway verification.
func (s *Service) Review(ctx context.Context, req ReviewRequest) (ledger.Transaction, error) {
	switch req.Status {
	case ledger.StatusCompleted, ledger.StatusFailed, ledger.StatusCancelled:
	default:
		return ledger.Transaction{}, fmt.Errorf("%w: cannot set status %q", ledger.ErrValidation, req.Status)
	}

	if req.Status != ledger.StatusCompleted && req.Reason == "" {
		return ledger.Transaction{}, fmt.Errorf("%w: reason required to reject", ledger.ErrValidation)
	}

	patch := ledger.Metadata{
		"reviewedBy": req.AdminID,
		"reviewedAt": time.Now().UTC(),
	}
	if req.Reason != "" {
		patch["reviewReason"] = req.Reason
	}

	var reviewed ledger.Transaction

	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		t, err := s.ledger.Transition(ctx, tx, req.TransactionID,
			[]ledger.Status{ledger.StatusPending}, req.Status, patch)
		if err != nil {
			return err
		}

		if req.Status == ledger.StatusCompleted {
			err = s.payouts.Settle(ctx, tx, t)
			if err != nil {
				return err
			}
		}

		reviewed = t
		return nil
	})
	if errors.Is(err, payout.ErrSoldOut) {
		return s.refundReviewed(ctx, req, patch, err)
	}
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("review %s: %w", req.TransactionID, err)
	}

	metrics.LedgerTransitions.WithLabelValues(string(reviewed.Type), string(reviewed.Status)).Inc()

	zap.L().Info("transaction reviewed",
		zap.String("reference", reviewed.Reference),
		zap.String("admin", req.AdminID),
		zap.String("status", string(reviewed.Status)))

	s.publish(ctx, reviewed)

	return reviewed, nil
}

// refundReviewed handles an admin approval of a purchase whose item has
// since been sold to another buyer: the approval rolled back, so the
// purchase is failed and the buyer's money credited to the wallet instead.
func (s *Service) refundReviewed(ctx context.Context, req ReviewRequest, patch ledger.Metadata, cause error) (ledger.Transaction, error) {
	var failed, credit ledger.Transaction

	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		failed, credit, err = s.ledger.Refund(ctx, tx, req.TransactionID, cause.Error(), patch)
		return err
	})
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("review %s: %w", req.TransactionID, err)
	}

	metrics.LedgerTransitions.WithLabelValues(string(failed.Type), string(failed.Status)).Inc()
	metrics.LedgerTransitions.WithLabelValues(string(credit.Type), string(credit.Status)).Inc()

	zap.L().Warn("approved purchase refunded; item sold to another buyer",
		zap.String("reference", failed.Reference),
		zap.String("refund_reference", credit.Reference),
		zap.String("admin", req.AdminID))

	s.publish(ctx, failed, credit)

	return failed, nil
}

// RemoveForUser deletes a departed user's wallet. Refused while anything is
// still PENDING.
func (s *Service) RemoveForUser(ctx context.Context, userID string) error {
	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return s.ledger.Wallets().DeleteByUser(ctx, tx, userID)
	})
	if err != nil {
		return fmt.Errorf("remove wallet of %s: %w", userID, err)
	}

	zap.L().Info("wallet removed", zap.String("user_id", userID))

	return nil
}
