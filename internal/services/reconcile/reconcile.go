// Package reconcile converges local transaction and wallet state with what
// the payment gateway reports, exactly once per terminal outcome.
package reconcile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fastprodman/walletledger/internal/events"
	"github.com/fastprodman/walletledger/internal/gateway"
	"github.com/fastprodman/walletledger/internal/infra/pgutils"
	"github.com/fastprodman/walletledger/internal/ledger"
	"github.com/fastprodman/walletledger/internal/metrics"
	"github.com/fastprodman/walletledger/internal/services/payout"
	"github.com/fastprodman/walletledger/internal/services/txledger"
	"go.uber.org/zap"
)

type Outcome string

const (
	// OutcomeSettled: this call moved the transaction PENDING -> COMPLETED.
	OutcomeSettled Outcome = "settled"
	// OutcomeCorrected: FAILED -> PENDING -> COMPLETED after the gateway
	// reported success for a session that had been marked failed.
	OutcomeCorrected Outcome = "corrected"
	// OutcomeFailed: this call moved the transaction PENDING -> FAILED.
	OutcomeFailed Outcome = "failed"
	// OutcomeRefunded: the gateway collected the money but the item had
	// already been sold to someone else, so the purchase failed and the
	// amount was credited to the buyer's wallet.
	OutcomeRefunded Outcome = "refunded"
	// OutcomeStillPending: the gateway has no final answer yet.
	OutcomeStillPending Outcome = "pending"
	// OutcomeAlreadyProcessed: someone else applied the outcome first.
	OutcomeAlreadyProcessed Outcome = "already_processed"
)

type Result struct {
	Transaction ledger.Transaction
	Outcome     Outcome
}

// Applied reports whether this call changed any state.
func (r Result) Applied() bool {
	switch r.Outcome {
	case OutcomeSettled, OutcomeCorrected, OutcomeFailed, OutcomeRefunded:
		return true
	default:
		return false
	}
}

// failedByGateway marks rows this package failed on a gateway answer. Only
// those may be reopened when a later verification reports success; rows an
// admin rejected stay FAILED.
const failedByGateway = "gateway"

type Service struct {
	db      *sql.DB
	ledger  *txledger.Ledger
	gw      gateway.Gateway
	payouts *payout.Registry
	events  events.Publisher
}

func New(db *sql.DB, l *txledger.Ledger, gw gateway.Gateway, payouts *payout.Registry, pub events.Publisher) *Service {
	return &Service{db: db, ledger: l, gw: gw, payouts: payouts, events: pub}
}

// Reconcile asks the gateway about reference and applies the answer. The
// gateway is consulted before the atomic unit opens so no row lock is held
// across network I/O. Losing a race to a concurrent caller is not an error:
// the result carries OutcomeAlreadyProcessed and the settled transaction.
func (s *Service) Reconcile(ctx context.Context, reference string) (Result, error) {
	txn, err := s.ledger.Transactions().GetByReference(ctx, s.db, reference)
	if err != nil {
		return Result{}, err
	}

	if txn.Status == ledger.StatusCompleted {
		s.observe(txn, OutcomeAlreadyProcessed)
		return Result{Transaction: txn, Outcome: OutcomeAlreadyProcessed}, nil
	}

	if !txn.Type.GatewayBacked() {
		return Result{}, fmt.Errorf("%w: %s transactions are not settled by the gateway", ledger.ErrValidation, txn.Type)
	}

	res, err := s.gw.Verify(ctx, reference)
	switch {
	case errors.Is(err, gateway.ErrGatewayRejected):
		res = gateway.Result{Status: gateway.StatusFailed, Reference: reference, Message: err.Error()}
	case err != nil:
		s.observe(txn, "gateway_unavailable")
		zap.L().Warn("verify failed; transaction stays pending",
			zap.String("reference", reference),
			zap.Error(err))

		return Result{Transaction: txn, Outcome: OutcomeStillPending}, fmt.Errorf("verify %s: %w", reference, err)
	}

	switch res.Status {
	case gateway.StatusSuccess:
		if res.Amount != txn.Amount {
			s.observe(txn, "amount_mismatch")
			zap.L().Error("gateway amount differs from ledger amount",
				zap.String("reference", reference),
				zap.Int64("ledger_amount", txn.Amount),
				zap.Int64("gateway_amount", res.Amount))

			return Result{Transaction: txn, Outcome: OutcomeStillPending},
				fmt.Errorf("%w: %s paid %d, expected %d", ledger.ErrInvariantViolation, reference, res.Amount, txn.Amount)
		}

		return s.complete(ctx, txn, res)

	case gateway.StatusFailed:
		return s.fail(ctx, txn, res)

	default:
		s.observe(txn, OutcomeStillPending)
		return Result{Transaction: txn, Outcome: OutcomeStillPending}, nil
	}
}

func (s *Service) complete(ctx context.Context, txn ledger.Transaction, res gateway.Result) (Result, error) {
	if txn.Status == ledger.StatusFailed && txn.Metadata.String("failedBy") != failedByGateway {
		s.observe(txn, OutcomeAlreadyProcessed)
		zap.L().Error("gateway reported success for a transaction not failed by verification; leaving it failed",
			zap.String("reference", txn.Reference),
			zap.String("failed_by", txn.Metadata.String("failedBy")),
			zap.String("reviewed_by", txn.Metadata.String("reviewedBy")))

		return Result{Transaction: txn, Outcome: OutcomeAlreadyProcessed}, nil
	}

	var (
		settled ledger.Transaction
		outcome Outcome
	)

	err := pgutils.WithRetryTx(ctx, s.db, func(tx *sql.Tx) error {
		outcome = OutcomeSettled

		if txn.Status == ledger.StatusFailed {
			err := s.reopen(ctx, tx, txn)
			if err != nil {
				return err
			}

			outcome = OutcomeCorrected
		}

		t, err := s.ledger.Transition(ctx, tx, txn.ID,
			[]ledger.Status{ledger.StatusPending}, ledger.StatusCompleted, snapshot(res))
		if err != nil {
			return err
		}

		err = s.payouts.Settle(ctx, tx, t)
		if err != nil {
			return err
		}

		settled = t
		return nil
	})
	if errors.Is(err, payout.ErrSoldOut) {
		return s.refund(ctx, txn, res, err)
	}
	if err != nil {
		return s.lostRace(ctx, txn, err)
	}

	s.after(ctx, settled, outcome)

	return Result{Transaction: settled, Outcome: outcome}, nil
}

// refund runs after the settling unit rolled back on ErrSoldOut. The purchase
// fails and its amount is credited to the buyer in one new unit.
func (s *Service) refund(ctx context.Context, txn ledger.Transaction, res gateway.Result, cause error) (Result, error) {
	var failed, credit ledger.Transaction

	err := pgutils.WithRetryTx(ctx, s.db, func(tx *sql.Tx) error {
		if txn.Status == ledger.StatusFailed {
			err := s.reopen(ctx, tx, txn)
			if err != nil {
				return err
			}
		}

		var err error
		failed, credit, err = s.ledger.Refund(ctx, tx, txn.ID, cause.Error(), snapshot(res))
		return err
	})
	if err != nil {
		return s.lostRace(ctx, txn, err)
	}

	zap.L().Warn("paid item already sold; purchase refunded to wallet",
		zap.String("reference", failed.Reference),
		zap.String("refund_reference", credit.Reference),
		zap.Int64("amount", credit.Amount))

	metrics.LedgerTransitions.WithLabelValues(string(credit.Type), string(credit.Status)).Inc()
	s.after(ctx, failed, OutcomeRefunded)

	err = s.events.Publish(ctx, events.FromTransaction(credit))
	if err != nil {
		zap.L().Error("publish refund event", zap.String("reference", credit.Reference), zap.Error(err))
	}

	return Result{Transaction: failed, Outcome: OutcomeRefunded}, nil
}

func (s *Service) reopen(ctx context.Context, tx *sql.Tx, txn ledger.Transaction) error {
	_, err := s.ledger.Transition(ctx, tx, txn.ID,
		[]ledger.Status{ledger.StatusFailed}, ledger.StatusPending,
		ledger.Metadata{"reopenedAt": time.Now().UTC(), "reopenReason": "gateway reported success after failure"})

	return err
}

func (s *Service) fail(ctx context.Context, txn ledger.Transaction, res gateway.Result) (Result, error) {
	if txn.Status != ledger.StatusPending {
		s.observe(txn, OutcomeAlreadyProcessed)
		return Result{Transaction: txn, Outcome: OutcomeAlreadyProcessed}, nil
	}

	var failed ledger.Transaction

	patch := snapshot(res)
	patch["failedBy"] = failedByGateway

	err := pgutils.WithRetryTx(ctx, s.db, func(tx *sql.Tx) error {
		t, err := s.ledger.Transition(ctx, tx, txn.ID,
			[]ledger.Status{ledger.StatusPending}, ledger.StatusFailed, patch)
		if err != nil {
			return err
		}

		failed = t
		return nil
	})
	if err != nil {
		return s.lostRace(ctx, txn, err)
	}

	s.after(ctx, failed, OutcomeFailed)

	return Result{Transaction: failed, Outcome: OutcomeFailed}, nil
}

// lostRace turns ErrAlreadyProcessed into a successful result holding the
// current state of the transaction; every other error passes through.
func (s *Service) lostRace(ctx context.Context, txn ledger.Transaction, err error) (Result, error) {
	if !errors.Is(err, ledger.ErrAlreadyProcessed) {
		s.observe(txn, "error")
		return Result{}, fmt.Errorf("reconcile %s: %w", txn.Reference, err)
	}

	current, gerr := s.ledger.Transactions().GetByID(ctx, s.db, txn.ID)
	if gerr != nil {
		return Result{}, gerr
	}

	if current.Status == ledger.StatusCancelled {
		zap.L().Warn("gateway outcome arrived for a cancelled transaction",
			zap.String("reference", txn.Reference))
	}

	s.observe(current, OutcomeAlreadyProcessed)

	return Result{Transaction: current, Outcome: OutcomeAlreadyProcessed}, nil
}

func (s *Service) after(ctx context.Context, t ledger.Transaction, outcome Outcome) {
	s.observe(t, outcome)
	metrics.LedgerTransitions.WithLabelValues(string(t.Type), string(t.Status)).Inc()

	zap.L().Info("transaction reconciled",
		zap.String("reference", t.Reference),
		zap.String("type", string(t.Type)),
		zap.String("status", string(t.Status)),
		zap.String("outcome", string(outcome)))

	err := s.events.Publish(ctx, events.FromTransaction(t))
	if err != nil {
		zap.L().Error("publish settlement event", zap.String("reference", t.Reference), zap.Error(err))
	}
}

func (s *Service) observe(t ledger.Transaction, outcome Outcome) {
	metrics.Reconciliations.WithLabelValues(string(t.Type), string(outcome)).Inc()
}

func snapshot(res gateway.Result) ledger.Metadata {
	m := ledger.Metadata{
		"gatewayStatus":  res.GatewayStatus,
		"gatewayMessage": res.Message,
		"verifiedAt":     time.Now().UTC(),
	}

	if res.Currency != "" {
		m["gatewayCurrency"] = res.Currency
	}
	if !res.TransactionDate.IsZero() {
		m["gatewayTransactionDate"] = res.TransactionDate
	}
	if len(res.Raw) > 0 {
		m["gatewayResponse"] = res.Raw
	}

	return m
}
