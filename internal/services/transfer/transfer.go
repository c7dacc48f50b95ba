// Package transfer moves funds between two wallets without the gateway.
package transfer

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/fastprodman/walletledger/internal/events"
	"github.com/fastprodman/walletledger/internal/infra/pgutils"
	"github.com/fastprodman/walletledger/internal/ledger"
	"github.com/fastprodman/walletledger/internal/metrics"
	"github.com/fastprodman/walletledger/internal/services/txledger"
	"go.uber.org/zap"
)

type Request struct {
	SenderID    string
	RecipientID string
	Amount      int64
	Note        string
}

type Result struct {
	Reference string
	Sender    ledger.Transaction
	Recipient ledger.Transaction
}

type Coordinator struct {
	db     *sql.DB
	ledger *txledger.Ledger
	events events.Publisher
}

func New(db *sql.DB, l *txledger.Ledger, pub events.Publisher) *Coordinator {
	return &Coordinator{db: db, ledger: l, events: pub}
}

type leg struct {
	wallet ledger.Wallet
	draft  ledger.Draft
	out    *ledger.Transaction
}

// Transfer debits the sender and credits the recipient in one atomic unit
// and writes two COMPLETED records sharing a reference. Wallet rows are
// updated in id order so opposite transfers between the same pair cannot
// deadlock; a deadlock or serialization abort reruns the whole unit.
func (c *Coordinator) Transfer(ctx context.Context, req Request) (Result, error) {
	switch {
	case req.SenderID == "" || req.RecipientID == "":
		return Result{}, fmt.Errorf("%w: sender and recipient required", ledger.ErrValidation)
	case req.SenderID == req.RecipientID:
		return Result{}, fmt.Errorf("%w: cannot transfer to yourself", ledger.ErrValidation)
	case req.Amount <= 0:
		return Result{}, fmt.Errorf("%w: amount must be > 0", ledger.ErrValidation)
	}

	ref := ledger.NewReference(ledger.PrefixTransfer)
	note := strings.TrimSpace(req.Note)
	res := Result{Reference: ref}

	err := pgutils.WithRetryTx(ctx, c.db, func(tx *sql.Tx) error {
		sw, err := c.ledger.Wallets().FindOrCreate(ctx, tx, req.SenderID)
		if err != nil {
			return err
		}

		rw, err := c.ledger.Wallets().FindOrCreate(ctx, tx, req.RecipientID)
		if err != nil {
			return err
		}

		legs := []leg{
			{
				wallet: sw,
				out:    &res.Sender,
				draft: ledger.Draft{
					Type:        ledger.TypeTransfer,
					Direction:   ledger.DirectionDebit,
					Status:      ledger.StatusCompleted,
					Amount:      req.Amount,
					Reference:   ref,
					Description: describe(note, "Transfer to "+req.RecipientID),
					RecipientID: req.RecipientID,
					Metadata:    ledger.Metadata{"counterpartWalletId": rw.ID},
				},
			},
			{
				wallet: rw,
				out:    &res.Recipient,
				draft: ledger.Draft{
					Type:        ledger.TypeTransfer,
					Direction:   ledger.DirectionCredit,
					Status:      ledger.StatusCompleted,
					Amount:      req.Amount,
					Reference:   ref,
					Description: describe(note, "Transfer from "+req.SenderID),
					SenderID:    req.SenderID,
					Metadata:    ledger.Metadata{"counterpartWalletId": sw.ID},
				},
			},
		}

		if rw.ID < sw.ID {
			legs[0], legs[1] = legs[1], legs[0]
		}

		for _, l := range legs {
			t, _, err := c.ledger.Append(ctx, tx, l.wallet, l.draft)
			if err != nil {
				return err
			}
			*l.out = t
		}

		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("transfer %s: %w", ref, err)
	}

	metrics.LedgerTransitions.WithLabelValues(string(ledger.TypeTransfer), string(ledger.StatusCompleted)).Inc()

	zap.L().Info("transfer completed",
		zap.String("reference", ref),
		zap.String("sender", req.SenderID),
		zap.String("recipient", req.RecipientID),
		zap.Int64("amount", req.Amount))

	err = c.events.Publish(ctx, events.FromTransaction(res.Sender), events.FromTransaction(res.Recipient))
	if err != nil {
		zap.L().Error("publish transfer events", zap.String("reference", ref), zap.Error(err))
	}

	return res, nil
}

func describe(note, def string) string {
	if note == "" {
		return def
	}
	return note
}
