// Package events publishes settlement notifications after the atomic unit
// that produced them has committed.
package events

import (
	"context"
	"time"

	"github.com/fastprodman/walletledger/internal/ledger"
)

const (
	KindTransactionCompleted = "transaction.completed"
	KindTransactionFailed    = "transaction.failed"
	KindTransactionCreated   = "transaction.created"
	KindTransferCompleted    = "transfer.completed"
)

type Event struct {
	Kind          string           `json:"kind"`
	Reference     string           `json:"reference"`
	TransactionID string           `json:"transactionId"`
	WalletID      string           `json:"walletId"`
	UserID        string           `json:"userId"`
	Type          ledger.Type      `json:"type"`
	Direction     ledger.Direction `json:"direction"`
	Status        ledger.Status    `json:"status"`
	Amount        int64            `json:"amount"`
	OccurredAt    time.Time        `json:"occurredAt"`
}

// Publisher failures are logged by callers and never undo a committed change.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
	Close() error
}

// FromTransaction picks the event kind from t's status.
func FromTransaction(t ledger.Transaction) Event {
	kind := KindTransactionCreated
	switch {
	case t.Type == ledger.TypeTransfer && t.Status == ledger.StatusCompleted:
		kind = KindTransferCompleted
	case t.Status == ledger.StatusCompleted:
		kind = KindTransactionCompleted
	case t.Status == ledger.StatusFailed || t.Status == ledger.StatusCancelled:
		kind = KindTransactionFailed
	}

	return Event{
		Kind:          kind,
		Reference:     t.Reference,
		TransactionID: t.ID,
		WalletID:      t.WalletID,
		UserID:        t.UserID,
		Type:          t.Type,
		Direction:     t.Direction,
		Status:        t.Status,
		Amount:        t.Amount,
		OccurredAt:    time.Now().UTC(),
	}
}

type nop struct{}

// Nop discards everything; used when no brokers are configured.
func Nop() Publisher { return nop{} }

func (nop) Publish(context.Context, ...Event) error { return nil }
func (nop) Close() error                            { return nil }

// Recorder keeps events in memory.
type Recorder struct {
	ch chan Event
}

func NewRecorder(size int) *Recorder {
	return &Recorder{ch: make(chan Event, size)}
}

func (r *Recorder) Publish(_ context.Context, evs ...Event) error {
	for _, ev := range evs {
		select {
		case r.ch <- ev:
		default:
		}
	}
	return nil
}

func (r *Recorder) Close() error { return nil }

// Drain returns everything published so far.
func (r *Recorder) Drain() []Event {
	var out []Event
	for {
		select {
		case ev := <-r.ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}
