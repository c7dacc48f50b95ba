// Package wallet is the user- and admin-facing facade over the ledger:
// balances, history, funding, withdrawals, purchases and admin review.
package wallet

import (
	"context"
	"database/sql"

	"github.com/fastprodman/walletledger/internal/events"
	"github.com/fastprodman/walletledger/internal/gateway"
	"github.com/fastprodman/walletledger/internal/ledger"
	"github.com/fastprodman/walletledger/internal/services/payout"
	"github.com/fastprodman/walletledger/internal/services/txledger"
	"go.uber.org/zap"
)

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

type Summary struct {
	Wallet       ledger.Wallet
	PendingCount int
}

// Get returns the caller's wallet, creating it on first access.
func (s *Service) Get(ctx context.Context, userID string) (Summary, error) {
	w, err := s.ledger.Wallets().FindOrCreate(ctx, s.db, userID)
	if err != nil {
		return Summary{}, err
	}

	n, err := s.ledger.Transactions().CountPending(ctx, s.db, w.ID)
	if err != nil {
		return Summary{}, err
	}

	return Summary{Wallet: w, PendingCount: n}, nil
}

func (s *Service) publish(ctx context.Context, txns ...ledger.Transaction) {
	evs := make([]events.Event, 0, len(txns))
	for _, t := range txns {
		evs = append(evs, events.FromTransaction(t))
	}

	err := s.events.Publish(ctx, evs...)
	if err != nil {
		zap.L().Error("publish wallet events", zap.Int("count", len(evs)), zap.Error(err))
	}
}
