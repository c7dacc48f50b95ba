package wallet

import (
	"context"
	"fmt"

	"github.com/fastprodman/walletledger/internal/ledger"
)

type Page struct {
	Items  []ledger.Transaction
	Total  int
	Limit  int
	Offset int
}

// Transactions lists the caller's own history.
func (s *Service) Transactions(ctx context.Context, userID string, f ledger.Filter) (Page, error) {
	f.UserID = userID
	return s.list(ctx, f)
}

// AllTransactions is the admin cross-user listing.
func (s *Service) AllTransactions(ctx context.Context, f ledger.Filter) (Page, error) {
	return s.list(ctx, f)
}

func (s *Service) list(ctx context.Context, f ledger.Filter) (Page, error) {
	if f.Type != "" && !f.Type.Valid() {
		return Page{}, fmt.Errorf("%w: unknown type %q", ledger.ErrValidation, f.Type)
	}
	if f.Status != "" && !f.Status.Valid() {
		return Page{}, fmt.Errorf("%w: unknown status %q", ledger.ErrValidation, f.Status)
	}
	if !f.From.IsZero() && !f.To.IsZero() && !f.From.Before(f.To) {
		return Page{}, fmt.Errorf("%w: from must be before to", ledger.ErrValidation)
	}

	items, total, err := s.ledger.Transactions().List(ctx, s.db, f)
	if err != nil {
		return Page{}, err
	}

	return Page{Items: items, Total: total, Limit: f.PageSize(), Offset: max(f.Offset, 0)}, nil
}

// Transaction returns one of the caller's transactions. Other users'
// transactions are reported as not found.
func (s *Service) Transaction(ctx context.Context, userID, id string) (ledger.Transaction, error) {
	t, err := s.ledger.Transactions().GetByID(ctx, s.db, id)
	if err != nil {
		return ledger.Transaction{}, err
	}

	if t.UserID != userID {
		return ledger.Transaction{}, fmt.Errorf("transaction %s: %w", id, ledger.ErrNotFound)
	}

	return t, nil
}

// TransactionByReference is Transaction keyed by the external reference.
func (s *Service) TransactionByReference(ctx context.Context, userID, reference string) (ledger.Transaction, error) {
	t, err := s.ledger.Transactions().GetByReference(ctx, s.db, reference)
	if err != nil {
		return ledger.Transaction{}, err
	}

	if t.UserID != userID {
		return ledger.Transaction{}, fmt.Errorf("reference %s: %w", reference, ledger.ErrNotFound)
	}

	return t, nil
}
