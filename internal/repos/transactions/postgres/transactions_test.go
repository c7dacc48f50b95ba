package transactions

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/fastprodman/walletledger/internal/infra/pgtestutil"
	"github.com/fastprodman/walletledger/internal/infra/pgutils"
	"github.com/fastprodman/walletledger/internal/ledger"
)

func insert(t *testing.T, db *sql.DB, walletID, userID string, d ledger.Draft) (ledger.Transaction, error) {
	t.Helper()

	var out ledger.Transaction

	err := pgutils.WithTx(context.Background(), db, func(tx *sql.Tx) error {
		var err error
		out, err = New().Insert(context.Background(), tx, walletID, userID, d)
		return err
	})

	return out, err
}

func TestTransactions_Insert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		seed    func(t *testing.T, db *sql.DB, walletID string)
		draft   ledger.Draft
		wantErr error
	}{
		{
			name: "ok_insert",
			draft: ledger.Draft{
				Type: ledger.TypeDeposit, Direction: ledger.DirectionCredit,
				Amount: 1000, Reference: "fund_ok",
				Metadata: ledger.Metadata{"checkoutUrl": "https://checkout/x"},
			},
		},
		{
			name: "duplicate_reference",
			seed: func(t *testing.T, db *sql.DB, walletID string) {
				_, err := insert(t, db, walletID, "u", ledger.Draft{
					Type: ledger.TypeDeposit, Direction: ledger.DirectionCredit,
					Amount: 1, Reference: "fund_dup",
				})
				if err != nil {
					t.Fatalf("seed tx: %v", err)
				}
			},
			draft: ledger.Draft{
				Type: ledger.TypePayment, Direction: ledger.DirectionExternal,
				Amount: 5, Reference: "fund_dup",
			},
			wantErr: ledger.ErrDuplicateReference,
		},
		{
			name: "transfer_legs_share_reference",
			seed: func(t *testing.T, db *sql.DB, walletID string) {
				other := pgtestutil.SeedWallet(t, db, "other", 0, 0)
				_, err := insert(t, db, other, "other", ledger.Draft{
					Type: ledger.TypeTransfer, Direction: ledger.DirectionDebit,
					Status: ledger.StatusCompleted, Amount: 1, Reference: "trf_shared",
				})
				if err != nil {
					t.Fatalf("seed tx: %v", err)
				}
			},
			draft: ledger.Draft{
				Type: ledger.TypeTransfer, Direction: ledger.DirectionCredit,
				Status: ledger.StatusCompleted, Amount: 1, Reference: "trf_shared",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, cleanup := pgtestutil.NewTestDB(t)
			defer cleanup()

			walletID := pgtestutil.SeedWallet(t, db, "u", 0, 0)
			if tt.seed != nil {
				tt.seed(t, db, walletID)
			}

			got, err := insert(t, db, walletID, "u", tt.draft)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("unexpected error: got %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got.Reference != tt.draft.Reference || got.Amount != tt.draft.Amount {
				t.Fatalf("stored %+v from draft %+v", got, tt.draft)
			}
			wantStatus := tt.draft.Status
			if wantStatus == "" {
				wantStatus = ledger.StatusPending
			}
			if got.Status != wantStatus {
				t.Fatalf("status: got %s, want %s", got.Status, wantStatus)
			}
			if (got.SettledAt != nil) != wantStatus.Terminal() {
				t.Fatalf("settled_at %v for status %s", got.SettledAt, got.Status)
			}
		})
	}
}

func TestTransactions_Transition(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New()
	ctx := context.Background()
	walletID := pgtestutil.SeedWallet(t, db, "u", 0, 0)

	created, err := insert(t, db, walletID, "u", ledger.Draft{
		Type: ledger.TypeDeposit, Direction: ledger.DirectionCredit,
		Amount: 1000, Reference: "fund_abc",
		Metadata: ledger.Metadata{"accessCode": "ac_1"},
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	var prev ledger.Status
	var moved ledger.Transaction

	err = pgutils.WithTx(ctx, db, func(tx *sql.Tx) error {
		prev, moved, err = repo.Transition(ctx, tx, created.ID,
			[]ledger.Status{ledger.StatusPending}, ledger.StatusCompleted,
			ledger.Metadata{"gatewayStatus": "success"})
		return err
	})
	if err != nil {
		t.Fatalf("first transition: %v", err)
	}
	if prev != ledger.StatusPending || moved.Status != ledger.StatusCompleted {
		t.Fatalf("prev %s, now %s", prev, moved.Status)
	}
	if moved.Metadata.String("accessCode") != "ac_1" || moved.Metadata.String("gatewayStatus") != "success" {
		t.Fatalf("metadata not merged: %v", moved.Metadata)
	}
	if moved.SettledAt == nil {
		t.Fatalf("settled_at not set")
	}

	err = pgutils.WithTx(ctx, db, func(tx *sql.Tx) error {
		prev, _, err = repo.Transition(ctx, tx, created.ID,
			[]ledger.Status{ledger.StatusPending}, ledger.StatusCompleted, nil)
		return err
	})
	if !errors.Is(err, ledger.ErrAlreadyProcessed) {
		t.Fatalf("second transition: got %v, want %v", err, ledger.ErrAlreadyProcessed)
	}
	if prev != ledger.StatusCompleted {
		t.Fatalf("second transition saw %s", prev)
	}

	err = pgutils.WithTx(ctx, db, func(tx *sql.Tx) error {
		_, _, err = repo.Transition(ctx, tx, "00000000-0000-0000-0000-000000000000",
			[]ledger.Status{ledger.StatusPending}, ledger.StatusFailed, nil)
		return err
	})
	if !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("unknown id: got %v, want %v", err, ledger.ErrNotFound)
	}
}

func TestTransactions_ListAndLookups(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New()
	ctx := context.Background()
	a := pgtestutil.SeedWallet(t, db, "alice", 0, 0)
	b := pgtestutil.SeedWallet(t, db, "bob", 0, 0)

	drafts := []struct {
		wallet, user string
		d            ledger.Draft
	}{
		{a, "alice", ledger.Draft{Type: ledger.TypeDeposit, Direction: ledger.DirectionCredit, Amount: 100, Reference: "fund_1"}},
		{a, "alice", ledger.Draft{Type: ledger.TypeWithdrawal, Direction: ledger.DirectionDebit, Amount: 50, Reference: "wd_1"}},
		{a, "alice", ledger.Draft{Type: ledger.TypeTransfer, Direction: ledger.DirectionDebit, Status: ledger.StatusCompleted, Amount: 10, Reference: "trf_1"}},
		{b, "bob", ledger.Draft{Type: ledger.TypeTransfer, Direction: ledger.DirectionCredit, Status: ledger.StatusCompleted, Amount: 10, Reference: "trf_1"}},
	}
	for _, d := range drafts {
		_, err := insert(t, db, d.wallet, d.user, d.d)
		if err != nil {
			t.Fatalf("insert %s: %v", d.d.Reference, err)
		}
	}

	list, total, err := repo.List(ctx, db, ledger.Filter{UserID: "alice"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || len(list) != 3 {
		t.Fatalf("alice: total %d, page %d", total, len(list))
	}

	list, total, err = repo.List(ctx, db, ledger.Filter{Status: ledger.StatusPending, Limit: 1})
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if total != 2 || len(list) != 1 {
		t.Fatalf("pending: total %d, page %d", total, len(list))
	}

	list, _, err = repo.List(ctx, db, ledger.Filter{Type: ledger.TypeTransfer, From: time.Now().Add(-time.Hour)})
	if err != nil {
		t.Fatalf("list transfers: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("transfers: got %d", len(list))
	}

	legs, err := repo.ListByReference(ctx, db, "trf_1")
	if err != nil {
		t.Fatalf("legs: %v", err)
	}
	if len(legs) != 2 || legs[0].Direction != ledger.DirectionDebit {
		t.Fatalf("legs: %+v", legs)
	}

	_, err = repo.GetByReference(ctx, db, "trf_1")
	if !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("transfer by reference: got %v, want %v", err, ledger.ErrNotFound)
	}

	got, err := repo.GetByReference(ctx, db, "fund_1")
	if err != nil || got.Amount != 100 {
		t.Fatalf("fund_1: %+v, %v", got, err)
	}

	n, err := repo.CountPending(ctx, db, a)
	if err != nil || n != 2 {
		t.Fatalf("count pending: %d, %v", n, err)
	}

	stale, err := repo.ListStalePending(ctx, db, time.Now().Add(time.Minute), 10)
	if err != nil {
		t.Fatalf("stale: %v", err)
	}
	if len(stale) != 1 || stale[0].Reference != "fund_1" {
		t.Fatalf("stale should hold only the gateway-backed deposit: %+v", stale)
	}

	review, err := repo.ListAwaitingReview(ctx, db, time.Now().Add(time.Minute), 10)
	if err != nil {
		t.Fatalf("awaiting review: %v", err)
	}
	if len(review) != 1 || review[0].Reference != "wd_1" {
		t.Fatalf("awaiting review should hold only the withdrawal: %+v", review)
	}

	review, err = repo.ListAwaitingReview(ctx, db, time.Now().Add(-time.Hour), 10)
	if err != nil || len(review) != 0 {
		t.Fatalf("fresh withdrawal listed: %+v, %v", review, err)
	}
}

func TestTransactions_MalformedIDIsNotFound(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New()
	ctx := context.Background()

	for _, id := range []string{"abc", "tx-1", "", "00000000-0000-0000-0000"} {
		_, err := repo.GetByID(ctx, db, id)
		if !errors.Is(err, ledger.ErrNotFound) {
			t.Fatalf("get %q: got %v, want %v", id, err, ledger.ErrNotFound)
		}

		err = pgutils.WithTx(ctx, db, func(tx *sql.Tx) error {
			_, _, err := repo.Transition(ctx, tx, id, []ledger.Status{ledger.StatusPending}, ledger.StatusFailed, nil)
			return err
		})
		if !errors.Is(err, ledger.ErrNotFound) {
			t.Fatalf("transition %q: got %v, want %v", id, err, ledger.ErrNotFound)
		}
	}
}
