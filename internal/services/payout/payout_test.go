package payout

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/fastprodman/walletledger/internal/infra/pgtestutil"
	"github.com/fastprodman/walletledger/internal/infra/pgutils"
	"github.com/fastprodman/walletledger/internal/ledger"
)

func seedCatalog(t *testing.T, db *sql.DB) {
	t.Helper()

	pgtestutil.Exec(t, db, `INSERT INTO properties (id, price) VALUES ('p1', 5000), ('p2', 0)`)
	pgtestutil.Exec(t, db, `INSERT INTO listings (id, price, status) VALUES ('l1', 300, 'active'), ('l2', 300, 'sold')`)
	pgtestutil.Exec(t, db, `INSERT INTO investments (id, status, min_amount) VALUES ('i1', 'open', 100), ('i2', 'closed', 0)`)
}

func TestRegistry_Check(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()
	seedCatalog(t, db)

	reg := NewRegistry()

	tests := []struct {
		name    string
		draft   ledger.Draft
		wantErr error
	}{
		{name: "deposit", draft: ledger.Draft{Type: ledger.TypeDeposit, Amount: 1}},
		{name: "property at price", draft: ledger.Draft{Type: ledger.TypePropertyPurchase, PropertyID: "p1", Amount: 5000}},
		{name: "property wrong price", draft: ledger.Draft{Type: ledger.TypePropertyPurchase, PropertyID: "p1", Amount: 4999}, wantErr: ledger.ErrValidation},
		{name: "unpriced property", draft: ledger.Draft{Type: ledger.TypePropertyPurchase, PropertyID: "p2", Amount: 7}},
		{name: "missing property", draft: ledger.Draft{Type: ledger.TypePropertyPurchase, PropertyID: "nope", Amount: 1}, wantErr: ledger.ErrNotFound},
		{name: "property id required", draft: ledger.Draft{Type: ledger.TypePropertyPurchase, Amount: 1}, wantErr: ledger.ErrValidation},
		{name: "active listing", draft: ledger.Draft{Type: ledger.TypePayment, ListingID: "l1", Amount: 300}},
		{name: "sold listing", draft: ledger.Draft{Type: ledger.TypePayment, ListingID: "l2", Amount: 300}, wantErr: ledger.ErrValidation},
		{name: "open investment", draft: ledger.Draft{Type: ledger.TypeInvestment, InvestmentID: "i1", Amount: 100}},
		{name: "below minimum", draft: ledger.Draft{Type: ledger.TypeInvestment, InvestmentID: "i1", Amount: 99}, wantErr: ledger.ErrValidation},
		{name: "closed investment", draft: ledger.Draft{Type: ledger.TypeInvestment, InvestmentID: "i2", Amount: 100}, wantErr: ledger.ErrValidation},
	}

	for _, tt := range tests {
		err := reg.Check(context.Background(), db, "buyer", tt.draft)
		if tt.wantErr == nil && err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
			t.Fatalf("%s: got %v, want %v", tt.name, err, tt.wantErr)
		}
	}

	err := reg.Check(context.Background(), db, "buyer", ledger.Draft{Type: "BOGUS"})
	if !errors.Is(err, ledger.ErrInvariantViolation) {
		t.Fatalf("unknown type: got %v", err)
	}
}

func TestRegistry_SettleIsIdempotent(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()
	seedCatalog(t, db)

	reg := NewRegistry()
	ctx := context.Background()

	txns := []ledger.Transaction{
		{Type: ledger.TypePropertyPurchase, PropertyID: "p1", UserID: "buyer", Amount: 5000, Reference: "prop_1"},
		{Type: ledger.TypePayment, ListingID: "l1", UserID: "buyer", Amount: 300, Reference: "pay_1"},
		{Type: ledger.TypeInvestment, InvestmentID: "i1", UserID: "buyer", Amount: 250, Reference: "inv_1"},
	}

	for range 2 {
		for _, txn := range txns {
			err := pgutils.WithTx(ctx, db, func(tx *sql.Tx) error {
				return reg.Settle(ctx, tx, txn)
			})
			if err != nil {
				t.Fatalf("settle %s: %v", txn.Reference, err)
			}
		}
	}

	var raised int64
	err := db.QueryRow(`SELECT amount_raised FROM investments WHERE id = 'i1'`).Scan(&raised)
	if err != nil {
		t.Fatalf("read investment: %v", err)
	}
	if raised != 250 {
		t.Fatalf("amount raised: got %d, want 250", raised)
	}

	var status, buyer string
	err = db.QueryRow(`SELECT status, buyer_id FROM properties WHERE id = 'p1'`).Scan(&status, &buyer)
	if err != nil {
		t.Fatalf("read property: %v", err)
	}
	if status != "sold" || buyer != "buyer" {
		t.Fatalf("property: %s to %s", status, buyer)
	}

	err = pgutils.WithTx(ctx, db, func(tx *sql.Tx) error {
		return reg.Settle(ctx, tx, ledger.Transaction{
			Type: ledger.TypePropertyPurchase, PropertyID: "p1", UserID: "someone-else", Reference: "prop_2",
		})
	})
	if !errors.Is(err, ErrSoldOut) {
		t.Fatalf("double sale: got %v, want %v", err, ErrSoldOut)
	}
}
