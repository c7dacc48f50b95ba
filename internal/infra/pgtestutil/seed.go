package pgtestutil

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
)

// SeedWallet inserts a consistent wallet for userID and returns its id.
func SeedWallet(t *testing.T, db *sql.DB, userID string, available, pending int64) string {
	t.Helper()

	id := uuid.NewString()

	_, err := db.ExecContext(context.Background(), `
		INSERT INTO wallets (id, user_id, balance, available_balance, pending_balance)
		VALUES ($1, $2, $3, $4, $5)
	`, id, userID, available+pending, available, pending)
	if err != nil {
		t.Fatalf("seed wallet %s: %v", userID, err)
	}

	return id
}

// WalletBalances reads (balance, available, pending) straight from the table.
func WalletBalances(t *testing.T, db *sql.DB, walletID string) (int64, int64, int64) {
	t.Helper()

	var b, a, p int64

	err := db.QueryRowContext(context.Background(), `
		SELECT balance, available_balance, pending_balance
		FROM wallets
		WHERE id = $1
	`, walletID).Scan(&b, &a, &p)
	if err != nil {
		t.Fatalf("read wallet %s: %v", walletID, err)
	}

	return b, a, p
}

// Exec runs a setup statement and fails the test on error.
func Exec(t *testing.T, db *sql.DB, query string, args ...any) {
	t.Helper()

	_, err := db.ExecContext(context.Background(), query, args...)
	if err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}
