package transactions

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/fastprodman/walletledger/internal/ledger"
	"github.com/fastprodman/walletledger/internal/repos/transactions"
)

var _ transactions.Transactions = (*transactionsRepo)(nil)

type transactionsRepo struct{}

func New() *transactionsRepo {
	return &transactionsRepo{}
}

const txColumns = `id, wallet_id, user_id, type, direction, status, amount, reference,
	description, metadata, property_id, investment_id, listing_id, recipient_id,
	sender_id, created_at, updated_at, settled_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (ledger.Transaction, error) {
	var (
		t        ledger.Transaction
		meta     []byte
		property sql.NullString
		invest   sql.NullString
		listing  sql.NullString
		recv     sql.NullString
		sender   sql.NullString
		settled  sql.NullTime
	)

	err := row.Scan(
		&t.ID, &t.WalletID, &t.UserID, &t.Type, &t.Direction, &t.Status, &t.Amount, &t.Reference,
		&t.Description, &meta, &property, &invest, &listing, &recv,
		&sender, &t.CreatedAt, &t.UpdatedAt, &settled,
	)
	if err != nil {
		return ledger.Transaction{}, err
	}

	if len(meta) > 0 {
		err = json.Unmarshal(meta, &t.Metadata)
		if err != nil {
			return ledger.Transaction{}, fmt.Errorf("decode metadata: %w", err)
		}
	}

	t.PropertyID = property.String
	t.InvestmentID = invest.String
	t.ListingID = listing.String
	t.RecipientID = recv.String
	t.SenderID = sender.String

	if settled.Valid {
		at := settled.Time
		t.SettledAt = &at
	}

	return t, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
