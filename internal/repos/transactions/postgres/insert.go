package transactions

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/walletledger/internal/infra/pgutils"
	"github.com/fastprodman/walletledger/internal/ledger"
	"github.com/google/uuid"
)

func (r *transactionsRepo) Insert(ctx context.Context, tx *sql.Tx, walletID, userID string, d ledger.Draft) (ledger.Transaction, error) {
	meta, err := d.Metadata.Bytes()
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("encode metadata: %w", err)
	}

	status := d.Status
	if status == "" {
		status = ledger.StatusPending
	}

	t, err := scanTransaction(tx.QueryRowContext(ctx, `
		INSERT INTO wallet_transactions (
			id, wallet_id, user_id, type, direction, status, amount, reference,
			description, metadata, property_id, investment_id, listing_id,
			recipient_id, sender_id, settled_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			CASE WHEN $6 = 'PENDING' THEN NULL ELSE now() END)
		RETURNING `+txColumns,
		uuid.NewString(), walletID, userID, d.Type, d.Direction, status, d.Amount, d.Reference,
		d.Description, meta, nullable(d.PropertyID), nullable(d.InvestmentID), nullable(d.ListingID),
		nullable(d.RecipientID), nullable(d.SenderID),
	))
	if err != nil {
		if pgutils.IsUniqueViolation(err) {
			return ledger.Transaction{}, fmt.Errorf("reference %s: %w", d.Reference, ledger.ErrDuplicateReference)
		}

		return ledger.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	return t, nil
}
