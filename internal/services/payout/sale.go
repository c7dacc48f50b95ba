package payout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/walletledger/internal/infra/pgutils"
	"github.com/fastprodman/walletledger/internal/ledger"
)

// ErrSoldOut means the item was sold to a different buyer before this
// purchase settled. The buyer's payment has to be refunded.
var ErrSoldOut = errors.New("item sold to another buyer")

// saleTable describes an item that is sold exactly once: a property or a
// marketplace listing.
type saleTable struct {
	table      string
	openStatus string
	what       string
}

var (
	propertySale = saleTable{table: "properties", openStatus: "available", what: "property"}
	listingSale  = saleTable{table: "listings", openStatus: "active", what: "listing"}
)

func (s saleTable) check(ctx context.Context, q pgutils.Querier, id string, amount int64) error {
	if id == "" {
		return fmt.Errorf("%w: %s id required", ledger.ErrValidation, s.what)
	}

	var (
		status string
		price  int64
	)

	err := q.QueryRowContext(ctx, `SELECT status, price FROM `+s.table+` WHERE id = $1`, id).Scan(&status, &price)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s %s: %w", s.what, id, ledger.ErrNotFound)
		}

		return fmt.Errorf("load %s: %w", s.what, err)
	}

	if status != s.openStatus {
		return fmt.Errorf("%w: %s %s is %s", ledger.ErrValidation, s.what, id, status)
	}

	if price > 0 && amount != price {
		return fmt.Errorf("%w: %s %s costs %s", ledger.ErrValidation, s.what, id, ledger.FormatAmount(price))
	}

	return nil
}

// markSold flips the item to sold for buyer. Re-settling for the same buyer
// is a no-op; an item already sold to someone else yields ErrSoldOut without
// touching any row, so tx stays usable.
func (s saleTable) markSold(ctx context.Context, tx *sql.Tx, id, buyer string) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE `+s.table+`
		SET status = 'sold', buyer_id = $2, sold_at = now()
		WHERE id = $1 AND status = $3
	`, id, buyer, s.openStatus)
	if err != nil {
		return fmt.Errorf("mark %s sold: %w", s.what, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if n == 1 {
		return nil
	}

	var current sql.NullString

	err = tx.QueryRowContext(ctx, `SELECT buyer_id FROM `+s.table+` WHERE id = $1`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s %s: %w", s.what, id, ledger.ErrNotFound)
		}

		return fmt.Errorf("load %s buyer: %w", s.what, err)
	}

	if current.Valid && current.String == buyer {
		return nil
	}

	return fmt.Errorf("%s %s: %w", s.what, id, ErrSoldOut)
}

type property struct{}

func (property) Check(ctx context.Context, q pgutils.Querier, _ string, d ledger.Draft) error {
	return propertySale.check(ctx, q, d.PropertyID, d.Amount)
}

func (property) Settle(ctx context.Context, tx *sql.Tx, t ledger.Transaction) error {
	return propertySale.markSold(ctx, tx, t.PropertyID, t.UserID)
}

type marketplace struct{}

func (marketplace) Check(ctx context.Context, q pgutils.Querier, _ string, d ledger.Draft) error {
	return listingSale.check(ctx, q, d.ListingID, d.Amount)
}

func (marketplace) Settle(ctx context.Context, tx *sql.Tx, t ledger.Transaction) error {
	return listingSale.markSold(ctx, tx, t.ListingID, t.UserID)
}
