package transactions

import (
	"context"
	"database/sql"
	"time"

	"github.com/fastprodman/walletledger/internal/infra/pgutils"
	"github.com/fastprodman/walletledger/internal/ledger"
)

// Transactions stores ledger records. Methods taking *sql.Tx must run inside
// the atomic unit that also mutates the owning wallet.
type Transactions interface {
	Insert(ctx context.Context, tx *sql.Tx, walletID, userID string, d ledger.Draft) (ledger.Transaction, error)
	GetByID(ctx context.Context, q pgutils.Querier, id string) (ledger.Transaction, error)
	// GetByReference returns the single non-transfer record for reference.
	GetByReference(ctx context.Context, q pgutils.Querier, reference string) (ledger.Transaction, error)
	ListByReference(ctx context.Context, q pgutils.Querier, reference string) ([]ledger.Transaction, error)
	// Transition moves the record to `to` only if its current status is one
	// of from. It returns the status the record had before the update.
	Transition(ctx context.Context, tx *sql.Tx, id string, from []ledger.Status, to ledger.Status, patch ledger.Metadata) (ledger.Status, ledger.Transaction, error)
	List(ctx context.Context, q pgutils.Querier, f ledger.Filter) ([]ledger.Transaction, int, error)
	ListStalePending(ctx context.Context, q pgutils.Querier, olderThan time.Time, limit int) ([]ledger.Transaction, error)
	// ListAwaitingReview returns PENDING withdrawals created before
	// olderThan. The gateway cannot settle those; only an admin can.
	ListAwaitingReview(ctx context.Context, q pgutils.Querier, olderThan time.Time, limit int) ([]ledger.Transaction, error)
	CountPending(ctx context.Context, q pgutils.Querier, walletID string) (int, error)
}
