package txledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/walletledger/internal/ledger"
)

// Refund fails the PENDING purchase id and credits its amount back to the
// buyer's wallet as a COMPLETED REFUND, both inside tx. It is used when the
// gateway collected money for an item that can no longer be delivered.
func (l *Ledger) Refund(
	ctx context.Context,
	tx *sql.Tx,
	id string,
	reason string,
	patch ledger.Metadata,
) (failed, refund ledger.Transaction, err error) {
	ref := ledger.NewReference(ledger.PrefixRefund)

	merged := ledger.Metadata{
		"failedBy":        "conflict",
		"failureReason":   reason,
		"refundReference": ref,
	}
	for k, v := range patch {
		merged[k] = v
	}

	failed, err = l.Transition(ctx, tx, id, []ledger.Status{ledger.StatusPending}, ledger.StatusFailed, merged)
	if err != nil {
		return ledger.Transaction{}, ledger.Transaction{}, err
	}

	w, err := l.wallets.LockByID(ctx, tx, failed.WalletID)
	if err != nil {
		return ledger.Transaction{}, ledger.Transaction{}, fmt.Errorf("lock wallet for refund: %w", err)
	}

	refund, _, err = l.Append(ctx, tx, w, ledger.Draft{
		Type:         ledger.TypeRefund,
		Direction:    ledger.DirectionCredit,
		Status:       ledger.StatusCompleted,
		Amount:       failed.Amount,
		Reference:    ref,
		Description:  "Refund for " + failed.Reference,
		Metadata:     ledger.Metadata{"refundOf": failed.Reference, "reason": reason},
		PropertyID:   failed.PropertyID,
		InvestmentID: failed.InvestmentID,
		ListingID:    failed.ListingID,
	})
	if err != nil {
		return ledger.Transaction{}, ledger.Transaction{}, fmt.Errorf("append refund for %s: %w", failed.Reference, err)
	}

	return failed, refund, nil
}
