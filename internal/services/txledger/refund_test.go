package txledger

import (
	"context"
	"database/sql"
	"testing"

	"github.com/fastprodman/walletledger/internal/infra/pgtestutil"
	"github.com/fastprodman/walletledger/internal/infra/pgutils"
	"github.com/fastprodman/walletledger/internal/ledger"
	transactionspg "github.com/fastprodman/walletledger/internal/repos/transactions/postgres"
	walletspg "github.com/fastprodman/walletledger/internal/repos/wallets/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_Refund(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	l := New(walletspg.New(), transactionspg.New())
	ctx := context.Background()
	walletID := pgtestutil.SeedWallet(t, db, "nia", 50, 0)

	var purchase ledger.Transaction

	err := pgutils.WithTx(ctx, db, func(tx *sql.Tx) error {
		w, err := l.Wallets().LockByID(ctx, tx, walletID)
		if err != nil {
			return err
		}
		purchase, _, err = l.Append(ctx, tx, w, ledger.Draft{
			Type: ledger.TypePayment, Direction: ledger.DirectionExternal,
			Amount: 300, Reference: "pay_gone", ListingID: "l1",
		})
		return err
	})
	require.NoError(t, err)

	var failed, credit ledger.Transaction

	err = pgutils.WithTx(ctx, db, func(tx *sql.Tx) error {
		var err error
		failed, credit, err = l.Refund(ctx, tx, purchase.ID, "listing sold", ledger.Metadata{"gatewayStatus": "success"})
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, ledger.StatusFailed, failed.Status)
	assert.Equal(t, credit.Reference, failed.Metadata.String("refundReference"))
	assert.Equal(t, "success", failed.Metadata.String("gatewayStatus"))
	assert.Equal(t, ledger.TypeRefund, credit.Type)
	assert.Equal(t, "l1", credit.ListingID)

	b, a, p := pgtestutil.WalletBalances(t, db, walletID)
	assert.EqualValues(t, 350, b)
	assert.EqualValues(t, 350, a)
	assert.EqualValues(t, 0, p)

	err = pgutils.WithTx(ctx, db, func(tx *sql.Tx) error {
		_, _, err := l.Refund(ctx, tx, purchase.ID, "listing sold", nil)
		return err
	})
	require.ErrorIs(t, err, ledger.ErrAlreadyProcessed)

	b, _, _ = pgtestutil.WalletBalances(t, db, walletID)
	assert.EqualValues(t, 350, b)
}
