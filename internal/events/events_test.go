package events

import (
	"context"
	"testing"

	"github.com/fastprodman/walletledger/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromTransaction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		typ    ledger.Type
		status ledger.Status
		want   string
	}{
		{ledger.TypeDeposit, ledger.StatusPending, KindTransactionCreated},
		{ledger.TypeDeposit, ledger.StatusCompleted, KindTransactionCompleted},
		{ledger.TypeWithdrawal, ledger.StatusFailed, KindTransactionFailed},
		{ledger.TypeWithdrawal, ledger.StatusCancelled, KindTransactionFailed},
		{ledger.TypeTransfer, ledger.StatusCompleted, KindTransferCompleted},
	}

	for _, tt := range tests {
		ev := FromTransaction(ledger.Transaction{Type: tt.typ, Status: tt.status, Reference: "r", Amount: 3})
		assert.Equal(t, tt.want, ev.Kind, "%s/%s", tt.typ, tt.status)
		assert.Equal(t, "r", ev.Reference)
		assert.EqualValues(t, 3, ev.Amount)
	}
}

func TestRecorder(t *testing.T) {
	t.Parallel()

	r := NewRecorder(2)
	require.NoError(t, r.Publish(context.Background(), Event{Reference: "a"}, Event{Reference: "b"}, Event{Reference: "dropped"}))

	got := r.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Reference)
	assert.Empty(t, r.Drain())
	require.NoError(t, Nop().Publish(context.Background(), Event{}))
}
