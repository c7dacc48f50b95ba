package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeltaFor(t *testing.T) {
	t.Parallel()

	const a = int64(500)

	tests := []struct {
		name string
		typ  Type
		dir  Direction
		from Status
		to   Status
		want Delta
	}{
		{name: "deposit created", typ: TypeDeposit, dir: DirectionCredit, from: Creation, to: StatusPending, want: Delta{}},
		{name: "deposit settles", typ: TypeDeposit, dir: DirectionCredit, from: StatusPending, to: StatusCompleted, want: Delta{Balance: a, Available: a}},
		{name: "deposit fails", typ: TypeDeposit, dir: DirectionCredit, from: StatusPending, to: StatusFailed, want: Delta{}},
		{name: "deposit reopened", typ: TypeDeposit, dir: DirectionCredit, from: StatusFailed, to: StatusPending, want: Delta{}},
		{name: "withdrawal reserves", typ: TypeWithdrawal, dir: DirectionDebit, from: Creation, to: StatusPending, want: Delta{Available: -a, Pending: a}},
		{name: "withdrawal settles", typ: TypeWithdrawal, dir: DirectionDebit, from: StatusPending, to: StatusCompleted, want: Delta{Balance: -a, Pending: -a}},
		{name: "withdrawal rejected", typ: TypeWithdrawal, dir: DirectionDebit, from: StatusPending, to: StatusFailed, want: Delta{Available: a, Pending: -a}},
		{name: "withdrawal cancelled", typ: TypeWithdrawal, dir: DirectionDebit, from: StatusPending, to: StatusCancelled, want: Delta{Available: a, Pending: -a}},
		{name: "transfer out", typ: TypeTransfer, dir: DirectionDebit, from: Creation, to: StatusCompleted, want: Delta{Balance: -a, Available: -a}},
		{name: "transfer in", typ: TypeTransfer, dir: DirectionCredit, from: Creation, to: StatusCompleted, want: Delta{Balance: a, Available: a}},
		{name: "gateway investment settles", typ: TypeInvestment, dir: DirectionExternal, from: StatusPending, to: StatusCompleted, want: Delta{}},
		{name: "wallet-paid property", typ: TypePropertyPurchase, dir: DirectionDebit, from: Creation, to: StatusCompleted, want: Delta{Balance: -a, Available: -a}},
		{name: "referral approved", typ: TypeReferral, dir: DirectionCredit, from: StatusPending, to: StatusCompleted, want: Delta{Balance: a, Available: a}},
		{name: "refund", typ: TypeRefund, dir: DirectionCredit, from: Creation, to: StatusCompleted, want: Delta{Balance: a, Available: a}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := DeltaFor(tt.typ, tt.dir, tt.from, tt.to, a)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeltaFor_UnknownTransitionIsInvariantViolation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		typ  Type
		dir  Direction
		from Status
		to   Status
	}{
		{name: "completed deposit reopened", typ: TypeDeposit, dir: DirectionCredit, from: StatusCompleted, to: StatusPending},
		{name: "completed withdrawal failed", typ: TypeWithdrawal, dir: DirectionDebit, from: StatusCompleted, to: StatusFailed},
		{name: "pending transfer", typ: TypeTransfer, dir: DirectionDebit, from: Creation, to: StatusPending},
		{name: "deposit as debit", typ: TypeDeposit, dir: DirectionDebit, from: StatusPending, to: StatusCompleted},
		{name: "withdrawal reopened", typ: TypeWithdrawal, dir: DirectionDebit, from: StatusFailed, to: StatusPending},
		{name: "refund pending", typ: TypeRefund, dir: DirectionCredit, from: Creation, to: StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := DeltaFor(tt.typ, tt.dir, tt.from, tt.to, 100)
			require.ErrorIs(t, err, ErrInvariantViolation)
			assert.False(t, CanTransition(tt.typ, tt.dir, tt.from, tt.to))
		})
	}
}

func TestDeltaFor_NegativeAmount(t *testing.T) {
	t.Parallel()

	_, err := DeltaFor(TypeDeposit, DirectionCredit, StatusPending, StatusCompleted, -1)
	require.ErrorIs(t, err, ErrInvariantViolation)
}

// Every path from creation to a terminal status must leave
// balance == available + pending for a wallet that started consistent.
func TestDeltaTable_TerminalPathsKeepWalletConsistent(t *testing.T) {
	t.Parallel()

	start := Wallet{Balance: 1_000, AvailableBalance: 1_000}

	for key := range deltaTable {
		if key.from != Creation {
			continue
		}

		paths := [][]Status{{key.to}}
		if key.to == StatusPending {
			paths = [][]Status{
				{StatusPending, StatusCompleted},
				{StatusPending, StatusFailed},
				{StatusPending, StatusCancelled},
			}
		}

		for _, path := range paths {
			w := start
			from := Creation
			ok := true

			for _, to := range path {
				d, err := DeltaFor(key.typ, key.dir, from, to, 300)
				if err != nil {
					ok = false
					break
				}

				w.Balance += d.Balance
				w.AvailableBalance += d.Available
				w.PendingBalance += d.Pending
				from = to
			}

			if !ok {
				continue
			}

			assert.Truef(t, w.Consistent(), "%s/%s %v left wallet %+v", key.typ, key.dir, path, w)
		}
	}
}

func TestFilter_PageSize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultPageSize, Filter{}.PageSize())
	assert.Equal(t, 7, Filter{Limit: 7}.PageSize())
	assert.Equal(t, MaxPageSize, Filter{Limit: 10_000}.PageSize())
}
