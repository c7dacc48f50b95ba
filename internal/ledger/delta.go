package ledger

import "fmt"

// Delta is a change to a wallet's three sub-balances, relative to the stored
// values.
type Delta struct {
	Balance   int64
	Available int64
	Pending   int64
}

func (d Delta) IsZero() bool {
	return d == Delta{}
}

func (d Delta) Add(o Delta) Delta {
	return Delta{
		Balance:   d.Balance + o.Balance,
		Available: d.Available + o.Available,
		Pending:   d.Pending + o.Pending,
	}
}

// Creation is the from-status of a transaction that does not exist yet.
const Creation Status = ""

type deltaKey struct {
	typ  Type
	dir  Direction
	from Status
	to   Status
}

// unit holds coefficients in {-1, 0, 1}, scaled by the transaction amount.
type unit struct{ b, a, p int64 }

var (
	none        = unit{}
	credit      = unit{b: 1, a: 1}
	debit       = unit{b: -1, a: -1}
	reserve     = unit{a: -1, p: 1}
	release     = unit{a: 1, p: -1}
	settleDebit = unit{b: -1, p: -1}
)

// deltaTable enumerates every (type, direction, from, to) the ledger accepts.
// Anything missing is refused with ErrInvariantViolation.
var deltaTable = buildDeltaTable()

func buildDeltaTable() map[deltaKey]unit {
	t := make(map[deltaKey]unit)
	put := func(typ Type, dir Direction, from, to Status, u unit) {
		t[deltaKey{typ, dir, from, to}] = u
	}

	// Deposits touch nothing until the gateway confirms them.
	put(TypeDeposit, DirectionCredit, Creation, StatusPending, none)
	put(TypeDeposit, DirectionCredit, StatusPending, StatusCompleted, credit)
	put(TypeDeposit, DirectionCredit, StatusPending, StatusFailed, none)
	put(TypeDeposit, DirectionCredit, StatusPending, StatusCancelled, none)
	put(TypeDeposit, DirectionCredit, StatusFailed, StatusPending, none)

	// Withdrawals reserve at request time and settle or release on decision.
	put(TypeWithdrawal, DirectionDebit, Creation, StatusPending, reserve)
	put(TypeWithdrawal, DirectionDebit, StatusPending, StatusCompleted, settleDebit)
	put(TypeWithdrawal, DirectionDebit, StatusPending, StatusFailed, release)
	put(TypeWithdrawal, DirectionDebit, StatusPending, StatusCancelled, release)

	put(TypeTransfer, DirectionDebit, Creation, StatusCompleted, debit)
	put(TypeTransfer, DirectionCredit, Creation, StatusCompleted, credit)

	for _, typ := range []Type{TypePayment, TypeInvestment, TypePropertyPurchase} {
		put(typ, DirectionExternal, Creation, StatusPending, none)
		put(typ, DirectionExternal, StatusPending, StatusCompleted, none)
		put(typ, DirectionExternal, StatusPending, StatusFailed, none)
		put(typ, DirectionExternal, StatusPending, StatusCancelled, none)
		put(typ, DirectionExternal, StatusFailed, StatusPending, none)

		put(typ, DirectionDebit, Creation, StatusCompleted, debit)
	}

	put(TypeReferral, DirectionCredit, Creation, StatusCompleted, credit)
	put(TypeReferral, DirectionCredit, Creation, StatusPending, none)
	put(TypeReferral, DirectionCredit, StatusPending, StatusCompleted, credit)
	put(TypeReferral, DirectionCredit, StatusPending, StatusFailed, none)
	put(TypeReferral, DirectionCredit, StatusPending, StatusCancelled, none)

	put(TypeRefund, DirectionCredit, Creation, StatusCompleted, credit)

	return t
}

// DeltaFor returns the wallet delta for moving a transaction of amount from one
// status to another. Pass Creation as from when the transaction is being
// written for the first time.
func DeltaFor(typ Type, dir Direction, from, to Status, amount int64) (Delta, error) {
	if amount < 0 {
		return Delta{}, fmt.Errorf("%w: negative amount %d", ErrInvariantViolation, amount)
	}

	u, ok := deltaTable[deltaKey{typ, dir, from, to}]
	if !ok {
		return Delta{}, fmt.Errorf("%w: no delta for %s/%s %q -> %q",
			ErrInvariantViolation, typ, dir, from, to)
	}

	return Delta{
		Balance:   u.b * amount,
		Available: u.a * amount,
		Pending:   u.p * amount,
	}, nil
}

// CanTransition reports whether the table knows the move, independent of
// amount.
func CanTransition(typ Type, dir Direction, from, to Status) bool {
	_, ok := deltaTable[deltaKey{typ, dir, from, to}]
	return ok
}
