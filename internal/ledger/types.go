// Package ledger holds the wallet ledger's domain types, its error taxonomy and
// the table of balance deltas every status transition applies.
package ledger

import (
	"encoding/json"
	"time"
)

type Type string

const (
	TypeDeposit          Type = "DEPOSIT"
	TypeWithdrawal       Type = "WITHDRAWAL"
	TypeTransfer         Type = "TRANSFER"
	TypePayment          Type = "PAYMENT"
	TypeInvestment       Type = "INVESTMENT"
	TypePropertyPurchase Type = "PROPERTY_PURCHASE"
	TypeReferral         Type = "REFERRAL"
	TypeRefund           Type = "REFUND"
)

func (t Type) Valid() bool {
	switch t {
	case TypeDeposit, TypeWithdrawal, TypeTransfer, TypePayment,
		TypeInvestment, TypePropertyPurchase, TypeReferral, TypeRefund:
		return true
	default:
		return false
	}
}

// GatewayBacked reports whether transactions of this type may be settled by
// gateway verification.
func (t Type) GatewayBacked() bool {
	switch t {
	case TypeDeposit, TypePayment, TypeInvestment, TypePropertyPurchase:
		return true
	default:
		return false
	}
}

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Direction says which way funds move relative to the owning wallet.
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
	// DirectionExternal is paid at the gateway; the wallet only holds the record.
	DirectionExternal Direction = "external"
)

// Wallet amounts are minor currency units (kobo).
type Wallet struct {
	ID               string
	UserID           string
	Balance          int64
	AvailableBalance int64
	PendingBalance   int64
	Currency         string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Consistent reports the at-rest invariant.
func (w Wallet) Consistent() bool {
	return w.Balance >= 0 && w.AvailableBalance >= 0 && w.PendingBalance >= 0 &&
		w.Balance == w.AvailableBalance+w.PendingBalance
}

type Transaction struct {
	ID           string
	WalletID     string
	UserID       string
	Type         Type
	Direction    Direction
	Status       Status
	Amount       int64
	Reference    string
	Description  string
	Metadata     Metadata
	PropertyID   string
	InvestmentID string
	ListingID    string
	RecipientID  string
	SenderID     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	SettledAt    *time.Time
}

// Draft is what callers supply when appending a transaction. Status defaults
// to PENDING.
type Draft struct {
	Type         Type
	Direction    Direction
	Status       Status
	Amount       int64
	Reference    string
	Description  string
	Metadata     Metadata
	PropertyID   string
	InvestmentID string
	ListingID    string
	RecipientID  string
	SenderID     string
}

// Metadata is the free-form JSON attached to a transaction: gateway snapshots,
// bank details, counterpart info, admin notes.
type Metadata map[string]any

func (m Metadata) Bytes() ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}

	return json.Marshal(m)
}

func (m Metadata) String(key string) string {
	v, ok := m[key].(string)
	if !ok {
		return ""
	}

	return v
}

// Filter narrows transaction listings. Zero values are ignored.
type Filter struct {
	UserID string
	Type   Type
	Status Status
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

func (f Filter) PageSize() int {
	switch {
	case f.Limit <= 0:
		return DefaultPageSize
	case f.Limit > MaxPageSize:
		return MaxPageSize
	default:
		return f.Limit
	}
}
