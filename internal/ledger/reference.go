package ledger

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

// Reference prefixes, one per initiation path.
const (
	PrefixFund       = "fund"
	PrefixWithdrawal = "wd"
	PrefixTransfer   = "trf"
	PrefixPayment    = "pay"
	PrefixInvestment = "inv"
	PrefixProperty   = "prop"
	PrefixRefund     = "rfd"
)

// NewReference returns a time-sortable, globally unique reference such as
// fund_01J9Z3K8Q4X2W6N1R5T7V0YB3C.
func NewReference(prefix string) string {
	return prefix + "_" + strings.ToLower(ulid.Make().String())
}
