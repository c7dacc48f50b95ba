package wallet

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/walletledger/internal/infra/pgutils"
	"github.com/fastprodman/walletledger/internal/ledger"
)

type Source string

const (
	SourceGateway Source = "gateway"
	SourceWallet  Source = "wallet"
)

type PaymentRequest struct {
	UserID       string
	Email        string
	Type         ledger.Type // PAYMENT, INVESTMENT or PROPERTY_PURCHASE
	Source       Source
	Amount       int64
	PropertyID   string
	ListingID    string
	InvestmentID string
	CallbackURL  string
}

// Pay starts a purchase. Through the gateway it behaves like Fund and settles
// on reconciliation; from the wallet it completes at once, debiting the
// wallet and running the payout side effect in one atomic unit.
func (s *Service) Pay(ctx context.Context, req PaymentRequest) (Initiated, error) {
	prefix, ok := paymentPrefix(req.Type)
	if !ok {
		return Initiated{}, fmt.Errorf("%w: %q is not a purchase type", ledger.ErrValidation, req.Type)
	}
	if req.Amount <= 0 {
		return Initiated{}, fmt.Errorf("%w: amount must be > 0", ledger.ErrValidation)
	}

	d := ledger.Draft{
		Type:         req.Type,
		Amount:       req.Amount,
		Reference:    ledger.NewReference(prefix),
		Description:  describe(req),
		PropertyID:   req.PropertyID,
		ListingID:    req.ListingID,
		InvestmentID: req.InvestmentID,
	}

	err := s.payouts.Check(ctx, s.db, req.UserID, d)
	if err != nil {
		return Initiated{}, err
	}

	switch req.Source {
	case SourceGateway, "":
		err = validEmail(req.Email)
		if err != nil {
			return Initiated{}, err
		}

		d.Direction = ledger.DirectionExternal
		d.Metadata = ledger.Metadata{
			"propertyId":   req.PropertyID,
			"listingId":    req.ListingID,
			"investmentId": req.InvestmentID,
		}

		return s.viaGateway(ctx, req.UserID, req.Email, req.CallbackURL, d)

	case SourceWallet:
		d.Direction = ledger.DirectionDebit
		d.Status = ledger.StatusCompleted

		return s.fromWallet(ctx, req.UserID, d)

	default:
		return Initiated{}, fmt.Errorf("%w: unknown source %q", ledger.ErrValidation, req.Source)
	}
}

func (s *Service) fromWallet(ctx context.Context, userID string, d ledger.Draft) (Initiated, error) {
	var created ledger.Transaction

	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		w, err := s.ledger.Wallets().FindOrCreate(ctx, tx, userID)
		if err != nil {
			return err
		}

		created, _, err = s.ledger.Append(ctx, tx, w, d)
		if err != nil {
			return err
		}

		return s.payouts.Settle(ctx, tx, created)
	})
	if err != nil {
		return Initiated{}, fmt.Errorf("pay %s from wallet: %w", d.Reference, err)
	}

	s.publish(ctx, created)

	return Initiated{Transaction: created}, nil
}

func paymentPrefix(t ledger.Type) (string, bool) {
	switch t {
	case ledger.TypePayment:
		return ledger.PrefixPayment, true
	case ledger.TypeInvestment:
		return ledger.PrefixInvestment, true
	case ledger.TypePropertyPurchase:
		return ledger.PrefixProperty, true
	default:
		return "", false
	}
}

func describe(req PaymentRequest) string {
	switch req.Type {
	case ledger.TypeInvestment:
		return "Investment in " + req.InvestmentID
	case ledger.TypePropertyPurchase:
		return "Purchase of property " + req.PropertyID
	default:
		return "Marketplace purchase " + req.ListingID
	}
}
