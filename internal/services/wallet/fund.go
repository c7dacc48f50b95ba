package wallet

import (
	"context"
	"database/sql"
	"fmt"
	"net/mail"

	"github.com/fastprodman/walletledger/internal/gateway"
	"github.com/fastprodman/walletledger/internal/infra/pgutils"
	"github.com/fastprodman/walletledger/internal/ledger"
)

type FundRequest struct {
	UserID      string
	Email       string
	Amount      int64
	CallbackURL string
}

type Initiated struct {
	Transaction ledger.Transaction
	CheckoutURL string
	AccessCode  string
}

// Fund opens a gateway checkout session and records a PENDING deposit. The
// wallet is credited only when reconciliation sees the gateway's success.
func (s *Service) Fund(ctx context.Context, req FundRequest) (Initiated, error) {
	if req.Amount <= 0 {
		return Initiated{}, fmt.Errorf("%w: amount must be > 0", ledger.ErrValidation)
	}

	err := validEmail(req.Email)
	if err != nil {
		return Initiated{}, err
	}

	return s.viaGateway(ctx, req.UserID, req.Email, req.CallbackURL, ledger.Draft{
		Type:        ledger.TypeDeposit,
		Direction:   ledger.DirectionCredit,
		Amount:      req.Amount,
		Reference:   ledger.NewReference(ledger.PrefixFund),
		Description: "Wallet funding",
	})
}

// viaGateway initializes the remote session first and only then writes the
// PENDING record, so no database transaction is open during the call.
func (s *Service) viaGateway(ctx context.Context, userID, email, callback string, d ledger.Draft) (Initiated, error) {
	meta := ledger.Metadata{"userId": userID, "type": string(d.Type)}
	for k, v := range d.Metadata {
		meta[k] = v
	}

	checkout, err := s.gw.Initialize(ctx, gateway.InitializeRequest{
		Email:       email,
		Amount:      d.Amount,
		Reference:   d.Reference,
		CallbackURL: callback,
		Metadata:    meta,
	})
	if err != nil {
		return Initiated{}, fmt.Errorf("initialize %s: %w", d.Reference, err)
	}

	meta["checkoutUrl"] = checkout.CheckoutURL
	meta["accessCode"] = checkout.AccessCode
	meta["email"] = email
	d.Metadata = meta
	d.Status = ledger.StatusPending

	var created ledger.Transaction

	err = pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		w, err := s.ledger.Wallets().FindOrCreate(ctx, tx, userID)
		if err != nil {
			return err
		}

		created, _, err = s.ledger.Append(ctx, tx, w, d)
		return err
	})
	if err != nil {
		return Initiated{}, fmt.Errorf("record %s: %w", d.Reference, err)
	}

	s.publish(ctx, created)

	return Initiated{
		Transaction: created,
		CheckoutURL: checkout.CheckoutURL,
		AccessCode:  checkout.AccessCode,
	}, nil
}

func validEmail(s string) error {
	if s == "" {
		return fmt.Errorf("%w: email required", ledger.ErrValidation)
	}

	_, err := mail.ParseAddress(s)
	if err != nil {
		return fmt.Errorf("%w: invalid email %q", ledger.ErrValidation, s)
	}

	return nil
}
