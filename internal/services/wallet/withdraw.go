package wallet

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/walletledger/internal/infra/pgutils"
	"github.com/fastprodman/walletledger/internal/ledger"
)

type BankAccount struct {
	BankCode      string
	AccountNumber string
	AccountName   string
}

type WithdrawRequest struct {
	UserID string
	Amount int64
	Bank   BankAccount
	Note   string
}

// Withdraw reserves the amount (available -> pending) and records a PENDING
// withdrawal for an administrator to approve or reject.
func (s *Service) Withdraw(ctx context.Context, req WithdrawRequest) (ledger.Transaction, ledger.Wallet, error) {
	if req.Amount <= 0 {
		return ledger.Transaction{}, ledger.Wallet{}, fmt.Errorf("%w: amount must be > 0", ledger.ErrValidation)
	}
	if req.Bank.AccountNumber == "" || req.Bank.BankCode == "" {
		return ledger.Transaction{}, ledger.Wallet{}, fmt.Errorf("%w: bank code and account number required", ledger.ErrValidation)
	}

	var (
		created ledger.Transaction
		after   ledger.Wallet
	)

	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		w, err := s.ledger.Wallets().FindOrCreate(ctx, tx, req.UserID)
		if err != nil {
			return err
		}

		created, after, err = s.ledger.Append(ctx, tx, w, ledger.Draft{
			Type:        ledger.TypeWithdrawal,
			Direction:   ledger.DirectionDebit,
			Amount:      req.Amount,
			Reference:   ledger.NewReference(ledger.PrefixWithdrawal),
			Description: withDefault(req.Note, "Wallet withdrawal"),
			Metadata: ledger.Metadata{
				"bankCode":      req.Bank.BankCode,
				"accountNumber": req.Bank.AccountNumber,
				"accountName":   req.Bank.AccountName,
			},
		})
		return err
	})
	if err != nil {
		return ledger.Transaction{}, ledger.Wallet{}, fmt.Errorf("withdraw: %w", err)
	}

	s.publish(ctx, created)

	return created, after, nil
}

func withDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
