package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/Tolits3/PanelX-Backend/internal/apperrors"
	"github.com/Tolits3/PanelX-Backend/internal/models"
	"github.com/Tolits3/PanelX-Backend/internal/repository"
)

// DefaultInitialGrant is the launch special every new account starts with.
const DefaultInitialGrant = 1000

type Config struct {
	// FreeMode switches every debit to log-only: usage transactions are
	// recorded but balances are never decremented. It is a process wide
	// launch period setting, never flipped per request.
	FreeMode bool

	// InitialGrant is the balance given to auto-initialized accounts.
	// Defaults to DefaultInitialGrant when zero.
	InitialGrant int64
}

// Service is the credit ledger: per-user balance plus an append-only
// transaction log. Every mutation runs in a per-account transaction scope so
// concurrent operations against one account serialize and balances never go
// negative in paid mode.
type Service struct {
	freeMode     bool
	initialGrant int64
	storage      repository.Storage
}

func NewService(cfg Config, storage repository.Storage) *Service {
	grant := cfg.InitialGrant
	if grant <= 0 {
		grant = DefaultInitialGrant
	}

	return &Service{
		freeMode:     cfg.FreeMode,
		initialGrant: grant,
		storage:      storage,
	}
}

// FreeMode reports whether the launch period log-only debits are active.
func (s *Service) FreeMode() bool {
	return s.freeMode
}

// InitialGrant returns the configured starting balance.
func (s *Service) InitialGrant() int64 {
	return s.initialGrant
}

type Balance struct {
	UserID  string
	Balance int64
}

type InitResult struct {
	Account        models.Account
	AlreadyExisted bool
}

type DebitResult struct {
	CreditsUsed int64
	NewBalance  int64
}

// GetBalance returns the current balance, creating the account with the
// initial grant when it does not exist yet. Not a pure read: the first call
// for an unknown user writes the account and one free_grant transaction.
func (s *Service) GetBalance(ctx context.Context, userID string) (Balance, error) {
	account, err := s.storage.Account().GetAccount(ctx, userID)

	if errors.Is(err, apperrors.ErrAccountNotFound) {
		var res InitResult
		res, err = s.InitAccount(ctx, userID)
		account = res.Account
	}
	if err != nil {
		return Balance{}, err
	}

	return Balance{UserID: userID, Balance: account.Balance}, nil
}

// InitAccount creates the account with the initial grant and its free_grant
// transaction. Idempotent: an existing account is returned unchanged with
// AlreadyExisted set.
func (s *Service) InitAccount(ctx context.Context, userID string) (InitResult, error) {
	var result InitResult

	err := s.storage.InTx(ctx, func(st repository.Storage) error {
		account, err := st.Account().GetAccountForUpdate(ctx, userID)
		if err == nil {
			result = InitResult{Account: account, AlreadyExisted: true}
			return nil
		}
		if !errors.Is(err, apperrors.ErrAccountNotFound) {
			return err
		}

		account, err = st.Account().CreateAccount(ctx, userID, s.initialGrant)
		if err != nil {
			return err
		}

		_, err = st.Transaction().AppendTransaction(ctx, models.Transaction{
			UserID:       userID,
			Type:         models.TransactionTypeFreeGrant,
			Amount:       s.initialGrant,
			BalanceAfter: s.initialGrant,
			Description:  fmt.Sprintf("Launch special: %d free credits", s.initialGrant),
		})
		if err != nil {
			return err
		}

		result = InitResult{Account: account}
		return nil
	})

	// Lost a concurrent first-init race: the account is there now, report it
	// as already existing.
	if errors.Is(err, apperrors.ErrAccountExists) {
		account, gerr := s.storage.Account().GetAccount(ctx, userID)
		if gerr != nil {
			return InitResult{}, gerr
		}
		return InitResult{Account: account, AlreadyExisted: true}, nil
	}
	if err != nil {
		return InitResult{}, err
	}

	return result, nil
}

// Debit consumes credits for a generation. In free mode the usage is logged
// with the balance untouched; in paid mode the balance is decremented
// atomically or the whole call fails with InsufficientCreditsError. A
// rejected debit leaves no transaction behind.
func (s *Service) Debit(ctx context.Context, userID string, amount int64, description string) (DebitResult, error) {
	if amount <= 0 {
		return DebitResult{}, apperrors.ErrInvalidAmount
	}

	var result DebitResult

	debit := func(st repository.Storage) error {
		account, err := st.Account().GetAccountForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		if s.freeMode {
			_, err = st.Transaction().AppendTransaction(ctx, models.Transaction{
				UserID:       userID,
				Type:         models.TransactionTypeUsage,
				Amount:       -amount,
				BalanceAfter: account.Balance,
				Description:  description + " (free during launch)",
			})
			if err != nil {
				return err
			}

			result = DebitResult{CreditsUsed: amount, NewBalance: account.Balance}
			return nil
		}

		if account.Balance < amount {
			return &apperrors.InsufficientCreditsError{Requested: amount, Balance: account.Balance}
		}

		account.Balance -= amount
		account.TotalUsed += amount
		account, err = st.Account().UpdateAccount(ctx, account)
		if err != nil {
			return err
		}

		_, err = st.Transaction().AppendTransaction(ctx, models.Transaction{
			UserID:       userID,
			Type:         models.TransactionTypeUsage,
			Amount:       -amount,
			BalanceAfter: account.Balance,
			Description:  description,
		})
		if err != nil {
			return err
		}

		result = DebitResult{CreditsUsed: amount, NewBalance: account.Balance}
		return nil
	}

	err := s.storage.InTx(ctx, debit)

	if errors.Is(err, apperrors.ErrAccountNotFound) {
		if _, err = s.InitAccount(ctx, userID); err != nil {
			return DebitResult{}, err
		}
		err = s.storage.InTx(ctx, debit)
	}
	if err != nil {
		return DebitResult{}, err
	}

	return result, nil
}

// Credit grants credits. Purchases count even during the launch period, the
// payment stub calls this once a checkout succeeds.
func (s *Service) Credit(ctx context.Context, userID string, amount int64, txType string, description string, paymentID *string) (models.Account, error) {
	if amount <= 0 {
		return models.Account{}, apperrors.ErrInvalidAmount
	}

	var result models.Account

	credit := func(st repository.Storage) error {
		account, err := st.Account().GetAccountForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		account.Balance += amount
		if txType == models.TransactionTypePurchase {
			account.TotalPurchased += amount
		}

		account, err = st.Account().UpdateAccount(ctx, account)
		if err != nil {
			return err
		}

		_, err = st.Transaction().AppendTransaction(ctx, models.Transaction{
			UserID:       userID,
			Type:         txType,
			Amount:       amount,
			BalanceAfter: account.Balance,
			Description:  description,
			PaymentID:    paymentID,
		})
		if err != nil {
			return err
		}

		result = account
		return nil
	}

	err := s.storage.InTx(ctx, credit)

	if errors.Is(err, apperrors.ErrAccountNotFound) {
		if _, err = s.InitAccount(ctx, userID); err != nil {
			return models.Account{}, err
		}
		err = s.storage.InTx(ctx, credit)
	}
	if err != nil {
		return models.Account{}, err
	}

	return result, nil
}

// GetHistory returns the full audit trail, newest first.
func (s *Service) GetHistory(ctx context.Context, userID string) ([]models.Transaction, error) {
	return s.storage.Transaction().ListTransactions(ctx, userID)
}
