package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Tolits3/PanelX-Backend/internal/apperrors"
	"github.com/Tolits3/PanelX-Backend/internal/models"
)

type accountRepo struct {
	s  *Storage
	tx *txStorage
}

func (r *accountRepo) CreateAccount(ctx context.Context, userID string, balance int64) (models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.accounts[userID]; ok {
		return models.Account{}, apperrors.ErrAccountExists
	}

	account := models.Account{
		UserID:    userID,
		Balance:   balance,
		CreatedAt: time.Now().UTC(),
	}
	r.s.accounts[userID] = account
	r.s.persistLocked()

	return account, nil
}

func (r *accountRepo) GetAccount(ctx context.Context, userID string) (models.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	account, ok := r.s.accounts[userID]
	if !ok {
		return models.Account{}, apperrors.ErrAccountNotFound
	}

	return account, nil
}

func (r *accountRepo) GetAccountForUpdate(ctx context.Context, userID string) (models.Account, error) {
	// Outside a transaction scope there is nothing to pin the lock to, so
	// behave as a plain read, same as FOR UPDATE on autocommit.
	if r.tx != nil {
		r.tx.lockAccount(userID)
	}

	return r.GetAccount(ctx, userID)
}

func (r *accountRepo) UpdateAccount(ctx context.Context, account models.Account) (models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.accounts[account.UserID]
	if !ok {
		return models.Account{}, apperrors.ErrAccountNotFound
	}

	stored.Balance = account.Balance
	stored.TotalPurchased = account.TotalPurchased
	stored.TotalUsed = account.TotalUsed
	r.s.accounts[account.UserID] = stored
	r.s.persistLocked()

	return stored, nil
}

type transactionRepo struct {
	s *Storage
}

func (r *transactionRepo) AppendTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	r.s.transactions[t.UserID] = append(r.s.transactions[t.UserID], t)
	r.s.persistLocked()

	return t, nil
}

func (r *transactionRepo) ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	// Insertion order is chronological, return newest first
	stored := r.s.transactions[userID]
	txs := make([]models.Transaction, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		txs = append(txs, stored[i])
	}

	return txs, nil
}
