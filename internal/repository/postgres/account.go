package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Tolits3/PanelX-Backend/internal/apperrors"
	"github.com/Tolits3/PanelX-Backend/internal/models"
)

type AccountRepo struct {
	DB DBTX
}

const createAccount = `-- name: CreateAccount
INSERT INTO accounts (user_id, balance)
VALUES ($1, $2)
RETURNING user_id, balance, total_purchased, total_used, created_at
`

func (r *AccountRepo) CreateAccount(ctx context.Context, userID string, balance int64) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, createAccount, userID, balance)
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return account, apperrors.ErrAccountExists
		}

		return account, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

const getAccount = `-- name: GetAccount
SELECT user_id, balance, total_purchased, total_used, created_at FROM accounts
WHERE user_id = $1
`

func (r *AccountRepo) GetAccount(ctx context.Context, userID string) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, getAccount, userID)
	return collectAccount(rows)
}

const getAccountForUpdate = `-- name: GetAccountForUpdate
SELECT user_id, balance, total_purchased, total_used, created_at FROM accounts
WHERE user_id = $1
FOR UPDATE
`

// GetAccountForUpdate locks the account row until the enclosing transaction
// ends. Must be called inside InTx, outside a transaction the lock is
// released immediately and gives no protection.
func (r *AccountRepo) GetAccountForUpdate(ctx context.Context, userID string) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, getAccountForUpdate, userID)
	return collectAccount(rows)
}

const updateAccount = `-- name: UpdateAccount
UPDATE accounts
SET balance = $2, total_purchased = $3, total_used = $4
WHERE user_id = $1
RETURNING user_id, balance, total_purchased, total_used, created_at
`

func (r *AccountRepo) UpdateAccount(ctx context.Context, account models.Account) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, updateAccount, account.UserID, account.Balance, account.TotalPurchased, account.TotalUsed)
	return collectAccount(rows)
}

func collectAccount(rows pgx.Rows) (models.Account, error) {
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, pgx.ErrNoRows):
		return account, apperrors.ErrAccountNotFound
	default:
		return account, fmt.Errorf("db error: %w", err)
	}
}

func rowToAccount(row pgx.CollectableRow) (models.Account, error) {
	var a models.Account
	err := row.Scan(&a.UserID, &a.Balance, &a.TotalPurchased, &a.TotalUsed, &a.CreatedAt)
	return a, err
}
