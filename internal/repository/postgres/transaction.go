package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Tolits3/PanelX-Backend/internal/models"
)

type TransactionRepo struct {
	DB DBTX
}

const appendTransaction = `-- name: AppendTransaction
INSERT INTO transactions (id, user_id, type, amount, balance_after, description, payment_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, user_id, type, amount, balance_after, description, payment_id, created_at
`

func (r *TransactionRepo) AppendTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	id := t.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, appendTransaction, id, t.UserID, t.Type, t.Amount, t.BalanceAfter, t.Description, t.PaymentID)
	tx, err := pgx.CollectOneRow(rows, rowToTransaction)
	if err != nil {
		return tx, fmt.Errorf("db error: %w", err)
	}

	return tx, nil
}

const listTransactions = `-- name: ListTransactions
SELECT id, user_id, type, amount, balance_after, description, payment_id, created_at FROM transactions
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
`

func (r *TransactionRepo) ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, listTransactions, userID)
	txs, err := pgx.CollectRows(rows, rowToTransaction)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if txs == nil {
		txs = []models.Transaction{}
	}

	return txs, nil
}

func rowToTransaction(row pgx.CollectableRow) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.BalanceAfter, &t.Description, &t.PaymentID, &t.CreatedAt)
	return t, err
}
