package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TransactionTypeFreeGrant = "free_grant"
	TransactionTypeUsage     = "usage"
	TransactionTypePurchase  = "purchase"
)

// Transaction is an append-only ledger entry. Entries are never updated or
// deleted; the ordered sequence per user is the audit trail.
//
// Amount is negative for debits and positive for credits. BalanceAfter is the
// balance snapshot right after the entry was applied. In free launch mode a
// usage entry carries a negative Amount while BalanceAfter stays equal to the
// previous snapshot, so BalanceAfter is not derivable from the amounts alone.
type Transaction struct {
	ID           uuid.UUID
	UserID       string
	Type         string
	Amount       int64
	BalanceAfter int64
	Description  string
	PaymentID    *string
	CreatedAt    time.Time
}
