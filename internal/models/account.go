package models

import (
	"time"
)

// Account keeps the credit balance for one user. UserID is supplied by the
// caller (it comes from the identity provider) and is never generated here.
// TotalPurchased and TotalUsed are informational counters and are not used to
// derive the balance.
type Account struct {
	UserID         string
	Balance        int64
	TotalPurchased int64
	TotalUsed      int64
	CreatedAt      time.Time
}
