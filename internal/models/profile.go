package models

import (
	"time"
)

const (
	RoleCreator = "creator"
	RoleReader  = "reader"
)

// Profile is the user record created after signup on the identity provider
// side. UID is the external identifier, same string the ledger uses.
type Profile struct {
	UID       string
	Email     string
	Username  string
	Role      string
	AvatarURL string
	Bio       string
	CreatedAt time.Time
	UpdatedAt time.Time
}
