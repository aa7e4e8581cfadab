package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role represents the position an identity holds in the supply chain.
type Role string

const (
	RoleProducer     Role = "producer"
	RoleIntermediary Role = "intermediary"
	RoleConsumer     Role = "consumer"
)

// ValidRole reports whether s is a known role value.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleProducer, RoleIntermediary, RoleConsumer:
		return true
	}
	return false
}

// Identity represents a registered participant. Email is the durable key;
// the wallet address is optional and immutable once bound.
type Identity struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"` // Never expose
	WalletAddress *string   `json:"wallet_address,omitempty"`
	Role          Role      `json:"role"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasWallet returns true if a wallet address is bound to this identity.
func (i *Identity) HasWallet() bool {
	return i.WalletAddress != nil && *i.WalletAddress != ""
}
