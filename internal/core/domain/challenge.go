package domain

import "time"

// Challenge is a single-use signing challenge bound to a wallet address.
// At most one live challenge exists per wallet; issuing a new one replaces
// any prior outstanding challenge for that address.
type Challenge struct {
	WalletAddress string    `json:"wallet_address"`
	Email         string    `json:"email"`
	Role          Role      `json:"role"`
	Nonce         string    `json:"nonce"`
	IssuedAt      time.Time `json:"issued_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// IsExpired returns true if the challenge is past its expiry at time now.
func (c *Challenge) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
