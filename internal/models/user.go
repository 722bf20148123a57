package models

import (
	"time"

	"github.com/lib/pq"
)

// DefaultUserName is assigned on first login until the user sets a real name.
const DefaultUserName = "Student"

// User is the off-chain identity record for a wallet address. The wallet
// address is the identity key; the numeric ID is internal to the store.
type User struct {
	ID            int            `json:"id" db:"id"`
	WalletAddress string         `json:"walletAddress" db:"wallet_address"`
	Name          string         `json:"name" db:"name"`
	Email         string         `json:"email,omitempty" db:"email"`
	JoinedPools   pq.StringArray `json:"joinedPools" db:"joined_pools"` // denormalized, best-effort index
	CreatedAt     time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time      `json:"updatedAt" db:"updated_at"`
}
