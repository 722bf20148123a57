package models

import (
	"time"

	"github.com/lib/pq"
)

// Pool mirrors one deployed pool contract. AppID is the on-chain application
// ID and the primary lookup key; members only ever grows.
type Pool struct {
	ID                 int            `json:"id" db:"id"`
	AppID              string         `json:"appId" db:"app_id"`
	Creator            string         `json:"creator" db:"creator"`
	Name               string         `json:"name" db:"name"`
	Description        string         `json:"description" db:"description"`
	ContributionAmount int64          `json:"contributionAmount" db:"contribution_amount"` // microAlgos
	DueDate            *time.Time     `json:"dueDate,omitempty" db:"due_date"`
	Members            pq.StringArray `json:"members" db:"members"`
	CreatedAt          time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time      `json:"updatedAt" db:"updated_at"`
}

// PastDue reports whether the pool's due date has passed. Derived on read,
// never persisted.
func (p *Pool) PastDue(now time.Time) bool {
	return p.DueDate != nil && p.DueDate.Before(now)
}

// HasMember reports whether the wallet address is already in the member set.
func (p *Pool) HasMember(walletAddress string) bool {
	for _, m := range p.Members {
		if m == walletAddress {
			return true
		}
	}
	return false
}
