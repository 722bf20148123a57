package models

import "time"

// Transaction types and statuses.
const (
	TxTypeContribution = "CONTRIBUTION"
	TxTypeWithdrawal   = "WITHDRAWAL"
	TxTypePenalty      = "PENALTY"

	TxStatusPending   = "PENDING"
	TxStatusConfirmed = "CONFIRMED"
)

// Transaction is one confirmed on-chain payment reported by a client. TxID is
// the chain-assigned transaction ID and the idempotency key; a row is written
// once and never mutated.
type Transaction struct {
	ID        int       `json:"id" db:"id"`
	TxID      string    `json:"txId" db:"tx_id"`
	PoolID    string    `json:"poolId" db:"pool_id"` // the pool's appId, a weak reference
	Sender    string    `json:"sender" db:"sender"`
	Amount    int64     `json:"amount" db:"amount"` // microAlgos
	Type      string    `json:"type" db:"type"`
	Status    string    `json:"status" db:"status"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
