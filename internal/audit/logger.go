package audit

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
)

type Event struct {
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	PoolID    string    `json:"pool_id,omitempty"`
	TxID      string    `json:"tx_id,omitempty"`
	Wallet    string    `json:"wallet,omitempty"`
	Amount    int64     `json:"amount,omitempty"`
	Status    string    `json:"status"`
	Details   any       `json:"details,omitempty"`
}

// Logger emits structured JSON audit events for every ledger and membership
// write, including the best-effort writes that fail without failing the
// request.
type Logger struct{}

func NewLogger() *Logger {
	return &Logger{}
}

func (a *Logger) LogRecord(txID, poolID, sender string, amount int64, txType string) {
	a.log(Event{
		EventType: "LEDGER_RECORD",
		TxID:      txID,
		PoolID:    poolID,
		Wallet:    sender,
		Amount:    amount,
		Status:    "SUCCESS",
		Details:   map[string]string{"type": txType},
	})
}

func (a *Logger) LogMembership(poolID, wallet, operation string) {
	a.log(Event{
		EventType: operation,
		PoolID:    poolID,
		Wallet:    wallet,
		Status:    "SUCCESS",
	})
}

// LogPartialFailure records a failed secondary write (the denormalized
// joinedPools index). The primary write already committed, so this is a
// warning, not an error path.
func (a *Logger) LogPartialFailure(poolID, wallet string, err error) {
	a.log(Event{
		EventType: "JOINED_POOLS_UPDATE",
		PoolID:    poolID,
		Wallet:    wallet,
		Status:    "PARTIAL_FAILURE",
		Details:   map[string]string{"error": err.Error()},
	})
}

func (a *Logger) LogError(txID, poolID string, err error) {
	a.log(Event{
		EventType: "ERROR",
		TxID:      txID,
		PoolID:    poolID,
		Status:    "FAILED",
		Details:   map[string]string{"error": err.Error()},
	})
}

func (a *Logger) log(event Event) {
	event.EventID = uuid.New().String()
	event.Timestamp = time.Now().UTC()
	data, _ := json.Marshal(event)
	log.Printf("AUDIT: %s", string(data))
}
