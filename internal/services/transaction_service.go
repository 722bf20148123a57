package services

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/Samarth07-ctrl/squadvault/internal/audit"
	"github.com/Samarth07-ctrl/squadvault/internal/models"
	"github.com/go-chi/chi/v5"
)

// TransactionService is the append-only ledger of reported on-chain payments.
// The chain transaction ID is the idempotency key: a duplicate report is
// rejected, never merged or overwritten.
type TransactionService struct {
	db        *sql.DB
	audit     *audit.Logger
	validator *ValidationHelper
}

func NewTransactionService(db *sql.DB) *TransactionService {
	return &TransactionService{
		db:        db,
		audit:     audit.NewLogger(),
		validator: NewValidationHelper(),
	}
}

// RecordTransaction stores a confirmed chain transaction exactly once.
// @Summary Record a confirmed on-chain transaction
// @Description Called after the chain transaction succeeds. Duplicate txIds are rejected with 409.
// @Tags transactions
// @Accept json
// @Produce json
// @Param transaction body object{txId=string,poolId=string,sender=string,amount=int64,type=string} true "Transaction data"
// @Success 201 {object} models.Transaction
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /transactions [post]
func (ts *TransactionService) RecordTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TxID   string `json:"txId" validate:"required"`
		PoolID string `json:"poolId" validate:"required"`
		Sender string `json:"sender" validate:"required"`
		Amount int64  `json:"amount" validate:"required,gt=0"`
		Type   string `json:"type" validate:"omitempty,oneof=CONTRIBUTION WITHDRAWAL PENALTY"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	// Absent type falls back to the schema default; an unrecognized value is
	// rejected by the oneof tag above rather than coerced.
	if req.Type == "" {
		req.Type = models.TxTypeContribution
	}

	if err := ts.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	tx := models.Transaction{
		TxID:      req.TxID,
		PoolID:    req.PoolID,
		Sender:    req.Sender,
		Amount:    req.Amount,
		Type:      req.Type,
		Status:    models.TxStatusConfirmed,
		Timestamp: time.Now().UTC(),
	}

	err := ts.db.QueryRowContext(r.Context(), `
		INSERT INTO transactions (tx_id, pool_id, sender, amount, type, status, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		tx.TxID, tx.PoolID, tx.Sender, tx.Amount, tx.Type, tx.Status, tx.Timestamp,
	).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		if _, ok := isUniqueViolation(err); ok {
			ts.audit.LogError(tx.TxID, tx.PoolID, fmt.Errorf("duplicate transaction report"))
			SendErrorResponse(w, fmt.Sprintf("Transaction %s already recorded", tx.TxID), http.StatusConflict, nil)
			return
		}
		log.Printf("[TRANSACTION] Record failed for txId %s: %v", tx.TxID, err)
		ts.audit.LogError(tx.TxID, tx.PoolID, err)
		SendErrorResponse(w, "Failed to record transaction", http.StatusInternalServerError, nil)
		return
	}

	ts.audit.LogRecord(tx.TxID, tx.PoolID, tx.Sender, tx.Amount, tx.Type)

	WriteJSON(w, http.StatusCreated, tx)
}

// ListPoolTransactions returns a pool's transactions newest-first.
// @Summary List transactions for a pool
// @Tags transactions
// @Produce json
// @Param poolId path string true "Pool appId"
// @Param limit query int false "Max transactions to return (default 50, max 100)"
// @Param cursor query string false "RFC3339 createdAt cursor"
// @Success 200 {object} object{transactions=[]models.Transaction,count=int}
// @Router /transactions/pool/{poolId} [get]
func (ts *TransactionService) ListPoolTransactions(w http.ResponseWriter, r *http.Request) {
	poolID := chi.URLParam(r, "poolId")

	limit, cursor, err := parseListParams(r)
	if err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	query := `
		SELECT id, tx_id, pool_id, sender, amount, type, status, timestamp, created_at
		FROM transactions WHERE pool_id = $1`
	args := []any{poolID}
	if cursor != nil {
		query += ` AND created_at < $2`
		args = append(args, *cursor)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := ts.db.QueryContext(r.Context(), query, args...)
	if err != nil {
		log.Printf("[TRANSACTION] List failed for poolId %s: %v", poolID, err)
		SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(&tx.ID, &tx.TxID, &tx.PoolID, &tx.Sender, &tx.Amount,
			&tx.Type, &tx.Status, &tx.Timestamp, &tx.CreatedAt); err != nil {
			log.Printf("[TRANSACTION] Scan failed: %v", err)
			SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
			return
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		log.Printf("[TRANSACTION] List failed for poolId %s: %v", poolID, err)
		SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"transactions": transactions,
		"count":        len(transactions),
	})
}
