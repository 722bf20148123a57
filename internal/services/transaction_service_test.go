package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Samarth07-ctrl/squadvault/internal/models"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func txColumns() []string {
	return []string{"id", "tx_id", "pool_id", "sender", "amount", "type", "status", "timestamp", "created_at"}
}

func TestTransactionService_RecordTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := NewTransactionService(db)

	t.Run("records a contribution", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO transactions").
			WithArgs("TX1", "101", "W2", int64(5000000), models.TxTypeContribution, models.TxStatusConfirmed, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, time.Now()))

		body := `{"txId":"TX1","poolId":"101","sender":"W2","amount":5000000,"type":"CONTRIBUTION"}`
		req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(body))
		w := httptest.NewRecorder()
		service.RecordTransaction(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var tx models.Transaction
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tx))
		assert.Equal(t, "TX1", tx.TxID)
		assert.Equal(t, models.TxStatusConfirmed, tx.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate txId is a conflict", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO transactions").
			WithArgs("TX1", "101", "W2", int64(5000000), models.TxTypeContribution, models.TxStatusConfirmed, sqlmock.AnyArg()).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "transactions_tx_id_key"})

		body := `{"txId":"TX1","poolId":"101","sender":"W2","amount":5000000,"type":"CONTRIBUTION"}`
		req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(body))
		w := httptest.NewRecorder()
		service.RecordTransaction(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "TX1")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("absent type defaults to contribution", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO transactions").
			WithArgs("TX2", "101", "W2", int64(1000), models.TxTypeContribution, models.TxStatusConfirmed, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(2, time.Now()))

		body := `{"txId":"TX2","poolId":"101","sender":"W2","amount":1000}`
		req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(body))
		w := httptest.NewRecorder()
		service.RecordTransaction(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var tx models.Transaction
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tx))
		assert.Equal(t, models.TxTypeContribution, tx.Type)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unrecognized type is rejected", func(t *testing.T) {
		body := `{"txId":"TX3","poolId":"101","sender":"W2","amount":1000,"type":"REFUND"}`
		req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(body))
		w := httptest.NewRecorder()
		service.RecordTransaction(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing required fields", func(t *testing.T) {
		body := `{"txId":"TX4"}`
		req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(body))
		w := httptest.NewRecorder()
		service.RecordTransaction(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTransactionService_ListPoolTransactions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := NewTransactionService(db)

	t.Run("newest first", func(t *testing.T) {
		older := time.Now().Add(-time.Hour)
		newer := time.Now()
		mock.ExpectQuery("SELECT (.+) FROM transactions WHERE pool_id").
			WithArgs("101", defaultListLimit).
			WillReturnRows(sqlmock.NewRows(txColumns()).
				AddRow(2, "TX2", "101", "W2", 5000000, models.TxTypeContribution, models.TxStatusConfirmed, newer, newer).
				AddRow(1, "TX1", "101", "W1", 5000000, models.TxTypeContribution, models.TxStatusConfirmed, older, older))

		req := newRequestWithURLParam(http.MethodGet, "/transactions/pool/101", "poolId", "101")
		w := httptest.NewRecorder()
		service.ListPoolTransactions(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Transactions []models.Transaction `json:"transactions"`
			Count        int                  `json:"count"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Equal(t, 2, resp.Count)
		assert.Equal(t, "TX2", resp.Transactions[0].TxID)
		assert.Equal(t, "TX1", resp.Transactions[1].TxID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty pool", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM transactions WHERE pool_id").
			WithArgs("999", defaultListLimit).
			WillReturnRows(sqlmock.NewRows(txColumns()))

		req := newRequestWithURLParam(http.MethodGet, "/transactions/pool/999", "poolId", "999")
		w := httptest.NewRecorder()
		service.ListPoolTransactions(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"count":0`)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
