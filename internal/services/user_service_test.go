package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Samarth07-ctrl/squadvault/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userColumns() []string {
	return []string{"id", "wallet_address", "name", "email", "joined_pools", "created_at", "updated_at"}
}

func TestUserService_Login(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := NewUserService(db)

	t.Run("creates user on first login", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery("INSERT INTO users").
			WithArgs("WALLET1").
			WillReturnRows(sqlmock.NewRows(userColumns()).
				AddRow(1, "WALLET1", models.DefaultUserName, "", []byte("{}"), now, now))

		req := httptest.NewRequest(http.MethodPost, "/users/login", strings.NewReader(`{"walletAddress":"WALLET1"}`))
		w := httptest.NewRecorder()
		service.Login(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var user models.User
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
		assert.Equal(t, "WALLET1", user.WalletAddress)
		assert.Equal(t, models.DefaultUserName, user.Name)
		assert.Empty(t, user.JoinedPools)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns existing user on repeat login", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery("INSERT INTO users").
			WithArgs("WALLET1").
			WillReturnRows(sqlmock.NewRows(userColumns()).
				AddRow(1, "WALLET1", "Alice", "alice@example.com", []byte("{101,102}"), now, now))

		req := httptest.NewRequest(http.MethodPost, "/users/login", strings.NewReader(`{"walletAddress":"WALLET1"}`))
		w := httptest.NewRecorder()
		service.Login(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var user models.User
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
		assert.Equal(t, 1, user.ID)
		assert.Equal(t, []string{"101", "102"}, []string(user.JoinedPools))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing wallet address", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/users/login", strings.NewReader(`{}`))
		w := httptest.NewRecorder()
		service.Login(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/users/login", strings.NewReader(`not-json`))
		w := httptest.NewRecorder()
		service.Login(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUserService_GetProfile(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := NewUserService(db)

	t.Run("existing user", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery("SELECT (.+) FROM users WHERE wallet_address").
			WithArgs("WALLET1").
			WillReturnRows(sqlmock.NewRows(userColumns()).
				AddRow(1, "WALLET1", "Alice", "", []byte("{101}"), now, now))

		req := newRequestWithURLParam(http.MethodGet, "/users/WALLET1", "walletAddress", "WALLET1")
		w := httptest.NewRecorder()
		service.GetProfile(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var user models.User
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
		assert.Equal(t, "Alice", user.Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown user", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM users WHERE wallet_address").
			WithArgs("MISSING").
			WillReturnRows(sqlmock.NewRows(userColumns()))

		req := newRequestWithURLParam(http.MethodGet, "/users/MISSING", "walletAddress", "MISSING")
		w := httptest.NewRecorder()
		service.GetProfile(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// newRequestWithURLParam builds a request whose chi route context carries a
// single URL parameter, so handlers can be exercised without a router.
func newRequestWithURLParam(method, target, key, value string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}
