package services

import (
	"database/sql"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/Samarth07-ctrl/squadvault/internal/models"
	"github.com/go-chi/chi/v5"
)

// UserService is the identity registry: a get-or-create mapping from wallet
// address to user record. Users are created on first login and never deleted.
type UserService struct {
	db        *sql.DB
	validator *ValidationHelper
}

func NewUserService(db *sql.DB) *UserService {
	return &UserService{
		db:        db,
		validator: NewValidationHelper(),
	}
}

// Login returns the user for a wallet address, creating it on first sight.
// @Summary Login or create user by wallet address
// @Description Returns the existing user for the wallet address or atomically creates one with defaults
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{walletAddress=string} true "Wallet address"
// @Success 200 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Router /users/login [post]
func (us *UserService) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WalletAddress string `json:"walletAddress" validate:"required"`
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

	if err := us.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Wallet address is required", http.StatusBadRequest, err)
		return
	}

	// Single upsert so concurrent first logins for the same address cannot
	// create two rows. The no-op DO UPDATE makes RETURNING yield the row in
	// both the insert and the already-exists case.
	var user models.User
	err := us.db.QueryRowContext(r.Context(), `
		INSERT INTO users (wallet_address)
		VALUES ($1)
		ON CONFLICT (wallet_address) DO UPDATE SET updated_at = users.updated_at
		RETURNING id, wallet_address, name, email, joined_pools, created_at, updated_at`,
		req.WalletAddress,
	).Scan(&user.ID, &user.WalletAddress, &user.Name, &user.Email, &user.JoinedPools, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		log.Printf("[USER] Login failed for %s: %v", req.WalletAddress, err)
		SendErrorResponse(w, "Failed to login", http.StatusInternalServerError, nil)
		return
	}

	WriteJSON(w, http.StatusOK, user)
}

// GetProfile returns the user for the wallet address in the URL.
// @Summary Get user profile
// @Tags users
// @Produce json
// @Param walletAddress path string true "Wallet address"
// @Success 200 {object} models.User
// @Failure 404 {object} ErrorResponse
// @Router /users/{walletAddress} [get]
func (us *UserService) GetProfile(w http.ResponseWriter, r *http.Request) {
	walletAddress := chi.URLParam(r, "walletAddress")

	var user models.User
	err := us.db.QueryRowContext(r.Context(), `
		SELECT id, wallet_address, name, email, joined_pools, created_at, updated_at
		FROM users WHERE wallet_address = $1`,
		walletAddress,
	).Scan(&user.ID, &user.WalletAddress, &user.Name, &user.Email, &user.JoinedPools, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			SendErrorResponse(w, "User not found", http.StatusNotFound, nil)
		} else {
			log.Printf("[USER] Profile lookup failed for %s: %v", walletAddress, err)
			SendErrorResponse(w, "Failed to fetch user", http.StatusInternalServerError, nil)
		}
		return
	}

	WriteJSON(w, http.StatusOK, user)
}
