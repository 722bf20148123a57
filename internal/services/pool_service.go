package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/Samarth07-ctrl/squadvault/internal/audit"
	"github.com/Samarth07-ctrl/squadvault/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/lib/pq"
)

const defaultListLimit = 50

// PoolService is the pool registry: create/list/get pools and the append-only
// membership set. The pools table is the source of truth for membership; the
// users.joined_pools index is updated best-effort and never rolled back.
type PoolService struct {
	db        *sql.DB
	audit     *audit.Logger
	validator *ValidationHelper
}

func NewPoolService(db *sql.DB) *PoolService {
	return &PoolService{
		db:        db,
		audit:     audit.NewLogger(),
		validator: NewValidationHelper(),
	}
}

// CreatePool registers a freshly deployed pool contract.
// @Summary Create a pool
// @Description Registers pool metadata for a deployed contract. The creator becomes the first member.
// @Tags pools
// @Accept json
// @Produce json
// @Param pool body object{appId=string,creator=string,name=string,description=string,contributionAmount=int64,dueDate=string} true "Pool data"
// @Success 201 {object} models.Pool
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /pools [post]
func (ps *PoolService) CreatePool(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AppID              string     `json:"appId" validate:"required"`
		Creator            string     `json:"creator" validate:"required"`
		Name               string     `json:"name" validate:"required"`
		Description        string     `json:"description"`
		ContributionAmount int64      `json:"contributionAmount" validate:"required,gt=0"`
		DueDate            *time.Time `json:"dueDate"`
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

	if err := ps.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	pool := models.Pool{
		AppID:              req.AppID,
		Creator:            req.Creator,
		Name:               req.Name,
		Description:        req.Description,
		ContributionAmount: req.ContributionAmount,
		DueDate:            req.DueDate,
		Members:            pq.StringArray{req.Creator},
	}

	err := ps.db.QueryRowContext(r.Context(), `
		INSERT INTO pools (app_id, creator, name, description, contribution_amount, due_date, members)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		pool.AppID, pool.Creator, pool.Name, pool.Description, pool.ContributionAmount, pool.DueDate, pool.Members,
	).Scan(&pool.ID, &pool.CreatedAt, &pool.UpdatedAt)
	if err != nil {
		if _, ok := isUniqueViolation(err); ok {
			SendErrorResponse(w, fmt.Sprintf("Pool with appId %s already exists", pool.AppID), http.StatusConflict, nil)
			return
		}
		log.Printf("[POOL] Create failed for appId %s: %v", pool.AppID, err)
		SendErrorResponse(w, "Failed to create pool", http.StatusInternalServerError, nil)
		return
	}

	ps.audit.LogMembership(pool.AppID, pool.Creator, "POOL_CREATE")

	// Best-effort secondary index. The pool row is already committed; a
	// failure here is surfaced as a warning, never a rollback.
	if err := ps.appendJoinedPool(r.Context(), pool.Creator, pool.AppID); err != nil {
		ps.audit.LogPartialFailure(pool.AppID, pool.Creator, err)
	}

	WriteJSON(w, http.StatusCreated, pool)
}

// ListPools returns pools newest-first.
// @Summary List pools
// @Tags pools
// @Produce json
// @Param limit query int false "Max pools to return (default 50, max 100)"
// @Param cursor query string false "RFC3339 createdAt cursor; returns pools created before it"
// @Success 200 {object} object{pools=[]models.Pool,count=int}
// @Router /pools [get]
func (ps *PoolService) ListPools(w http.ResponseWriter, r *http.Request) {
	limit, cursor, err := parseListParams(r)
	if err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	query := `
		SELECT id, app_id, creator, name, description, contribution_amount, due_date, members, created_at, updated_at
		FROM pools`
	args := []any{}
	if cursor != nil {
		query += ` WHERE created_at < $1`
		args = append(args, *cursor)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := ps.db.QueryContext(r.Context(), query, args...)
	if err != nil {
		log.Printf("[POOL] List failed: %v", err)
		SendErrorResponse(w, "Failed to fetch pools", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	pools := []models.Pool{}
	for rows.Next() {
		var p models.Pool
		if err := scanPool(rows, &p); err != nil {
			log.Printf("[POOL] Scan failed: %v", err)
			SendErrorResponse(w, "Failed to fetch pools", http.StatusInternalServerError, nil)
			return
		}
		pools = append(pools, p)
	}
	if err := rows.Err(); err != nil {
		log.Printf("[POOL] List failed: %v", err)
		SendErrorResponse(w, "Failed to fetch pools", http.StatusInternalServerError, nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"pools": pools,
		"count": len(pools),
	})
}

// GetPool returns a single pool by its on-chain application ID.
// @Summary Get pool by appId
// @Tags pools
// @Produce json
// @Param appId path string true "On-chain application ID"
// @Success 200 {object} models.Pool
// @Failure 404 {object} ErrorResponse
// @Router /pools/{appId} [get]
func (ps *PoolService) GetPool(w http.ResponseWriter, r *http.Request) {
	appID := chi.URLParam(r, "appId")

	pool, err := fetchPool(r.Context(), ps.db, appID)
	if err != nil {
		if err == sql.ErrNoRows {
			SendErrorResponse(w, "Pool not found", http.StatusNotFound, nil)
		} else {
			log.Printf("[POOL] Fetch failed for appId %s: %v", appID, err)
			SendErrorResponse(w, "Failed to fetch pool", http.StatusInternalServerError, nil)
		}
		return
	}

	WriteJSON(w, http.StatusOK, pool)
}

// JoinPool appends a wallet to the pool's member set. Joining twice is a
// no-op that returns the current pool.
// @Summary Join a pool
// @Description Mirrors an on-chain opt-in. Idempotent for the same wallet.
// @Tags pools
// @Accept json
// @Produce json
// @Param request body object{appId=string,walletAddress=string} true "Join request"
// @Success 200 {object} models.Pool
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /pools/join [post]
func (ps *PoolService) JoinPool(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AppID         string `json:"appId" validate:"required"`
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

	if err := ps.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	pool, err := fetchPool(r.Context(), ps.db, req.AppID)
	if err != nil {
		if err == sql.ErrNoRows {
			SendErrorResponse(w, "Pool not found", http.StatusNotFound, nil)
		} else {
			log.Printf("[POOL] Join lookup failed for appId %s: %v", req.AppID, err)
			SendErrorResponse(w, "Failed to join pool", http.StatusInternalServerError, nil)
		}
		return
	}

	if pool.HasMember(req.WalletAddress) {
		WriteJSON(w, http.StatusOK, pool)
		return
	}

	// Conditional append: membership is re-verified at write time, so a
	// concurrent join by the same wallet cannot produce a duplicate entry
	// and concurrent joins by different wallets cannot lose updates.
	var updated models.Pool
	err = ps.db.QueryRowContext(r.Context(), `
		UPDATE pools
		SET members = array_append(members, $1), updated_at = now()
		WHERE app_id = $2 AND NOT ($1 = ANY(members))
		RETURNING id, app_id, creator, name, description, contribution_amount, due_date, members, created_at, updated_at`,
		req.WalletAddress, req.AppID,
	).Scan(&updated.ID, &updated.AppID, &updated.Creator, &updated.Name, &updated.Description,
		&updated.ContributionAmount, &updated.DueDate, &updated.Members, &updated.CreatedAt, &updated.UpdatedAt)
	if err == sql.ErrNoRows {
		// Lost the race to an identical join; the wallet is a member now.
		current, ferr := fetchPool(r.Context(), ps.db, req.AppID)
		if ferr != nil {
			log.Printf("[POOL] Join re-read failed for appId %s: %v", req.AppID, ferr)
			SendErrorResponse(w, "Failed to join pool", http.StatusInternalServerError, nil)
			return
		}
		WriteJSON(w, http.StatusOK, current)
		return
	}
	if err != nil {
		log.Printf("[POOL] Join failed for appId %s: %v", req.AppID, err)
		SendErrorResponse(w, "Failed to join pool", http.StatusInternalServerError, nil)
		return
	}

	ps.audit.LogMembership(req.AppID, req.WalletAddress, "POOL_JOIN")

	if err := ps.appendJoinedPool(r.Context(), req.WalletAddress, req.AppID); err != nil {
		ps.audit.LogPartialFailure(req.AppID, req.WalletAddress, err)
	}

	WriteJSON(w, http.StatusOK, updated)
}

// appendJoinedPool adds the appId to the user's denormalized joined_pools
// index, skipping duplicates. A missing user row is not an error: the index
// is a convenience, membership truth lives in pools.members.
func (ps *PoolService) appendJoinedPool(ctx context.Context, walletAddress, appID string) error {
	_, err := ps.db.ExecContext(ctx, `
		UPDATE users
		SET joined_pools = array_append(joined_pools, $1), updated_at = now()
		WHERE wallet_address = $2 AND NOT ($1 = ANY(joined_pools))`,
		appID, walletAddress)
	return err
}

// fetchPool loads a pool by appId. Shared by the pool and invite services.
func fetchPool(ctx context.Context, db *sql.DB, appID string) (*models.Pool, error) {
	var p models.Pool
	err := db.QueryRowContext(ctx, `
		SELECT id, app_id, creator, name, description, contribution_amount, due_date, members, created_at, updated_at
		FROM pools WHERE app_id = $1`,
		appID,
	).Scan(&p.ID, &p.AppID, &p.Creator, &p.Name, &p.Description,
		&p.ContributionAmount, &p.DueDate, &p.Members, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanPool(rows *sql.Rows, p *models.Pool) error {
	return rows.Scan(&p.ID, &p.AppID, &p.Creator, &p.Name, &p.Description,
		&p.ContributionAmount, &p.DueDate, &p.Members, &p.CreatedAt, &p.UpdatedAt)
}

// parseListParams reads the shared limit/cursor pagination query parameters.
func parseListParams(r *http.Request) (int, *time.Time, error) {
	limit := defaultListLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		val, err := strconv.Atoi(limitStr)
		if err != nil || val < 1 || val > 100 {
			return 0, nil, fmt.Errorf("limit must be an integer between 1 and 100")
		}
		limit = val
	}

	var cursor *time.Time
	if cursorStr := r.URL.Query().Get("cursor"); cursorStr != "" {
		ts, err := time.Parse(time.RFC3339, cursorStr)
		if err != nil {
			return 0, nil, fmt.Errorf("cursor must be an RFC3339 timestamp")
		}
		cursor = &ts
	}

	return limit, cursor, nil
}
