package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"time"

	"github.com/Samarth07-ctrl/squadvault/internal/models"
	"github.com/go-redis/redis/v8"
	"github.com/skip2/go-qrcode"
)

const inviteTTL = 15 * time.Minute

// InviteService issues short-lived, QR-encodable invite codes for pools.
// Codes live in redis with a TTL and stay valid until expiry, so one QR can
// be scanned by several wallets. Claiming only resolves the pool; joining is
// still the explicit join operation.
type InviteService struct {
	db    *sql.DB
	redis *redis.Client
}

func NewInviteService(db *sql.DB, redisClient *redis.Client) *InviteService {
	return &InviteService{
		db:    db,
		redis: redisClient,
	}
}

type invitePayload struct {
	AppID    string `json:"appId"`
	Nonce    string `json:"nonce"`
	IssuedAt int64  `json:"issuedAt"`
	PoolName string `json:"poolName"`
	Amount   int64  `json:"amount"`
}

// GenerateInvite creates an invite code for the pool plus a base64 QR PNG.
func (s *InviteService) GenerateInvite(ctx context.Context, appID string) (string, string, error) {
	if s.redis == nil {
		return "", "", ErrInvitesUnavailable
	}

	pool, err := fetchPool(ctx, s.db, appID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", "", ErrNotFound
		}
		return "", "", err
	}

	payload := invitePayload{
		AppID:    pool.AppID,
		Nonce:    generateNonce(),
		IssuedAt: time.Now().Unix(),
		PoolName: pool.Name,
		Amount:   pool.ContributionAmount,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", "", err
	}

	code := base64.URLEncoding.EncodeToString(jsonData)

	key := fmt.Sprintf("invite:%s", code)
	if err := s.redis.Set(ctx, key, jsonData, inviteTTL).Err(); err != nil {
		return "", "", err
	}

	qr, err := qrcode.New(code, qrcode.Medium)
	if err != nil {
		return "", "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		return "", "", err
	}

	return code, base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// ClaimInvite resolves a scanned invite code to its pool.
func (s *InviteService) ClaimInvite(ctx context.Context, code string) (*models.Pool, error) {
	if s.redis == nil {
		return nil, ErrInvitesUnavailable
	}

	key := fmt.Sprintf("invite:%s", code)
	data, err := s.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("invalid or expired invite code")
	}
	if err != nil {
		return nil, err
	}

	var payload invitePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}

	pool, err := fetchPool(ctx, s.db, payload.AppID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return pool, nil
}

func generateNonce() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
