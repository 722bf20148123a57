package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"os"

	"github.com/Samarth07-ctrl/squadvault/internal/algod"
	"github.com/Samarth07-ctrl/squadvault/internal/config"
	"github.com/go-redis/redis/v8"
)

// StateSchema describes a contract's global or local state allocation.
type StateSchema struct {
	NumUint      int `json:"numUint"`
	NumByteSlice int `json:"numByteSlice"`
}

// DeploymentParams is everything a client needs to deploy a pool contract:
// compiled bytecode (base64) and the state schemas. The schema values are
// fixed by the contract's layout, not derived from the source.
type DeploymentParams struct {
	ApprovalProgram string      `json:"approvalProgram"`
	ClearProgram    string      `json:"clearProgram"`
	GlobalSchema    StateSchema `json:"globalSchema"`
	LocalSchema     StateSchema `json:"localSchema"`
}

// ContractService is the stateless compilation gateway: it reads the TEAL
// artifacts produced by the contract build step and compiles them through the
// node. Compile results are cached in redis keyed by source hash; the cache
// is an optimization only and every failure falls back to recompilation.
type ContractService struct {
	compiler algod.Compiler
	redis    *redis.Client
	cfg      *config.ContractConfig
}

func NewContractService(compiler algod.Compiler, redisClient *redis.Client, cfg *config.ContractConfig) *ContractService {
	return &ContractService{
		compiler: compiler,
		redis:    redisClient,
		cfg:      cfg,
	}
}

// DeploymentParams compiles both programs and returns deployment parameters.
// Both artifacts are checked before any compilation is attempted.
func (cs *ContractService) DeploymentParams(ctx context.Context) (*DeploymentParams, error) {
	approvalSource, err := os.ReadFile(cs.cfg.ApprovalPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrArtifactsMissing, cs.cfg.ApprovalPath)
	}
	clearSource, err := os.ReadFile(cs.cfg.ClearStatePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrArtifactsMissing, cs.cfg.ClearStatePath)
	}

	approval, err := cs.compileCached(ctx, approvalSource)
	if err != nil {
		return nil, err
	}
	clearProg, err := cs.compileCached(ctx, clearSource)
	if err != nil {
		return nil, err
	}

	return &DeploymentParams{
		ApprovalProgram: approval,
		ClearProgram:    clearProg,
		// Global: Creator, PoolName (bytes); ContributionAmount, TotalFunds (uints).
		// Local: HasPaid, AmountPaid (uints).
		GlobalSchema: StateSchema{NumUint: 2, NumByteSlice: 2},
		LocalSchema:  StateSchema{NumUint: 2, NumByteSlice: 0},
	}, nil
}

func (cs *ContractService) compileCached(ctx context.Context, source []byte) (string, error) {
	sum := sha256.Sum256(source)
	key := "teal:compile:" + hex.EncodeToString(sum[:])

	if cs.redis != nil {
		if cached, err := cs.redis.Get(ctx, key).Result(); err == nil {
			return cached, nil
		} else if err != redis.Nil {
			log.Printf("[CONTRACT] Compile cache read failed: %v", err)
		}
	}

	result, err := cs.compiler.Compile(ctx, string(source))
	if err != nil {
		return "", err
	}

	if cs.redis != nil {
		if err := cs.redis.Set(ctx, key, result.Result, cs.cfg.CompileCacheTTL).Err(); err != nil {
			log.Printf("[CONTRACT] Compile cache write failed: %v", err)
		}
	}

	return result.Result, nil
}
