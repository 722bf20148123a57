package config

import (
	"os"
	"strconv"
	"time"
)

// ContractConfig locates the TEAL source artifacts produced by the contract
// build step and tunes the compile-result cache.
type ContractConfig struct {
	ApprovalPath    string
	ClearStatePath  string
	CompileCacheTTL time.Duration
}

// AlgodConfig points at the Algorand node used for TEAL compilation.
type AlgodConfig struct {
	Address     string
	Token       string
	Timeout     time.Duration
	MaxAttempts int
}

func LoadContractConfig() *ContractConfig {
	return &ContractConfig{
		ApprovalPath:    getEnv("CONTRACT_APPROVAL_PATH", "./smart_contracts/approval.teal"),
		ClearStatePath:  getEnv("CONTRACT_CLEAR_STATE_PATH", "./smart_contracts/clear_state.teal"),
		CompileCacheTTL: getEnvAsDuration("CONTRACT_COMPILE_CACHE_TTL", 1*time.Hour),
	}
}

func LoadAlgodConfig() *AlgodConfig {
	return &AlgodConfig{
		Address:     getEnv("ALGOD_SERVER", "http://localhost:4001"),
		Token:       getEnv("ALGOD_TOKEN", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
		Timeout:     getEnvAsDuration("ALGOD_TIMEOUT", 10*time.Second),
		MaxAttempts: getEnvAsInt("ALGOD_MAX_ATTEMPTS", 3),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}
