// Package config assembles the immutable run configuration from .env, an
// optional TOML file and the process environment.
package config

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"poly-mergesplit/internal/ctf"
	"poly-mergesplit/internal/dotenv"
	"poly-mergesplit/internal/ethutil"
	"poly-mergesplit/internal/polygonutil"
)

const (
	DefaultChainID = 80002
	DefaultAmount  = "10"

	// FileEnv names the optional TOML file read before env overrides.
	FileEnv = "MERGESPLIT_CONFIG"
)

// ConfigurationError reports a missing or malformed inbound value. Field is
// the environment variable (or TOML key) at fault.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

var errRequired = errors.New("required")

// Config is built once at startup and only read afterwards.
type Config struct {
	ChainID    int64
	RPCURL     string
	PrivateKey *ecdsa.PrivateKey

	ConditionID common.Hash
	NegRisk     bool
	// Amount is in base units (6 decimals).
	Amount *big.Int

	// Contracts holds operator overrides; zero fields fall back to the
	// per-chain defaults.
	Contracts polygonutil.Contracts

	WaitTimeout  time.Duration
	EventLogPath string
	Preflight    bool
	LogLevel     string
}

// fileConfig mirrors the TOML layout. Secrets are env-only.
type fileConfig struct {
	ChainID     int64  `toml:"chain_id"`
	RPCURL      string `toml:"rpc_url"`
	ConditionID string `toml:"condition_id"`
	NegRisk     *bool  `toml:"is_neg_risk_market"`
	Amount      string `toml:"amount"`

	EncryptedKeyPath string `toml:"encrypted_key_path"`

	Contracts struct {
		NegRiskAdapter    string `toml:"neg_risk_adapter"`
		ConditionalTokens string `toml:"conditional_tokens"`
		Collateral        string `toml:"collateral"`
	} `toml:"contracts"`

	WaitTimeout string `toml:"wait_timeout"`
	EventLog    string `toml:"event_log"`
	Preflight   *bool  `toml:"preflight"`
	LogLevel    string `toml:"log_level"`
}

// raw holds every value as text until validation.
type raw struct {
	chainID          string
	rpcURL           string
	privateKey       string
	encryptedKeyPath string
	keyPassword      string
	conditionID      string
	negRisk          string
	amount           string
	negRiskAdapter   string
	conditional      string
	collateral       string
	waitTimeout      string
	eventLog         string
	preflight        string
	logLevel         string
}

func defaults() raw {
	return raw{
		chainID:   strconv.Itoa(DefaultChainID),
		amount:    DefaultAmount,
		preflight: "false",
		logLevel:  "info",
	}
}

// Load reads .env (missing file is fine) and then builds the configuration
// from the environment.
func Load() (*Config, error) {
	if err := dotenv.Load(); err != nil {
		return nil, &ConfigurationError{Field: ".env", Err: err}
	}
	return FromEnv()
}

// FromEnv applies defaults, then the TOML file named by MERGESPLIT_CONFIG if
// any, then environment variables.
func FromEnv() (*Config, error) {
	r := defaults()
	if path := strings.TrimSpace(os.Getenv(FileEnv)); path != "" {
		if err := r.applyFile(path); err != nil {
			return nil, err
		}
	}
	r.applyEnv()
	return r.build()
}

func (r *raw) applyFile(path string) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return &ConfigurationError{Field: FileEnv, Err: err}
	}
	if fc.ChainID != 0 {
		r.chainID = strconv.FormatInt(fc.ChainID, 10)
	}
	setRaw(&r.rpcURL, fc.RPCURL)
	setRaw(&r.conditionID, fc.ConditionID)
	if fc.NegRisk != nil {
		r.negRisk = strconv.FormatBool(*fc.NegRisk)
	}
	setRaw(&r.amount, fc.Amount)
	setRaw(&r.encryptedKeyPath, fc.EncryptedKeyPath)
	setRaw(&r.negRiskAdapter, fc.Contracts.NegRiskAdapter)
	setRaw(&r.conditional, fc.Contracts.ConditionalTokens)
	setRaw(&r.collateral, fc.Contracts.Collateral)
	setRaw(&r.waitTimeout, fc.WaitTimeout)
	setRaw(&r.eventLog, fc.EventLog)
	if fc.Preflight != nil {
		r.preflight = strconv.FormatBool(*fc.Preflight)
	}
	setRaw(&r.logLevel, fc.LogLevel)
	return nil
}

func (r *raw) applyEnv() {
	setStr(&r.chainID, "CHAIN_ID")
	setStr(&r.rpcURL, "RPC_URL", "RPC_WS_URL")
	setStr(&r.privateKey, "PK", "PRIVATE_KEY")
	setStr(&r.encryptedKeyPath, "ENCRYPTED_KEY_PATH")
	setStr(&r.keyPassword, "KEY_PASSWORD")
	setStr(&r.conditionID, "CONDITION_ID")
	setStr(&r.negRisk, "IS_NEG_RISK_MARKET")
	setStr(&r.amount, "AMOUNT")
	setStr(&r.negRiskAdapter, "NEG_RISK_ADAPTER")
	setStr(&r.conditional, "CONDITIONAL_TOKENS")
	setStr(&r.collateral, "COLLATERAL")
	setStr(&r.waitTimeout, "WAIT_TIMEOUT")
	setStr(&r.eventLog, "EVENT_LOG")
	setStr(&r.preflight, "PREFLIGHT")
	setStr(&r.logLevel, "LOG_LEVEL")
}

func (r raw) build() (*Config, error) {
	cfg := &Config{
		EventLogPath: strings.TrimSpace(r.eventLog),
		LogLevel:     strings.TrimSpace(r.logLevel),
	}

	chainID, err := strconv.ParseInt(strings.TrimSpace(r.chainID), 10, 64)
	if err != nil || chainID <= 0 {
		return nil, &ConfigurationError{Field: "CHAIN_ID", Err: fmt.Errorf("invalid chain id %q", r.chainID)}
	}
	cfg.ChainID = chainID

	if cfg.RPCURL, err = polygonutil.ValidateRPCURL(r.rpcURL); err != nil {
		return nil, &ConfigurationError{Field: "RPC_URL", Err: err}
	}

	if cfg.PrivateKey, err = r.loadKey(); err != nil {
		return nil, err
	}

	if strings.TrimSpace(r.conditionID) == "" {
		return nil, &ConfigurationError{Field: "CONDITION_ID", Err: errRequired}
	}
	if cfg.ConditionID, err = ethutil.ParseConditionID(r.conditionID); err != nil {
		return nil, &ConfigurationError{Field: "CONDITION_ID", Err: err}
	}

	if cfg.NegRisk, err = parseFlag(r.negRisk, true); err != nil {
		return nil, &ConfigurationError{Field: "IS_NEG_RISK_MARKET", Err: err}
	}

	if cfg.Amount, err = ctf.ParseAmount(r.amount); err != nil {
		return nil, &ConfigurationError{Field: "AMOUNT", Err: err}
	}

	if cfg.Contracts.NegRiskAdapter, err = ethutil.ParseAddress(r.negRiskAdapter); err != nil {
		return nil, &ConfigurationError{Field: "NEG_RISK_ADAPTER", Err: err}
	}
	if cfg.Contracts.ConditionalTokens, err = ethutil.ParseAddress(r.conditional); err != nil {
		return nil, &ConfigurationError{Field: "CONDITIONAL_TOKENS", Err: err}
	}
	if cfg.Contracts.Collateral, err = ethutil.ParseAddress(r.collateral); err != nil {
		return nil, &ConfigurationError{Field: "COLLATERAL", Err: err}
	}

	if s := strings.TrimSpace(r.waitTimeout); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d < 0 {
			return nil, &ConfigurationError{Field: "WAIT_TIMEOUT", Err: fmt.Errorf("invalid duration %q", s)}
		}
		cfg.WaitTimeout = d
	}

	if cfg.Preflight, err = parseFlag(r.preflight, false); err != nil {
		return nil, &ConfigurationError{Field: "PREFLIGHT", Err: err}
	}
	return cfg, nil
}

func (r raw) loadKey() (*ecdsa.PrivateKey, error) {
	if k := strings.TrimSpace(r.privateKey); k != "" {
		pk, err := crypto.HexToECDSA(strings.TrimPrefix(k, "0x"))
		if err != nil {
			return nil, &ConfigurationError{Field: "PK", Err: fmt.Errorf("invalid private key: %w", err)}
		}
		return pk, nil
	}
	if path := strings.TrimSpace(r.encryptedKeyPath); path != "" {
		if r.keyPassword == "" {
			return nil, &ConfigurationError{Field: "KEY_PASSWORD", Err: errRequired}
		}
		pk, err := LoadKeyFile(path, r.keyPassword)
		if err != nil {
			return nil, &ConfigurationError{Field: "ENCRYPTED_KEY_PATH", Err: err}
		}
		return pk, nil
	}
	return nil, &ConfigurationError{Field: "PK", Err: errors.New("PK/PRIVATE_KEY or ENCRYPTED_KEY_PATH required")}
}

// parseFlag accepts only the literals "true" and "false".
func parseFlag(s string, required bool) (bool, error) {
	switch strings.TrimSpace(s) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "":
		if required {
			return false, errRequired
		}
		return false, nil
	default:
		return false, fmt.Errorf("must be \"true\" or \"false\", got %q", s)
	}
}

func setRaw(dst *string, v string) {
	if strings.TrimSpace(v) != "" {
		*dst = v
	}
}

// setStr takes the first non-empty variable among keys.
func setStr(dst *string, keys ...string) {
	vals := make([]string, 0, len(keys))
	for _, k := range keys {
		vals = append(vals, os.Getenv(k))
	}
	if v := ethutil.FirstNonEmpty(vals...); v != "" {
		*dst = v
	}
}
