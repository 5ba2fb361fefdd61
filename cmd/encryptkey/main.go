// Command encryptkey writes PK, sealed with KEY_PASSWORD, to
// ENCRYPTED_KEY_PATH so that mergesplit can run without a plaintext key.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"poly-mergesplit/internal/config"
	"poly-mergesplit/internal/dotenv"
	"poly-mergesplit/internal/ethutil"
	"poly-mergesplit/internal/logging"
)

func main() {
	logger, err := logging.New(os.Getenv("LOG_LEVEL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "[fatal] %v\n", err)
		os.Exit(1)
	}
	if err := dotenv.Load(); err != nil {
		logger.Warn("dotenv", zap.Error(err))
	}
	if err := run(logger); err != nil {
		logger.Error("encryptkey failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run(logger *zap.Logger) error {
	raw := strings.TrimSpace(ethutil.FirstNonEmpty(os.Getenv("PK"), os.Getenv("PRIVATE_KEY")))
	if raw == "" {
		return errors.New("PK (or PRIVATE_KEY) required")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(raw, "0x"))
	if err != nil {
		return fmt.Errorf("invalid private key: %w", err)
	}
	password := os.Getenv("KEY_PASSWORD")
	path := strings.TrimSpace(os.Getenv("ENCRYPTED_KEY_PATH"))
	if path == "" {
		return errors.New("ENCRYPTED_KEY_PATH required")
	}

	blob, err := config.EncryptKey(key, password)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.Write(append(blob, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	logger.Info("encrypted key written",
		zap.String("path", path),
		zap.String("address", crypto.PubkeyToAddress(key.PublicKey).Hex()),
	)
	return nil
}
