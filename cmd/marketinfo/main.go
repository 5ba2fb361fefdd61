// Command marketinfo prints the .env lines mergesplit needs for the market
// named by MARKET_SLUG.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"poly-mergesplit/internal/dotenv"
	"poly-mergesplit/internal/gamma"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		logger.Error("marketinfo failed", zap.Error(err))
		stop()
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run(ctx context.Context, logger *zap.Logger) error {
	slug := strings.TrimSpace(os.Getenv("MARKET_SLUG"))
	if slug == "" {
		return errors.New("MARKET_SLUG required")
	}
	client, err := gamma.NewClient(os.Getenv("GAMMA_URL"))
	if err != nil {
		return err
	}
	m, err := client.MarketBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if m.Closed {
		logger.Warn("market is closed", zap.String("slug", m.Slug))
	}
	logger.Info("market",
		zap.String("slug", m.Slug),
		zap.String("question", m.Question),
		zap.Strings("outcomes", m.Outcomes),
		zap.Strings("token_ids", m.TokenIDs),
	)

	fmt.Printf("CONDITION_ID=%s\n", m.ConditionID.Hex())
	fmt.Printf("IS_NEG_RISK_MARKET=%t\n", m.NegRisk)
	return nil
}
