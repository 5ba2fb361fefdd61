package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"poly-mergesplit/internal/config"
	"poly-mergesplit/internal/ctf"
	"poly-mergesplit/internal/jsonl"
	"poly-mergesplit/internal/logging"
	"poly-mergesplit/internal/polygonutil"
	"poly-mergesplit/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[fatal] %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[fatal] %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// The first signal cancels ctx; the receipt wait ignores that, so restore
	// default handling and let a second signal terminate the process.
	releaseOnCancel(ctx, stop, logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("mergesplit failed", zap.String("kind", errorKind(err)), zap.Error(err))
		stop()
		_ = logger.Sync()
		os.Exit(1)
	}
	logger.Info("split and merge confirmed")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("dial polygon rpc: %w", err)
	}
	defer client.Close()

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("fetch chain id: %w", err)
	}
	if chainID.Cmp(big.NewInt(cfg.ChainID)) != 0 {
		return &config.ConfigurationError{
			Field: "CHAIN_ID",
			Err:   fmt.Errorf("configured %d but rpc reports %s", cfg.ChainID, chainID),
		}
	}

	contracts, err := polygonutil.ResolveContracts(ctx, cfg.ChainID, client, cfg.Contracts, logger)
	if err != nil {
		return &config.ConfigurationError{Field: "CHAIN_ID", Err: err}
	}
	logger.Info("contracts resolved",
		zap.Int64("chain_id", cfg.ChainID),
		zap.String("neg_risk_adapter", contracts.NegRiskAdapter.Hex()),
		zap.String("conditional_tokens", contracts.ConditionalTokens.Hex()),
		zap.String("collateral", contracts.Collateral.Hex()),
	)

	market, err := ctf.NewMarket(cfg.ConditionID, contracts.Collateral, cfg.NegRisk)
	if err != nil {
		return &config.ConfigurationError{Field: "CONDITION_ID", Err: err}
	}

	adapter, err := ctf.BindNegRiskAdapter(contracts.NegRiskAdapter, client)
	if err != nil {
		return err
	}
	conditional, err := ctf.BindConditionalTokens(contracts.ConditionalTokens, client)
	if err != nil {
		return err
	}
	target := ctf.SelectTarget(market, adapter, conditional)

	signer, err := ctf.NewKeySigner(cfg.PrivateKey, chainID)
	if err != nil {
		return &config.ConfigurationError{Field: "PK", Err: err}
	}

	events, err := jsonl.Open(cfg.EventLogPath)
	if err != nil {
		return &config.ConfigurationError{Field: "EVENT_LOG", Err: err}
	}
	if events != nil {
		logger.Info("event log", zap.String("path", events.Path()))
	}
	defer func() {
		if err := events.Close(); err != nil {
			logger.Warn("close event log", zap.Error(err))
		}
	}()

	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))
	logger.Info("mergesplit starting",
		zap.String("from", signer.Address().Hex()),
		zap.String("condition", market.ConditionID().Hex()),
		zap.Bool("neg_risk", market.NegRisk()),
		zap.String("target", target.Name()),
		zap.String("amount", ctf.FormatAmount(cfg.Amount)),
	)

	if cfg.Preflight {
		preflight(ctx, client, contracts, signer.Address(), cfg, logger)
	}

	conv := ctf.NewConverter(market, target, signer, ctf.MinedWaiter{Backend: client},
		ctf.WithLogger(logger),
		ctf.WithEventLog(events),
		ctf.WithRunID(runID),
		ctf.WithWaitTimeout(cfg.WaitTimeout),
	)

	res, err := workflow.Run(ctx, conv, cfg.Amount)
	if res.Split != nil {
		report(logger, ctf.OpSplit, res.Split, signer.Address(), contracts)
	}
	if res.Merge != nil {
		report(logger, ctf.OpMerge, res.Merge, signer.Address(), contracts)
	}
	return err
}

func releaseOnCancel(ctx context.Context, release func(), logger *zap.Logger) {
	context.AfterFunc(ctx, func() {
		release()
		logger.Warn("interrupted; an in-flight transaction is still awaited, signal again to abort")
	})
}

// errorKind names the failure class for the final log line.
func errorKind(err error) string {
	var (
		cfgErr  *config.ConfigurationError
		subErr  *ctf.SubmissionError
		confErr *ctf.ConfirmationError
	)
	switch {
	case errors.As(err, &cfgErr):
		return "configuration"
	case errors.As(err, &subErr):
		return "submission"
	case errors.As(err, &confErr):
		return "confirmation"
	default:
		return "unexpected"
	}
}
