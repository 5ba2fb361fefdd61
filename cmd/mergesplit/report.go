package main

import (
	"context"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"poly-mergesplit/internal/config"
	"poly-mergesplit/internal/ctf"
	"poly-mergesplit/internal/polygonutil"
	"poly-mergesplit/internal/receipts"
)

func preflight(ctx context.Context, caller ethereum.ContractCaller, contracts polygonutil.Contracts, owner common.Address, cfg *config.Config, logger *zap.Logger) {
	r, err := polygonutil.Preflight(ctx, caller, contracts, owner, cfg.NegRisk)
	if err != nil {
		logger.Warn("preflight failed", zap.Error(err))
		return
	}
	logger.Info("preflight",
		zap.String("spender", r.Spender.Hex()),
		zap.String("balance", ctf.FormatAmount(r.Balance)),
		zap.String("allowance", ctf.FormatAmount(r.Allowance)),
		zap.Bool("operator_approved", r.OperatorApproved),
	)
	for _, w := range r.Warnings(cfg.Amount) {
		logger.Warn("preflight: " + w)
	}
}

// report logs what a mined receipt moved for the holder. Decoding problems
// are logged and never change the outcome.
func report(logger *zap.Logger, op ctf.Op, receipt *types.Receipt, holder common.Address, contracts polygonutil.Contracts) {
	log := logger.With(zap.String("op", string(op)), zap.String("tx", receipt.TxHash.Hex()))

	sum, err := receipts.Summarize(receipt, holder, contracts.Collateral, contracts.ConditionalTokens)
	if err != nil {
		log.Warn("receipt summary failed", zap.Error(err))
		return
	}
	log.Info("receipt summary",
		zap.String("collateral_delta", ctf.FormatAmount(sum.CollateralDelta)),
		zap.Strings("positions", sum.PositionIDs()),
		zap.String("sets_minted", ctf.FormatAmount(sum.Minted())),
		zap.String("sets_burned", ctf.FormatAmount(sum.Burned())),
	)

	evs, err := receipts.FindConversions(receipt)
	if err != nil {
		log.Warn("conversion event decode failed", zap.Error(err))
		return
	}
	for _, ev := range evs {
		log.Debug("conversion event",
			zap.String("kind", string(ev.Kind)),
			zap.String("emitter", ev.Emitter.Hex()),
			zap.String("stakeholder", ev.Stakeholder.Hex()),
			zap.String("condition", ev.ConditionID.Hex()),
			zap.String("amount", ctf.FormatAmount(ev.Amount)),
		)
	}
}
