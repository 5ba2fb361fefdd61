// Package ctf converts collateral into a binary market's outcome token pair
// (split) and back (merge), routing each call to either the neg-risk adapter
// or the ConditionalTokens contract.
package ctf

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"poly-mergesplit/internal/jsonl"
)

type Op string

const (
	OpSplit Op = "split"
	OpMerge Op = "merge"
)

// Stage is the lifecycle position of a single conversion:
// Built -> Submitted -> Confirmed | Rejected.
type Stage string

const (
	StageBuilt     Stage = "built"
	StageSubmitted Stage = "submitted"
	StageConfirmed Stage = "confirmed"
	StageRejected  Stage = "rejected"
)

// Converter runs split and merge for one market. Calls are strictly
// sequential; a Converter is not meant to be shared between goroutines.
type Converter struct {
	market Market
	target Target
	signer Signer
	waiter Waiter

	logger      *zap.Logger
	events      *jsonl.Writer
	runID       string
	waitTimeout time.Duration
	now         func() time.Time
}

type Option func(*Converter)

func WithLogger(l *zap.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithEventLog records every stage transition as a JSONL event.
func WithEventLog(w *jsonl.Writer) Option {
	return func(c *Converter) { c.events = w }
}

// WithRunID tags every recorded event so the stages of one process run can be
// grouped.
func WithRunID(id string) Option {
	return func(c *Converter) { c.runID = id }
}

// WithWaitTimeout bounds the wait for a receipt. Zero (the default) waits
// until the chain client resolves the transaction.
func WithWaitTimeout(d time.Duration) Option {
	return func(c *Converter) { c.waitTimeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(c *Converter) {
		if now != nil {
			c.now = now
		}
	}
}

func NewConverter(market Market, target Target, signer Signer, waiter Waiter, opts ...Option) *Converter {
	c := &Converter{
		market: market,
		target: target,
		signer: signer,
		waiter: waiter,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(
		zap.String("condition", market.ConditionID().Hex()),
		zap.String("target", target.Name()),
	)
	return c
}

// Split locks amount of collateral and mints amount of each outcome token.
func (c *Converter) Split(ctx context.Context, amount *big.Int) (*types.Receipt, error) {
	return c.convert(ctx, OpSplit, amount, c.target.Split)
}

// Merge burns amount of each outcome token and returns amount of collateral.
func (c *Converter) Merge(ctx context.Context, amount *big.Int) (*types.Receipt, error) {
	return c.convert(ctx, OpMerge, amount, c.target.Merge)
}

type submitFunc func(opts *bind.TransactOpts, amount *big.Int) (*types.Transaction, error)

func (c *Converter) convert(ctx context.Context, op Op, amount *big.Int, submit submitFunc) (*types.Receipt, error) {
	log := c.logger.With(zap.String("op", string(op)), zap.String("amount", FormatAmount(amount)))

	if err := validateAmount(amount); err != nil {
		return nil, c.rejectSubmission(log, op, amount, err)
	}
	amount = new(big.Int).Set(amount)

	opts, err := c.signer.TransactOpts(ctx)
	if err != nil {
		return nil, c.rejectSubmission(log, op, amount, err)
	}
	c.record(conversionEvent{Op: op, Stage: StageBuilt, Amount: amount.String(), From: opts.From.Hex()})
	log.Debug("conversion built", zap.String("from", opts.From.Hex()))

	tx, err := submit(opts, amount)
	if err != nil {
		return nil, c.rejectSubmission(log, op, amount, err)
	}
	if tx == nil {
		return nil, c.rejectSubmission(log, op, amount, errors.New("no transaction returned"))
	}

	txHash := tx.Hash()
	log = log.With(zap.String("tx", txHash.Hex()))
	log.Info("conversion submitted", zap.Uint64("nonce", tx.Nonce()))
	c.record(conversionEvent{Op: op, Stage: StageSubmitted, Amount: amount.String(), TxHash: txHash.Hex(), Nonce: tx.Nonce()})

	// Once submitted the outcome is decided on chain; caller cancellation must
	// not abandon the wait.
	waitCtx := context.WithoutCancel(ctx)
	if c.waitTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(waitCtx, c.waitTimeout)
		defer cancel()
	}

	receipt, err := c.waiter.WaitMined(waitCtx, tx)
	if err == nil && receipt == nil {
		err = errors.New("no receipt returned")
	}
	if err != nil {
		cerr := &ConfirmationError{Op: op, Target: c.target.Name(), TxHash: txHash, Err: err}
		c.reject(log, op, amount, cerr, txHash.Hex(), 0)
		return nil, cerr
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		cerr := &ConfirmationError{Op: op, Target: c.target.Name(), TxHash: txHash, Status: receipt.Status, Err: ErrReverted}
		c.reject(log, op, amount, cerr, txHash.Hex(), blockNumber(receipt))
		return receipt, cerr
	}

	log.Info("conversion confirmed",
		zap.Uint64("block", blockNumber(receipt)),
		zap.Uint64("gas_used", receipt.GasUsed),
	)
	c.record(conversionEvent{
		Op:      op,
		Stage:   StageConfirmed,
		Amount:  amount.String(),
		TxHash:  txHash.Hex(),
		Block:   blockNumber(receipt),
		GasUsed: receipt.GasUsed,
		Status:  receipt.Status,
		Ok:      true,
	})
	return receipt, nil
}

func (c *Converter) rejectSubmission(log *zap.Logger, op Op, amount *big.Int, err error) error {
	serr := &SubmissionError{Op: op, Target: c.target.Name(), Err: err}
	c.reject(log, op, amount, serr, "", 0)
	return serr
}

func (c *Converter) reject(log *zap.Logger, op Op, amount *big.Int, err error, txHash string, block uint64) {
	log.Error("conversion rejected", zap.Error(err))
	ev := conversionEvent{Op: op, Stage: StageRejected, TxHash: txHash, Block: block, Err: err.Error()}
	if amount != nil {
		ev.Amount = amount.String()
	}
	c.record(ev)
}

func blockNumber(r *types.Receipt) uint64 {
	if r == nil || r.BlockNumber == nil {
		return 0
	}
	return r.BlockNumber.Uint64()
}
