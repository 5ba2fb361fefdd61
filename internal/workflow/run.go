// Package workflow sequences the split-then-merge round trip.
package workflow

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
)

// Converter is the part of *ctf.Converter the workflow drives.
type Converter interface {
	Split(ctx context.Context, amount *big.Int) (*types.Receipt, error)
	Merge(ctx context.Context, amount *big.Int) (*types.Receipt, error)
}

type Result struct {
	Split *types.Receipt
	Merge *types.Receipt
}

// Run splits amount and, only once the split is confirmed, merges the same
// amount back. Errors are returned as produced by the converter.
func Run(ctx context.Context, conv Converter, amount *big.Int) (Result, error) {
	var res Result

	receipt, err := conv.Split(ctx, amount)
	res.Split = receipt
	if err != nil {
		return res, err
	}

	receipt, err = conv.Merge(ctx, amount)
	res.Merge = receipt
	if err != nil {
		return res, err
	}
	return res, nil
}
