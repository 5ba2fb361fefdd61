// Package receipts reads what a confirmed split or merge moved, using only the
// logs of its receipt.
package receipts

import (
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	erc20TransferTopic         = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))
	erc1155TransferSingleTopic = crypto.Keccak256Hash([]byte("TransferSingle(address,address,address,uint256,uint256)"))
	erc1155TransferBatchTopic  = crypto.Keccak256Hash([]byte("TransferBatch(address,address,address,uint256[],uint256[])"))
)

// Summary is the net effect of one receipt on a holder.
type Summary struct {
	// CollateralDelta is positive when the holder received collateral.
	CollateralDelta *big.Int
	// PositionDeltas maps ERC-1155 position ids to the holder's net change.
	PositionDeltas map[string]*big.Int
}

// PositionIDs returns the ids with a non-zero delta in ascending order.
func (s *Summary) PositionIDs() []string {
	ids := make([]string, 0, len(s.PositionDeltas))
	for id, d := range s.PositionDeltas {
		if d.Sign() != 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Minted is the smallest positive position delta, i.e. the number of complete
// sets the holder gained. Zero if any position did not increase.
func (s *Summary) Minted() *big.Int { return s.completeSets(1) }

// Burned is the number of complete sets the holder gave up.
func (s *Summary) Burned() *big.Int { return s.completeSets(-1) }

func (s *Summary) completeSets(sign int) *big.Int {
	var out *big.Int
	for _, d := range s.PositionDeltas {
		if d.Sign() != sign {
			return new(big.Int)
		}
		abs := new(big.Int).Abs(d)
		if out == nil || abs.Cmp(out) < 0 {
			out = abs
		}
	}
	if out == nil {
		return new(big.Int)
	}
	return out
}

// Summarize nets collateral (ERC-20 Transfer from the collateral token) and
// outcome token (ERC-1155 transfers from the ConditionalTokens contract)
// movements in and out of holder. Mints come from the zero address and burns
// go to it, so both show up as ordinary transfers.
func Summarize(receipt *types.Receipt, holder, collateral, conditionalTokens common.Address) (*Summary, error) {
	if receipt == nil {
		return nil, errors.New("receipt required")
	}
	if holder == (common.Address{}) {
		return nil, errors.New("holder address required")
	}

	sum := &Summary{
		CollateralDelta: new(big.Int),
		PositionDeltas:  make(map[string]*big.Int),
	}
	addPosition := func(id, delta *big.Int) {
		if id == nil || delta == nil || delta.Sign() == 0 {
			return
		}
		key := id.String()
		if sum.PositionDeltas[key] == nil {
			sum.PositionDeltas[key] = new(big.Int)
		}
		sum.PositionDeltas[key].Add(sum.PositionDeltas[key], delta)
	}

	for _, lg := range receipt.Logs {
		if lg == nil || len(lg.Topics) == 0 {
			continue
		}

		switch lg.Topics[0] {
		case erc20TransferTopic:
			if lg.Address != collateral {
				continue
			}
			if len(lg.Topics) < 3 || len(lg.Data) < 32 {
				continue
			}
			from := common.BytesToAddress(lg.Topics[1].Bytes())
			to := common.BytesToAddress(lg.Topics[2].Bytes())
			value := new(big.Int).SetBytes(lg.Data[:32])
			if from == holder {
				sum.CollateralDelta.Sub(sum.CollateralDelta, value)
			}
			if to == holder {
				sum.CollateralDelta.Add(sum.CollateralDelta, value)
			}

		case erc1155TransferSingleTopic:
			if lg.Address != conditionalTokens {
				continue
			}
			if len(lg.Topics) < 4 || len(lg.Data) < 64 {
				continue
			}
			from := common.BytesToAddress(lg.Topics[2].Bytes())
			to := common.BytesToAddress(lg.Topics[3].Bytes())
			id := new(big.Int).SetBytes(lg.Data[:32])
			value := new(big.Int).SetBytes(lg.Data[32:64])
			if from == holder {
				addPosition(id, new(big.Int).Neg(value))
			}
			if to == holder {
				addPosition(id, value)
			}

		case erc1155TransferBatchTopic:
			if lg.Address != conditionalTokens {
				continue
			}
			if len(lg.Topics) < 4 {
				continue
			}
			from := common.BytesToAddress(lg.Topics[2].Bytes())
			to := common.BytesToAddress(lg.Topics[3].Bytes())
			ids, values, err := decodeTransferBatchData(lg.Data)
			if err != nil {
				return nil, fmt.Errorf("log %d: %w", lg.Index, err)
			}
			for i := range ids {
				if from == holder {
					addPosition(ids[i], new(big.Int).Neg(values[i]))
				}
				if to == holder {
					addPosition(ids[i], values[i])
				}
			}
		}
	}

	for id, d := range sum.PositionDeltas {
		if d.Sign() == 0 {
			delete(sum.PositionDeltas, id)
		}
	}
	return sum, nil
}

func decodeTransferBatchData(data []byte) ([]*big.Int, []*big.Int, error) {
	// data = offset(ids) | offset(values) | ...dynamic...
	if len(data) < 64 {
		return nil, nil, errors.New("batch data too short")
	}
	ids, err := decodeU256Slice(data, wordOffset(data[:32]))
	if err != nil {
		return nil, nil, err
	}
	vals, err := decodeU256Slice(data, wordOffset(data[32:64]))
	if err != nil {
		return nil, nil, err
	}
	if len(ids) != len(vals) {
		return nil, nil, fmt.Errorf("batch ids=%d values=%d", len(ids), len(vals))
	}
	return ids, vals, nil
}

func wordOffset(word []byte) int {
	v := new(big.Int).SetBytes(word)
	if !v.IsInt64() || v.Int64() > 1<<24 {
		return -1
	}
	return int(v.Int64())
}

func decodeU256Slice(data []byte, offset int) ([]*big.Int, error) {
	if offset < 0 || offset+32 > len(data) {
		return nil, fmt.Errorf("invalid offset %d", offset)
	}
	n := wordOffset(data[offset : offset+32])
	if n < 0 {
		return nil, errors.New("invalid length")
	}
	start := offset + 32
	end := start + n*32
	if end > len(data) {
		return nil, errors.New("slice out of range")
	}

	out := make([]*big.Int, 0, n)
	for i := 0; i < n; i++ {
		w := start + i*32
		out = append(out, new(big.Int).SetBytes(data[w:w+32]))
	}
	return out, nil
}
