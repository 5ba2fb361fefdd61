package receipts

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ctfPositionSplitTopic      = crypto.Keccak256Hash([]byte("PositionSplit(address,address,bytes32,bytes32,uint256[],uint256)"))
	ctfPositionsMergeTopic     = crypto.Keccak256Hash([]byte("PositionsMerge(address,address,bytes32,bytes32,uint256[],uint256)"))
	adapterPositionSplitTopic  = crypto.Keccak256Hash([]byte("PositionSplit(address,bytes32,uint256)"))
	adapterPositionsMergeTopic = crypto.Keccak256Hash([]byte("PositionsMerge(address,bytes32,uint256)"))
)

// ErrNotConversionLog is returned for logs that are neither a split nor a merge.
var ErrNotConversionLog = errors.New("not a split/merge log")

type ConversionKind string

const (
	KindSplit ConversionKind = "split"
	KindMerge ConversionKind = "merge"
)

// ConversionEvent is a decoded PositionSplit or PositionsMerge log, emitted
// either by ConditionalTokens or by the neg-risk adapter. The adapter variant
// carries no collateral, parent collection or partition.
type ConversionEvent struct {
	Kind    ConversionKind
	Emitter common.Address
	TxHash  common.Hash
	Index   uint

	Stakeholder        common.Address
	Collateral         common.Address
	ParentCollectionID common.Hash
	ConditionID        common.Hash
	Partition          []*big.Int
	Amount             *big.Int
}

func DecodeConversionLog(lg types.Log) (*ConversionEvent, error) {
	if len(lg.Topics) == 0 {
		return nil, ErrNotConversionLog
	}
	switch lg.Topics[0] {
	case ctfPositionSplitTopic:
		return decodeCTFConversion(KindSplit, lg)
	case ctfPositionsMergeTopic:
		return decodeCTFConversion(KindMerge, lg)
	case adapterPositionSplitTopic:
		return decodeAdapterConversion(KindSplit, lg)
	case adapterPositionsMergeTopic:
		return decodeAdapterConversion(KindMerge, lg)
	default:
		return nil, ErrNotConversionLog
	}
}

// FindConversions returns every split/merge event in receipt.
func FindConversions(receipt *types.Receipt) ([]*ConversionEvent, error) {
	if receipt == nil {
		return nil, errors.New("receipt required")
	}
	var out []*ConversionEvent
	for _, lg := range receipt.Logs {
		if lg == nil {
			continue
		}
		ev, err := DecodeConversionLog(*lg)
		if errors.Is(err, ErrNotConversionLog) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

func decodeCTFConversion(kind ConversionKind, lg types.Log) (*ConversionEvent, error) {
	// topics: sig | stakeholder | parentCollectionId | conditionId
	// data:   collateralToken | offset(partition) | amount | partition...
	if len(lg.Topics) < 4 {
		return nil, fmt.Errorf("%s: unexpected topics len=%d", kind, len(lg.Topics))
	}
	if len(lg.Data) < 32*3 {
		return nil, fmt.Errorf("%s: unexpected data len=%d", kind, len(lg.Data))
	}
	partition, err := decodeU256Slice(lg.Data, wordOffset(lg.Data[32:64]))
	if err != nil {
		return nil, fmt.Errorf("%s partition: %w", kind, err)
	}
	return &ConversionEvent{
		Kind:    kind,
		Emitter: lg.Address,
		TxHash:  lg.TxHash,
		Index:   lg.Index,

		Stakeholder:        common.BytesToAddress(lg.Topics[1].Bytes()),
		Collateral:         common.BytesToAddress(lg.Data[:32]),
		ParentCollectionID: lg.Topics[2],
		ConditionID:        lg.Topics[3],
		Partition:          partition,
		Amount:             new(big.Int).SetBytes(lg.Data[64:96]),
	}, nil
}

func decodeAdapterConversion(kind ConversionKind, lg types.Log) (*ConversionEvent, error) {
	// topics: sig | stakeholder | conditionId
	// data:   amount
	if len(lg.Topics) < 3 {
		return nil, fmt.Errorf("%s: unexpected topics len=%d", kind, len(lg.Topics))
	}
	if len(lg.Data) < 32 {
		return nil, fmt.Errorf("%s: unexpected data len=%d", kind, len(lg.Data))
	}
	return &ConversionEvent{
		Kind:    kind,
		Emitter: lg.Address,
		TxHash:  lg.TxHash,
		Index:   lg.Index,

		Stakeholder: common.BytesToAddress(lg.Topics[1].Bytes()),
		ConditionID: lg.Topics[2],
		Amount:      new(big.Int).SetBytes(lg.Data[:32]),
	}, nil
}
