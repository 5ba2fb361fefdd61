package ctf

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Market is the resolved context of one binary market. It is built once from
// configuration and never changes afterwards.
type Market struct {
	conditionID common.Hash
	collateral  common.Address
	negRisk     bool
}

// NewMarket validates the identifiers and returns the market context.
// Collateral is only required for markets that go through ConditionalTokens
// directly; the neg-risk adapter resolves it internally.
func NewMarket(conditionID common.Hash, collateral common.Address, negRisk bool) (Market, error) {
	if conditionID == (common.Hash{}) {
		return Market{}, errors.New("condition id required")
	}
	if !negRisk && collateral == (common.Address{}) {
		return Market{}, errors.New("collateral token required for non neg-risk market")
	}
	return Market{
		conditionID: conditionID,
		collateral:  collateral,
		negRisk:     negRisk,
	}, nil
}

func (m Market) ConditionID() common.Hash { return m.conditionID }

func (m Market) Collateral() common.Address { return m.collateral }

func (m Market) NegRisk() bool { return m.negRisk }

// ParentCollectionID is always zero: only top-level markets are converted.
func (m Market) ParentCollectionID() [32]byte { return [32]byte{} }

// Partition returns a fresh copy of the binary outcome partition [1,2].
func (m Market) Partition() []*big.Int {
	return []*big.Int{big.NewInt(1), big.NewInt(2)}
}
