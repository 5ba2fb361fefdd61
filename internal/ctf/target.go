package ctf

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
)

// Contract is a handle bound to one deployed contract. *bind.BoundContract
// satisfies it.
type Contract interface {
	Transact(opts *bind.TransactOpts, method string, params ...interface{}) (*types.Transaction, error)
}

// Target is the contract a market's conversions are routed to.
type Target interface {
	Name() string
	Split(opts *bind.TransactOpts, amount *big.Int) (*types.Transaction, error)
	Merge(opts *bind.TransactOpts, amount *big.Int) (*types.Transaction, error)
}

const (
	TargetNegRiskAdapter    = "neg_risk_adapter"
	TargetConditionalTokens = "conditional_tokens"
)

// SelectTarget picks the conversion target for market. The choice is made once;
// the returned target never consults the other handle.
func SelectTarget(market Market, adapter, conditional Contract) Target {
	if market.NegRisk() {
		return &NegRiskTarget{market: market, adapter: adapter}
	}
	return &ConditionalTarget{market: market, ctf: conditional}
}

// NegRiskTarget sends (conditionId, amount) to the neg-risk adapter.
type NegRiskTarget struct {
	market  Market
	adapter Contract
}

func (t *NegRiskTarget) Name() string { return TargetNegRiskAdapter }

func (t *NegRiskTarget) Split(opts *bind.TransactOpts, amount *big.Int) (*types.Transaction, error) {
	return t.adapter.Transact(opts, methodSplit, [32]byte(t.market.ConditionID()), amount)
}

func (t *NegRiskTarget) Merge(opts *bind.TransactOpts, amount *big.Int) (*types.Transaction, error) {
	return t.adapter.Transact(opts, methodMerge, [32]byte(t.market.ConditionID()), amount)
}

// ConditionalTarget sends the full five argument call to ConditionalTokens:
// (collateral, parentCollectionId, conditionId, partition, amount).
type ConditionalTarget struct {
	market Market
	ctf    Contract
}

func (t *ConditionalTarget) Name() string { return TargetConditionalTokens }

func (t *ConditionalTarget) Split(opts *bind.TransactOpts, amount *big.Int) (*types.Transaction, error) {
	return t.ctf.Transact(opts, methodSplit, t.args(amount)...)
}

func (t *ConditionalTarget) Merge(opts *bind.TransactOpts, amount *big.Int) (*types.Transaction, error) {
	return t.ctf.Transact(opts, methodMerge, t.args(amount)...)
}

func (t *ConditionalTarget) args(amount *big.Int) []interface{} {
	return []interface{}{
		t.market.Collateral(),
		t.market.ParentCollectionID(),
		[32]byte(t.market.ConditionID()),
		t.market.Partition(),
		amount,
	}
}
