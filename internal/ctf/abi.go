package ctf

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

const (
	methodSplit = "splitPosition"
	methodMerge = "mergePositions"
)

// NegRiskAdapterABI covers the adapter entry points used for neg-risk markets.
// The adapter already knows the collateral and partition of each condition.
const NegRiskAdapterABI = `[
  {"inputs":[
    {"internalType":"bytes32","name":"_conditionId","type":"bytes32"},
    {"internalType":"uint256","name":"_amount","type":"uint256"}
  ],"name":"splitPosition","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[
    {"internalType":"bytes32","name":"_conditionId","type":"bytes32"},
    {"internalType":"uint256","name":"_amount","type":"uint256"}
  ],"name":"mergePositions","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

// ConditionalTokensABI covers the split/merge entry points of the
// ConditionalTokens (ERC-1155) contract.
const ConditionalTokensABI = `[
  {"inputs":[
    {"internalType":"address","name":"collateralToken","type":"address"},
    {"internalType":"bytes32","name":"parentCollectionId","type":"bytes32"},
    {"internalType":"bytes32","name":"conditionId","type":"bytes32"},
    {"internalType":"uint256[]","name":"partition","type":"uint256[]"},
    {"internalType":"uint256","name":"amount","type":"uint256"}
  ],"name":"splitPosition","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[
    {"internalType":"address","name":"collateralToken","type":"address"},
    {"internalType":"bytes32","name":"parentCollectionId","type":"bytes32"},
    {"internalType":"bytes32","name":"conditionId","type":"bytes32"},
    {"internalType":"uint256[]","name":"partition","type":"uint256[]"},
    {"internalType":"uint256","name":"amount","type":"uint256"}
  ],"name":"mergePositions","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

// BindNegRiskAdapter returns a contract handle for the neg-risk adapter at addr.
// Transactions sent through it are signed by whatever TransactOpts the caller passes.
func BindNegRiskAdapter(addr common.Address, backend bind.ContractBackend) (*bind.BoundContract, error) {
	return bindContract("neg risk adapter", NegRiskAdapterABI, addr, backend)
}

// BindConditionalTokens returns a contract handle for the ConditionalTokens contract at addr.
func BindConditionalTokens(addr common.Address, backend bind.ContractBackend) (*bind.BoundContract, error) {
	return bindContract("conditional tokens", ConditionalTokensABI, addr, backend)
}

func bindContract(name, abiJSON string, addr common.Address, backend bind.ContractBackend) (*bind.BoundContract, error) {
	if addr == (common.Address{}) {
		return nil, fmt.Errorf("%s address missing", name)
	}
	if backend == nil {
		return nil, fmt.Errorf("%s: backend required", name)
	}
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("%s abi parse: %w", name, err)
	}
	return bind.NewBoundContract(addr, parsed, backend, backend, backend), nil
}
