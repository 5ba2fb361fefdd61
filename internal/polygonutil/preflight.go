package polygonutil

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/sync/errgroup"
)

var (
	erc20BalanceOfSelector          = crypto.Keccak256([]byte("balanceOf(address)"))[:4]
	erc20AllowanceSelector          = crypto.Keccak256([]byte("allowance(address,address)"))[:4]
	erc1155IsApprovedForAllSelector = crypto.Keccak256([]byte("isApprovedForAll(address,address)"))[:4]
)

// PreflightReport is a read-only snapshot taken before submitting. It never
// blocks a conversion.
type PreflightReport struct {
	Spender   common.Address
	Balance   *big.Int
	Allowance *big.Int
	// OperatorApproved is only checked for neg-risk markets, where the adapter
	// moves outcome tokens on the holder's behalf during merge.
	OperatorApproved bool
	NegRisk          bool
}

// Warnings lists the conditions under which a split or merge of amount would
// likely revert.
func (r *PreflightReport) Warnings(amount *big.Int) []string {
	var out []string
	if amount == nil {
		return out
	}
	if r.Balance != nil && r.Balance.Cmp(amount) < 0 {
		out = append(out, fmt.Sprintf("collateral balance %s below amount %s", r.Balance, amount))
	}
	if r.Allowance != nil && r.Allowance.Cmp(amount) < 0 {
		out = append(out, fmt.Sprintf("collateral allowance %s for %s below amount %s", r.Allowance, r.Spender.Hex(), amount))
	}
	if r.NegRisk && !r.OperatorApproved {
		out = append(out, fmt.Sprintf("conditional tokens not approved for operator %s", r.Spender.Hex()))
	}
	return out
}

// Preflight reads collateral balance and allowance for the contract that will
// pull collateral, plus the ERC-1155 operator approval on neg-risk markets.
func Preflight(ctx context.Context, caller ethereum.ContractCaller, c Contracts, owner common.Address, negRisk bool) (*PreflightReport, error) {
	spender := c.ConditionalTokens
	if negRisk {
		spender = c.NegRiskAdapter
	}
	report := &PreflightReport{Spender: spender, NegRisk: negRisk}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		bal, allowance, err := CollateralBalanceAndAllowance(gctx, caller, c.Collateral, owner, spender)
		if err != nil {
			return err
		}
		report.Balance, report.Allowance = bal, allowance
		return nil
	})
	if negRisk {
		g.Go(func() error {
			approved, err := IsApprovedForAll(gctx, caller, c.ConditionalTokens, owner, spender)
			if err != nil {
				return err
			}
			report.OperatorApproved = approved
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}

func CollateralBalanceAndAllowance(ctx context.Context, caller ethereum.ContractCaller, token, owner, spender common.Address) (*big.Int, *big.Int, error) {
	if caller == nil {
		return nil, nil, fmt.Errorf("contract caller missing")
	}
	if (owner == common.Address{}) {
		return nil, nil, fmt.Errorf("owner address missing")
	}

	// balanceOf(owner)
	balData := make([]byte, 0, 4+32)
	balData = append(balData, erc20BalanceOfSelector...)
	balData = append(balData, common.LeftPadBytes(owner.Bytes(), 32)...)
	bal, err := callUint256(ctx, caller, token, balData)
	if err != nil {
		return nil, nil, fmt.Errorf("collateral balanceOf(%s): %w", owner.Hex(), err)
	}

	// allowance(owner, spender)
	data := make([]byte, 0, 4+32+32)
	data = append(data, erc20AllowanceSelector...)
	data = append(data, common.LeftPadBytes(owner.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(spender.Bytes(), 32)...)
	allowance, err := callUint256(ctx, caller, token, data)
	if err != nil {
		return nil, nil, fmt.Errorf("collateral allowance(%s,%s): %w", owner.Hex(), spender.Hex(), err)
	}
	return bal, allowance, nil
}

func IsApprovedForAll(ctx context.Context, caller ethereum.ContractCaller, ctf, owner, operator common.Address) (bool, error) {
	data := make([]byte, 0, 4+32+32)
	data = append(data, erc1155IsApprovedForAllSelector...)
	data = append(data, common.LeftPadBytes(owner.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(operator.Bytes(), 32)...)
	v, err := callUint256(ctx, caller, ctf, data)
	if err != nil {
		return false, fmt.Errorf("ctf isApprovedForAll(%s,%s): %w", owner.Hex(), operator.Hex(), err)
	}
	return v.Sign() != 0, nil
}

func callUint256(ctx context.Context, caller ethereum.ContractCaller, to common.Address, data []byte) (*big.Int, error) {
	if (to == common.Address{}) {
		return nil, fmt.Errorf("contract address missing")
	}
	out, err := caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty result")
	}
	return new(big.Int).SetBytes(out), nil
}
