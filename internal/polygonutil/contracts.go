package polygonutil

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	orderconfig "github.com/polymarket/go-order-utils/pkg/config"
	exchangefees "github.com/polymarket/go-order-utils/pkg/contracts/exchange-fees"
	"go.uber.org/zap"
)

const feeModuleCallTimeout = 8 * time.Second

// Contracts holds the addresses a split or merge may touch. A zero field in an
// override set means "not overridden".
type Contracts struct {
	NegRiskAdapter    common.Address
	ConditionalTokens common.Address
	Collateral        common.Address
}

// Apply returns c with every non-zero field of o taking precedence.
func (c Contracts) Apply(o Contracts) Contracts {
	if o.NegRiskAdapter != (common.Address{}) {
		c.NegRiskAdapter = o.NegRiskAdapter
	}
	if o.ConditionalTokens != (common.Address{}) {
		c.ConditionalTokens = o.ConditionalTokens
	}
	if o.Collateral != (common.Address{}) {
		c.Collateral = o.Collateral
	}
	return c
}

func (c Contracts) validate() error {
	if c.NegRiskAdapter == (common.Address{}) {
		return fmt.Errorf("neg risk adapter address missing after resolution")
	}
	if c.ConditionalTokens == (common.Address{}) {
		return fmt.Errorf("ctf address missing after resolution")
	}
	if c.Collateral == (common.Address{}) {
		return fmt.Errorf("collateral address missing after resolution")
	}
	return nil
}

// DefaultContracts returns the published addresses for chainID along with the
// fee module used to cross-check them.
func DefaultContracts(chainID int64) (Contracts, common.Address, error) {
	published, err := orderconfig.GetContracts(chainID)
	if err != nil {
		return Contracts{}, common.Address{}, fmt.Errorf("contracts for chain %d: %w", chainID, err)
	}
	return Contracts{
		NegRiskAdapter:    published.NegRiskAdapter,
		ConditionalTokens: published.Conditional,
		Collateral:        published.Collateral,
	}, published.FeeModule, nil
}

type feeModuleReader interface {
	Collateral(opts *bind.CallOpts) (common.Address, error)
	Ctf(opts *bind.CallOpts) (common.Address, error)
}

// ResolveContracts starts from the published addresses, lets the exchange fee
// module correct collateral and CTF, then applies operator overrides. Fee
// module lookups that fail only produce warnings.
func ResolveContracts(ctx context.Context, chainID int64, backend bind.ContractBackend, overrides Contracts, logger *zap.Logger) (Contracts, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults, feeModule, err := DefaultContracts(chainID)
	if err != nil {
		// Unknown chain: only usable when every address is supplied.
		resolved := Contracts{}.Apply(overrides)
		if verr := resolved.validate(); verr != nil {
			return Contracts{}, fmt.Errorf("%w (%v)", err, verr)
		}
		return resolved, nil
	}

	var reader feeModuleReader
	if feeModule != (common.Address{}) && backend != nil {
		fees, err := exchangefees.NewExchangeFees(feeModule, backend)
		if err != nil {
			return Contracts{}, fmt.Errorf("exchange fees binding: %w", err)
		}
		reader = fees
	}

	resolved := reconcile(ctx, defaults, reader, logger).Apply(overrides)
	if err := resolved.validate(); err != nil {
		return Contracts{}, err
	}
	return resolved, nil
}

func reconcile(ctx context.Context, c Contracts, reader feeModuleReader, logger *zap.Logger) Contracts {
	if reader == nil {
		return c
	}

	callCtx, cancel := context.WithTimeout(ctx, feeModuleCallTimeout)
	defer cancel()
	opts := &bind.CallOpts{Context: callCtx}

	if onchain, err := reader.Collateral(opts); err != nil {
		logger.Warn("exchange fees collateral lookup failed", zap.Error(err), zap.String("using", c.Collateral.Hex()))
	} else if onchain != (common.Address{}) && onchain != c.Collateral {
		logger.Warn("collateral address mismatch; using exchange value",
			zap.String("config", c.Collateral.Hex()), zap.String("exchange", onchain.Hex()))
		c.Collateral = onchain
	}

	if onchain, err := reader.Ctf(opts); err != nil {
		logger.Warn("exchange fees ctf lookup failed", zap.Error(err), zap.String("using", c.ConditionalTokens.Hex()))
	} else if onchain != (common.Address{}) && onchain != c.ConditionalTokens {
		logger.Warn("ctf address mismatch; using exchange value",
			zap.String("config", c.ConditionalTokens.Hex()), zap.String("exchange", onchain.Hex()))
		c.ConditionalTokens = onchain
	}
	return c
}
