package ctf

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer produces transaction options for one submission.
type Signer interface {
	TransactOpts(ctx context.Context) (*bind.TransactOpts, error)
}

// Waiter blocks until tx is mined and returns its receipt.
type Waiter interface {
	WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
}

// KeySigner signs with a raw EOA key. Nonce, gas and fees are left to the
// chain client.
type KeySigner struct {
	key     *ecdsa.PrivateKey
	chainID *big.Int
	from    common.Address
}

func NewKeySigner(key *ecdsa.PrivateKey, chainID *big.Int) (*KeySigner, error) {
	if key == nil {
		return nil, errors.New("private key required")
	}
	if chainID == nil || chainID.Sign() <= 0 {
		return nil, errors.New("chain id required")
	}
	return &KeySigner{
		key:     key,
		chainID: new(big.Int).Set(chainID),
		from:    crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

func (s *KeySigner) Address() common.Address { return s.from }

func (s *KeySigner) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(s.key, s.chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	return opts, nil
}

// MinedWaiter polls backend for the receipt of a submitted transaction.
type MinedWaiter struct {
	Backend bind.DeployBackend
}

func (w MinedWaiter) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	return bind.WaitMined(ctx, w.Backend, tx)
}
