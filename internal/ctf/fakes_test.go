package ctf

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	testCondition  = common.HexToHash("0x5f65177b394277fd294cd75650044e32ba009a95022d88a0c1d565897d72f8f1")
	testCollateral = common.HexToAddress("0x9c4e1703476e875070ee25b56a58b008cfb8fa78")
	testFrom       = common.HexToAddress("0x1111111111111111111111111111111111111111")
)

type txCall struct {
	method string
	params []interface{}
}

type fakeContract struct {
	calls []txCall
	err   error
	nonce uint64
}

func (f *fakeContract) Transact(opts *bind.TransactOpts, method string, params ...interface{}) (*types.Transaction, error) {
	f.calls = append(f.calls, txCall{method: method, params: params})
	if f.err != nil {
		return nil, f.err
	}
	f.nonce++
	return types.NewTx(&types.LegacyTx{Nonce: f.nonce, Gas: 100_000, GasPrice: big.NewInt(1)}), nil
}

type fakeSigner struct {
	err error
}

func (s fakeSigner) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &bind.TransactOpts{From: testFrom, Context: ctx}, nil
}

// fakeWaiter hands out receipts in order. A missing entry confirms successfully.
type fakeWaiter struct {
	statuses []uint64
	errs     []error
	waited   []common.Hash
	ctxErrs  []error
}

func (w *fakeWaiter) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	i := len(w.waited)
	w.waited = append(w.waited, tx.Hash())
	w.ctxErrs = append(w.ctxErrs, ctx.Err())
	if i < len(w.errs) && w.errs[i] != nil {
		return nil, w.errs[i]
	}
	status := types.ReceiptStatusSuccessful
	if i < len(w.statuses) {
		status = w.statuses[i]
	}
	return &types.Receipt{
		Status:      status,
		TxHash:      tx.Hash(),
		BlockNumber: big.NewInt(int64(100 + i)),
		GasUsed:     50_000,
	}, nil
}

func mustMarket(negRisk bool) Market {
	m, err := NewMarket(testCondition, testCollateral, negRisk)
	if err != nil {
		panic(err)
	}
	return m
}

// pendingBackend never finds a receipt, as for a transaction that was dropped
// from the mempool.
type pendingBackend struct {
	mu      sync.Mutex
	queries int
}

func (b *pendingBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	b.queries++
	b.mu.Unlock()
	return nil, ethereum.NotFound
}

func (b *pendingBackend) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	return nil, nil
}

func (b *pendingBackend) queryCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queries
}
