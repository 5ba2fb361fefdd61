package receipts

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	testHolder     = common.HexToAddress("0x49226C9a8eae5b040f4aa878369C6ab130985B4C")
	testCollateral = common.HexToAddress("0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174")
	testCTF        = common.HexToAddress("0x4D97DCd97eC945f40cF65F87097ACe5EA0476045")
	testAdapter    = common.HexToAddress("0xd91E80cF2E7be2e162c6513ceD06f1dD0dA35296")
)

func word(v int64) []byte {
	return new(big.Int).SetInt64(v).FillBytes(make([]byte, 32))
}

func bigWord(v *big.Int) []byte {
	return v.FillBytes(make([]byte, 32))
}

func addrTopic(a common.Address) common.Hash {
	return common.BytesToHash(a.Bytes())
}

func collateralTransfer(from, to common.Address, value int64) *types.Log {
	return &types.Log{
		Address: testCollateral,
		Topics:  []common.Hash{erc20TransferTopic, addrTopic(from), addrTopic(to)},
		Data:    word(value),
	}
}

func transferBatch(operator, from, to common.Address, ids []*big.Int, value int64) *types.Log {
	n := int64(len(ids))
	var data []byte
	data = append(data, word(64)...)
	data = append(data, word(64+32+32*n)...)
	data = append(data, word(n)...)
	for _, id := range ids {
		data = append(data, bigWord(id)...)
	}
	data = append(data, word(n)...)
	for range ids {
		data = append(data, word(value)...)
	}
	return &types.Log{
		Address: testCTF,
		Topics:  []common.Hash{erc1155TransferBatchTopic, addrTopic(operator), addrTopic(from), addrTopic(to)},
		Data:    data,
	}
}

func testPositionIDs() []*big.Int {
	yes, _ := new(big.Int).SetString("70173651533867133813037778810002894047944029658657013054789389758024394038176", 10)
	no, _ := new(big.Int).SetString("10342930453215064338417400203577658291651186624397185815040329785402340112344", 10)
	return []*big.Int{yes, no}
}

func TestSummarize_SplitOnConditionalTokens(t *testing.T) {
	ids := testPositionIDs()
	receipt := &types.Receipt{Logs: []*types.Log{
		collateralTransfer(testHolder, testCTF, 10_000_000),
		transferBatch(testHolder, common.Address{}, testHolder, ids, 10_000_000),
	}}

	sum, err := Summarize(receipt, testHolder, testCollateral, testCTF)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := sum.CollateralDelta.String(), "-10000000"; got != want {
		t.Fatalf("collateral delta mismatch: got %s want %s", got, want)
	}
	if got := len(sum.PositionIDs()); got != 2 {
		t.Fatalf("expected 2 positions, got %d", got)
	}
	if got, want := sum.Minted().String(), "10000000"; got != want {
		t.Fatalf("minted mismatch: got %s want %s", got, want)
	}
	if got := sum.Burned().Sign(); got != 0 {
		t.Fatalf("burned should be zero, got %s", sum.Burned())
	}
}

func TestSummarize_MergeViaAdapter(t *testing.T) {
	// The adapter pulls the pair from the holder and pays collateral back out.
	ids := testPositionIDs()
	receipt := &types.Receipt{Logs: []*types.Log{
		transferBatch(testAdapter, testHolder, testAdapter, ids, 10_000_000),
		collateralTransfer(testAdapter, testHolder, 10_000_000),
	}}

	sum, err := Summarize(receipt, testHolder, testCollateral, testCTF)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := sum.CollateralDelta.String(), "10000000"; got != want {
		t.Fatalf("collateral delta mismatch: got %s want %s", got, want)
	}
	if got, want := sum.Burned().String(), "10000000"; got != want {
		t.Fatalf("burned mismatch: got %s want %s", got, want)
	}
	if got := sum.Minted().Sign(); got != 0 {
		t.Fatalf("minted should be zero, got %s", sum.Minted())
	}
}

func TestSummarize_IgnoresOtherContractsAndHolders(t *testing.T) {
	other := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	foreignToken := &types.Log{
		Address: other,
		Topics:  []common.Hash{erc20TransferTopic, addrTopic(testHolder), addrTopic(other)},
		Data:    word(5),
	}
	foreignBatch := transferBatch(other, common.Address{}, other, testPositionIDs(), 7)
	single := &types.Log{
		Address: other,
		Topics:  []common.Hash{erc1155TransferSingleTopic, addrTopic(other), addrTopic(common.Address{}), addrTopic(testHolder)},
		Data:    append(word(1), word(1)...),
	}

	receipt := &types.Receipt{Logs: []*types.Log{foreignToken, foreignBatch, single, nil}}
	sum, err := Summarize(receipt, testHolder, testCollateral, testCTF)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.CollateralDelta.Sign() != 0 {
		t.Fatalf("collateral delta should be zero, got %s", sum.CollateralDelta)
	}
	if len(sum.PositionDeltas) != 0 {
		t.Fatalf("no position deltas expected, got %v", sum.PositionDeltas)
	}
}

func TestSummarize_TransferSingleNetsToZero(t *testing.T) {
	id := testPositionIDs()[0]
	data := append(bigWord(id), word(3)...)
	in := &types.Log{
		Address: testCTF,
		Topics:  []common.Hash{erc1155TransferSingleTopic, addrTopic(testHolder), addrTopic(common.Address{}), addrTopic(testHolder)},
		Data:    data,
	}
	out := &types.Log{
		Address: testCTF,
		Topics:  []common.Hash{erc1155TransferSingleTopic, addrTopic(testHolder), addrTopic(testHolder), addrTopic(common.Address{})},
		Data:    data,
	}

	sum, err := Summarize(&types.Receipt{Logs: []*types.Log{in, out}}, testHolder, testCollateral, testCTF)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sum.PositionDeltas) != 0 {
		t.Fatalf("zero deltas should be dropped, got %v", sum.PositionDeltas)
	}
}

func TestSummarize_Errors(t *testing.T) {
	if _, err := Summarize(nil, testHolder, testCollateral, testCTF); err == nil {
		t.Fatalf("expected err for nil receipt")
	}
	if _, err := Summarize(&types.Receipt{}, common.Address{}, testCollateral, testCTF); err == nil {
		t.Fatalf("expected err for zero holder")
	}

	bad := &types.Log{
		Address: testCTF,
		Topics:  []common.Hash{erc1155TransferBatchTopic, addrTopic(testHolder), addrTopic(testHolder), addrTopic(testHolder)},
		Data:    append(word(64), word(1<<20)...),
	}
	if _, err := Summarize(&types.Receipt{Logs: []*types.Log{bad}}, testHolder, testCollateral, testCTF); err == nil {
		t.Fatalf("expected err for malformed batch data")
	}
}

func TestSummarize_SplitThenMergeCancels(t *testing.T) {
	ids := testPositionIDs()
	const amount = 10_000_000
	split := &types.Receipt{Logs: []*types.Log{
		collateralTransfer(testHolder, testCTF, amount),
		transferBatch(testHolder, common.Address{}, testHolder, ids, amount),
	}}
	merge := &types.Receipt{Logs: []*types.Log{
		transferBatch(testHolder, testHolder, common.Address{}, ids, amount),
		collateralTransfer(testCTF, testHolder, amount),
	}}

	splitSum, err := Summarize(split, testHolder, testCollateral, testCTF)
	if err != nil {
		t.Fatalf("split: unexpected error: %v", err)
	}
	mergeSum, err := Summarize(merge, testHolder, testCollateral, testCTF)
	if err != nil {
		t.Fatalf("merge: unexpected error: %v", err)
	}

	if net := new(big.Int).Add(splitSum.CollateralDelta, mergeSum.CollateralDelta); net.Sign() != 0 {
		t.Fatalf("collateral deltas should cancel, net %s", net)
	}
	if got, want := splitSum.PositionIDs(), mergeSum.PositionIDs(); len(got) != 2 || len(want) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("split and merge should touch the same positions: %v vs %v", got, want)
	}
	for _, id := range splitSum.PositionIDs() {
		net := new(big.Int).Add(splitSum.PositionDeltas[id], mergeSum.PositionDeltas[id])
		if net.Sign() != 0 {
			t.Fatalf("position %s should net to zero, got %s", id, net)
		}
	}
	if splitSum.Minted().Cmp(mergeSum.Burned()) != 0 {
		t.Fatalf("minted %s != burned %s", splitSum.Minted(), mergeSum.Burned())
	}
}
