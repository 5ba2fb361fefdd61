package receipts

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var testCondition = common.HexToHash("0x5f2d8f1c0e6b4a3d2c1b0a99887766554433221100ffeeddccbbaa9988776655")

func ctfConversionLog(topic common.Hash, amount int64) types.Log {
	var data []byte
	data = append(data, addrTopic(testCollateral).Bytes()...)
	data = append(data, word(96)...)
	data = append(data, word(amount)...)
	data = append(data, word(2)...)
	data = append(data, word(1)...)
	data = append(data, word(2)...)
	return types.Log{
		Address: testCTF,
		Topics:  []common.Hash{topic, addrTopic(testHolder), {}, testCondition},
		Data:    data,
		Index:   4,
	}
}

func TestDecodeConversionLog_ConditionalTokens(t *testing.T) {
	cases := []struct {
		name  string
		topic common.Hash
		kind  ConversionKind
	}{
		{"split", ctfPositionSplitTopic, KindSplit},
		{"merge", ctfPositionsMergeTopic, KindMerge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := DecodeConversionLog(ctfConversionLog(tc.topic, 10_000_000))
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if ev.Kind != tc.kind {
				t.Fatalf("kind mismatch: got %s want %s", ev.Kind, tc.kind)
			}
			if ev.Stakeholder != testHolder {
				t.Fatalf("stakeholder mismatch: got %s", ev.Stakeholder.Hex())
			}
			if ev.Collateral != testCollateral {
				t.Fatalf("collateral mismatch: got %s", ev.Collateral.Hex())
			}
			if ev.ConditionID != testCondition {
				t.Fatalf("condition mismatch: got %s", ev.ConditionID.Hex())
			}
			if ev.ParentCollectionID != (common.Hash{}) {
				t.Fatalf("parent collection should be zero, got %s", ev.ParentCollectionID.Hex())
			}
			if len(ev.Partition) != 2 || ev.Partition[0].Int64() != 1 || ev.Partition[1].Int64() != 2 {
				t.Fatalf("partition mismatch: %v", ev.Partition)
			}
			if got, want := ev.Amount.String(), "10000000"; got != want {
				t.Fatalf("amount mismatch: got %s want %s", got, want)
			}
			if ev.Index != 4 {
				t.Fatalf("index mismatch: %d", ev.Index)
			}
		})
	}
}

func TestDecodeConversionLog_Adapter(t *testing.T) {
	lg := types.Log{
		Address: testAdapter,
		Topics:  []common.Hash{adapterPositionsMergeTopic, addrTopic(testHolder), testCondition},
		Data:    word(2_500_000),
	}
	ev, err := DecodeConversionLog(lg)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if ev.Kind != KindMerge || ev.Emitter != testAdapter {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Amount.Cmp(big.NewInt(2_500_000)) != 0 {
		t.Fatalf("amount mismatch: got %s", ev.Amount)
	}
	if ev.Partition != nil || ev.Collateral != (common.Address{}) {
		t.Fatalf("adapter event carries no partition or collateral: %+v", ev)
	}
}

func TestDecodeConversionLog_Rejects(t *testing.T) {
	if _, err := DecodeConversionLog(types.Log{}); !errors.Is(err, ErrNotConversionLog) {
		t.Fatalf("expected ErrNotConversionLog, got %v", err)
	}
	transfer := *collateralTransfer(testHolder, testCTF, 1)
	if _, err := DecodeConversionLog(transfer); !errors.Is(err, ErrNotConversionLog) {
		t.Fatalf("expected ErrNotConversionLog, got %v", err)
	}

	short := ctfConversionLog(ctfPositionSplitTopic, 1)
	short.Data = short.Data[:64]
	if _, err := DecodeConversionLog(short); err == nil || errors.Is(err, ErrNotConversionLog) {
		t.Fatalf("expected decode error, got %v", err)
	}

	noTopics := types.Log{Topics: []common.Hash{adapterPositionSplitTopic}, Data: word(1)}
	if _, err := DecodeConversionLog(noTopics); err == nil {
		t.Fatalf("expected err for missing topics")
	}
}

func TestFindConversions(t *testing.T) {
	split := ctfConversionLog(ctfPositionSplitTopic, 10_000_000)
	receipt := &types.Receipt{Logs: []*types.Log{
		collateralTransfer(testHolder, testCTF, 10_000_000),
		&split,
		nil,
	}}
	evs, err := FindConversions(receipt)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(evs) != 1 || evs[0].Kind != KindSplit {
		t.Fatalf("expected one split, got %+v", evs)
	}

	if _, err := FindConversions(nil); err == nil {
		t.Fatalf("expected err for nil receipt")
	}
}
