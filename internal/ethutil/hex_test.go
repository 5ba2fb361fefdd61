package ethutil

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestParseConditionID(t *testing.T) {
	valid := "0x" + strings.Repeat("ab", 32)

	t.Run("valid", func(t *testing.T) {
		got, err := ParseConditionID("  " + valid + "\n")
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if got != common.HexToHash(valid) {
			t.Fatalf("unexpected id: %s", got.Hex())
		}
	})

	bad := map[string]string{
		"empty":     "  ",
		"no_prefix": strings.Repeat("ab", 32),
		"short":     "0x" + strings.Repeat("ab", 31),
		"long":      "0x" + strings.Repeat("ab", 33),
		"not_hex":   "0x" + strings.Repeat("zz", 32),
		"zero":      "0x" + strings.Repeat("00", 32),
	}
	for name, raw := range bad {
		raw := raw
		t.Run(name, func(t *testing.T) {
			if _, err := ParseConditionID(raw); err == nil {
				t.Fatalf("expected err for %q", raw)
			}
		})
	}
}

func TestParseAddress(t *testing.T) {
	got, err := ParseAddress("")
	if err != nil || got != (common.Address{}) {
		t.Fatalf("blank: got %s err=%v", got.Hex(), err)
	}

	got, err = ParseAddress(" 0xd91E80cF2E7be2e162c6513ceD06f1dD0dA35296 ")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got != common.HexToAddress("0xd91E80cF2E7be2e162c6513ceD06f1dD0dA35296") {
		t.Fatalf("unexpected address: %s", got.Hex())
	}

	if _, err := ParseAddress("0x1234"); err == nil {
		t.Fatalf("expected err for short address")
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := FirstNonEmpty("", "  ", "b", "c"); got != "b" {
		t.Fatalf("got %q want b", got)
	}
	if got := FirstNonEmpty(); got != "" {
		t.Fatalf("got %q want empty", got)
	}
}
