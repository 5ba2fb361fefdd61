package ctf

import (
	"errors"
	"math/big"
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "10", want: "10000000"},
		{in: " 2.5 ", want: "2500000"},
		{in: "0.000001", want: "1"},
		{in: "1000000", want: "1000000000000"},
		{in: "0.0000001", wantErr: true},
		{in: "0", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "", wantErr: true},
		{in: "ten", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected err, got %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if got.String() != tt.want {
				t.Fatalf("got %s want %s", got, tt.want)
			}
		})
	}
}

func TestParseAmountNonPositiveIsInvalidAmount(t *testing.T) {
	if _, err := ParseAmount("0"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(big.NewInt(10_000_000)); got != "10" {
		t.Fatalf("got %q want 10", got)
	}
	if got := FormatAmount(big.NewInt(2_500_000)); got != "2.5" {
		t.Fatalf("got %q want 2.5", got)
	}
	if got := FormatAmount(nil); got != "0" {
		t.Fatalf("got %q want 0", got)
	}
}
