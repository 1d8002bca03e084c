package utils

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func withProduction(t *testing.T, production bool) {
	t.Helper()
	previous := IsProduction
	IsProduction = production
	t.Cleanup(func() { IsProduction = previous })
}

func TestMaskingDisabledOutsideProduction(t *testing.T) {
	withProduction(t, false)

	if got := MaskEmail("alice@example.com"); got != "alice@example.com" {
		t.Fatalf("MaskEmail() = %q", got)
	}
	if got := MaskID("0b6f3c1e-8a2d-4f11-9c3a-5d2e7f8a9b10"); got != "0b6f3c1e-8a2d-4f11-9c3a-5d2e7f8a9b10" {
		t.Fatalf("MaskID() = %q", got)
	}
	if got := MaskAmount(decimal.RequireFromString("12.5")); got != "12.50" {
		t.Fatalf("MaskAmount() = %q, want %q", got, "12.50")
	}
}

func TestMaskingInProduction(t *testing.T) {
	withProduction(t, true)

	if got := MaskEmail("alice@example.com"); got != "***@***.***" {
		t.Fatalf("MaskEmail() = %q", got)
	}
	if got := MaskID("0b6f3c1e-8a2d-4f11-9c3a-5d2e7f8a9b10"); got != "0b6f3c1e..." {
		t.Fatalf("MaskID() = %q, want %q", got, "0b6f3c1e...")
	}
	if got := MaskID("short"); got != "***" {
		t.Fatalf("MaskID(short) = %q, want ***", got)
	}
	if got := MaskAmount(decimal.NewFromInt(40)); got != "***" {
		t.Fatalf("MaskAmount() = %q, want ***", got)
	}

	masked := MaskString("invite bob@example.com to 0b6f3c1e-8a2d-4f11-9c3a-5d2e7f8a9b10 for 150 EUR")
	for _, leaked := range []string{"bob@example.com", "8a2d-4f11", "150 EUR"} {
		if strings.Contains(masked, leaked) {
			t.Fatalf("MaskString() leaked %q in %q", leaked, masked)
		}
	}
}
