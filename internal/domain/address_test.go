package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestParseAddress_Valid(t *testing.T) {
	// Well-known mainnet addresses.
	valid := []string{
		"So11111111111111111111111111111111111111112",  // wrapped SOL mint
		"TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA",  // SPL token program
		"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", // USDC mint
	}

	for _, s := range valid {
		addr, err := ParseAddress(s)
		if err != nil {
			t.Errorf("ParseAddress(%q) failed: %v", s, err)
		}
		if addr.String() != s {
			t.Errorf("ParseAddress(%q) returned %q", s, addr)
		}
	}
}

func TestParseAddress_TooShort(t *testing.T) {
	_, err := ParseAddress("abc1234567")
	if !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("expected ErrInvalidAddress, got %v", err)
	}
}

func TestParseAddress_OutOfAlphabet(t *testing.T) {
	// Right length but contains '0', 'O', 'I', 'l' which are not base58.
	s := "0OIl" + strings.Repeat("1", 40)
	_, err := ParseAddress(s)
	if !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("expected ErrInvalidAddress, got %v", err)
	}
}

func TestParseAddress_WrongDecodedLength(t *testing.T) {
	// 44 valid base58 chars of 'z' decode to more than 32 bytes.
	_, err := ParseAddress(strings.Repeat("z", 44))
	if !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("expected ErrInvalidAddress, got %v", err)
	}
}

func TestParseAddress_Empty(t *testing.T) {
	if IsValidAddress("") {
		t.Error("empty string should not validate")
	}
}

func TestAddress_OnCurve(t *testing.T) {
	// The system program ID (all zero bytes after the discriminator) is a
	// valid curve point; most PDAs are not. We only assert the check is
	// stable for a known wallet-style address.
	addr, err := ParseAddress("So11111111111111111111111111111111111111112")
	if err != nil {
		t.Fatalf("ParseAddress: %v", err)
	}
	// Deterministic either way; just exercise the path.
	_ = addr.OnCurve()
}

func TestAccountRecord_EngagementScore(t *testing.T) {
	sym := "TEST"
	r := &AccountRecord{
		Address: "addr",
		Holdings: []TokenHolding{
			{TokenAddress: "mint1", TokenSymbol: &sym, Amount: 500},
			{TokenAddress: "mint2", Amount: 2000},
		},
		Activity: []TransactionSummary{
			{Signature: "sig1", BlockTime: 1700000000},
			{Signature: "sig2", BlockTime: 1699999000},
			{Signature: "sig3", BlockTime: 1699998000},
		},
	}

	// 3 txs * 10 + 2 holdings * 5 + min(2500, 1000)/10 = 30 + 10 + 100
	got := r.EngagementScore()
	if got != 140 {
		t.Errorf("EngagementScore = %v, want 140", got)
	}

	if r.LastActivityTime() != 1700000000 {
		t.Errorf("LastActivityTime = %d, want 1700000000", r.LastActivityTime())
	}
}

func TestAccountRecord_EmptyIsValid(t *testing.T) {
	r := &AccountRecord{Address: "addr"}
	if r.EngagementScore() != 0 {
		t.Errorf("empty record score = %v, want 0", r.EngagementScore())
	}
	if r.LastActivityTime() != 0 {
		t.Errorf("empty record last activity = %d, want 0", r.LastActivityTime())
	}
	if r.TotalTokenAmount() != 0 {
		t.Errorf("empty record total = %v, want 0", r.TotalTokenAmount())
	}
}
