package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"reloop/models"
)

func TestSimpleHash(t *testing.T) {
	cases := map[string]string{
		"":   "0",
		"a":  "61",
		"ab": "c21",
	}
	for in, want := range cases {
		if got := SimpleHash(in); got != want {
			t.Errorf("SimpleHash(%q) = %q, want %q", in, got, want)
		}
	}

	long := strings.Repeat("trade-1234:buyer-5678:1700000000000", 4)
	h := SimpleHash(long)
	if len(h) == 0 || len(h) > 8 || h != strings.ToLower(h) {
		t.Fatalf("SimpleHash(long) = %q", h)
	}
	if SimpleHash(long) != h {
		t.Fatal("SimpleHash is not deterministic")
	}
}

func TestNewVerificationCode(t *testing.T) {
	v, err := NewVerificationCode("t1", "b1", 1700000000000)
	if err != nil {
		t.Fatalf("NewVerificationCode: %v", err)
	}
	want := "RELOOP:t1:b1:1700000000000:" + SimpleHash("t1:b1:1700000000000")
	if v.Code != want {
		t.Fatalf("code = %q, want %q", v.Code, want)
	}
	if got := v.ExpiresAt.Sub(v.CreatedAt); got != CodeLifetime {
		t.Fatalf("lifetime = %v", got)
	}

	for _, ids := range [][2]string{{"", "b"}, {"t", ""}, {"t:x", "b"}, {"t", "b:x"}} {
		if _, err := NewVerificationCode(ids[0], ids[1], 1); !errors.Is(err, ErrInvalidTradeParty) {
			t.Errorf("NewVerificationCode(%q, %q): expected ErrInvalidTradeParty, got %v", ids[0], ids[1], err)
		}
	}
}

func TestParseVerificationCode(t *testing.T) {
	v, _ := NewVerificationCode("t1", "b1", 42)
	p, err := ParseVerificationCode(v.Code)
	if err != nil {
		t.Fatalf("ParseVerificationCode: %v", err)
	}
	if p.TradeID != "t1" || p.BuyerID != "b1" || p.Timestamp != 42 {
		t.Fatalf("unexpected parse: %+v", p)
	}

	bad := []string{
		"",
		"RELOOP:t1:b1:42",
		"NOTRELOOP:t1:b1:42:" + v.Hash,
		"RELOOP:t1:b1:42:" + v.Hash + ":extra",
		"RELOOP:t1:b1:soon:" + v.Hash,
	}
	for _, code := range bad {
		if _, err := ParseVerificationCode(code); !errors.Is(err, ErrInvalidCodeFormat) {
			t.Errorf("ParseVerificationCode(%q): expected ErrInvalidCodeFormat, got %v", code, err)
		}
	}

	tampered := []string{
		"RELOOP:t2:b1:42:" + v.Hash,
		"RELOOP:t1:b2:42:" + v.Hash,
		"RELOOP:t1:b1:43:" + v.Hash,
		"RELOOP:t1:b1:42:" + v.Hash + "0",
	}
	for _, code := range tampered {
		if _, err := ParseVerificationCode(code); !errors.Is(err, ErrHashMismatch) {
			t.Errorf("ParseVerificationCode(%q): expected ErrHashMismatch, got %v", code, err)
		}
	}
}

func newVerifiableTrade(t *testing.T, e *testEnv) *models.Trade {
	t.Helper()
	e.createUser(t, "seller")
	e.createUser(t, "buyer")
	trade, err := e.trades.CreateTrade(context.Background(), TradeInput{
		ListingID:    "listing-1",
		ListingTitle: "Desk lamp",
		SellerID:     "seller",
		BuyerID:      "buyer",
		OfferedCoins: 40,
		CO2Saved:     3.5,
	})
	if err != nil {
		t.Fatalf("CreateTrade: %v", err)
	}
	return trade
}

func TestVerifyCodeRoundTrip(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	trade := newVerifiableTrade(t, e)

	v, err := e.verification.GenerateVerificationCode(ctx, trade.ID, "buyer")
	if err != nil {
		t.Fatalf("GenerateVerificationCode: %v", err)
	}
	if ok, _ := e.verification.IsVerified(ctx, trade.ID); ok {
		t.Fatal("trade verified before the seller scanned")
	}

	e.clock.Advance(10 * time.Minute)
	res, err := e.verification.VerifyCode(ctx, v.Code, "seller")
	if err != nil {
		t.Fatalf("VerifyCode: %v", err)
	}
	if !res.Valid || res.TradeID != trade.ID || res.Trade.SellerID != "seller" {
		t.Fatalf("unexpected result: %+v", res)
	}

	var rec models.TradeVerification
	if err := e.db.Where("trade_id = ?", trade.ID).First(&rec).Error; err != nil {
		t.Fatalf("load record: %v", err)
	}
	if !rec.Verified || rec.VerifiedBy != "seller" || rec.VerifiedAt == nil {
		t.Fatalf("record not marked verified: %+v", rec)
	}
}

func TestVerifyCodeExpiryBoundary(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	trade := newVerifiableTrade(t, e)

	v, err := e.verification.GenerateVerificationCode(ctx, trade.ID, "buyer")
	if err != nil {
		t.Fatalf("GenerateVerificationCode: %v", err)
	}

	e.clock.Advance(CodeLifetime)
	if _, err := e.verification.VerifyCode(ctx, v.Code, "seller"); err != nil {
		t.Fatalf("code exactly 30 minutes old should verify, got %v", err)
	}

	e.clock.Advance(time.Millisecond)
	if _, err := e.verification.VerifyCode(ctx, v.Code, "seller"); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired, got %v", err)
	}

	fresh, err := e.verification.RegenerateCode(ctx, trade.ID, "buyer")
	if err != nil {
		t.Fatalf("RegenerateCode: %v", err)
	}
	if fresh.Code == v.Code {
		t.Fatal("regenerated code matches the expired one")
	}
	if _, err := e.verification.VerifyCode(ctx, fresh.Code, "seller"); err != nil {
		t.Fatalf("regenerated code should verify, got %v", err)
	}
}

func TestVerifyCodeRejections(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	trade := newVerifiableTrade(t, e)
	now := e.clock.Now().UnixMilli()

	valid, _ := NewVerificationCode(trade.ID, "buyer", now)
	wrongBuyer, _ := NewVerificationCode(trade.ID, "mallory", now)
	noTrade, _ := NewVerificationCode("missing-trade", "buyer", now)

	cases := []struct {
		name   string
		code   string
		seller string
		want   error
	}{
		{"format", "hello", "seller", ErrInvalidCodeFormat},
		{"tamper", strings.Replace(valid.Code, "buyer", "buyee", 1), "seller", ErrHashMismatch},
		{"trade", noTrade.Code, "seller", ErrTradeNotFound},
		{"seller", valid.Code, "buyer", ErrNotTradeSeller},
		{"buyer", wrongBuyer.Code, "seller", ErrBuyerMismatch},
	}
	for _, tc := range cases {
		if _, err := e.verification.VerifyCode(ctx, tc.code, tc.seller); !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
	if ok, _ := e.verification.IsVerified(ctx, trade.ID); ok {
		t.Fatal("rejected codes must not verify the trade")
	}
}

func TestVerifyCodeWithoutStoredRecord(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	trade := newVerifiableTrade(t, e)

	v, _ := NewVerificationCode(trade.ID, "buyer", e.clock.Now().UnixMilli())
	if _, err := e.verification.VerifyCode(ctx, v.Code, "seller"); err != nil {
		t.Fatalf("VerifyCode: %v", err)
	}
	if ok, err := e.verification.IsVerified(ctx, trade.ID); err != nil || !ok {
		t.Fatalf("IsVerified = %v, %v", ok, err)
	}
}

func TestVerifyCodeRejectsEveryHashEdit(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	trade := newVerifiableTrade(t, e)

	v, err := e.verification.GenerateVerificationCode(ctx, trade.ID, "buyer")
	if err != nil {
		t.Fatalf("GenerateVerificationCode: %v", err)
	}
	prefix := strings.TrimSuffix(v.Code, v.Hash)
	for i := range v.Hash {
		edited := []byte(v.Hash)
		for _, d := range []byte("0123456789abcdef") {
			if d != edited[i] {
				edited[i] = d
				break
			}
		}
		code := prefix + string(edited)
		if _, err := e.verification.VerifyCode(ctx, code, "seller"); !errors.Is(err, ErrHashMismatch) {
			t.Errorf("hash char %d edited (%s): expected ErrHashMismatch, got %v", i, code, err)
		}
	}
	if ok, _ := e.verification.IsVerified(ctx, trade.ID); ok {
		t.Fatal("an edited code verified the trade")
	}
}

func TestRegeneratedCodeSupersedesOlder(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	trade := newVerifiableTrade(t, e)

	old, err := e.verification.GenerateVerificationCode(ctx, trade.ID, "buyer")
	if err != nil {
		t.Fatalf("GenerateVerificationCode: %v", err)
	}
	e.clock.Advance(time.Minute)
	fresh, err := e.verification.RegenerateCode(ctx, trade.ID, "buyer")
	if err != nil {
		t.Fatalf("RegenerateCode: %v", err)
	}

	if _, err := e.verification.VerifyCode(ctx, old.Code, "seller"); !errors.Is(err, ErrCodeSuperseded) {
		t.Fatalf("older code: expected ErrCodeSuperseded, got %v", err)
	}
	if ok, _ := e.verification.IsVerified(ctx, trade.ID); ok {
		t.Fatal("older code verified the trade")
	}
	if _, err := e.verification.VerifyCode(ctx, fresh.Code, "seller"); err != nil {
		t.Fatalf("latest code: %v", err)
	}

	// reissuing after the seller verified keeps the trade verified
	e.clock.Advance(time.Minute)
	if _, err := e.verification.RegenerateCode(ctx, trade.ID, "buyer"); err != nil {
		t.Fatalf("RegenerateCode: %v", err)
	}
	if ok, err := e.verification.IsVerified(ctx, trade.ID); err != nil || !ok {
		t.Fatalf("IsVerified after reissue = %v, %v", ok, err)
	}
}
