package arithmetic

import (
	"math/big"
	"testing"
)

func TestQuotaFloor(t *testing.T) {
	// SimpleExample.stv: 240 formal ballots, 3 vacancies -> quota 61.
	q := QuotaFloor(FromInt64(240), 3)
	if q.IntString() != "61" {
		t.Fatalf("expected quota 61, got %s", q.IntString())
	}
}

func TestApplyRoundingDown(t *testing.T) {
	tv := NewFraction(44, 49)
	product := FromInt64(49).MulFraction(tv)
	tally := ApplyRounding(KindInteger, RoundDirectionDown, product)
	if tally.IntString() != "44" {
		t.Fatalf("expected 44, got %s", tally.IntString())
	}
}

func TestApplyRoundingDownTruncatesFraction(t *testing.T) {
	// 10/3 should round down to 3, never up, even though it is closer to 3.33.
	tally := ApplyRounding(KindInteger, RoundDirectionDown, big.NewRat(10, 3))
	if tally.IntString() != "3" {
		t.Fatalf("expected 3, got %s", tally.IntString())
	}
}

func TestApplyRoundingNearest(t *testing.T) {
	// ACT2020 bug: round to nearest instead of down.
	tally := ApplyRounding(KindInteger, RoundDirectionNearest, big.NewRat(10, 3))
	if tally.IntString() != "3" {
		t.Fatalf("expected 3 (10/3 rounds down to nearest), got %s", tally.IntString())
	}
	tally2 := ApplyRounding(KindInteger, RoundDirectionNearest, big.NewRat(11, 3))
	if tally2.IntString() != "4" {
		t.Fatalf("expected 4 (11/3 = 3.67 rounds up to nearest), got %s", tally2.IntString())
	}
}

func TestApplyRoundingFixedSixDP(t *testing.T) {
	tally := ApplyRounding(KindFixedSixDP, RoundDirectionDown, big.NewRat(1, 3))
	if got := tally.DecimalString(); got != "0.333333" {
		t.Fatalf("expected 0.333333, got %s", got)
	}
}

func TestFractionEqualIgnoresReduction(t *testing.T) {
	a := NewFraction(2, 4)
	b := NewFraction(1, 2)
	if !a.Equal(b) {
		t.Fatalf("expected 2/4 to equal 1/2 by value")
	}
	if a.String() != "2/4" {
		t.Fatalf("expected unreduced display 2/4, got %s", a.String())
	}
}

func TestTransferValueOriginTracking(t *testing.T) {
	a := NewTrackedTransferValue(NewFraction(1, 2), 5)
	b := NewTrackedTransferValue(NewFraction(1, 2), 6)
	if a.SameAs(b) {
		t.Fatalf("transfer values from different origin counts must not merge under ACT2020 tracking")
	}
	c := NewTransferValue(NewFraction(1, 2))
	d := NewTransferValue(NewFraction(2, 4))
	if !c.SameAs(d) {
		t.Fatalf("untracked transfer values should merge on value equality alone")
	}
}

func TestParseByKindRoundTrip(t *testing.T) {
	cases := []struct {
		kind Kind
		in   string
	}{
		{KindInteger, "110"},
		{KindInteger, "-3"},
		{KindFixedSixDP, "345.288272"},
		{KindRational, "3/7"},
		{KindRational, "9"},
	}
	for _, c := range cases {
		tally, err := ParseByKind(c.kind, c.in)
		if err != nil {
			t.Fatalf("ParseByKind(%v, %q): %v", c.kind, c.in, err)
		}
		if got := tally.FormatByKind(c.kind); got != c.in {
			t.Fatalf("round trip mismatch: in=%q out=%q", c.in, got)
		}
	}
}
