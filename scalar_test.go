package gozx

import (
	"encoding/json"
	"testing"
)

func TestScalarOmegaCycle(t *testing.T) {
	s := ScalarOne()
	for i := 0; i < 8; i++ {
		s.MulPhase(PhaseQuarterPi())
	}
	if !s.Equals(ScalarOne()) {
		t.Fatalf("ω^8 = %s, want 1", s)
	}
	s = ScalarFromPhase(PhasePi())
	if !s.Equals(ScalarFromInt(-1)) {
		t.Fatalf("e^{iπ} = %s, want -1", s)
	}
}

func TestScalarSqrt2Canonical(t *testing.T) {
	// 2 and √2·√2 must normalize to the identical form.
	two := ScalarFromInt(2)
	rt2sq := ScalarSqrt2Pow(2)
	if !two.Equals(rt2sq) {
		t.Fatalf("2 = %s but √2^2 = %s", two, rt2sq)
	}
	// √2 itself equals ω − ω³.
	if !ScalarSqrt2Pow(1).Equals(ScalarFromCoeffs(0, OmegaCoeffs{0, 1, 0, -1})) {
		t.Fatal("√2 != ω-ω³")
	}
	// 8 = √2^6.
	if !ScalarFromInt(8).Equals(ScalarSqrt2Pow(6)) {
		t.Fatal("8 != √2^6")
	}
}

func TestScalarOnePlusPhase(t *testing.T) {
	if !ScalarOne().MulOnePlusPhase(PhasePi()).IsZero() {
		t.Fatal("1+e^{iπ} must be zero")
	}
	got := ScalarOne().MulOnePlusPhase(PhaseHalfPi())
	if !got.Equals(ScalarFromCoeffs(0, OmegaCoeffs{1, 0, 1, 0})) {
		t.Fatalf("1+i = %s", got)
	}
	// (1+e^{iπ/4})(1+e^{-iπ/4}) = 2+√2.
	got = ScalarOne().MulOnePlusPhase(PhaseQuarterPi()).MulOnePlusPhase(PhaseOf(-1, 4))
	want := ScalarFromCoeffs(0, OmegaCoeffs{2, 1, 0, -1})
	if !got.Equals(want) {
		t.Fatalf("(1+ω)(1+ω⁻¹) = %s, want %s", got, want)
	}
	// Zero phase doubles.
	if !ScalarOne().MulOnePlusPhase(PhaseZero()).Equals(ScalarFromInt(2)) {
		t.Fatal("1+e^{0} != 2")
	}
	// Non-dyadic factors stay symbolic and round-trip equality.
	a := ScalarOne().MulOnePlusPhase(PhaseOf(1, 3))
	b := ScalarOne().MulOnePlusPhase(PhaseOf(1, 3))
	if !a.Equals(b) {
		t.Fatal("symbolic nodes must compare equal")
	}
	if a.Equals(ScalarOne().MulOnePlusPhase(PhaseOf(2, 3))) {
		t.Fatal("distinct symbolic nodes must differ")
	}
}

func TestScalarResidualPhase(t *testing.T) {
	// e^{iπ/3} = ω · e^{iπ/12}: the quarter-turn folds into the coefficients.
	a := ScalarFromPhase(PhaseOf(1, 3))
	b := ScalarFromCoeffs(0, OmegaCoeffs{0, 1, 0, 0}).MulPhase(PhaseOf(1, 12))
	if !a.Equals(b) {
		t.Fatalf("e^{iπ/3} = %s, alternative composition = %s", a, b)
	}
	c := ScalarFromPhase(PhaseOf(1, 3)).MulPhase(PhaseOf(1, 3))
	if !c.Equals(ScalarFromPhase(PhaseOf(2, 3))) {
		t.Fatalf("e^{iπ/3}·e^{iπ/3} = %s, want e^{i2π/3}", c)
	}
}

func TestScalarMulAndAdd(t *testing.T) {
	// (1+i)(1-i) = 2.
	got := ScalarOne().MulOnePlusPhase(PhaseHalfPi()).MulOnePlusPhase(PhaseOf(3, 2))
	if !got.Equals(ScalarFromInt(2)) {
		t.Fatalf("(1+i)(1-i) = %s, want 2", got)
	}
	// 1 + e^{iπ/2} via Add.
	sum := ScalarOne().Add(ScalarFromPhase(PhaseHalfPi()))
	if !sum.Equals(ScalarOne().MulOnePlusPhase(PhaseHalfPi())) {
		t.Fatalf("1+i via Add = %s", sum)
	}
	// Adding across different √2 powers: √2 + √2 = √2³·... = 2√2.
	sum = ScalarSqrt2Pow(1).Add(ScalarSqrt2Pow(1))
	if !sum.Equals(ScalarSqrt2Pow(3)) {
		t.Fatalf("√2+√2 = %s, want √2³", sum)
	}
	// x + (-x) = 0.
	x := ScalarFromCoeffs(-3, OmegaCoeffs{7, -2, 5, 1})
	neg := x.Copy().MulInt(-1)
	if !x.Copy().Add(neg).IsZero() {
		t.Fatal("x + (-x) must be zero")
	}
	// Zero short-circuits multiplication.
	if !ScalarZero().Mul(ScalarSqrt2Pow(5)).IsZero() {
		t.Fatal("0·x must stay zero")
	}
	if got := ScalarSqrt2Pow(5).Mul(ScalarZero()); !got.IsZero() || !got.Equals(ScalarZero()) {
		t.Fatal("x·0 must normalize to canonical zero")
	}
}

func TestScalarJSONRoundTrip(t *testing.T) {
	cases := []*Scalar{
		ScalarZero(),
		ScalarOne(),
		ScalarFromInt(-6),
		ScalarSqrt2Pow(-5),
		ScalarFromCoeffs(3, OmegaCoeffs{1, 1, -1, 1}),
		ScalarFromPhase(PhaseOf(1, 3)),
		ScalarOne().MulOnePlusPhase(PhaseOf(1, 5)).MulPhase(PhaseOf(1, 12)),
	}
	for _, s := range cases {
		raw, err := json.Marshal(s)
		if err != nil {
			t.Fatal(err)
		}
		var q Scalar
		if err := json.Unmarshal(raw, &q); err != nil {
			t.Fatalf("unmarshal %s: %v", raw, err)
		}
		if !q.Equals(s) {
			t.Fatalf("round trip %s -> %s -> %s", s, raw, &q)
		}
	}
	var q Scalar
	if err := json.Unmarshal([]byte(`{"pow2":0,"coeff":["1","2"]}`), &q); err == nil {
		t.Fatal("short coeff vector must not parse")
	}
}

func TestScalarStrings(t *testing.T) {
	cases := []struct {
		s    *Scalar
		want string
	}{
		{ScalarZero(), "0"},
		{ScalarOne(), "1"},
		{ScalarFromInt(-1), "-1"},
		{ScalarSqrt2Pow(3), "rt2^3"},
		{ScalarFromCoeffs(0, OmegaCoeffs{0, 1, 0, 0}), "w"},
	}
	for _, c := range cases {
		if got := c.s.String(); got != c.want {
			t.Fatalf("String() = %q, want %q", got, c.want)
		}
	}
}
