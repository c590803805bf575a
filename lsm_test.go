package gozx

import (
	"errors"
	"testing"
)

func TestScalarLSMRoundTrip(t *testing.T) {
	samples := []*Scalar{
		ScalarZero(),
		ScalarOne(),
		ScalarFromInt(-12),
		ScalarSqrt2Pow(-7),
		ScalarFromCoeffs(3, OmegaCoeffs{1, -2, 0, 5}),
		ScalarFromPhase(PhaseOf(1, 3)),
		ScalarOne().MulOnePlusPhase(PhaseOf(2, 5)),
	}
	for i, s := range samples {
		buf := s.AppendLSM(nil)
		var back Scalar
		n, err := back.ParseLSM(buf)
		if err != nil {
			t.Fatalf("sample %d: %v", i, err)
		}
		if n != len(buf) {
			t.Fatalf("sample %d consumed %d of %d bytes", i, n, len(buf))
		}
		if !back.Equals(s) {
			t.Fatalf("sample %d: got %s, want %s", i, &back, s)
		}
	}
}

func TestScalarListLSM(t *testing.T) {
	list := []*Scalar{
		ScalarFromCoeffs(-2, OmegaCoeffs{1, 1, -1, 1}),
		ScalarFromCoeffs(-2, OmegaCoeffs{1, -1, 1, -1}),
	}
	buf := AppendScalarsLSM(nil, list)
	back, err := ParseScalarsLSM(buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(back) != len(list) {
		t.Fatalf("got %d scalars, want %d", len(back), len(list))
	}
	for i := range back {
		if !back[i].Equals(list[i]) {
			t.Fatalf("scalar %d: got %s, want %s", i, back[i], list[i])
		}
	}
}

func TestScalarLSMTruncated(t *testing.T) {
	buf := AppendScalarsLSM(nil, []*Scalar{ScalarFromInt(1000)})
	for cut := 1; cut < len(buf); cut++ {
		if _, err := ParseScalarsLSM(buf[:cut]); !errors.Is(err, ErrBadEncoding) {
			t.Fatalf("cut at %d: got %v, want ErrBadEncoding", cut, err)
		}
	}
}
