package gozx

import (
	"fmt"
	"strconv"
	"strings"
)

// Phase is an exact rational multiple of π, normalized to the half-open
// interval [0, 2π): num/den is always fully reduced with 0 <= num < 2*den.
//
// The zero value is the zero phase.
type Phase struct {
	num int64
	den int64
}

// PhaseOf returns the normalized phase (num/den)·π.
// A zero denominator panics: callers own validation of external input.
func PhaseOf(num, den int64) Phase {
	if den == 0 {
		panic("gozx: phase with zero denominator")
	}
	if den < 0 {
		num, den = -num, -den
	}
	if g := gcd64(abs64(num), den); g > 1 {
		num /= g
		den /= g
	}
	m := 2 * den
	num %= m
	if num < 0 {
		num += m
	}
	return Phase{num: num, den: den}
}

func PhaseZero() Phase        { return Phase{} }
func PhasePi() Phase          { return Phase{num: 1, den: 1} }
func PhaseHalfPi() Phase      { return Phase{num: 1, den: 2} }
func PhaseThreeHalfPi() Phase { return Phase{num: 3, den: 2} }
func PhaseQuarterPi() Phase   { return Phase{num: 1, den: 4} }

func (p Phase) Num() int64 { return p.num }

// Den returns the reduced denominator; 1 for the zero phase and π.
func (p Phase) Den() int64 {
	if p.den == 0 {
		return 1
	}
	return p.den
}

func (p Phase) Add(q Phase) Phase {
	return PhaseOf(p.Num()*q.Den()+q.Num()*p.Den(), p.Den()*q.Den())
}

func (p Phase) Sub(q Phase) Phase {
	return PhaseOf(p.Num()*q.Den()-q.Num()*p.Den(), p.Den()*q.Den())
}

func (p Phase) Neg() Phase {
	return PhaseOf(-p.Num(), p.Den())
}

// Half returns p/2 (still a phase in [0, 2π)).
func (p Phase) Half() Phase {
	return PhaseOf(p.Num(), 2*p.Den())
}

func (p Phase) IsZero() bool {
	return p.num == 0
}

// IsPauli returns true for phases 0 and π.
func (p Phase) IsPauli() bool {
	return p.Den() == 1
}

// IsClifford returns true for multiples of π/2.
func (p Phase) IsClifford() bool {
	return p.Den() <= 2
}

// IsProperClifford returns true for exactly π/2 and 3π/2.
func (p Phase) IsProperClifford() bool {
	return p.Den() == 2
}

// IsTLike returns true for odd multiples of π/4: the phases the
// decomposition basis consumes.
func (p Phase) IsTLike() bool {
	return p.Den() == 4
}

func (p Phase) Equals(q Phase) bool {
	return p.Num() == q.Num() && p.Den() == q.Den()
}

func (p Phase) String() string {
	switch {
	case p.num == 0:
		return "0"
	case p.den == 1 && p.num == 1:
		return "π"
	case p.num == 1:
		return fmt.Sprintf("π/%d", p.den)
	default:
		return fmt.Sprintf("%dπ/%d", p.num, p.den)
	}
}

// MarshalText renders the phase as a fraction of π: "0", "1", "3/4".
func (p Phase) MarshalText() ([]byte, error) {
	if p.Den() == 1 {
		return []byte(strconv.FormatInt(p.num, 10)), nil
	}
	return []byte(fmt.Sprintf("%d/%d", p.num, p.den)), nil
}

func (p *Phase) UnmarshalText(in []byte) error {
	s := string(in)
	numStr, denStr, hasDen := strings.Cut(s, "/")
	num, err := strconv.ParseInt(strings.TrimSpace(numStr), 10, 64)
	if err != nil {
		return ErrBadPhase
	}
	den := int64(1)
	if hasDen {
		den, err = strconv.ParseInt(strings.TrimSpace(denStr), 10, 64)
		if err != nil || den == 0 {
			return ErrBadPhase
		}
	}
	*p = PhaseOf(num, den)
	return nil
}

func gcd64(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
