package gozx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"strings"
)

// OmegaCoeffs is an element of Z[ω], ω = e^{iπ/4}: c[0] + c[1]ω + c[2]ω² + c[3]ω³
// with ω⁴ = −1. Rule appliers accumulate small exact sums in this form before
// folding them into a Scalar.
type OmegaCoeffs [4]int64

// AddPow adds sign·ω^k (k taken mod 8) into c.
func (c *OmegaCoeffs) AddPow(k int, sign int64) {
	k &= 7
	if k >= 4 {
		k -= 4
		sign = -sign
	}
	c[k] += sign
}

// Scalar is an exact complex number of the form
//
//	e^{iπ·phase} · √2^pow2 · (a0 + a1ω + a2ω² + a3ω³) · Π (1 + e^{iπ·node})
//
// with ω = e^{iπ/4} and integer aᵢ of arbitrary size. Phases whose
// denominator divides 4 are always folded into the ω-coefficients, so after
// normalization phase lies in [0, π/4) and every node denominator exceeds 4.
// Every rewrite updates the attached Scalar through these exact forms only;
// there is no floating point representation anywhere.
type Scalar struct {
	pow2  int
	coeff [4]big.Int
	phase Phase
	nodes []Phase
}

func ScalarZero() *Scalar {
	return &Scalar{}
}

func ScalarOne() *Scalar {
	s := &Scalar{}
	s.coeff[0].SetInt64(1)
	return s
}

func ScalarFromInt(v int64) *Scalar {
	s := &Scalar{}
	s.coeff[0].SetInt64(v)
	s.normalize()
	return s
}

// ScalarSqrt2Pow returns √2^k.
func ScalarSqrt2Pow(k int) *Scalar {
	s := ScalarOne()
	s.pow2 = k
	return s
}

// ScalarFromPhase returns e^{iπp}.
func ScalarFromPhase(p Phase) *Scalar {
	s := ScalarOne()
	s.MulPhase(p)
	return s
}

// ScalarFromCoeffs returns √2^pow2 · (c0 + c1ω + c2ω² + c3ω³).
func ScalarFromCoeffs(pow2 int, c OmegaCoeffs) *Scalar {
	s := &Scalar{pow2: pow2}
	for i := range c {
		s.coeff[i].SetInt64(c[i])
	}
	s.normalize()
	return s
}

func (s *Scalar) Copy() *Scalar {
	out := &Scalar{pow2: s.pow2, phase: s.phase}
	for i := range s.coeff {
		out.coeff[i].Set(&s.coeff[i])
	}
	if len(s.nodes) > 0 {
		out.nodes = append([]Phase{}, s.nodes...)
	}
	return out
}

// Set assigns src to s.
func (s *Scalar) Set(src *Scalar) {
	s.pow2 = src.pow2
	s.phase = src.phase
	for i := range s.coeff {
		s.coeff[i].Set(&src.coeff[i])
	}
	s.nodes = append(s.nodes[:0], src.nodes...)
}

func (s *Scalar) IsZero() bool {
	for i := range s.coeff {
		if s.coeff[i].Sign() != 0 {
			return false
		}
	}
	return true
}

// HasNodes reports whether symbolic (1+e^{iπα}) factors survive
// normalization: true only for node phases with denominator above 4.
func (s *Scalar) HasNodes() bool {
	return len(s.nodes) > 0
}

// CanAdd reports whether s.Add(t) is defined: both scalars free of symbolic
// nodes and residual phase.
func (s *Scalar) CanAdd(t *Scalar) bool {
	return len(s.nodes) == 0 && len(t.nodes) == 0 && s.phase.IsZero() && t.phase.IsZero()
}

func (s *Scalar) IsOne() bool {
	return s.pow2 == 0 && s.phase.IsZero() && len(s.nodes) == 0 &&
		s.coeff[0].Cmp(bigOne) == 0 &&
		s.coeff[1].Sign() == 0 && s.coeff[2].Sign() == 0 && s.coeff[3].Sign() == 0
}

// MulSqrt2Pow multiplies s by √2^k.
func (s *Scalar) MulSqrt2Pow(k int) *Scalar {
	if s.IsZero() {
		return s
	}
	s.pow2 += k
	return s
}

// MulInt multiplies s by the integer v.
func (s *Scalar) MulInt(v int64) *Scalar {
	var bv big.Int
	bv.SetInt64(v)
	for i := range s.coeff {
		s.coeff[i].Mul(&s.coeff[i], &bv)
	}
	s.normalize()
	return s
}

// MulPhase multiplies s by e^{iπp}.
func (s *Scalar) MulPhase(p Phase) *Scalar {
	if s.IsZero() {
		return s
	}
	s.phase = s.phase.Add(p)
	s.normalize()
	return s
}

// MulOnePlusPhase multiplies s by (1 + e^{iπp}). Denominators dividing 4
// fold exactly into the ω-coefficients; anything else is kept symbolic.
func (s *Scalar) MulOnePlusPhase(p Phase) *Scalar {
	if s.IsZero() {
		return s
	}
	s.nodes = append(s.nodes, p)
	s.normalize()
	return s
}

// MulCoeffs multiplies s by the Z[ω] element c.
func (s *Scalar) MulCoeffs(c OmegaCoeffs) *Scalar {
	var b [4]big.Int
	for i := range c {
		b[i].SetInt64(c[i])
	}
	s.mulOmega(&b)
	s.normalize()
	return s
}

// Mul multiplies s by t.
func (s *Scalar) Mul(t *Scalar) *Scalar {
	if s.IsZero() {
		return s
	}
	if t.IsZero() {
		s.Set(ScalarZero())
		return s
	}
	s.pow2 += t.pow2
	s.phase = s.phase.Add(t.phase)
	s.nodes = append(s.nodes, t.nodes...)
	s.mulOmega(&t.coeff)
	s.normalize()
	return s
}

// Add adds t into s. Both scalars must be free of symbolic nodes and
// residual phase (always true for stabilizer terms); anything else is a
// caller bug and panics.
func (s *Scalar) Add(t *Scalar) *Scalar {
	if len(s.nodes) != 0 || len(t.nodes) != 0 || !s.phase.IsZero() || !t.phase.IsZero() {
		panic("gozx: Add on scalar with unfolded symbolic factors")
	}
	if t.IsZero() {
		return s
	}
	if s.IsZero() {
		s.Set(t)
		return s
	}

	// Align both to the lower power of √2, then add coefficients.
	a, b := s, t.Copy()
	if a.pow2 > b.pow2 {
		a.shiftDownTo(b.pow2)
	} else if b.pow2 > a.pow2 {
		b.shiftDownTo(a.pow2)
	}
	for i := range s.coeff {
		s.coeff[i].Add(&a.coeff[i], &b.coeff[i])
	}
	s.normalize()
	return s
}

// shiftDownTo rewrites s with pow2 = target < s.pow2 by multiplying the
// coefficients by √2^(s.pow2 − target).
func (s *Scalar) shiftDownTo(target int) {
	diff := s.pow2 - target
	if diff < 0 {
		panic("gozx: shiftDownTo would lose precision")
	}
	if diff >= 2 {
		var two big.Int
		two.Lsh(bigOne, uint(diff/2))
		for i := range s.coeff {
			s.coeff[i].Mul(&s.coeff[i], &two)
		}
	}
	if diff&1 == 1 {
		s.mulOmega(&bigSqrt2) // √2 = ω − ω³
	}
	s.pow2 = target
}

func (s *Scalar) Equals(t *Scalar) bool {
	if s.IsZero() || t.IsZero() {
		return s.IsZero() && t.IsZero()
	}
	if s.pow2 != t.pow2 || !s.phase.Equals(t.phase) || len(s.nodes) != len(t.nodes) {
		return false
	}
	for i := range s.nodes {
		if !s.nodes[i].Equals(t.nodes[i]) {
			return false
		}
	}
	for i := range s.coeff {
		if s.coeff[i].Cmp(&t.coeff[i]) != 0 {
			return false
		}
	}
	return true
}

// normalize rewrites s into its canonical form: the quarter-turn part of
// phase folds into the ω-coefficients, nodes with denominator dividing 4
// fold likewise, all √2 factors are extracted out of the coefficients into
// pow2, and zero collapses to the canonical zero.
func (s *Scalar) normalize() {
	// Fold e^{iπk/4} into ω^k, leaving phase in [0, π/4).
	if !s.phase.IsZero() {
		num, den := s.phase.Num(), s.phase.Den()
		k := (4 * num) / den
		if k > 0 {
			s.mulOmegaPow(int(k))
			s.phase = PhaseOf(4*num-k*den, 4*den)
		}
	}

	// Fold nodes with denominator 1, 2 or 4: (1 + e^{iπk/4}) = 1 + ω^k.
	if len(s.nodes) > 0 {
		kept := s.nodes[:0]
		for _, nd := range s.nodes {
			den := nd.Den()
			if 4%den == 0 {
				k := int(nd.Num() * (4 / den))
				var c OmegaCoeffs
				c.AddPow(0, 1)
				c.AddPow(k, 1)
				var b [4]big.Int
				for i := range c {
					b[i].SetInt64(c[i])
				}
				s.mulOmega(&b)
			} else {
				kept = append(kept, nd)
			}
		}
		s.nodes = kept
		sort.Slice(s.nodes, func(i, j int) bool {
			a, b := s.nodes[i], s.nodes[j]
			if a.Den() != b.Den() {
				return a.Den() < b.Den()
			}
			return a.Num() < b.Num()
		})
	}

	if s.IsZero() {
		s.pow2 = 0
		s.phase = Phase{}
		s.nodes = nil
		return
	}

	// Extract √2 from the coefficients: c is divisible by √2 = ω − ω³
	// exactly when a0≡a2 and a1≡a3 (mod 2), and then
	// c/√2 = [(a1−a3)/2, (a0+a2)/2, (a1+a3)/2, (a2−a0)/2].
	for {
		if s.coeff[0].Bit(0) != s.coeff[2].Bit(0) || s.coeff[1].Bit(0) != s.coeff[3].Bit(0) {
			break
		}
		var q [4]big.Int
		q[0].Sub(&s.coeff[1], &s.coeff[3])
		q[1].Add(&s.coeff[0], &s.coeff[2])
		q[2].Add(&s.coeff[1], &s.coeff[3])
		q[3].Sub(&s.coeff[2], &s.coeff[0])
		for i := range q {
			q[i].Rsh(&q[i], 1)
		}
		s.coeff = q
		s.pow2++
	}
}

// mulOmegaPow multiplies the coefficients by ω^k.
func (s *Scalar) mulOmegaPow(k int) {
	k &= 7
	if k == 0 {
		return
	}
	var q [4]big.Int
	for i := range s.coeff {
		j := (i + k) & 7
		if j >= 4 {
			q[j-4].Neg(&s.coeff[i])
		} else {
			q[j].Set(&s.coeff[i])
		}
	}
	s.coeff = q
}

// mulOmega multiplies the coefficients by the Z[ω] element b, reducing by
// ω⁴ = −1.
func (s *Scalar) mulOmega(b *[4]big.Int) {
	var q [4]big.Int
	var t big.Int
	for i := range s.coeff {
		if s.coeff[i].Sign() == 0 {
			continue
		}
		for j := range b {
			if b[j].Sign() == 0 {
				continue
			}
			t.Mul(&s.coeff[i], &b[j])
			k := i + j
			if k >= 4 {
				q[k-4].Sub(&q[k-4], &t)
			} else {
				q[k].Add(&q[k], &t)
			}
		}
	}
	s.coeff = q
}

func (s *Scalar) String() string {
	if s.IsZero() {
		return "0"
	}
	var parts []string
	if s.pow2 != 0 {
		parts = append(parts, fmt.Sprintf("rt2^%d", s.pow2))
	}
	if c := s.coeffString(); c != "1" || len(parts) == 0 && s.phase.IsZero() && len(s.nodes) == 0 {
		parts = append(parts, c)
	}
	if !s.phase.IsZero() {
		parts = append(parts, fmt.Sprintf("exp(i%s)", s.phase.String()))
	}
	for _, nd := range s.nodes {
		parts = append(parts, fmt.Sprintf("(1+exp(i%s))", nd.String()))
	}
	return strings.Join(parts, " * ")
}

func (s *Scalar) coeffString() string {
	var b strings.Builder
	wrote := false
	names := [4]string{"", "w", "w2", "w3"}
	for i := range s.coeff {
		c := &s.coeff[i]
		if c.Sign() == 0 {
			continue
		}
		if wrote {
			if c.Sign() > 0 {
				b.WriteString(" + ")
			} else {
				b.WriteString(" - ")
			}
		} else if c.Sign() < 0 {
			b.WriteString("-")
		}
		var abs big.Int
		abs.Abs(c)
		if abs.Cmp(bigOne) != 0 || i == 0 {
			b.WriteString(abs.String())
		}
		b.WriteString(names[i])
		wrote = true
	}
	if !wrote {
		return "0"
	}
	if strings.ContainsAny(b.String(), "+-") && b.Len() > 2 {
		return "(" + b.String() + ")"
	}
	return b.String()
}

type scalarJSON struct {
	Pow2  int      `json:"pow2"`
	Coeff []string `json:"coeff"`
	Phase string   `json:"phase,omitempty"`
	Nodes []string `json:"nodes,omitempty"`
}

func (s *Scalar) MarshalJSON() ([]byte, error) {
	out := scalarJSON{Pow2: s.pow2}
	out.Coeff = make([]string, 4)
	for i := range s.coeff {
		out.Coeff[i] = s.coeff[i].String()
	}
	if !s.phase.IsZero() {
		txt, _ := s.phase.MarshalText()
		out.Phase = string(txt)
	}
	for _, nd := range s.nodes {
		txt, _ := nd.MarshalText()
		out.Nodes = append(out.Nodes, string(txt))
	}
	return json.Marshal(out)
}

func (s *Scalar) UnmarshalJSON(in []byte) error {
	dec := json.NewDecoder(bytes.NewReader(in))
	dec.DisallowUnknownFields()
	var raw scalarJSON
	if err := dec.Decode(&raw); err != nil {
		return ErrBadEncoding
	}
	if len(raw.Coeff) != 4 {
		return ErrBadEncoding
	}
	next := Scalar{pow2: raw.Pow2}
	for i, cs := range raw.Coeff {
		if _, ok := next.coeff[i].SetString(cs, 10); !ok {
			return ErrBadEncoding
		}
	}
	if raw.Phase != "" {
		if err := next.phase.UnmarshalText([]byte(raw.Phase)); err != nil {
			return err
		}
	}
	for _, ns := range raw.Nodes {
		var nd Phase
		if err := nd.UnmarshalText([]byte(ns)); err != nil {
			return err
		}
		next.nodes = append(next.nodes, nd)
	}
	next.normalize()
	*s = next
	return nil
}

var (
	bigOne   = big.NewInt(1)
	bigSqrt2 = func() [4]big.Int {
		var c [4]big.Int
		c[1].SetInt64(1)
		c[3].SetInt64(-1)
		return c
	}()
)
