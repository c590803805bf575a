package libzx

import (
	"bytes"
	"testing"

	"github.com/zxcalc/gozx"
)

func TestCanonicalEncodingPermutation(t *testing.T) {
	a := NewDiagram()
	a0 := a.AddBoundary(true)
	a1 := a.AddVertex(KindZ, gozx.PhaseQuarterPi())
	a2 := a.AddVertex(KindX, gozx.PhaseHalfPi())
	a3 := a.AddBoundary(false)
	edge(t, a, a0, a1, EdgePlain)
	edge(t, a, a1, a2, EdgeHadamard)
	edge(t, a, a2, a3, EdgePlain)

	// same diagram, vertices inserted in a different order
	b := NewDiagram()
	b2 := b.AddVertex(KindX, gozx.PhaseHalfPi())
	b3 := b.AddBoundary(false)
	b1 := b.AddVertex(KindZ, gozx.PhaseQuarterPi())
	b0 := b.AddBoundary(true)
	edge(t, b, b2, b3, EdgePlain)
	edge(t, b, b1, b2, EdgeHadamard)
	edge(t, b, b0, b1, EdgePlain)

	if !IsIsomorphic(a, b) {
		t.Fatal("insertion order must not matter")
	}

	// the Scalar is not part of the encoding
	b.MulScalar(gozx.ScalarSqrt2Pow(5))
	if !IsIsomorphic(a, b) {
		t.Fatal("scalar must not affect the encoding")
	}
}

func TestCanonicalEncodingSymmetry(t *testing.T) {
	// a triangle with one marked corner has a 2-element automorphism group;
	// the encoding must come out the same from any corner
	triangle := func(mark int) *Diagram {
		d := NewDiagram()
		var vs [3]VtxID
		for i := range vs {
			p := gozx.PhaseZero()
			if i == mark {
				p = gozx.PhaseQuarterPi()
			}
			vs[i] = d.AddVertex(KindZ, p)
		}
		edge(t, d, vs[0], vs[1], EdgeHadamard)
		edge(t, d, vs[1], vs[2], EdgeHadamard)
		edge(t, d, vs[2], vs[0], EdgeHadamard)
		return d
	}
	for mark := 1; mark < 3; mark++ {
		if !IsIsomorphic(triangle(0), triangle(mark)) {
			t.Fatalf("marking corner %d should relabel, not change, the triangle", mark)
		}
	}
}

func TestCanonicalEncodingDistinguishes(t *testing.T) {
	builds := map[string]func() *Diagram{
		"pair": func() *Diagram {
			d := NewDiagram()
			u := d.AddVertex(KindZ, gozx.PhaseZero())
			v := d.AddVertex(KindZ, gozx.PhaseZero())
			edge(t, d, u, v, EdgeHadamard)
			return d
		},
		"pair-phased": func() *Diagram {
			d := NewDiagram()
			u := d.AddVertex(KindZ, gozx.PhaseQuarterPi())
			v := d.AddVertex(KindZ, gozx.PhaseZero())
			edge(t, d, u, v, EdgeHadamard)
			return d
		},
		"pair-plain": func() *Diagram {
			d := NewDiagram()
			u := d.AddVertex(KindZ, gozx.PhaseZero())
			v := d.AddVertex(KindZ, gozx.PhaseZero())
			edge(t, d, u, v, EdgePlain)
			return d
		},
		"pair-recolored": func() *Diagram {
			d := NewDiagram()
			u := d.AddVertex(KindZ, gozx.PhaseZero())
			v := d.AddVertex(KindX, gozx.PhaseZero())
			edge(t, d, u, v, EdgeHadamard)
			return d
		},
		"triangle": func() *Diagram {
			d := NewDiagram()
			u := d.AddVertex(KindZ, gozx.PhaseZero())
			v := d.AddVertex(KindZ, gozx.PhaseZero())
			w := d.AddVertex(KindZ, gozx.PhaseZero())
			edge(t, d, u, v, EdgeHadamard)
			edge(t, d, v, w, EdgeHadamard)
			edge(t, d, w, u, EdgeHadamard)
			return d
		},
		"multi-pair": func() *Diagram {
			// same counts as the triangle: 3 vertices, 3 edges
			d := NewDiagram()
			u := d.AddVertex(KindZ, gozx.PhaseZero())
			v := d.AddVertex(KindZ, gozx.PhaseZero())
			w := d.AddVertex(KindZ, gozx.PhaseZero())
			edge(t, d, u, v, EdgeHadamard)
			edge(t, d, u, v, EdgeHadamard)
			edge(t, d, u, w, EdgeHadamard)
			return d
		},
		"self-loop": func() *Diagram {
			d := NewDiagram()
			u := d.AddVertex(KindZ, gozx.PhaseZero())
			v := d.AddVertex(KindZ, gozx.PhaseZero())
			edge(t, d, u, v, EdgeHadamard)
			edge(t, d, u, u, EdgePlain)
			return d
		},
		"self-loop-h": func() *Diagram {
			d := NewDiagram()
			u := d.AddVertex(KindZ, gozx.PhaseZero())
			v := d.AddVertex(KindZ, gozx.PhaseZero())
			edge(t, d, u, v, EdgeHadamard)
			edge(t, d, u, u, EdgeHadamard)
			return d
		},
	}

	encs := map[string][]byte{}
	for name, build := range builds {
		d := build()
		mustValidate(t, d)
		encs[name] = append([]byte(nil), d.CanonicalEncoding()...)
	}
	for n0, e0 := range encs {
		for n1, e1 := range encs {
			if n0 != n1 && bytes.Equal(e0, e1) {
				t.Fatalf("%s and %s should encode differently", n0, n1)
			}
		}
	}
}

func TestIsIsomorphicBoundaryOrder(t *testing.T) {
	build := func(swap bool) *Diagram {
		d := NewDiagram()
		b0 := d.AddBoundary(true)
		b1 := d.AddBoundary(true)
		u := d.AddVertex(KindZ, gozx.PhaseQuarterPi())
		v := d.AddVertex(KindZ, gozx.PhaseHalfPi())
		edge(t, d, b0, u, EdgePlain)
		edge(t, d, b1, v, EdgePlain)
		if swap {
			if err := d.SetInputs(b1, b0); err != nil {
				t.Fatal(err)
			}
		}
		return d
	}
	if !IsIsomorphic(build(false), build(false)) {
		t.Fatal("identical builds should match")
	}
	if IsIsomorphic(build(false), build(true)) {
		t.Fatal("input order is significant")
	}
}

func TestCanonicalEncodingTracksMutation(t *testing.T) {
	d := NewDiagram()
	v := d.AddVertex(KindZ, gozx.PhaseZero())
	enc0 := append([]byte(nil), d.CanonicalEncoding()...)

	if !bytes.Equal(enc0, d.CanonicalEncoding()) {
		t.Fatal("repeated calls should agree")
	}

	if err := d.AddPhase(v, gozx.PhasePi()); err != nil {
		t.Fatal(err)
	}
	enc1 := append([]byte(nil), d.CanonicalEncoding()...)
	if bytes.Equal(enc0, enc1) {
		t.Fatal("mutation should change the encoding")
	}

	if err := d.SetPhase(v, gozx.PhaseZero()); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(enc0, d.CanonicalEncoding()) {
		t.Fatal("restoring the diagram should restore the encoding")
	}
}
