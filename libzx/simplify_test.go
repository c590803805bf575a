package libzx

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/zxcalc/gozx"
)

func TestToGraphLike(t *testing.T) {
	d := NewDiagram()
	b0 := d.AddBoundary(true)
	x := d.AddVertex(KindX, gozx.PhaseHalfPi())
	z := d.AddVertex(KindZ, gozx.PhaseQuarterPi())
	b1 := d.AddBoundary(false)
	h := d.AddVertex(KindHBox, gozx.PhaseZero())
	b2 := d.AddBoundary(false)

	edge(t, d, b0, x, EdgePlain)
	edge(t, d, x, z, EdgePlain)
	edge(t, d, z, b1, EdgeHadamard)
	edge(t, d, z, z, EdgeHadamard)
	edge(t, d, z, h, EdgePlain)
	edge(t, d, h, b2, EdgePlain)

	count, err := ToGraphLike(d)
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Fatalf("expected 3 firings, got %d", count)
	}
	mustValidate(t, d)

	for _, v := range d.Vertices() {
		if d.KindOf(v) != KindBoundary && d.KindOf(v) != KindZ {
			t.Fatalf("vertex %d still %v", v, d.KindOf(v))
		}
	}
	if d.NumVertices() != 5 || d.NumEdges() != 4 {
		t.Fatalf("after rewrite: v=%d e=%d", d.NumVertices(), d.NumEdges())
	}
	if !d.HasEdge(b0, x, EdgeHadamard) || !d.HasEdge(x, z, EdgeHadamard) ||
		!d.HasEdge(z, b1, EdgeHadamard) || !d.HasEdge(z, b2, EdgeHadamard) {
		t.Fatal("wire kinds wrong after rewrite")
	}
	checkPhase(t, d, z, 5, 4) // Hadamard self-loop folds into a π
	checkScalar(t, d, gozx.ScalarSqrt2Pow(-1))

	count, err = ToGraphLike(d)
	if err != nil || count != 0 {
		t.Fatalf("second rewrite should be a no-op, got %d, %v", count, err)
	}
}

func TestToGraphLikeRejectsWideHBox(t *testing.T) {
	d := NewDiagram()
	h := d.AddVertex(KindHBox, gozx.PhaseZero())
	for i := 0; i < 3; i++ {
		v := d.AddVertex(KindZ, gozx.PhaseZero())
		edge(t, d, h, v, EdgePlain)
	}

	if _, err := ToGraphLike(d); !errors.Is(err, gozx.ErrUnsupportedPattern) {
		t.Fatalf("expected unsupported pattern, got %v", err)
	}
	if _, err := FullSimp(d); !errors.Is(err, gozx.ErrUnsupportedPattern) {
		t.Fatalf("strategy should surface the pattern error, got %v", err)
	}
}

func TestStrategyRegistry(t *testing.T) {
	for _, name := range []string{"none", "interior-clifford", "clifford", "full"} {
		if _, ok := StrategyByName(name); !ok {
			t.Fatalf("strategy %q missing", name)
		}
	}
	if _, ok := StrategyByName("aggressive"); ok {
		t.Fatal("unknown strategy should not resolve")
	}
	names := StrategyNames()
	if len(names) != 4 || names[0] != "clifford" {
		t.Fatalf("strategy names wrong: %v", names)
	}

	if _, err := NoSimp(nil); !errors.Is(err, gozx.ErrNilDiagram) {
		t.Fatal("nil diagram should be rejected")
	}
	d := NewDiagram()
	d.AddVertex(KindZ, gozx.PhaseQuarterPi())
	if n, err := NoSimp(d); n != 0 || err != nil {
		t.Fatalf("none strategy should only validate, got %d, %v", n, err)
	}
	if d.NumVertices() != 1 {
		t.Fatal("none strategy must not rewrite")
	}
}

// TestScalarExactness reduces closed diagrams with hand-computed values all
// the way to the empty diagram and compares the surviving Scalar exactly.
func TestScalarExactness(t *testing.T) {
	cases := []struct {
		name  string
		build func(t *testing.T, d *Diagram)
		want  *gozx.Scalar
	}{
		{
			// ⟨single T spider⟩ = 1 + ω
			name: "single-t",
			build: func(t *testing.T, d *Diagram) {
				d.AddVertex(KindZ, gozx.PhaseQuarterPi())
			},
			want: gozx.ScalarFromCoeffs(0, gozx.OmegaCoeffs{1, 1, 0, 0}),
		},
		{
			// fusing π/4 and π/2 gives 1 + ω³
			name: "fused-pair",
			build: func(t *testing.T, d *Diagram) {
				u := d.AddVertex(KindZ, gozx.PhaseQuarterPi())
				v := d.AddVertex(KindZ, gozx.PhaseHalfPi())
				edge(t, d, u, v, EdgePlain)
			},
			want: gozx.ScalarFromCoeffs(0, gozx.OmegaCoeffs{1, 0, 0, 1}),
		},
		{
			// √2⁻¹(1+i)(... ) collapses to 2ω
			name: "clifford-pair",
			build: func(t *testing.T, d *Diagram) {
				u := d.AddVertex(KindZ, gozx.PhaseHalfPi())
				v := d.AddVertex(KindZ, gozx.PhaseHalfPi())
				edge(t, d, u, v, EdgeHadamard)
			},
			want: gozx.ScalarFromInt(2).MulPhase(gozx.PhaseQuarterPi()),
		},
		{
			// ⟨+|+⟩ up to normalization: √2
			name: "plus-overlap",
			build: func(t *testing.T, d *Diagram) {
				u := d.AddVertex(KindZ, gozx.PhaseZero())
				v := d.AddVertex(KindZ, gozx.PhaseZero())
				edge(t, d, u, v, EdgeHadamard)
			},
			want: gozx.ScalarSqrt2Pow(1),
		},
		{
			// √2⁻¹(1 + 2ω − ω²)
			name: "t-pair",
			build: func(t *testing.T, d *Diagram) {
				u := d.AddVertex(KindZ, gozx.PhaseQuarterPi())
				v := d.AddVertex(KindZ, gozx.PhaseQuarterPi())
				edge(t, d, u, v, EdgeHadamard)
			},
			want: gozx.ScalarFromCoeffs(-1, gozx.OmegaCoeffs{1, 2, -1, 0}),
		},
		{
			// √2⁻¹(1 − 1 + ω + ω) = √2·ω
			name: "pi-t-pair",
			build: func(t *testing.T, d *Diagram) {
				u := d.AddVertex(KindZ, gozx.PhasePi())
				v := d.AddVertex(KindZ, gozx.PhaseQuarterPi())
				edge(t, d, u, v, EdgeHadamard)
			},
			want: gozx.ScalarSqrt2Pow(1).MulPhase(gozx.PhaseQuarterPi()),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := NewDiagram()
			tc.build(t, d)
			count, err := FullSimp(d)
			if err != nil {
				t.Fatal(err)
			}
			if count == 0 {
				t.Fatal("nothing fired")
			}
			if d.NumVertices() != 0 {
				t.Fatalf("%d vertices survived:\n%s", d.NumVertices(), d.String())
			}
			checkScalar(t, d, tc.want)

			count, err = FullSimp(d)
			if err != nil || count != 0 {
				t.Fatalf("second run should be a no-op, got %d, %v", count, err)
			}
		})
	}
}

func TestCliffordSimpBuffersNothing(t *testing.T) {
	// open diagram whose interior reduces by identity removal alone: the
	// Hadamard-connected Pauli pair left over touches boundaries on both
	// sides, so no pivot variant may fire
	d := NewDiagram()
	b0 := d.AddBoundary(true)
	var zs [7]VtxID
	for i := 1; i <= 6; i++ {
		zs[i] = d.AddVertex(KindZ, gozx.PhaseZero())
	}
	b5 := d.AddBoundary(false)
	b6 := d.AddBoundary(false)

	edge(t, d, b0, zs[3], EdgeHadamard)
	edge(t, d, zs[1], zs[3], EdgeHadamard)
	edge(t, d, zs[2], zs[3], EdgeHadamard)
	edge(t, d, zs[3], zs[4], EdgeHadamard)
	edge(t, d, zs[4], zs[5], EdgeHadamard)
	edge(t, d, zs[4], zs[6], EdgeHadamard)
	edge(t, d, zs[5], b5, EdgePlain)
	edge(t, d, zs[6], b6, EdgePlain)

	count, err := CliffordSimp(d)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("expected the two identity removals, got %d firings", count)
	}
	mustValidate(t, d)

	if d.NumVertices() != 7 || d.NumEdges() != 6 {
		t.Fatalf("after reduction: v=%d e=%d", d.NumVertices(), d.NumEdges())
	}
	if !d.HasEdge(zs[4], b5, EdgeHadamard) || !d.HasEdge(zs[4], b6, EdgeHadamard) {
		t.Fatal("identity removal should rewire onto the boundaries")
	}
	checkScalar(t, d, gozx.ScalarOne())

	count, err = CliffordSimp(d)
	if err != nil || count != 0 {
		t.Fatalf("second run should be a no-op, got %d, %v", count, err)
	}
}

func TestCliffordAgreesWithFull(t *testing.T) {
	// a closed stabilizer diagram reduces to the empty diagram under both
	// strategies, and soundness forces the same Scalar along both paths
	build := func(t *testing.T, p3, p4 gozx.Phase) *Diagram {
		d, _ := pivotFixture(t, p3, p4)
		return d
	}
	for _, phases := range [][2]gozx.Phase{
		{gozx.PhasePi(), gozx.PhaseZero()},
		{gozx.PhasePi(), gozx.PhasePi()},
		{gozx.PhaseZero(), gozx.PhaseHalfPi()},
	} {
		a := build(t, phases[0], phases[1])
		b := a.Fork()

		if _, err := CliffordSimp(a); err != nil {
			t.Fatal(err)
		}
		if _, err := FullSimp(b); err != nil {
			t.Fatal(err)
		}
		if a.NumVertices() != 0 || b.NumVertices() != 0 {
			t.Fatalf("closed stabilizer diagram should vanish: %d, %d vertices left",
				a.NumVertices(), b.NumVertices())
		}
		if !a.Scalar().Equals(b.Scalar()) {
			t.Fatalf("strategies disagree on %v,%v:\n    %v\n    %v",
				phases[0], phases[1], a.Scalar(), b.Scalar())
		}
	}
}

func TestFullSimpFusesGadgets(t *testing.T) {
	d := NewDiagram()
	b0 := d.AddBoundary(true)
	b1 := d.AddBoundary(true)
	v0 := d.AddVertex(KindZ, gozx.PhaseZero())
	v1 := d.AddVertex(KindZ, gozx.PhaseZero())
	hub0 := d.AddVertex(KindZ, gozx.PhaseZero())
	hub1 := d.AddVertex(KindZ, gozx.PhaseZero())
	tip0 := d.AddVertex(KindZ, gozx.PhaseQuarterPi())
	tip1 := d.AddVertex(KindZ, gozx.PhaseQuarterPi())

	edge(t, d, b0, v0, EdgePlain)
	edge(t, d, b1, v1, EdgePlain)
	edge(t, d, hub0, tip0, EdgeHadamard)
	edge(t, d, hub1, tip1, EdgeHadamard)
	for _, v := range []VtxID{v0, v1} {
		edge(t, d, hub0, v, EdgeHadamard)
		edge(t, d, hub1, v, EdgeHadamard)
	}
	if d.TCount() != 2 {
		t.Fatalf("fixture tcount %d", d.TCount())
	}

	count, err := FullSimp(d)
	if err != nil {
		t.Fatal(err)
	}
	mustValidate(t, d)

	// the two π/4 gadgets fuse into a π/2 gadget, which then dissolves by
	// two local complementations
	if count != 3 {
		t.Fatalf("expected fusion plus two local comps, got %d firings", count)
	}
	if d.TCount() != 0 {
		t.Fatalf("tcount should vanish, got %d", d.TCount())
	}
	if d.NumVertices() != 4 || d.NumEdges() != 3 {
		t.Fatalf("after reduction: v=%d e=%d", d.NumVertices(), d.NumEdges())
	}
	checkPhase(t, d, v0, 1, 2)
	checkPhase(t, d, v1, 1, 2)
	if !d.HasEdge(v0, v1, EdgeHadamard) {
		t.Fatal("local comp should connect the legs")
	}
	checkScalar(t, d, gozx.ScalarSqrt2Pow(-1))

	count, err = FullSimp(d)
	if err != nil || count != 0 {
		t.Fatalf("second run should be a no-op, got %d, %v", count, err)
	}
}

func TestGadgetFusionNormalizesPiHub(t *testing.T) {
	d := NewDiagram()
	hub := d.AddVertex(KindZ, gozx.PhasePi())
	tip := d.AddVertex(KindZ, gozx.PhaseQuarterPi())
	edge(t, d, hub, tip, EdgeHadamard)
	for i := 0; i < 2; i++ {
		leg := d.AddVertex(KindZ, gozx.PhaseZero())
		b := d.AddBoundary(true)
		edge(t, d, hub, leg, EdgeHadamard)
		edge(t, d, leg, b, EdgePlain)
	}

	count := GadgetFusionSimp(d)
	if count != 1 {
		t.Fatalf("expected one normalization firing, got %d", count)
	}
	mustValidate(t, d)
	checkPhase(t, d, hub, 0, 1)
	checkPhase(t, d, tip, 7, 4)
	checkScalar(t, d, gozx.ScalarFromPhase(gozx.PhaseQuarterPi()))
}
