package decompose

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/zxcalc/gozx"
	"github.com/zxcalc/gozx/libzx"
)

// closedChain builds an open-ended path of T spiders joined by Hadamard
// edges. No boundary wires, so its value is a single scalar.
func closedChain(t *testing.T, n int) *libzx.Diagram {
	t.Helper()
	d := libzx.NewDiagram()
	var prev libzx.VtxID
	for i := 0; i < n; i++ {
		v := d.AddVertex(libzx.KindZ, gozx.PhaseQuarterPi())
		if prev != 0 {
			if err := d.AddEdge(prev, v, libzx.EdgeHadamard); err != nil {
				t.Fatal(err)
			}
		}
		prev = v
	}
	return d
}

// closedCat builds a phase-free hub with n Hadamard wires to degree-1 T
// spiders.
func closedCat(t *testing.T, n int, hubPhase gozx.Phase) *libzx.Diagram {
	t.Helper()
	d := libzx.NewDiagram()
	hub := d.AddVertex(libzx.KindZ, hubPhase)
	for i := 0; i < n; i++ {
		leg := d.AddVertex(libzx.KindZ, gozx.PhaseQuarterPi())
		if err := d.AddEdge(hub, leg, libzx.EdgeHadamard); err != nil {
			t.Fatal(err)
		}
	}
	return d
}

func decomposeSum(t *testing.T, d *libzx.Diagram, opts DecomposeOpts) *gozx.Scalar {
	t.Helper()
	res, err := Decompose(context.Background(), d, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.BranchErrs) > 0 {
		t.Fatalf("branch errors: %v", res.BranchErrs)
	}
	if res.Incomplete {
		t.Fatal("search reported incomplete")
	}
	if res.Sum == nil {
		t.Fatal("no sum for a closed diagram")
	}
	return res.Sum
}

func checkSum(t *testing.T, got, want *gozx.Scalar) {
	t.Helper()
	if !got.Equals(want) {
		t.Fatalf("sum = %s, want %s", got, want)
	}
}

func TestChain3Amplitude(t *testing.T) {
	want := gozx.ScalarFromCoeffs(-2, gozx.OmegaCoeffs{1, 3, -1, 1})

	opts := DefaultDecomposeOpts()
	opts.Workers = 1
	checkSum(t, decomposeSum(t, closedChain(t, 3), opts), want)

	opts.UsePairs = false
	checkSum(t, decomposeSum(t, closedChain(t, 3), opts), want)
}

func TestChain4Amplitude(t *testing.T) {
	want := gozx.ScalarFromCoeffs(-3, gozx.OmegaCoeffs{2, 4, 0, 0})

	opts := DefaultDecomposeOpts()
	opts.Workers = 1
	checkSum(t, decomposeSum(t, closedChain(t, 4), opts), want)

	opts.UsePairs = false
	checkSum(t, decomposeSum(t, closedChain(t, 4), opts), want)
}

func TestCatAmplitudes(t *testing.T) {
	wants := map[int]*gozx.Scalar{
		3: gozx.ScalarFromCoeffs(-1, gozx.OmegaCoeffs{1, 0, 3, 0}),
		4: gozx.ScalarFromCoeffs(0, gozx.OmegaCoeffs{0, 0, 3, 0}),
		5: gozx.ScalarFromCoeffs(-1, gozx.OmegaCoeffs{-2, 0, 5, 0}),
		6: gozx.ScalarFromCoeffs(-2, gozx.OmegaCoeffs{-7, 0, 7, 0}),
	}
	for n, want := range wants {
		opts := DefaultDecomposeOpts()
		opts.Workers = 1
		checkSum(t, decomposeSum(t, closedCat(t, n, gozx.PhaseZero()), opts), want)

		opts.UseCats = false
		checkSum(t, decomposeSum(t, closedCat(t, n, gozx.PhaseZero()), opts), want)
	}
}

func TestCatPiHub(t *testing.T) {
	// A pi hub must copy its phase through a leg before branching.
	want := gozx.ScalarFromCoeffs(3, gozx.OmegaCoeffs{0, 0, 1, 0})

	opts := DefaultDecomposeOpts()
	opts.Workers = 1
	checkSum(t, decomposeSum(t, closedCat(t, 4, gozx.PhasePi()), opts), want)

	opts.UseCats = false
	checkSum(t, decomposeSum(t, closedCat(t, 4, gozx.PhasePi()), opts), want)
}

func TestWorkersAgree(t *testing.T) {
	opts := DefaultDecomposeOpts()
	opts.Workers = 1
	opts.SaveTerms = true
	res1, err := Decompose(context.Background(), closedChain(t, 4), opts)
	if err != nil {
		t.Fatal(err)
	}

	opts.Workers = 4
	res4, err := Decompose(context.Background(), closedChain(t, 4), opts)
	if err != nil {
		t.Fatal(err)
	}

	if !res1.Sum.Equals(res4.Sum) {
		t.Fatalf("sums differ across worker counts: %s vs %s", res1.Sum, res4.Sum)
	}
	s1, s4 := res1.Scalars(), res4.Scalars()
	if len(s1) != len(s4) {
		t.Fatalf("term counts differ: %d vs %d", len(s1), len(s4))
	}
	for i := range s1 {
		if !s1[i].Equals(s4[i]) {
			t.Fatalf("term %d differs: %s vs %s", i, s1[i], s4[i])
		}
	}
}

func TestOpenDiagramTerms(t *testing.T) {
	d, err := libzx.ParseDiagram("in a; out b; v:Z(1/4); a-v; v-b")
	if err != nil {
		t.Fatal(err)
	}
	opts := DefaultDecomposeOpts()
	opts.SaveTerms = true
	res, err := Decompose(context.Background(), d, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.Sum != nil {
		t.Fatal("open diagram must not report a scalar sum")
	}
	if res.TermCount != 2 || len(res.Terms) != 2 {
		t.Fatalf("got %d terms (count %d), want 2", len(res.Terms), res.TermCount)
	}
	for _, term := range res.Terms {
		if term.D.TCount() != 0 {
			t.Fatalf("terminal term keeps %d T spiders", term.D.TCount())
		}
		if nq := term.D.NumQubits(); nq != 1 {
			t.Fatalf("terminal term has %d qubits, want 1", nq)
		}
	}
}

func TestTermBudget(t *testing.T) {
	opts := DefaultDecomposeOpts()
	opts.MaxTerms = 0
	res, err := Decompose(context.Background(), closedChain(t, 4), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Incomplete || res.TermCount != 0 {
		t.Fatalf("want an immediate incomplete result, got count=%d incomplete=%v",
			res.TermCount, res.Incomplete)
	}

	// A diagram that folds without branching still yields its one term.
	d := libzx.NewDiagram()
	d.AddVertex(libzx.KindZ, gozx.PhaseQuarterPi())
	res, err = Decompose(context.Background(), d, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.Incomplete || res.TermCount != 1 {
		t.Fatalf("got count=%d incomplete=%v, want one complete term", res.TermCount, res.Incomplete)
	}
	checkSum(t, res.Sum, gozx.ScalarFromCoeffs(0, gozx.OmegaCoeffs{1, 1, 0, 0}))
}

func TestCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Decompose(ctx, closedChain(t, 4), DefaultDecomposeOpts())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Incomplete {
		t.Fatal("cancelled run must report incomplete")
	}
}

func TestCacheReplay(t *testing.T) {
	cache, err := NewMemoCache()
	if err != nil {
		t.Fatal(err)
	}
	opts := DefaultDecomposeOpts()
	opts.Workers = 1
	opts.Cache = cache

	res1, err := Decompose(context.Background(), closedChain(t, 4), opts)
	if err != nil {
		t.Fatal(err)
	}
	if cache.Entries() == 0 {
		t.Fatal("first run stored nothing")
	}

	// Same chain with the path threaded through the labels differently.
	d2 := libzx.NewDiagram()
	var vs [4]libzx.VtxID
	for i := range vs {
		vs[i] = d2.AddVertex(libzx.KindZ, gozx.PhaseQuarterPi())
	}
	for _, pair := range [][2]int{{1, 0}, {0, 2}, {2, 3}} {
		if err := d2.AddEdge(vs[pair[0]], vs[pair[1]], libzx.EdgeHadamard); err != nil {
			t.Fatal(err)
		}
	}

	res2, err := Decompose(context.Background(), d2, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res2.CacheHits < 1 {
		t.Fatalf("isomorphic rerun hit the cache %d times, want >= 1", res2.CacheHits)
	}
	if !res1.Sum.Equals(res2.Sum) {
		t.Fatalf("sums differ across relabeling: %s vs %s", res1.Sum, res2.Sum)
	}
}

func TestUnsupportedPhase(t *testing.T) {
	d, err := libzx.ParseDiagram("in a; v:Z(1/3); a-v")
	if err != nil {
		t.Fatal(err)
	}
	res, err := Decompose(context.Background(), d, DefaultDecomposeOpts())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.BranchErrs) != 1 || !errors.Is(res.BranchErrs[0], gozx.ErrUnsupportedPattern) {
		t.Fatalf("got %v, want one unsupported-pattern error", res.BranchErrs)
	}
	if res.TermCount != 0 {
		t.Fatalf("unsupported branch still produced %d terms", res.TermCount)
	}
}

func TestSymbolicResidue(t *testing.T) {
	d := libzx.NewDiagram()
	d.AddVertex(libzx.KindZ, gozx.PhaseOf(1, 3))
	res, err := Decompose(context.Background(), d, DefaultDecomposeOpts())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.BranchErrs) != 1 || !errors.Is(res.BranchErrs[0], gozx.ErrScalarNodes) {
		t.Fatalf("got %v, want one symbolic-scalar error", res.BranchErrs)
	}
}

func TestSingleBest(t *testing.T) {
	opts := DefaultDecomposeOpts()
	opts.Mode = ModeSingleBest
	res, err := Decompose(context.Background(), closedChain(t, 4), opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Terms) != 1 || res.TermCount != 1 {
		t.Fatalf("got %d terms, want exactly one certificate", len(res.Terms))
	}
	best := res.Terms[0]
	if best.D.TCount() != 0 {
		t.Fatalf("certificate keeps %d T spiders", best.D.TCount())
	}
	if best.Depth < 1 || best.Depth > 4 {
		t.Fatalf("certificate depth %d out of range", best.Depth)
	}
	if res.Sum == nil || !res.Sum.Equals(best.D.Scalar()) {
		t.Fatal("single-best sum must mirror the certificate's scalar")
	}
}

func TestNilAndInvalidInput(t *testing.T) {
	if _, err := Decompose(context.Background(), nil, DefaultDecomposeOpts()); !errors.Is(err, gozx.ErrNilDiagram) {
		t.Fatalf("got %v, want ErrNilDiagram", err)
	}
}
