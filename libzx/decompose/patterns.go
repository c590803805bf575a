package decompose

import (
	"github.com/pkg/errors"

	"github.com/zxcalc/gozx"
	"github.com/zxcalc/gozx/libzx"
)

// Branching patterns, in order of preference. Each constant below is exact
// and pinned by sum-over-terms tests: the weighted branches of a pattern
// reproduce the value of the configuration they replace.
//
//   cat-n   a phase-free Z hub whose n wires are all Hadamard edges to
//           distinct T-like Z spiders; n in 3..6. Consumes up to 6 T
//           spiders in 2 branches (3 for cat6), so cats go first.
//   pair    two T-like Z spiders anywhere in the diagram; 2 branches.
//   single  one T-like Z spider; 2 branches, the fallback that always
//           applies while any T-like phase remains.

// branchesFor splits d into child diagrams whose weighted sum equals d.
// The caller owns the children; d itself is left in an undefined state
// when a cat hub needed a pi-copy normalization first.
func branchesFor(d *libzx.Diagram, useCats, usePairs bool) ([]*libzx.Diagram, error) {
	if useCats {
		if kids := tryCats(d); kids != nil {
			return kids, nil
		}
	}
	ts := tSpiders(d)
	if len(ts) == 0 {
		return nil, errors.Wrapf(gozx.ErrUnsupportedPattern,
			"%d non-Clifford spiders carry phases no pattern matches", d.NonCliffordCount())
	}
	if usePairs && len(ts) >= 2 {
		return pairBranches(d, ts[0], ts[1]), nil
	}
	return singleBranches(d, ts[0]), nil
}

func tSpiders(d *libzx.Diagram) []libzx.VtxID {
	var ts []libzx.VtxID
	for _, v := range d.Vertices() {
		if d.KindOf(v).IsSpider() && d.PhaseOf(v).IsTLike() {
			ts = append(ts, v)
		}
	}
	return ts
}

// tryCats looks for a cat hub, preferring the sizes that consume the most
// T spiders per branch. Odd hubs are promoted to the next even size first.
func tryCats(d *libzx.Diagram) []*libzx.Diagram {
	var bySize [7]libzx.VtxID
	for _, v := range d.Vertices() {
		legs, ok := catLegs(d, v)
		if !ok {
			continue
		}
		n := len(legs)
		if n < 3 || n > 6 {
			continue
		}
		if bySize[n] == 0 {
			bySize[n] = v
		}
	}
	for _, n := range [4]int{4, 6, 5, 3} {
		hub := bySize[n]
		if hub == 0 {
			continue
		}
		legs, _ := catLegs(d, hub)
		if d.PhaseOf(hub).Equals(gozx.PhasePi()) {
			// Push the pi through a leg first; an exact rewrite, no
			// branching. A leg wired to a boundary cannot copy, so
			// such a hub is skipped.
			if !normalizeCatHub(d, legs) {
				continue
			}
		}
		if n == 3 || n == 5 {
			legs = append(legs, extendCat(d, hub))
			n++
		}
		if n == 4 {
			return cat4Branches(d, hub, legs)
		}
		return cat6Branches(d, hub, legs)
	}
	return nil
}

// catLegs returns the leg spiders of v if v qualifies as a cat hub: a
// Pauli Z spider whose every wire is a Hadamard edge to a distinct T-like
// Z spider.
func catLegs(d *libzx.Diagram, v libzx.VtxID) ([]libzx.VtxID, bool) {
	if d.KindOf(v) != libzx.KindZ || !d.PhaseOf(v).IsPauli() {
		return nil, false
	}
	ports := d.Ports(v)
	legs := make([]libzx.VtxID, 0, len(ports))
	for _, p := range ports {
		if p.Kind != libzx.EdgeHadamard || p.To == v {
			return nil, false
		}
		if d.KindOf(p.To) != libzx.KindZ || !d.PhaseOf(p.To).IsTLike() {
			return nil, false
		}
		for _, w := range legs {
			if w == p.To {
				return nil, false
			}
		}
		legs = append(legs, p.To)
	}
	return legs, true
}

func normalizeCatHub(d *libzx.Diagram, legs []libzx.VtxID) bool {
	for _, leg := range legs {
		if libzx.CheckPiCopy(d, leg) {
			libzx.ApplyPiCopy(d, leg)
			return true
		}
	}
	return false
}

// extendCat grows an odd hub by one leg: a fresh T-like spider hooked to
// the hub, with its own Hadamard wire to a free phase-free tip. Summing
// the tip's two values contributes exactly 1, so no scalar correction.
func extendCat(d *libzx.Diagram, hub libzx.VtxID) libzx.VtxID {
	u := d.AddVertex(libzx.KindZ, gozx.PhaseQuarterPi())
	tip := d.AddVertex(libzx.KindZ, gozx.PhaseZero())
	must(d.AddEdge(hub, u, libzx.EdgeHadamard))
	must(d.AddEdge(u, tip, libzx.EdgeHadamard))
	return u
}

func cat4Branches(d *libzx.Diagram, hub libzx.VtxID, legs []libzx.VtxID) []*libzx.Diagram {
	a := d.Fork()
	for _, leg := range legs {
		must(a.AddPhase(leg, gozx.PhaseQuarterPi()))
	}
	a.Scalar().MulCoeffs(gozx.OmegaCoeffs{0, 0, -1, 0})

	b := d.Fork()
	must(b.SetPhase(hub, gozx.PhaseHalfPi()))
	for _, leg := range legs {
		openCatLeg(b, hub, leg)
	}
	b.Scalar().MulSqrt2Pow(-1).MulCoeffs(gozx.OmegaCoeffs{0, 1, 0, 0})

	return []*libzx.Diagram{a, b}
}

func cat6Branches(d *libzx.Diagram, hub libzx.VtxID, legs []libzx.VtxID) []*libzx.Diagram {
	a := d.Fork()
	for _, leg := range legs {
		must(a.AddPhase(leg, gozx.PhaseQuarterPi()))
	}
	a.Scalar().MulSqrt2Pow(-1).MulCoeffs(gozx.OmegaCoeffs{0, -1, 0, 0})

	b := d.Fork()
	for _, leg := range legs {
		must(b.AddPhase(leg, gozx.PhaseOf(-1, 4)))
	}
	b.Scalar().MulSqrt2Pow(-1).MulCoeffs(gozx.OmegaCoeffs{0, 0, 0, 1})

	c := d.Fork()
	must(c.SetPhase(hub, gozx.PhaseThreeHalfPi()))
	for _, leg := range legs {
		openCatLeg(c, hub, leg)
	}
	c.Scalar().MulSqrt2Pow(-2)

	return []*libzx.Diagram{a, b, c}
}

// openCatLeg turns the hub wire into a plain edge and undoes the leg's
// T-like phase, the shared move of the cat branches that detach legs from
// the Hadamard basis.
func openCatLeg(d *libzx.Diagram, hub, leg libzx.VtxID) {
	must(d.RemoveEdge(hub, leg, libzx.EdgeHadamard))
	must(d.AddEdge(hub, leg, libzx.EdgePlain))
	must(d.AddPhase(leg, gozx.PhaseOf(-1, 4)))
}

func pairBranches(d *libzx.Diagram, u, v libzx.VtxID) []*libzx.Diagram {
	a := d.Fork()
	must(a.AddPhase(u, gozx.PhaseQuarterPi()))
	must(a.AddPhase(v, gozx.PhaseOf(-1, 4)))
	must(a.AddEdgeSmart(u, v, libzx.EdgePlain))

	b := d.Fork()
	must(b.AddPhase(u, gozx.PhaseOf(-1, 4)))
	must(b.AddPhase(v, gozx.PhaseOf(-1, 4)))
	w := b.AddVertex(libzx.KindX, gozx.PhasePi())
	must(b.AddEdge(u, w, libzx.EdgePlain))
	must(b.AddEdge(w, v, libzx.EdgePlain))
	b.Scalar().MulCoeffs(gozx.OmegaCoeffs{0, 1, 0, 0})

	return []*libzx.Diagram{a, b}
}

func singleBranches(d *libzx.Diagram, v libzx.VtxID) []*libzx.Diagram {
	a := d.Fork()
	must(a.AddPhase(v, gozx.PhaseOf(-1, 4)))
	a.Scalar().MulSqrt2Pow(-2).MulCoeffs(gozx.OmegaCoeffs{1, 1, -1, 1})

	b := d.Fork()
	must(b.AddPhase(v, gozx.PhaseQuarterPi()))
	b.Scalar().MulSqrt2Pow(-2).MulCoeffs(gozx.OmegaCoeffs{1, -1, 1, -1})

	return []*libzx.Diagram{a, b}
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
