package libzx

import (
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"github.com/zxcalc/gozx"
)

// A Strategy rewrites a diagram in place until its rule set reaches a
// fixpoint, reporting how many rule firings it took. Running the same
// strategy again fires nothing.
type Strategy func(d *Diagram) (int, error)

var strategies = map[string]Strategy{
	"none":              NoSimp,
	"interior-clifford": InteriorCliffordSimp,
	"clifford":          CliffordSimp,
	"full":              FullSimp,
}

// StrategyByName resolves a named simplification strategy.
func StrategyByName(name string) (Strategy, bool) {
	s, ok := strategies[name]
	return s, ok
}

// StrategyNames lists the registered strategy names in sorted order.
func StrategyNames() []string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NoSimp validates without rewriting.
func NoSimp(d *Diagram) (int, error) {
	if d == nil {
		return 0, gozx.ErrNilDiagram
	}
	return 0, d.Validate()
}

// simpVertices applies a vertex-local rule everywhere it matches until no
// match remains.
func simpVertices(d *Diagram, check func(*Diagram, VtxID) bool, apply func(*Diagram, VtxID)) int {
	count := 0
	for again := true; again; {
		again = false
		for _, v := range d.Vertices() {
			if check(d, v) {
				apply(d, v)
				count++
				again = true
			}
		}
	}
	return count
}

// simpPairs applies a wire-local rule until no wire matches. A hit
// invalidates the port list in hand, so the sweep moves on and rescans.
func simpPairs(d *Diagram, check func(*Diagram, VtxID, VtxID) bool, apply func(*Diagram, VtxID, VtxID)) int {
	count := 0
	for again := true; again; {
		again = false
		for _, v0 := range d.Vertices() {
			if !d.isLive(v0) {
				continue
			}
			for _, pt := range d.Ports(v0) {
				if pt.To == v0 {
					continue
				}
				if check(d, v0, pt.To) {
					apply(d, v0, pt.To)
					count++
					again = true
					break
				}
			}
		}
	}
	return count
}

// SpiderSimp fuses plain-connected same-color spider pairs to fixpoint.
func SpiderSimp(d *Diagram) int {
	return simpPairs(d, CheckSpiderFusion, ApplySpiderFusion)
}

// IdSimp removes phaseless arity-2 spiders to fixpoint.
func IdSimp(d *Diagram) int {
	return simpVertices(d, CheckRemoveID, ApplyRemoveID)
}

// LocalCompSimp eliminates interior ±π/2 spiders by local complementation.
func LocalCompSimp(d *Diagram) int {
	return simpVertices(d, CheckLocalComp, ApplyLocalComp)
}

// PivotSimp eliminates Hadamard-connected interior Pauli pairs.
func PivotSimp(d *Diagram) int {
	return simpPairs(d, CheckPivot, ApplyPivot)
}

// BoundaryPivotSimp pivots an interior Pauli spider against a
// boundary-adjacent Pauli partner, unfusing the boundary wires first.
func BoundaryPivotSimp(d *Diagram) int {
	return simpPairs(d, CheckBoundaryPivot, ApplyGenPivot)
}

// GadgetSimp runs the generalized pivot wherever it still reduces the
// interior: non-Pauli partners are unfused into phase gadgets and boundary
// wires are buffered on demand.
func GadgetSimp(d *Diagram) int {
	return simpPairs(d, CheckGenPivot, ApplyGenPivot)
}

// GadgetFusionSimp merges phase gadgets sharing the same support. Hubs are
// keyed by their leg set, so each sweep costs one pass over the vertices.
// Hubs that picked up a π from a pivot are normalized first.
func GadgetFusionSimp(d *Diagram) int {
	count := 0
	for again := true; again; {
		again = false
		hubs := make(map[string]VtxID)
		for _, v := range d.Vertices() {
			if normalizeGadget(d, v) {
				count++
				again = true
				continue
			}
			tip, ok := gadgetTip(d, v)
			if !ok {
				continue
			}
			key := gadgetKey(d, v, tip)
			prev, dup := hubs[key]
			if dup && CheckGadgetFusion(d, prev, v) {
				ApplyGadgetFusion(d, prev, v)
				count++
				again = true
				continue
			}
			hubs[key] = v
		}
	}
	return count
}

// normalizeGadget fires from the tip side of a gadget whose hub carries a
// π: copying the π out through the tip negates the tip's phase and zeroes
// the hub. Each firing removes one π from the diagram, so sweeps terminate.
func normalizeGadget(d *Diagram, tip VtxID) bool {
	if !d.isLive(tip) {
		return false
	}
	c := &d.cells[tip]
	if c.kind != KindZ || len(c.adj) != 1 {
		return false
	}
	pt := c.adj[0]
	if pt.Kind != EdgeHadamard || pt.To == tip {
		return false
	}
	hub := &d.cells[pt.To]
	if hub.kind != KindZ || !hub.phase.Equals(gozx.PhasePi()) {
		return false
	}
	ApplyPiCopy(d, tip)
	return true
}

// gadgetKey encodes a hub's leg set, sorted, tip excluded.
func gadgetKey(d *Diagram, hub, tip VtxID) string {
	legs := make([]int, 0, len(d.Ports(hub))-1)
	for _, pt := range d.Ports(hub) {
		if pt.To != tip {
			legs = append(legs, int(pt.To))
		}
	}
	sort.Ints(legs)
	key := make([]byte, 0, 4*len(legs))
	for _, n := range legs {
		key = strconv.AppendInt(key, int64(n), 32)
		key = append(key, ',')
	}
	return string(key)
}

// ScalarSimp folds fully disconnected stabilizer leftovers into the Scalar:
// isolated spiders and detached spider pairs.
func ScalarSimp(d *Diagram) int {
	count := 0
	for again := true; again; {
		again = false
		for _, v := range d.Vertices() {
			if !d.isLive(v) {
				continue
			}
			if CheckRemoveSingle(d, v) {
				ApplyRemoveSingle(d, v)
				count++
				again = true
				continue
			}
			if ports := d.Ports(v); len(ports) == 1 && CheckRemovePair(d, v, ports[0].To) {
				ApplyRemovePair(d, v, ports[0].To)
				count++
				again = true
			}
		}
	}
	return count
}

// ToGraphLike rewrites d into graph-like form: every spider is a Z spider,
// spiders interconnect only through single Hadamard edges, and no self-loop
// remains. Boundary and box wires keep their kinds. Arity-2 H-boxes become
// Hadamard edges; any other H-box has no rewrite here and fails with
// ErrUnsupportedPattern.
func ToGraphLike(d *Diagram) (int, error) {
	if d == nil {
		return 0, gozx.ErrNilDiagram
	}
	if err := d.Validate(); err != nil {
		return 0, err
	}
	count := 0
	for _, v := range d.Vertices() {
		if !d.isLive(v) || d.KindOf(v) != KindHBox {
			continue
		}
		if !HBoxToEdge(d, v) {
			return count, errors.Wrapf(gozx.ErrUnsupportedPattern,
				"H-box %d of arity %d", v, d.Degree(v))
		}
		count++
	}
	for _, v := range d.Vertices() {
		if d.isLive(v) && d.KindOf(v) == KindX {
			ApplyColorChange(d, v)
			count++
		}
	}
	count += SpiderSimp(d)
	for _, v := range d.Vertices() {
		count += foldWiresAt(d, v)
	}
	return count, nil
}

// foldWiresAt collapses self-loops and parallel wires at a spider into
// phases and scalar factors, mirroring the smart-add merge table.
func foldWiresAt(d *Diagram, v VtxID) int {
	if !d.isLive(v) || !d.KindOf(v).IsSpider() {
		return 0
	}
	count := 0
	for again := true; again; {
		again = false
		seen := make(map[VtxID]bool)
		for _, pt := range d.Ports(v) {
			if pt.To == v {
				if err := d.RemoveEdge(v, v, pt.Kind); err != nil {
					panic(err)
				}
				if pt.Kind == EdgeHadamard {
					d.cells[v].phase = d.cells[v].phase.Add(gozx.PhasePi())
					d.scalar.MulSqrt2Pow(-1)
				}
				count++
				again = true
				break
			}
			if !d.KindOf(pt.To).IsSpider() {
				continue
			}
			if seen[pt.To] {
				if err := d.RemoveEdge(v, pt.To, pt.Kind); err != nil {
					panic(err)
				}
				if err := d.AddEdgeSmart(v, pt.To, pt.Kind); err != nil {
					panic(err)
				}
				count++
				again = true
				break
			}
			seen[pt.To] = true
		}
	}
	if count > 0 {
		d.touch()
	}
	return count
}

// InteriorCliffordSimp reduces the interior of the diagram to its minimal
// Clifford form: after it, every interior spider is either non-Clifford or
// the hub/tip of a phase gadget.
func InteriorCliffordSimp(d *Diagram) (int, error) {
	count, err := ToGraphLike(d)
	if err != nil {
		return count, err
	}
	for {
		n := SpiderSimp(d)
		n += IdSimp(d)
		n += PivotSimp(d)
		n += LocalCompSimp(d)
		if n == 0 {
			break
		}
		count += n
	}
	count += ScalarSimp(d)
	return count, nil
}

// CliffordSimp extends InteriorCliffordSimp with pivots against
// boundary-adjacent Pauli spiders.
func CliffordSimp(d *Diagram) (int, error) {
	count, err := InteriorCliffordSimp(d)
	if err != nil {
		return count, err
	}
	for {
		n := BoundaryPivotSimp(d)
		if n == 0 {
			break
		}
		count += n
		m, err := InteriorCliffordSimp(d)
		if err != nil {
			return count, err
		}
		count += m
	}
	return count, nil
}

// FullSimp drives the whole rule set to a global fixpoint: Clifford
// reduction, then gadgetizing pivots and gadget fusion, looping until a
// full round fires nothing. The scalar pass runs last so detached
// components fold into the Scalar exactly once.
func FullSimp(d *Diagram) (int, error) {
	count := 0
	for {
		n, err := CliffordSimp(d)
		if err != nil {
			return count, err
		}
		n += GadgetSimp(d)
		n += GadgetFusionSimp(d)
		count += n
		if n == 0 {
			break
		}
	}
	count += ScalarSimp(d)
	return count, nil
}
