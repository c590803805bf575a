package libzx

import (
	"github.com/zxcalc/gozx"
)

// RuleKind tags one rewrite rule of the closed rule set. Every structural
// change a simplifier or decomposer makes to a Diagram goes through exactly
// one of these rules, so the Scalar bookkeeping lives here and nowhere else.
type RuleKind int32

const (
	RuleSpiderFusion RuleKind = iota
	RuleRemoveID
	RuleColorChange
	RulePiCopy
	RuleLocalComp
	RulePivot
	RuleGenPivot
	RuleUnfuseGadget
	RuleUnfuseBoundary
	RuleGadgetFusion
	RuleRemoveSingle
	RuleRemovePair
	RuleHBoxToEdge
	ruleKindCount
)

var ruleKindNames = [ruleKindCount]string{
	"spider-fusion",
	"remove-id",
	"color-change",
	"pi-copy",
	"local-comp",
	"pivot",
	"gen-pivot",
	"unfuse-gadget",
	"unfuse-boundary",
	"gadget-fusion",
	"remove-single",
	"remove-pair",
	"hbox-to-edge",
}

func (rk RuleKind) String() string {
	if rk < 0 || rk >= ruleKindCount {
		return "unknown-rule"
	}
	return ruleKindNames[rk]
}

// VtxPair is a two-vertex rule match.
type VtxPair struct {
	V0, V1 VtxID
}

// Each rule is a CheckX / ApplyX pair. CheckX reports whether the rule
// matches; ApplyX assumes a passing check and panics on malformed input.
// The combined form (X) checks then applies, reporting whether it fired.
// Matches can be destroyed by earlier firings in the same pass, so drivers
// re-check every candidate immediately before applying it.

// CheckSpiderFusion matches two distinct same-color spiders joined by at
// least one plain edge.
func CheckSpiderFusion(d *Diagram, v0, v1 VtxID) bool {
	if v0 == v1 || !d.isLive(v0) || !d.isLive(v1) {
		return false
	}
	k0 := d.cells[v0].kind
	if !k0.IsSpider() || k0 != d.cells[v1].kind {
		return false
	}
	return d.HasEdge(v0, v1, EdgePlain)
}

// ApplySpiderFusion fuses v1 into v0: one plain wire is consumed, v1's
// remaining ports move onto v0 with smart merging, and v0 absorbs v1's
// phase. Leftover parallel wires between the pair close into self-loops
// on the fused spider and fold per the AddEdgeSmart table.
func ApplySpiderFusion(d *Diagram, v0, v1 VtxID) {
	ports := append([]Port(nil), d.cell(v1).adj...)
	phase1 := d.cell(v1).phase
	if err := d.RemoveVertexAndEdges(v1); err != nil {
		panic(err)
	}

	wireDropped := false
	loopPorts := 0
	for _, p := range ports {
		switch p.To {
		case v1:
			if p.Kind == EdgeHadamard {
				loopPorts++
			}
		case v0:
			if p.Kind == EdgePlain {
				if !wireDropped {
					wireDropped = true
				}
				// further plain parallels close into plain loops: dropped
			} else if err := d.AddEdgeSmart(v0, v0, EdgeHadamard); err != nil {
				panic(err)
			}
		default:
			if err := d.AddEdgeSmart(v0, p.To, p.Kind); err != nil {
				panic(err)
			}
		}
	}
	// v1's own self-loops carry over, two ports per loop
	for i := 0; i < loopPorts/2; i++ {
		if err := d.AddEdgeSmart(v0, v0, EdgeHadamard); err != nil {
			panic(err)
		}
	}
	if err := d.AddPhase(v0, phase1); err != nil {
		panic(err)
	}
}

func SpiderFusion(d *Diagram, v0, v1 VtxID) bool {
	if !CheckSpiderFusion(d, v0, v1) {
		return false
	}
	ApplySpiderFusion(d, v0, v1)
	return true
}

// CheckRemoveID matches a phase-free spider with exactly two ports, neither
// a self-loop.
func CheckRemoveID(d *Diagram, v VtxID) bool {
	if !d.isLive(v) {
		return false
	}
	cell := &d.cells[v]
	if !cell.kind.IsSpider() || !cell.phase.IsZero() || len(cell.adj) != 2 {
		return false
	}
	return cell.adj[0].To != v && cell.adj[1].To != v
}

// ApplyRemoveID drops v and joins its two wires. The surviving edge kind is
// the composition of the two segments: plain∘plain = plain, plain∘had = had,
// had∘had = plain.
func ApplyRemoveID(d *Diagram, v VtxID) {
	adj := d.cell(v).adj
	p0, p1 := adj[0], adj[1]
	if err := d.RemoveVertexAndEdges(v); err != nil {
		panic(err)
	}
	if err := d.AddEdgeSmart(p0.To, p1.To, p0.Kind.compose(p1.Kind)); err != nil {
		panic(err)
	}
}

func RemoveID(d *Diagram, v VtxID) bool {
	if !CheckRemoveID(d, v) {
		return false
	}
	ApplyRemoveID(d, v)
	return true
}

// CheckColorChange matches any Z or X spider.
func CheckColorChange(d *Diagram, v VtxID) bool {
	return d.isLive(v) && d.cells[v].kind.IsSpider()
}

// ApplyColorChange toggles v's color and the kind of every incident port,
// boundary-side ports included. Self-loop ports toggle once each.
func ApplyColorChange(d *Diagram, v VtxID) {
	cell := d.cell(v)
	if cell.kind == KindZ {
		cell.kind = KindX
	} else {
		cell.kind = KindZ
	}
	for i := range cell.adj {
		cell.adj[i].Kind = cell.adj[i].Kind.toggle()
	}
	for _, w := range d.Neighbors(v) {
		wAdj := d.cells[w].adj
		for i := range wAdj {
			if wAdj[i].To == v {
				wAdj[i].Kind = wAdj[i].Kind.toggle()
			}
		}
	}
	d.touch()
}

func ColorChange(d *Diagram, v VtxID) bool {
	if !CheckColorChange(d, v) {
		return false
	}
	ApplyColorChange(d, v)
	return true
}

// CheckPiCopy matches a spider whose every wire can absorb a copied π:
// same-color neighbors over Hadamard edges, opposite-color neighbors over
// plain edges. Always applicable to interior spiders of a graph-like
// diagram.
func CheckPiCopy(d *Diagram, v VtxID) bool {
	if !d.isLive(v) {
		return false
	}
	cell := &d.cells[v]
	if !cell.kind.IsSpider() || len(cell.adj) == 0 {
		return false
	}
	for _, p := range cell.adj {
		if p.To == v {
			return false
		}
		nk := d.cells[p.To].kind
		if !nk.IsSpider() {
			return false
		}
		if p.Kind == EdgePlain {
			if nk == cell.kind {
				return false
			}
		} else if nk != cell.kind {
			return false
		}
	}
	return true
}

// ApplyPiCopy negates v's phase by pushing a π out of every wire:
// Scalar ×= e^{iπp}, v.phase = −p, and each wire delivers +π to its far
// endpoint (a neighbor reached by two wires gets 2π).
func ApplyPiCopy(d *Diagram, v VtxID) {
	cell := d.cell(v)
	p := cell.phase
	d.scalar.MulPhase(p)
	cell.phase = p.Neg()
	for _, pt := range cell.adj {
		d.cells[pt.To].phase = d.cells[pt.To].phase.Add(gozx.PhasePi())
	}
	d.touch()
}

func PiCopy(d *Diagram, v VtxID) bool {
	if !CheckPiCopy(d, v) {
		return false
	}
	ApplyPiCopy(d, v)
	return true
}

// spiderNeighborhood collects v's neighbors when every wire is a Hadamard
// edge to a distinct Z spider, the precondition shared by local
// complementation and pivoting. Returns nil when the shape does not hold.
func spiderNeighborhood(d *Diagram, v VtxID) []VtxID {
	adj := d.cells[v].adj
	ns := make([]VtxID, 0, len(adj))
	for _, p := range adj {
		if p.Kind != EdgeHadamard || p.To == v || d.cells[p.To].kind != KindZ {
			return nil
		}
		for _, w := range ns {
			if w == p.To {
				return nil // parallel wire: not graph-like here
			}
		}
		ns = append(ns, p.To)
	}
	return ns
}

// CheckLocalComp matches a Z spider with phase ±π/2 whose wires are all
// Hadamard edges to distinct Z spiders.
func CheckLocalComp(d *Diagram, v VtxID) bool {
	if !d.isLive(v) || d.cells[v].kind != KindZ || !d.cells[v].phase.IsProperClifford() {
		return false
	}
	return spiderNeighborhood(d, v) != nil
}

// ApplyLocalComp complements v's neighborhood and removes v. Each neighbor
// loses v's phase; Scalar ×= √2^{(n−1)(n−2)/2} · e^{iπ(±1/4)} with the sign
// of v's phase taken in (−π, π].
func ApplyLocalComp(d *Diagram, v VtxID) {
	p := d.cell(v).phase
	ns := d.Neighbors(v)
	for i := range ns {
		d.cells[ns[i]].phase = d.cells[ns[i]].phase.Sub(p)
		for j := i + 1; j < len(ns); j++ {
			if err := d.AddEdgeSmart(ns[i], ns[j], EdgeHadamard); err != nil {
				panic(err)
			}
		}
	}
	if err := d.RemoveVertexAndEdges(v); err != nil {
		panic(err)
	}
	n := len(ns)
	d.scalar.MulSqrt2Pow((n - 1) * (n - 2) / 2)
	half := p.Half()
	if p.Num() > p.Den() { // phase above π: halve its signed representative
		half = half.Add(gozx.PhasePi())
	}
	d.scalar.MulPhase(half)
	d.touch()
}

func LocalComp(d *Diagram, v VtxID) bool {
	if !CheckLocalComp(d, v) {
		return false
	}
	ApplyLocalComp(d, v)
	return true
}

// checkPivotAt holds when v is a Pauli Z spider whose wires are all
// Hadamard edges to distinct Z spiders.
func checkPivotAt(d *Diagram, v VtxID) bool {
	if !d.isLive(v) || d.cells[v].kind != KindZ || !d.cells[v].phase.IsPauli() {
		return false
	}
	return spiderNeighborhood(d, v) != nil
}

// CheckPivot matches two H-connected interior Pauli Z spiders.
func CheckPivot(d *Diagram, v0, v1 VtxID) bool {
	return v0 != v1 && checkPivotAt(d, v0) && checkPivotAt(d, v1) &&
		d.HasEdge(v0, v1, EdgeHadamard)
}

// ApplyPivot removes the pair v0, v1 and toggles a complete bipartite
// Hadamard graph between their punctured neighborhoods. Shared neighbors
// pick up self-loops that fold into π phases. ns1 inherits v0's phase and
// ns0 inherits v1's; Scalar ×= √2^{(x−2)(y−2)}, ×(−1) when both phases
// are π (x, y count the full neighborhoods, each other included).
func ApplyPivot(d *Diagram, v0, v1 VtxID) {
	p0 := d.cell(v0).phase
	p1 := d.cell(v1).phase
	ns0 := d.Neighbors(v0)
	ns1 := d.Neighbors(v1)

	for _, n0 := range ns0 {
		if n0 != v1 {
			d.cells[n0].phase = d.cells[n0].phase.Add(p1)
		}
		for _, n1 := range ns1 {
			if n0 != v1 && n1 != v0 {
				if err := d.AddEdgeSmart(n0, n1, EdgeHadamard); err != nil {
					panic(err)
				}
			}
		}
	}
	for _, n1 := range ns1 {
		if n1 != v0 {
			d.cells[n1].phase = d.cells[n1].phase.Add(p0)
		}
	}

	if err := d.RemoveVertexAndEdges(v0); err != nil {
		panic(err)
	}
	if err := d.RemoveVertexAndEdges(v1); err != nil {
		panic(err)
	}

	x, y := len(ns0), len(ns1)
	d.scalar.MulSqrt2Pow((x - 2) * (y - 2))
	if !p0.IsZero() && !p1.IsZero() {
		d.scalar.MulInt(-1)
	}
	d.touch()
}

func Pivot(d *Diagram, v0, v1 VtxID) bool {
	if !CheckPivot(d, v0, v1) {
		return false
	}
	ApplyPivot(d, v0, v1)
	return true
}

// CheckUnfuseGadget matches a Z spider with a non-Pauli phase.
func CheckUnfuseGadget(d *Diagram, v VtxID) bool {
	return d.isLive(v) && d.cells[v].kind == KindZ && !d.cells[v].phase.IsPauli()
}

// ApplyUnfuseGadget moves v's phase out onto a fresh phase gadget:
// v(p) becomes v(0) —H— hub(0) —H— tip(p). No scalar.
func ApplyUnfuseGadget(d *Diagram, v VtxID) {
	cell := d.cell(v)
	p := cell.phase
	hub := d.AddVertex(KindZ, gozx.PhaseZero())
	tip := d.AddVertex(KindZ, p)
	cell.phase = gozx.PhaseZero()
	if err := d.AddEdge(v, hub, EdgeHadamard); err != nil {
		panic(err)
	}
	if err := d.AddEdge(hub, tip, EdgeHadamard); err != nil {
		panic(err)
	}
}

func UnfuseGadget(d *Diagram, v VtxID) bool {
	if !CheckUnfuseGadget(d, v) {
		return false
	}
	ApplyUnfuseGadget(d, v)
	return true
}

// CheckUnfuseBoundary matches a spider v wired to a boundary b.
func CheckUnfuseBoundary(d *Diagram, v, b VtxID) bool {
	if !d.isLive(v) || !d.isLive(b) {
		return false
	}
	if !d.cells[v].kind.IsSpider() || d.cells[b].kind != KindBoundary {
		return false
	}
	_, ok := d.firstEdgeKind(v, b)
	return ok
}

// ApplyUnfuseBoundary buffers v away from boundary b with a fresh interior
// spider: v —H— w, and w—b takes the opposite kind of the displaced wire,
// so the composite map is unchanged. No scalar.
func ApplyUnfuseBoundary(d *Diagram, v, b VtxID) {
	kind, ok := d.firstEdgeKind(v, b)
	if !ok {
		panic("libzx: unfuse boundary without an edge")
	}
	w := d.AddVertex(KindZ, gozx.PhaseZero())
	if err := d.AddEdge(v, w, EdgeHadamard); err != nil {
		panic(err)
	}
	if err := d.AddEdge(w, b, kind.toggle()); err != nil {
		panic(err)
	}
	if err := d.RemoveEdge(v, b, kind); err != nil {
		panic(err)
	}
}

func UnfuseBoundary(d *Diagram, v, b VtxID) bool {
	if !CheckUnfuseBoundary(d, v, b) {
		return false
	}
	ApplyUnfuseBoundary(d, v, b)
	return true
}

// checkGenPivotShape holds when v0, v1 are distinct H-connected Z spiders
// and every wire of both lands on a Z spider over a Hadamard edge or on a
// boundary, with no self-loops or parallel wires.
func checkGenPivotShape(d *Diagram, v0, v1 VtxID) bool {
	if v0 == v1 || !d.isLive(v0) || !d.isLive(v1) {
		return false
	}
	if !d.HasEdge(v0, v1, EdgeHadamard) {
		return false
	}
	for _, v := range [2]VtxID{v0, v1} {
		if d.cells[v].kind != KindZ {
			return false
		}
		adj := d.cells[v].adj
		seen := make([]VtxID, 0, len(adj))
		for _, p := range adj {
			if p.To == v {
				return false
			}
			nk := d.cells[p.To].kind
			if nk != KindBoundary && !(nk == KindZ && p.Kind == EdgeHadamard) {
				return false
			}
			for _, w := range seen {
				if w == p.To {
					return false
				}
			}
			seen = append(seen, p.To)
		}
	}
	return true
}

// isInteriorPauli holds for a Pauli-phased spider all of whose neighbors
// are Z spiders of degree > 1, so it is neither boundary-adjacent nor part
// of a phase gadget.
func isInteriorPauli(d *Diagram, v VtxID) bool {
	if !d.cells[v].phase.IsPauli() {
		return false
	}
	for _, p := range d.cells[v].adj {
		if d.cells[p.To].kind != KindZ || len(d.cells[p.To].adj) <= 1 {
			return false
		}
	}
	return true
}

// isBoundaryPauli holds for a Pauli-phased spider with a boundary neighbor.
func isBoundaryPauli(d *Diagram, v VtxID) bool {
	if !d.cells[v].phase.IsPauli() {
		return false
	}
	for _, p := range d.cells[v].adj {
		if d.cells[p.To].kind == KindBoundary {
			return true
		}
	}
	return false
}

// CheckGenPivot matches a generalized pivot that is guaranteed to make
// progress: the pair has pivot shape up to unfusing, and at least one
// endpoint is interior Pauli, which the pivot then consumes.
func CheckGenPivot(d *Diagram, v0, v1 VtxID) bool {
	return checkGenPivotShape(d, v0, v1) &&
		(isInteriorPauli(d, v0) || isInteriorPauli(d, v1))
}

// CheckBoundaryPivot matches a generalized pivot that untangles a boundary:
// v0 is a Pauli spider on a boundary, v1 an interior Pauli spider.
func CheckBoundaryPivot(d *Diagram, v0, v1 VtxID) bool {
	return checkGenPivotShape(d, v0, v1) &&
		isBoundaryPauli(d, v0) && isInteriorPauli(d, v1)
}

// ApplyGenPivot unfuses whatever blocks a plain pivot, then pivots:
// a non-Pauli endpoint leaves its phase behind as a gadget, and each
// boundary wire is buffered with an interior spider.
func ApplyGenPivot(d *Diagram, v0, v1 VtxID) {
	for _, v := range [2]VtxID{v0, v1} {
		if !d.cells[v].phase.IsPauli() {
			ApplyUnfuseGadget(d, v)
		}
		for _, b := range d.Neighbors(v) {
			if d.cells[b].kind == KindBoundary {
				ApplyUnfuseBoundary(d, v, b)
			}
		}
	}
	ApplyPivot(d, v0, v1)
}

func GenPivot(d *Diagram, v0, v1 VtxID) bool {
	if !CheckGenPivot(d, v0, v1) {
		return false
	}
	ApplyGenPivot(d, v0, v1)
	return true
}

// gadgetTip returns v's single degree-1 neighbor when v is a phase-gadget
// hub: a phase-free Z spider whose wires are all Hadamard edges to Z
// spiders, exactly one of which has degree 1.
func gadgetTip(d *Diagram, v VtxID) (VtxID, bool) {
	if !d.isLive(v) || d.cells[v].kind != KindZ || !d.cells[v].phase.IsZero() {
		return VtxNil, false
	}
	tip := VtxNil
	for _, p := range d.cells[v].adj {
		if p.Kind != EdgeHadamard || p.To == v || d.cells[p.To].kind != KindZ {
			return VtxNil, false
		}
		if len(d.cells[p.To].adj) == 1 {
			if tip != VtxNil {
				return VtxNil, false
			}
			tip = p.To
		}
	}
	if tip == VtxNil {
		return VtxNil, false
	}
	return tip, true
}

// CheckGadgetFusion matches two phase gadgets over the same support: both
// hubs phase-free all-Hadamard Z spiders with one tip each, and equal
// non-tip neighbor sets.
func CheckGadgetFusion(d *Diagram, v0, v1 VtxID) bool {
	if v0 == v1 {
		return false
	}
	tip0, ok := gadgetTip(d, v0)
	if !ok {
		return false
	}
	tip1, ok := gadgetTip(d, v1)
	if !ok {
		return false
	}
	nhd := make(map[VtxID]bool, len(d.cells[v0].adj))
	n0 := 0
	for _, p := range d.cells[v0].adj {
		if p.To != tip0 {
			nhd[p.To] = true
			n0++
		}
	}
	n1 := 0
	for _, p := range d.cells[v1].adj {
		if p.To != tip1 {
			if !nhd[p.To] {
				return false
			}
			n1++
		}
	}
	return n0 == n1
}

// ApplyGadgetFusion adds tip1's phase onto tip0 and removes the second
// gadget. Scalar ×= √2^{2−d} with d the surviving hub's degree.
func ApplyGadgetFusion(d *Diagram, v0, v1 VtxID) {
	tip0, ok := gadgetTip(d, v0)
	if !ok {
		panic("libzx: gadget fusion on a non-gadget")
	}
	tip1, ok := gadgetTip(d, v1)
	if !ok {
		panic("libzx: gadget fusion on a non-gadget")
	}
	if err := d.AddPhase(tip0, d.cell(tip1).phase); err != nil {
		panic(err)
	}
	if err := d.RemoveVertexAndEdges(v1); err != nil {
		panic(err)
	}
	if err := d.RemoveVertexAndEdges(tip1); err != nil {
		panic(err)
	}
	d.scalar.MulSqrt2Pow(2 - d.Degree(v0))
}

func GadgetFusion(d *Diagram, v0, v1 VtxID) bool {
	if !CheckGadgetFusion(d, v0, v1) {
		return false
	}
	ApplyGadgetFusion(d, v0, v1)
	return true
}

// CheckRemoveSingle matches an isolated spider.
func CheckRemoveSingle(d *Diagram, v VtxID) bool {
	return d.isLive(v) && d.cells[v].kind.IsSpider() && len(d.cells[v].adj) == 0
}

// ApplyRemoveSingle folds an isolated spider into the Scalar:
// ×= (1 + e^{iπp}).
func ApplyRemoveSingle(d *Diagram, v VtxID) {
	d.scalar.MulOnePlusPhase(d.cell(v).phase)
	if err := d.RemoveVertex(v); err != nil {
		panic(err)
	}
}

func RemoveSingle(d *Diagram, v VtxID) bool {
	if !CheckRemoveSingle(d, v) {
		return false
	}
	ApplyRemoveSingle(d, v)
	return true
}

// CheckRemovePair matches two degree-1 spiders wired to each other. In the
// fused orientation (same color over plain, or different colors over
// Hadamard) any phases fold; in the crossed orientation the fold needs
// ℤ[ω] arithmetic, so both phases must be multiples of π/4.
func CheckRemovePair(d *Diagram, v0, v1 VtxID) bool {
	if v0 == v1 || !d.isLive(v0) || !d.isLive(v1) {
		return false
	}
	c0, c1 := &d.cells[v0], &d.cells[v1]
	if !c0.kind.IsSpider() || !c1.kind.IsSpider() {
		return false
	}
	if len(c0.adj) != 1 || len(c1.adj) != 1 || c0.adj[0].To != v1 {
		return false
	}
	if (c0.kind == c1.kind) == (c0.adj[0].Kind == EdgePlain) {
		return true
	}
	return 4%c0.phase.Den() == 0 && 4%c1.phase.Den() == 0
}

// ApplyRemovePair folds a two-spider component into the Scalar:
// ×= (1 + e^{iπ(p0+p1)}) in the fused orientation, and
// ×= √2^{−1}(1 + e^{iπp0} + e^{iπp1} − e^{iπ(p0+p1)}) in the crossed one.
func ApplyRemovePair(d *Diagram, v0, v1 VtxID) {
	c0, c1 := d.cell(v0), d.cell(v1)
	p0, p1 := c0.phase, c1.phase
	fused := (c0.kind == c1.kind) == (c0.adj[0].Kind == EdgePlain)

	if fused {
		d.scalar.MulOnePlusPhase(p0.Add(p1))
	} else {
		x2 := gozx.ScalarFromPhase(p0.Add(p1)).MulInt(-1)
		sum := gozx.ScalarOne().
			Add(gozx.ScalarFromPhase(p0)).
			Add(gozx.ScalarFromPhase(p1)).
			Add(x2)
		sum.MulSqrt2Pow(-1)
		d.scalar.Mul(sum)
	}
	if err := d.RemoveVertexAndEdges(v0); err != nil {
		panic(err)
	}
	if err := d.RemoveVertexAndEdges(v1); err != nil {
		panic(err)
	}
}

func RemovePair(d *Diagram, v0, v1 VtxID) bool {
	if !CheckRemovePair(d, v0, v1) {
		return false
	}
	ApplyRemovePair(d, v0, v1)
	return true
}

// CheckHBoxToEdge matches an arity-2 H-box on two wires that do not loop
// back onto the box.
func CheckHBoxToEdge(d *Diagram, h VtxID) bool {
	if !d.isLive(h) || d.cells[h].kind != KindHBox {
		return false
	}
	adj := d.cells[h].adj
	return len(adj) == 2 && adj[0].To != h && adj[1].To != h
}

// ApplyHBoxToEdge replaces an arity-2 H-box by a single edge: Hadamard when
// both legs are plain, toggled once per Hadamard leg. No scalar.
func ApplyHBoxToEdge(d *Diagram, h VtxID) {
	adj := d.cell(h).adj
	p0, p1 := adj[0], adj[1]
	kind := EdgeHadamard
	if p0.Kind == EdgeHadamard {
		kind = kind.toggle()
	}
	if p1.Kind == EdgeHadamard {
		kind = kind.toggle()
	}
	if err := d.RemoveVertexAndEdges(h); err != nil {
		panic(err)
	}
	if err := d.AddEdgeSmart(p0.To, p1.To, kind); err != nil {
		panic(err)
	}
}

func HBoxToEdge(d *Diagram, h VtxID) bool {
	if !CheckHBoxToEdge(d, h) {
		return false
	}
	ApplyHBoxToEdge(d, h)
	return true
}
