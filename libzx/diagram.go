package libzx

import (
	"fmt"
	"io"
	"sync"

	"github.com/pkg/errors"
	"github.com/zxcalc/gozx"
)

// Diagram is a mutable ZX-diagram: an arena of typed vertices joined by
// plain or Hadamard edges, with ordered boundary wires and one exact Scalar
// accumulating every factor the rewrites fold out of the graph.
//
// Self-loops and parallel edges are valid transient states; rules collapse
// them. A Diagram is owned by one rewriting goroutine at a time; search
// branches work on Fork() copies.
type Diagram struct {
	cells    []vtxCell // 1-based; slot 0 reserved
	free     []VtxID
	inputs   []VtxID
	outputs  []VtxID
	scalar   *gozx.Scalar
	numLive  int
	numEdges int

	mutSeq   uint64
	canonSeq uint64
	canon    []byte
}

var diagramPool = sync.Pool{
	New: func() any {
		return &Diagram{}
	},
}

func NewDiagram() *Diagram {
	d := diagramPool.Get().(*Diagram)
	d.cells = append(d.cells[:0], vtxCell{})
	d.free = d.free[:0]
	d.inputs = d.inputs[:0]
	d.outputs = d.outputs[:0]
	if d.scalar == nil {
		d.scalar = gozx.ScalarOne()
	} else {
		d.scalar.Set(gozx.ScalarOne())
	}
	d.numLive = 0
	d.numEdges = 0
	d.mutSeq = 1
	d.canonSeq = 0
	d.canon = d.canon[:0]
	return d
}

// Reclaim recycles this Diagram into a pool for reuse.
// Caller asserts that no more references to this instance will persist.
func (d *Diagram) Reclaim() {
	diagramPool.Put(d)
}

// Fork returns an independently mutable structural copy sharing nothing
// with d. The Scalar is copied too.
func (d *Diagram) Fork() *Diagram {
	c := diagramPool.Get().(*Diagram)
	c.cells = append(c.cells[:0], d.cells...)
	for i := range c.cells {
		src := d.cells[i].adj
		c.cells[i].adj = nil
		if len(src) > 0 {
			c.cells[i].adj = append(make([]Port, 0, len(src)), src...)
		}
	}
	c.free = append(c.free[:0], d.free...)
	c.inputs = append(c.inputs[:0], d.inputs...)
	c.outputs = append(c.outputs[:0], d.outputs...)
	if c.scalar == nil {
		c.scalar = d.scalar.Copy()
	} else {
		c.scalar.Set(d.scalar)
	}
	c.numLive = d.numLive
	c.numEdges = d.numEdges
	c.mutSeq = d.mutSeq
	c.canonSeq = d.canonSeq
	c.canon = append(c.canon[:0], d.canon...)
	return c
}

func (d *Diagram) touch() {
	d.mutSeq++
}

func (d *Diagram) isLive(v VtxID) bool {
	return v > 0 && int(v) < len(d.cells) && d.cells[v].live
}

func (d *Diagram) cell(v VtxID) *vtxCell {
	if !d.isLive(v) {
		panic(fmt.Sprintf("libzx: dead or invalid vertex %d", v))
	}
	return &d.cells[v]
}

// AddVertex allocates a vertex of the given kind, reusing a freed identity
// when one exists. Only spiders carry phases.
func (d *Diagram) AddVertex(kind VtxKind, phase gozx.Phase) VtxID {
	if !kind.IsSpider() && !phase.IsZero() {
		panic("libzx: phase on a non-spider vertex")
	}
	var v VtxID
	if n := len(d.free); n > 0 {
		v = d.free[n-1]
		d.free = d.free[:n-1]
		d.cells[v] = vtxCell{kind: kind, phase: phase, live: true, adj: d.cells[v].adj[:0]}
	} else {
		d.cells = append(d.cells, vtxCell{kind: kind, phase: phase, live: true})
		v = VtxID(len(d.cells) - 1)
	}
	d.numLive++
	d.touch()
	return v
}

// AddBoundary allocates a boundary vertex and appends it to the input or
// output wire ordering.
func (d *Diagram) AddBoundary(isInput bool) VtxID {
	v := d.AddVertex(KindBoundary, gozx.PhaseZero())
	if isInput {
		d.inputs = append(d.inputs, v)
	} else {
		d.outputs = append(d.outputs, v)
	}
	return v
}

// RemoveVertex frees v. The vertex must have no incident edges and must not
// be registered as an input or output wire.
func (d *Diagram) RemoveVertex(v VtxID) error {
	if !d.isLive(v) {
		return errors.Wrapf(gozx.ErrBadVtxID, "remove vertex %d", v)
	}
	if len(d.cells[v].adj) > 0 {
		return errors.Wrapf(gozx.ErrVertexInUse, "vertex %d has %d ports", v, len(d.cells[v].adj))
	}
	if d.boundaryIndex(v, true) >= 0 || d.boundaryIndex(v, false) >= 0 {
		return errors.Wrapf(gozx.ErrInvariantViolation, "vertex %d is a registered boundary wire", v)
	}
	d.cells[v].live = false
	d.cells[v].phase = gozx.PhaseZero()
	d.cells[v].adj = d.cells[v].adj[:0]
	d.free = append(d.free, v)
	d.numLive--
	d.touch()
	return nil
}

// RemoveVertexAndEdges removes v's incident edges, then v itself.
func (d *Diagram) RemoveVertexAndEdges(v VtxID) error {
	if !d.isLive(v) {
		return errors.Wrapf(gozx.ErrBadVtxID, "remove vertex %d", v)
	}
	if d.IsBoundary(v) {
		return errors.Wrapf(gozx.ErrInvariantViolation, "vertex %d is a registered boundary wire", v)
	}
	cell := &d.cells[v]
	for _, p := range cell.adj {
		if p.To != v {
			d.dropOnePort(p.To, Port{To: v, Kind: p.Kind})
		}
		d.numEdges-- // self-loops appear twice, counting two half-edges
	}
	d.numEdges += selfLoopCount(cell.adj, v) // each loop subtracted twice above
	cell.adj = cell.adj[:0]
	d.touch()
	return d.RemoveVertex(v)
}

func selfLoopCount(adj []Port, v VtxID) int {
	n := 0
	for _, p := range adj {
		if p.To == v {
			n++
		}
	}
	return n / 2
}

// AddEdge appends an edge without any merge semantics; parallel edges and
// self-loops are represented explicitly.
func (d *Diagram) AddEdge(u, v VtxID, kind EdgeKind) error {
	if !d.isLive(u) || !d.isLive(v) {
		return errors.Wrapf(gozx.ErrBadVtxID, "edge %d-%d", u, v)
	}
	d.appendEdge(u, v, kind)
	return nil
}

func (d *Diagram) appendEdge(u, v VtxID, kind EdgeKind) {
	if u == v {
		d.cells[u].adj = append(d.cells[u].adj, Port{To: v, Kind: kind}, Port{To: v, Kind: kind})
	} else {
		d.cells[u].adj = append(d.cells[u].adj, Port{To: v, Kind: kind})
		d.cells[v].adj = append(d.cells[v].adj, Port{To: u, Kind: kind})
	}
	d.numEdges++
	d.touch()
}

// RemoveEdge removes one edge of the given kind between u and v.
func (d *Diagram) RemoveEdge(u, v VtxID, kind EdgeKind) error {
	if !d.isLive(u) || !d.isLive(v) {
		return errors.Wrapf(gozx.ErrBadVtxID, "edge %d-%d", u, v)
	}
	if !d.dropOnePort(u, Port{To: v, Kind: kind}) {
		return errors.Wrapf(gozx.ErrInvariantViolation, "no %s edge between %d and %d", kind, u, v)
	}
	if !d.dropOnePort(v, Port{To: u, Kind: kind}) {
		panic("libzx: asymmetric adjacency")
	}
	d.numEdges--
	d.touch()
	return nil
}

// dropOnePort removes the first port equal to want from v's adjacency,
// preserving port order.
func (d *Diagram) dropOnePort(v VtxID, want Port) bool {
	adj := d.cells[v].adj
	for i, p := range adj {
		if p == want {
			d.cells[v].adj = append(adj[:i], adj[i+1:]...)
			return true
		}
	}
	return false
}

// setEdgeKind rewrites the kind of one existing u-v edge on both ports.
func (d *Diagram) setEdgeKind(u, v VtxID, from, to EdgeKind) {
	if !d.dropOnePort(u, Port{To: v, Kind: from}) || !d.dropOnePort(v, Port{To: u, Kind: from}) {
		panic("libzx: setEdgeKind on missing edge")
	}
	d.cells[u].adj = append(d.cells[u].adj, Port{To: v, Kind: to})
	d.cells[v].adj = append(d.cells[v].adj, Port{To: u, Kind: to})
	d.touch()
}

// AddEdgeSmart adds an edge between two vertices, folding self-loops and
// parallel pairs between spiders into exact phase and Scalar updates:
//
//	plain self-loop          -> dropped
//	Hadamard self-loop       -> phase += π, Scalar ×= √2⁻¹
//	same color  plain+plain  -> one plain edge
//	same color  had+had      -> no edge,   Scalar ×= √2⁻²
//	same color  mixed        -> one plain, phase += π, Scalar ×= √2⁻¹
//	diff color  plain+plain  -> no edge,   Scalar ×= √2⁻²
//	diff color  had+had      -> one had edge
//	diff color  mixed        -> one had,   phase += π, Scalar ×= √2⁻¹
//
// Edges touching boundaries or H-boxes never merge.
func (d *Diagram) AddEdgeSmart(u, v VtxID, kind EdgeKind) error {
	if !d.isLive(u) || !d.isLive(v) {
		return errors.Wrapf(gozx.ErrBadVtxID, "edge %d-%d", u, v)
	}
	if u == v {
		cell := &d.cells[u]
		if !cell.kind.IsSpider() {
			return errors.Wrapf(gozx.ErrInvariantViolation, "self-loop on %s vertex %d", cell.kind, u)
		}
		if kind == EdgeHadamard {
			cell.phase = cell.phase.Add(gozx.PhasePi())
			d.scalar.MulSqrt2Pow(-1)
		}
		d.touch()
		return nil
	}

	cu, cv := &d.cells[u], &d.cells[v]
	if !cu.kind.IsSpider() || !cv.kind.IsSpider() {
		d.appendEdge(u, v, kind)
		return nil
	}

	exKind, exists := d.firstEdgeKind(u, v)
	if !exists {
		d.appendEdge(u, v, kind)
		return nil
	}

	same := cu.kind == cv.kind
	switch {
	case same && exKind == EdgePlain && kind == EdgePlain:
		// fusion-equivalent duplicate: keep one
	case !same && exKind == EdgeHadamard && kind == EdgeHadamard:
		// keep one
	case same && exKind == EdgeHadamard && kind == EdgeHadamard,
		!same && exKind == EdgePlain && kind == EdgePlain:
		if err := d.RemoveEdge(u, v, exKind); err != nil {
			panic(err)
		}
		d.scalar.MulSqrt2Pow(-2)
	default: // mixed pair
		keep := EdgeHadamard
		if same {
			keep = EdgePlain
		}
		if exKind != keep {
			d.setEdgeKind(u, v, exKind, keep)
		}
		cu.phase = cu.phase.Add(gozx.PhasePi())
		d.scalar.MulSqrt2Pow(-1)
	}
	d.touch()
	return nil
}

func (d *Diagram) firstEdgeKind(u, v VtxID) (EdgeKind, bool) {
	for _, p := range d.cells[u].adj {
		if p.To == v {
			return p.Kind, true
		}
	}
	return EdgePlain, false
}

// SetPhase assigns a phase; boundaries and H-boxes stay phase-free.
func (d *Diagram) SetPhase(v VtxID, p gozx.Phase) error {
	if !d.isLive(v) {
		return errors.Wrapf(gozx.ErrBadVtxID, "set phase on %d", v)
	}
	cell := &d.cells[v]
	if !cell.kind.IsSpider() && !p.IsZero() {
		return errors.Wrapf(gozx.ErrInvariantViolation, "phase on %s vertex %d", cell.kind, v)
	}
	cell.phase = p
	d.touch()
	return nil
}

// AddPhase adds p to v's phase.
func (d *Diagram) AddPhase(v VtxID, p gozx.Phase) error {
	if !d.isLive(v) {
		return errors.Wrapf(gozx.ErrBadVtxID, "add phase on %d", v)
	}
	return d.SetPhase(v, d.cells[v].phase.Add(p))
}

func (d *Diagram) KindOf(v VtxID) VtxKind {
	return d.cell(v).kind
}

func (d *Diagram) PhaseOf(v VtxID) gozx.Phase {
	return d.cell(v).phase
}

// Degree counts ports, so a self-loop contributes 2.
func (d *Diagram) Degree(v VtxID) int {
	return len(d.cell(v).adj)
}

// Ports returns v's raw adjacency in insertion order. The slice is shared;
// callers must not mutate it.
func (d *Diagram) Ports(v VtxID) []Port {
	return d.cell(v).adj
}

// Neighbors returns v's distinct neighbors in first-appearance order,
// excluding v itself.
func (d *Diagram) Neighbors(v VtxID) []VtxID {
	adj := d.cell(v).adj
	out := make([]VtxID, 0, len(adj))
	for _, p := range adj {
		if p.To == v {
			continue
		}
		seen := false
		for _, w := range out {
			if w == p.To {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, p.To)
		}
	}
	return out
}

func (d *Diagram) EdgeCount(u, v VtxID) int {
	n := 0
	for _, p := range d.cell(u).adj {
		if p.To == v {
			n++
		}
	}
	if u == v {
		n /= 2
	}
	return n
}

func (d *Diagram) HasEdge(u, v VtxID, kind EdgeKind) bool {
	for _, p := range d.cell(u).adj {
		if p.To == v && p.Kind == kind {
			return true
		}
	}
	return false
}

func (d *Diagram) Scalar() *gozx.Scalar {
	return d.scalar
}

// MulScalar multiplies the diagram's global factor; graph structure is
// untouched.
func (d *Diagram) MulScalar(s *gozx.Scalar) {
	d.scalar.Mul(s)
}

func (d *Diagram) NumVertices() int { return d.numLive }
func (d *Diagram) NumEdges() int    { return d.numEdges }

func (d *Diagram) NumQubits() int {
	if len(d.inputs) > len(d.outputs) {
		return len(d.inputs)
	}
	return len(d.outputs)
}

// Vertices returns all live identities in ascending order.
func (d *Diagram) Vertices() []VtxID {
	out := make([]VtxID, 0, d.numLive)
	for v := VtxID(1); int(v) < len(d.cells); v++ {
		if d.cells[v].live {
			out = append(out, v)
		}
	}
	return out
}

func (d *Diagram) Inputs() []VtxID {
	return append([]VtxID{}, d.inputs...)
}

func (d *Diagram) Outputs() []VtxID {
	return append([]VtxID{}, d.outputs...)
}

func (d *Diagram) SetInputs(vs ...VtxID) error {
	if err := d.checkBoundaryList(vs); err != nil {
		return err
	}
	d.inputs = append(d.inputs[:0], vs...)
	d.touch()
	return nil
}

func (d *Diagram) SetOutputs(vs ...VtxID) error {
	if err := d.checkBoundaryList(vs); err != nil {
		return err
	}
	d.outputs = append(d.outputs[:0], vs...)
	d.touch()
	return nil
}

func (d *Diagram) checkBoundaryList(vs []VtxID) error {
	for i, v := range vs {
		if !d.isLive(v) {
			return errors.Wrapf(gozx.ErrBadVtxID, "boundary wire %d", v)
		}
		if d.cells[v].kind != KindBoundary {
			return errors.Wrapf(gozx.ErrInvariantViolation, "wire vertex %d is %s, not a boundary", v, d.cells[v].kind)
		}
		for _, w := range vs[:i] {
			if w == v {
				return errors.Wrapf(gozx.ErrInvariantViolation, "boundary %d repeated in wire order", v)
			}
		}
	}
	return nil
}

// boundaryIndex returns v's position among inputs (or outputs), -1 if absent.
func (d *Diagram) boundaryIndex(v VtxID, input bool) int {
	list := d.outputs
	if input {
		list = d.inputs
	}
	for i, w := range list {
		if w == v {
			return i
		}
	}
	return -1
}

// IsBoundary reports whether v is a registered input or output wire.
func (d *Diagram) IsBoundary(v VtxID) bool {
	return d.boundaryIndex(v, true) >= 0 || d.boundaryIndex(v, false) >= 0
}

// TCount counts spiders with T-like phases, the resource the decomposer
// eliminates.
func (d *Diagram) TCount() int {
	n := 0
	for v := VtxID(1); int(v) < len(d.cells); v++ {
		c := &d.cells[v]
		if c.live && c.kind.IsSpider() && c.phase.IsTLike() {
			n++
		}
	}
	return n
}

// NonCliffordCount counts spiders with any non-Clifford phase.
func (d *Diagram) NonCliffordCount() int {
	n := 0
	for v := VtxID(1); int(v) < len(d.cells); v++ {
		c := &d.cells[v]
		if c.live && c.kind.IsSpider() && !c.phase.IsClifford() {
			n++
		}
	}
	return n
}

// Validate checks every structural invariant: port symmetry, no edges into
// freed cells, phase-free boundaries, and well-formed wire orderings.
func (d *Diagram) Validate() error {
	if len(d.cells) == 0 {
		return errors.Wrap(gozx.ErrInvariantViolation, "uninitialized arena")
	}
	if len(d.free)+d.numLive != len(d.cells)-1 {
		return errors.Wrapf(gozx.ErrInvariantViolation, "arena slots %d != live %d + free %d",
			len(d.cells)-1, d.numLive, len(d.free))
	}
	for _, v := range d.free {
		if v <= 0 || int(v) >= len(d.cells) || d.cells[v].live {
			return errors.Wrapf(gozx.ErrInvariantViolation, "free list holds live or invalid vertex %d", v)
		}
	}

	type halfEdge struct {
		u, v VtxID
		kind EdgeKind
	}
	counts := map[halfEdge]int{}
	totalPorts := 0
	for v := VtxID(1); int(v) < len(d.cells); v++ {
		c := &d.cells[v]
		if !c.live {
			if len(c.adj) > 0 {
				return errors.Wrapf(gozx.ErrInvariantViolation, "freed vertex %d keeps ports", v)
			}
			continue
		}
		if !c.kind.IsSpider() && !c.phase.IsZero() {
			return errors.Wrapf(gozx.ErrInvariantViolation, "%s vertex %d carries phase %s", c.kind, v, c.phase)
		}
		for _, p := range c.adj {
			if !d.isLive(p.To) {
				return errors.Wrapf(gozx.ErrInvariantViolation, "dangling edge %d-%d", v, p.To)
			}
			counts[halfEdge{v, p.To, p.Kind}]++
			totalPorts++
		}
	}
	for he, n := range counts {
		if he.u == he.v {
			if n%2 != 0 {
				return errors.Wrapf(gozx.ErrInvariantViolation, "odd self-loop ports on %d", he.u)
			}
			continue
		}
		if counts[halfEdge{he.v, he.u, he.kind}] != n {
			return errors.Wrapf(gozx.ErrInvariantViolation, "asymmetric %s edge %d-%d", he.kind, he.u, he.v)
		}
	}
	if totalPorts != 2*d.numEdges {
		return errors.Wrapf(gozx.ErrInvariantViolation, "port count %d != 2×edges %d", totalPorts, d.numEdges)
	}

	if err := d.checkBoundaryList(d.inputs); err != nil {
		return err
	}
	if err := d.checkBoundaryList(d.outputs); err != nil {
		return err
	}
	for _, v := range d.inputs {
		if d.boundaryIndex(v, false) >= 0 {
			return errors.Wrapf(gozx.ErrInvariantViolation, "boundary %d is both input and output", v)
		}
	}
	return nil
}

func (d *Diagram) String() string {
	return fmt.Sprintf("Diagram{v=%d e=%d q=%d t=%d S=%s}",
		d.numLive, d.numEdges, d.NumQubits(), d.TCount(), d.scalar)
}

// WriteAsString prints a deterministic long-form rendering.
func (d *Diagram) WriteAsString(out io.Writer, opts gozx.PrintOpts) {
	fmt.Fprintf(out, "v=%d,e=%d,q=%d", d.numLive, d.numEdges, d.NumQubits())
	if opts.Scalar {
		fmt.Fprintf(out, ",S=%s", d.scalar)
	}
	if opts.Phases {
		for _, v := range d.Vertices() {
			c := &d.cells[v]
			fmt.Fprintf(out, "\n%d:%s", v, c.kind)
			if c.kind.IsSpider() && !c.phase.IsZero() {
				fmt.Fprintf(out, "(%s)", c.phase)
			}
			for _, p := range c.adj {
				fmt.Fprintf(out, " %s%d", p.Kind, p.To)
			}
		}
	}
}

// MakeCopy implements gozx.DiagramState.
func (d *Diagram) MakeCopy() gozx.DiagramState {
	return d.Fork()
}
