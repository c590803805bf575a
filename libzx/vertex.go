package libzx

import (
	"github.com/zxcalc/gozx"
)

// VtxID is a stable 1-based vertex identity within one Diagram's arena.
// 0 is the nil vertex. Identities are reused only after explicit removal.
type VtxID int32

const VtxNil = VtxID(0)

// VtxKind tags a vertex. The rewrite system operates on Z and X spiders;
// boundaries pin the qubit wires; arity-2 H-boxes appear on ingest and are
// normalized into Hadamard edges.
type VtxKind byte

const (
	KindBoundary VtxKind = iota
	KindZ
	KindX
	KindHBox
)

func (k VtxKind) IsSpider() bool {
	return k == KindZ || k == KindX
}

func (k VtxKind) String() string {
	switch k {
	case KindBoundary:
		return "B"
	case KindZ:
		return "Z"
	case KindX:
		return "X"
	case KindHBox:
		return "H"
	}
	return "?"
}

// EdgeKind tags a wire: plain, or carrying an implicit Hadamard.
type EdgeKind byte

const (
	EdgePlain EdgeKind = iota
	EdgeHadamard
)

func (k EdgeKind) String() string {
	if k == EdgeHadamard {
		return "h"
	}
	return "-"
}

// compose returns the edge kind of two wire segments joined end to end.
func (k EdgeKind) compose(other EdgeKind) EdgeKind {
	if k == other {
		return EdgePlain
	}
	return EdgeHadamard
}

// toggle flips plain and Hadamard.
func (k EdgeKind) toggle() EdgeKind {
	if k == EdgePlain {
		return EdgeHadamard
	}
	return EdgePlain
}

// Port is one end of an edge as seen from its owning vertex. Parallel edges
// repeat; a self-loop contributes two ports on the same vertex.
type Port struct {
	To   VtxID
	Kind EdgeKind
}

type vtxCell struct {
	kind  VtxKind
	phase gozx.Phase
	live  bool
	adj   []Port
}
