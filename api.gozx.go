// Package gozx hosts the exact scalar arithmetic and the public contracts
// of the ZX-calculus rewriting core: diagrams are simplified in place by
// confluent rewrite rules and their non-Clifford remainder is decomposed
// into exact stabilizer term sums.
package gozx

import (
	"io"
)

// DiagramState is the read surface a diagram exposes to consumers outside
// the rewriting engine: term streams, catalogs, and drivers.
type DiagramState interface {

	// NumVertices returns the count of live vertices.
	NumVertices() int

	// NumEdges returns the count of edges, parallels and self-loops included.
	NumEdges() int

	// NumQubits returns the wire count of the boundary ordering.
	NumQubits() int

	// TCount returns the number of spiders carrying T-like phases.
	TCount() int

	// Scalar returns the diagram's accumulated global factor.
	// The returned value is live; callers must not mutate it.
	Scalar() *Scalar

	// CanonicalEncoding returns an isomorphism-invariant byte form:
	// equal encodings mean equal diagrams up to relabeling. The attached
	// Scalar is not part of the encoding.
	CanonicalEncoding() []byte

	// MakeCopy returns an independently owned structural copy.
	MakeCopy() DiagramState

	// Reclaim releases this state back to its allocation pool.
	// The caller must not touch the state afterward.
	Reclaim()

	// WriteAsString prints a deterministic rendering.
	WriteAsString(out io.Writer, opts PrintOpts)
}

// DecompCache memoizes fully decomposed diagrams: an isomorphism-invariant
// key maps to the relative terminal scalars of its unit-scalar diagram.
// Implementations must allow concurrent callers; lookups on distinct keys
// must not serialize each other.
type DecompCache interface {

	// Lookup returns the cached relative terminal scalars for key.
	// The returned scalars are owned by the caller and safe to mutate.
	Lookup(key []byte) (rel []*Scalar, ok bool)

	// Store records the relative terminal scalars for key. Later stores
	// for the same key may be dropped; first write wins. Implementations
	// copy what they keep; key and rel stay owned by the caller.
	Store(key []byte, rel []*Scalar)

	// Hits counts successful lookups since creation.
	Hits() int64

	// Entries counts stored keys.
	Entries() int64
}

// PrintOpts selects what WriteAsString renders.
type PrintOpts struct {
	Label  string
	Phases bool
	Scalar bool
}

func DefaultPrintOpts() PrintOpts {
	return PrintOpts{
		Phases: true,
		Scalar: true,
	}
}
