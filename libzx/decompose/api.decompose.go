// Package decompose eliminates the non-Clifford remainder of a simplified
// diagram by a parallel branch-and-bound search: each branching replaces a
// local non-Clifford configuration by a finite weighted sum of alternatives
// with strictly fewer T-like spiders, until every leaf is a stabilizer term.
package decompose

import (
	"github.com/zxcalc/gozx"
	"github.com/zxcalc/gozx/libzx"
)

// Mode selects what the search collects.
type Mode int32

const (

	// ModeAmplitude sums every terminal term exactly.
	ModeAmplitude Mode = iota

	// ModeSingleBest keeps one stabilizer certificate reached with the
	// fewest branchings, pruning paths that cannot beat it.
	ModeSingleBest
)

// DecomposeOpts parameterizes a Decompose run.
type DecomposeOpts struct {
	Workers   int              // parallel branch workers; <= 0 means GOMAXPROCS
	MaxTerms  int64            // terminal term budget; negative means unlimited
	UseCats   bool             // branch on cat states (best T reduction per branching)
	UsePairs  bool             // branch on T spider pairs
	SaveTerms bool             // retain terminal diagrams in Result.Terms
	Mode      Mode             // what the search collects
	Cache     gozx.DecompCache // nil allocates a fresh in-memory cache
}

// DefaultDecomposeOpts returns the standard settings: every worker the
// runtime offers, no term budget, and all branching patterns enabled.
func DefaultDecomposeOpts() DecomposeOpts {
	return DecomposeOpts{
		Workers:  0,
		MaxTerms: -1,
		UseCats:  true,
		UsePairs: true,
	}
}

// Term is one summand of a decomposition: a stabilizer diagram whose Scalar
// carries the path's accumulated coefficient.
type Term struct {
	D *libzx.Diagram

	// Depth counts the branchings on the path that produced this term.
	// Terms replayed from the cache report the depth of the cache hit.
	Depth int32
}

// Result reports the outcome of one Decompose run.
type Result struct {

	// Terms holds the collected terminal terms when SaveTerms is set, in
	// branch order for closed diagrams and canonical order for open ones.
	// In ModeSingleBest it holds the single cheapest certificate.
	Terms []*Term

	// Sum is the exact value of a closed diagram: the sum of every
	// terminal scalar. Nil when the input has boundary wires.
	Sum *gozx.Scalar

	// TermCount counts terminal terms before isomorphic terms fold.
	TermCount int64

	// CacheHits counts cache replays during this run.
	CacheHits int64

	// Incomplete is set when the term budget or context cancellation
	// stopped the search before every branch terminated.
	Incomplete bool

	// BranchErrs collects per-branch failures: configurations no pattern
	// matches. The rest of the search proceeds past them.
	BranchErrs []error
}

// Scalars returns each saved term's weight in result order.
func (res *Result) Scalars() []*gozx.Scalar {
	out := make([]*gozx.Scalar, len(res.Terms))
	for i, t := range res.Terms {
		out[i] = t.D.Scalar()
	}
	return out
}

// StreamTerms emits copies of a result's saved terms into a fresh TermStream.
func StreamTerms(res *Result) *gozx.TermStream {
	next := gozx.NewTermStream()
	go func() {
		for _, t := range res.Terms {
			next.Outlet <- t.D.MakeCopy()
		}
		next.Close()
	}()
	return next
}
