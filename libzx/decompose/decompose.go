package decompose

import (
	"bytes"
	"context"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/zxcalc/gozx"
	"github.com/zxcalc/gozx/libzx"
)

// Decompose fully simplifies d, then expands its non-Clifford remainder
// into a weighted sum of stabilizer terms. The input diagram is not
// mutated. Branch workers share nothing but the cache, the collectors,
// and the budget counters; a branch never waits on a sibling's result.
//
// Closed diagrams in ModeAmplitude run through the memo cache: a branch
// diagram's scalar is stripped before recursing, so the cached terminal
// scalars are relative weights any isomorphic occurrence can replay.
// Open diagrams and ModeSingleBest runs bypass the cache.
func Decompose(ctx context.Context, d *libzx.Diagram, opts DecomposeOpts) (res *Result, err error) {
	if d == nil {
		return nil, gozx.ErrNilDiagram
	}
	if err = d.Validate(); err != nil {
		return nil, err
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	cache := opts.Cache
	if cache == nil {
		if cache, err = NewMemoCache(); err != nil {
			return nil, err
		}
	}

	root := d.Fork()
	if _, err = libzx.FullSimp(root); err != nil {
		root.Reclaim()
		return nil, err
	}
	closed := len(d.Inputs()) == 0 && len(d.Outputs()) == 0

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s := &searcher{
		opts:      opts,
		cache:     cache,
		startHits: cache.Hits(),
		ctx:       ctx,
		cancel:    cancel,
		sem:       semaphore.NewWeighted(int64(workers - 1)),
		terms: &redblacktree.Tree{
			Comparator: func(a, b interface{}) int {
				return bytes.Compare(a.([]byte), b.([]byte))
			},
		},
	}
	s.best.Store(math.MaxInt64)

	defer func() {
		if r := recover(); r != nil {
			s.poison(r)
		}
		if s.fatal != nil {
			res, err = nil, s.fatal
		}
	}()

	res = &Result{}
	if opts.Mode == ModeAmplitude && closed {
		rel, _ := s.runRel(root, 0)
		sum := gozx.ScalarZero()
		for _, r := range rel {
			sum.Add(r)
		}
		res.Sum = sum
		res.TermCount = int64(len(rel))
		if opts.SaveTerms {
			for _, r := range rel {
				td := libzx.NewDiagram()
				td.Scalar().Set(r)
				res.Terms = append(res.Terms, &Term{D: td})
			}
		}
	} else {
		s.runOpen(root, 0)
		switch {
		case opts.Mode == ModeSingleBest:
			if s.bestTerm != nil {
				res.Terms = []*Term{s.bestTerm}
				res.TermCount = 1
				if closed {
					res.Sum = s.bestTerm.D.Scalar().Copy()
				}
			}
		case opts.SaveTerms:
			res.TermCount = s.termCount
			it := s.terms.Iterator()
			for it.Next() {
				res.Terms = append(res.Terms, it.Value().(*Term))
			}
		default:
			res.TermCount = s.termCount
		}
	}
	res.Incomplete = s.incomplete.Load()
	res.CacheHits = cache.Hits() - s.startHits
	res.BranchErrs = s.branchErrs
	return res, nil
}

type searcher struct {
	opts      DecomposeOpts
	cache     gozx.DecompCache
	startHits int64
	ctx       context.Context
	cancel    context.CancelFunc
	sem       *semaphore.Weighted

	produced   atomic.Int64 // terminal terms counted against the budget
	incomplete atomic.Bool
	best       atomic.Int64 // fewest branchings of any certificate so far

	mu         sync.Mutex
	terms      *redblacktree.Tree // canonical encoding -> *Term
	termCount  int64
	bestTerm   *Term
	branchErrs []error
	fatal      error
}

// runRel decomposes a closed branch diagram, taking ownership of d, and
// returns its absolute terminal scalars. The second result reports whether
// the subtree terminated fully; only then is its relative form cacheable.
func (s *searcher) runRel(d *libzx.Diagram, depth int32) ([]*gozx.Scalar, bool) {
	if s.ctx.Err() != nil {
		s.incomplete.Store(true)
		d.Reclaim()
		return nil, false
	}
	if _, err := libzx.FullSimp(d); err != nil {
		s.addBranchErr(errors.Wrapf(err, "branch at depth %d", depth))
		d.Reclaim()
		return nil, false
	}
	if d.Scalar().IsZero() {
		d.Reclaim()
		return nil, true
	}
	if d.NonCliffordCount() == 0 {
		sc := d.Scalar().Copy()
		d.Reclaim()
		if sc.HasNodes() {
			s.addBranchErr(errors.Wrapf(gozx.ErrScalarNodes,
				"terminal at depth %d keeps symbolic phase factors", depth))
			return nil, false
		}
		s.produced.Add(1)
		return []*gozx.Scalar{sc}, true
	}
	if s.opts.MaxTerms >= 0 && s.produced.Load() >= s.opts.MaxTerms {
		s.incomplete.Store(true)
		d.Reclaim()
		return nil, false
	}

	key := append([]byte(nil), d.CanonicalEncoding()...)
	if rel, ok := s.cache.Lookup(key); ok {
		branch := d.Scalar()
		for _, r := range rel {
			r.Mul(branch)
		}
		s.produced.Add(int64(len(rel)))
		d.Reclaim()
		return rel, true
	}

	branch := d.Scalar().Copy()
	d.Scalar().Set(gozx.ScalarOne())
	children, err := branchesFor(d, s.opts.UseCats, s.opts.UsePairs)
	if err != nil {
		s.addBranchErr(errors.Wrapf(err, "branch at depth %d", depth))
		d.Reclaim()
		return nil, false
	}
	d.Reclaim()

	rels := make([][]*gozx.Scalar, len(children))
	oks := make([]bool, len(children))
	s.forEachChild(children, func(i int, c *libzx.Diagram) {
		rels[i], oks[i] = s.runRel(c, depth+1)
	})

	complete := true
	var rel []*gozx.Scalar
	for i := range rels {
		rel = append(rel, rels[i]...)
		complete = complete && oks[i]
	}
	if complete {
		s.cache.Store(key, rel)
	}
	for _, r := range rel {
		r.Mul(branch)
	}
	return rel, complete
}

// runOpen decomposes a branch diagram without the relative-scalar cache,
// pushing terminal terms straight into the collectors. Used for diagrams
// with boundary wires, whose terms carry structure a sum cannot, and for
// ModeSingleBest, whose bound prunes subtrees the cache would record as
// complete.
func (s *searcher) runOpen(d *libzx.Diagram, depth int32) bool {
	if s.ctx.Err() != nil {
		s.incomplete.Store(true)
		d.Reclaim()
		return false
	}
	if _, err := libzx.FullSimp(d); err != nil {
		s.addBranchErr(errors.Wrapf(err, "branch at depth %d", depth))
		d.Reclaim()
		return false
	}
	if d.Scalar().IsZero() {
		d.Reclaim()
		return true
	}
	if d.NonCliffordCount() == 0 {
		s.produced.Add(1)
		if s.opts.Mode == ModeSingleBest {
			s.offerBest(d, depth)
		} else {
			s.collect(d, depth)
		}
		return true
	}
	if s.opts.MaxTerms >= 0 && s.produced.Load() >= s.opts.MaxTerms {
		s.incomplete.Store(true)
		d.Reclaim()
		return false
	}
	if s.opts.Mode == ModeSingleBest {
		lower := int64(depth) + int64(d.TCount()+5)/6
		if lower >= s.best.Load() {
			d.Reclaim()
			return true
		}
	}

	children, err := branchesFor(d, s.opts.UseCats, s.opts.UsePairs)
	if err != nil {
		s.addBranchErr(errors.Wrapf(err, "branch at depth %d", depth))
		d.Reclaim()
		return false
	}
	d.Reclaim()

	oks := make([]bool, len(children))
	s.forEachChild(children, func(i int, c *libzx.Diagram) {
		oks[i] = s.runOpen(c, depth+1)
	})
	for _, ok := range oks {
		if !ok {
			return false
		}
	}
	return true
}

// forEachChild runs fn over every child, spawning a goroutine per child
// while a worker slot is free and recursing inline otherwise. The first
// child always stays on the calling goroutine. Returns after every child
// finished.
func (s *searcher) forEachChild(children []*libzx.Diagram, fn func(i int, c *libzx.Diagram)) {
	var wg sync.WaitGroup
	for i := 1; i < len(children); i++ {
		if !s.sem.TryAcquire(1) {
			fn(i, children[i])
			continue
		}
		wg.Add(1)
		go func(i int, c *libzx.Diagram) {
			defer func() {
				if r := recover(); r != nil {
					s.poison(r)
				}
				s.sem.Release(1)
				wg.Done()
			}()
			fn(i, c)
		}(i, children[i])
	}
	fn(0, children[0])
	wg.Wait()
}

// collect folds a terminal into the term tree, taking ownership of d.
// Isomorphic terminals sum their scalars; a scalar the sum cannot absorb
// stays a separate term.
func (s *searcher) collect(d *libzx.Diagram, depth int32) {
	if !s.opts.SaveTerms {
		s.mu.Lock()
		s.termCount++
		s.mu.Unlock()
		d.Reclaim()
		return
	}
	key := append([]byte(nil), d.CanonicalEncoding()...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.termCount++
	for {
		node, found := s.terms.Get(key)
		if !found {
			s.terms.Put(key, &Term{D: d, Depth: depth})
			return
		}
		prior := node.(*Term)
		if prior.D.Scalar().CanAdd(d.Scalar()) {
			prior.D.Scalar().Add(d.Scalar())
			if depth < prior.Depth {
				prior.Depth = depth
			}
			d.Reclaim()
			return
		}
		key = append(key, 0xFF)
	}
}

// offerBest races d against the cheapest certificate so far, taking
// ownership of d.
func (s *searcher) offerBest(d *libzx.Diagram, depth int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bestTerm != nil && int64(depth) >= s.best.Load() {
		d.Reclaim()
		return
	}
	if s.bestTerm != nil {
		s.bestTerm.D.Reclaim()
	}
	s.bestTerm = &Term{D: d, Depth: depth}
	s.best.Store(int64(depth))
}

func (s *searcher) addBranchErr(err error) {
	s.mu.Lock()
	s.branchErrs = append(s.branchErrs, err)
	s.mu.Unlock()
}

// poison records an unrecoverable failure and cancels every in-flight
// branch. The run's results are discarded.
func (s *searcher) poison(r interface{}) {
	s.mu.Lock()
	if s.fatal == nil {
		s.fatal = errors.Wrapf(gozx.ErrConcurrencyFailure, "branch worker panicked: %v", r)
	}
	s.mu.Unlock()
	s.cancel()
}
