package libzx

import (
	"bytes"
	"encoding/binary"
	"sort"
)

// CanonicalEncoding returns a byte string that is identical for two
// diagrams exactly when they are isomorphic: equal up to vertex relabeling,
// with boundary order, vertex kinds, phases, edge kinds, and edge
// multiplicities all significant. The Scalar is not part of the encoding.
//
// The encoding is cached until the next mutation; callers must not modify
// the returned slice.
func (d *Diagram) CanonicalEncoding() []byte {
	if d.canonSeq != d.mutSeq {
		d.canon = d.appendCanonicalEncoding(d.canon[:0])
		d.canonSeq = d.mutSeq
	}
	return d.canon
}

// IsIsomorphic reports whether two diagrams are equal up to vertex
// relabeling. Scalars are not compared.
func IsIsomorphic(a, b *Diagram) bool {
	if a.numLive != b.numLive || a.numEdges != b.numEdges ||
		len(a.inputs) != len(b.inputs) || len(a.outputs) != len(b.outputs) {
		return false
	}
	return bytes.Equal(a.CanonicalEncoding(), b.CanonicalEncoding())
}

// appendCanonicalEncoding runs an exact canonical labeling: iterative color
// refinement, then individualization on the first ambiguous color class,
// taking the lexicographically least encoding over all branches. Exactness
// matters because these bytes key the decomposition memo, where a false
// merge would corrupt results. Boundary wires are pinned by their position,
// so refinement becomes discrete almost immediately on open diagrams.
func (d *Diagram) appendCanonicalEncoding(buf []byte) []byte {
	cc := canonCtx{d: d, verts: d.Vertices()}
	cc.index = make([]int32, len(d.cells))
	for i, v := range cc.verts {
		cc.index[v] = int32(i)
	}
	cc.search(cc.initialColors())
	return append(buf, cc.best...)
}

type canonCtx struct {
	d     *Diagram
	verts []VtxID
	index []int32 // VtxID -> dense index
	best  []byte
}

// initialColors partitions vertices by their invariant header: boundary
// wires each get their own color keyed on list and position, everything
// else is keyed on (kind, phase, degree).
func (cc *canonCtx) initialColors() []int32 {
	n := len(cc.verts)
	keys := make([][5]int64, n)
	for i, v := range cc.verts {
		c := &cc.d.cells[v]
		if in := cc.d.boundaryIndex(v, true); in >= 0 {
			keys[i] = [5]int64{0, int64(in)}
			continue
		}
		if out := cc.d.boundaryIndex(v, false); out >= 0 {
			keys[i] = [5]int64{1, int64(out)}
			continue
		}
		keys[i] = [5]int64{2, int64(c.kind), c.phase.Num(), c.phase.Den(), int64(len(c.adj))}
	}
	ord := make([]int, n)
	for i := range ord {
		ord[i] = i
	}
	sort.Slice(ord, func(a, b int) bool {
		ka, kb := &keys[ord[a]], &keys[ord[b]]
		for x := 0; x < 5; x++ {
			if ka[x] != kb[x] {
				return ka[x] < kb[x]
			}
		}
		return false
	})
	colors := make([]int32, n)
	next := int32(0)
	for k, i := range ord {
		if k > 0 && keys[i] != keys[ord[k-1]] {
			next++
		}
		colors[i] = next
	}
	return colors
}

// refine splits color classes by the multiset of (neighbor color, edge kind)
// seen over each vertex's ports until the partition stabilizes. Classes are
// renumbered contiguously in canonical order every round.
func (cc *canonCtx) refine(colors []int32) []int32 {
	n := len(cc.verts)
	if n == 0 {
		return colors
	}
	ord := make([]int, n)
	sigs := make([][]int64, n)
	for {
		for i, v := range cc.verts {
			ports := cc.d.cells[v].adj
			sig := make([]int64, len(ports))
			for pi, p := range ports {
				sig[pi] = int64(colors[cc.index[p.To]])<<1 | int64(p.Kind)
			}
			sort.Slice(sig, func(a, b int) bool { return sig[a] < sig[b] })
			sigs[i] = sig
		}
		for i := range ord {
			ord[i] = i
		}
		sort.Slice(ord, func(a, b int) bool {
			i, j := ord[a], ord[b]
			if colors[i] != colors[j] {
				return colors[i] < colors[j]
			}
			return lessInt64s(sigs[i], sigs[j])
		})
		next := make([]int32, n)
		c := int32(0)
		for k, i := range ord {
			if k > 0 {
				j := ord[k-1]
				if colors[i] != colors[j] || !equalInt64s(sigs[i], sigs[j]) {
					c++
				}
			}
			next[i] = c
		}
		if int(c)+1 == numColors(colors) {
			return next
		}
		colors = next
	}
}

func (cc *canonCtx) search(colors []int32) {
	colors = cc.refine(colors)

	// first color class with more than one member
	k := numColors(colors)
	counts := make([]int32, k)
	for _, c := range colors {
		counts[c]++
	}
	target := int32(-1)
	for c, cnt := range counts {
		if cnt > 1 {
			target = int32(c)
			break
		}
	}
	if target < 0 {
		enc := cc.appendEncoding(nil, colors)
		if cc.best == nil || bytes.Compare(enc, cc.best) < 0 {
			cc.best = enc
		}
		return
	}

	for i := range colors {
		if colors[i] != target {
			continue
		}
		branch := append(make([]int32, 0, len(colors)), colors...)
		branch[i] = int32(k)
		cc.search(branch)
	}
}

// appendEncoding serializes the diagram under a discrete coloring, most
// significant counts first so encodings sort usefully in an LSM.
func (cc *canonCtx) appendEncoding(buf []byte, colors []int32) []byte {
	d := cc.d
	n := len(cc.verts)

	byRank := make([]int, n)
	for i, c := range colors {
		byRank[c] = i
	}

	buf = appendVarint(buf, int64(n))
	buf = appendVarint(buf, int64(d.numEdges))
	buf = appendVarint(buf, int64(len(d.inputs)))
	buf = appendVarint(buf, int64(len(d.outputs)))
	for _, v := range d.inputs {
		buf = appendVarint(buf, int64(colors[cc.index[v]]))
	}
	for _, v := range d.outputs {
		buf = appendVarint(buf, int64(colors[cc.index[v]]))
	}

	var out []int64
	for r := 0; r < n; r++ {
		i := byRank[r]
		v := cc.verts[i]
		c := &d.cells[v]
		buf = append(buf, byte(c.kind))
		buf = appendVarint(buf, c.phase.Num())
		buf = appendVarint(buf, c.phase.Den())

		// each wire once: ports toward higher ranks, self-loop port pairs
		// halved
		out = out[:0]
		plainLoops, hLoops := 0, 0
		for _, p := range c.adj {
			if p.To == v {
				if p.Kind == EdgeHadamard {
					hLoops++
				} else {
					plainLoops++
				}
				continue
			}
			to := int64(colors[cc.index[p.To]])
			if to > int64(r) {
				out = append(out, to<<1|int64(p.Kind))
			}
		}
		for k := 0; k < plainLoops/2; k++ {
			out = append(out, int64(r)<<1)
		}
		for k := 0; k < hLoops/2; k++ {
			out = append(out, int64(r)<<1|1)
		}
		sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
		buf = appendVarint(buf, int64(len(out)))
		for _, e := range out {
			buf = appendVarint(buf, e)
		}
	}
	return buf
}

func appendVarint(buf []byte, x int64) []byte {
	var scrap [12]byte
	n := binary.PutVarint(scrap[:], x)
	return append(buf, scrap[:n]...)
}

func numColors(colors []int32) int {
	max := int32(-1)
	for _, c := range colors {
		if c > max {
			max = c
		}
	}
	return int(max) + 1
}

func lessInt64s(a, b []int64) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

func equalInt64s(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
