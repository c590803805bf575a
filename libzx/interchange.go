package libzx

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/zxcalc/gozx"
)

// FormatJSON is the version tag of the JSON interchange format.
const FormatJSON = "gozx/1"

// The interchange document is flat JSON: vertices, edges, wire orderings,
// and the global scalar. All numerics that can exceed 53 bits travel as
// decimal strings. Parallel edges appear as repeated edge entries and a
// self-loop as an entry with src == dst, so any intermediate rewrite state
// round-trips. Vertex identities are compacted to 1..n on encode; arena
// free-list holes are not semantic.
type jsonDiagram struct {
	Format   string       `json:"format"`
	Vertices []jsonVertex `json:"vertices"`
	Edges    []jsonEdge   `json:"edges"`
	Inputs   []int64      `json:"inputs"`
	Outputs  []int64      `json:"outputs"`
	Scalar   *gozx.Scalar `json:"scalar"`
}

type jsonVertex struct {
	ID   int64  `json:"id"`
	Kind string `json:"kind"`
	// Phase is a fraction of π, "3/4"; omitted when zero.
	Phase string `json:"phase,omitempty"`
}

type jsonEdge struct {
	Src  int64  `json:"src"`
	Dst  int64  `json:"dst"`
	Kind string `json:"kind"`
}

// EncodeJSON renders d as a "gozx/1" document. Encoding the result of
// DecodeJSON reproduces the document byte for byte.
func EncodeJSON(d *Diagram) ([]byte, error) {
	if d == nil {
		return nil, gozx.ErrNilDiagram
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	doc := jsonDiagram{
		Format:   FormatJSON,
		Vertices: make([]jsonVertex, 0, d.numLive),
		Edges:    make([]jsonEdge, 0, d.numEdges),
		Inputs:   make([]int64, 0, len(d.inputs)),
		Outputs:  make([]int64, 0, len(d.outputs)),
		Scalar:   d.scalar,
	}

	verts := d.Vertices()
	id := make([]int64, len(d.cells))
	for i, v := range verts {
		id[v] = int64(i + 1)
	}

	for _, v := range verts {
		c := &d.cells[v]
		jv := jsonVertex{ID: id[v], Kind: c.kind.String()}
		if !c.phase.IsZero() {
			txt, _ := c.phase.MarshalText()
			jv.Phase = string(txt)
		}
		doc.Vertices = append(doc.Vertices, jv)
	}

	// Each edge is emitted once, from its lower endpoint. A self-loop owns
	// two ports; it is emitted when the second one is seen.
	for _, u := range verts {
		var loops [2]int
		for _, p := range d.cells[u].adj {
			switch {
			case p.To > u:
				doc.Edges = append(doc.Edges, jsonEdge{Src: id[u], Dst: id[p.To], Kind: p.Kind.String()})
			case p.To == u:
				loops[p.Kind]++
				if loops[p.Kind]%2 == 0 {
					doc.Edges = append(doc.Edges, jsonEdge{Src: id[u], Dst: id[u], Kind: p.Kind.String()})
				}
			}
		}
	}

	for _, v := range d.inputs {
		doc.Inputs = append(doc.Inputs, id[v])
	}
	for _, v := range d.outputs {
		doc.Outputs = append(doc.Outputs, id[v])
	}
	return json.Marshal(&doc)
}

// DecodeJSON parses a "gozx/1" document into a fresh Diagram. Unknown
// fields, unknown identities, and malformed components are rejected with
// ErrBadEncoding.
func DecodeJSON(data []byte) (*Diagram, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var doc jsonDiagram
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(gozx.ErrBadEncoding, err.Error())
	}
	if dec.More() {
		return nil, errors.Wrap(gozx.ErrBadEncoding, "data after document end")
	}
	if doc.Format != FormatJSON {
		return nil, errors.Wrapf(gozx.ErrBadEncoding, "unsupported format %q", doc.Format)
	}

	d := NewDiagram()
	byID := make(map[int64]VtxID, len(doc.Vertices))
	fail := func(err error) (*Diagram, error) {
		d.Reclaim()
		return nil, err
	}

	for _, jv := range doc.Vertices {
		if jv.ID <= 0 {
			return fail(errors.Wrapf(gozx.ErrBadEncoding, "vertex id %d must be positive", jv.ID))
		}
		if _, dup := byID[jv.ID]; dup {
			return fail(errors.Wrapf(gozx.ErrBadEncoding, "vertex id %d repeated", jv.ID))
		}
		kind, ok := vtxKindFromName(jv.Kind)
		if !ok {
			return fail(errors.Wrapf(gozx.ErrBadEncoding, "vertex %d: unknown kind %q", jv.ID, jv.Kind))
		}
		var phase gozx.Phase
		if jv.Phase != "" {
			if err := phase.UnmarshalText([]byte(jv.Phase)); err != nil {
				return fail(errors.Wrapf(gozx.ErrBadEncoding, "vertex %d: bad phase %q", jv.ID, jv.Phase))
			}
		}
		if !kind.IsSpider() && !phase.IsZero() {
			return fail(errors.Wrapf(gozx.ErrBadEncoding, "vertex %d: phase on %s vertex", jv.ID, kind))
		}
		byID[jv.ID] = d.AddVertex(kind, phase)
	}

	for i, je := range doc.Edges {
		kind, ok := edgeKindFromName(je.Kind)
		if !ok {
			return fail(errors.Wrapf(gozx.ErrBadEncoding, "edge %d: unknown kind %q", i, je.Kind))
		}
		u, okU := byID[je.Src]
		v, okV := byID[je.Dst]
		if !okU || !okV {
			return fail(errors.Wrapf(gozx.ErrBadEncoding, "edge %d: unknown endpoint %d-%d", i, je.Src, je.Dst))
		}
		if err := d.AddEdge(u, v, kind); err != nil {
			return fail(errors.Wrap(gozx.ErrBadEncoding, err.Error()))
		}
	}

	ins, err := wiresByID(byID, doc.Inputs)
	if err != nil {
		return fail(err)
	}
	outs, err := wiresByID(byID, doc.Outputs)
	if err != nil {
		return fail(err)
	}
	if err := d.SetInputs(ins...); err != nil {
		return fail(errors.Wrap(gozx.ErrBadEncoding, err.Error()))
	}
	if err := d.SetOutputs(outs...); err != nil {
		return fail(errors.Wrap(gozx.ErrBadEncoding, err.Error()))
	}

	if doc.Scalar != nil {
		d.scalar.Set(doc.Scalar)
	}
	if err := d.Validate(); err != nil {
		return fail(errors.Wrap(gozx.ErrBadEncoding, err.Error()))
	}
	return d, nil
}

func wiresByID(byID map[int64]VtxID, raw []int64) ([]VtxID, error) {
	wires := make([]VtxID, 0, len(raw))
	for _, r := range raw {
		v, ok := byID[r]
		if !ok {
			return nil, errors.Wrapf(gozx.ErrBadEncoding, "wire order names unknown vertex %d", r)
		}
		wires = append(wires, v)
	}
	return wires, nil
}

func vtxKindFromName(s string) (VtxKind, bool) {
	switch s {
	case "B":
		return KindBoundary, true
	case "Z":
		return KindZ, true
	case "X":
		return KindX, true
	case "H":
		return KindHBox, true
	}
	return 0, false
}

func edgeKindFromName(s string) (EdgeKind, bool) {
	switch s {
	case "-":
		return EdgePlain, true
	case "h":
		return EdgeHadamard, true
	}
	return 0, false
}
