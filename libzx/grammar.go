package libzx

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/pkg/errors"
	"github.com/zxcalc/gozx"
)

// Diagrams parse from and print to a small expression language, one
// declaration per statement:
//
//	in a b; out c d; v:Z(1/4); w:X(1); a-v; v=w; w-c; b-d
//
// "in" and "out" list boundary names in wire order. A vertex declares as
// name:kind with an optional phase in parentheses, a fraction of π. "-"
// joins two names by a plain wire, "=" by a Hadamard wire; runs chain
// (a-v=w). Repeating a pair adds parallel wires, and a-a adds a self-loop.
// The Scalar is not part of the expression.

type diagramExpr struct {
	Stmts []*diagramStmt `parser:"(@@ (\";\" @@)*)? \";\"?"`
}

type diagramStmt struct {
	In  []string    `parser:"  \"in\" @Ident+"`
	Out []string    `parser:"| \"out\" @Ident+"`
	Vtx *vertexDecl `parser:"| @@"`
	Run *edgeRun    `parser:"| @@"`
}

type vertexDecl struct {
	Name  string     `parser:"@Ident \":\""`
	Kind  string     `parser:"@(\"Z\" | \"X\" | \"H\" | \"B\")"`
	Phase *phaseFrac `parser:"(\"(\" @@ \")\")?"`
}

type phaseFrac struct {
	Num string `parser:"@(\"-\"? Int)"`
	Den string `parser:"(\"/\" @Int)?"`
}

type edgeRun struct {
	Start string     `parser:"@Ident"`
	Hops  []*edgeHop `parser:"@@+"`
}

type edgeHop struct {
	Kind string `parser:"@(\"-\" | \"=\")"`
	End  string `parser:"@Ident"`
}

var parseDiagramExpr = participle.MustBuild[diagramExpr](participle.UseLookahead(2))

// ParseDiagram builds a Diagram from its expression form. Declarations may
// come in any order; every name an edge references must be declared by an
// in/out statement or a vertex statement somewhere in the expression.
func ParseDiagram(src string) (*Diagram, error) {
	expr, err := parseDiagramExpr.ParseString("", src)
	if err != nil {
		return nil, errors.Wrap(gozx.ErrBadExpression, err.Error())
	}

	xb := exprBuilder{
		d:      NewDiagram(),
		byName: make(map[string]VtxID),
	}
	for _, stmt := range expr.Stmts {
		if err := xb.declareStmt(stmt); err != nil {
			xb.d.Reclaim()
			return nil, err
		}
	}
	for _, stmt := range expr.Stmts {
		if stmt.Run == nil {
			continue
		}
		if err := xb.applyRun(stmt.Run); err != nil {
			xb.d.Reclaim()
			return nil, err
		}
	}
	return xb.d, nil
}

type exprBuilder struct {
	d      *Diagram
	byName map[string]VtxID
}

func (xb *exprBuilder) declare(name string, v VtxID) error {
	if _, dup := xb.byName[name]; dup {
		return errors.Wrapf(gozx.ErrBadExpression, "vertex %q declared twice", name)
	}
	xb.byName[name] = v
	return nil
}

func (xb *exprBuilder) declareStmt(stmt *diagramStmt) error {
	for _, name := range stmt.In {
		if err := xb.declare(name, xb.d.AddBoundary(true)); err != nil {
			return err
		}
	}
	for _, name := range stmt.Out {
		if err := xb.declare(name, xb.d.AddBoundary(false)); err != nil {
			return err
		}
	}
	if decl := stmt.Vtx; decl != nil {
		phase, err := decl.Phase.toPhase()
		if err != nil {
			return err
		}
		var kind VtxKind
		switch decl.Kind {
		case "Z":
			kind = KindZ
		case "X":
			kind = KindX
		case "H":
			kind = KindHBox
		case "B":
			kind = KindBoundary
		}
		if !kind.IsSpider() && !phase.IsZero() {
			return errors.Wrapf(gozx.ErrBadExpression, "phase on %s vertex %q", kind, decl.Name)
		}
		if err := xb.declare(decl.Name, xb.d.AddVertex(kind, phase)); err != nil {
			return err
		}
	}
	return nil
}

func (xb *exprBuilder) applyRun(run *edgeRun) error {
	cur, ok := xb.byName[run.Start]
	if !ok {
		return errors.Wrapf(gozx.ErrBadExpression, "undeclared vertex %q", run.Start)
	}
	for _, hop := range run.Hops {
		next, ok := xb.byName[hop.End]
		if !ok {
			return errors.Wrapf(gozx.ErrBadExpression, "undeclared vertex %q", hop.End)
		}
		kind := EdgePlain
		if hop.Kind == "=" {
			kind = EdgeHadamard
		}
		if err := xb.d.AddEdge(cur, next, kind); err != nil {
			return err
		}
		cur = next
	}
	return nil
}

func (f *phaseFrac) toPhase() (gozx.Phase, error) {
	if f == nil {
		return gozx.PhaseZero(), nil
	}
	num, err := strconv.ParseInt(f.Num, 10, 64)
	if err != nil {
		return gozx.PhaseZero(), errors.Wrap(gozx.ErrBadPhase, f.Num)
	}
	den := int64(1)
	if f.Den != "" {
		den, err = strconv.ParseInt(f.Den, 10, 64)
		if err != nil || den <= 0 {
			return gozx.PhaseZero(), errors.Wrapf(gozx.ErrBadPhase, "%s/%s", f.Num, f.Den)
		}
	}
	return gozx.PhaseOf(num, den), nil
}

// Expr renders d in the expression grammar. Names are positional: inputs
// print as i0, i1, ..., outputs as o0, o1, ..., everything else as v<id>.
// Parsing the result yields an isomorphic diagram.
func (d *Diagram) Expr() string {
	names := make([]string, len(d.cells))
	var stmts []string

	if len(d.inputs) > 0 {
		parts := make([]string, 0, len(d.inputs)+1)
		parts = append(parts, "in")
		for i, v := range d.inputs {
			names[v] = "i" + strconv.Itoa(i)
			parts = append(parts, names[v])
		}
		stmts = append(stmts, strings.Join(parts, " "))
	}
	if len(d.outputs) > 0 {
		parts := make([]string, 0, len(d.outputs)+1)
		parts = append(parts, "out")
		for i, v := range d.outputs {
			names[v] = "o" + strconv.Itoa(i)
			parts = append(parts, names[v])
		}
		stmts = append(stmts, strings.Join(parts, " "))
	}

	verts := d.Vertices()
	for _, v := range verts {
		if names[v] != "" {
			continue // boundary wires declare through in/out
		}
		names[v] = "v" + strconv.Itoa(int(v))
		c := &d.cells[v]
		var b strings.Builder
		b.WriteString(names[v])
		b.WriteByte(':')
		b.WriteString(c.kind.String())
		if !c.phase.IsZero() {
			b.WriteByte('(')
			b.WriteString(strconv.FormatInt(c.phase.Num(), 10))
			if c.phase.Den() != 1 {
				b.WriteByte('/')
				b.WriteString(strconv.FormatInt(c.phase.Den(), 10))
			}
			b.WriteByte(')')
		}
		stmts = append(stmts, b.String())
	}

	for _, u := range verts {
		plainLoops, hLoops := 0, 0
		for _, p := range d.cells[u].adj {
			switch {
			case p.To == u:
				if p.Kind == EdgeHadamard {
					hLoops++
				} else {
					plainLoops++
				}
			case p.To > u:
				sep := "-"
				if p.Kind == EdgeHadamard {
					sep = "="
				}
				stmts = append(stmts, names[u]+sep+names[p.To])
			}
		}
		for k := 0; k < plainLoops/2; k++ {
			stmts = append(stmts, names[u]+"-"+names[u])
		}
		for k := 0; k < hLoops/2; k++ {
			stmts = append(stmts, names[u]+"="+names[u])
		}
	}

	return strings.Join(stmts, "; ")
}
