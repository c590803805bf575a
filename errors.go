package gozx

import "errors"

// Errors
var (
	ErrInvariantViolation = errors.New("diagram structural invariant violated")
	ErrUnsupportedPattern = errors.New("no decomposition pattern matches")
	ErrBudgetExhausted    = errors.New("decomposition budget exhausted")
	ErrConcurrencyFailure = errors.New("decomposition worker failed; shared state untrusted")
	ErrBadExpression      = errors.New("bad diagram expression")
	ErrBadEncoding        = errors.New("bad diagram encoding")
	ErrBadPhase           = errors.New("bad phase literal")
	ErrBadVtxID           = errors.New("bad vertex ID")
	ErrVertexInUse        = errors.New("vertex still referenced by an edge")
	ErrNilDiagram         = errors.New("nil diagram")
	ErrBadCatalogParam    = errors.New("bad catalog param")
	ErrScalarNodes        = errors.New("scalar has symbolic phase nodes")
)
