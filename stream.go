package gozx

import (
	"fmt"
	"io"
	"strings"
)

// TermStream carries diagram terms between pipeline stages.
// Each term's weight rides on the diagram as its Scalar.
type TermStream struct {
	Outlet chan DiagramState
}

func NewTermStream() *TermStream {
	stream := &TermStream{
		Outlet: make(chan DiagramState),
	}
	return stream
}

// StreamTerm starts a stream that emits a copy of X and closes.
func StreamTerm(X DiagramState) *TermStream {
	next := NewTermStream()

	go func() {
		next.Outlet <- X.MakeCopy()
		next.Close()
	}()

	return next
}

func (stream *TermStream) Close() {
	if stream.Outlet != nil {
		close(stream.Outlet)
	}
}

func (stream *TermStream) PushTerm(X DiagramState) {
	stream.Outlet <- X.MakeCopy()
}

func (stream *TermStream) PullTerm() DiagramState {
	X := <-stream.Outlet
	return X
}

func (stream *TermStream) PullAll() int {
	count := int(0)
	for X := range stream.Outlet {
		count++
		X.Reclaim()
	}
	return count
}

// Print echoes each term to out and passes it downstream.
// Closes out when the stream ends.
func (stream *TermStream) Print(
	out io.WriteCloser,
	opts PrintOpts) *TermStream {

	next := &TermStream{
		Outlet: make(chan DiagramState, 1),
	}

	go func() {
		buf := strings.Builder{}
		buf.Grow(256)

		count := 0
		for X := range stream.Outlet {
			if len(opts.Label) > 0 {
				buf.WriteString(opts.Label)
			}
			buf.WriteByte(',')

			count++
			fmt.Fprintf(&buf, "%04d,", count)
			X.WriteAsString(&buf, opts)
			buf.WriteByte('\n')
			out.Write([]byte(buf.String()))
			buf.Reset()
			next.Outlet <- X
		}
		out.Close()
		next.Close()
	}()

	return next
}

// CollectScalars drains the stream and returns each term's weight.
func (stream *TermStream) CollectScalars() []*Scalar {
	terms := make([]*Scalar, 0, 8)
	for X := range stream.Outlet {
		terms = append(terms, X.Scalar().Copy())
		X.Reclaim()
	}
	return terms
}

// SumScalars drains the stream and adds the term weights.
// An empty stream sums to zero.
func (stream *TermStream) SumScalars() *Scalar {
	total := ScalarZero()
	for X := range stream.Outlet {
		total.Add(X.Scalar())
		X.Reclaim()
	}
	return total
}
