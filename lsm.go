package gozx

import (
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"
)

// AppendLSM appends a compact binary encoding of s to buf and returns the
// extended buffer. The layout is varint pow2, four signed big.Int coeffs,
// the residual phase, then the symbolic node phases. ParseLSM reverses it.
func (s *Scalar) AppendLSM(buf []byte) []byte {
	buf = binary.AppendVarint(buf, int64(s.pow2))
	for i := range s.coeff {
		buf = appendBigIntLSM(buf, &s.coeff[i])
	}
	buf = binary.AppendVarint(buf, s.phase.num)
	buf = binary.AppendVarint(buf, s.phase.den)
	buf = binary.AppendVarint(buf, int64(len(s.nodes)))
	for _, nd := range s.nodes {
		buf = binary.AppendVarint(buf, nd.num)
		buf = binary.AppendVarint(buf, nd.den)
	}
	return buf
}

// ParseLSM decodes one scalar from the front of in, replacing s, and
// returns the number of bytes consumed.
func (s *Scalar) ParseLSM(in []byte) (int, error) {
	p := lsmReader{buf: in}
	var next Scalar
	next.pow2 = int(p.varint())
	for i := range next.coeff {
		p.bigInt(&next.coeff[i])
	}
	next.phase.num = p.varint()
	next.phase.den = p.varint()
	numNodes := p.varint()
	if numNodes < 0 || numNodes > int64(len(in)) {
		return 0, errors.Wrap(ErrBadEncoding, "scalar node count")
	}
	for i := int64(0); i < numNodes; i++ {
		var nd Phase
		nd.num = p.varint()
		nd.den = p.varint()
		next.nodes = append(next.nodes, nd)
	}
	if p.err != nil {
		return 0, p.err
	}
	if next.phase.den <= 0 {
		return 0, errors.Wrap(ErrBadEncoding, "scalar phase")
	}
	for _, nd := range next.nodes {
		if nd.den <= 0 {
			return 0, errors.Wrap(ErrBadEncoding, "scalar node phase")
		}
	}
	next.normalize()
	*s = next
	return p.pos, nil
}

// AppendScalarsLSM appends a length-prefixed list of scalars to buf.
func AppendScalarsLSM(buf []byte, list []*Scalar) []byte {
	buf = binary.AppendVarint(buf, int64(len(list)))
	for _, s := range list {
		buf = s.AppendLSM(buf)
	}
	return buf
}

// ParseScalarsLSM decodes a list written by AppendScalarsLSM.
func ParseScalarsLSM(in []byte) ([]*Scalar, error) {
	p := lsmReader{buf: in}
	count := p.varint()
	if p.err != nil {
		return nil, p.err
	}
	if count < 0 || count > int64(len(in)) {
		return nil, errors.Wrap(ErrBadEncoding, "scalar list count")
	}
	list := make([]*Scalar, 0, count)
	for i := int64(0); i < count; i++ {
		s := &Scalar{}
		n, err := s.ParseLSM(in[p.pos:])
		if err != nil {
			return nil, err
		}
		p.pos += n
		list = append(list, s)
	}
	return list, nil
}

func appendBigIntLSM(buf []byte, v *big.Int) []byte {
	b := v.Bytes()
	n := int64(len(b))
	if v.Sign() < 0 {
		n = -n
	}
	buf = binary.AppendVarint(buf, n)
	return append(buf, b...)
}

type lsmReader struct {
	buf []byte
	pos int
	err error
}

func (p *lsmReader) varint() int64 {
	if p.err != nil {
		return 0
	}
	v, n := binary.Varint(p.buf[p.pos:])
	if n <= 0 {
		p.err = errors.Wrap(ErrBadEncoding, "truncated varint")
		return 0
	}
	p.pos += n
	return v
}

func (p *lsmReader) bigInt(out *big.Int) {
	n := p.varint()
	if p.err != nil {
		return
	}
	neg := n < 0
	if neg {
		n = -n
	}
	if n > int64(len(p.buf)-p.pos) {
		p.err = errors.Wrap(ErrBadEncoding, "truncated coeff")
		return
	}
	out.SetBytes(p.buf[p.pos : p.pos+int(n)])
	if neg {
		out.Neg(out)
	}
	p.pos += int(n)
}
