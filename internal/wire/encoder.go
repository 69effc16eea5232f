// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package wire implements the append-only, protobuf-style byte encoder
// that backs pftrace: varints, tags, fixed64 fields, length-delimited
// strings, and nested submessages whose length is back-patched in place
// once the submessage body is known, rather than pre-scanned.
package wire

import "math"

// placeholderLen is the fixed width, in bytes, reserved for a nested
// submessage's length varint. Five bytes of base-128 varint cover any
// value up to 2^35-1, far beyond any practical packet size, so the
// length can always be patched in place without shifting the body.
const placeholderLen = 5

// maxNestedLen is the largest body length a 5-byte forced-width varint
// can represent (2^35 - 1).
const maxNestedLen = 1<<35 - 1

// StateError reports builder misuse: ending a nested scope that isn't the
// one on top of the stack, or ending one when none is open. It always
// indicates a programmer bug and is raised as a panic, never returned.
type StateError struct {
	Op  string
	Msg string
}

func (e *StateError) Error() string { return "pftrace: " + e.Op + ": " + e.Msg }

// OversizedValueError reports that a nested submessage body grew past
// maxNestedLen before EndNested closed it.
type OversizedValueError struct {
	Len int
}

func (e *OversizedValueError) Error() string {
	return "pftrace: nested submessage body too long for a 5-byte length prefix"
}

// Scope is an opaque handle to an open nested submessage. It is only
// valid as the argument to the EndNested call that closes the same
// submessage; passing a stale or mismatched Scope panics with
// *StateError.
type Scope struct {
	depth       int
	placeholder int
}

type openFrame struct {
	placeholder int
	bodyStart   int
}

// Encoder is a growable byte buffer with a LIFO stack of open nested
// submessage scopes. It is not safe for concurrent use; each pftrace
// Writer owns exactly one Encoder, matching the single-producer model
// the library as a whole follows.
type Encoder struct {
	buf    []byte
	scopes []openFrame
}

// NewEncoder returns an Encoder with an initial capacity hint. A hint of
// zero uses a small default; the buffer still grows on demand via the
// normal append doubling strategy.
func NewEncoder(capHint int) *Encoder {
	if capHint <= 0 {
		capHint = 4096
	}
	return &Encoder{buf: make([]byte, 0, capHint)}
}

// Bytes returns the buffered bytes. The slice is invalidated by the next
// mutating call; callers that need to retain it (e.g. before a flush)
// must copy it first.
func (e *Encoder) Bytes() []byte { return e.buf }

// Len reports the number of buffered bytes not yet flushed.
func (e *Encoder) Len() int { return len(e.buf) }

// Depth reports how many nested scopes are currently open.
func (e *Encoder) Depth() int { return len(e.scopes) }

// Reset discards all buffered bytes. It must only be called with no open
// scopes (i.e. between top-level packets), since an open scope's
// placeholder offset is meaningless once the buffer has been truncated.
func (e *Encoder) Reset() {
	if len(e.scopes) != 0 {
		panic(&StateError{Op: "Reset", Msg: "called with an open nested scope"})
	}
	e.buf = e.buf[:0]
}

// WriteVarint appends v as a standard base-128 little-endian varint.
func (e *Encoder) WriteVarint(v uint64) {
	for v >= 0x80 {
		e.buf = append(e.buf, byte(v)|0x80)
		v >>= 7
	}
	e.buf = append(e.buf, byte(v))
}

// WriteTag appends the varint-encoded (field<<3 | wireType) tag.
func (e *Encoder) WriteTag(field int, wireType int) {
	e.WriteVarint(uint64(field)<<3 | uint64(wireType))
}

// WriteUint64 writes a VARINT-wire field.
func (e *Encoder) WriteUint64(field int, v uint64) {
	e.WriteTag(field, 0)
	e.WriteVarint(v)
}

// WriteInt64 writes a VARINT-wire field using plain (non-zigzag) varint
// encoding: Perfetto's int64 fields sign-extend to 64 bits and varint
// encode the bit pattern, so a negative value costs the full 10 bytes.
func (e *Encoder) WriteInt64(field int, v int64) {
	e.WriteTag(field, 0)
	e.WriteVarint(uint64(v))
}

// WriteBool writes a VARINT-wire boolean field (0 or 1).
func (e *Encoder) WriteBool(field int, v bool) {
	e.WriteTag(field, 0)
	if v {
		e.WriteVarint(1)
	} else {
		e.WriteVarint(0)
	}
}

// WriteDouble writes a FIX64-wire field: the IEEE-754 bit pattern of v,
// little-endian.
func (e *Encoder) WriteDouble(field int, v float64) {
	e.WriteTag(field, 1)
	e.writeLE64(math.Float64bits(v))
}

// WriteFixed64 writes a FIX64-wire field verbatim (used for flow ids,
// which Perfetto declares fixed64 rather than varint).
func (e *Encoder) WriteFixed64(field int, v uint64) {
	e.WriteTag(field, 1)
	e.writeLE64(v)
}

func (e *Encoder) writeLE64(v uint64) {
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(v)
		v >>= 8
	}
	e.buf = append(e.buf, b[:]...)
}

// WriteString writes a LEN-wire field: tag, varint length, raw bytes.
func (e *Encoder) WriteString(field int, s string) {
	e.WriteTag(field, 2)
	e.WriteVarint(uint64(len(s)))
	e.buf = append(e.buf, s...)
}

// BeginNested opens a nested submessage at field, reserving a 5-byte
// forced-width placeholder for its eventual length. Every BeginNested
// must be matched by exactly one EndNested, in LIFO order.
func (e *Encoder) BeginNested(field int) Scope {
	e.WriteTag(field, 2)
	placeholder := len(e.buf)
	e.buf = append(e.buf, 0, 0, 0, 0, 0)
	e.scopes = append(e.scopes, openFrame{placeholder: placeholder, bodyStart: len(e.buf)})
	return Scope{depth: len(e.scopes), placeholder: placeholder}
}

// EndNested closes the nested submessage identified by s, back-patching
// its 5-byte length placeholder with the exact byte length of everything
// written since the matching BeginNested. s must be the innermost still-open
// scope; any other order panics with *StateError (programmer error).
func (e *Encoder) EndNested(s Scope) {
	if len(e.scopes) == 0 {
		panic(&StateError{Op: "EndNested", Msg: "no nested scope is open"})
	}
	top := e.scopes[len(e.scopes)-1]
	if s.depth != len(e.scopes) || s.placeholder != top.placeholder {
		panic(&StateError{Op: "EndNested", Msg: "scope is not the innermost open one"})
	}
	e.scopes = e.scopes[:len(e.scopes)-1]

	bodyLen := len(e.buf) - top.bodyStart
	if bodyLen > maxNestedLen {
		panic(&OversizedValueError{Len: bodyLen})
	}
	putForcedVarint5(e.buf[top.placeholder:top.placeholder+placeholderLen], uint64(bodyLen))
}

// putForcedVarint5 encodes v (< 2^35) into exactly 5 bytes, setting the
// continuation bit on every byte but the last regardless of whether it
// is otherwise needed — the fixed-width encoding Perfetto readers accept
// in place of the minimal one.
func putForcedVarint5(dst []byte, v uint64) {
	for i := 0; i < placeholderLen; i++ {
		b := byte(v & 0x7f)
		v >>= 7
		if i < placeholderLen-1 {
			b |= 0x80
		}
		dst[i] = b
	}
}
