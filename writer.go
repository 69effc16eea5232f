// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pftrace

import (
	"fmt"
	"os"

	"code.hybscloud.com/pftrace/internal/fields"
	"code.hybscloud.com/pftrace/internal/intern"
	"code.hybscloud.com/pftrace/internal/wire"
)

type builderState uint8

const (
	stateIdle builderState = iota
	statePacketOpen
	stateEventOpen
)

// sink is the narrow interface Writer needs from its output: an *os.File
// satisfies it directly, and tests substitute a fake to exercise the
// sticky-I/O-error path without real file I/O.
type sink interface {
	Write([]byte) (int, error)
	Close() error
}

// Writer emits a stream of TracePacket messages to one output file. It is
// owned by exactly one producer: there is no internal locking and no
// background goroutine, and all calls are synchronous. Create one with
// New and always release it with Close.
type Writer struct {
	f    sink
	enc  *wire.Encoder
	opts Options

	state     builderState
	curPacket *Packet

	interners map[uint32]*intern.Table

	lastErr error
}

// New opens path for writing, truncating any existing file, and returns a
// Writer ready to emit packets.
func New(path string, opts ...Option) (*Writer, error) {
	if path == "" {
		return nil, ErrInvalidArgument
	}
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("pftrace: open %s: %w", path, err)
	}

	return &Writer{
		f:         f,
		enc:       wire.NewEncoder(o.InitialBufferSize),
		opts:      o,
		interners: make(map[uint32]*intern.Table),
	}, nil
}

// LastError returns the first sticky I/O or allocation error this Writer
// has latched, or nil if none has occurred.
func (w *Writer) LastError() error { return w.lastErr }

func (w *Writer) internerFor(seqID uint32) *intern.Table {
	t, ok := w.interners[seqID]
	if !ok {
		t = intern.NewTable()
		w.interners[seqID] = t
	}
	return t
}

// checkBufferLimit latches ErrAllocation, without touching the sink, once
// the encoder's unflushed buffer has reached the configured
// MaxBufferBytes. Real Go slice growth does not fail in a way a caller
// can recover from, so this is the deliberate, configurable limit that
// gives an allocation-style error an exercisable path.
func (w *Writer) checkBufferLimit() {
	if w.lastErr != nil || w.opts.MaxBufferBytes <= 0 {
		return
	}
	if w.enc.Len() >= w.opts.MaxBufferBytes {
		w.lastErr = ErrAllocation
	}
}

// Flush writes any buffered, complete packets to the sink. It is a no-op
// if nothing is buffered. Once a sticky error has been latched, Flush
// stops attempting further writes and simply returns the latched error:
// first error wins. Calling Flush while a packet is open panics with
// *StateError.
func (w *Writer) Flush() error {
	if w.lastErr != nil {
		return w.lastErr
	}
	if w.state != stateIdle {
		panic(&StateError{Op: "Flush", Msg: "a packet is open"})
	}
	if w.enc.Len() == 0 {
		return nil
	}
	if _, err := w.f.Write(w.enc.Bytes()); err != nil {
		w.lastErr = fmt.Errorf("%w: %v", ErrIO, err)
		return w.lastErr
	}
	w.enc.Reset()
	return nil
}

// Close ends any track event and packet still open, flushes any remaining
// buffered bytes on a best-effort basis, closes the underlying file, and
// returns the writer's latched error (if any occurred during this call or
// earlier).
func (w *Writer) Close() error {
	if w.state == stateEventOpen {
		w.curPacket.event.End()
	}
	if w.state == statePacketOpen {
		w.EndPacket(w.curPacket)
	}
	ferr := w.Flush()
	cerr := w.f.Close()
	if w.lastErr == nil && cerr != nil {
		w.lastErr = fmt.Errorf("%w: %v", ErrIO, cerr)
	}
	if ferr != nil {
		return ferr
	}
	return w.lastErr
}

// BeginPacket opens a new TracePacket. Exactly one packet may be open at
// a time; calling BeginPacket while another packet is still open panics
// with *StateError.
func (w *Writer) BeginPacket() *Packet {
	if w.state != stateIdle {
		panic(&StateError{Op: "BeginPacket", Msg: "a packet is already open"})
	}
	w.state = statePacketOpen
	scope := w.enc.BeginNested(fields.TracePacket)
	p := &Packet{
		w:     w,
		scope: scope,
		seqID: w.opts.DefaultSequenceID,
	}
	w.curPacket = p
	return p
}

// EndPacket closes p, draining any interned entries the packet newly
// introduced into its interned_data field before closing the packet's
// own length-delimited scope, and flushes to the sink once the buffered
// size reaches FlushThreshold. p must be the currently open packet;
// calling EndPacket with any other value (or when no packet is open)
// panics with *StateError.
func (w *Writer) EndPacket(p *Packet) {
	if w.state != statePacketOpen || w.curPacket != p {
		panic(&StateError{Op: "EndPacket", Msg: "packet is not the open one"})
	}
	table := w.internerFor(p.seqID)
	if table.HasPending() {
		interned := w.enc.BeginNested(fields.TPInternedData)
		table.DrainInto(w.enc)
		w.enc.EndNested(interned)
	}
	w.enc.EndNested(p.scope)
	w.state = stateIdle
	w.curPacket = nil

	w.checkBufferLimit()
	if w.lastErr != nil {
		// Nothing reaches the sink once an error is latched; drop the
		// bytes rather than let the buffer grow.
		w.enc.Reset()
		return
	}
	if w.enc.Len() >= w.opts.FlushThreshold {
		w.Flush()
	}
}
