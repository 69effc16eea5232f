// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pftrace

import (
	"code.hybscloud.com/pftrace/internal/fields"
	"code.hybscloud.com/pftrace/internal/wire"
)

// Packet is a handle to a TracePacket currently open for writing. It is
// valid only between the Writer.BeginPacket call that created it and the
// matching End call. Calling End or BeginTrackEvent on it afterwards panics
// with *StateError; SetTimestamp and SetTrustedPacketSequenceID do not
// check whether the packet is still open.
type Packet struct {
	w     *Writer
	scope wire.Scope
	seqID uint32

	event *TrackEvent
}

// End closes the packet. See Writer.EndPacket for the full contract; End
// is the idiomatic Go-receiver spelling of the same operation.
func (p *Packet) End() { p.w.EndPacket(p) }

// SetTimestamp writes the packet's timestamp, in nanoseconds.
func (p *Packet) SetTimestamp(ns uint64) {
	p.w.enc.WriteUint64(fields.TPTimestamp, ns)
}

// SetTrustedPacketSequenceID writes the packet's sequence id and rebinds
// which interner table subsequent interning calls on this packet (event
// names, categories, argument keys, source locations, log bodies) use.
// Call it, if at all, before any field setter that interns a string —
// a TracePacket carries only one sequence id, so interning calls made
// before a later SetTrustedPacketSequenceID remain attributed to the
// previous id's table and are drained with that id's packets, not this
// one.
func (p *Packet) SetTrustedPacketSequenceID(id uint32) {
	p.seqID = id
	p.w.enc.WriteUint64(fields.TPTrustedPacketSequenceID, uint64(id))
}

// BeginTrackEvent opens this packet's TrackEvent submessage. Only one may
// be open per packet; calling it twice, or after the packet has been
// closed, panics with *StateError.
func (p *Packet) BeginTrackEvent() *TrackEvent {
	if p.w.state != statePacketOpen || p.w.curPacket != p {
		panic(&StateError{Op: "BeginTrackEvent", Msg: "packet is not open"})
	}
	if p.event != nil {
		panic(&StateError{Op: "BeginTrackEvent", Msg: "a track event is already open on this packet"})
	}
	p.w.state = stateEventOpen
	scope := p.w.enc.BeginNested(fields.TPTrackEvent)
	te := &TrackEvent{p: p, scope: scope}
	p.event = te
	return te
}
