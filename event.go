// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pftrace

import (
	"code.hybscloud.com/pftrace/internal/fields"
	"code.hybscloud.com/pftrace/internal/intern"
	"code.hybscloud.com/pftrace/internal/wire"
)

// EventType is TrackEvent.type (field 9).
type EventType int64

const (
	EventTypeUnspecified EventType = 0
	EventTypeSliceBegin  EventType = 1
	EventTypeSliceEnd    EventType = 2
	EventTypeInstant     EventType = 3
	EventTypeCounter     EventType = 4
)

// TrackEvent is a handle to the TrackEvent submessage open on a Packet.
// It is valid only between BeginTrackEvent and End. Calling End on it
// afterwards panics with *StateError; the field setters do not check
// whether the event is still open.
type TrackEvent struct {
	p     *Packet
	scope wire.Scope
}

// End closes the track event, returning the packet to the state where it
// can be closed itself (or, in principle, have further non-event fields
// set — though the packet-level setters are normally used before the
// event is opened).
func (te *TrackEvent) End() {
	w := te.p.w
	if w.state != stateEventOpen || te.p.event != te {
		panic(&StateError{Op: "EndTrackEvent", Msg: "track event is not open"})
	}
	w.enc.EndNested(te.scope)
	te.p.event = nil
	w.state = statePacketOpen
}

func (te *TrackEvent) table() *intern.Table { return te.p.w.internerFor(te.p.seqID) }

// SetType writes the event's type (slice begin/end, instant, counter).
func (te *TrackEvent) SetType(t EventType) {
	te.p.w.enc.WriteInt64(fields.TEType, int64(t))
}

// SetTrackUUID binds the event to the track (process or thread
// descriptor) identified by uuid.
func (te *TrackEvent) SetTrackUUID(uuid uint64) {
	te.p.w.enc.WriteUint64(fields.TETrackUUID, uuid)
}

// SetName interns name in event_names and writes its iid. Calling it
// twice with the same string on packets sharing a sequence id always
// yields the same iid and emits the InternedData entry only once.
func (te *TrackEvent) SetName(name string) {
	iid := te.table().Intern(intern.EventNames, name)
	te.p.w.enc.WriteUint64(fields.TENameIid, iid)
}

// AddCategory interns category in event_categories and appends its iid
// to the repeated category_iids field. Perfetto declares category_iids
// packed; this library emits each element as its own (tag, varint) pair,
// which readers accept for scalar repeated fields just as well.
func (te *TrackEvent) AddCategory(category string) {
	iid := te.table().Intern(intern.EventCategories, category)
	te.p.w.enc.WriteUint64(fields.TECategoryIids, iid)
}

// AddFlowID appends id to the repeated flow_ids (fixed64) field, starting
// a flow that a later event can close with AddTerminatingFlowID.
func (te *TrackEvent) AddFlowID(id uint64) {
	te.p.w.enc.WriteFixed64(fields.TEFlowIds, id)
}

// AddTerminatingFlowID appends id to the repeated terminating_flow_ids
// (fixed64) field, closing a flow a prior event started with AddFlowID.
func (te *TrackEvent) AddTerminatingFlowID(id uint64) {
	te.p.w.enc.WriteFixed64(fields.TETerminatingFlowIds, id)
}

// SetCounterValue writes the event's counter sample.
func (te *TrackEvent) SetCounterValue(v int64) {
	te.p.w.enc.WriteInt64(fields.TECounterValue, v)
}

// SetLogMessage interns body in log_message_body and writes a nested
// log_message submessage referencing it.
func (te *TrackEvent) SetLogMessage(body string) {
	iid := te.table().Intern(intern.LogMessageBody, body)
	enc := te.p.w.enc
	s := enc.BeginNested(fields.TELogMessage)
	enc.WriteUint64(fields.EntryIid, iid)
	enc.EndNested(s)
}

// SetTaskExecution interns the (file, function, line) tuple in
// source_locations and writes a nested task_execution submessage
// referencing it.
func (te *TrackEvent) SetTaskExecution(file, function string, line uint32) {
	iid := te.table().InternSourceLocation(intern.SourceLocationKey{File: file, Function: function, Line: line})
	enc := te.p.w.enc
	s := enc.BeginNested(fields.TETaskExecution)
	enc.WriteUint64(fields.SourceLocIid, iid)
	enc.EndNested(s)
}

func (te *TrackEvent) beginArg(key string) (iid uint64) {
	return te.table().Intern(intern.DebugAnnotationNames, key)
}

// AddArgString interns key in debug_annotation_names and appends a
// string-valued debug annotation.
func (te *TrackEvent) AddArgString(key, value string) {
	iid := te.beginArg(key)
	enc := te.p.w.enc
	s := enc.BeginNested(fields.TEDebugAnnotations)
	enc.WriteUint64(fields.DANameIid, iid)
	enc.WriteString(fields.DAStringValue, value)
	enc.EndNested(s)
}

// AddArgInt interns key and appends a signed-integer debug annotation.
func (te *TrackEvent) AddArgInt(key string, value int64) {
	iid := te.beginArg(key)
	enc := te.p.w.enc
	s := enc.BeginNested(fields.TEDebugAnnotations)
	enc.WriteUint64(fields.DANameIid, iid)
	enc.WriteInt64(fields.DAIntValue, value)
	enc.EndNested(s)
}

// AddArgUint interns key and appends an unsigned-integer debug annotation.
func (te *TrackEvent) AddArgUint(key string, value uint64) {
	iid := te.beginArg(key)
	enc := te.p.w.enc
	s := enc.BeginNested(fields.TEDebugAnnotations)
	enc.WriteUint64(fields.DANameIid, iid)
	enc.WriteUint64(fields.DAUintValue, value)
	enc.EndNested(s)
}

// AddArgDouble interns key and appends a double-valued debug annotation.
func (te *TrackEvent) AddArgDouble(key string, value float64) {
	iid := te.beginArg(key)
	enc := te.p.w.enc
	s := enc.BeginNested(fields.TEDebugAnnotations)
	enc.WriteUint64(fields.DANameIid, iid)
	enc.WriteDouble(fields.DADoubleValue, value)
	enc.EndNested(s)
}

// AddArgBool interns key and appends a boolean-valued debug annotation.
func (te *TrackEvent) AddArgBool(key string, value bool) {
	iid := te.beginArg(key)
	enc := te.p.w.enc
	s := enc.BeginNested(fields.TEDebugAnnotations)
	enc.WriteUint64(fields.DANameIid, iid)
	enc.WriteBool(fields.DABoolValue, value)
	enc.EndNested(s)
}

// AddArgPtr interns key and appends a pointer-valued debug annotation.
func (te *TrackEvent) AddArgPtr(key string, value uint64) {
	iid := te.beginArg(key)
	enc := te.p.w.enc
	s := enc.BeginNested(fields.TEDebugAnnotations)
	enc.WriteUint64(fields.DANameIid, iid)
	enc.WriteUint64(fields.DAPointerValue, value)
	enc.EndNested(s)
}
