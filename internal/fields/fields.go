// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package fields is the normative field-number table for the Perfetto
// trace wire format subset this library emits. It holds no behavior — the
// numbers here are a fixed external contract, not something the encoder
// or the interner gets to choose.
package fields

// Wire types, as used by the varint tag (field<<3 | wireType).
const (
	Varint  = 0
	Fix64   = 1
	LenDlim = 2
	Fix32   = 5
)

// Trace (top level, virtual message): a raw concatenation of length-delimited
// TracePacket entries at this field number.
const TracePacket = 1

// TracePacket fields.
const (
	TPTimestamp               = 8
	TPTrustedPacketSequenceID = 10
	TPTrackEvent              = 11
	TPInternedData            = 12
	TPClockSnapshot           = 6
	TPTrackDescriptor         = 60
	TPTracePacketDefaults     = 59 // part of the field-number table; no setter exposed, no caller needs it yet
)

// TrackEvent fields.
const (
	TECategoryIids       = 3
	TEDebugAnnotations   = 4
	TETaskExecution      = 5
	TEType               = 9
	TENameIid            = 10
	TETrackUUID          = 11
	TELogMessage         = 21
	TECounterValue       = 30
	TETerminatingFlowIds = 42
	TEFlowIds            = 47
)

// TrackDescriptor fields.
const (
	TDUUID       = 1
	TDProcess    = 3
	TDThread     = 4
	TDParentUUID = 5
)

// ProcessDescriptor fields.
const (
	PDPid         = 1
	PDProcessName = 6
)

// ThreadDescriptor fields.
const (
	ThDPid        = 1
	ThDTid        = 2
	ThDThreadName = 5
)

// ClockSnapshot / Clock fields.
const (
	CSClocks    = 1
	ClockID     = 1
	ClockTstamp = 2
)

// InternedData fields — each holds repeated interned-entry submessages.
const (
	IDEventCategories      = 1
	IDEventNames           = 2
	IDDebugAnnotationNames = 3
	IDSourceLocations      = 4
	IDLogMessageBody       = 20
)

// Interned entry fields, shared shape for event_categories / event_names /
// debug_annotation_names / log_message_body.
const (
	EntryIid  = 1
	EntryBody = 2
)

// SourceLocation entry fields.
const (
	SourceLocIid          = 1
	SourceLocFileName     = 2
	SourceLocFunctionName = 3
	SourceLocLineNumber   = 4
)

// DebugAnnotation fields.
const (
	DANameIid      = 1
	DABoolValue    = 2
	DAUintValue    = 3
	DAIntValue     = 4
	DADoubleValue  = 5
	DAStringValue  = 6
	DAPointerValue = 7
)
