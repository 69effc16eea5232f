// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package intern implements the string-interning tables a pftrace Writer
// uses to deduplicate event names, categories, argument keys, source
// locations, and log message bodies within one sequence id. Each table
// hands out sequential, per-category iids starting at 1 and tracks which
// entries have not yet been serialized into an InternedData submessage,
// so a caller can drain exactly the entries a given packet newly
// introduced.
package intern

import (
	"code.hybscloud.com/pftrace/internal/fields"
	"code.hybscloud.com/pftrace/internal/wire"
)

// Category identifies one of the four string-keyed interning tables.
// SourceLocations are interned separately via InternSourceLocation because
// their key is a (file, function, line) tuple rather than a single string.
type Category int

const (
	EventCategories Category = iota
	EventNames
	DebugAnnotationNames
	LogMessageBody

	numStringCategories
)

// fieldNumber returns the InternedData field number a category's pending
// entries are written under.
func (c Category) fieldNumber() int {
	switch c {
	case EventCategories:
		return fields.IDEventCategories
	case EventNames:
		return fields.IDEventNames
	case DebugAnnotationNames:
		return fields.IDDebugAnnotationNames
	case LogMessageBody:
		return fields.IDLogMessageBody
	default:
		panic("pftrace: intern: invalid string category")
	}
}

// SourceLocationKey is the composite key source_location entries are
// interned on.
type SourceLocationKey struct {
	File     string
	Function string
	Line     uint32
}

type stringEntry struct {
	iid   uint64
	value string
}

type locEntry struct {
	iid uint64
	key SourceLocationKey
}

// Table is one interner, scoped to a single trusted_packet_sequence_id.
// Iids are unique and monotonically increasing per (table, category);
// a Writer keeps one Table per sequence id it has seen, partitioning
// rather than resetting interned state when a packet switches id.
type Table struct {
	nextStr [numStringCategories]uint64
	strMap  [numStringCategories]map[string]uint64
	pendStr [numStringCategories][]stringEntry

	nextLoc uint64
	locMap  map[SourceLocationKey]uint64
	pendLoc []locEntry
}

// NewTable returns an empty interner table with no ids assigned yet.
func NewTable() *Table {
	t := &Table{locMap: make(map[SourceLocationKey]uint64)}
	for i := range t.strMap {
		t.strMap[i] = make(map[string]uint64)
	}
	return t
}

// Intern returns the iid for s under category cat, allocating a new one
// (starting at 1, strictly increasing, no gaps) on first use and queuing
// the entry as pending until DrainInto serializes it.
func (t *Table) Intern(cat Category, s string) uint64 {
	m := t.strMap[cat]
	if iid, ok := m[s]; ok {
		return iid
	}
	t.nextStr[cat]++
	iid := t.nextStr[cat]
	m[s] = iid
	t.pendStr[cat] = append(t.pendStr[cat], stringEntry{iid: iid, value: s})
	return iid
}

// InternSourceLocation returns the iid for the (file, function, line)
// tuple k, allocating one on first use.
func (t *Table) InternSourceLocation(k SourceLocationKey) uint64 {
	if iid, ok := t.locMap[k]; ok {
		return iid
	}
	t.nextLoc++
	iid := t.nextLoc
	t.locMap[k] = iid
	t.pendLoc = append(t.pendLoc, locEntry{iid: iid, key: k})
	return iid
}

// HasPending reports whether any category has entries not yet drained.
func (t *Table) HasPending() bool {
	if len(t.pendLoc) != 0 {
		return true
	}
	for _, p := range t.pendStr {
		if len(p) != 0 {
			return true
		}
	}
	return false
}

// DrainInto serializes every pending entry across all categories into
// the caller's already-open interned_data (field 12) scope, in the order
// event_categories, event_names, debug_annotation_names,
// log_message_body, source_locations, and clears the pending lists.
// The caller is responsible for opening and closing that field-12 scope;
// DrainInto is a no-op if HasPending is false, but is safe to call
// unconditionally.
func (t *Table) DrainInto(enc *wire.Encoder) {
	for cat := Category(0); cat < numStringCategories; cat++ {
		entries := t.pendStr[cat]
		if len(entries) == 0 {
			continue
		}
		fieldNum := cat.fieldNumber()
		for _, e := range entries {
			s := enc.BeginNested(fieldNum)
			enc.WriteUint64(fields.EntryIid, e.iid)
			enc.WriteString(fields.EntryBody, e.value)
			enc.EndNested(s)
		}
		t.pendStr[cat] = t.pendStr[cat][:0]
	}

	for _, e := range t.pendLoc {
		s := enc.BeginNested(fields.IDSourceLocations)
		enc.WriteUint64(fields.SourceLocIid, e.iid)
		enc.WriteString(fields.SourceLocFileName, e.key.File)
		enc.WriteString(fields.SourceLocFunctionName, e.key.Function)
		enc.WriteUint64(fields.SourceLocLineNumber, uint64(e.key.Line))
		enc.EndNested(s)
	}
	t.pendLoc = t.pendLoc[:0]
}
