// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pftrace_test

import (
	"bytes"
	"os"
	"testing"

	"code.hybscloud.com/pftrace"
)

// --- a tiny generic decoder for the flat tag/varint wire format, used
// only to assert on the byte-level scenarios below without pulling in a
// protobuf library. ---

type entry struct {
	field    int
	wireType int
	uval     uint64
	raw      []byte // payload for len-delimited, 8 raw bytes for fixed64
}

func decodeVarintAt(b []byte) (uint64, int) {
	var v uint64
	var shift uint
	for i, c := range b {
		v |= uint64(c&0x7f) << shift
		if c&0x80 == 0 {
			return v, i + 1
		}
		shift += 7
	}
	panic("truncated varint")
}

func decodeEntries(b []byte) []entry {
	var out []entry
	for len(b) > 0 {
		tag, n := decodeVarintAt(b)
		b = b[n:]
		field := int(tag >> 3)
		wt := int(tag & 7)
		switch wt {
		case 0: // varint
			v, n := decodeVarintAt(b)
			b = b[n:]
			out = append(out, entry{field: field, wireType: wt, uval: v})
		case 1: // fixed64
			out = append(out, entry{field: field, wireType: wt, raw: append([]byte(nil), b[:8]...)})
			b = b[8:]
		case 2: // length-delimited
			l, n := decodeVarintAt(b)
			b = b[n:]
			out = append(out, entry{field: field, wireType: wt, raw: append([]byte(nil), b[:l]...)})
			b = b[l:]
		default:
			panic("unsupported wire type in test decoder")
		}
	}
	return out
}

func firstField(entries []entry, field int) (entry, bool) {
	for _, e := range entries {
		if e.field == field {
			return e, true
		}
	}
	return entry{}, false
}

func allFields(entries []entry, field int) []entry {
	var out []entry
	for _, e := range entries {
		if e.field == field {
			out = append(out, e)
		}
	}
	return out
}

// splitPackets walks a file's top-level byte stream, each a
// tag(1,LEN) + 5-byte forced-width length + body TracePacket group, and
// returns each packet's decoded body entries.
func splitPackets(t *testing.T, data []byte) [][]entry {
	t.Helper()
	var packets [][]entry
	for len(data) > 0 {
		tag, n := decodeVarintAt(data)
		if tag != 1<<3|2 {
			t.Fatalf("expected top-level field 1 (LEN), got tag %d", tag)
		}
		data = data[n:]
		l, n := decodeVarintAt(data[:5])
		if n != 5 {
			t.Fatalf("expected 5-byte forced-width length prefix, consumed %d", n)
		}
		data = data[5:]
		body := data[:l]
		data = data[l:]
		packets = append(packets, decodeEntries(body))
	}
	return packets
}

func readAllPackets(t *testing.T, path string) [][]entry {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	return splitPackets(t, data)
}

func TestScenario_MinimumPacketWithTimestamp(t *testing.T) {
	path := tempTracePath(t)
	w, err := pftrace.New(path, pftrace.WithFlushThreshold(1<<30))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p := w.BeginPacket()
	p.SetTimestamp(1000)
	p.End()
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	wantPrefix := []byte{0x0A}
	if !bytes.HasPrefix(data, wantPrefix) {
		t.Fatalf("expected leading tag 0x0A, got % x", data[:1])
	}
	length, n := decodeVarintAt(data[1:6])
	if n != 5 {
		t.Fatalf("expected 5-byte forced length prefix")
	}
	if length != 3 {
		t.Fatalf("body length = %d, want 3", length)
	}
	body := data[6 : 6+length]
	wantBody := []byte{0x40, 0xE8, 0x07}
	if !bytes.Equal(body, wantBody) {
		t.Fatalf("body = % x, want % x", body, wantBody)
	}
}

func TestScenario_SharedInternedEventName(t *testing.T) {
	path := tempTracePath(t)
	w, err := pftrace.New(path, pftrace.WithFlushThreshold(1<<30))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	p1 := w.BeginPacket()
	p1.SetTimestamp(1)
	ev1 := p1.BeginTrackEvent()
	ev1.SetName("DrawFrame")
	ev1.End()
	p1.End()

	p2 := w.BeginPacket()
	p2.SetTimestamp(2)
	ev2 := p2.BeginTrackEvent()
	ev2.SetName("DrawFrame")
	ev2.End()
	p2.End()

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	packets := readAllPackets(t, path)
	if len(packets) != 2 {
		t.Fatalf("got %d packets, want 2", len(packets))
	}

	// Packet 1: track_event.name_iid == 1, and an interned_data with
	// event_names{iid:1, name:"DrawFrame"}.
	te1, ok := firstField(packets[0], 11)
	if !ok {
		t.Fatalf("packet 1: no track_event field")
	}
	teEntries1 := decodeEntries(te1.raw)
	nameIid1, ok := firstField(teEntries1, 10)
	if !ok || nameIid1.uval != 1 {
		t.Fatalf("packet 1: name_iid = %+v, want 1", nameIid1)
	}

	interned1, ok := firstField(packets[0], 12)
	if !ok {
		t.Fatalf("packet 1: expected interned_data, found none")
	}
	idEntries1 := decodeEntries(interned1.raw)
	namesEntry, ok := firstField(idEntries1, 2)
	if !ok {
		t.Fatalf("packet 1: expected event_names in interned_data")
	}
	nameFields := decodeEntries(namesEntry.raw)
	iidField, _ := firstField(nameFields, 1)
	bodyField, _ := firstField(nameFields, 2)
	if iidField.uval != 1 || string(bodyField.raw) != "DrawFrame" {
		t.Fatalf("event_names entry = iid:%d name:%q, want iid:1 name:DrawFrame", iidField.uval, bodyField.raw)
	}

	// Packet 2: track_event.name_iid == 1 again, and no interned_data at
	// all (the entry was already emitted in packet 1).
	te2, ok := firstField(packets[1], 11)
	if !ok {
		t.Fatalf("packet 2: no track_event field")
	}
	teEntries2 := decodeEntries(te2.raw)
	nameIid2, ok := firstField(teEntries2, 10)
	if !ok || nameIid2.uval != 1 {
		t.Fatalf("packet 2: name_iid = %+v, want 1", nameIid2)
	}
	if _, ok := firstField(packets[1], 12); ok {
		t.Fatalf("packet 2: unexpected interned_data; event name was already interned")
	}
}

func TestScenario_InternedLogMessageAndSourceLocation(t *testing.T) {
	path := tempTracePath(t)
	w, err := pftrace.New(path, pftrace.WithFlushThreshold(1<<30))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	p := w.BeginPacket()
	p.SetTimestamp(1)
	ev := p.BeginTrackEvent()
	ev.SetLogMessage("hi")
	ev.SetTaskExecution("f.c", "main", 10)
	ev.End()
	p.End()

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	packets := readAllPackets(t, path)
	if len(packets) != 1 {
		t.Fatalf("got %d packets, want 1", len(packets))
	}

	interned, ok := firstField(packets[0], 12)
	if !ok {
		t.Fatalf("expected interned_data")
	}
	idEntries := decodeEntries(interned.raw)

	logBody, ok := firstField(idEntries, 20)
	if !ok {
		t.Fatalf("expected log_message_body in interned_data")
	}
	logFields := decodeEntries(logBody.raw)
	iid, _ := firstField(logFields, 1)
	body, _ := firstField(logFields, 2)
	if iid.uval != 1 || string(body.raw) != "hi" {
		t.Fatalf("log_message_body = iid:%d body:%q, want iid:1 body:hi", iid.uval, body.raw)
	}

	srcLoc, ok := firstField(idEntries, 4)
	if !ok {
		t.Fatalf("expected source_locations in interned_data")
	}
	srcFields := decodeEntries(srcLoc.raw)
	srcIid, _ := firstField(srcFields, 1)
	file, _ := firstField(srcFields, 2)
	fn, _ := firstField(srcFields, 3)
	line, _ := firstField(srcFields, 4)
	if srcIid.uval != 1 || string(file.raw) != "f.c" || string(fn.raw) != "main" || line.uval != 10 {
		t.Fatalf("source_location = iid:%d file:%q fn:%q line:%d", srcIid.uval, file.raw, fn.raw, line.uval)
	}
}

func TestScenario_FlowPairFixed64Encoding(t *testing.T) {
	path := tempTracePath(t)
	w, err := pftrace.New(path, pftrace.WithFlushThreshold(1<<30))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	p := w.BeginPacket()
	p.SetTimestamp(1)
	ev := p.BeginTrackEvent()
	ev.AddFlowID(1)
	ev.End()
	p.End()

	p2 := w.BeginPacket()
	p2.SetTimestamp(2)
	ev2 := p2.BeginTrackEvent()
	ev2.AddTerminatingFlowID(1)
	ev2.End()
	p2.End()

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	// field 47 (flow_ids), wire type 1 (fixed64): tag = 47<<3|1 = 377 -> varint F9 02
	if !bytes.Contains(data, []byte{0xF9, 0x02, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}) {
		t.Fatalf("expected literal flow_ids fixed64 encoding in output")
	}
	// field 42 (terminating_flow_ids), wire type 1: tag = 42<<3|1 = 337 -> varint D1 02
	if !bytes.Contains(data, []byte{0xD1, 0x02, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}) {
		t.Fatalf("expected literal terminating_flow_ids fixed64 encoding in output")
	}
}

func TestScenario_ManyAnnotationsManyPackets(t *testing.T) {
	// A smaller-scale stand-in for a stress-sized trace: confirms that
	// many sibling debug annotations per event and a large packet count
	// both round-trip through the encoder without the scope stack
	// drifting.
	const packetCount = 200
	const nestDepth = 25

	path := tempTracePath(t)
	w, err := pftrace.New(path, pftrace.WithFlushThreshold(1<<20))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := 0; i < packetCount; i++ {
		p := w.BeginPacket()
		p.SetTimestamp(uint64(i))
		ev := p.BeginTrackEvent()
		for d := 0; d < nestDepth; d++ {
			ev.AddArgInt("depth", int64(d))
		}
		ev.End()
		p.End()
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	packets := readAllPackets(t, path)
	if len(packets) != packetCount {
		t.Fatalf("got %d packets, want %d", len(packets), packetCount)
	}
	te, ok := firstField(packets[packetCount-1], 11)
	if !ok {
		t.Fatalf("last packet: no track_event")
	}
	annotations := allFields(decodeEntries(te.raw), 4)
	if len(annotations) != nestDepth {
		t.Fatalf("last packet: got %d debug_annotations, want %d", len(annotations), nestDepth)
	}
}
