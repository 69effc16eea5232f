// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pftrace

import "code.hybscloud.com/pftrace/internal/fields"

// WriteProcessTrackDescriptor emits a self-contained packet describing a
// process track: uuid identifies the track for later TrackEvent.SetTrackUUID
// calls, pid is the OS process id, and name is the process's display name.
func (w *Writer) WriteProcessTrackDescriptor(uuid uint64, pid int32, name string) {
	p := w.BeginPacket()
	defer p.End()

	enc := w.enc
	td := enc.BeginNested(fields.TPTrackDescriptor)
	enc.WriteUint64(fields.TDUUID, uuid)

	proc := enc.BeginNested(fields.TDProcess)
	enc.WriteInt64(fields.PDPid, int64(pid))
	enc.WriteString(fields.PDProcessName, name)
	enc.EndNested(proc)

	enc.EndNested(td)
}

// WriteThreadTrackDescriptor emits a self-contained packet describing a
// thread track: uuid identifies the track, parentUUID names the owning
// process track, pid/tid are the OS identifiers, and name is the
// thread's display name.
func (w *Writer) WriteThreadTrackDescriptor(uuid, parentUUID uint64, pid, tid int32, name string) {
	p := w.BeginPacket()
	defer p.End()

	enc := w.enc
	td := enc.BeginNested(fields.TPTrackDescriptor)
	enc.WriteUint64(fields.TDUUID, uuid)
	enc.WriteUint64(fields.TDParentUUID, parentUUID)

	th := enc.BeginNested(fields.TDThread)
	enc.WriteInt64(fields.ThDPid, int64(pid))
	enc.WriteInt64(fields.ThDTid, int64(tid))
	enc.WriteString(fields.ThDThreadName, name)
	enc.EndNested(th)

	enc.EndNested(td)
}

// clockIDBoottime is the Perfetto-reserved clock id for CLOCK_BOOTTIME.
const clockIDBoottime = 6

// WriteClockSnapshot emits a self-contained packet synchronizing this
// writer's clock domain to boottimeNs (nanoseconds since boot).
func (w *Writer) WriteClockSnapshot(boottimeNs uint64) {
	p := w.BeginPacket()
	defer p.End()

	enc := w.enc
	cs := enc.BeginNested(fields.TPClockSnapshot)
	clk := enc.BeginNested(fields.CSClocks)
	enc.WriteUint64(fields.ClockID, clockIDBoottime)
	enc.WriteUint64(fields.ClockTstamp, boottimeNs)
	enc.EndNested(clk)
	enc.EndNested(cs)
}
