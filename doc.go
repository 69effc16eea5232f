// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pftrace writes binary trace files in the Perfetto trace wire
// format so external tools (the Perfetto UI, trace_processor) can ingest
// them.
//
// Semantics and design:
//   - Write-only, single-producer: a Writer owns one output file and is
//     driven synchronously by one caller; there is no reader/parser here
//     and no thread-safety across concurrent writers.
//   - Correct varint / length-delimited / nested-submessage framing with
//     deferred length patch-up (internal/wire), so a packet's body never
//     needs to be pre-scanned before its length is known.
//   - A string-interning table (internal/intern) deduplicates event
//     names, categories, argument keys, and source locations across
//     packets that share a trusted_packet_sequence_id, emitting each
//     interned entry's definition into the InternedData of the first
//     packet that references it. Any byte prefix of the output ending at
//     a packet boundary is therefore itself a loadable, self-contained
//     trace.
//
// Wire format: the output file is a flat concatenation of
// tag(1, LEN) varint(len) bytes(packet) groups — a length-delimited
// TracePacket repeated at field 1 of the virtual top-level Trace message.
// Field numbers used throughout are listed in internal/fields and mirror
// Perfetto's published .proto schema.
package pftrace
