// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pftrace

import (
	"errors"

	"code.hybscloud.com/pftrace/internal/wire"
)

var (
	// ErrIO reports that a write to the underlying sink failed. It is
	// sticky: once latched, Writer.LastError returns an error wrapping it
	// and Flush/Close stop attempting further writes to the broken sink.
	ErrIO = errors.New("pftrace: io error")

	// ErrAllocation reports that the encoder's unflushed buffer had
	// reached the configured WithMaxBufferBytes limit when a packet
	// closed. It is sticky in the same way as ErrIO.
	ErrAllocation = errors.New("pftrace: allocation error")

	// ErrInvalidArgument reports a nil or otherwise unusable constructor
	// argument (e.g. an empty output path).
	ErrInvalidArgument = errors.New("pftrace: invalid argument")
)

// StateError reports builder misuse: closing a packet or track event that
// isn't open, or closing one out of order. It always indicates a
// programmer bug in the calling code, so it is raised as a panic rather
// than returned — fail fast with a diagnostic instead of letting the
// caller silently corrupt the output stream. It is an alias of the
// internal/wire type so callers that recover from a builder-misuse panic
// don't need to import an internal package to type-assert it.
type StateError = wire.StateError

// OversizedValueError reports that a nested submessage's body exceeded
// 2^35-1 bytes, the largest length a 5-byte forced-width varint can
// represent. Such a packet would be invalid regardless, so this is also
// raised as a panic.
type OversizedValueError = wire.OversizedValueError
