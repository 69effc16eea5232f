// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pftrace

// Options configures a Writer.
type Options struct {
	// DefaultSequenceID is the trusted_packet_sequence_id a packet starts
	// with before any call to Packet.SetTrustedPacketSequenceID.
	DefaultSequenceID uint32

	// FlushThreshold is the buffered-byte size, measured across complete
	// (closed) packets, past which EndPacket flushes the accumulated
	// bytes to the sink. New defaults this to 64 KiB; WithFlushThreshold(0)
	// flushes after every packet instead of leaving bytes buffered.
	// Flushing can always be forced early with Writer.Flush.
	FlushThreshold int

	// InitialBufferSize hints the encoder's starting capacity. Zero means
	// "use the default".
	InitialBufferSize int

	// MaxBufferBytes, if non-zero, is the unflushed buffer size at which
	// EndPacket latches ErrAllocation. Once any error is latched, each
	// packet's bytes are discarded when it closes instead of being
	// buffered. Zero means unlimited.
	MaxBufferBytes int
}

const defaultFlushThreshold = 64 << 10 // 64 KiB

var defaultOptions = Options{
	DefaultSequenceID: 1,
	FlushThreshold:    defaultFlushThreshold,
	InitialBufferSize: 4096,
	MaxBufferBytes:    0,
}

// Option mutates Options during Writer construction.
type Option func(*Options)

// WithSequenceID sets the trusted_packet_sequence_id new packets default
// to before any explicit Packet.SetTrustedPacketSequenceID call.
func WithSequenceID(id uint32) Option {
	return func(o *Options) { o.DefaultSequenceID = id }
}

// WithFlushThreshold overrides the buffered-byte threshold that triggers
// an automatic flush to the sink after a packet closes. A threshold of 0
// flushes after every packet rather than falling back to the default.
func WithFlushThreshold(n int) Option {
	return func(o *Options) { o.FlushThreshold = n }
}

// WithBufferSize hints the encoder's initial capacity, avoiding early
// reallocations for callers who know roughly how large their packets run.
func WithBufferSize(n int) Option {
	return func(o *Options) { o.InitialBufferSize = n }
}

// WithMaxBufferBytes sets the unflushed buffer size at which the Writer
// latches ErrAllocation when a packet closes; from then on closed packets
// are discarded rather than buffered.
func WithMaxBufferBytes(n int) Option {
	return func(o *Options) { o.MaxBufferBytes = n }
}
