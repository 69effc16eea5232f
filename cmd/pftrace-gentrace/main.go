// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command pftrace-gentrace drives the pftrace writer end to end and emits
// a trace file a reader can load straight into the Perfetto UI, without
// writing any Go.
//
// Run it with:
//
//	go run ./cmd/pftrace-gentrace -out trace.pftrace -iterations 200 -depth 8
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"code.hybscloud.com/pftrace"
)

var (
	outPath    = flag.String("out", "trace.pftrace", "output trace file path")
	iterations = flag.Int("iterations", 200, "number of top-level loop slices to emit")
	maxDepth   = flag.Int("depth", 8, "recursion depth of nested slices per loop iteration")
	seqID      = flag.Uint("seq", 1, "trusted_packet_sequence_id to stamp packets with")
)

func main() {
	flag.Parse()

	if *iterations <= 0 || *maxDepth < 0 {
		fmt.Fprintln(os.Stderr, "pftrace-gentrace: -iterations must be positive and -depth non-negative")
		os.Exit(2)
	}

	w, err := pftrace.New(*outPath)
	if err != nil {
		log.Fatalf("pftrace-gentrace: open %s: %v", *outPath, err)
	}
	defer func() {
		if cerr := w.Close(); cerr != nil {
			log.Fatalf("pftrace-gentrace: close: %v", cerr)
		}
	}()

	gen := &generator{w: w, ts: 1_000_000_000, seqID: uint32(*seqID)}

	w.WriteClockSnapshot(gen.ts)
	w.WriteProcessTrackDescriptor(100, 1234, "pftrace-gentrace")
	w.WriteThreadTrackDescriptor(101, 100, 1234, 5678, "main")

	log.Printf("generating %d loop slices, %d levels deep, into %s", *iterations, *maxDepth, *outPath)
	for i := 0; i < *iterations; i++ {
		if i%1000 == 0 {
			log.Printf("iteration %d/%d", i, *iterations)
		}
		gen.loopIteration(i, *maxDepth)
	}
	log.Printf("done: simulated %d ns", gen.ts-1_000_000_000)
}

// generator holds the running timestamp and track binding shared across
// the packets of one synthetic trace, mirroring the original generator's
// single global timestamp counter without the package-wide mutable state
// it used.
type generator struct {
	w     *pftrace.Writer
	ts    uint64
	seqID uint32
}

func (g *generator) loopIteration(i, maxDepth int) {
	p := g.w.BeginPacket()
	p.SetTimestamp(g.ts)
	p.SetTrustedPacketSequenceID(g.seqID)
	ev := p.BeginTrackEvent()
	ev.SetType(pftrace.EventTypeSliceBegin)
	ev.SetTrackUUID(101)
	ev.SetName(fmt.Sprintf("Loop_%d", i))
	ev.SetLogMessage("starting loop iteration")
	ev.End()
	p.End()

	g.nestedSlice(1, maxDepth)

	g.ts += 50000

	pEnd := g.w.BeginPacket()
	pEnd.SetTimestamp(g.ts)
	pEnd.SetTrustedPacketSequenceID(g.seqID)
	evEnd := pEnd.BeginTrackEvent()
	evEnd.SetType(pftrace.EventTypeSliceEnd)
	evEnd.SetTrackUUID(101)
	evEnd.End()
	pEnd.End()
}

func (g *generator) nestedSlice(depth, maxDepth int) {
	if depth > maxDepth {
		return
	}
	g.ts += 100000

	p := g.w.BeginPacket()
	p.SetTimestamp(g.ts)
	p.SetTrustedPacketSequenceID(g.seqID)
	ev := p.BeginTrackEvent()
	ev.SetType(pftrace.EventTypeSliceBegin)
	ev.SetTrackUUID(101)
	ev.SetName(fmt.Sprintf("Depth_%d", depth))
	ev.AddArgInt("depth", int64(depth))
	ev.AddArgDouble("load_factor", float64(depth)/float64(maxDepth))
	ev.End()
	p.End()

	g.nestedSlice(depth+1, maxDepth)

	g.ts += 200000

	pEnd := g.w.BeginPacket()
	pEnd.SetTimestamp(g.ts)
	pEnd.SetTrustedPacketSequenceID(g.seqID)
	evEnd := pEnd.BeginTrackEvent()
	evEnd.SetType(pftrace.EventTypeSliceEnd)
	evEnd.SetTrackUUID(101)
	evEnd.End()
	pEnd.End()
}
