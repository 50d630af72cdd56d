// Package periodconv adapts a realtime audio server's fixed-size float32
// buffers to a client that wants a different period size and/or a
// different sample format.
//
// The server drives the graph with buffers of N_s frames of 32-bit float
// samples, delivered once per tick through the Server/Port interfaces.
// The client wants its own callback invoked once per N_c frames, in
// FLOAT, Int32 or Int16. periodconv re-blocks server ticks into client
// invocations and converts each port's samples, without allocating or
// blocking on the path the server drives.
//
// # Quick Start
//
//	reporter := periodconv.NewReporter(nil, 10*time.Millisecond)
//	defer reporter.Close()
//
//	bc, err := periodconv.NewBufferConverter(server, myCallback, myArg, 256, reporter)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer bc.Close()
//
//	pc, err := periodconv.NewPortConverter(inputPort, periodconv.Int16, false, bc, 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pc.Close()
//
// Inside myCallback, call pc.Get(frames)/pc.Set(buf, frames) with
// frames equal to the dst_frames given to NewBufferConverter. The
// final 0 above is the frames parameter NewPortConverter ignores when
// bc is non-nil; it only matters for the pass-through/format-only
// variants constructed with a nil BufferConverter.
//
// # Realtime Constraints
//
// The callback given to NewBufferConverter, and every PortConverter
// method, run on the server's realtime thread. You MUST NOT:
//   - allocate (make, new, append, interface boxing of new values)
//   - block (mutex, channel without a ready value, I/O, time.Sleep)
//   - call anything that itself allocates or blocks
//
// Reported errors go through an allocation-free ring buffer (see
// NewReporter) rather than direct I/O, so violating this on the error
// path specifically is still safe.
//
// # Thread Safety
//
// A BufferConverter and its PortConverters are touched only from the
// single realtime thread the host server drives its callback from, and
// from the single non-realtime thread that constructs/destroys them
// while the server is not running this client's callback. There is no
// internal locking; callers must honour the host's activate/deactivate
// contract themselves.
package periodconv
