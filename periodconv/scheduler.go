package periodconv

import "fmt"

// BufferConverter is the per-client scheduler: it registers itself as
// the host server's process callback, re-blocks every tick into
// dstFrames-sized invocations of the client callback, and pumps output
// ports back to the server.
type BufferConverter struct {
	server    Server
	callback  ClientCallback
	arg       any
	dstFrames int

	silencePrefill int

	inputs  []*inputAdapter
	outputs []*outputAdapter

	reporter *Reporter
}

// NewBufferConverter installs cb as the re-blocking driver for server,
// so that cb fires once per dstFrames frames regardless of the
// server's own period size. arg is passed back to cb unchanged on
// every invocation.
//
// Registering the process callback is the last step of construction,
// so no failure can follow a successful registration and a failed
// NewBufferConverter never leaves a registration on the server.
func NewBufferConverter(server Server, cb ClientCallback, arg any, dstFrames int, reporter *Reporter) (*BufferConverter, error) {
	if server == nil || cb == nil {
		return nil, ErrNilArg
	}
	if dstFrames <= 0 {
		return nil, fmt.Errorf("periodconv: dst_frames must be positive, got %d", dstFrames)
	}

	bc := &BufferConverter{
		server:    server,
		callback:  cb,
		arg:       arg,
		dstFrames: dstFrames,
		reporter:  reporter,
	}
	bc.silencePrefill = calculateSilencePrefill(dstFrames, server.BufferSize())

	if err := server.RegisterProcessCallback(bc.tick); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRegisterRejected, err)
	}
	return bc, nil
}

// calculateSilencePrefill returns how many frames of silence an input
// adapter should start with so its first block can complete without
// waiting on audio the server hasn't produced yet. A client period
// that evenly divides or is evenly divided by the server period needs
// no prefill (or a full period minus one server tick's worth); any
// other ratio prefills a full client period, since the adapter can't
// predict how the two periods will align.
func calculateSilencePrefill(clientPeriod, serverPeriod int) int {
	switch {
	case serverPeriod > clientPeriod:
		if serverPeriod%clientPeriod == 0 {
			return 0
		}
		return clientPeriod
	case serverPeriod < clientPeriod:
		if clientPeriod%serverPeriod == 0 {
			return clientPeriod - serverPeriod
		}
		return clientPeriod
	default:
		return 0
	}
}

// Close unregisters the process callback and releases the scheduler.
// It does not close any PortConverter registered with it; callers must
// close each PortConverter themselves before or after calling Close.
func (bc *BufferConverter) Close() error {
	return bc.server.UnregisterProcessCallback()
}

func (bc *BufferConverter) addInput(a *inputAdapter) {
	bc.inputs = append(bc.inputs, a)
}

func (bc *BufferConverter) addOutput(a *outputAdapter) {
	bc.outputs = append(bc.outputs, a)
}

func (bc *BufferConverter) report(err error) {
	if bc.reporter != nil && err != nil {
		bc.reporter.Report(err)
	}
}

// tick is installed as the host's process callback. It drives input
// adapters until a full client block is ready, invokes the client
// callback, and drains output adapters, recovering from any panic in
// that path so a client bug can't take the host process down.
func (bc *BufferConverter) tick(frames int) (status int) {
	defer func() {
		if r := recover(); r != nil {
			bc.report(fmt.Errorf("periodconv: panic in process callback: %v", r))
			status = 1
		}
	}()

	if len(bc.inputs) == 0 && len(bc.outputs) == 0 {
		bc.report(ErrNoPortsRegistered)
		return 1
	}

	// A client with no input ports has nothing to pace the inner loop
	// with, so it fires exactly once per tick instead of looping
	// forever.
	for first := true; first || len(bc.inputs) > 0; first = false {
		allReady := true
		for _, in := range bc.inputs {
			ready, err := in.next(frames)
			if err != nil {
				bc.report(err)
				return 1
			}
			if !ready {
				allReady = false
			}
		}
		if !allReady {
			break
		}

		ret := bc.callback(bc.dstFrames, bc.arg)
		if ret != 0 {
			return ret
		}

		for _, out := range bc.outputs {
			out.updateClientFrames()
		}

		if len(bc.inputs) == 0 {
			break
		}
	}

	for _, out := range bc.outputs {
		if _, err := out.next(frames); err != nil {
			bc.report(err)
			return 1
		}
	}

	return 0
}

// PortConverter is the public handle for one port's adapter, returned
// by NewPortConverter.
type PortConverter struct {
	impl portConverter
	bc   *BufferConverter
}

// NewPortConverter creates an adapter for port. Behaviour depends on
// format and bc:
//
//   - bc == nil, format == Float: pass-through, no shadow buffer.
//   - bc == nil, format in {Int16, Int32}: format-only conversion, no
//     re-blocking.
//   - bc != nil: a full re-blocking adapter of port's direction,
//     registered with bc.
//
// initOutputSilence, when true and port is an output port, zero-fills
// the output shadow buffer at construction, so the server never reads
// uninitialized data before the client has written anything.
//
// frames is the per-call frame count the pass-through/format-only
// variants (bc == nil) will be driven with — normally the server's own
// period size, queried by the caller once outside the realtime path.
// It is ignored when bc != nil, since dst_frames then comes from bc
// and the server period from bc.server.BufferSize().
func NewPortConverter(port Port, format Format, initOutputSilence bool, bc *BufferConverter, frames int) (*PortConverter, error) {
	if port == nil {
		return nil, ErrNilArg
	}
	if SampleSize(format) == 0 {
		return nil, ErrUnsupportedFormat
	}

	output := port.Output()

	if bc == nil {
		if frames <= 0 {
			return nil, fmt.Errorf("periodconv: frames must be positive, got %d", frames)
		}
		if format == Float {
			return &PortConverter{impl: newPassthroughAdapter(port, output)}, nil
		}
		return &PortConverter{impl: newFormatOnlyAdapter(port, format, output, frames)}, nil
	}

	serverFrames := bc.server.BufferSize()
	if output {
		// Undrained residue plus the client blocks written before the
		// next drain can reach dstFrames+serverFrames frames.
		capacity := bc.dstFrames + serverFrames
		a := newOutputAdapter(port, format, bc.dstFrames, capacity, initOutputSilence)
		bc.addOutput(a)
		return &PortConverter{impl: a, bc: bc}, nil
	}

	a := newInputAdapter(port, format, bc.dstFrames, bc.silencePrefill)
	bc.addInput(a)
	return &PortConverter{impl: a, bc: bc}, nil
}

// Close releases the port converter. Full re-blocking adapters remain
// referenced by their BufferConverter until the BufferConverter itself
// is closed; periodconv does not support unregistering a single port
// from a running scheduler.
func (p *PortConverter) Close() error {
	return nil
}

// Get returns the adapter's buffer for this frames-sized invocation.
// frames must equal the BufferConverter's dst_frames for re-blocking
// adapters and the frames given to NewPortConverter for format-only
// adapters; pass-through adapters hand frames straight to Port.Buffer.
func (p *PortConverter) Get(frames int) ([]byte, error) {
	if p == nil || p.impl == nil {
		return nil, ErrNilHandle
	}
	buf, err := p.impl.get(frames)
	if err != nil && p.bc != nil {
		p.bc.report(err)
	}
	return buf, err
}

// Set overwrites an output port's pending data with buf. It is
// illegal on an input port adapter.
func (p *PortConverter) Set(buf []byte, frames int) error {
	if p == nil || p.impl == nil {
		return ErrNilHandle
	}
	err := p.impl.set(buf, frames)
	if err != nil && p.bc != nil {
		p.bc.report(err)
	}
	return err
}
