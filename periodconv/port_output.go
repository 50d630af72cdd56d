package periodconv

// outputAdapter stages client writes of dstFrames-frame blocks into a
// shadow buffer and drains server-period blocks to the server once per
// tick.
type outputAdapter struct {
	port      Port
	format    Format
	dstFrames int

	shadow *shadowBuffer

	shadowFrames int // frames written by the client, not yet drained
	shadowOffset int // index of the first undrained frame
	clientFrames int // frames written via set() this phase, not yet committed
}

func newOutputAdapter(port Port, format Format, dstFrames, capacityFrames int, initSilence bool) *outputAdapter {
	a := &outputAdapter{
		port:      port,
		format:    format,
		dstFrames: dstFrames,
		shadow:    newShadowBuffer(capacityFrames, SampleSize(format)),
	}
	if initSilence {
		a.shadow.silence(capacityFrames)
	}
	return a
}

func (a *outputAdapter) portName() string { return a.port.Name() }

func (a *outputAdapter) get(frames int) ([]byte, error) {
	if frames != a.dstFrames {
		return nil, ErrFrameMismatch
	}
	writeCursor := a.shadowOffset + a.shadowFrames + a.clientFrames
	return a.shadow.at(writeCursor, frames), nil
}

func (a *outputAdapter) set(buf []byte, frames int) error {
	if frames != a.dstFrames {
		return ErrFrameMismatch
	}
	writeCursor := a.shadowOffset + a.shadowFrames + a.clientFrames
	dst := a.shadow.at(writeCursor, frames)
	if len(buf) == 0 || len(dst) == 0 || &buf[0] != &dst[0] {
		copy(dst, buf)
	}
	return nil
}

// updateClientFrames commits one get/set cycle's worth of client
// output: called by the scheduler exactly once per client callback
// invocation, never from within set() itself, so multiple get/set
// round trips inside one callback would not be double-counted.
func (a *outputAdapter) updateClientFrames() {
	a.clientFrames += a.dstFrames
}

// next drains a server-period block to the server once enough client
// output has accumulated. If the client hasn't written enough yet, the
// pending contribution is carried over and the server buffer is left
// untouched for this tick.
func (a *outputAdapter) next(frames int) (bool, error) {
	limit := frames
	if a.dstFrames > limit {
		limit = a.dstFrames
	}
	if a.shadowFrames > limit {
		return false, &InvariantError{
			Port: a.portName(),
			Msg:  "output shadow buffer holds more frames than the server or client period",
		}
	}

	drained := false
	if a.shadowFrames+a.clientFrames >= frames {
		server := a.port.Buffer(frames)
		if server == nil {
			return false, &InvariantError{Port: a.portName(), Msg: "server returned no buffer for output port"}
		}
		a.shadow.copyToServer(a.format, server, a.shadowOffset, frames)
		a.shadowFrames = a.shadowFrames + a.clientFrames - frames
		a.shadowOffset += frames
		if a.shadowFrames == 0 {
			a.shadowOffset = 0
		}
		drained = true
	} else {
		a.shadowFrames += a.clientFrames
	}

	if a.shadowOffset > 0 && a.shadowFrames <= frames {
		copy(a.shadow.at(0, a.shadowFrames), a.shadow.at(a.shadowOffset, a.shadowFrames))
		a.shadowOffset = 0
	}

	a.clientFrames = 0
	return drained, nil
}
