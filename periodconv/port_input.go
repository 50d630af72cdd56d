package periodconv

// inputAdapter accumulates exactly dstFrames frames of client-format
// samples, appending from the server's float buffer with format
// conversion, and hands the completed block to the scheduler.
type inputAdapter struct {
	port      Port
	format    Format
	dstFrames int

	shadow *shadowBuffer

	shadowFrames int // valid frames waiting at the start of shadow
	jackOffset   int // read cursor into this tick's server buffer
}

func newInputAdapter(port Port, format Format, dstFrames, silencePrefill int) *inputAdapter {
	a := &inputAdapter{
		port:      port,
		format:    format,
		dstFrames: dstFrames,
		shadow:    newShadowBuffer(dstFrames, SampleSize(format)),
	}
	if silencePrefill > 0 {
		a.shadow.silence(silencePrefill)
		a.shadowFrames = silencePrefill
	}
	return a
}

func (a *inputAdapter) portName() string { return a.port.Name() }

// get returns the shadow buffer once the scheduler has observed
// shadowFrames == dstFrames (i.e. right after next() returned ready).
func (a *inputAdapter) get(frames int) ([]byte, error) {
	if frames != a.dstFrames {
		return nil, ErrFrameMismatch
	}
	return a.shadow.at(0, frames), nil
}

func (a *inputAdapter) set(buf []byte, frames int) error {
	return ErrSetOnInputPort
}

func (a *inputAdapter) updateClientFrames() {}

// next appends up to frames worth of server samples to the shadow
// buffer, converting as it goes, and reports whether a full
// dstFrames-sized block is now ready for get(). A partial appension
// that doesn't fill the block leaves the remainder buffered for the
// next call.
func (a *inputAdapter) next(frames int) (bool, error) {
	if a.shadowFrames > a.dstFrames {
		return false, &InvariantError{
			Port: a.portName(),
			Msg:  "input shadow buffer holds more frames than dst_frames",
		}
	}

	server := a.port.Buffer(frames)
	if server == nil {
		return false, &InvariantError{Port: a.portName(), Msg: "server returned no buffer for input port"}
	}

	jackFrames := frames - a.jackOffset
	if a.shadowFrames+jackFrames >= a.dstFrames {
		missing := a.dstFrames - a.shadowFrames
		a.shadow.copyFromServer(a.format, a.shadowFrames, missing, server[a.jackOffset*4:])
		a.jackOffset += missing
		a.shadowFrames = 0
		return true, nil
	}

	a.shadow.copyFromServer(a.format, a.shadowFrames, jackFrames, server[a.jackOffset*4:])
	a.shadowFrames += jackFrames
	a.jackOffset = 0
	return false, nil
}
