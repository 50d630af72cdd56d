package periodconv

// Port is an opaque handle to a single float-sample audio port on the
// host server. Implementations are provided by the host; periodconv
// never creates one itself.
type Port interface {
	// Name identifies the port, for error messages only.
	Name() string

	// Output reports whether this port is an output port (written by
	// the client, read by the server) as opposed to an input port
	// (read by the client, written by the server).
	Output() bool

	// Buffer returns the port's current N_s-frame float32 buffer for
	// this tick, reinterpreted as bytes (len(buf) == frames*4). It is
	// valid only for the duration of the current process callback and
	// may be nil if the server has no buffer ready.
	Buffer(frames int) []byte
}

// ProcessFunc is installed with the host server and fires once per
// server tick with the server's current period size in frames. A
// nonzero return tells the host to treat this client as fatal.
type ProcessFunc func(frames int) int

// Server is the minimal shape of the host audio server that periodconv
// needs. Everything else about the server — graph activation, port
// enumeration and connection, device I/O — is an external collaborator
// outside periodconv's scope.
type Server interface {
	// RegisterProcessCallback installs fn as the per-tick driver. It
	// returns an error if the host refuses the registration.
	RegisterProcessCallback(fn ProcessFunc) error

	// UnregisterProcessCallback removes a previously installed
	// callback. Called by periodconv from BufferConverter.Close.
	UnregisterProcessCallback() error

	// BufferSize returns the server's current period size N_s, in
	// frames.
	BufferSize() int
}

// ClientCallback is the client's own processing function, invoked once
// per N_c frames by the scheduler. arg is the value passed to
// NewBufferConverter, handed back unchanged. A nonzero return is
// propagated verbatim to the host as the process callback's result.
type ClientCallback func(frames int, arg any) int
