package periodconv

import "testing"

// fakeServer is a minimal in-memory Server double. Tests drive ticks by
// calling the stored callback directly, the same way a real host would
// invoke it once per server period.
type fakeServer struct {
	bufferSize int
	cb         ProcessFunc
}

func (s *fakeServer) RegisterProcessCallback(fn ProcessFunc) error {
	s.cb = fn
	return nil
}

func (s *fakeServer) UnregisterProcessCallback() error {
	s.cb = nil
	return nil
}

func (s *fakeServer) BufferSize() int { return s.bufferSize }

func (s *fakeServer) tick(frames int) int { return s.cb(frames) }

func TestCalculateSilencePrefill(t *testing.T) {
	tests := []struct {
		name                        string
		clientPeriod, serverPeriod  int
		want                        int
	}{
		{"EqualPeriods", 256, 256, 0},
		{"SuperPeriodDivisible", 1024, 256, 768},
		{"SuperPeriodNonDivisible", 300, 256, 300},
		{"SubPeriodDivisible", 256, 1024, 0},
		{"SubPeriodNonDivisible", 256, 300, 256},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateSilencePrefill(tt.clientPeriod, tt.serverPeriod)
			if got != tt.want {
				t.Errorf("calculateSilencePrefill(%d, %d) = %d, want %d", tt.clientPeriod, tt.serverPeriod, got, tt.want)
			}
		})
	}
}

// echoCallback copies in's frames to out, counting invocations.
func echoCallback(in, out *PortConverter, dstFrames int, count *int) ClientCallback {
	return func(frames int, arg any) int {
		*count++
		buf, err := in.Get(frames)
		if err != nil {
			return 1
		}
		if err := out.Set(buf, frames); err != nil {
			return 1
		}
		return 0
	}
}

func TestIdentityFloatEqualPeriods(t *testing.T) {
	const period = 256
	srv := &fakeServer{bufferSize: period}
	inPort := newFakePort("in", false, period)
	outPort := newFakePort("out", true, period)
	bytesFromFloat(inPort.buf, make([]float32, period))

	var count int
	cb := func(frames int, arg any) int { return 0 }
	bc, err := NewBufferConverter(srv, cb, nil, period, nil)
	if err != nil {
		t.Fatalf("NewBufferConverter: %v", err)
	}
	inConv, err := NewPortConverter(inPort, Float, false, bc, 0)
	if err != nil {
		t.Fatalf("NewPortConverter(in): %v", err)
	}
	outConv, err := NewPortConverter(outPort, Float, false, bc, 0)
	if err != nil {
		t.Fatalf("NewPortConverter(out): %v", err)
	}
	bc.callback = echoCallback(inConv, outConv, period, &count)

	if ret := srv.tick(period); ret != 0 {
		t.Fatalf("tick returned %d", ret)
	}
	if count != 1 {
		t.Fatalf("callback invoked %d times, want 1", count)
	}
	for i := range inPort.buf {
		if outPort.buf[i] != inPort.buf[i] {
			t.Fatalf("byte %d: output %#x != input %#x", i, outPort.buf[i], inPort.buf[i])
		}
	}
}

func TestSubPeriodClientDivisible(t *testing.T) {
	// Scenario 3: N_s=1024, N_c=256, prefill=0 -> 4 callbacks per tick.
	const serverFrames = 1024
	const clientFrames = 256
	srv := &fakeServer{bufferSize: serverFrames}
	inPort := newFakePort("in", false, serverFrames)
	outPort := newFakePort("out", true, serverFrames)

	var count int
	cb := func(frames int, arg any) int { return 0 }
	bc, err := NewBufferConverter(srv, cb, nil, clientFrames, nil)
	if err != nil {
		t.Fatalf("NewBufferConverter: %v", err)
	}
	if bc.silencePrefill != 0 {
		t.Fatalf("silencePrefill = %d, want 0", bc.silencePrefill)
	}
	inConv, err := NewPortConverter(inPort, Float, false, bc, 0)
	if err != nil {
		t.Fatalf("NewPortConverter(in): %v", err)
	}
	outConv, err := NewPortConverter(outPort, Float, false, bc, 0)
	if err != nil {
		t.Fatalf("NewPortConverter(out): %v", err)
	}
	bc.callback = echoCallback(inConv, outConv, clientFrames, &count)

	if ret := srv.tick(serverFrames); ret != 0 {
		t.Fatalf("tick returned %d", ret)
	}
	if count != 4 {
		t.Fatalf("callback invoked %d times, want 4", count)
	}

	out := bc.outputs[0]
	if out.shadowFrames != 0 || out.shadowOffset != 0 {
		t.Errorf("output adapter did not fully drain: shadowFrames=%d shadowOffset=%d", out.shadowFrames, out.shadowOffset)
	}
}

func TestSuperPeriodClientDivisible(t *testing.T) {
	// Scenario 4: N_s=256, N_c=1024, prefill=768.
	const serverFrames = 256
	const clientFrames = 1024
	srv := &fakeServer{bufferSize: serverFrames}
	inPort := newFakePort("in", false, serverFrames)

	var count int
	cb := func(frames int, arg any) int { return 0 }
	bc, err := NewBufferConverter(srv, cb, nil, clientFrames, nil)
	if err != nil {
		t.Fatalf("NewBufferConverter: %v", err)
	}
	if bc.silencePrefill != 768 {
		t.Fatalf("silencePrefill = %d, want 768", bc.silencePrefill)
	}
	inConv, err := NewPortConverter(inPort, Float, false, bc, 0)
	if err != nil {
		t.Fatalf("NewPortConverter(in): %v", err)
	}
	bc.callback = func(frames int, arg any) int {
		count++
		if _, err := inConv.Get(frames); err != nil {
			return 1
		}
		return 0
	}

	// Tick 1: prefill (768) + 256 live frames == 1024 -> fires once.
	if ret := srv.tick(serverFrames); ret != 0 {
		t.Fatalf("tick 1 returned %d", ret)
	}
	if count != 1 {
		t.Fatalf("after tick 1: callback invoked %d times, want 1", count)
	}

	// Ticks 2-4: accumulating toward the next 1024-frame block, no fire.
	for i := 2; i <= 4; i++ {
		if ret := srv.tick(serverFrames); ret != 0 {
			t.Fatalf("tick %d returned %d", i, ret)
		}
	}
	if count != 1 {
		t.Fatalf("after ticks 2-4: callback invoked %d times, want 1", count)
	}

	// Tick 5: the fourth live 256-frame chunk completes the block.
	if ret := srv.tick(serverFrames); ret != 0 {
		t.Fatalf("tick 5 returned %d", ret)
	}
	if count != 2 {
		t.Fatalf("after tick 5: callback invoked %d times, want 2", count)
	}
}

func TestSubPeriodNonDivisible(t *testing.T) {
	// N_s=300, N_c=256 don't divide evenly, so construction prefills a
	// full client period (256) of silence. Tick 1 delivers 300 live
	// frames: the prefilled block fires immediately with zero live
	// frames consumed, then a second, fully-live 256-frame block fires
	// too, leaving 44 live frames buffered. Tick 2 adds another 300,
	// completing a third block (44 buffered + 212 live = 256) and
	// leaving 88 buffered.
	const serverFrames = 300
	const clientFrames = 256
	srv := &fakeServer{bufferSize: serverFrames}
	inPort := newFakePort("in", false, serverFrames)

	var count int
	cb := func(frames int, arg any) int { return 0 }
	bc, err := NewBufferConverter(srv, cb, nil, clientFrames, nil)
	if err != nil {
		t.Fatalf("NewBufferConverter: %v", err)
	}
	if bc.silencePrefill != 256 {
		t.Fatalf("silencePrefill = %d, want 256", bc.silencePrefill)
	}
	_, err = NewPortConverter(inPort, Float, false, bc, 0)
	if err != nil {
		t.Fatalf("NewPortConverter(in): %v", err)
	}
	bc.callback = func(frames int, arg any) int { count++; return 0 }

	if ret := srv.tick(serverFrames); ret != 0 {
		t.Fatalf("tick 1 returned %d", ret)
	}
	if count != 2 {
		t.Fatalf("after tick 1: callback invoked %d times, want 2", count)
	}
	if bc.inputs[0].shadowFrames != 44 {
		t.Fatalf("after tick 1: shadowFrames = %d, want 44", bc.inputs[0].shadowFrames)
	}

	if ret := srv.tick(serverFrames); ret != 0 {
		t.Fatalf("tick 2 returned %d", ret)
	}
	if count != 3 {
		t.Fatalf("after tick 2: callback invoked %d times, want 3", count)
	}
	if bc.inputs[0].shadowFrames != 88 {
		t.Fatalf("after tick 2: shadowFrames = %d, want 88", bc.inputs[0].shadowFrames)
	}
}

func TestOutputOnlyClientFiresOncePerTick(t *testing.T) {
	const period = 128
	srv := &fakeServer{bufferSize: period}
	outPort := newFakePort("out", true, period)

	var count int
	cb := func(frames int, arg any) int { return 0 }
	bc, err := NewBufferConverter(srv, cb, nil, period, nil)
	if err != nil {
		t.Fatalf("NewBufferConverter: %v", err)
	}
	outConv, err := NewPortConverter(outPort, Float, false, bc, 0)
	if err != nil {
		t.Fatalf("NewPortConverter(out): %v", err)
	}
	bc.callback = func(frames int, arg any) int {
		count++
		buf, err := outConv.Get(frames)
		if err != nil {
			return 1
		}
		clear(buf)
		return 0
	}

	for i := 0; i < 3; i++ {
		if ret := srv.tick(period); ret != 0 {
			t.Fatalf("tick %d returned %d", i, ret)
		}
	}
	if count != 3 {
		t.Fatalf("callback invoked %d times across 3 ticks, want 3", count)
	}
}

func TestBufferConverterCloseUnregisters(t *testing.T) {
	srv := &fakeServer{bufferSize: 256}
	cb := func(frames int, arg any) int { return 0 }
	// Construct successfully and confirm Close tears down the
	// registration.
	bc, err := NewBufferConverter(srv, cb, nil, 256, nil)
	if err != nil {
		t.Fatalf("NewBufferConverter: %v", err)
	}
	if srv.cb == nil {
		t.Fatal("server callback not registered")
	}
	if err := bc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if srv.cb != nil {
		t.Error("server callback still registered after Close")
	}
}

func TestNewBufferConverterRejectsNilArgs(t *testing.T) {
	srv := &fakeServer{bufferSize: 256}
	cb := func(frames int, arg any) int { return 0 }

	if _, err := NewBufferConverter(nil, cb, nil, 256, nil); err != ErrNilArg {
		t.Errorf("nil server: got %v, want ErrNilArg", err)
	}
	if _, err := NewBufferConverter(srv, nil, nil, 256, nil); err != ErrNilArg {
		t.Errorf("nil callback: got %v, want ErrNilArg", err)
	}
	if _, err := NewBufferConverter(srv, cb, nil, 0, nil); err == nil {
		t.Error("dstFrames=0: expected an error")
	}
}
