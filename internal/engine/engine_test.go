package engine

import (
	"testing"
	"time"

	"github.com/faun-audio/faun/internal/pcmbuf"
	"github.com/faun-audio/faun/internal/voice"
)

type fakeSink struct {
	writes     int
	lastFrames []float32
	burst      int
}

func (f *fakeSink) AllocVoice(mixRate, updateHz int) (int, error) {
	f.burst = mixRate / updateHz
	return f.burst, nil
}
func (f *fakeSink) Write(frames []float32, frameCount int) error {
	f.writes++
	f.lastFrames = append([]float32(nil), frames...)
	return nil
}
func (f *fakeSink) StartVoice() error { return nil }
func (f *fakeSink) StopVoice() error  { return nil }
func (f *fakeSink) FreeVoice() error  { return nil }
func (f *fakeSink) Close() error      { return nil }

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SourceLimit = 4
	cfg.StreamLimit = 2
	cfg.ProgLimit = 2
	cfg.BufferLimit = 8
	cfg.UpdateHz = 100 // short period so tests don't wait long
	return cfg
}

func TestNewEngineAllocatesPools(t *testing.T) {
	sink := &fakeSink{}
	e, err := New(testConfig(), sink, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if len(e.sources) != 4 || len(e.streams) != 2 || len(e.progs) != 2 {
		t.Fatalf("pool sizes = %d/%d/%d, want 4/2/2", len(e.sources), len(e.streams), len(e.progs))
	}
}

func TestStartDispatchesPlayAndTicks(t *testing.T) {
	sink := &fakeSink{}
	e, _ := New(testConfig(), sink, nil)
	if err := e.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer e.Shutdown()

	buf := pcmbuf.New(pcmbuf.FormatF32, 2, e.cfg.MixRate, 4)
	buf.SetUsed(4)
	for i := 0; i < 4; i++ {
		f := buf.Frame(i)
		f[0], f[1] = 0.5, 0.5
	}
	e.buffers[0] = buf

	p := e.PlaySource(0, []int{0}, voice.PlayOnce, 1.0, 1.0, false)
	if !e.IsPlaying(p) {
		t.Fatal("IsPlaying() = false immediately after PlaySource (should be observable synchronously)")
	}

	time.Sleep(50 * time.Millisecond)
	if sink.writes == 0 {
		t.Fatal("expected at least one sink.Write after ticks ran")
	}
}

func TestSuspendStopsTicking(t *testing.T) {
	sink := &fakeSink{}
	e, _ := New(testConfig(), sink, nil)
	if err := e.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer e.Shutdown()

	e.Suspend(true)
	time.Sleep(20 * time.Millisecond)
	before := sink.writes
	time.Sleep(50 * time.Millisecond)
	after := sink.writes
	if after != before {
		t.Fatalf("sink.writes grew from %d to %d while suspended", before, after)
	}
}

func TestShutdownJoinsWorker(t *testing.T) {
	sink := &fakeSink{}
	e, _ := New(testConfig(), sink, nil)
	if err := e.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	e.Shutdown()
	// A second Shutdown must be a no-op, not a panic/hang.
	e.Shutdown()
}

func TestProgramDispatchesSourceSelection(t *testing.T) {
	sink := &fakeSink{}
	e, _ := New(testConfig(), sink, nil)

	// Longer than one 441-frame tick, so the source is still playing after it.
	buf := pcmbuf.New(pcmbuf.FormatF32, 2, e.cfg.MixRate, 882)
	buf.SetUsed(882)
	e.buffers[1] = buf

	code := []byte{
		byte(0x02), 0, // Source 0 (OpSource)
		byte(0x04), 1, byte(voice.PlayOnce), // PlayBuf 1, mode PlayOnce (OpPlayBuf)
		byte(0x00), // End
	}
	e.progs[0].Reset()
	e.progs[0].Append(code)
	e.progs[0].Start()

	e.tick()

	if e.sources[0].State != voice.StatePlaying {
		t.Fatalf("State = %v, want StatePlaying after program PlayBuf", e.sources[0].State)
	}
}

func TestProgramFramedUploadStartsOnlyOnEnd(t *testing.T) {
	sink := &fakeSink{}
	e, _ := New(testConfig(), sink, nil)

	// Longer than one 441-frame tick, so the source is still playing after it.
	buf := pcmbuf.New(pcmbuf.FormatF32, 2, e.cfg.MixRate, 882)
	buf.SetUsed(882)
	e.buffers[1] = buf

	beg := []byte{byte(0x02), 0} // Source 0 (OpSource)
	mid := []byte{byte(0x04), 1, byte(voice.PlayOnce)} // PlayBuf 1, mode PlayOnce
	end := []byte{byte(0x00)} // End

	e.dispatch(Command{Kind: CmdProgramBeg, ExecIndex: 0, Bytecode: beg})
	if e.progs[0].Running {
		t.Fatal("program Running after ProgramBeg, want false until ProgramEnd")
	}

	e.dispatch(Command{Kind: CmdProgramMid, ExecIndex: 0, Bytecode: mid})
	if e.progs[0].Running {
		t.Fatal("program Running after ProgramMid, want false until ProgramEnd")
	}

	e.dispatch(Command{Kind: CmdProgramEnd, ExecIndex: 0, Bytecode: end})
	if !e.progs[0].Running {
		t.Fatal("program not Running after ProgramEnd, want true")
	}
	if want := len(beg) + len(mid) + len(end); e.progs[0].Len != want {
		t.Fatalf("assembled code length = %d, want %d", e.progs[0].Len, want)
	}

	e.tick()

	if e.sources[0].State != voice.StatePlaying {
		t.Fatalf("State = %v, want StatePlaying after framed program PlayBuf", e.sources[0].State)
	}
}
