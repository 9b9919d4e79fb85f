package engine

import (
	"github.com/faun-audio/faun/internal/pcmbuf"
	"github.com/faun-audio/faun/internal/voice"
)

// progMachine adapts one tick's program evaluation onto Engine state,
// implementing program.Machine. exec identifies which execution unit is
// currently being evaluated so Source-selection state stays per-program.
type progMachine struct {
	eng  *Engine
	exec int
}

func (m *progMachine) selected() *voice.Source {
	return m.eng.sourceAt(m.eng.progSel[m.exec])
}

func (m *progMachine) Source(i int) { m.eng.progSel[m.exec] = i }

func (m *progMachine) Queue(b int) {
	src := m.selected()
	buf := m.eng.bufferAt(b)
	if src == nil || buf == nil {
		return
	}
	if err := src.Queue(buf); err != nil {
		m.eng.log.Warn("program queue overflow", "exec_index", m.exec, "err", err)
	}
}

func (m *progMachine) PlayBuf(b, mode int) {
	src := m.selected()
	buf := m.eng.bufferAt(b)
	if src == nil || buf == nil {
		return
	}
	serial := m.eng.mintSerial()
	src.StartPlay(serial, []*pcmbuf.Buffer{buf}, mode, src.PlayVolume, 0, 0, false)
}

func (m *progMachine) StartStream(mode int) {
	si := m.eng.progSel[m.exec]
	st := m.eng.streamAt(si)
	if st == nil {
		return
	}
	st.Mode = mode
	st.Start()
}

func (m *progMachine) SetVol(u int) {
	if src := m.selected(); src != nil {
		src.PlayVolume = float32(u) / 255
	}
}

func (m *progMachine) SetFade(u int) {
	if src := m.selected(); src != nil {
		src.FadePeriod = float64(u) / 10
	}
}

func (m *progMachine) SetEnd(u int) {
	src := m.selected()
	if src == nil {
		return
	}
	if u == 0 {
		src.EndPos = voice.Never
	} else {
		src.EndPos = int64(u) * 4410
	}
}

func (m *progMachine) LoopOn() {
	if src := m.selected(); src != nil {
		src.Mode |= voice.PlayLoop
	}
}

func (m *progMachine) LoopOff() {
	if src := m.selected(); src != nil {
		src.Mode &^= voice.PlayLoop
	}
}

func (m *progMachine) FadeIn() {
	src := m.selected()
	if src == nil {
		return
	}
	src.GainL, src.GainR = 0, 0
	src.TargetL, src.TargetR = src.PlayVolume, src.PlayVolume
	src.SetFadeDeltas()
}

func (m *progMachine) FadeOut() {
	if src := m.selected(); src != nil {
		src.DoFadeOut()
	}
}

func (m *progMachine) VolLR(l, r int) {
	if src := m.selected(); src != nil {
		src.SetGain(float32(l)/255, float32(r)/255)
	}
}

func (m *progMachine) Pan(l, r int) {
	src := m.selected()
	if src == nil {
		return
	}
	src.TargetL, src.TargetR = float32(l)/255, float32(r)/255
	src.SetFadeDeltas()
}

func (m *progMachine) Signal() {
	m.eng.postSignal(SignalProg, m.eng.progSel[m.exec], 0)
}

func (m *progMachine) Capture() {
	// Debug hook; no core semantics.
}
