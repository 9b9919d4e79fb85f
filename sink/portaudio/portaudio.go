// Package portaudio implements a real-device engine.Sink over
// github.com/gordonklaus/portaudio: device resolution and stream
// open/start/stop/close sequencing.
package portaudio

import (
	"errors"
	"sync"

	gopa "github.com/gordonklaus/portaudio"
)

// Device describes an available output device.
type Device struct {
	ID   int
	Name string
}

// Sink drives a single PortAudio output stream. One process opens at most
// one Sink.
type Sink struct {
	mu sync.Mutex

	deviceID int
	stream   *gopa.Stream
	buf      []float32
	burst    int

	initialized bool
}

var ErrNotAllocated = errors.New("portaudio: sink not allocated")

// New returns a Sink bound to outputDeviceID, or the system default output
// device when outputDeviceID is negative.
func New(outputDeviceID int) *Sink {
	return &Sink{deviceID: outputDeviceID}
}

// ListOutputDevices enumerates available PortAudio output devices. Callers
// must have already called Initialize (via a Sink's AllocVoice, or directly)
// before this succeeds.
func ListOutputDevices() ([]Device, error) {
	devices, err := gopa.Devices()
	if err != nil {
		return nil, err
	}
	var out []Device
	for i, d := range devices {
		if d.MaxOutputChannels > 0 {
			out = append(out, Device{ID: i, Name: d.Name})
		}
	}
	return out, nil
}

// AllocVoice initializes PortAudio, opens a stereo output stream sized for
// mixRate/updateHz frames per burst, and reports that burst size back.
func (s *Sink) AllocVoice(mixRate, updateHz int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := gopa.Initialize(); err != nil {
		return 0, err
	}
	s.initialized = true

	devices, err := gopa.Devices()
	if err != nil {
		return 0, err
	}
	outDev, err := resolveDevice(devices, s.deviceID)
	if err != nil {
		return 0, err
	}

	s.burst = mixRate / updateHz
	s.buf = make([]float32, s.burst*2) // stereo interleaved

	params := gopa.StreamParameters{
		Output: gopa.StreamDeviceParameters{
			Device:   outDev,
			Channels: 2,
			Latency:  outDev.DefaultLowOutputLatency,
		},
		SampleRate:      float64(mixRate),
		FramesPerBuffer: s.burst,
	}
	stream, err := gopa.OpenStream(params, s.buf)
	if err != nil {
		return 0, err
	}
	s.stream = stream
	return s.burst, nil
}

func resolveDevice(devices []*gopa.DeviceInfo, idx int) (*gopa.DeviceInfo, error) {
	if idx >= 0 && idx < len(devices) {
		return devices[idx], nil
	}
	return gopa.DefaultOutputDevice()
}

// StartVoice starts the underlying stream.
func (s *Sink) StartVoice() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return ErrNotAllocated
	}
	return s.stream.Start()
}

// StopVoice stops the underlying stream; this unblocks any in-flight Write.
func (s *Sink) StopVoice() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return ErrNotAllocated
	}
	return s.stream.Stop()
}

// Write copies frameCount interleaved stereo frames into the stream buffer
// and blocks until PortAudio has consumed them.
func (s *Sink) Write(frames []float32, frameCount int) error {
	s.mu.Lock()
	stream := s.stream
	buf := s.buf
	s.mu.Unlock()
	if stream == nil {
		return ErrNotAllocated
	}
	copy(buf, frames[:frameCount*2])
	return stream.Write()
}

// FreeVoice closes the stream and releases its resources.
func (s *Sink) FreeVoice() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return nil
	}
	err := s.stream.Close()
	s.stream = nil
	return err
}

// Close releases the stream (if still open) and terminates PortAudio.
func (s *Sink) Close() error {
	s.FreeVoice()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return nil
	}
	s.initialized = false
	return gopa.Terminate()
}
