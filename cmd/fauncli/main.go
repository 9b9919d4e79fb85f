// Command fauncli is a minimal demo: load one audio file, play it once,
// and wait for the engine to report completion.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	faun "github.com/faun-audio/faun"
	"github.com/faun-audio/faun/decode/flac"
	"github.com/faun-audio/faun/decode/sfx"
	"github.com/faun-audio/faun/decode/vorbis"
	"github.com/faun-audio/faun/decode/wav"
	"github.com/faun-audio/faun/internal/voice"
	"github.com/faun-audio/faun/sink/portaudio"
)

func main() {
	var (
		path       = pflag.StringP("file", "f", "", "audio file to play (.wav, .ogg, .flac or .sfx)")
		loop       = pflag.BoolP("loop", "l", false, "loop playback")
		outputDev  = pflag.IntP("output-device", "o", -1, "PortAudio output device index (-1 = default)")
		verbose    = pflag.BoolP("verbose", "v", false, "debug logging")
	)
	pflag.Parse()

	logger := log.New(os.Stderr)
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	if *path == "" {
		fmt.Fprintln(os.Stderr, "usage: fauncli -f <file.wav|file.ogg|file.flac|file.sfx> [-l] [-o device]")
		os.Exit(2)
	}

	sink := portaudio.New(*outputDev)
	if err := faun.Startup(faun.WithSink(sink), faun.WithLogger(logger)); err != nil {
		logger.Fatal("startup failed", "err", err)
	}
	defer faun.Shutdown()

	f, err := os.Open(*path)
	if err != nil {
		logger.Fatal("open file failed", "err", err)
	}
	defer f.Close()

	dec, meta, err := openDecoder(f, *path, faun.DefaultConfig().MixRate)
	if err != nil {
		logger.Fatal("decode failed", "err", err)
	}

	mode := faun.PlayOnce | voice.SignalDone
	if *loop {
		mode = faun.PlayLoop | voice.SignalDone
	}

	duration := faun.LoadBuffer(0, dec, meta)
	if duration == 0 {
		logger.Fatal("buffer load produced no audio")
	}
	logger.Info("loaded", "file", *path, "seconds", duration)

	pid := faun.PlaySource(0, []int{0}, mode, 1.0, 1.0, false)
	logger.Info("playing", "pid", pid)

	for {
		sig := faun.WaitSignal()
		if sig.Kind == faun.SignalDone {
			logger.Info("done")
			return
		}
	}
}

func openDecoder(f *os.File, path string, mixRate int) (faun.Decoder, faun.Metadata, error) {
	switch {
	case strings.HasSuffix(path, ".ogg"):
		return vorbis.Open(f, mixRate)
	case strings.HasSuffix(path, ".flac"):
		return flac.Open(f, mixRate)
	case strings.HasSuffix(path, ".sfx"):
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, faun.Metadata{}, err
		}
		tones, err := sfx.Parse(data)
		if err != nil {
			return nil, faun.Metadata{}, err
		}
		return sfx.Open(mixRate, tones), faun.Metadata{Channels: 2, Rate: mixRate}, nil
	default:
		return wav.Open(f, mixRate)
	}
}
