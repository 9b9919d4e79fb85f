/*
Package faun implements an embeddable realtime audio engine: one
background worker mixes a fixed pool of sources and decode-ahead streams
into periodic bursts handed to a Sink, under control of a command/signal
API safe to call from any goroutine.

A process calls Startup once, supplying a Sink (sink/portaudio for real
playback, sink/memsink for tests) and optionally a Config and Logger, then
drives playback through PlaySource/PlayStream/Control/SetParameter/Pan and
observes completion through PollSignals/WaitSignal/IsPlaying. Shutdown
stops the worker and releases the sink.
*/
package faun
