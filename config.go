package faun

import "github.com/faun-audio/faun/internal/engine"

// DefaultConfig returns sane defaults: 44,100 Hz mix rate, 50 Hz tick rate,
// a modest pool of buffers/sources/streams/programs.
func DefaultConfig() Config { return engine.DefaultConfig() }

// LoadConfig reads a YAML config file, applying DefaultConfig for any field
// the file omits.
func LoadConfig(path string) (Config, error) { return engine.LoadConfig(path) }
