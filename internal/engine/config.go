package engine

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the engine's startup limits plus the
// mix rate and tick cadence. Loadable from YAML the same way
// doismellburning-samoyed loads its settings file, or built with defaults
// and overridden by functional options at the façade layer.
type Config struct {
	BufferLimit int    `yaml:"bufferLimit"`
	SourceLimit int    `yaml:"sourceLimit"`
	StreamLimit int    `yaml:"streamLimit"`
	ProgLimit   int    `yaml:"progLimit"`
	AppName     string `yaml:"appName"`
	MixRate     int    `yaml:"mixRate"`
	UpdateHz    int    `yaml:"updateHz"`
}

// Hard ceilings on Config's pool sizes.
const (
	MaxBufferLimit = 256
	MaxSourceLimit = 32
	MaxStreamLimit = 6
	MaxProgLimit   = 16
)

// DefaultConfig returns sane defaults: 44,100 Hz mix rate, 50 Hz tick rate,
// a modest pool of buffers/sources/streams/programs.
func DefaultConfig() Config {
	return Config{
		BufferLimit: 64,
		SourceLimit: 16,
		StreamLimit: 4,
		ProgLimit:   8,
		AppName:     "faun",
		MixRate:     44100,
		UpdateHz:    50,
	}
}

// LoadConfig reads a YAML config file, applying DefaultConfig for any field
// the file omits.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate clamps limits to the documented hard ceilings and fills in
// zeroed fields from DefaultConfig.
func (c *Config) Validate() {
	def := DefaultConfig()
	if c.BufferLimit <= 0 {
		c.BufferLimit = def.BufferLimit
	} else if c.BufferLimit > MaxBufferLimit {
		c.BufferLimit = MaxBufferLimit
	}
	if c.SourceLimit <= 0 {
		c.SourceLimit = def.SourceLimit
	} else if c.SourceLimit > MaxSourceLimit {
		c.SourceLimit = MaxSourceLimit
	}
	if c.StreamLimit <= 0 {
		c.StreamLimit = def.StreamLimit
	} else if c.StreamLimit > MaxStreamLimit {
		c.StreamLimit = MaxStreamLimit
	}
	if c.ProgLimit <= 0 {
		c.ProgLimit = def.ProgLimit
	} else if c.ProgLimit > MaxProgLimit {
		c.ProgLimit = MaxProgLimit
	}
	if c.AppName == "" {
		c.AppName = def.AppName
	}
	if c.MixRate <= 0 {
		c.MixRate = def.MixRate
	}
	if c.UpdateHz <= 0 {
		c.UpdateHz = def.UpdateHz
	}
}
