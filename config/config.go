package config

import (
	"encoding/json"
	"os"
)

// Config holds runtime configuration for sampling and batch processing.
// Fields may be loaded from a JSON file and overridden by command-line flags.
type Config struct {
	Debug bool `json:"debug"`

	// SamplingRate is the realtime sampling rate in Hz. Zero means "use
	// the video's native frame rate". It may be lower than the native
	// rate for deliberate decimation.
	SamplingRate float64 `json:"sampling_rate"`

	// LogEveryFrames controls how often batch progress is logged.
	LogEveryFrames int `json:"log_every_frames"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug:          false,
		SamplingRate:   0,
		LogEveryFrames: 100,
	}
}

// Validate clamps/normalizes values to safe ranges.
func (c *Config) Validate() error {
	if c.SamplingRate < 0 {
		c.SamplingRate = 0
	}
	if c.LogEveryFrames <= 0 {
		c.LogEveryFrames = 100
	}
	return nil
}

// Load attempts to read configuration from the given JSON file path. If the
// file does not exist it returns DefaultConfig(). On JSON error it returns
// defaults with the error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	if err := dec.Decode(cfg); err != nil {
		return cfg, err
	}
	_ = cfg.Validate()
	return cfg, nil
}

// Save writes the configuration to the given path in JSON format.
func (c *Config) Save(path string) error {
	_ = c.Validate()
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
