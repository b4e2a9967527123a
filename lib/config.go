package lib

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the settings that may come from a YAML file. Command-line
// flags are applied on top of it by the caller.
type Config struct {
	Transcoder      string   `yaml:"ffmpeg"`
	OutputExtension string   `yaml:"output_extension"`
	Extensions      []string `yaml:"extensions"`
	Parallelism     int      `yaml:"parallelism"`
	Recursive       bool     `yaml:"recursive"`
}

func DefaultConfig() Config {
	return Config{
		Transcoder:      DefaultTranscoder,
		OutputExtension: DefaultOutputExtension,
		Extensions:      append([]string(nil), DefaultVideoExtensions...),
		Parallelism:     runtime.NumCPU(),
		Recursive:       true,
	}
}

// LoadConfig reads path over the defaults. Keys missing from the file keep
// their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	slog.Debug("Loaded config", "path", path, "ffmpeg", cfg.Transcoder, "extensions", len(cfg.Extensions))
	return cfg, nil
}

// Validate checks the settings and clamps parallelism to the CPU count.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Transcoder) == "" {
		return fmt.Errorf("%w: ffmpeg binary must not be empty", ErrInvalidInput)
	}
	ext := strings.TrimSpace(c.OutputExtension)
	if ext == "" || ext == "." {
		return fmt.Errorf("%w: output extension must not be empty", ErrInvalidInput)
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	c.OutputExtension = strings.ToLower(ext)

	if len(c.Extensions) == 0 {
		c.Extensions = append([]string(nil), DefaultVideoExtensions...)
	}
	for _, e := range c.Extensions {
		if strings.EqualFold(strings.TrimPrefix(strings.TrimSpace(e), "."), strings.TrimPrefix(c.OutputExtension, ".")) {
			return fmt.Errorf("%w: output extension %s is also an input extension", ErrInvalidInput, c.OutputExtension)
		}
	}

	if clamped := ClampWorkers(c.Parallelism); clamped != c.Parallelism {
		slog.Debug("Parallelism adjusted", "requested", c.Parallelism, "using", clamped)
		c.Parallelism = clamped
	}
	return nil
}
