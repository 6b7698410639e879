// Package config handles exporter configuration loading.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// OutputFormat selects the mesh document format written per draw call.
type OutputFormat string

const (
	FormatFbxAscii  OutputFormat = "ascii"
	FormatFbxBinary OutputFormat = "binary"
	FormatGltf      OutputFormat = "gltf"
)

// Config holds all exporter settings.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Capture CaptureConfig `yaml:"capture"`
	Export  ExportConfig  `yaml:"export"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds the web server settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// CaptureConfig holds the capture dump source settings.
type CaptureConfig struct {
	Path string `yaml:"path"`
}

// ExportConfig holds per-export behavior settings.
type ExportConfig struct {
	OutputDir       string       `yaml:"output_dir"`
	Format          OutputFormat `yaml:"format"`
	FlipWinding     bool         `yaml:"flip_winding"`
	ContinueOnError bool         `yaml:"continue_on_error"`
	SaveTextures    bool         `yaml:"save_textures"`
	DumpConstants   bool         `yaml:"dump_constants"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8000",
		},
		Export: ExportConfig{
			OutputDir:       "export",
			Format:          FormatFbxAscii,
			ContinueOnError: true,
			SaveTextures:    true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a yaml file on top of the defaults. An
// empty path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read config %q", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "Failed to parse config %q", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enum-valued fields.
func (cfg *Config) Validate() error {
	switch cfg.Export.Format {
	case FormatFbxAscii, FormatFbxBinary, FormatGltf:
		return nil
	default:
		return errors.Errorf("Unknown export format %q", cfg.Export.Format)
	}
}
