package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/zeusync/plantit/internal/core/observability/log"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned when a loaded configuration fails validation.
var ErrInvalid = errors.New("invalid configuration")

// Config is the application configuration. Values come from Default, then
// the YAML file, then PLANTIT_* environment variables.
type Config struct {
	// DataPath is the snapshot file. A .yaml or .yml extension selects YAML.
	DataPath string         `yaml:"data_path" env:"DATA_PATH"`
	Log      LogConfig      `yaml:"log" envPrefix:"LOG_"`
	Snapshot SnapshotConfig `yaml:"snapshot" envPrefix:"SNAPSHOT_"`
}

type LogConfig struct {
	Level       string   `yaml:"level" env:"LEVEL"`
	Encoding    string   `yaml:"encoding" env:"ENCODING"`
	// OutputPaths are zap sink URLs or file paths.
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS" envSeparator:","`
}

type SnapshotConfig struct {
	// DecodeWorkers bounds parallel record decoding on load; 0 decodes sequentially.
	DecodeWorkers  int  `yaml:"decode_workers" env:"DECODE_WORKERS"`
	WriteChecksum  bool `yaml:"write_checksum" env:"WRITE_CHECKSUM"`
	VerifyChecksum bool `yaml:"verify_checksum" env:"VERIFY_CHECKSUM"`
	Indent         int  `yaml:"indent" env:"INDENT"`
}

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "PLANTIT_"

func Default() *Config {
	return &Config{
		DataPath: "plants.json",
		Log: LogConfig{
			Level:       "info",
			Encoding:    "console",
			OutputPaths: []string{"stderr"},
		},
		Snapshot: SnapshotConfig{
			DecodeWorkers:  4,
			WriteChecksum:  true,
			VerifyChecksum: true,
			Indent:         2,
		},
	}
}

// Load builds the configuration. An empty path skips the file. environ
// replaces the process environment when non-nil.
func Load(path string, environ map[string]string) (*Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()

		if err = cfg.decodeYAML(f); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	if err := ParseEnv(cfg, environ); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadYAML overlays the YAML document read from r onto the defaults.
func LoadYAML(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := cfg.decodeYAML(r); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeYAML(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ParseEnv overlays PLANTIT_* environment variables onto target.
func ParseEnv(target *Config, environ map[string]string) error {
	opts := env.Options{Prefix: EnvPrefix, Environment: environ}
	if err := env.ParseWithOptions(target, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.DataPath == "" {
		return fmt.Errorf("%w: empty data path", ErrInvalid)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	switch c.Log.Encoding {
	case "json", "console":
	default:
		return fmt.Errorf("%w: log encoding %q", ErrInvalid, c.Log.Encoding)
	}
	if len(c.Log.OutputPaths) == 0 {
		return fmt.Errorf("%w: no log output paths", ErrInvalid)
	}
	if c.Snapshot.DecodeWorkers < 0 {
		return fmt.Errorf("%w: negative decode workers %d", ErrInvalid, c.Snapshot.DecodeWorkers)
	}
	if c.Snapshot.Indent < 0 || c.Snapshot.Indent > 8 {
		return fmt.Errorf("%w: indent %d outside 0..8", ErrInvalid, c.Snapshot.Indent)
	}
	return nil
}
