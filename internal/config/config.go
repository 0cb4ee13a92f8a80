// Package config loads and validates quill configuration.
//
// Configuration is YAML, decoded strictly (unknown keys are errors) over
// the defaults, then checked against an embedded CUE schema.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/quill/internal/pubsub"
	"github.com/roach88/quill/internal/store"
)

//go:embed schema.cue
var schemaCUE string

// Config is the effective configuration.
type Config struct {
	// Database is the SQLite DSN backing the store.
	Database string `yaml:"database" json:"database"`

	Log LogConfig `yaml:"log" json:"log"`
	Bus BusConfig `yaml:"bus" json:"bus"`
}

// LogConfig controls the slog handler installed by the CLI.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug | info | warn | error
	Format string `yaml:"format" json:"format"` // text | json
}

// BusConfig controls per-subscriber queues.
type BusConfig struct {
	Buffer       int    `yaml:"buffer" json:"buffer"`
	Backpressure string `yaml:"backpressure" json:"backpressure"` // drop_newest | drop_oldest
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Database: store.MemoryDSN,
		Log:      LogConfig{Level: "info", Format: "text"},
		Bus: BusConfig{
			Buffer:       pubsub.DefaultBuffer,
			Backpressure: string(pubsub.DropNewest),
		},
	}
}

// Load reads a YAML file. An empty path yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks c against the CUE schema.
func (c Config) Validate() error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	v := schema.LookupPath(cue.ParsePath("#Config")).Unify(ctx.Encode(c))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}
	return nil
}

// formatCUEError flattens a CUE error list into one error.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return fmt.Errorf("invalid config: %w", err)
	}

	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// LogLevel maps the configured level name to a slog level.
func (c Config) LogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the configured handler on w. verbose forces debug.
func (c Config) NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := c.LogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// BusOptions translates the bus section into pubsub options.
func (c Config) BusOptions() []pubsub.Option {
	return []pubsub.Option{
		pubsub.WithBuffer(c.Bus.Buffer),
		pubsub.WithBackpressure(pubsub.Backpressure(c.Bus.Backpressure)),
	}
}
