package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/c360/tickfifo/errors"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "TICKFIFO"

//go:embed schema/config.schema.json
var schemaJSON []byte

var schemaLoader = gojsonschema.NewBytesLoader(schemaJSON)

// Loader handles configuration loading with layers and overrides
type Loader struct {
	layers     []string
	validation bool
	env        bool
	lookup     func(string) (string, bool)
}

// NewLoader creates a new configuration loader. Validation and
// environment overrides are on by default.
func NewLoader() *Loader {
	return &Loader{
		validation: true,
		env:        true,
		lookup:     os.LookupEnv,
	}
}

// AddLayer adds a configuration file layer. Later layers override earlier ones.
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// EnableValidation enables or disables configuration validation
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// EnableEnv enables or disables environment overrides
func (l *Loader) EnableEnv(enable bool) {
	l.env = enable
}

// Load loads and merges all configuration layers on top of Default().
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	for _, path := range l.layers {
		data, err := safeReadFile(path)
		if err != nil {
			return nil, errors.WrapInvalid(err, "Loader", "Load", fmt.Sprintf("read %s", path))
		}
		if err := decodeLayer(data, cfg); err != nil {
			return nil, errors.WrapInvalid(err, "Loader", "Load", fmt.Sprintf("decode %s", path))
		}
	}

	if l.env {
		if err := applyEnv(cfg, l.lookup); err != nil {
			return nil, err
		}
	}

	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Load reads a single JSON file, applies environment overrides and
// validates the result. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	l := NewLoader()
	if path != "" {
		l.AddLayer(path)
	}
	return l.Load()
}

// Parse decodes JSON config bytes over the defaults without touching the
// environment.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := decodeLayer(data, cfg); err != nil {
		return nil, errors.WrapInvalid(err, "Config", "Parse", "decode")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidateSchema checks raw JSON against the embedded config schema.
func ValidateSchema(data []byte) error {
	if err := validateJSONDepth(data); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err)
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrParsingFailed, err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
		}
		return fmt.Errorf("%w: %s", errors.ErrInvalidConfig, strings.Join(msgs, "; "))
	}

	return nil
}

// decodeLayer validates one layer and overlays it onto cfg. Fields absent
// from the layer keep their current values.
func decodeLayer(data []byte, cfg *Config) error {
	if err := ValidateSchema(data); err != nil {
		return err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrParsingFailed, err)
	}
	if err := parseDurations(raw); err != nil {
		return err
	}

	processed, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrParsingFailed, err)
	}
	if err := json.Unmarshal(processed, cfg); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrParsingFailed, err)
	}
	return nil
}

// parseDurations converts duration strings to nanoseconds for json unmarshaling
func parseDurations(data map[string]any) error {
	nats, ok := data["nats"].(map[string]any)
	if !ok {
		return nil
	}
	wait, ok := nats["reconnect_wait"].(string)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(wait)
	if err != nil {
		return fmt.Errorf("%w: nats.reconnect_wait: %v", errors.ErrInvalidConfig, err)
	}
	nats["reconnect_wait"] = d.Nanoseconds()
	return nil
}

// ApplyEnv applies TICKFIFO_* environment overrides to the config.
func (c *Config) ApplyEnv() error {
	return applyEnv(c, os.LookupEnv)
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool, error) {
		key := EnvPrefix + "_" + name
		val, ok := lookup(key)
		if !ok || val == "" {
			return "", false, nil
		}
		if err := validateEnvVar(key, val); err != nil {
			return "", false, errors.WrapInvalid(err, "Config", "ApplyEnv", key)
		}
		return val, true, nil
	}
	getInt := func(name string, dst *int) error {
		val, ok, err := get(name)
		if err != nil || !ok {
			return err
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return errors.WrapInvalid(fmt.Errorf("%w: %s_%s=%q", errors.ErrInvalidConfig, EnvPrefix, name, val),
				"Config", "ApplyEnv", "parse integer")
		}
		*dst = n
		return nil
	}

	if err := getInt("WIDTH", &cfg.FIFO.Width); err != nil {
		return err
	}
	if err := getInt("DEPTH", &cfg.FIFO.Depth); err != nil {
		return err
	}
	if err := getInt("METRICS_PORT", &cfg.Metrics.Port); err != nil {
		return err
	}
	if err := getInt("WORKERS", &cfg.Runner.Workers); err != nil {
		return err
	}

	val, ok, err := get("NATS_URL")
	if err != nil {
		return err
	}
	if ok {
		cfg.NATS.URL = val
	}

	val, ok, err = get("NATS_SUBJECT")
	if err != nil {
		return err
	}
	if ok {
		cfg.NATS.Subject = val
	}

	return nil
}

// Save writes the config as indented JSON with owner-only permissions.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c.export(), "", "  ")
	if err != nil {
		return errors.Wrap(err, "Config", "Save", "marshal")
	}
	if err := safeWriteFile(path, append(data, '\n')); err != nil {
		return errors.WrapInvalid(err, "Config", "Save", fmt.Sprintf("write %s", path))
	}
	return nil
}

// export renders durations as strings so the file round-trips through the
// schema the way a hand-written one would.
func (c *Config) export() map[string]any {
	var m map[string]any
	data, _ := json.Marshal(c)
	_ = json.Unmarshal(data, &m)
	if nats, ok := m["nats"].(map[string]any); ok {
		nats["reconnect_wait"] = c.NATS.ReconnectWait.String()
	}
	return m
}
