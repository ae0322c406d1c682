package scenario

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/c360/tickfifo/errors"
	"github.com/c360/tickfifo/pkg/fifo"
)

// Op is the request a step presents to the buffer.
type Op string

// Supported step operations.
const (
	OpReset     Op = "reset"
	OpWrite     Op = "write"
	OpRead      Op = "read"
	OpWriteRead Op = "write_read"
	OpIdle      Op = "idle"
	// OpTick presents the step's explicit reset, write and read signals.
	OpTick Op = "tick"
)

// Inputs returns the tick inputs for the step.
func (s Step) Inputs() (fifo.Inputs, error) {
	data := s.Data
	switch s.Op {
	case OpTick:
		return fifo.Inputs{Reset: s.Reset, WriteRequest: s.Write, WriteData: data, ReadRequest: s.Read}, nil
	case OpReset:
		return fifo.Inputs{Reset: true}, nil
	case OpWrite:
		return fifo.Inputs{WriteRequest: true, WriteData: data}, nil
	case OpRead:
		return fifo.Inputs{ReadRequest: true}, nil
	case OpWriteRead:
		return fifo.Inputs{WriteRequest: true, WriteData: data, ReadRequest: true}, nil
	case OpIdle:
		return fifo.Inputs{}, nil
	default:
		return fifo.Inputs{}, errors.WrapInvalid(errors.ErrUnknownOperation, "Step", "Inputs",
			fmt.Sprintf("operation %q", string(s.Op)))
	}
}

// Format selects the decoder used by Parse.
type Format string

// Supported file formats.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Expect lists the outputs checked after a step's final tick. Nil fields are
// not checked.
type Expect struct {
	Data          *uint64 `yaml:"data,omitempty" json:"data,omitempty"`
	Count         *int    `yaml:"count,omitempty" json:"count,omitempty"`
	Full          *bool   `yaml:"full,omitempty" json:"full,omitempty"`
	Empty         *bool   `yaml:"empty,omitempty" json:"empty,omitempty"`
	WriteAccepted *bool   `yaml:"write_accepted,omitempty" json:"write_accepted,omitempty"`
	ReadAccepted  *bool   `yaml:"read_accepted,omitempty" json:"read_accepted,omitempty"`
}

// Step is one or more identical ticks. Reset, Write and Read are only
// read by the tick op.
type Step struct {
	Op     Op      `yaml:"op" json:"op"`
	Data   uint64  `yaml:"data,omitempty" json:"data,omitempty"`
	Reset  bool    `yaml:"reset,omitempty" json:"reset,omitempty"`
	Write  bool    `yaml:"write,omitempty" json:"write,omitempty"`
	Read   bool    `yaml:"read,omitempty" json:"read,omitempty"`
	Repeat int     `yaml:"repeat,omitempty" json:"repeat,omitempty"`
	Expect *Expect `yaml:"expect,omitempty" json:"expect,omitempty"`
}

func (s Step) ticks() int {
	if s.Repeat <= 0 {
		return 1
	}
	return s.Repeat
}

// Scenario is a named tick sequence with expectations. Zero Width or Depth
// take the fifo defaults.
type Scenario struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Width       int    `yaml:"width,omitempty" json:"width,omitempty"`
	Depth       int    `yaml:"depth,omitempty" json:"depth,omitempty"`
	Steps       []Step `yaml:"steps" json:"steps"`
}

// Config returns the buffer geometry the scenario runs against.
func (s *Scenario) Config() fifo.Config {
	cfg := fifo.DefaultConfig()
	if s.Width != 0 {
		cfg.Width = s.Width
	}
	if s.Depth != 0 {
		cfg.Depth = s.Depth
	}
	return cfg
}

// Validate checks the scenario can be run.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "Scenario", "Validate", "name is required")
	}
	if err := s.Config().Validate(); err != nil {
		return errors.WrapInvalid(err, "Scenario", "Validate", fmt.Sprintf("scenario %q geometry", s.Name))
	}
	if len(s.Steps) == 0 {
		return errors.WrapInvalid(errors.ErrInvalidData, "Scenario", "Validate",
			fmt.Sprintf("scenario %q has no steps", s.Name))
	}
	for i, step := range s.Steps {
		if _, err := step.Inputs(); err != nil {
			return errors.WrapInvalid(err, "Scenario", "Validate", fmt.Sprintf("step %d", i+1))
		}
		if step.Repeat < 0 {
			return errors.WrapInvalid(errors.ErrInvalidData, "Scenario", "Validate",
				fmt.Sprintf("step %d: repeat must not be negative", i+1))
		}
	}
	return nil
}

// Inputs expands the steps into one input per tick.
func (s *Scenario) Inputs() ([]fifo.Inputs, error) {
	var out []fifo.Inputs
	for i, step := range s.Steps {
		in, err := step.Inputs()
		if err != nil {
			return nil, errors.Wrap(err, "Scenario", "Inputs", fmt.Sprintf("expand step %d", i+1))
		}
		for n := 0; n < step.ticks(); n++ {
			out = append(out, in)
		}
	}
	return out, nil
}

// Parse decodes and validates a scenario.
func Parse(data []byte, format Format) (*Scenario, error) {
	var sc Scenario
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&sc); err != nil {
			return nil, errors.WrapInvalid(errors.ErrParsingFailed, "Scenario", "Parse", "decode yaml: "+err.Error())
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&sc); err != nil {
			return nil, errors.WrapInvalid(errors.ErrParsingFailed, "Scenario", "Parse", "decode json: "+err.Error())
		}
	default:
		return nil, errors.WrapInvalid(errors.ErrInvalidData, "Scenario", "Parse",
			fmt.Sprintf("unsupported format %q", string(format)))
	}

	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Load reads a scenario file. The format follows the extension: .json is
// JSON, anything else is YAML.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Scenario", "Load", "read file "+path)
	}

	format := FormatYAML
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = FormatJSON
	}

	sc, err := Parse(data, format)
	if err != nil {
		return nil, errors.Wrap(err, "Scenario", "Load", path)
	}
	return sc, nil
}
