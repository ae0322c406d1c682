package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/c360/tickfifo/errors"
)

// Limits on untrusted input. A tickfifo config is a few hundred bytes.
const (
	maxConfigSize = 1 << 20
	maxJSONDepth  = 32
	maxEnvVarLen  = 4096
	maxPathLen    = 4096
)

func validateConfigPath(path string) error {
	switch {
	case path == "":
		return fmt.Errorf("%w: empty config path", errors.ErrInvalidConfig)
	case len(path) > maxPathLen:
		return fmt.Errorf("%w: config path longer than %d bytes", errors.ErrInvalidConfig, maxPathLen)
	case strings.ContainsRune(path, 0):
		return fmt.Errorf("%w: null byte in config path", errors.ErrInvalidConfig)
	case filepath.Ext(path) != ".json":
		return fmt.Errorf("%w: config file must end in .json: %s", errors.ErrInvalidConfig, path)
	}
	return nil
}

// safeReadFile reads a regular file no larger than maxConfigSize.
func safeReadFile(path string) ([]byte, error) {
	if err := validateConfigPath(path); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrConfigNotFound, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", errors.ErrInvalidConfig, path)
	}
	if info.Size() > maxConfigSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", errors.ErrInvalidConfig, path, info.Size(), maxConfigSize)
	}

	return os.ReadFile(path)
}

// safeWriteFile writes data readable by the owner only.
func safeWriteFile(path string, data []byte) error {
	if err := validateConfigPath(path); err != nil {
		return err
	}
	if len(data) > maxConfigSize {
		return fmt.Errorf("%w: %d bytes exceeds limit %d", errors.ErrInvalidConfig, len(data), maxConfigSize)
	}
	return os.WriteFile(path, data, 0o600)
}

func validateEnvVar(key, value string) error {
	if len(value) > maxEnvVarLen {
		return fmt.Errorf("%w: %s longer than %d bytes", errors.ErrInvalidConfig, key, maxEnvVarLen)
	}
	if strings.ContainsRune(value, 0) {
		return fmt.Errorf("%w: null byte in %s", errors.ErrInvalidConfig, key)
	}
	return nil
}

// validateJSONDepth walks the token stream and fails on nesting deeper than
// maxJSONDepth or on malformed input.
func validateJSONDepth(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	depth := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			if depth != 0 {
				return fmt.Errorf("unexpected end of JSON at depth %d", depth)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("malformed JSON: %w", err)
		}

		delim, ok := tok.(json.Delim)
		if !ok {
			continue
		}
		switch delim {
		case '{', '[':
			depth++
			if depth > maxJSONDepth {
				return fmt.Errorf("JSON nesting deeper than %d", maxJSONDepth)
			}
		case '}', ']':
			depth--
		}
	}
}
