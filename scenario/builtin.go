package scenario

import (
	"embed"
	"io/fs"
	"path"
	"sort"

	"github.com/c360/tickfifo/errors"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Builtin returns the bundled scenarios sorted by name. They are parsed on
// every call so callers may modify the result.
func Builtin() ([]*Scenario, error) {
	entries, err := fs.ReadDir(builtinFS, "builtin")
	if err != nil {
		return nil, errors.WrapFatal(err, "Scenario", "Builtin", "read embedded scenarios")
	}

	var out []*Scenario
	for _, e := range entries {
		data, err := builtinFS.ReadFile(path.Join("builtin", e.Name()))
		if err != nil {
			return nil, errors.WrapFatal(err, "Scenario", "Builtin", "read "+e.Name())
		}
		sc, err := Parse(data, FormatYAML)
		if err != nil {
			return nil, errors.Wrap(err, "Scenario", "Builtin", e.Name())
		}
		out = append(out, sc)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Lookup returns the builtin scenario with the given name.
func Lookup(name string) (*Scenario, error) {
	all, err := Builtin()
	if err != nil {
		return nil, err
	}
	for _, sc := range all {
		if sc.Name == name {
			return sc, nil
		}
	}
	return nil, errors.WrapInvalid(errors.ErrInvalidData, "Scenario", "Lookup", "unknown builtin "+name)
}
