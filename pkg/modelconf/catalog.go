package modelconf

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed catalog.toml
var builtinCatalog []byte

// catalogFile is the on-disk layout of a model catalog.
type catalogFile struct {
	Models map[string]Configuration `toml:"models"`
}

// ParseCatalogTOML parses raw catalog TOML into name -> Configuration.
func ParseCatalogTOML(data []byte) (map[string]Configuration, error) {
	var cf catalogFile
	if err := toml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parsing model catalog TOML: %w", err)
	}
	return cf.Models, nil
}

// Builtin returns the configurations shipped with leonia.
func Builtin() map[string]Configuration {
	confs, err := ParseCatalogTOML(builtinCatalog)
	if err != nil {
		panic("invalid built-in model catalog: " + err.Error())
	}
	return confs
}

// NewBuiltinRegistry builds a registry from the built-in catalog only.
func NewBuiltinRegistry() *Registry {
	r, err := NewRegistry(Builtin())
	if err != nil {
		panic("invalid built-in model catalog: " + err.Error())
	}
	return r
}

// LoadRegistry builds a registry from the built-in catalog merged with the
// catalog file at path. Entries in the file replace built-in entries with the
// same (normalised) name. An empty path yields the built-in registry.
func LoadRegistry(path string) (*Registry, error) {
	confs := make(map[string]Configuration)
	for name, conf := range Builtin() {
		confs[NormalizeName(name)] = conf
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("model catalog %s does not exist", path)
			}
			return nil, fmt.Errorf("reading model catalog: %w", err)
		}

		user, err := ParseCatalogTOML(data)
		if err != nil {
			return nil, err
		}
		for name, conf := range user {
			confs[NormalizeName(name)] = conf
		}
	}

	return NewRegistry(confs)
}
