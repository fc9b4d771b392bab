package modelconf

import (
	"errors"
	"sort"
	"strings"
)

// Registry maps configuration names to their parameters. It is read-only after
// construction and safe for concurrent use.
type Registry struct {
	confs       map[string]Configuration
	names       []string
	defaultName string
}

// NewRegistry validates confs and builds a registry from them. Names are
// normalised (trimmed, upper-cased) so lookups are case-insensitive.
func NewRegistry(confs map[string]Configuration) (*Registry, error) {
	if len(confs) == 0 {
		return nil, errors.New("no model configurations provided")
	}

	r := &Registry{
		confs: make(map[string]Configuration, len(confs)),
	}

	for name, conf := range confs {
		key := NormalizeName(name)
		if key == "" {
			return nil, errors.New("model configuration with empty name")
		}

		conf.Name = key
		conf.applyDefaults()
		if err := conf.validate(); err != nil {
			return nil, err
		}

		r.confs[key] = conf
		r.names = append(r.names, key)
	}
	sort.Strings(r.names)

	if _, ok := r.confs[TestingConfiguration]; ok {
		r.defaultName = TestingConfiguration
	} else {
		r.defaultName = r.names[0]
	}

	return r, nil
}

// NormalizeName trims and upper-cases a configuration name.
func NormalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// SameName reports whether a and b name the same configuration.
func SameName(a, b string) bool {
	return NormalizeName(a) == NormalizeName(b)
}

// Get returns the configuration for name or a ConfigurationNotFoundError.
func (r *Registry) Get(name string) (Configuration, error) {
	conf, ok := r.confs[NormalizeName(name)]
	if !ok {
		return Configuration{}, ConfigurationNotFoundError{Name: name}
	}
	if conf.Seed != nil {
		seed := *conf.Seed
		conf.Seed = &seed
	}
	return conf, nil
}

// Has reports whether name is a known configuration.
func (r *Registry) Has(name string) bool {
	_, ok := r.confs[NormalizeName(name)]
	return ok
}

// Names returns the sorted configuration names.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Default returns the configuration used when none is selected: the testing
// configuration when present, otherwise the first name in sort order.
func (r *Registry) Default() Configuration {
	return r.confs[r.defaultName]
}

// Describe returns the "key: value" listing for name.
func (r *Registry) Describe(name string) (string, error) {
	conf, err := r.Get(name)
	if err != nil {
		return "", err
	}
	return conf.Describe(), nil
}
