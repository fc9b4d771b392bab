package modelconf

import "errors"

// ErrConfigurationNotFound matches any ConfigurationNotFoundError via errors.Is.
var ErrConfigurationNotFound = errors.New("configuration not found")

// ConfigurationNotFoundError is returned when a configuration name is not in
// the registry.
type ConfigurationNotFoundError struct {
	Name string
}

func (e ConfigurationNotFoundError) Error() string {
	if e.Name == "" {
		return ErrConfigurationNotFound.Error()
	}
	return ErrConfigurationNotFound.Error() + ": " + e.Name
}

func (e ConfigurationNotFoundError) Is(target error) bool {
	return target == ErrConfigurationNotFound
}
