// Package completionutils is the completion service utility package
package completionutils

import (
	"fmt"

	"github.com/papercomputeco/leonia/pkg/completion"
	"github.com/papercomputeco/leonia/pkg/completion/ollama"
	"github.com/papercomputeco/leonia/pkg/completion/openai"
)

type NewServiceOpts struct {
	ProviderType string
	TargetURL    string
	APIKey       string
}

// SupportedProviders lists the provider names accepted by NewService.
func SupportedProviders() []string {
	return []string{"ollama", "openai"}
}

func NewService(o *NewServiceOpts) (completion.Service, error) {
	switch o.ProviderType {
	case "ollama":
		return ollama.NewService(ollama.ServiceConfig{
			BaseURL: o.TargetURL,
		})
	case "openai":
		return openai.NewService(openai.ServiceConfig{
			BaseURL: o.TargetURL,
			APIKey:  o.APIKey,
		})
	default:
		return nil, fmt.Errorf("unsupported completion provider: %s", o.ProviderType)
	}
}
