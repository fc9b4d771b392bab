// Package eventstreamutils is the event publisher utility package
package eventstreamutils

import (
	"fmt"

	"github.com/papercomputeco/leonia/pkg/eventstream"
	"github.com/papercomputeco/leonia/pkg/eventstream/kafka"
	"github.com/papercomputeco/leonia/pkg/eventstream/nop"
)

type NewPublisherOpts struct {
	// Provider is "none" (or empty) or "kafka".
	Provider string
	Brokers  []string
	Topic    string
}

// SupportedProviders lists the provider names accepted by NewPublisher.
func SupportedProviders() []string {
	return []string{"none", "kafka"}
}

func NewPublisher(o *NewPublisherOpts) (eventstream.Publisher, error) {
	switch o.Provider {
	case "", "none":
		return nop.NewPublisher(), nil
	case "kafka":
		return kafka.NewPublisher(kafka.Config{
			Brokers: o.Brokers,
			Topic:   o.Topic,
		})
	default:
		return nil, fmt.Errorf("unsupported event provider: %s", o.Provider)
	}
}
