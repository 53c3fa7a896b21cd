package extractor

import (
	"fmt"
	"sync"

	"medrecon/internal/config"
	"medrecon/internal/port"
)

// ProviderFactory builds a TableExtractor from a provider config.
type ProviderFactory func(cfg *config.ProviderConfig) (port.TableExtractor, error)

var (
	mu        sync.RWMutex
	providers = map[string]ProviderFactory{}
)

// RegisterProvider makes a provider available by name. Provider packages
// call it from init.
func RegisterProvider(name string, factory ProviderFactory) {
	mu.Lock()
	defer mu.Unlock()
	providers[name] = factory
}

// New creates the extractor for a single provider config.
func New(cfg *config.ProviderConfig) (port.TableExtractor, error) {
	mu.RLock()
	factory, ok := providers[cfg.Provider]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown extractor provider: %s", cfg.Provider)
	}
	return factory(cfg)
}

// NewFromConfig builds the configured provider chain. A single provider is
// returned as is; several are wrapped in a FallbackChain.
func NewFromConfig(cfg *config.ExtractorConfig) (port.TableExtractor, error) {
	slots := cfg.Providers()
	if len(slots) == 0 {
		return nil, fmt.Errorf("no extractor provider configured")
	}

	extractors := make([]port.TableExtractor, 0, len(slots))
	names := make([]string, 0, len(slots))
	for _, pc := range slots {
		ex, err := New(pc)
		if err != nil {
			return nil, err
		}
		extractors = append(extractors, ex)
		names = append(names, pc.Provider)
	}

	if len(extractors) == 1 {
		return extractors[0], nil
	}
	return NewFallbackChain(extractors, names), nil
}
