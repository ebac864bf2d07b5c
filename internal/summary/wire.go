package summary

import (
	"github.com/google/wire"

	"grandpa/config"
)

// ProvideGenerator returns nil when no API key is configured, which makes
// the service use the template only.
func ProvideGenerator(cfg *config.Config) Generator {
	if cfg.SummaryAPIKey == "" {
		return nil
	}
	return NewOpenAIGenerator(cfg)
}

var Set = wire.NewSet(ProvideGenerator, NewService)
