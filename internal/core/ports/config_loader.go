package ports

import "go.trai.ch/sieve/internal/core/domain"

// ConfigLoader defines the interface for loading the project configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load searches for sieve.yaml from cwd upwards and returns the resolved configuration.
	// When no file exists, the defaults rooted at cwd are returned.
	Load(cwd string) (*domain.Config, error)
}
