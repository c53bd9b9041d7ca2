package env

import (
	"os"
	"strings"

	"github.com/ekisa-team/chatterbox-serve/internal/envvar"
)

// Environment is the deployment environment the process runs in.
type Environment string

const (
	// Development enables human-friendly, verbose logging.
	Development Environment = "development"

	// Production enables structured JSON logging.
	Production Environment = "production"
)

// FromEnv reads the environment from CHATTERBOX_ENV, defaulting to development.
func FromEnv() Environment {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(envvar.ChatterboxEnv))) {
	case "prod", "production":
		return Production
	default:
		return Development
	}
}

// IsProduction reports whether e is the production environment.
func (e Environment) IsProduction() bool {
	return e == Production
}
