package config

import (
	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	APIConfig
	StorageConfig
	TelemetryConfig
}

type mainConfig struct {
	EnvVars
	API
	Storage
	Telemetry
}

// New loads an optional .env file and the optional endpoints file named by CONFIG_FILE,
// then serves everything else from environment variables with defaults.
func New() (Config, error) {
	_ = godotenv.Load(GetEnv(dotEnvVar, ".env"))

	endpoints, err := LoadEndpointsFile(GetEnv(configFileVar, "config.json"))
	if err != nil {
		return nil, err
	}
	return mainConfig{API: API{endpoints: endpoints}}, nil
}
