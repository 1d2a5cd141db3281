package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

const (
	appNameVar    = "APP_NAME"
	envVar        = "ENV"
	logLevelVar   = "LOG_LEVEL"
	folderEnvVar  = "FOLDER"
	timezoneVar   = "TZ_NAME"
	dotEnvVar     = "DOTENV_FILE"
	configFileVar = "CONFIG_FILE"
)

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() zerolog.Level
	GetDataFolder() string
	GetLocation() *time.Location
}

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Condo Console")
}

func (EnvVars) GetEnv() string {
	return GetEnv(envVar, "DEV")
}

// GetLogLevel falls back to debug in DEV and info elsewhere
func (e EnvVars) GetLogLevel() zerolog.Level {
	def := zerolog.InfoLevel
	if e.GetEnv() == "DEV" {
		def = zerolog.DebugLevel
	}
	level, err := zerolog.ParseLevel(os.Getenv(logLevelVar))
	if err != nil || level == zerolog.NoLevel {
		return def
	}
	return level
}

func (EnvVars) GetDataFolder() string {
	return GetEnv(folderEnvVar, "./data")
}

// GetLocation is the zone reservation timestamps are interpreted in. The backend exchanges
// local times without an offset, so client and backend must agree on it.
func (EnvVars) GetLocation() *time.Location {
	name := os.Getenv(timezoneVar)
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvInt(envVar string, defaultValue int) int {
	raw := os.Getenv(envVar)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}

func GetEnvDuration(envVar string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(envVar)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return d
}

func GetEnvBool(envVar string, defaultValue bool) bool {
	raw := os.Getenv(envVar)
	if raw == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return defaultValue
	}
	return b
}
