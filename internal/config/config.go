// Package config loads server configuration from environment variables.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/boothworks/eventdesk/internal/geo"
)

func init() {
	// Auto-load .env file if present (don't override existing env vars)
	loadDotEnv(".env")
}

func loadDotEnv(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		// Remove surrounding quotes
		if len(val) >= 2 && ((val[0] == '"' && val[len(val)-1] == '"') || (val[0] == '\'' && val[len(val)-1] == '\'')) {
			val = val[1 : len(val)-1]
		}
		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, val)
		}
	}
}

const (
	defaultPort           = "4600"
	defaultEnvironment    = "development"
	defaultMapsTimeout    = 10 * time.Second
	defaultDistanceUnit   = geo.UnitMiles
	defaultMigrationsPath = "./migrations"
)

// MapsConfig configures the distance-matrix client.
type MapsConfig struct {
	Enabled        bool
	APIKey         string
	BaseURL        string
	RequestTimeout time.Duration
}

type Config struct {
	Port           string
	DatabaseURL    string
	Environment    string
	MigrationsPath string
	DistanceUnit   geo.Unit
	Maps           MapsConfig
}

func Load() (Config, error) {
	cfg := Config{
		Port:        firstNonEmpty(strings.TrimSpace(os.Getenv("PORT")), defaultPort),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		Environment: resolveEnvironment(),
		MigrationsPath: firstNonEmpty(
			strings.TrimSpace(os.Getenv("MIGRATIONS_PATH")),
			defaultMigrationsPath,
		),
		Maps: MapsConfig{
			APIKey:  strings.TrimSpace(os.Getenv("MAPS_API_KEY")),
			BaseURL: strings.TrimSpace(os.Getenv("MAPS_BASE_URL")),
		},
	}

	unit, err := parseDistanceUnit("DISTANCE_UNIT", defaultDistanceUnit)
	if err != nil {
		return Config{}, err
	}
	cfg.DistanceUnit = unit

	mapsEnabled, err := parseBool("MAPS_ENABLED", cfg.Maps.APIKey != "")
	if err != nil {
		return Config{}, err
	}
	cfg.Maps.Enabled = mapsEnabled

	mapsTimeout, err := parseDuration("MAPS_REQUEST_TIMEOUT", defaultMapsTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.Maps.RequestTimeout = mapsTimeout

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.MigrationsPath == "" {
		return fmt.Errorf("MIGRATIONS_PATH must not be empty")
	}

	if !c.Maps.Enabled {
		return nil
	}

	if c.Maps.RequestTimeout <= 0 {
		return fmt.Errorf("MAPS_REQUEST_TIMEOUT must be greater than zero")
	}

	if !isNonDevelopment(c.Environment) {
		return nil
	}

	if c.Maps.APIKey == "" {
		return fmt.Errorf("MAPS_API_KEY is required when the maps integration is enabled in non-development environments")
	}

	return nil
}

func resolveEnvironment() string {
	return strings.ToLower(firstNonEmpty(
		strings.TrimSpace(os.Getenv("APP_ENV")),
		strings.TrimSpace(os.Getenv("ENVIRONMENT")),
		strings.TrimSpace(os.Getenv("GO_ENV")),
		defaultEnvironment,
	))
}

func isNonDevelopment(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "", "dev", "development", "local", "test":
		return false
	default:
		return true
	}
}

func parseDistanceUnit(name string, defaultValue geo.Unit) (geo.Unit, error) {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	if raw == "" {
		return defaultValue, nil
	}

	switch raw {
	case "miles", "mi":
		return geo.UnitMiles, nil
	case "km", "kilometers":
		return geo.UnitKilometers, nil
	default:
		return "", fmt.Errorf("%s must be miles or km", name)
	}
}

func parseBool(name string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return defaultValue, nil
	}

	switch strings.ToLower(raw) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s must be a boolean value", name)
	}
}

func parseDuration(name string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return defaultValue, nil
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", name, err)
	}

	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than zero", name)
	}

	return parsed, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
