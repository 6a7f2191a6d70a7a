package config

import (
	"testing"
	"time"

	"github.com/boothworks/eventdesk/internal/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("GO_ENV", "")
	t.Setenv("DISTANCE_UNIT", "")
	t.Setenv("MAPS_ENABLED", "")
	t.Setenv("MAPS_API_KEY", "")
	t.Setenv("MAPS_REQUEST_TIMEOUT", "")
	t.Setenv("MIGRATIONS_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "4600", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, geo.UnitMiles, cfg.DistanceUnit)
	assert.Equal(t, "./migrations", cfg.MigrationsPath)
	assert.False(t, cfg.Maps.Enabled, "maps default off without an API key")
	assert.Equal(t, 10*time.Second, cfg.Maps.RequestTimeout)
}

func TestLoadMapsEnabledByAPIKey(t *testing.T) {
	t.Setenv("MAPS_ENABLED", "")
	t.Setenv("MAPS_API_KEY", "test-key")
	t.Setenv("MAPS_REQUEST_TIMEOUT", "3s")
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Maps.Enabled)
	assert.Equal(t, "test-key", cfg.Maps.APIKey)
	assert.Equal(t, 3*time.Second, cfg.Maps.RequestTimeout)
}

func TestLoadDistanceUnit(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("MAPS_API_KEY", "")
	t.Setenv("MAPS_ENABLED", "")

	t.Setenv("DISTANCE_UNIT", "km")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, geo.UnitKilometers, cfg.DistanceUnit)

	t.Setenv("DISTANCE_UNIT", "mi")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, geo.UnitMiles, cfg.DistanceUnit)

	t.Setenv("DISTANCE_UNIT", "furlongs")
	_, err = Load()
	require.Error(t, err)
}

func TestLoadInvalidBool(t *testing.T) {
	t.Setenv("MAPS_ENABLED", "definitely")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAPS_ENABLED")
}

func TestValidateMapsKeyRequiredInProduction(t *testing.T) {
	cfg := Config{
		Environment:    "production",
		MigrationsPath: "./migrations",
		Maps: MapsConfig{
			Enabled:        true,
			RequestTimeout: time.Second,
		},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAPS_API_KEY")

	cfg.Maps.APIKey = "prod-key"
	require.NoError(t, cfg.Validate())
}

func TestIsNonDevelopment(t *testing.T) {
	cases := []struct {
		env    string
		expect bool
	}{
		{"", false},
		{"dev", false},
		{"development", false},
		{"local", false},
		{"test", false},
		{"production", true},
		{"staging", true},
		{"PRODUCTION", true},
	}

	for _, tc := range cases {
		if got := isNonDevelopment(tc.env); got != tc.expect {
			t.Fatalf("isNonDevelopment(%q) = %v, want %v", tc.env, got, tc.expect)
		}
	}
}
