package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 5000.0, cfg.SearchRadiusMeters)
	assert.Equal(t, 90*time.Second, cfg.OfferTTL.Std())
	assert.InDelta(t, 1.0, cfg.Weights.Affinity+cfg.Weights.Distance+cfg.Weights.Rating, 1e-9)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SEARCH_RADIUS_METERS", "2500")
	t.Setenv("OFFER_TTL", "45s")
	t.Setenv("WEIGHT_AFFINITY", "0.8")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2500.0, cfg.SearchRadiusMeters)
	assert.Equal(t, 45*time.Second, cfg.OfferTTL.Std())
	assert.Equal(t, 0.8, cfg.Weights.Affinity)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadYAMLFileThenEnvWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"search_radius_meters: 1200\noffer_ttl: 30s\nweights:\n  affinity: 0.6\n  distance: 0.3\n  rating: 0.1\n",
	), 0o600))
	t.Setenv("RUNMATCH_CONFIG", path)
	t.Setenv("OFFER_TTL", "20s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1200.0, cfg.SearchRadiusMeters)
	assert.Equal(t, 20*time.Second, cfg.OfferTTL.Std(), "env overrides the file")
	assert.Equal(t, 0.6, cfg.Weights.Affinity)
}

func TestValidateRejectsBadTunables(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero radius", func(c *Config) { c.SearchRadiusMeters = 0 }},
		{"zero ttl", func(c *Config) { c.OfferTTL = 0 }},
		{"negative weight", func(c *Config) { c.Weights.Rating = -1 }},
		{"all-zero weights", func(c *Config) { c.Weights = Weights{} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
