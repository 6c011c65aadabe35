package config

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

// Loads the configuration of the machine running the suite and checks that the
// API base URL it points at is usable. Skipped in -short mode.
func TestLoadConfig_Environment_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping environment config test in -short mode")
	}
	cfg, err := LoadConfig()
	require.NoError(t, err)

	u, err := url.Parse(cfg.BaseURL)
	require.NoError(t, err)
	require.Contains(t, []string{"http", "https"}, u.Scheme, "FINTRACK_API_BASE_URL needs a scheme")
	require.NotEmpty(t, u.Host)
}
