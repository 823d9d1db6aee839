package config_test

import (
	"testing"
	"time"

	"github.com/lendora/lendora/internal/config"
	"github.com/lendora/lendora/internal/infrastructure/hydra"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := config.LoadConfig()
		require.NoError(t, err)
		require.Equal(t, "ws://127.0.0.1:4001", cfg.NodeURL)
		require.Equal(t, 10*time.Second, cfg.ConnectionTimeout)
		require.Equal(t, 3, cfg.ReconnectAttempts)
		require.Equal(t, "auto", cfg.Mode)
		require.Equal(t, 60*time.Second, cfg.ContestationPeriod)
		require.Equal(t, 0.5, cfg.AcceptMargin)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("LENDORA_NODE_URL", "ws://hydra.example.com:4001")
		t.Setenv("LENDORA_MODE", "direct")
		t.Setenv("LENDORA_RECONNECT_ATTEMPTS", "5")

		cfg, err := config.LoadConfig()
		require.NoError(t, err)
		require.Equal(t, "ws://hydra.example.com:4001", cfg.NodeURL)
		require.Equal(t, "direct", cfg.Mode)
		require.Equal(t, 5, cfg.ReconnectAttempts)

		hydraCfg := cfg.HydraConfig()
		require.Equal(t, hydra.ModeDirectOnly, hydraCfg.Mode)
		require.Equal(t, cfg.NodeURL, hydraCfg.NodeURL)
	})

	t.Run("invalid mode", func(t *testing.T) {
		t.Setenv("LENDORA_MODE", "mock")

		_, err := config.LoadConfig()
		require.Error(t, err)
	})
}
