package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 9091, cfg.Server.MetricsPort)
	assert.Equal(t, 100, cfg.Server.HistorySize)
	assert.Equal(t, float64(20), cfg.Server.RateLimitRPS)
	assert.Empty(t, cfg.Server.APIKeys)

	assert.Equal(t, 1, cfg.Engine.MaxConcurrency)
	assert.Zero(t, cfg.Engine.NodeTimeout)

	assert.Equal(t, "echo", cfg.LLM.Provider)
	assert.Equal(t, 2*time.Minute, cfg.LLM.Timeout)
	assert.Zero(t, cfg.LLM.RateLimitRPS)

	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, []string{"stderr"}, cfg.Log.OutputPaths)

	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "flowcanvas", cfg.Metrics.Namespace)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 20, cfg.Store.MaxOpenConns)
}

func TestDefaultConfig_ReturnsFreshCopies(t *testing.T) {
	a := DefaultConfig()
	a.Log.OutputPaths[0] = "stdout"
	assert.Equal(t, "stderr", DefaultConfig().Log.OutputPaths[0])
}
