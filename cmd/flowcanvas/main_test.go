package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/flowcanvas/config"
)

func TestDispatch(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"no args", nil, exitUsage, "", "Usage:"},
		{"unknown", []string{"frobnicate"}, exitUsage, "", "Unknown command: frobnicate"},
		{"help", []string{"help"}, exitOK, "Usage:", ""},
		{"version", []string{"version"}, exitOK, "FlowCanvas " + Version, ""},
		{"run without file", []string{"run"}, exitUsage, "", "-f is required"},
		{"validate without file", []string{"validate"}, exitUsage, "", "-f is required"},
		{"bad flag", []string{"run", "--nope"}, exitUsage, "", "flag provided but not defined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := dispatch(context.Background(), tt.args, &stdout, &stderr)
			assert.Equal(t, tt.wantCode, code)
			if tt.wantStdout != "" {
				assert.Contains(t, stdout.String(), tt.wantStdout)
			}
			if tt.wantStderr != "" {
				assert.Contains(t, stderr.String(), tt.wantStderr)
			}
		})
	}
}

func TestRunHealthCheck(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	unhealthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer unhealthy.Close()

	var stdout, stderr bytes.Buffer
	assert.Equal(t, exitOK, runHealthCheck([]string{"--addr", healthy.URL}, &stdout, &stderr))
	assert.Equal(t, "OK\n", stdout.String())

	stderr.Reset()
	assert.Equal(t, exitFailed, runHealthCheck([]string{"--addr", unhealthy.URL}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "status 503")
}

func TestNewLogger(t *testing.T) {
	logger, level := newLogger(config.LogConfig{Level: "warn", Format: "console", OutputPaths: []string{"stderr"}})
	assert.NotNil(t, logger)
	assert.Equal(t, zapcore.WarnLevel, level.Level())
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))

	level.SetLevel(zapcore.DebugLevel)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	// 无法识别的级别回落到 info
	_, level = newLogger(config.LogConfig{Level: "loud"})
	assert.Equal(t, zapcore.InfoLevel, level.Level())
}
