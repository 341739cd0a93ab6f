package wasip1

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
module_name: wasi_sched
logger_cache_size: 8
poll_interval: 25ms
log_level: debug
`))
	require.NoError(t, err)
	assert.Equal(t, Config{
		ModuleName:      "wasi_sched",
		LoggerCacheSize: 8,
		PollInterval:    25 * time.Millisecond,
		LogLevel:        "debug",
	}, cfg)
}

func TestParseConfigRejectsBadValues(t *testing.T) {
	for name, doc := range map[string]string{
		"negative cache size": "logger_cache_size: -1",
		"negative interval":   "poll_interval: -1s",
		"unknown level":       "log_level: chatty",
		"malformed yaml":      "logger_cache_size: [",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(doc))
			require.Error(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "host.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logger_cache_size: 2\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.LoggerCacheSize)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestWithConfig(t *testing.T) {
	h := NewHost(WithConfig(Config{ModuleName: "wasi_sched", LoggerCacheSize: 3, PollInterval: time.Millisecond}))
	assert.Equal(t, "wasi_sched", h.ModuleName())
	assert.Equal(t, 3, h.loggerCacheSize)
	assert.Equal(t, time.Millisecond, h.pollInterval)
}
