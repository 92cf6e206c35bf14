package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	t.Setenv(EnvHTTPPort, "")
	t.Setenv(EnvConfigPath, "")

	cfg := NewConfig()
	assert.Equal(t, ":18080", cfg.Server.HTTPPort)
	assert.Equal(t, 3, cfg.Embedding.MaxAttempts)
	assert.Equal(t, 1000, cfg.Embedding.CacheCapacity)
	assert.Equal(t, 100, cfg.Embedding.CacheKeyPrefixLen)
	assert.Equal(t, 3, cfg.Retrieval.FileTopK)
	assert.Equal(t, 1, cfg.Retrieval.SummaryTopK)
	assert.Equal(t, 5, cfg.Retrieval.RecentWindow)
	assert.Equal(t, 6, cfg.Retrieval.MinMessages)
	assert.Equal(t, 1000, cfg.Chunking.MaxChunkSize)
	assert.Equal(t, 100, cfg.Chunking.Overlap)
	assert.Equal(t, 10, cfg.Summarize.Interval)
	assert.Equal(t, 10, cfg.Summarize.Window)
}

func TestNewConfig_EnvOverridePort(t *testing.T) {
	t.Setenv(EnvHTTPPort, ":28080")
	t.Setenv(EnvConfigPath, "")

	cfg := NewConfig()
	assert.Equal(t, ":28080", cfg.Server.HTTPPort)
}

func TestNewConfig_FileOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  http_port: ":38080"
embedding:
  model: "custom-embed"
  max_attempts: 5
  retry_backoff: 2s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv(EnvConfigPath, path)
	t.Setenv(EnvHTTPPort, "")

	cfg := NewConfig()
	assert.Equal(t, ":38080", cfg.Server.HTTPPort)
	assert.Equal(t, "custom-embed", cfg.Embedding.Model)
	assert.Equal(t, 5, cfg.Embedding.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Embedding.RetryBackoff)
	// 文件未覆盖的字段保留默认值
	assert.Equal(t, 1000, cfg.Embedding.CacheCapacity)
}

func TestNewConfig_EnvPortBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  http_port: \":38080\"\n"), 0644))

	t.Setenv(EnvConfigPath, path)
	t.Setenv(EnvHTTPPort, ":48080")

	cfg := NewConfig()
	assert.Equal(t, ":48080", cfg.Server.HTTPPort)
}
