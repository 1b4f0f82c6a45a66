package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfigFile(t, t.TempDir(), "config.yaml", `
app:
  env: dev
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.App.HTTPAddr)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, "python", cfg.Bridge.PythonBin)
	assert.Equal(t, "hub", cfg.Bridge.ScriptDir)
	assert.Equal(t, 30*time.Second, cfg.Bridge.SoftTimeout())
	assert.Equal(t, 5*time.Second, cfg.Bridge.HardGrace())
	assert.Equal(t, 30, cfg.Journal.DefaultDays)
	assert.Equal(t, 7, cfg.Journal.BrokerDefaultDays)
	assert.Equal(t, 30*time.Second, cfg.Journal.RefreshInterval())
	assert.Equal(t, 10, cfg.Journal.TopN)
	assert.False(t, cfg.Journal.ServeStaleOnError)
	assert.False(t, cfg.Journal.MonotonicCache)
}

func TestLoadExplicitValues(t *testing.T) {
	path := writeConfigFile(t, t.TempDir(), "config.yaml", `
app:
  http_addr: ":9090"
  log_level: debug
bridge:
  python_bin: python3
  script_dir: /opt/hub
  timeout_seconds: 60
  hard_timeout_grace_seconds: 10
journal:
  default_days: 90
  serve_stale_on_error: true
  monotonic_cache: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.App.HTTPAddr)
	assert.Equal(t, "python3", cfg.Bridge.PythonBin)
	assert.Equal(t, 60*time.Second, cfg.Bridge.SoftTimeout())
	assert.Equal(t, 90, cfg.Journal.DefaultDays)
	assert.True(t, cfg.Journal.ServeStaleOnError)
	assert.True(t, cfg.Journal.MonotonicCache)
	// 未写的字段依旧拿默认值。
	assert.Equal(t, 7, cfg.Journal.BrokerDefaultDays)
}

func TestLoadIncludeMerge(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "base.yaml", `
app:
  log_level: debug
bridge:
  python_bin: python3
`)
	path := writeConfigFile(t, dir, "config.yaml", `
include:
  - base.yaml
app:
  http_addr: ":9090"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	// include 先加载，主文件覆盖。
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, "python3", cfg.Bridge.PythonBin)
	assert.Equal(t, ":9090", cfg.App.HTTPAddr)
}

func TestLoadIncludeOnlyOneLevel(t *testing.T) {
	// 被包含文件自己的 include 不再展开（也因此不会出现 include 环）。
	dir := t.TempDir()
	writeConfigFile(t, dir, "deep.yaml", "app:\n  log_level: error\n")
	writeConfigFile(t, dir, "base.yaml", "include:\n  - deep.yaml\napp:\n  env: prod\n")
	path := writeConfigFile(t, dir, "config.yaml", "include:\n  - base.yaml\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.App.Env)
	// deep.yaml 没被加载，log_level 保持默认。
	assert.Equal(t, "info", cfg.App.LogLevel)
}

func TestLoadMissingInclude(t *testing.T) {
	path := writeConfigFile(t, t.TempDir(), "config.yaml", "include:\n  - nope.yaml\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.yaml")
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name:    "negative timeout",
			content: "bridge:\n  timeout_seconds: -1\n",
			errMsg:  "timeout_seconds",
		},
		{
			name:    "zero refresh interval rejected when explicit",
			content: "journal:\n  refresh_interval_seconds: -5\n",
			errMsg:  "refresh_interval_seconds",
		},
		{
			name:    "top_n must be positive",
			content: "journal:\n  top_n: -1\n",
			errMsg:  "top_n",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := writeConfigFile(t, t.TempDir(), "config.yaml", c.content)
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), c.errMsg)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadEmptyPath(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
}

func TestExplicitZeroNotOverwritten(t *testing.T) {
	// 显式写 0 视为用户设置，不再套默认值，由校验拦下。
	path := writeConfigFile(t, t.TempDir(), "config.yaml", "bridge:\n  timeout_seconds: 0\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout_seconds")
}
