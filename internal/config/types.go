package config

import (
	"strings"
	"time"
)

// Config 是 tradeplus journal hub 的主配置载体。
type Config struct {
	App     AppConfig     `toml:"app"`
	Bridge  BridgeConfig  `toml:"bridge"`
	Journal JournalConfig `toml:"journal"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
}

// BridgeConfig 描述外部分析进程的调用方式与超时。
type BridgeConfig struct {
	PythonBin               string `toml:"python_bin"`
	ScriptDir               string `toml:"script_dir"` // 注入 sys.path 的 hub 目录
	Workdir                 string `toml:"workdir"`    // 进程工作目录（.env 所在处）
	TimeoutSeconds          int    `toml:"timeout_seconds"`
	HardTimeoutGraceSeconds int    `toml:"hard_timeout_grace_seconds"`
	MaxDiagBytes            int    `toml:"max_diag_bytes"`

	// 熔断：连续 spawn/超时失败 breaker_threshold 次后，冷却期内不再起进程。
	// 0 表示关闭。
	BreakerThreshold       int `toml:"breaker_threshold"`
	BreakerCooldownSeconds int `toml:"breaker_cooldown_seconds"`
}

// SoftTimeout 返回交给进程监督的软超时。
func (b BridgeConfig) SoftTimeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// HardGrace 返回硬超时相对软超时的宽限。
func (b BridgeConfig) HardGrace() time.Duration {
	return time.Duration(b.HardTimeoutGraceSeconds) * time.Second
}

// BreakerCooldown 返回熔断冷却期。
func (b BridgeConfig) BreakerCooldown() time.Duration {
	return time.Duration(b.BreakerCooldownSeconds) * time.Second
}

// JournalConfig 控制回看窗口、刷新节奏与缓存策略。
type JournalConfig struct {
	DefaultDays            int  `toml:"default_days"`
	BrokerDefaultDays      int  `toml:"broker_default_days"`
	RefreshIntervalSeconds int  `toml:"refresh_interval_seconds"`
	ServeStaleOnError      bool `toml:"serve_stale_on_error"` // 失败时是否回退缓存（参考行为：否）
	MonotonicCache         bool `toml:"monotonic_cache"`      // 是否拒绝时间戳更旧的覆盖（参考行为：否）
	TopN                   int  `toml:"top_n"`
}

// RefreshInterval 返回后台刷新周期。
func (j JournalConfig) RefreshInterval() time.Duration {
	return time.Duration(j.RefreshIntervalSeconds) * time.Second
}

// keySet 用于追踪配置文件中显式设置的字段路径。
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault 描述单个字段的默认值设置规则。
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
