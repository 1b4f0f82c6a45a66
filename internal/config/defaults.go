package config

import "strings"

// 默认值常量
const (
	defaultAppEnv             = "dev"
	defaultAppLogLevel        = "info"
	defaultAppHTTPAddr        = ":8080"
	defaultAppLogPath         = ""
	defaultBridgePythonBin    = "python"
	defaultBridgeScriptDir    = "hub"
	defaultBridgeWorkdir      = "."
	defaultBridgeTimeout      = 30
	defaultBridgeHardGrace    = 5
	defaultBridgeDiagBytes    = 500
	defaultBreakerCooldown    = 60
	defaultJournalDays        = 30
	defaultJournalBrokerDays  = 7
	defaultJournalRefreshSecs = 30
	defaultJournalTopN        = 10
)

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Bridge.applyDefaults(keys)
	c.Journal.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
	)
}

func (b *BridgeConfig) applyDefaults(keys keySet) {
	if b == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("bridge.python_bin", &b.PythonBin, defaultBridgePythonBin),
		stringFieldDefault("bridge.script_dir", &b.ScriptDir, defaultBridgeScriptDir),
		stringFieldDefault("bridge.workdir", &b.Workdir, defaultBridgeWorkdir),
		intFieldDefault("bridge.timeout_seconds", &b.TimeoutSeconds, defaultBridgeTimeout),
		intFieldDefault("bridge.hard_timeout_grace_seconds", &b.HardTimeoutGraceSeconds, defaultBridgeHardGrace),
		intFieldDefault("bridge.max_diag_bytes", &b.MaxDiagBytes, defaultBridgeDiagBytes),
		intFieldDefault("bridge.breaker_cooldown_seconds", &b.BreakerCooldownSeconds, defaultBreakerCooldown),
	)
	// breaker_threshold 的零值表示熔断关闭，不套默认值。
}

func (j *JournalConfig) applyDefaults(keys keySet) {
	if j == nil {
		return
	}
	applyFieldDefaults(keys,
		intFieldDefault("journal.default_days", &j.DefaultDays, defaultJournalDays),
		intFieldDefault("journal.broker_default_days", &j.BrokerDefaultDays, defaultJournalBrokerDays),
		intFieldDefault("journal.refresh_interval_seconds", &j.RefreshIntervalSeconds, defaultJournalRefreshSecs),
		intFieldDefault("journal.top_n", &j.TopN, defaultJournalTopN),
	)
	// serve_stale_on_error / monotonic_cache 的零值就是参考行为，不需要默认值规则。
}

// Helper functions

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func intFieldDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil && *target == 0 },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
