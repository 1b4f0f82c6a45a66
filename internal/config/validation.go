package config

import (
	"fmt"
	"strings"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.App.validate(); err != nil {
		return err
	}
	if err := c.Bridge.validate(); err != nil {
		return err
	}
	if err := c.Journal.validate(); err != nil {
		return err
	}
	return nil
}

func (a *AppConfig) validate() error {
	if strings.TrimSpace(a.HTTPAddr) == "" {
		return fmt.Errorf("app.http_addr cannot be empty")
	}
	return nil
}

func (b *BridgeConfig) validate() error {
	if strings.TrimSpace(b.PythonBin) == "" {
		return fmt.Errorf("bridge.python_bin cannot be empty")
	}
	if b.TimeoutSeconds <= 0 {
		return fmt.Errorf("bridge.timeout_seconds must be > 0")
	}
	if b.HardTimeoutGraceSeconds <= 0 {
		return fmt.Errorf("bridge.hard_timeout_grace_seconds must be > 0")
	}
	if b.MaxDiagBytes < 0 {
		return fmt.Errorf("bridge.max_diag_bytes must be >= 0")
	}
	if b.BreakerThreshold < 0 {
		return fmt.Errorf("bridge.breaker_threshold must be >= 0")
	}
	if b.BreakerCooldownSeconds <= 0 {
		return fmt.Errorf("bridge.breaker_cooldown_seconds must be > 0")
	}
	return nil
}

func (j *JournalConfig) validate() error {
	if j.DefaultDays <= 0 {
		return fmt.Errorf("journal.default_days must be > 0")
	}
	if j.BrokerDefaultDays <= 0 {
		return fmt.Errorf("journal.broker_default_days must be > 0")
	}
	if j.RefreshIntervalSeconds <= 0 {
		return fmt.Errorf("journal.refresh_interval_seconds must be > 0")
	}
	if j.TopN <= 0 {
		return fmt.Errorf("journal.top_n must be > 0")
	}
	return nil
}
