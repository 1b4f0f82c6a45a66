package config

import (
	"fmt"
	"strings"

	"github.com/jfrc10101010/tradeplus/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Watch 监听主配置文件变更，重载成功后回调 apply。
// 用于运行期调整日志级别之类的轻量项；include 的子文件不在监听范围。
func Watch(path string, apply func(*Config)) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("config watch requires path")
	}
	if apply == nil {
		return fmt.Errorf("config watch requires apply callback")
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config watch read failed: %w", err)
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		cfg, err := Load(path)
		if err != nil {
			logger.Errorf("config reload failed: %v", err)
			return
		}
		logger.Infof("config reloaded (%s)", evt.Name)
		apply(cfg)
	})
	v.WatchConfig()
	return nil
}
