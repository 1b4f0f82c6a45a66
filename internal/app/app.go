package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/jfrc10101010/tradeplus/internal/bridge"
	"github.com/jfrc10101010/tradeplus/internal/cache"
	tpcfg "github.com/jfrc10101010/tradeplus/internal/config"
	"github.com/jfrc10101010/tradeplus/internal/logger"
	"github.com/jfrc10101010/tradeplus/internal/refresher"
	journalhttp "github.com/jfrc10101010/tradeplus/internal/transport/http/journal"

	"golang.org/x/sync/errgroup"
)

// Version 对外版本号（/api/debug 透出）。
const Version = "1.0.0"

// App 负责应用级编排：加载配置→初始化依赖→启动 HTTP 与刷新器。
type App struct {
	cfg       *tpcfg.Config
	invoker   *bridge.Invoker
	cache     *cache.Cache
	httpSrv   *journalhttp.Server
	refresher *refresher.Refresher
}

// NewApp 根据配置构建应用对象（不启动）。
func NewApp(cfg *tpcfg.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)

	inv := bridge.NewInvoker(bridge.Config{
		PythonBin:   cfg.Bridge.PythonBin,
		ScriptDir:   cfg.Bridge.ScriptDir,
		Workdir:     cfg.Bridge.Workdir,
		SoftTimeout: cfg.Bridge.SoftTimeout(),
		HardGrace:   cfg.Bridge.HardGrace(),
		DiagBytes:   cfg.Bridge.MaxDiagBytes,

		BreakerThreshold: cfg.Bridge.BreakerThreshold,
		BreakerCooldown:  cfg.Bridge.BreakerCooldown(),
	})
	c := cache.New(cfg.Journal.MonotonicCache)

	srv, err := journalhttp.NewServer(journalhttp.ServerConfig{
		Addr:    cfg.App.HTTPAddr,
		Source:  inv,
		Cache:   c,
		Journal: cfg.Journal,
		Version: Version,
	})
	if err != nil {
		return nil, fmt.Errorf("init http server: %w", err)
	}

	ref := refresher.New(inv, c, cfg.Journal.RefreshInterval(), cfg.Journal.DefaultDays)

	return &App{
		cfg:       cfg,
		invoker:   inv,
		cache:     c,
		httpSrv:   srv,
		refresher: ref,
	}, nil
}

// Run 启动 HTTP 服务与后台刷新器，直到 ctx 取消或出错。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	logger.InfoBlock(a.startupSummary())

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.httpSrv.Start(ctx); err != nil {
			return fmt.Errorf("journal http server error: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		return a.refresher.Run(ctx)
	})
	return group.Wait()
}

// ApplyConfig 应用运行期可调整的配置项（目前只有日志级别）。
func (a *App) ApplyConfig(cfg *tpcfg.Config) {
	if a == nil || cfg == nil {
		return
	}
	logger.SetLevel(cfg.App.LogLevel)
}

// Cache 暴露底层缓存实例（测试/回放用）。
func (a *App) Cache() *cache.Cache {
	if a == nil {
		return nil
	}
	return a.cache
}

func (a *App) startupSummary() string {
	return strings.Join([]string{
		"TRADEPLUS Journal Hub",
		fmt.Sprintf("- 环境：%s", a.cfg.App.Env),
		fmt.Sprintf("- HTTP：%s", a.cfg.App.HTTPAddr),
		fmt.Sprintf("- 刷新周期：%s", a.cfg.Journal.RefreshInterval()),
		fmt.Sprintf("- 回看窗口：combined=%d天 broker=%d天", a.cfg.Journal.DefaultDays, a.cfg.Journal.BrokerDefaultDays),
		fmt.Sprintf("- 分析进程：%s (soft=%s hard=+%s)", a.cfg.Bridge.PythonBin, a.cfg.Bridge.SoftTimeout(), a.cfg.Bridge.HardGrace()),
	}, "\n")
}
