package journalhttp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/jfrc10101010/tradeplus/internal/bridge"
	"github.com/jfrc10101010/tradeplus/internal/cache"
	"github.com/jfrc10101010/tradeplus/internal/config"
	"github.com/jfrc10101010/tradeplus/internal/journal"
	"github.com/jfrc10101010/tradeplus/internal/logger"

	"github.com/gin-gonic/gin"
)

// Source 是 handler 侧的数据源抽象，由 bridge.Invoker 实现。
type Source interface {
	Combined(ctx context.Context, days int) (*journal.Combined, error)
	ByBroker(ctx context.Context, broker string, days int) (*journal.BrokerJournal, error)
}

// Router 暴露 journal 查询与刷新接口。
// 缓存在这里只负责新鲜度上报（/status）；主数据路径每次请求都现拉，
// 除非 serve_stale_on_error 显式打开才在失败时回退缓存。
type Router struct {
	source    Source
	cache     *cache.Cache
	cfg       config.JournalConfig
	version   string
	startedAt time.Time
}

// NewRouter 构造 journal router。
func NewRouter(source Source, c *cache.Cache, cfg config.JournalConfig, version string) *Router {
	return &Router{
		source:    source,
		cache:     c,
		cfg:       cfg,
		version:   version,
		startedAt: time.Now(),
	}
}

// Register 将路由挂载到给定分组下。
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.GET("/journal", r.handleJournal)
	group.GET("/journal/stats", r.handleJournalStats)
	group.GET("/journal/broker/:name", r.handleBroker)
	group.GET("/journal/symbols", r.handleSymbols)
	group.POST("/refresh", r.handleRefresh)
	group.GET("/status", r.handleStatus)
	group.GET("/health", r.handleHealth)
	group.GET("/debug", r.handleDebug)
}

// fetchCombined 现拉一次 combined journal 并把结果记入缓存（成功失败都记）。
func (r *Router) fetchCombined(ctx context.Context, days int) (*journal.Combined, error) {
	combined, err := r.source.Combined(ctx, days)
	if err != nil {
		r.cache.RecordFailure(err.Error())
		return nil, err
	}
	r.cache.RecordSuccess(combined)
	return combined, nil
}

func (r *Router) daysQuery(c *gin.Context, fallback int) int {
	raw := c.Query("days")
	if raw == "" {
		return fallback
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		return fallback
	}
	return days
}

func (r *Router) handleJournal(c *gin.Context) {
	days := r.daysQuery(c, r.cfg.DefaultDays)
	combined, err := r.fetchCombined(c.Request.Context(), days)
	if err != nil {
		if r.cfg.ServeStaleOnError {
			if entry := r.cache.Get(); entry.HasData() {
				logger.Warnf("journal: 现拉失败，回退缓存: %v", err)
				body := combinedBody(entry.Combined)
				body["stale"] = true
				body["staleError"] = err.Error()
				c.JSON(http.StatusOK, body)
				return
			}
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     err.Error(),
			"trades":    []journal.TradeRecord{},
			"stats":     gin.H{},
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	c.JSON(http.StatusOK, combinedBody(combined))
}

func (r *Router) handleJournalStats(c *gin.Context) {
	days := r.daysQuery(c, r.cfg.DefaultDays)
	combined, err := r.fetchCombined(c.Request.Context(), days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "stats": gin.H{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": combined.Stats, "timestamp": combined.Timestamp})
}

func (r *Router) handleBroker(c *gin.Context) {
	name := c.Param("name")
	days := r.daysQuery(c, r.cfg.BrokerDefaultDays)
	result, err := r.source.ByBroker(c.Request.Context(), name, days)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, bridge.ErrUpstream) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error(), "trades": []journal.TradeRecord{}})
		return
	}
	c.JSON(http.StatusOK, brokerBody(result))
}

func (r *Router) handleSymbols(c *gin.Context) {
	days := r.daysQuery(c, r.cfg.DefaultDays)
	combined, err := r.fetchCombined(c.Request.Context(), days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	view := journal.Aggregate(combined.Trades)
	c.JSON(http.StatusOK, gin.H{
		"all_symbols": view.AllSymbols(),
		"winners":     journal.TopN(view.WinnersByPL, r.cfg.TopN),
		"losers":      journal.TopN(view.LosersByPL, r.cfg.TopN),
	})
}

func (r *Router) handleRefresh(c *gin.Context) {
	combined, err := r.fetchCombined(c.Request.Context(), r.cfg.DefaultDays)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "journal refreshed",
		"stats":   combined.Stats,
		"trades":  len(combined.Trades),
	})
}

func (r *Router) handleStatus(c *gin.Context) {
	entry := r.cache.Get()
	cacheAge := "N/A"
	if age, ok := r.cache.Age(); ok {
		cacheAge = fmt.Sprintf("%ds", int(age.Seconds()))
	}
	var lastUpdate any
	if !entry.UpdatedAt.IsZero() {
		lastUpdate = entry.UpdatedAt.Format(time.RFC3339)
	}
	var lastError any
	if entry.LastError != "" {
		lastError = entry.LastError
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "online",
		"uptime": int(time.Since(r.startedAt).Seconds()),
		"cache": gin.H{
			"hasData":    entry.HasData(),
			"lastUpdate": lastUpdate,
			"cacheAge":   cacheAge,
			"error":      lastError,
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (r *Router) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"uptime":    int(time.Since(r.startedAt).Seconds()),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (r *Router) handleDebug(c *gin.Context) {
	cwd, _ := os.Getwd()
	c.JSON(http.StatusOK, gin.H{
		"version":    r.version,
		"go_version": runtime.Version(),
		"platform":   runtime.GOOS,
		"cwd":        cwd,
		"pid":        os.Getpid(),
		"log_level":  logger.Level(),
	})
}

// combinedBody 把 payload 与服务端聚合拼成响应体；trades 永远是数组。
func combinedBody(combined *journal.Combined) gin.H {
	trades := combined.Trades
	if trades == nil {
		trades = []journal.TradeRecord{}
	}
	body := gin.H{
		"timestamp": combined.Timestamp,
		"trades":    trades,
		"stats":     combined.Stats,
		"aggregate": journal.Aggregate(trades),
	}
	if combined.Capital != nil {
		body["capital"] = combined.Capital
	}
	if combined.Symbols != nil {
		body["symbols"] = combined.Symbols
	}
	if combined.Positions != nil {
		body["positions"] = combined.Positions
	}
	return body
}

func brokerBody(result *journal.BrokerJournal) gin.H {
	trades := result.Trades
	if trades == nil {
		trades = []journal.TradeRecord{}
	}
	body := gin.H{
		"broker":    result.Broker,
		"timestamp": result.Timestamp,
		"trades":    trades,
		"stats":     result.Stats,
		"aggregate": journal.Aggregate(trades),
	}
	if result.Capital != nil {
		body["capital"] = result.Capital
	}
	if result.Symbols != nil {
		body["symbols"] = result.Symbols
	}
	return body
}
