// Package refresher 周期性拉取 combined journal 并写入缓存。
// 周期性的重新调用就是隐式重试，失败只记录、绝不中断循环。
package refresher

import (
	"context"
	"time"

	"github.com/jfrc10101010/tradeplus/internal/cache"
	"github.com/jfrc10101010/tradeplus/internal/journal"
	"github.com/jfrc10101010/tradeplus/internal/logger"
	"github.com/jfrc10101010/tradeplus/internal/scheduler"
)

// Source 是 journal 数据源能力抽象。
// 进程桥接（bridge.Invoker）是当前唯一实现；将来分析逻辑若移植进程内，
// 换一个实现即可，刷新器与聚合引擎都不用动。
type Source interface {
	Combined(ctx context.Context, days int) (*journal.Combined, error)
}

// Refresher 启动时先跑一次，之后按固定周期刷新。
type Refresher struct {
	source   Source
	cache    *cache.Cache
	interval time.Duration
	days     int

	nowFn func() time.Time
}

// New 构造刷新器；interval<=0 时退回 30 秒。
func New(source Source, c *cache.Cache, interval time.Duration, days int) *Refresher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Refresher{
		source:   source,
		cache:    c,
		interval: interval,
		days:     days,
		nowFn:    time.Now,
	}
}

// Run 阻塞运行直到 ctx 取消；取消返回 nil。
// 启动即刷一次（RunImmediately），看板不用等第一个周期。
func (r *Refresher) Run(ctx context.Context) error {
	if r == nil || r.source == nil || r.cache == nil {
		return nil
	}
	logger.Infof("refresher: interval=%s days=%d", r.interval, r.days)
	s := scheduler.NewFixedScheduler(ctx, r.interval)
	s.Name = "journal-refresh"
	s.RunImmediately = true
	s.Start(func() { r.refreshOnce(ctx) })
	return nil
}

// RefreshOnce 执行一次拉取并记入缓存，返回结果与错误（供 /refresh 复用）。
func (r *Refresher) RefreshOnce(ctx context.Context) (*journal.Combined, error) {
	combined, err := r.source.Combined(ctx, r.days)
	if err != nil {
		r.cache.RecordFailure(err.Error())
		return nil, err
	}
	r.cache.RecordSuccess(combined)
	return combined, nil
}

func (r *Refresher) refreshOnce(ctx context.Context) {
	started := r.nowFn()
	combined, err := r.RefreshOnce(ctx)
	if err != nil {
		logger.Warnf("refresher: refresh failed: %v", err)
		return
	}
	logger.Infof("refresher: ✓ journal updated trades=%d in %s",
		len(combined.Trades), r.nowFn().Sub(started).Truncate(time.Millisecond))
}
