package scheduler

import (
	"context"
	"time"

	"github.com/jfrc10101010/tradeplus/internal/logger"
)

// FixedScheduler 按固定周期执行任务，不做 K 线对齐之类的花样。
// Start 阻塞运行直到 ctx 取消。
type FixedScheduler struct {
	Name           string
	Interval       time.Duration
	RunImmediately bool

	ctx   context.Context
	nowFn func() time.Time
}

func NewFixedScheduler(ctx context.Context, interval time.Duration) *FixedScheduler {
	if ctx == nil {
		ctx = context.Background()
	}
	return &FixedScheduler{
		Interval: interval,
		ctx:      ctx,
		nowFn:    time.Now,
	}
}

func (s *FixedScheduler) Start(task func()) {
	if s == nil {
		return
	}
	if task == nil {
		logger.Warnf("FixedScheduler: task is nil, exit")
		return
	}
	if s.Interval <= 0 {
		logger.Warnf("FixedScheduler: invalid interval=%s, exit", s.Interval)
		return
	}
	if s.ctx == nil {
		s.ctx = context.Background()
	}
	if s.nowFn == nil {
		s.nowFn = time.Now
	}

	prefix := "FixedScheduler"
	if s.Name != "" {
		prefix = prefix + "[" + s.Name + "]"
	}
	startAt := s.nowFn().UTC()
	logger.Infof("%s: started interval=%s run_immediately=%v at=%s",
		prefix, s.Interval, s.RunImmediately, startAt.Format(time.RFC3339))

	if s.RunImmediately {
		task()
	}

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			logger.Infof("%s: stopped, uptime=%s", prefix, s.nowFn().UTC().Sub(startAt).Truncate(time.Second))
			return
		case <-ticker.C:
			task()
		}
	}
}
