// Package cache 持有最近一次成功拉取的 journal 及新鲜度元数据。
// 它是核心里唯一的共享可变状态：Entry 作为不可变值整体换入换出，
// 读者要么看到旧值要么看到新值，永远不会看到半更新。
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/jfrc10101010/tradeplus/internal/journal"
	"github.com/jfrc10101010/tradeplus/internal/logger"
)

// Entry 是缓存的一次快照。零值即「进程启动时的空缓存」。
type Entry struct {
	Combined  *journal.Combined // nil = 尚无成功结果
	UpdatedAt time.Time         // 零值 = absent
	LastError string            // 最近一次失败信息，成功后清空
}

// HasData 报告是否存在最近一次成功结果。
func (e Entry) HasData() bool { return e.Combined != nil }

// Cache 进程级单例语义，按引用注入到刷新器与 HTTP 层。
type Cache struct {
	mu    sync.RWMutex
	entry Entry

	// monotonic 打开时拒绝比当前缓存更旧的结果写入
	//（慢调用晚归不再覆盖快调用的新结果）。默认关闭，与参考行为一致。
	monotonic bool
	nowFn     func() time.Time
}

// New 构造空缓存。
func New(monotonic bool) *Cache {
	return &Cache{monotonic: monotonic, nowFn: time.Now}
}

// Get 返回只读快照。
func (c *Cache) Get() Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entry
}

// RecordSuccess 整体替换 combined、刷新 updatedAt 并清除 lastError。
// monotonic 模式下，payload 时间戳更旧的结果被丢弃，返回 false。
func (c *Cache) RecordSuccess(combined *journal.Combined) bool {
	if combined == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.monotonic && c.entry.Combined != nil {
		prev := c.entry.Combined.GeneratedAt()
		next := combined.GeneratedAt()
		if !next.IsZero() && !prev.IsZero() && next.Before(prev) {
			logger.Warnf("cache: 丢弃过期结果 payload=%s < cached=%s",
				next.Format(time.RFC3339), prev.Format(time.RFC3339))
			return false
		}
	}
	c.entry = Entry{
		Combined:  combined,
		UpdatedAt: c.nowFn().UTC(),
	}
	return true
}

// RecordFailure 只记录错误信息，combined/updatedAt 原样保留（stale-but-present）。
func (c *Cache) RecordFailure(msg string) {
	msg = strings.TrimSpace(msg)
	c.mu.Lock()
	c.entry.LastError = msg
	c.mu.Unlock()
}

// Age 返回距上次成功更新的时长；从未成功过则 ok=false。
func (c *Cache) Age() (time.Duration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entry.UpdatedAt.IsZero() {
		return 0, false
	}
	return c.nowFn().Sub(c.entry.UpdatedAt), true
}

// Invalidate 清空缓存，回到进程启动时的状态。
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.entry = Entry{}
	c.mu.Unlock()
}
