package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/jfrc10101010/tradeplus/internal/journal"
	"github.com/jfrc10101010/tradeplus/internal/logger"
	"github.com/jfrc10101010/tradeplus/internal/pkg/circuit"
	"github.com/jfrc10101010/tradeplus/internal/pkg/jsonutil"
	"github.com/jfrc10101010/tradeplus/internal/pkg/text"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// 回看窗口默认值：combined 30 天，单 broker 7 天。
const (
	DefaultCombinedDays = 30
	DefaultBrokerDays   = 7
)

const (
	opCombined = "combined"
	opByBroker = "byBroker"
)

// Config 描述 Invoker 的进程与超时参数。
type Config struct {
	PythonBin   string
	ScriptDir   string
	Workdir     string
	SoftTimeout time.Duration // 交给 context 的软超时
	HardGrace   time.Duration // 硬超时 = 软超时 + 宽限
	DiagBytes   int           // 无法解析时记录的输出前缀字节数

	// BreakerThreshold > 0 时启用熔断：连续 spawn/超时失败达到阈值后
	// 冷却期内不再起进程。0 表示关闭，与参考行为一致。
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// Invoker 每次调用都新起一个外部分析进程并解析其终端输出。
// 除可选的熔断器外无共享状态，多个调用可并发；并发上限不在此处施加。
type Invoker struct {
	pythonBin   string
	scriptDir   string
	workdir     string
	softTimeout time.Duration
	hardGrace   time.Duration
	diagBytes   int

	breaker *circuit.Breaker // nil = 不熔断

	// commandFn 供测试替换为短命 shell 进程。
	commandFn func(ctx context.Context, p invokeParams) *exec.Cmd
	nowFn     func() time.Time
}

type invokeParams struct {
	op     string
	broker string
	days   int
}

// NewInvoker 构造 Invoker 并补齐默认值。
func NewInvoker(cfg Config) *Invoker {
	inv := &Invoker{
		pythonBin:   strings.TrimSpace(cfg.PythonBin),
		scriptDir:   cfg.ScriptDir,
		workdir:     cfg.Workdir,
		softTimeout: cfg.SoftTimeout,
		hardGrace:   cfg.HardGrace,
		diagBytes:   cfg.DiagBytes,
		nowFn:       time.Now,
	}
	if inv.pythonBin == "" {
		inv.pythonBin = "python"
	}
	if inv.softTimeout <= 0 {
		inv.softTimeout = 30 * time.Second
	}
	if inv.hardGrace <= 0 {
		inv.hardGrace = 5 * time.Second
	}
	if inv.diagBytes <= 0 {
		inv.diagBytes = 500
	}
	if cfg.BreakerThreshold > 0 {
		inv.breaker = circuit.NewBreaker("bridge", cfg.BreakerThreshold, cfg.BreakerCooldown)
	}
	inv.commandFn = inv.defaultCommand
	return inv
}

// Combined 拉取两个 broker 合并后的 journal；days<=0 时取默认 30。
func (inv *Invoker) Combined(ctx context.Context, days int) (*journal.Combined, error) {
	if days <= 0 {
		days = DefaultCombinedDays
	}
	raw, err := inv.run(ctx, invokeParams{op: opCombined, days: days})
	if err != nil {
		return nil, err
	}
	var out journal.Combined
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if out.Stats == nil {
		out.Stats = map[string]any{}
	}
	out.FetchedAt = inv.nowFn().UTC()
	return &out, nil
}

// ByBroker 拉取单 broker journal（含 capital/P&L 透传）；days<=0 时取默认 7。
func (inv *Invoker) ByBroker(ctx context.Context, broker string, days int) (*journal.BrokerJournal, error) {
	name, ok := NormalizeBroker(broker)
	if !ok {
		return nil, fmt.Errorf("%w: invalid broker %q", ErrUpstream, broker)
	}
	if days <= 0 {
		days = DefaultBrokerDays
	}
	raw, err := inv.run(ctx, invokeParams{op: opByBroker, broker: name, days: days})
	if err != nil {
		return nil, err
	}
	var out journal.BrokerJournal
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if out.Stats == nil {
		out.Stats = map[string]any{}
	}
	out.Broker = name
	out.FetchedAt = inv.nowFn().UTC()
	return &out, nil
}

// run 在熔断器允许时执行一次完整调用，并把 spawn/超时类失败反馈给熔断器。
// 上游异常与输出解析失败说明进程本身能跑通，不计入熔断。
func (inv *Invoker) run(ctx context.Context, p invokeParams) ([]byte, error) {
	if inv.breaker != nil && !inv.breaker.Allow() {
		return nil, fmt.Errorf("%w: bridge circuit open, spawn suppressed", ErrProcess)
	}
	out, err := inv.runOnce(ctx, p)
	if inv.breaker != nil {
		if errors.Is(err, ErrProcess) || errors.Is(err, ErrTimeout) {
			inv.breaker.RecordFailure()
		} else if err == nil {
			inv.breaker.RecordSuccess()
		}
	}
	return out, err
}

// runOnce 跑完一次进程生命周期：spawn → 双层超时 → 退出码/输出分类。
func (inv *Invoker) runOnce(ctx context.Context, p invokeParams) ([]byte, error) {
	trace := shortTrace()
	soft := inv.softTimeout
	hardLimit := soft + inv.hardGrace

	runCtx, cancel := context.WithTimeout(ctx, soft)
	defer cancel()

	cmd := inv.commandFn(runCtx, p)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// 孙进程继承管道时 Wait 会一直等管道关闭；WaitDelay 过后强制收尾，
	// 保证进程退出（或被杀）后调用在宽限期内一定返回。
	cmd.WaitDelay = inv.hardGrace

	logger.Infof("bridge[%s]: spawn op=%s broker=%s days=%d soft=%s hard=%s",
		trace, p.op, p.broker, p.days, soft, hardLimit)
	started := inv.nowFn()

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start: %v", ErrProcess, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	// 软超时走 CommandContext；硬超时兜底，软机制失效时强杀。
	// 两条路必须都以进程终止收场，泄漏进程是缺陷。
	hard := time.NewTimer(hardLimit)
	defer hard.Stop()

	var waitErr error
	select {
	case waitErr = <-done:
	case <-hard.C:
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		// 杀完也不无限等 Wait：管道可能被孙进程占着，到点直接放弃回收。
		drain := time.NewTimer(inv.hardGrace)
		select {
		case <-done:
			drain.Stop()
		case <-drain.C:
			logger.Warnf("bridge[%s]: wait abandoned, pipes still held after kill", trace)
		}
		logger.Errorf("bridge[%s]: hard timeout, process killed after %s",
			trace, inv.nowFn().Sub(started).Truncate(time.Millisecond))
		return nil, fmt.Errorf("%w: hard limit %s exceeded", ErrTimeout, hardLimit)
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		logger.Warnf("bridge[%s]: soft timeout after %s", trace, soft)
		return nil, fmt.Errorf("%w: soft limit %s exceeded", ErrTimeout, soft)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("invocation canceled: %w", err)
	}

	if errors.Is(waitErr, exec.ErrWaitDelay) {
		// 进程本身已正常退出，只是孙进程拖着管道没放；
		// 已捕获的输出照常走分类，不算进程失败。
		logger.Warnf("bridge[%s]: io pipes force-closed after wait delay", trace)
		waitErr = nil
	}
	if waitErr != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			code := -1
			var exitErr *exec.ExitError
			if errors.As(waitErr, &exitErr) {
				code = exitErr.ExitCode()
			}
			msg = fmt.Sprintf("process exited with code %d", code)
		}
		logger.Errorf("bridge[%s]: %s", trace, msg)
		return nil, fmt.Errorf("%w: %s", ErrProcess, msg)
	}

	out := bytes.TrimSpace(stdout.Bytes())
	if len(out) == 0 {
		return nil, fmt.Errorf("%w (op=%s)", ErrEmptyOutput, p.op)
	}
	if !gjson.ValidBytes(out) {
		// Python 偶尔在结果前后混入 warning/print 行，先尝试打捞。
		salvaged, ok := jsonutil.ExtractObject(string(out))
		if !ok || !gjson.Valid(salvaged) {
			logger.Errorf("bridge[%s]: unparseable output: %s", trace, text.Truncate(string(out), inv.diagBytes))
			return nil, fmt.Errorf("%w: not valid json", ErrMalformedOutput)
		}
		logger.Warnf("bridge[%s]: salvaged json object from noisy output (%d -> %d bytes)",
			trace, len(out), len(salvaged))
		out = []byte(salvaged)
	}
	if errField := gjson.GetBytes(out, "error"); errField.Exists() {
		msg := strings.TrimSpace(errField.String())
		if msg != "" {
			if tb := gjson.GetBytes(out, "traceback"); tb.Exists() {
				logger.Debugf("bridge[%s]: upstream traceback: %s", trace, strings.TrimSpace(tb.String()))
			}
			return nil, fmt.Errorf("%w: %s", ErrUpstream, msg)
		}
	}
	if err := validatePayloadShape(out); err != nil {
		logger.Errorf("bridge[%s]: %v, output: %s", trace, err, text.Truncate(string(out), inv.diagBytes))
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	logger.Infof("bridge[%s]: done in %s (%d bytes)",
		trace, inv.nowFn().Sub(started).Truncate(time.Millisecond), len(out))
	return out, nil
}

func (inv *Invoker) defaultCommand(ctx context.Context, p invokeParams) *exec.Cmd {
	var script string
	switch p.op {
	case opByBroker:
		script = brokerScript(inv.scriptDir, p.broker, p.days)
	default:
		script = combinedScript(inv.scriptDir, p.days)
	}
	cmd := exec.CommandContext(ctx, inv.pythonBin, "-c", script)
	cmd.Dir = inv.workdir
	return cmd
}

func shortTrace() string {
	id := uuid.NewString()
	return id[:8]
}
