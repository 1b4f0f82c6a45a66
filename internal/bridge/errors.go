package bridge

import "errors"

// 调用失败的五类哨兵错误。调用方对外表现一致（整次调用失败），
// 但日志与诊断必须能区分，因此全部走 errors.Is 可判定的哨兵。
var (
	// ErrProcess 表示分析进程以非零码退出。
	ErrProcess = errors.New("analytics process failed")
	// ErrEmptyOutput 表示进程正常退出但 stdout 为空。
	ErrEmptyOutput = errors.New("analytics process produced no output")
	// ErrMalformedOutput 表示 stdout 非空但不是期望的 JSON 结构。
	ErrMalformedOutput = errors.New("analytics output is not a valid payload")
	// ErrUpstream 表示 payload 自带 error 字段（应用层失败，非进程崩溃）。
	ErrUpstream = errors.New("analytics upstream error")
	// ErrTimeout 表示硬超时触发，进程已被强制终止。
	ErrTimeout = errors.New("analytics call timed out")
)
