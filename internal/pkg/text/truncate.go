// Package text 提供日志输出用的小工具。
package text

// Truncate 截断超长文本并追加省略号，用于限制诊断日志体积。
// max<=0 表示不截断。
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
