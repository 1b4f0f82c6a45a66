// Package jsonutil 从带噪声的进程输出里打捞 JSON。
// Python 侧偶尔会在结果前后混入 warning/print 行，这里做一次
// 大括号配对扫描，把第一个完整的顶层对象切出来。
package jsonutil

// ExtractObject 返回 raw 中第一个括号配对完整的 JSON 对象。
// 只做结构扫描不做语法校验，调用方仍需自行验证内容。
func ExtractObject(raw string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			if start != -1 {
				inString = true
			}
		case '{':
			if start == -1 {
				start = i
			}
			depth++
		case '}':
			if start == -1 {
				continue
			}
			depth--
			if depth == 0 {
				return raw[start : i+1], true
			}
		}
	}
	return "", false
}
