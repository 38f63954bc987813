package errors

import (
	"os"
	"strings"

	"github.com/xyproto/env/v2"
)

// Color 终端颜色
type Color int

const (
	ColorReset Color = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorBoldRed
	ColorBoldYellow
	ColorBoldCyan
	ColorBoldWhite
)

// ANSI 颜色代码
var ansiCodes = map[Color]string{
	ColorReset:      "\033[0m",
	ColorRed:        "\033[31m",
	ColorGreen:      "\033[32m",
	ColorYellow:     "\033[33m",
	ColorBlue:       "\033[34m",
	ColorMagenta:    "\033[35m",
	ColorCyan:       "\033[36m",
	ColorBoldRed:    "\033[1;31m",
	ColorBoldYellow: "\033[1;33m",
	ColorBoldCyan:   "\033[1;36m",
	ColorBoldWhite:  "\033[1;37m",
}

var colorsEnabled = detectColorSupport()

// detectColorSupport 检测终端是否支持颜色
//
// 只面向 Linux 终端：尊重 NO_COLOR，dumb 终端关闭，否则要求 stdout 是 TTY。
func detectColorSupport() bool {
	if env.Has("NO_COLOR") {
		return false
	}
	if env.Str("TERM") == "dumb" {
		return false
	}
	if env.Has("COLORTERM") {
		return true
	}
	if fi, err := os.Stdout.Stat(); err == nil {
		return fi.Mode()&os.ModeCharDevice != 0
	}
	return false
}

// EnableColors 启用颜色
func EnableColors() { colorsEnabled = true }

// DisableColors 禁用颜色
func DisableColors() { colorsEnabled = false }

// ColorsEnabled 检查颜色是否启用
func ColorsEnabled() bool { return colorsEnabled }

// SetColorsEnabled 设置颜色启用状态
func SetColorsEnabled(enabled bool) { colorsEnabled = enabled }

// Colorize 着色字符串
func Colorize(s string, color Color) string {
	if !colorsEnabled {
		return s
	}
	code, ok := ansiCodes[color]
	if !ok {
		return s
	}
	return code + s + ansiCodes[ColorReset]
}

// Red 红色
func Red(s string) string { return Colorize(s, ColorRed) }

// Green 绿色
func Green(s string) string { return Colorize(s, ColorGreen) }

// Yellow 黄色
func Yellow(s string) string { return Colorize(s, ColorYellow) }

// Cyan 青色
func Cyan(s string) string { return Colorize(s, ColorCyan) }

// BoldRed 加粗红色
func BoldRed(s string) string { return Colorize(s, ColorBoldRed) }

// Strip 移除 ANSI 颜色代码
func Strip(s string) string {
	result := s
	for _, code := range ansiCodes {
		result = strings.ReplaceAll(result, code, "")
	}
	return result
}

// ============================================================================
// 汇编清单高亮
// ============================================================================

// HighlightAssembly 为 NASM 清单着色（asm 命令输出到终端时使用）
//
// 标签青色，section/global/extern 等伪指令洋红，助记符加粗，注释灰化为蓝色。
func HighlightAssembly(src string) string {
	if !colorsEnabled {
		return src
	}
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		lines[i] = highlightAsmLine(line)
	}
	return strings.Join(lines, "\n")
}

var asmDirectives = map[string]bool{
	"section": true, "global": true, "extern": true,
	"db": true, "dq": true, "default": true, "bits": true,
}

func highlightAsmLine(line string) string {
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" {
		return line
	}
	indent := line[:len(line)-len(trimmed)]

	comment := ""
	if idx := strings.IndexByte(trimmed, ';'); idx >= 0 {
		comment = Colorize(trimmed[idx:], ColorBlue)
		trimmed = strings.TrimRight(trimmed[:idx], " ")
		if trimmed == "" {
			return indent + comment
		}
		comment = " " + comment
	}

	if strings.HasSuffix(trimmed, ":") && !strings.ContainsAny(trimmed, " \t") {
		return indent + Colorize(trimmed, ColorCyan) + comment
	}

	word, rest := trimmed, ""
	if idx := strings.IndexAny(trimmed, " \t"); idx >= 0 {
		word, rest = trimmed[:idx], trimmed[idx:]
	}
	if asmDirectives[word] {
		return indent + Colorize(word, ColorMagenta) + rest + comment
	}
	return indent + Colorize(word, ColorBoldWhite) + rest + comment
}
