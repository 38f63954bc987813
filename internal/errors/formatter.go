package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/tangzhangming/phosphor/internal/i18n"
)

// ============================================================================
// 格式化器
// ============================================================================

// Formatter 错误格式化器
type Formatter struct {
	Colors    bool // 是否使用颜色
	ShowHints bool // 是否显示修复建议
	MaxStderr int  // 工具错误输出最多显示的行数，0 表示不限
}

// NewFormatter 创建默认格式化器
func NewFormatter() *Formatter {
	return &Formatter{
		Colors:    true,
		ShowHints: true,
		MaxStderr: 20,
	}
}

// FormatInternalError 格式化内部编译错误
//
//	error[C0004]: value x#3 is not bound
//	 --> in function main
//	 = note: this is a bug in the code generator
func (f *Formatter) FormatInternalError(err *InternalError) string {
	var sb strings.Builder

	sb.WriteString(f.header(err.Code, err.Message))
	if err.Construct != "" {
		sb.WriteString(fmt.Sprintf(" %s %s\n", f.colorize("-->", ColorCyan), err.Construct))
	}
	if f.ShowHints {
		for _, hint := range Hints(err.Code) {
			sb.WriteString(fmt.Sprintf("%s %s\n", f.colorize(" = help:", ColorCyan), hint))
		}
	}
	sb.WriteString(fmt.Sprintf("%s %s\n", f.colorize(" = note:", ColorCyan), i18n.T(i18n.NoteInternalError)))
	return sb.String()
}

// FormatToolError 格式化工具链错误，附带工具的错误输出
func (f *Formatter) FormatToolError(err *ToolError) string {
	var sb strings.Builder

	msg := i18n.T(i18n.ErrToolFailed, err.Tool)
	if err.Code == T0001 {
		msg = i18n.T(i18n.ErrToolNotFound, err.Tool)
	}
	sb.WriteString(f.header(err.Code, msg))

	if len(err.Args) > 0 {
		cmd := err.Tool + " " + strings.Join(err.Args, " ")
		sb.WriteString(fmt.Sprintf(" %s %s\n", f.colorize("-->", ColorCyan), cmd))
	}
	if err.Err != nil {
		sb.WriteString(fmt.Sprintf("%s %s\n", f.colorize(" = note:", ColorCyan), err.Err))
	}

	stderr := strings.TrimRight(err.Stderr, "\n")
	if stderr != "" {
		lines := strings.Split(stderr, "\n")
		if f.MaxStderr > 0 && len(lines) > f.MaxStderr {
			lines = append(lines[:f.MaxStderr], "...")
		}
		for _, line := range lines {
			sb.WriteString(f.colorize("  | ", ColorBlue))
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}

	if f.ShowHints {
		for _, hint := range Hints(err.Code) {
			sb.WriteString(fmt.Sprintf("%s %s\n", f.colorize(" = help:", ColorCyan), hint))
		}
	}
	return sb.String()
}

// FormatError 格式化任意错误
//
// multierr 聚合的错误逐个展开；内部错误和工具链错误使用专门格式，其它错误只输出消息。
func (f *Formatter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	errs := multierr.Errors(err)

	var sb strings.Builder
	for i, e := range errs {
		if i > 0 {
			sb.WriteString("\n")
		}
		var ie *InternalError
		var te *ToolError
		switch {
		case stderrors.As(e, &ie):
			sb.WriteString(f.FormatInternalError(ie))
		case stderrors.As(e, &te):
			sb.WriteString(f.FormatToolError(te))
		default:
			sb.WriteString(fmt.Sprintf("%s: %s\n", f.colorize("error", ColorBoldRed), e))
		}
	}

	if len(errs) > 1 {
		sb.WriteString("\n")
		sb.WriteString(f.colorize(i18n.T(i18n.MsgErrorCount, len(errs)), ColorRed) + "\n")
	}
	return sb.String()
}

func (f *Formatter) header(code, message string) string {
	levelStr := f.colorize(LevelError.String(), ColorBoldRed)
	codeStr := f.colorize(fmt.Sprintf("[%s]", code), ColorBoldRed)
	return fmt.Sprintf("%s%s: %s\n", levelStr, codeStr, message)
}

func (f *Formatter) colorize(s string, color Color) string {
	if !f.Colors {
		return s
	}
	return Colorize(s, color)
}

// ============================================================================
// 全局格式化器
// ============================================================================

var defaultFormatter = NewFormatter()

// SetDefaultFormatter 设置默认格式化器
func SetDefaultFormatter(f *Formatter) {
	defaultFormatter = f
}

// GetDefaultFormatter 获取默认格式化器
func GetDefaultFormatter() *Formatter {
	return defaultFormatter
}

// Format 使用默认格式化器格式化错误
func Format(err error) string {
	return defaultFormatter.FormatError(err)
}
