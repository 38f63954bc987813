package errors

import (
	"fmt"

	"github.com/tangzhangming/phosphor/internal/i18n"
)

// ============================================================================
// 内部编译错误
// ============================================================================

// InternalError 代码生成器内部错误
//
// 出现即说明不支持的结构到达了代码生成，或生成器自身的簿记有缺陷。
// 整个编译单元立即中止，不产生可用的部分输出。
type InternalError struct {
	Code      string // 错误码 (C0004)
	Message   string // 已翻译的消息
	Construct string // 出错的结构（节点、值或函数名），可为空
}

// Error 实现 error 接口
func (e *InternalError) Error() string {
	if e.Construct == "" {
		return fmt.Sprintf("internal compiler error[%s]: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("internal compiler error[%s]: %s (in %s)", e.Code, e.Message, e.Construct)
}

// Is 按错误码匹配，使 errors.Is(err, &InternalError{Code: C0004}) 可用
func (e *InternalError) Is(target error) bool {
	t, ok := target.(*InternalError)
	return ok && t.Code == e.Code
}

// Internal 创建内部错误，消息按错误码的 i18n 模板格式化
func Internal(code, construct string, args ...interface{}) *InternalError {
	msg := code
	if info, ok := GetErrorInfo(code); ok {
		msg = i18n.T(info.MessageID, args...)
	}
	return &InternalError{Code: code, Message: msg, Construct: construct}
}

// ============================================================================
// 工具链错误
// ============================================================================

// ToolError 外部汇编器/链接器错误
type ToolError struct {
	Code   string   // T0001 / T0002
	Tool   string   // 工具名
	Args   []string // 调用参数
	Stderr string   // 工具的错误输出
	Err    error    // 底层错误
}

// Error 实现 error 接口
func (e *ToolError) Error() string {
	var msg string
	switch e.Code {
	case T0001:
		msg = i18n.T(i18n.ErrToolNotFound, e.Tool)
	default:
		msg = i18n.T(i18n.ErrToolFailed, e.Tool)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return fmt.Sprintf("toolchain error[%s]: %s", e.Code, msg)
}

// Unwrap 返回底层错误
func (e *ToolError) Unwrap() error { return e.Err }

// Is 按错误码匹配
func (e *ToolError) Is(target error) bool {
	t, ok := target.(*ToolError)
	return ok && t.Code == e.Code
}
