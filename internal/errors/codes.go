// Package errors 提供 phosphor 后端的错误处理系统
//
// 后端只产生两类错误：代码生成器内部错误（C 开头）和外部工具链错误（T 开头）。
// 用户可见的名字/类型错误在前端阶段报告，不经过这里。
package errors

import "github.com/tangzhangming/phosphor/internal/i18n"

// ============================================================================
// 错误级别
// ============================================================================

// Level 错误级别
type Level int

const (
	LevelError   Level = iota // 错误
	LevelWarning              // 警告
	LevelNote                 // 提示
	LevelHelp                 // 帮助
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelNote:
		return "note"
	case LevelHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ============================================================================
// 代码生成器内部错误码 (C 开头)
// ============================================================================

const (
	C0001 = "C0001" // 不支持的运算符/类型组合
	C0002 = "C0002" // 参数过多
	C0003 = "C0003" // 不支持栈传参
	C0004 = "C0004" // 值未绑定
	C0005 = "C0005" // 调用保存/恢复不配对
	C0006 = "C0006" // 没有可用寄存器
	C0007 = "C0007" // 不支持的节点
	C0008 = "C0008" // 有值表达式用作语句
	C0009 = "C0009" // 不支持的类型
)

// ============================================================================
// 工具链错误码 (T 开头)
// ============================================================================

const (
	T0001 = "T0001" // 找不到工具
	T0002 = "T0002" // 工具执行失败
)

// ============================================================================
// 错误码信息
// ============================================================================

// ErrorInfo 错误码信息
type ErrorInfo struct {
	Code      string // 错误码
	Level     Level  // 错误级别
	MessageID string // i18n 消息 ID
	Category  string // 错误分类
}

var internalErrors = map[string]ErrorInfo{
	C0001: {C0001, LevelError, i18n.ErrUnsupportedOperator, "codegen"},
	C0002: {C0002, LevelError, i18n.ErrTooManyParameters, "abi"},
	C0003: {C0003, LevelError, i18n.ErrStackArguments, "abi"},
	C0004: {C0004, LevelError, i18n.ErrValueNotBound, "allocator"},
	C0005: {C0005, LevelError, i18n.ErrUnbalancedCallSave, "allocator"},
	C0006: {C0006, LevelError, i18n.ErrNoRegister, "allocator"},
	C0007: {C0007, LevelError, i18n.ErrUnsupportedNode, "codegen"},
	C0008: {C0008, LevelError, i18n.ErrValueAsStatement, "codegen"},
	C0009: {C0009, LevelError, i18n.ErrUnsupportedType, "codegen"},
}

var toolchainErrors = map[string]ErrorInfo{
	T0001: {T0001, LevelError, i18n.ErrToolNotFound, "toolchain"},
	T0002: {T0002, LevelError, i18n.ErrToolFailed, "toolchain"},
}

// GetErrorInfo 获取错误码信息
func GetErrorInfo(code string) (ErrorInfo, bool) {
	if info, ok := internalErrors[code]; ok {
		return info, true
	}
	info, ok := toolchainErrors[code]
	return info, ok
}

// IsInternalCode 检查是否为代码生成器内部错误码
func IsInternalCode(code string) bool {
	_, ok := internalErrors[code]
	return ok
}

// IsToolchainCode 检查是否为工具链错误码
func IsToolchainCode(code string) bool {
	_, ok := toolchainErrors[code]
	return ok
}
