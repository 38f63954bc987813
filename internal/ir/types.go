// Package ir 定义降级（lowered）之后、已完成绑定与类型检查的程序树。
//
// 代码生成器只消费这棵树：所有名字都已解析为符号，每个表达式都带有具体类型，
// 结构化控制流（if/while）在进入代码生成之前由 lower 包改写为标签与跳转。
package ir

import "fmt"

// ============================================================================
// 类型
// ============================================================================

// Type 值类型
//
// 后端只区分四种标量类型：所有值都占用一个 64 位机器字。
type Type int

const (
	TypeVoid   Type = iota // 无值（仅用于函数返回类型）
	TypeInt                // 64 位有符号整数
	TypeBool               // 布尔，编码为 0/1
	TypeString             // 指向长度前缀字节块的指针
)

var typeNames = [...]string{
	TypeVoid:   "void",
	TypeInt:    "int",
	TypeBool:   "bool",
	TypeString: "string",
}

func (t Type) String() string {
	if t >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType 从类型名解析类型
func ParseType(name string) (Type, bool) {
	for i, n := range typeNames {
		if n == name {
			return Type(i), true
		}
	}
	return TypeVoid, false
}

// ============================================================================
// 运算符
// ============================================================================

// UnaryOperator 一元运算符
type UnaryOperator int

const (
	UnaryIdentity UnaryOperator = iota // +x
	UnaryNegate                        // -x
	UnaryNot                           // ~x（整数按位取反）/ not x（布尔取反）
)

var unaryNames = [...]string{
	UnaryIdentity: "+",
	UnaryNegate:   "-",
	UnaryNot:      "~",
}

func (op UnaryOperator) String() string {
	if op >= 0 && int(op) < len(unaryNames) {
		return unaryNames[op]
	}
	return fmt.Sprintf("UnaryOperator(%d)", int(op))
}

// ParseUnaryOperator 从符号解析一元运算符
func ParseUnaryOperator(s string) (UnaryOperator, bool) {
	if s == "not" || s == "!" {
		return UnaryNot, true
	}
	for i, n := range unaryNames {
		if n == s {
			return UnaryOperator(i), true
		}
	}
	return 0, false
}

// BinaryOperator 二元运算符
type BinaryOperator int

const (
	BinaryAdd BinaryOperator = iota
	BinarySubtract
	BinaryMultiply
	BinaryDivide
	BinaryModulo
	BinaryAnd // 整数按位与 / 布尔与（不短路）
	BinaryOr  // 整数按位或 / 布尔或（不短路）
	BinaryXor
	BinaryEqual
	BinaryNotEqual
	BinaryLess
	BinaryLessOrEqual
	BinaryGreater
	BinaryGreaterOrEqual
)

var binaryNames = [...]string{
	BinaryAdd:            "+",
	BinarySubtract:       "-",
	BinaryMultiply:       "*",
	BinaryDivide:         "/",
	BinaryModulo:         "%",
	BinaryAnd:            "&",
	BinaryOr:             "|",
	BinaryXor:            "^",
	BinaryEqual:          "==",
	BinaryNotEqual:       "!=",
	BinaryLess:           "<",
	BinaryLessOrEqual:    "<=",
	BinaryGreater:        ">",
	BinaryGreaterOrEqual: ">=",
}

func (op BinaryOperator) String() string {
	if op >= 0 && int(op) < len(binaryNames) {
		return binaryNames[op]
	}
	return fmt.Sprintf("BinaryOperator(%d)", int(op))
}

// IsComparison 是否为比较运算符（结果为 bool）
func (op BinaryOperator) IsComparison() bool {
	return op >= BinaryEqual && op <= BinaryGreaterOrEqual
}

// ParseBinaryOperator 从符号解析二元运算符
func ParseBinaryOperator(s string) (BinaryOperator, bool) {
	switch s {
	case "and", "&&":
		return BinaryAnd, true
	case "or", "||":
		return BinaryOr, true
	}
	for i, n := range binaryNames {
		if n == s {
			return BinaryOperator(i), true
		}
	}
	return 0, false
}
