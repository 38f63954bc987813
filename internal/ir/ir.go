package ir

import (
	"strconv"
	"strings"
)

// Node 是所有树节点的基接口
type Node interface {
	String() string // 返回节点的字符串表示（用于调试）
}

// Expression 表示一个表达式节点
type Expression interface {
	Node
	Type() Type
	exprNode()
}

// Statement 表示一个语句节点
type Statement interface {
	Node
	stmtNode()
}

// ============================================================================
// 表达式
// ============================================================================

// Literal 字面量
type Literal struct {
	Kind Type   // TypeInt / TypeBool / TypeString
	Int  int64  // Kind == TypeInt
	Bool bool   // Kind == TypeBool
	Str  string // Kind == TypeString
}

func (e *Literal) Type() Type     { return e.Kind }
func (e *Literal) String() string { return e.Text() }
func (e *Literal) exprNode()      {}

// Text 返回字面量的源码形式
func (e *Literal) Text() string {
	switch e.Kind {
	case TypeInt:
		return strconv.FormatInt(e.Int, 10)
	case TypeBool:
		return strconv.FormatBool(e.Bool)
	case TypeString:
		return strconv.Quote(e.Str)
	default:
		return "<" + e.Kind.String() + ">"
	}
}

// VariableRef 变量/参数引用
type VariableRef struct {
	Symbol *Symbol
}

func (e *VariableRef) Type() Type     { return e.Symbol.Type }
func (e *VariableRef) String() string { return e.Symbol.Name }
func (e *VariableRef) exprNode()      {}

// Unary 一元表达式
type Unary struct {
	Operator UnaryOperator
	Operand  Expression
}

func (e *Unary) Type() Type     { return e.Operand.Type() }
func (e *Unary) String() string { return "(" + e.Operator.String() + e.Operand.String() + ")" }
func (e *Unary) exprNode()      {}

// Binary 二元表达式
type Binary struct {
	Operator BinaryOperator
	Left     Expression
	Right    Expression
}

// Type 比较运算结果为 bool，其余与左操作数相同
func (e *Binary) Type() Type {
	if e.Operator.IsComparison() {
		return TypeBool
	}
	return e.Left.Type()
}

func (e *Binary) String() string {
	return "(" + e.Left.String() + " " + e.Operator.String() + " " + e.Right.String() + ")"
}
func (e *Binary) exprNode() {}

// Call 函数调用
type Call struct {
	Function  *Symbol
	Arguments []Expression
}

func (e *Call) Type() Type { return e.Function.Type }
func (e *Call) String() string {
	args := make([]string, len(e.Arguments))
	for i, a := range e.Arguments {
		args[i] = a.String()
	}
	return e.Function.Name + "(" + strings.Join(args, ", ") + ")"
}
func (e *Call) exprNode() {}

// ============================================================================
// 语句
// ============================================================================

// VariableDeclaration 局部变量声明
type VariableDeclaration struct {
	Variable    *Symbol
	Initializer Expression // 可为 nil
}

func (s *VariableDeclaration) String() string {
	if s.Initializer == nil {
		return "var " + s.Variable.Name + ": " + s.Variable.Type.String()
	}
	return "var " + s.Variable.Name + ": " + s.Variable.Type.String() + " = " + s.Initializer.String()
}
func (s *VariableDeclaration) stmtNode() {}

// Assignment 赋值
type Assignment struct {
	Variable *Symbol
	Value    Expression
}

func (s *Assignment) String() string { return s.Variable.Name + " = " + s.Value.String() }
func (s *Assignment) stmtNode()      {}

// Return 返回语句
type Return struct {
	Value Expression // 可为 nil
}

func (s *Return) String() string {
	if s.Value == nil {
		return "return"
	}
	return "return " + s.Value.String()
}
func (s *Return) stmtNode() {}

// Label 标签定义
type Label struct {
	Symbol *Symbol
}

func (s *Label) String() string { return s.Symbol.Name + ":" }
func (s *Label) stmtNode()      {}

// Goto 无条件跳转
type Goto struct {
	Target *Symbol
}

func (s *Goto) String() string { return "goto " + s.Target.Name }
func (s *Goto) stmtNode()      {}

// ConditionalGoto 条件跳转：当 Condition 等于 JumpIfTrue 时跳转到 Target
type ConditionalGoto struct {
	Condition  Expression
	Target     *Symbol
	JumpIfTrue bool
}

func (s *ConditionalGoto) String() string {
	if s.JumpIfTrue {
		return "goto " + s.Target.Name + " if " + s.Condition.String()
	}
	return "goto " + s.Target.Name + " if not " + s.Condition.String()
}
func (s *ConditionalGoto) stmtNode() {}

// ExpressionStatement 表达式语句（只允许调用）
type ExpressionStatement struct {
	Expression Expression
}

func (s *ExpressionStatement) String() string { return s.Expression.String() }
func (s *ExpressionStatement) stmtNode()      {}

// Block 嵌套块，拥有自己的作用域
type Block struct {
	Statements []Statement
}

func (s *Block) String() string {
	var sb strings.Builder
	sb.WriteString("{")
	for _, stmt := range s.Statements {
		sb.WriteString(" ")
		sb.WriteString(stmt.String())
		sb.WriteString(";")
	}
	sb.WriteString(" }")
	return sb.String()
}
func (s *Block) stmtNode() {}

// If 结构化条件语句，必须在代码生成前降级
type If struct {
	Condition Expression
	Then      *Block
	Else      *Block // 可为 nil
}

func (s *If) String() string {
	if s.Else == nil {
		return "if " + s.Condition.String() + " " + s.Then.String()
	}
	return "if " + s.Condition.String() + " " + s.Then.String() + " else " + s.Else.String()
}
func (s *If) stmtNode() {}

// While 结构化循环，必须在代码生成前降级
type While struct {
	Condition Expression
	Body      *Block
}

func (s *While) String() string { return "while " + s.Condition.String() + " " + s.Body.String() }
func (s *While) stmtNode()      {}

// ============================================================================
// 函数与文件
// ============================================================================

// Function 函数定义
type Function struct {
	Symbol *Symbol
	Body   *Block // 外部函数为 nil
}

func (f *Function) String() string {
	params := make([]string, len(f.Symbol.Parameters))
	for i, p := range f.Symbol.Parameters {
		params[i] = p.Name + ": " + p.Type.String()
	}
	head := "function " + f.Symbol.Name + "(" + strings.Join(params, ", ") + "): " + f.Symbol.Type.String()
	if f.Body == nil {
		return head
	}
	return head + " " + f.Body.String()
}

// File 一个编译单元
type File struct {
	Name      string       // 限定模块名
	Symbols   *SymbolTable // 本单元及其导入共享的符号表
	Imports   []*File      // 导入的单元（只取其函数声明）
	Functions []*Function
}

// HasFunction 本单元是否定义了（带函数体的）同名函数
func (f *File) HasFunction(name string) bool {
	for _, fn := range f.Functions {
		if fn.Symbol.Name == name && fn.Body != nil {
			return true
		}
	}
	return false
}
