// Package lower 把结构化控制流改写为标签与跳转
//
// 代码生成器只接受扁平形式：If/While 在这里展开为 Label、Goto 和
// ConditionalGoto，嵌套块保留为 Block 以维持作用域。
package lower

import (
	"fmt"

	"github.com/tangzhangming/phosphor/internal/ir"
)

// Lowerer 降级器
//
// 生成的标签从文件共享的符号表分配，因此与用户标签的 ID 不会冲突。
type Lowerer struct {
	symbols *ir.SymbolTable
	counter int
}

// New 创建降级器
func New(symbols *ir.SymbolTable) *Lowerer {
	return &Lowerer{symbols: symbols}
}

// File 降级整个编译单元（包括导入的单元），返回新的 File，输入不被修改
func File(f *ir.File) *ir.File {
	return New(f.Symbols).File(f)
}

// File 降级整个编译单元
func (l *Lowerer) File(f *ir.File) *ir.File {
	out := &ir.File{Name: f.Name, Symbols: f.Symbols}
	for _, imp := range f.Imports {
		out.Imports = append(out.Imports, l.File(imp))
	}
	for _, fn := range f.Functions {
		out.Functions = append(out.Functions, l.Function(fn))
	}
	return out
}

// Function 降级单个函数
func (l *Lowerer) Function(fn *ir.Function) *ir.Function {
	if fn.Body == nil {
		return &ir.Function{Symbol: fn.Symbol}
	}
	return &ir.Function{Symbol: fn.Symbol, Body: l.block(fn.Body)}
}

func (l *Lowerer) label(kind string) *ir.Symbol {
	l.counter++
	return l.symbols.NewLabel(fmt.Sprintf("%s_%d", kind, l.counter))
}

func (l *Lowerer) block(b *ir.Block) *ir.Block {
	out := make([]ir.Statement, 0, len(b.Statements))
	for _, s := range b.Statements {
		out = append(out, l.statement(s)...)
	}
	return &ir.Block{Statements: out}
}

func (l *Lowerer) statement(s ir.Statement) []ir.Statement {
	switch s := s.(type) {
	case *ir.Block:
		return []ir.Statement{l.block(s)}
	case *ir.If:
		return l.lowerIf(s)
	case *ir.While:
		return l.lowerWhile(s)
	default:
		return []ir.Statement{s}
	}
}

// lowerIf
//
//	goto else if not cond
//	{ then }
//	goto end
//	else:
//	{ else }
//	end:
func (l *Lowerer) lowerIf(s *ir.If) []ir.Statement {
	end := l.label("if_end")
	if s.Else == nil {
		return []ir.Statement{
			ir.JumpIf(s.Condition, end, false),
			l.block(s.Then),
			ir.Mark(end),
		}
	}
	els := l.label("if_else")
	return []ir.Statement{
		ir.JumpIf(s.Condition, els, false),
		l.block(s.Then),
		ir.Jump(end),
		ir.Mark(els),
		l.block(s.Else),
		ir.Mark(end),
	}
}

// lowerWhile
//
//	start:
//	goto end if not cond
//	{ body }
//	goto start
//	end:
func (l *Lowerer) lowerWhile(s *ir.While) []ir.Statement {
	start := l.label("while_start")
	end := l.label("while_end")
	return []ir.Statement{
		ir.Mark(start),
		ir.JumpIf(s.Condition, end, false),
		l.block(s.Body),
		ir.Jump(start),
		ir.Mark(end),
	}
}

// Lowered 报告函数体中是否已不含结构化控制流
func Lowered(b *ir.Block) bool {
	for _, s := range b.Statements {
		switch s := s.(type) {
		case *ir.If, *ir.While:
			return false
		case *ir.Block:
			if !Lowered(s) {
				return false
			}
		}
	}
	return true
}
