package amd64

import (
	"fmt"

	cerrors "github.com/tangzhangming/phosphor/internal/errors"
	"github.com/tangzhangming/phosphor/internal/ir"
)

// ============================================================================
// 语句
// ============================================================================

// statements 逐条生成语句，每条语句结束时变量回到原位
func (g *Generator) statements(stmts []ir.Statement) error {
	for _, s := range stmts {
		if err := g.statement(s); err != nil {
			return err
		}
		if err := g.alloc.Settle(); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) statement(s ir.Statement) error {
	switch s := s.(type) {
	case *ir.VariableDeclaration:
		return g.declaration(s)
	case *ir.Assignment:
		return g.assignment(s)
	case *ir.Return:
		return g.returnStatement(s)
	case *ir.Label:
		g.body.Label(labelName(s.Symbol))
		return nil
	case *ir.Goto:
		if err := g.alloc.Settle(); err != nil {
			return err
		}
		g.body.Emit("jmp", labelName(s.Target))
		return nil
	case *ir.ConditionalGoto:
		return g.conditionalGoto(s)
	case *ir.ExpressionStatement:
		return g.expression(s.Expression, nil)
	case *ir.Block:
		g.alloc.OpenScope(false)
		if err := g.statements(s.Statements); err != nil {
			return err
		}
		return g.alloc.CloseScope(false)
	default:
		return cerrors.Internal(cerrors.C0007, s.String(), fmt.Sprintf("%T", s))
	}
}

func (g *Generator) declaration(s *ir.VariableDeclaration) error {
	if s.Variable.Type == ir.TypeVoid {
		return cerrors.Internal(cerrors.C0009, s.Variable.Name, s.Variable.Type)
	}
	b, err := g.alloc.Bind(SymbolValue(s.Variable.ID))
	if err != nil {
		return err
	}
	if s.Initializer == nil {
		return nil
	}
	return g.expression(s.Initializer, b)
}

// assignment 直接求值到变量的位置；右侧在写入后还会读取变量时经由临时值
func (g *Generator) assignment(s *ir.Assignment) error {
	b, err := g.alloc.Locate(SymbolValue(s.Variable.ID))
	if err != nil {
		return err
	}
	if !readsAfterWrite(s.Value, s.Variable.ID) {
		return g.expression(s.Value, b)
	}

	t, err := g.bindTemp()
	if err != nil {
		return err
	}
	if err := g.expression(s.Value, t); err != nil {
		return err
	}
	g.alloc.Move(b.Location(), t.Location())
	return g.alloc.Free(t.Value())
}

// readsAfterWrite 把 e 直接求值到变量 id 的位置时，是否会在写入之后再读取它
//
// 二元表达式先把左操作数写入目标，之后右操作数不能再读目标；
// 调用只在最后写入目标，参数可以自由读取。
func readsAfterWrite(e ir.Expression, id ir.SymbolID) bool {
	switch e := e.(type) {
	case *ir.Unary:
		return readsAfterWrite(e.Operand, id)
	case *ir.Binary:
		return readsAfterWrite(e.Left, id) || references(e.Right, id)
	default:
		return false
	}
}

func references(e ir.Expression, id ir.SymbolID) bool {
	switch e := e.(type) {
	case *ir.VariableRef:
		return e.Symbol.ID == id
	case *ir.Unary:
		return references(e.Operand, id)
	case *ir.Binary:
		return references(e.Left, id) || references(e.Right, id)
	case *ir.Call:
		for _, a := range e.Arguments {
			if references(a, id) {
				return true
			}
		}
	}
	return false
}

// returnStatement 返回值放入返回寄存器后跳到共享的函数尾声
func (g *Generator) returnStatement(s *ir.Return) error {
	if s.Value != nil {
		t, err := g.bindTempAt(g.catalog.Call.Return, false)
		if err != nil {
			return err
		}
		if err := g.expression(s.Value, t); err != nil {
			return err
		}
		if err := g.alloc.Free(t.Value()); err != nil {
			return err
		}
	}
	// 返回寄存器不在默认分配顺序中，归位不会破坏返回值
	if err := g.alloc.Settle(); err != nil {
		return err
	}
	g.body.Emit("jmp", epilogueLabel)
	return nil
}

func (g *Generator) conditionalGoto(s *ir.ConditionalGoto) error {
	if s.Condition.Type() != ir.TypeBool {
		return cerrors.Internal(cerrors.C0009, s.String(), s.Condition.Type())
	}
	t, err := g.bindTemp()
	if err != nil {
		return err
	}
	if err := g.expression(s.Condition, t); err != nil {
		return err
	}
	if err := g.alloc.EnsureInRegister(t); err != nil {
		return err
	}
	// 跳转前变量必须已在原位；归位可能把 t 挤到栈槽，所以之后再读取它的位置
	if err := g.alloc.Settle(); err != nil {
		return err
	}

	want := "0"
	if s.JumpIfTrue {
		want = "1"
	}
	g.body.Emit("cmp", t.Location().Operand(), want)
	g.body.Emit("je", labelName(s.Target))
	return g.alloc.Free(t.Value())
}
