package amd64

import (
	"fmt"
	"math"
	"strconv"

	cerrors "github.com/tangzhangming/phosphor/internal/errors"
	"github.com/tangzhangming/phosphor/internal/ir"
)

// ============================================================================
// 表达式
// ============================================================================

// expression 把 e 的值放到 target 的位置
//
// target 为 nil 时只允许调用（结果被丢弃）。求值过程中 target 可能被驱逐，
// 返回前移回进入时的位置。
func (g *Generator) expression(e ir.Expression, target *BoundValue) error {
	if target == nil {
		call, ok := e.(*ir.Call)
		if !ok {
			return cerrors.Internal(cerrors.C0008, e.String(), e.String())
		}
		return g.call(call, nil)
	}

	start := target.Location()
	var err error
	switch e := e.(type) {
	case *ir.Literal:
		err = g.literal(e, target)
	case *ir.VariableRef:
		err = g.variable(e, target)
	case *ir.Unary:
		err = g.unary(e, target)
	case *ir.Binary:
		err = g.binary(e, target)
	case *ir.Call:
		err = g.call(e, target)
	default:
		err = cerrors.Internal(cerrors.C0007, e.String(), fmt.Sprintf("%T", e))
	}
	if err != nil {
		return err
	}
	if target.Live() && target.Location() != start {
		return g.alloc.MoveTo(target, start)
	}
	return nil
}

func (g *Generator) literal(e *ir.Literal, target *BoundValue) error {
	switch e.Kind {
	case ir.TypeInt:
		// 栈槽只能接受 32 位符号扩展立即数
		if target.Location().IsSlot() && (e.Int < math.MinInt32 || e.Int > math.MaxInt32) {
			if err := g.alloc.EnsureInRegister(target); err != nil {
				return err
			}
		}
		g.body.Emit("mov", target.Location().Operand(), strconv.FormatInt(e.Int, 10))
	case ir.TypeBool:
		v := "0"
		if e.Bool {
			v = "1"
		}
		g.body.Emit("mov", target.Location().Operand(), v)
	case ir.TypeString:
		label := g.stringLabel(e.Str)
		if err := g.alloc.EnsureInRegister(target); err != nil {
			return err
		}
		g.body.Emit("mov", target.Location().Operand(), label)
	default:
		return cerrors.Internal(cerrors.C0009, e.String(), e.Kind)
	}
	return nil
}

func (g *Generator) variable(e *ir.VariableRef, target *BoundValue) error {
	src, err := g.alloc.Locate(SymbolValue(e.Symbol.ID))
	if err != nil {
		return err
	}
	g.alloc.Move(target.Location(), src.Location())
	return nil
}

func (g *Generator) unary(e *ir.Unary, target *BoundValue) error {
	t := e.Operand.Type()
	switch {
	case e.Operator == ir.UnaryIdentity && t == ir.TypeInt:
		return g.expression(e.Operand, target)
	case e.Operator == ir.UnaryNegate && t == ir.TypeInt,
		e.Operator == ir.UnaryNot && (t == ir.TypeInt || t == ir.TypeBool):
	default:
		return cerrors.Internal(cerrors.C0001, e.String(), e.Operator, t)
	}

	if err := g.expression(e.Operand, target); err != nil {
		return err
	}
	if err := g.alloc.EnsureInRegister(target); err != nil {
		return err
	}
	loc := target.Location().Operand()
	switch {
	case e.Operator == ir.UnaryNegate:
		g.body.Emit("neg", loc)
	case t == ir.TypeInt:
		g.body.Emit("not", loc)
	default:
		g.body.Emit("xor", loc, "1")
	}
	return nil
}

// binaryMnemonics 可以直接 "op 目标, 源" 的运算
var binaryMnemonics = map[ir.BinaryOperator]string{
	ir.BinaryAdd:      "add",
	ir.BinarySubtract: "sub",
	ir.BinaryMultiply: "imul",
	ir.BinaryAnd:      "and",
	ir.BinaryOr:       "or",
	ir.BinaryXor:      "xor",
}

// conditionJumps 比较运算对应的有符号条件跳转
var conditionJumps = map[ir.BinaryOperator]string{
	ir.BinaryEqual:          "je",
	ir.BinaryNotEqual:       "jne",
	ir.BinaryLess:           "jl",
	ir.BinaryLessOrEqual:    "jle",
	ir.BinaryGreater:        "jg",
	ir.BinaryGreaterOrEqual: "jge",
}

// binarySupported 运算符与操作数类型是否有实现
func binarySupported(op ir.BinaryOperator, t ir.Type) bool {
	switch op {
	case ir.BinaryAdd, ir.BinarySubtract, ir.BinaryMultiply, ir.BinaryDivide, ir.BinaryModulo,
		ir.BinaryLess, ir.BinaryLessOrEqual, ir.BinaryGreater, ir.BinaryGreaterOrEqual:
		return t == ir.TypeInt
	case ir.BinaryAnd, ir.BinaryOr, ir.BinaryXor, ir.BinaryEqual, ir.BinaryNotEqual:
		return t == ir.TypeInt || t == ir.TypeBool
	}
	return false
}

// binary 左操作数求值到目标，右操作数求值到临时值，再在目标上运算
func (g *Generator) binary(e *ir.Binary, target *BoundValue) error {
	lt, rt := e.Left.Type(), e.Right.Type()
	if lt != rt || !binarySupported(e.Operator, lt) {
		return cerrors.Internal(cerrors.C0001, e.String(), e.Operator, lt)
	}

	if err := g.expression(e.Left, target); err != nil {
		return err
	}
	right, err := g.bindTemp()
	if err != nil {
		return err
	}
	if err := g.expression(e.Right, right); err != nil {
		return err
	}
	if err := g.alloc.EnsureInRegister(target); err != nil {
		return err
	}

	switch {
	case e.Operator == ir.BinaryDivide || e.Operator == ir.BinaryModulo:
		err = g.divide(e.Operator == ir.BinaryModulo, target, right)
	case e.Operator.IsComparison():
		g.compare(conditionJumps[e.Operator], target, right)
	default:
		g.body.Emit(binaryMnemonics[e.Operator], target.Location().Operand(), right.Location().Operand())
	}
	if err != nil {
		return err
	}
	return g.alloc.Free(right.Value())
}

// divide 有符号除法：被除数放 rax，cqo 扩展到 rdx，商在 rax，余数在 rdx
func (g *Generator) divide(modulo bool, target, divisor *BoundValue) error {
	rax, err := g.bindTempAt(RegRAX, true)
	if err != nil {
		return err
	}
	rdx, err := g.bindTempAt(RegRDX, true)
	if err != nil {
		return err
	}

	g.alloc.Move(rax.Location(), target.Location())
	g.body.Emit("cqo")
	g.body.Emit("idiv", divisor.Location().Operand())
	if modulo {
		g.alloc.Move(target.Location(), rdx.Location())
	} else {
		g.alloc.Move(target.Location(), rax.Location())
	}

	if err := g.alloc.Free(rdx.Value()); err != nil {
		return err
	}
	return g.alloc.Free(rax.Value())
}

// compare 把比较结果物化为 0/1
func (g *Generator) compare(jump string, target, right *BoundValue) {
	n := strconv.Itoa(g.labels)
	g.labels++
	trueLabel, endLabel := ".cmp_true_"+n, ".cmp_end_"+n

	loc := target.Location().Operand()
	g.body.Emit("cmp", loc, right.Location().Operand())
	g.body.Emit(jump, trueLabel)
	g.body.Emit("mov", loc, "0")
	g.body.Emit("jmp", endLabel)
	g.body.Label(trueLabel)
	g.body.Emit("mov", loc, "1")
	g.body.Label(endLabel)
}

// ============================================================================
// 调用
// ============================================================================

// call 生成调用序列
//
//	保存需保存寄存器 → 参数依次求值到参数寄存器 → call/syscall
//	→ 结果复制到目标 → 释放参数 → 恢复寄存器
//
// 结果在恢复之前复制：恢复可能弹回被压栈的返回寄存器。
func (g *Generator) call(e *ir.Call, target *BoundValue) error {
	fn := e.Function
	syscall := fn.Syscall > 0 && !g.defined[fn.ID]

	set := &g.catalog.Call
	argRegs := set.IntegerArguments
	if syscall {
		set = &g.catalog.Syscall
		// 第一个位置是系统调用号
		argRegs = set.IntegerArguments[1:]
	}
	if len(e.Arguments) > len(argRegs) {
		return cerrors.Internal(cerrors.C0003, "call "+fn.Name, len(e.Arguments), len(argRegs))
	}
	if !syscall && !g.defined[fn.ID] {
		g.addExtern(fn.Name)
	}

	g.alloc.SaveForCall(target, syscall)

	temps := make([]*BoundValue, 0, len(e.Arguments)+1)
	regs := make([]Register, 0, len(e.Arguments)+1)
	for i, arg := range e.Arguments {
		t, err := g.bindTempAt(argRegs[i], true)
		if err != nil {
			return err
		}
		if err := g.expression(arg, t); err != nil {
			return err
		}
		temps = append(temps, t)
		regs = append(regs, argRegs[i])
	}
	if syscall {
		t, err := g.bindTempAt(set.IntegerArguments[0], true)
		if err != nil {
			return err
		}
		g.body.Emit("mov", t.Location().Operand(), strconv.Itoa(fn.Syscall))
		temps = append(temps, t)
		regs = append(regs, set.IntegerArguments[0])
	}

	// 后面参数的求值可能驱逐了前面的参数
	for i, t := range temps {
		if err := g.alloc.MoveTo(t, RegisterLocation(regs[i])); err != nil {
			return err
		}
	}

	if syscall {
		g.body.Emit("syscall")
	} else {
		g.body.Emit("call", symbolName(fn.Name))
	}

	ret := RegisterLocation(set.Return)
	if target != nil && target.Location() != ret {
		g.alloc.Move(target.Location(), ret)
	}

	for _, t := range temps {
		if err := g.alloc.Free(t.Value()); err != nil {
			return err
		}
	}
	return g.alloc.RestoreAfterCall()
}
