package lower

import (
	"testing"

	"github.com/tangzhangming/phosphor/internal/ir"
)

func TestLowerIfElse(t *testing.T) {
	st := ir.NewSymbolTable()
	x := st.NewParameter("x", ir.TypeInt)
	fn := st.NewFunction("abs", ir.TypeInt, x)
	src := ir.Define(fn, &ir.If{
		Condition: ir.Bin(ir.BinaryLess, ir.Ref(x), ir.Int(0)),
		Then:      ir.Body(ir.Ret(ir.Neg(ir.Ref(x)))),
		Else:      ir.Body(ir.Ret(ir.Ref(x))),
	})

	got := New(st).Function(src)
	stmts := got.Body.Statements
	if len(stmts) != 6 {
		t.Fatalf("expected 6 statements, got %d: %s", len(stmts), got)
	}

	jump, ok := stmts[0].(*ir.ConditionalGoto)
	if !ok || jump.JumpIfTrue {
		t.Fatalf("first statement should be goto-if-not, got %s", stmts[0])
	}
	elseLabel := stmts[3].(*ir.Label)
	if jump.Target != elseLabel.Symbol {
		t.Error("conditional goto should target the else label")
	}
	if g := stmts[2].(*ir.Goto); g.Target != stmts[5].(*ir.Label).Symbol {
		t.Error("then branch should jump to the end label")
	}
	if !Lowered(got.Body) {
		t.Error("result still contains structured control flow")
	}
	// 输入保持不变
	if _, ok := src.Body.Statements[0].(*ir.If); !ok {
		t.Error("input was modified")
	}
}

func TestLowerIfWithoutElse(t *testing.T) {
	st := ir.NewSymbolTable()
	fn := st.NewFunction("f", ir.TypeVoid)
	src := ir.Define(fn, &ir.If{Condition: ir.Bool(true), Then: ir.Body()})

	stmts := New(st).Function(src).Body.Statements
	if len(stmts) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(stmts))
	}
	if stmts[0].(*ir.ConditionalGoto).Target != stmts[2].(*ir.Label).Symbol {
		t.Error("goto should skip to the end label")
	}
}

func TestLowerNestedWhile(t *testing.T) {
	st := ir.NewSymbolTable()
	i := st.NewVariable("i", ir.TypeInt)
	fn := st.NewFunction("count", ir.TypeInt)
	src := ir.Define(fn,
		ir.Declare(i, ir.Int(0)),
		&ir.While{
			Condition: ir.Bin(ir.BinaryLess, ir.Ref(i), ir.Int(10)),
			Body: ir.Body(
				&ir.If{
					Condition: ir.Bin(ir.BinaryEqual, ir.Ref(i), ir.Int(5)),
					Then:      ir.Body(ir.Ret(ir.Ref(i))),
				},
				ir.Assign(i, ir.Add(ir.Ref(i), ir.Int(1))),
			),
		},
		ir.Ret(ir.Int(-1)),
	)

	got := New(st).Function(src)
	if !Lowered(got.Body) {
		t.Fatalf("nested if was not lowered: %s", got)
	}

	stmts := got.Body.Statements
	start := stmts[1].(*ir.Label)
	exit := stmts[2].(*ir.ConditionalGoto)
	back := stmts[4].(*ir.Goto)
	end := stmts[5].(*ir.Label)
	if back.Target != start.Symbol || exit.Target != end.Symbol {
		t.Error("loop labels are wired incorrectly")
	}
	if start.Symbol.Name == end.Symbol.Name {
		t.Error("generated labels should have distinct names")
	}
}

func TestLowerFile(t *testing.T) {
	st := ir.NewSymbolTable()
	ext := st.NewExternalFunction("print", ir.TypeVoid)
	mainFn := st.NewFunction("main", ir.TypeInt)
	f := &ir.File{
		Name:    "app",
		Symbols: st,
		Imports: []*ir.File{{Name: "std", Symbols: st, Functions: []*ir.Function{{Symbol: ext}}}},
		Functions: []*ir.Function{
			ir.Define(mainFn, &ir.While{Condition: ir.Bool(false), Body: ir.Body()}, ir.Ret(ir.Int(0))),
		},
	}

	out := File(f)
	if len(out.Imports) != 1 || out.Imports[0].Functions[0].Body != nil {
		t.Error("external functions should stay without body")
	}
	if !Lowered(out.Functions[0].Body) {
		t.Error("main was not lowered")
	}
}
