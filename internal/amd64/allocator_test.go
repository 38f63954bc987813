package amd64

import (
	stderrors "errors"
	"reflect"
	"testing"

	cerrors "github.com/tangzhangming/phosphor/internal/errors"
)

func newTestAllocator() (*Allocator, *Stream) {
	out := NewStream()
	a := NewAllocator(LinuxAMD64, out)
	a.OpenScope(true)
	return a, out
}

func mustBind(t *testing.T, a *Allocator, v Value) *BoundValue {
	t.Helper()
	b, err := a.Bind(v)
	if err != nil {
		t.Fatalf("Bind(%s) failed: %v", v, err)
	}
	return b
}

func mustBindAt(t *testing.T, a *Allocator, v Value, loc Location, force bool) *BoundValue {
	t.Helper()
	b, err := a.BindAt(v, loc, force)
	if err != nil {
		t.Fatalf("BindAt(%s, %s) failed: %v", v, loc, err)
	}
	return b
}

func assertLines(t *testing.T, out *Stream, want ...string) {
	t.Helper()
	got := out.Instructions()
	if len(want) == 0 && len(got) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("instructions differ\n got: %q\nwant: %q", got, want)
	}
}

// TestDefaultOrder 默认顺序：调用者保存 → 参数 → 被调用者保存 → 栈槽
func TestDefaultOrder(t *testing.T) {
	a, _ := newTestAllocator()

	want := []Location{
		RegisterLocation(RegR10), RegisterLocation(RegR11),
		RegisterLocation(RegRDI), RegisterLocation(RegRSI), RegisterLocation(RegRDX),
		RegisterLocation(RegRCX), RegisterLocation(RegR8), RegisterLocation(RegR9),
		RegisterLocation(RegRBX), RegisterLocation(RegR12), RegisterLocation(RegR13),
		RegisterLocation(RegR14), RegisterLocation(RegR15),
	}
	for i, loc := range want {
		b := mustBind(t, a, TemporaryValue(uint32(i+1)))
		if b.Location() != loc {
			t.Fatalf("value %d bound to %s, want %s", i+1, b.Location(), loc)
		}
	}

	// 5 个被调用者保存寄存器各占一个栈槽，下一个值落在第 6 个栈槽
	b := mustBind(t, a, TemporaryValue(100))
	if b.Location() != SlotLocation(48) {
		t.Errorf("overflow value bound to %s, want qword [rbp-48]", b.Location())
	}
	for _, r := range []Register{RegRSP, RegRBP, RegRAX} {
		if a.Owner(r) != nil {
			t.Errorf("%s must never be handed out by default", r)
		}
	}
}

// TestCalleeSavedRestore 用过的被调用者保存寄存器在函数出口恢复
func TestCalleeSavedRestore(t *testing.T) {
	a, out := newTestAllocator()
	for i := 0; i < 9; i++ {
		mustBind(t, a, TemporaryValue(uint32(i+1)))
	}
	if a.Owner(RegRBX) == nil {
		t.Fatal("ninth value should land in rbx")
	}

	regs, slots := a.CalleeSaves()
	if !reflect.DeepEqual(regs, []Register{RegRBX}) || slots[0] != SlotLocation(8) {
		t.Fatalf("callee saves = %v %v", regs, slots)
	}
	if a.FrameSize() != 16 {
		t.Errorf("FrameSize() = %d, want 16", a.FrameSize())
	}

	if err := a.CloseScope(true); err != nil {
		t.Fatalf("CloseScope failed: %v", err)
	}
	assertLines(t, out, "mov rbx, qword [rbp-8]")
	if len(a.InUse()) != 0 {
		t.Errorf("registers still in use after close: %v", a.InUse())
	}
}

func TestBindAtEviction(t *testing.T) {
	t.Run("default rule", func(t *testing.T) {
		a, out := newTestAllocator()
		x := mustBindAt(t, a, SymbolValue(1), RegisterLocation(RegRDI), false)
		tmp := mustBindAt(t, a, TemporaryValue(1), RegisterLocation(RegRDI), false)

		if x.Location() != RegisterLocation(RegR10) {
			t.Errorf("evicted value moved to %s, want r10", x.Location())
		}
		if a.Owner(RegRDI) != tmp || a.Owner(RegR10) != x {
			t.Error("ownership not updated")
		}
		assertLines(t, out, "mov r10, rdi")
	})

	t.Run("force stack", func(t *testing.T) {
		a, out := newTestAllocator()
		x := mustBindAt(t, a, SymbolValue(1), RegisterLocation(RegRDI), false)
		mustBindAt(t, a, TemporaryValue(1), RegisterLocation(RegRDI), true)

		if x.Location() != SlotLocation(8) {
			t.Errorf("evicted value moved to %s, want stack", x.Location())
		}
		assertLines(t, out, "mov qword [rbp-8], rdi")
	})

	t.Run("reserved", func(t *testing.T) {
		a, _ := newTestAllocator()
		if _, err := a.BindAt(TemporaryValue(1), RegisterLocation(RegRSP), false); err == nil {
			t.Error("binding rsp should fail")
		}
	})
}

func TestFreeAndLocate(t *testing.T) {
	a, _ := newTestAllocator()
	x := mustBind(t, a, SymbolValue(7))

	if got, err := a.Locate(SymbolValue(7)); err != nil || got != x {
		t.Fatalf("Locate = %v, %v", got, err)
	}
	if err := a.Free(SymbolValue(7)); err != nil {
		t.Fatalf("Free failed: %v", err)
	}
	if x.Live() || a.Owner(RegR10) != nil {
		t.Error("freed value still holds its register")
	}

	_, err := a.Locate(SymbolValue(7))
	if !stderrors.Is(err, &cerrors.InternalError{Code: cerrors.C0004}) {
		t.Errorf("Locate of freed value: %v", err)
	}
	if err := a.Free(SymbolValue(7)); !stderrors.Is(err, &cerrors.InternalError{Code: cerrors.C0004}) {
		t.Errorf("double Free: %v", err)
	}
}

func TestScopes(t *testing.T) {
	a, _ := newTestAllocator()
	outer := mustBind(t, a, SymbolValue(1))

	a.OpenScope(false)
	inner := mustBind(t, a, SymbolValue(2))
	if got, _ := a.Locate(SymbolValue(1)); got != outer {
		t.Error("outer value should be visible in inner scope")
	}
	if err := a.CloseScope(false); err != nil {
		t.Fatal(err)
	}

	if inner.Live() || a.Owner(inner.Location().Register()) != nil {
		t.Error("closing a scope must release its values")
	}
	if !outer.Live() {
		t.Error("outer value released too early")
	}

	// 函数入口重置全部状态
	a.OpenScope(true)
	if len(a.InUse()) != 0 || a.Depth() != 1 || a.FrameSize() != 0 {
		t.Errorf("function entry did not reset: %s", a)
	}
}

func TestEnsureInRegister(t *testing.T) {
	a, out := newTestAllocator()
	s := mustBindAt(t, a, TemporaryValue(1), SlotLocation(8), false)
	a.cursor = 8

	if err := a.EnsureInRegister(s); err != nil {
		t.Fatal(err)
	}
	if s.Location() != RegisterLocation(RegR10) {
		t.Errorf("value moved to %s, want r10", s.Location())
	}
	assertLines(t, out, "mov r10, qword [rbp-8]")

	// 已经在寄存器中时不产生指令
	if err := a.EnsureInRegister(s); err != nil || out.Len() != 1 {
		t.Error("EnsureInRegister on a register value must be a no-op")
	}
}

// TestEnsureInRegisterSpills 寄存器用尽时溢出一个未固定的值
func TestEnsureInRegisterSpills(t *testing.T) {
	a, out := newTestAllocator()
	var values []*BoundValue
	for i := 0; i < 13; i++ {
		values = append(values, mustBind(t, a, TemporaryValue(uint32(i+1))))
	}
	values[0].pinned = true

	s := mustBind(t, a, TemporaryValue(50))
	if !s.Location().IsSlot() {
		t.Fatalf("fourteenth value should be on the stack, got %s", s.Location())
	}
	before := out.Len()

	if err := a.EnsureInRegister(s); err != nil {
		t.Fatal(err)
	}
	if s.Location() != RegisterLocation(RegR11) {
		t.Errorf("value moved to %s, want r11 (r10 is pinned)", s.Location())
	}
	if !values[1].Location().IsSlot() {
		t.Errorf("victim should be spilled, got %s", values[1].Location())
	}
	if out.Len()-before != 2 {
		t.Errorf("expected spill + load, got %q", out.Instructions()[before:])
	}

	// 全部固定时报告 C0006
	for _, v := range values {
		v.pinned = true
	}
	s.pinned = true
	other := mustBind(t, a, TemporaryValue(51))
	err := a.EnsureInRegister(other)
	if !stderrors.Is(err, &cerrors.InternalError{Code: cerrors.C0006}) {
		t.Errorf("expected C0006, got %v", err)
	}
}

// TestSaveRestore 压栈集合恰好是调用前正在使用的需保存寄存器
func TestSaveRestore(t *testing.T) {
	a, out := newTestAllocator()
	x := mustBindAt(t, a, SymbolValue(1), RegisterLocation(RegRDI), false)
	y := mustBind(t, a, SymbolValue(2)) // r10
	target := mustBind(t, a, TemporaryValue(1))
	for i := 0; i < 7; i++ {
		mustBind(t, a, TemporaryValue(uint32(10+i))) // r11 rsi rdx rcx r8 r9 rbx
	}
	out.lines = out.lines[:0]

	inUseBefore := a.InUse()
	a.SaveForCall(target, false)

	// target 在 r11，被排除；rbx 是被调用者保存寄存器
	assertLines(t, out,
		"push rdi", "push rsi", "push rdx", "push rcx", "push r8", "push r9", "push r10",
		"sub rsp, 8")
	if a.Owner(RegRDI) != nil || a.Owner(RegR11) != target || a.Owner(RegRBX) == nil {
		t.Errorf("unexpected owners after save: %v", a.InUse())
	}
	if a.PendingCalls() != 1 {
		t.Fatal("save frame not recorded")
	}

	out.lines = out.lines[:0]
	if err := a.RestoreAfterCall(); err != nil {
		t.Fatal(err)
	}
	assertLines(t, out,
		"add rsp, 8",
		"pop r10", "pop r9", "pop r8", "pop rcx", "pop rdx", "pop rsi", "pop rdi")
	if !reflect.DeepEqual(a.InUse(), inUseBefore) {
		t.Errorf("in-use set after restore %v, before %v", a.InUse(), inUseBefore)
	}
	if x.Location() != RegisterLocation(RegRDI) || y.Location() != RegisterLocation(RegR10) {
		t.Error("values should be back in their registers")
	}
}

func TestRestoreWithoutSave(t *testing.T) {
	a, _ := newTestAllocator()
	err := a.RestoreAfterCall()
	if !stderrors.Is(err, &cerrors.InternalError{Code: cerrors.C0005}) {
		t.Errorf("expected C0005, got %v", err)
	}
}

// TestShadowRescue 压栈后寄存器被重新占用时，原值先复制到栈槽，恢复时弹回
func TestShadowRescue(t *testing.T) {
	a, out := newTestAllocator()
	y := mustBindAt(t, a, SymbolValue(1), RegisterLocation(RegRDI), false)
	out.lines = out.lines[:0]

	a.SaveForCall(nil, false)
	arg := mustBindAt(t, a, TemporaryValue(1), RegisterLocation(RegRDI), true)
	if y.Location() != SlotLocation(8) {
		t.Fatalf("shadowed value should be rescued to the stack, got %s", y.Location())
	}
	if err := a.Free(arg.Value()); err != nil {
		t.Fatal(err)
	}
	if err := a.RestoreAfterCall(); err != nil {
		t.Fatal(err)
	}

	assertLines(t, out, "push rdi", "sub rsp, 8", "mov qword [rbp-8], rdi", "add rsp, 8", "pop rdi")
	if y.Location() != RegisterLocation(RegRDI) || a.Owner(RegRDI) != y {
		t.Errorf("rescued value should return to rdi, got %s", y.Location())
	}
}

// TestNestedSaveRescuesOuterShadows 内层调用会破坏外层的影子寄存器
func TestNestedSaveRescuesOuterShadows(t *testing.T) {
	a, out := newTestAllocator()
	x := mustBindAt(t, a, SymbolValue(1), RegisterLocation(RegRSI), false)

	a.SaveForCall(nil, false) // push rsi
	arg := mustBindAt(t, a, TemporaryValue(1), RegisterLocation(RegRDI), true)
	out.lines = out.lines[:0]

	a.SaveForCall(arg, false) // 内层调用的结果写入 arg
	if !x.Location().IsSlot() {
		t.Fatalf("outer shadow should be rescued before the inner call, got %s", x.Location())
	}
	// 外层已压 1 个字（加 1 个填充），内层不压寄存器，也不需要填充
	assertLines(t, out, "mov qword [rbp-8], rsi")

	if err := a.RestoreAfterCall(); err != nil {
		t.Fatal(err)
	}
	if err := a.Free(arg.Value()); err != nil {
		t.Fatal(err)
	}
	if err := a.RestoreAfterCall(); err != nil {
		t.Fatal(err)
	}
	if x.Location() != RegisterLocation(RegRSI) {
		t.Errorf("x should be popped back into rsi, got %s", x.Location())
	}
}

func TestMoveToEvicts(t *testing.T) {
	a, out := newTestAllocator()
	x := mustBind(t, a, SymbolValue(1))    // r10
	y := mustBind(t, a, TemporaryValue(1)) // r11

	if err := a.MoveTo(y, RegisterLocation(RegR10)); err != nil {
		t.Fatal(err)
	}
	// 驱逐 x 时 r11 仍被 y 占用，下一个空闲的是 rdi
	if y.Location() != RegisterLocation(RegR10) || x.Location() != RegisterLocation(RegRDI) {
		t.Errorf("x=%s y=%s", x.Location(), y.Location())
	}
	if a.Owner(RegR11) != nil {
		t.Error("r11 should be released")
	}
	assertLines(t, out, "mov rdi, r10", "mov r10, r11")
}

func TestSlotToSlotMove(t *testing.T) {
	a, out := newTestAllocator()
	a.Move(SlotLocation(8), SlotLocation(16))
	a.Move(SlotLocation(8), SlotLocation(8))
	assertLines(t, out, "push qword [rbp-16]", "pop qword [rbp-8]")
}

// TestSettle 语句边界时变量回到原位，挡路的值被挤到栈槽
func TestSettle(t *testing.T) {
	a, out := newTestAllocator()
	x := mustBindAt(t, a, SymbolValue(1), RegisterLocation(RegRDI), false)
	y := mustBindAt(t, a, SymbolValue(2), RegisterLocation(RegRSI), false)

	// 交换：x 去了 r10，y 去了 rdi
	if err := a.MoveTo(x, RegisterLocation(RegR10)); err != nil {
		t.Fatal(err)
	}
	if err := a.MoveTo(y, RegisterLocation(RegRDI)); err != nil {
		t.Fatal(err)
	}
	out.lines = out.lines[:0]

	if err := a.Settle(); err != nil {
		t.Fatal(err)
	}
	if x.Location() != x.Home() || y.Location() != y.Home() {
		t.Fatalf("not settled: x=%s y=%s", x.Location(), y.Location())
	}
	if a.Owner(RegRDI) != x || a.Owner(RegRSI) != y {
		t.Error("owners do not match homes")
	}
	assertLines(t, out, "mov qword [rbp-8], rdi", "mov rdi, r10", "mov rsi, qword [rbp-8]")
}

// TestVariableHomesUnique 新变量不会占用其它存活变量的原位
func TestVariableHomesUnique(t *testing.T) {
	a, _ := newTestAllocator()
	x := mustBind(t, a, SymbolValue(1)) // r10
	if err := a.MoveTo(x, SlotLocation(8)); err != nil {
		t.Fatal(err)
	}
	a.cursor = 8

	y := mustBind(t, a, SymbolValue(2))
	if y.Location() == x.Home() {
		t.Errorf("variable took another variable's home %s", x.Home())
	}
	tmp := mustBind(t, a, TemporaryValue(1))
	if tmp.Location() != x.Home() {
		t.Errorf("temporaries may use a vacated home, got %s", tmp.Location())
	}
}
