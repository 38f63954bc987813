package amd64

import (
	"sort"
	"strconv"

	cerrors "github.com/tangzhangming/phosphor/internal/errors"
)

// ============================================================================
// 位置分配器
// ============================================================================
//
// 单遍分配，没有活跃区间分析：
//   - 值在需要位置时绑定，生成器确认最后一次使用后释放
//   - 默认按 调用者保存 → 参数 → 被调用者保存 的顺序取空闲寄存器，
//     全部占用时分配新的栈槽（栈槽只增不复用）
//   - 调用前把仍在使用的需保存寄存器压栈，调用后逆序弹出
//   - 被调用者保存寄存器第一次使用时记录到栈槽，函数出口恢复
//
// 压栈后寄存器从占用表中移除，但原主人的位置仍指向它（称为"影子"）：
// 只要没有人写这个寄存器，读取仍然正确；任何人要占用它之前先把影子值
// 复制到新栈槽（rescue），恢复时再弹回寄存器。
//
// ============================================================================

// calleeSave 被调用者保存寄存器及其入口值所在的栈槽
type calleeSave struct {
	reg  Register
	slot Location
}

// pushedRegister 调用前压栈的寄存器与当时的主人
type pushedRegister struct {
	reg   Register
	owner *BoundValue
}

// savedFrame 一次调用的保存记录
type savedFrame struct {
	regs   []pushedRegister // 按压栈顺序
	padded bool             // 为了 16 字节对齐额外 sub rsp, 8
}

// Allocator 一个函数的位置分配状态
type Allocator struct {
	catalog *Catalog
	out     *Stream
	order   []Register // 默认分配顺序

	scopes      [][]*BoundValue
	owners      map[Register]*BoundValue
	calleeSaves []calleeSave
	savedFrames []savedFrame
	cursor      int // 已分配的栈槽字节数
	pushDepth   int // 因调用保存而压栈的机器字数（含填充）
}

// NewAllocator 创建分配器，指令写入 out
func NewAllocator(catalog *Catalog, out *Stream) *Allocator {
	a := &Allocator{
		catalog: catalog,
		out:     out,
		owners:  make(map[Register]*BoundValue),
	}
	seen := make(map[Register]bool)
	for _, class := range [][]Register{catalog.Call.CallerSaved, catalog.Call.IntegerArguments, catalog.Call.CalleeSaved} {
		for _, r := range class {
			if !seen[r] && !catalog.Reserved(r) {
				seen[r] = true
				a.order = append(a.order, r)
			}
		}
	}
	return a
}

// ============================================================================
// 作用域
// ============================================================================

// OpenScope 打开作用域；函数入口时重置整个分配状态
func (a *Allocator) OpenScope(functionEntry bool) {
	if functionEntry {
		a.scopes = a.scopes[:0]
		a.owners = make(map[Register]*BoundValue)
		a.calleeSaves = nil
		a.savedFrames = nil
		a.cursor = 0
		a.pushDepth = 0
	}
	a.scopes = append(a.scopes, nil)
}

// CloseScope 释放最内层作用域的全部值；函数出口时恢复用过的被调用者保存寄存器
func (a *Allocator) CloseScope(functionExit bool) error {
	if len(a.scopes) == 0 {
		return cerrors.Internal(cerrors.C0005, "scope")
	}
	inner := a.scopes[len(a.scopes)-1]
	for _, b := range inner {
		a.release(b)
	}
	a.scopes = a.scopes[:len(a.scopes)-1]

	if functionExit {
		for _, cs := range a.calleeSaves {
			a.out.Emit("mov", cs.reg.Name(Width64), cs.slot.Operand())
		}
	}
	return nil
}

// ============================================================================
// 绑定与释放
// ============================================================================

// Bind 按默认规则为值分配位置
func (a *Allocator) Bind(v Value) (*BoundValue, error) {
	b := &BoundValue{value: v, live: true}
	if r, ok := a.pickFree(!v.IsTemporary()); ok {
		b.location = RegisterLocation(r)
		a.claim(r, b)
	} else {
		b.location = a.newSlot()
	}
	b.home = b.location
	a.add(b)
	return b, nil
}

// BindAt 把值绑定到指定位置
//
// 寄存器已被占用时先驱逐原主人：forceStack 时驱逐到新栈槽，
// 否则按默认规则另找位置。绑定到指定位置的值不会被选作溢出对象。
func (a *Allocator) BindAt(v Value, loc Location, forceStack bool) (*BoundValue, error) {
	b := &BoundValue{value: v, live: true, pinned: true}
	if loc.IsRegister() {
		r := loc.Register()
		if a.catalog.Reserved(r) {
			return nil, cerrors.Internal(cerrors.C0006, r.String())
		}
		if o := a.owners[r]; o != nil {
			a.evict(o, forceStack)
		}
		a.claim(r, b)
	}
	b.location = loc
	b.home = loc
	a.add(b)
	return b, nil
}

// Free 释放值
func (a *Allocator) Free(v Value) error {
	for i := len(a.scopes) - 1; i >= 0; i-- {
		scope := a.scopes[i]
		for j, b := range scope {
			if b.value == v {
				a.scopes[i] = append(scope[:j], scope[j+1:]...)
				a.release(b)
				return nil
			}
		}
	}
	return cerrors.Internal(cerrors.C0004, "free", v.String())
}

// Locate 查找值当前的绑定
func (a *Allocator) Locate(v Value) (*BoundValue, error) {
	if b := a.find(v); b != nil {
		return b, nil
	}
	return nil, cerrors.Internal(cerrors.C0004, "locate", v.String())
}

func (a *Allocator) find(v Value) *BoundValue {
	for i := len(a.scopes) - 1; i >= 0; i-- {
		for _, b := range a.scopes[i] {
			if b.value == v {
				return b
			}
		}
	}
	return nil
}

func (a *Allocator) add(b *BoundValue) {
	n := len(a.scopes) - 1
	a.scopes[n] = append(a.scopes[n], b)
}

func (a *Allocator) release(b *BoundValue) {
	if b.location.IsRegister() && a.owners[b.location.Register()] == b {
		delete(a.owners, b.location.Register())
	}
	b.live = false
}

// ============================================================================
// 寄存器选择
// ============================================================================

// pickFree 按默认顺序找空闲寄存器
//
// 优先选择没有影子的寄存器；为变量选择时避开其它存活变量的原位寄存器，
// 保证语句边界时每个变量都能回到自己的原位。
func (a *Allocator) pickFree(avoidHomes bool) (Register, bool) {
	var fallback Register
	found := false
	for _, r := range a.order {
		if a.owners[r] != nil || (avoidHomes && a.isHome(r)) {
			continue
		}
		if a.shadowOf(r) == nil {
			return r, true
		}
		if !found {
			fallback, found = r, true
		}
	}
	return fallback, found
}

// isHome r 是否为某个存活变量的原位
func (a *Allocator) isHome(r Register) bool {
	for _, scope := range a.scopes {
		for _, b := range scope {
			if !b.value.IsTemporary() && b.home == RegisterLocation(r) {
				return true
			}
		}
	}
	return false
}

// shadowOf 返回压栈后仍指向 r 的值
func (a *Allocator) shadowOf(r Register) *BoundValue {
	if a.owners[r] != nil {
		return nil
	}
	for i := len(a.savedFrames) - 1; i >= 0; i-- {
		for _, p := range a.savedFrames[i].regs {
			if p.reg == r && p.owner.live && p.owner.location == RegisterLocation(r) {
				return p.owner
			}
		}
	}
	return nil
}

// rescue 把影子值复制到新栈槽
func (a *Allocator) rescue(r Register) {
	if s := a.shadowOf(r); s != nil {
		slot := a.newSlot()
		a.out.Emit("mov", slot.Operand(), r.Name(Width64))
		s.location = slot
	}
}

// claim 把寄存器交给 b（调用方随后写入该寄存器）
func (a *Allocator) claim(r Register, b *BoundValue) {
	a.rescue(r)
	if a.isCalleeSaved(r) && !a.calleeSaved(r) {
		a.calleeSaves = append(a.calleeSaves, calleeSave{reg: r, slot: a.newSlot()})
	}
	a.owners[r] = b
}

func (a *Allocator) isCalleeSaved(r Register) bool {
	for _, c := range a.catalog.Call.CalleeSaved {
		if c == r {
			return true
		}
	}
	return false
}

func (a *Allocator) calleeSaved(r Register) bool {
	for _, cs := range a.calleeSaves {
		if cs.reg == r {
			return true
		}
	}
	return false
}

func (a *Allocator) newSlot() Location {
	a.cursor += 8
	return SlotLocation(a.cursor)
}

// evict 把 o 从寄存器移走
func (a *Allocator) evict(o *BoundValue, forceStack bool) {
	var dst Location
	if r, ok := a.pickFree(!o.value.IsTemporary()); ok && !forceStack {
		dst = RegisterLocation(r)
	} else {
		dst = a.newSlot()
	}
	a.relocate(o, dst)
}

// relocate 发出移动指令并更新占用表
func (a *Allocator) relocate(b *BoundValue, dst Location) {
	src := b.location
	if src == dst {
		return
	}
	if dst.IsRegister() {
		a.claim(dst.Register(), b)
	}
	a.Move(dst, src)
	if src.IsRegister() && a.owners[src.Register()] == b {
		delete(a.owners, src.Register())
	}
	b.location = dst
}

// Move 发出一条 dst ← src 的移动；两个都是栈槽时经由栈中转
func (a *Allocator) Move(dst, src Location) {
	if dst == src {
		return
	}
	if dst.IsSlot() && src.IsSlot() {
		a.out.Emit("push", src.Operand())
		a.out.Emit("pop", dst.Operand())
		return
	}
	a.out.Emit("mov", dst.Operand(), src.Operand())
}

// ============================================================================
// 位置调整
// ============================================================================

// EnsureInRegister 确保值在寄存器中
//
// 没有空闲寄存器时，溢出一个未固定的值到新栈槽。
func (a *Allocator) EnsureInRegister(b *BoundValue) error {
	if b.location.IsRegister() {
		return nil
	}
	if r, ok := a.pickFree(false); ok {
		a.relocate(b, RegisterLocation(r))
		return nil
	}
	for _, r := range a.order {
		victim := a.owners[r]
		if victim == nil || victim == b || victim.pinned {
			continue
		}
		a.relocate(victim, a.newSlot())
		a.relocate(b, RegisterLocation(r))
		return nil
	}
	return cerrors.Internal(cerrors.C0006, b.value.String())
}

// MoveTo 把值移动到 dst；dst 寄存器被占用时先按默认规则驱逐占用者
func (a *Allocator) MoveTo(b *BoundValue, dst Location) error {
	if !b.live {
		return cerrors.Internal(cerrors.C0004, "move", b.value.String())
	}
	if b.location == dst {
		return nil
	}
	if dst.IsRegister() {
		if a.catalog.Reserved(dst.Register()) {
			return cerrors.Internal(cerrors.C0006, dst.String())
		}
		if o := a.owners[dst.Register()]; o != nil && o != b {
			a.evict(o, false)
		}
	}
	a.relocate(b, dst)
	return nil
}

// Settle 把所有存活变量移回各自的原位
//
// 在语句边界调用，使每个标签和跳转处的变量布局一致。先处理原位是栈槽的变量，
// 腾出寄存器后再处理原位是寄存器的变量；挡路的值驱逐到新栈槽。
func (a *Allocator) Settle() error {
	var vars []*BoundValue
	for _, scope := range a.scopes {
		for _, b := range scope {
			if !b.value.IsTemporary() && b.location != b.home {
				vars = append(vars, b)
			}
		}
	}
	for _, b := range vars {
		if b.home.IsSlot() {
			a.relocate(b, b.home)
		}
	}
	for _, b := range vars {
		if b.home.IsSlot() || b.location == b.home {
			continue
		}
		if o := a.owners[b.home.Register()]; o != nil && o != b {
			a.relocate(o, a.newSlot())
		}
		a.relocate(b, b.home)
	}
	return nil
}

// ============================================================================
// 调用前后的保存与恢复
// ============================================================================

// SaveForCall 压栈所有正在使用的需保存寄存器（调用结果的目标寄存器除外）
func (a *Allocator) SaveForCall(exclude *BoundValue, syscall bool) {
	set := &a.catalog.Call
	if syscall {
		set = &a.catalog.Syscall
	}
	must := set.MustPreserve()

	excluded, hasExcluded := Register(0), false
	if exclude != nil && exclude.location.IsRegister() {
		excluded, hasExcluded = exclude.location.Register(), true
	}

	// 外层调用留下的影子值会被这次调用破坏
	for _, r := range must {
		a.rescue(r)
	}

	var frame savedFrame
	for _, r := range must {
		if hasExcluded && r == excluded {
			continue
		}
		owner := a.owners[r]
		if owner == nil {
			continue
		}
		a.out.Emit("push", r.Name(Width64))
		frame.regs = append(frame.regs, pushedRegister{reg: r, owner: owner})
		delete(a.owners, r)
	}

	words := len(frame.regs)
	if (a.pushDepth+words)%2 == 1 {
		a.out.Emit("sub", "rsp", "8")
		frame.padded = true
		words++
	}
	a.pushDepth += words
	a.savedFrames = append(a.savedFrames, frame)
}

// RestoreAfterCall 逆序弹出最近一次 SaveForCall 压栈的寄存器
//
// 寄存器已被别的值占用，或原主人已经释放时，丢弃栈上的副本。
func (a *Allocator) RestoreAfterCall() error {
	n := len(a.savedFrames)
	if n == 0 {
		return cerrors.Internal(cerrors.C0005, "restore")
	}
	frame := a.savedFrames[n-1]
	a.savedFrames = a.savedFrames[:n-1]

	if frame.padded {
		a.out.Emit("add", "rsp", "8")
		a.pushDepth--
	}
	for i := len(frame.regs) - 1; i >= 0; i-- {
		p := frame.regs[i]
		// 影子期间被救到栈槽的值回到寄存器，栈槽作废
		if a.owners[p.reg] == nil && p.owner.live && (p.owner.location.IsSlot() || p.owner.location == RegisterLocation(p.reg)) {
			a.out.Emit("pop", p.reg.Name(Width64))
			a.owners[p.reg] = p.owner
			p.owner.location = RegisterLocation(p.reg)
		} else {
			a.out.Emit("add", "rsp", "8")
		}
		a.pushDepth--
	}
	return nil
}

// ============================================================================
// 查询
// ============================================================================

// FrameSize 栈槽区域大小，按 16 字节对齐
func (a *Allocator) FrameSize() int {
	return (a.cursor + 15) &^ 15
}

// CalleeSaves 按首次使用顺序返回用过的被调用者保存寄存器及其栈槽
func (a *Allocator) CalleeSaves() ([]Register, []Location) {
	regs := make([]Register, len(a.calleeSaves))
	slots := make([]Location, len(a.calleeSaves))
	for i, cs := range a.calleeSaves {
		regs[i] = cs.reg
		slots[i] = cs.slot
	}
	return regs, slots
}

// Owner 返回占用 r 的值
func (a *Allocator) Owner(r Register) *BoundValue { return a.owners[r] }

// InUse 返回正在使用的寄存器（按编号排序）
func (a *Allocator) InUse() []Register {
	regs := make([]Register, 0, len(a.owners))
	for r := range a.owners {
		regs = append(regs, r)
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i] < regs[j] })
	return regs
}

// PendingCalls 尚未恢复的调用保存数
func (a *Allocator) PendingCalls() int { return len(a.savedFrames) }

// Depth 打开的作用域数
func (a *Allocator) Depth() int { return len(a.scopes) }

func (a *Allocator) String() string {
	return "allocator{scopes=" + strconv.Itoa(len(a.scopes)) +
		" inUse=" + strconv.Itoa(len(a.owners)) +
		" cursor=" + strconv.Itoa(a.cursor) + "}"
}
