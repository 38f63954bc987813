package amd64

import (
	"fmt"

	"github.com/tangzhangming/phosphor/internal/ir"
)

// ============================================================================
// 位置
// ============================================================================

// Location 值所在的位置：寄存器或相对帧指针的栈槽
//
// 可比较，可以直接用 == 判断两个位置是否相同。
type Location struct {
	reg    Register
	offset int // 栈槽：值位于 [rbp - offset]
	stack  bool
}

// RegisterLocation 寄存器位置
func RegisterLocation(r Register) Location { return Location{reg: r} }

// SlotLocation 栈槽位置，offset 为距帧指针的正字节数
func SlotLocation(offset int) Location { return Location{offset: offset, stack: true} }

// IsRegister 是否为寄存器
func (l Location) IsRegister() bool { return !l.stack }

// IsSlot 是否为栈槽
func (l Location) IsSlot() bool { return l.stack }

// Register 返回寄存器（仅当 IsRegister）
func (l Location) Register() Register { return l.reg }

// Offset 返回栈槽偏移（仅当 IsSlot）
func (l Location) Offset() int { return l.offset }

// Operand 返回 NASM 操作数形式
func (l Location) Operand() string {
	if l.stack {
		return fmt.Sprintf("qword [rbp-%d]", l.offset)
	}
	return l.reg.Name(Width64)
}

func (l Location) String() string { return l.Operand() }

// ============================================================================
// 值
// ============================================================================

// Value 程序值的稳定标识：源码符号（变量/参数）或生成器产生的临时值
type Value struct {
	symbol    ir.SymbolID
	temporary uint32
}

// SymbolValue 变量或参数对应的值
func SymbolValue(id ir.SymbolID) Value { return Value{symbol: id} }

// TemporaryValue 第 n 个临时值（n 从 1 开始）
func TemporaryValue(n uint32) Value { return Value{temporary: n} }

// IsTemporary 是否为临时值
func (v Value) IsTemporary() bool { return v.temporary != 0 }

// Symbol 返回符号 ID（临时值为 0）
func (v Value) Symbol() ir.SymbolID { return v.symbol }

func (v Value) String() string {
	if v.temporary != 0 {
		return fmt.Sprintf("%%t%d", v.temporary)
	}
	return fmt.Sprintf("%%s%d", v.symbol)
}

// ============================================================================
// 绑定值
// ============================================================================

// BoundValue 值与其当前位置的绑定
//
// 位置只由 Allocator 修改；生成器持有指针，读取 Location() 得到最新位置。
type BoundValue struct {
	value    Value
	location Location
	home     Location // 首次绑定的位置，语句边界时变量回到这里
	pinned   bool     // 固定在请求的位置，溢出时不选它
	live     bool
}

// Value 绑定的值
func (b *BoundValue) Value() Value { return b.value }

// Location 当前位置
func (b *BoundValue) Location() Location { return b.location }

// Home 首次绑定的位置
func (b *BoundValue) Home() Location { return b.home }

// Live 是否仍然绑定
func (b *BoundValue) Live() bool { return b.live }

func (b *BoundValue) String() string {
	return b.value.String() + "@" + b.location.String()
}
