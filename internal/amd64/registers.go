// Package amd64 实现 AMD64/Linux 目标的单遍代码生成器
//
// 生成器遍历已降级、已绑定的程序树，同时完成寄存器分配：
// 每个值在需要位置时由 Allocator 给出寄存器或栈槽，寄存器不足时溢出到栈，
// 调用前后按调用约定保存/恢复调用者保存寄存器，用过的被调用者保存寄存器在
// 函数出口恢复。输出为 NASM 语法的汇编文本。
package amd64

// ============================================================================
// 寄存器
// ============================================================================

// Register 物理寄存器编号（与硬件编码一致）
type Register uint8

const (
	RegRAX Register = iota
	RegRCX
	RegRDX
	RegRBX
	RegRSP
	RegRBP
	RegRSI
	RegRDI
	RegR8
	RegR9
	RegR10
	RegR11
	RegR12
	RegR13
	RegR14
	RegR15

	numRegisters
)

// Width 操作数宽度
type Width int

const (
	Width64 Width = iota
	Width32
	Width16
	Width8
)

// registerNames 各宽度下的寄存器名，生成器只使用 64 位形式
var registerNames = [numRegisters][4]string{
	RegRAX: {"rax", "eax", "ax", "al"},
	RegRCX: {"rcx", "ecx", "cx", "cl"},
	RegRDX: {"rdx", "edx", "dx", "dl"},
	RegRBX: {"rbx", "ebx", "bx", "bl"},
	RegRSP: {"rsp", "esp", "sp", "spl"},
	RegRBP: {"rbp", "ebp", "bp", "bpl"},
	RegRSI: {"rsi", "esi", "si", "sil"},
	RegRDI: {"rdi", "edi", "di", "dil"},
	RegR8:  {"r8", "r8d", "r8w", "r8b"},
	RegR9:  {"r9", "r9d", "r9w", "r9b"},
	RegR10: {"r10", "r10d", "r10w", "r10b"},
	RegR11: {"r11", "r11d", "r11w", "r11b"},
	RegR12: {"r12", "r12d", "r12w", "r12b"},
	RegR13: {"r13", "r13d", "r13w", "r13b"},
	RegR14: {"r14", "r14d", "r14w", "r14b"},
	RegR15: {"r15", "r15d", "r15w", "r15b"},
}

// Name 返回指定宽度下的寄存器名
func (r Register) Name(w Width) string {
	if r >= numRegisters || w < Width64 || w > Width8 {
		return "?"
	}
	return registerNames[r][w]
}

func (r Register) String() string { return r.Name(Width64) }

// ============================================================================
// 调用约定
// ============================================================================

// RegisterSet 一种调用序列（普通调用或系统调用）下的寄存器角色
type RegisterSet struct {
	IntegerArguments []Register // 按顺序传递整数参数
	CallerSaved      []Register // 除参数与返回寄存器外，调用可能破坏的寄存器
	CalleeSaved      []Register // 被调用方必须恢复的寄存器
	Return           Register
}

// MustPreserve 调用前需要由调用方保存的寄存器：返回寄存器 + 参数寄存器 + 调用者保存寄存器
func (s *RegisterSet) MustPreserve() []Register {
	out := make([]Register, 0, 1+len(s.IntegerArguments)+len(s.CallerSaved))
	seen := make(map[Register]bool, cap(out))
	add := func(r Register) {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	add(s.Return)
	for _, r := range s.IntegerArguments {
		add(r)
	}
	for _, r := range s.CallerSaved {
		add(r)
	}
	return out
}

// Catalog 目标平台的寄存器目录
//
// 构造一次后只读，在分配器和生成器之间共享。
type Catalog struct {
	Call         RegisterSet
	Syscall      RegisterSet
	StackPointer Register
	FramePointer Register
}

// Reserved 栈指针与帧指针永不分配
func (c *Catalog) Reserved(r Register) bool {
	return r == c.StackPointer || r == c.FramePointer
}

// LinuxAMD64 System V AMD64 调用约定与 Linux 系统调用约定
//
// 系统调用号放在 rax，参数依次为 rdi rsi rdx r10 r8 r9；
// syscall 指令本身会破坏 rcx 和 r11。
var LinuxAMD64 = &Catalog{
	Call: RegisterSet{
		IntegerArguments: []Register{RegRDI, RegRSI, RegRDX, RegRCX, RegR8, RegR9},
		CallerSaved:      []Register{RegR10, RegR11},
		CalleeSaved:      []Register{RegRBX, RegR12, RegR13, RegR14, RegR15},
		Return:           RegRAX,
	},
	Syscall: RegisterSet{
		IntegerArguments: []Register{RegRAX, RegRDI, RegRSI, RegRDX, RegR10, RegR8, RegR9},
		CallerSaved:      []Register{RegRCX, RegR11},
		CalleeSaved:      []Register{RegRBX, RegR12, RegR13, RegR14, RegR15},
		Return:           RegRAX,
	},
	StackPointer: RegRSP,
	FramePointer: RegRBP,
}
