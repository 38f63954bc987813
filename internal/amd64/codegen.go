package amd64

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	cerrors "github.com/tangzhangming/phosphor/internal/errors"
	"github.com/tangzhangming/phosphor/internal/ir"
)

// ============================================================================
// 代码生成器
// ============================================================================

// ExitFunction 运行时退出函数，入口点在 main 返回后调用它
const ExitFunction = "exit"

// EntryPoint 程序入口符号
const EntryPoint = "_start"

const epilogueLabel = ".epilogue"

// Option 生成器选项
type Option func(*Generator)

// WithLogger 设置日志（每个函数输出一行调试信息）
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// Generator 代码生成器
//
// 一个 Generator 可以多次调用 Generate；每次调用使用全新的单元状态，
// 相同输入得到逐字节相同的输出。
type Generator struct {
	catalog *Catalog
	logger  *zap.Logger

	// 单元状态
	defined     map[ir.SymbolID]bool
	strings     map[string]string
	stringOrder []string
	externs     []string
	externSet   map[string]bool
	labels      int

	// 函数状态
	fn    *ir.Function
	alloc *Allocator
	body  *Stream
	temps uint32
}

// NewGenerator 创建代码生成器
func NewGenerator(catalog *Catalog, opts ...Option) *Generator {
	g := &Generator{catalog: catalog, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate 使用 Linux AMD64 目录生成汇编
func Generate(f *ir.File) (string, error) {
	return NewGenerator(LinuxAMD64).Generate(f)
}

// Generate 为编译单元生成完整的 NASM 汇编文本
//
// 任何内部错误都会中止整个单元，不返回部分输出。
func (g *Generator) Generate(f *ir.File) (string, error) {
	g.reset()

	var mainDefined bool
	for _, fn := range f.Functions {
		if fn.Body != nil {
			g.defined[fn.Symbol.ID] = true
			if fn.Symbol.Name == "main" {
				mainDefined = true
			}
		}
	}

	functions := make([]*Stream, 0, len(f.Functions))
	var names []string
	for _, fn := range f.Functions {
		if fn.Body == nil {
			continue
		}
		s, err := g.function(fn)
		if err != nil {
			return "", err
		}
		functions = append(functions, s)
		names = append(names, fn.Symbol.Name)
	}

	out := NewStream()
	if len(g.stringOrder) > 0 {
		out.Directive("section .rodata")
		for _, s := range g.stringOrder {
			out.Label(g.strings[s])
			out.Emit("dq", strconv.Itoa(len(s)))
			if len(s) > 0 {
				out.Emit("db", byteList(s))
			}
		}
		out.Blank()
	}

	out.Directive("section .text")
	if !f.HasFunction(ExitFunction) {
		g.addExtern(ExitFunction)
	}
	for _, name := range g.externs {
		out.Directive("extern " + symbolName(name))
	}

	if mainDefined {
		out.Blank()
		out.Directive("global " + EntryPoint)
		out.Label(EntryPoint)
		out.Emit("call", symbolName("main"))
		out.Emit("mov", g.catalog.Call.IntegerArguments[0].Name(Width64), g.catalog.Call.Return.Name(Width64))
		out.Emit("call", symbolName(ExitFunction))
	}

	for i, s := range functions {
		out.Blank()
		out.Directive("global " + symbolName(names[i]))
		out.Label(symbolName(names[i]))
		out.Append(s)
	}
	return out.String(), nil
}

func (g *Generator) reset() {
	g.defined = make(map[ir.SymbolID]bool)
	g.strings = make(map[string]string)
	g.stringOrder = nil
	g.externs = nil
	g.externSet = make(map[string]bool)
	g.labels = 0
}

func (g *Generator) addExtern(name string) {
	if !g.externSet[name] {
		g.externSet[name] = true
		g.externs = append(g.externs, name)
	}
}

// ============================================================================
// 函数
// ============================================================================

// function 生成一个函数：序言在函数体之后构造，以便知道栈帧大小和用过的被调用者保存寄存器
func (g *Generator) function(fn *ir.Function) (*Stream, error) {
	g.fn = fn
	g.body = NewStream()
	g.alloc = NewAllocator(g.catalog, g.body)
	g.temps = 0

	args := g.catalog.Call.IntegerArguments
	params := fn.Symbol.Parameters
	if len(params) > len(args) {
		return nil, cerrors.Internal(cerrors.C0002, "function "+fn.Symbol.Name, len(params), len(args))
	}

	g.alloc.OpenScope(true)
	for i, p := range params {
		if _, err := g.alloc.BindAt(SymbolValue(p.ID), RegisterLocation(args[i]), false); err != nil {
			return nil, err
		}
	}

	if err := g.statements(fn.Body.Statements); err != nil {
		return nil, wrapFunction(err, fn)
	}

	g.body.Label(epilogueLabel)
	if err := g.alloc.CloseScope(true); err != nil {
		return nil, err
	}
	g.body.Emit("mov", "rsp", "rbp")
	g.body.Emit("pop", "rbp")
	g.body.Emit("ret")

	frame := g.alloc.FrameSize()
	prologue := NewStream()
	prologue.Emit("push", "rbp")
	prologue.Emit("mov", "rbp", "rsp")
	if frame > 0 {
		prologue.Emit("sub", "rsp", strconv.Itoa(frame))
	}
	regs, slots := g.alloc.CalleeSaves()
	for i, r := range regs {
		prologue.Emit("mov", slots[i].Operand(), r.Name(Width64))
	}
	prologue.Append(g.body)

	g.logger.Debug("generated function",
		zap.String("function", fn.Symbol.Name),
		zap.Int("frame", frame),
		zap.Int("callee_saved", len(regs)),
		zap.Int("lines", prologue.Len()))
	return prologue, nil
}

// wrapFunction 为内部错误补上所在函数
func wrapFunction(err error, fn *ir.Function) error {
	if ie, ok := err.(*cerrors.InternalError); ok && !strings.Contains(ie.Construct, "function ") {
		construct := "function " + fn.Symbol.Name
		if ie.Construct != "" {
			construct = ie.Construct + " in " + construct
		}
		return &cerrors.InternalError{Code: ie.Code, Message: ie.Message, Construct: construct}
	}
	return err
}

// bindTemp 按默认规则绑定一个新的临时值
func (g *Generator) bindTemp() (*BoundValue, error) {
	g.temps++
	return g.alloc.Bind(TemporaryValue(g.temps))
}

// bindTempAt 把新的临时值固定到寄存器
func (g *Generator) bindTempAt(r Register, forceStack bool) (*BoundValue, error) {
	g.temps++
	return g.alloc.BindAt(TemporaryValue(g.temps), RegisterLocation(r), forceStack)
}

// ============================================================================
// 符号与常量
// ============================================================================

// symbolName 全局符号名；加 $ 前缀使函数可以与指令或寄存器同名（如 add）
func symbolName(name string) string {
	return "$" + sanitize(name)
}

// labelName 函数内的局部标签
func labelName(sym *ir.Symbol) string {
	return ".L" + strconv.FormatUint(uint64(sym.ID), 10) + "_" + sanitize(sym.Name)
}

func sanitize(name string) string {
	var sb strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
			sb.WriteByte(c)
		default:
			sb.WriteByte('_')
		}
	}
	if sb.Len() == 0 {
		return "_"
	}
	return sb.String()
}

// stringLabel 返回字符串常量的标签，相同内容只输出一次
func (g *Generator) stringLabel(s string) string {
	if l, ok := g.strings[s]; ok {
		return l
	}
	l := "__string_" + strconv.Itoa(len(g.stringOrder))
	g.strings[s] = l
	g.stringOrder = append(g.stringOrder, s)
	return l
}

func byteList(s string) string {
	parts := make([]string, len(s))
	for i := 0; i < len(s); i++ {
		parts[i] = strconv.Itoa(int(s[i]))
	}
	return strings.Join(parts, ", ")
}
