package amd64

import (
	"io"
	"strings"
)

// ============================================================================
// 指令流
// ============================================================================

// LineKind 汇编行种类
type LineKind int

const (
	LineInstruction LineKind = iota // 缩进的指令
	LineLabel                       // 顶格的标签定义
	LineDirective                   // 顶格的伪指令（section/global/extern/db/dq）
	LineBlank
)

// Line 一行汇编
type Line struct {
	Kind     LineKind
	Mnemonic string   // 指令助记符 / 标签名 / 伪指令全文
	Operands []string // 仅指令
}

// Text 渲染为 NASM 文本（不含换行）
func (l Line) Text() string {
	switch l.Kind {
	case LineInstruction:
		if len(l.Operands) == 0 {
			return "    " + l.Mnemonic
		}
		return "    " + l.Mnemonic + " " + strings.Join(l.Operands, ", ")
	case LineLabel:
		return l.Mnemonic + ":"
	case LineDirective:
		return l.Mnemonic
	default:
		return ""
	}
}

// Stream 线性的汇编行序列
//
// 只追加；少数位置（函数序言的栈帧大小）在函数体生成后回填。
type Stream struct {
	lines []Line
}

// NewStream 创建指令流
func NewStream() *Stream {
	return &Stream{lines: make([]Line, 0, 256)}
}

// Emit 追加一条指令，返回它的下标
func (s *Stream) Emit(mnemonic string, operands ...string) int {
	s.lines = append(s.lines, Line{Kind: LineInstruction, Mnemonic: mnemonic, Operands: operands})
	return len(s.lines) - 1
}

// Label 追加标签定义
func (s *Stream) Label(name string) {
	s.lines = append(s.lines, Line{Kind: LineLabel, Mnemonic: name})
}

// Directive 追加伪指令
func (s *Stream) Directive(text string) {
	s.lines = append(s.lines, Line{Kind: LineDirective, Mnemonic: text})
}

// Blank 追加空行
func (s *Stream) Blank() {
	s.lines = append(s.lines, Line{Kind: LineBlank})
}

// Patch 替换下标 i 处的指令；mnemonic 为空时该行变为空行（渲染时省略）
func (s *Stream) Patch(i int, mnemonic string, operands ...string) {
	if mnemonic == "" {
		s.lines[i] = Line{Kind: LineBlank, Mnemonic: "-"}
		return
	}
	s.lines[i] = Line{Kind: LineInstruction, Mnemonic: mnemonic, Operands: operands}
}

// Append 追加另一个流的全部行
func (s *Stream) Append(other *Stream) {
	s.lines = append(s.lines, other.lines...)
}

// Len 行数
func (s *Stream) Len() int { return len(s.lines) }

// Lines 返回全部行（只读）
func (s *Stream) Lines() []Line { return s.lines }

// Instructions 只返回指令行，便于测试按顺序断言
func (s *Stream) Instructions() []string {
	out := make([]string, 0, len(s.lines))
	for _, l := range s.lines {
		if l.Kind == LineInstruction {
			out = append(out, strings.TrimSpace(l.Text()))
		}
	}
	return out
}

// String 渲染为完整的 NASM 文本
func (s *Stream) String() string {
	var sb strings.Builder
	s.render(&sb)
	return sb.String()
}

// WriteTo 把渲染结果写入 w
func (s *Stream) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	s.render(&sb)
	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

func (s *Stream) render(sb *strings.Builder) {
	for _, l := range s.lines {
		// 被回填删除的行
		if l.Kind == LineBlank && l.Mnemonic == "-" {
			continue
		}
		sb.WriteString(l.Text())
		sb.WriteByte('\n')
	}
}
