// Package toolchain 封装外部汇编器 (nasm) 和链接器 (ld)
package toolchain

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	cerrors "github.com/tangzhangming/phosphor/internal/errors"
)

// 默认工具名
const (
	DefaultAssembler = "nasm"
	DefaultLinker    = "ld"
)

// DefaultAssemblerFlags nasm 的默认参数（输出 ELF64 目标文件）
var DefaultAssemblerFlags = []string{"-f", "elf64"}

// DefaultLinkerFlags ld 的默认参数
//
// 入口为 _start，去掉符号与未引用的节，不链接 C 库，栈不可执行。
var DefaultLinkerFlags = []string{
	"-e", "_start",
	"-s", "--gc-sections", "-n",
	"-z", "noexecstack",
	"-nostdlib",
}

// Toolchain 一组汇编器和链接器
type Toolchain struct {
	Assembler      string
	Linker         string
	AssemblerFlags []string
	LinkerFlags    []string

	logger *zap.Logger
}

// New 使用默认工具和参数创建工具链
func New(logger *zap.Logger) *Toolchain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Toolchain{
		Assembler:      DefaultAssembler,
		Linker:         DefaultLinker,
		AssemblerFlags: append([]string(nil), DefaultAssemblerFlags...),
		LinkerFlags:    append([]string(nil), DefaultLinkerFlags...),
		logger:         logger,
	}
}

// AssembleArgs 汇编 source 到 object 的参数
func (tc *Toolchain) AssembleArgs(source, object string) []string {
	args := append([]string(nil), tc.AssemblerFlags...)
	return append(args, "-o", object, source)
}

// LinkArgs 链接 objects 到 output 的参数；库目标文件放在最后
func (tc *Toolchain) LinkArgs(objects, libraries []string, output string) []string {
	args := append([]string(nil), tc.LinkerFlags...)
	args = append(args, "-o", output)
	args = append(args, objects...)
	return append(args, libraries...)
}

// Assemble 调用汇编器
func (tc *Toolchain) Assemble(ctx context.Context, source, object string) error {
	return tc.run(ctx, tc.Assembler, tc.AssembleArgs(source, object))
}

// Link 调用链接器
func (tc *Toolchain) Link(ctx context.Context, objects, libraries []string, output string) error {
	return tc.run(ctx, tc.Linker, tc.LinkArgs(objects, libraries, output))
}

// Check 确认汇编器和链接器都可用
func (tc *Toolchain) Check() error {
	if _, err := Lookup(tc.Assembler); err != nil {
		return err
	}
	_, err := Lookup(tc.Linker)
	return err
}

// Available 汇编器和链接器是否都可用
func (tc *Toolchain) Available() bool {
	return tc.Check() == nil
}

func (tc *Toolchain) run(ctx context.Context, tool string, args []string) error {
	path, err := Lookup(tool)
	if err != nil {
		return err
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stderr = &stderr

	tc.logger.Debug("run tool", zap.String("tool", tool), zap.Strings("args", args))
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		tc.logger.Debug("tool failed", zap.String("tool", tool), zap.Error(err), zap.String("stderr", msg))
		return &cerrors.ToolError{Code: cerrors.T0002, Tool: tool, Args: args, Stderr: msg, Err: err}
	}
	return nil
}

// Lookup 在 PATH 中查找工具并确认它可执行
func Lookup(tool string) (string, error) {
	path, err := exec.LookPath(tool)
	if err != nil {
		return "", &cerrors.ToolError{Code: cerrors.T0001, Tool: tool, Err: err}
	}
	if !executable(path) {
		return "", &cerrors.ToolError{Code: cerrors.T0001, Tool: tool}
	}
	return path, nil
}
