package backend

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/tangzhangming/phosphor/internal/amd64"
	"github.com/tangzhangming/phosphor/internal/ir"
	"github.com/tangzhangming/phosphor/internal/lower"
	"github.com/tangzhangming/phosphor/internal/stdlib"
	"github.com/tangzhangming/phosphor/internal/toolchain"
)

// LinuxAMD64 使用 nasm 和 ld 的 Linux AMD64 后端
type LinuxAMD64 struct {
	Toolchain *toolchain.Toolchain
	KeepTemp  bool // 保留 .asm 文件

	logger *zap.Logger
}

// NewLinuxAMD64 创建后端
func NewLinuxAMD64(tc *toolchain.Toolchain, logger *zap.Logger) *LinuxAMD64 {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tc == nil {
		tc = toolchain.New(logger)
	}
	return &LinuxAMD64{Toolchain: tc, logger: logger}
}

// Name 实现 Backend
func (b *LinuxAMD64) Name() string { return "linux-amd64" }

// Assembly 生成单元的汇编文本；含结构化控制流的单元先降级
func (b *LinuxAMD64) Assembly(f *ir.File) (string, error) {
	if !fileLowered(f) {
		f = lower.File(f)
	}
	gen := amd64.NewGenerator(amd64.LinuxAMD64, amd64.WithLogger(b.logger))
	return gen.Generate(f)
}

// Compile 实现 Backend
func (b *LinuxAMD64) Compile(ctx context.Context, f *ir.File, module, outputDir, tempDir string) (obj string, err error) {
	text, err := b.Assembly(f)
	if err != nil {
		return "", err
	}

	base := fileBase(module)
	src := filepath.Join(tempDir, base+".asm")
	if err := os.WriteFile(src, []byte(text), 0o644); err != nil {
		return "", err
	}
	if !b.KeepTemp {
		defer func() { err = multierr.Append(err, os.Remove(src)) }()
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", err
	}
	obj = filepath.Join(outputDir, base+".o")
	if err := b.Toolchain.Assemble(ctx, src, obj); err != nil {
		return "", err
	}
	b.logger.Debug("compiled unit", zap.String("module", module), zap.String("object", obj))
	return obj, nil
}

// Runtime 实现 Backend
func (b *LinuxAMD64) Runtime(ctx context.Context, dir string) (string, error) {
	return stdlib.Assemble(ctx, b.Toolchain, dir)
}

// Link 实现 Backend
func (b *LinuxAMD64) Link(ctx context.Context, objects []string, runtime, output string) error {
	var libs []string
	if runtime != "" {
		libs = append(libs, runtime)
	}
	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := b.Toolchain.Link(ctx, objects, libs, output); err != nil {
		return err
	}
	b.logger.Debug("linked", zap.Strings("objects", objects), zap.String("output", output))
	return nil
}

func fileLowered(f *ir.File) bool {
	for _, fn := range f.Functions {
		if fn.Body != nil && !lower.Lowered(fn.Body) {
			return false
		}
	}
	return true
}
