// Package backend 把程序树编译为目标文件并链接为可执行文件
package backend

import (
	"context"
	"strings"

	"github.com/tangzhangming/phosphor/internal/ir"
)

// Backend 目标平台后端
type Backend interface {
	// Name 目标名，如 linux-amd64
	Name() string

	// Compile 把一个编译单元编译为 outputDir 下的目标文件，返回其路径。
	// 中间文件写入 tempDir。
	Compile(ctx context.Context, f *ir.File, module, outputDir, tempDir string) (string, error)

	// Runtime 在 dir 下准备标准库目标文件，返回其路径
	Runtime(ctx context.Context, dir string) (string, error)

	// Link 把目标文件与标准库链接为 output
	Link(ctx context.Context, objects []string, runtime, output string) error
}

// fileBase 由限定模块名得到文件基础名
func fileBase(module string) string {
	if module == "" {
		return "module"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, module)
}
