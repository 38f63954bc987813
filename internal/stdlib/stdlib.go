// Package stdlib 提供内嵌的最小运行时：exit 与 print
package stdlib

import (
	"context"
	_ "embed"
	"os"
	"path/filepath"

	"github.com/tangzhangming/phosphor/internal/ir"
	"github.com/tangzhangming/phosphor/internal/toolchain"
)

//go:embed std.asm
var source string

// ModuleName 运行时的模块名，也是目标文件的基础名
const ModuleName = "std"

// 系统调用号
const (
	SysWrite = 1
	SysExit  = 60
)

// Source 运行时的汇编源码
func Source() string { return source }

// Declarations 在 symbols 中声明运行时函数，返回可作为导入的单元
//
//	exit(code: int): void
//	print(s: string): void
func Declarations(symbols *ir.SymbolTable) *ir.File {
	code := symbols.NewParameter("code", ir.TypeInt)
	s := symbols.NewParameter("s", ir.TypeString)
	return &ir.File{
		Name:    ModuleName,
		Symbols: symbols,
		Functions: []*ir.Function{
			{Symbol: symbols.NewExternalFunction("exit", ir.TypeVoid, code)},
			{Symbol: symbols.NewExternalFunction("print", ir.TypeVoid, s)},
		},
	}
}

// Assemble 把运行时写入 dir 并汇编，返回目标文件路径
func Assemble(ctx context.Context, tc *toolchain.Toolchain, dir string) (string, error) {
	src := filepath.Join(dir, ModuleName+".asm")
	if err := os.WriteFile(src, []byte(source), 0o644); err != nil {
		return "", err
	}
	obj := filepath.Join(dir, ModuleName+".o")
	if err := tc.Assemble(ctx, src, obj); err != nil {
		return "", err
	}
	return obj, nil
}
