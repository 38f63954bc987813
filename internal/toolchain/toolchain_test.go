package toolchain

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"

	cerrors "github.com/tangzhangming/phosphor/internal/errors"
)

func TestAssembleArgs(t *testing.T) {
	tc := New(nil)
	got := tc.AssembleArgs("main.asm", "main.o")
	want := []string{"-f", "elf64", "-o", "main.o", "main.asm"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestLinkArgs(t *testing.T) {
	tc := New(nil)
	got := tc.LinkArgs([]string{"a.o", "b.o"}, []string{"std.o"}, "prog")
	want := append(append([]string(nil), DefaultLinkerFlags...), "-o", "prog", "a.o", "b.o", "std.o")
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	// 修改实例的参数不影响默认值
	tc.LinkerFlags[0] = "--entry"
	if DefaultLinkerFlags[0] != "-e" {
		t.Error("default flags were modified")
	}
}

func TestMissingTool(t *testing.T) {
	tc := New(nil)
	tc.Assembler = "phosphor-no-such-assembler"

	err := tc.Assemble(context.Background(), "x.asm", "x.o")
	if !stderrors.Is(err, &cerrors.ToolError{Code: cerrors.T0001}) {
		t.Fatalf("expected T0001, got %v", err)
	}
	if tc.Available() {
		t.Error("toolchain with a missing assembler should not be available")
	}
}

func TestLookupNotExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on windows")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "fake-tool")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if executable(path) {
		t.Error("file without execute permission reported as executable")
	}
	if err := os.Chmod(path, 0o755); err != nil {
		t.Fatal(err)
	}
	if !executable(path) {
		t.Error("file with execute permission reported as not executable")
	}
}

func TestAssembleFailure(t *testing.T) {
	if _, err := Lookup(DefaultAssembler); err != nil {
		t.Skip("nasm not available")
	}
	dir := t.TempDir()
	src := filepath.Join(dir, "bad.asm")
	if err := os.WriteFile(src, []byte("section .text\n    frobnicate rax\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := New(nil).Assemble(context.Background(), src, filepath.Join(dir, "bad.o"))
	var te *cerrors.ToolError
	if !stderrors.As(err, &te) || te.Code != cerrors.T0002 {
		t.Fatalf("expected T0002, got %v", err)
	}
	if te.Stderr == "" {
		t.Error("assembler diagnostics should be captured")
	}
}

func TestAssembleAndLink(t *testing.T) {
	if runtime.GOOS != "linux" || runtime.GOARCH != "amd64" {
		t.Skip("requires linux/amd64")
	}
	tc := New(nil)
	if !tc.Available() {
		t.Skip("nasm or ld not available")
	}

	dir := t.TempDir()
	src := filepath.Join(dir, "exit.asm")
	prog := "section .text\nglobal _start\n_start:\n    mov rdi, 0\n    mov rax, 60\n    syscall\n"
	if err := os.WriteFile(src, []byte(prog), 0o644); err != nil {
		t.Fatal(err)
	}
	obj := filepath.Join(dir, "exit.o")
	out := filepath.Join(dir, "exit")

	ctx := context.Background()
	if err := tc.Assemble(ctx, src, obj); err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if err := tc.Link(ctx, []string{obj}, nil, out); err != nil {
		t.Fatalf("link: %v", err)
	}
	if !executable(out) {
		t.Error("linked output is not executable")
	}
}
