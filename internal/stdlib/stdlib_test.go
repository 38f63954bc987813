package stdlib

import (
	"context"
	"os"
	"runtime"
	"strings"
	"testing"

	"github.com/tangzhangming/phosphor/internal/ir"
	"github.com/tangzhangming/phosphor/internal/toolchain"
)

func TestSourceDefinesRuntime(t *testing.T) {
	src := Source()
	for _, want := range []string{"global $exit", "global $print", "$exit:", "$print:", "mov rax, 60"} {
		if !strings.Contains(src, want) {
			t.Errorf("runtime source missing %q", want)
		}
	}
}

func TestDeclarations(t *testing.T) {
	st := ir.NewSymbolTable()
	f := Declarations(st)
	if len(f.Functions) != 2 {
		t.Fatalf("expected 2 declarations, got %d", len(f.Functions))
	}
	for _, fn := range f.Functions {
		if !fn.Symbol.External || fn.Body != nil {
			t.Errorf("%s should be an external declaration", fn.Symbol.Name)
		}
		if len(fn.Symbol.Parameters) != 1 {
			t.Errorf("%s should take one parameter", fn.Symbol.Name)
		}
	}
	if f.HasFunction("exit") {
		t.Error("declarations do not define exit")
	}
	if st.Len() != 4 {
		t.Errorf("expected 4 symbols, got %d", st.Len())
	}
}

func TestAssemble(t *testing.T) {
	if runtime.GOOS != "linux" || runtime.GOARCH != "amd64" {
		t.Skip("requires linux/amd64")
	}
	tc := toolchain.New(nil)
	if _, err := toolchain.Lookup(tc.Assembler); err != nil {
		t.Skip("nasm not available")
	}
	obj, err := Assemble(context.Background(), tc, t.TempDir())
	if err != nil {
		t.Fatalf("assemble runtime: %v", err)
	}
	if info, err := os.Stat(obj); err != nil || info.Size() == 0 {
		t.Fatalf("runtime object missing: %v", err)
	}
}
