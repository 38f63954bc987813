package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/multierr"

	"github.com/tangzhangming/phosphor/internal/i18n"
)

func TestInternalErrorIs(t *testing.T) {
	err := fmt.Errorf("function main: %w", Internal(C0004, "main", "x#3"))

	if !stderrors.Is(err, &InternalError{Code: C0004}) {
		t.Error("wrapped C0004 should match by code")
	}
	if stderrors.Is(err, &InternalError{Code: C0005}) {
		t.Error("C0004 should not match C0005")
	}

	var ie *InternalError
	if !stderrors.As(err, &ie) || ie.Construct != "main" {
		t.Fatalf("As failed: %v", err)
	}
}

func TestInternalMessage(t *testing.T) {
	defer i18n.SetLanguage(i18n.GetLanguage())
	i18n.SetLanguage(i18n.LangEnglish)

	err := Internal(C0003, "call f", 7, 6)
	want := "internal compiler error[C0003]: call passes 7 arguments but only 6 argument registers exist (stack arguments are not supported) (in call f)"
	if err.Error() != want {
		t.Errorf("got  %q\nwant %q", err.Error(), want)
	}
}

func TestCodeTables(t *testing.T) {
	for _, code := range []string{C0001, C0002, C0003, C0004, C0005, C0006, C0007, C0008, C0009} {
		if !IsInternalCode(code) {
			t.Errorf("%s should be an internal code", code)
		}
		info, _ := GetErrorInfo(code)
		if i18n.T(info.MessageID) == info.MessageID {
			t.Errorf("%s has no message for %s", code, info.MessageID)
		}
	}
	if !IsToolchainCode(T0002) || IsToolchainCode(C0001) {
		t.Error("toolchain code table is wrong")
	}
}

func TestFormatError(t *testing.T) {
	defer i18n.SetLanguage(i18n.GetLanguage())
	i18n.SetLanguage(i18n.LangEnglish)

	f := &Formatter{Colors: false, ShowHints: true, MaxStderr: 2}
	err := multierr.Combine(
		Internal(C0007, "function main", "*ir.While"),
		&ToolError{Code: T0002, Tool: "nasm", Args: []string{"-f", "elf64", "a.asm"}, Stderr: "a.asm:1: error\na.asm:2: error\na.asm:3: error\n"},
		stderrors.New("plain failure"),
	)

	out := f.FormatError(err)
	for _, want := range []string{
		"error[C0007]: unsupported node *ir.While reached code generation",
		" --> function main",
		"must be lowered",
		"error[T0002]: nasm failed",
		" --> nasm -f elf64 a.asm",
		"  | a.asm:2: error",
		"  | ...",
		"error: plain failure",
		"error: 3 errors found",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "a.asm:3") {
		t.Error("stderr should be truncated to MaxStderr lines")
	}
}

func TestHighlightAssembly(t *testing.T) {
	defer SetColorsEnabled(ColorsEnabled())

	src := "section .text\nmain:\n    mov rax, 1 ; one"
	DisableColors()
	if HighlightAssembly(src) != src {
		t.Error("highlighting must be a no-op without colors")
	}

	EnableColors()
	out := HighlightAssembly(src)
	if Strip(out) != src {
		t.Errorf("stripped output differs:\n%q", Strip(out))
	}
	if !strings.Contains(out, Colorize("main:", ColorCyan)) {
		t.Error("labels should be cyan")
	}
}
