package main

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/tangzhangming/phosphor/internal/config"
	"github.com/tangzhangming/phosphor/internal/i18n"
	"github.com/tangzhangming/phosphor/internal/toolchain"
)

const addTree = `{
  "name": "app.main",
  "imports": [
    {"name": "std", "functions": [
      {"name": "print", "parameters": [{"name": "s", "type": "string"}], "external": true}
    ]}
  ],
  "functions": [
    {"name": "add", "return": "int", "parameters": [{"name": "a", "type": "int"}, {"name": "b", "type": "int"}], "body": [
      {"kind": "return", "value": {"kind": "binary", "op": "+",
        "left": {"kind": "var", "name": "a"}, "right": {"kind": "var", "name": "b"}}}
    ]},
    {"name": "main", "return": "int", "body": [
      {"kind": "expr", "value": {"kind": "call", "name": "print", "args": [{"kind": "string", "text": "sum\n"}]}},
      {"kind": "if", "condition": {"kind": "bool", "bool": false}, "then": [
        {"kind": "return", "value": {"kind": "int", "int": 99}}
      ]},
      {"kind": "return", "value": {"kind": "call", "name": "add", "args": [{"kind": "int", "int": 2}, {"kind": "int", "int": 3}]}}
    ]}
  ]
}`

func writeTree(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestPreprocessArgs(t *testing.T) {
	defer func() { globalLang = "" }()
	tests := []struct {
		args []string
		want []string
		lang string
	}{
		{[]string{"--lang", "zh", "asm", "x.json"}, []string{"asm", "x.json"}, "zh"},
		{[]string{"asm", "-lang=en", "x.json"}, []string{"asm", "x.json"}, "en"},
		{[]string{"build", "--lang=zh"}, []string{"build"}, "zh"},
		{[]string{"version"}, []string{"version"}, ""},
	}
	for _, tt := range tests {
		globalLang = ""
		got := preprocessArgs(tt.args)
		if !reflect.DeepEqual(got, tt.want) || globalLang != tt.lang {
			t.Errorf("preprocessArgs(%v) = %v lang %q", tt.args, got, globalLang)
		}
	}
}

func TestVersionAndHelp(t *testing.T) {
	i18n.SetLanguage(i18n.LangEnglish)
	code, out, _ := runCLI("version")
	if code != 0 || !strings.Contains(out, Version) {
		t.Errorf("version: %d %q", code, out)
	}
	code, out, _ = runCLI("help")
	if code != 0 || !strings.Contains(out, "Usage:") {
		t.Errorf("help: %d %q", code, out)
	}
	code, out, _ = runCLI()
	if code != 0 || !strings.Contains(out, "Commands:") {
		t.Errorf("no arguments: %d %q", code, out)
	}
}

func TestUnknownCommand(t *testing.T) {
	i18n.SetLanguage(i18n.LangEnglish)
	code, _, errOut := runCLI("frobnicate")
	if code != 1 || !strings.Contains(errOut, "unknown command: frobnicate") {
		t.Errorf("got %d %q", code, errOut)
	}
}

func TestLanguageFromEnvironment(t *testing.T) {
	defer i18n.SetLanguage(i18n.LangEnglish)
	i18n.SetLanguage(i18n.LangEnglish)
	t.Setenv(config.EnvLang, "zh")

	code, out, _ := runCLI("help")
	if code != 0 {
		t.Fatalf("help: %d", code)
	}
	if i18n.GetLanguage() != i18n.LangChinese {
		t.Errorf("language: got %q", i18n.GetLanguage())
	}
	if out != i18n.T(i18n.CLIUsage) {
		t.Errorf("usage not localized: %q", out)
	}
}

func TestAsm(t *testing.T) {
	path := writeTree(t, addTree)
	code, out, errOut := runCLI("asm", path)
	if code != 0 {
		t.Fatalf("asm failed: %s", errOut)
	}
	for _, want := range []string{"global _start", "$add:", "$main:", "call $add", "extern $print", "__string_0:"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestAsmToFileAndTree(t *testing.T) {
	path := writeTree(t, addTree)
	dst := filepath.Join(t.TempDir(), "out.asm")
	code, out, errOut := runCLI("asm", "-tree", "-o", dst, path)
	if code != 0 {
		t.Fatalf("asm failed: %s", errOut)
	}
	if !strings.Contains(out, "app.main") {
		t.Error("-tree should dump the decoded tree")
	}
	data, err := os.ReadFile(dst)
	if err != nil || !strings.Contains(string(data), "$main:") {
		t.Errorf("assembly file not written: %v", err)
	}
}

func TestAsmErrors(t *testing.T) {
	i18n.SetLanguage(i18n.LangEnglish)
	code, _, errOut := runCLI("asm")
	if code != 1 || !strings.Contains(errOut, "no input file") {
		t.Errorf("missing input: %d %q", code, errOut)
	}

	code, _, errOut = runCLI("asm", filepath.Join(t.TempDir(), "missing.json"))
	if code != 1 || !strings.Contains(errOut, "cannot read") {
		t.Errorf("missing file: %d %q", code, errOut)
	}

	path := writeTree(t, `{"name": "bad", "functions": [{"name": "main", "return": "int", "body": [
		{"kind": "expr", "value": {"kind": "int", "int": 1}}]}]}`)
	code, _, errOut = runCLI("asm", path)
	if code != 1 || !strings.Contains(errOut, "C0008") {
		t.Errorf("internal error: %d %q", code, errOut)
	}
}

func TestRunProgram(t *testing.T) {
	if runtime.GOOS != "linux" || runtime.GOARCH != "amd64" {
		t.Skip("requires linux/amd64")
	}
	if !toolchain.New(nil).Available() {
		t.Skip("nasm or ld not available")
	}
	path := writeTree(t, addTree)
	code, out, errOut := runCLI("run", path)
	if code != 5 || out != "sum\n" {
		t.Errorf("run: status %d output %q stderr %q", code, out, errOut)
	}
}

func TestBuildProgram(t *testing.T) {
	if runtime.GOOS != "linux" || runtime.GOARCH != "amd64" {
		t.Skip("requires linux/amd64")
	}
	if !toolchain.New(nil).Available() {
		t.Skip("nasm or ld not available")
	}
	i18n.SetLanguage(i18n.LangEnglish)
	path := writeTree(t, addTree)
	exe := filepath.Join(t.TempDir(), "bin", "prog")
	code, out, errOut := runCLI("build", "-o", exe, path)
	if code != 0 {
		t.Fatalf("build failed: %s", errOut)
	}
	if !strings.Contains(out, "built "+exe) {
		t.Errorf("unexpected output %q", out)
	}
	if _, err := os.Stat(exe); err != nil {
		t.Errorf("executable missing: %v", err)
	}
}
