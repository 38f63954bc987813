package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"

	"github.com/tangzhangming/phosphor/internal/backend"
	"github.com/tangzhangming/phosphor/internal/config"
	cerrors "github.com/tangzhangming/phosphor/internal/errors"
	"github.com/tangzhangming/phosphor/internal/i18n"
	"github.com/tangzhangming/phosphor/internal/ir"
	"github.com/tangzhangming/phosphor/internal/logging"
	"github.com/tangzhangming/phosphor/internal/toolchain"
)

const (
	Version = "0.1.0"
)

// 全局语言参数
var globalLang string

func main() {
	// 预扫描全局参数 --lang 或 -lang
	args := preprocessArgs(os.Args[1:])
	os.Exit(run(args, os.Stdout, os.Stderr))
}

// run 执行一条命令，返回进程退出码
func run(args []string, stdout, stderr io.Writer) int {
	if globalLang != "" {
		i18n.SetLanguageFromString(globalLang)
	} else if lang := config.EnvLanguage(); lang != "" {
		i18n.SetLanguageFromString(lang)
	}

	if len(args) < 1 {
		fmt.Fprint(stdout, i18n.T(i18n.CLIUsage))
		return 0
	}

	command := args[0]
	switch command {
	case "asm":
		return cmdAsm(args[1:], stdout, stderr)
	case "build":
		return cmdBuild(args[1:], stdout, stderr)
	case "run":
		return cmdRun(args[1:], stdout, stderr)
	case "version", "-v", "--version":
		fmt.Fprintln(stdout, i18n.T(i18n.CLIVersion, Version))
		return 0
	case "help", "-h", "--help":
		fmt.Fprint(stdout, i18n.T(i18n.CLIUsage))
		return 0
	default:
		fmt.Fprint(stderr, i18n.T(i18n.CLIUnknownCommand, command)+"\n\n")
		fmt.Fprint(stderr, i18n.T(i18n.CLIUsage))
		return 1
	}
}

// preprocessArgs 预处理参数，提取全局 --lang 参数
func preprocessArgs(args []string) []string {
	var result []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--lang" || arg == "-lang" {
			if i+1 < len(args) {
				globalLang = args[i+1]
				i++ // 跳过下一个参数
				continue
			}
		} else if strings.HasPrefix(arg, "--lang=") {
			globalLang = strings.TrimPrefix(arg, "--lang=")
			continue
		} else if strings.HasPrefix(arg, "-lang=") {
			globalLang = strings.TrimPrefix(arg, "-lang=")
			continue
		}
		result = append(result, arg)
	}
	return result
}

// ============================================================================
// 命令
// ============================================================================

// cmdAsm 输出一个单元的汇编
func cmdAsm(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("asm", flag.ContinueOnError)
	fs.SetOutput(stderr)
	showTree := fs.Bool("tree", false, "dump the decoded program tree")
	output := fs.String("o", "", "write the assembly to a file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(stderr, i18n.T(i18n.CLIMissingInput))
		return 1
	}

	f, err := readTree(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if *showTree {
		spew.Fdump(stdout, f)
	}

	text, err := backend.NewLinuxAMD64(nil, nil).Assembly(f)
	if err != nil {
		fmt.Fprint(stderr, cerrors.Format(err))
		return 1
	}

	if *output != "" {
		if err := os.WriteFile(*output, []byte(text), 0o644); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0
	}
	if stdout == io.Writer(os.Stdout) && cerrors.ColorsEnabled() {
		text = cerrors.HighlightAssembly(text)
	}
	fmt.Fprint(stdout, text)
	return 0
}

// buildOptions build 与 run 共用的选项
type buildOptions struct {
	configPath string
	output     string
	showTree   bool
	jobs       int
}

func (o *buildOptions) register(fs *flag.FlagSet) {
	fs.StringVar(&o.configPath, "config", "", "project configuration file")
	fs.StringVar(&o.output, "o", "", "output executable")
	fs.BoolVar(&o.showTree, "tree", false, "dump the decoded program trees")
	fs.IntVar(&o.jobs, "j", 0, "units compiled in parallel")
}

// cmdBuild 编译并链接可执行文件
func cmdBuild(args []string, stdout, stderr io.Writer) int {
	var opts buildOptions
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	fs.SetOutput(stderr)
	opts.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	output, code := build(fs.Args(), opts, "", stdout, stderr)
	if code != 0 {
		return code
	}
	fmt.Fprintln(stdout, i18n.T(i18n.CLIBuilt, output))
	return 0
}

// cmdRun 构建到临时目录并运行，返回程序的退出码
func cmdRun(args []string, stdout, stderr io.Writer) int {
	var opts buildOptions
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	opts.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	dir, err := os.MkdirTemp("", "phosphor-run-*")
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer os.RemoveAll(dir)

	output, code := build(fs.Args(), opts, dir, stdout, stderr)
	if code != 0 {
		return code
	}

	cmd := exec.Command(output)
	cmd.Stdin = os.Stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

// build 读取全部输入并构建；outDir 非空时输出放在该目录
func build(inputs []string, opts buildOptions, outDir string, stdout, stderr io.Writer) (string, int) {
	if len(inputs) < 1 {
		fmt.Fprintln(stderr, i18n.T(i18n.CLIMissingInput))
		return "", 1
	}

	cfg, err := loadConfig(opts.configPath, inputs[0])
	if err != nil {
		fmt.Fprintln(stderr, i18n.T(i18n.CLIConfigFailed, err))
		return "", 1
	}
	if globalLang == "" && cfg.Lang != "" {
		i18n.SetLanguageFromString(cfg.Lang)
	}
	if opts.jobs > 0 {
		cfg.Build.Jobs = opts.jobs
	}

	logger := logging.Must(cfg.Debug)
	defer logger.Sync() //nolint:errcheck

	units := make([]backend.Unit, 0, len(inputs))
	for _, in := range inputs {
		f, err := readTree(in)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return "", 1
		}
		if opts.showTree {
			spew.Fdump(stdout, f)
		}
		units = append(units, backend.Unit{Module: moduleName(f, in), File: f})
	}

	tc := cfg.ConfigureToolchain(toolchain.New(logger))
	be := backend.NewLinuxAMD64(tc, logger)
	be.KeepTemp = cfg.Build.KeepTemp

	b := backend.NewBuilder(be, logger)
	b.Jobs = cfg.Jobs()
	b.TempDir = cfg.Build.TempDir
	b.KeepTemp = cfg.Build.KeepTemp

	output := opts.output
	switch {
	case outDir != "":
		output = filepath.Join(outDir, cfg.Project.Name)
		b.OutputDir = outDir
	case output == "":
		output = filepath.Join(cfg.Build.OutputDir, cfg.Project.Name)
	}
	if b.OutputDir == "" {
		b.OutputDir = filepath.Dir(output)
	}

	logger.Debug("build", zap.Strings("inputs", inputs), zap.String("output", output), zap.Int("jobs", b.Jobs))
	if err := b.BuildAll(context.Background(), units, output); err != nil {
		fmt.Fprint(stderr, cerrors.Format(err))
		return "", 1
	}
	return output, 0
}

func loadConfig(path, input string) (*config.Config, error) {
	if path == "" {
		return config.Load(input)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// readTree 读取 JSON 程序树
func readTree(path string) (*ir.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, stderrors.New(i18n.T(i18n.CLIReadFailed, path, err))
	}
	f, err := ir.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// moduleName 单元的限定模块名：树中给出的名字，否则取文件名
func moduleName(f *ir.File, path string) string {
	if f.Name != "" {
		return f.Name
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
