// Package config 读取 phosphor.toml 项目配置与环境变量覆盖
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/xyproto/env/v2"

	"github.com/tangzhangming/phosphor/internal/toolchain"
)

// 常量定义
const (
	ConfigFileName = "phosphor.toml" // 配置文件名
)

// 环境变量
const (
	EnvAssembler = "PHOSPHOR_NASM"
	EnvLinker    = "PHOSPHOR_LD"
	EnvDebug     = "PHOSPHOR_DEBUG"
	EnvJobs      = "PHOSPHOR_JOBS"
	EnvKeepTemp  = "PHOSPHOR_KEEP_TEMP"
	EnvLang      = "PHOSPHOR_LANG"
)

// Config 项目配置
type Config struct {
	Project   ProjectInfo     `toml:"project"`
	Toolchain ToolchainConfig `toml:"toolchain"`
	Build     BuildConfig     `toml:"build"`

	// 只来自环境变量
	Debug bool   `toml:"-"`
	Lang  string `toml:"-"`
}

// ProjectInfo 项目信息
type ProjectInfo struct {
	// Name 项目名，也是默认的输出文件名
	Name string `toml:"name"`

	// Entry 入口单元（程序树 JSON 文件）
	Entry string `toml:"entry"`
}

// ToolchainConfig 外部工具
type ToolchainConfig struct {
	Assembler      string   `toml:"assembler"`
	Linker         string   `toml:"linker"`
	AssemblerFlags []string `toml:"assembler_flags"`
	LinkerFlags    []string `toml:"linker_flags"`
}

// BuildConfig 构建选项
type BuildConfig struct {
	OutputDir string `toml:"output_dir"`
	TempDir   string `toml:"temp_dir"` // 为空时使用系统临时目录
	KeepTemp  bool   `toml:"keep_temp"`
	Jobs      int    `toml:"jobs"` // <= 0 时使用 CPU 数
}

// LoadConfig 从文件加载配置，缺省字段使用默认值
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := GenerateDefault(filepath.Dir(path))
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	config.applyDefaults()
	return config, nil
}

// Load 从 startPath 向上查找配置文件；找不到时使用默认配置。
// 两种情况都会应用环境变量覆盖。
func Load(startPath string) (*Config, error) {
	var config *Config
	if path := FindConfigFile(startPath); path != "" {
		c, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		config = c
	} else {
		dir := startPath
		if info, err := os.Stat(startPath); err == nil && !info.IsDir() {
			dir = filepath.Dir(startPath)
		}
		config = GenerateDefault(dir)
	}
	config.ApplyEnv()
	return config, nil
}

// ApplyEnv 用环境变量覆盖配置
//
// env 包在首次读取时缓存整个环境，这里先重新加载，进程内后设置的变量也能生效。
func (c *Config) ApplyEnv() {
	env.Load()
	c.Toolchain.Assembler = env.Str(EnvAssembler, c.Toolchain.Assembler)
	c.Toolchain.Linker = env.Str(EnvLinker, c.Toolchain.Linker)
	c.Build.Jobs = env.Int(EnvJobs, c.Build.Jobs)
	if env.Has(EnvKeepTemp) {
		c.Build.KeepTemp = env.Bool(EnvKeepTemp)
	}
	if env.Has(EnvDebug) {
		c.Debug = env.Bool(EnvDebug)
	}
	c.Lang = env.Str(EnvLang, c.Lang)
}

// EnvLanguage 环境变量中指定的消息语言，未设置时为空
func EnvLanguage() string {
	env.Load()
	return env.Str(EnvLang)
}

// Jobs 实际的并行度
func (c *Config) Jobs() int {
	if c.Build.Jobs > 0 {
		return c.Build.Jobs
	}
	return runtime.NumCPU()
}

// ConfigureToolchain 把配置的工具和参数写入 tc
func (c *Config) ConfigureToolchain(tc *toolchain.Toolchain) *toolchain.Toolchain {
	tc.Assembler = c.Toolchain.Assembler
	tc.Linker = c.Toolchain.Linker
	if len(c.Toolchain.AssemblerFlags) > 0 {
		tc.AssemblerFlags = append([]string(nil), c.Toolchain.AssemblerFlags...)
	}
	if len(c.Toolchain.LinkerFlags) > 0 {
		tc.LinkerFlags = append([]string(nil), c.Toolchain.LinkerFlags...)
	}
	return tc
}

func (c *Config) applyDefaults() {
	if c.Toolchain.Assembler == "" {
		c.Toolchain.Assembler = toolchain.DefaultAssembler
	}
	if c.Toolchain.Linker == "" {
		c.Toolchain.Linker = toolchain.DefaultLinker
	}
	if c.Build.OutputDir == "" {
		c.Build.OutputDir = "build"
	}
}

// Save 保存配置到文件
func (c *Config) Save(path string) error {
	// 生成带注释的配置文件内容
	content := generateConfigWithComments(c)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// generateConfigWithComments 生成带注释的配置文件内容
func generateConfigWithComments(c *Config) string {
	var sb strings.Builder

	sb.WriteString("[project]\n")
	sb.WriteString("# 项目名（默认的输出文件名）\n")
	sb.WriteString(fmt.Sprintf("name = %q\n", c.Project.Name))
	sb.WriteString("# 入口单元\n")
	sb.WriteString(fmt.Sprintf("entry = %q\n\n", c.Project.Entry))

	sb.WriteString("[toolchain]\n")
	sb.WriteString(fmt.Sprintf("assembler = %q\n", c.Toolchain.Assembler))
	sb.WriteString(fmt.Sprintf("linker = %q\n", c.Toolchain.Linker))
	if len(c.Toolchain.AssemblerFlags) > 0 {
		sb.WriteString(fmt.Sprintf("assembler_flags = %s\n", quoteList(c.Toolchain.AssemblerFlags)))
	}
	if len(c.Toolchain.LinkerFlags) > 0 {
		sb.WriteString(fmt.Sprintf("linker_flags = %s\n", quoteList(c.Toolchain.LinkerFlags)))
	}
	sb.WriteString("\n")

	sb.WriteString("[build]\n")
	sb.WriteString(fmt.Sprintf("output_dir = %q\n", c.Build.OutputDir))
	if c.Build.TempDir != "" {
		sb.WriteString(fmt.Sprintf("temp_dir = %q\n", c.Build.TempDir))
	}
	sb.WriteString("# 保留中间的 .asm/.o 文件\n")
	sb.WriteString(fmt.Sprintf("keep_temp = %t\n", c.Build.KeepTemp))
	sb.WriteString("# 并行编译的单元数（0 表示 CPU 数）\n")
	sb.WriteString(fmt.Sprintf("jobs = %d\n", c.Build.Jobs))

	return sb.String()
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// GenerateDefault 生成默认配置
// dir 是项目目录路径，用于生成默认的项目名
func GenerateDefault(dir string) *Config {
	// 从目录名生成默认名称
	baseName := filepath.Base(dir)
	if baseName == "" || baseName == "." || baseName == "/" {
		baseName = "a.out"
	}

	c := &Config{
		Project: ProjectInfo{
			Name:  sanitizeName(baseName),
			Entry: "main.json",
		},
	}
	c.applyDefaults()
	return c
}

// sanitizeName 清理项目名
func sanitizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "-")

	var result strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			result.WriteRune(r)
		}
	}

	s := result.String()
	if s == "" {
		return "a.out"
	}
	return s
}

// FindConfigFile 从指定路径向上查找配置文件
// 返回配置文件的完整路径，如果找不到则返回空字符串
func FindConfigFile(startPath string) string {
	// 如果是文件，从其所在目录开始
	info, err := os.Stat(startPath)
	if err != nil {
		return ""
	}

	var dir string
	if info.IsDir() {
		dir = startPath
	} else {
		dir = filepath.Dir(startPath)
	}

	// 转换为绝对路径
	dir, err = filepath.Abs(dir)
	if err != nil {
		return ""
	}

	// 向上查找
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// GetProjectRoot 获取项目根目录（配置文件所在目录）
func GetProjectRoot(startPath string) string {
	configPath := FindConfigFile(startPath)
	if configPath == "" {
		return ""
	}
	return filepath.Dir(configPath)
}
