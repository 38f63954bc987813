package i18n

var messagesZH = map[string]string{
	// ========== 代码生成 ==========
	ErrUnsupportedOperator: "不支持在 %[2]s 上使用运算符 '%[1]s'",
	ErrTooManyParameters:   "函数有 %d 个参数，但只有 %d 个参数寄存器",
	ErrStackArguments:      "调用传递了 %d 个参数，但只有 %d 个参数寄存器（不支持栈传参）",
	ErrValueNotBound:       "值 %s 没有绑定到任何位置",
	ErrUnbalancedCallSave:  "没有待恢复的调用现场",
	ErrNoRegister:          "没有空闲寄存器，也没有可以溢出的值",
	ErrUnsupportedNode:     "不支持的节点 %s 到达了代码生成",
	ErrValueAsStatement:    "表达式 %s 会产生值，不能用作语句",
	ErrUnsupportedType:     "不支持的类型 %s",

	// ========== 工具链 ==========
	ErrToolNotFound: "找不到 %s",
	ErrToolFailed:   "%s 执行失败",

	// ========== 诊断 ==========
	NoteInternalError: "这是编译器内部错误：输入到达了代码生成器无法处理的结构",
	MsgErrorCount:     "错误: 发现 %d 个错误",

	HintCheckOperandTypes: "确认前端只产生后端支持的运算符与类型组合",
	HintFewerParameters:   "函数最多 6 个参数",
	HintFewerArguments:    "调用最多传递 6 个参数",
	HintRunLowering:       "结构化的 if/while 必须先降级为标签与跳转",
	HintAssignResult:      "只有调用可以作为语句，其它值请赋给变量",
	HintInstallToolchain:  "安装 nasm 和 binutils (ld)",
	HintToolchainEnv:      "或者用 PHOSPHOR_NASM / PHOSPHOR_LD 指定工具路径",
	HintKeepTemp:          "设置 PHOSPHOR_KEEP_TEMP=true 保留生成的汇编以便检查",

	// ========== 命令行 ==========
	CLIUsage: `phosphor - AMD64/Linux 后端

用法:
  phosphor <命令> [选项] <tree.json>...

命令:
  asm <tree.json>               输出生成的汇编
  build [-o out] <tree.json>... 编译并链接可执行文件
  run <tree.json>               在临时目录中构建并运行
  version                       显示版本
  help                          显示帮助

选项:
  -tree         输出解码后的程序树
  -config FILE  项目配置文件（默认 phosphor.toml）
  --lang LANG   消息语言（en, zh）
`,
	CLIVersion:        "phosphor %s",
	CLIUnknownCommand: "未知命令: %s",
	CLIMissingInput:   "没有指定输入文件",
	CLIReadFailed:     "无法读取 %s: %v",
	CLIConfigFailed:   "无法加载配置: %v",
	CLIBuilt:          "已生成 %s",
}
