package i18n

// 消息 ID
const (
	// ========== 代码生成 ==========
	ErrUnsupportedOperator = "codegen.unsupported_operator"
	ErrTooManyParameters   = "codegen.too_many_parameters"
	ErrStackArguments      = "codegen.stack_arguments"
	ErrValueNotBound       = "codegen.value_not_bound"
	ErrUnbalancedCallSave  = "codegen.unbalanced_call_save"
	ErrNoRegister          = "codegen.no_register"
	ErrUnsupportedNode     = "codegen.unsupported_node"
	ErrValueAsStatement    = "codegen.value_as_statement"
	ErrUnsupportedType     = "codegen.unsupported_type"

	// ========== 工具链 ==========
	ErrToolNotFound = "toolchain.not_found"
	ErrToolFailed   = "toolchain.failed"

	// ========== 诊断 ==========
	NoteInternalError = "note.internal_error"
	MsgErrorCount     = "msg.error_count"

	HintCheckOperandTypes = "hint.check_operand_types"
	HintFewerParameters   = "hint.fewer_parameters"
	HintFewerArguments    = "hint.fewer_arguments"
	HintRunLowering       = "hint.run_lowering"
	HintAssignResult      = "hint.assign_result"
	HintInstallToolchain  = "hint.install_toolchain"
	HintToolchainEnv      = "hint.toolchain_env"
	HintKeepTemp          = "hint.keep_temp"

	// ========== 命令行 ==========
	CLIUsage          = "cli.usage"
	CLIVersion        = "cli.version"
	CLIUnknownCommand = "cli.unknown_command"
	CLIMissingInput   = "cli.missing_input"
	CLIReadFailed     = "cli.read_failed"
	CLIConfigFailed   = "cli.config_failed"
	CLIBuilt          = "cli.built"
)
