package i18n

var messagesEN = map[string]string{
	// ========== Code generation ==========
	ErrUnsupportedOperator: "unsupported operator '%s' on %s",
	ErrTooManyParameters:   "function has %d parameters but only %d argument registers exist",
	ErrStackArguments:      "call passes %d arguments but only %d argument registers exist (stack arguments are not supported)",
	ErrValueNotBound:       "value %s is not bound to any location",
	ErrUnbalancedCallSave:  "register restore without a pending call save",
	ErrNoRegister:          "no free register and no value that can be spilled",
	ErrUnsupportedNode:     "unsupported node %s reached code generation",
	ErrValueAsStatement:    "expression %s produces a value and cannot be used as a statement",
	ErrUnsupportedType:     "unsupported type %s",

	// ========== Toolchain ==========
	ErrToolNotFound: "%s not found",
	ErrToolFailed:   "%s failed",

	// ========== Diagnostics ==========
	NoteInternalError: "this is an internal compiler error; the input reached a construct the code generator does not handle",
	MsgErrorCount:     "error: %d errors found",

	HintCheckOperandTypes: "make sure the front end only produces operator/type pairs the backend supports",
	HintFewerParameters:   "functions may take at most 6 parameters",
	HintFewerArguments:    "calls may pass at most 6 arguments",
	HintRunLowering:       "structured if/while must be lowered to labels and gotos before code generation",
	HintAssignResult:      "only calls may be used as statements; assign other values to a variable",
	HintInstallToolchain:  "install nasm and binutils (ld)",
	HintToolchainEnv:      "or point PHOSPHOR_NASM / PHOSPHOR_LD at the tools",
	HintKeepTemp:          "set PHOSPHOR_KEEP_TEMP=true to keep the generated assembly for inspection",

	// ========== CLI ==========
	CLIUsage: `phosphor - AMD64/Linux backend

Usage:
  phosphor <command> [options] <tree.json>...

Commands:
  asm <tree.json>               print the generated assembly
  build [-o out] <tree.json>... compile and link an executable
  run <tree.json>               build into a temporary directory and run
  version                       print version
  help                          show this help

Options:
  -tree         dump the decoded program tree
  -config FILE  project configuration (default phosphor.toml)
  --lang LANG   message language (en, zh)
`,
	CLIVersion:        "phosphor %s",
	CLIUnknownCommand: "unknown command: %s",
	CLIMissingInput:   "no input file given",
	CLIReadFailed:     "cannot read %s: %v",
	CLIConfigFailed:   "cannot load configuration: %v",
	CLIBuilt:          "built %s",
}
