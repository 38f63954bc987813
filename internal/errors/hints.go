package errors

import "github.com/tangzhangming/phosphor/internal/i18n"

// hintIDs 每个错误码对应的修复建议
var hintIDs = map[string][]string{
	C0001: {i18n.HintCheckOperandTypes},
	C0002: {i18n.HintFewerParameters},
	C0003: {i18n.HintFewerArguments},
	C0007: {i18n.HintRunLowering},
	C0008: {i18n.HintAssignResult},
	T0001: {i18n.HintInstallToolchain, i18n.HintToolchainEnv},
	T0002: {i18n.HintKeepTemp},
}

// Hints 返回错误码的修复建议（已翻译）
func Hints(code string) []string {
	ids := hintIDs[code]
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = i18n.T(id)
	}
	return out
}
