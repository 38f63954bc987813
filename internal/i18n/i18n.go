// Package i18n 提供命令行与诊断消息的多语言支持
package i18n

import (
	"fmt"
	"sync"
)

// Language 语言类型
type Language string

const (
	LangEnglish Language = "en"
	LangChinese Language = "zh"
)

var (
	currentLang Language = LangEnglish
	mu          sync.RWMutex
)

// SetLanguage 设置当前语言
func SetLanguage(lang Language) {
	mu.Lock()
	defer mu.Unlock()
	currentLang = lang
}

// ParseLanguage 从字符串解析语言，无法识别时返回英文
func ParseLanguage(lang string) Language {
	switch lang {
	case "zh", "zh-cn", "zh_CN", "zh-tw", "zh-hk", "chinese":
		return LangChinese
	default:
		return LangEnglish
	}
}

// SetLanguageFromString 从字符串设置语言
func SetLanguageFromString(lang string) {
	SetLanguage(ParseLanguage(lang))
}

// GetLanguage 获取当前语言
func GetLanguage() Language {
	mu.RLock()
	defer mu.RUnlock()
	return currentLang
}

func catalog(lang Language) map[string]string {
	if lang == LangChinese {
		return messagesZH
	}
	return messagesEN
}

// T 翻译消息（支持格式化参数）
//
// 当前语言缺少的消息回退到英文，英文也没有时返回消息 ID 本身。
func T(msgID string, args ...interface{}) string {
	msg, ok := catalog(GetLanguage())[msgID]
	if !ok {
		msg, ok = messagesEN[msgID]
	}
	if !ok {
		return msgID
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}
