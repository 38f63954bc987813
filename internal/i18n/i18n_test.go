package i18n

import "testing"

func TestCatalogsComplete(t *testing.T) {
	for id := range messagesEN {
		if _, ok := messagesZH[id]; !ok {
			t.Errorf("zh catalog is missing %q", id)
		}
	}
	for id := range messagesZH {
		if _, ok := messagesEN[id]; !ok {
			t.Errorf("en catalog is missing %q", id)
		}
	}
}

func TestTranslate(t *testing.T) {
	defer SetLanguage(GetLanguage())

	SetLanguage(LangEnglish)
	if got := T(ErrToolNotFound, "nasm"); got != "nasm not found" {
		t.Errorf("en: got %q", got)
	}

	SetLanguageFromString("zh-cn")
	if got := T(ErrToolNotFound, "nasm"); got != "找不到 nasm" {
		t.Errorf("zh: got %q", got)
	}
	if got := T(ErrUnsupportedOperator, "-", "bool"); got != "不支持在 bool 上使用运算符 '-'" {
		t.Errorf("zh indexed args: got %q", got)
	}

	if got := T("no.such.message"); got != "no.such.message" {
		t.Errorf("unknown id: got %q", got)
	}
}
