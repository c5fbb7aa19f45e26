package i18n

import (
	"strings"
	"sync"
)

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "value" or "slot"). Placeholders are written as {name}.
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	switch t.lang {
	case "ja":
		switch code {
		case "unrecognized_value":
			return "値 {value} を変換できません"
		case "unresolved_reference":
			return "{value} を解決できません"
		case "invalid_contract":
			return "契約定義が不正です"
		case "duplicate_name":
			return "名前 {name} が重複しています"
		case "unknown_slot":
			return "未知のスロットです"
		case "no_description":
			return "文書に対応するファイル記述がありません"
		case "invalid_anchor":
			return "アンカーが不正です"
		}
	default: // "en"
		switch code {
		case "unrecognized_value":
			return "Cannot convert {value}"
		case "unresolved_reference":
			return "Cannot resolve {value}"
		case "invalid_contract":
			return "invalid contract"
		case "duplicate_name":
			return "duplicate name {name}"
		case "unknown_slot":
			return "unknown slot"
		case "no_description":
			return "no file description accepts the document"
		case "invalid_anchor":
			return "invalid anchor"
		}
	}
	return code
}

var (
	mu                           = sync.RWMutex{}
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	mu.Lock()
	currentTranslator = dictTranslator{lang: lang}
	mu.Unlock()
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	mu.Lock()
	defer mu.Unlock()
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator and
// substitutes {name} placeholders from data.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	msg := tr.Message(code, data)
	if len(data) == 0 || !strings.Contains(msg, "{") {
		return msg
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}
