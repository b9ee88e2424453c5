package validate

import "strings"

// Known upstream credential shapes. Classification is shape-only; no network
// calls are made here.
const (
	KeyTypeAnthropic = "anthropic"
	KeyTypeOpenAI    = "openai"
	KeyTypeGemini    = "gemini"
)

// KeyResult reports credential shape validation.
type KeyResult struct {
	IsValid bool     `json:"is_valid"`
	KeyType string   `json:"key_type,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// APIKey validates the format of an upstream AI-provider credential and
// classifies its type on success.
func APIKey(key string) KeyResult {
	key = strings.TrimSpace(key)
	if key == "" {
		return KeyResult{Errors: []string{"API key is required"}}
	}

	switch {
	case strings.HasPrefix(key, "sk-ant-"):
		if len(key) < 20 {
			return KeyResult{Errors: []string{"Anthropic API key is too short"}}
		}
		if !keyBody(key[len("sk-ant-"):]) {
			return KeyResult{Errors: []string{"Anthropic API key contains invalid characters"}}
		}
		return KeyResult{IsValid: true, KeyType: KeyTypeAnthropic}
	case strings.HasPrefix(key, "sk-"):
		if len(key) < 20 {
			return KeyResult{Errors: []string{"OpenAI API key is too short"}}
		}
		if !keyBody(key[len("sk-"):]) {
			return KeyResult{Errors: []string{"OpenAI API key contains invalid characters"}}
		}
		return KeyResult{IsValid: true, KeyType: KeyTypeOpenAI}
	case strings.HasPrefix(key, "AIza"):
		if len(key) < 30 {
			return KeyResult{Errors: []string{"Gemini API key is too short"}}
		}
		return KeyResult{IsValid: true, KeyType: KeyTypeGemini}
	default:
		return KeyResult{Errors: []string{"unrecognized API key format"}}
	}
}

func keyBody(s string) bool {
	for _, r := range s {
		ok := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_'
		if !ok {
			return false
		}
	}
	return s != ""
}
