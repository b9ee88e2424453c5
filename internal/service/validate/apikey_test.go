package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIKeyEmpty(t *testing.T) {
	res := APIKey("")
	assert.False(t, res.IsValid)
	assert.Contains(t, res.Errors, "API key is required")
}

func TestAPIKeyClassification(t *testing.T) {
	cases := []struct {
		key     string
		keyType string
	}{
		{"sk-ant-REDACTED", KeyTypeAnthropic},
		{"sk-abcdefghijklmnopqrstuvwx", KeyTypeOpenAI},
		{"AIzaSyAbCdEfGhIjKlMnOpQrStUvWxYz01", KeyTypeGemini},
	}
	for _, c := range cases {
		res := APIKey(c.key)
		assert.True(t, res.IsValid, "key %q should be valid", c.key)
		assert.Equal(t, c.keyType, res.KeyType)
	}
}

func TestAPIKeyRejected(t *testing.T) {
	cases := []string{
		"sk-short",
		"sk-ant-x",
		"sk-has spaces in the body aaaaaa",
		"not-a-key-at-all",
		"AIzatooshort",
	}
	for _, key := range cases {
		res := APIKey(key)
		assert.False(t, res.IsValid, "key %q should be rejected", key)
		assert.NotEmpty(t, res.Errors)
		assert.Empty(t, res.KeyType)
	}
}
