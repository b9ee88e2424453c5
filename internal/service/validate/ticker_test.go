package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTickerValid(t *testing.T) {
	cases := []struct {
		raw  string
		norm string
	}{
		{"AAPL", "AAPL"},
		{"aapl", "AAPL"},
		{" msft ", "MSFT"},
		{"BRK.A", "BRK.A"},
		{"BF-B", "BF-B"},
		{"X", "X"},
		{"A1", "A1"},
	}
	for _, c := range cases {
		res := Ticker(c.raw)
		assert.True(t, res.Valid, "ticker %q should be valid", c.raw)
		assert.Equal(t, c.norm, res.Normalized)
		assert.Empty(t, res.Errors)
	}
}

func TestTickerInvalid(t *testing.T) {
	cases := []string{"", "   ", "TOOLONG", "AA PL", "AB$", "münch"}
	for _, raw := range cases {
		res := Ticker(raw)
		assert.False(t, res.Valid, "ticker %q should be invalid", raw)
		assert.NotEmpty(t, res.Errors)
	}
}

func TestTickerNoPanicOnGarbage(t *testing.T) {
	// Validation failures are data, not control flow.
	assert.NotPanics(t, func() {
		Ticker("\x00\xff")
		Ticker("......")
	})
}
