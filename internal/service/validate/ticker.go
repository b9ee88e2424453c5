package validate

import (
	"fmt"
	"strings"
)

const maxTickerLen = 5

// TickerResult is validation-as-data: failures are reported in Errors, never
// as Go errors.
type TickerResult struct {
	Valid      bool     `json:"valid"`
	Normalized string   `json:"normalized"`
	Errors     []string `json:"errors,omitempty"`
}

// Ticker normalizes and validates a ticker symbol. Symbols are trimmed and
// uppercased; valid symbols are 1-5 characters from [A-Z0-9.-], so class
// shares like "BRK.A" are accepted.
func Ticker(raw string) TickerResult {
	norm := strings.ToUpper(strings.TrimSpace(raw))
	res := TickerResult{Normalized: norm}

	if norm == "" {
		res.Errors = append(res.Errors, "ticker is required")
		return res
	}
	if len(norm) > maxTickerLen {
		res.Errors = append(res.Errors, fmt.Sprintf("ticker must be at most %d characters", maxTickerLen))
	}
	for _, r := range norm {
		if !tickerChar(r) {
			res.Errors = append(res.Errors, fmt.Sprintf("ticker contains invalid character %q", r))
			break
		}
	}

	res.Valid = len(res.Errors) == 0
	return res
}

func tickerChar(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '.' || r == '-':
		return true
	}
	return false
}
