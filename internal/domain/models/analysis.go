package models

// Signal is the directional reading of a single factor.
type Signal string

const (
	SignalPositive Signal = "positive"
	SignalNegative Signal = "negative"
	SignalNeutral  Signal = "neutral"
)

// Factor is one named observation contributed by an analysis.
type Factor struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Signal   Signal  `json:"signal"`
	Weight   float64 `json:"weight"`
	Detail   string  `json:"detail,omitempty"`
}

// FundamentalResult is the payload returned by the fundamental provider.
type FundamentalResult struct {
	Score      float64  `json:"score"`
	Confidence float64  `json:"confidence"`
	Factors    []Factor `json:"factors"`
}

// TechnicalIndicators carries the raw indicator values the trade-parameter
// calculation depends on.
type TechnicalIndicators struct {
	CurrentPrice float64 `json:"current_price"`
	ATR          float64 `json:"atr"`
	RSI          float64 `json:"rsi,omitempty"`
	SMA50        float64 `json:"sma_50,omitempty"`
	SMA200       float64 `json:"sma_200,omitempty"`
}

// TechnicalResult is the payload returned by the technical provider.
type TechnicalResult struct {
	Score      float64             `json:"score"`
	Confidence float64             `json:"confidence"`
	Factors    []Factor            `json:"factors"`
	Indicators TechnicalIndicators `json:"indicators"`
}

// SentimentEcoResult is the payload returned by the sentiment/ESG provider.
type SentimentEcoResult struct {
	Score      float64  `json:"score"`
	Confidence float64  `json:"confidence"`
	Factors    []Factor `json:"factors"`
	KeyEchoes  []string `json:"key_echoes,omitempty"`
}

// ScoredAnalysis is the common view synthesis works with, regardless of which
// analysis produced it.
type ScoredAnalysis struct {
	Kind       Kind     `json:"kind"`
	Score      float64  `json:"score"`
	Confidence float64  `json:"confidence"`
	Factors    []Factor `json:"factors"`
	Fallback   bool     `json:"fallback,omitempty"`
}

// PartialResults holds whichever analyses succeeded. A nil field means the
// analysis failed or never ran; fields are never filled with placeholder
// payloads at this layer.
type PartialResults struct {
	Fundamental  *FundamentalResult
	Technical    *TechnicalResult
	SentimentEco *SentimentEcoResult
}

// SucceededCount returns how many of the three analyses are present.
func (p PartialResults) SucceededCount() int {
	n := 0
	if p.Fundamental != nil {
		n++
	}
	if p.Technical != nil {
		n++
	}
	if p.SentimentEco != nil {
		n++
	}
	return n
}

// Scored returns the present analyses as ScoredAnalysis entries, in Kinds order.
func (p PartialResults) Scored() []ScoredAnalysis {
	out := make([]ScoredAnalysis, 0, 3)
	if p.Fundamental != nil {
		out = append(out, ScoredAnalysis{Kind: KindFundamental, Score: p.Fundamental.Score, Confidence: p.Fundamental.Confidence, Factors: p.Fundamental.Factors})
	}
	if p.Technical != nil {
		out = append(out, ScoredAnalysis{Kind: KindTechnical, Score: p.Technical.Score, Confidence: p.Technical.Confidence, Factors: p.Technical.Factors})
	}
	if p.SentimentEco != nil {
		out = append(out, ScoredAnalysis{Kind: KindESG, Score: p.SentimentEco.Score, Confidence: p.SentimentEco.Confidence, Factors: p.SentimentEco.Factors})
	}
	return out
}

// Has reports whether the analysis of the given kind is present.
func (p PartialResults) Has(k Kind) bool {
	switch k {
	case KindFundamental:
		return p.Fundamental != nil
	case KindTechnical:
		return p.Technical != nil
	case KindESG:
		return p.SentimentEco != nil
	}
	return false
}
