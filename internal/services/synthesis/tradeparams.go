package synthesis

import (
	"fmt"
	"sort"

	"TriSight/internal/domain/models"
)

// LevelCoefficients scale the ATR-derived volatility into price offsets.
type LevelCoefficients struct {
	Entry       float64   `yaml:"entry"`
	Stop        float64   `yaml:"stop"`
	TakeProfits []float64 `yaml:"take_profits"`
}

// DefaultLevels are used when the config omits a coefficient table.
var DefaultLevels = LevelCoefficients{
	Entry:       0.5,
	Stop:        2.0,
	TakeProfits: []float64{1.5, 3.0, 5.0},
}

// CalculateTradeParameters derives entry/stop/take-profit levels from the
// technical indicators and the final verdict. For a BUY the levels satisfy
// stop < entry < tp[0] < tp[1] < ...; for a SELL the inequality is mirrored.
// A HOLD verdict is priced long-side so the caller still gets actionable
// levels for a later upgrade.
func CalculateTradeParameters(recommendation string, ind models.TechnicalIndicators, k LevelCoefficients) (*models.TradeParameters, error) {
	if ind.CurrentPrice <= 0 {
		return nil, fmt.Errorf("current price must be positive, got %v", ind.CurrentPrice)
	}
	if ind.ATR <= 0 {
		return nil, fmt.Errorf("ATR must be positive, got %v", ind.ATR)
	}
	if len(k.TakeProfits) == 0 {
		k = DefaultLevels
	}

	vol := ind.ATR / ind.CurrentPrice

	ks := append([]float64(nil), k.TakeProfits...)
	sort.Float64s(ks)

	dir := 1.0 // long side
	if recommendation == models.RecommendationSell {
		dir = -1.0
	}

	// Long: enter on a slight pullback below price; short mirrored above.
	entry := ind.CurrentPrice * (1 - dir*vol*k.Entry)
	stop := entry * (1 - dir*vol*k.Stop)
	tps := make([]float64, len(ks))
	for i, kp := range ks {
		tps[i] = entry * (1 + dir*vol*kp)
	}

	tp := &models.TradeParameters{EntryPrice: entry, StopLoss: stop, TakeProfitLevels: tps}
	if err := checkOrdering(recommendation, tp); err != nil {
		// Violating the ordering is a computation bug, never a valid output.
		return nil, err
	}
	return tp, nil
}

func checkOrdering(recommendation string, tp *models.TradeParameters) error {
	levels := append([]float64{tp.StopLoss, tp.EntryPrice}, tp.TakeProfitLevels...)
	for i := 1; i < len(levels); i++ {
		asc := levels[i] > levels[i-1]
		if recommendation == models.RecommendationSell {
			asc = levels[i] < levels[i-1]
		}
		if !asc {
			return fmt.Errorf("trade levels out of order: %v", levels)
		}
	}
	return nil
}
