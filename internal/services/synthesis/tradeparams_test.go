package synthesis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TriSight/internal/domain/models"
)

func TestTradeParametersBuyOrdering(t *testing.T) {
	ind := models.TechnicalIndicators{CurrentPrice: 200, ATR: 4}
	tp, err := CalculateTradeParameters(models.RecommendationBuy, ind, DefaultLevels)
	require.NoError(t, err)

	assert.Less(t, tp.StopLoss, tp.EntryPrice)
	assert.Less(t, tp.EntryPrice, tp.TakeProfitLevels[0])
	for i := 1; i < len(tp.TakeProfitLevels); i++ {
		assert.Less(t, tp.TakeProfitLevels[i-1], tp.TakeProfitLevels[i])
	}
	// Entry sits on a slight pullback below the current price.
	assert.Less(t, tp.EntryPrice, ind.CurrentPrice)
}

func TestTradeParametersSellMirrored(t *testing.T) {
	ind := models.TechnicalIndicators{CurrentPrice: 50, ATR: 1.5}
	tp, err := CalculateTradeParameters(models.RecommendationSell, ind, DefaultLevels)
	require.NoError(t, err)

	assert.Greater(t, tp.StopLoss, tp.EntryPrice)
	assert.Greater(t, tp.EntryPrice, tp.TakeProfitLevels[0])
	for i := 1; i < len(tp.TakeProfitLevels); i++ {
		assert.Greater(t, tp.TakeProfitLevels[i-1], tp.TakeProfitLevels[i])
	}
	assert.Greater(t, tp.EntryPrice, ind.CurrentPrice)
}

func TestTradeParametersHoldPricedLong(t *testing.T) {
	ind := models.TechnicalIndicators{CurrentPrice: 100, ATR: 2}
	tp, err := CalculateTradeParameters(models.RecommendationHold, ind, DefaultLevels)
	require.NoError(t, err)
	assert.Less(t, tp.StopLoss, tp.EntryPrice)
	assert.Less(t, tp.EntryPrice, tp.TakeProfitLevels[0])
}

func TestTradeParametersOrderingAcrossVolatilities(t *testing.T) {
	for _, atr := range []float64{0.01, 0.5, 2, 10, 25} {
		ind := models.TechnicalIndicators{CurrentPrice: 100, ATR: atr}
		tp, err := CalculateTradeParameters(models.RecommendationBuy, ind, DefaultLevels)
		require.NoError(t, err, "atr=%v", atr)
		require.Less(t, tp.StopLoss, tp.EntryPrice, "atr=%v", atr)
		prev := tp.EntryPrice
		for _, lvl := range tp.TakeProfitLevels {
			require.Greater(t, lvl, prev, "atr=%v", atr)
			prev = lvl
		}
	}
}

func TestTradeParametersRejectsBadIndicators(t *testing.T) {
	_, err := CalculateTradeParameters(models.RecommendationBuy, models.TechnicalIndicators{CurrentPrice: 0, ATR: 1}, DefaultLevels)
	assert.Error(t, err)
	_, err = CalculateTradeParameters(models.RecommendationBuy, models.TechnicalIndicators{CurrentPrice: 100, ATR: 0}, DefaultLevels)
	assert.Error(t, err)
	_, err = CalculateTradeParameters(models.RecommendationBuy, models.TechnicalIndicators{CurrentPrice: 100, ATR: -2}, DefaultLevels)
	assert.Error(t, err)
}

func TestTradeParametersSortsCoefficients(t *testing.T) {
	k := LevelCoefficients{Entry: 0.5, Stop: 2.0, TakeProfits: []float64{5.0, 1.5, 3.0}}
	ind := models.TechnicalIndicators{CurrentPrice: 100, ATR: 2}
	tp, err := CalculateTradeParameters(models.RecommendationBuy, ind, k)
	require.NoError(t, err)
	for i := 1; i < len(tp.TakeProfitLevels); i++ {
		assert.Less(t, tp.TakeProfitLevels[i-1], tp.TakeProfitLevels[i])
	}
}
