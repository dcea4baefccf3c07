package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ETFAdvisor/internal/domain/models"
)

func fullIndicators() models.IndicatorSet {
	return models.IndicatorSet{
		Symbol:     "0050",
		LastClose:  150,
		MAShort:    100,
		MALong:     100,
		RSI:        80,
		Percentile: 10,
		Band:       models.BandDeepValue,
		AvgVolume:  ptr(10_000_000),
	}
}

func TestScoreInstrumentAllSubScores(t *testing.T) {
	e := newTestEngine(t)
	meta := models.Instrument{Symbol: "0050", Name: "Yuanta Taiwan 50", Category: "market_cap", ExpenseRatio: ptr(0.002)}

	s := e.ScoreInstrument(fullIndicators(), meta)

	assert.Equal(t, map[string]float64{
		models.SubScoreTrend:     50,
		models.SubScoreMomentum:  80,
		models.SubScoreValuation: 90,
		models.SubScoreLiquidity: 100,
		models.SubScoreCost:      100,
	}, s.SubScores)
	assert.InDelta(t, 77.0, s.Score, 1e-9)
	assert.Equal(t, models.RatingGreen, s.Rating)
	assert.Equal(t, models.RecommendBuy, s.Recommendation)
	assert.Equal(t, "Yuanta Taiwan 50", s.Name)
	assert.Equal(t, 150.0, s.Price)
	assert.Contains(t, s.Reasoning, "liquidity is the strongest factor")
	assert.Contains(t, s.Reasoning, "deep value band")
}

func TestScoreInstrumentRenormalisesMissingSubScores(t *testing.T) {
	e := newTestEngine(t)
	ind := fullIndicators()
	ind.AvgVolume = nil

	s := e.ScoreInstrument(ind, models.Instrument{Symbol: "0050"})

	require.Len(t, s.SubScores, 3)
	assert.NotContains(t, s.SubScores, models.SubScoreLiquidity)
	assert.NotContains(t, s.SubScores, models.SubScoreCost)
	// (0.30*50 + 0.25*80 + 0.30*90) / 0.85
	assert.InDelta(t, 72.94, s.Score, 1e-9)
	assert.Equal(t, models.RatingYellow, s.Rating)
	assert.Contains(t, s.Reasoning, "valuation is the strongest factor")
}

func TestScoreInstrumentClampsTrend(t *testing.T) {
	e := newTestEngine(t)
	ind := fullIndicators()
	ind.MAShort = 120

	s := e.ScoreInstrument(ind, models.Instrument{Symbol: "0050"})
	assert.Equal(t, 100.0, s.SubScores[models.SubScoreTrend])

	ind.MAShort = 70
	s = e.ScoreInstrument(ind, models.Instrument{Symbol: "0050"})
	assert.Equal(t, 0.0, s.SubScores[models.SubScoreTrend])
}

func TestScoreInstrumentCostScale(t *testing.T) {
	e := newTestEngine(t)
	for er, want := range map[float64]float64{0.001: 100, 0.006: 50, 0.01: 0, 0.02: 0} {
		s := e.ScoreInstrument(fullIndicators(), models.Instrument{Symbol: "0050", ExpenseRatio: ptr(er)})
		assert.InDelta(t, want, s.SubScores[models.SubScoreCost], 1e-9, "expense ratio %v", er)
	}
}

func TestScoreInstrumentFlatSeriesIsNeutral(t *testing.T) {
	e := newTestEngine(t)
	ind, err := e.ComputeIndicators(seriesOf("0056", linear(30, 35, 0), 0))
	require.NoError(t, err)

	s := e.ScoreInstrument(ind, models.Instrument{Symbol: "0056"})
	assert.Equal(t, 50.0, s.Score)
	assert.Equal(t, models.RatingOrange, s.Rating)
	assert.Equal(t, models.RecommendHold, s.Recommendation)
}

func TestRatingIsMonotonic(t *testing.T) {
	e := newTestEngine(t)
	prevRating := e.Rate(0).Rank()
	prevRec := recommendRank(e.Recommend(0))
	for score := 0.0; score <= 100; score += 0.25 {
		r := e.Rate(score).Rank()
		rec := recommendRank(e.Recommend(score))
		assert.GreaterOrEqual(t, r, prevRating, "score %v", score)
		assert.GreaterOrEqual(t, rec, prevRec, "score %v", score)
		prevRating, prevRec = r, rec
	}
	assert.Equal(t, models.RatingGreen, e.Rate(75))
	assert.Equal(t, models.RatingYellow, e.Rate(74.99))
	assert.Equal(t, models.RatingRed, e.Rate(34.99))
}

func recommendRank(r models.Recommendation) int {
	switch r {
	case models.RecommendStrongBuy:
		return 3
	case models.RecommendBuy:
		return 2
	case models.RecommendHold:
		return 1
	default:
		return 0
	}
}
