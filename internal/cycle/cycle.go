package cycle

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"crypto-signal-bot/models"
)

const (
	minCandles   = 30
	changePeriod = 20
)

// Analyzer classifies the market phase on the reference timeframe and flags
// reversal/continuation patterns. It never errors: when data is short it
// reports an undetermined phase with zero confidence.
type Analyzer struct {
	logger zerolog.Logger
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{
		logger: log.With().Str("component", "cycle").Logger(),
	}
}

// Analyze evaluates the latest indicator sample against the price change over
// the last 20 reference-timeframe periods.
func (a *Analyzer) Analyze(candles []models.Candle, ind *models.IndicatorSet, refTrend models.Trend) models.MarketCycle {
	if len(candles) < minCandles || ind == nil || len(ind.RSI) == 0 || len(ind.MACD.Line) == 0 {
		a.logger.Debug().Int("candles", len(candles)).Msg("not enough data for cycle analysis")
		return models.MarketCycle{Phase: models.PhaseUndetermined, Confidence: 0}
	}

	change := priceChangePercent(candles)
	rsi := ind.RSI[len(ind.RSI)-1]
	macdLine := ind.MACD.Line[len(ind.MACD.Line)-1]
	macdSignal := ind.MACD.Signal[len(ind.MACD.Signal)-1]

	cycle := models.MarketCycle{PriceChangePercent: change}

	switch {
	case rsi > 60 && macdLine > macdSignal && change > 5:
		cycle.Phase = models.PhaseBullish
		cycle.Confidence = math.Min(0.5+math.Abs(change)/20, 0.9)
	case rsi < 40 && macdLine < macdSignal && change < -5:
		cycle.Phase = models.PhaseBearish
		cycle.Confidence = math.Min(0.5+math.Abs(change)/20, 0.9)
	case rsi >= 40 && rsi <= 60 && math.Abs(change) < 3:
		cycle.Phase = models.PhaseRanging
		cycle.Confidence = 0.7
	default:
		cycle.Phase = models.PhaseTransitional
		cycle.Confidence = 0.5
	}

	cycle.Patterns = a.detectPatterns(ind, refTrend, change, rsi, macdLine, macdSignal)

	a.logger.Debug().
		Str("phase", string(cycle.Phase)).
		Float64("confidence", cycle.Confidence).
		Float64("change_pct", change).
		Int("patterns", len(cycle.Patterns)).
		Msg("cycle analysis complete")

	return cycle
}

// priceChangePercent measures close-to-close change over the last 20 periods,
// or over everything available when the series is shorter than 21 candles.
func priceChangePercent(candles []models.Candle) float64 {
	last := candles[len(candles)-1].Close
	idx := 0
	if len(candles) > changePeriod {
		idx = len(candles) - 1 - changePeriod
	}
	base := candles[idx].Close
	if base == 0 {
		return 0
	}
	return (last - base) / base * 100
}

func (a *Analyzer) detectPatterns(ind *models.IndicatorSet, refTrend models.Trend, change, rsi, macdLine, macdSignal float64) []models.CyclePattern {
	var patterns []models.CyclePattern

	rsiRising := false
	rsiFalling := false
	if len(ind.RSI) >= 2 {
		prev := ind.RSI[len(ind.RSI)-2]
		rsiRising = rsi > prev
		rsiFalling = rsi < prev
	}

	if rsi < 30 && rsiRising && macdLine > macdSignal {
		patterns = append(patterns, models.CyclePattern{
			Name:        "possible bottom",
			Confidence:  0.6,
			Description: fmt.Sprintf("RSI %.1f recovering from oversold with bullish MACD", rsi),
		})
	}

	if rsi > 70 && rsiFalling && macdLine < macdSignal {
		patterns = append(patterns, models.CyclePattern{
			Name:        "possible top",
			Confidence:  0.6,
			Description: fmt.Sprintf("RSI %.1f rolling over from overbought with bearish MACD", rsi),
		})
	}

	if refTrend == models.TrendUp && rsi > 50 && macdLine > macdSignal && change > 0 {
		patterns = append(patterns, models.CyclePattern{
			Name:        "trend continuation up",
			Confidence:  0.65,
			Description: "uptrend confirmed by RSI, MACD and positive price change",
		})
	}

	if refTrend == models.TrendDown && rsi < 50 && macdLine < macdSignal && change < 0 {
		patterns = append(patterns, models.CyclePattern{
			Name:        "trend continuation down",
			Confidence:  0.65,
			Description: "downtrend confirmed by RSI, MACD and negative price change",
		})
	}

	return patterns
}
