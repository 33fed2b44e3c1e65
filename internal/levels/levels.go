package levels

import (
	"sort"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"crypto-signal-bot/models"
)

const (
	// minCandles is the minimum candle count for pivot detection
	minCandles = 30
	// pivotMargin is the number of candles checked on each side of a pivot
	pivotMargin = 2
	// clusterThresholdPct groups pivots within 0.5% of the current price
	clusterThresholdPct = 0.005
	// maxPerSide caps how many levels are kept on each side of the price
	maxPerSide = 10
)

// Detector finds support and resistance levels from local pivot points
type Detector struct {
	lookback int
	logger   zerolog.Logger
}

// NewDetector creates a level detector scanning at most lookback recent candles
func NewDetector(lookback int) *Detector {
	if lookback <= 0 {
		lookback = 200
	}
	return &Detector{
		lookback: lookback,
		logger:   log.With().Str("component", "levels").Logger(),
	}
}

// Detect scans candles for pivot lows/highs and clusters nearby pivots of the
// same kind into consolidated levels. Fewer than 30 candles yields no levels;
// that is expected, frequent and not an error. The output is unsorted.
func (d *Detector) Detect(candles []models.Candle) []models.Level {
	if len(candles) < minCandles {
		d.logger.Debug().Int("candles", len(candles)).Msg("Insufficient candles for level detection")
		return nil
	}

	if len(candles) > d.lookback {
		candles = candles[len(candles)-d.lookback:]
	}
	currentPrice := candles[len(candles)-1].Close

	var pivots []models.Level
	for i := pivotMargin; i < len(candles)-pivotMargin; i++ {
		if isPivotLow(candles, i) {
			pivots = append(pivots, models.Level{
				Price:    candles[i].Low,
				Kind:     models.LevelSupport,
				Strength: 1,
			})
		}
		if isPivotHigh(candles, i) {
			pivots = append(pivots, models.Level{
				Price:    candles[i].High,
				Kind:     models.LevelResistance,
				Strength: 1,
			})
		}
	}

	return cluster(pivots, currentPrice*clusterThresholdPct)
}

func isPivotLow(candles []models.Candle, i int) bool {
	low := candles[i].Low
	return low < candles[i-1].Low && low < candles[i-2].Low &&
		low < candles[i+1].Low && low < candles[i+2].Low
}

func isPivotHigh(candles []models.Candle, i int) bool {
	high := candles[i].High
	return high > candles[i-1].High && high > candles[i-2].High &&
		high > candles[i+1].High && high > candles[i+2].High
}

// cluster merges candidates of the same kind whose price lies within
// threshold of the first ungrouped candidate. The first-detected pivot seeds
// each cluster; the merged price is the strength-weighted average and the
// merged strength is the sum.
func cluster(pivots []models.Level, threshold float64) []models.Level {
	if len(pivots) == 0 {
		return nil
	}

	grouped := make([]bool, len(pivots))
	var out []models.Level

	for i := range pivots {
		if grouped[i] {
			continue
		}
		grouped[i] = true

		seed := pivots[i]
		totalStrength := seed.Strength
		weightedPrice := seed.Price * seed.Strength

		for j := i + 1; j < len(pivots); j++ {
			if grouped[j] || pivots[j].Kind != seed.Kind {
				continue
			}
			if abs(pivots[j].Price-seed.Price) < threshold {
				grouped[j] = true
				totalStrength += pivots[j].Strength
				weightedPrice += pivots[j].Price * pivots[j].Strength
			}
		}

		out = append(out, models.Level{
			Price:    weightedPrice / totalStrength,
			Kind:     seed.Kind,
			Strength: totalStrength,
		})
	}

	return out
}

// Partition splits levels by the current price: everything below it acts as
// support, everything above as resistance, regardless of which pivot kind
// produced the level. Each side is sorted nearest-first and capped at 10.
// Levels sitting exactly at the current price are dropped.
func Partition(all []models.Level, currentPrice float64) (supports, resistances []models.Level) {
	for _, l := range all {
		switch {
		case l.Price < currentPrice:
			l.Kind = models.LevelSupport
			supports = append(supports, l)
		case l.Price > currentPrice:
			l.Kind = models.LevelResistance
			resistances = append(resistances, l)
		}
	}

	sort.Slice(supports, func(i, j int) bool {
		return supports[i].Price > supports[j].Price
	})
	sort.Slice(resistances, func(i, j int) bool {
		return resistances[i].Price < resistances[j].Price
	})

	if len(supports) > maxPerSide {
		supports = supports[:maxPerSide]
	}
	if len(resistances) > maxPerSide {
		resistances = resistances[:maxPerSide]
	}
	return supports, resistances
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
