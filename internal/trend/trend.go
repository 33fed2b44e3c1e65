package trend

import (
	"crypto-signal-bot/models"
)

// Overall-trend policy: per-timeframe labels are blended by duration weight
// (5m:1, 15m:2, 1h:3, 4h:5) with mixed timeframes contributing half weight
// to each side; a side needs 65% of the total weight to win, otherwise the
// overall trend is sideways.
const overallThresholdPct = 65.0

// ClassifyTimeframe derives a trend label from the EMA ordering on the
// latest sample. All three orderings holding means up, none means down,
// anything between is mixed. Missing indicators yield undetermined.
func ClassifyTimeframe(ind *models.IndicatorSet) models.Trend {
	if ind == nil || len(ind.EMAShort) == 0 || len(ind.EMAMedium) == 0 || len(ind.EMALong) == 0 {
		return models.TrendUndetermined
	}

	short := ind.EMAShort[len(ind.EMAShort)-1]
	medium := ind.EMAMedium[len(ind.EMAMedium)-1]
	long := ind.EMALong[len(ind.EMALong)-1]

	score := 0
	if short > medium {
		score++
	}
	if medium > long {
		score++
	}
	if short > long {
		score++
	}

	switch score {
	case 3:
		return models.TrendUp
	case 0:
		return models.TrendDown
	default:
		return models.TrendMixed
	}
}

// ClassifyOverall blends per-timeframe trend labels into one overall label
func ClassifyOverall(trends map[models.Timeframe]models.Trend) models.Trend {
	var upScore, downScore, totalWeight float64

	for tf, t := range trends {
		if t == models.TrendUndetermined {
			continue
		}
		weight := tf.TrendWeight()
		totalWeight += weight

		switch t {
		case models.TrendUp:
			upScore += weight
		case models.TrendDown:
			downScore += weight
		default:
			upScore += weight / 2
			downScore += weight / 2
		}
	}

	if totalWeight == 0 {
		return models.TrendUndetermined
	}

	upPct := upScore / totalWeight * 100
	downPct := downScore / totalWeight * 100

	switch {
	case upPct >= overallThresholdPct:
		return models.TrendUp
	case downPct >= overallThresholdPct:
		return models.TrendDown
	default:
		return models.TrendSideways
	}
}

// Direction maps a trend label onto a numeric bias: +1 for up, -1 for down,
// 0 for everything neutral or undetermined.
func Direction(t models.Trend) float64 {
	switch t {
	case models.TrendUp, models.TrendWeakUp:
		return 1
	case models.TrendDown, models.TrendWeakDown:
		return -1
	default:
		return 0
	}
}
