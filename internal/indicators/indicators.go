package indicators

import (
	"math"

	"crypto-signal-bot/models"
)

// Every function here returns a series the same length as its input. Warm-up
// positions are filled with a neutral or seeded value instead of being left
// undefined, so callers can index any series at any candle position.

const neutralRSI = 50.0

// RSI calculates the Relative Strength Index over closes. Positions before
// the first full period carry the neutral value 50.
func RSI(closes []float64, period int) []float64 {
	rsi := make([]float64, len(closes))
	for i := range rsi {
		rsi[i] = neutralRSI
	}
	if period <= 0 || len(closes) < period+1 {
		return rsi
	}

	for i := period; i < len(closes); i++ {
		var gains, losses float64
		for j := i - period + 1; j <= i; j++ {
			change := closes[j] - closes[j-1]
			if change > 0 {
				gains += change
			} else {
				losses -= change
			}
		}
		avgGain := gains / float64(period)
		avgLoss := losses / float64(period)
		if avgLoss == 0 {
			avgLoss = 1e-10
		}
		rs := avgGain / avgLoss
		rsi[i] = 100.0 - (100.0 / (1.0 + rs))
	}
	return rsi
}

// EMA calculates the exponential moving average, seeded on the first close
func EMA(closes []float64, period int) []float64 {
	ema := make([]float64, len(closes))
	if len(closes) == 0 {
		return ema
	}
	if period <= 0 {
		copy(ema, closes)
		return ema
	}

	multiplier := 2.0 / float64(period+1)
	ema[0] = closes[0]
	for i := 1; i < len(closes); i++ {
		ema[i] = (closes[i]-ema[i-1])*multiplier + ema[i-1]
	}
	return ema
}

// SMA calculates the simple moving average. Positions before a full window
// carry the mean of the available prefix.
func SMA(values []float64, period int) []float64 {
	sma := make([]float64, len(values))
	if len(values) == 0 {
		return sma
	}
	if period <= 0 {
		period = 1
	}

	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
			sma[i] = sum / float64(period)
		} else {
			sma[i] = sum / float64(i+1)
		}
	}
	return sma
}

// MACD calculates the MACD line (fast EMA minus slow EMA), its signal line
// (moving average of the MACD line) and the histogram between them.
func MACD(closes []float64, fastPeriod, slowPeriod, signalPeriod int) models.MACDSeries {
	fast := EMA(closes, fastPeriod)
	slow := EMA(closes, slowPeriod)

	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = fast[i] - slow[i]
	}

	signal := SMA(line, signalPeriod)

	histogram := make([]float64, len(closes))
	for i := range closes {
		histogram[i] = line[i] - signal[i]
	}

	return models.MACDSeries{Line: line, Signal: signal, Histogram: histogram}
}

// Volatility returns the standard deviation of per-candle percentage returns
func Volatility(candles []models.Candle) float64 {
	if len(candles) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		prev := candles[i-1].Close
		if prev == 0 {
			continue
		}
		returns = append(returns, (candles[i].Close-prev)/prev*100)
	}
	if len(returns) == 0 {
		return 0
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))

	return math.Sqrt(variance)
}

// Compute derives the full indicator bundle for one timeframe's candles
func Compute(candles []models.Candle, cfg *models.Config) *models.IndicatorSet {
	closes := make([]float64, len(candles))
	volumes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
		volumes[i] = c.Volume
	}

	return &models.IndicatorSet{
		RSI:       RSI(closes, cfg.RSIPeriod),
		MACD:      MACD(closes, cfg.MACDFastPeriod, cfg.MACDSlowPeriod, cfg.MACDSignalPeriod),
		EMAShort:  EMA(closes, cfg.EMAShortPeriod),
		EMAMedium: EMA(closes, cfg.EMAMediumPeriod),
		EMALong:   EMA(closes, cfg.EMALongPeriod),
		Volume:    volumes,
		AvgVolume: SMA(volumes, cfg.VolumeAvgPeriod),
	}
}
