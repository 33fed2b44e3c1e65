package signal

import (
	"fmt"

	"crypto-signal-bot/models"
)

// Base strengths per micro-signal kind. Crossovers of the MACD line over
// its signal are the strongest single event; zero-line and volume events
// the weakest.
const (
	strengthRSI      = 0.7
	strengthMACD     = 0.8
	strengthMACDZero = 0.6
	strengthEMACross = 0.7
	strengthVolume   = 0.6
)

// Scanner extracts per-timeframe micro-signals from an indicator set.
type Scanner struct {
	rsiOversold      float64
	rsiOverbought    float64
	volumeMultiplier float64
}

func NewScanner(cfg *models.Config) *Scanner {
	return &Scanner{
		rsiOversold:      cfg.RSIOversold,
		rsiOverbought:    cfg.RSIOverbought,
		volumeMultiplier: cfg.VolumeMultiplier,
	}
}

// Scan evaluates the two latest samples of each indicator and reports every
// event that fired. Fewer than two samples means no events.
func (s *Scanner) Scan(candles []models.Candle, ind *models.IndicatorSet) []models.MicroSignal {
	if ind == nil || len(candles) < 2 {
		return nil
	}

	var signals []models.MicroSignal
	signals = append(signals, s.scanRSI(ind)...)
	signals = append(signals, s.scanMACD(ind)...)
	signals = append(signals, s.scanEMACross(ind)...)
	signals = append(signals, s.scanVolume(candles, ind)...)
	return signals
}

// scanRSI fires only when the oversold/overbought condition held over two
// consecutive samples, filtering out single-candle wicks.
func (s *Scanner) scanRSI(ind *models.IndicatorSet) []models.MicroSignal {
	n := len(ind.RSI)
	if n < 2 {
		return nil
	}
	last, prev := ind.RSI[n-1], ind.RSI[n-2]

	if last < s.rsiOversold && prev < s.rsiOversold {
		return []models.MicroSignal{{
			Kind:      models.MicroRSI,
			Direction: models.DirectionBuy,
			Strength:  strengthRSI,
			Message:   fmt.Sprintf("RSI oversold (%.1f)", last),
		}}
	}
	if last > s.rsiOverbought && prev > s.rsiOverbought {
		return []models.MicroSignal{{
			Kind:      models.MicroRSI,
			Direction: models.DirectionSell,
			Strength:  strengthRSI,
			Message:   fmt.Sprintf("RSI overbought (%.1f)", last),
		}}
	}
	return nil
}

func (s *Scanner) scanMACD(ind *models.IndicatorSet) []models.MicroSignal {
	n := len(ind.MACD.Line)
	if n < 2 || len(ind.MACD.Signal) < n {
		return nil
	}
	var signals []models.MicroSignal

	line, prevLine := ind.MACD.Line[n-1], ind.MACD.Line[n-2]
	sig, prevSig := ind.MACD.Signal[n-1], ind.MACD.Signal[n-2]

	if line > sig && prevLine <= prevSig {
		signals = append(signals, models.MicroSignal{
			Kind:      models.MicroMACD,
			Direction: models.DirectionBuy,
			Strength:  strengthMACD,
			Message:   "MACD bullish crossover",
		})
	} else if line < sig && prevLine >= prevSig {
		signals = append(signals, models.MicroSignal{
			Kind:      models.MicroMACD,
			Direction: models.DirectionSell,
			Strength:  strengthMACD,
			Message:   "MACD bearish crossover",
		})
	}

	if line > 0 && prevLine <= 0 {
		signals = append(signals, models.MicroSignal{
			Kind:      models.MicroMACDZero,
			Direction: models.DirectionBuy,
			Strength:  strengthMACDZero,
			Message:   "MACD crossed above zero",
		})
	} else if line < 0 && prevLine >= 0 {
		signals = append(signals, models.MicroSignal{
			Kind:      models.MicroMACDZero,
			Direction: models.DirectionSell,
			Strength:  strengthMACDZero,
			Message:   "MACD crossed below zero",
		})
	}

	return signals
}

func (s *Scanner) scanEMACross(ind *models.IndicatorSet) []models.MicroSignal {
	n := len(ind.EMAShort)
	if n < 2 || len(ind.EMAMedium) < n {
		return nil
	}
	short, prevShort := ind.EMAShort[n-1], ind.EMAShort[n-2]
	medium, prevMedium := ind.EMAMedium[n-1], ind.EMAMedium[n-2]

	if short > medium && prevShort <= prevMedium {
		return []models.MicroSignal{{
			Kind:      models.MicroEMACross,
			Direction: models.DirectionBuy,
			Strength:  strengthEMACross,
			Message:   "EMA bullish crossover",
		}}
	}
	if short < medium && prevShort >= prevMedium {
		return []models.MicroSignal{{
			Kind:      models.MicroEMACross,
			Direction: models.DirectionSell,
			Strength:  strengthEMACross,
			Message:   "EMA bearish crossover",
		}}
	}
	return nil
}

// scanVolume tags a volume spike with the direction of the candle body.
// Doji candles produce no event.
func (s *Scanner) scanVolume(candles []models.Candle, ind *models.IndicatorSet) []models.MicroSignal {
	n := len(ind.Volume)
	if n == 0 || len(ind.AvgVolume) < n {
		return nil
	}
	vol, avg := ind.Volume[n-1], ind.AvgVolume[n-1]
	if avg <= 0 || vol <= avg*s.volumeMultiplier {
		return nil
	}

	last := candles[len(candles)-1]
	var dir models.Direction
	switch {
	case last.Close > last.Open:
		dir = models.DirectionBuy
	case last.Close < last.Open:
		dir = models.DirectionSell
	default:
		return nil
	}

	return []models.MicroSignal{{
		Kind:      models.MicroVolume,
		Direction: dir,
		Strength:  strengthVolume,
		Message:   fmt.Sprintf("volume spike (%.1fx average)", vol/avg),
	}}
}
