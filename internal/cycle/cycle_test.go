package cycle

import (
	"math"
	"testing"

	"crypto-signal-bot/models"
)

// flatThenMove builds 35 candles closing at base until the last 20 periods
// ramp linearly to base*(1+changePct/100).
func flatThenMove(base, changePct float64) []models.Candle {
	candles := make([]models.Candle, 35)
	target := base * (1 + changePct/100)
	for i := range candles {
		close := base
		if i >= 14 {
			close = base + (target-base)*float64(i-14)/20
		}
		candles[i] = models.Candle{Open: close, High: close + 1, Low: close - 1, Close: close, Volume: 1000}
	}
	return candles
}

func indicatorsFor(rsiPrev, rsiLast, macdLine, macdSignal float64) *models.IndicatorSet {
	return &models.IndicatorSet{
		RSI: []float64{rsiPrev, rsiLast},
		MACD: models.MACDSeries{
			Line:   []float64{0, macdLine},
			Signal: []float64{0, macdSignal},
		},
	}
}

func TestAnalyzeInsufficientData(t *testing.T) {
	a := NewAnalyzer()
	got := a.Analyze(flatThenMove(100, 0)[:29], indicatorsFor(50, 50, 0, 0), models.TrendSideways)
	if got.Phase != models.PhaseUndetermined || got.Confidence != 0 {
		t.Errorf("short series: phase=%s conf=%f, want undetermined/0", got.Phase, got.Confidence)
	}
}

func TestAnalyzePhases(t *testing.T) {
	tests := []struct {
		name      string
		candles   []models.Candle
		ind       *models.IndicatorSet
		wantPhase models.MarketPhase
		wantConf  float64
	}{
		{
			name:      "bullish",
			candles:   flatThenMove(100, 6),
			ind:       indicatorsFor(60, 65, 1.0, 0.5),
			wantPhase: models.PhaseBullish,
			wantConf:  0.5 + 6.0/20,
		},
		{
			name:      "bullish confidence capped",
			candles:   flatThenMove(100, 30),
			ind:       indicatorsFor(60, 70, 1.0, 0.5),
			wantPhase: models.PhaseBullish,
			wantConf:  0.9,
		},
		{
			name:      "bearish",
			candles:   flatThenMove(100, -6),
			ind:       indicatorsFor(40, 35, -1.0, -0.5),
			wantPhase: models.PhaseBearish,
			wantConf:  0.5 + 6.0/20,
		},
		{
			name:      "ranging",
			candles:   flatThenMove(100, 1),
			ind:       indicatorsFor(50, 50, 0.1, 0.2),
			wantPhase: models.PhaseRanging,
			wantConf:  0.7,
		},
		{
			name:      "transitional",
			candles:   flatThenMove(100, 10),
			ind:       indicatorsFor(50, 50, 1.0, 0.5),
			wantPhase: models.PhaseTransitional,
			wantConf:  0.5,
		},
	}
	a := NewAnalyzer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Analyze(tt.candles, tt.ind, models.TrendSideways)
			if got.Phase != tt.wantPhase {
				t.Errorf("phase = %s, want %s", got.Phase, tt.wantPhase)
			}
			if math.Abs(got.Confidence-tt.wantConf) > 0.02 {
				t.Errorf("confidence = %f, want about %f", got.Confidence, tt.wantConf)
			}
		})
	}
}

func TestAnalyzePatterns(t *testing.T) {
	a := NewAnalyzer()

	t.Run("possible bottom", func(t *testing.T) {
		got := a.Analyze(flatThenMove(100, -10), indicatorsFor(25, 28, 0.5, 0.2), models.TrendSideways)
		if !hasPattern(got, "possible bottom") {
			t.Errorf("patterns = %v, want possible bottom", got.Patterns)
		}
	})

	t.Run("possible top", func(t *testing.T) {
		got := a.Analyze(flatThenMove(100, 10), indicatorsFor(78, 75, -0.5, -0.2), models.TrendSideways)
		if !hasPattern(got, "possible top") {
			t.Errorf("patterns = %v, want possible top", got.Patterns)
		}
	})

	t.Run("trend continuation up", func(t *testing.T) {
		got := a.Analyze(flatThenMove(100, 10), indicatorsFor(60, 65, 1.0, 0.5), models.TrendUp)
		if !hasPattern(got, "trend continuation up") {
			t.Errorf("patterns = %v, want trend continuation up", got.Patterns)
		}
	})

	t.Run("trend continuation down", func(t *testing.T) {
		got := a.Analyze(flatThenMove(100, -10), indicatorsFor(40, 35, -1.0, -0.5), models.TrendDown)
		if !hasPattern(got, "trend continuation down") {
			t.Errorf("patterns = %v, want trend continuation down", got.Patterns)
		}
	})

	t.Run("no patterns on quiet market", func(t *testing.T) {
		got := a.Analyze(flatThenMove(100, 1), indicatorsFor(50, 50, 0.1, 0.2), models.TrendSideways)
		if len(got.Patterns) != 0 {
			t.Errorf("patterns = %v, want none", got.Patterns)
		}
	})
}

func hasPattern(cycle models.MarketCycle, name string) bool {
	for _, p := range cycle.Patterns {
		if p.Name == name {
			return true
		}
	}
	return false
}

func TestPriceChangeOverTwentyPeriods(t *testing.T) {
	// The ramp spans exactly the final 20 periods, so the measured change
	// matches the ramp height.
	candles := flatThenMove(100, 10)
	a := NewAnalyzer()
	got := a.Analyze(candles, indicatorsFor(60, 65, 1.0, 0.5), models.TrendSideways)
	if math.Abs(got.PriceChangePercent-10) > 1.0 {
		t.Errorf("price change = %f, want about 10", got.PriceChangePercent)
	}
}
