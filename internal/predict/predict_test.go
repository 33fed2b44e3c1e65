package predict

import (
	"math"
	"testing"

	"crypto-signal-bot/models"
)

func generateTestCandles(n int, gen func(i int) models.Candle) []models.Candle {
	candles := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		candles[i] = gen(i)
	}
	return candles
}

func trendingCandles(n int, step float64) []models.Candle {
	return generateTestCandles(n, func(i int) models.Candle {
		close := 100 + float64(i)*step + math.Sin(float64(i))*0.5
		return models.Candle{Open: close, High: close + 1, Low: close - 1, Close: close, Volume: 1000}
	})
}

func flatCandles(n int) []models.Candle {
	return generateTestCandles(n, func(i int) models.Candle {
		return models.Candle{Open: 100, High: 100, Low: 100, Close: 100, Volume: 1000}
	})
}

func fixedRng(v float64) func() float64 {
	return func() float64 { return v }
}

func TestPredictInvariants(t *testing.T) {
	p := NewPredictorWithSource(fixedRng(0.9))
	candles := trendingCandles(120, 0.5)

	for _, horizon := range models.AllHorizons {
		tf := horizon.SourceTimeframe()
		got := p.Predict(candles, tf, horizon, models.TrendUp, nil)

		if got.Min <= 0 || got.Expected <= 0 || got.Max <= 0 {
			t.Errorf("%s: non-positive price in %+v", horizon, got)
		}
		if got.Min > got.Expected || got.Expected > got.Max {
			t.Errorf("%s: want min <= expected <= max, got %f/%f/%f", horizon, got.Min, got.Expected, got.Max)
		}
		if got.Confidence < 0.3 || got.Confidence > 1 {
			t.Errorf("%s: confidence %f outside [0.3, 1]", horizon, got.Confidence)
		}
	}
}

func TestPredictDegenerateOnShortSeries(t *testing.T) {
	p := NewPredictorWithSource(fixedRng(0.9))
	candles := trendingCandles(20, 0.5)
	current := candles[len(candles)-1].Close

	got := p.Predict(candles, models.Timeframe1h, models.HorizonShort, models.TrendUp, nil)

	if got.Expected != current {
		t.Errorf("expected = %f, want current %f", got.Expected, current)
	}
	if got.Min != current*0.95 || got.Max != current*1.05 {
		t.Errorf("band = %f/%f, want ±5%% around %f", got.Min, got.Max, current)
	}
	if got.Confidence != 0.5 {
		t.Errorf("confidence = %f, want 0.5", got.Confidence)
	}
}

func TestPredictNoCandles(t *testing.T) {
	p := NewPredictorWithSource(fixedRng(0.9))
	got := p.Predict(nil, models.Timeframe1h, models.HorizonShort, models.TrendUp, nil)
	if got.Min <= 0 || got.Expected <= 0 || got.Max <= 0 {
		t.Errorf("empty input produced non-positive prices: %+v", got)
	}
}

func TestPredictUptrendRaisesExpected(t *testing.T) {
	p := NewPredictorWithSource(fixedRng(0.9))
	candles := trendingCandles(120, 0.5)
	current := candles[len(candles)-1].Close

	got := p.Predict(candles, models.Timeframe1h, models.HorizonShort, models.TrendUp, nil)
	if got.Expected <= current {
		t.Errorf("uptrend expected %f not above current %f", got.Expected, current)
	}

	down := p.Predict(candles, models.Timeframe1h, models.HorizonShort, models.TrendDown, nil)
	if down.Expected >= current {
		t.Errorf("downtrend expected %f not below current %f", down.Expected, current)
	}
}

func TestPredictNeutralFlatUsesRandomSign(t *testing.T) {
	candles := flatCandles(60)

	up := NewPredictorWithSource(fixedRng(0.9)).Predict(candles, models.Timeframe1h, models.HorizonShort, models.TrendSideways, nil)
	down := NewPredictorWithSource(fixedRng(0.1)).Predict(candles, models.Timeframe1h, models.HorizonShort, models.TrendSideways, nil)

	if up.Expected <= 100 {
		t.Errorf("positive random sign: expected %f, want above 100", up.Expected)
	}
	if down.Expected >= 100 {
		t.Errorf("negative random sign: expected %f, want below 100", down.Expected)
	}
}

func TestPredictDeterministicWithFixedSource(t *testing.T) {
	candles := trendingCandles(100, 0.2)
	p := NewPredictorWithSource(fixedRng(0.4))
	first := p.Predict(candles, models.Timeframe4h, models.HorizonMedium, models.TrendMixed, nil)
	second := p.Predict(candles, models.Timeframe4h, models.HorizonMedium, models.TrendMixed, nil)
	if first != second {
		t.Errorf("re-run differs: %+v vs %+v", first, second)
	}
}

func TestPredictSupportRaisesFloor(t *testing.T) {
	p := NewPredictorWithSource(fixedRng(0.9))
	candles := trendingCandles(120, 0.5)
	current := candles[len(candles)-1].Close

	base := p.Predict(candles, models.Timeframe1h, models.HorizonShort, models.TrendUp, nil)

	support := (base.Min + current) / 2
	withLevel := p.Predict(candles, models.Timeframe1h, models.HorizonShort, models.TrendUp, []models.Level{
		{Price: support, Kind: models.LevelSupport, Strength: 2},
	})

	if withLevel.Min <= base.Min {
		t.Errorf("support at %f did not raise floor: %f vs %f", support, withLevel.Min, base.Min)
	}
	if withLevel.Min > current {
		t.Errorf("narrowed floor %f above current %f", withLevel.Min, current)
	}
}

func TestPredictResistanceLowersCeiling(t *testing.T) {
	p := NewPredictorWithSource(fixedRng(0.9))
	candles := trendingCandles(120, 0.5)
	current := candles[len(candles)-1].Close

	base := p.Predict(candles, models.Timeframe1h, models.HorizonShort, models.TrendUp, nil)

	resistance := (base.Max + current) / 2
	withLevel := p.Predict(candles, models.Timeframe1h, models.HorizonShort, models.TrendUp, []models.Level{
		{Price: resistance, Kind: models.LevelResistance, Strength: 2},
	})

	if withLevel.Max >= base.Max {
		t.Errorf("resistance at %f did not lower ceiling: %f vs %f", resistance, withLevel.Max, base.Max)
	}
}

func TestPredictNarrowingDecidesSideByPrice(t *testing.T) {
	// A level's position relative to the current price decides which band
	// edge it narrows, even when it still carries the pivot kind of the
	// other side.
	p := NewPredictorWithSource(fixedRng(0.9))
	candles := trendingCandles(120, 0.5)
	current := candles[len(candles)-1].Close

	base := p.Predict(candles, models.Timeframe1h, models.HorizonShort, models.TrendUp, nil)

	aboveAsSupport := p.Predict(candles, models.Timeframe1h, models.HorizonShort, models.TrendUp, []models.Level{
		{Price: current * 1.01, Kind: models.LevelSupport, Strength: 2},
	})
	if aboveAsSupport.Max >= base.Max {
		t.Errorf("level above price at %f did not lower ceiling: %f vs %f",
			current*1.01, aboveAsSupport.Max, base.Max)
	}

	belowAsResistance := p.Predict(candles, models.Timeframe1h, models.HorizonShort, models.TrendUp, []models.Level{
		{Price: current * 0.99, Kind: models.LevelResistance, Strength: 2},
	})
	if belowAsResistance.Min <= base.Min {
		t.Errorf("level below price at %f did not raise floor: %f vs %f",
			current*0.99, belowAsResistance.Min, base.Min)
	}
}

func TestPredictAllSkipsHorizonWithoutCandles(t *testing.T) {
	p := NewPredictorWithSource(fixedRng(0.9))
	candlesByTF := map[models.Timeframe][]models.Candle{
		models.Timeframe4h: trendingCandles(120, 0.6),
		// no 1h data at all
	}
	trends := map[models.Timeframe]models.Trend{
		models.Timeframe4h: models.TrendUp,
	}

	got := p.PredictAll(candlesByTF, trends, nil)
	if len(got) != 2 {
		t.Fatalf("predictions = %d, want medium and long only", len(got))
	}
	for _, pred := range got {
		if pred.Horizon == models.HorizonShort {
			t.Error("short horizon projected without source candles")
		}
		if pred.Min <= 0 || pred.Expected <= 0 || pred.Max <= 0 {
			t.Errorf("non-positive price in %+v", pred)
		}
	}
}

func TestPredictAllCoversEveryHorizon(t *testing.T) {
	p := NewPredictorWithSource(fixedRng(0.9))
	candlesByTF := map[models.Timeframe][]models.Candle{
		models.Timeframe1h: trendingCandles(120, 0.3),
		models.Timeframe4h: trendingCandles(120, 0.6),
	}
	trends := map[models.Timeframe]models.Trend{
		models.Timeframe1h: models.TrendUp,
		models.Timeframe4h: models.TrendUp,
	}

	got := p.PredictAll(candlesByTF, trends, nil)
	if len(got) != len(models.AllHorizons) {
		t.Fatalf("predictions = %d, want %d", len(got), len(models.AllHorizons))
	}
	seen := map[models.Horizon]bool{}
	for _, pred := range got {
		seen[pred.Horizon] = true
	}
	for _, h := range models.AllHorizons {
		if !seen[h] {
			t.Errorf("missing horizon %s", h)
		}
	}
}
