package predict

import (
	"math"
	"math/rand"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"crypto-signal-bot/internal/indicators"
	"crypto-signal-bot/internal/trend"
	"crypto-signal-bot/models"
)

const (
	minCandles    = 30
	volatilityMin = 0.5
	neutralBias   = 0.3
	biasReturns   = 10
)

// Predictor projects a price range per horizon under a random-walk
// volatility model. The random source only decides the sign of a small
// bias when the trend is neutral and recent returns carry no direction;
// tests pin it with a fixed source.
type Predictor struct {
	rng    func() float64
	logger zerolog.Logger
}

func NewPredictor() *Predictor {
	return &Predictor{
		rng:    rand.Float64,
		logger: log.With().Str("component", "predict").Logger(),
	}
}

// NewPredictorWithSource builds a Predictor over a caller-supplied random
// source producing values in [0,1).
func NewPredictorWithSource(rng func() float64) *Predictor {
	p := NewPredictor()
	p.rng = rng
	return p
}

// Predict builds a price projection for the given horizon from candles on
// the horizon's source timeframe. Short series or broken prices fall back
// to a flat ±5% band around the current price.
func (p *Predictor) Predict(candles []models.Candle, tf models.Timeframe, horizon models.Horizon, tfTrend models.Trend, levels []models.Level) models.PricePrediction {
	if len(candles) == 0 {
		return degenerate(horizon, 0)
	}
	current := candles[len(candles)-1].Close
	if len(candles) < minCandles || current <= 0 {
		p.logger.Debug().Int("candles", len(candles)).Str("horizon", string(horizon)).Msg("degenerate prediction, insufficient data")
		return degenerate(horizon, current)
	}

	volatility := indicators.Volatility(candles)
	if volatility < volatilityMin {
		volatility = volatilityMin
	}

	timeFactor := math.Sqrt(horizon.Hours() / tf.Hours())
	direction := trend.Direction(tfTrend)
	if direction == 0 {
		direction = p.neutralDirection(candles)
	}

	expectedChange := direction * volatility * timeFactor * 0.5
	if direction != 0 && math.Abs(expectedChange) < 0.1 {
		expectedChange = math.Copysign(0.1, direction)
	}

	expected := current * (1 + expectedChange/100)

	band := volatility * timeFactor / 100
	shift := 0.2 * direction * volatility / 100 * current
	minPrice := current*(1-band) + shift
	maxPrice := current*(1+band) + shift

	minPrice, maxPrice = narrowByLevels(minPrice, maxPrice, current, levels)

	if expected < minPrice {
		expected = minPrice
	}
	if expected > maxPrice {
		expected = maxPrice
	}

	if minPrice <= 0 || maxPrice <= 0 || expected <= 0 {
		return degenerate(horizon, current)
	}

	confidence := math.Max(0.3, 1-timeFactor*volatility/100)

	return models.PricePrediction{
		Horizon:    horizon,
		Expected:   expected,
		Min:        minPrice,
		Max:        maxPrice,
		Confidence: confidence,
	}
}

// PredictAll runs Predict for every horizon, sourcing candles per the
// horizon's source timeframe. A horizon whose source timeframe has no
// candles at all is omitted rather than projected from nothing.
func (p *Predictor) PredictAll(candlesByTF map[models.Timeframe][]models.Candle, trends map[models.Timeframe]models.Trend, levels []models.Level) []models.PricePrediction {
	predictions := make([]models.PricePrediction, 0, len(models.AllHorizons))
	for _, horizon := range models.AllHorizons {
		tf := horizon.SourceTimeframe()
		candles := candlesByTF[tf]
		if len(candles) == 0 {
			p.logger.Debug().Str("horizon", string(horizon)).Str("timeframe", string(tf)).Msg("no source candles, skipping horizon")
			continue
		}
		predictions = append(predictions, p.Predict(candles, tf, horizon, trends[tf], levels))
	}
	return predictions
}

// neutralDirection derives a small directional bias from the mean of the
// last 10 returns, falling back to a random sign when no returns exist.
func (p *Predictor) neutralDirection(candles []models.Candle) float64 {
	start := len(candles) - biasReturns - 1
	if start < 0 {
		start = 0
	}
	var sum float64
	var n int
	for i := start + 1; i < len(candles); i++ {
		prev := candles[i-1].Close
		if prev == 0 {
			continue
		}
		sum += (candles[i].Close - prev) / prev
		n++
	}
	if n > 0 && sum != 0 {
		return math.Copysign(neutralBias, sum)
	}
	if p.rng() < 0.5 {
		return -neutralBias
	}
	return neutralBias
}

// narrowByLevels pulls the band edges toward the nearest level inside them:
// a level between the floor and current price raises the floor, a level
// between current price and the ceiling lowers the ceiling. The level's
// position relative to the current price decides which side it acts on,
// not the pivot kind it was detected with.
func narrowByLevels(minPrice, maxPrice, current float64, levels []models.Level) (float64, float64) {
	bestSupport := 0.0
	bestResistance := 0.0
	for _, lvl := range levels {
		switch {
		case lvl.Price > minPrice && lvl.Price < current:
			if lvl.Price > bestSupport {
				bestSupport = lvl.Price
			}
		case lvl.Price > current && lvl.Price < maxPrice:
			if bestResistance == 0 || lvl.Price < bestResistance {
				bestResistance = lvl.Price
			}
		}
	}
	if bestSupport > 0 {
		minPrice = (minPrice + bestSupport) / 2
	}
	if bestResistance > 0 {
		maxPrice = (maxPrice + bestResistance) / 2
	}
	return minPrice, maxPrice
}

func degenerate(horizon models.Horizon, current float64) models.PricePrediction {
	if current <= 0 {
		current = 1
	}
	return models.PricePrediction{
		Horizon:    horizon,
		Expected:   current,
		Min:        current * 0.95,
		Max:        current * 1.05,
		Confidence: 0.5,
	}
}
