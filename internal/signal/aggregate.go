package signal

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"crypto-signal-bot/models"
)

const (
	buyDominanceRatio = 1.5
	minDirectionScore = 0.4
	holdMargin        = 0.1
	maxTargets        = 3
	epsilon           = 1e-10
)

// Timeframe weights are tuned per horizon class: short-horizon consumers
// weight small timeframes higher, long-horizon consumers the large ones.
var classWeights = map[models.SignalClass]map[models.Timeframe]float64{
	models.SignalClassShort: {
		models.Timeframe5m:  0.35,
		models.Timeframe15m: 0.30,
		models.Timeframe1h:  0.20,
		models.Timeframe4h:  0.15,
	},
	models.SignalClassLong: {
		models.Timeframe5m:  0.10,
		models.Timeframe15m: 0.20,
		models.Timeframe1h:  0.30,
		models.Timeframe4h:  0.40,
	},
	models.SignalClassAll: {
		models.Timeframe5m:  0.15,
		models.Timeframe15m: 0.25,
		models.Timeframe1h:  0.30,
		models.Timeframe4h:  0.30,
	},
}

// Input carries one analysis pass's worth of evidence into the aggregator.
// Supports and Resistances are expected nearest-first relative to Price.
type Input struct {
	Symbol       string
	Price        float64
	DailyChange  float64
	Micro        map[models.Timeframe][]models.MicroSignal
	Trends       map[models.Timeframe]models.Trend
	OverallTrend models.Trend
	Cycle        models.MarketCycle
	Predictions  []models.PricePrediction
	Supports     []models.Level
	Resistances  []models.Level
}

// Aggregator folds per-timeframe micro-signals into at most one Signal.
type Aggregator struct {
	cfg    *models.Config
	logger zerolog.Logger
}

func NewAggregator(cfg *models.Config) *Aggregator {
	return &Aggregator{
		cfg:    cfg,
		logger: log.With().Str("component", "aggregator").Logger(),
	}
}

// Aggregate scores the evidence for the given horizon class and returns a
// Signal, or nil when confidence falls below the class minimum.
func (a *Aggregator) Aggregate(in Input, class models.SignalClass) *models.Signal {
	weights, ok := classWeights[class]
	if !ok {
		class = models.SignalClassAll
		weights = classWeights[class]
	}

	var buyScore, sellScore float64
	for tf, micros := range in.Micro {
		w := weights[tf]
		for _, m := range micros {
			switch m.Direction {
			case models.DirectionBuy:
				buyScore += m.Strength * w
			case models.DirectionSell:
				sellScore += m.Strength * w
			}
		}
	}
	buyScore = clamp(buyScore, 0, 1)
	sellScore = clamp(sellScore, 0, 1)

	direction, strength := decide(buyScore, sellScore)

	winner := math.Max(buyScore, sellScore)
	dominance := winner / (buyScore + sellScore + epsilon)

	corroborating := a.countCorroborating(in.Micro, direction, buyScore, sellScore)
	confidence := (dominance + in.Cycle.Confidence) / 2
	switch {
	case corroborating >= 5:
		confidence += 0.2
	case corroborating >= 3:
		confidence += 0.1
	}
	confidence = clamp(confidence, 0.1, 0.95)

	a.logger.Debug().
		Str("symbol", in.Symbol).
		Str("class", string(class)).
		Float64("buy_score", buyScore).
		Float64("sell_score", sellScore).
		Str("direction", string(direction)).
		Float64("confidence", confidence).
		Msg("aggregation scored")

	if confidence < a.cfg.MinConfidence(class) {
		return nil
	}

	sig := &models.Signal{
		Symbol:       in.Symbol,
		Direction:    direction,
		Strength:     strength,
		Confidence:   confidence,
		Price:        in.Price,
		DailyChange:  in.DailyChange,
		Evidence:     a.renderEvidence(in.Micro, direction),
		Trends:       in.Trends,
		OverallTrend: in.OverallTrend,
		Cycle:        in.Cycle,
		Predictions:  in.Predictions,
	}

	if direction != models.DirectionHold {
		a.attachSuggestions(sig, in)
	}

	return sig
}

// decide applies the dominance rule: a side must beat the other by 1.5x and
// clear 0.4 outright, otherwise the pass holds.
func decide(buyScore, sellScore float64) (models.Direction, float64) {
	switch {
	case buyScore > sellScore*buyDominanceRatio && buyScore > minDirectionScore:
		return models.DirectionBuy, buyScore
	case sellScore > buyScore*buyDominanceRatio && sellScore > minDirectionScore:
		return models.DirectionSell, sellScore
	}
	if math.Abs(buyScore-sellScore) <= holdMargin {
		return models.DirectionHold, math.Max(0.3, (buyScore+sellScore)/2)
	}
	return models.DirectionHold, math.Max(buyScore, sellScore)
}

// countCorroborating counts micro-signals on the winning side. For hold the
// winning side is whichever score was larger.
func (a *Aggregator) countCorroborating(micro map[models.Timeframe][]models.MicroSignal, direction models.Direction, buyScore, sellScore float64) int {
	side := direction
	if side == models.DirectionHold {
		side = models.DirectionBuy
		if sellScore > buyScore {
			side = models.DirectionSell
		}
	}
	count := 0
	for _, micros := range micro {
		for _, m := range micros {
			if m.Direction == side {
				count++
			}
		}
	}
	return count
}

// renderEvidence lists the fired micro-signals in timeframe order, the
// signal's own side first so the narrative reads strongest-first.
func (a *Aggregator) renderEvidence(micro map[models.Timeframe][]models.MicroSignal, direction models.Direction) []string {
	var matching, opposing []string
	for _, tf := range models.AllTimeframes {
		for _, m := range micro[tf] {
			line := fmt.Sprintf("%s: %s (%.0f%%)", tf, m.Message, m.Strength*100)
			if direction == models.DirectionHold || m.Direction == direction {
				matching = append(matching, line)
			} else {
				opposing = append(opposing, line)
			}
		}
	}
	return append(matching, opposing...)
}

// attachSuggestions fills entry/exit prices for buy and sell signals. The
// take-profit snaps to the nearest opposite-side level when one exists, and
// the flat stop-loss is tightened toward the nearest same-side level when
// that level sits inside the flat stop.
func (a *Aggregator) attachSuggestions(sig *models.Signal, in Input) {
	price := in.Price
	sig.Entry = price

	slPct := a.cfg.StopLossPercent / 100
	tpPct := a.cfg.TakeProfitPercent / 100

	if sig.Direction == models.DirectionBuy {
		sig.TakeProfit = price * (1 + tpPct)
		if len(in.Resistances) > 0 {
			sig.TakeProfit = in.Resistances[0].Price
		}
		sig.StopLoss = price * (1 - slPct)
		if len(in.Supports) > 0 && in.Supports[0].Price > sig.StopLoss {
			sig.StopLoss = (sig.StopLoss + in.Supports[0].Price) / 2
		}
		sig.Targets = longRangeTargets(in.Resistances, sig.TakeProfit, true)
		return
	}

	sig.TakeProfit = price * (1 - tpPct)
	if len(in.Supports) > 0 {
		sig.TakeProfit = in.Supports[0].Price
	}
	sig.StopLoss = price * (1 + slPct)
	if len(in.Resistances) > 0 && in.Resistances[0].Price < sig.StopLoss {
		sig.StopLoss = (sig.StopLoss + in.Resistances[0].Price) / 2
	}
	sig.Targets = longRangeTargets(in.Supports, sig.TakeProfit, false)
}

// longRangeTargets picks up to 3 levels beyond the take-profit in the
// trade's direction.
func longRangeTargets(levels []models.Level, takeProfit float64, above bool) []models.Level {
	var targets []models.Level
	for _, lvl := range levels {
		if above && lvl.Price <= takeProfit {
			continue
		}
		if !above && lvl.Price >= takeProfit {
			continue
		}
		targets = append(targets, lvl)
		if len(targets) == maxTargets {
			break
		}
	}
	return targets
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
