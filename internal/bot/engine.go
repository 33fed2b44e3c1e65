package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"crypto-signal-bot/internal/cycle"
	"crypto-signal-bot/internal/levels"
	"crypto-signal-bot/internal/market"
	"crypto-signal-bot/internal/predict"
	"crypto-signal-bot/internal/signal"
	"crypto-signal-bot/internal/trend"
	"crypto-signal-bot/models"
)

// Engine runs one symbol's analysis pass: fetch, indicators, levels,
// trends, cycle, predictions, aggregation. Each pass owns its market data
// exclusively; passes for different symbols may run concurrently.
type Engine struct {
	cfg        *models.Config
	scanner    *signal.Scanner
	aggregator *signal.Aggregator
	predictor  *predict.Predictor
	cycles     *cycle.Analyzer
	logger     zerolog.Logger
}

func NewEngine(cfg *models.Config) *Engine {
	return &Engine{
		cfg:        cfg,
		scanner:    signal.NewScanner(cfg),
		aggregator: signal.NewAggregator(cfg),
		predictor:  predict.NewPredictor(),
		cycles:     cycle.NewAnalyzer(),
		logger:     log.With().Str("component", "engine").Logger(),
	}
}

// Analysis is the full result of one pass. Signal is nil when aggregation
// suppressed it for the requested class.
type Analysis struct {
	Symbol       string
	Price        float64
	DailyChange  float64
	Trends       map[models.Timeframe]models.Trend
	OverallTrend models.Trend
	Cycle        models.MarketCycle
	Predictions  []models.PricePrediction
	Supports     []models.Level
	Resistances  []models.Level
	Micro        map[models.Timeframe][]models.MicroSignal
	Signal       *models.Signal
}

// Run refreshes the symbol's market data and evaluates it for the given
// horizon class.
func (e *Engine) Run(ctx context.Context, data *market.Data, symbol string, class models.SignalClass) (*Analysis, error) {
	if err := data.Update(ctx); err != nil {
		return nil, fmt.Errorf("updating market data for %s: %w", symbol, err)
	}

	price := data.LastPrice()
	if price <= 0 {
		return nil, fmt.Errorf("no valid price for %s", symbol)
	}

	trends := make(map[models.Timeframe]models.Trend, len(models.AllTimeframes))
	micro := make(map[models.Timeframe][]models.MicroSignal, len(models.AllTimeframes))
	for _, tf := range models.AllTimeframes {
		trends[tf] = trend.ClassifyTimeframe(data.Indicators(tf))
		micro[tf] = e.scanner.Scan(data.Candles(tf), data.Indicators(tf))
	}
	overall := trend.ClassifyOverall(trends)

	refTF := models.ReferenceTimeframe
	marketCycle := e.cycles.Analyze(data.Candles(refTF), data.Indicators(refTF), trends[refTF])

	// Partition before prediction so every consumer sees levels keyed to
	// the current price, not the pivot kind they were detected with.
	supports, resistances := levels.Partition(data.Levels(), price)

	predictions := e.predictor.PredictAll(data.CandlesByTimeframe(), trends, append(append([]models.Level{}, supports...), resistances...))

	analysis := &Analysis{
		Symbol:       symbol,
		Price:        price,
		DailyChange:  data.DailyChange(),
		Trends:       trends,
		OverallTrend: overall,
		Cycle:        marketCycle,
		Predictions:  predictions,
		Supports:     supports,
		Resistances:  resistances,
		Micro:        micro,
	}

	analysis.Signal = e.Evaluate(analysis, class)

	e.logger.Info().
		Str("symbol", symbol).
		Str("phase", string(marketCycle.Phase)).
		Str("trend", string(overall)).
		Bool("signal", analysis.Signal != nil).
		Msg("analysis pass complete")

	return analysis, nil
}

// Evaluate re-aggregates an already fetched pass for another horizon class
// without touching the network.
func (e *Engine) Evaluate(analysis *Analysis, class models.SignalClass) *models.Signal {
	sig := e.aggregator.Aggregate(signal.Input{
		Symbol:       analysis.Symbol,
		Price:        analysis.Price,
		DailyChange:  analysis.DailyChange,
		Micro:        analysis.Micro,
		Trends:       analysis.Trends,
		OverallTrend: analysis.OverallTrend,
		Cycle:        analysis.Cycle,
		Predictions:  analysis.Predictions,
		Supports:     analysis.Supports,
		Resistances:  analysis.Resistances,
	}, class)
	if sig != nil {
		sig.Timestamp = time.Now()
	}
	return sig
}
