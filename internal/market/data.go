package market

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"crypto-signal-bot/internal/indicators"
	"crypto-signal-bot/internal/levels"
	"crypto-signal-bot/models"
)

// dailyChangePeriods is one day's worth of 5m candles.
const dailyChangePeriods = 288

// Data holds one symbol's candles, indicators and levels across all
// timeframes. Each analysis pass owns its Data exclusively; there is no
// internal locking.
type Data struct {
	symbol   string
	cfg      *models.Config
	client   *Client
	detector *levels.Detector
	logger   zerolog.Logger

	candles    map[models.Timeframe][]models.Candle
	indicators map[models.Timeframe]*models.IndicatorSet
	levels     []models.Level
}

func NewData(symbol string, cfg *models.Config, client *Client) *Data {
	return &Data{
		symbol:     symbol,
		cfg:        cfg,
		client:     client,
		detector:   levels.NewDetector(cfg.LevelLookback),
		logger:     log.With().Str("component", "market_data").Str("symbol", symbol).Logger(),
		candles:    make(map[models.Timeframe][]models.Candle),
		indicators: make(map[models.Timeframe]*models.IndicatorSet),
	}
}

// Update refreshes every timeframe's candles and indicators. A failed
// timeframe is skipped, keeping its previous data; the update fails only
// when no timeframe could be refreshed.
func (d *Data) Update(ctx context.Context) error {
	updated := 0
	for _, tf := range models.AllTimeframes {
		candles, err := d.client.GetKlines(ctx, d.symbol, tf, d.cfg.CandleLimit)
		if err != nil {
			d.logger.Warn().Err(err).Str("timeframe", string(tf)).Msg("skipping timeframe update")
			continue
		}
		d.candles[tf] = candles
		d.indicators[tf] = indicators.Compute(candles, d.cfg)
		updated++
	}
	if updated == 0 {
		return fmt.Errorf("no timeframe updated for %s", d.symbol)
	}

	d.levels = d.detector.Detect(d.candles[models.ReferenceTimeframe])

	d.logger.Debug().Int("timeframes", updated).Int("levels", len(d.levels)).Msg("market data updated")
	return nil
}

// Candles returns the stored series for a timeframe, oldest-first.
func (d *Data) Candles(tf models.Timeframe) []models.Candle {
	return d.candles[tf]
}

// CandlesByTimeframe returns the full timeframe-to-series map.
func (d *Data) CandlesByTimeframe() map[models.Timeframe][]models.Candle {
	return d.candles
}

// Indicators returns the computed indicator set for a timeframe, or nil
// when the timeframe has no data.
func (d *Data) Indicators(tf models.Timeframe) *models.IndicatorSet {
	return d.indicators[tf]
}

// Levels returns the support/resistance zones detected on the reference
// timeframe.
func (d *Data) Levels() []models.Level {
	return d.levels
}

// LastPrice returns the most recent close, preferring the finest
// timeframe available.
func (d *Data) LastPrice() float64 {
	for _, tf := range models.AllTimeframes {
		if series := d.candles[tf]; len(series) > 0 {
			return series[len(series)-1].Close
		}
	}
	return 0
}

// DailyChange measures the percent close-to-close move over the last day
// of 5m candles, or over the whole series when shorter.
func (d *Data) DailyChange() float64 {
	series := d.candles[models.Timeframe5m]
	if len(series) < 2 {
		return 0
	}
	idx := 0
	if len(series) > dailyChangePeriods {
		idx = len(series) - dailyChangePeriods
	}
	base := series[idx].Close
	if base == 0 {
		return 0
	}
	return (series[len(series)-1].Close - base) / base * 100
}
