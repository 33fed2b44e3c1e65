package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"crypto-signal-bot/models"
)

// Bybit v5 kline intervals per timeframe.
var apiIntervals = map[models.Timeframe]string{
	models.Timeframe5m:  "5",
	models.Timeframe15m: "15",
	models.Timeframe1h:  "60",
	models.Timeframe4h:  "240",
}

// Client fetches spot klines from the Bybit v5 market API with rate
// limiting and retries on transient failures.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	logger     zerolog.Logger
}

func NewClient(cfg *models.Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 5), // 5 requests per second
		baseURL: cfg.APIBaseURL,
		logger:  log.With().Str("component", "api_client").Logger(),
	}
}

// GetKlines fetches up to limit candles for one symbol and timeframe,
// returned oldest-first.
func (c *Client) GetKlines(ctx context.Context, symbol string, tf models.Timeframe, limit int) ([]models.Candle, error) {
	interval, ok := apiIntervals[tf]
	if !ok {
		return nil, fmt.Errorf("unsupported timeframe: %s", tf)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	q := url.Values{}
	q.Set("category", "spot")
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))
	reqURL := fmt.Sprintf("%s/v5/market/kline?%s", c.baseURL, q.Encode())

	c.logger.Debug().Str("symbol", symbol).Str("timeframe", string(tf)).Msg("fetching klines")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	var body []byte
	operation := func() error {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("HTTP request failed: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("non-200 status code: %d", resp.StatusCode)
		}
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response body: %w", err)
		}
		return nil
	}

	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(backoffStrategy, ctx)); err != nil {
		return nil, fmt.Errorf("after retries: %w", err)
	}

	var data models.KlineResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Msg("error parsing kline response")
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if data.RetCode != 0 {
		c.logger.Error().Int("ret_code", data.RetCode).Str("ret_msg", data.RetMsg).Msg("exchange API error")
		return nil, fmt.Errorf("exchange API error %d: %s", data.RetCode, data.RetMsg)
	}
	if len(data.Result.List) == 0 {
		return nil, fmt.Errorf("empty kline data for %s %s", symbol, tf)
	}

	candles, err := parseKlines(data.Result.List)
	if err != nil {
		return nil, fmt.Errorf("parsing klines for %s %s: %w", symbol, tf, err)
	}
	return candles, nil
}

// parseKlines converts the exchange's newest-first string rows into
// oldest-first candles.
func parseKlines(rows [][]string) ([]models.Candle, error) {
	candles := make([]models.Candle, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		if len(row) < 6 {
			return nil, fmt.Errorf("kline row has %d fields, want at least 6", len(row))
		}
		ts, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing timestamp %q: %w", row[0], err)
		}
		vals := make([]float64, 5)
		for j := 1; j <= 5; j++ {
			vals[j-1], err = strconv.ParseFloat(row[j], 64)
			if err != nil {
				return nil, fmt.Errorf("parsing field %d %q: %w", j, row[j], err)
			}
		}
		candles = append(candles, models.Candle{
			Timestamp: ts,
			Open:      vals[0],
			High:      vals[1],
			Low:       vals[2],
			Close:     vals[3],
			Volume:    vals[4],
		})
	}
	return candles, nil
}
