package market

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"crypto-signal-bot/models"
)

func testClientConfig(baseURL string) *models.Config {
	return &models.Config{
		APIBaseURL:     baseURL,
		RequestTimeout: 5,
	}
}

func klineHandler(t *testing.T, retCode int, list [][]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("category"); got != "spot" {
			t.Errorf("category = %q, want spot", got)
		}
		resp := models.KlineResponse{RetCode: retCode, RetMsg: "OK"}
		if retCode != 0 {
			resp.RetMsg = "Invalid symbol"
		}
		resp.Result.Category = "spot"
		resp.Result.Symbol = r.URL.Query().Get("symbol")
		resp.Result.List = list
		json.NewEncoder(w).Encode(resp)
	}
}

func TestGetKlinesReversesToOldestFirst(t *testing.T) {
	// exchange returns newest-first
	list := [][]string{
		{"1700003000000", "102", "103", "101", "102.5", "30", "3000"},
		{"1700002000000", "101", "102", "100", "102", "20", "2000"},
		{"1700001000000", "100", "101", "99", "101", "10", "1000"},
	}
	srv := httptest.NewServer(klineHandler(t, 0, list))
	defer srv.Close()

	client := NewClient(testClientConfig(srv.URL))
	candles, err := client.GetKlines(context.Background(), "BTCUSDT", models.Timeframe1h, 3)
	if err != nil {
		t.Fatalf("GetKlines: %v", err)
	}
	if len(candles) != 3 {
		t.Fatalf("candles = %d, want 3", len(candles))
	}
	for i := 1; i < len(candles); i++ {
		if candles[i].Timestamp <= candles[i-1].Timestamp {
			t.Fatalf("candles not oldest-first: %d then %d", candles[i-1].Timestamp, candles[i].Timestamp)
		}
	}
	first := candles[0]
	if first.Open != 100 || first.High != 101 || first.Low != 99 || first.Close != 101 || first.Volume != 10 {
		t.Errorf("oldest candle fields wrong: %+v", first)
	}
}

func TestGetKlinesExchangeErrorIsExplicit(t *testing.T) {
	srv := httptest.NewServer(klineHandler(t, 10001, nil))
	defer srv.Close()

	client := NewClient(testClientConfig(srv.URL))
	if _, err := client.GetKlines(context.Background(), "NOPE", models.Timeframe1h, 10); err == nil {
		t.Fatal("exchange error code returned no error")
	}
}

func TestGetKlinesDecodeErrorIsExplicit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	client := NewClient(testClientConfig(srv.URL))
	if _, err := client.GetKlines(context.Background(), "BTCUSDT", models.Timeframe1h, 10); err == nil {
		t.Fatal("garbled body returned no error")
	}
}

func TestGetKlinesUnknownTimeframe(t *testing.T) {
	client := NewClient(testClientConfig("http://localhost:0"))
	if _, err := client.GetKlines(context.Background(), "BTCUSDT", models.Timeframe("2d"), 10); err == nil {
		t.Fatal("unknown timeframe returned no error")
	}
}

func TestParseKlinesRejectsShortRows(t *testing.T) {
	if _, err := parseKlines([][]string{{"1700001000000", "100"}}); err == nil {
		t.Fatal("short row parsed without error")
	}
}

func TestParseKlinesRejectsBadNumbers(t *testing.T) {
	rows := [][]string{{"1700001000000", "100", "abc", "99", "101", "10"}}
	if _, err := parseKlines(rows); err == nil {
		t.Fatal("non-numeric field parsed without error")
	}
}

func TestDataDailyChange(t *testing.T) {
	d := NewData("BTCUSDT", &models.Config{LevelLookback: 200}, nil)

	series := make([]models.Candle, 300)
	for i := range series {
		series[i] = models.Candle{Timestamp: int64(i), Close: 100}
	}
	// exactly one day back (288 candles) the close was 100; now 110
	series[len(series)-1].Close = 110
	series[len(series)-288].Close = 100
	d.candles[models.Timeframe5m] = series

	got := d.DailyChange()
	if got < 9.9 || got > 10.1 {
		t.Errorf("daily change = %f, want about 10", got)
	}
}

func TestDataLastPricePrefersFinestTimeframe(t *testing.T) {
	d := NewData("BTCUSDT", &models.Config{LevelLookback: 200}, nil)
	d.candles[models.Timeframe4h] = []models.Candle{{Close: 99}}
	d.candles[models.Timeframe5m] = []models.Candle{{Close: 101}}

	if got := d.LastPrice(); got != 101 {
		t.Errorf("last price = %f, want 101 from 5m", got)
	}
}
