package models

import (
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	TelegramBotToken  string  `env:"TELEGRAM_BOT_TOKEN" envDefault:"-"`
	TelegramChatID    int64   `env:"TELEGRAM_CHAT_ID" envDefault:"0"`
	APIBaseURL        string  `env:"API_BASE_URL" envDefault:"https://api.bybit.com"`
	Symbols           string  `env:"SYMBOLS" envDefault:"BTCUSDT"`
	CandleLimit       int     `env:"CANDLE_LIMIT" envDefault:"500"`
	UpdateInterval    int     `env:"UPDATE_INTERVAL" envDefault:"30"` // seconds
	RSIPeriod         int     `env:"RSI_PERIOD" envDefault:"14"`
	RSIOversold       float64 `env:"RSI_OVERSOLD" envDefault:"30"`
	RSIOverbought     float64 `env:"RSI_OVERBOUGHT" envDefault:"70"`
	MACDFastPeriod    int     `env:"MACD_FAST_PERIOD" envDefault:"12"`
	MACDSlowPeriod    int     `env:"MACD_SLOW_PERIOD" envDefault:"26"`
	MACDSignalPeriod  int     `env:"MACD_SIGNAL_PERIOD" envDefault:"9"`
	EMAShortPeriod    int     `env:"EMA_SHORT" envDefault:"9"`
	EMAMediumPeriod   int     `env:"EMA_MEDIUM" envDefault:"21"`
	EMALongPeriod     int     `env:"EMA_LONG" envDefault:"50"`
	VolumeAvgPeriod   int     `env:"VOLUME_AVG_PERIOD" envDefault:"20"`
	VolumeMultiplier  float64 `env:"VOLUME_MULTIPLIER" envDefault:"1.5"`
	StopLossPercent   float64 `env:"STOP_LOSS_PERCENT" envDefault:"3"`
	TakeProfitPercent float64 `env:"TAKE_PROFIT_PERCENT" envDefault:"10"`
	LevelLookback     int     `env:"LEVEL_LOOKBACK" envDefault:"200"`
	ShortConfidence   float64 `env:"SHORT_CONFIDENCE" envDefault:"0.6"`
	LongConfidence    float64 `env:"LONG_CONFIDENCE" envDefault:"0.5"`
	AllConfidence     float64 `env:"ALL_CONFIDENCE" envDefault:"0.6"`
	LogLevel          string  `env:"LOG_LEVEL" envDefault:"info"`
	RequestTimeout    int     `env:"REQUEST_TIMEOUT" envDefault:"30"` // seconds
}

// MinConfidence returns the minimum signal confidence for a signal class.
// Unknown classes fall back to the ALL threshold.
func (c *Config) MinConfidence(class SignalClass) float64 {
	switch class {
	case SignalClassShort:
		return c.ShortConfidence
	case SignalClassLong:
		return c.LongConfidence
	default:
		return c.AllConfidence
	}
}

// SymbolList splits the configured comma-separated symbol list
func (c *Config) SymbolList() []string {
	var out []string
	for _, s := range strings.Split(c.Symbols, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, strings.ToUpper(s))
		}
	}
	return out
}

// Candle represents a single price candle
type Candle struct {
	Timestamp int64   `json:"timestamp"` // unix milliseconds
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// KlineResponse represents the Bybit v5 kline API response
type KlineResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		Category string     `json:"category"`
		Symbol   string     `json:"symbol"`
		List     [][]string `json:"list"`
	} `json:"result"`
}

// MACDSeries holds the three MACD series, aligned index-for-index with the
// candle sequence they were derived from.
type MACDSeries struct {
	Line      []float64 `json:"line"`
	Signal    []float64 `json:"signal"`
	Histogram []float64 `json:"histogram"`
}

// IndicatorSet is the per-timeframe bundle of computed indicators. All
// series have the same length as the candle series; warm-up positions carry
// neutral values rather than being left undefined.
type IndicatorSet struct {
	RSI       []float64  `json:"rsi"`
	MACD      MACDSeries `json:"macd"`
	EMAShort  []float64  `json:"ema_short"`
	EMAMedium []float64  `json:"ema_medium"`
	EMALong   []float64  `json:"ema_long"`
	Volume    []float64  `json:"volume"`
	AvgVolume []float64  `json:"avg_volume"`
}

// LevelKind distinguishes support from resistance
type LevelKind string

const (
	LevelSupport    LevelKind = "support"
	LevelResistance LevelKind = "resistance"
)

// Level is a clustered price zone acting as support or resistance.
// Strength accumulates from the pivots merged into it and is always >= 1.
type Level struct {
	Price    float64   `json:"price"`
	Kind     LevelKind `json:"kind"`
	Strength float64   `json:"strength"`
}

// Trend is a qualitative direction label derived from moving-average ordering
type Trend string

const (
	TrendUp           Trend = "up"
	TrendDown         Trend = "down"
	TrendMixed        Trend = "mixed"
	TrendWeakUp       Trend = "weak-up"
	TrendWeakDown     Trend = "weak-down"
	TrendSideways     Trend = "sideways"
	TrendUndetermined Trend = "undetermined"
)

// MarketPhase is a coarse market regime classification
type MarketPhase string

const (
	PhaseBullish      MarketPhase = "bullish"
	PhaseBearish      MarketPhase = "bearish"
	PhaseRanging      MarketPhase = "ranging"
	PhaseTransitional MarketPhase = "transitional"
	PhaseUndetermined MarketPhase = "undetermined"
)

// CyclePattern is a qualitative cyclical pattern flagged during cycle analysis
type CyclePattern struct {
	Name        string  `json:"name"`
	Confidence  float64 `json:"confidence"`
	Description string  `json:"description"`
}

// MarketCycle describes the current market phase on the reference timeframe
type MarketCycle struct {
	Phase              MarketPhase    `json:"phase"`
	Confidence         float64        `json:"confidence"` // 0-1
	Patterns           []CyclePattern `json:"patterns,omitempty"`
	PriceChangePercent float64        `json:"price_change_percent"`
}

// Horizon is a forward projection window
type Horizon string

const (
	HorizonShort  Horizon = "short"
	HorizonMedium Horizon = "medium"
	HorizonLong   Horizon = "long"
)

// Hours returns the projection window length. Unknown horizons fall back to
// the short window rather than failing.
func (h Horizon) Hours() float64 {
	switch h {
	case HorizonMedium:
		return 48
	case HorizonLong:
		return 168
	default:
		return 12
	}
}

// SourceTimeframe returns the candle timeframe the projection for this
// horizon is computed from.
func (h Horizon) SourceTimeframe() Timeframe {
	if h == HorizonShort {
		return Timeframe1h
	}
	return Timeframe4h
}

// AllHorizons lists the horizons a full analysis pass projects for, in order
var AllHorizons = []Horizon{HorizonShort, HorizonMedium, HorizonLong}

// PricePrediction projects an expected price and a [min,max] band for one
// horizon. Min <= Expected <= Max always holds and all three are positive.
type PricePrediction struct {
	Horizon    Horizon `json:"horizon"`
	Expected   float64 `json:"expected"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Confidence float64 `json:"confidence"` // 0-1
}

// Direction of a trading signal
type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
	DirectionHold Direction = "hold"
)

// Micro-signal kinds
const (
	MicroRSI      = "RSI"
	MicroMACD     = "MACD"
	MicroMACDZero = "MACD Zero"
	MicroEMACross = "EMA Cross"
	MicroVolume   = "Volume"
)

// MicroSignal is one per-timeframe indicator event feeding the aggregator
type MicroSignal struct {
	Kind      string    `json:"kind"`
	Direction Direction `json:"direction"` // buy or sell only
	Strength  float64   `json:"strength"`  // fixed base strength per kind
	Message   string    `json:"message"`
}

// Signal is the engine's final output for one analysis pass. It is immutable
// once emitted; hold signals never carry entry/exit suggestions.
type Signal struct {
	Timestamp    time.Time           `json:"timestamp"`
	Symbol       string              `json:"symbol"`
	Direction    Direction           `json:"direction"`
	Strength     float64             `json:"strength"`   // 0-1
	Confidence   float64             `json:"confidence"` // 0-1
	Price        float64             `json:"price"`
	DailyChange  float64             `json:"daily_change"`
	Evidence     []string            `json:"evidence"`
	Entry        float64             `json:"entry,omitempty"`
	StopLoss     float64             `json:"stop_loss,omitempty"`
	TakeProfit   float64             `json:"take_profit,omitempty"`
	Targets      []Level             `json:"targets,omitempty"`
	Trends       map[Timeframe]Trend `json:"trends"`
	OverallTrend Trend               `json:"overall_trend"`
	Cycle        MarketCycle         `json:"cycle"`
	Predictions  []PricePrediction   `json:"predictions"`
}

// SignalClass is a subscriber's horizon preference for signal delivery
type SignalClass string

const (
	SignalClassShort SignalClass = "SHORT"
	SignalClassLong  SignalClass = "LONG"
	SignalClassAll   SignalClass = "ALL"
)

// ParseSignalClass validates a user-supplied signal class, falling back to ALL
func ParseSignalClass(s string) SignalClass {
	switch SignalClass(s) {
	case SignalClassShort, SignalClassLong, SignalClassAll:
		return SignalClass(s)
	default:
		return SignalClassAll
	}
}

// Subscription links a chat to one symbol it receives signals for
type Subscription struct {
	ChatID      int64       `json:"chat_id"`
	Symbol      string      `json:"symbol"`
	SignalClass SignalClass `json:"signal_class"`
	CreatedAt   time.Time   `json:"created_at"`
}
