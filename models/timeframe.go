package models

// Timeframe is the bucket duration of a candle series
type Timeframe string

const (
	Timeframe5m  Timeframe = "5m"
	Timeframe15m Timeframe = "15m"
	Timeframe1h  Timeframe = "1h"
	Timeframe4h  Timeframe = "4h"
)

// AllTimeframes lists the analyzed timeframes, shortest first
var AllTimeframes = []Timeframe{Timeframe5m, Timeframe15m, Timeframe1h, Timeframe4h}

// ReferenceTimeframe is the timeframe level detection and cycle analysis run on
const ReferenceTimeframe = Timeframe4h

// Hours returns the candle duration in hours. Malformed timeframes fall back
// to the shortest supported bucket.
func (tf Timeframe) Hours() float64 {
	switch tf {
	case Timeframe5m:
		return 5.0 / 60.0
	case Timeframe15m:
		return 15.0 / 60.0
	case Timeframe1h:
		return 1
	case Timeframe4h:
		return 4
	default:
		return 5.0 / 60.0
	}
}

// TrendWeight returns the duration weight used when blending per-timeframe
// trends into the overall label. Longer timeframes weigh more.
func (tf Timeframe) TrendWeight() float64 {
	switch tf {
	case Timeframe5m:
		return 1
	case Timeframe15m:
		return 2
	case Timeframe1h:
		return 3
	case Timeframe4h:
		return 5
	default:
		return 1
	}
}

// Valid reports whether tf is one of the supported timeframes
func (tf Timeframe) Valid() bool {
	switch tf {
	case Timeframe5m, Timeframe15m, Timeframe1h, Timeframe4h:
		return true
	}
	return false
}
