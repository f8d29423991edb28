package contracts

import "time"

// InstrumentClass is the catalog's instrument type
type InstrumentClass string

// ClassFund is the only class the scoring engine looks at.
const ClassFund InstrumentClass = "ETF"

// Instrument is catalog reference data (read-only to the engine)
type Instrument struct {
	ID     string          `json:"id"`
	Ticker string          `json:"ticker"`
	Name   string          `json:"name"`
	Class  InstrumentClass `json:"class"`
}

// PriceBar is one daily OHLCV bar. Series are ordered by Date ascending.
type PriceBar struct {
	InstrumentID string    `json:"instrument_id"`
	Date         time.Time `json:"date"`
	Open         float64   `json:"open"`
	High         float64   `json:"high"`
	Low          float64   `json:"low"`
	Close        float64   `json:"close"`
	Volume       int64     `json:"volume"`
}

// Closes extracts the close column
func Closes(bars []PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// AverageVolume returns the mean daily volume of the series
func AverageVolume(bars []PriceBar) float64 {
	if len(bars) == 0 {
		return 0
	}
	var sum int64
	for _, b := range bars {
		sum += b.Volume
	}
	return float64(sum) / float64(len(bars))
}
