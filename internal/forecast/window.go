package forecast

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// WindowSize is the number of hourly rows fetched per run
const WindowSize = 40

// Observation is one hourly row of the window
type Observation struct {
	// GroundTruth is the realized value, 0 while still unknown
	GroundTruth float64
	Year        int
	Month       int
	Day         int
	Hour        int
	// Values holds the raw predictor columns in Profile().Columns order
	Values []float64
}

// Window is a run's rows ordered oldest to newest
type Window []Observation

// Forecast is one pending row turned into a persisted value
type Forecast struct {
	Year      int
	Month     int
	Day       int
	Hour      int
	DayOffset int
	Value     decimal.Decimal
	// Gated is set when the gate column was not positive and the model
	// output was ignored
	Gated bool
}

// Key returns the bundle key, e.g. D1_H07
func (f Forecast) Key() string {
	return fmt.Sprintf("D%d_H%02d", f.DayOffset, f.Hour)
}

// BundleValue returns the published string form of the value
func (f Forecast) BundleValue() string {
	if f.Gated {
		return "0"
	}
	return f.Value.String()
}

// Bundle maps D{day}_H{hour} keys to energy values
type Bundle map[string]string
