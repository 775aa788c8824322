package forecast

import (
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Target is the quantity being forecast
type Target int

const (
	Brightness Target = iota + 1
	Energy
)

// energyPlaces is the precision of published energy values (kWh)
const energyPlaces = 3

// Targets returns the fixed run order. Brightness runs first because the
// energy window falls back to brightness forecasts persisted by the same run.
func Targets() []Target {
	return []Target{Brightness, Energy}
}

func (t Target) String() string {
	switch t {
	case Brightness:
		return "Brightness"
	case Energy:
		return "Energy"
	default:
		return fmt.Sprintf("Target(%d)", int(t))
	}
}

// Profile describes the columns and side effects owned by a target
type Profile struct {
	GroundTruth string
	Columns     []string
	Gate        string
	Procedure   string
	Publishes   bool
}

var profiles = map[Target]Profile{
	Brightness: {
		GroundTruth: "brightness",
		Columns:     []string{"rad1h", "rrad1", "sun_alt", "sun_az", "sun_d1", "cloud_cover"},
		Gate:        "rad1h",
		Procedure:   "save_brightness_hour_fc",
	},
	Energy: {
		GroundTruth: "energy_hour",
		Columns:     []string{"brightness", "sun_alt", "sun_az", "temp"},
		Gate:        "brightness",
		Procedure:   "save_energy_hour_fc",
		Publishes:   true,
	},
}

// Profile returns the target's profile. Unknown targets get a zero Profile.
func (t Target) Profile() Profile {
	return profiles[t]
}

// Valid reports whether t is a known target
func (t Target) Valid() bool {
	_, ok := profiles[t]
	return ok
}

// GateIndex returns the position of the gate column within Columns
func (p Profile) GateIndex() int {
	for i, c := range p.Columns {
		if c == p.Gate {
			return i
		}
	}
	return -1
}

// Postprocess converts a finite raw model output into the persisted value.
// Brightness is an integer class. Energy is rounded to 3 places on the
// float's exact binary value, so 1.0005 becomes 1 and 1.2345 becomes 1.234.
// Negative results become 0.
func (t Target) Postprocess(raw float64) decimal.Decimal {
	var v decimal.Decimal
	switch t {
	case Brightness:
		v = decimal.NewFromInt(int64(math.Trunc(raw)))
	default:
		v = decimal.RequireFromString(strconv.FormatFloat(raw, 'f', energyPlaces, 64))
	}
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}
