package forecast

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// seasonColumns are appended after the raw columns: winter, shoulder, summer
const seasonColumns = 3

// Season buckets a month. May (and any out-of-range month) has no season set.
func Season(month int) (winter, shoulder, summer bool) {
	winter = month >= 11 || month <= 2
	shoulder = month == 3 || month == 4 || month == 9 || month == 10
	summer = month >= 6 && month <= 8
	return winter, shoulder, summer
}

// Encode builds the feature matrix the target's model expects: the raw
// columns followed by the three season indicators. An empty window yields a
// nil matrix.
func Encode(w Window, t Target) (*mat.Dense, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrUnknownTarget, t)
	}
	if len(w) == 0 {
		return nil, nil
	}

	raw := len(t.Profile().Columns)
	cols := raw + seasonColumns
	x := mat.NewDense(len(w), cols, nil)

	for i, o := range w {
		if len(o.Values) < raw {
			return nil, fmt.Errorf("%w: row %d has %d columns, %s needs %d",
				ErrMalformedWindow, i, len(o.Values), t, raw)
		}
		for j := 0; j < raw; j++ {
			x.Set(i, j, o.Values[j])
		}

		winter, shoulder, summer := Season(o.Month)
		x.Set(i, raw, boolToFloat(winter))
		x.Set(i, raw+1, boolToFloat(shoulder))
		x.Set(i, raw+2, boolToFloat(summer))
	}

	return x, nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
