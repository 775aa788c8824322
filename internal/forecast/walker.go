package forecast

import (
	"fmt"
	"math"
)

// WalkState is the state of a backward walk
type WalkState int

const (
	StateScanning WalkState = iota
	StateStopped
)

func (s WalkState) String() string {
	if s == StateStopped {
		return "STOPPED"
	}
	return "SCANNING"
}

const (
	firstHourLast = 23
	// maxDayOffset caps the day counter: only today and tomorrow are produced
	maxDayOffset = 2
)

// Walker tracks the day offset while rows are visited newest to oldest.
//
// The rollover rule compares each hour with the last hour that did not roll
// over. It is a heuristic: a gap or a duplicated hour in the window can
// misfire it.
type Walker struct {
	state    WalkState
	hourLast int
	day      int
}

// NewWalker creates a walker in the scanning state
func NewWalker() *Walker {
	return &Walker{
		state:    StateScanning,
		hourLast: firstHourLast,
		day:      1,
	}
}

// State returns the current state
func (w *Walker) State() WalkState {
	return w.state
}

// Step visits the next (older) row and returns its day offset. A row with
// ground truth moves the walker to StateStopped, where it stays and every
// step returns 0.
func (w *Walker) Step(o Observation) int {
	if w.state == StateStopped {
		return 0
	}
	if o.GroundTruth > 0 {
		w.state = StateStopped
		return 0
	}

	if o.Hour > w.hourLast {
		if w.day < maxDayOffset {
			w.day++
		}
	} else {
		w.hourLast = o.Hour
	}

	return w.day
}

// Walk visits the window newest to oldest and calls emit for every row that
// still lacks ground truth. Rows whose gate column is not positive are
// emitted as gated zeros. An emit error stops the walk and is returned.
func Walk(w Window, predictions []float64, t Target, emit func(Forecast) error) (int, error) {
	if !t.Valid() {
		return 0, fmt.Errorf("%w: %v", ErrUnknownTarget, t)
	}
	if len(predictions) != len(w) {
		return 0, fmt.Errorf("%w: %d predictions for %d rows", ErrPredictionShape, len(predictions), len(w))
	}

	gate := t.Profile().GateIndex()
	walker := NewWalker()
	emitted := 0

	for i := len(w) - 1; i >= 0; i-- {
		o := w[i]
		day := walker.Step(o)
		if walker.State() == StateStopped {
			break
		}

		f := Forecast{
			Year:      o.Year,
			Month:     o.Month,
			Day:       o.Day,
			Hour:      o.Hour,
			DayOffset: day,
		}

		if gate >= 0 && gate < len(o.Values) && o.Values[gate] > 0 {
			p := predictions[i]
			if math.IsNaN(p) || math.IsInf(p, 0) {
				return emitted, fmt.Errorf("%w: row %d", ErrInvalidPrediction, i)
			}
			f.Value = t.Postprocess(p)
		} else {
			f.Gated = true
		}

		if err := emit(f); err != nil {
			return emitted, err
		}
		emitted++
	}

	return emitted, nil
}
