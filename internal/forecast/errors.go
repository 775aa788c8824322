package forecast

import "errors"

// Every error aborts the current target run; nothing is recovered locally.
var (
	ErrMalformedWindow   = errors.New("malformed window")
	ErrModelLoad         = errors.New("model load failed")
	ErrPredictionShape   = errors.New("prediction vector not aligned with window")
	ErrInvalidPrediction = errors.New("non-finite prediction")
	ErrPersistence       = errors.New("persistence failed")
	ErrPublication       = errors.New("publication failed")
	ErrUnknownTarget     = errors.New("unknown target")
)
