package forecast

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/smukkama/solar-forecast/internal/model"
)

// --- Stub collaborators ---

type savedForecast struct {
	procedure              string
	year, month, day, hour int
	value                  float64
}

type stubStore struct {
	windows  map[Target]Window
	saved    []savedForecast
	fetchErr error
	saveErr  error
	failAt   int
}

func (s *stubStore) FetchWindow(_ context.Context, t Target) (Window, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return s.windows[t], nil
}

func (s *stubStore) SaveForecast(_ context.Context, procedure string, year, month, day, hour int, value float64) error {
	if s.saveErr != nil && len(s.saved) == s.failAt {
		return s.saveErr
	}
	s.saved = append(s.saved, savedForecast{procedure, year, month, day, hour, value})
	return nil
}

// stubPredictor returns values[i] for row i and records each call's shape
type stubPredictor struct {
	values []float64
	calls  int
	rows   int
	cols   int
}

func (p *stubPredictor) Predict(x mat.Matrix) ([]float64, error) {
	p.calls++
	p.rows, p.cols = x.Dims()
	return p.values[:p.rows], nil
}

type stubModels struct {
	predictor model.Predictor
	err       error
	loaded    []string
}

func (m *stubModels) Load(file string) (model.Predictor, error) {
	m.loaded = append(m.loaded, file)
	if m.err != nil {
		return nil, m.err
	}
	return m.predictor, nil
}

type stubPublisher struct {
	bundles []Bundle
	err     error
}

func (p *stubPublisher) Publish(_ context.Context, bundle Bundle) error {
	if p.err != nil {
		return p.err
	}
	cp := Bundle{}
	for k, v := range bundle {
		cp[k] = v
	}
	p.bundles = append(p.bundles, cp)
	return nil
}

var testModelFiles = map[Target]string{
	Brightness: "brightness.json",
	Energy:     "energy.json",
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func energyWindow() Window {
	return Window{
		energyRow(1, 12, 4.2, 10),
		energyRow(1, 22, 0, 0),
		energyRow(1, 23, 0, 10),
		energyRow(2, 0, 0, 10),
	}
}

func newTestRunner(store Store, models ModelSource, pub Publisher) *Runner {
	return NewRunner(store, models, pub, testModelFiles, discardLogger())
}

// --- Tests ---

func TestRunner_Energy(t *testing.T) {
	store := &stubStore{windows: map[Target]Window{Energy: energyWindow()}}
	predictor := &stubPredictor{values: []float64{9, 7, 1.23456, -3}}
	models := &stubModels{predictor: predictor}
	pub := &stubPublisher{}

	report, err := newTestRunner(store, models, pub).Run(context.Background(), Energy)
	require.NoError(t, err)

	assert.Equal(t, []string{"energy.json"}, models.loaded)
	assert.Equal(t, 1, predictor.calls, "one batched prediction")
	assert.Equal(t, 4, predictor.rows)
	assert.Equal(t, 7, predictor.cols)

	require.Len(t, store.saved, 3)
	assert.Equal(t, savedForecast{"save_energy_hour_fc", 2024, 6, 2, 0, 0}, store.saved[0])
	assert.Equal(t, savedForecast{"save_energy_hour_fc", 2024, 6, 1, 23, 1.235}, store.saved[1])
	assert.Equal(t, savedForecast{"save_energy_hour_fc", 2024, 6, 1, 22, 0}, store.saved[2])

	want := Bundle{"D1_H00": "0", "D2_H23": "1.235", "D2_H22": "0"}
	require.Len(t, pub.bundles, 1)
	assert.Equal(t, want, pub.bundles[0])
	assert.Equal(t, want, report.Bundle)
	assert.Equal(t, 3, report.Forecasts)
	assert.Equal(t, 1, report.Gated)
}

func TestRunner_BrightnessDoesNotPublish(t *testing.T) {
	w := Window{
		{Year: 2024, Month: 1, Day: 5, Hour: 9, Values: []float64{50, 1, 10, 150, 20, 90}},
	}
	store := &stubStore{windows: map[Target]Window{Brightness: w}}
	models := &stubModels{predictor: &stubPredictor{values: []float64{2.7}}}
	pub := &stubPublisher{}

	report, err := newTestRunner(store, models, pub).Run(context.Background(), Brightness)
	require.NoError(t, err)

	assert.Empty(t, pub.bundles)
	assert.Nil(t, report.Bundle)
	require.Len(t, store.saved, 1)
	assert.Equal(t, savedForecast{"save_brightness_hour_fc", 2024, 1, 5, 9, 2}, store.saved[0])
}

func TestRunner_EmptyBundleStillPublished(t *testing.T) {
	w := Window{
		energyRow(1, 10, 0, 10),
		energyRow(1, 11, 0.4, 10),
	}
	store := &stubStore{windows: map[Target]Window{Energy: w}}
	models := &stubModels{predictor: &stubPredictor{values: []float64{1, 2}}}
	pub := &stubPublisher{}

	_, err := newTestRunner(store, models, pub).Run(context.Background(), Energy)
	require.NoError(t, err)

	assert.Empty(t, store.saved)
	require.Len(t, pub.bundles, 1)
	assert.Empty(t, pub.bundles[0])
}

func TestRunner_EmptyWindow(t *testing.T) {
	store := &stubStore{}
	models := &stubModels{err: errors.New("must not be loaded")}
	pub := &stubPublisher{}

	_, err := newTestRunner(store, models, pub).Run(context.Background(), Energy)
	require.NoError(t, err)

	assert.Empty(t, models.loaded)
	require.Len(t, pub.bundles, 1)
	assert.Empty(t, pub.bundles[0])
}

func TestRunner_ModelLoadError(t *testing.T) {
	store := &stubStore{windows: map[Target]Window{Energy: energyWindow()}}
	models := &stubModels{err: model.ErrInvalidArtifact}
	pub := &stubPublisher{}

	_, err := newTestRunner(store, models, pub).Run(context.Background(), Energy)
	assert.ErrorIs(t, err, ErrModelLoad)
	assert.ErrorIs(t, err, model.ErrInvalidArtifact)
	assert.Empty(t, store.saved)
	assert.Empty(t, pub.bundles)
}

func TestRunner_MalformedWindow(t *testing.T) {
	w := Window{{Month: 6, Values: []float64{1}}}
	store := &stubStore{windows: map[Target]Window{Energy: w}}
	pub := &stubPublisher{}

	_, err := newTestRunner(store, &stubModels{}, pub).Run(context.Background(), Energy)
	assert.ErrorIs(t, err, ErrMalformedWindow)
	assert.Empty(t, pub.bundles)
}

func TestRunner_FetchError(t *testing.T) {
	store := &stubStore{fetchErr: errors.New("connection refused")}

	_, err := newTestRunner(store, &stubModels{}, &stubPublisher{}).Run(context.Background(), Brightness)
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestRunner_SaveErrorAbortsRun(t *testing.T) {
	store := &stubStore{
		windows: map[Target]Window{Energy: energyWindow()},
		saveErr: errors.New("deadlock"),
		failAt:  1,
	}
	models := &stubModels{predictor: &stubPredictor{values: []float64{1, 2, 3, 4}}}
	pub := &stubPublisher{}

	report, err := newTestRunner(store, models, pub).Run(context.Background(), Energy)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Len(t, store.saved, 1)
	assert.Equal(t, 1, report.Forecasts)
	assert.Empty(t, pub.bundles, "failed run is not published")
}

func TestRunner_PublishError(t *testing.T) {
	store := &stubStore{windows: map[Target]Window{Energy: energyWindow()}}
	models := &stubModels{predictor: &stubPredictor{values: []float64{1, 2, 3, 4}}}
	pub := &stubPublisher{err: errors.New("broker down")}

	_, err := newTestRunner(store, models, pub).Run(context.Background(), Energy)
	assert.ErrorIs(t, err, ErrPublication)
	assert.Len(t, store.saved, 3)
}

func TestRunner_Idempotent(t *testing.T) {
	run := func() ([]savedForecast, Bundle) {
		store := &stubStore{windows: map[Target]Window{Energy: energyWindow()}}
		models := &stubModels{predictor: &stubPredictor{values: []float64{5, 0.5, 0.25, 0.125}}}
		pub := &stubPublisher{}
		_, err := newTestRunner(store, models, pub).Run(context.Background(), Energy)
		require.NoError(t, err)
		require.Len(t, pub.bundles, 1)
		return store.saved, pub.bundles[0]
	}

	saved1, bundle1 := run()
	saved2, bundle2 := run()
	assert.Equal(t, saved1, saved2)
	assert.Equal(t, bundle1, bundle2)
}
