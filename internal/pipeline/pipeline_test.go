package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-alert-polygons/internal/domain"
	"github.com/couchcryptid/storm-alert-polygons/internal/observability"
	"github.com/couchcryptid/storm-alert-polygons/internal/pipeline"
	"github.com/couchcryptid/storm-alert-polygons/internal/region"
	"github.com/couchcryptid/storm-alert-polygons/internal/severity"
)

// --- mocks ---

type mockSource struct {
	alerts []domain.Alert
	errs   []error // returned by successive calls, then nil
	calls  atomic.Int64
}

func (m *mockSource) FetchActiveAlerts(_ context.Context) ([]domain.Alert, error) {
	i := int(m.calls.Add(1) - 1)
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	return m.alerts, nil
}

type mockSeverity struct {
	colors map[string]domain.Color
}

func (m *mockSeverity) ColorFor(label string) (domain.Color, error) {
	c, ok := m.colors[label]
	if !ok {
		return "", &severity.UnknownSeverityError{Label: label}
	}
	return c, nil
}

type mockResolver struct {
	mu       sync.Mutex
	polygons map[string][]domain.ResolvedPolygon
	resolved []string
	delay    map[string]time.Duration
}

func (m *mockResolver) Resolve(_ context.Context, alert domain.Alert) []domain.ResolvedPolygon {
	if d := m.delay[alert.ID]; d > 0 {
		time.Sleep(d)
	}
	m.mu.Lock()
	m.resolved = append(m.resolved, alert.ID)
	m.mu.Unlock()
	return m.polygons[alert.ID]
}

func (m *mockResolver) calledFor(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.resolved {
		if r == id {
			return true
		}
	}
	return false
}

type mockSink struct {
	mu   sync.Mutex
	maps []domain.AlertMap
	err  error
}

func (m *mockSink) Publish(_ context.Context, am domain.AlertMap) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.maps = append(m.maps, am)
	return nil
}

func (m *mockSink) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.maps)
}

type fixture struct {
	source   *mockSource
	resolver *mockResolver
	sink     *mockSink
	metrics  *observability.Metrics
	clock    *clockwork.FakeClock
}

var runStart = time.Date(2026, 5, 20, 21, 45, 0, 0, time.UTC)

func newFixture() *fixture {
	return &fixture{
		source:   &mockSource{alerts: sampleAlerts()},
		resolver: &mockResolver{polygons: sampleGeometry()},
		sink:     &mockSink{},
		metrics:  observability.NewMetricsForTesting(),
		clock:    clockwork.NewFakeClockAt(runStart),
	}
}

func (f *fixture) pipeline(opts ...pipeline.Option) *pipeline.Pipeline {
	catalog := region.DefaultCatalog()
	stages := pipeline.Stages{
		Severity: &mockSeverity{colors: sampleColors},
		Resolver: f.resolver,
		Regions:  region.NewClassifier(catalog),
		Catalog:  catalog,
	}
	opts = append([]pipeline.Option{pipeline.WithClock(f.clock)}, opts...)
	return pipeline.New(f.source, stages, f.sink, slog.Default(), f.metrics, opts...)
}

func regionNames(m domain.AlertMap) []string {
	var names []string
	for _, g := range m.Regions {
		names = append(names, g.Name)
	}
	return names
}

// --- tests ---

func TestPipeline_RunOnce_HappyPath(t *testing.T) {
	f := newFixture()
	p := f.pipeline()

	m, err := p.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, runStart, m.ValidAt)
	assert.Equal(t, domain.ConusExtent, m.Extent)
	assert.Len(t, m.Polygons, 5, "full extent keeps every resolved polygon, Alaska included")

	// Catalog order: ne, rs, se, ov, um, weast, nw, south.
	assert.Equal(t, []string{"ne", "ov", "south"}, regionNames(m))

	require.Equal(t, 1, f.sink.count())
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_RunOnce_RegionContents(t *testing.T) {
	f := newFixture()
	m, err := f.pipeline().RunOnce(context.Background())
	require.NoError(t, err)

	byName := make(map[string]domain.RegionGroup)
	for _, g := range m.Regions {
		byName[g.Name] = g
	}

	ne := byName["ne"]
	require.Len(t, ne.Tuples, 1)
	assert.Equal(t, "Tornado Warning", ne.Tuples[0].Event)
	assert.Equal(t, domain.Color("red"), ne.Tuples[0].Color)
	assert.Equal(t, domain.BBox{-80, -60, 30, 50}, ne.Display)

	south := byName["south"]
	assert.Len(t, south.Tuples, 3, "two flood polygons and the rip current zone")
	want := []domain.LegendEntry{
		{Event: "Flood Warning", Color: "lime"},
		{Event: "Rip Current Statement", Color: "aqua"},
	}
	if diff := cmp.Diff(want, south.Legend); diff != "" {
		t.Errorf("south legend mismatch (-want +got):\n%s", diff)
	}
}

func TestPipeline_UnknownSeverityDroppedBeforeResolution(t *testing.T) {
	f := newFixture()
	m, err := f.pipeline().RunOnce(context.Background())
	require.NoError(t, err)

	assert.False(t, f.resolver.calledFor("odd-1"), "unknown label must not trigger geometry resolution")
	for _, p := range m.Polygons {
		assert.NotEqual(t, "Extreme Marmot Advisory", p.Event)
	}
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.AlertsDropped.WithLabelValues("unknown_severity")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.AlertsDropped.WithLabelValues("unresolved")), 0)
}

func TestPipeline_Summary(t *testing.T) {
	f := newFixture()
	p := f.pipeline()

	_, ok := p.LastSummary()
	assert.False(t, ok)

	_, err := p.RunOnce(context.Background())
	require.NoError(t, err)

	s, ok := p.LastSummary()
	require.True(t, ok)
	assert.Equal(t, pipeline.Summary{
		ValidAt:  runStart,
		Alerts:   6,
		Dropped:  2,
		Polygons: 5,
		Regions:  map[string]int{"ne": 1, "ov": 2, "south": 3},
	}, s)
	assert.InDelta(t, 6, testutil.ToFloat64(f.metrics.TuplesRecorded), 0)
	assert.InDelta(t, float64(runStart.Unix()), testutil.ToFloat64(f.metrics.LastRunTimestamp), 0)
}

func TestPipeline_ConcurrentMatchesSequential(t *testing.T) {
	seq := newFixture()
	want, err := seq.pipeline().RunOnce(context.Background())
	require.NoError(t, err)

	par := newFixture()
	// Make early alerts finish last so completion order differs from input order.
	par.resolver.delay = map[string]time.Duration{"tor-1": 30 * time.Millisecond, "ffw-1": 15 * time.Millisecond}
	got, err := par.pipeline(pipeline.WithWorkers(4)).RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, regionNames(want), regionNames(got))
	require.Equal(t, len(want.Polygons), len(got.Polygons))
	for i := range want.Polygons {
		assert.Equal(t, want.Polygons[i].Polygon.ZoneID, got.Polygons[i].Polygon.ZoneID)
		assert.Equal(t, want.Polygons[i].Event, got.Polygons[i].Event)
	}
}

func TestPipeline_RunOnce_FetchError(t *testing.T) {
	f := newFixture()
	f.source.errs = []error{errors.New("api.weather.gov unavailable")}
	p := f.pipeline()

	_, err := p.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch alerts")
	assert.Zero(t, f.sink.count())
	assert.Error(t, p.CheckReadiness(context.Background()))
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.RunFailures), 0)
}

func TestPipeline_RunOnce_PublishError(t *testing.T) {
	f := newFixture()
	f.sink.err = errors.New("disk full")
	p := f.pipeline()

	_, err := p.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish")
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_RunOnce_NoAlerts(t *testing.T) {
	f := newFixture()
	f.source.alerts = nil

	m, err := f.pipeline().RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, m.Polygons)
	assert.Empty(t, m.Regions)
	assert.Equal(t, 1, f.sink.count(), "an empty map is still published")
}

func TestPipeline_Run_RepeatsEveryInterval(t *testing.T) {
	f := newFixture()
	p := f.pipeline()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, 5*time.Minute) }()

	require.NoError(t, f.clock.BlockUntilContext(ctx, 1))
	assert.Equal(t, 1, f.sink.count())

	f.clock.Advance(5 * time.Minute)
	require.Eventually(t, func() bool { return f.sink.count() == 2 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.InDelta(t, 0, testutil.ToFloat64(f.metrics.PipelineRunning), 0)
}

func TestPipeline_Run_BacksOffAfterFailure(t *testing.T) {
	f := newFixture()
	f.source.errs = []error{errors.New("timeout"), errors.New("timeout")}
	p := f.pipeline()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, time.Hour) }()

	// First retry after 1s, second after 2s; neither needs the full interval.
	require.NoError(t, f.clock.BlockUntilContext(ctx, 1))
	f.clock.Advance(time.Second)
	require.NoError(t, f.clock.BlockUntilContext(ctx, 1))
	f.clock.Advance(2 * time.Second)

	require.Eventually(t, func() bool { return f.sink.count() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(3), f.source.calls.Load())

	cancel()
	require.NoError(t, <-done)
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	f := newFixture()
	p := f.pipeline()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Run(ctx, time.Minute))
}
