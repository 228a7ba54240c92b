package game

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/geoguess-service/internal/domain"
	"github.com/couchcryptid/geoguess-service/internal/geo"
	"github.com/couchcryptid/geoguess-service/internal/loader"
	"github.com/couchcryptid/geoguess-service/internal/observability"
)

func testCatalog(t *testing.T) *domain.Catalog {
	t.Helper()
	c, err := domain.NewCatalog([]domain.Location{
		{Code: "BRA", Name: "Brazil"},
		{Code: "CAN", Name: "Canada"},
		{Code: "FRA", Name: "France"},
		{Code: "MEX", Name: "Mexico"},
		{Code: "USA", Name: "United States", Aliases: []string{"America"}},
	})
	require.NoError(t, err)
	return c
}

// square returns a closed ring around (lon, lat).
func square(lon, lat float64) *geo.Object {
	return &geo.Object{
		Type: geo.TypePolygon,
		Coordinates: [][][]float64{{
			{lon, lat}, {lon + 5, lat}, {lon + 5, lat + 5}, {lon, lat + 5}, {lon, lat},
		}},
	}
}

func line(lon, lat float64) *geo.Object {
	return &geo.Object{
		Type:        geo.TypeLineString,
		Coordinates: [][]float64{{lon, lat}, {lon + 1, lat + 1}},
	}
}

// loadCall is one Load invocation seen by fakeLoader.
type loadCall struct {
	n       int
	code    string
	ctx     context.Context
	release chan struct{}
}

// fakeLoader serves one feature per kind, placed at an offset that depends
// on the call number so tests can tell loads apart. With gated set every
// call blocks until released, and then delivers even if cancelled.
type fakeLoader struct {
	gated   bool
	started chan *loadCall

	mu    sync.Mutex
	calls []*loadCall
}

func newFakeLoader(gated bool) *fakeLoader {
	return &fakeLoader{gated: gated, started: make(chan *loadCall, 1024)}
}

func (f *fakeLoader) Load(ctx context.Context, code string, kinds []domain.LayerKind, deliver func(loader.Result)) error {
	f.mu.Lock()
	c := &loadCall{n: len(f.calls) + 1, code: code, ctx: ctx, release: make(chan struct{})}
	f.calls = append(f.calls, c)
	f.mu.Unlock()

	f.started <- c
	if f.gated {
		<-c.release
	}

	offset := float64(c.n * 20)
	for _, kind := range kinds {
		var g *geo.Object
		if kind == domain.LayerOutline {
			g = square(offset, 10)
		} else {
			g = line(offset, 10)
		}
		deliver(loader.Result{Kind: kind, Data: geo.NewFeatureCollection(&geo.Object{
			Type:       geo.TypeFeature,
			Properties: map[string]any{"call": c.n, "code": code},
			Geometry:   g,
		})})
	}
	return ctx.Err()
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.RoundEvent
	err    error
}

func (p *recordingPublisher) PublishRound(_ context.Context, e domain.RoundEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Events() []domain.RoundEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.RoundEvent(nil), p.events...)
}

type fixture struct {
	deps      Deps
	cfg       Config
	loader    *fakeLoader
	publisher *recordingPublisher
	clock     *clockwork.FakeClock
	metrics   *observability.Metrics
}

func newFixture(t *testing.T, gated bool) *fixture {
	t.Helper()
	f := &fixture{
		loader:    newFakeLoader(gated),
		publisher: &recordingPublisher{},
		clock:     clockwork.NewFakeClock(),
		metrics:   observability.NewMetricsForTesting(),
	}
	f.deps = Deps{
		Catalog:   testCatalog(t),
		Loader:    f.loader,
		Publisher: f.publisher,
		Clock:     f.clock,
		Rand:      rand.NewPCG(1, 2),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:   f.metrics,
	}
	f.cfg = DefaultConfig()
	return f
}

// start creates and starts a sized session, closing it at test end.
func (f *fixture) start(t *testing.T, opts Options) *Game {
	t.Helper()
	g, err := New("sess-1", f.deps, f.cfg, opts)
	require.NoError(t, err)
	t.Cleanup(func() {
		f.releaseAll()
		g.Close()
	})
	g.SetViewport(800, 600)
	require.NoError(t, g.Start(context.Background()))
	return g
}

// releaseAll unblocks every gated call.
func (f *fixture) releaseAll() {
	f.loader.mu.Lock()
	defer f.loader.mu.Unlock()
	for _, c := range f.loader.calls {
		select {
		case <-c.release:
		default:
			close(c.release)
		}
	}
}
