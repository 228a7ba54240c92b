// Package game runs geography guessing sessions. A Game owns one map scene,
// one round state machine and the layers of its active location; it selects
// locations, loads their datasets in the background, applies guesses and
// rotates to a new location on demand or after an idle interval.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/geoguess-service/internal/domain"
	"github.com/couchcryptid/geoguess-service/internal/geo"
	"github.com/couchcryptid/geoguess-service/internal/guess"
	"github.com/couchcryptid/geoguess-service/internal/layer"
	"github.com/couchcryptid/geoguess-service/internal/loader"
	"github.com/couchcryptid/geoguess-service/internal/observability"
	"github.com/couchcryptid/geoguess-service/internal/round"
	"github.com/couchcryptid/geoguess-service/internal/scene"
	"github.com/couchcryptid/geoguess-service/internal/selector"
)

// Viewport polling defaults.
const (
	DefaultViewportInterval = 100 * time.Millisecond
	DefaultViewportAttempts = 20
	DefaultRotateInterval   = 5 * time.Minute

	fitPadding = 0.05
)

// ErrClosed is returned by operations on a closed session.
var ErrClosed = errors.New("session closed")

// LayerLoader fetches the layer datasets of a location.
type LayerLoader interface {
	Load(ctx context.Context, code string, kinds []domain.LayerKind, deliver func(loader.Result)) error
}

// Deps are the collaborators shared by every session.
type Deps struct {
	Catalog   *domain.Catalog
	Loader    LayerLoader
	Publisher domain.EventPublisher
	Clock     clockwork.Clock
	// Rand seeds location picks; nil draws from the global generator. A
	// Registry derives one generator per session from it. Games built
	// directly with New must not share one.
	Rand      rand.Source
	Logger    *slog.Logger
	Metrics   *observability.Metrics
}

// Config tunes every session.
type Config struct {
	Round            round.Config
	Limits           layer.Limits
	RotateInterval   time.Duration // zero disables idle rotation
	ViewportInterval time.Duration
	ViewportAttempts int
}

// DefaultConfig returns the stock game settings.
func DefaultConfig() Config {
	return Config{
		Round:            round.Config{MaxRounds: round.DefaultMaxRounds, Schedule: round.DefaultSchedule()},
		Limits:           layer.Limits{Roads: 4000, Rivers: 3000, Elevation: 2500},
		RotateInterval:   DefaultRotateInterval,
		ViewportInterval: DefaultViewportInterval,
		ViewportAttempts: DefaultViewportAttempts,
	}
}

// Options are the deep-link settings of one session.
type Options struct {
	Location string             // forced first location
	Layers   []domain.LayerKind // layers visible regardless of round
	Admin    bool               // read-only preview of Layers
}

// ParseOptions builds Options from deep-link query values. layers is empty,
// "all", or a comma-separated list of kinds; admin accepts "1" and "true".
func ParseOptions(location, layers, admin string) (Options, error) {
	opts := Options{Location: strings.ToUpper(strings.TrimSpace(location))}
	if strings.TrimSpace(layers) != "" {
		kinds, err := domain.ParseLayerKinds(layers)
		if err != nil {
			return Options{}, fmt.Errorf("layers: %w", err)
		}
		opts.Layers = kinds
	}
	switch strings.ToLower(strings.TrimSpace(admin)) {
	case "", "0", "false":
	case "1", "true":
		opts.Admin = true
	default:
		return Options{}, fmt.Errorf("admin: invalid value %q", admin)
	}
	return opts, nil
}

type fitState int

const (
	fitNone fitState = iota
	fitLayer
	fitOutline
)

// Outcome reports the effect of one submitted guess. Result.Code is the
// location the text resolved to, empty when it matched none.
type Outcome struct {
	Guess   string `json:"guess"`
	Ignored bool   `json:"ignored,omitempty"`
	round.Result
	Status string `json:"status"`
}

// Snapshot is the client-facing view of a session.
type Snapshot struct {
	ID         string             `json:"id"`
	Status     string             `json:"status"`
	State      round.State        `json:"state"`
	Visible    []domain.LayerKind `json:"visible"`
	Layers     []scene.LayerState `json:"layers"`
	View       layer.View         `json:"view"`
	Generation uint64             `json:"generation"`
}

// Game is one guessing session. It is safe for concurrent use.
type Game struct {
	id        string
	cfg       Config
	opts      Options
	catalog   *domain.Catalog
	loader    LayerLoader
	publisher domain.EventPublisher
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
	scene     *scene.Scene
	resolver  *guess.Resolver

	ctx    context.Context
	cancel context.CancelFunc
	loads  sync.WaitGroup

	mu         sync.Mutex
	layers     *layer.Manager
	machine    *round.Machine
	selector   *selector.Selector
	generation uint64
	cancelLoad context.CancelFunc
	timer      clockwork.Timer
	lastActive time.Time
	fit        fitState
	started    bool
	closed     bool
}

// New creates a session. It does nothing until Start.
func New(id string, deps Deps, cfg Config, opts Options) (*Game, error) {
	if deps.Catalog == nil || deps.Catalog.Len() == 0 {
		return nil, selector.ErrNoCandidates
	}
	if deps.Loader == nil {
		return nil, errors.New("game: nil loader")
	}
	if deps.Publisher == nil {
		deps.Publisher = domain.NopPublisher{}
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Metrics == nil {
		return nil, errors.New("game: nil metrics")
	}
	if opts.Admin && len(opts.Layers) == 0 {
		opts.Layers = append([]domain.LayerKind(nil), domain.AllLayerKinds...)
	}

	machine, err := round.New(cfg.Round, round.Options{Admin: opts.Admin, Override: opts.Layers})
	if err != nil {
		return nil, fmt.Errorf("round config: %w", err)
	}

	logger := deps.Logger.With("session_id", id)
	if opts.Location != "" {
		if _, ok := deps.Catalog.Lookup(opts.Location); !ok {
			logger.Warn("forced location not in catalog, picking at random", "location", opts.Location)
		}
	}

	sc := scene.New()
	ctx, cancel := context.WithCancel(context.Background())
	return &Game{
		id:        id,
		cfg:       cfg,
		opts:      opts,
		catalog:   deps.Catalog,
		loader:    deps.Loader,
		publisher: deps.Publisher,
		clock:     deps.Clock,
		logger:    logger,
		metrics:   deps.Metrics,
		scene:     sc,
		resolver:  guess.NewResolver(deps.Catalog),
		ctx:       ctx,
		cancel:    cancel,
		layers:    layer.NewManager(sc, cfg.Limits, logger, deps.Metrics),
		machine:   machine,
		selector:  selector.New(deps.Rand),
	}, nil
}

// ID returns the session id.
func (g *Game) ID() string { return g.id }

// Start waits for the client to report a viewport size, then selects the
// first location and begins loading it. When no size arrives in time the
// default world view is kept. Starting twice is a no-op.
func (g *Game) Start(ctx context.Context) error {
	if !WaitForViewport(ctx, g.clock, g.scene, g.cfg.ViewportInterval, g.cfg.ViewportAttempts) {
		g.logger.Info("viewport has no size, using default world view")
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrClosed
	}
	if g.started {
		return nil
	}
	g.started = true
	return g.rotateLocked("start", g.opts.Location)
}

// SetViewport records the client's map container size.
func (g *Game) SetViewport(width, height int) {
	g.scene.SetSize(width, height)
}

// Rotate moves to a new location, avoiding the current one.
func (g *Game) Rotate() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrClosed
	}
	g.started = true
	return g.rotateLocked("manual", "")
}

// rotateLocked selects the next location and starts loading it. Results of
// earlier loads are invalidated by bumping the generation.
func (g *Game) rotateLocked(reason, override string) error {
	prev := g.machine.State().LocationCode
	code, err := g.selector.Select(g.catalog.Codes(), override, prev)
	if err != nil {
		return fmt.Errorf("select location: %w", err)
	}

	if g.cancelLoad != nil {
		g.cancelLoad()
	}
	g.generation++
	gen := g.generation

	g.machine.Reset(code)
	g.layers.Clear()
	g.scene.ResetView()
	g.fit = fitNone
	g.layers.SetVisible(g.machine.Visible())
	g.lastActive = g.clock.Now()

	ctx, cancel := context.WithCancel(g.ctx)
	g.cancelLoad = cancel
	g.loads.Add(1)
	go g.load(ctx, gen, code)

	g.armTimerLocked(g.cfg.RotateInterval)
	g.metrics.Rotations.WithLabelValues(reason).Inc()
	g.logger.Info("location rotated", "reason", reason, "generation", gen)
	g.logger.Debug("location selected", "code", code, "previous", prev)
	return nil
}

func (g *Game) load(ctx context.Context, gen uint64, code string) {
	defer g.loads.Done()
	err := g.loader.Load(ctx, code, domain.AllLayerKinds, func(r loader.Result) {
		g.apply(gen, r)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		g.logger.Warn("layer load ended with error", "generation", gen, "error", err)
	}
}

// apply builds a loaded layer if it belongs to the current generation.
func (g *Game) apply(gen uint64, r loader.Result) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed || gen != g.generation {
		g.metrics.StaleResults.Inc()
		g.logger.Debug("discarding stale layer", "kind", r.Kind, "generation", gen, "current", g.generation)
		return
	}
	data := g.layers.Build(r.Kind, r.Data)
	g.fitLocked(r.Kind, data)
}

// fitLocked moves the view to the outline, or to the first non-empty layer
// until the outline arrives.
func (g *Game) fitLocked(kind domain.LayerKind, data *geo.Object) {
	if g.fit == fitOutline || (g.fit == fitLayer && kind != domain.LayerOutline) {
		return
	}
	rect, ok := geo.Bounds(data)
	if !ok {
		return
	}
	g.scene.FitBounds(rect, fitPadding)
	if kind == domain.LayerOutline {
		g.fit = fitOutline
	} else {
		g.fit = fitLayer
	}
}

// Submit applies a guess. Blank input is ignored. A finished round is
// published to the event sink; publish failures are logged, not returned.
func (g *Game) Submit(ctx context.Context, text string) (Outcome, error) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return Outcome{}, ErrClosed
	}
	if strings.TrimSpace(text) == "" {
		out := Outcome{Ignored: true, Status: g.machine.Status()}
		out.Round = g.machine.State().Round
		g.mu.Unlock()
		return out, nil
	}

	code := g.resolver.Resolve(text)
	res, err := g.machine.Guess(code)
	if err != nil {
		g.metrics.Guesses.WithLabelValues("rejected").Inc()
		g.mu.Unlock()
		return Outcome{}, err
	}
	g.lastActive = g.clock.Now()
	g.metrics.Guesses.WithLabelValues(guessOutcome(code, res)).Inc()
	g.layers.SetVisible(g.machine.Visible())

	var event *domain.RoundEvent
	if res.Finished {
		st := g.machine.State()
		ev := domain.NewRoundEvent(g.id, st.LocationCode, st.Success, st.Round, st.Tried)
		event = &ev
		g.metrics.RoundsFinished.WithLabelValues(ev.Result).Inc()
		g.logger.Info("round finished", "result", ev.Result, "rounds", st.Round, "tried", len(st.Tried))
	}
	out := Outcome{Guess: text, Result: res, Status: g.machine.Status()}
	g.mu.Unlock()

	if event != nil {
		if err := g.publisher.PublishRound(ctx, *event); err != nil {
			g.logger.Warn("round event not published", "error", err)
		}
	}
	return out, nil
}

func guessOutcome(code string, res round.Result) string {
	switch {
	case res.Correct:
		return "correct"
	case code == "":
		return "unresolved"
	default:
		return "wrong"
	}
}

// armTimerLocked replaces the rotation timer. Admin previews never rotate.
func (g *Game) armTimerLocked(d time.Duration) {
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	if g.opts.Admin || g.cfg.RotateInterval <= 0 || g.closed {
		return
	}
	g.timer = g.clock.AfterFunc(d, g.onTimer)
}

// onTimer rotates when the session has been idle for the full interval and
// otherwise waits out the remainder.
func (g *Game) onTimer() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}

	idle := g.clock.Since(g.lastActive)
	if idle < g.cfg.RotateInterval {
		g.armTimerLocked(g.cfg.RotateInterval - idle)
		return
	}
	if err := g.rotateLocked("idle", ""); err != nil {
		g.logger.Error("idle rotation failed", "error", err)
	}
}

// State returns the full round state, including the target code.
func (g *Game) State() round.State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.machine.State()
}

// Snapshot returns the client view. The target code is withheld while an
// interactive round is in progress.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	st := g.machine.State()
	if !st.Admin && !st.Finished {
		st.LocationCode = ""
	}
	return Snapshot{
		ID:         g.id,
		Status:     g.machine.Status(),
		State:      st,
		Visible:    g.layers.Visible(),
		Layers:     g.scene.Layers(),
		View:       g.scene.View(),
		Generation: g.generation,
	}
}

// Close stops the rotation timer, cancels in-flight loads and waits for
// them to settle. Closing twice is a no-op.
func (g *Game) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	if g.cancelLoad != nil {
		g.cancelLoad()
	}
	g.mu.Unlock()

	g.cancel()
	g.loads.Wait()
	g.logger.Debug("session closed")
}
