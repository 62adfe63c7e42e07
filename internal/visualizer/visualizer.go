package visualizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/psidex/dossiergraph/internal/graphs"
	"github.com/psidex/dossiergraph/internal/layout"
	"github.com/psidex/dossiergraph/internal/lib"
)

var ErrUnknownNode = errors.New("unknown node")

type Cursor string

const (
	CursorPointer Cursor = "pointer"
	CursorDefault Cursor = "default"
)

type Options struct {
	// SettleDelay is how long a fresh layout relaxes before the first fit.
	SettleDelay lib.Duration `json:"settleDelay" toml:"settle_delay"`
	// FitTransition is how long the camera takes to move to a fit.
	FitTransition lib.Duration `json:"fitTransition" toml:"fit_transition"`
	FitPadding    float64      `json:"fitPadding" toml:"fit_padding"`
}

func DefaultOptions() Options {
	return Options{
		SettleDelay:   lib.DurationFrom(300 * time.Millisecond),
		FitTransition: lib.DurationFrom(800 * time.Millisecond),
		FitPadding:    50,
	}
}

func (o Options) Validate() error {
	if o.SettleDelay.Duration < 0 {
		return fmt.Errorf("settle delay must not be negative, got %s", o.SettleDelay.Duration)
	}
	if o.FitTransition.Duration < 0 {
		return fmt.Errorf("fit transition must not be negative, got %s", o.FitTransition.Duration)
	}
	if o.FitPadding < 0 {
		return fmt.Errorf("fit padding must not be negative, got %g", o.FitPadding)
	}
	return nil
}

// Outcome is the result of clicking a node.
type Outcome struct {
	// Allowed is true for nodes that may be inspected. Inspection itself is not
	// built yet, so an allowed click does nothing.
	Allowed bool
	Notice  *Notice
}

// Visualizer turns graph models into a live force-directed drawing on a Surface. All
// methods are safe to call from any goroutine while a simulation is running.
type Visualizer struct {
	logger  *slog.Logger
	engine  layout.Engine
	surface Surface
	opts    Options

	// swapMu serialises model swaps, pubMu serialises surface writes and mu guards
	// everything below it. Lock order is swapMu, pubMu, mu.
	swapMu sync.Mutex
	pubMu  sync.Mutex
	mu     sync.Mutex

	model      graphs.Model
	viewport   layout.Viewport
	generation int
	positions  map[string]layout.Point
	camera     *layout.Camera
	settled    bool
	faulted    bool
	// fitDue is set once the settle delay passed, the first fit waits for positions.
	fitDue bool

	// Set / reset per generation.
	cancel   context.CancelFunc
	wg       *sync.WaitGroup
	fitTimer *time.Timer
}

func New(logger *slog.Logger, engine layout.Engine, surface Surface, viewport layout.Viewport, opts Options) *Visualizer {
	return &Visualizer{
		logger:   logger,
		engine:   engine,
		surface:  surface,
		opts:     opts,
		viewport: viewport,
		wg:       &sync.WaitGroup{},
	}
}

// SetModel replaces the drawn model wholesale. The previous simulation is stopped and
// none of its frames reach the surface after this returns.
func (v *Visualizer) SetModel(m graphs.Model) {
	v.swapMu.Lock()
	defer v.swapMu.Unlock()

	v.stop()

	v.pubMu.Lock()
	defer v.pubMu.Unlock()

	v.mu.Lock()
	v.generation++
	generation := v.generation
	v.model = m
	v.positions = nil
	v.camera = nil
	v.settled = false
	v.faulted = false
	v.fitDue = false
	v.mu.Unlock()

	v.logger.Debug("Model replaced", "generation", generation, "nodes", len(m.Nodes), "edges", len(m.Edges))
	v.surface.Model(generation, m)

	if m.Empty() {
		// Only the legend is drawn, there is nothing to simulate or fit.
		return
	}

	v.mu.Lock()
	err := v.startLocked()
	v.mu.Unlock()
	if err != nil {
		v.surface.Fault(FallbackMessage)
	}
}

// startLocked starts a simulation for the current generation. v.mu must be held.
func (v *Visualizer) startLocked() error {
	ctx, cancel := context.WithCancel(context.Background())
	frames, err := v.engine.Start(ctx, v.model, v.viewport)
	if err != nil {
		cancel()
		v.faulted = true
		v.logger.Error("Layout engine failed to start", "generation", v.generation, "error", err)
		return err
	}

	generation := v.generation
	v.cancel = cancel
	v.wg.Add(1)
	go v.pump(generation, frames)

	v.fitTimer = time.AfterFunc(v.opts.SettleDelay.Duration, func() {
		v.mu.Lock()
		if generation != v.generation {
			v.mu.Unlock()
			return
		}
		v.fitDue = true
		camera := v.fitLocked()
		v.mu.Unlock()

		if camera != nil {
			v.publish(generation, func() { v.sendFit(generation, *camera) })
		}
	})
	return nil
}

// stop tears down the running generation and waits for its pump to exit.
func (v *Visualizer) stop() {
	v.mu.Lock()
	cancel, timer, wg := v.cancel, v.fitTimer, v.wg
	v.cancel, v.fitTimer = nil, nil
	v.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	if cancel != nil {
		cancel()
	}
	wg.Wait()
}

func (v *Visualizer) pump(generation int, frames <-chan layout.Frame) {
	defer v.wg.Done()
	for f := range frames {
		v.applyFrame(generation, f)
	}
}

func (v *Visualizer) applyFrame(generation int, f layout.Frame) {
	v.mu.Lock()
	if generation != v.generation {
		v.mu.Unlock()
		return
	}
	v.positions = f.Positions
	if f.Settled {
		if v.settled {
			// A cooled simulation keeps ticking with unchanged positions.
			v.mu.Unlock()
			return
		}
		v.settled = true
	}
	var camera *layout.Camera
	if v.fitDue && v.camera == nil {
		camera = v.fitLocked()
	}
	v.mu.Unlock()

	v.publish(generation, func() {
		v.surface.Frame(generation, f)
		if camera != nil {
			v.sendFit(generation, *camera)
		}
	})
}

// publish calls send unless generation has been replaced in the meantime. Surface
// writes are made here, outside v.mu, one at a time.
func (v *Visualizer) publish(generation int, send func()) {
	v.pubMu.Lock()
	defer v.pubMu.Unlock()

	v.mu.Lock()
	current := v.generation
	v.mu.Unlock()
	if generation != current {
		return
	}
	send()
}

func (v *Visualizer) sendFit(generation int, camera layout.Camera) {
	v.surface.Fit(generation, camera, v.opts.FitTransition.Duration)
}

// fitLocked points the camera at every node and returns it, nil when there is nothing
// to fit. v.mu must be held.
func (v *Visualizer) fitLocked() *layout.Camera {
	if v.model.Empty() || !v.viewport.Valid() {
		return nil
	}
	bounds, ok := layout.Bounds(v.positions)
	if !ok {
		return nil
	}
	camera := layout.Fit(bounds, v.viewport, v.opts.FitPadding)
	v.camera = &camera
	return &camera
}

// Resize re-fits the camera to the new viewport, the simulation keeps its state.
func (v *Visualizer) Resize(viewport layout.Viewport) {
	// May start a simulation, so it must not race a model swap.
	v.swapMu.Lock()
	defer v.swapMu.Unlock()

	v.mu.Lock()
	v.viewport = viewport
	generation := v.generation
	if v.faulted && viewport.Valid() && !v.model.Empty() {
		// There was never a simulation to keep, so starting one loses nothing.
		v.logger.Info("Viewport available again, restarting layout", "generation", generation)
		v.faulted = false
		err := v.startLocked()
		v.mu.Unlock()
		if err != nil {
			v.publish(generation, func() { v.surface.Fault(FallbackMessage) })
		}
		return
	}
	camera := v.fitLocked()
	v.mu.Unlock()

	if camera != nil {
		v.publish(generation, func() { v.sendFit(generation, *camera) })
	}
}

// Hover returns the cursor to show over id. Locked and unlocked nodes look the same.
func (v *Visualizer) Hover(id string) Cursor {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.model.Node(id); ok {
		return CursorPointer
	}
	return CursorDefault
}

// Click evaluates the role gate for n. Every click stands alone, nothing is
// remembered between them.
func (v *Visualizer) Click(n graphs.Node) Outcome {
	if graphs.Inspectable(n.Role) {
		return Outcome{Allowed: true}
	}
	notice := Notice{
		NodeID:  n.ID,
		Label:   n.Label,
		Message: graphs.DenyNotice(n.Label),
	}
	v.surface.Notice(notice)
	return Outcome{Notice: &notice}
}

// ClickID is Click for a node of the current model.
func (v *Visualizer) ClickID(id string) (Outcome, error) {
	v.mu.Lock()
	n, ok := v.model.Node(id)
	v.mu.Unlock()

	if !ok {
		return Outcome{}, fmt.Errorf("click %q: %w", id, ErrUnknownNode)
	}
	return v.Click(n), nil
}

// Close stops the simulation, the Visualizer must not be used afterwards.
func (v *Visualizer) Close() {
	v.swapMu.Lock()
	defer v.swapMu.Unlock()
	v.stop()
}
