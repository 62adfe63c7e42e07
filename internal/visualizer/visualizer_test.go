package visualizer

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/psidex/dossiergraph/internal/dossier"
	"github.com/psidex/dossiergraph/internal/graphs"
	"github.com/psidex/dossiergraph/internal/layout"
	"github.com/psidex/dossiergraph/internal/lib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedFit struct {
	generation int
	camera     layout.Camera
	transition time.Duration
}

type recordingSurface struct {
	mu      sync.Mutex
	models  []int
	frames  map[int][]layout.Frame
	fits    []recordedFit
	notices []Notice
	faults  []string
}

func newRecordingSurface() *recordingSurface {
	return &recordingSurface{frames: make(map[int][]layout.Frame)}
}

func (s *recordingSurface) Model(generation int, m graphs.Model) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models = append(s.models, generation)
}

func (s *recordingSurface) Frame(generation int, f layout.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames[generation] = append(s.frames[generation], f)
}

func (s *recordingSurface) Fit(generation int, c layout.Camera, transition time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fits = append(s.fits, recordedFit{generation, c, transition})
}

func (s *recordingSurface) Notice(n Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, n)
}

func (s *recordingSurface) Fault(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = append(s.faults, message)
}

func (s *recordingSurface) frameCount(generation int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames[generation])
}

func (s *recordingSurface) fitCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fits)
}

func (s *recordingSurface) lastFit() recordedFit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fits[len(s.fits)-1]
}

// scriptedEngine hands each simulation's frame channel to the test.
type scriptedEngine struct {
	mu      sync.Mutex
	runs    []chan layout.Frame
	starts  int
	failing bool
}

func (e *scriptedEngine) Start(ctx context.Context, m graphs.Model, v layout.Viewport) (<-chan layout.Frame, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.failing || !v.Valid() {
		return nil, layout.ErrSurfaceUnavailable
	}
	e.starts++
	in := make(chan layout.Frame)
	out := make(chan layout.Frame)
	e.runs = append(e.runs, in)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case f := <-in:
				select {
				case out <- f:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (e *scriptedEngine) run(i int) chan layout.Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runs[i]
}

func (e *scriptedEngine) startCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.starts
}

var testViewport = layout.Viewport{Width: 800, Height: 600}

func testOptions() Options {
	return Options{
		SettleDelay:   lib.DurationFrom(20 * time.Millisecond),
		FitTransition: lib.DurationFrom(800 * time.Millisecond),
		FitPadding:    50,
	}
}

func testModel() graphs.Model {
	return graphs.Build(dossier.Record{
		Name: "Ana Lima",
		Entities: []dossier.Entity{
			{Name: "Alpha Ltda", Persons: []string{"Bruno Reis"}},
		},
	})
}

func testFrame(tick int) layout.Frame {
	return layout.Frame{
		Tick:  tick,
		Alpha: 0.5,
		Positions: map[string]layout.Point{
			"Ana Lima":   {X: -100, Y: 0},
			"Alpha Ltda": {X: 100, Y: 0},
			"Bruno Reis": {X: 0, Y: 50},
		},
	}
}

func newTestVisualizer(engine layout.Engine, surface Surface) *Visualizer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(logger, engine, surface, testViewport, testOptions())
}

func TestVisualizer(t *testing.T) {
	t.Run("Frames reach the surface and the camera fits after settling", func(t *testing.T) {
		engine := &scriptedEngine{}
		surface := newRecordingSurface()
		v := newTestVisualizer(engine, surface)
		defer v.Close()

		v.SetModel(testModel())
		engine.run(0) <- testFrame(1)

		assert.Eventually(t, func() bool { return surface.frameCount(1) == 1 }, time.Second, time.Millisecond)
		assert.Eventually(t, func() bool { return surface.fitCount() == 1 }, time.Second, time.Millisecond, "Expected one fit after the settle delay")

		fit := surface.lastFit()
		assert.Equal(t, 1, fit.generation)
		assert.Equal(t, 800*time.Millisecond, fit.transition)
		assert.Equal(t, layout.Point{X: 0, Y: 25}, fit.camera.Center)

		scene := v.Scene()
		require.NotNil(t, scene.Camera)
		assert.Equal(t, fit.camera, *scene.Camera)
	})

	t.Run("Frames from a replaced model are dropped", func(t *testing.T) {
		engine := &scriptedEngine{}
		surface := newRecordingSurface()
		v := newTestVisualizer(engine, surface)
		defer v.Close()

		v.SetModel(testModel())
		engine.run(0) <- testFrame(1)
		assert.Eventually(t, func() bool { return surface.frameCount(1) == 1 }, time.Second, time.Millisecond)

		v.SetModel(testModel())

		select {
		case engine.run(0) <- testFrame(2):
			t.Fatal("Expected the old simulation to be stopped")
		case <-time.After(20 * time.Millisecond):
		}

		engine.run(1) <- testFrame(1)
		assert.Eventually(t, func() bool { return surface.frameCount(2) == 1 }, time.Second, time.Millisecond)
		assert.Equal(t, 1, surface.frameCount(1), "Expected no further frames for generation 1")
		assert.Equal(t, []int{1, 2}, surface.models)
		assert.Equal(t, 2, v.Scene().Generation)
	})

	t.Run("Only the first settled frame is forwarded", func(t *testing.T) {
		engine := &scriptedEngine{}
		surface := newRecordingSurface()
		v := newTestVisualizer(engine, surface)
		defer v.Close()

		v.SetModel(testModel())
		settled := testFrame(10)
		settled.Settled = true
		engine.run(0) <- settled
		settled.Tick = 11
		engine.run(0) <- settled
		engine.run(0) <- testFrame(12)

		assert.Eventually(t, func() bool { return surface.frameCount(1) == 2 }, time.Second, time.Millisecond)
		assert.Never(t, func() bool { return surface.frameCount(1) > 2 }, 20*time.Millisecond, time.Millisecond)
	})

	t.Run("Resize refits without restarting the layout", func(t *testing.T) {
		engine := &scriptedEngine{}
		surface := newRecordingSurface()
		v := newTestVisualizer(engine, surface)
		defer v.Close()

		v.SetModel(testModel())
		engine.run(0) <- testFrame(1)
		assert.Eventually(t, func() bool { return surface.fitCount() == 1 }, time.Second, time.Millisecond)
		before := surface.lastFit().camera.Zoom

		v.Resize(layout.Viewport{Width: 1600, Height: 1200})

		assert.Equal(t, 2, surface.fitCount())
		assert.Greater(t, surface.lastFit().camera.Zoom, before, "Expected a bigger viewport to zoom in")
		assert.Equal(t, 1, engine.startCount(), "Expected the simulation to keep running")
		assert.Equal(t, layout.Viewport{Width: 1600, Height: 1200}, v.Scene().Viewport)
	})

	t.Run("An empty model is never simulated or fitted", func(t *testing.T) {
		engine := &scriptedEngine{}
		surface := newRecordingSurface()
		v := newTestVisualizer(engine, surface)
		defer v.Close()

		v.SetModel(graphs.Model{})
		v.Resize(layout.Viewport{Width: 100, Height: 100})

		assert.Equal(t, 0, engine.startCount())
		assert.Never(t, func() bool { return surface.fitCount() > 0 }, 50*time.Millisecond, time.Millisecond)

		scene := v.Scene()
		assert.Empty(t, scene.Nodes)
		assert.Equal(t, graphs.Legend(), scene.Legend, "Expected the legend to be drawn regardless")
	})

	t.Run("Engine failure shows the fallback instead of panicking", func(t *testing.T) {
		engine := &scriptedEngine{failing: true}
		surface := newRecordingSurface()
		v := newTestVisualizer(engine, surface)
		defer v.Close()

		require.NotPanics(t, func() { v.SetModel(testModel()) })

		assert.Equal(t, []string{FallbackMessage}, surface.faults)
		assert.True(t, v.Scene().Faulted)
		assert.Equal(t, CursorPointer, v.Hover("Ana Lima"), "Expected interaction to keep working")
	})

	t.Run("A valid viewport after a fault starts the layout", func(t *testing.T) {
		engine := &scriptedEngine{}
		surface := newRecordingSurface()
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		v := New(logger, engine, surface, layout.Viewport{}, testOptions())
		defer v.Close()

		v.SetModel(testModel())
		require.Len(t, surface.faults, 1)
		assert.Equal(t, 0, engine.startCount())

		v.Resize(testViewport)

		assert.Equal(t, 1, engine.startCount())
		assert.False(t, v.Scene().Faulted)
	})
}

// blockingSurface holds every frame write until release is closed.
type blockingSurface struct {
	*recordingSurface
	entered chan struct{}
	release chan struct{}
	once    sync.Once
	unblock sync.Once
}

func (s *blockingSurface) releaseAll() {
	s.unblock.Do(func() { close(s.release) })
}

func (s *blockingSurface) Frame(generation int, f layout.Frame) {
	s.once.Do(func() { close(s.entered) })
	<-s.release
	s.recordingSurface.Frame(generation, f)
}

func TestVisualizerSlowSurface(t *testing.T) {
	engine := &scriptedEngine{}
	surface := &blockingSurface{
		recordingSurface: newRecordingSurface(),
		entered:          make(chan struct{}),
		release:          make(chan struct{}),
	}
	v := newTestVisualizer(engine, surface)
	defer v.Close()
	defer surface.releaseAll()

	v.SetModel(testModel())
	engine.run(0) <- testFrame(1)

	select {
	case <-surface.entered:
	case <-time.After(time.Second):
		t.Fatal("Expected a frame write to start")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.Equal(t, CursorPointer, v.Hover("Ana Lima"))
		_, err := v.ClickID("Bruno Reis")
		assert.NoError(t, err)
		assert.Equal(t, 1, v.Scene().Generation)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Expected interaction not to wait on a pending surface write")
	}

	surface.releaseAll()
	assert.Eventually(t, func() bool { return surface.frameCount(1) == 1 }, time.Second, time.Millisecond)
}

func TestVisualizerForceEngineConfigFault(t *testing.T) {
	cfg := layout.DefaultConfig()
	cfg.TickInterval = lib.DurationFrom(0)
	surface := newRecordingSurface()
	v := newTestVisualizer(layout.NewForceEngine(cfg), surface)
	defer v.Close()

	require.NotPanics(t, func() { v.SetModel(testModel()) })
	assert.Equal(t, []string{FallbackMessage}, surface.faults)
	assert.True(t, v.Scene().Faulted)
}

func TestOptionsValidate(t *testing.T) {
	assert.NoError(t, DefaultOptions().Validate())

	opts := DefaultOptions()
	opts.SettleDelay = lib.DurationFrom(-time.Millisecond)
	assert.ErrorContains(t, opts.Validate(), "settle delay")

	opts = DefaultOptions()
	opts.FitTransition = lib.DurationFrom(-time.Millisecond)
	assert.ErrorContains(t, opts.Validate(), "fit transition")

	opts = DefaultOptions()
	opts.FitPadding = -5
	assert.ErrorContains(t, opts.Validate(), "fit padding")
}

func TestVisualizerInteraction(t *testing.T) {
	engine := &scriptedEngine{}
	surface := newRecordingSurface()
	v := newTestVisualizer(engine, surface)
	defer v.Close()
	v.SetModel(testModel())

	t.Run("Hover", func(t *testing.T) {
		assert.Equal(t, CursorPointer, v.Hover("Ana Lima"))
		assert.Equal(t, CursorPointer, v.Hover("Bruno Reis"), "Expected locked nodes to look clickable too")
		assert.Equal(t, CursorDefault, v.Hover(""))
		assert.Equal(t, CursorDefault, v.Hover("nobody"))
	})

	t.Run("Clicking the root is allowed silently", func(t *testing.T) {
		outcome, err := v.ClickID("Ana Lima")
		require.NoError(t, err)
		assert.True(t, outcome.Allowed)
		assert.Nil(t, outcome.Notice)
		assert.Empty(t, surface.notices)
	})

	t.Run("Clicking anything else shows exactly one notice", func(t *testing.T) {
		for _, id := range []string{"Alpha Ltda", "Bruno Reis", "Alpha Ltda"} {
			before := len(surface.notices)

			outcome, err := v.ClickID(id)
			require.NoError(t, err)

			assert.False(t, outcome.Allowed)
			require.NotNil(t, outcome.Notice)
			assert.Equal(t, id, outcome.Notice.NodeID)
			assert.Contains(t, outcome.Notice.Message, id)
			assert.Len(t, surface.notices, before+1, "Expected one notice per click on %s", id)
		}
	})

	t.Run("Gate depends on role alone", func(t *testing.T) {
		outcome := v.Click(graphs.Node{ID: "x", Label: "Outsider", Role: graphs.RoleRoot})
		assert.True(t, outcome.Allowed)

		outcome = v.Click(graphs.Node{ID: "Ana Lima", Label: "Ana Lima", Role: graphs.RoleUnknown})
		assert.False(t, outcome.Allowed)
	})

	t.Run("Unknown node", func(t *testing.T) {
		_, err := v.ClickID("nobody")
		assert.ErrorIs(t, err, ErrUnknownNode)
	})
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, 300*time.Millisecond, opts.SettleDelay.Duration)
	assert.Equal(t, 800*time.Millisecond, opts.FitTransition.Duration)
	assert.Equal(t, 50.0, opts.FitPadding)
}
