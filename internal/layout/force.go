package layout

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/psidex/dossiergraph/internal/graphs"
	"github.com/psidex/dossiergraph/internal/lib"
)

// Config tunes the spring embedder.
type Config struct {
	TickInterval lib.Duration `json:"tickInterval" toml:"tick_interval"`
	// Charge is the pairwise node strength, negative values repel.
	Charge        float64 `json:"charge" toml:"charge"`
	LinkDistance  float64 `json:"linkDistance" toml:"link_distance"`
	VelocityDecay float64 `json:"velocityDecay" toml:"velocity_decay"`
	AlphaMin      float64 `json:"alphaMin" toml:"alpha_min"`
	// CoolingTicks is roughly how many ticks it takes alpha to fall to AlphaMin.
	CoolingTicks int `json:"coolingTicks" toml:"cooling_ticks"`
}

func DefaultConfig() Config {
	return Config{
		TickInterval:  lib.DurationFrom(16 * time.Millisecond),
		Charge:        -30,
		LinkDistance:  30,
		VelocityDecay: 0.4,
		AlphaMin:      0.001,
		CoolingTicks:  300,
	}
}

// ForceEngine is a minimal spring embedder: charged nodes repel, links pull towards a
// rest length, and the whole graph is kept centred on the origin.
type ForceEngine struct {
	cfg Config
}

var _ Engine = (*ForceEngine)(nil)

// Validate rejects settings the simulation cannot run with.
func (c Config) Validate() error {
	if c.TickInterval.Duration <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", c.TickInterval.Duration)
	}
	if c.CoolingTicks < 1 {
		return fmt.Errorf("cooling ticks must be at least 1, got %d", c.CoolingTicks)
	}
	if c.AlphaMin <= 0 || c.AlphaMin >= 1 {
		return fmt.Errorf("alpha min must be in (0, 1), got %g", c.AlphaMin)
	}
	return nil
}

func NewForceEngine(cfg Config) *ForceEngine {
	return &ForceEngine{cfg: cfg}
}

func (e *ForceEngine) Start(ctx context.Context, m graphs.Model, v Viewport) (<-chan Frame, error) {
	if !v.Valid() {
		return nil, ErrSurfaceUnavailable
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}

	sim := newSimulation(m, e.cfg)
	out := make(chan Frame, 1)

	go func() {
		defer close(out)

		ticker := time.NewTicker(e.cfg.TickInterval.Duration)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			sim.step()
			publishLatest(out, sim.frame())
		}
	}()

	return out, nil
}

// Settle runs steps ticks synchronously and returns the final positions, for exports
// that have no live canvas.
func (e *ForceEngine) Settle(m graphs.Model, steps int) map[string]Point {
	sim := newSimulation(m, e.cfg)
	for i := 0; i < steps && !sim.settled(); i++ {
		sim.step()
	}
	return sim.frame().Positions
}

// publishLatest replaces any unread frame so a slow reader skips straight to the
// newest positions. Only the simulation goroutine sends on out.
func publishLatest(out chan Frame, f Frame) {
	select {
	case out <- f:
		return
	default:
	}
	select {
	case <-out:
	default:
	}
	select {
	case out <- f:
	default:
	}
}

type body struct {
	id     string
	x, y   float64
	vx, vy float64
}

type spring struct {
	source, target int
	strength, bias float64
}

type simulation struct {
	cfg        Config
	bodies     []body
	springs    []spring
	alpha      float64
	alphaDecay float64
	tick       int
}

// Golden angle, seeds nodes on a phyllotaxis spiral so runs are deterministic.
var initialAngle = math.Pi * (3 - math.Sqrt(5))

func newSimulation(m graphs.Model, cfg Config) *simulation {
	s := &simulation{
		cfg:        cfg,
		alpha:      1,
		alphaDecay: 1 - math.Pow(cfg.AlphaMin, 1/float64(max(cfg.CoolingTicks, 1))),
	}

	for i, n := range m.Nodes {
		radius := 10 * math.Sqrt(0.5+float64(i))
		angle := float64(i) * initialAngle
		s.bodies = append(s.bodies, body{
			id: n.ID,
			x:  radius * math.Cos(angle),
			y:  radius * math.Sin(angle),
		})
	}

	index := m.Index()
	degree := make([]int, len(s.bodies))
	for _, e := range m.Edges {
		source, okSource := index[e.Source]
		target, okTarget := index[e.Target]
		if !okSource || !okTarget || source == target {
			continue
		}
		degree[source]++
		degree[target]++
		s.springs = append(s.springs, spring{source: source, target: target})
	}
	for i := range s.springs {
		sp := &s.springs[i]
		ds, dt := float64(degree[sp.source]), float64(degree[sp.target])
		sp.strength = 1 / math.Min(ds, dt)
		sp.bias = ds / (ds + dt)
	}

	return s
}

func (s *simulation) settled() bool {
	return s.alpha < s.cfg.AlphaMin
}

func (s *simulation) step() {
	s.tick++
	if s.settled() {
		return
	}
	s.alpha += -s.alpha * s.alphaDecay

	s.applySprings()
	s.applyCharge()

	decay := 1 - s.cfg.VelocityDecay
	for i := range s.bodies {
		b := &s.bodies[i]
		b.vx *= decay
		b.vy *= decay
		b.x += b.vx
		b.y += b.vy
	}

	s.centre()
}

func (s *simulation) applySprings() {
	for _, sp := range s.springs {
		src, dst := &s.bodies[sp.source], &s.bodies[sp.target]
		dx := dst.x + dst.vx - src.x - src.vx
		dy := dst.y + dst.vy - src.y - src.vy
		dx, dy = nudge(dx, dy, sp.source, sp.target)
		l := math.Sqrt(dx*dx + dy*dy)
		l = (l - s.cfg.LinkDistance) / l * s.alpha * sp.strength
		dx *= l
		dy *= l
		dst.vx -= dx * sp.bias
		dst.vy -= dy * sp.bias
		src.vx += dx * (1 - sp.bias)
		src.vy += dy * (1 - sp.bias)
	}
}

func (s *simulation) applyCharge() {
	for i := range s.bodies {
		for j := i + 1; j < len(s.bodies); j++ {
			a, b := &s.bodies[i], &s.bodies[j]
			dx, dy := nudge(b.x-a.x, b.y-a.y, i, j)
			l2 := dx*dx + dy*dy
			// Very close pairs would explode, clamp like d3 does with distanceMin.
			l2 = math.Max(l2, 1)
			w := s.cfg.Charge * s.alpha / l2
			a.vx += dx * w
			a.vy += dy * w
			b.vx -= dx * w
			b.vy -= dy * w
		}
	}
}

func (s *simulation) centre() {
	if len(s.bodies) == 0 {
		return
	}
	var sx, sy float64
	for _, b := range s.bodies {
		sx += b.x
		sy += b.y
	}
	sx /= float64(len(s.bodies))
	sy /= float64(len(s.bodies))
	for i := range s.bodies {
		s.bodies[i].x -= sx
		s.bodies[i].y -= sy
	}
}

// nudge separates coincident points by a tiny deterministic offset.
func nudge(dx, dy float64, i, j int) (float64, float64) {
	if dx == 0 && dy == 0 {
		dx = 1e-6 * float64(j-i)
		dy = 1e-6
	}
	return dx, dy
}

func (s *simulation) frame() Frame {
	positions := make(map[string]Point, len(s.bodies))
	for _, b := range s.bodies {
		positions[b.id] = Point{X: b.x, Y: b.y}
	}
	return Frame{
		Tick:      s.tick,
		Alpha:     s.alpha,
		Settled:   s.settled(),
		Positions: positions,
	}
}
