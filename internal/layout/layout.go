// Package layout positions graph nodes with a force-directed simulation.
//
// An Engine, given a model, continuously emits node positions until its context is
// cancelled. Fit turns a set of positions into a camera that shows all of them.
package layout

import (
	"context"
	"errors"
	"math"

	"github.com/psidex/dossiergraph/internal/graphs"
)

// ErrSurfaceUnavailable is returned when there is nothing to lay out onto.
var ErrSurfaceUnavailable = errors.New("rendering surface unavailable")

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Viewport is a size in device independent pixels.
type Viewport struct {
	Width  float64 `json:"width" toml:"width"`
	Height float64 `json:"height" toml:"height"`
}

func (v Viewport) Valid() bool {
	return v.Width > 0 && v.Height > 0
}

// Frame is one step of a simulation.
type Frame struct {
	Tick  int     `json:"tick"`
	Alpha float64 `json:"alpha"`
	// Settled is set once the simulation has cooled, positions no longer change.
	Settled   bool             `json:"settled"`
	Positions map[string]Point `json:"positions"`
}

// Engine is the layout capability the visualizer depends on.
type Engine interface {
	// Start runs a simulation of m until ctx is done. The channel only ever holds the
	// latest frame and is closed when the simulation stops.
	Start(ctx context.Context, m graphs.Model, v Viewport) (<-chan Frame, error)
}

// Rect is an axis aligned bounding box in layout space.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

func (r Rect) Width() float64  { return r.MaxX - r.MinX }
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

func (r Rect) Center() Point {
	return Point{X: (r.MinX + r.MaxX) / 2, Y: (r.MinY + r.MaxY) / 2}
}

// Bounds returns the box around all positions, false if there are none.
func Bounds(positions map[string]Point) (Rect, bool) {
	if len(positions) == 0 {
		return Rect{}, false
	}
	r := Rect{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
	for _, p := range positions {
		r.MinX = math.Min(r.MinX, p.X)
		r.MinY = math.Min(r.MinY, p.Y)
		r.MaxX = math.Max(r.MaxX, p.X)
		r.MaxY = math.Max(r.MaxY, p.Y)
	}
	return r, true
}

const (
	MinZoom float64 = 0.1
	MaxZoom float64 = 8
)

// Camera centres the viewport on a layout point at a zoom factor.
type Camera struct {
	Center Point   `json:"center"`
	Zoom   float64 `json:"zoom"`
}

// Fit returns the camera that shows r inside v with padding pixels on every side.
func Fit(r Rect, v Viewport, padding float64) Camera {
	zoom := MaxZoom
	if w := r.Width(); w > 0 {
		zoom = math.Min(zoom, (v.Width-2*padding)/w)
	}
	if h := r.Height(); h > 0 {
		zoom = math.Min(zoom, (v.Height-2*padding)/h)
	}
	zoom = math.Max(MinZoom, math.Min(MaxZoom, zoom))
	return Camera{Center: r.Center(), Zoom: zoom}
}
