package graphology

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/psidex/dossiergraph/internal/graphs"
	"github.com/psidex/dossiergraph/internal/layout"
	"github.com/psidex/dossiergraph/internal/lib"
	"github.com/psidex/dossiergraph/internal/visualizer"
)

// JSONWriter is the write half of a websocket, lib.ThreadSafeWebSocket in production.
type JSONWriter interface {
	WriteJSON(v any) error
}

// GraphologyWs defines a visualizer.Surface that streams Graphology shaped graph data
// to the live client as JSON over a websocket. Node keys are StrHasher ids so the
// browser only ever echoes back keys, which Resolve turns back into node ids.
type GraphologyWs struct {
	logger *slog.Logger
	hasher *lib.StrHasher
	ws     JSONWriter
}

var _ visualizer.Surface = (*GraphologyWs)(nil)

func NewGraphologyWs(logger *slog.Logger, ws JSONWriter) *GraphologyWs {
	return &GraphologyWs{
		logger: logger,
		hasher: lib.NewStrHasher(),
		ws:     ws,
	}
}

func (g *GraphologyWs) key(id string) string {
	return strconv.Itoa(g.hasher.Hash(id))
}

// Resolve returns the node id that was sent to the browser as key.
func (g *GraphologyWs) Resolve(key string) (string, bool) {
	id, err := strconv.Atoi(key)
	if err != nil {
		return "", false
	}
	return g.hasher.Reverse(id)
}

func (g *GraphologyWs) send(msgType string, data interface{}) {
	if err := g.ws.WriteJSON(Message{Type: msgType, Data: data}); err != nil {
		g.logger.Error("ws.WriteJSON failed", "type", msgType, "error", err)
	}
}

func (g *GraphologyWs) Model(generation int, m graphs.Model) {
	data := modelData{
		Generation: generation,
		Nodes:      make([]node, 0, len(m.Nodes)),
		Edges:      make([]edge, 0, len(m.Edges)),
		EdgeStyle:  graphs.DefaultEdgeStyle,
		Background: graphs.Background,
	}
	for _, n := range m.Nodes {
		style := graphs.StyleFor(n.Role)
		data.Nodes = append(data.Nodes, node{
			Key: g.key(n.ID),
			Attributes: nodeAttributes{
				Label:  n.Label,
				Color:  style.Color,
				Size:   style.Size,
				Role:   n.Role.String(),
				Locked: !graphs.Inspectable(n.Role),
			},
		})
	}
	for i, e := range m.Edges {
		data.Edges = append(data.Edges, edge{
			Key:    strconv.Itoa(i + 1),
			Source: g.key(e.Source),
			Target: g.key(e.Target),
			Kind:   string(e.Kind),
		})
	}
	g.send(TypeModel, data)
	g.send(TypeLegend, legendData{Entries: graphs.Legend()})
}

func (g *GraphologyWs) Frame(generation int, f layout.Frame) {
	positions := make(map[string]layout.Point, len(f.Positions))
	for id, p := range f.Positions {
		positions[g.key(id)] = p
	}
	g.send(TypeFrame, frameData{
		Generation: generation,
		Tick:       f.Tick,
		Settled:    f.Settled,
		Positions:  positions,
	})
}

func (g *GraphologyWs) Fit(generation int, c layout.Camera, transition time.Duration) {
	g.send(TypeFit, fitData{
		Generation:   generation,
		Camera:       c,
		TransitionMs: transition.Milliseconds(),
	})
}

func (g *GraphologyWs) Notice(n visualizer.Notice) {
	g.send(TypeNotice, noticeData{Key: g.key(n.NodeID), Label: n.Label, Message: n.Message})
}

func (g *GraphologyWs) Fault(message string) {
	g.send(TypeFault, faultData{Message: message})
}

// Cursor answers a hover.
func (g *GraphologyWs) Cursor(c visualizer.Cursor) {
	g.send(TypeCursor, cursorData{Cursor: string(c)})
}
