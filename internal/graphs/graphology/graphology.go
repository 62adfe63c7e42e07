package graphology

import (
	"encoding/json"
	"io"
	"os"
	"strconv"

	"github.com/psidex/dossiergraph/internal/graphs"
	"github.com/psidex/dossiergraph/internal/layout"
	"github.com/psidex/dossiergraph/internal/lib"
)

// SettleSteps is how many simulation steps are run before positions are written.
const SettleSteps = 300

// Graphology defines a FileRenderer that renders a serialized Graphology graph to JSON,
// with node positions taken from a settled layout so that any Graphology viewer can
// draw it without running its own.
type Graphology struct {
	model  graphs.Model
	engine *layout.ForceEngine
}

var _ graphs.FileRenderer = (*Graphology)(nil)

func NewGraphology(m graphs.Model, engine *layout.ForceEngine) *Graphology {
	return &Graphology{model: m, engine: engine}
}

// Serialize builds the Graphology graph. Keys are the StrHasher ids of the node ids,
// the browser never sees a raw identifier.
func Serialize(m graphs.Model, positions map[string]layout.Point) SerializedGraph {
	hasher := lib.NewStrHasher()
	graph := SerializedGraph{
		// The model may hold parallel edges.
		Options: Options{Type: "directed", Multi: true},
		Nodes:   make([]Node, 0, len(m.Nodes)),
		Edges:   make([]Edge, 0, len(m.Edges)),
	}

	for _, n := range m.Nodes {
		style := graphs.StyleFor(n.Role)
		p := positions[n.ID]
		graph.Nodes = append(graph.Nodes, Node{
			Key: strconv.Itoa(hasher.Hash(n.ID)),
			Attributes: NodeAttributes{
				X:      p.X,
				Y:      p.Y,
				Size:   style.Size / 2,
				Label:  n.Label,
				Color:  style.Color,
				Role:   n.Role.String(),
				Weight: n.Weight,
				Locked: !graphs.Inspectable(n.Role),
			},
		})
	}

	for i, e := range m.Edges {
		graph.Edges = append(graph.Edges, Edge{
			Key:    strconv.Itoa(i + 1),
			Source: strconv.Itoa(hasher.Hash(e.Source)),
			Target: strconv.Itoa(hasher.Hash(e.Target)),
			Attributes: EdgeAttributes{
				Size:  graphs.DefaultEdgeStyle.Width,
				Color: graphs.DefaultEdgeStyle.Color,
				Kind:  string(e.Kind),
			},
		})
	}
	return graph
}

func (g Graphology) Render(w io.Writer) error {
	positions := g.engine.Settle(g.model, SettleSteps)
	marshalled, err := json.Marshal(Serialize(g.model, positions))
	if err != nil {
		return err
	}
	_, err = w.Write(marshalled)
	return err
}

func (g Graphology) RenderToFile(filename string) error {
	filename = filename + ".json"

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return g.Render(file)
}
