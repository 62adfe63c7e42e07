package visualizer

import (
	"github.com/psidex/dossiergraph/internal/graphs"
	"github.com/psidex/dossiergraph/internal/layout"
)

type SceneNode struct {
	graphs.Node
	Style    graphs.Style  `json:"style"`
	Position *layout.Point `json:"position,omitempty"`
}

type SceneEdge struct {
	graphs.Edge
	Style graphs.EdgeStyle `json:"style"`
}

// Scene is a snapshot of everything currently drawn.
type Scene struct {
	Generation int                  `json:"generation"`
	Viewport   layout.Viewport      `json:"viewport"`
	Camera     *layout.Camera       `json:"camera,omitempty"`
	Legend     []graphs.LegendEntry `json:"legend"`
	Nodes      []SceneNode          `json:"nodes"`
	Edges      []SceneEdge          `json:"edges"`
	Faulted    bool                 `json:"faulted"`
}

func (v *Visualizer) Scene() Scene {
	v.mu.Lock()
	defer v.mu.Unlock()

	scene := Scene{
		Generation: v.generation,
		Viewport:   v.viewport,
		Legend:     graphs.Legend(),
		Nodes:      make([]SceneNode, 0, len(v.model.Nodes)),
		Edges:      make([]SceneEdge, 0, len(v.model.Edges)),
		Faulted:    v.faulted,
	}
	if v.camera != nil {
		camera := *v.camera
		scene.Camera = &camera
	}
	for _, n := range v.model.Nodes {
		node := SceneNode{Node: n, Style: graphs.StyleFor(n.Role)}
		if p, ok := v.positions[n.ID]; ok {
			node.Position = &p
		}
		scene.Nodes = append(scene.Nodes, node)
	}
	for _, e := range v.model.Edges {
		scene.Edges = append(scene.Edges, SceneEdge{Edge: e, Style: graphs.DefaultEdgeStyle})
	}
	return scene
}
