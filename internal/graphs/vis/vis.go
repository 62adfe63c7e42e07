package vis

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/psidex/dossiergraph/internal/graphs"
	"github.com/psidex/dossiergraph/internal/lib"
)

// Vis defines a FileRenderer that renders to a HTML file which "replays" the building
// of the graph using vis.js, root first.
type Vis struct {
	model  graphs.Model
	title  string
	hasher *lib.StrHasher
}

var _ graphs.FileRenderer = (*Vis)(nil)

func NewVis(m graphs.Model, title string) *Vis {
	return &Vis{
		model:  m,
		title:  title,
		hasher: lib.NewStrHasher(),
	}
}

// items returns one JSON object per line, nodes and edges in model order so that an
// edge is only ever added after both of its ends.
func (v Vis) items() ([]string, error) {
	var out []string
	add := func(item interface{}) error {
		itemJson, err := json.Marshal(item)
		if err != nil {
			return err
		}
		out = append(out, string(itemJson))
		return nil
	}

	added := lib.NewSet[string]()
	for _, n := range v.model.Nodes {
		style := graphs.StyleFor(n.Role)
		visNode := newNode()
		visNode.Data = nodeData{
			ID:     v.hasher.Hash(n.ID),
			Label:  n.Label,
			Color:  style.Color,
			Size:   style.Size / 2,
			Locked: !graphs.Inspectable(n.Role),
		}
		if err := add(visNode); err != nil {
			return nil, err
		}
		added.Add(n.ID)
	}

	for _, e := range v.model.Edges {
		if !added.Contains(e.Source) || !added.Contains(e.Target) {
			continue
		}
		visEdge := newEdge()
		visEdge.Data = edgeData{
			From:  v.hasher.Hash(e.Source),
			To:    v.hasher.Hash(e.Target),
			Color: graphs.DefaultEdgeStyle.Color,
			Kind:  string(e.Kind),
		}
		if err := add(visEdge); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (v Vis) Render(w io.Writer) error {
	items, err := v.items()
	if err != nil {
		return err
	}

	legend := make([]legendEntry, 0, 3)
	for _, entry := range graphs.Legend() {
		legend = append(legend, legendEntry{Label: entry.Label, Color: entry.Color})
	}
	legendJson, err := json.Marshal(legend)
	if err != nil {
		return err
	}
	noticeJson, err := json.Marshal(graphs.DenyNotice("%LABEL%"))
	if err != nil {
		return err
	}
	titleJson, err := json.Marshal(v.title)
	if err != nil {
		return err
	}

	var body strings.Builder
	for _, item := range items {
		body.WriteString("\n" + item + ",")
	}

	_, err = fmt.Fprintf(w, html, graphs.Background, titleJson, legendJson, body.String(), noticeJson)
	return err
}

func (v Vis) RenderToFile(filename string) error {
	filename = filename + ".html"

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return v.Render(file)
}
