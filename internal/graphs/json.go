package graphs

import (
	"encoding/json"
	"io"
	"os"
)

// ModelJSON defines a FileRenderer that writes the model and the fixed legend as JSON.
type ModelJSON struct {
	model Model
}

var _ FileRenderer = (*ModelJSON)(nil)

func NewModelJSON(m Model) ModelJSON {
	return ModelJSON{model: m}
}

type modelDocument struct {
	Nodes  []Node        `json:"nodes"`
	Edges  []Edge        `json:"edges"`
	Legend []LegendEntry `json:"legend"`
}

func newModelDocument(m Model) modelDocument {
	doc := modelDocument{Nodes: m.Nodes, Edges: m.Edges, Legend: Legend()}
	if doc.Nodes == nil {
		doc.Nodes = []Node{}
	}
	if doc.Edges == nil {
		doc.Edges = []Edge{}
	}
	return doc
}

func (j ModelJSON) Render(w io.Writer) error {
	jsonData, err := json.MarshalIndent(newModelDocument(j.model), "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(jsonData)
	return err
}

func (j ModelJSON) RenderToFile(filename string) error {
	filename = filename + ".json"

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return j.Render(file)
}
