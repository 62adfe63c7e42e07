package graphs

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/event"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// ECharts defines a FileRenderer that renders a go-echarts HTML page. The force layout
// runs in the browser.
type ECharts struct {
	model  Model
	title  string
	width  string
	height string
}

var _ FileRenderer = (*ECharts)(nil)

func NewECharts(m Model, title string) *ECharts {
	return &ECharts{
		model:  m,
		title:  title,
		width:  "100vw",
		height: "100vh",
	}
}

// WithSize sets the chart size in CSS units.
func (e *ECharts) WithSize(width, height string) *ECharts {
	e.width = width
	e.height = height
	return e
}

func (e ECharts) RenderToFile(filename string) error {
	filename = filename + ".html"

	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	return e.Render(f)
}

func (e ECharts) Render(w io.Writer) error {
	graph, err := e.graph()
	if err != nil {
		return err
	}
	page := components.NewPage()
	page.SetPageTitle(e.title)
	page.AddCharts(graph)
	return page.Render(io.MultiWriter(w))
}

// categoryIndex maps roles to the legend categories, unknown roles have none.
func categoryIndex(role Role) (int, bool) {
	for i, entry := range Legend() {
		if entry.Role == role {
			return i, true
		}
	}
	return 0, false
}

func (e ECharts) graph() (*charts.Graph, error) {
	legend := Legend()
	categories := make([]*opts.GraphCategory, 0, len(legend))
	legendNames := make([]string, 0, len(legend))
	for _, entry := range legend {
		categories = append(categories, &opts.GraphCategory{
			Name:      entry.Label,
			ItemStyle: &opts.ItemStyle{Color: entry.Color},
		})
		legendNames = append(legendNames, entry.Label)
	}

	labels := make(map[string]string, len(e.model.Nodes))
	locked := make(map[string]bool, len(e.model.Nodes))
	nodes := make([]opts.GraphNode, 0, len(e.model.Nodes))
	for _, n := range e.model.Nodes {
		style := StyleFor(n.Role)
		node := opts.GraphNode{
			Name:       n.ID,
			Value:      float32(n.Weight),
			SymbolSize: style.Size,
			ItemStyle:  &opts.ItemStyle{Color: style.Color},
		}
		if idx, ok := categoryIndex(n.Role); ok {
			node.Category = idx
		}
		nodes = append(nodes, node)
		labels[n.ID] = n.Label
		locked[n.ID] = !Inspectable(n.Role)
	}

	edgeStyle := DefaultEdgeStyle
	links := make([]opts.GraphLink, 0, len(e.model.Edges))
	for _, edge := range e.model.Edges {
		links = append(links, opts.GraphLink{Source: edge.Source, Target: edge.Target})
	}

	labelsJson, err := json.Marshal(labels)
	if err != nil {
		return nil, err
	}
	lockedJson, err := json.Marshal(locked)
	if err != nil {
		return nil, err
	}
	// DenyNotice with a placeholder so the browser can substitute the clicked label.
	noticeJson, err := json.Marshal(DenyNotice("%LABEL%"))
	if err != nil {
		return nil, err
	}

	labelFn := fmt.Sprintf(`function (p) { var l = %s; return l[p.name] || p.name; }`, labelsJson)
	clickFn := fmt.Sprintf(
		`function (p) {
			var l = %s;
			var locked = %s;
			if (p.dataType !== 'node' || !locked[p.name]) { return; }
			alert(%s.replace('%%LABEL%%', l[p.name] || p.name));
		}`,
		labelsJson, lockedJson, noticeJson,
	)

	graph := charts.NewGraph()
	graph.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:       e.title,
			Height:          e.height,
			Width:           e.width,
			BackgroundColor: Background,
		}),
		charts.WithLegendOpts(opts.Legend{
			Show:      opts.Bool(true),
			Data:      legendNames,
			Left:      "16",
			Top:       "16",
			Orient:    "vertical",
			TextStyle: &opts.TextStyle{Color: "#d4d4d8"},
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:      opts.Bool(true),
			Formatter: opts.FuncOpts(labelFn),
		}),
		charts.WithEventListeners(event.Listener{
			EventName: "click",
			Handler:   opts.FuncOpts(clickFn),
		}),
	)
	graph.AddSeries(
		"dossier",
		nodes,
		links,
		charts.WithGraphChartOpts(
			opts.GraphChart{
				Layout:         "force",
				Draggable:      opts.Bool(true),
				Roam:           opts.Bool(true),
				Force:          &opts.GraphForce{Repulsion: 400, Gravity: 0.1, EdgeLength: 30},
				Categories:     categories,
				EdgeSymbol:     []string{"none", "arrow"},
				EdgeSymbolSize: []int{0, 6},
			},
		),
		charts.WithLabelOpts(opts.Label{
			Show:      opts.Bool(true),
			Color:     "#e4e4e7",
			Position:  "top",
			Formatter: opts.FuncOpts(labelFn),
		}),
		charts.WithLineStyleOpts(opts.LineStyle{
			Color: edgeStyle.Color,
			Width: float32(edgeStyle.Width),
		}),
	)
	return graph, nil
}
