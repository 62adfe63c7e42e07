package graphology

import (
	"github.com/psidex/dossiergraph/internal/graphs"
	"github.com/psidex/dossiergraph/internal/layout"
)

// Message types sent to the browser.
const (
	TypeModel  = "model"
	TypeLegend = "legend"
	TypeFrame  = "frame"
	TypeFit    = "fit"
	TypeCursor = "cursor"
	TypeNotice = "notice"
	TypeFault  = "fault"
)

// Message is the envelope for everything sent over the websocket.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type nodeAttributes struct {
	Label  string  `json:"label"`
	Color  string  `json:"color"`
	Size   float64 `json:"size"`
	Role   string  `json:"role"`
	Locked bool    `json:"locked"`
}

type node struct {
	Key        string         `json:"key"`
	Attributes nodeAttributes `json:"attributes"`
}

type edge struct {
	Key    string `json:"key"`
	Source string `json:"source"`
	Target string `json:"target"`
	Kind   string `json:"kind"`
}

type modelData struct {
	Generation int              `json:"generation"`
	Nodes      []node           `json:"nodes"`
	Edges      []edge           `json:"edges"`
	EdgeStyle  graphs.EdgeStyle `json:"edgeStyle"`
	Background string           `json:"background"`
}

type legendData struct {
	Entries []graphs.LegendEntry `json:"entries"`
}

type frameData struct {
	Generation int                     `json:"generation"`
	Tick       int                     `json:"tick"`
	Settled    bool                    `json:"settled"`
	Positions  map[string]layout.Point `json:"positions"`
}

type fitData struct {
	Generation   int           `json:"generation"`
	Camera       layout.Camera `json:"camera"`
	TransitionMs int64         `json:"transitionMs"`
}

type cursorData struct {
	Cursor string `json:"cursor"`
}

type noticeData struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Message string `json:"message"`
}

type faultData struct {
	Message string `json:"message"`
}
