package vis

type nodeData struct {
	ID     int     `json:"id"`
	Label  string  `json:"label"`
	Color  string  `json:"color"`
	Size   float64 `json:"size"`
	Locked bool    `json:"locked"`
}

type node struct {
	Type string   `json:"type"` // always "node"
	Data nodeData `json:"data"`
}

func newNode() node {
	return node{Type: "node"}
}

type edgeData struct {
	From  int    `json:"from"`
	To    int    `json:"to"`
	Color string `json:"color"`
	Kind  string `json:"kind"`
}

type edge struct {
	Type string   `json:"type"` // always "edge"
	Data edgeData `json:"data"`
}

func newEdge() edge {
	return edge{Type: "edge"}
}

type legendEntry struct {
	Label string `json:"label"`
	Color string `json:"color"`
}
