package graphology

type NodeAttributes struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Size   float64 `json:"size"`
	Label  string  `json:"label"`
	Color  string  `json:"color"`
	Role   string  `json:"role"`
	Weight float64 `json:"weight"`
	Locked bool    `json:"locked"`
}

type Node struct {
	Key        string         `json:"key"`
	Attributes NodeAttributes `json:"attributes"`
}

type EdgeAttributes struct {
	Size  float64 `json:"size"`
	Color string  `json:"color"`
	Kind  string  `json:"kind"`
}

type Edge struct {
	Key        string         `json:"key"`
	Source     string         `json:"source"`
	Target     string         `json:"target"`
	Attributes EdgeAttributes `json:"attributes"`
}

type Options struct {
	Type  string `json:"type"`
	Multi bool   `json:"multi"`
}

type SerializedGraph struct {
	Options Options `json:"options"`
	Nodes   []Node  `json:"nodes"`
	Edges   []Edge  `json:"edges"`
}
