package graphs

import "math"

// Colours shared with the dashboard legend, they must not drift.
const (
	ColorRoot     = "#10b981"
	ColorLinked   = "#a855f7"
	ColorPerson   = "#f43f5e"
	ColorUnknown  = "#52525b"
	ColorEdge     = "rgba(168, 85, 247, 0.2)"
	ColorParticle = "#a855f7"
	Background    = "#0a0a0a"
)

// nodeRelSize is the radius of a weight 1 node in pixels.
const nodeRelSize = 4

// Style is how a node is drawn.
type Style struct {
	Color string  `json:"color"`
	Size  float64 `json:"size"`
}

// EdgeStyle is shared by every edge, whatever its kind.
type EdgeStyle struct {
	Color         string  `json:"color"`
	Width         float64 `json:"width"`
	Particles     int     `json:"particles"`
	ParticleColor string  `json:"particleColor"`
	ParticleSpeed float64 `json:"particleSpeed"`
}

var DefaultEdgeStyle = EdgeStyle{
	Color:         ColorEdge,
	Width:         1,
	Particles:     4,
	ParticleColor: ColorParticle,
	ParticleSpeed: 0.005,
}

// StyleFor maps a role to its colour and symbol diameter. Unmapped roles are grey and
// as small as a person.
func StyleFor(role Role) Style {
	switch role {
	case RoleRoot:
		return Style{Color: ColorRoot, Size: symbolSize(RoleRoot.Weight())}
	case RoleLinked:
		return Style{Color: ColorLinked, Size: symbolSize(RoleLinked.Weight())}
	case RolePerson:
		return Style{Color: ColorPerson, Size: symbolSize(RolePerson.Weight())}
	default:
		return Style{Color: ColorUnknown, Size: symbolSize(RolePerson.Weight())}
	}
}

func symbolSize(weight float64) float64 {
	return 2 * nodeRelSize * math.Sqrt(weight)
}

type LegendEntry struct {
	Role  Role   `json:"role"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// Legend is the fixed three-swatch legend. It does not depend on the model so the
// visual vocabulary is the same for every dossier.
func Legend() []LegendEntry {
	return []LegendEntry{
		{Role: RoleRoot, Label: "Central Point", Color: ColorRoot},
		{Role: RoleLinked, Label: "Financial Entity", Color: ColorLinked},
		{Role: RolePerson, Label: "Partner / Relative", Color: ColorPerson},
	}
}
