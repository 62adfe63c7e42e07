package graphs

import "encoding/json"

// Role is what a node stands for in a dossier.
type Role int

const (
	RoleUnknown Role = iota
	// RoleRoot is the official the dossier is about.
	RoleRoot
	// RoleLinked is a company linked to the root.
	RoleLinked
	// RolePerson is a partner, relative or proxy behind a linked company.
	RolePerson
)

var roleNames = map[Role]string{
	RoleUnknown: "unknown",
	RoleRoot:    "root",
	RoleLinked:  "linked",
	RolePerson:  "person",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return roleNames[RoleUnknown]
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	for role, name := range roleNames {
		if name == string(b) {
			*r = role
			return nil
		}
	}
	*r = RoleUnknown
	return nil
}

// Weight is the fixed relative size hint for the role.
func (r Role) Weight() float64 {
	switch r {
	case RoleRoot:
		return 20
	case RoleLinked:
		return 10
	default:
		return 5
	}
}

// EdgeKind labels why two nodes are connected. It is data only and never changes how
// an edge is drawn.
type EdgeKind string

const (
	// KindAffiliation links a company to the root official.
	KindAffiliation EdgeKind = "affiliation"
	// KindAssociation links a person to a company.
	KindAssociation EdgeKind = "association"
)

type Node struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	Role   Role    `json:"role"`
	Weight float64 `json:"weight"`
}

type Edge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Kind   EdgeKind `json:"kind"`
}

// Model is the normalised graph of a single dossier. Nodes and Edges are in insertion
// order and the model is treated as read-only once built.
type Model struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Empty reports whether the model has no nodes.
func (m Model) Empty() bool {
	return len(m.Nodes) == 0
}

// Node returns the node with the given id.
func (m Model) Node(id string) (Node, bool) {
	for _, n := range m.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Index maps node ids to their position in Nodes.
func (m Model) Index() map[string]int {
	idx := make(map[string]int, len(m.Nodes))
	for i, n := range m.Nodes {
		idx[n.ID] = i
	}
	return idx
}

// MarshalJSON keeps empty models as [] rather than null so clients can iterate.
func (m Model) MarshalJSON() ([]byte, error) {
	type plain Model
	out := plain(m)
	if out.Nodes == nil {
		out.Nodes = []Node{}
	}
	if out.Edges == nil {
		out.Edges = []Edge{}
	}
	return json.Marshal(out)
}
