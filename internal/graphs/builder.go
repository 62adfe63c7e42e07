package graphs

import (
	"github.com/psidex/dossiergraph/internal/dossier"
	"github.com/psidex/dossiergraph/internal/lib"
)

// Build turns a dossier into its graph model. It never fails: missing optional fields
// fall back to defaults, and the same record always gives the same model.
//
// The root node is created first so its id wins any collision. A company whose id
// equals the root id is taken to be the root itself: it gets no node and no
// affiliation edge, but its persons still attach to the root.
func Build(rec dossier.Record) Model {
	b := builder{seen: lib.NewSet[string]()}

	b.addNode(rec.Name, rec.Name, RoleRoot)

	for _, entity := range rec.Entities {
		entityID := entity.ID()
		if entityID != rec.Name {
			b.addNode(entityID, entity.Name, RoleLinked)
			b.addEdge(entityID, rec.Name, KindAffiliation)
		}

		for _, person := range entity.Persons {
			b.addNode(person, person, RolePerson)
			b.addEdge(person, entityID, KindAssociation)
		}
	}

	return b.model
}

type builder struct {
	seen  lib.Set[string]
	model Model
}

// addNode creates the node unless the id is taken, the first role for an id sticks.
func (b *builder) addNode(id, label string, role Role) {
	if !b.seen.Add(id) {
		return
	}
	b.model.Nodes = append(b.model.Nodes, Node{
		ID:     id,
		Label:  label,
		Role:   role,
		Weight: role.Weight(),
	})
}

// Edges are per source record, so parallel edges are kept.
func (b *builder) addEdge(source, target string, kind EdgeKind) {
	b.model.Edges = append(b.model.Edges, Edge{Source: source, Target: target, Kind: kind})
}
