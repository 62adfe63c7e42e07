// Package store loads dossiers from where they are kept: a directory of JSON files, a
// Neo4j graph or a PostgreSQL database.
package store

import (
	"context"
	"errors"

	"github.com/psidex/dossiergraph/internal/dossier"
)

var (
	ErrNotFound  = errors.New("dossier not found")
	ErrInvalidID = errors.New("invalid dossier id")
)

type Source interface {
	Dossier(ctx context.Context, id string) (dossier.Record, error)
}

// Row is one line of a flattened dossier query. Entity and person columns are empty
// when the subject has no entities or the entity has no persons.
type Row struct {
	Subject  string
	Entity   string
	EntityID string
	Person   string
}

// Assemble folds query rows back into a record. Entities and persons keep the order in
// which they first appear, a person repeated under the same entity is kept once.
func Assemble(rows []Row) (dossier.Record, error) {
	if len(rows) == 0 {
		return dossier.Record{}, ErrNotFound
	}

	record := dossier.Record{Name: rows[0].Subject}
	index := make(map[string]int)
	persons := make(map[string]map[string]bool)

	for _, row := range rows {
		if row.Entity == "" && row.EntityID == "" {
			continue
		}
		entity := dossier.Entity{Name: row.Entity, StableID: row.EntityID}
		key := entity.ID()

		i, ok := index[key]
		if !ok {
			i = len(record.Entities)
			index[key] = i
			persons[key] = make(map[string]bool)
			record.Entities = append(record.Entities, entity)
		}

		if row.Person == "" || persons[key][row.Person] {
			continue
		}
		persons[key][row.Person] = true
		record.Entities[i].Persons = append(record.Entities[i].Persons, row.Person)
	}

	if err := record.Validate(); err != nil {
		return dossier.Record{}, err
	}
	return record, nil
}
