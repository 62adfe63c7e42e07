package store

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/psidex/dossiergraph/internal/dossier"
)

const dossierCypher = `
MATCH (p:Politician {id: $id})
OPTIONAL MATCH (p)-[:OWNS|PARTNER_OF]->(c:Company)
OPTIONAL MATCH (c)<-[:PARTNER_OF|RELATIVE_OF]-(s:Person)
WHERE s IS NULL OR s.id <> p.id
RETURN p.name AS subject, c.name AS entity, c.cnpj AS entityId, s.name AS person
ORDER BY c.name, s.name`

// Neo4jSource reads a politician, the companies they own or are partner of, and the
// other partners of those companies.
type Neo4jSource struct {
	driver   neo4j.DriverWithContext
	database string
}

var _ Source = (*Neo4jSource)(nil)

func NewNeo4jSource(ctx context.Context, uri, username, password, database string) (*Neo4jSource, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to connect to neo4j: %w", err)
	}
	return &Neo4jSource{driver: driver, database: database}, nil
}

func (s *Neo4jSource) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Neo4jSource) Dossier(ctx context.Context, id string) (dossier.Record, error) {
	opts := []neo4j.ExecuteQueryConfigurationOption{}
	if s.database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(s.database))
	}

	result, err := neo4j.ExecuteQuery(
		ctx, s.driver, dossierCypher, map[string]any{"id": id}, neo4j.EagerResultTransformer, opts...,
	)
	if err != nil {
		return dossier.Record{}, fmt.Errorf("failed to execute query: %w", err)
	}

	record, err := Assemble(rowsFromRecords(result.Records))
	if err != nil {
		return dossier.Record{}, fmt.Errorf("%q: %w", id, err)
	}
	return record, nil
}

func rowsFromRecords(records []*neo4j.Record) []Row {
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		subject, _ := r.Get("subject")
		entity, _ := r.Get("entity")
		entityID, _ := r.Get("entityId")
		person, _ := r.Get("person")
		rows = append(rows, Row{
			Subject:  valueString(subject),
			Entity:   valueString(entity),
			EntityID: valueString(entityID),
			Person:   valueString(person),
		})
	}
	return rows
}

// valueString turns a nullable property into a string, null becomes "".
func valueString(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
