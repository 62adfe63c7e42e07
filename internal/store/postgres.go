package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/psidex/dossiergraph/internal/dossier"
)

const dossierSQL = `
SELECT
	d.name,
	COALESCE(e.name, ''),
	COALESCE(e.cnpj, ''),
	COALESCE(p.name, '')
FROM dossiers d
LEFT JOIN dossier_entities e ON e.dossier_id = d.id
LEFT JOIN entity_persons p ON p.entity_id = e.id
WHERE d.id = $1
ORDER BY e.position, p.position`

// PostgresSource reads dossiers from the dossiers, dossier_entities and entity_persons
// tables.
type PostgresSource struct {
	pool *pgxpool.Pool
}

var _ Source = (*PostgresSource)(nil)

func NewPostgresSource(ctx context.Context, url string) (*PostgresSource, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &PostgresSource{pool: pool}, nil
}

func (s *PostgresSource) Close() {
	s.pool.Close()
}

func (s *PostgresSource) Dossier(ctx context.Context, id string) (dossier.Record, error) {
	rows, err := s.pool.Query(ctx, dossierSQL, id)
	if err != nil {
		return dossier.Record{}, fmt.Errorf("failed to query dossier: %w", err)
	}
	defer rows.Close()

	var flat []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.Subject, &row.Entity, &row.EntityID, &row.Person); err != nil {
			return dossier.Record{}, fmt.Errorf("failed to scan dossier row: %w", err)
		}
		flat = append(flat, row)
	}
	if err := rows.Err(); err != nil {
		return dossier.Record{}, fmt.Errorf("failed to read dossier rows: %w", err)
	}

	record, err := Assemble(flat)
	if err != nil {
		return dossier.Record{}, fmt.Errorf("%q: %w", id, err)
	}
	return record, nil
}
