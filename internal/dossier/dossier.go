package dossier

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrMissingName is returned when a dossier has no root entity name.
var ErrMissingName = errors.New("dossier has no root name")

// Record is a dossier as delivered by the dossier API: a public official and the
// companies declared against them. Field names follow the API's JSON.
type Record struct {
	Name     string   `json:"nome"`
	Entities []Entity `json:"empresas,omitempty"`
}

// Entity is a company or organisation linked to the root official.
type Entity struct {
	Name string `json:"nome"`
	// StableID is the CNPJ, it may be absent.
	StableID string   `json:"cnpj,omitempty"`
	Persons  []string `json:"socios,omitempty"`
}

// ID returns the entity's identity key, falling back to its name when there is no
// stable identifier.
func (e Entity) ID() string {
	if e.StableID != "" {
		return e.StableID
	}
	return e.Name
}

// Decode reads a single Record from r. Missing optional lists are left nil, which the
// graph builder treats as empty.
func Decode(r io.Reader) (Record, error) {
	var rec Record
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return Record{}, fmt.Errorf("decode dossier: %w", err)
	}
	if err := rec.Validate(); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Load decodes the dossier stored in the JSON file at path.
func Load(path string) (Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return Record{}, fmt.Errorf("open dossier: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Validate checks the only required field.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrMissingName
	}
	return nil
}
