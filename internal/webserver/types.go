package webserver

import (
	"encoding/json"

	"github.com/psidex/dossiergraph/internal/dossier"
	"github.com/psidex/dossiergraph/internal/layout"
)

// SessionConfig is the first message a live client sends. Exactly one of Dossier and
// DossierID should be set, Dossier wins if both are.
type SessionConfig struct {
	Viewport  layout.Viewport `json:"viewport"`
	Dossier   *dossier.Record `json:"dossier,omitempty"`
	DossierID string          `json:"dossierId,omitempty"`
}

// Client message types.
const (
	ClientResize  = "resize"
	ClientHover   = "hover"
	ClientClick   = "click"
	ClientDossier = "dossier"
)

// ClientMessage is every message after the SessionConfig.
type ClientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// nodeRef names a node by the key the browser was sent.
type nodeRef struct {
	Key string `json:"key"`
}

type dossierRef struct {
	Dossier   *dossier.Record `json:"dossier,omitempty"`
	DossierID string          `json:"dossierId,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}
