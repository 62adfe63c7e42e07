package webserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/psidex/dossiergraph/internal/dossier"
	"github.com/psidex/dossiergraph/internal/graphology"
	"github.com/psidex/dossiergraph/internal/graphs"
	"github.com/psidex/dossiergraph/internal/layout"
	"github.com/psidex/dossiergraph/internal/lib"
	"github.com/psidex/dossiergraph/internal/visualizer"
)

var (
	upgrader = websocket.Upgrader{}

	errNoDossier = errors.New("session has no dossier")
)

func init() {
	upgrader.CheckOrigin = func(r *http.Request) bool { return true }
}

// Session upgrades to a websocket and drives one Visualizer for as long as the client
// stays connected.
func (s *Server) Session(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.logger.Error("ws upgrade failed", "error", err)
		return nil
	}
	defer conn.Close()

	ws := lib.NewThreadSafeWebSocket(conn)
	logger := s.logger.With("session", uuid.NewString())
	ctx := c.Request().Context()

	_, msg, err := ws.ReadMessage()
	if err != nil {
		logger.Error("ws cfg read failed", "error", err)
		return nil
	}

	cfg := &SessionConfig{}
	if err = json.Unmarshal(msg, cfg); err != nil {
		logger.Error("ws cfg unmarshal failed", "error", err)
		return nil
	}

	surface := graphology.NewGraphologyWs(logger, ws)

	record, err := s.resolve(ctx, cfg.Dossier, cfg.DossierID)
	if err != nil {
		logger.Error("Session dossier unavailable", "dossierId", cfg.DossierID, "error", err)
		surface.Fault(err.Error())
		return nil
	}

	v := visualizer.New(logger, s.engine, surface, cfg.Viewport, s.cfg.Visualizer)
	defer v.Close()

	logger.Info("Session started", "dossier", record.Name)
	v.SetModel(graphs.Build(record))

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			// Also how a closed tab ends the session.
			logger.Info("Session ended", "reason", err)
			return nil
		}
		if err := s.handleClientMessage(ctx, v, surface, msg); err != nil {
			logger.Warn("Client message ignored", "error", err)
		}
	}
}

func (s *Server) handleClientMessage(ctx context.Context, v *visualizer.Visualizer, surface *graphology.GraphologyWs, msg []byte) error {
	var cm ClientMessage
	if err := json.Unmarshal(msg, &cm); err != nil {
		return fmt.Errorf("unmarshal client message: %w", err)
	}

	switch cm.Type {
	case ClientResize:
		var viewport layout.Viewport
		if err := json.Unmarshal(cm.Data, &viewport); err != nil {
			return fmt.Errorf("unmarshal resize: %w", err)
		}
		v.Resize(viewport)

	case ClientHover:
		var ref nodeRef
		if err := json.Unmarshal(cm.Data, &ref); err != nil {
			return fmt.Errorf("unmarshal hover: %w", err)
		}
		// Unknown keys are hovering over nothing.
		id, _ := surface.Resolve(ref.Key)
		surface.Cursor(v.Hover(id))

	case ClientClick:
		var ref nodeRef
		if err := json.Unmarshal(cm.Data, &ref); err != nil {
			return fmt.Errorf("unmarshal click: %w", err)
		}
		id, ok := surface.Resolve(ref.Key)
		if !ok {
			return fmt.Errorf("click %q: %w", ref.Key, visualizer.ErrUnknownNode)
		}
		if _, err := v.ClickID(id); err != nil {
			return err
		}

	case ClientDossier:
		var ref dossierRef
		if err := json.Unmarshal(cm.Data, &ref); err != nil {
			return fmt.Errorf("unmarshal dossier: %w", err)
		}
		record, err := s.resolve(ctx, ref.Dossier, ref.DossierID)
		if err != nil {
			return err
		}
		v.SetModel(graphs.Build(record))

	default:
		return fmt.Errorf("unknown client message type %q", cm.Type)
	}
	return nil
}

// resolve returns the inline dossier if there is one, otherwise loads id from the
// configured store.
func (s *Server) resolve(ctx context.Context, inline *dossier.Record, id string) (dossier.Record, error) {
	if inline != nil {
		if err := inline.Validate(); err != nil {
			return dossier.Record{}, err
		}
		return *inline, nil
	}
	if id == "" {
		return dossier.Record{}, errNoDossier
	}
	if s.source == nil {
		return dossier.Record{}, errNoStore
	}
	return s.source.Dossier(ctx, id)
}
