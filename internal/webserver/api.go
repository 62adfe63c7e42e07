package webserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/psidex/dossiergraph/internal/dossier"
	"github.com/psidex/dossiergraph/internal/graphs"
	"github.com/psidex/dossiergraph/internal/graphs/graphology"
	"github.com/psidex/dossiergraph/internal/graphs/vis"
	"github.com/psidex/dossiergraph/internal/store"
)

var errNoStore = errors.New("no dossier store configured")

// GraphHandler builds the model for the dossier in the request body.
func (s *Server) GraphHandler(c echo.Context) error {
	record, err := dossier.Decode(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	return s.writeModel(c, graphs.Build(record))
}

// StoredGraphHandler builds the model for a dossier from the configured store.
func (s *Server) StoredGraphHandler(c echo.Context) error {
	if s.source == nil {
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: errNoStore.Error()})
	}

	record, err := s.source.Dossier(c.Request().Context(), c.Param("id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrInvalidID), errors.Is(err, dossier.ErrMissingName):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case err != nil:
		s.logger.Error("Failed to load dossier", "id", c.Param("id"), "error", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to load dossier"})
	}
	return s.writeModel(c, graphs.Build(record))
}

func (s *Server) writeModel(c echo.Context, m graphs.Model) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c.Response().WriteHeader(http.StatusOK)
	return graphs.NewModelJSON(m).Render(c.Response())
}

// RenderHandler renders the dossier in the request body as a standalone export.
func (s *Server) RenderHandler(c echo.Context) error {
	record, err := dossier.Decode(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	m := graphs.Build(record)

	var renderer graphs.Renderer
	var contentType string
	switch c.Param("format") {
	case "echarts":
		renderer, contentType = graphs.NewECharts(m, record.Name), echo.MIMETextHTMLCharsetUTF8
	case "vis":
		renderer, contentType = vis.NewVis(m, record.Name), echo.MIMETextHTMLCharsetUTF8
	case "graphology":
		renderer, contentType = graphology.NewGraphology(m, s.engine), echo.MIMEApplicationJSON
	case "json":
		renderer, contentType = graphs.NewModelJSON(m), echo.MIMEApplicationJSON
	case "text":
		renderer, contentType = graphs.NewText(m), echo.MIMETextPlainCharsetUTF8
	default:
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "unknown format: " + c.Param("format")})
	}

	c.Response().Header().Set(echo.HeaderContentType, contentType)
	c.Response().WriteHeader(http.StatusOK)
	return renderer.Render(c.Response())
}
