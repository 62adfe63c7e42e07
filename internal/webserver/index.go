package webserver

import (
	_ "embed"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed client.html
var clientPage string

// IndexHandler serves the live client. It opens /ws and sends the dossier named by the
// id query parameter, or one loaded from a local file.
func (s *Server) IndexHandler(c echo.Context) error {
	return c.HTML(http.StatusOK, clientPage)
}
