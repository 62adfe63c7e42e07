package webserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/psidex/dossiergraph/internal/config"
	"github.com/psidex/dossiergraph/internal/dossier"
	"github.com/psidex/dossiergraph/internal/graphs"
	"github.com/psidex/dossiergraph/internal/layout"
	"github.com/psidex/dossiergraph/internal/lib"
	"github.com/psidex/dossiergraph/internal/store"
	"github.com/psidex/dossiergraph/internal/visualizer"
)

var testViewport = layout.Viewport{Width: 800, Height: 600}

const testDossier = `{"nome": "Ana Lima", "empresas": [{"nome": "Alpha Ltda", "cnpj": "111", "socios": ["Bruno Reis"]}]}`

func newTestServer(t *testing.T, source store.Source) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Address = "127.0.0.1:0"
	cfg.Server.GrpcAddress = "127.0.0.1:0"
	cfg.Server.ShutdownTimeout = lib.DurationFrom(time.Second)
	cfg.Visualizer.SettleDelay = lib.DurationFrom(10 * time.Millisecond)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(logger, &cfg, source)
}

func newFileSource(t *testing.T) store.Source {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "42.json"), []byte(testDossier), 0o600))
	return store.NewFileSource(dir)
}

func serve(s *Server, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestRoutes(t *testing.T) {
	s := newTestServer(t, newFileSource(t))

	t.Run("Health", func(t *testing.T) {
		rec := serve(s, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "OK", rec.Body.String())
	})

	t.Run("Index serves the live client", func(t *testing.T) {
		rec := serve(s, http.MethodGet, "/", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `<canvas id="graph">`)
		assert.Contains(t, rec.Body.String(), "/ws")
	})

	t.Run("Graph from body", func(t *testing.T) {
		rec := serve(s, http.MethodPost, "/api/graph", testDossier)
		require.Equal(t, http.StatusOK, rec.Code)

		var doc struct {
			Nodes  []graphs.Node        `json:"nodes"`
			Edges  []graphs.Edge        `json:"edges"`
			Legend []graphs.LegendEntry `json:"legend"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
		assert.Len(t, doc.Nodes, 3)
		assert.Len(t, doc.Edges, 2)
		assert.Equal(t, graphs.Legend(), doc.Legend)
	})

	t.Run("Graph from bad bodies", func(t *testing.T) {
		for _, body := range []string{"", "{", `{"nome": ""}`} {
			rec := serve(s, http.MethodPost, "/api/graph", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, "Expected %q to be rejected", body)
		}
	})

	t.Run("Render formats", func(t *testing.T) {
		formats := map[string]string{
			"echarts":    "text/html",
			"vis":        "text/html",
			"graphology": "application/json",
			"json":       "application/json",
			"text":       "text/plain",
		}
		for format, contentType := range formats {
			rec := serve(s, http.MethodPost, "/api/render/"+format, testDossier)
			assert.Equal(t, http.StatusOK, rec.Code, format)
			assert.Contains(t, rec.Header().Get("Content-Type"), contentType, format)
			assert.Contains(t, rec.Body.String(), "Alpha Ltda", format)
		}

		rec := serve(s, http.MethodPost, "/api/render/pdf", testDossier)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Stored graph", func(t *testing.T) {
		rec := serve(s, http.MethodGet, "/api/dossiers/42/graph", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Bruno Reis")

		rec = serve(s, http.MethodGet, "/api/dossiers/43/graph", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = serve(s, http.MethodGet, "/api/dossiers/.hidden/graph", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Stored graph without a store", func(t *testing.T) {
		rec := serve(newTestServer(t, nil), http.MethodGet, "/api/dossiers/42/graph", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

type received struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

// readUntil skips messages, frames mostly, until one of msgType arrives.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg received
		require.NoError(t, conn.ReadJSON(&msg), "Waiting for %s", msgType)
		if msg.Type == msgType {
			return msg.Data
		}
	}
}

func dial(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestSession(t *testing.T) {
	t.Run("Live session", func(t *testing.T) {
		conn := dial(t, newTestServer(t, nil))

		var record dossier.Record
		require.NoError(t, json.Unmarshal([]byte(testDossier), &record))
		require.NoError(t, conn.WriteJSON(SessionConfig{
			Viewport: testViewport,
			Dossier:  &record,
		}))

		model := readUntil(t, conn, "model")
		assert.Len(t, model["nodes"], 3)
		legend := readUntil(t, conn, "legend")
		assert.Len(t, legend["entries"], 3)
		fit := readUntil(t, conn, "fit")
		assert.Equal(t, 800.0, fit["transitionMs"])

		require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": ClientHover, "data": map[string]string{"key": "1"}}))
		assert.Equal(t, string(visualizer.CursorPointer), readUntil(t, conn, "cursor")["cursor"])

		require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": ClientHover, "data": map[string]string{"key": ""}}))
		assert.Equal(t, string(visualizer.CursorDefault), readUntil(t, conn, "cursor")["cursor"])

		require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": ClientClick, "data": map[string]string{"key": "2"}}))
		notice := readUntil(t, conn, "notice")
		assert.Equal(t, "Alpha Ltda", notice["label"])
		assert.Contains(t, notice["message"], "ACCESS DENIED")

		require.NoError(t, conn.WriteJSON(map[string]interface{}{
			"type": ClientResize,
			"data": map[string]float64{"width": 400, "height": 300},
		}))
		readUntil(t, conn, "fit")

		require.NoError(t, conn.WriteJSON(map[string]interface{}{
			"type": ClientDossier,
			"data": map[string]interface{}{"dossier": map[string]string{"nome": "Carla Dias"}},
		}))
		replaced := readUntil(t, conn, "model")
		assert.Equal(t, 2.0, replaced["generation"])
		assert.Len(t, replaced["nodes"], 1)
	})

	t.Run("Session from the store", func(t *testing.T) {
		conn := dial(t, newTestServer(t, newFileSource(t)))
		require.NoError(t, conn.WriteJSON(SessionConfig{Viewport: testViewport, DossierID: "42"}))

		model := readUntil(t, conn, "model")
		assert.Len(t, model["nodes"], 3)
	})

	t.Run("Unknown dossier faults", func(t *testing.T) {
		conn := dial(t, newTestServer(t, newFileSource(t)))
		require.NoError(t, conn.WriteJSON(SessionConfig{Viewport: testViewport, DossierID: "43"}))

		fault := readUntil(t, conn, "fault")
		assert.Contains(t, fault["message"], "not found")
	})

	t.Run("Zero viewport faults", func(t *testing.T) {
		conn := dial(t, newTestServer(t, nil))
		var record dossier.Record
		require.NoError(t, json.Unmarshal([]byte(testDossier), &record))
		require.NoError(t, conn.WriteJSON(SessionConfig{Dossier: &record}))

		fault := readUntil(t, conn, "fault")
		assert.Equal(t, visualizer.FallbackMessage, fault["message"])
	})
}

func TestRun(t *testing.T) {
	s := newTestServer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	status := func() healthpb.HealthCheckResponse_ServingStatus {
		resp, err := s.health.Check(context.Background(), &healthpb.HealthCheckRequest{})
		require.NoError(t, err)
		return resp.Status
	}
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool {
		return status() == healthpb.HealthCheckResponse_SERVING
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Expected Run to return after cancel")
	}
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status())
}
