package snapshot

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/chromedp/cdproto/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/psidex/dossiergraph/internal/graphs"
	"github.com/psidex/dossiergraph/internal/layout"
)

func TestCountElements(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(
		`<html><body><div class="container"><canvas></canvas></div><canvas></canvas><p>x</p></body></html>`,
	))
	require.NoError(t, err)

	assert.Equal(t, 2, countElements(doc, "canvas"))
	assert.Equal(t, 1, countElements(doc, "p"))
	assert.Equal(t, 0, countElements(doc, "svg"))
}

func TestExceptionLog(t *testing.T) {
	l := &exceptionLog{}
	_, ok := l.first()
	assert.False(t, ok)

	l.add(&runtime.ExceptionDetails{Text: "Uncaught", Exception: &runtime.RemoteObject{Description: "TypeError: echarts is undefined"}})
	l.add(&runtime.ExceptionDetails{Text: "second"})
	l.add(nil)

	msg, ok := l.first()
	assert.True(t, ok)
	assert.Equal(t, "TypeError: echarts is undefined", msg)
	assert.Equal(t, "second", l.messages[1])
	assert.Equal(t, "unknown exception", l.messages[2])
}

func TestCaptureNeedsAViewport(t *testing.T) {
	s := New(slog.New(slog.NewTextHandler(io.Discard, nil)), Options{})
	_, err := s.Capture(context.Background(), graphs.NewModelJSON(graphs.Model{}))
	assert.ErrorIs(t, err, layout.ErrSurfaceUnavailable)
}
