// Package snapshot captures a rendered graph page as a PNG using headless Chrome.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/corpix/uarand"

	"github.com/psidex/dossiergraph/internal/graphs"
	"github.com/psidex/dossiergraph/internal/layout"
)

// ErrRenderFault is returned when the page could not draw the graph.
var ErrRenderFault = errors.New("graph page failed to render")

type Options struct {
	Viewport layout.Viewport
	// Wait is how long the page gets to lay out and fit before the capture.
	Wait    time.Duration
	Timeout time.Duration
	// UserAgent defaults to a random browser user agent.
	UserAgent string
}

type Snapshotter struct {
	logger *slog.Logger
	opts   Options
}

func New(logger *slog.Logger, opts Options) *Snapshotter {
	return &Snapshotter{logger: logger, opts: opts}
}

// Capture renders r to a temporary HTML file, loads it and returns a full page PNG.
func (s Snapshotter) Capture(ctx context.Context, r graphs.Renderer) ([]byte, error) {
	if !s.opts.Viewport.Valid() {
		return nil, layout.ErrSurfaceUnavailable
	}

	dir, err := os.MkdirTemp("", "dossiergraph-snapshot-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	page := filepath.Join(dir, "graph.html")
	if err := writePage(page, r); err != nil {
		return nil, err
	}

	userAgent := s.opts.UserAgent
	if userAgent == "" {
		userAgent = uarand.GetRandom()
	}
	width, height := int(s.opts.Viewport.Width), int(s.opts.Viewport.Height)

	timeoutCtx, timeoutCancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer timeoutCancel()

	allocCtx, allocCancel := chromedp.NewExecAllocator(timeoutCtx, append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(userAgent),
		chromedp.WindowSize(width, height),
	)...)
	defer allocCancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	exceptions := &exceptionLog{}
	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		switch ev := ev.(type) {
		case *runtime.EventExceptionThrown:
			exceptions.add(ev.ExceptionDetails)
		}
	})

	startTime := time.Now()

	var pageSource string
	var png []byte
	err = chromedp.Run(browserCtx,
		runtime.Enable(),
		chromedp.EmulateViewport(int64(width), int64(height)),
		chromedp.Navigate("file://"+page),
		chromedp.Sleep(s.opts.Wait),
		chromedp.ActionFunc(func(ctx context.Context) error {
			node, err := dom.GetDocument().Do(ctx)
			if err != nil {
				return err
			}
			pageSource, err = dom.GetOuterHTML().WithNodeID(node.NodeID).Do(ctx)
			return err
		}),
		chromedp.FullScreenshot(&png, 100),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to capture snapshot: %w", err)
	}

	if msg, ok := exceptions.first(); ok {
		return nil, fmt.Errorf("%w: %s", ErrRenderFault, msg)
	}

	parsed, err := html.Parse(strings.NewReader(pageSource))
	if err != nil {
		return nil, fmt.Errorf("failed to parse captured page: %w", err)
	}
	if countElements(parsed, "canvas") == 0 {
		return nil, fmt.Errorf("%w: nothing was drawn", ErrRenderFault)
	}

	s.logger.Debug("Snapshot captured",
		"bytes", len(png), "duration", time.Since(startTime), "userAgent", userAgent)
	return png, nil
}

func writePage(path string, r graphs.Renderer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return r.Render(f)
}

// exceptionLog keeps the first script exception, events arrive on chromedp's goroutine.
type exceptionLog struct {
	mu       sync.Mutex
	messages []string
}

func (l *exceptionLog) add(details *runtime.ExceptionDetails) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, exceptionMessage(details))
}

func (l *exceptionLog) first() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.messages) == 0 {
		return "", false
	}
	return l.messages[0], true
}

func exceptionMessage(details *runtime.ExceptionDetails) string {
	if details == nil {
		return "unknown exception"
	}
	if details.Exception != nil && details.Exception.Description != "" {
		return details.Exception.Description
	}
	return details.Text
}

// countElements counts the elements named tag in a html document.
func countElements(n *html.Node, tag string) int {
	count := 0

	var visitNode func(*html.Node)
	visitNode = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			count++
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visitNode(c)
		}
	}

	visitNode(n)

	return count
}
