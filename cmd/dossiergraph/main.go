package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/psidex/dossiergraph/internal/config"
	"github.com/psidex/dossiergraph/internal/dossier"
	"github.com/psidex/dossiergraph/internal/graphs"
	"github.com/psidex/dossiergraph/internal/graphs/graphology"
	"github.com/psidex/dossiergraph/internal/graphs/vis"
	"github.com/psidex/dossiergraph/internal/layout"
	"github.com/psidex/dossiergraph/internal/lib"
	"github.com/psidex/dossiergraph/internal/snapshot"
)

func main() {
	in := flag.String("in", "", "the dossier JSON file to read")
	format := flag.String("format", "echarts", "output format: echarts, vis, graphology, json, text or png")
	out := flag.String("out", "dossiergraph", "the output file name, without extension")
	width := flag.Float64("width", 0, "viewport width for png output, overrides the config")
	height := flag.Float64("height", 0, "viewport height for png output, overrides the config")
	configPath := flag.String("config", "", "optional TOML config file")
	logLevel := flag.String("log-level", "", "log level, overrides the config")
	logFormat := flag.String("log-format", "", "log format, text or pretty, overrides the config")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *width > 0 {
		cfg.Viewport.Width = *width
	}
	if *height > 0 {
		cfg.Viewport.Height = *height
	}

	level, err := lib.ParseSLogLevel(cfg.Log.Level)
	if err != nil {
		log.Fatal(err)
	}
	logger, err := lib.NewLogger(os.Stderr, cfg.Log.Format, level)
	if err != nil {
		log.Fatal(err)
	}

	if *in == "" {
		log.Fatal("-in is required")
	}
	record, err := dossier.Load(*in)
	if err != nil {
		log.Fatal(err)
	}

	m := graphs.Build(record)
	logger.Info("Built graph", "dossier", record.Name, "nodes", len(m.Nodes), "edges", len(m.Edges))

	var chosen graphs.FileRenderer
	switch *format {
	case "echarts":
		chosen = graphs.NewECharts(m, record.Name)
	case "vis":
		chosen = vis.NewVis(m, record.Name)
	case "graphology":
		chosen = graphology.NewGraphology(m, layout.NewForceEngine(cfg.Layout))
	case "json":
		chosen = graphs.NewModelJSON(m)
	case "text":
		if err := graphs.NewText(m).Render(os.Stdout); err != nil {
			log.Fatal(err)
		}
		return
	case "png":
		writeSnapshot(cfg, logger, m, record.Name, *out)
		return
	default:
		log.Fatalf("unknown format: %s", *format)
	}

	if err := chosen.RenderToFile(*out); err != nil {
		log.Fatal(err)
	}
	logger.Info("Rendered", "format", *format, "out", *out)
}

func writeSnapshot(cfg *config.Config, logger *slog.Logger, m graphs.Model, title, out string) {
	s := snapshot.New(logger, snapshot.Options{
		Viewport: cfg.Viewport,
		// The page lays out and fits before it is captured.
		Wait:    cfg.Visualizer.SettleDelay.Duration + cfg.Visualizer.FitTransition.Duration + 200*time.Millisecond,
		Timeout: cfg.Snapshot.Timeout.Duration,
	})

	page := graphs.NewECharts(m, title).WithSize(
		fmt.Sprintf("%.0fpx", cfg.Viewport.Width),
		fmt.Sprintf("%.0fpx", cfg.Viewport.Height),
	)
	png, err := s.Capture(context.Background(), page)
	if err != nil {
		log.Fatal(err)
	}

	if err := os.WriteFile(out+".png", png, 0o644); err != nil {
		log.Fatal(err)
	}
	logger.Info("Rendered", "format", "png", "out", out)
}
