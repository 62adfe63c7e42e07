package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/psidex/dossiergraph/internal/config"
	"github.com/psidex/dossiergraph/internal/lib"
	"github.com/psidex/dossiergraph/internal/store"
	"github.com/psidex/dossiergraph/internal/webserver"
)

func main() {
	configPath := flag.String("config", "", "optional TOML config file")
	address := flag.String("b", "", "the ip:port to bind the webserver to, overrides the config")
	logLevel := flag.String("log-level", "", "log level, overrides the config")
	logFormat := flag.String("log-format", "", "log format, text or pretty, overrides the config")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *address != "" {
		cfg.Server.Address = *address
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}

	level, err := lib.ParseSLogLevel(cfg.Log.Level)
	if err != nil {
		log.Fatal(err)
	}
	logger, err := lib.NewLogger(os.Stderr, cfg.Log.Format, level)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var source store.Source
	switch cfg.Store.Kind {
	case config.StoreFile:
		source = store.NewFileSource(cfg.Store.Dir)
	case config.StoreNeo4j:
		neo, err := store.NewNeo4jSource(
			ctx, cfg.Store.Neo4j.URI, cfg.Store.Neo4j.User, cfg.Store.Neo4j.Password, cfg.Store.Neo4j.Database,
		)
		if err != nil {
			log.Fatal(err)
		}
		defer neo.Close(context.Background())
		source = neo
	case config.StorePostgres:
		pg, err := store.NewPostgresSource(ctx, cfg.Store.Postgres.URL)
		if err != nil {
			log.Fatal(err)
		}
		defer pg.Close()
		source = pg
	}
	logger.Info("Dossier store", "kind", cfg.Store.Kind)

	if err := webserver.NewServer(logger, cfg, source).Run(ctx); err != nil {
		logger.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}
