package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/psidex/dossiergraph/internal/layout"
	"github.com/psidex/dossiergraph/internal/lib"
	"github.com/psidex/dossiergraph/internal/visualizer"
)

// EnvPrefix prefixes every environment variable that overrides the config file.
const EnvPrefix = "DOSSIERGRAPH_"

// Store kinds.
const (
	StoreNone     = ""
	StoreFile     = "file"
	StoreNeo4j    = "neo4j"
	StorePostgres = "postgres"
)

type ServerConfig struct {
	Address     string `toml:"address"`
	GrpcAddress string `toml:"grpc_address"`
	// ShutdownTimeout bounds how long open requests get to finish on exit.
	ShutdownTimeout lib.Duration `toml:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type Neo4jConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
}

type PostgresConfig struct {
	URL string `toml:"url"`
}

type StoreConfig struct {
	Kind     string         `toml:"kind"`
	Dir      string         `toml:"dir"`
	Neo4j    Neo4jConfig    `toml:"neo4j"`
	Postgres PostgresConfig `toml:"postgres"`
}

type SnapshotConfig struct {
	Timeout lib.Duration `toml:"timeout"`
}

type Config struct {
	Server     ServerConfig       `toml:"server"`
	Log        LogConfig          `toml:"log"`
	Viewport   layout.Viewport    `toml:"viewport"`
	Layout     layout.Config      `toml:"layout"`
	Visualizer visualizer.Options `toml:"visualizer"`
	Store      StoreConfig        `toml:"store"`
	Snapshot   SnapshotConfig     `toml:"snapshot"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Address:         "127.0.0.1:8080",
			GrpcAddress:     "127.0.0.1:9090",
			ShutdownTimeout: lib.DurationFrom(10 * time.Second),
		},
		Log:        LogConfig{Level: "info", Format: "text"},
		Viewport:   layout.Viewport{Width: 1280, Height: 800},
		Layout:     layout.DefaultConfig(),
		Visualizer: visualizer.DefaultOptions(),
		Store:      StoreConfig{Kind: StoreNone, Dir: "dossiers"},
		Snapshot:   SnapshotConfig{Timeout: lib.DurationFrom(30 * time.Second)},
	}
}

// Load builds the config from the defaults, then the TOML file at path if it is not
// empty, then the environment. A .env file in the working directory is loaded into
// the environment first if there is one.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"ADDRESS":        &c.Server.Address,
		"GRPC_ADDRESS":   &c.Server.GrpcAddress,
		"LOG_LEVEL":      &c.Log.Level,
		"LOG_FORMAT":     &c.Log.Format,
		"STORE":          &c.Store.Kind,
		"STORE_DIR":      &c.Store.Dir,
		"NEO4J_URI":      &c.Store.Neo4j.URI,
		"NEO4J_USER":     &c.Store.Neo4j.User,
		"NEO4J_PASSWORD": &c.Store.Neo4j.Password,
		"NEO4J_DATABASE": &c.Store.Neo4j.Database,
		"POSTGRES_URL":   &c.Store.Postgres.URL,
	}
	for key, field := range strs {
		if value, ok := os.LookupEnv(EnvPrefix + key); ok {
			*field = value
		}
	}

	durations := map[string]*lib.Duration{
		"SETTLE_DELAY":     &c.Visualizer.SettleDelay,
		"SNAPSHOT_TIMEOUT": &c.Snapshot.Timeout,
	}
	for key, field := range durations {
		if value, ok := os.LookupEnv(EnvPrefix + key); ok {
			if err := field.UnmarshalText([]byte(value)); err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
		}
	}

	floats := map[string]*float64{
		"VIEWPORT_WIDTH":  &c.Viewport.Width,
		"VIEWPORT_HEIGHT": &c.Viewport.Height,
	}
	for key, field := range floats {
		if value, ok := os.LookupEnv(EnvPrefix + key); ok {
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*field = f
		}
	}
	return nil
}

func (c Config) Validate() error {
	if _, err := lib.ParseSLogLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	switch c.Log.Format {
	case "", "text", "pretty":
	default:
		return fmt.Errorf("invalid log format %q", c.Log.Format)
	}
	switch c.Store.Kind {
	case StoreNone, StoreFile, StoreNeo4j, StorePostgres:
	default:
		return fmt.Errorf("invalid store kind %q", c.Store.Kind)
	}
	if !c.Viewport.Valid() {
		return fmt.Errorf("invalid viewport %gx%g", c.Viewport.Width, c.Viewport.Height)
	}
	if err := c.Layout.Validate(); err != nil {
		return fmt.Errorf("invalid layout: %w", err)
	}
	if err := c.Visualizer.Validate(); err != nil {
		return fmt.Errorf("invalid visualizer: %w", err)
	}
	return nil
}
