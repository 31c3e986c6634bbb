package arangodb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/arangodb/go-driver/v2/connection"
)

type Client interface {
	// EnsureDatabase creates the configured database if needed and selects it.
	EnsureDatabase(ctx context.Context) error
	EnsureCollections(ctx context.Context, specs []CollectionSpec) error
	// Database returns the selected database. EnsureDatabase must run first.
	Database() arangodb.Database
	Close() error
}

type Config struct {
	URL      string
	Username string
	Password string
	Database string
}

func (c Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("arangodb URL is required")
	}
	if c.Username == "" {
		return fmt.Errorf("arangodb username is required")
	}
	if c.Database == "" {
		return fmt.Errorf("arangodb database name is required")
	}
	return nil
}

type client struct {
	conn         connection.Connection
	arangoClient arangodb.Client
	db           arangodb.Database
	cfg          Config
}

func New(ctx context.Context, cfg Config) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("arangodb config: %w", err)
	}

	endpoint := connection.NewRoundRobinEndpoints([]string{cfg.URL})
	conn := connection.NewHttp2Connection(connection.DefaultHTTP2ConfigurationWrapper(endpoint, true))

	auth := connection.NewBasicAuth(cfg.Username, cfg.Password)
	if err := conn.SetAuthentication(auth); err != nil {
		return nil, fmt.Errorf("arangodb auth: %w", err)
	}

	return &client{
		conn:         conn,
		arangoClient: arangodb.NewClient(conn),
		cfg:          cfg,
	}, nil
}

func (c *client) Close() error {
	return nil
}

func (c *client) Database() arangodb.Database {
	return c.db
}

func (c *client) EnsureDatabase(ctx context.Context) error {
	start := time.Now()

	exists, err := c.arangoClient.DatabaseExists(ctx, c.cfg.Database)
	if err != nil {
		return fmt.Errorf("check database exists: %w", err)
	}

	if !exists {
		_, err = c.arangoClient.CreateDatabase(ctx, c.cfg.Database, nil)
		if err != nil {
			return fmt.Errorf("create database: %w", err)
		}
		slog.InfoContext(ctx, "arangodb database created",
			"database", c.cfg.Database,
			"duration_ms", time.Since(start).Milliseconds())
	}

	db, err := c.arangoClient.GetDatabase(ctx, c.cfg.Database, nil)
	if err != nil {
		return fmt.Errorf("get database: %w", err)
	}
	c.db = db

	return nil
}

func (c *client) EnsureCollections(ctx context.Context, specs []CollectionSpec) error {
	if c.db == nil {
		return fmt.Errorf("database not initialized, call EnsureDatabase first")
	}

	start := time.Now()
	for _, spec := range specs {
		if err := c.ensureCollection(ctx, spec.Name); err != nil {
			return err
		}
		if err := c.ensureIndexes(ctx, spec); err != nil {
			return err
		}
	}

	slog.DebugContext(ctx, "arangodb collections ensured",
		"collections", len(specs),
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (c *client) ensureCollection(ctx context.Context, name string) error {
	exists, err := c.db.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check collection %s exists: %w", name, err)
	}
	if exists {
		return nil
	}

	colType := arangodb.CollectionTypeDocument
	_, err = c.db.CreateCollectionV2(ctx, name, &arangodb.CreateCollectionPropertiesV2{Type: &colType})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", name, err)
	}
	slog.InfoContext(ctx, "arangodb collection created", "collection", name)
	return nil
}

func (c *client) ensureIndexes(ctx context.Context, spec CollectionSpec) error {
	if len(spec.Indexes) == 0 {
		return nil
	}

	col, err := c.db.GetCollection(ctx, spec.Name, nil)
	if err != nil {
		return fmt.Errorf("get collection %s: %w", spec.Name, err)
	}

	for _, idx := range spec.Indexes {
		unique, sparse := idx.Unique, idx.Sparse
		_, created, err := col.EnsurePersistentIndex(ctx, idx.Fields, &arangodb.CreatePersistentIndexOptions{
			Name:   idx.Name,
			Unique: &unique,
			Sparse: &sparse,
		})
		if err != nil {
			return fmt.Errorf("ensure index %s on %s: %w", idx.Name, spec.Name, err)
		}
		if created {
			slog.InfoContext(ctx, "arangodb index created",
				"collection", spec.Name,
				"index", idx.Name,
				"unique", unique)
		}
	}
	return nil
}
