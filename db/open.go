package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
)

const (
	DriverPQ  = "postgres"
	DriverPGX = "pgx"
)

type Config struct {
	Driver           string `json:"driver" mapstructure:"driver"`
	ConnectionString string `json:"connection_string" mapstructure:"connection_string"`

	// Pool tuning, only honoured by the pgx driver
	MaxConns        int32 `json:"max_conns" mapstructure:"max_conns"`
	MinConns        int32 `json:"min_conns" mapstructure:"min_conns"`
	MaxConnLifetime int   `json:"max_conn_lifetime" mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime int   `json:"max_conn_idle_time" mapstructure:"max_conn_idle_time"`
}

func (c *Config) Default() {
	c.Driver = DriverPQ
	c.ConnectionString = "user=dbsession dbname=dbsession sslmode=disable"
	c.MaxConns = 25
	c.MinConns = 5
	c.MaxConnLifetime = 300
	c.MaxConnIdleTime = 60
}

// Open connects to the configured database and verifies the connection
func Open(cfg Config) (*Handle, error) {
	var (
		h   *Handle
		err error
	)

	switch cfg.Driver {
	case DriverPQ, "":
		var db *sql.DB
		db, err = sql.Open(DriverPQ, cfg.ConnectionString)
		if err == nil {
			h = Wrap(db, DriverPQ)
		}
	case DriverPGX:
		h, err = openPGX(cfg)
	default:
		return nil, fmt.Errorf("unknown database driver '%s'", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err = h.Ping(); err != nil {
		h.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return h, nil
}

func openPGX(cfg Config) (*Handle, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pcfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pcfg.MaxConnLifetime = time.Duration(cfg.MaxConnLifetime) * time.Second
	}
	if cfg.MaxConnIdleTime > 0 {
		pcfg.MaxConnIdleTime = time.Duration(cfg.MaxConnIdleTime) * time.Second
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), pcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Handle{
		DB:     stdlib.OpenDBFromPool(pool),
		driver: DriverPGX,
		pool:   pool,
	}, nil
}
