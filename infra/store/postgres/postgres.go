// Package postgres registers the "postgres" store backend using pgx through
// database/sql.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kilianp07/fieldsched/core/factory"
	"github.com/kilianp07/fieldsched/core/store"
	"github.com/kilianp07/fieldsched/infra/store/sqlstore"
)

func init() {
	_ = store.Register("postgres", func(conf map[string]any) (store.Store, error) {
		var c struct {
			DSN string `json:"dsn"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return Open(ctx, c.DSN)
	})
}

// Open connects, pings and migrates.
func Open(ctx context.Context, dsn string) (*sqlstore.Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	s, err := sqlstore.New(ctx, db, sqlstore.Dollar)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}
