// Package sqlite registers the "sqlite" store backend.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/fieldsched/core/factory"
	"github.com/kilianp07/fieldsched/core/store"
	"github.com/kilianp07/fieldsched/infra/store/sqlstore"
)

func init() {
	_ = store.Register("sqlite", func(conf map[string]any) (store.Store, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return Open(context.Background(), c.Path)
	})
}

// Open creates or opens the database file at path.
func Open(ctx context.Context, path string) (*sqlstore.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps writes serialized and in-memory databases
	// shared.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite pragma: %w", err)
	}
	s, err := sqlstore.New(ctx, db, sqlstore.Question)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}
