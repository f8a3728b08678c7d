// Package sqlstore implements store.Store over database/sql. Rows hold JSON
// documents so the schema stays identical across SQLite and Postgres; only
// the placeholder style differs.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/fieldsched/core/model"
	"github.com/kilianp07/fieldsched/core/store"
)

// Dialect adapts queries written with '?' placeholders.
type Dialect int

const (
	Question Dialect = iota
	Dollar
)

func (d Dialect) rebind(q string) string {
	if d != Dollar {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS jobs (
		day TEXT NOT NULL,
		pos INTEGER NOT NULL,
		id TEXT NOT NULL,
		doc TEXT NOT NULL,
		PRIMARY KEY (day, pos)
	)`,
	`CREATE TABLE IF NOT EXISTS routes (
		day TEXT NOT NULL,
		technician_id TEXT NOT NULL,
		doc TEXT NOT NULL,
		PRIMARY KEY (day, technician_id)
	)`,
	`CREATE TABLE IF NOT EXISTS availability (
		day TEXT NOT NULL,
		technician_id TEXT NOT NULL,
		status TEXT NOT NULL,
		PRIMARY KEY (day, technician_id)
	)`,
	`CREATE TABLE IF NOT EXISTS technicians (
		id TEXT PRIMARY KEY,
		doc TEXT NOT NULL
	)`,
}

// Store is a store.Store backed by db.
type Store struct {
	db *sql.DB
	d  Dialect
}

// New migrates the schema and wraps db. The Store owns db.
func New(ctx context.Context, db *sql.DB, d Dialect) (*Store, error) {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return &Store{db: db, d: d}, nil
}

// DB exposes the handle for health checks.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) LoadJobs(ctx context.Context, day time.Time) ([]model.Job, error) {
	rows, err := s.db.QueryContext(ctx, s.d.rebind(`SELECT doc FROM jobs WHERE day = ? ORDER BY pos`), store.DayKey(day))
	if err != nil {
		return nil, err
	}
	return scanDocs[model.Job](rows)
}

func (s *Store) SaveJobs(ctx context.Context, day time.Time, jobs []model.Job) error {
	key := store.DayKey(day)
	return s.tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.d.rebind(`DELETE FROM jobs WHERE day = ?`), key); err != nil {
			return err
		}
		for i, j := range jobs {
			doc, err := json.Marshal(j)
			if err != nil {
				return fmt.Errorf("encode job %s: %w", j.ID, err)
			}
			if _, err := tx.ExecContext(ctx, s.d.rebind(`INSERT INTO jobs (day, pos, id, doc) VALUES (?, ?, ?, ?)`),
				key, i, string(j.ID), string(doc)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) LoadRoutes(ctx context.Context, day time.Time) ([]model.Route, error) {
	rows, err := s.db.QueryContext(ctx, s.d.rebind(`SELECT doc FROM routes WHERE day = ? ORDER BY technician_id`), store.DayKey(day))
	if err != nil {
		return nil, err
	}
	return scanDocs[model.Route](rows)
}

func (s *Store) SaveRoutes(ctx context.Context, day time.Time, routes []model.Route) error {
	key := store.DayKey(day)
	return s.tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.d.rebind(`DELETE FROM routes WHERE day = ?`), key); err != nil {
			return err
		}
		for _, r := range routes {
			doc, err := json.Marshal(r)
			if err != nil {
				return fmt.Errorf("encode route %s: %w", r.TechnicianID, err)
			}
			if _, err := tx.ExecContext(ctx, s.d.rebind(`INSERT INTO routes (day, technician_id, doc) VALUES (?, ?, ?)`),
				key, string(r.TechnicianID), string(doc)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) AvailabilityForDay(ctx context.Context, day time.Time) (model.Availability, error) {
	rows, err := s.db.QueryContext(ctx, s.d.rebind(`SELECT technician_id, status FROM availability WHERE day = ?`), store.DayKey(day))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := model.Availability{}
	for rows.Next() {
		var id, st string
		if err := rows.Scan(&id, &st); err != nil {
			return nil, err
		}
		out[model.TechnicianID(id)] = model.Status(st)
	}
	return out, rows.Err()
}

func (s *Store) SetAvailability(ctx context.Context, day time.Time, a model.Availability) error {
	key := store.DayKey(day)
	return s.tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.d.rebind(`DELETE FROM availability WHERE day = ?`), key); err != nil {
			return err
		}
		for id, st := range a {
			if _, err := tx.ExecContext(ctx, s.d.rebind(`INSERT INTO availability (day, technician_id, status) VALUES (?, ?, ?)`),
				key, string(id), string(st)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) Technicians(ctx context.Context) ([]model.Technician, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc FROM technicians ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return scanDocs[model.Technician](rows)
}

func (s *Store) SaveTechnicians(ctx context.Context, techs []model.Technician) error {
	return s.tx(ctx, func(tx *sql.Tx) error {
		for _, t := range techs {
			doc, err := json.Marshal(t)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, s.d.rebind(
				`INSERT INTO technicians (id, doc) VALUES (?, ?) ON CONFLICT (id) DO UPDATE SET doc = excluded.doc`),
				string(t.ID), string(doc)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) tx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func scanDocs[T any](rows *sql.Rows) ([]T, error) {
	defer func() { _ = rows.Close() }()
	var out []T
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal([]byte(doc), &v); err != nil {
			return nil, fmt.Errorf("decode row: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
