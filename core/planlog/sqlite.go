package planlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists plan records in a SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

const planLogSchema = `CREATE TABLE IF NOT EXISTS plan_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	plan_id TEXT NOT NULL,
	ts INTEGER NOT NULL,
	day TEXT NOT NULL,
	action TEXT NOT NULL,
	record TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS plan_log_day ON plan_log(day);`

// NewSQLiteStore opens or creates the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(planLogSchema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, rec PlanRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO plan_log (plan_id, ts, day, action, record) VALUES (?, ?, ?, ?, ?)`,
		rec.PlanID, rec.Timestamp.UnixMilli(), rec.Date, rec.Action, string(b))
	return err
}

// Query pushes time and date filters into SQL; the technician filter is
// applied on the decoded record.
func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]PlanRecord, error) {
	var args []any
	query := `SELECT record FROM plan_log WHERE 1=1`
	if !q.Start.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, q.Start.UnixMilli())
	}
	if !q.End.IsZero() {
		query += ` AND ts <= ?`
		args = append(args, q.End.UnixMilli())
	}
	if q.Date != "" {
		query += ` AND day = ?`
		args = append(args, q.Date)
	}
	query += ` ORDER BY ts, id`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []PlanRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var r PlanRecord
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("unmarshal plan record: %w", err)
		}
		if q.Match(r) {
			out = append(out, r)
		}
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
