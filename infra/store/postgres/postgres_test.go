package postgres

import (
	"context"
	"testing"

	"github.com/kilianp07/fieldsched/core/store/storetest"
	"github.com/kilianp07/fieldsched/internal/testenv"
)

func TestPostgresStore(t *testing.T) {
	dsn := testenv.PostgresDSN(t)
	ctx := context.Background()
	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = s.Close() }()
	for _, table := range []string{"jobs", "routes", "availability", "technicians"} {
		if _, err := s.DB().ExecContext(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("reset %s: %v", table, err)
		}
	}
	storetest.Run(t, s)
}
