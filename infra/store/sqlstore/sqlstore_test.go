package sqlstore

import "testing"

func TestRebind(t *testing.T) {
	q := `INSERT INTO jobs (day, pos, id, doc) VALUES (?, ?, ?, ?)`
	if got := Question.rebind(q); got != q {
		t.Fatalf("question dialect changed query: %s", got)
	}
	want := `INSERT INTO jobs (day, pos, id, doc) VALUES ($1, $2, $3, $4)`
	if got := Dollar.rebind(q); got != want {
		t.Fatalf("got %s", got)
	}
}
