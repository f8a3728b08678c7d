package travel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryCacheTTL(t *testing.T) {
	now := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	c := NewMemoryCache(time.Hour, 0)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	c.SetDrive(ctx, "a|b", Drive{Minutes: 9})
	if d, ok := c.GetDrive(ctx, "a|b"); !ok || d.Minutes != 9 {
		t.Fatalf("expected hit, got %v %v", d, ok)
	}
	now = now.Add(2 * time.Hour)
	if _, ok := c.GetDrive(ctx, "a|b"); ok {
		t.Fatalf("expected expiry")
	}
	s := c.Stats()
	assert.Equal(t, int64(1), s.Hits)
	assert.Equal(t, int64(1), s.Misses)
	assert.Equal(t, int64(1), s.Evictions)
	assert.Equal(t, 0.5, s.HitRate())
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	now := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	c := NewMemoryCache(0, 2)
	c.now = func() time.Time { now = now.Add(time.Second); return now }
	ctx := context.Background()

	c.SetDrive(ctx, "a", Drive{Minutes: 1})
	c.SetDrive(ctx, "b", Drive{Minutes: 2})
	c.GetDrive(ctx, "a")
	c.SetDrive(ctx, "c", Drive{Minutes: 3})

	_, okA := c.GetDrive(ctx, "a")
	_, okB := c.GetDrive(ctx, "b")
	_, okC := c.GetDrive(ctx, "c")
	assert.True(t, okA)
	assert.False(t, okB)
	assert.True(t, okC)
	assert.Equal(t, 2, c.Stats().Entries)
}
