package travel

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// DefaultConcurrency bounds in-flight provider calls during matrix builds.
const DefaultConcurrency = 8

// Matrix holds pairwise driving minutes between waypoints addressed by
// position index.
type Matrix struct {
	minutes   *mat.Dense
	estimated []bool
	n         int
}

// NewMatrix returns an n×n matrix of zero drives.
func NewMatrix(n int) *Matrix {
	m := &Matrix{n: n, estimated: make([]bool, n*n)}
	if n > 0 {
		m.minutes = mat.NewDense(n, n, nil)
	}
	return m
}

// Size returns the number of waypoints.
func (m *Matrix) Size() int { return m.n }

// Minutes returns the drive from waypoint i to waypoint j.
func (m *Matrix) Minutes(i, j int) int {
	if i == j || m.minutes == nil {
		return 0
	}
	return int(m.minutes.At(i, j))
}

// Estimated reports whether the i→j value is a fallback estimate.
func (m *Matrix) Estimated(i, j int) bool {
	if i == j {
		return false
	}
	return m.estimated[i*m.n+j]
}

// Set stores a drive. Each cell is written by one goroutine at most.
func (m *Matrix) Set(i, j int, d Drive) {
	m.minutes.Set(i, j, float64(d.Minutes))
	m.estimated[i*m.n+j] = d.Estimated
}

// EstimatedCount returns how many cells hold fallback values.
func (m *Matrix) EstimatedCount() int {
	n := 0
	for _, e := range m.estimated {
		if e {
			n++
		}
	}
	return n
}

// Dense exposes the underlying matrix read-only.
func (m *Matrix) Dense() mat.Matrix { return m.minutes }

// BuildMatrix looks up every ordered pair of addresses with at most
// concurrency calls in flight. Individual lookup failures become estimates;
// only context cancellation aborts the build.
func BuildMatrix(ctx context.Context, a *Adapter, addresses []string, concurrency int, departure *time.Time) (*Matrix, error) {
	n := len(addresses)
	m := NewMatrix(n)
	if n < 2 {
		return m, nil
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			i, j := i, j
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				m.Set(i, j, a.DrivingTime(gctx, addresses[i], addresses[j], departure))
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return m, nil
}
