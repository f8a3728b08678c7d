// Package storetest holds the behaviour every store backend must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fieldsched/core/model"
	"github.com/kilianp07/fieldsched/core/store"
)

// Run exercises s. The store must start empty.
func Run(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	next := day.AddDate(0, 0, 1)

	t.Run("empty day", func(t *testing.T) {
		jobs, err := s.LoadJobs(ctx, day)
		require.NoError(t, err)
		assert.Empty(t, jobs)
		routes, err := s.LoadRoutes(ctx, day)
		require.NoError(t, err)
		assert.Empty(t, routes)
		avail, err := s.AvailabilityForDay(ctx, day)
		require.NoError(t, err)
		assert.Empty(t, avail)
	})

	t.Run("jobs replace per day", func(t *testing.T) {
		a := model.Job{
			ID:            "a",
			Customer:      "Acme",
			Address:       "1 Main St",
			DurationHours: 1.5,
			Window:        model.TimeWindow{Start: model.ClockAt(9, 0), End: model.ClockAt(12, 0)},
			Status:        model.JobUnassigned,
		}
		b := a.Clone()
		b.ID = "b"
		b.AssignTo("t1")
		b.Start = model.ClockPtr(model.ClockAt(9, 30))
		require.NoError(t, s.SaveJobs(ctx, day, []model.Job{a, b}))
		require.NoError(t, s.SaveJobs(ctx, next, []model.Job{a}))

		got, err := s.LoadJobs(ctx, day)
		require.NoError(t, err)
		require.Len(t, got, 2)
		byID := map[model.JobID]model.Job{}
		for _, j := range got {
			byID[j.ID] = j
		}
		assert.Equal(t, a, byID["a"])
		assert.Equal(t, model.TechnicianID("t1"), *byID["b"].AssignedTech)
		assert.Equal(t, "09:30", byID["b"].Start.String())

		require.NoError(t, s.SaveJobs(ctx, day, []model.Job{b}))
		got, err = s.LoadJobs(ctx, day)
		require.NoError(t, err)
		assert.Len(t, got, 1)
		other, err := s.LoadJobs(ctx, next)
		require.NoError(t, err)
		assert.Len(t, other, 1)
	})

	t.Run("routes keep drive order", func(t *testing.T) {
		r := model.Route{TechnicianID: "t2", Jobs: []model.Job{{ID: "z"}, {ID: "y"}, {ID: "x"}}}
		r1 := model.Route{TechnicianID: "t1", Jobs: []model.Job{{ID: "q"}}}
		require.NoError(t, s.SaveRoutes(ctx, day, []model.Route{r, r1}))
		got, err := s.LoadRoutes(ctx, day)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, model.TechnicianID("t1"), got[0].TechnicianID)
		assert.Equal(t, []model.JobID{"z", "y", "x"}, []model.JobID{got[1].Jobs[0].ID, got[1].Jobs[1].ID, got[1].Jobs[2].ID})

		require.NoError(t, s.SaveRoutes(ctx, day, []model.Route{r1}))
		got, err = s.LoadRoutes(ctx, day)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("availability and roster", func(t *testing.T) {
		require.NoError(t, s.SetAvailability(ctx, day, model.Availability{"t1": model.StatusSick}))
		avail, err := s.AvailabilityForDay(ctx, day)
		require.NoError(t, err)
		assert.True(t, avail.IsOff("t1"))
		assert.False(t, avail.IsOff("t2"))

		require.NoError(t, s.SaveTechnicians(ctx, []model.Technician{
			{ID: "t2", Name: "Ben", Shift: model.ShiftSecond},
			{ID: "t1", Name: "Ana", DemoCapable: true},
		}))
		require.NoError(t, s.SaveTechnicians(ctx, []model.Technician{{ID: "t2", Name: "Benny"}}))
		techs, err := s.Technicians(ctx)
		require.NoError(t, err)
		require.Len(t, techs, 2)
		assert.Equal(t, model.TechnicianID("t1"), techs[0].ID)
		assert.True(t, techs[0].DemoCapable)
		assert.Equal(t, "Benny", techs[1].Name)
	})
}
