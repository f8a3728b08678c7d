// Package schedule exposes the planner's read-only views over HTTP.
package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/fieldsched/core/logger"
	"github.com/kilianp07/fieldsched/core/model"
	"github.com/kilianp07/fieldsched/core/planlog"
	"github.com/kilianp07/fieldsched/core/planner"
	"github.com/kilianp07/fieldsched/core/quality"
	"github.com/kilianp07/fieldsched/core/scoring"
	"github.com/kilianp07/fieldsched/core/store"
)

// Scheduler is the part of the planner the API reads from.
type Scheduler interface {
	Inspect(ctx context.Context, date time.Time) (*planner.Plan, error)
	Conflicts(ctx context.Context, date time.Time) ([]model.Conflict, error)
	Recommend(ctx context.Context, date time.Time, jobID model.JobID, limit int) ([]scoring.Candidate, error)
}

// Options configures the router.
type Options struct {
	// MetricsPath serves the default prometheus registry. Empty disables it.
	MetricsPath string
	// PlanLog backs GET /v1/plans. Nil disables the route.
	PlanLog planlog.LogStore
	// Token, when set, is required as a bearer token on /v1/plans.
	Token string
	Log   logger.Logger
}

// RoutesResponse is the body of GET /v1/days/{date}/routes.
type RoutesResponse struct {
	Date       string           `json:"date"`
	Routes     []model.Route    `json:"routes"`
	Ratings    []quality.Rating `json:"ratings"`
	Unassigned []model.JobID    `json:"unassigned"`
	Conflicts  []model.Conflict `json:"conflicts"`
}

// NewRouter mounts every endpoint on a chi router.
func NewRouter(s Scheduler, o Options) http.Handler {
	h := &handler{s: s, log: logger.OrNop(o.Log)}
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if o.MetricsPath != "" {
		r.Handle(o.MetricsPath, promhttp.Handler())
	}
	r.Route("/v1", func(r chi.Router) {
		r.Route("/days/{date}", func(r chi.Router) {
			r.Get("/routes", h.routes)
			r.Get("/conflicts", h.conflicts)
			r.Get("/jobs/{job}/recommendations", h.recommendations)
		})
		if o.PlanLog != nil {
			r.With(bearer(o.Token)).Get("/plans", plans(o.PlanLog))
		}
	})
	return r
}

type handler struct {
	s   Scheduler
	log logger.Logger
}

func (h *handler) routes(w http.ResponseWriter, r *http.Request) {
	day, ok := parseDay(w, r)
	if !ok {
		return
	}
	plan, err := h.s.Inspect(r.Context(), day)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp := RoutesResponse{
		Date:       plan.Date,
		Routes:     plan.Routes.Slice(),
		Ratings:    plan.Ratings,
		Unassigned: plan.Unassigned,
		Conflicts:  plan.Conflicts,
	}
	if resp.Routes == nil {
		resp.Routes = []model.Route{}
	}
	if resp.Conflicts == nil {
		resp.Conflicts = []model.Conflict{}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *handler) conflicts(w http.ResponseWriter, r *http.Request) {
	day, ok := parseDay(w, r)
	if !ok {
		return
	}
	cs, err := h.s.Conflicts(r.Context(), day)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if cs == nil {
		cs = []model.Conflict{}
	}
	respondJSON(w, http.StatusOK, cs)
}

func (h *handler) recommendations(w http.ResponseWriter, r *http.Request) {
	day, ok := parseDay(w, r)
	if !ok {
		return
	}
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	cands, err := h.s.Recommend(r.Context(), day, model.JobID(chi.URLParam(r, "job")), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if cands == nil {
		cands = []scoring.Candidate{}
	}
	respondJSON(w, http.StatusOK, cands)
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	h.log.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
	respondError(w, http.StatusInternalServerError, "internal error")
}

func parseDay(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	day, err := store.ParseDay(chi.URLParam(r, "date"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return day, true
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
