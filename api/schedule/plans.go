package schedule

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/kilianp07/fieldsched/core/model"
	"github.com/kilianp07/fieldsched/core/planlog"
)

// bearer rejects requests without "Bearer <token>" when token is non-empty.
func bearer(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get("Authorization"))
			if token != "" && subtle.ConstantTimeCompare(got, []byte("Bearer "+token)) != 1 {
				respondError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// plans serves GET /v1/plans?start=&end=&date=&technician_id=. start and end
// are RFC3339; unparsable values are ignored.
func plans(logs planlog.LogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := r.URL.Query()
		q := planlog.Query{
			Date:         v.Get("date"),
			TechnicianID: model.TechnicianID(v.Get("technician_id")),
		}
		if s := v.Get("start"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.Start = t
			}
		}
		if s := v.Get("end"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.End = t
			}
		}
		recs, err := logs.Query(r.Context(), q)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if recs == nil {
			recs = []planlog.PlanRecord{}
		}
		respondJSON(w, http.StatusOK, recs)
	}
}
