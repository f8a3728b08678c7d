// Package export writes planned routes for dispatchers and spreadsheets.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/kilianp07/fieldsched/core/model"
)

// Header is the CSV column order.
var Header = []string{
	"technician_id", "stop", "job_id", "customer", "address",
	"arrival", "start", "end", "travel_minutes", "travel_estimated", "helper",
}

// WriteJSON writes the routes to w, ordered by technician.
func WriteJSON(w io.Writer, routes model.RouteMap) error {
	return json.NewEncoder(w).Encode(routes.Slice())
}

// WriteCSV writes one row per route entry in drive order.
func WriteCSV(w io.Writer, routes model.RouteMap) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range routes.Slice() {
		for i, j := range r.Jobs {
			rec := []string{
				string(r.TechnicianID),
				strconv.Itoa(i + 1),
				string(j.ID),
				j.Customer,
				j.Address,
				clock(j.Arrival),
				clock(j.Start),
				clock(j.End),
				strconv.Itoa(j.TravelMinutes),
				strconv.FormatBool(j.TravelEstimated),
				strconv.FormatBool(j.Helper),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// Write dispatches on format ("json" or "csv").
func Write(w io.Writer, format string, routes model.RouteMap) error {
	switch format {
	case "json":
		return WriteJSON(w, routes)
	case "csv":
		return WriteCSV(w, routes)
	}
	return fmt.Errorf("unsupported export format: %s", format)
}

func clock(c *model.Clock) string {
	if c == nil {
		return ""
	}
	return c.String()
}
