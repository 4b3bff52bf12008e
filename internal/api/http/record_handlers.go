package http

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/edupulse/edupulse-backend/internal/metrics"
	"github.com/edupulse/edupulse-backend/internal/record"
)

// timestampFormat is the wire format the frontend's tables expect.
const timestampFormat = "2006-01-02 15:04"

// POST /save_performance
// Body: JSON array of {lesson_id, learner_id, understanding, application,
// communication, behavior}. Any client-supplied total is ignored.
func SavePerformanceHandler(store record.Store, m *metrics.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var raws []map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&raws); err != nil || raws == nil {
			m.BatchesRejected.Inc()
			writeErr(w, http.StatusBadRequest, record.ErrInvalidBatch.Error())
			return
		}
		n, err := store.InsertBatch(r.Context(), raws)
		if err != nil {
			log.Printf("save_performance: %v", err)
			writeErr(w, errStatus(err), err.Error())
			return
		}
		m.RecordsInserted.Add(float64(n))
		writeJSON(w, http.StatusOK, map[string]string{
			"message": fmt.Sprintf("%d records saved successfully.", n),
		})
	}
}

type recordOut struct {
	record.PerformanceRecord
	Timestamp string `json:"timestamp"`
}

// GET /fetch_data?learner_id=...&from=...&to=...
// learner_id is a case-insensitive substring filter; from/to are inclusive
// date or datetime bounds.
func FetchDataHandler(store record.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		opts := record.ListOpts{LearnerID: strings.TrimSpace(q.Get("learner_id"))}
		from, err := parseTimeParam(q.Get("from"), false)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "invalid 'from': "+err.Error())
			return
		}
		to, err := parseTimeParam(q.Get("to"), true)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "invalid 'to': "+err.Error())
			return
		}
		opts.From, opts.To = from, to

		recs, err := store.ListRecords(r.Context(), opts)
		if err != nil {
			log.Printf("fetch_data: %v", err)
			writeErr(w, errStatus(err), err.Error())
			return
		}

		out := make([]recordOut, 0, len(recs))
		for _, rec := range recs {
			out = append(out, recordOut{
				PerformanceRecord: rec,
				Timestamp:         rec.Timestamp.Format(timestampFormat),
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// GET /fetch_averages
func FetchAveragesHandler(store record.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		avgs, err := store.ComputeAverages(r.Context())
		if err != nil {
			log.Printf("fetch_averages: %v", err)
			writeErr(w, errStatus(err), err.Error())
			return
		}
		if avgs == nil {
			avgs = []record.LearnerAverage{}
		}
		writeJSON(w, http.StatusOK, avgs)
	}
}

// POST /recalculate_totals
func RecalculateTotalsHandler(store record.Store, m *metrics.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := store.RepairTotals(r.Context())
		if err != nil {
			log.Printf("recalculate_totals: %v", err)
			writeErr(w, errStatus(err), err.Error())
			return
		}
		m.TotalsRepaired.Add(float64(n))
		writeJSON(w, http.StatusOK, map[string]string{
			"message": fmt.Sprintf("Recalculated totals for %d rows.", n),
		})
	}
}

// GET /healthz
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// parseTimeParam accepts ISO-ish date strings. A date-only value used as an
// upper bound covers the whole day, keeping the range inclusive.
func parseTimeParam(s string, endOfDay bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Second)
		}
		return &t, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized time %q", s)
}
