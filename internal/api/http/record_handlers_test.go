package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	api "github.com/edupulse/edupulse-backend/internal/api/http"
	"github.com/edupulse/edupulse-backend/internal/metrics"
	"github.com/edupulse/edupulse-backend/internal/record"
)

/* ---------------- In-memory fake that satisfies record.Store ---------------- */

type fakeStore struct {
	records []record.PerformanceRecord
	nextID  int64

	failWith error
	lastOpts record.ListOpts
	repaired int64
}

func (s *fakeStore) InsertBatch(_ context.Context, raws []map[string]interface{}) (int, error) {
	if s.failWith != nil {
		return 0, s.failWith
	}
	if raws == nil {
		return 0, record.ErrInvalidBatch
	}
	for _, raw := range raws {
		sc := record.Normalize(raw)
		s.nextID++
		lesson, _ := raw["lesson_id"].(string)
		learner, _ := raw["learner_id"].(string)
		s.records = append(s.records, record.PerformanceRecord{
			ID:            s.nextID,
			LessonID:      strings.TrimSpace(lesson),
			LearnerID:     strings.TrimSpace(learner),
			Understanding: sc.Understanding,
			Application:   sc.Application,
			Communication: sc.Communication,
			Behavior:      sc.Behavior,
			Total:         sc.Total,
			Timestamp:     time.Date(2026, 3, 14, 9, 26, 0, 0, time.Local),
		})
	}
	return len(raws), nil
}

func (s *fakeStore) ListRecords(_ context.Context, opts record.ListOpts) ([]record.PerformanceRecord, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	s.lastOpts = opts
	out := make([]record.PerformanceRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *fakeStore) ComputeAverages(_ context.Context) ([]record.LearnerAverage, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	return []record.LearnerAverage{
		{LearnerID: "bob", Understanding: 20, Application: 15, Communication: 10, Behavior: 5, Total: 50, Entries: 1},
	}, nil
}

func (s *fakeStore) RepairTotals(_ context.Context) (int64, error) {
	if s.failWith != nil {
		return 0, s.failWith
	}
	return s.repaired, nil
}

var _ record.Store = (*fakeStore)(nil)

/* ---------------- Tests ---------------- */

func TestSavePerformanceOK(t *testing.T) {
	st := &fakeStore{}
	h := api.SavePerformanceHandler(st, metrics.NewManager())

	body := `[{"lesson_id":"L1","learner_id":"bob","understanding":20,"application":15,"communication":10,"behavior":5}]`
	req := httptest.NewRequest(http.MethodPost, "/save_performance", strings.NewReader(body))
	w := httptest.NewRecorder()
	h(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["message"] != "1 records saved successfully." {
		t.Fatalf("message = %q", resp["message"])
	}
	if len(st.records) != 1 || st.records[0].Total != 50.0 {
		t.Fatalf("stored: %+v", st.records)
	}
}

func TestSavePerformanceRejectsNonList(t *testing.T) {
	for _, body := range []string{`{"lesson_id":"L1"}`, `"nope"`, `null`, ``, `[1,2]`} {
		st := &fakeStore{}
		req := httptest.NewRequest(http.MethodPost, "/save_performance", strings.NewReader(body))
		w := httptest.NewRecorder()
		api.SavePerformanceHandler(st, metrics.NewManager())(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d, want 400", body, w.Code)
		}
		var resp map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("body %q: non-JSON error response %q", body, w.Body.String())
		}
		if resp["error"] == "" {
			t.Fatalf("body %q: missing error field", body)
		}
		if len(st.records) != 0 {
			t.Fatalf("body %q: store was touched", body)
		}
	}
}

func TestFetchDataFormatsTimestamp(t *testing.T) {
	st := &fakeStore{}
	if _, err := st.InsertBatch(context.Background(), []map[string]interface{}{
		{"lesson_id": "L1", "learner_id": "bob", "understanding": 20.0, "application": 15.0, "communication": 10.0, "behavior": 5.0},
	}); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/fetch_data", nil)
	w := httptest.NewRecorder()
	api.FetchDataHandler(st)(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var rows []map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows", len(rows))
	}
	if rows[0]["timestamp"] != "2026-03-14 09:26" {
		t.Fatalf("timestamp = %v", rows[0]["timestamp"])
	}
	if rows[0]["total"] != 50.0 {
		t.Fatalf("total = %v", rows[0]["total"])
	}
	if _, ok := rows[0]["record_id"]; !ok {
		t.Fatal("record_id missing")
	}
}

func TestFetchDataTimeParams(t *testing.T) {
	st := &fakeStore{}
	req := httptest.NewRequest(http.MethodGet, "/fetch_data?learner_id=bo&from=2026-03-01&to=2026-03-14", nil)
	w := httptest.NewRecorder()
	api.FetchDataHandler(st)(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if st.lastOpts.LearnerID != "bo" {
		t.Fatalf("learner filter = %q", st.lastOpts.LearnerID)
	}
	if st.lastOpts.From == nil || st.lastOpts.To == nil {
		t.Fatal("time bounds not parsed")
	}
	// date-only upper bound covers the whole day
	if st.lastOpts.To.Hour() != 23 || st.lastOpts.To.Minute() != 59 {
		t.Fatalf("to bound = %v, want end of day", st.lastOpts.To)
	}

	w = httptest.NewRecorder()
	api.FetchDataHandler(st)(w, httptest.NewRequest(http.MethodGet, "/fetch_data?from=not-a-date", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad from: status = %d, want 400", w.Code)
	}
}

func TestFetchDataEmptyIsArray(t *testing.T) {
	w := httptest.NewRecorder()
	api.FetchDataHandler(&fakeStore{})(w, httptest.NewRequest(http.MethodGet, "/fetch_data", nil))
	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Fatalf("empty result = %q, want []", got)
	}
}

func TestFetchAverages(t *testing.T) {
	w := httptest.NewRecorder()
	api.FetchAveragesHandler(&fakeStore{})(w, httptest.NewRequest(http.MethodGet, "/fetch_averages", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var rows []map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0]["learner_id"] != "bob" || rows[0]["total"] != 50.0 || rows[0]["entries"] != 1.0 {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestRecalculateTotalsMessage(t *testing.T) {
	st := &fakeStore{repaired: 3}
	w := httptest.NewRecorder()
	api.RecalculateTotalsHandler(st, metrics.NewManager())(w, httptest.NewRequest(http.MethodPost, "/recalculate_totals", nil))

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["message"] != "Recalculated totals for 3 rows." {
		t.Fatalf("message = %q", resp["message"])
	}
}

func TestStoreFailureSurfacesAsJSONError(t *testing.T) {
	st := &fakeStore{failWith: record.ErrStoreUnavailable}

	w := httptest.NewRecorder()
	api.FetchDataHandler(st)(w, httptest.NewRequest(http.MethodGet, "/fetch_data", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["error"] == "" {
		t.Fatal("missing error field")
	}
}
