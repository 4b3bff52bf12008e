package record

import "time"

// PerformanceRecord is one persisted measurement event for one
// learner/lesson pair. Total is denormalized: it always equals the sum of
// the four domain scores rounded to 2 decimals, recomputed server-side.
type PerformanceRecord struct {
	ID            int64     `json:"record_id"`
	LessonID      string    `json:"lesson_id"`
	LearnerID     string    `json:"learner_id"`
	Understanding float64   `json:"understanding"`
	Application   float64   `json:"application"`
	Communication float64   `json:"communication"`
	Behavior      float64   `json:"behavior"`
	Total         float64   `json:"total"`
	Timestamp     time.Time `json:"-"`
}

// LearnerAverage is the per-learner aggregate view. Total is the sum of the
// four domain averages, not the mean of stored totals, so stale totals in
// legacy rows cannot skew it.
type LearnerAverage struct {
	LearnerID     string  `json:"learner_id"`
	Understanding float64 `json:"understanding"`
	Application   float64 `json:"application"`
	Communication float64 `json:"communication"`
	Behavior      float64 `json:"behavior"`
	Total         float64 `json:"total"`
	Entries       int64   `json:"entries"`
}

// ListOpts filters ListRecords. LearnerID is a case-insensitive substring
// match; From/To are inclusive on both ends.
type ListOpts struct {
	LearnerID string
	From      *time.Time
	To        *time.Time
	Limit     int
}
