package record

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// MaxListRows caps ListRecords result sets so an unfiltered fetch cannot
// return an unbounded payload.
const MaxListRows = 1000

// SQLStore persists performance records in a single performance_records
// table. It works against both the sqlite and postgres drivers opened by
// internal/db; statements stick to the portable subset except where noted.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// InsertBatch normalizes and persists every record in raws inside one
// transaction: either all rows land or none do. Identifier fields are
// trimmed (case preserved); score fields pass through Normalize; any
// client-supplied total is discarded. Returns the number of rows written.
func (s *SQLStore) InsertBatch(ctx context.Context, raws []map[string]interface{}) (int, error) {
	if raws == nil {
		return 0, ErrInvalidBatch
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	now := time.Now()
	for _, raw := range raws {
		sc := Normalize(raw)
		_, err := tx.ExecContext(ctx, `INSERT INTO performance_records
			(lesson_id, learner_id, understanding, application, communication, behavior, total, ts)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			trimmedString(raw["lesson_id"]),
			trimmedString(raw["learner_id"]),
			sc.Understanding, sc.Application, sc.Communication, sc.Behavior, sc.Total,
			now.Unix())
		if err != nil {
			return 0, fmt.Errorf("insert record: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit batch: %w", err)
	}
	return len(raws), nil
}

// ListRecords returns records newest first (ties broken by descending id).
// The learner filter is a case-insensitive substring match; time bounds are
// inclusive. Results are capped at MaxListRows unless opts.Limit is lower.
func (s *SQLStore) ListRecords(ctx context.Context, opts ListOpts) ([]PerformanceRecord, error) {
	where := []string{"1=1"}
	var args []any

	if q := strings.ToLower(strings.TrimSpace(opts.LearnerID)); q != "" {
		args = append(args, "%"+q+"%")
		where = append(where, fmt.Sprintf("LOWER(learner_id) LIKE $%d", len(args)))
	}
	if opts.From != nil {
		args = append(args, opts.From.Unix())
		where = append(where, fmt.Sprintf("ts >= $%d", len(args)))
	}
	if opts.To != nil {
		args = append(args, opts.To.Unix())
		where = append(where, fmt.Sprintf("ts <= $%d", len(args)))
	}

	limit := opts.Limit
	if limit <= 0 || limit > MaxListRows {
		limit = MaxListRows
	}

	q := fmt.Sprintf(`SELECT id, COALESCE(lesson_id,''), COALESCE(learner_id,''),
			COALESCE(understanding,0), COALESCE(application,0),
			COALESCE(communication,0), COALESCE(behavior,0),
			total, ts
		FROM performance_records
		WHERE %s
		ORDER BY ts DESC, id DESC
		LIMIT %d`, strings.Join(where, " AND "), limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []PerformanceRecord
	for rows.Next() {
		var (
			r     PerformanceRecord
			total sql.NullFloat64
			ts    int64
		)
		if err := rows.Scan(&r.ID, &r.LessonID, &r.LearnerID,
			&r.Understanding, &r.Application, &r.Communication, &r.Behavior,
			&total, &ts); err != nil {
			return nil, err
		}
		if total.Valid {
			r.Total = total.Float64
		} else {
			// legacy rows may predate total backfill
			r.Total = TotalOf(r.Understanding, r.Application, r.Communication, r.Behavior)
		}
		r.Timestamp = time.Unix(ts, 0)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ComputeAverages returns per-learner means of each domain score, ascending
// by learner id. Learner identity is lower(trim(learner_id)); this same
// folding is used by the ListRecords filter so one learner never splits
// into several groups. Rows whose learner id is blank after trimming are
// excluded. Averages are rounded to 2 decimals in Go (ROUND(dp, n) is not
// portable to postgres); the total is the sum of the four rounded averages.
func (s *SQLStore) ComputeAverages(ctx context.Context) ([]LearnerAverage, error) {
	rows, err := s.db.QueryContext(ctx, `
		WITH clean AS (
			SELECT LOWER(TRIM(learner_id)) AS lid,
			       COALESCE(understanding,0) AS u,
			       COALESCE(application,0)   AS a,
			       COALESCE(communication,0) AS c,
			       COALESCE(behavior,0)      AS b
			FROM performance_records
			WHERE TRIM(COALESCE(learner_id,'')) <> ''
		)
		SELECT lid, AVG(u), AVG(a), AVG(c), AVG(b), COUNT(*)
		FROM clean
		GROUP BY lid
		ORDER BY lid`)
	if err != nil {
		return nil, fmt.Errorf("compute averages: %w", err)
	}
	defer rows.Close()

	var out []LearnerAverage
	for rows.Next() {
		var la LearnerAverage
		if err := rows.Scan(&la.LearnerID, &la.Understanding, &la.Application,
			&la.Communication, &la.Behavior, &la.Entries); err != nil {
			return nil, err
		}
		la.Understanding = Round2(la.Understanding)
		la.Application = Round2(la.Application)
		la.Communication = Round2(la.Communication)
		la.Behavior = Round2(la.Behavior)
		la.Total = Round2(la.Understanding + la.Application + la.Communication + la.Behavior)
		out = append(out, la)
	}
	return out, rows.Err()
}

// RepairTotals overwrites total on every row where it is null or drifted
// more than 1e-9 from the recomputed sum. Idempotent: a second run matches
// zero rows. Rounding must happen in SQL here, and the two drivers spell it
// differently, hence the branch.
func (s *SQLStore) RepairTotals(ctx context.Context) (int64, error) {
	const sum = `COALESCE(understanding,0) + COALESCE(application,0) +
		COALESCE(communication,0) + COALESCE(behavior,0)`

	var stmt string
	switch s.driver {
	case "postgres":
		stmt = fmt.Sprintf(`UPDATE performance_records
			SET total = ROUND((%[1]s)::numeric, 2)::double precision
			WHERE total IS NULL
			   OR ABS(total - ROUND((%[1]s)::numeric, 2)::double precision) > 1e-9`, sum)
	default:
		stmt = fmt.Sprintf(`UPDATE performance_records
			SET total = ROUND(%[1]s, 2)
			WHERE total IS NULL
			   OR ABS(total - ROUND(%[1]s, 2)) > 1e-9`, sum)
	}

	res, err := s.db.ExecContext(ctx, stmt)
	if err != nil {
		return 0, fmt.Errorf("repair totals: %w", err)
	}
	return res.RowsAffected()
}

// Ping reports whether the backing store is reachable.
func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func trimmedString(v interface{}) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
