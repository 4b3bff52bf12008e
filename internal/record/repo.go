package record

import "context"

// Store is the persistence surface the HTTP layer depends on. SQLStore is
// the production implementation; tests substitute fakes.
type Store interface {
	InsertBatch(ctx context.Context, raws []map[string]interface{}) (int, error)
	ListRecords(ctx context.Context, opts ListOpts) ([]PerformanceRecord, error)
	ComputeAverages(ctx context.Context) ([]LearnerAverage, error)
	RepairTotals(ctx context.Context) (int64, error)
}
