package repository

import (
	"context"
	"database/sql"

	"github.com/poyrazK/hostsdns/internal/core/domain"
)

// QueryMetricsRepository reads the resolver's query log from the metrics database.
type QueryMetricsRepository struct {
	db *sql.DB
}

func NewQueryMetricsRepository(db *sql.DB) *QueryMetricsRepository {
	return &QueryMetricsRepository{db: db}
}

// GetQueryMetrics summarizes query durations (microseconds) over the last day.
// An empty window yields zero percentiles.
func (r *QueryMetricsRepository) GetQueryMetrics(ctx context.Context) (*domain.QueryMetrics, error) {
	query := `SELECT
				percentile_cont(0.50) WITHIN GROUP (ORDER BY duration_us) AS p50,
				percentile_cont(0.90) WITHIN GROUP (ORDER BY duration_us) AS p90,
				percentile_cont(0.95) WITHIN GROUP (ORDER BY duration_us) AS p95,
				percentile_cont(0.99) WITHIN GROUP (ORDER BY duration_us) AS p99,
				avg(duration_us)::FLOAT8 AS avg,
				count(duration_us) AS count
			  FROM queries WHERE "time" > now() - '1 day'::INTERVAL`

	var p50, p90, p95, p99, avg sql.NullFloat64
	var m domain.QueryMetrics
	if err := r.db.QueryRowContext(ctx, query).Scan(&p50, &p90, &p95, &p99, &avg, &m.Count); err != nil {
		return nil, err
	}
	m.P50, m.P90, m.P95, m.P99, m.Avg = p50.Float64, p90.Float64, p95.Float64, p99.Float64, avg.Float64
	return &m, nil
}
