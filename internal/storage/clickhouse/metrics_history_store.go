package clickhouse

import (
	"context"
	"fmt"
	"time"

	"strategy-journal/internal/domain"
	"strategy-journal/internal/observability"
	"strategy-journal/internal/storage"
)

// MetricsHistoryStore implements storage.MetricsHistoryStore using ClickHouse.
type MetricsHistoryStore struct {
	conn *Conn
	now  func() time.Time
}

// NewMetricsHistoryStore creates a new MetricsHistoryStore.
func NewMetricsHistoryStore(conn *Conn) *MetricsHistoryStore {
	return &MetricsHistoryStore{conn: conn, now: time.Now}
}

// Compile-time interface check.
var _ storage.MetricsHistoryStore = (*MetricsHistoryStore)(nil)

// PersistMetrics appends a snapshot stamped with the current time.
func (s *MetricsHistoryStore) PersistMetrics(ctx context.Context, strategyID string, m domain.MetricsRecord) error {
	if strategyID == "" {
		return storage.ErrInvalidInput
	}
	start := time.Now()

	query := `
		INSERT INTO metrics_history (
			strategy_id, recorded_at,
			total_pnl, win_rate, avg_win, avg_loss, profit_factor, avg_pnl_per_day
		) VALUES (
			?, ?,
			?, ?, ?, ?, ?, ?
		)
	`

	err := s.conn.Exec(ctx, query,
		strategyID, s.now().UTC(),
		m.TotalPnL, m.WinRate, m.AvgWin, m.AvgLoss, m.ProfitFactor, m.AvgPnLPerDay,
	)
	observability.RecordDBQuery("clickhouse", "metrics_history_insert", time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("insert metrics snapshot: %w", err)
	}
	return nil
}

// GetByStrategy retrieves snapshots ordered by recorded_at ASC.
// limit > 0 keeps only the most recent limit snapshots.
func (s *MetricsHistoryStore) GetByStrategy(ctx context.Context, strategyID string, limit int) ([]*domain.MetricsSnapshot, error) {
	start := time.Now()

	query := `
		SELECT
			strategy_id, recorded_at,
			total_pnl, win_rate, avg_win, avg_loss, profit_factor, avg_pnl_per_day
		FROM metrics_history
		WHERE strategy_id = ?
		ORDER BY recorded_at DESC
	`
	args := []any{strategyID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, uint64(limit))
	}

	rows, err := s.conn.Query(ctx, query, args...)
	observability.RecordDBQuery("clickhouse", "metrics_history_select", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("query metrics history: %w", err)
	}
	defer rows.Close()

	snaps, err := scanSnapshots(rows)
	if err != nil {
		return nil, err
	}

	// Selected newest first so LIMIT keeps the latest; return oldest first.
	for i, j := 0, len(snaps)-1; i < j; i, j = i+1, j-1 {
		snaps[i], snaps[j] = snaps[j], snaps[i]
	}
	return snaps, nil
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanSnapshots scans multiple rows into a slice.
func scanSnapshots(rows chRows) ([]*domain.MetricsSnapshot, error) {
	var snaps []*domain.MetricsSnapshot

	for rows.Next() {
		var s domain.MetricsSnapshot
		m := &s.Metrics
		err := rows.Scan(
			&s.StrategyID, &s.RecordedAt,
			&m.TotalPnL, &m.WinRate, &m.AvgWin, &m.AvgLoss, &m.ProfitFactor, &m.AvgPnLPerDay,
		)
		if err != nil {
			return nil, fmt.Errorf("scan metrics snapshot row: %w", err)
		}
		snaps = append(snaps, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metrics snapshot rows: %w", err)
	}
	return snaps, nil
}
