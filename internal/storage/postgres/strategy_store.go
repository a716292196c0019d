package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"strategy-journal/internal/domain"
	"strategy-journal/internal/observability"
	"strategy-journal/internal/storage"
)

// StrategyStore implements storage.StrategyStore using PostgreSQL.
type StrategyStore struct {
	db DB
}

// NewStrategyStore creates a new StrategyStore.
func NewStrategyStore(db DB) *StrategyStore {
	return &StrategyStore{db: db}
}

// Compile-time interface check.
var _ storage.StrategyStore = (*StrategyStore)(nil)

const strategyColumns = `
	id, user_id, name, description,
	market_types, timeframes, categories,
	total_pnl, win_rate, avg_win, avg_loss, profit_factor, avg_pnl_per_day,
	created_at, updated_at`

// Insert adds a new strategy. Returns ErrDuplicateKey if id exists.
func (s *StrategyStore) Insert(ctx context.Context, st *domain.Strategy) (err error) {
	defer observeQuery("strategy_insert", time.Now(), &err)

	query := `
		INSERT INTO strategies (` + strategyColumns + `
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7,
			$8, $9, $10, $11, $12, $13,
			$14, $15
		)
	`

	m := st.Metrics
	_, err = s.db.Exec(ctx, query,
		st.ID, st.UserID, st.Name, st.Description,
		st.MarketTypes, st.Timeframes, st.Categories,
		m.TotalPnL, m.WinRate, m.AvgWin, m.AvgLoss, m.ProfitFactor, m.AvgPnLPerDay,
		st.CreatedAt, st.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert strategy: %w", err)
	}
	return nil
}

// GetByID retrieves a strategy by its ID. Returns ErrNotFound if not exists.
func (s *StrategyStore) GetByID(ctx context.Context, id string) (_ *domain.Strategy, err error) {
	defer observeQuery("strategy_get", time.Now(), &err)

	query := `SELECT ` + strategyColumns + ` FROM strategies WHERE id = $1`

	st, err := scanStrategy(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get strategy: %w", err)
	}
	return st, nil
}

// ListByUser retrieves strategies owned by userID, ordered by created_at DESC.
func (s *StrategyStore) ListByUser(ctx context.Context, userID string) (_ []*domain.Strategy, err error) {
	defer observeQuery("strategy_list", time.Now(), &err)

	query := `
		SELECT ` + strategyColumns + `
		FROM strategies
		WHERE ($1 = '' OR user_id = $1)
		ORDER BY created_at DESC, id ASC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query strategies: %w", err)
	}
	defer rows.Close()

	return scanStrategies(rows)
}

// Update replaces the descriptive fields of a strategy.
func (s *StrategyStore) Update(ctx context.Context, st *domain.Strategy) (err error) {
	defer observeQuery("strategy_update", time.Now(), &err)

	query := `
		UPDATE strategies SET
			name = $2, description = $3,
			market_types = $4, timeframes = $5, categories = $6,
			updated_at = $7
		WHERE id = $1
	`

	tag, err := s.db.Exec(ctx, query,
		st.ID, st.Name, st.Description,
		st.MarketTypes, st.Timeframes, st.Categories,
		st.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update strategy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// PersistMetrics replaces the metrics columns of a strategy.
func (s *StrategyStore) PersistMetrics(ctx context.Context, strategyID string, m domain.MetricsRecord) (err error) {
	defer observeQuery("strategy_persist_metrics", time.Now(), &err)

	query := `
		UPDATE strategies SET
			total_pnl = $2, win_rate = $3, avg_win = $4,
			avg_loss = $5, profit_factor = $6, avg_pnl_per_day = $7
		WHERE id = $1
	`

	tag, err := s.db.Exec(ctx, query,
		strategyID,
		m.TotalPnL, m.WinRate, m.AvgWin,
		m.AvgLoss, m.ProfitFactor, m.AvgPnLPerDay,
	)
	if err != nil {
		return fmt.Errorf("persist strategy metrics: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Delete removes a strategy. Bets and legs cascade.
func (s *StrategyStore) Delete(ctx context.Context, id string) (err error) {
	defer observeQuery("strategy_delete", time.Now(), &err)

	tag, err := s.db.Exec(ctx, `DELETE FROM strategies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete strategy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanStrategy scans a single row into a Strategy.
func scanStrategy(row pgx.Row) (*domain.Strategy, error) {
	var st domain.Strategy
	m := &st.Metrics
	err := row.Scan(
		&st.ID, &st.UserID, &st.Name, &st.Description,
		&st.MarketTypes, &st.Timeframes, &st.Categories,
		&m.TotalPnL, &m.WinRate, &m.AvgWin, &m.AvgLoss, &m.ProfitFactor, &m.AvgPnLPerDay,
		&st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// scanStrategies scans multiple rows into a slice.
func scanStrategies(rows pgx.Rows) ([]*domain.Strategy, error) {
	var result []*domain.Strategy
	for rows.Next() {
		st, err := scanStrategy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan strategy row: %w", err)
		}
		result = append(result, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate strategy rows: %w", err)
	}
	return result, nil
}

// observeQuery records duration and failure of a query. ErrNotFound is not a failure.
func observeQuery(operation string, start time.Time, errp *error) {
	err := *errp
	if err == storage.ErrNotFound {
		err = nil
	}
	observability.RecordDBQuery("postgres", operation, time.Since(start).Seconds(), err)
}
