package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"strategy-journal/internal/domain"
	"strategy-journal/internal/storage"
)

// BetGroupStore implements storage.BetGroupStore using PostgreSQL.
// Only the group header lives in bet_groups; children are rows in bets.
type BetGroupStore struct {
	db DB
}

// NewBetGroupStore creates a new BetGroupStore.
func NewBetGroupStore(db DB) *BetGroupStore {
	return &BetGroupStore{db: db}
}

// Compile-time interface check.
var _ storage.BetGroupStore = (*BetGroupStore)(nil)

const groupColumns = `
	id, strategy_id, symbol, date_opened, date_closed,
	risk, return_amount, return_percentage, status,
	created_at, updated_at`

// Insert adds a new group. Returns ErrDuplicateKey if id exists,
// ErrNotFound if the owning strategy does not exist.
func (s *BetGroupStore) Insert(ctx context.Context, g *domain.BetGroup) (err error) {
	defer observeQuery("group_insert", time.Now(), &err)

	query := `
		INSERT INTO bet_groups (` + groupColumns + `
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11
		)
	`

	_, err = s.db.Exec(ctx, query,
		g.ID, g.StrategyID, g.Symbol, g.DateOpened, g.DateClosed,
		g.Risk, g.Return, g.ReturnPercentage, string(g.Status),
		g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		switch {
		case isDuplicateKeyError(err):
			return storage.ErrDuplicateKey
		case isForeignKeyError(err):
			return fmt.Errorf("strategy %s: %w", g.StrategyID, storage.ErrNotFound)
		}
		return fmt.Errorf("insert bet group: %w", err)
	}
	return nil
}

// GetByID retrieves a group header. Returns ErrNotFound if not exists.
func (s *BetGroupStore) GetByID(ctx context.Context, id string) (_ *domain.BetGroup, err error) {
	defer observeQuery("group_get", time.Now(), &err)

	query := `SELECT ` + groupColumns + ` FROM bet_groups WHERE id = $1`

	g, err := scanGroup(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get bet group: %w", err)
	}
	return g, nil
}

// GetByStrategy retrieves the groups of a strategy ordered by date_opened DESC.
func (s *BetGroupStore) GetByStrategy(ctx context.Context, strategyID string) (_ []*domain.BetGroup, err error) {
	defer observeQuery("group_list", time.Now(), &err)

	query := `
		SELECT ` + groupColumns + `
		FROM bet_groups
		WHERE strategy_id = $1
		ORDER BY date_opened DESC, id ASC
	`

	rows, err := s.db.Query(ctx, query, strategyID)
	if err != nil {
		return nil, fmt.Errorf("query bet groups: %w", err)
	}
	defer rows.Close()

	var result []*domain.BetGroup
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bet group row: %w", err)
		}
		result = append(result, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bet group rows: %w", err)
	}
	return result, nil
}

// Update writes the descriptive and rolled-up fields. Returns ErrNotFound if not exists.
func (s *BetGroupStore) Update(ctx context.Context, g *domain.BetGroup) (err error) {
	defer observeQuery("group_update", time.Now(), &err)

	query := `
		UPDATE bet_groups SET
			symbol = $2, date_opened = $3, date_closed = $4,
			risk = $5, return_amount = $6, return_percentage = $7, status = $8,
			updated_at = $9
		WHERE id = $1
	`

	tag, err := s.db.Exec(ctx, query,
		g.ID, g.Symbol, g.DateOpened, g.DateClosed,
		g.Risk, g.Return, g.ReturnPercentage, string(g.Status),
		g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update bet group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Delete removes a group. Child bets cascade.
func (s *BetGroupStore) Delete(ctx context.Context, id string) (err error) {
	defer observeQuery("group_delete", time.Now(), &err)

	tag, err := s.db.Exec(ctx, `DELETE FROM bet_groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete bet group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteByStrategy removes every group of a strategy.
func (s *BetGroupStore) DeleteByStrategy(ctx context.Context, strategyID string) (err error) {
	defer observeQuery("group_delete_by_strategy", time.Now(), &err)

	if _, err := s.db.Exec(ctx, `DELETE FROM bet_groups WHERE strategy_id = $1`, strategyID); err != nil {
		return fmt.Errorf("delete bet groups by strategy: %w", err)
	}
	return nil
}

func scanGroup(row pgx.Row) (*domain.BetGroup, error) {
	var (
		g      domain.BetGroup
		status string
	)
	err := row.Scan(
		&g.ID, &g.StrategyID, &g.Symbol, &g.DateOpened, &g.DateClosed,
		&g.Risk, &g.Return, &g.ReturnPercentage, &status,
		&g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	g.Status = domain.Status(status)
	return &g, nil
}
