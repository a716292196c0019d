package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"strategy-journal/internal/domain"
	"strategy-journal/internal/storage"
)

// BetStore implements storage.BetStore using PostgreSQL.
// Bets live in bets, their legs in bet_legs.
type BetStore struct {
	db DB
}

// NewBetStore creates a new BetStore.
func NewBetStore(db DB) *BetStore {
	return &BetStore{db: db}
}

// Compile-time interface check.
var _ storage.BetStore = (*BetStore)(nil)

const betColumns = `
	id, strategy_id, date_time, market, sector, symbol, expiration,
	risk, return_amount, return_percentage, status,
	created_at, updated_at, group_id`

// betSelect reads group_id back as "" for flat bets.
const betSelect = `
	id, strategy_id, date_time, market, sector, symbol, expiration,
	risk, return_amount, return_percentage, status,
	created_at, updated_at, COALESCE(group_id, '')`

const legColumns = `id, bet_id, seq, date_time, quantity, position, price, risk`

const legSelect = `id, bet_id, date_time, quantity, position, price, risk`

// Insert adds a new bet with its legs. Returns ErrDuplicateKey if id exists,
// ErrNotFound if the owning strategy does not exist.
func (s *BetStore) Insert(ctx context.Context, b *domain.Bet) (err error) {
	defer observeQuery("bet_insert", time.Now(), &err)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO bets (` + betColumns + `
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11,
			$12, $13, NULLIF($14, '')
		)
	`

	_, err = tx.Exec(ctx, query,
		b.ID, b.StrategyID, b.DateTime, string(b.Market), b.Sector, b.Symbol, b.Expiration,
		b.Risk, b.Return, b.ReturnPercentage, string(b.Status),
		b.CreatedAt, b.UpdatedAt, b.GroupID,
	)
	if err != nil {
		switch {
		case isDuplicateKeyError(err):
			return storage.ErrDuplicateKey
		case isForeignKeyError(err):
			return fmt.Errorf("strategy %s or group %q: %w", b.StrategyID, b.GroupID, storage.ErrNotFound)
		}
		return fmt.Errorf("insert bet: %w", err)
	}

	if err := insertLegs(ctx, tx, b); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByID retrieves a bet with legs. Returns ErrNotFound if not exists.
func (s *BetStore) GetByID(ctx context.Context, id string) (_ *domain.Bet, err error) {
	defer observeQuery("bet_get", time.Now(), &err)

	query := `SELECT ` + betSelect + ` FROM bets WHERE id = $1`

	b, err := scanBet(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get bet: %w", err)
	}

	if err := s.attachLegs(ctx, []*domain.Bet{b}); err != nil {
		return nil, err
	}
	return b, nil
}

// GetByStrategy retrieves all bets of a strategy, group children included,
// ordered by date_time DESC.
func (s *BetStore) GetByStrategy(ctx context.Context, strategyID string) (_ []*domain.Bet, err error) {
	defer observeQuery("bet_list", time.Now(), &err)

	query := `
		SELECT ` + betSelect + `
		FROM bets
		WHERE strategy_id = $1
		ORDER BY date_time DESC, id ASC
	`
	return s.list(ctx, query, strategyID)
}

// GetByGroup retrieves the children of a group ordered by date_time ASC.
func (s *BetStore) GetByGroup(ctx context.Context, groupID string) (_ []*domain.Bet, err error) {
	defer observeQuery("bet_list_by_group", time.Now(), &err)

	query := `
		SELECT ` + betSelect + `
		FROM bets
		WHERE group_id = $1
		ORDER BY date_time ASC, id ASC
	`
	bets, err := s.list(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	if bets == nil {
		bets = []*domain.Bet{}
	}
	return bets, nil
}

// list runs a bet query and attaches legs to the result.
func (s *BetStore) list(ctx context.Context, query string, arg string) ([]*domain.Bet, error) {
	rows, err := s.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query bets: %w", err)
	}
	bets, err := scanBets(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	if err := s.attachLegs(ctx, bets); err != nil {
		return nil, err
	}
	return bets, nil
}

// Update replaces a bet and its whole leg list. Returns ErrNotFound if not exists.
func (s *BetStore) Update(ctx context.Context, b *domain.Bet) (err error) {
	defer observeQuery("bet_update", time.Now(), &err)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE bets SET
			date_time = $2, market = $3, sector = $4, symbol = $5, expiration = $6,
			risk = $7, return_amount = $8, return_percentage = $9, status = $10,
			updated_at = $11, group_id = NULLIF($12, '')
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query,
		b.ID, b.DateTime, string(b.Market), b.Sector, b.Symbol, b.Expiration,
		b.Risk, b.Return, b.ReturnPercentage, string(b.Status),
		b.UpdatedAt, b.GroupID,
	)
	if err != nil {
		return fmt.Errorf("update bet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM bet_legs WHERE bet_id = $1`, b.ID); err != nil {
		return fmt.Errorf("delete bet legs: %w", err)
	}
	if err := insertLegs(ctx, tx, b); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Delete removes a bet. Legs cascade.
func (s *BetStore) Delete(ctx context.Context, id string) (err error) {
	defer observeQuery("bet_delete", time.Now(), &err)

	tag, err := s.db.Exec(ctx, `DELETE FROM bets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete bet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteByStrategy removes every bet of a strategy.
func (s *BetStore) DeleteByStrategy(ctx context.Context, strategyID string) (err error) {
	defer observeQuery("bet_delete_by_strategy", time.Now(), &err)

	if _, err := s.db.Exec(ctx, `DELETE FROM bets WHERE strategy_id = $1`, strategyID); err != nil {
		return fmt.Errorf("delete bets by strategy: %w", err)
	}
	return nil
}

// insertLegs writes every leg of b inside tx. seq records entry order.
func insertLegs(ctx context.Context, tx pgx.Tx, b *domain.Bet) error {
	query := `
		INSERT INTO bet_legs (` + legColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for i, l := range b.Legs {
		_, err := tx.Exec(ctx, query,
			l.ID, b.ID, i, l.DateTime, l.Quantity, string(l.Position), l.Price, l.Risk,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert bet leg: %w", err)
		}
	}
	return nil
}

// attachLegs loads legs for bets in one query, in entry order.
func (s *BetStore) attachLegs(ctx context.Context, bets []*domain.Bet) error {
	if len(bets) == 0 {
		return nil
	}

	ids := make([]string, len(bets))
	byID := make(map[string]*domain.Bet, len(bets))
	for i, b := range bets {
		ids[i] = b.ID
		byID[b.ID] = b
		b.Legs = []domain.Leg{}
	}

	query := `
		SELECT ` + legSelect + `
		FROM bet_legs
		WHERE bet_id = ANY($1)
		ORDER BY bet_id ASC, seq ASC
	`

	rows, err := s.db.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("query bet legs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			l        domain.Leg
			betID    string
			position string
		)
		if err := rows.Scan(&l.ID, &betID, &l.DateTime, &l.Quantity, &position, &l.Price, &l.Risk); err != nil {
			return fmt.Errorf("scan bet leg row: %w", err)
		}
		l.Position = domain.Position(position)
		if b, ok := byID[betID]; ok {
			b.Legs = append(b.Legs, l)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate bet leg rows: %w", err)
	}
	return nil
}

// scanBet scans a single row into a Bet without legs.
func scanBet(row pgx.Row) (*domain.Bet, error) {
	var (
		b              domain.Bet
		market, status string
	)
	err := row.Scan(
		&b.ID, &b.StrategyID, &b.DateTime, &market, &b.Sector, &b.Symbol, &b.Expiration,
		&b.Risk, &b.Return, &b.ReturnPercentage, &status,
		&b.CreatedAt, &b.UpdatedAt, &b.GroupID,
	)
	if err != nil {
		return nil, err
	}
	b.Market = domain.Market(market)
	b.Status = domain.Status(status)
	return &b, nil
}

// scanBets scans multiple rows into a slice.
func scanBets(rows pgx.Rows) ([]*domain.Bet, error) {
	var result []*domain.Bet
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bet row: %w", err)
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bet rows: %w", err)
	}
	return result, nil
}
