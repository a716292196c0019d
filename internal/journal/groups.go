package journal

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"strategy-journal/internal/domain"
	"strategy-journal/internal/metrics"
	"strategy-journal/internal/observability"
	"strategy-journal/internal/storage"
)

var ErrGroupNotFound = fmt.Errorf("bet group %w", storage.ErrNotFound)

// CreateGroup stores an empty group under strategyID. A group without
// children settles as Push, so the strategy metrics are recomputed.
func (s *Service) CreateGroup(ctx context.Context, strategyID string, in domain.BetGroupCreateInput) (*MutationResult, error) {
	if err := s.requireStrategy(ctx, strategyID); err != nil {
		return nil, err
	}

	now := s.now()
	g := domain.NewBetGroup(s.newID(), strategyID, in, now)
	metrics.SettleGroup(&g, now)
	if err := s.groups.Insert(ctx, &g); err != nil {
		return nil, fmt.Errorf("insert bet group: %w", err)
	}
	observability.RecordGroupMutation("create")
	s.logger.Info("bet group created", zap.String("strategy_id", strategyID), zap.String("group_id", g.ID))

	return s.recompute(ctx, strategyID, &MutationResult{Group: &g}), nil
}

// GetGroup returns a group with its children.
func (s *Service) GetGroup(ctx context.Context, id string) (*domain.BetGroup, error) {
	g, err := s.groups.GetByID(ctx, id)
	if err != nil {
		return nil, groupErr(err)
	}
	children, err := s.bets.GetByGroup(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load group bets: %w", err)
	}
	attachChildren(g, children)
	return g, nil
}

// ListGroups returns the groups of a strategy with their children, most
// recently opened first.
func (s *Service) ListGroups(ctx context.Context, strategyID string) ([]*domain.BetGroup, error) {
	if err := s.requireStrategy(ctx, strategyID); err != nil {
		return nil, err
	}
	groups, err := s.groups.GetByStrategy(ctx, strategyID)
	if err != nil {
		return nil, fmt.Errorf("list bet groups: %w", err)
	}
	bets, err := s.bets.GetByStrategy(ctx, strategyID)
	if err != nil {
		return nil, fmt.Errorf("list bets: %w", err)
	}

	byGroup := make(map[string][]*domain.Bet)
	for _, b := range bets {
		if b.GroupID != "" {
			byGroup[b.GroupID] = append(byGroup[b.GroupID], b)
		}
	}
	for _, g := range groups {
		children := byGroup[g.ID]
		sort.SliceStable(children, func(i, j int) bool {
			if !children[i].DateTime.Equal(children[j].DateTime) {
				return children[i].DateTime.Before(children[j].DateTime)
			}
			return children[i].ID < children[j].ID
		})
		attachChildren(g, children)
	}
	if groups == nil {
		groups = []*domain.BetGroup{}
	}
	return groups, nil
}

// UpdateGroup applies a partial update and re-settles the group.
func (s *Service) UpdateGroup(ctx context.Context, id string, in domain.BetGroupUpdateInput) (*MutationResult, error) {
	g, err := s.GetGroup(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	g.Apply(in, now)
	metrics.SettleGroup(g, now)
	if err := s.groups.Update(ctx, g); err != nil {
		return nil, groupErr(err)
	}
	observability.RecordGroupMutation("update")
	s.logger.Info("bet group updated",
		zap.String("strategy_id", g.StrategyID),
		zap.String("group_id", g.ID),
		zap.String("status", string(g.Status)))

	return s.recompute(ctx, g.StrategyID, &MutationResult{Group: g}), nil
}

// DeleteGroup removes a group with its children and recomputes the
// strategy metrics. The result carries the removed group.
func (s *Service) DeleteGroup(ctx context.Context, id string) (*MutationResult, error) {
	g, err := s.GetGroup(ctx, id)
	if err != nil {
		return nil, err
	}

	for _, b := range g.Bets {
		if err := s.bets.Delete(ctx, b.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("delete group bet %s: %w", b.ID, err)
		}
	}
	if err := s.groups.Delete(ctx, id); err != nil {
		return nil, groupErr(err)
	}
	observability.RecordGroupMutation("delete")
	s.logger.Info("bet group deleted",
		zap.String("strategy_id", g.StrategyID),
		zap.String("group_id", g.ID),
		zap.Int("bets", len(g.Bets)))

	return s.recompute(ctx, g.StrategyID, &MutationResult{Group: g}), nil
}

// AddGroupBet stores a new child bet under a group, re-settles the group
// and recomputes the strategy metrics.
func (s *Service) AddGroupBet(ctx context.Context, groupID string, in domain.BetCreateInput) (*MutationResult, error) {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, groupErr(err)
	}
	if err := s.requireStrategy(ctx, g.StrategyID); err != nil {
		return nil, err
	}

	b := domain.NewBet(s.newID(), g.StrategyID, in, s.legIDs(len(in.Legs)), s.now())
	b.GroupID = g.ID
	metrics.ApplyLegs(&b)
	if err := s.bets.Insert(ctx, &b); err != nil {
		return nil, fmt.Errorf("insert bet: %w", err)
	}
	observability.RecordBetMutation("create")
	s.logger.Info("group bet created",
		zap.String("strategy_id", b.StrategyID),
		zap.String("group_id", g.ID),
		zap.String("bet_id", b.ID),
		zap.String("status", string(b.Status)))

	return s.afterMutation(ctx, &b), nil
}

// resettleGroup rolls the stored children of a group up into its header.
func (s *Service) resettleGroup(ctx context.Context, id string) (*domain.BetGroup, error) {
	g, err := s.GetGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	metrics.SettleGroup(g, now)
	g.UpdatedAt = now
	if err := s.groups.Update(ctx, g); err != nil {
		return nil, groupErr(err)
	}
	return g, nil
}

func attachChildren(g *domain.BetGroup, children []*domain.Bet) {
	g.Bets = make([]domain.Bet, len(children))
	for i, b := range children {
		g.Bets[i] = *b
	}
}

func groupErr(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ErrGroupNotFound
	}
	return fmt.Errorf("bet group store: %w", err)
}
