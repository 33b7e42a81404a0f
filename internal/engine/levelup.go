package engine

import (
	"context"
	"fmt"

	"growthquest/internal/storage"
)

// GetStats returns the user's current stat vector with eligibility under the active policy.
func (s *Service) GetStats(ctx context.Context, userID int64) (StatVector, error) {
	r := s.repo.Repos()
	if _, err := requireUser(ctx, r, userID); err != nil {
		return StatVector{}, persistence("get stats", err)
	}
	row, err := requireStats(ctx, r, userID)
	if err != nil {
		return StatVector{}, persistence("get stats", err)
	}
	v := vectorFromRow(row)
	// The stored flag reflects the policy active at the last write.
	v.CanLevelUp = RecomputeLevelEligibility(v, s.policy)
	return v, nil
}

// GetProgress reports how far the user is from the next level under the active policy.
func (s *Service) GetProgress(ctx context.Context, userID int64) (Progress, error) {
	v, err := s.GetStats(ctx, userID)
	if err != nil {
		return Progress{}, err
	}
	return s.policy.Progress(v), nil
}

// RequestLevelUp commits one level when the current vector is eligible. A
// rejected request returns a LevelUpError naming the unmet conditions.
func (s *Service) RequestLevelUp(ctx context.Context, userID int64) (StatVector, error) {
	var out StatVector
	err := s.mutateStats(ctx, "level up", func(r storage.Repos) error {
		if _, err := requireUser(ctx, r, userID); err != nil {
			return err
		}
		row, err := requireStats(ctx, r, userID)
		if err != nil {
			return err
		}
		v := vectorFromRow(row)
		elig := s.policy.Eligibility(v)
		if !elig.Eligible {
			lerr := LevelUpError{Level: v.Level, Unmet: elig.Unmet}
			if req, ok := s.policy.Requirement(v.Level); ok {
				lerr.Requirement = &req
			}
			return lerr
		}

		next := ApplyLevelUp(v)
		now := s.clock()
		if _, err := r.Stats.Update(ctx, rowFromVector(userID, next, row.Version, now)); err != nil {
			return err
		}
		if _, err := r.Events.Insert(ctx, storage.StatEvent{
			UserID:      userID,
			StatName:    LevelEventStat,
			EventType:   string(EventLevelUp),
			Description: fmt.Sprintf("level %d -> %d", v.Level, next.Level),
			Delta:       1,
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return StatVector{}, err
	}
	s.observer.LevelUp(out.Level)
	s.logger.Info().Int64("user_id", userID).Int("level", out.Level).Msg("level up")
	return out, nil
}

// GrantStat adds a positive amount to one stat outside of quest completion.
func (s *Service) GrantStat(ctx context.Context, userID int64, stat StatName, amount int, reason string) (StatIncrease, StatVector, error) {
	if reason == "" {
		reason = "manual grant"
	}
	var (
		inc StatIncrease
		out StatVector
	)
	err := s.mutateStats(ctx, "grant stat", func(r storage.Repos) error {
		row, err := requireStats(ctx, r, userID)
		if err != nil {
			return err
		}
		next, change, err := ApplyManualGrant(vectorFromRow(row), stat, amount, s.policy)
		if err != nil {
			return err
		}
		now := s.clock()
		if _, err := r.Stats.Update(ctx, rowFromVector(userID, next, row.Version, now)); err != nil {
			return err
		}
		if _, err := r.Events.Insert(ctx, storage.StatEvent{
			UserID:      userID,
			StatName:    string(stat),
			EventType:   string(EventManual),
			Description: reason,
			Delta:       change.Realized,
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		inc, out = change, next
		return nil
	})
	if err != nil {
		return StatIncrease{}, StatVector{}, err
	}
	s.logger.Info().Int64("user_id", userID).Str("stat", string(stat)).Int("delta", inc.Realized).Msg("stat granted")
	return inc, out, nil
}
