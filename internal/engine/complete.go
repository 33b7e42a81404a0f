package engine

import (
	"context"
	"errors"

	"growthquest/internal/storage"
)

type CompleteResult struct {
	Quest     Quest
	Stats     StatVector
	Increases []StatIncrease
	// LevelAtCompletion is the level the quest was completed at. It is also
	// stored on the quest as completedAtLevel.
	LevelAtCompletion int
	CanLevelUp        bool
}

// CompleteQuest marks an open quest completed and applies its stat increments.
// The quest transition, stats write and one event per target stat commit
// together or not at all.
func (s *Service) CompleteQuest(ctx context.Context, userID, questID int64) (*CompleteResult, error) {
	var res *CompleteResult
	err := s.mutateStats(ctx, "complete quest", func(r storage.Repos) error {
		m, err := ownedMission(ctx, r, userID, questID)
		if err != nil {
			return err
		}
		q := questFromRow(*m)
		if err := q.CanComplete(); err != nil {
			return err
		}

		row, err := requireStats(ctx, r, userID)
		if err != nil {
			return err
		}
		v := vectorFromRow(row)
		levelBefore := v.Level

		next, increases, err := ApplyQuestIncrements(v, q.TargetStats, q.Difficulty, s.rng, s.policy)
		if err != nil {
			return err
		}

		now := s.clock()
		if _, err := r.Stats.Update(ctx, rowFromVector(userID, next, row.Version, now)); err != nil {
			return err
		}
		if err := r.Missions.MarkCompleted(ctx, questID, userID, now, levelBefore); err != nil {
			if errors.Is(err, storage.ErrMissionNotOpen) {
				return QuestStateError{QuestID: questID, Status: QuestCompleted, Action: "complete"}
			}
			return err
		}
		source := questID
		for _, inc := range increases {
			if _, err := r.Events.Insert(ctx, storage.StatEvent{
				UserID:      userID,
				StatName:    string(inc.Stat),
				EventType:   string(EventQuestComplete),
				Description: q.Title,
				Delta:       inc.Realized,
				SourceID:    &source,
				CreatedAt:   now,
			}); err != nil {
				return err
			}
		}

		level := levelBefore
		q.Status = QuestCompleted
		q.CompletedAtLevel = &level
		q.CompletedAt = &now
		res = &CompleteResult{
			Quest:             q,
			Stats:             next,
			Increases:         increases,
			LevelAtCompletion: levelBefore,
			CanLevelUp:        next.CanLevelUp,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.observer.QuestCompleted(res.Quest.Difficulty, res.Increases)
	ev := s.logger.Info().Int64("user_id", userID).Int64("quest_id", questID).
		Str("difficulty", string(res.Quest.Difficulty)).Int("total", res.Stats.TotalPoints)
	for _, inc := range res.Increases {
		ev = ev.Int(string(inc.Stat), inc.Realized)
	}
	ev.Bool("can_level_up", res.CanLevelUp).Msg("quest completed")
	return res, nil
}
