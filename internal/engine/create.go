package engine

import (
	"context"
	"errors"
	"fmt"

	"growthquest/internal/storage"
)

// Quest sources reported to the Observer.
const (
	SourceManual    = "manual"
	SourceGenerated = "generated"
	SourceImport    = "import"
)

func (s *Service) CreateQuest(ctx context.Context, userID int64, in CreateQuestInput) (Quest, error) {
	quests, err := s.CreateQuests(ctx, userID, SourceManual, []CreateQuestInput{in})
	if err != nil {
		return Quest{}, err
	}
	return quests[0], nil
}

// CreateQuests validates and persists a batch atomically. The open-quest cap is
// checked in the same transaction as the inserts; a batch that does not fit is
// rejected whole.
func (s *Service) CreateQuests(ctx context.Context, userID int64, source string, inputs []CreateQuestInput) ([]Quest, error) {
	if len(inputs) == 0 {
		return nil, ValidationError("quests", "at least one quest is required")
	}
	clean := make([]CreateQuestInput, len(inputs))
	for i, in := range inputs {
		n, err := in.normalize()
		if err != nil {
			if len(inputs) == 1 {
				return nil, err
			}
			return nil, fmt.Errorf("quest %d: %w", i+1, err)
		}
		clean[i] = n
	}

	now := s.clock()
	var out []Quest
	err := s.repo.InTx(ctx, func(r storage.Repos) error {
		out = out[:0]
		if _, err := requireUser(ctx, r, userID); err != nil {
			return err
		}
		open, err := r.Missions.CountOpen(ctx, userID)
		if err != nil {
			return err
		}
		if err := CheckQuestCapacity(open, len(clean)); err != nil {
			return err
		}
		for _, in := range clean {
			id, err := r.Missions.Insert(ctx, storage.MissionInsert{
				UserID:        userID,
				Title:         in.Title,
				Description:   in.Description,
				Difficulty:    string(in.Difficulty),
				EstimatedTime: in.EstimatedTime,
				TargetStats:   statStrings(in.TargetStats),
				IsAIGenerated: in.AIGenerated,
				CreatedAt:     now,
			})
			if err != nil {
				return err
			}
			out = append(out, Quest{
				ID:            id,
				UserID:        userID,
				Title:         in.Title,
				Description:   in.Description,
				Difficulty:    in.Difficulty,
				EstimatedTime: in.EstimatedTime,
				TargetStats:   in.TargetStats,
				Status:        QuestOpen,
				AIGenerated:   in.AIGenerated,
				CreatedAt:     now,
			})
		}
		return nil
	})
	if err != nil {
		return nil, persistence("create quests", err)
	}

	s.observer.QuestsCreated(source, len(out))
	s.logger.Info().Int64("user_id", userID).Str("source", source).Int("count", len(out)).Msg("quests created")
	return out, nil
}

// GenerateQuests asks the quest provider for a batch tailored to the user's
// stats. Capacity is checked before the provider call and again on insert.
func (s *Service) GenerateQuests(ctx context.Context, userID int64) ([]Quest, error) {
	if s.generator == nil {
		return nil, UpstreamError("generate quests", errors.New("no quest provider configured"))
	}

	r := s.repo.Repos()
	row, err := requireStats(ctx, r, userID)
	if err != nil {
		return nil, persistence("generate quests", err)
	}
	open, err := r.Missions.ListByUser(ctx, userID)
	if err != nil {
		return nil, PersistenceError("generate quests", err)
	}
	var titles []string
	for _, m := range open {
		if m.Status == storage.MissionStatusOpen {
			titles = append(titles, m.Title)
		}
	}
	if err := CheckQuestCapacity(len(titles), s.questBatch); err != nil {
		return nil, err
	}

	gctx, cancel := context.WithTimeout(ctx, s.analysisTimeout)
	defer cancel()
	text, err := s.generator.GenerateQuests(gctx, QuestRequest{
		UserID:     userID,
		Stats:      vectorFromRow(row),
		Count:      s.questBatch,
		OpenTitles: titles,
	})
	if err != nil {
		return nil, UpstreamError("generate quests", err)
	}
	inputs, err := ParseQuestBatch(text)
	if err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("quest output rejected")
		return nil, err
	}
	return s.CreateQuests(ctx, userID, SourceGenerated, inputs)
}

// ListQuests returns every quest of the user in creation order.
func (s *Service) ListQuests(ctx context.Context, userID int64) ([]Quest, error) {
	r := s.repo.Repos()
	if _, err := requireUser(ctx, r, userID); err != nil {
		return nil, persistence("list quests", err)
	}
	rows, err := r.Missions.ListByUser(ctx, userID)
	if err != nil {
		return nil, PersistenceError("list quests", err)
	}
	out := make([]Quest, 0, len(rows))
	for _, m := range rows {
		out = append(out, questFromRow(m))
	}
	return out, nil
}

func (s *Service) GetQuest(ctx context.Context, userID, questID int64) (Quest, error) {
	m, err := ownedMission(ctx, s.repo.Repos(), userID, questID)
	if err != nil {
		return Quest{}, persistence("get quest", err)
	}
	return questFromRow(*m), nil
}

// DeleteQuest removes an open quest. Completed quests are history and stay.
func (s *Service) DeleteQuest(ctx context.Context, userID, questID int64) error {
	err := s.repo.InTx(ctx, func(r storage.Repos) error {
		m, err := ownedMission(ctx, r, userID, questID)
		if err != nil {
			return err
		}
		if err := questFromRow(*m).CanDelete(); err != nil {
			return err
		}
		return r.Missions.DeleteOpen(ctx, questID, userID)
	})
	if errors.Is(err, storage.ErrMissionNotOpen) {
		return QuestStateError{QuestID: questID, Status: QuestCompleted, Action: "delete"}
	}
	if err != nil {
		return persistence("delete quest", err)
	}
	s.logger.Info().Int64("user_id", userID).Int64("quest_id", questID).Msg("quest deleted")
	return nil
}

func ownedMission(ctx context.Context, r storage.Repos, userID, questID int64) (*storage.Mission, error) {
	m, err := r.Missions.Get(ctx, questID)
	if err != nil {
		return nil, err
	}
	if m == nil || m.UserID != userID {
		return nil, NotFoundError("quest", fmt.Sprintf("quest %d not found", questID))
	}
	return m, nil
}
