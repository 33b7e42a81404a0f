package engine

import (
	"strings"
	"time"
)

// Quest is a unit of user work that raises its target stats when completed.
type Quest struct {
	ID               int64
	UserID           int64
	Title            string
	Description      string
	Difficulty       Difficulty
	EstimatedTime    string
	TargetStats      []StatName
	Status           QuestStatus
	AIGenerated      bool
	CompletedAtLevel *int
	CreatedAt        time.Time
	CompletedAt      *time.Time
}

func (q Quest) IsOpen() bool { return q.Status == QuestOpen }

// CanComplete reports whether the quest may transition open -> completed.
func (q Quest) CanComplete() error {
	if q.Status != QuestOpen {
		return QuestStateError{QuestID: q.ID, Status: q.Status, Action: "complete"}
	}
	return nil
}

// CanDelete reports whether the quest may be removed. Only open quests can be.
func (q Quest) CanDelete() error {
	if q.Status != QuestOpen {
		return QuestStateError{QuestID: q.ID, Status: q.Status, Action: "delete"}
	}
	return nil
}

type CreateQuestInput struct {
	Title         string
	Description   string
	Difficulty    Difficulty
	EstimatedTime string
	TargetStats   []StatName
	AIGenerated   bool
}

func normalizeTitle(title string) (string, error) {
	t := strings.TrimSpace(title)
	if t == "" {
		return "", ValidationError("title", "title is required")
	}
	return t, nil
}

func (in CreateQuestInput) normalize() (CreateQuestInput, error) {
	title, err := normalizeTitle(in.Title)
	if err != nil {
		return in, err
	}
	in.Title = title
	in.Description = strings.TrimSpace(in.Description)
	if in.Description == "" {
		return in, ValidationError("description", "description is required")
	}
	in.EstimatedTime = strings.TrimSpace(in.EstimatedTime)
	if in.EstimatedTime == "" {
		return in, ValidationError("estimated_time", "estimated time is required")
	}
	if !in.Difficulty.IsValid() {
		return in, ValidationError("difficulty", "invalid difficulty "+string(in.Difficulty)+" (easy|medium|hard)")
	}
	if err := ValidateTargetStats(in.TargetStats); err != nil {
		return in, err
	}
	in.TargetStats = append([]StatName(nil), in.TargetStats...)
	return in, nil
}
