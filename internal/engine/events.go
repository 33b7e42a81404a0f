package engine

import (
	"context"
	"strings"
	"time"

	"growthquest/internal/storage"
)

// StatChange is one entry of the append-only stat history.
type StatChange struct {
	ID          int64
	Stat        string
	Type        EventType
	Description string
	Delta       int
	SourceID    *int64
	CreatedAt   time.Time
}

// GetRecentStatEvents returns the newest history entries, optionally for one
// stat ("level" selects level-up entries). limit <= 0 uses the configured default.
func (s *Service) GetRecentStatEvents(ctx context.Context, userID int64, stat string, limit int) ([]StatChange, error) {
	filter := strings.TrimSpace(stat)
	if filter != "" && !strings.EqualFold(filter, LevelEventStat) {
		name, err := ParseStatName(filter)
		if err != nil {
			return nil, err
		}
		filter = string(name)
	} else if filter != "" {
		filter = LevelEventStat
	}
	if limit <= 0 {
		limit = s.eventsLimit
	}
	if limit > MaxEventsLimit {
		limit = MaxEventsLimit
	}

	r := s.repo.Repos()
	if _, err := requireUser(ctx, r, userID); err != nil {
		return nil, persistence("recent events", err)
	}
	rows, err := r.Events.ListRecent(ctx, userID, filter, limit)
	if err != nil {
		return nil, PersistenceError("recent events", err)
	}
	out := make([]StatChange, 0, len(rows))
	for _, e := range rows {
		out = append(out, statChangeFromRow(e))
	}
	return out, nil
}

func statChangeFromRow(e storage.StatEvent) StatChange {
	return StatChange{
		ID:          e.ID,
		Stat:        e.StatName,
		Type:        EventType(e.EventType),
		Description: e.Description,
		Delta:       e.Delta,
		SourceID:    e.SourceID,
		CreatedAt:   e.CreatedAt,
	}
}
