package storage

import "time"

type User struct {
	ID        int64
	Username  string
	Nickname  string
	CreatedAt time.Time
}

// UserStats is the single stats row per user. Version guards read-modify-write.
type UserStats struct {
	UserID       int64
	Intelligence int
	Creativity   int
	Social       int
	Physical     int
	Emotional    int
	Focus        int
	Adaptability int
	TotalPoints  int
	Level        int
	CanLevelUp   bool
	Version      int64
	UpdatedAt    time.Time
}

type Mission struct {
	ID               int64
	UserID           int64
	Title            string
	Description      string
	Difficulty       string
	EstimatedTime    string
	TargetStats      []string // Ordered, stored as a JSON array
	Status           string
	IsAIGenerated    bool
	CompletedAtLevel *int
	CreatedAt        time.Time
	CompletedAt      *time.Time
}

// StatEvent is append-only; there is no update or delete for it.
type StatEvent struct {
	ID          int64
	UserID      int64
	StatName    string
	EventType   string
	Description string
	Delta       int
	SourceID    *int64
	CreatedAt   time.Time
}

type Analysis struct {
	ID               int64
	CorrelationID    string
	UserID           int64
	InputMethod      string
	InputData        string // JSON
	Result           string // JSON
	Summary          string
	StatExplanations string // JSON
	UsedFallback     bool
	CreatedAt        time.Time
}

// PendingAnalysis holds submitted questionnaire data until it is analyzed.
type PendingAnalysis struct {
	UserID      int64
	InputMethod string
	InputData   string // JSON
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

func (p PendingAnalysis) Expired(now time.Time) bool {
	return !p.ExpiresAt.IsZero() && !now.Before(p.ExpiresAt)
}
