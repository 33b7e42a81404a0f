package api

import (
	"time"

	"growthquest/internal/engine"
	"growthquest/internal/storage"
)

// ProblemDetail is the error body for every non-2xx response.
type ProblemDetail struct {
	Type     string   `json:"type"`
	Title    string   `json:"title"`
	Status   int      `json:"status"`
	Detail   string   `json:"detail,omitempty"`
	Instance string   `json:"instance,omitempty"`
	Reason   string   `json:"reason,omitempty"`
	Unmet    []string `json:"unmet,omitempty"`
}

type CreateUserRequest struct {
	Username string `json:"username"`
	Nickname string `json:"nickname"`
}

type UserResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Nickname  string    `json:"nickname"`
	CreatedAt time.Time `json:"createdAt"`
}

type QuestionnaireRequest struct {
	Method  string            `json:"inputMethod"`
	Answers map[string]string `json:"answers"`
	Text    string            `json:"gptResponse"`
}

type RawAnalysisRequest struct {
	Raw string `json:"raw"`
}

type AnalysisResponse struct {
	CorrelationID    string            `json:"correlationId"`
	Stats            StatsResponse     `json:"stats"`
	Summary          string            `json:"summary,omitempty"`
	StatExplanations map[string]string `json:"statExplanations,omitempty"`
	UsedFallback     bool              `json:"usedFallback"`
}

type ProgressResponse struct {
	MinStatRequired     int     `json:"minStatRequired,omitempty"`
	TotalRequired       int     `json:"totalRequired,omitempty"`
	PercentTotal        float64 `json:"percentTotal"`
	PercentMinStat      float64 `json:"percentMinStat"`
	AtMaxLevel          bool    `json:"atMaxLevel"`
	NextMinStatRequired int     `json:"nextMinStatRequired,omitempty"`
	NextTotalRequired   int     `json:"nextTotalRequired,omitempty"`
}

type StatsResponse struct {
	Intelligence int               `json:"intelligence"`
	Creativity   int               `json:"creativity"`
	Social       int               `json:"social"`
	Physical     int               `json:"physical"`
	Emotional    int               `json:"emotional"`
	Focus        int               `json:"focus"`
	Adaptability int               `json:"adaptability"`
	TotalPoints  int               `json:"totalPoints"`
	Level        int               `json:"level"`
	CanLevelUp   bool              `json:"canLevelUp"`
	Progress     *ProgressResponse `json:"progress,omitempty"`
}

type CreateQuestRequest struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Difficulty    string   `json:"difficulty"`
	EstimatedTime string   `json:"estimatedTime"`
	TargetStats   []string `json:"targetStats"`
}

type QuestResponse struct {
	ID               int64      `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Difficulty       string     `json:"difficulty"`
	EstimatedTime    string     `json:"estimatedTime"`
	TargetStats      []string   `json:"targetStats"`
	Status           string     `json:"status"`
	IsCompleted      bool       `json:"isCompleted"`
	IsAIGenerated    bool       `json:"isAIGenerated"`
	CompletedAtLevel *int       `json:"completedAtLevel,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
}

type QuestListResponse struct {
	Quests []QuestResponse `json:"quests"`
	Open   int             `json:"open"`
	Limit  int             `json:"limit"`
}

type StatIncreaseResponse struct {
	Stat     string `json:"stat"`
	Drawn    int    `json:"drawn"`
	Realized int    `json:"realized"`
	Before   int    `json:"before"`
	After    int    `json:"after"`
}

type CompleteQuestResponse struct {
	Quest      QuestResponse          `json:"quest"`
	Stats      StatsResponse          `json:"stats"`
	Increases  []StatIncreaseResponse `json:"increases"`
	CanLevelUp bool                   `json:"canLevelUp"`
}

type EventResponse struct {
	ID          int64     `json:"id"`
	Stat        string    `json:"statName"`
	Type        string    `json:"eventType"`
	Description string    `json:"description"`
	Delta       int       `json:"delta"`
	SourceID    *int64    `json:"sourceId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type LevelGroupResponse struct {
	Level  int             `json:"level"`
	Quests []QuestResponse `json:"quests"`
}

type BadgeResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Earned      bool   `json:"earned"`
}

type AchievementsResponse struct {
	Completed int                  `json:"completed"`
	ByLevel   []LevelGroupResponse `json:"byLevel"`
	Badges    []BadgeResponse      `json:"badges"`
	Earned    int                  `json:"earned"`
}

func userResponse(u *storage.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, Nickname: u.Nickname, CreatedAt: u.CreatedAt}
}

func statsResponse(v engine.StatVector, p *engine.Progress) StatsResponse {
	out := StatsResponse{
		Intelligence: v.Get(engine.StatIntelligence),
		Creativity:   v.Get(engine.StatCreativity),
		Social:       v.Get(engine.StatSocial),
		Physical:     v.Get(engine.StatPhysical),
		Emotional:    v.Get(engine.StatEmotional),
		Focus:        v.Get(engine.StatFocus),
		Adaptability: v.Get(engine.StatAdaptability),
		TotalPoints:  v.Total(),
		Level:        v.Level,
		CanLevelUp:   v.CanLevelUp,
	}
	if p != nil {
		pr := &ProgressResponse{
			PercentTotal:   p.PercentTotal,
			PercentMinStat: p.PercentMinStat,
			AtMaxLevel:     p.AtMax,
		}
		if p.Requirement != nil {
			pr.MinStatRequired = p.Requirement.MinStatValue
			pr.TotalRequired = p.Requirement.TotalPointsRequired
		}
		if p.Next != nil {
			pr.NextMinStatRequired = p.Next.MinStatValue
			pr.NextTotalRequired = p.Next.TotalPointsRequired
		}
		out.Progress = pr
	}
	return out
}

func questResponse(q engine.Quest) QuestResponse {
	targets := make([]string, len(q.TargetStats))
	for i, s := range q.TargetStats {
		targets[i] = string(s)
	}
	return QuestResponse{
		ID:               q.ID,
		Title:            q.Title,
		Description:      q.Description,
		Difficulty:       string(q.Difficulty),
		EstimatedTime:    q.EstimatedTime,
		TargetStats:      targets,
		Status:           string(q.Status),
		IsCompleted:      q.Status == engine.QuestCompleted,
		IsAIGenerated:    q.AIGenerated,
		CompletedAtLevel: q.CompletedAtLevel,
		CreatedAt:        q.CreatedAt,
		CompletedAt:      q.CompletedAt,
	}
}

func questResponses(qs []engine.Quest) []QuestResponse {
	out := make([]QuestResponse, 0, len(qs))
	for _, q := range qs {
		out = append(out, questResponse(q))
	}
	return out
}

func increaseResponses(incs []engine.StatIncrease) []StatIncreaseResponse {
	out := make([]StatIncreaseResponse, 0, len(incs))
	for _, inc := range incs {
		out = append(out, StatIncreaseResponse{
			Stat:     string(inc.Stat),
			Drawn:    inc.Drawn,
			Realized: inc.Realized,
			Before:   inc.Before,
			After:    inc.After,
		})
	}
	return out
}

func analysisResponse(res engine.AnalysisResult) AnalysisResponse {
	out := AnalysisResponse{
		CorrelationID: res.CorrelationID,
		Stats:         statsResponse(res.Stats, nil),
		Summary:       res.Summary,
		UsedFallback:  res.UsedFallback,
	}
	if len(res.StatExplanations) > 0 {
		out.StatExplanations = make(map[string]string, len(res.StatExplanations))
		for k, v := range res.StatExplanations {
			out.StatExplanations[string(k)] = v
		}
	}
	return out
}
