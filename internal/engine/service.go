package engine

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"growthquest/internal/storage"
)

const (
	// DefaultEventsLimit matches the "recent activity" view.
	DefaultEventsLimit = 3
	MaxEventsLimit     = 100

	DefaultQuestBatch      = 4
	DefaultPendingTTL      = 24 * time.Hour
	DefaultAnalysisTimeout = 60 * time.Second

	// maxStatsAttempts bounds retries after a stale stats write.
	maxStatsAttempts = 3
)

// Repository is the persistence boundary. storage.Store implements it.
type Repository interface {
	Repos() storage.Repos
	InTx(ctx context.Context, fn func(r storage.Repos) error) error
}

// AnalysisRequest is what the analysis provider sees of a pending analysis.
type AnalysisRequest struct {
	UserID  int64
	Method  InputMethod
	Answers map[string]string
	Text    string
}

// Analyzer turns questionnaire answers or pasted text into raw model output.
type Analyzer interface {
	Analyze(ctx context.Context, req AnalysisRequest) (string, error)
}

// QuestRequest is what the quest provider sees when asked for a batch.
type QuestRequest struct {
	UserID     int64
	Stats      StatVector
	Count      int
	OpenTitles []string
}

// QuestGenerator produces raw model output describing a batch of quests.
type QuestGenerator interface {
	GenerateQuests(ctx context.Context, req QuestRequest) (string, error)
}

// Analysis outcomes reported to the Observer.
const (
	AnalysisOutcomeAI       = "ai"
	AnalysisOutcomeFallback = "fallback"
	AnalysisOutcomeDirect   = "direct"
	AnalysisOutcomeRejected = "rejected"
)

// Observer receives progression events, e.g. for metrics.
type Observer interface {
	QuestsCreated(source string, n int)
	QuestCompleted(d Difficulty, increases []StatIncrease)
	LevelUp(newLevel int)
	Analysis(outcome string)
}

type nopObserver struct{}

func (nopObserver) QuestsCreated(string, int)                 {}
func (nopObserver) QuestCompleted(Difficulty, []StatIncrease) {}
func (nopObserver) LevelUp(int)                               {}
func (nopObserver) Analysis(string)                           {}

type Service struct {
	repo      Repository
	policy    LevelPolicy
	rng       Rand
	analyzer  Analyzer
	generator QuestGenerator
	observer  Observer
	logger    zerolog.Logger
	now       func() time.Time

	pendingTTL      time.Duration
	analysisTimeout time.Duration
	questBatch      int
	eventsLimit     int
}

type Option func(*Service)

func WithPolicy(p LevelPolicy) Option {
	return func(s *Service) { s.policy = p }
}

func WithRand(r Rand) Option {
	return func(s *Service) { s.rng = r }
}

func WithAnalyzer(a Analyzer) Option {
	return func(s *Service) { s.analyzer = a }
}

func WithQuestGenerator(g QuestGenerator) Option {
	return func(s *Service) { s.generator = g }
}

func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithPendingTTL(d time.Duration) Option {
	return func(s *Service) { s.pendingTTL = d }
}

func WithAnalysisTimeout(d time.Duration) Option {
	return func(s *Service) { s.analysisTimeout = d }
}

func WithQuestBatch(n int) Option {
	return func(s *Service) { s.questBatch = n }
}

func WithEventsLimit(n int) Option {
	return func(s *Service) { s.eventsLimit = n }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:            repo,
		policy:          TablePolicy{},
		rng:             defaultRand{},
		observer:        nopObserver{},
		logger:          zerolog.Nop(),
		now:             time.Now,
		pendingTTL:      DefaultPendingTTL,
		analysisTimeout: DefaultAnalysisTimeout,
		questBatch:      DefaultQuestBatch,
		eventsLimit:     DefaultEventsLimit,
	}
	for _, o := range opts {
		o(s)
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	s.logger = s.logger.With().Str("component", "engine").Logger()
	return s
}

func (s *Service) Policy() LevelPolicy { return s.policy }

func (s *Service) clock() time.Time { return s.now().UTC() }

// persistence maps anything without a domain kind to a persistence error.
func persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) == KindInternal {
		return PersistenceError(op, err)
	}
	return err
}

// mutateStats runs fn in a transaction and retries when the stats row moved
// underneath it. fn must re-read everything it depends on.
func (s *Service) mutateStats(ctx context.Context, op string, fn func(r storage.Repos) error) error {
	for attempt := 1; ; attempt++ {
		err := s.repo.InTx(ctx, fn)
		if !errors.Is(err, storage.ErrStaleStats) {
			return persistence(op, err)
		}
		if attempt >= maxStatsAttempts {
			return ConflictError(op, "stats changed concurrently, try again")
		}
		s.logger.Debug().Str("op", op).Int("attempt", attempt).Msg("stale stats write, retrying")
	}
}

func requireUser(ctx context.Context, r storage.Repos, userID int64) (*storage.User, error) {
	u, err := r.Users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NotFoundError("user", "user not found")
	}
	return u, nil
}

func requireStats(ctx context.Context, r storage.Repos, userID int64) (*storage.UserStats, error) {
	row, err := r.Stats.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, NotFoundError("stats", "no stats yet, complete an analysis first")
	}
	return row, nil
}

func vectorFromRow(row *storage.UserStats) StatVector {
	v := StatVector{
		TotalPoints: row.TotalPoints,
		Level:       row.Level,
		CanLevelUp:  row.CanLevelUp,
	}
	v.Values = [len(StatNames)]int{
		row.Intelligence,
		row.Creativity,
		row.Social,
		row.Physical,
		row.Emotional,
		row.Focus,
		row.Adaptability,
	}
	return v
}

func rowFromVector(userID int64, v StatVector, version int64, at time.Time) storage.UserStats {
	return storage.UserStats{
		UserID:       userID,
		Intelligence: v.Get(StatIntelligence),
		Creativity:   v.Get(StatCreativity),
		Social:       v.Get(StatSocial),
		Physical:     v.Get(StatPhysical),
		Emotional:    v.Get(StatEmotional),
		Focus:        v.Get(StatFocus),
		Adaptability: v.Get(StatAdaptability),
		TotalPoints:  v.Total(),
		Level:        v.Level,
		CanLevelUp:   v.CanLevelUp,
		Version:      version,
		UpdatedAt:    at,
	}
}

func questFromRow(m storage.Mission) Quest {
	targets := make([]StatName, 0, len(m.TargetStats))
	for _, t := range m.TargetStats {
		targets = append(targets, StatName(t))
	}
	return Quest{
		ID:               m.ID,
		UserID:           m.UserID,
		Title:            m.Title,
		Description:      m.Description,
		Difficulty:       Difficulty(m.Difficulty),
		EstimatedTime:    m.EstimatedTime,
		TargetStats:      targets,
		Status:           QuestStatus(m.Status),
		AIGenerated:      m.IsAIGenerated,
		CompletedAtLevel: m.CompletedAtLevel,
		CreatedAt:        m.CreatedAt,
		CompletedAt:      m.CompletedAt,
	}
}

func statStrings(stats []StatName) []string {
	out := make([]string, len(stats))
	for i, s := range stats {
		out[i] = string(s)
	}
	return out
}
