package engine

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"growthquest/internal/storage"
)

// maxRand always draws the largest increment; minRand always draws 1.
type maxRand struct{}

func (maxRand) IntN(n int) int { return n - 1 }

type minRand struct{}

func (minRand) IntN(int) int { return 0 }

type fakeAnalyzer struct {
	out   string
	err   error
	calls int
}

func (f *fakeAnalyzer) Analyze(context.Context, AnalysisRequest) (string, error) {
	f.calls++
	return f.out, f.err
}

type fakeGenerator struct {
	out   string
	err   error
	calls int
}

func (f *fakeGenerator) GenerateQuests(context.Context, QuestRequest) (string, error) {
	f.calls++
	return f.out, f.err
}

type countingObserver struct {
	mu        sync.Mutex
	completed int
	levelUps  []int
	outcomes  []string
	created   map[string]int
}

func (o *countingObserver) QuestsCreated(source string, n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.created == nil {
		o.created = map[string]int{}
	}
	o.created[source] += n
}

func (o *countingObserver) QuestCompleted(Difficulty, []StatIncrease) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completed++
}

func (o *countingObserver) LevelUp(level int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.levelUps = append(o.levelUps, level)
}

func (o *countingObserver) Analysis(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func newTestService(t *testing.T, opts ...Option) (*Service, *storage.Store) {
	t.Helper()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := storage.Open(ctx, path)
	require.NoError(t, err)

	store := storage.NewStore(db, zerolog.Nop())
	t.Cleanup(func() { _ = store.Close() })

	opts = append([]Option{WithRand(minRand{})}, opts...)
	return NewService(store, opts...), store
}

func newUser(t *testing.T, svc *Service) int64 {
	t.Helper()
	u, err := svc.EnsureUser(context.Background(), "tester", "")
	require.NoError(t, err)
	return u.ID
}

// seedStats writes a stats row directly, bypassing the analysis path.
func seedStats(t *testing.T, store *storage.Store, userID int64, value, level int) {
	t.Helper()
	var v StatVector
	for i := range v.Values {
		v.Values[i] = value
	}
	v.Level = level
	v = v.Normalize(StatFloor, TablePolicy{})
	require.NoError(t, store.Repos().Stats.Insert(context.Background(), rowFromVector(userID, v, 1, time.Now().UTC())))
}

func quest(title string, d Difficulty, targets ...StatName) CreateQuestInput {
	return CreateQuestInput{
		Title:         title,
		Description:   "do the thing",
		Difficulty:    d,
		EstimatedTime: "30 minutes",
		TargetStats:   targets,
	}
}

func TestCompleteEasyQuest(t *testing.T) {
	obs := &countingObserver{}
	svc, store := newTestService(t, WithObserver(obs))
	ctx := context.Background()
	uid := newUser(t, svc)
	seedStats(t, store, uid, 10, 1)

	q, err := svc.CreateQuest(ctx, uid, quest("Read a paper", DifficultyEasy, StatIntelligence, StatFocus))
	require.NoError(t, err)

	// Easy has a multiplier of 1 so every draw is exactly 1.
	svc.rng = maxRand{}
	res, err := svc.CompleteQuest(ctx, uid, q.ID)
	require.NoError(t, err)

	assert.Equal(t, 11, res.Stats.Get(StatIntelligence))
	assert.Equal(t, 11, res.Stats.Get(StatFocus))
	assert.Equal(t, 72, res.Stats.TotalPoints)
	assert.Equal(t, 1, res.Stats.Level)
	assert.Equal(t, 1, res.LevelAtCompletion)
	require.Len(t, res.Increases, 2)
	for _, inc := range res.Increases {
		assert.Equal(t, 1, inc.Realized)
	}

	events, err := svc.GetRecentStatEvents(ctx, uid, "", 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	for _, e := range events {
		assert.Equal(t, EventQuestComplete, e.Type)
		assert.Equal(t, "Read a paper", e.Description)
		require.NotNil(t, e.SourceID)
		assert.Equal(t, q.ID, *e.SourceID)
	}

	stored, err := svc.GetQuest(ctx, uid, q.ID)
	require.NoError(t, err)
	assert.Equal(t, QuestCompleted, stored.Status)
	require.NotNil(t, stored.CompletedAtLevel)
	assert.Equal(t, 1, *stored.CompletedAtLevel)
	require.NotNil(t, stored.CompletedAt)
	assert.Equal(t, 1, obs.completed)
}

func TestCompleteHardQuestDrawsWithinMultiplier(t *testing.T) {
	svc, store := newTestService(t, WithRand(maxRand{}))
	ctx := context.Background()
	uid := newUser(t, svc)
	seedStats(t, store, uid, 10, 1)

	q, err := svc.CreateQuest(ctx, uid, quest("Run 10k", DifficultyHard, StatPhysical))
	require.NoError(t, err)
	res, err := svc.CompleteQuest(ctx, uid, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 13, res.Stats.Get(StatPhysical))
	assert.Equal(t, 3, res.Increases[0].Drawn)
}

func TestCompleteAtCeilingStillRecordsEvent(t *testing.T) {
	svc, store := newTestService(t, WithRand(maxRand{}))
	ctx := context.Background()
	uid := newUser(t, svc)
	seedStats(t, store, uid, 99, 1)

	q, err := svc.CreateQuest(ctx, uid, quest("Meditate", DifficultyMedium, StatEmotional))
	require.NoError(t, err)
	res, err := svc.CompleteQuest(ctx, uid, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 99, res.Stats.Get(StatEmotional))
	assert.Equal(t, 0, res.Increases[0].Realized)

	events, err := svc.GetRecentStatEvents(ctx, uid, "emotional", 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 0, events[0].Delta)
}

func TestCompleteTwiceIsConflict(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	uid := newUser(t, svc)
	seedStats(t, store, uid, 10, 1)

	q, err := svc.CreateQuest(ctx, uid, quest("Call a friend", DifficultyEasy, StatSocial))
	require.NoError(t, err)
	_, err = svc.CompleteQuest(ctx, uid, q.ID)
	require.NoError(t, err)

	_, err = svc.CompleteQuest(ctx, uid, q.ID)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindConflict))
	var qerr QuestStateError
	assert.True(t, errors.As(err, &qerr))

	v, err := svc.GetStats(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 11, v.Get(StatSocial))
}

func TestCompleteOtherUsersQuestIsNotFound(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	owner := newUser(t, svc)
	other, err := svc.EnsureUser(ctx, "someone-else", "")
	require.NoError(t, err)
	seedStats(t, store, owner, 10, 1)
	seedStats(t, store, other.ID, 10, 1)

	q, err := svc.CreateQuest(ctx, owner, quest("Sketch", DifficultyEasy, StatCreativity))
	require.NoError(t, err)

	_, err = svc.CompleteQuest(ctx, other.ID, q.ID)
	assert.True(t, IsKind(err, KindNotFound))
	err = svc.DeleteQuest(ctx, other.ID, q.ID)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestCompletedAtLevelIsLevelBeforeMutation(t *testing.T) {
	svc, store := newTestService(t, WithRand(maxRand{}))
	ctx := context.Background()
	uid := newUser(t, svc)
	seedStats(t, store, uid, 30, 3)

	q, err := svc.CreateQuest(ctx, uid, quest("Deep work", DifficultyHard, StatFocus))
	require.NoError(t, err)
	res, err := svc.CompleteQuest(ctx, uid, q.ID)
	require.NoError(t, err)
	assert.True(t, res.CanLevelUp)
	assert.Equal(t, 3, res.Stats.Level)

	_, err = svc.RequestLevelUp(ctx, uid)
	require.NoError(t, err)

	stored, err := svc.GetQuest(ctx, uid, q.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.CompletedAtLevel)
	assert.Equal(t, 3, *stored.CompletedAtLevel)
}

func TestIngestInitialAnalysisClamps(t *testing.T) {
	obs := &countingObserver{}
	svc, _ := newTestService(t, WithObserver(obs))
	ctx := context.Background()
	uid := newUser(t, svc)

	raw := `Here you go:
{"intelligence":0,"creativity":150,"social":50,"physical":50,"emotional":50,"focus":50,"adaptability":50,
 "summary":"balanced","statExplanations":{"creativity":"loves art"}}`
	res, err := svc.IngestInitialAnalysis(ctx, uid, raw)
	require.NoError(t, err)

	v := res.Stats
	assert.Equal(t, 1, v.Get(StatIntelligence))
	assert.Equal(t, 99, v.Get(StatCreativity))
	for _, n := range []StatName{StatSocial, StatPhysical, StatEmotional, StatFocus, StatAdaptability} {
		assert.Equal(t, 50, v.Get(n))
	}
	assert.Equal(t, 350, v.TotalPoints)
	assert.Equal(t, 1, v.Level)
	assert.False(t, res.UsedFallback)
	assert.Equal(t, "loves art", res.StatExplanations[StatCreativity])
	assert.Equal(t, []string{AnalysisOutcomeDirect}, obs.outcomes)

	_, err = svc.IngestInitialAnalysis(ctx, uid, raw)
	assert.True(t, IsKind(err, KindConflict))
}

func TestIngestRejectsIncompleteAnalysis(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	uid := newUser(t, svc)

	_, err := svc.IngestInitialAnalysis(ctx, uid, `{"intelligence":10,"creativity":"high"}`)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindUpstream))

	_, err = svc.GetStats(ctx, uid)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestAnalyzePendingUsesProvider(t *testing.T) {
	an := &fakeAnalyzer{out: "```json\n{\"intelligence\":40,\"creativity\":41,\"social\":42,\"physical\":43,\"emotional\":44,\"focus\":45,\"adaptability\":46}\n```"}
	svc, store := newTestService(t, WithAnalyzer(an))
	ctx := context.Background()
	uid := newUser(t, svc)

	require.NoError(t, svc.SubmitPendingAnalysis(ctx, uid, PendingInput{
		Method:  InputQuestionnaire,
		Answers: map[string]string{"hobbies": "climbing and chess"},
	}))

	res, err := svc.AnalyzePending(ctx, uid)
	require.NoError(t, err)
	assert.False(t, res.UsedFallback)
	assert.Equal(t, 301, res.Stats.TotalPoints)
	assert.NotEmpty(t, res.CorrelationID)
	assert.Equal(t, 1, an.calls)

	pending, err := store.Repos().Pending.Get(ctx, uid)
	require.NoError(t, err)
	assert.Nil(t, pending)

	records, err := store.Repos().Analyses.ListByUser(ctx, uid)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, string(InputQuestionnaire), records[0].InputMethod)
	assert.Equal(t, res.CorrelationID, records[0].CorrelationID)
}

func TestAnalyzePendingFallsBackOnce(t *testing.T) {
	cases := map[string]*fakeAnalyzer{
		"provider error": {err: errors.New("quota exceeded")},
		"unparseable":    {out: "I cannot help with that"},
	}
	for name, an := range cases {
		t.Run(name, func(t *testing.T) {
			obs := &countingObserver{}
			svc, _ := newTestService(t, WithAnalyzer(an), WithObserver(obs))
			ctx := context.Background()
			uid := newUser(t, svc)
			require.NoError(t, svc.SubmitPendingAnalysis(ctx, uid, PendingInput{Method: InputGPTPaste, Text: "I am a night owl"}))

			res, err := svc.AnalyzePending(ctx, uid)
			require.NoError(t, err)
			assert.True(t, res.UsedFallback)
			assert.Equal(t, 1, an.calls)
			for _, n := range StatNames {
				assert.Equal(t, FallbackStatValue, res.Stats.Get(n))
			}
			assert.Equal(t, []string{AnalysisOutcomeFallback}, obs.outcomes)
		})
	}
}

func TestAnalyzePendingWithoutSubmission(t *testing.T) {
	svc, _ := newTestService(t, WithAnalyzer(&fakeAnalyzer{}))
	uid := newUser(t, svc)
	_, err := svc.AnalyzePending(context.Background(), uid)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestAnalyzePendingExpired(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, WithClock(func() time.Time { return now }), WithPendingTTL(time.Hour))
	ctx := context.Background()
	uid := newUser(t, svc)
	require.NoError(t, svc.SubmitPendingAnalysis(ctx, uid, PendingInput{Method: InputGPTPaste, Text: "hello"}))

	now = now.Add(2 * time.Hour)
	_, err := svc.AnalyzePending(ctx, uid)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestSubmitPendingValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	uid := newUser(t, svc)

	err := svc.SubmitPendingAnalysis(ctx, uid, PendingInput{Method: InputQuestionnaire, Answers: map[string]string{"q1": "  "}})
	assert.True(t, IsKind(err, KindValidation))
	err = svc.SubmitPendingAnalysis(ctx, uid, PendingInput{Method: "telepathy"})
	assert.True(t, IsKind(err, KindValidation))
	err = svc.SubmitPendingAnalysis(ctx, 9999, PendingInput{Method: InputGPTPaste, Text: "x"})
	assert.True(t, IsKind(err, KindNotFound))
}

func TestLevelUpScenario(t *testing.T) {
	obs := &countingObserver{}
	svc, store := newTestService(t, WithObserver(obs))
	ctx := context.Background()
	uid := newUser(t, svc)
	// Level 3 needs min 20 and total 200.
	seedStats(t, store, uid, 30, 3)

	progress, err := svc.GetProgress(ctx, uid)
	require.NoError(t, err)
	assert.True(t, progress.CanLevelUp)

	v, err := svc.RequestLevelUp(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 4, v.Level)
	assert.False(t, v.CanLevelUp)
	assert.Equal(t, 210, v.TotalPoints)
	assert.Equal(t, []int{4}, obs.levelUps)

	events, err := svc.GetRecentStatEvents(ctx, uid, "level", 5)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventLevelUp, events[0].Type)
	assert.Equal(t, 1, events[0].Delta)
	assert.Equal(t, "level 3 -> 4", events[0].Description)

	// Level 4 needs min 25 and total 250; 210 is short.
	_, err = svc.RequestLevelUp(ctx, uid)
	require.Error(t, err)
	var lerr LevelUpError
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, []LevelCondition{ConditionTotalPoints}, lerr.Unmet)
	assert.Equal(t, 4, lerr.Level)
	assert.True(t, IsKind(err, KindConflict))
}

func TestLevelUpAtMaxLevel(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	uid := newUser(t, svc)
	seedStats(t, store, uid, 99, TableMaxLevel)

	_, err := svc.RequestLevelUp(ctx, uid)
	var lerr LevelUpError
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, []LevelCondition{ConditionMaxLevel}, lerr.Unmet)
}

func TestDeleteQuest(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	uid := newUser(t, svc)
	seedStats(t, store, uid, 10, 1)

	done, err := svc.CreateQuest(ctx, uid, quest("Finished", DifficultyEasy, StatFocus))
	require.NoError(t, err)
	_, err = svc.CompleteQuest(ctx, uid, done.ID)
	require.NoError(t, err)

	err = svc.DeleteQuest(ctx, uid, done.ID)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindConflict))

	open, err := svc.CreateQuest(ctx, uid, quest("Abandoned", DifficultyEasy, StatFocus))
	require.NoError(t, err)
	require.NoError(t, svc.DeleteQuest(ctx, uid, open.ID))

	quests, err := svc.ListQuests(ctx, uid)
	require.NoError(t, err)
	require.Len(t, quests, 1)
	assert.Equal(t, done.ID, quests[0].ID)
}

func TestQuestCapacityIsAllOrNothing(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	uid := newUser(t, svc)

	batch := make([]CreateQuestInput, 8)
	for i := range batch {
		batch[i] = quest("Quest", DifficultyEasy, StatAdaptability)
	}
	_, err := svc.CreateQuests(ctx, uid, SourceImport, batch)
	require.NoError(t, err)

	_, err = svc.CreateQuests(ctx, uid, SourceImport, batch[:3])
	require.Error(t, err)
	var cerr CapacityError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, 8, cerr.Open)
	assert.Equal(t, 3, cerr.Requested)

	quests, err := svc.ListQuests(ctx, uid)
	require.NoError(t, err)
	assert.Len(t, quests, 8)

	_, err = svc.CreateQuests(ctx, uid, SourceImport, batch[:2])
	require.NoError(t, err)
}

func TestCreateQuestValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	uid := newUser(t, svc)

	cases := map[string]CreateQuestInput{
		"no targets":     quest("a", DifficultyEasy),
		"four targets":   quest("a", DifficultyEasy, StatFocus, StatSocial, StatPhysical, StatCreativity),
		"duplicate stat": quest("a", DifficultyEasy, StatFocus, StatFocus),
		"unknown stat":   quest("a", DifficultyEasy, StatName("luck")),
		"bad difficulty": quest("a", Difficulty("legendary"), StatFocus),
		"blank title":    quest("  ", DifficultyEasy, StatFocus),
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateQuest(ctx, uid, in)
			require.Error(t, err)
			assert.True(t, IsKind(err, KindValidation), err.Error())
		})
	}
}

func TestGenerateQuests(t *testing.T) {
	gen := &fakeGenerator{out: `{"quests":[
		{"title":"Journal","description":"Write a page","difficulty":"easy","estimatedTime":"15 minutes","targetStats":["emotional"]},
		{"title":"Sprint","description":"Run intervals","difficulty":"hard","estimatedTime":"30 minutes","targetStats":["physical","focus"]}
	]}`}
	obs := &countingObserver{}
	svc, store := newTestService(t, WithQuestGenerator(gen), WithObserver(obs), WithQuestBatch(2))
	ctx := context.Background()
	uid := newUser(t, svc)
	seedStats(t, store, uid, 20, 1)

	quests, err := svc.GenerateQuests(ctx, uid)
	require.NoError(t, err)
	require.Len(t, quests, 2)
	assert.True(t, quests[0].AIGenerated)
	assert.Equal(t, []StatName{StatPhysical, StatFocus}, quests[1].TargetStats)
	assert.Equal(t, 2, obs.created[SourceGenerated])
}

func TestGenerateQuestsChecksCapacityBeforeProvider(t *testing.T) {
	gen := &fakeGenerator{out: "[]"}
	svc, store := newTestService(t, WithQuestGenerator(gen), WithQuestBatch(4))
	ctx := context.Background()
	uid := newUser(t, svc)
	seedStats(t, store, uid, 20, 1)

	batch := make([]CreateQuestInput, 7)
	for i := range batch {
		batch[i] = quest("Quest", DifficultyEasy, StatSocial)
	}
	_, err := svc.CreateQuests(ctx, uid, SourceManual, batch)
	require.NoError(t, err)

	_, err = svc.GenerateQuests(ctx, uid)
	var cerr CapacityError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, 0, gen.calls)
}

func TestGenerateQuestsRejectsBadBatch(t *testing.T) {
	gen := &fakeGenerator{out: `[{"title":"ok","description":"d","difficulty":"easy","estimatedTime":"5m","targetStats":["focus"]},
		{"title":"bad","description":"d","difficulty":"easy","estimatedTime":"5m","targetStats":["luck"]}]`}
	svc, store := newTestService(t, WithQuestGenerator(gen))
	ctx := context.Background()
	uid := newUser(t, svc)
	seedStats(t, store, uid, 20, 1)

	_, err := svc.GenerateQuests(ctx, uid)
	assert.True(t, IsKind(err, KindUpstream))
	quests, err := svc.ListQuests(ctx, uid)
	require.NoError(t, err)
	assert.Empty(t, quests)
}

func TestGrantStat(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	uid := newUser(t, svc)
	seedStats(t, store, uid, 95, 1)

	inc, v, err := svc.GrantStat(ctx, uid, StatCreativity, 10, "art class")
	require.NoError(t, err)
	assert.Equal(t, 4, inc.Realized)
	assert.Equal(t, 99, v.Get(StatCreativity))

	_, _, err = svc.GrantStat(ctx, uid, StatCreativity, -1, "")
	assert.True(t, IsKind(err, KindValidation))

	events, err := svc.GetRecentStatEvents(ctx, uid, "cre", 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventManual, events[0].Type)
	assert.Equal(t, "art class", events[0].Description)
}

func TestRecentEventsLimit(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	uid := newUser(t, svc)
	seedStats(t, store, uid, 10, 1)

	for i := 0; i < 5; i++ {
		_, _, err := svc.GrantStat(ctx, uid, StatFocus, 1, "")
		require.NoError(t, err)
	}
	events, err := svc.GetRecentStatEvents(ctx, uid, "", 0)
	require.NoError(t, err)
	assert.Len(t, events, DefaultEventsLimit)
	assert.Greater(t, events[0].ID, events[1].ID)

	_, err = svc.GetRecentStatEvents(ctx, uid, "charisma", 0)
	assert.True(t, IsKind(err, KindValidation))
}

func TestConcurrentCompletionsDoNotLoseUpdates(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	uid := newUser(t, svc)
	seedStats(t, store, uid, 10, 1)

	const n = 8
	ids := make([]int64, n)
	for i := range ids {
		q, err := svc.CreateQuest(ctx, uid, quest("Parallel", DifficultyEasy, StatFocus))
		require.NoError(t, err)
		ids[i] = q.ID
	}

	var g errgroup.Group
	for _, id := range ids {
		g.Go(func() error {
			_, err := svc.CompleteQuest(ctx, uid, id)
			return err
		})
	}
	require.NoError(t, g.Wait())

	v, err := svc.GetStats(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 10+n, v.Get(StatFocus))
	assert.Equal(t, 70+n, v.TotalPoints)

	events, err := svc.GetRecentStatEvents(ctx, uid, "focus", MaxEventsLimit)
	require.NoError(t, err)
	assert.Len(t, events, n)
}

func TestCompleteRollsBackOnPersistenceFailure(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	uid := newUser(t, svc)
	seedStats(t, store, uid, 10, 1)

	q, err := svc.CreateQuest(ctx, uid, quest("Doomed", DifficultyEasy, StatFocus))
	require.NoError(t, err)

	_, err = store.DB().ExecContext(ctx, `DROP TABLE stat_events`)
	require.NoError(t, err)

	_, err = svc.CompleteQuest(ctx, uid, q.ID)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindPersistence))

	stored, err := svc.GetQuest(ctx, uid, q.ID)
	require.NoError(t, err)
	assert.Equal(t, QuestOpen, stored.Status)
	assert.Nil(t, stored.CompletedAtLevel)

	v, err := svc.GetStats(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 10, v.Get(StatFocus))
	assert.Equal(t, 70, v.TotalPoints)
}

func TestAchievementsGroupedByLevel(t *testing.T) {
	svc, store := newTestService(t, WithRand(maxRand{}))
	ctx := context.Background()
	uid := newUser(t, svc)
	seedStats(t, store, uid, 30, 3)

	first, err := svc.CreateQuest(ctx, uid, quest("At three", DifficultyHard, StatFocus))
	require.NoError(t, err)
	_, err = svc.CompleteQuest(ctx, uid, first.ID)
	require.NoError(t, err)
	_, err = svc.RequestLevelUp(ctx, uid)
	require.NoError(t, err)
	second, err := svc.CreateQuest(ctx, uid, quest("At four", DifficultyEasy, StatSocial))
	require.NoError(t, err)
	_, err = svc.CompleteQuest(ctx, uid, second.ID)
	require.NoError(t, err)

	ach, err := svc.GetAchievements(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 2, ach.Completed)
	require.Len(t, ach.ByLevel, 2)
	assert.Equal(t, 4, ach.ByLevel[0].Level)
	assert.Equal(t, "At four", ach.ByLevel[0].Quests[0].Title)
	assert.Equal(t, 3, ach.ByLevel[1].Level)

	earned := map[string]bool{}
	for _, b := range ach.Badges {
		earned[b.ID] = b.Earned
	}
	assert.True(t, earned["first_quest"])
	assert.True(t, earned["challenger"])
	assert.True(t, earned["getting_started"])
	assert.False(t, earned["on_the_path"])
}

func TestEnsureUserIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a, err := svc.EnsureUser(ctx, "main", "Main")
	require.NoError(t, err)
	b, err := svc.EnsureUser(ctx, " main ", "")
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, "Main", b.Nickname)

	_, err = svc.EnsureUser(ctx, "", "")
	assert.True(t, IsKind(err, KindValidation))
}

func TestGetStatsUsesActivePolicy(t *testing.T) {
	svc, store := newTestService(t, WithPolicy(ScaledPolicy{}))
	ctx := context.Background()
	uid := newUser(t, svc)
	// Written while the table policy was active: eligible at level 3.
	seedStats(t, store, uid, 30, 3)

	row, err := store.Repos().Stats.Get(ctx, uid)
	require.NoError(t, err)
	require.True(t, row.CanLevelUp)

	v, err := svc.GetStats(ctx, uid)
	require.NoError(t, err)
	assert.False(t, v.CanLevelUp)

	p, err := svc.GetProgress(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, v.CanLevelUp, p.CanLevelUp)
}
