package root

import (
	"context"
	"fmt"

	"growthquest/internal/engine"
	"growthquest/internal/llm"
	"growthquest/internal/storage"
)

func openStore(ctx context.Context) (*storage.Store, error) {
	path, err := storage.ResolveDBPath(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	db, err := storage.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	return storage.NewStore(db, logger), nil
}

// serviceOptions maps configuration onto engine options. The genai provider
// is attached only when an API key is configured.
func serviceOptions(ctx context.Context) ([]engine.Option, error) {
	policy, err := engine.PolicyByName(cfg.LevelPolicy)
	if err != nil {
		return nil, err
	}
	opts := []engine.Option{
		engine.WithPolicy(policy),
		engine.WithLogger(logger),
		engine.WithPendingTTL(cfg.PendingTTL),
		engine.WithAnalysisTimeout(cfg.AITimeout),
		engine.WithQuestBatch(cfg.QuestBatch),
		engine.WithEventsLimit(cfg.EventsLimit),
	}
	if cfg.AIEnabled() {
		client, err := llm.New(ctx, cfg.GenAIAPIKey, cfg.GenAIModel, logger)
		if err != nil {
			return nil, fmt.Errorf("init analysis provider: %w", err)
		}
		opts = append(opts, engine.WithAnalyzer(client), engine.WithQuestGenerator(client))
	} else {
		logger.Debug().Msg("no GQ_GENAI_API_KEY; analysis uses fallback stats")
	}
	return opts, nil
}

// openService opens the store, builds the service and resolves the acting user,
// creating it on first use.
func openService(ctx context.Context, extra ...engine.Option) (*engine.Service, *storage.User, func(), error) {
	store, err := openStore(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	cleanup := func() {
		_ = store.Close()
	}
	opts, err := serviceOptions(ctx)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}
	svc := engine.NewService(store, append(opts, extra...)...)
	user, err := svc.EnsureUser(ctx, cfg.User, "")
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}
	return svc, user, cleanup, nil
}
