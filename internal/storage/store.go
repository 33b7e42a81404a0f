package storage

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"
)

// Repos groups the repositories bound to one connection or transaction.
type Repos struct {
	Users    *UserRepo
	Stats    *StatsRepo
	Missions *MissionRepo
	Events   *EventRepo
	Analyses *AnalysisRepo
	Pending  *PendingRepo
}

func NewRepos(q DBTX) Repos {
	return Repos{
		Users:    NewUserRepo(q),
		Stats:    NewStatsRepo(q),
		Missions: NewMissionRepo(q),
		Events:   NewEventRepo(q),
		Analyses: NewAnalysisRepo(q),
		Pending:  NewPendingRepo(q),
	}
}

// Store is the sqlite-backed persistence layer.
type Store struct {
	db     *sql.DB
	repos  Repos
	logger zerolog.Logger
}

func NewStore(db *sql.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		repos:  NewRepos(db),
		logger: logger.With().Str("component", "storage").Logger(),
	}
}

// Repos returns repositories that run outside any transaction.
func (s *Store) Repos() Repos { return s.repos }

// InTx runs fn with repositories bound to a single transaction. Every write fn
// makes commits together or not at all.
func (s *Store) InTx(ctx context.Context, fn func(r Repos) error) error {
	return WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return fn(NewRepos(tx))
	})
}

// DB returns the underlying database connection (for testing).
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error {
	s.logger.Debug().Msg("closing store")
	return s.db.Close()
}
