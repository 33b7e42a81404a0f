package engine

import (
	"context"
	"strings"

	"growthquest/internal/storage"
)

// EnsureUser returns the user with the given username, creating it on first use.
func (s *Service) EnsureUser(ctx context.Context, username, nickname string) (*storage.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ValidationError("username", "username is required")
	}
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		nickname = username
	}

	var out *storage.User
	err := s.repo.InTx(ctx, func(r storage.Repos) error {
		u, err := r.Users.GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		if u != nil {
			out = u
			return nil
		}
		id, err := r.Users.Insert(ctx, username, nickname, s.clock())
		if err != nil {
			return err
		}
		out, err = r.Users.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, persistence("ensure user", err)
	}
	return out, nil
}

func (s *Service) GetUser(ctx context.Context, userID int64) (*storage.User, error) {
	u, err := requireUser(ctx, s.repo.Repos(), userID)
	if err != nil {
		return nil, persistence("get user", err)
	}
	return u, nil
}
