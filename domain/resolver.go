package domain

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
)

// Resolver maps a user identity to delivery targets. Lookup failures are
// folded into recipient-absent: the task flags stay false and the task is
// retried on a later tick once the directory recovers.
type Resolver struct {
	dir Directory
}

func NewResolver(dir Directory) Resolver { return Resolver{dir: dir} }

// ResolveEmail returns the user's verified address. ok is false when the
// user has no address, does not exist, or the lookup failed.
func (r Resolver) ResolveEmail(ctx context.Context, userID string) (string, bool) {
	addr, err := r.dir.Email(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			log.WithField("user", userID).Info("user not in directory, skipping")
		} else {
			log.WithError(err).WithField("user", userID).Error("email lookup failed, treating as absent")
		}
		return "", false
	}
	if addr == "" {
		log.WithField("user", userID).Info("user has no email, skipping")
		return "", false
	}
	return addr, true
}

// ResolveTokens returns the user's push registration tokens. ok is false
// when the set is empty or the lookup failed.
func (r Resolver) ResolveTokens(ctx context.Context, userID string) ([]string, bool) {
	tokens, err := r.dir.Tokens(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			log.WithField("user", userID).Info("user not in directory, skipping")
		} else {
			log.WithError(err).WithField("user", userID).Error("token lookup failed, treating as absent")
		}
		return nil, false
	}
	if len(tokens) == 0 {
		log.WithField("user", userID).Info("user has no push tokens, skipping")
		return nil, false
	}
	return tokens, true
}
