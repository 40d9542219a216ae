package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/telelocator/telelocator-go/internal/logger"
	"github.com/telelocator/telelocator-go/internal/retry"
	"github.com/telelocator/telelocator-go/internal/storage"
)

// StateStore is the conversation state surface handlers use. It wraps the
// repository with retry and hides row-versus-default handling: a user with
// no row is in the start state.
type StateStore struct {
	states  storage.StateRepository
	retrier *retry.Executor
	log     *logger.Logger
}

// NewStateStore creates a state store.
func NewStateStore(states storage.StateRepository, retrier *retry.Executor, log *logger.Logger) *StateStore {
	if retrier == nil {
		retrier = retry.NewDefault()
	}
	return &StateStore{
		states:  states,
		retrier: retrier,
		log:     log.WithModule("state"),
	}
}

// Get returns the user's current state, its metadata, and the row version for
// compare-and-set transitions. Version 0 means no row exists yet.
func (s *StateStore) Get(ctx context.Context, userID string) (state string, metadata map[string]string, version int64, err error) {
	var row *storage.UserState
	err = s.retrier.Do(ctx, func() error {
		var err error
		row, err = s.states.GetUserState(ctx, userID)
		return err
	})
	if err != nil {
		return "", nil, 0, fmt.Errorf("get state: %w", err)
	}

	if row == nil {
		return storage.StateStart, nil, 0, nil
	}

	return row.State, row.Metadata, row.Version, nil
}

// Transition moves the user to a new state, guarded by the version observed
// at read time. A lost race returns storage.ErrStaleState; callers treat that
// as "the other event won" and stop.
func (s *StateStore) Transition(ctx context.Context, userID string, fromVersion int64, state string, metadata map[string]string) error {
	var stale bool
	err := s.retrier.Do(ctx, func() error {
		err := s.states.CompareAndSetUserState(ctx, userID, fromVersion, state, metadata)
		if errors.Is(err, storage.ErrStaleState) {
			// A lost race is not transient. Stop retrying.
			stale = true
			return nil
		}
		stale = false
		return err
	})
	if err != nil {
		return fmt.Errorf("transition state: %w", err)
	}
	if stale {
		return storage.ErrStaleState
	}

	return nil
}

// Reset returns the user to the start state unconditionally. Used as the
// finalization step after the awaiting-input flows.
func (s *StateStore) Reset(ctx context.Context, userID string) {
	err := s.retrier.Do(ctx, func() error {
		return s.states.ClearUserState(ctx, userID)
	})
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Error("failed to reset conversation state")
	}
}
