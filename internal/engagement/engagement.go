package engagement

import (
	"context"
	"errors"

	"github.com/driftboard/backend/internal/models"
)

// ErrSelfFollow is returned when a user tries to follow themselves.
var ErrSelfFollow = errors.New("user cannot follow themselves")

// Store is the slice of the document store engagement needs: a transactional
// read-modify-write on one post, the atomic share increment, and the paired
// follow-edge mutation.
type Store interface {
	UpdatePostEngagement(ctx context.Context, postID string, fn func(post *models.Post) error) (*models.Post, error)
	IncrementShareCount(ctx context.Context, postID string) error
	UpdateFollowPair(ctx context.Context, followerID, followeeID string, follow bool) error
}

// GraphInvalidator drops cached follow-edge reads after a follow mutation.
type GraphInvalidator interface {
	InvalidateUser(ctx context.Context, userID string)
}

// Service owns engagement mutations: reaction toggles, share counts and
// follow edges.
type Service struct {
	store Store
	graph GraphInvalidator
}

// NewService creates an engagement service. graph may be nil when no
// follow-edge cache is deployed.
func NewService(store Store, graph GraphInvalidator) *Service {
	return &Service{store: store, graph: graph}
}

// ReactionResult reports the post's reaction state after a toggle.
type ReactionResult struct {
	Reacted       bool `json:"reacted"`
	ReactionCount int  `json:"reaction_count"`
}

// ToggleReaction flips actorID's membership in the post's reactor set and
// adjusts the counter to match. The decision is computed from a fresh read
// inside the store transaction, so concurrent toggles cannot lose updates,
// and toggling twice restores the original state.
func (s *Service) ToggleReaction(ctx context.Context, postID, actorID string) (*ReactionResult, error) {
	var result ReactionResult

	_, err := s.store.UpdatePostEngagement(ctx, postID, func(post *models.Post) error {
		post.ReactorIDs, post.ReactionCount, result.Reacted = applyToggle(post.ReactorIDs, post.ReactionCount, actorID)
		result.ReactionCount = post.ReactionCount
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// applyToggle removes actor from the reactor set and decrements (floored at
// zero) when present, otherwise adds and increments. Returns the new set,
// the new count, and whether the actor is now a reactor.
func applyToggle(reactors []string, count int, actor string) ([]string, int, bool) {
	for i, id := range reactors {
		if id == actor {
			out := make([]string, 0, len(reactors)-1)
			out = append(out, reactors[:i]...)
			out = append(out, reactors[i+1:]...)
			if count > 0 {
				count--
			}
			return out, count, false
		}
	}
	return append(append([]string{}, reactors...), actor), count + 1, true
}

// RecordShare bumps the share counter. This is the store's own atomic
// increment - lost updates are impossible, so no transaction is needed.
func (s *Service) RecordShare(ctx context.Context, postID string) error {
	return s.store.IncrementShareCount(ctx, postID)
}

// Follow adds the follow edge from followerID to followeeID, updating both
// documents as a pair.
func (s *Service) Follow(ctx context.Context, followerID, followeeID string) error {
	return s.updateFollow(ctx, followerID, followeeID, true)
}

// Unfollow removes the follow edge from followerID to followeeID.
func (s *Service) Unfollow(ctx context.Context, followerID, followeeID string) error {
	return s.updateFollow(ctx, followerID, followeeID, false)
}

func (s *Service) updateFollow(ctx context.Context, followerID, followeeID string, follow bool) error {
	if followerID == followeeID {
		return ErrSelfFollow
	}

	if err := s.store.UpdateFollowPair(ctx, followerID, followeeID, follow); err != nil {
		return err
	}

	if s.graph != nil {
		s.graph.InvalidateUser(ctx, followerID)
		s.graph.InvalidateUser(ctx, followeeID)
	}
	return nil
}
