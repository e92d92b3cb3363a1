package engagement

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftboard/backend/internal/models"
	"github.com/driftboard/backend/internal/store"
)

// fakeStore applies engagement updates against in-memory documents the way
// the transactional store path does: fresh read, mutate, persist.
type fakeStore struct {
	posts map[string]*models.Post
	users map[string]*models.UserProfile

	shareIncrements int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		posts: make(map[string]*models.Post),
		users: make(map[string]*models.UserProfile),
	}
}

func (f *fakeStore) UpdatePostEngagement(ctx context.Context, postID string, fn func(post *models.Post) error) (*models.Post, error) {
	post, ok := f.posts[postID]
	if !ok || post.Deleted {
		return nil, store.ErrNotFound
	}
	fresh := *post
	if err := fn(&fresh); err != nil {
		return nil, err
	}
	*post = fresh
	return &fresh, nil
}

func (f *fakeStore) IncrementShareCount(ctx context.Context, postID string) error {
	post, ok := f.posts[postID]
	if !ok || post.Deleted {
		return store.ErrNotFound
	}
	post.ShareCount++
	f.shareIncrements++
	return nil
}

func (f *fakeStore) UpdateFollowPair(ctx context.Context, followerID, followeeID string, follow bool) error {
	follower, ok := f.users[followerID]
	if !ok {
		return store.ErrNotFound
	}
	followee, ok := f.users[followeeID]
	if !ok {
		return store.ErrNotFound
	}

	if follow {
		follower.Following = addToSet(follower.Following, followeeID)
		followee.Followers = addToSet(followee.Followers, followerID)
	} else {
		follower.Following = removeFromSet(follower.Following, followeeID)
		followee.Followers = removeFromSet(followee.Followers, followerID)
	}
	return nil
}

func addToSet(set []string, id string) []string {
	for _, v := range set {
		if v == id {
			return set
		}
	}
	return append(set, id)
}

func removeFromSet(set []string, id string) []string {
	out := set[:0]
	for _, v := range set {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

type fakeGraph struct {
	invalidated []string
}

func (g *fakeGraph) InvalidateUser(ctx context.Context, userID string) {
	g.invalidated = append(g.invalidated, userID)
}

func TestToggleReactionAddsThenRemoves(t *testing.T) {
	fs := newFakeStore()
	fs.posts["p1"] = &models.Post{ID: "p1", ReactionCount: 1, ReactorIDs: []string{"bob"}}
	svc := NewService(fs, nil)

	res, err := svc.ToggleReaction(context.Background(), "p1", "alice")
	require.NoError(t, err)
	assert.True(t, res.Reacted)
	assert.Equal(t, 2, res.ReactionCount)
	assert.ElementsMatch(t, []string{"bob", "alice"}, fs.posts["p1"].ReactorIDs)

	res, err = svc.ToggleReaction(context.Background(), "p1", "alice")
	require.NoError(t, err)
	assert.False(t, res.Reacted)
	assert.Equal(t, 1, res.ReactionCount)
	assert.ElementsMatch(t, []string{"bob"}, fs.posts["p1"].ReactorIDs)
}

func TestDoubleToggleRestoresOriginalState(t *testing.T) {
	fs := newFakeStore()
	fs.posts["p1"] = &models.Post{ID: "p1", ReactionCount: 3, ReactorIDs: []string{"a", "b", "c"}}
	svc := NewService(fs, nil)

	_, err := svc.ToggleReaction(context.Background(), "p1", "dave")
	require.NoError(t, err)
	_, err = svc.ToggleReaction(context.Background(), "p1", "dave")
	require.NoError(t, err)

	assert.Equal(t, 3, fs.posts["p1"].ReactionCount)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, fs.posts["p1"].ReactorIDs)
}

func TestToggleReactionCounterFloorsAtZero(t *testing.T) {
	// Drifted document: the actor is in the reactor set but the counter
	// already reads zero. Removing must not drive it negative.
	fs := newFakeStore()
	fs.posts["p1"] = &models.Post{ID: "p1", ReactionCount: 0, ReactorIDs: []string{"alice"}}
	svc := NewService(fs, nil)

	res, err := svc.ToggleReaction(context.Background(), "p1", "alice")
	require.NoError(t, err)
	assert.False(t, res.Reacted)
	assert.Equal(t, 0, res.ReactionCount)
}

func TestToggleReactionMissingPost(t *testing.T) {
	svc := NewService(newFakeStore(), nil)

	_, err := svc.ToggleReaction(context.Background(), "ghost", "alice")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRecordShareUsesAtomicIncrement(t *testing.T) {
	fs := newFakeStore()
	fs.posts["p1"] = &models.Post{ID: "p1"}
	svc := NewService(fs, nil)

	require.NoError(t, svc.RecordShare(context.Background(), "p1"))
	require.NoError(t, svc.RecordShare(context.Background(), "p1"))

	assert.Equal(t, 2, fs.posts["p1"].ShareCount)
	assert.Equal(t, 2, fs.shareIncrements)
}

func TestFollowUpdatesBothSides(t *testing.T) {
	fs := newFakeStore()
	fs.users["alice"] = &models.UserProfile{ID: "alice"}
	fs.users["bob"] = &models.UserProfile{ID: "bob"}
	svc := NewService(fs, nil)

	require.NoError(t, svc.Follow(context.Background(), "alice", "bob"))

	assert.Contains(t, fs.users["alice"].Following, "bob")
	assert.Contains(t, fs.users["bob"].Followers, "alice")
}

func TestFollowIsIdempotent(t *testing.T) {
	fs := newFakeStore()
	fs.users["alice"] = &models.UserProfile{ID: "alice"}
	fs.users["bob"] = &models.UserProfile{ID: "bob"}
	svc := NewService(fs, nil)

	require.NoError(t, svc.Follow(context.Background(), "alice", "bob"))
	require.NoError(t, svc.Follow(context.Background(), "alice", "bob"))

	assert.Len(t, fs.users["alice"].Following, 1)
	assert.Len(t, fs.users["bob"].Followers, 1)
}

func TestUnfollowRemovesBothSides(t *testing.T) {
	fs := newFakeStore()
	fs.users["alice"] = &models.UserProfile{ID: "alice", Following: []string{"bob"}}
	fs.users["bob"] = &models.UserProfile{ID: "bob", Followers: []string{"alice"}}
	svc := NewService(fs, nil)

	require.NoError(t, svc.Unfollow(context.Background(), "alice", "bob"))

	assert.Empty(t, fs.users["alice"].Following)
	assert.Empty(t, fs.users["bob"].Followers)
}

func TestSelfFollowRejected(t *testing.T) {
	fs := newFakeStore()
	fs.users["alice"] = &models.UserProfile{ID: "alice"}
	svc := NewService(fs, nil)

	assert.ErrorIs(t, svc.Follow(context.Background(), "alice", "alice"), ErrSelfFollow)
}

func TestFollowInvalidatesGraphCacheForBothUsers(t *testing.T) {
	fs := newFakeStore()
	fs.users["alice"] = &models.UserProfile{ID: "alice"}
	fs.users["bob"] = &models.UserProfile{ID: "bob"}
	graph := &fakeGraph{}
	svc := NewService(fs, graph)

	require.NoError(t, svc.Follow(context.Background(), "alice", "bob"))

	assert.ElementsMatch(t, []string{"alice", "bob"}, graph.invalidated)
}
