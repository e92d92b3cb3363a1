package handlers

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/driftboard/backend/internal/auth"
	"github.com/driftboard/backend/internal/classify"
	"github.com/driftboard/backend/internal/engagement"
	"github.com/driftboard/backend/internal/feed"
	"github.com/driftboard/backend/internal/models"
	"github.com/driftboard/backend/internal/profile"
	"github.com/driftboard/backend/internal/storage"
	"github.com/driftboard/backend/internal/telemetry"
)

// PostStore is the post persistence surface the handlers use.
type PostStore interface {
	InsertPost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, postID string) (*models.Post, error)
	SoftDeletePost(ctx context.Context, postID, actorID string) error
	SetPinned(ctx context.Context, postID string, pinned bool) error
	ReplaceCommentTree(ctx context.Context, postID string, tree []models.Comment) error
}

// UserStore is the user persistence surface the handlers use.
type UserStore interface {
	GetUserByID(ctx context.Context, userID string) (*models.UserProfile, error)
	UpdateProfileFields(ctx context.Context, userID string, fields bson.M) error
}

// FollowingSource resolves the set of author ids an actor follows, normally
// backed by the Redis social graph cache.
type FollowingSource interface {
	GetFollowing(ctx context.Context, userID string) ([]string, error)
}

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	posts      PostStore
	users      UserStore
	sessions   *feed.SessionManager
	profiles   *profile.Cache
	engagement *engagement.Service
	auth       *auth.Service

	classifier classify.Classifier
	uploader   storage.Uploader
	graph      FollowingSource
	events     *telemetry.BusinessEvents
}

// NewHandlers creates a new handlers instance
func NewHandlers(posts PostStore, users UserStore, sessions *feed.SessionManager, profiles *profile.Cache, engagementSvc *engagement.Service, authSvc *auth.Service) *Handlers {
	return &Handlers{
		posts:      posts,
		users:      users,
		sessions:   sessions,
		profiles:   profiles,
		engagement: engagementSvc,
		auth:       authSvc,
		events:     telemetry.NewBusinessEvents(),
	}
}

// SetClassifier sets the post category classifier
func (h *Handlers) SetClassifier(c classify.Classifier) {
	h.classifier = c
}

// SetUploader sets the image storage collaborator
func (h *Handlers) SetUploader(u storage.Uploader) {
	h.uploader = u
}

// SetSocialGraph sets the follow-list cache used by the following feed
func (h *Handlers) SetSocialGraph(g FollowingSource) {
	h.graph = g
}

// following resolves the actor's follow list, preferring the cache and
// falling back to a direct user read.
func (h *Handlers) following(ctx context.Context, userID string) ([]string, error) {
	if h.graph != nil {
		return h.graph.GetFollowing(ctx, userID)
	}
	user, err := h.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Following, nil
}
