package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/driftboard/backend/internal/models"
)

// PageCursor points at the last raw item of the most recently fetched page.
// It is session-scoped and never persisted.
type PageCursor struct {
	CreatedAt time.Time
	ID        string
}

// PageQuery describes one page-sized feed read. AuthorIDs nil means the
// global feed; non-nil restricts to those authors via $in and therefore must
// hold at most MaxInValues entries.
type PageQuery struct {
	AuthorIDs []string
	Before    *PageCursor
	Limit     int
}

// FetchPage returns one raw page of posts in reverse-chronological order.
// Soft-deleted documents are NOT filtered here - the paginator drops them
// after the fact so that the has-more heuristic sees the raw page size.
func (s *Store) FetchPage(ctx context.Context, q PageQuery) ([]models.Post, error) {
	if len(q.AuthorIDs) > MaxInValues {
		return nil, fmt.Errorf("author set exceeds the %d-value $in limit: %d", MaxInValues, len(q.AuthorIDs))
	}

	filter := bson.M{}
	if q.AuthorIDs != nil {
		filter["author_id"] = bson.M{"$in": q.AuthorIDs}
	}
	if q.Before != nil {
		// Strict continuation: older than the cursor row, with an id
		// tiebreak for posts sharing a timestamp.
		filter["$or"] = []bson.M{
			{"created_at": bson.M{"$lt": q.Before.CreatedAt}},
			{"created_at": q.Before.CreatedAt, "_id": bson.M{"$lt": q.Before.ID}},
		}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(q.Limit))

	cur, err := s.posts.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts page: %w", err)
	}
	defer cur.Close(ctx)

	var posts []models.Post
	if err := cur.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("failed to decode posts page: %w", err)
	}
	return posts, nil
}

// InsertPost writes a new post. The creation timestamp is assigned here, on
// the server side, because it is the feed's sole sort key.
func (s *Store) InsertPost(ctx context.Context, post *models.Post) error {
	post.CreatedAt = time.Now().UTC()
	if _, err := s.posts.InsertOne(ctx, post); err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

// GetPost returns a single non-deleted post.
func (s *Store) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	filter := bson.M{"_id": postID, "deleted": bson.M{"$ne": true}}

	var post models.Post
	if err := s.posts.FindOne(ctx, filter).Decode(&post); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read post: %w", err)
	}
	return &post, nil
}

// SoftDeletePost tombstones a post. The document stays in the collection.
func (s *Store) SoftDeletePost(ctx context.Context, postID, actorID string) error {
	now := time.Now().UTC()
	res, err := s.posts.UpdateOne(ctx,
		bson.M{"_id": postID, "deleted": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{
			"deleted":    true,
			"deleted_by": actorID,
			"deleted_at": now,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to soft-delete post: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPinned flips the pin flag on a post.
func (s *Store) SetPinned(ctx context.Context, postID string, pinned bool) error {
	res, err := s.posts.UpdateOne(ctx,
		bson.M{"_id": postID, "deleted": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{"pinned": pinned}},
	)
	if err != nil {
		return fmt.Errorf("failed to update pin flag: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceCommentTree rewrites the whole embedded comment tree of a post.
// Callers must normalize the tree first; the store rejects explicit null
// sentinels in nested structures.
func (s *Store) ReplaceCommentTree(ctx context.Context, postID string, tree []models.Comment) error {
	res, err := s.posts.UpdateOne(ctx,
		bson.M{"_id": postID, "deleted": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{"comments": tree}},
	)
	if err != nil {
		return fmt.Errorf("failed to rewrite comment tree: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementShareCount bumps the share counter with the store's atomic
// increment operator. No read-modify-write, so no lost-update race.
func (s *Store) IncrementShareCount(ctx context.Context, postID string) error {
	res, err := s.posts.UpdateOne(ctx,
		bson.M{"_id": postID, "deleted": bson.M{"$ne": true}},
		bson.M{"$inc": bson.M{"share_count": 1}},
	)
	if err != nil {
		return fmt.Errorf("failed to increment share count: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePostEngagement re-reads the post inside a transaction, applies fn to
// the fresh copy, and persists the reactor set and reaction count. Toggle
// semantics need the fresh read to avoid lost updates under concurrent
// toggles.
func (s *Store) UpdatePostEngagement(ctx context.Context, postID string, fn func(post *models.Post) error) (*models.Post, error) {
	result, err := s.withTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var post models.Post
		filter := bson.M{"_id": postID, "deleted": bson.M{"$ne": true}}
		if err := s.posts.FindOne(sc, filter).Decode(&post); err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("failed to read post for engagement update: %w", err)
		}

		if err := fn(&post); err != nil {
			return nil, err
		}

		update := bson.M{"$set": bson.M{
			"reaction_count": post.ReactionCount,
			"reactor_ids":    post.ReactorIDs,
		}}
		if _, err := s.posts.UpdateOne(sc, filter, update); err != nil {
			return nil, fmt.Errorf("failed to write engagement update: %w", err)
		}
		return &post, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Post), nil
}
