package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/driftboard/backend/internal/models"
)

// CreateUser inserts a new user profile document.
func (s *Store) CreateUser(ctx context.Context, user *models.UserProfile) error {
	user.CreatedAt = time.Now().UTC()
	if _, err := s.users.InsertOne(ctx, user); err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUserByID returns a user profile by identifier.
func (s *Store) GetUserByID(ctx context.Context, userID string) (*models.UserProfile, error) {
	var user models.UserProfile
	if err := s.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read user: %w", err)
	}
	return &user, nil
}

// GetUserByEmail looks a user up by login email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	var user models.UserProfile
	if err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read user by email: %w", err)
	}
	return &user, nil
}

// GetUsersByIDs fetches profiles for a set of identifiers in one $in query.
// Callers own the batching: ids must hold at most MaxInValues entries (use
// BatchIDs to split larger sets). Missing ids are silently absent from the
// result.
func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) ([]models.UserProfile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxInValues {
		return nil, fmt.Errorf("id set exceeds the %d-value $in limit: %d", MaxInValues, len(ids))
	}

	cur, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer cur.Close(ctx)

	var users []models.UserProfile
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

// UpdateProfileFields applies display-field updates to a user document.
func (s *Store) UpdateProfileFields(ctx context.Context, userID string, fields bson.M) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateFollowPair updates both sides of a follow edge in one transaction:
// the follower's following array and the followee's followers array. The
// array-union/remove operators keep the arrays set-like, so repeating the
// operation is a no-op. A crash between the two writes would leave a
// detectable asymmetry; running them in one transaction closes that window
// where the deployment supports it.
func (s *Store) UpdateFollowPair(ctx context.Context, followerID, followeeID string, follow bool) error {
	_, err := s.withTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var followerUpdate, followeeUpdate bson.M
		if follow {
			followerUpdate = bson.M{"$addToSet": bson.M{"following": followeeID}}
			followeeUpdate = bson.M{"$addToSet": bson.M{"followers": followerID}}
		} else {
			followerUpdate = bson.M{"$pull": bson.M{"following": followeeID}}
			followeeUpdate = bson.M{"$pull": bson.M{"followers": followerID}}
		}

		res, err := s.users.UpdateOne(sc, bson.M{"_id": followerID}, followerUpdate)
		if err != nil {
			return nil, fmt.Errorf("failed to update follower side: %w", err)
		}
		if res.MatchedCount == 0 {
			return nil, ErrNotFound
		}

		res, err = s.users.UpdateOne(sc, bson.M{"_id": followeeID}, followeeUpdate)
		if err != nil {
			return nil, fmt.Errorf("failed to update followee side: %w", err)
		}
		if res.MatchedCount == 0 {
			return nil, ErrNotFound
		}
		return nil, nil
	})
	return err
}
