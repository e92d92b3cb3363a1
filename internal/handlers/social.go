package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/driftboard/backend/internal/engagement"
	"github.com/driftboard/backend/internal/logger"
	"github.com/driftboard/backend/internal/metrics"
	"github.com/driftboard/backend/internal/store"
	"github.com/driftboard/backend/internal/util"
)

// ReactToPost toggles the caller's reaction on a post
// POST /api/v1/posts/:id/react
func (h *Handlers) ReactToPost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	ctx, span := h.events.TraceReaction(c.Request.Context(), postID)
	defer span.End()

	result, err := h.engagement.ToggleReaction(ctx, postID, userID)
	if util.HandleStoreError(c, err, "post") {
		return
	}

	direction := "removed"
	if result.Reacted {
		direction = "added"
	}
	metrics.Get().ReactionsToggled.WithLabelValues(direction).Inc()

	c.JSON(http.StatusOK, gin.H{
		"status":         direction,
		"post_id":        postID,
		"reacted":        result.Reacted,
		"reaction_count": result.ReactionCount,
	})
}

// SharePost records a share of a post
// POST /api/v1/posts/:id/share
func (h *Handlers) SharePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	if err := h.engagement.RecordShare(c.Request.Context(), postID); err != nil {
		util.HandleStoreError(c, err, "post")
		return
	}

	metrics.Get().SharesRecorded.WithLabelValues().Inc()
	logger.Log.Debug("share recorded", logger.WithUserID(userID), logger.WithPostID(postID))

	c.JSON(http.StatusOK, gin.H{
		"status":    "shared",
		"post_id":   postID,
		"timestamp": time.Now().UTC(),
	})
}

// FollowUser makes the caller follow the target user
// POST /api/v1/users/:id/follow
func (h *Handlers) FollowUser(c *gin.Context) {
	h.setFollow(c, true)
}

// UnfollowUser makes the caller unfollow the target user
// DELETE /api/v1/users/:id/follow
func (h *Handlers) UnfollowUser(c *gin.Context) {
	h.setFollow(c, false)
}

func (h *Handlers) setFollow(c *gin.Context, follow bool) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	targetID := c.Param("id")

	ctx, span := h.events.TraceFollow(c.Request.Context(), userID, targetID, follow)
	defer span.End()

	var err error
	if follow {
		err = h.engagement.Follow(ctx, userID, targetID)
	} else {
		err = h.engagement.Unfollow(ctx, userID, targetID)
	}
	if errors.Is(err, engagement.ErrSelfFollow) {
		util.RespondBadRequest(c, "cannot follow yourself")
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		util.RespondNotFound(c, "user")
		return
	}
	if err != nil {
		logger.Error("Follow update failed", zap.Error(err), logger.WithUserID(userID))
		util.RespondInternalError(c, "failed to update follow, try again")
		return
	}

	status := "unfollowed"
	if follow {
		status = "followed"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  status,
		"user_id": targetID,
	})
}
