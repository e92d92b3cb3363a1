package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/driftboard/backend/internal/comments"
	"github.com/driftboard/backend/internal/logger"
	"github.com/driftboard/backend/internal/models"
	"github.com/driftboard/backend/internal/util"
)

const maxCommentBodyLength = 2000

// AddComment adds a top-level comment or a nested reply to a post
// POST /api/v1/posts/:id/comments
func (h *Handlers) AddComment(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	var req struct {
		Body     string `json:"body" binding:"required"`
		ParentID string `json:"parent_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	body := strings.TrimSpace(req.Body)
	if body == "" {
		util.RespondValidationError(c, "body", "comment body is required")
		return
	}
	if len(body) > maxCommentBodyLength {
		util.RespondValidationError(c, "body", "comment body too long")
		return
	}

	ctx, span := h.events.TraceComment(c.Request.Context(), postID, req.ParentID != "")
	defer span.End()

	post, err := h.posts.GetPost(ctx, postID)
	if util.HandleStoreError(c, err, "post") {
		return
	}

	comment := models.Comment{
		ID:        uuid.New().String(),
		AuthorID:  user.ID,
		Username:  user.Username,
		AvatarURL: user.AvatarURL,
		Body:      body,
		CreatedAt: time.Now().UTC(),
		ParentID:  req.ParentID,
	}

	var tree []models.Comment
	if req.ParentID == "" {
		tree = append(append([]models.Comment{}, post.Comments...), comment)
	} else {
		if _, found := comments.Find(post.Comments, req.ParentID); !found {
			// Replying to a comment that no longer exists is dropped quietly,
			// matching the merge semantics of the tree transforms.
			c.JSON(http.StatusOK, gin.H{"status": "ignored", "post_id": postID})
			return
		}
		tree = comments.InsertReply(post.Comments, req.ParentID, comment)
	}
	tree = comments.Normalize(tree)

	if err := h.posts.ReplaceCommentTree(ctx, postID, tree); err != nil {
		logger.Error("Failed to persist comment tree", zap.Error(err), logger.WithPostID(postID))
		util.RespondInternalError(c, "failed to add comment, try again")
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// DeleteComment tombstones a comment and its whole reply subtree
// DELETE /api/v1/posts/:id/comments/:commentId
func (h *Handlers) DeleteComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")
	commentID := c.Param("commentId")

	post, err := h.posts.GetPost(c.Request.Context(), postID)
	if util.HandleStoreError(c, err, "post") {
		return
	}

	target, found := comments.Find(post.Comments, commentID)
	if !found {
		util.RespondNotFound(c, "comment")
		return
	}
	if target.AuthorID != userID && post.AuthorID != userID {
		util.RespondForbidden(c, "cannot delete another user's comment")
		return
	}

	deletedAt := time.Now().UTC()
	tree := comments.Normalize(comments.MarkDeleted(post.Comments, commentID, deletedAt))

	if err := h.posts.ReplaceCommentTree(c.Request.Context(), postID, tree); err != nil {
		logger.Error("Failed to persist comment tree", zap.Error(err), logger.WithPostID(postID))
		util.RespondInternalError(c, "failed to delete comment, try again")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "deleted",
		"comment_id": commentID,
		"deleted_at": deletedAt,
	})
}
