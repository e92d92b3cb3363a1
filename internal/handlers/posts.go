package handlers

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/driftboard/backend/internal/classify"
	"github.com/driftboard/backend/internal/comments"
	"github.com/driftboard/backend/internal/logger"
	"github.com/driftboard/backend/internal/models"
	"github.com/driftboard/backend/internal/util"
)

const (
	maxPostBodyLength = 4000
	maxPostImages     = 4
	maxImageBytes     = 10 << 20
)

// CreatePost creates a new post with optional images
// POST /api/v1/posts (multipart form: body, images[]; or JSON: {"body": ...})
func (h *Handlers) CreatePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	body, imageURLs, ok := h.readPostInput(c, userID)
	if !ok {
		return
	}

	body = strings.TrimSpace(body)
	if body == "" {
		util.RespondValidationError(c, "body", "post body is required")
		return
	}
	if len(body) > maxPostBodyLength {
		util.RespondValidationError(c, "body", "post body too long")
		return
	}

	category := classify.DefaultLabel
	if h.classifier != nil {
		category = h.classifier.Classify(c.Request.Context(), body)
	}

	ctx, span := h.events.TraceCreatePost(c.Request.Context(), category, len(imageURLs))
	defer span.End()

	post := &models.Post{
		ID:        uuid.New().String(),
		AuthorID:  userID,
		Body:      body,
		ImageURLs: imageURLs,
		Category:  category,
	}
	if err := h.posts.InsertPost(ctx, post); err != nil {
		logger.Error("Failed to insert post", zap.Error(err), logger.WithUserID(userID))
		util.RespondInternalError(c, "failed to create post, try again")
		return
	}

	c.JSON(http.StatusCreated, post)
}

// readPostInput extracts the post body and uploads any attached images.
func (h *Handlers) readPostInput(c *gin.Context, userID string) (string, []string, bool) {
	contentType := c.ContentType()
	if contentType == "application/json" {
		var req struct {
			Body string `json:"body" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			util.RespondBadRequest(c, err.Error())
			return "", nil, false
		}
		return req.Body, nil, true
	}

	form, err := c.MultipartForm()
	if err != nil {
		util.RespondBadRequest(c, "expected JSON or multipart form")
		return "", nil, false
	}

	body := c.PostForm("body")
	files := form.File["images"]
	if len(files) > maxPostImages {
		util.RespondValidationError(c, "images", "too many images")
		return "", nil, false
	}

	var imageURLs []string
	for _, file := range files {
		if file.Size > maxImageBytes {
			util.RespondValidationError(c, "images", "image too large")
			return "", nil, false
		}
		if !util.IsValidImageFile(file.Filename) {
			util.RespondValidationError(c, "images", "unsupported image type")
			return "", nil, false
		}
		if h.uploader == nil {
			util.RespondInternalError(c, "image uploads unavailable")
			return "", nil, false
		}

		src, err := file.Open()
		if err != nil {
			util.RespondBadRequest(c, "unreadable image")
			return "", nil, false
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			util.RespondBadRequest(c, "unreadable image")
			return "", nil, false
		}

		result, err := h.uploader.UploadImage(c.Request.Context(), data, userID, file.Filename)
		if err != nil {
			logger.Error("Image upload failed", zap.Error(err), logger.WithUserID(userID))
			util.RespondInternalError(c, "failed to store image, try again")
			return "", nil, false
		}
		imageURLs = append(imageURLs, result.URL)
	}

	return body, imageURLs, true
}

// PostResponse is a single post with its author and visible comment tree.
type PostResponse struct {
	FeedItem
	Comments []models.Comment `json:"comments"`
}

// GetPost returns one post with its visible comment view
// GET /api/v1/posts/:id
func (h *Handlers) GetPost(c *gin.Context) {
	postID := c.Param("id")

	post, err := h.posts.GetPost(c.Request.Context(), postID)
	if util.HandleStoreError(c, err, "post") {
		return
	}

	visible := comments.VisibleView(post.Comments)

	items, err := h.hydrate(c.Request.Context(), []models.Post{*post})
	if err != nil || len(items) == 0 {
		items = bareItems([]models.Post{*post})
	}
	item := items[0]
	item.Comments = nil

	c.JSON(http.StatusOK, PostResponse{FeedItem: item, Comments: visible})
}

// DeletePost soft-deletes the caller's own post
// DELETE /api/v1/posts/:id
func (h *Handlers) DeletePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	post, err := h.posts.GetPost(c.Request.Context(), postID)
	if util.HandleStoreError(c, err, "post") {
		return
	}
	if post.AuthorID != userID {
		util.RespondForbidden(c, "cannot delete another user's post")
		return
	}

	if err := h.posts.SoftDeletePost(c.Request.Context(), postID, userID); err != nil {
		util.HandleStoreError(c, err, "post")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "deleted",
		"post_id":    postID,
		"deleted_at": time.Now().UTC(),
	})
}

// PinPost pins or unpins the caller's own post
// POST /api/v1/posts/:id/pin
func (h *Handlers) PinPost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	var req struct {
		Pinned *bool `json:"pinned" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	post, err := h.posts.GetPost(c.Request.Context(), postID)
	if util.HandleStoreError(c, err, "post") {
		return
	}
	if post.AuthorID != userID {
		util.RespondForbidden(c, "cannot pin another user's post")
		return
	}

	if err := h.posts.SetPinned(c.Request.Context(), postID, *req.Pinned); err != nil {
		util.HandleStoreError(c, err, "post")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"post_id": postID,
		"pinned":  *req.Pinned,
	})
}
