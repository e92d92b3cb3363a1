package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/driftboard/backend/internal/logger"
	"github.com/driftboard/backend/internal/profile"
	"github.com/driftboard/backend/internal/util"
)

// GetUser returns a user's public profile
// GET /api/v1/users/:id
func (h *Handlers) GetUser(c *gin.Context) {
	userID := c.Param("id")

	// Warm the request through the profile cache so repeated lookups in a
	// session stay local.
	known, err := h.profiles.Resolve(c.Request.Context(), []string{userID}, profile.DefaultMaxBatch)
	if util.HandleStoreError(c, err, "user") {
		return
	}

	user, ok := known[userID]
	if !ok {
		util.RespondNotFound(c, "user")
		return
	}

	c.JSON(http.StatusOK, user.PublicProfile())
}

// UpdateMe updates the caller's own display fields
// PUT /api/v1/me
func (h *Handlers) UpdateMe(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Username *string `json:"username"`
		Bio      *string `json:"bio"`
		Location *string `json:"location"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	fields := bson.M{}
	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if len(username) < 3 || len(username) > 30 {
			util.RespondValidationError(c, "username", "username must be 3-30 characters")
			return
		}
		fields["username"] = username
	}
	if req.Bio != nil {
		if len(*req.Bio) > 500 {
			util.RespondValidationError(c, "bio", "bio too long")
			return
		}
		fields["bio"] = *req.Bio
	}
	if req.Location != nil {
		fields["location"] = *req.Location
	}
	if len(fields) == 0 {
		util.RespondBadRequest(c, "no fields to update")
		return
	}

	if err := h.users.UpdateProfileFields(c.Request.Context(), userID, fields); err != nil {
		util.HandleStoreError(c, err, "user")
		return
	}

	user, err := h.users.GetUserByID(c.Request.Context(), userID)
	if util.HandleStoreError(c, err, "user") {
		return
	}

	c.JSON(http.StatusOK, user.PublicProfile())
}

// UploadAvatar stores a new avatar image and points the profile at it
// POST /api/v1/me/avatar
func (h *Handlers) UploadAvatar(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	if h.uploader == nil {
		util.RespondInternalError(c, "image uploads unavailable")
		return
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		util.RespondBadRequest(c, "avatar file is required")
		return
	}
	if file.Size > maxImageBytes {
		util.RespondValidationError(c, "avatar", "image too large")
		return
	}
	if !util.IsValidImageFile(file.Filename) {
		util.RespondValidationError(c, "avatar", "unsupported image type")
		return
	}

	src, err := file.Open()
	if err != nil {
		util.RespondBadRequest(c, "unreadable image")
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		util.RespondBadRequest(c, "unreadable image")
		return
	}

	result, err := h.uploader.UploadImage(c.Request.Context(), data, userID, file.Filename)
	if err != nil {
		logger.Error("Avatar upload failed", zap.Error(err), logger.WithUserID(userID))
		util.RespondInternalError(c, "failed to store avatar, try again")
		return
	}

	if err := h.users.UpdateProfileFields(c.Request.Context(), userID, bson.M{"avatar_url": result.URL}); err != nil {
		util.HandleStoreError(c, err, "user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"avatar_url": result.URL,
	})
}
