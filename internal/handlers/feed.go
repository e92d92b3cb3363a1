package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/driftboard/backend/internal/feed"
	"github.com/driftboard/backend/internal/logger"
	"github.com/driftboard/backend/internal/metrics"
	"github.com/driftboard/backend/internal/models"
	"github.com/driftboard/backend/internal/profile"
	"github.com/driftboard/backend/internal/util"
)

// FeedItem is a post joined with its author's cached profile.
type FeedItem struct {
	models.Post
	Author *models.UserProfile `json:"author,omitempty"`
}

// FeedResponse is one page of a feed session.
type FeedResponse struct {
	Items   []FeedItem `json:"items"`
	HasMore bool       `json:"has_more"`
}

// GetGlobalFeed returns the next page of the everyone feed
// GET /api/v1/feed/global?refresh=true resets the session
func (h *Handlers) GetGlobalFeed(c *gin.Context) {
	h.servePage(c, feed.ViewGlobal)
}

// GetFollowingFeed returns the next page of the following-only feed
// GET /api/v1/feed/following?refresh=true resets the session
func (h *Handlers) GetFollowingFeed(c *gin.Context) {
	h.servePage(c, feed.ViewFollowing)
}

func (h *Handlers) servePage(c *gin.Context, view feed.ViewKind) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	refresh := util.ParseBool(c.Query("refresh"), false)
	ctx, span := h.events.TraceFeedPage(c.Request.Context(), string(view), refresh)
	defer span.End()

	pg := h.sessions.Get(userID, view)

	var following []string
	if view == feed.ViewFollowing && (refresh || pg.Fresh()) {
		var err error
		following, err = h.following(ctx, userID)
		if util.HandleStoreError(c, err, "user") {
			return
		}
	}

	m := metrics.Get()
	dupsBefore := pg.DuplicatesDropped
	startTime := time.Now()

	var page feed.Page
	var err error
	if refresh || pg.Fresh() {
		page, err = pg.FetchInitialPage(ctx, view, following)
	} else {
		page, err = pg.FetchNextPage(ctx)
	}
	if err != nil {
		logger.Error("Feed page fetch failed", zap.Error(err), logger.WithUserID(userID))
		util.RespondInternalError(c, "failed to fetch feed, try again")
		return
	}

	m.FeedPagesFetched.WithLabelValues(string(view)).Inc()
	m.FeedFetchDuration.WithLabelValues(string(view)).Observe(time.Since(startTime).Seconds())
	if delta := pg.DuplicatesDropped - dupsBefore; delta > 0 {
		m.FeedDuplicatesDropped.WithLabelValues(string(view)).Add(float64(delta))
	}

	items, err := h.hydrate(ctx, page.Items)
	if err != nil {
		// Serve the page without author profiles rather than failing it
		logger.Warn("Profile hydration failed", zap.Error(err), logger.WithUserID(userID))
		items = bareItems(page.Items)
	}

	c.JSON(http.StatusOK, FeedResponse{Items: items, HasMore: page.HasMore})
}

// hydrate joins posts with author profiles through the session profile cache.
func (h *Handlers) hydrate(ctx context.Context, posts []models.Post) ([]FeedItem, error) {
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.AuthorID)
	}

	known, err := h.profiles.Resolve(ctx, ids, profile.DefaultMaxBatch)
	if err != nil {
		return nil, err
	}

	items := make([]FeedItem, 0, len(posts))
	for _, p := range posts {
		item := FeedItem{Post: p}
		if author, ok := known[p.AuthorID]; ok {
			a := author
			item.Author = &a
		}
		items = append(items, item)
	}
	return items, nil
}

func bareItems(posts []models.Post) []FeedItem {
	items := make([]FeedItem, 0, len(posts))
	for _, p := range posts {
		items = append(items, FeedItem{Post: p})
	}
	return items
}
