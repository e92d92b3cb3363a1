package feed

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftboard/backend/internal/models"
	"github.com/driftboard/backend/internal/store"
)

// fakeSource serves pages from an in-memory reverse-chronological post list,
// applying the same cursor predicate the store does.
type fakeSource struct {
	posts   []models.Post
	queries []store.PageQuery

	// block, when set, is closed by the test to release an outstanding fetch.
	block chan struct{}
}

func (f *fakeSource) FetchPage(ctx context.Context, q store.PageQuery) ([]models.Post, error) {
	f.queries = append(f.queries, q)
	if f.block != nil {
		<-f.block
	}

	authorSet := map[string]bool{}
	for _, id := range q.AuthorIDs {
		authorSet[id] = true
	}

	var page []models.Post
	for _, p := range f.posts {
		if q.AuthorIDs != nil && !authorSet[p.AuthorID] {
			continue
		}
		if q.Before != nil {
			older := p.CreatedAt.Before(q.Before.CreatedAt) ||
				(p.CreatedAt.Equal(q.Before.CreatedAt) && p.ID < q.Before.ID)
			if !older {
				continue
			}
		}
		page = append(page, p)
		if len(page) == q.Limit {
			break
		}
	}
	return page, nil
}

// makePosts builds n posts newest-first, one minute apart.
func makePosts(n int, author string) []models.Post {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	posts := make([]models.Post, n)
	for i := 0; i < n; i++ {
		posts[i] = models.Post{
			ID:        fmt.Sprintf("post-%03d", n-i),
			AuthorID:  author,
			Body:      "body",
			CreatedAt: base.Add(-time.Duration(i) * time.Minute),
		}
	}
	return posts
}

func TestInitialPageThenRemainder(t *testing.T) {
	// 25 posts, page size 20: first fetch returns 20 with more available,
	// second returns the remaining 5 and reports the end of data.
	src := &fakeSource{posts: makePosts(25, "alice")}
	p := NewPaginator(src)

	page, err := p.FetchInitialPage(context.Background(), ViewGlobal, nil)
	require.NoError(t, err)
	assert.Len(t, page.Items, 20)
	assert.True(t, page.HasMore)

	page, err = p.FetchNextPage(context.Background())
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)
	assert.False(t, page.HasMore)

	assert.Len(t, p.Items(), 25)
}

func TestNoDuplicatesAcrossPages(t *testing.T) {
	src := &fakeSource{posts: makePosts(45, "alice")}
	p := NewPaginator(src)

	_, err := p.FetchInitialPage(context.Background(), ViewGlobal, nil)
	require.NoError(t, err)
	for p.HasMore() {
		_, err = p.FetchNextPage(context.Background())
		require.NoError(t, err)
	}

	seen := map[string]bool{}
	for _, item := range p.Items() {
		assert.False(t, seen[item.ID], "duplicate post %s in accumulated feed", item.ID)
		seen[item.ID] = true
	}
	assert.Len(t, p.Items(), 45)
}

func TestAccumulatedOrderIsReverseChronological(t *testing.T) {
	src := &fakeSource{posts: makePosts(45, "alice")}
	p := NewPaginator(src)

	_, err := p.FetchInitialPage(context.Background(), ViewGlobal, nil)
	require.NoError(t, err)
	for p.HasMore() {
		_, err = p.FetchNextPage(context.Background())
		require.NoError(t, err)
	}

	items := p.Items()
	for i := 1; i < len(items); i++ {
		assert.False(t, items[i].CreatedAt.After(items[i-1].CreatedAt),
			"item %d is newer than item %d", i, i-1)
	}
}

func TestCursorReplayDropsDuplicates(t *testing.T) {
	// A new post inserted between fetches shifts the raw pages so the second
	// page replays rows from the first. The dedupe set must suppress them.
	posts := makePosts(30, "alice")
	src := &fakeSource{posts: posts}
	p := NewPaginator(src)

	page, err := p.FetchInitialPage(context.Background(), ViewGlobal, nil)
	require.NoError(t, err)
	require.Len(t, page.Items, 20)

	// Simulate replay by rewinding the cursor two rows, as happens when a
	// concurrent insert shifts page boundaries between fetches.
	p.cursor = &store.PageCursor{
		CreatedAt: posts[17].CreatedAt,
		ID:        posts[17].ID,
	}

	page, err = p.FetchNextPage(context.Background())
	require.NoError(t, err)

	assert.Len(t, page.Items, 10)
	assert.Equal(t, 2, p.DuplicatesDropped)
	assert.Len(t, p.Items(), 30)
}

func TestSoftDeletedFilteredButHasMoreFromRawPage(t *testing.T) {
	posts := makePosts(25, "alice")
	for i := 0; i < 5; i++ {
		posts[i].Deleted = true
	}
	src := &fakeSource{posts: posts}
	p := NewPaginator(src)

	page, err := p.FetchInitialPage(context.Background(), ViewGlobal, nil)
	require.NoError(t, err)

	// 5 of the 20 raw items are tombstones, so only 15 are visible - but
	// the raw page was full, so there is still more data.
	assert.Len(t, page.Items, 15)
	assert.True(t, page.HasMore)
}

func TestFollowingViewEmptySetSkipsQuery(t *testing.T) {
	src := &fakeSource{posts: makePosts(10, "alice")}
	p := NewPaginator(src)

	page, err := p.FetchInitialPage(context.Background(), ViewFollowing, nil)
	require.NoError(t, err)

	assert.Empty(t, page.Items)
	assert.False(t, page.HasMore)
	assert.Empty(t, src.queries, "no query should be issued for an empty following set")
}

func TestFollowingViewTruncatesToStoreLimit(t *testing.T) {
	// An actor following 12 users queries only the first 10; posts from the
	// 11th and 12th never appear. Documented limitation, tested as such.
	var posts []models.Post
	var following []string
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		author := fmt.Sprintf("friend-%02d", i)
		following = append(following, author)
		posts = append(posts, models.Post{
			ID:        fmt.Sprintf("post-%02d", i),
			AuthorID:  author,
			CreatedAt: base.Add(-time.Duration(i) * time.Minute),
		})
	}
	src := &fakeSource{posts: posts}
	p := NewPaginator(src)

	page, err := p.FetchInitialPage(context.Background(), ViewFollowing, following)
	require.NoError(t, err)

	require.Len(t, src.queries, 1)
	assert.Len(t, src.queries[0].AuthorIDs, store.MaxInValues)
	assert.Equal(t, following[:10], src.queries[0].AuthorIDs)

	for _, item := range page.Items {
		assert.NotEqual(t, "friend-10", item.AuthorID)
		assert.NotEqual(t, "friend-11", item.AuthorID)
	}
	assert.Len(t, page.Items, 10)
}

func TestNextPageWithoutCursorIsNoOp(t *testing.T) {
	src := &fakeSource{posts: makePosts(5, "alice")}
	p := NewPaginator(src)

	page, err := p.FetchNextPage(context.Background())
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Empty(t, src.queries)
}

func TestNextPageStopsAtEndOfData(t *testing.T) {
	src := &fakeSource{posts: makePosts(5, "alice")}
	p := NewPaginator(src)

	_, err := p.FetchInitialPage(context.Background(), ViewGlobal, nil)
	require.NoError(t, err)
	require.Len(t, src.queries, 1)

	// Partial page means end of data - further calls must not query again.
	page, err := p.FetchNextPage(context.Background())
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Len(t, src.queries, 1)
}

func TestSecondFetchWhileInFlightIsNoOp(t *testing.T) {
	src := &fakeSource{posts: makePosts(45, "alice"), block: make(chan struct{})}
	p := NewPaginator(src)

	// Prime a session without blocking.
	src.block = nil
	_, err := p.FetchInitialPage(context.Background(), ViewGlobal, nil)
	require.NoError(t, err)

	src.block = make(chan struct{})
	firstDone := make(chan Page)
	go func() {
		page, _ := p.FetchNextPage(context.Background())
		firstDone <- page
	}()

	// Wait for the fetch to be registered as in flight.
	require.Eventually(t, func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.inFlight
	}, time.Second, time.Millisecond)

	// The overlapping call returns immediately without a second query.
	page, err := p.FetchNextPage(context.Background())
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	close(src.block)
	first := <-firstDone
	assert.Len(t, first.Items, 20)
	assert.Len(t, src.queries, 2)
}

func TestViewSwitchResetsStateAndDiscardsStaleFetch(t *testing.T) {
	src := &fakeSource{posts: makePosts(45, "alice")}
	p := NewPaginator(src)

	_, err := p.FetchInitialPage(context.Background(), ViewGlobal, nil)
	require.NoError(t, err)
	require.NotEmpty(t, p.Items())

	// Start a next-page fetch, then switch views while it is outstanding.
	src.block = make(chan struct{})
	done := make(chan Page)
	go func() {
		page, _ := p.FetchNextPage(context.Background())
		done <- page
	}()
	require.Eventually(t, func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.inFlight
	}, time.Second, time.Millisecond)

	p.Reset(ViewFollowing, []string{"bob"})
	assert.Empty(t, p.Items())
	assert.False(t, p.HasMore())

	close(src.block)
	stale := <-done

	// The stale result must not leak into the new view.
	assert.Empty(t, stale.Items)
	assert.Empty(t, p.Items())
}

func TestSessionManagerKeysByActorAndView(t *testing.T) {
	src := &fakeSource{posts: makePosts(5, "alice")}
	m := NewSessionManager(src)

	global := m.Get("user-1", ViewGlobal)
	following := m.Get("user-1", ViewFollowing)
	other := m.Get("user-2", ViewGlobal)

	assert.NotSame(t, global, following)
	assert.NotSame(t, global, other)
	assert.Same(t, global, m.Get("user-1", ViewGlobal))
}

func TestSessionManagerPrunesIdleSessions(t *testing.T) {
	src := &fakeSource{posts: makePosts(5, "alice")}
	m := NewSessionManager(src)

	m.Get("user-1", ViewGlobal)
	m.Get("user-2", ViewGlobal)

	assert.Equal(t, 0, m.PruneIdle(time.Minute))
	assert.Equal(t, 2, m.PruneIdle(0))
}
