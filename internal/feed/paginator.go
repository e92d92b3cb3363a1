package feed

import (
	"context"
	"sync"

	"github.com/driftboard/backend/internal/models"
	"github.com/driftboard/backend/internal/store"
)

// ViewKind selects which feed a paginator is accumulating.
type ViewKind string

const (
	// ViewGlobal is the everyone feed.
	ViewGlobal ViewKind = "global"
	// ViewFollowing restricts the feed to authors the actor follows.
	ViewFollowing ViewKind = "following"
)

// PageSize is the fixed number of raw items requested per page.
const PageSize = 20

// PageSource issues one page-sized query against the backing store.
type PageSource interface {
	FetchPage(ctx context.Context, q store.PageQuery) ([]models.Post, error)
}

// Page is the result of one fetch: the newly appended visible items and
// whether the paginator believes more data exists.
type Page struct {
	Items   []models.Post `json:"items"`
	HasMore bool          `json:"has_more"`
}

// Paginator accumulates an ordered, deduplicated sequence of posts for one
// feed view over a session. It is an explicit state object - inject one per
// feed session, never share across views.
//
// Known limitations, kept on purpose:
//   - hasMore is a heuristic: a raw page shorter than PageSize is treated as
//     end of data, which concurrent inserts can defeat.
//   - ViewFollowing queries only the first store.MaxInValues followed
//     accounts; a user following more than that sees a feed sourced from a
//     subset of them.
type Paginator struct {
	mu  sync.Mutex
	src PageSource

	pageSize  int
	view      ViewKind
	following []string

	items   []models.Post
	seen    map[string]struct{}
	cursor  *store.PageCursor
	hasMore bool

	// inFlight enforces at-most-one outstanding fetch per session. A second
	// FetchNextPage while one is outstanding is a no-op, not a queued retry.
	inFlight bool

	// gen guards against stale responses: a reset bumps it, and a fetch that
	// resolves against an older generation is discarded instead of committed.
	gen uint64

	// DuplicatesDropped counts cursor-replay items suppressed by the dedupe
	// set since the last reset.
	DuplicatesDropped int
}

// NewPaginator creates a paginator reading pages from src.
func NewPaginator(src PageSource) *Paginator {
	return &Paginator{
		src:      src,
		pageSize: PageSize,
		seen:     make(map[string]struct{}),
	}
}

// FetchInitialPage resets the session to the given view and fetches the first
// page. For ViewFollowing with an empty following set it returns an empty
// page immediately without issuing a query.
func (p *Paginator) FetchInitialPage(ctx context.Context, view ViewKind, following []string) (Page, error) {
	p.mu.Lock()
	p.resetLocked(view, following)

	if view == ViewFollowing && len(p.following) == 0 {
		p.mu.Unlock()
		return Page{}, nil
	}

	return p.fetchLocked(ctx)
}

// FetchNextPage fetches the page after the current cursor. It is a no-op
// returning an empty page when no cursor is held, when the previous page was
// the last one, or when a fetch is already in flight.
func (p *Paginator) FetchNextPage(ctx context.Context) (Page, error) {
	p.mu.Lock()

	if p.inFlight || p.cursor == nil || !p.hasMore {
		hasMore := p.hasMore
		p.mu.Unlock()
		return Page{HasMore: hasMore}, nil
	}

	return p.fetchLocked(ctx)
}

// Reset clears all accumulated state for a view switch. Any in-flight fetch
// is discarded when it resolves.
func (p *Paginator) Reset(view ViewKind, following []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked(view, following)
}

// Items returns a copy of the accumulated visible feed.
func (p *Paginator) Items() []models.Post {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.Post, len(p.items))
	copy(out, p.items)
	return out
}

// Fresh reports whether the session has never fetched a page.
func (p *Paginator) Fresh() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor == nil && len(p.items) == 0
}

// HasMore reports whether the paginator believes another page exists.
func (p *Paginator) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore
}

func (p *Paginator) resetLocked(view ViewKind, following []string) {
	p.gen++
	p.view = view
	p.items = nil
	p.seen = make(map[string]struct{})
	p.cursor = nil
	p.hasMore = false
	p.inFlight = false
	p.DuplicatesDropped = 0

	// The store's $in operator is capped, so the following view is sourced
	// from the first MaxInValues followed accounts only. Stated limitation,
	// not a bug to silently fix.
	if len(following) > store.MaxInValues {
		following = following[:store.MaxInValues]
	}
	p.following = following
}

// fetchLocked issues one page query. Called with p.mu held; releases the lock
// while the network call is outstanding and re-acquires it to commit.
func (p *Paginator) fetchLocked(ctx context.Context) (Page, error) {
	p.inFlight = true
	gen := p.gen

	q := store.PageQuery{
		Before: p.cursor,
		Limit:  p.pageSize,
	}
	if p.view == ViewFollowing {
		q.AuthorIDs = p.following
	}
	p.mu.Unlock()

	raw, err := p.src.FetchPage(ctx, q)

	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.gen {
		// The session was reset while this fetch was outstanding. Drop the
		// result instead of committing stale items into the new view.
		return Page{}, nil
	}
	p.inFlight = false

	if err != nil {
		return Page{}, err
	}

	// Cursor and hasMore come from the raw page, before the soft-delete
	// filter: a page shortened by tombstones must not read as end-of-data.
	if len(raw) > 0 {
		last := raw[len(raw)-1]
		p.cursor = &store.PageCursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	p.hasMore = len(raw) == p.pageSize

	appended := make([]models.Post, 0, len(raw))
	for _, post := range raw {
		if post.Deleted {
			continue
		}
		if _, dup := p.seen[post.ID]; dup {
			p.DuplicatesDropped++
			continue
		}
		p.seen[post.ID] = struct{}{}
		appended = append(appended, post)
	}
	p.items = append(p.items, appended...)

	return Page{Items: appended, HasMore: p.hasMore}, nil
}
