package comments

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftboard/backend/internal/models"
)

// sampleTree builds:
//
//	c1
//	├── c2
//	│   └── c3
//	└── c4
//	c5
func sampleTree() []models.Comment {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	return []models.Comment{
		{
			ID: "c1", AuthorID: "alice", Body: "top", CreatedAt: base,
			Replies: []models.Comment{
				{
					ID: "c2", AuthorID: "bob", Body: "reply", ParentID: "c1", CreatedAt: base.Add(time.Minute),
					Replies: []models.Comment{
						{ID: "c3", AuthorID: "carol", Body: "deep reply", ParentID: "c2", CreatedAt: base.Add(2 * time.Minute)},
					},
				},
				{ID: "c4", AuthorID: "dave", Body: "second reply", ParentID: "c1", CreatedAt: base.Add(3 * time.Minute)},
			},
		},
		{ID: "c5", AuthorID: "erin", Body: "another thread", CreatedAt: base.Add(4 * time.Minute)},
	}
}

func TestInsertReplyAtDepth(t *testing.T) {
	tree := sampleTree()
	reply := models.Comment{ID: "c6", AuthorID: "frank", Body: "nested", ParentID: "c3"}

	// Attach under c3, which sits three levels down.
	updated := InsertReply(tree, "c3", reply)

	c3, ok := Find(updated, "c3")
	require.True(t, ok)
	require.Len(t, c3.Replies, 1)
	assert.Equal(t, "c6", c3.Replies[0].ID)

	// Sibling order everywhere else is untouched.
	c1, _ := Find(updated, "c1")
	assert.Equal(t, "c2", c1.Replies[0].ID)
	assert.Equal(t, "c4", c1.Replies[1].ID)
	assert.Equal(t, "c5", updated[1].ID)
}

func TestInsertReplyAppendsInInsertionOrder(t *testing.T) {
	tree := sampleTree()
	tree = InsertReply(tree, "c1", models.Comment{ID: "r1"})
	tree = InsertReply(tree, "c1", models.Comment{ID: "r2"})

	c1, _ := Find(tree, "c1")
	require.Len(t, c1.Replies, 4)
	assert.Equal(t, "r1", c1.Replies[2].ID)
	assert.Equal(t, "r2", c1.Replies[3].ID)
}

func TestInsertReplyMissingTargetIsNoOp(t *testing.T) {
	tree := sampleTree()
	updated := InsertReply(tree, "ghost", models.Comment{ID: "c6"})

	assert.Equal(t, tree, updated)
	assert.Equal(t, 5, Count(updated))
}

func TestInsertReplyDoesNotMutateOriginal(t *testing.T) {
	tree := sampleTree()
	_ = InsertReply(tree, "c2", models.Comment{ID: "c6"})

	c2, _ := Find(tree, "c2")
	assert.Len(t, c2.Replies, 1, "original tree must be unchanged")
}

func TestMarkDeletedCascadesToAllDescendants(t *testing.T) {
	tree := sampleTree()
	deletedAt := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	// c1 has 3 descendants: exactly 4 nodes end up tombstoned.
	updated := MarkDeleted(tree, "c1", deletedAt)

	assert.Equal(t, 4, CountDeleted(updated))
	assert.Equal(t, 5, Count(updated), "no node may be physically removed")

	for _, id := range []string{"c1", "c2", "c3", "c4"} {
		c, ok := Find(updated, id)
		require.True(t, ok)
		assert.True(t, c.Deleted, "%s should be tombstoned", id)
		require.NotNil(t, c.DeletedAt)
		assert.Equal(t, deletedAt, *c.DeletedAt, "%s should share the deletion timestamp", id)
	}

	c5, _ := Find(updated, "c5")
	assert.False(t, c5.Deleted)
}

func TestMarkDeletedLeafOnly(t *testing.T) {
	tree := sampleTree()
	updated := MarkDeleted(tree, "c4", time.Now().UTC())

	assert.Equal(t, 1, CountDeleted(updated))
	c2, _ := Find(updated, "c2")
	assert.False(t, c2.Deleted)
}

func TestMarkDeletedMissingTargetIsNoOp(t *testing.T) {
	tree := sampleTree()
	updated := MarkDeleted(tree, "ghost", time.Now().UTC())

	assert.Equal(t, tree, updated)
	assert.Equal(t, 0, CountDeleted(updated))
}

func TestVisibleViewHidesDeletedSubtrees(t *testing.T) {
	tree := sampleTree()
	tree = MarkDeleted(tree, "c1", time.Now().UTC())

	visible := VisibleView(tree)

	require.Len(t, visible, 1)
	assert.Equal(t, "c5", visible[0].ID)

	// Stored tree still holds every tombstone.
	assert.Equal(t, 5, Count(tree))
}

func TestVisibleViewFiltersAtEveryDepth(t *testing.T) {
	tree := sampleTree()
	tree = MarkDeleted(tree, "c3", time.Now().UTC())

	visible := VisibleView(tree)

	c2, ok := Find(visible, "c2")
	require.True(t, ok)
	assert.Empty(t, c2.Replies)

	_, ok = Find(visible, "c3")
	assert.False(t, ok)
}

func TestVisibleViewIsPureProjection(t *testing.T) {
	tree := sampleTree()
	tree = MarkDeleted(tree, "c2", time.Now().UTC())

	_ = VisibleView(tree)

	// The stored tree keeps the tombstoned subtree intact.
	c3, ok := Find(tree, "c3")
	require.True(t, ok)
	assert.True(t, c3.Deleted)
}

func TestNormalizeDropsStaleOptionalFields(t *testing.T) {
	deletedAt := time.Now().UTC()
	tree := []models.Comment{
		{
			ID:        "c1",
			DeletedAt: &deletedAt, // stale pointer on a live comment
			Replies:   []models.Comment{},
		},
		{
			ID:        "c2",
			Deleted:   true,
			DeletedAt: &deletedAt,
		},
	}

	normalized := Normalize(tree)

	assert.Nil(t, normalized[0].DeletedAt)
	assert.Nil(t, normalized[0].Replies)
	require.NotNil(t, normalized[1].DeletedAt)
	assert.Equal(t, deletedAt, *normalized[1].DeletedAt)
}

func TestNormalizeEmptyTreeIsNil(t *testing.T) {
	assert.Nil(t, Normalize(nil))
	assert.Nil(t, Normalize([]models.Comment{}))
}

func TestDeleteThreadScenario(t *testing.T) {
	// c1 -> c2 -> c3: deleting c1 empties the visible thread entirely.
	base := time.Now().UTC()
	tree := []models.Comment{
		{
			ID: "c1", CreatedAt: base,
			Replies: []models.Comment{
				{
					ID: "c2", ParentID: "c1", CreatedAt: base.Add(time.Minute),
					Replies: []models.Comment{
						{ID: "c3", ParentID: "c2", CreatedAt: base.Add(2 * time.Minute)},
					},
				},
			},
		},
	}

	tree = MarkDeleted(tree, "c1", time.Now().UTC())
	assert.Empty(t, VisibleView(tree))
}
