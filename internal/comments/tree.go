package comments

import (
	"time"

	"github.com/driftboard/backend/internal/models"
)

// This package holds the pure transformations over a post's embedded comment
// tree. Nothing here mutates its input: every function returns a new slice
// sharing untouched subtrees with the original, so callers can treat trees as
// values and the store layer always writes a complete, consistent tree.

// InsertReply returns a tree with reply appended to the Replies of the
// comment whose ID equals targetID, searching depth-first at any nesting
// level. Only the path down to the target is copied; siblings are shared. If
// targetID is not present anywhere the tree is returned unchanged - a silent
// no-op rather than an error.
func InsertReply(tree []models.Comment, targetID string, reply models.Comment) []models.Comment {
	updated, _ := insertReply(tree, targetID, reply)
	return updated
}

func insertReply(tree []models.Comment, targetID string, reply models.Comment) ([]models.Comment, bool) {
	for i := range tree {
		if tree[i].ID == targetID {
			out := copyLevel(tree)
			node := tree[i]
			node.Replies = append(append([]models.Comment{}, tree[i].Replies...), reply)
			out[i] = node
			return out, true
		}

		if updated, ok := insertReply(tree[i].Replies, targetID, reply); ok {
			out := copyLevel(tree)
			node := tree[i]
			node.Replies = updated
			out[i] = node
			return out, true
		}
	}
	return tree, false
}

// MarkDeleted returns a tree in which the comment with targetID and every
// one of its descendants carry the deleted flag and a shared deletion
// timestamp. Nodes are tombstoned, never unlinked: replies reference their
// parents by tree position, so physically removing a node would orphan them.
func MarkDeleted(tree []models.Comment, targetID string, deletedAt time.Time) []models.Comment {
	updated, _ := markDeleted(tree, targetID, deletedAt)
	return updated
}

func markDeleted(tree []models.Comment, targetID string, deletedAt time.Time) ([]models.Comment, bool) {
	for i := range tree {
		if tree[i].ID == targetID {
			out := copyLevel(tree)
			out[i] = tombstone(tree[i], deletedAt)
			return out, true
		}

		if updated, ok := markDeleted(tree[i].Replies, targetID, deletedAt); ok {
			out := copyLevel(tree)
			node := tree[i]
			node.Replies = updated
			out[i] = node
			return out, true
		}
	}
	return tree, false
}

// tombstone marks a comment and all of its descendants deleted with the same
// timestamp.
func tombstone(c models.Comment, deletedAt time.Time) models.Comment {
	at := deletedAt
	c.Deleted = true
	c.DeletedAt = &at

	if len(c.Replies) > 0 {
		replies := make([]models.Comment, len(c.Replies))
		for i, r := range c.Replies {
			replies[i] = tombstone(r, deletedAt)
		}
		c.Replies = replies
	}
	return c
}

// VisibleView projects the tree down to non-deleted nodes at every depth.
// It is a pure read-time projection and never feeds back into storage.
func VisibleView(tree []models.Comment) []models.Comment {
	var out []models.Comment
	for _, c := range tree {
		if c.Deleted {
			continue
		}
		c.Replies = VisibleView(c.Replies)
		out = append(out, c)
	}
	return out
}

// Find returns the comment with the given ID at any depth, or false.
func Find(tree []models.Comment, id string) (models.Comment, bool) {
	for _, c := range tree {
		if c.ID == id {
			return c, true
		}
		if found, ok := Find(c.Replies, id); ok {
			return found, true
		}
	}
	return models.Comment{}, false
}

// Count returns the total number of nodes in the tree, deleted included.
func Count(tree []models.Comment) int {
	n := 0
	for _, c := range tree {
		n += 1 + Count(c.Replies)
	}
	return n
}

// CountDeleted returns how many nodes carry the deleted flag.
func CountDeleted(tree []models.Comment) int {
	n := 0
	for _, c := range tree {
		if c.Deleted {
			n++
		}
		n += CountDeleted(c.Replies)
	}
	return n
}

// Normalize rewrites the tree into the backend-safe shape required before
// any write: optional fields either hold a concrete value or are omitted
// entirely, since the store rejects explicit null sentinels in nested
// structures. Empty reply slices become nil so they serialize as absent, and
// a DeletedAt pointer is only kept on nodes that are actually deleted.
func Normalize(tree []models.Comment) []models.Comment {
	if len(tree) == 0 {
		return nil
	}
	out := make([]models.Comment, len(tree))
	for i, c := range tree {
		if !c.Deleted {
			c.DeletedAt = nil
		}
		c.Replies = Normalize(c.Replies)
		out[i] = c
	}
	return out
}

func copyLevel(tree []models.Comment) []models.Comment {
	out := make([]models.Comment, len(tree))
	copy(out, tree)
	return out
}
