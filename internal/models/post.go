package models

import "time"

// Post is a denormalized feed document. Comments are embedded as a recursive
// tree rather than stored in their own collection, so comment mutations are
// whole-document rewrites of the comments field.
type Post struct {
	ID        string    `json:"id" bson:"_id"`
	AuthorID  string    `json:"author_id" bson:"author_id"`
	Body      string    `json:"body" bson:"body"`
	ImageURLs []string  `json:"image_urls,omitempty" bson:"image_urls,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`

	ReactionCount int      `json:"reaction_count" bson:"reaction_count"`
	ReactorIDs    []string `json:"reactor_ids,omitempty" bson:"reactor_ids,omitempty"`
	ShareCount    int      `json:"share_count" bson:"share_count"`

	Comments []Comment `json:"comments,omitempty" bson:"comments,omitempty"`

	Category string `json:"category" bson:"category"`
	Pinned   bool   `json:"pinned,omitempty" bson:"pinned,omitempty"`

	// Tombstone fields. Deleted posts stay in the collection and are
	// filtered out of every read path.
	Deleted   bool       `json:"deleted,omitempty" bson:"deleted,omitempty"`
	DeletedBy string     `json:"deleted_by,omitempty" bson:"deleted_by,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" bson:"deleted_at,omitempty"`
}

// Comment is a recursively nested comment/reply. Author display fields are
// snapshotted at creation time, not live-joined against the users collection.
type Comment struct {
	ID        string    `json:"id" bson:"id"`
	AuthorID  string    `json:"author_id" bson:"author_id"`
	Username  string    `json:"username" bson:"username"`
	AvatarURL string    `json:"avatar_url,omitempty" bson:"avatar_url,omitempty"`
	Body      string    `json:"body" bson:"body"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`

	// ParentID backlinks to the enclosing comment; empty for top-level
	// comments. Position in the tree is authoritative, this is a hint.
	ParentID string `json:"parent_id,omitempty" bson:"parent_id,omitempty"`

	Deleted   bool       `json:"deleted,omitempty" bson:"deleted,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" bson:"deleted_at,omitempty"`

	Replies []Comment `json:"replies,omitempty" bson:"replies,omitempty"`
}
