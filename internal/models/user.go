package models

import "time"

// UserProfile is the users-collection document. Follower and following edges
// are arrays with set semantics: membership test plus idempotent add/remove,
// no duplicates, no order guarantee. The two sides are always written as a
// pair - A follows B implies B.Followers contains A and A.Following contains B.
type UserProfile struct {
	ID        string `json:"id" bson:"_id"`
	Username  string `json:"username" bson:"username"`
	AvatarURL string `json:"avatar_url,omitempty" bson:"avatar_url,omitempty"`
	Bio       string `json:"bio,omitempty" bson:"bio,omitempty"`
	Location  string `json:"location,omitempty" bson:"location,omitempty"`

	Followers []string `json:"followers,omitempty" bson:"followers,omitempty"`
	Following []string `json:"following,omitempty" bson:"following,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`

	// Credential fields live on the same document but never leave the server.
	Email        string `json:"-" bson:"email,omitempty"`
	PasswordHash string `json:"-" bson:"password_hash,omitempty"`
}

// PublicProfile strips credential fields for API responses.
func (u *UserProfile) PublicProfile() UserProfile {
	p := *u
	p.Email = ""
	p.PasswordHash = ""
	return p
}
