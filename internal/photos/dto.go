package photos

import (
	"time"

	"github.com/google/uuid"
)

// PhotoDTO is the card-shaped view of a photo returned to clients. URL fields
// are short-lived signed read URLs resolved at query time, never stored.
type PhotoDTO struct {
	ID               uuid.UUID `json:"id"`
	URL              string    `json:"url"`
	OwnerID          string    `json:"owner_id"`
	OwnerDisplayName string    `json:"owner_display_name"`
	OwnerAvatarURL   string    `json:"owner_avatar_url,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	Likes            []string  `json:"likes"`
	LikeCount        int       `json:"like_count"`
}

// ListResult is one page of the feed, newest first.
type ListResult struct {
	Items      []PhotoDTO `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
	HasMore    bool       `json:"has_more"`
}

// CreateInput registers an uploaded blob as a photo.
type CreateInput struct {
	ImageKey    string
	DisplayName string
	AvatarKey   string
}

// ToggleLikeResult reports the caller's like state after a toggle.
type ToggleLikeResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}
