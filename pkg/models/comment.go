package models

import (
	"encoding/json"
	"time"
)

// CommentRecord is a single scraped comment, normalized across platforms.
// Raw keeps the untouched provider item so downstream consumers can reach
// fields the normalized shape does not carry.
type CommentRecord struct {
	ID              string          `json:"id"`
	Platform        Platform        `json:"platform"`
	ContentID       string          `json:"content_id"`
	ParentCommentID string          `json:"parent_comment_id,omitempty"`
	Text            string          `json:"text"`
	AuthorID        string          `json:"author_id,omitempty"`
	AuthorName      string          `json:"author_name,omitempty"`
	AuthorVerified  bool            `json:"author_verified,omitempty"`
	LikeCount       int             `json:"like_count"`
	ReplyCount      int             `json:"reply_count"`
	Language        string          `json:"language,omitempty"`
	PublishedAt     time.Time       `json:"published_at"`
	ScrapedAt       time.Time       `json:"scraped_at"`
	IsDeleted       bool            `json:"is_deleted,omitempty"`
	IsSpam          bool            `json:"is_spam,omitempty"`
	Raw             json.RawMessage `json:"raw,omitempty"`
}

// IsReply reports whether the comment is a reply to another comment rather
// than a top-level comment on the content.
func (c CommentRecord) IsReply() bool {
	return c.ParentCommentID != ""
}
