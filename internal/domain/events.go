package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event subjects
const (
	// SubjectModeration carries review and comment changes
	SubjectModeration = "moderation.events"

	// SubjectNewsletter carries subscription changes
	SubjectNewsletter = "newsletter.events"
)

// Moderation event types
const (
	EventReviewSubmitted      = "review.submitted"
	EventReviewStatusChanged  = "review.status_changed"
	EventReviewDeleted        = "review.deleted"
	EventCommentSubmitted     = "comment.submitted"
	EventCommentStatusChanged = "comment.status_changed"
	EventCommentDeleted       = "comment.deleted"
)

// ParentKindBlog marks events whose parent is a blog rather than a listing
const ParentKindBlog = "blog"

// ModerationEvent describes a change to a review or comment
type ModerationEvent struct {
	Type       string           `json:"type"`
	Timestamp  time.Time        `json:"timestamp"`
	ItemID     uuid.UUID        `json:"item_id"`
	ParentKind string           `json:"parent_kind"`
	ParentID   uuid.UUID        `json:"parent_id"`
	From       ModerationStatus `json:"from,omitempty"`
	To         ModerationStatus `json:"to,omitempty"`
}

// Newsletter event types
const (
	EventSubscribed   = "newsletter.subscribed"
	EventResubscribed = "newsletter.resubscribed"
	EventUnsubscribed = "newsletter.unsubscribed"
)

// NewsletterEvent describes a subscription change
type NewsletterEvent struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Email     string    `json:"email"`
	Source    string    `json:"source,omitempty"`
}
