package model

import "time"

type MediaObject struct {
	ID          int64     `json:"id"`
	UploaderID  int64     `json:"uploader_id"`
	ObjectKey   string    `json:"-"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

// AccessGrant bounds how many times and until when a user may view a
// private media object. Views is the audit counter of successful views
// and never decreases.
type AccessGrant struct {
	MediaID   int64      `json:"media_id"`
	UserID    int64      `json:"user_id"`
	Views     int        `json:"views"`
	MaxViews  *int       `json:"max_views,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	GrantedAt time.Time  `json:"granted_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
