package dto

import "time"

type MediaUploadResponse struct {
	ID          int64  `json:"id"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

type MediaFetchResponse struct {
	URL         string     `json:"url"`
	ContentType string     `json:"content_type"`
	Views       int        `json:"views"`
	MaxViews    *int       `json:"max_views,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}
