package dto

import "time"

type AccessGrantRequest struct {
	MediaID   int64      `json:"media_id"`
	UserID    int64      `json:"user_id"`
	MaxViews  *int       `json:"max_views,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type AccessGrantResponse struct {
	MediaID   int64      `json:"media_id"`
	UserID    int64      `json:"user_id"`
	Views     int        `json:"views"`
	MaxViews  *int       `json:"max_views,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	GrantedAt time.Time  `json:"granted_at"`
}

type AccessRevokeRequest struct {
	MediaID int64 `json:"media_id"`
	UserID  int64 `json:"user_id"`
}

type AccessRevokeResponse struct {
	OK bool `json:"ok"`
}

type AccessListResponse struct {
	Items []AccessGrantResponse `json:"items"`
}
