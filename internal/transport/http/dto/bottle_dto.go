package dto

import "time"

type ContentBlockPayload struct {
	Kind    string `json:"kind"`
	Text    string `json:"text,omitempty"`
	MediaID int64  `json:"media_id,omitempty"`
}

type BottleCreateRequest struct {
	Name        string                `json:"name"`
	RecipientID *int64                `json:"recipient_id,omitempty"`
	Content     []ContentBlockPayload `json:"content"`
	MoodText    *string               `json:"mood_text,omitempty"`
}

type BottleResponse struct {
	ID          int64                 `json:"id"`
	Name        string                `json:"name"`
	RecipientID *int64                `json:"recipient_id,omitempty"`
	Content     []ContentBlockPayload `json:"content"`
	MoodText    *string               `json:"mood_text,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

type BottleListResponse struct {
	Items []BottleResponse `json:"items"`
}

type BottleOpenRequest struct {
	Text string `json:"text"`
}

type BottleOpenResponse struct {
	Journal JournalEntryResponse `json:"journal"`
	Bottle  BottleResponse       `json:"bottle"`
}
