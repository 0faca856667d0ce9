package model

import (
	"time"

	"github.com/Olof-Tingskull/lovisa-bottles/internal/domain/enums"
)

// ContentBlock is one ordered element of a bottle's body. Text blocks
// carry Text; media blocks reference a MediaObject by id.
type ContentBlock struct {
	Kind    enums.BlockKind `json:"kind"`
	Text    string          `json:"text,omitempty"`
	MediaID int64           `json:"media_id,omitempty"`
}

type Bottle struct {
	ID          int64          `json:"id"`
	CreatorID   int64          `json:"creator_id"`
	RecipientID *int64         `json:"recipient_id,omitempty"`
	Name        string         `json:"name"`
	Content     []ContentBlock `json:"content"`
	MoodText    *string        `json:"mood_text,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
