package dto

import "time"

type JournalSubmitRequest struct {
	Text string `json:"text"`
}

type JournalEntryResponse struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type JournalSubmitResponse struct {
	Outcome string               `json:"outcome"`
	Journal JournalEntryResponse `json:"journal"`
	Bottle  *BottleResponse      `json:"bottle,omitempty"`
	Message string               `json:"message,omitempty"`
}

type JournalListResponse struct {
	Items []JournalEntryResponse `json:"items"`
}

type JournalDeleteResponse struct {
	OK bool `json:"ok"`
}
