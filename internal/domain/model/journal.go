package model

import "time"

type JournalEntry struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type BottleOpen struct {
	ID        int64     `json:"id"`
	BottleID  int64     `json:"bottle_id"`
	UserID    int64     `json:"user_id"`
	JournalID int64     `json:"journal_id"`
	OpenedAt  time.Time `json:"opened_at"`
}
