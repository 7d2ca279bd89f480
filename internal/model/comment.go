package model

import "time"

// Comment is append-only discussion on a milestone. No edit or delete.
type Comment struct {
	ID          int       `json:"id"`
	MilestoneID int       `json:"milestone_id"`
	AuthorID    int       `json:"author_id"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"created_at"`
}
