package models

import "time"

// Vote values for answer ratings.
const (
	VoteUp   = "up"
	VoteDown = "down"
)

// Rating is a user's thumbs up/down on one result. One rating per
// user per result; re-rating overwrites the vote.
type Rating struct {
	ID        string    `json:"id" db:"id"`
	ResultID  string    `json:"result_id" db:"result_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Vote      string    `json:"vote" db:"vote"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Report is a user's free-text complaint about one result.
type Report struct {
	ID        string    `json:"id" db:"id"`
	ResultID  string    `json:"result_id" db:"result_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Report    string    `json:"report" db:"report"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
