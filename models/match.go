package models

import "time"

// MatchRecord is the archived result of one completed match. ID is the live match id.
type MatchRecord struct {
	ID           string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ChallengerID string `gorm:"index;not null" json:"challenger_id"`
	ChallengedID string `gorm:"index;not null" json:"challenged_id"`

	// Outcome
	ChallengerScore int     `json:"challenger_score"`
	ChallengedScore int     `json:"challenged_score"`
	WinnerID        *string `gorm:"index" json:"winner_id,omitempty"` // nil = draw
	LoserID         *string `gorm:"index" json:"loser_id,omitempty"`
	Draw            bool    `json:"draw" gorm:"default:false"`
	Rounds          int     `json:"rounds"`

	// Round-by-round history, JSON encoded
	History string `json:"history" gorm:"type:text"`

	CompletedAt time.Time `json:"completed_at" gorm:"index;not null"`

	Timestamps
}

func (MatchRecord) TableName() string {
	return "match_history"
}
