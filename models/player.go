package models

import (
	"time"

	"gorm.io/gorm"
)

// Player holds lifetime match counters per user (denormalized for the leaderboard)
type Player struct {
	ID             string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"` // chat platform user id
	Username       string `json:"username"`
	AvatarURL      string `json:"avatar_url,omitempty" gorm:"type:text"`

	// Activity counters
	MatchesPlayed int64 `json:"matches_played" gorm:"default:0;index"`
	MatchesWon    int64 `json:"matches_won" gorm:"default:0;index"`
	MatchesDrawn  int64 `json:"matches_drawn" gorm:"default:0"`

	LastPlayedAt *time.Time `json:"last_played_at,omitempty"`

	Timestamps
}

// MatchesLost is derived, never stored
func (p Player) MatchesLost() int64 {
	return p.MatchesPlayed - p.MatchesWon - p.MatchesDrawn
}

// WinRate is wins over matches played, 0 for a player with no matches
func (p Player) WinRate() float64 {
	if p.MatchesPlayed == 0 {
		return 0
	}
	return float64(p.MatchesWon) / float64(p.MatchesPlayed)
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
