package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"three-card-game/game"
	"three-card-game/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultLeaderboardSize = 5
	maxPageSize            = 100
)

var ErrPlayerNotFound = errors.New("player not found")

// Profile is the display identity of a player at the time a match finished.
type Profile struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// ProfileLookup resolves display names for the stats pipeline.
type ProfileLookup interface {
	Profile(ctx context.Context, userID string) (Profile, error)
}

// LeaderboardEntry is one ranked row of the leaderboard
type LeaderboardEntry struct {
	Rank           int     `json:"rank"`
	ExternalUserID string  `json:"external_user_id"`
	Username       string  `json:"username"`
	AvatarURL      string  `json:"avatar_url,omitempty"`
	MatchesPlayed  int64   `json:"matches_played"`
	MatchesWon     int64   `json:"matches_won"`
	MatchesDrawn   int64   `json:"matches_drawn"`
	WinRate        float64 `json:"win_rate"`
}

type StatsService struct {
	DB     *gorm.DB
	logger *zap.Logger
}

func NewStatsService(db *gorm.DB, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{DB: db, logger: logger}
}

// RecordMatch stores the match record and bumps both players' counters in one
// transaction. A match id that is already recorded is skipped.
func (s *StatsService) RecordMatch(ctx context.Context, ev MatchFinalized, profiles map[string]Profile) error {
	history, err := json.Marshal(ev.History)
	if err != nil {
		return fmt.Errorf("encode history for %s: %w", ev.MatchID, err)
	}

	recorded := false
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.MatchRecord{}).Where("id = ?", ev.MatchID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return nil
		}

		record := models.MatchRecord{
			ID:              ev.MatchID,
			ChallengerID:    ev.ChallengerID,
			ChallengedID:    ev.ChallengedID,
			ChallengerScore: ev.ChallengerScore,
			ChallengedScore: ev.ChallengedScore,
			Draw:            ev.Draw(),
			Rounds:          len(ev.History),
			History:         string(history),
			CompletedAt:     ev.CompletedAt,
		}
		if !ev.Draw() {
			winner, loser := ev.WinnerID, ev.LoserID()
			record.WinnerID = &winner
			record.LoserID = &loser
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		for _, id := range ev.Participants() {
			if err := s.bumpPlayer(tx, id, profiles[id], ev); err != nil {
				return fmt.Errorf("update player %s: %w", id, err)
			}
		}
		recorded = true
		return nil
	})
	if err != nil {
		return err
	}

	if recorded {
		s.logger.Info("📊 [STATS] match recorded",
			zap.String("match_id", ev.MatchID),
			zap.String("winner_id", ev.WinnerID),
			zap.Int("challenger_score", ev.ChallengerScore),
			zap.Int("challenged_score", ev.ChallengedScore))
	} else {
		s.logger.Warn("⚠️ [STATS] match already recorded, skipping", zap.String("match_id", ev.MatchID))
	}
	return nil
}

func (s *StatsService) bumpPlayer(tx *gorm.DB, userID string, profile Profile, ev MatchFinalized) error {
	var p models.Player
	res := tx.Where("external_user_id = ?", userID).Limit(1).Find(&p)
	if res.Error != nil {
		return res.Error
	}
	isNew := res.RowsAffected == 0
	if isNew {
		p = models.Player{
			ID:             uuid.NewString(),
			ExternalUserID: userID,
			Username:       userID,
		}
	}

	if profile.Username != "" {
		p.Username = profile.Username
	}
	if profile.AvatarURL != "" {
		p.AvatarURL = profile.AvatarURL
	}

	p.MatchesPlayed++
	switch {
	case ev.Draw():
		p.MatchesDrawn++
	case ev.WinnerID == userID:
		p.MatchesWon++
	}
	completed := ev.CompletedAt
	p.LastPlayedAt = &completed

	if isNew {
		return tx.Create(&p).Error
	}
	return tx.Save(&p).Error
}

// Leaderboard returns players with at least one match, best first: wins, then
// win rate, then id for a stable order.
func (s *StatsService) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit < 1 || limit > maxPageSize {
		limit = DefaultLeaderboardSize
	}

	var players []models.Player
	err := s.DB.WithContext(ctx).
		Where("matches_played > 0").
		Order("matches_won DESC").
		Order("CAST(matches_won AS REAL) / matches_played DESC").
		Order("external_user_id ASC").
		Limit(limit).
		Find(&players).Error
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}

	entries := make([]LeaderboardEntry, 0, len(players))
	for i, p := range players {
		entries = append(entries, LeaderboardEntry{
			Rank:           i + 1,
			ExternalUserID: p.ExternalUserID,
			Username:       p.Username,
			AvatarURL:      p.AvatarURL,
			MatchesPlayed:  p.MatchesPlayed,
			MatchesWon:     p.MatchesWon,
			MatchesDrawn:   p.MatchesDrawn,
			WinRate:        p.WinRate(),
		})
	}
	return entries, nil
}

func (s *StatsService) PlayerStats(ctx context.Context, userID string) (*models.Player, error) {
	var p models.Player
	err := s.DB.WithContext(ctx).Where("external_user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load player %s: %w", userID, err)
	}
	return &p, nil
}

// RecentMatches returns the player's most recent completed matches, newest first.
func (s *StatsService) RecentMatches(ctx context.Context, userID string, limit int) ([]models.MatchRecord, error) {
	if limit < 1 || limit > maxPageSize {
		limit = 20
	}
	var matches []models.MatchRecord
	err := s.DB.WithContext(ctx).
		Where("challenger_id = ? OR challenged_id = ?", userID, userID).
		Order("completed_at DESC").
		Limit(limit).
		Find(&matches).Error
	if err != nil {
		return nil, fmt.Errorf("load matches for %s: %w", userID, err)
	}
	return matches, nil
}

// DecodeHistory unpacks the stored round history of a match record.
func DecodeHistory(record models.MatchRecord) ([]game.Round, error) {
	var rounds []game.Round
	if record.History == "" {
		return rounds, nil
	}
	if err := json.Unmarshal([]byte(record.History), &rounds); err != nil {
		return nil, fmt.Errorf("decode history for %s: %w", record.ID, err)
	}
	return rounds, nil
}
