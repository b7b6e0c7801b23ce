// handlers/progression_routes.go
package handlers

import (
	"time"

	"three-card-game/game"
	"three-card-game/models"
	"three-card-game/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type matchHistoryView struct {
	ID              string       `json:"id"`
	ChallengerID    string       `json:"challenger_id"`
	ChallengedID    string       `json:"challenged_id"`
	ChallengerScore int          `json:"challenger_score"`
	ChallengedScore int          `json:"challenged_score"`
	WinnerID        *string      `json:"winner_id,omitempty"`
	Draw            bool         `json:"draw"`
	Rounds          []game.Round `json:"rounds"`
	CompletedAt     time.Time    `json:"completed_at"`
}

type playerStatsView struct {
	*models.Player
	MatchesLost int64   `json:"matches_lost"`
	WinRate     float64 `json:"win_rate"`
}

// 🔓 Read-only stats: gateway auth only, no user context needed
func SetupStatsRoutes(app fiber.Router, stats *services.StatsService, leaderboardSize int, logger *zap.Logger) {
	if leaderboardSize < 1 {
		leaderboardSize = services.DefaultLeaderboardSize
	}

	app.Get("/leaderboard", func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", leaderboardSize)
		entries, err := stats.Leaderboard(c.UserContext(), limit)
		if err != nil {
			logger.Error("❌ [STATS] leaderboard query failed", zap.Error(err))
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{
			"entries": entries,
			"count":   len(entries),
		})
	})

	app.Get("/players/:id/stats", func(c *fiber.Ctx) error {
		player, err := stats.PlayerStats(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(playerStatsView{
			Player:      player,
			MatchesLost: player.MatchesLost(),
			WinRate:     player.WinRate(),
		})
	})

	app.Get("/players/:id/matches", func(c *fiber.Ctx) error {
		records, err := stats.RecentMatches(c.UserContext(), c.Params("id"), c.QueryInt("limit", 20))
		if err != nil {
			logger.Error("❌ [STATS] recent matches query failed", zap.String("player_id", c.Params("id")), zap.Error(err))
			return writeError(c, err)
		}

		views := make([]matchHistoryView, 0, len(records))
		for _, r := range records {
			rounds, err := services.DecodeHistory(r)
			if err != nil {
				logger.Warn("⚠️ [STATS] unreadable match history", zap.String("match_id", r.ID), zap.Error(err))
			}
			views = append(views, matchHistoryView{
				ID:              r.ID,
				ChallengerID:    r.ChallengerID,
				ChallengedID:    r.ChallengedID,
				ChallengerScore: r.ChallengerScore,
				ChallengedScore: r.ChallengedScore,
				WinnerID:        r.WinnerID,
				Draw:            r.Draw,
				Rounds:          rounds,
				CompletedAt:     r.CompletedAt,
			})
		}
		return c.JSON(fiber.Map{
			"matches": views,
			"count":   len(views),
		})
	})
}
