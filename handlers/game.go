// handlers/game.go
package handlers

import (
	"time"

	"three-card-game/game"
	"three-card-game/middleware"
	"three-card-game/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type challengeRequest struct {
	OpponentID string `json:"opponent_id"`
}

type cardRequest struct {
	Card string `json:"card"`
}

// StreamConfig tunes GET /matches/stream. Zero values use the defaults.
type StreamConfig struct {
	Interval time.Duration
	Lifetime time.Duration
}

func SetupMatchRoutes(app fiber.Router, sessions *services.SessionService, stream StreamConfig, logger *zap.Logger) {
	userCtx := middleware.UserContextMiddleware(logger)

	// 🔐 Challenge lifecycle; the acting user comes from X-User-ID
	challenges := app.Group("/challenges", userCtx)

	challenges.Post("/", func(c *fiber.Ctx) error {
		var req challengeRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		snap, err := sessions.Challenge(middleware.UserID(c), req.OpponentID)
		if err != nil {
			return writeError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(snap)
	})

	challenges.Post("/accept", func(c *fiber.Ctx) error {
		snap, err := sessions.Accept(middleware.UserID(c))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(snap)
	})

	challenges.Post("/deny", func(c *fiber.Ctx) error {
		snap, err := sessions.Deny(middleware.UserID(c))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(snap)
	})

	challenges.Post("/withdraw", func(c *fiber.Ctx) error {
		snap, err := sessions.Withdraw(middleware.UserID(c))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(snap)
	})

	// 🃏 Gameplay
	matches := app.Group("/matches", userCtx)

	matches.Post("/cards", func(c *fiber.Ctx) error {
		var req cardRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		card, err := game.ParseCard(req.Card)
		if err != nil {
			return writeError(c, err)
		}
		res, err := sessions.SubmitCard(middleware.UserID(c), card)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(res)
	})

	matches.Get("/stream", streamMatch(sessions, stream.Interval, stream.Lifetime, logger))

	matches.Get("/current", func(c *fiber.Ctx) error {
		snap, err := sessions.MatchFor(middleware.UserID(c))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(snap)
	})

	matches.Get("/:id", func(c *fiber.Ctx) error {
		snap, err := sessions.Lookup(c.Params("id"))
		if err != nil {
			return writeError(c, err)
		}
		if snap.Opponent(middleware.UserID(c)) == "" {
			return writeError(c, game.ErrNotParticipant)
		}
		return c.JSON(snap)
	})
}
