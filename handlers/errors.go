// handlers/errors.go
package handlers

import (
	"errors"

	"three-card-game/game"
	"three-card-game/services"

	"github.com/gofiber/fiber/v2"
)

type apiError struct {
	err    error
	status int
	code   string
}

var apiErrors = []apiError{
	{game.ErrInvalidParticipants, fiber.StatusBadRequest, "invalid_participants"},
	{game.ErrInvalidCard, fiber.StatusBadRequest, "invalid_card"},
	{services.ErrUnauthorized, fiber.StatusForbidden, "unauthorized"},
	{game.ErrNotChallenged, fiber.StatusForbidden, "not_challenged"},
	{game.ErrNotParticipant, fiber.StatusForbidden, "not_participant"},
	{services.ErrNotInMatch, fiber.StatusNotFound, "not_in_match"},
	{services.ErrMatchNotFound, fiber.StatusNotFound, "match_not_found"},
	{services.ErrPlayerNotFound, fiber.StatusNotFound, "player_not_found"},
	{services.ErrAlreadyInMatch, fiber.StatusConflict, "already_in_match"},
	{game.ErrWrongState, fiber.StatusConflict, "wrong_state"},
	{game.ErrAlreadySubmitted, fiber.StatusConflict, "already_submitted"},
}

// classify maps a domain error to its HTTP status and stable error code.
func classify(err error) (int, string) {
	for _, e := range apiErrors {
		if errors.Is(err, e.err) {
			return e.status, e.code
		}
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, "request_error"
	}
	return fiber.StatusInternalServerError, "internal"
}

func writeError(c *fiber.Ctx, err error) error {
	status, code := classify(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		msg = "internal server error"
	}
	return c.Status(status).JSON(fiber.Map{
		"error":   code,
		"message": msg,
	})
}

// ErrorHandler renders errors returned from routes in the same shape as writeError.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return writeError(c, err)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":   "bad_request",
		"message": msg,
	})
}
