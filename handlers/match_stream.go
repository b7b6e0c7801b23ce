// handlers/match_stream.go
package handlers

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"three-card-game/game"
	"three-card-game/middleware"
	"three-card-game/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	defaultStreamInterval = 2 * time.Second
	defaultStreamLifetime = 5 * time.Minute
)

// streamState remembers what the client last saw so only changes are sent.
type streamState struct {
	idle      bool
	matchID   string
	state     game.State
	updatedAt time.Time
	submitted int
}

func (s *streamState) changed(snap game.Snapshot) bool {
	if !s.idle && s.matchID == snap.ID && s.state == snap.State &&
		s.updatedAt.Equal(snap.UpdatedAt) && s.submitted == len(snap.Submitted) {
		return false
	}
	*s = streamState{matchID: snap.ID, state: snap.State, updatedAt: snap.UpdatedAt, submitted: len(snap.Submitted)}
	return true
}

func writeEvent(w *bufio.Writer, event string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	return w.Flush()
}

// streamMatch pushes the caller's current match over SSE whenever it changes.
// The stream closes after lifetime; EventSource clients reconnect on their own.
func streamMatch(sessions *services.SessionService, interval, lifetime time.Duration, logger *zap.Logger) fiber.Handler {
	if interval <= 0 {
		interval = defaultStreamInterval
	}
	if lifetime <= 0 {
		lifetime = defaultStreamLifetime
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)

		c.Set("Content-Type", "text/event-stream")
		c.Set("Cache-Control", "no-cache")
		c.Set("Connection", "keep-alive")
		c.Set("X-Accel-Buffering", "no") // nginx

		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			deadline := time.NewTimer(lifetime)
			defer deadline.Stop()

			var seen streamState
			push := func() error {
				snap, err := sessions.MatchFor(userID)
				if errors.Is(err, services.ErrNotInMatch) {
					if seen.idle {
						return nil
					}
					seen = streamState{idle: true}
					return writeEvent(w, "idle", fiber.Map{"user_id": userID})
				}
				if err != nil {
					return err
				}
				if !seen.changed(snap) {
					return nil
				}
				return writeEvent(w, "match", snap)
			}

			if err := push(); err != nil {
				return
			}
			for {
				select {
				case <-ticker.C:
					if err := push(); err != nil {
						// client went away
						logger.Debug("📡 [STREAM] closed", zap.String("user_id", userID), zap.Error(err))
						return
					}
				case <-deadline.C:
					return
				}
			}
		})
		return nil
	}
}
