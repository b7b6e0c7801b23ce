package services

import (
	"time"

	"three-card-game/game"
)

// MatchFinalized is emitted once per completed match for the stats pipeline.
// WinnerID is empty on a draw.
type MatchFinalized struct {
	MatchID         string       `json:"match_id"`
	ChallengerID    string       `json:"challenger_id"`
	ChallengedID    string       `json:"challenged_id"`
	ChallengerScore int          `json:"challenger_score"`
	ChallengedScore int          `json:"challenged_score"`
	WinnerID        string       `json:"winner_id,omitempty"`
	History         []game.Round `json:"history"`
	CompletedAt     time.Time    `json:"completed_at"`
}

// Draw reports whether the match ended level.
func (e MatchFinalized) Draw() bool { return e.WinnerID == "" }

// LoserID returns the participant who did not win, or "" on a draw.
func (e MatchFinalized) LoserID() string {
	switch e.WinnerID {
	case e.ChallengerID:
		return e.ChallengedID
	case e.ChallengedID:
		return e.ChallengerID
	}
	return ""
}

// Participants returns both player ids, challenger first.
func (e MatchFinalized) Participants() []string {
	return []string{e.ChallengerID, e.ChallengedID}
}

// FinalizeSink receives completed matches. Publish must not block.
type FinalizeSink interface {
	Publish(ev MatchFinalized)
}

// ExpiryListener is told about challenges that aged out.
type ExpiryListener interface {
	ChallengeExpired(snap game.Snapshot)
}

// IdentityPolicy decides which identities may take part in a match.
type IdentityPolicy interface {
	IsDisallowed(userID string) bool
}

// BlocklistPolicy disallows a fixed set of user ids.
type BlocklistPolicy map[string]struct{}

func NewBlocklistPolicy(ids []string) BlocklistPolicy {
	p := make(BlocklistPolicy, len(ids))
	for _, id := range ids {
		if id != "" {
			p[id] = struct{}{}
		}
	}
	return p
}

func (p BlocklistPolicy) IsDisallowed(userID string) bool {
	_, ok := p[userID]
	return ok
}

type nopSink struct{}

func (nopSink) Publish(MatchFinalized) {}

type nopListener struct{}

func (nopListener) ChallengeExpired(game.Snapshot) {}
