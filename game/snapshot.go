package game

import "time"

// Snapshot is a read-only copy of a match for rendering.
type Snapshot struct {
	ID           string         `json:"id"`
	Challenger   string         `json:"challenger_id"`
	Challenged   string         `json:"challenged_id"`
	State        State          `json:"state"`
	CurrentRound int            `json:"current_round"`
	MaxRounds    int            `json:"max_rounds"`
	Scores       map[string]int `json:"scores"`
	// Submitted lists who already played a card this round, never the cards.
	Submitted    []string     `json:"submitted"`
	History      []Round      `json:"history"`
	CancelReason CancelReason `json:"cancel_reason,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Snapshot copies the current match state.
func (m *Match) Snapshot() Snapshot {
	submitted := make([]string, 0, 2)
	for _, id := range []string{m.challenger, m.challenged} {
		if m.HasSubmitted(id) {
			submitted = append(submitted, id)
		}
	}
	return Snapshot{
		ID:           m.id,
		Challenger:   m.challenger,
		Challenged:   m.challenged,
		State:        m.state,
		CurrentRound: m.currentRound,
		MaxRounds:    m.maxRounds,
		Scores:       m.copyScores(),
		Submitted:    submitted,
		History:      m.copyHistory(),
		CancelReason: m.cancelReason,
		CreatedAt:    m.createdAt,
		UpdatedAt:    m.updatedAt,
	}
}

// HasSubmitted reports whether userID appears in Submitted.
func (s Snapshot) HasSubmitted(userID string) bool {
	for _, id := range s.Submitted {
		if id == userID {
			return true
		}
	}
	return false
}

// Opponent returns the other participant, or "" for a stranger.
func (s Snapshot) Opponent(userID string) string {
	switch userID {
	case s.Challenger:
		return s.Challenged
	case s.Challenged:
		return s.Challenger
	}
	return ""
}
