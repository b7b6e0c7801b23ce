// game/match.go
package game

import (
	"time"
)

// DefaultMaxRounds is the number of rounds played when MatchOptions leaves it unset.
const DefaultMaxRounds = 3

// State is the lifecycle stage of a match.
type State string

const (
	StatePending   State = "pending"
	StateActive    State = "active"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
)

// CancelReason records why a pending match was cancelled.
type CancelReason string

const (
	CancelDenied    CancelReason = "denied"
	CancelWithdrawn CancelReason = "withdrawn"
	CancelExpired   CancelReason = "expired"
)

// ResolveStatus tells the caller what TryResolveRound did.
type ResolveStatus string

const (
	ResolveIncomplete ResolveStatus = "incomplete"
	ResolveContinues  ResolveStatus = "continues"
	ResolveCompleted  ResolveStatus = "completed"
)

// Round is one resolved round. Winner is empty on a tie.
type Round struct {
	Number         int    `json:"number"`
	ChallengerCard Card   `json:"challenger_card"`
	ChallengedCard Card   `json:"challenged_card"`
	Winner         string `json:"winner,omitempty"`
}

// Resolution is returned by TryResolveRound.
// Round is nil when Status is ResolveIncomplete. FinalWinner and History are
// only set once the match is completed; an empty FinalWinner there is a draw.
type Resolution struct {
	Status      ResolveStatus  `json:"status"`
	Round       *Round         `json:"round,omitempty"`
	NextRound   int            `json:"next_round,omitempty"`
	Scores      map[string]int `json:"scores,omitempty"`
	FinalWinner string         `json:"final_winner,omitempty"`
	History     []Round        `json:"history,omitempty"`
}

// MatchOptions tunes a new match.
type MatchOptions struct {
	MaxRounds int
	// Disallowed rejects identities that may not play, e.g. bot accounts.
	Disallowed func(userID string) bool
	Now        func() time.Time
}

// Match is a single challenge between two participants. It is not safe for
// concurrent use; callers serialize access per match.
type Match struct {
	id           string
	challenger   string
	challenged   string
	state        State
	currentRound int
	maxRounds    int
	submissions  map[string]Card
	scores       map[string]int
	history      []Round
	cancelReason CancelReason
	createdAt    time.Time
	updatedAt    time.Time
	now          func() time.Time
}

// NewMatch creates a pending match at round 1 with zero scores.
func NewMatch(id, challenger, challenged string, opts MatchOptions) (*Match, error) {
	if challenger == "" || challenged == "" || challenger == challenged {
		return nil, ErrInvalidParticipants
	}
	if opts.Disallowed != nil && (opts.Disallowed(challenger) || opts.Disallowed(challenged)) {
		return nil, ErrInvalidParticipants
	}
	if opts.MaxRounds <= 0 {
		opts.MaxRounds = DefaultMaxRounds
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	now := opts.Now()
	return &Match{
		id:           id,
		challenger:   challenger,
		challenged:   challenged,
		state:        StatePending,
		currentRound: 1,
		maxRounds:    opts.MaxRounds,
		submissions:  make(map[string]Card, 2),
		scores:       map[string]int{challenger: 0, challenged: 0},
		createdAt:    now,
		updatedAt:    now,
		now:          opts.Now,
	}, nil
}

func (m *Match) ID() string         { return m.id }
func (m *Match) Challenger() string { return m.challenger }
func (m *Match) Challenged() string { return m.challenged }
func (m *Match) State() State       { return m.state }
func (m *Match) CurrentRound() int  { return m.currentRound }
func (m *Match) MaxRounds() int     { return m.maxRounds }

// IsParticipant reports whether userID plays in this match.
func (m *Match) IsParticipant(userID string) bool {
	return userID == m.challenger || userID == m.challenged
}

// Opponent returns the other participant, or "" for a stranger.
func (m *Match) Opponent(userID string) string {
	switch userID {
	case m.challenger:
		return m.challenged
	case m.challenged:
		return m.challenger
	}
	return ""
}

// Accept moves a pending match to active. Only the challenged participant may accept.
func (m *Match) Accept(actorID string) error {
	if actorID == m.challenger {
		return ErrNotChallenged
	}
	if actorID != m.challenged {
		return ErrNotParticipant
	}
	if m.state != StatePending {
		return ErrWrongState
	}
	m.state = StateActive
	m.touch()
	return nil
}

// Cancel ends a pending match without a result.
func (m *Match) Cancel(reason CancelReason) error {
	if m.state != StatePending {
		return ErrWrongState
	}
	m.state = StateCancelled
	m.cancelReason = reason
	m.touch()
	return nil
}

// SubmitCard queues actorID's card for the current round.
func (m *Match) SubmitCard(actorID string, card Card) error {
	if m.state != StateActive {
		return ErrWrongState
	}
	if !card.Valid() {
		return ErrInvalidCard
	}
	if !m.IsParticipant(actorID) {
		return ErrNotParticipant
	}
	if _, ok := m.submissions[actorID]; ok {
		return ErrAlreadySubmitted
	}
	m.submissions[actorID] = card
	m.touch()
	return nil
}

// HasSubmitted reports whether userID has a card queued for the current round.
func (m *Match) HasSubmitted(userID string) bool {
	_, ok := m.submissions[userID]
	return ok
}

// TryResolveRound resolves the current round once both cards are in. It never
// mutates the match while a slot is empty.
func (m *Match) TryResolveRound() Resolution {
	if m.state != StateActive {
		return Resolution{Status: ResolveIncomplete}
	}
	first, ok1 := m.submissions[m.challenger]
	second, ok2 := m.submissions[m.challenged]
	if !ok1 || !ok2 {
		return Resolution{Status: ResolveIncomplete}
	}

	round := Round{
		Number:         m.currentRound,
		ChallengerCard: first,
		ChallengedCard: second,
	}
	switch Resolve(first, second) {
	case FirstWins:
		round.Winner = m.challenger
	case SecondWins:
		round.Winner = m.challenged
	}
	if round.Winner != "" {
		m.scores[round.Winner]++
	}
	m.history = append(m.history, round)
	clear(m.submissions)
	m.currentRound++
	m.touch()

	if m.currentRound > m.maxRounds {
		m.state = StateCompleted
		return Resolution{
			Status:      ResolveCompleted,
			Round:       &round,
			Scores:      m.copyScores(),
			FinalWinner: m.FinalWinner(),
			History:     m.copyHistory(),
		}
	}

	return Resolution{
		Status:    ResolveContinues,
		Round:     &round,
		NextRound: m.currentRound,
		Scores:    m.copyScores(),
	}
}

// FinalWinner is the participant with the strictly higher score, or "" on a draw.
func (m *Match) FinalWinner() string {
	a, b := m.scores[m.challenger], m.scores[m.challenged]
	switch {
	case a > b:
		return m.challenger
	case b > a:
		return m.challenged
	}
	return ""
}

// Score returns userID's cumulative score.
func (m *Match) Score(userID string) int {
	return m.scores[userID]
}

func (m *Match) touch() {
	m.updatedAt = m.now()
}

func (m *Match) copyScores() map[string]int {
	out := make(map[string]int, len(m.scores))
	for k, v := range m.scores {
		out[k] = v
	}
	return out
}

func (m *Match) copyHistory() []Round {
	out := make([]Round, len(m.history))
	copy(out, m.history)
	return out
}
