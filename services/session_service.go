// services/session_service.go
package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"three-card-game/game"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultChallengeTTL is how long a challenge waits for an answer.
const DefaultChallengeTTL = 2 * time.Hour

var (
	ErrAlreadyInMatch = errors.New("one or both players are already in a match")
	ErrNotInMatch     = errors.New("player is not in a match")
	ErrUnauthorized   = errors.New("actor may not perform this action")
	ErrMatchNotFound  = errors.New("match not found")
)

// SessionOptions wires the registry's collaborators. Nil fields get no-op or
// default implementations, except Expiry which is required.
type SessionOptions struct {
	MaxRounds    int
	ChallengeTTL time.Duration
	Identity     IdentityPolicy
	Expiry       ExpiryScheduler
	Sink         FinalizeSink
	Listener     ExpiryListener
	Logger       *zap.Logger
	NewID        func() string
	Now          func() time.Time
}

// SubmitResult is what a card submission produced.
type SubmitResult struct {
	Resolution game.Resolution `json:"resolution"`
	Match      game.Snapshot   `json:"match"`
}

// session guards one match. The registry lock is only ever taken while
// holding a session lock, never the other way round.
type session struct {
	mu     sync.Mutex
	match  *game.Match
	expiry ExpiryTask
	closed bool
}

func (s *session) disarm() {
	if s.expiry != nil {
		s.expiry.Cancel()
		s.expiry = nil
	}
}

// SessionService tracks pending and active matches and enforces one match per player.
type SessionService struct {
	mu       sync.Mutex
	byPlayer map[string]string
	byMatch  map[string]*session

	maxRounds int
	ttl       time.Duration
	identity  IdentityPolicy
	expiry    ExpiryScheduler
	sink      FinalizeSink
	listener  ExpiryListener
	logger    *zap.Logger
	newID     func() string
	now       func() time.Time
}

func NewSessionService(opts SessionOptions) (*SessionService, error) {
	if opts.Expiry == nil {
		return nil, errors.New("session service: expiry scheduler is required")
	}
	if opts.MaxRounds <= 0 {
		opts.MaxRounds = game.DefaultMaxRounds
	}
	if opts.ChallengeTTL <= 0 {
		opts.ChallengeTTL = DefaultChallengeTTL
	}
	if opts.Identity == nil {
		opts.Identity = BlocklistPolicy{}
	}
	if opts.Sink == nil {
		opts.Sink = nopSink{}
	}
	if opts.Listener == nil {
		opts.Listener = nopListener{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &SessionService{
		byPlayer:  make(map[string]string),
		byMatch:   make(map[string]*session),
		maxRounds: opts.MaxRounds,
		ttl:       opts.ChallengeTTL,
		identity:  opts.Identity,
		expiry:    opts.Expiry,
		sink:      opts.Sink,
		listener:  opts.Listener,
		logger:    opts.Logger,
		newID:     opts.NewID,
		now:       opts.Now,
	}, nil
}

// Challenge opens a pending match between two unmapped players and arms its expiry.
func (s *SessionService) Challenge(challengerID, challengedID string) (game.Snapshot, error) {
	// The identity check may hit the network, so it runs before any lock.
	disallowed := map[string]bool{
		challengerID: s.identity.IsDisallowed(challengerID),
		challengedID: s.identity.IsDisallowed(challengedID),
	}

	sess := &session{}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	s.mu.Lock()
	if s.mappedLocked(challengerID) || s.mappedLocked(challengedID) {
		s.mu.Unlock()
		return game.Snapshot{}, ErrAlreadyInMatch
	}
	m, err := game.NewMatch(s.newID(), challengerID, challengedID, game.MatchOptions{
		MaxRounds:  s.maxRounds,
		Disallowed: func(id string) bool { return disallowed[id] },
		Now:        s.now,
	})
	if err != nil {
		s.mu.Unlock()
		return game.Snapshot{}, err
	}
	sess.match = m
	s.byMatch[m.ID()] = sess
	s.byPlayer[challengerID] = m.ID()
	s.byPlayer[challengedID] = m.ID()
	s.mu.Unlock()

	matchID := m.ID()
	task, err := s.expiry.Arm(matchID, s.ttl, func() { s.expire(matchID) })
	if err != nil {
		_ = m.Cancel(game.CancelExpired)
		s.releaseLocked(sess)
		s.logger.Error("❌ [SESSION] could not arm challenge expiry",
			zap.String("match_id", matchID), zap.Error(err))
		return game.Snapshot{}, fmt.Errorf("arm expiry: %w", err)
	}
	sess.expiry = task

	s.logger.Info("🎯 [SESSION] challenge created",
		zap.String("match_id", matchID),
		zap.String("challenger", challengerID),
		zap.String("challenged", challengedID),
		zap.Duration("ttl", s.ttl))
	return m.Snapshot(), nil
}

// Accept starts the actor's pending match and disarms its expiry.
func (s *SessionService) Accept(actorID string) (game.Snapshot, error) {
	sess, err := s.lockSessionFor(actorID)
	if err != nil {
		return game.Snapshot{}, err
	}
	defer sess.mu.Unlock()

	if err := sess.match.Accept(actorID); err != nil {
		return game.Snapshot{}, err
	}
	sess.disarm()

	s.logger.Info("🎮 [SESSION] challenge accepted",
		zap.String("match_id", sess.match.ID()), zap.String("actor", actorID))
	return sess.match.Snapshot(), nil
}

// Deny is the challenged player's refusal of a pending challenge.
func (s *SessionService) Deny(actorID string) (game.Snapshot, error) {
	return s.DenyOrWithdraw(actorID, false)
}

// Withdraw is the challenger taking back a pending challenge.
func (s *SessionService) Withdraw(actorID string) (game.Snapshot, error) {
	return s.DenyOrWithdraw(actorID, true)
}

// DenyOrWithdraw cancels a pending match. Only the challenger may withdraw and
// only the challenged player may deny.
func (s *SessionService) DenyOrWithdraw(actorID string, asChallenger bool) (game.Snapshot, error) {
	sess, err := s.lockSessionFor(actorID)
	if err != nil {
		return game.Snapshot{}, err
	}
	defer sess.mu.Unlock()

	m := sess.match
	reason := game.CancelDenied
	allowed := m.Challenged()
	if asChallenger {
		reason = game.CancelWithdrawn
		allowed = m.Challenger()
	}
	if actorID != allowed {
		return game.Snapshot{}, ErrUnauthorized
	}
	if err := m.Cancel(reason); err != nil {
		return game.Snapshot{}, err
	}
	sess.disarm()
	s.releaseLocked(sess)

	s.logger.Info("🚫 [SESSION] challenge cancelled",
		zap.String("match_id", m.ID()),
		zap.String("actor", actorID),
		zap.String("reason", string(reason)))
	return m.Snapshot(), nil
}

// SubmitCard records the actor's card and resolves the round when both are in.
// A completed match is unregistered and published to the finalize sink.
func (s *SessionService) SubmitCard(actorID string, card game.Card) (SubmitResult, error) {
	sess, err := s.lockSessionFor(actorID)
	if err != nil {
		return SubmitResult{}, err
	}

	m := sess.match
	if err := m.SubmitCard(actorID, card); err != nil {
		sess.mu.Unlock()
		return SubmitResult{}, err
	}
	res := m.TryResolveRound()
	snap := m.Snapshot()

	var finalized *MatchFinalized
	switch m.State() {
	case game.StateCompleted:
		s.releaseLocked(sess)
		ev := s.finalizeEvent(snap, res)
		finalized = &ev
	case game.StateCancelled:
		s.releaseLocked(sess)
	}
	sess.mu.Unlock()

	switch res.Status {
	case game.ResolveContinues:
		s.logger.Info("🃏 [SESSION] round resolved",
			zap.String("match_id", snap.ID),
			zap.Int("round", res.Round.Number),
			zap.String("winner", res.Round.Winner))
	case game.ResolveCompleted:
		s.logger.Info("🏆 [SESSION] match completed",
			zap.String("match_id", snap.ID),
			zap.String("winner", res.FinalWinner),
			zap.Any("scores", res.Scores))
	}

	if finalized != nil {
		s.sink.Publish(*finalized)
	}
	return SubmitResult{Resolution: res, Match: snap}, nil
}

// Lookup returns a live match by id.
func (s *SessionService) Lookup(matchID string) (game.Snapshot, error) {
	s.mu.Lock()
	sess := s.byMatch[matchID]
	s.mu.Unlock()
	if sess == nil {
		return game.Snapshot{}, ErrMatchNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return game.Snapshot{}, ErrMatchNotFound
	}
	return sess.match.Snapshot(), nil
}

// MatchFor returns the actor's current match.
func (s *SessionService) MatchFor(actorID string) (game.Snapshot, error) {
	sess, err := s.lockSessionFor(actorID)
	if err != nil {
		return game.Snapshot{}, err
	}
	defer sess.mu.Unlock()
	return sess.match.Snapshot(), nil
}

// Active is the number of pending plus active matches.
func (s *SessionService) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byMatch)
}

// Shutdown disarms every pending expiry. Matches stay in memory until the
// process exits.
func (s *SessionService) Shutdown() {
	s.mu.Lock()
	sessions := make([]*session, 0, len(s.byMatch))
	for _, sess := range s.byMatch {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.mu.Lock()
		sess.disarm()
		sess.mu.Unlock()
	}
	s.logger.Info("⏹️ [SESSION] expiry timers disarmed", zap.Int("matches", len(sessions)))
}

// expire runs when a challenge's timer fires. It is a no-op for matches that
// were accepted, cancelled or already discarded.
func (s *SessionService) expire(matchID string) {
	s.mu.Lock()
	sess := s.byMatch[matchID]
	s.mu.Unlock()
	if sess == nil {
		return
	}

	sess.mu.Lock()
	if sess.closed || sess.match.State() != game.StatePending {
		sess.mu.Unlock()
		return
	}
	_ = sess.match.Cancel(game.CancelExpired)
	// a fired one-time job stays registered until removed
	sess.disarm()
	s.releaseLocked(sess)
	snap := sess.match.Snapshot()
	sess.mu.Unlock()

	s.logger.Info("⌛ [SESSION] challenge expired",
		zap.String("match_id", matchID),
		zap.String("challenger", snap.Challenger),
		zap.String("challenged", snap.Challenged))
	s.listener.ChallengeExpired(snap)
}

// lockSessionFor returns the actor's live session with its lock held.
func (s *SessionService) lockSessionFor(actorID string) (*session, error) {
	for {
		s.mu.Lock()
		sess := s.byMatch[s.byPlayer[actorID]]
		s.mu.Unlock()
		if sess == nil {
			return nil, ErrNotInMatch
		}

		sess.mu.Lock()
		if !sess.closed {
			return sess, nil
		}
		// Released between lookup and lock; its mappings are gone, look again.
		sess.mu.Unlock()
	}
}

func (s *SessionService) mappedLocked(playerID string) bool {
	_, ok := s.byPlayer[playerID]
	return ok
}

// releaseLocked removes both mappings. The caller holds sess.mu.
func (s *SessionService) releaseLocked(sess *session) {
	m := sess.match
	s.mu.Lock()
	for _, id := range []string{m.Challenger(), m.Challenged()} {
		if s.byPlayer[id] == m.ID() {
			delete(s.byPlayer, id)
		}
	}
	if s.byMatch[m.ID()] == sess {
		delete(s.byMatch, m.ID())
	}
	s.mu.Unlock()
	sess.closed = true
}

func (s *SessionService) finalizeEvent(snap game.Snapshot, res game.Resolution) MatchFinalized {
	return MatchFinalized{
		MatchID:         snap.ID,
		ChallengerID:    snap.Challenger,
		ChallengedID:    snap.Challenged,
		ChallengerScore: res.Scores[snap.Challenger],
		ChallengedScore: res.Scores[snap.Challenged],
		WinnerID:        res.FinalWinner,
		History:         res.History,
		CompletedAt:     snap.UpdatedAt,
	}
}
