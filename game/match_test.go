package game

import (
	"errors"
	"testing"
)

func newActiveMatch(t *testing.T) *Match {
	t.Helper()
	m, err := NewMatch("m1", "p1", "p2", MatchOptions{})
	if err != nil {
		t.Fatalf("new match: %v", err)
	}
	if err := m.Accept("p2"); err != nil {
		t.Fatalf("accept: %v", err)
	}
	return m
}

func playRound(t *testing.T, m *Match, c1, c2 Card) Resolution {
	t.Helper()
	if err := m.SubmitCard("p1", c1); err != nil {
		t.Fatalf("p1 submit: %v", err)
	}
	if err := m.SubmitCard("p2", c2); err != nil {
		t.Fatalf("p2 submit: %v", err)
	}
	return m.TryResolveRound()
}

func TestNewMatchValidation(t *testing.T) {
	bots := func(id string) bool { return id == "bot" }
	tests := []struct {
		name                   string
		challenger, challenged string
	}{
		{"self challenge", "p1", "p1"},
		{"empty challenger", "", "p2"},
		{"disallowed challenged", "p1", "bot"},
		{"disallowed challenger", "bot", "p2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMatch("m", tt.challenger, tt.challenged, MatchOptions{Disallowed: bots})
			if !errors.Is(err, ErrInvalidParticipants) {
				t.Fatalf("err = %v, want ErrInvalidParticipants", err)
			}
		})
	}

	m, err := NewMatch("m", "p1", "p2", MatchOptions{Disallowed: bots})
	if err != nil {
		t.Fatalf("valid match: %v", err)
	}
	if m.State() != StatePending || m.CurrentRound() != 1 || m.MaxRounds() != DefaultMaxRounds {
		t.Fatalf("unexpected initial state %s round %d max %d", m.State(), m.CurrentRound(), m.MaxRounds())
	}
	if m.Score("p1") != 0 || m.Score("p2") != 0 || len(m.Snapshot().History) != 0 {
		t.Fatalf("new match should have zero scores and empty history")
	}
}

func TestAccept(t *testing.T) {
	m, _ := NewMatch("m", "p1", "p2", MatchOptions{})

	if err := m.Accept("p1"); !errors.Is(err, ErrNotChallenged) {
		t.Fatalf("self accept err = %v, want ErrNotChallenged", err)
	}
	if err := m.Accept("p3"); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("stranger accept err = %v, want ErrNotParticipant", err)
	}
	if err := m.Accept("p2"); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if m.State() != StateActive || m.CurrentRound() != 1 {
		t.Fatalf("state = %s round = %d, want active round 1", m.State(), m.CurrentRound())
	}
	if err := m.Accept("p2"); !errors.Is(err, ErrWrongState) {
		t.Fatalf("second accept err = %v, want ErrWrongState", err)
	}
}

func TestSubmitCardErrors(t *testing.T) {
	pending, _ := NewMatch("m", "p1", "p2", MatchOptions{})
	if err := pending.SubmitCard("p1", CardEmperor); !errors.Is(err, ErrWrongState) {
		t.Fatalf("pending submit err = %v, want ErrWrongState", err)
	}

	m := newActiveMatch(t)
	if err := m.SubmitCard("p1", Card("rock")); !errors.Is(err, ErrInvalidCard) {
		t.Fatalf("invalid card err = %v, want ErrInvalidCard", err)
	}
	if err := m.SubmitCard("p3", CardEmperor); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("stranger err = %v, want ErrNotParticipant", err)
	}
	if err := m.SubmitCard("p1", CardEmperor); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := m.SubmitCard("p1", CardPeople); !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("duplicate err = %v, want ErrAlreadySubmitted", err)
	}
}

func TestTryResolveRoundIncompleteIsNoop(t *testing.T) {
	m := newActiveMatch(t)
	before := m.Snapshot()

	for i := 0; i < 3; i++ {
		if res := m.TryResolveRound(); res.Status != ResolveIncomplete || res.Round != nil {
			t.Fatalf("empty slots resolved: %+v", res)
		}
	}
	if err := m.SubmitCard("p1", CardPeople); err != nil {
		t.Fatalf("submit: %v", err)
	}
	for i := 0; i < 3; i++ {
		if res := m.TryResolveRound(); res.Status != ResolveIncomplete {
			t.Fatalf("one slot resolved: %+v", res)
		}
	}

	after := m.Snapshot()
	if after.CurrentRound != before.CurrentRound || len(after.History) != 0 {
		t.Fatalf("incomplete resolve mutated round/history")
	}
	if after.Scores["p1"] != 0 || after.Scores["p2"] != 0 {
		t.Fatalf("incomplete resolve mutated scores")
	}
	if !m.HasSubmitted("p1") || m.HasSubmitted("p2") {
		t.Fatalf("submission slots changed")
	}
}

func TestRoundResolvesAndContinues(t *testing.T) {
	m := newActiveMatch(t)

	res := playRound(t, m, CardOppressed, CardEmperor)
	if res.Status != ResolveContinues {
		t.Fatalf("status = %s, want continues", res.Status)
	}
	if res.Round.Winner != "p1" || res.NextRound != 2 {
		t.Fatalf("round = %+v next = %d", res.Round, res.NextRound)
	}
	if res.Scores["p1"] != 1 || res.Scores["p2"] != 0 {
		t.Fatalf("scores = %v", res.Scores)
	}
	if m.HasSubmitted("p1") || m.HasSubmitted("p2") {
		t.Fatalf("slots not cleared after resolve")
	}
	if m.CurrentRound() != 2 {
		t.Fatalf("round = %d, want 2", m.CurrentRound())
	}
}

func TestTieRound(t *testing.T) {
	m := newActiveMatch(t)
	res := playRound(t, m, CardPeople, CardPeople)
	if res.Round.Winner != "" {
		t.Fatalf("tie produced winner %q", res.Round.Winner)
	}
	if res.Scores["p1"] != 0 || res.Scores["p2"] != 0 {
		t.Fatalf("tie changed scores: %v", res.Scores)
	}
	if len(m.Snapshot().History) != 1 {
		t.Fatalf("tie round not recorded")
	}
}

func TestMatchCompletes(t *testing.T) {
	tests := []struct {
		name   string
		rounds [][2]Card
		want   string
		scores [2]int
	}{
		{
			name: "challenger takes the last round",
			rounds: [][2]Card{
				{CardOppressed, CardEmperor}, // p1
				{CardEmperor, CardOppressed}, // p2
				{CardPeople, CardOppressed},  // p1: people beats oppressed
			},
			want:   "p1",
			scores: [2]int{2, 1},
		},
		{
			name: "oppressed beats emperor for challenged",
			rounds: [][2]Card{
				{CardEmperor, CardEmperor},   // tie
				{CardEmperor, CardOppressed}, // p2
				{CardPeople, CardEmperor},    // p2
			},
			want:   "p2",
			scores: [2]int{0, 2},
		},
		{
			name: "draw",
			rounds: [][2]Card{
				{CardPeople, CardPeople},
				{CardOppressed, CardOppressed},
				{CardEmperor, CardEmperor},
			},
			want:   "",
			scores: [2]int{0, 0},
		},
		{
			name: "one each and a tie",
			rounds: [][2]Card{
				{CardOppressed, CardEmperor},
				{CardPeople, CardPeople},
				{CardPeople, CardEmperor},
			},
			want:   "",
			scores: [2]int{1, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newActiveMatch(t)
			var res Resolution
			for i, r := range tt.rounds {
				res = playRound(t, m, r[0], r[1])
				if i < len(tt.rounds)-1 && res.Status != ResolveContinues {
					t.Fatalf("round %d status = %s", i+1, res.Status)
				}
			}
			if res.Status != ResolveCompleted {
				t.Fatalf("final status = %s, want completed", res.Status)
			}
			if res.FinalWinner != tt.want {
				t.Fatalf("final winner = %q, want %q", res.FinalWinner, tt.want)
			}
			if res.Scores["p1"] != tt.scores[0] || res.Scores["p2"] != tt.scores[1] {
				t.Fatalf("scores = %v, want %v", res.Scores, tt.scores)
			}
			if len(res.History) != 3 {
				t.Fatalf("history length = %d, want 3", len(res.History))
			}
			if m.State() != StateCompleted {
				t.Fatalf("state = %s, want completed", m.State())
			}
			if err := m.SubmitCard("p1", CardPeople); !errors.Is(err, ErrWrongState) {
				t.Fatalf("submit after completion err = %v, want ErrWrongState", err)
			}
			if err := m.Cancel(CancelExpired); !errors.Is(err, ErrWrongState) {
				t.Fatalf("cancel after completion err = %v, want ErrWrongState", err)
			}
		})
	}
}

func TestResolutionIsDetachedFromMatch(t *testing.T) {
	m := newActiveMatch(t)
	res := playRound(t, m, CardOppressed, CardEmperor)
	res.Scores["p1"] = 99
	if m.Score("p1") != 1 {
		t.Fatalf("mutating resolution leaked into match")
	}
}

func TestCancel(t *testing.T) {
	m, _ := NewMatch("m", "p1", "p2", MatchOptions{})
	if err := m.Cancel(CancelWithdrawn); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	snap := m.Snapshot()
	if snap.State != StateCancelled || snap.CancelReason != CancelWithdrawn {
		t.Fatalf("snapshot = %+v", snap)
	}
	if err := m.Accept("p2"); !errors.Is(err, ErrWrongState) {
		t.Fatalf("accept after cancel err = %v, want ErrWrongState", err)
	}

	active := newActiveMatch(t)
	if err := active.Cancel(CancelDenied); !errors.Is(err, ErrWrongState) {
		t.Fatalf("cancel active err = %v, want ErrWrongState", err)
	}
}

func TestSnapshotHidesCards(t *testing.T) {
	m := newActiveMatch(t)
	if err := m.SubmitCard("p2", CardEmperor); err != nil {
		t.Fatalf("submit: %v", err)
	}
	snap := m.Snapshot()
	if !snap.HasSubmitted("p2") || snap.HasSubmitted("p1") {
		t.Fatalf("submitted = %v", snap.Submitted)
	}
	if snap.Opponent("p1") != "p2" || snap.Opponent("x") != "" {
		t.Fatalf("opponent lookup broken")
	}
}
