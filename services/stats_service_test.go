package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"three-card-game/game"
	"three-card-game/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// every connection to :memory: is its own database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func finished(id, challenger, challenged string, cs, ds int, at time.Time) MatchFinalized {
	ev := MatchFinalized{
		MatchID:         id,
		ChallengerID:    challenger,
		ChallengedID:    challenged,
		ChallengerScore: cs,
		ChallengedScore: ds,
		History: []game.Round{
			{Number: 1, ChallengerCard: game.CardEmperor, ChallengedCard: game.CardPeople, Winner: challenger},
			{Number: 2, ChallengerCard: game.CardPeople, ChallengedCard: game.CardPeople},
			{Number: 3, ChallengerCard: game.CardOppressed, ChallengedCard: game.CardPeople, Winner: challenged},
		},
		CompletedAt: at,
	}
	switch {
	case cs > ds:
		ev.WinnerID = challenger
	case ds > cs:
		ev.WinnerID = challenged
	}
	return ev
}

func TestRecordMatchUpdatesPlayersAndHistory(t *testing.T) {
	svc := NewStatsService(newTestDB(t), nil)
	ctx := context.Background()
	at := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	ev := finished("m1", "p1", "p2", 2, 1, at)
	profiles := map[string]Profile{
		"p1": {UserID: "p1", Username: "alice", AvatarURL: "https://cdn.example/a.png"},
	}
	if err := svc.RecordMatch(ctx, ev, profiles); err != nil {
		t.Fatalf("record: %v", err)
	}

	winner, err := svc.PlayerStats(ctx, "p1")
	if err != nil {
		t.Fatalf("stats p1: %v", err)
	}
	if winner.Username != "alice" || winner.MatchesPlayed != 1 || winner.MatchesWon != 1 {
		t.Errorf("p1 = %+v", winner)
	}
	if winner.LastPlayedAt == nil || !winner.LastPlayedAt.Equal(at) {
		t.Errorf("p1 last played = %v, want %v", winner.LastPlayedAt, at)
	}

	loser, err := svc.PlayerStats(ctx, "p2")
	if err != nil {
		t.Fatalf("stats p2: %v", err)
	}
	// no profile known: falls back to the raw id
	if loser.Username != "p2" || loser.MatchesWon != 0 || loser.MatchesLost() != 1 {
		t.Errorf("p2 = %+v", loser)
	}

	matches, err := svc.RecentMatches(ctx, "p2", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("recent matches = %d, want 1", len(matches))
	}
	rec := matches[0]
	if rec.WinnerID == nil || *rec.WinnerID != "p1" || rec.LoserID == nil || *rec.LoserID != "p2" {
		t.Errorf("winner/loser = %v/%v", rec.WinnerID, rec.LoserID)
	}
	if rec.Draw || rec.Rounds != 3 {
		t.Errorf("record = %+v", rec)
	}
	rounds, err := DecodeHistory(rec)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rounds) != 3 || rounds[2].ChallengedCard != game.CardPeople || rounds[2].Winner != "p2" {
		t.Errorf("rounds = %+v", rounds)
	}
}

func TestRecordMatchIsAtMostOnce(t *testing.T) {
	svc := NewStatsService(newTestDB(t), nil)
	ctx := context.Background()
	ev := finished("m1", "p1", "p2", 0, 2, time.Now().UTC())

	for i := 0; i < 3; i++ {
		if err := svc.RecordMatch(ctx, ev, nil); err != nil {
			t.Fatalf("record #%d: %v", i, err)
		}
	}

	p, err := svc.PlayerStats(ctx, "p2")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if p.MatchesPlayed != 1 || p.MatchesWon != 1 {
		t.Errorf("p2 counted %d played / %d won, want 1/1", p.MatchesPlayed, p.MatchesWon)
	}
}

func TestRecordMatchDraw(t *testing.T) {
	svc := NewStatsService(newTestDB(t), nil)
	ctx := context.Background()

	if err := svc.RecordMatch(ctx, finished("m1", "p1", "p2", 1, 1, time.Now().UTC()), nil); err != nil {
		t.Fatalf("record: %v", err)
	}
	for _, id := range []string{"p1", "p2"} {
		p, err := svc.PlayerStats(ctx, id)
		if err != nil {
			t.Fatalf("stats %s: %v", id, err)
		}
		if p.MatchesDrawn != 1 || p.MatchesWon != 0 || p.MatchesLost() != 0 {
			t.Errorf("%s = %+v", id, p)
		}
	}
	matches, _ := svc.RecentMatches(ctx, "p1", 0)
	if len(matches) != 1 || !matches[0].Draw || matches[0].WinnerID != nil {
		t.Errorf("draw record = %+v", matches)
	}
}

func TestLeaderboardOrdering(t *testing.T) {
	svc := NewStatsService(newTestDB(t), nil)
	ctx := context.Background()
	base := time.Now().UTC()

	// carol: 2 wins of 2; alice: 2 wins of 3; bob: 1 win of 4; dave: 0 of 1
	results := []struct {
		a, b   string
		as, bs int
	}{
		{"carol", "bob", 2, 0},
		{"carol", "bob", 2, 1},
		{"alice", "bob", 2, 0},
		{"alice", "bob", 0, 2},
		{"alice", "dave", 3, 0},
	}
	for i, r := range results {
		ev := finished(fmt.Sprintf("m%d", i), r.a, r.b, r.as, r.bs, base.Add(time.Duration(i)*time.Minute))
		if err := svc.RecordMatch(ctx, ev, nil); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	board, err := svc.Leaderboard(ctx, 0)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	want := []string{"carol", "alice", "bob", "dave"}
	if len(board) != len(want) {
		t.Fatalf("leaderboard size = %d, want %d", len(board), len(want))
	}
	for i, id := range want {
		if board[i].ExternalUserID != id || board[i].Rank != i+1 {
			t.Errorf("rank %d = %s (#%d), want %s", i+1, board[i].ExternalUserID, board[i].Rank, id)
		}
	}
	if board[0].WinRate != 1 {
		t.Errorf("carol win rate = %v, want 1", board[0].WinRate)
	}

	top, err := svc.Leaderboard(ctx, 2)
	if err != nil {
		t.Fatalf("leaderboard limit: %v", err)
	}
	if len(top) != 2 {
		t.Errorf("limited leaderboard = %d rows, want 2", len(top))
	}
}

func TestRecentMatchesNewestFirst(t *testing.T) {
	svc := NewStatsService(newTestDB(t), nil)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "mid", "new"} {
		ev := finished(id, "p1", "p2", 2, 0, base.Add(time.Duration(i)*time.Hour))
		if err := svc.RecordMatch(ctx, ev, nil); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	_ = svc.RecordMatch(ctx, finished("other", "p3", "p4", 2, 0, base), nil)

	matches, err := svc.RecentMatches(ctx, "p1", 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(matches) != 2 || matches[0].ID != "new" || matches[1].ID != "mid" {
		t.Errorf("recent = %v", ids(matches))
	}
}

func TestPlayerStatsUnknown(t *testing.T) {
	svc := NewStatsService(newTestDB(t), nil)
	if _, err := svc.PlayerStats(context.Background(), "ghost"); !errors.Is(err, ErrPlayerNotFound) {
		t.Fatalf("err = %v, want ErrPlayerNotFound", err)
	}
}

func ids(records []models.MatchRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

type recordingWriter struct {
	lines []string
}

func (w *recordingWriter) Printf(format string, args ...interface{}) {
	w.lines = append(w.lines, fmt.Sprintf(format, args...))
}

func TestRecordMatchNewPlayersLogNoErrors(t *testing.T) {
	w := &recordingWriter{}
	db := newTestDB(t).Session(&gorm.Session{
		Logger: logger.New(w, logger.Config{LogLevel: logger.Error}),
	})
	s := NewStatsService(db, nil)

	ev := finished("m1", "p1", "p2", 2, 1, time.Now())
	if err := s.RecordMatch(context.Background(), ev, nil); err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(w.lines) != 0 {
		t.Errorf("gorm logged errors for first-time players: %v", w.lines)
	}
}
