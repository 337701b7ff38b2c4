package game_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"trivia-game-service/internal/domain"
	"trivia-game-service/internal/game"
	"trivia-game-service/internal/infra/memory"
)

func TestFullGameScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	session, err := f.service.CreateSession(ctx, "room-1", "quiz-1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusNotStarted, session.Status())

	require.NoError(t, f.service.Start(ctx, session.ID()))
	require.Equal(t, domain.StatusActive, session.Status())
	require.Equal(t, []string{"gameStarted", "questionStarted"}, f.gateway.names())

	// Q1: Alice correct in 5s, Bob incorrect.
	answer, err := f.service.SubmitAnswer(ctx, "alice", session.ID(), "q1", "c2", 5)
	require.NoError(t, err)
	require.True(t, answer.Correct)
	require.Equal(t, 141, answer.Points) // 100 + (1-5/30)*50 truncated

	answer, err = f.service.SubmitAnswer(ctx, "bob", session.ID(), "q1", "c1", 8)
	require.NoError(t, err)
	require.False(t, answer.Correct)
	require.Zero(t, answer.Points)

	board, err := f.service.Leaderboard(ctx, session.ID())
	require.NoError(t, err)
	require.Len(t, board, 2)
	require.Equal(t, "alice", board[0].PlayerID)
	require.Equal(t, 141, board[0].Score)
	require.Equal(t, 1, board[0].Rank)
	require.Equal(t, "bob", board[1].PlayerID)
	require.Zero(t, board[1].Score)
	require.Equal(t, 2, board[1].Rank)

	// Q2: Alice correct in 20s, Bob silent.
	require.NoError(t, f.service.AdvanceQuestion(ctx, session.ID()))
	answer, err = f.service.SubmitAnswer(ctx, "alice", session.ID(), "q2", "c3", 20)
	require.NoError(t, err)
	require.Equal(t, 116, answer.Points)

	record, err := f.service.End(ctx, session.ID())
	require.NoError(t, err)
	require.Equal(t, domain.StatusEnded, session.Status())
	require.Equal(t, "alice", record.WinnerPlayerID)
	require.Equal(t, 2, record.TotalPlayers)
	require.Equal(t, 257, record.FinalLeaderboard[0].Score)
	require.Equal(t, 2, record.Statistics.TotalQuestions)
	require.Equal(t, 257, record.Statistics.HighestScore)
	require.Equal(t, 0, record.Statistics.LowestScore)
	require.Equal(t, 128, record.Statistics.AverageScore)

	saved, ok := f.records.GetRecord(ctx, session.ID())
	require.True(t, ok)
	require.Same(t, record, saved)
}

func TestSubmitAnswerPreconditions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	session, err := f.service.CreateSession(ctx, "room-1", "quiz-1")
	require.NoError(t, err)

	// Session not active yet.
	_, err = f.service.SubmitAnswer(ctx, "alice", session.ID(), "q1", "c2", 1)
	require.ErrorIs(t, err, domain.ErrSessionNotActive)

	require.NoError(t, f.service.Start(ctx, session.ID()))

	// Unknown session.
	_, err = f.service.SubmitAnswer(ctx, "alice", "nope", "q1", "c2", 1)
	require.ErrorIs(t, err, domain.ErrSessionNotFound)

	// Stale question: q2 is not current yet.
	_, err = f.service.SubmitAnswer(ctx, "alice", session.ID(), "q2", "c3", 1)
	require.ErrorIs(t, err, domain.ErrQuestionMismatch)

	// Choice from another question.
	_, err = f.service.SubmitAnswer(ctx, "alice", session.ID(), "q1", "c3", 1)
	require.ErrorIs(t, err, domain.ErrInvalidChoice)

	// First submission sticks, second is rejected.
	_, err = f.service.SubmitAnswer(ctx, "alice", session.ID(), "q1", "c2", 1)
	require.NoError(t, err)
	_, err = f.service.SubmitAnswer(ctx, "alice", session.ID(), "q1", "c1", 2)
	require.ErrorIs(t, err, domain.ErrDuplicateAnswer)

	// The rejected resubmission did not touch the leaderboard.
	board, err := f.service.Leaderboard(ctx, session.ID())
	require.NoError(t, err)
	require.Len(t, board, 1)
	require.Equal(t, 1, board[0].TotalAnswers)
}

func TestStartRequiresQuestions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	session, err := f.service.CreateSession(ctx, "room-1", "quiz-empty")
	require.NoError(t, err)

	err = f.service.Start(ctx, session.ID())
	require.ErrorIs(t, err, domain.ErrNoQuestions)
	require.Equal(t, domain.StatusNotStarted, session.Status())
	require.Empty(t, f.gateway.names())
}

func TestStartTwice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	session, err := f.service.CreateSession(ctx, "room-1", "quiz-1")
	require.NoError(t, err)

	require.NoError(t, f.service.Start(ctx, session.ID()))
	require.ErrorIs(t, f.service.Start(ctx, session.ID()), domain.ErrAlreadyStarted)
}

func TestEndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	session, err := f.service.CreateSession(ctx, "room-1", "quiz-1")
	require.NoError(t, err)
	require.NoError(t, f.service.Start(ctx, session.ID()))

	first, err := f.service.End(ctx, session.ID())
	require.NoError(t, err)
	second, err := f.service.End(ctx, session.ID())
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, 1, f.gateway.count("gameEnded"))
}

func TestStatisticsCountAnsweringPlayersOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// Carol joins the room but never answers anything.
	_, err := f.roster.Join(ctx, "room-1", "carol", "Carol")
	require.NoError(t, err)

	session, err := f.service.CreateSession(ctx, "room-1", "quiz-1")
	require.NoError(t, err)
	require.NoError(t, f.service.Start(ctx, session.ID()))

	_, err = f.service.SubmitAnswer(ctx, "alice", session.ID(), "q1", "c2", 5)
	require.NoError(t, err)

	record, err := f.service.End(ctx, session.ID())
	require.NoError(t, err)

	// The record counts everyone in the room; the statistics only count
	// players who actually answered.
	require.Equal(t, 3, record.TotalPlayers)
	require.Equal(t, 1, record.Statistics.TotalPlayers)
	require.Len(t, record.FinalLeaderboard, 1)
}

func TestAdvanceAfterLastQuestionEndsGame(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	session, err := f.service.CreateSession(ctx, "room-1", "quiz-1")
	require.NoError(t, err)
	require.NoError(t, f.service.Start(ctx, session.ID()))

	require.NoError(t, f.service.AdvanceQuestion(ctx, session.ID())) // q1 -> q2
	require.NoError(t, f.service.AdvanceQuestion(ctx, session.ID())) // q2 was last
	require.Equal(t, domain.StatusEnded, session.Status())
	require.Equal(t, 2, f.gateway.count("questionEnded"))
	require.Equal(t, 1, f.gateway.count("gameEnded"))

	// The reveal carries the correct choice of the finished question.
	reveal, ok := f.gateway.last("questionEnded").(domain.QuestionEnded)
	require.True(t, ok)
	require.Equal(t, "q2", reveal.QuestionID)
	require.Equal(t, "c3", reveal.CorrectChoiceID)

	require.ErrorIs(t, f.service.AdvanceQuestion(ctx, session.ID()), domain.ErrSessionNotActive)
}

func TestQuestionStartedHidesCorrectness(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	session, err := f.service.CreateSession(ctx, "room-1", "quiz-1")
	require.NoError(t, err)
	require.NoError(t, f.service.Start(ctx, session.ID()))

	started, ok := f.gateway.last("questionStarted").(domain.QuestionStarted)
	require.True(t, ok)
	require.Equal(t, 1, started.QuestionNumber)
	require.Equal(t, "q1", started.QuestionID)
	require.Len(t, started.Choices, 2)
	// QuestionChoice has no correctness field at all; verify ordering too.
	require.Equal(t, "c1", started.Choices[0].ID)
	require.Equal(t, "c2", started.Choices[1].ID)
}

func TestConcurrentDuplicateSubmissions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	session, err := f.service.CreateSession(ctx, "room-1", "quiz-1")
	require.NoError(t, err)
	require.NoError(t, f.service.Start(ctx, session.ID()))

	const attempts = 32
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.service.SubmitAnswer(ctx, "alice", session.ID(), "q1", "c2", 3)
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		if err == nil {
			accepted++
		} else {
			require.ErrorIs(t, err, domain.ErrDuplicateAnswer)
		}
	}
	require.Equal(t, 1, accepted)

	board, err := f.service.Leaderboard(ctx, session.ID())
	require.NoError(t, err)
	require.Len(t, board, 1)
	require.Equal(t, 1, board[0].TotalAnswers)
}

func TestConcurrentSubmissionsKeepRanksConsistent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	players := []string{"alice", "bob", "carol", "dave"}
	for _, p := range players[2:] {
		_, err := f.roster.Join(ctx, "room-1", p, p)
		require.NoError(t, err)
	}

	session, err := f.service.CreateSession(ctx, "room-1", "quiz-1")
	require.NoError(t, err)
	require.NoError(t, f.service.Start(ctx, session.ID()))

	var wg sync.WaitGroup
	submitErrs := make([]error, len(players))
	for i, p := range players {
		wg.Add(1)
		go func(i int, p string) {
			defer wg.Done()
			_, submitErrs[i] = f.service.SubmitAnswer(ctx, p, session.ID(), "q1", "c2", 10)
		}(i, p)
	}

	// Snapshots taken while writers run must always pair scores with ranks
	// from the same point in time: ranks are 1..N and ordered by score.
	snapshotErr := make(chan error, 1)
	go func() {
		for i := 0; i < 100; i++ {
			board := session.Snapshot()
			for j, entry := range board {
				if entry.Rank != j+1 {
					snapshotErr <- fmt.Errorf("rank %d at position %d", entry.Rank, j)
					return
				}
				if j > 0 && board[j-1].Score < entry.Score {
					snapshotErr <- fmt.Errorf("scores out of order at position %d", j)
					return
				}
			}
		}
		snapshotErr <- nil
	}()
	wg.Wait()
	require.NoError(t, <-snapshotErr)
	for _, err := range submitErrs {
		require.NoError(t, err)
	}

	board, err := f.service.Leaderboard(ctx, session.ID())
	require.NoError(t, err)
	require.Len(t, board, len(players))
}

type fixture struct {
	service *game.Service
	gateway *captureGateway
	roster  *memory.Roster
	records *memory.RecordStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	roster := memory.NewRoster()
	ctx := context.Background()
	if _, err := roster.Join(ctx, "room-1", "alice", "Alice"); err != nil {
		t.Fatalf("join roster: %v", err)
	}
	if _, err := roster.Join(ctx, "room-1", "bob", "Bob"); err != nil {
		t.Fatalf("join roster: %v", err)
	}

	catalog := memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"quiz-1":     sampleQuiz(),
		"quiz-empty": {ID: "quiz-empty"},
	})
	gateway := &captureGateway{}
	records := memory.NewRecordStore()

	return &fixture{
		service: game.NewService(memory.NewSessionStore(), staticCatalog{catalog}, roster, gateway, records),
		gateway: gateway,
		roster:  roster,
		records: records,
	}
}

// staticCatalog adapts a loader into the catalog contract without a cache,
// which keeps these tests free of TTL behavior.
type staticCatalog struct {
	loader *memory.StaticQuizLoader
}

func (c staticCatalog) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return c.loader.LoadQuiz(ctx, quizID)
}

type captureGateway struct {
	mu     sync.Mutex
	events []domain.Event
}

func (c *captureGateway) Broadcast(_ context.Context, _ string, event domain.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *captureGateway) names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.Name())
	}
	return out
}

func (c *captureGateway) count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.events {
		if e.Name() == name {
			n++
		}
	}
	return n
}

func (c *captureGateway) last(name string) domain.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.events) - 1; i >= 0; i-- {
		if c.events[i].Name() == name {
			return c.events[i]
		}
	}
	return nil
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:    "quiz-1",
		Title: "General knowledge",
		Questions: []domain.Question{
			{
				ID:        "q1",
				Text:      "What is 2 + 2?",
				Order:     1,
				TimeLimit: 30,
				Choices: []domain.Choice{
					{ID: "c1", Text: "3", Order: 1},
					{ID: "c2", Text: "4", Order: 2, Correct: true},
				},
			},
			{
				ID:        "q2",
				Text:      "Largest planet?",
				Order:     2,
				TimeLimit: 30,
				Choices: []domain.Choice{
					{ID: "c3", Text: "Jupiter", Order: 1, Correct: true},
					{ID: "c4", Text: "Mars", Order: 2},
				},
			},
		},
	}
}
