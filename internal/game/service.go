package game

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/google/uuid"

	"trivia-game-service/internal/domain"
)

// SessionStore abstracts how game sessions are stored (in-memory, Redis-backed, etc).
type SessionStore interface {
	Put(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// QuizCatalog loads quiz content (from cache/backing store).
type QuizCatalog interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// Roster exposes room membership owned outside the game core.
type Roster interface {
	PlayerCount(ctx context.Context, roomID string) (int, error)
	Username(ctx context.Context, playerID string) (string, error)
}

// Broadcaster delivers an event to all members of a room.
type Broadcaster interface {
	Broadcast(ctx context.Context, roomID string, event domain.Event)
}

// RecordStore persists game records at game end.
type RecordStore interface {
	SaveRecord(ctx context.Context, record *domain.GameRecord) error
}

// Service drives game sessions: it accepts the start / submit-answer /
// advance / end commands, consults the ledger and leaderboard, and emits
// events through the broadcaster. Events for a session are emitted while
// its lock is held, so clients observe them in command order.
type Service struct {
	sessions SessionStore
	quizzes  QuizCatalog
	roster   Roster
	gateway  Broadcaster
	records  RecordStore
}

func NewService(sessions SessionStore, quizzes QuizCatalog, roster Roster, gateway Broadcaster, records RecordStore) *Service {
	return &Service{
		sessions: sessions,
		quizzes:  quizzes,
		roster:   roster,
		gateway:  gateway,
		records:  records,
	}
}

// CreateSession resolves the quiz and registers a fresh NotStarted session
// for the room.
func (g *Service) CreateSession(ctx context.Context, roomID, quizID string) (*Session, error) {
	quiz, err := g.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	session := NewSession(uuid.NewString(), roomID, normalizeQuiz(quiz))
	g.sessions.Put(session)
	return session, nil
}

// Start activates a session and broadcasts the first question.
func (g *Service) Start(ctx context.Context, sessionID string) error {
	session, ok := g.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	first, err := session.startLocked()
	if err != nil {
		return err
	}

	g.gateway.Broadcast(ctx, session.roomID, domain.GameStarted{
		SessionID:      session.id,
		StartedAt:      session.startedAt,
		TotalQuestions: len(session.quiz.Questions),
	})
	g.broadcastQuestionLocked(ctx, session, first)

	log.Printf("game %s started in room %s", session.id, session.roomID)
	return nil
}

// SubmitAnswer records an answer at most once per (player, question,
// session), scores it, updates the leaderboard, and broadcasts the
// submission plus the fresh leaderboard. Late submissions are accepted
// until the advance command fires; there is no deadline check here.
func (g *Service) SubmitAnswer(ctx context.Context, playerID, sessionID, questionID, choiceID string, timeTaken float64) (*domain.Answer, error) {
	session, ok := g.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	username, err := g.roster.Username(ctx, playerID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	answer, err := session.submitLocked(playerID, username, questionID, choiceID, timeTaken)
	if err != nil {
		return nil, err
	}

	g.gateway.Broadcast(ctx, session.roomID, domain.AnswerSubmitted{
		PlayerID:   playerID,
		Username:   username,
		QuestionID: questionID,
		TimeTaken:  timeTaken,
	})
	g.gateway.Broadcast(ctx, session.roomID, domain.LeaderboardUpdated{
		SessionID: session.id,
		Entries:   session.board.snapshot(),
	})
	return answer, nil
}

// AdvanceQuestion reveals the finished question's correct choice and either
// starts the next question or, after the last one, ends the game.
func (g *Service) AdvanceQuestion(ctx context.Context, sessionID string) error {
	session, ok := g.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	finished, next, done, err := session.advanceLocked()
	if err != nil {
		return err
	}

	reveal := domain.QuestionEnded{QuestionID: finished.ID}
	if correct, ok := correctChoiceOf(finished); ok {
		reveal.CorrectChoiceID = correct.ID
		reveal.CorrectChoiceText = correct.Text
	}
	g.gateway.Broadcast(ctx, session.roomID, reveal)

	if done {
		_, err := g.endLocked(ctx, session)
		return err
	}

	g.broadcastQuestionLocked(ctx, session, next)
	log.Printf("game %s moved to question %d", session.id, session.currentQuestion)
	return nil
}

// End finishes a session and produces its game record. Ending an already
// ended session is an idempotent no-op that returns the existing record.
func (g *Service) End(ctx context.Context, sessionID string) (*domain.GameRecord, error) {
	session, ok := g.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.status == domain.StatusEnded {
		log.Printf("game %s already ended, ignoring end command", session.id)
		return session.record, nil
	}

	return g.endLocked(ctx, session)
}

// Leaderboard returns a consistent snapshot of the session's ranking.
func (g *Service) Leaderboard(ctx context.Context, sessionID string) ([]domain.LeaderboardEntry, error) {
	session, ok := g.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session.Snapshot(), nil
}

func (g *Service) endLocked(ctx context.Context, session *Session) (*domain.GameRecord, error) {
	totalPlayers, err := g.roster.PlayerCount(ctx, session.roomID)
	if err != nil {
		return nil, fmt.Errorf("count players: %w", err)
	}

	record := session.endLocked(totalPlayers)
	if err := g.records.SaveRecord(ctx, record); err != nil {
		// The session is ended and the record lives on it; persistence is
		// the collaborator's problem and the caller may retry via the store.
		log.Printf("save record for game %s failed: %v", session.id, err)
	}

	g.gateway.Broadcast(ctx, session.roomID, domain.GameEnded{
		SessionID:        session.id,
		EndedAt:          session.endedAt,
		FinalLeaderboard: record.FinalLeaderboard,
		Statistics:       record.Statistics,
	})

	log.Printf("game %s ended, %d players, winner %q", session.id, totalPlayers, record.WinnerPlayerID)
	return record, nil
}

func (g *Service) broadcastQuestionLocked(ctx context.Context, session *Session, q domain.Question) {
	choices := make([]domain.QuestionChoice, 0, len(q.Choices))
	for _, c := range q.Choices {
		choices = append(choices, domain.QuestionChoice{ID: c.ID, Text: c.Text, Order: c.Order})
	}
	g.gateway.Broadcast(ctx, session.roomID, domain.QuestionStarted{
		QuestionNumber: session.currentQuestion,
		QuestionID:     q.ID,
		Text:           q.Text,
		TimeLimit:      timeLimitOf(q),
		EndTime:        session.questionDeadline,
		Choices:        choices,
	})
}

// normalizeQuiz sorts questions and choices by their order keys, ties
// broken by id, so 1-based question numbers are stable.
func normalizeQuiz(quiz domain.Quiz) domain.Quiz {
	sort.SliceStable(quiz.Questions, func(i, j int) bool {
		if quiz.Questions[i].Order != quiz.Questions[j].Order {
			return quiz.Questions[i].Order < quiz.Questions[j].Order
		}
		return quiz.Questions[i].ID < quiz.Questions[j].ID
	})
	for qi := range quiz.Questions {
		choices := quiz.Questions[qi].Choices
		sort.SliceStable(choices, func(i, j int) bool {
			if choices[i].Order != choices[j].Order {
				return choices[i].Order < choices[j].Order
			}
			return choices[i].ID < choices[j].ID
		})
	}
	return quiz
}
