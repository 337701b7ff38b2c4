package game

import (
	"sync"
	"time"

	"trivia-game-service/internal/domain"
	"trivia-game-service/internal/scoring"
)

const defaultTimeLimit = 30

// Session is one playthrough of a quiz in a room. It owns the lifecycle
// state, the current-question pointer, the answer ledger, and the
// leaderboard. All mutations for a session go through its mutex, so each
// session forms its own exclusion domain while independent sessions run
// fully in parallel.
type Session struct {
	id     string
	roomID string
	quiz   domain.Quiz

	mu               sync.Mutex
	status           domain.GameStatus
	currentQuestion  int // 1-based, 0 while not started
	questionDeadline time.Time
	createdAt        time.Time
	startedAt        time.Time
	endedAt          time.Time

	ledger *answerLedger
	board  *leaderboard
	record *domain.GameRecord

	now func() time.Time
}

// NewSession is exported for stores that need to seed sessions.
func NewSession(id, roomID string, quiz domain.Quiz) *Session {
	return newSessionWithClock(id, roomID, quiz, time.Now)
}

// NewSessionWithClock is test-only for deterministic timestamps.
func NewSessionWithClock(id, roomID string, quiz domain.Quiz, now func() time.Time) *Session {
	return newSessionWithClock(id, roomID, quiz, now)
}

func newSessionWithClock(id, roomID string, quiz domain.Quiz, now func() time.Time) *Session {
	return &Session{
		id:        id,
		roomID:    roomID,
		quiz:      quiz,
		status:    domain.StatusNotStarted,
		createdAt: now(),
		ledger:    newAnswerLedger(),
		board:     newLeaderboard(),
		now:       now,
	}
}

func (s *Session) ID() string     { return s.id }
func (s *Session) RoomID() string { return s.roomID }
func (s *Session) QuizID() string { return s.quiz.ID }

// Status returns the session's lifecycle state.
func (s *Session) Status() domain.GameStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Snapshot returns a consistent point-in-time view of the leaderboard,
// safe to call concurrently with submissions.
func (s *Session) Snapshot() []domain.LeaderboardEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.snapshot()
}

// Record returns the game record once the session has ended.
func (s *Session) Record() (*domain.GameRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record == nil {
		return nil, false
	}
	return s.record, true
}

// questionByNumber returns the question at the given 1-based position in
// quiz order. Questions are sorted by order key at session creation.
func (s *Session) questionByNumber(n int) (domain.Question, bool) {
	if n < 1 || n > len(s.quiz.Questions) {
		return domain.Question{}, false
	}
	return s.quiz.Questions[n-1], true
}

// timeLimitOf normalizes a question's time limit.
func timeLimitOf(q domain.Question) int {
	if q.TimeLimit <= 0 {
		return defaultTimeLimit
	}
	return q.TimeLimit
}

// startLocked transitions NotStarted -> Active and points at question 1.
func (s *Session) startLocked() (domain.Question, error) {
	if s.status == domain.StatusEnded {
		return domain.Question{}, domain.ErrAlreadyEnded
	}
	if s.status != domain.StatusNotStarted {
		return domain.Question{}, domain.ErrAlreadyStarted
	}
	if len(s.quiz.Questions) == 0 {
		return domain.Question{}, domain.ErrNoQuestions
	}

	first, _ := s.questionByNumber(1)
	now := s.now()
	s.status = domain.StatusActive
	s.startedAt = now
	s.currentQuestion = 1
	s.questionDeadline = now.Add(time.Duration(timeLimitOf(first)) * time.Second)
	return first, nil
}

// submitLocked validates and records one answer, routing accepted answers
// into the scoring engine and the leaderboard. Precondition order: session
// active, question is current, not a duplicate, choice belongs to question.
func (s *Session) submitLocked(playerID, username, questionID, choiceID string, timeTaken float64) (*domain.Answer, error) {
	if s.status != domain.StatusActive {
		return nil, domain.ErrSessionNotActive
	}

	current, ok := s.questionByNumber(s.currentQuestion)
	if !ok || current.ID != questionID {
		return nil, domain.ErrQuestionMismatch
	}

	if s.ledger.has(playerID, questionID) {
		return nil, domain.ErrDuplicateAnswer
	}

	var choice *domain.Choice
	for i := range current.Choices {
		if current.Choices[i].ID == choiceID {
			choice = &current.Choices[i]
			break
		}
	}
	if choice == nil {
		return nil, domain.ErrInvalidChoice
	}

	points := scoring.ComputePoints(choice.Correct, timeTaken, timeLimitOf(current))
	answer := &domain.Answer{
		PlayerID:   playerID,
		SessionID:  s.id,
		QuestionID: questionID,
		ChoiceID:   choiceID,
		TimeTaken:  timeTaken,
		Correct:    choice.Correct,
		Points:     points,
		AnsweredAt: s.now(),
	}
	if err := s.ledger.record(answer); err != nil {
		return nil, err
	}
	s.board.apply(playerID, username, points, choice.Correct)
	return answer, nil
}

// advanceLocked closes the current question. It returns the finished
// question and, when more remain, the next one with done=false. When the
// finished question was the last, done=true and the caller ends the game.
func (s *Session) advanceLocked() (finished, next domain.Question, done bool, err error) {
	if s.status != domain.StatusActive {
		return domain.Question{}, domain.Question{}, false, domain.ErrSessionNotActive
	}

	finished, _ = s.questionByNumber(s.currentQuestion)
	if s.currentQuestion >= len(s.quiz.Questions) {
		return finished, domain.Question{}, true, nil
	}

	s.currentQuestion++
	next, _ = s.questionByNumber(s.currentQuestion)
	s.questionDeadline = s.now().Add(time.Duration(timeLimitOf(next)) * time.Second)
	return finished, next, false, nil
}

// endLocked transitions to Ended and builds the immutable game record.
// totalPlayers comes from the roster, everything else from the session's
// own ledger and leaderboard.
func (s *Session) endLocked(totalPlayers int) *domain.GameRecord {
	now := s.now()
	s.status = domain.StatusEnded
	s.endedAt = now
	s.questionDeadline = time.Time{}

	startedAt := s.startedAt
	if startedAt.IsZero() {
		startedAt = s.createdAt
	}

	average, highest, lowest := s.board.statistics()
	record := &domain.GameRecord{
		SessionID:        s.id,
		QuizID:           s.quiz.ID,
		TotalPlayers:     totalPlayers,
		DurationSeconds:  int(now.Sub(startedAt).Seconds()),
		FinalLeaderboard: s.board.snapshot(),
		Statistics: domain.GameStatistics{
			TotalPlayers:   s.board.playerCount(),
			TotalQuestions: s.ledger.distinctQuestions(),
			AverageScore:   average,
			HighestScore:   highest,
			LowestScore:    lowest,
		},
		CreatedAt: now,
	}
	if winner, ok := s.board.winner(); ok {
		record.WinnerPlayerID = winner.PlayerID
	}
	s.record = record
	return record
}

// correctChoiceOf returns the choice flagged correct for a question.
func correctChoiceOf(q domain.Question) (domain.Choice, bool) {
	for _, c := range q.Choices {
		if c.Correct {
			return c, true
		}
	}
	return domain.Choice{}, false
}
