package domain

import "time"

// GameStatus is the lifecycle state of a game session.
type GameStatus string

const (
	StatusNotStarted GameStatus = "not_started"
	StatusActive     GameStatus = "active"
	StatusEnded      GameStatus = "ended"
)

// Choice is one possible answer for a question. Correct is never sent to
// players before the question ends.
type Choice struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Order   int    `json:"order"`
	Correct bool   `json:"correct"`
}

// Question models an MCQ question with exactly one correct choice.
type Question struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	Order     int      `json:"order"`
	TimeLimit int      `json:"timeLimit"` // seconds, defaults to 30 if zero
	Choices   []Choice `json:"choices"`
}

// Quiz is an ordered collection of questions.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Answer is the immutable record of one accepted submission. At most one
// exists per (player, question, session).
type Answer struct {
	PlayerID   string
	SessionID  string
	QuestionID string
	ChoiceID   string
	TimeTaken  float64
	Correct    bool
	Points     int
	AnsweredAt time.Time
}

// LeaderboardEntry is the per-player aggregate for one session. Rank is
// derived from Score and never set directly.
type LeaderboardEntry struct {
	PlayerID       string `json:"playerId"`
	Username       string `json:"username"`
	Score          int    `json:"score"`
	Rank           int    `json:"rank"`
	CorrectAnswers int    `json:"correctAnswers"`
	TotalAnswers   int    `json:"totalAnswers"`
}

// GameStatistics summarizes a finished game.
type GameStatistics struct {
	TotalPlayers   int `json:"totalPlayers"`
	TotalQuestions int `json:"totalQuestions"`
	AverageScore   int `json:"averageScore"`
	HighestScore   int `json:"highestScore"`
	LowestScore    int `json:"lowestScore"`
}

// GameRecord is the terminal snapshot written once when a session ends.
type GameRecord struct {
	SessionID        string             `json:"sessionId"`
	QuizID           string             `json:"quizId"`
	WinnerPlayerID   string             `json:"winnerPlayerId,omitempty"`
	TotalPlayers     int                `json:"totalPlayers"`
	DurationSeconds  int                `json:"durationSeconds"`
	FinalLeaderboard []LeaderboardEntry `json:"finalLeaderboard"`
	Statistics       GameStatistics     `json:"statistics"`
	CreatedAt        time.Time          `json:"createdAt"`
}

// Player is a roster member of a room.
type Player struct {
	ID        string `json:"id"`
	RoomID    string `json:"roomId"`
	Username  string `json:"username"`
	Ready     bool   `json:"ready"`
	Connected bool   `json:"connected"`
}
