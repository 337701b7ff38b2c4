package domain

import "time"

// Event is a broadcast payload addressed to all members of a room.
type Event interface {
	Name() string
}

const (
	EventNameGameStarted        = "gameStarted"
	EventNameQuestionStarted    = "questionStarted"
	EventNameAnswerSubmitted    = "answerSubmitted"
	EventNameLeaderboardUpdated = "leaderboardUpdated"
	EventNameQuestionEnded      = "questionEnded"
	EventNameGameEnded          = "gameEnded"
	EventNamePlayerJoined       = "playerJoined"
	EventNamePlayerLeft         = "playerLeft"
	EventNamePlayerReadyChanged = "playerReadyChanged"
)

type GameStarted struct {
	SessionID      string    `json:"sessionId"`
	StartedAt      time.Time `json:"startedAt"`
	TotalQuestions int       `json:"totalQuestions"`
}

func (GameStarted) Name() string { return EventNameGameStarted }

// QuestionChoice is a choice as shown to players, with the correctness flag
// stripped.
type QuestionChoice struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Order int    `json:"order"`
}

type QuestionStarted struct {
	QuestionNumber int              `json:"questionNumber"`
	QuestionID     string           `json:"questionId"`
	Text           string           `json:"text"`
	TimeLimit      int              `json:"timeLimit"`
	EndTime        time.Time        `json:"endTime"`
	Choices        []QuestionChoice `json:"choices"`
}

func (QuestionStarted) Name() string { return EventNameQuestionStarted }

type AnswerSubmitted struct {
	PlayerID   string  `json:"playerId"`
	Username   string  `json:"username"`
	QuestionID string  `json:"questionId"`
	TimeTaken  float64 `json:"timeTaken"`
}

func (AnswerSubmitted) Name() string { return EventNameAnswerSubmitted }

type LeaderboardUpdated struct {
	SessionID string             `json:"sessionId"`
	Entries   []LeaderboardEntry `json:"entries"`
}

func (LeaderboardUpdated) Name() string { return EventNameLeaderboardUpdated }

type QuestionEnded struct {
	QuestionID        string `json:"questionId"`
	CorrectChoiceID   string `json:"correctChoiceId"`
	CorrectChoiceText string `json:"correctChoiceText"`
}

func (QuestionEnded) Name() string { return EventNameQuestionEnded }

type GameEnded struct {
	SessionID        string             `json:"sessionId"`
	EndedAt          time.Time          `json:"endedAt"`
	FinalLeaderboard []LeaderboardEntry `json:"finalLeaderboard"`
	Statistics       GameStatistics     `json:"statistics"`
}

func (GameEnded) Name() string { return EventNameGameEnded }

type PlayerJoined struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
	Ready    bool   `json:"ready"`
}

func (PlayerJoined) Name() string { return EventNamePlayerJoined }

type PlayerLeft struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
}

func (PlayerLeft) Name() string { return EventNamePlayerLeft }

type PlayerReadyChanged struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
	Ready    bool   `json:"ready"`
}

func (PlayerReadyChanged) Name() string { return EventNamePlayerReadyChanged }
