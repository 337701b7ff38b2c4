package game

import "trivia-game-service/internal/domain"

type answerKey struct {
	playerID   string
	questionID string
}

// answerLedger records accepted answers for one session and enforces
// at-most-one answer per (player, question). The duplicate check and the
// insert both run under the owning session's mutex, so two racing
// submissions for the same key resolve to exactly one accepted answer.
type answerLedger struct {
	answers map[answerKey]*domain.Answer
}

func newAnswerLedger() *answerLedger {
	return &answerLedger{
		answers: make(map[answerKey]*domain.Answer),
	}
}

func (l *answerLedger) record(answer *domain.Answer) error {
	key := answerKey{playerID: answer.PlayerID, questionID: answer.QuestionID}
	if _, exists := l.answers[key]; exists {
		return domain.ErrDuplicateAnswer
	}
	l.answers[key] = answer
	return nil
}

func (l *answerLedger) has(playerID, questionID string) bool {
	_, ok := l.answers[answerKey{playerID: playerID, questionID: questionID}]
	return ok
}

// distinctQuestions counts how many questions received at least one answer.
func (l *answerLedger) distinctQuestions() int {
	seen := make(map[string]struct{})
	for key := range l.answers {
		seen[key.questionID] = struct{}{}
	}
	return len(seen)
}

func (l *answerLedger) size() int {
	return len(l.answers)
}
