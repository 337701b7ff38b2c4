package game

import (
	"sort"

	"trivia-game-service/internal/domain"
)

// leaderboard holds the per-player aggregates for one session. It is not
// safe for concurrent use on its own; every call happens under the owning
// session's mutex, which is also what keeps scores and ranks consistent
// for readers.
type leaderboard struct {
	entries map[string]*domain.LeaderboardEntry
	ranked  []*domain.LeaderboardEntry
}

func newLeaderboard() *leaderboard {
	return &leaderboard{
		entries: make(map[string]*domain.LeaderboardEntry),
	}
}

// apply folds one accepted answer into the player's aggregate and recomputes
// ranks for the whole session.
func (l *leaderboard) apply(playerID, username string, points int, correct bool) {
	entry, ok := l.entries[playerID]
	if !ok {
		entry = &domain.LeaderboardEntry{
			PlayerID: playerID,
			Username: username,
		}
		l.entries[playerID] = entry
		l.ranked = append(l.ranked, entry)
	}

	entry.Username = username
	entry.Score += points
	entry.TotalAnswers++
	if correct {
		entry.CorrectAnswers++
	}

	l.rerank()
}

// rerank sorts entries by score descending and assigns ranks 1..N. Equal
// scores order by player id ascending so the ranking is deterministic.
func (l *leaderboard) rerank() {
	sort.Slice(l.ranked, func(i, j int) bool {
		if l.ranked[i].Score != l.ranked[j].Score {
			return l.ranked[i].Score > l.ranked[j].Score
		}
		return l.ranked[i].PlayerID < l.ranked[j].PlayerID
	})
	for i, entry := range l.ranked {
		entry.Rank = i + 1
	}
}

// playerCount is the number of players who have at least one accepted answer.
func (l *leaderboard) playerCount() int {
	return len(l.ranked)
}

// snapshot returns a copy of the ranked entries.
func (l *leaderboard) snapshot() []domain.LeaderboardEntry {
	out := make([]domain.LeaderboardEntry, 0, len(l.ranked))
	for _, entry := range l.ranked {
		out = append(out, *entry)
	}
	return out
}

// winner returns the rank-1 entry, or false when the board is empty.
func (l *leaderboard) winner() (domain.LeaderboardEntry, bool) {
	if len(l.ranked) == 0 {
		return domain.LeaderboardEntry{}, false
	}
	return *l.ranked[0], true
}

// statistics derives summary numbers from the current aggregates.
func (l *leaderboard) statistics() (average, highest, lowest int) {
	if len(l.ranked) == 0 {
		return 0, 0, 0
	}
	highest = l.ranked[0].Score
	lowest = l.ranked[len(l.ranked)-1].Score
	sum := 0
	for _, entry := range l.ranked {
		sum += entry.Score
	}
	return sum / len(l.ranked), highest, lowest
}
