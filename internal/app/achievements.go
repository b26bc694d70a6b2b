package app

import (
	"sort"

	"ffquiz-service/internal/domain"
)

type milestone struct {
	id, title, description string
	requirement            int
	progress               func(domain.Profile) int
}

func quizzesDone(p domain.Profile) int { return p.QuizzesCompleted }
func coinsHeld(p domain.Profile) int   { return p.TotalCoins }

func perfectScores(p domain.Profile) int {
	n := 0
	for _, a := range p.CompletedQuizzes {
		if a.Perfect() {
			n++
		}
	}
	return n
}

// passStreak is the longest run of passed attempts in completion order.
// An attempt counts as passed when it earned coins.
func passStreak(p domain.Profile) int {
	attempts := append([]domain.CompletedAttempt(nil), p.CompletedQuizzes...)
	sort.SliceStable(attempts, func(i, j int) bool {
		return attempts[i].CompletedAt.Before(attempts[j].CompletedAt)
	})
	best, run := 0, 0
	for _, a := range attempts {
		if a.CoinsEarned == 0 {
			run = 0
			continue
		}
		run++
		if run > best {
			best = run
		}
	}
	return best
}

var milestones = []milestone{
	{"first-quiz", "First Steps", "Complete your first quiz", 1, quizzesDone},
	{"quiz-master-5", "Quiz Enthusiast", "Complete 5 quizzes", 5, quizzesDone},
	{"quiz-master-10", "Quiz Expert", "Complete 10 quizzes", 10, quizzesDone},
	{"quiz-master-25", "Quiz Master", "Complete 25 quizzes", 25, quizzesDone},
	{"coin-collector-100", "Coin Collector", "Earn 100 coins", 100, coinsHeld},
	{"coin-collector-500", "Wealthy Player", "Earn 500 coins", 500, coinsHeld},
	{"coin-collector-1000", "Coin Millionaire", "Earn 1,000 coins", 1000, coinsHeld},
	{"perfect-score", "Perfect Score", "Get 100% on any quiz", 1, perfectScores},
	{"streak-3", "On a Roll", "Pass 3 quizzes in a row", 3, passStreak},
}

// Achievements derives milestone progress from the profile alone.
func Achievements(p domain.Profile) []domain.Achievement {
	out := make([]domain.Achievement, 0, len(milestones))
	for _, m := range milestones {
		current := m.progress(p)
		out = append(out, domain.Achievement{
			ID:          m.id,
			Title:       m.title,
			Description: m.description,
			Requirement: m.requirement,
			Current:     current,
			Unlocked:    current >= m.requirement,
		})
	}
	return out
}
