package app

import (
	"context"
	"fmt"
	"time"

	"ffquiz-service/internal/domain"
	"github.com/google/uuid"
)

// Settlement records finished sessions and credits coins exactly once per
// (user, quiz).
type Settlement struct {
	profiles      ProfileStore
	catalog       Catalog
	coinsPerQuiz  int
	passThreshold int
	now           func() time.Time
}

func NewSettlement(profiles ProfileStore, catalog Catalog, coinsPerQuiz, passThreshold int) *Settlement {
	return &Settlement{
		profiles:      profiles,
		catalog:       catalog,
		coinsPerQuiz:  coinsPerQuiz,
		passThreshold: passThreshold,
		now:           time.Now,
	}
}

// NewSettlementWithClock is test-only for deterministic timestamps.
func NewSettlementWithClock(profiles ProfileStore, catalog Catalog, coinsPerQuiz, passThreshold int, now func() time.Time) *Settlement {
	s := NewSettlement(profiles, catalog, coinsPerQuiz, passThreshold)
	s.now = now
	return s
}

// Threshold returns the pass mark for quiz.
func (s *Settlement) Threshold(quiz domain.Quiz) int {
	if quiz.PassThreshold > 0 {
		return quiz.PassThreshold
	}
	return s.passThreshold
}

// Settle appends the attempt, bumps the completed counter and credits coins
// in one atomic profile update. A prior attempt for quizID aborts the update
// with an AlreadyCompletedError carrying that attempt.
func (s *Settlement) Settle(ctx context.Context, userID, quizID string, finalScore, totalQuestions int) (domain.SettlementResult, error) {
	if userID == "" {
		return domain.SettlementResult{}, domain.ErrAuthenticationRequired
	}
	quiz, err := s.catalog.Quiz(quizID)
	if err != nil {
		return domain.SettlementResult{}, err
	}
	if finalScore < 0 || totalQuestions <= 0 || finalScore > totalQuestions {
		return domain.SettlementResult{}, fmt.Errorf("score %d/%d out of range", finalScore, totalQuestions)
	}

	passed := Passed(finalScore, s.Threshold(quiz))
	coins := 0
	if passed {
		coins = s.coinsPerQuiz
	}
	attempt := domain.CompletedAttempt{
		ID:             uuid.NewString(),
		QuizID:         quizID,
		Score:          finalScore,
		TotalQuestions: totalQuestions,
		CoinsEarned:    coins,
		CompletedAt:    s.now().UTC(),
	}

	profile, err := s.profiles.AtomicUpdate(ctx, userID, func(p *domain.Profile) error {
		if prior, ok := p.Attempt(quizID); ok {
			return &domain.AlreadyCompletedError{Attempt: prior}
		}
		p.CompletedQuizzes = append(p.CompletedQuizzes, attempt)
		p.QuizzesCompleted++
		p.TotalCoins += coins
		p.UpdatedAt = attempt.CompletedAt
		return nil
	})
	if err != nil {
		return domain.SettlementResult{}, storeError("settle", err)
	}
	return domain.SettlementResult{
		Passed:      passed,
		CoinsEarned: coins,
		NewBalance:  profile.TotalCoins,
		Attempt:     attempt,
	}, nil
}
