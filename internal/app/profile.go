package app

import (
	"context"
	"sort"

	"ffquiz-service/internal/domain"
)

// ProfileStore owns every profile and serializes concurrent mutation.
type ProfileStore interface {
	// Get returns domain.ErrProfileNotFound when absent.
	Get(ctx context.Context, userID string) (domain.Profile, error)
	// Create stores p unless a profile for p.UserID exists, in which case the
	// existing profile is returned unchanged.
	Create(ctx context.Context, p domain.Profile) (domain.Profile, error)
	// AtomicUpdate applies mutate to the current profile and persists the
	// result as one write. If mutate returns an error nothing is written and
	// that error is returned.
	AtomicUpdate(ctx context.Context, userID string, mutate func(*domain.Profile) error) (domain.Profile, error)
	// TopByField returns profiles ordered by field descending.
	TopByField(ctx context.Context, field domain.ProfileField, limit int) ([]domain.Profile, error)
	FindByGameID(ctx context.Context, gameID string) (domain.Profile, error)
	FindByEmail(ctx context.Context, email string) (domain.Profile, error)
}

// ProfileService serves the read-only profile pages.
type ProfileService struct {
	profiles ProfileStore
	catalog  Catalog
}

func NewProfileService(profiles ProfileStore, catalog Catalog) *ProfileService {
	return &ProfileService{profiles: profiles, catalog: catalog}
}

func (s *ProfileService) Profile(ctx context.Context, userID string) (domain.Profile, error) {
	if userID == "" {
		return domain.Profile{}, domain.ErrAuthenticationRequired
	}
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return domain.Profile{}, storeError("profile", err)
	}
	return p, nil
}

// History lists completed attempts newest first, with the total coins they
// earned. Attempts for quizzes no longer in the catalog are skipped.
func (s *ProfileService) History(ctx context.Context, userID string) ([]domain.HistoryEntry, int, error) {
	p, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	entries := make([]domain.HistoryEntry, 0, len(p.CompletedQuizzes))
	total := 0
	for _, a := range p.CompletedQuizzes {
		quiz, err := s.catalog.Quiz(a.QuizID)
		if err != nil {
			continue
		}
		entries = append(entries, domain.HistoryEntry{CompletedAttempt: a, QuizTitle: quiz.Title, Category: quiz.Category})
		total += a.CoinsEarned
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CompletedAt.After(entries[j].CompletedAt)
	})
	return entries, total, nil
}

// Achievements evaluates the milestone list for the user.
func (s *ProfileService) Achievements(ctx context.Context, userID string) ([]domain.Achievement, error) {
	p, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Achievements(p), nil
}
