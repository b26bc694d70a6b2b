// Package storetest holds behaviour checks shared by every app.ProfileStore.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"ffquiz-service/internal/app"
	"ffquiz-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunProfileStore exercises store semantics against a fresh store per subtest.
func RunProfileStore(t *testing.T, newStore func(t *testing.T) app.ProfileStore) {
	t.Run("create is idempotent", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		_, err := s.Get(ctx, "u1")
		require.True(t, errors.Is(err, domain.ErrProfileNotFound), "got %v", err)

		created, err := s.Create(ctx, Profile("u1", "Alok Fan"))
		require.NoError(t, err)
		assert.Equal(t, "Alok Fan", created.DisplayName)

		again, err := s.Create(ctx, Profile("u1", "Someone Else"))
		require.NoError(t, err)
		assert.Equal(t, "Alok Fan", again.DisplayName, "existing profile must be kept")
	})

	t.Run("unique game id and email", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		p := Profile("u1", "A")
		p.GameID = "111"
		p.Region = "ind"
		_, err := s.Create(ctx, p)
		require.NoError(t, err)

		q := Profile("u2", "B")
		q.GameID = "111"
		_, err = s.Create(ctx, q)
		assert.True(t, errors.Is(err, domain.ErrGameIDRegistered), "got %v", err)

		e := Profile("u3", "C")
		e.Email = "c@example.com"
		_, err = s.Create(ctx, e)
		require.NoError(t, err)
		f := Profile("u4", "D")
		f.Email = "c@example.com"
		_, err = s.Create(ctx, f)
		assert.True(t, errors.Is(err, domain.ErrEmailRegistered), "got %v", err)

		byGame, err := s.FindByGameID(ctx, "111")
		require.NoError(t, err)
		assert.Equal(t, "u1", byGame.UserID)
		assert.Equal(t, "ind", byGame.Region)

		byEmail, err := s.FindByEmail(ctx, "c@example.com")
		require.NoError(t, err)
		assert.Equal(t, "u3", byEmail.UserID)

		_, err = s.FindByGameID(ctx, "999")
		assert.True(t, errors.Is(err, domain.ErrProfileNotFound), "got %v", err)
		_, err = s.FindByEmail(ctx, "nobody@example.com")
		assert.True(t, errors.Is(err, domain.ErrProfileNotFound), "got %v", err)
	})

	t.Run("atomic update persists or aborts", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		_, err := s.Create(ctx, Profile("u1", "A"))
		require.NoError(t, err)

		updated, err := s.AtomicUpdate(ctx, "u1", func(p *domain.Profile) error {
			p.TotalCoins += 50
			p.QuizzesCompleted++
			p.CompletedQuizzes = append(p.CompletedQuizzes, domain.CompletedAttempt{ID: "a1", QuizID: "weapons-awm", Score: 4, TotalQuestions: 5, CoinsEarned: 50})
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 50, updated.TotalCoins)

		boom := errors.New("boom")
		_, err = s.AtomicUpdate(ctx, "u1", func(p *domain.Profile) error {
			p.TotalCoins = 9999
			return boom
		})
		assert.True(t, errors.Is(err, boom), "mutate error must be returned as is, got %v", err)

		got, err := s.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 50, got.TotalCoins)
		assert.Equal(t, 1, got.QuizzesCompleted)
		require.Len(t, got.CompletedQuizzes, 1)
		assert.Equal(t, "weapons-awm", got.CompletedQuizzes[0].QuizID)

		_, err = s.AtomicUpdate(ctx, "missing", func(*domain.Profile) error { return nil })
		assert.True(t, errors.Is(err, domain.ErrProfileNotFound), "got %v", err)
	})

	t.Run("concurrent duplicate settlement credits once", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		_, err := s.Create(ctx, Profile("u1", "A"))
		require.NoError(t, err)

		const workers = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
			rejected  int
		)
		start := make(chan struct{})
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				_, err := s.AtomicUpdate(ctx, "u1", func(p *domain.Profile) error {
					if prior, ok := p.Attempt("characters-dj-alok"); ok {
						return &domain.AlreadyCompletedError{Attempt: prior}
					}
					p.CompletedQuizzes = append(p.CompletedQuizzes, domain.CompletedAttempt{
						ID: fmt.Sprintf("a%d", i), QuizID: "characters-dj-alok", Score: 5, TotalQuestions: 5, CoinsEarned: 50,
					})
					p.QuizzesCompleted++
					p.TotalCoins += 50
					return nil
				})
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					succeeded++
				case errors.Is(err, domain.ErrAlreadyCompleted):
					rejected++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}(i)
		}
		close(start)
		wg.Wait()

		assert.Equal(t, 1, succeeded)
		assert.Equal(t, workers-1, rejected)
		got, err := s.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 50, got.TotalCoins)
		assert.Equal(t, 1, got.QuizzesCompleted)
		assert.Len(t, got.CompletedQuizzes, 1)
	})

	t.Run("top by field", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		for i, coins := range []int{100, 300, 0, 200} {
			id := fmt.Sprintf("u%d", i)
			_, err := s.Create(ctx, Profile(id, id))
			require.NoError(t, err)
			_, err = s.AtomicUpdate(ctx, id, func(p *domain.Profile) error {
				p.TotalCoins = coins
				p.QuizzesCompleted = 4 - i
				return nil
			})
			require.NoError(t, err)
		}

		top, err := s.TopByField(ctx, domain.FieldTotalCoins, 2)
		require.NoError(t, err)
		require.Len(t, top, 2)
		assert.Equal(t, "u1", top[0].UserID)
		assert.Equal(t, "u3", top[1].UserID)

		byQuizzes, err := s.TopByField(ctx, domain.FieldQuizzesCompleted, 10)
		require.NoError(t, err)
		require.Len(t, byQuizzes, 4)
		assert.Equal(t, "u0", byQuizzes[0].UserID)
		assert.Equal(t, 4, byQuizzes[0].QuizzesCompleted)
	})
}

// Profile returns a zero-balance profile for tests.
func Profile(userID, name string) domain.Profile {
	now := time.Date(2024, 11, 22, 12, 0, 0, 0, time.UTC)
	return domain.Profile{
		UserID:           userID,
		DisplayName:      name,
		CompletedQuizzes: []domain.CompletedAttempt{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}
