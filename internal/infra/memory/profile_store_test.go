package memory

import (
	"context"
	"testing"

	"ffquiz-service/internal/app"
	"ffquiz-service/internal/domain"
	"ffquiz-service/internal/infra/storetest"
)

func TestProfileStore(t *testing.T) {
	storetest.RunProfileStore(t, func(t *testing.T) app.ProfileStore {
		return NewProfileStore()
	})
}

func TestProfileStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewProfileStore()
	if _, err := store.Create(ctx, storetest.Profile("u1", "A")); err != nil {
		t.Fatalf("create: %v", err)
	}

	p, _ := store.Get(ctx, "u1")
	p.CompletedQuizzes = append(p.CompletedQuizzes, domain.CompletedAttempt{QuizID: "x"})
	p.TotalCoins = 1000

	again, _ := store.Get(ctx, "u1")
	if again.TotalCoins != 0 || len(again.CompletedQuizzes) != 0 {
		t.Fatalf("store leaked a writable reference: %+v", again)
	}
}
