package memory

import (
	"context"
	"errors"
	"testing"

	"ffquiz-service/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	if _, err := store.Load(ctx, "u1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	selected := 2
	if err := store.Save(ctx, domain.SessionRecord{UserID: "u1", QuizID: "weapons-awm", Selected: &selected}); err != nil {
		t.Fatalf("save: %v", err)
	}
	selected = 3 // caller mutation must not leak into the store

	rec, err := store.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec.QuizID != "weapons-awm" || rec.Selected == nil || *rec.Selected != 2 {
		t.Fatalf("unexpected record %+v", rec)
	}

	if err := store.Delete(ctx, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Load(ctx, "u1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session removed, got %v", err)
	}
}
