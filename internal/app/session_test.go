package app

import (
	"errors"
	"math/rand"
	"strconv"
	"testing"
	"testing/quick"
	"time"

	"ffquiz-service/internal/domain"
)

func testQuiz(answers ...int) domain.Quiz {
	q := domain.Quiz{ID: "weapons-test", Title: "Test", Category: domain.CategoryWeapons}
	for i, a := range answers {
		q.Questions = append(q.Questions, domain.Question{
			ID:      strconv.Itoa(i + 1),
			Prompt:  "q",
			Options: [domain.OptionCount]string{"a", "b", "c", "d"},
			Correct: a,
		})
	}
	return q
}

func TestSessionScoreMatchesCorrectSelections(t *testing.T) {
	quiz := testQuiz(0, 1, 2, 3, 0, 1, 2)
	check := func(seed int64) bool {
		rnd := rand.New(rand.NewSource(seed))
		s := NewSession("u1", quiz, time.Unix(0, 0))
		want := 0
		for i, q := range quiz.Questions {
			if s.Score() > i || s.Score() < 0 {
				return false
			}
			// Change the mind a few times; only the last pick counts.
			var pick int
			for n := rnd.Intn(3) + 1; n > 0; n-- {
				pick = rnd.Intn(domain.OptionCount)
				if err := s.SelectAnswer(pick); err != nil {
					return false
				}
			}
			if pick == q.Correct {
				want++
			}
			if err := s.Advance(); err != nil {
				return false
			}
		}
		return s.Finished() && s.Score() == want && s.Record().QuestionIndex == len(quiz.Questions)
	}
	if err := quick.Check(check, &quick.Config{MaxCount: 200}); err != nil {
		t.Fatal(err)
	}
}

func TestSessionRejectsInputAfterFinish(t *testing.T) {
	s := NewSession("u1", testQuiz(2), time.Unix(0, 0))
	if err := s.SelectAnswer(2); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := s.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if !s.Finished() || s.Score() != 1 {
		t.Fatalf("expected finished with score 1, got %+v", s.Record())
	}
	if err := s.SelectAnswer(0); !errors.Is(err, domain.ErrSessionFinished) {
		t.Fatalf("expected finished error, got %v", err)
	}
	if err := s.Advance(); !errors.Is(err, domain.ErrSessionFinished) {
		t.Fatalf("expected finished error, got %v", err)
	}

	view := s.View(1)
	if view.Question != nil || view.Passed == nil || !*view.Passed || view.Progress != 1 {
		t.Fatalf("unexpected finished view %+v", view)
	}
}

func TestRestoreSessionValidatesRecord(t *testing.T) {
	quiz := testQuiz(0, 1)
	cases := map[string]domain.SessionRecord{
		"other quiz":     {QuizID: "pets-other"},
		"score too high": {QuizID: quiz.ID, Score: 3},
		"index past end": {QuizID: quiz.ID, QuestionIndex: 3},
		"unfinished end": {QuizID: quiz.ID, QuestionIndex: 2},
	}
	for name, rec := range cases {
		if _, err := RestoreSession(rec, quiz); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}

	s, err := RestoreSession(domain.SessionRecord{QuizID: quiz.ID, QuestionIndex: 2, Score: 2, Finished: true}, quiz)
	if err != nil {
		t.Fatalf("restore finished: %v", err)
	}
	if !s.Finished() || s.Score() != 2 {
		t.Fatalf("unexpected restored session %+v", s.Record())
	}
}

func TestRecordDoesNotAliasSelection(t *testing.T) {
	s := NewSession("u1", testQuiz(1, 1), time.Unix(0, 0))
	_ = s.SelectAnswer(1)
	rec := s.Record()
	*rec.Selected = 3
	if got := *s.Record().Selected; got != 1 {
		t.Fatalf("selection leaked through record copy: %d", got)
	}
}

func TestStoreErrorKeepsDomainErrors(t *testing.T) {
	if err := storeError("op", domain.ErrQuizNotFound); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("domain error was rewrapped: %v", err)
	}
	cause := errors.New("dial tcp: refused")
	err := storeError("op", cause)
	var unavailable *domain.StoreUnavailableError
	if !errors.As(err, &unavailable) || unavailable.Op != "op" || !errors.Is(err, cause) {
		t.Fatalf("expected store unavailable wrapping cause, got %v", err)
	}
	if storeError("op", nil) != nil {
		t.Fatalf("nil must stay nil")
	}
}
