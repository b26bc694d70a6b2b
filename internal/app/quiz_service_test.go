package app_test

import (
	"context"
	"errors"
	"testing"

	"ffquiz-service/internal/domain"
)

func TestScenarioAllCorrectPasses(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createUser(t, "u1", 0)

	view := f.play(t, "u1", alokQuiz, alokAnswers)
	if view.Status != domain.SessionFinished || view.Score != 5 || view.TotalQuestions != 5 {
		t.Fatalf("expected finished 5/5, got %+v", view)
	}
	if view.Passed == nil || !*view.Passed || view.Saved {
		t.Fatalf("expected passed and not yet saved, got %+v", view)
	}

	result, err := f.service.Settle(ctx, "u1")
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if !result.Passed || result.CoinsEarned != 50 || result.NewBalance != 50 {
		t.Fatalf("unexpected result %+v", result)
	}

	p, _ := f.profiles.Get(ctx, "u1")
	if len(p.CompletedQuizzes) != 1 || p.QuizzesCompleted != 1 || p.TotalCoins != 50 {
		t.Fatalf("unexpected profile %+v", p)
	}
	if p.CompletedQuizzes[0].Score != 5 || p.CompletedQuizzes[0].TotalQuestions != 5 {
		t.Fatalf("unexpected attempt %+v", p.CompletedQuizzes[0])
	}

	current, err := f.service.Current(ctx, "u1")
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if !current.Saved || current.Result == nil || current.Result.CoinsEarned != 50 {
		t.Fatalf("expected saved session with result, got %+v", current)
	}
}

func TestScenarioTwoCorrectFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createUser(t, "u1", 0)

	view := f.play(t, "u1", alokQuiz, withWrong(alokAnswers, 3))
	if view.Score != 2 || view.Passed == nil || *view.Passed {
		t.Fatalf("expected failing score 2, got %+v", view)
	}

	result, err := f.service.Settle(ctx, "u1")
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if result.Passed || result.CoinsEarned != 0 || result.NewBalance != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	p, _ := f.profiles.Get(ctx, "u1")
	if len(p.CompletedQuizzes) != 1 || p.CompletedQuizzes[0].CoinsEarned != 0 {
		t.Fatalf("attempt must be recorded with zero coins, got %+v", p.CompletedQuizzes)
	}
}

func TestThresholdIsAbsolute(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createUser(t, "u1", 0)

	f.play(t, "u1", alokQuiz, withWrong(alokAnswers, 2))
	result, err := f.service.Settle(ctx, "u1")
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if !result.Passed {
		t.Fatalf("3/5 must pass")
	}
}

func TestAdvanceRequiresSelection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createUser(t, "u1", 0)

	before, err := f.service.Start(ctx, "u1", alokQuiz)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.service.Advance(ctx, "u1"); !errors.Is(err, domain.ErrNoSelection) {
		t.Fatalf("expected no selection error, got %v", err)
	}
	after, _ := f.service.Current(ctx, "u1")
	if after.QuestionIndex != before.QuestionIndex || after.Score != before.Score {
		t.Fatalf("state changed: before %+v after %+v", before, after)
	}

	if _, err := f.service.SelectAnswer(ctx, "u1", 4); !errors.Is(err, domain.ErrInvalidOption) {
		t.Fatalf("expected invalid option, got %v", err)
	}
}

func TestSettleTwiceReportsPriorAttempt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createUser(t, "u1", 0)
	f.play(t, "u1", alokQuiz, alokAnswers)

	if _, err := f.service.Settle(ctx, "u1"); err != nil {
		t.Fatalf("settle: %v", err)
	}
	_, err := f.service.Settle(ctx, "u1")
	var done *domain.AlreadyCompletedError
	if !errors.As(err, &done) {
		t.Fatalf("expected already completed, got %v", err)
	}
	if done.Attempt.Score != 5 || done.Attempt.CoinsEarned != 50 {
		t.Fatalf("expected prior attempt, got %+v", done.Attempt)
	}
	p, _ := f.profiles.Get(ctx, "u1")
	if p.TotalCoins != 50 || len(p.CompletedQuizzes) != 1 {
		t.Fatalf("second settle changed profile: %+v", p)
	}
}

func TestStartRejectsCompletedQuiz(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createUser(t, "u1", 0)
	f.play(t, "u1", alokQuiz, alokAnswers)
	if _, err := f.service.Settle(ctx, "u1"); err != nil {
		t.Fatalf("settle: %v", err)
	}

	if _, err := f.service.Start(ctx, "u1", alokQuiz); !errors.Is(err, domain.ErrAlreadyCompleted) {
		t.Fatalf("expected already completed, got %v", err)
	}
	if _, err := f.service.Start(ctx, "u1", "nope"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
}

func TestSettleFailureKeepsSessionForRetry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createUser(t, "u1", 0)
	f.play(t, "u1", alokQuiz, alokAnswers)

	f.profiles.failNext(1)
	_, err := f.service.Settle(ctx, "u1")
	var unavailable *domain.StoreUnavailableError
	if !errors.As(err, &unavailable) || !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store unavailable wrapping the cause, got %v", err)
	}

	view, err := f.service.Current(ctx, "u1")
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if view.Status != domain.SessionFinished || view.Saved || view.Score != 5 {
		t.Fatalf("expected finished unsaved session, got %+v", view)
	}

	result, err := f.service.Settle(ctx, "u1")
	if err != nil {
		t.Fatalf("retry settle: %v", err)
	}
	if result.NewBalance != 50 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestSettleIgnoresCallerCancellation(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "u1", 0)
	f.play(t, "u1", alokQuiz, alokAnswers)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := f.service.Settle(ctx, "u1")
	if err != nil {
		t.Fatalf("settle on canceled context: %v", err)
	}
	if result.CoinsEarned != 50 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestSettleRequiresFinishedSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createUser(t, "u1", 0)

	if _, err := f.service.Settle(ctx, "u1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
	if _, err := f.service.Start(ctx, "u1", alokQuiz); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.service.Settle(ctx, "u1"); !errors.Is(err, domain.ErrSessionInProgress) {
		t.Fatalf("expected in progress, got %v", err)
	}
}

func TestAbandonDiscardsSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createUser(t, "u1", 0)
	f.play(t, "u1", alokQuiz, alokAnswers[:2])

	if err := f.service.Abandon(ctx, "u1"); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if _, err := f.service.Current(ctx, "u1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected no session, got %v", err)
	}
	p, _ := f.profiles.Get(ctx, "u1")
	if len(p.CompletedQuizzes) != 0 {
		t.Fatalf("abandoned attempt left a trace: %+v", p.CompletedQuizzes)
	}
}

func TestOperationsRequireAuthentication(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.service.Start(ctx, "", alokQuiz); !errors.Is(err, domain.ErrAuthenticationRequired) {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.service.Settle(ctx, ""); !errors.Is(err, domain.ErrAuthenticationRequired) {
		t.Fatalf("settle: %v", err)
	}
	if _, err := f.settlement.Settle(ctx, "", alokQuiz, 5, 5); !errors.Is(err, domain.ErrAuthenticationRequired) {
		t.Fatalf("settlement: %v", err)
	}
	if _, err := f.redemption.Redeem(ctx, "", 0); !errors.Is(err, domain.ErrAuthenticationRequired) {
		t.Fatalf("redeem: %v", err)
	}
}

func TestCurrentHidesAnswerKey(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createUser(t, "u1", 0)

	view, err := f.service.Start(ctx, "u1", alokQuiz)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if view.Question == nil || view.Question.Number != 1 || len(view.Question.Options) != 4 {
		t.Fatalf("unexpected question view %+v", view.Question)
	}
	if view.Question.Options[0].Label != "A" || view.Question.Options[0].Text != "Drop the Beat" {
		t.Fatalf("unexpected options %+v", view.Question.Options)
	}
	if view.Progress != 0 {
		t.Fatalf("expected zero progress, got %v", view.Progress)
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createUser(t, "u1", 0)

	ch, cancel, err := f.board.Subscribe(ctx, domain.FieldTotalCoins)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer cancel()

	initial := <-ch // initial snapshot
	if len(initial.Entries) != 0 {
		t.Fatalf("zero balances must be filtered, got %+v", initial.Entries)
	}

	f.play(t, "u1", alokQuiz, alokAnswers)
	if _, err := f.service.Settle(ctx, "u1"); err != nil {
		t.Fatalf("settle failed: %v", err)
	}

	update := <-ch
	if len(update.Entries) != 1 || update.Entries[0].TotalCoins != 50 || update.Entries[0].Rank != 1 {
		t.Fatalf("expected updated balance 50, got %+v", update.Entries)
	}
}
