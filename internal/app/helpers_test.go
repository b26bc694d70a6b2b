package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ffquiz-service/internal/app"
	"ffquiz-service/internal/catalog"
	"ffquiz-service/internal/domain"
	"ffquiz-service/internal/infra/memory"
	"ffquiz-service/internal/infra/storetest"
)

const alokQuiz = "characters-dj-alok"

// alokAnswers is the answer key of the embedded DJ Alok quiz.
var alokAnswers = []int{0, 1, 2, 1, 1}

type fixture struct {
	catalog    *catalog.Catalog
	profiles   *flakyProfiles
	sessions   *memory.SessionStore
	board      *app.LeaderboardService
	settlement *app.Settlement
	service    *app.QuizService
	redemption *app.Redemption
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	doc, err := catalog.EmbeddedDocument()
	if err != nil {
		t.Fatalf("embedded catalog: %v", err)
	}
	cat, err := catalog.Build(doc.Quizzes)
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}

	clock := func() time.Time { return time.Date(2024, 11, 22, 12, 0, 0, 0, time.UTC) }
	profiles := &flakyProfiles{ProfileStore: memory.NewProfileStore()}
	sessions := memory.NewSessionStore()
	board := app.NewLeaderboardServiceWithClock(profiles, clock)
	settlement := app.NewSettlementWithClock(profiles, cat, 50, 3, clock)
	return &fixture{
		catalog:    cat,
		profiles:   profiles,
		sessions:   sessions,
		board:      board,
		settlement: settlement,
		service:    app.NewQuizService(cat, sessions, profiles, settlement, board),
		redemption: app.NewRedemption(profiles, []domain.Tier{
			{CoinsCost: 5000, RewardAmount: 500},
			{CoinsCost: 10000, RewardAmount: 1100},
			{CoinsCost: 25000, RewardAmount: 3000},
		}, board),
	}
}

func (f *fixture) createUser(t *testing.T, userID string, coins int) {
	t.Helper()
	ctx := context.Background()
	if _, err := f.profiles.Create(ctx, storetest.Profile(userID, "Player "+userID)); err != nil {
		t.Fatalf("create profile: %v", err)
	}
	if coins == 0 {
		return
	}
	if _, err := f.profiles.AtomicUpdate(ctx, userID, func(p *domain.Profile) error {
		p.TotalCoins = coins
		return nil
	}); err != nil {
		t.Fatalf("seed coins: %v", err)
	}
}

// play starts quizID and answers with picks, leaving the session finished.
func (f *fixture) play(t *testing.T, userID, quizID string, picks []int) domain.SessionView {
	t.Helper()
	ctx := context.Background()
	view, err := f.service.Start(ctx, userID, quizID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	for _, pick := range picks {
		if _, err := f.service.SelectAnswer(ctx, userID, pick); err != nil {
			t.Fatalf("select: %v", err)
		}
		if view, err = f.service.Advance(ctx, userID); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}
	return view
}

// withWrong flips the first n answers of key to a wrong option.
func withWrong(key []int, n int) []int {
	out := append([]int(nil), key...)
	for i := 0; i < n && i < len(out); i++ {
		out[i] = (out[i] + 1) % domain.OptionCount
	}
	return out
}

var errStoreDown = errors.New("connection refused")

// flakyProfiles fails the next failUpdates AtomicUpdate calls and honours
// context cancellation the way a network-backed store would.
type flakyProfiles struct {
	app.ProfileStore
	mu          sync.Mutex
	failUpdates int
}

func (p *flakyProfiles) failNext(n int) {
	p.mu.Lock()
	p.failUpdates = n
	p.mu.Unlock()
}

func (p *flakyProfiles) AtomicUpdate(ctx context.Context, userID string, mutate func(*domain.Profile) error) (domain.Profile, error) {
	if err := ctx.Err(); err != nil {
		return domain.Profile{}, err
	}
	p.mu.Lock()
	fail := p.failUpdates > 0
	if fail {
		p.failUpdates--
	}
	p.mu.Unlock()
	if fail {
		return domain.Profile{}, errStoreDown
	}
	return p.ProfileStore.AtomicUpdate(ctx, userID, mutate)
}
