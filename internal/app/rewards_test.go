package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ffquiz-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentSettleCreditsOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createUser(t, "u1", 0)

	const workers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		already   int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.settlement.Settle(ctx, "u1", alokQuiz, 4, 5)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if errors.Is(err, domain.ErrAlreadyCompleted) {
				already++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, already)
	p, err := f.profiles.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 50, p.TotalCoins)
	assert.Equal(t, 1, p.QuizzesCompleted)
	assert.Len(t, p.CompletedQuizzes, 1)
}

func TestSettleRejectsBadScores(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createUser(t, "u1", 0)

	_, err := f.settlement.Settle(ctx, "u1", alokQuiz, 6, 5)
	assert.Error(t, err)
	_, err = f.settlement.Settle(ctx, "u1", alokQuiz, -1, 5)
	assert.Error(t, err)
	_, err = f.settlement.Settle(ctx, "u1", "weapons-missing", 5, 5)
	assert.ErrorIs(t, err, domain.ErrQuizNotFound)
	_, err = f.settlement.Settle(ctx, "ghost", alokQuiz, 5, 5)
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)

	p, err := f.profiles.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, p.CompletedQuizzes)
}

func TestRedeemDebitsBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createUser(t, "u1", 5000)

	res, err := f.redemption.Redeem(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, res.NewBalance)
	assert.Equal(t, 500, res.RewardGranted)

	p, err := f.profiles.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, p.TotalCoins)
	assert.Equal(t, 500, p.RewardRedeemed)
}

func TestRedeemInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createUser(t, "u1", 4999)

	_, err := f.redemption.Redeem(ctx, "u1", 0)
	var insufficient *domain.InsufficientBalanceError
	require.True(t, errors.As(err, &insufficient), "got %v", err)
	assert.Equal(t, 4999, insufficient.Balance)
	assert.Equal(t, 5000, insufficient.Required)

	p, err := f.profiles.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 4999, p.TotalCoins)
	assert.Zero(t, p.RewardRedeemed)
}

func TestRedeemUnknownTier(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "u1", 50000)

	_, err := f.redemption.Redeem(context.Background(), "u1", 3)
	assert.ErrorIs(t, err, domain.ErrTierNotFound)
	_, err = f.redemption.Redeem(context.Background(), "u1", -1)
	assert.ErrorIs(t, err, domain.ErrTierNotFound)
}

func TestConcurrentRedeemNeverOverdraws(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createUser(t, "u1", 12000)

	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.redemption.Redeem(ctx, "u1", 0)
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
				return
			}
			mu.Lock()
			granted += res.RewardGranted
			mu.Unlock()
		}()
	}
	wg.Wait()

	p, err := f.profiles.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2000, p.TotalCoins)
	assert.Equal(t, 1000, granted)
	assert.Equal(t, 1000, p.RewardRedeemed)
}

func TestRedeemPublishesLeaderboard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createUser(t, "u1", 6000)

	ch, cancel, err := f.board.Subscribe(ctx, domain.FieldTotalCoins)
	require.NoError(t, err)
	defer cancel()
	initial := <-ch
	require.Len(t, initial.Entries, 1)
	assert.Equal(t, 6000, initial.Entries[0].TotalCoins)

	_, err = f.redemption.Redeem(ctx, "u1", 0)
	require.NoError(t, err)
	update := <-ch
	require.Len(t, update.Entries, 1)
	assert.Equal(t, 1000, update.Entries[0].TotalCoins)
}

func TestTiersAreCopied(t *testing.T) {
	f := newFixture(t)
	tiers := f.redemption.Tiers()
	tiers[0].CoinsCost = 1
	assert.Equal(t, 5000, f.redemption.Tiers()[0].CoinsCost)
}
