package app

import (
	"context"
	"time"

	"ffquiz-service/internal/domain"
)

// Redemption exchanges coins for the external reward currency at fixed tiers.
type Redemption struct {
	profiles ProfileStore
	tiers    []domain.Tier
	board    *LeaderboardService
	now      func() time.Time
}

// NewRedemption expects a tier table already checked by config.ValidateTiers.
func NewRedemption(profiles ProfileStore, tiers []domain.Tier, board *LeaderboardService) *Redemption {
	return &Redemption{
		profiles: profiles,
		tiers:    append([]domain.Tier(nil), tiers...),
		board:    board,
		now:      time.Now,
	}
}

// Tiers returns a copy of the tier table.
func (r *Redemption) Tiers() []domain.Tier {
	return append([]domain.Tier(nil), r.tiers...)
}

// Redeem debits the tier cost atomically. The balance is checked inside the
// update so it can never go negative.
func (r *Redemption) Redeem(ctx context.Context, userID string, tierIndex int) (domain.RedemptionResult, error) {
	if userID == "" {
		return domain.RedemptionResult{}, domain.ErrAuthenticationRequired
	}
	if tierIndex < 0 || tierIndex >= len(r.tiers) {
		return domain.RedemptionResult{}, domain.ErrTierNotFound
	}
	tier := r.tiers[tierIndex]

	profile, err := r.profiles.AtomicUpdate(ctx, userID, func(p *domain.Profile) error {
		if p.TotalCoins < tier.CoinsCost {
			return &domain.InsufficientBalanceError{Balance: p.TotalCoins, Required: tier.CoinsCost}
		}
		p.TotalCoins -= tier.CoinsCost
		p.RewardRedeemed += tier.RewardAmount
		p.UpdatedAt = r.now().UTC()
		return nil
	})
	if err != nil {
		return domain.RedemptionResult{}, storeError("redeem", err)
	}
	if r.board != nil {
		r.board.Publish(ctx)
	}
	return domain.RedemptionResult{
		Tier:          tier,
		NewBalance:    profile.TotalCoins,
		RewardGranted: tier.RewardAmount,
	}, nil
}
