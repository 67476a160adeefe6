package exchange

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RewardCooldown is the minimum wall-clock gap between two daily rewards.
const RewardCooldown = 24 * time.Hour

// ClaimDailyReward credits the daily reward to owner when none was granted in the last
// RewardCooldown. Claims inside the cooldown report false and change nothing.
func (e *Engine) ClaimDailyReward(ctx context.Context, owner string) (bool, decimal.Decimal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.state.Ledger.Get(owner)
	if err != nil {
		return false, decimal.Zero, err
	}

	now := e.clock.Now()
	if st.LastRewardAt != nil && now.Sub(*st.LastRewardAt) <= RewardCooldown {
		return false, decimal.Zero, nil
	}

	st.Balance = st.Balance.Add(e.rewardAmount)
	st.LastRewardAt = &now
	e.logger.Info("Daily reward granted", zap.String("owner", owner), zap.String("amount", e.rewardAmount.String()))

	if err := e.save(ctx); err != nil {
		return true, e.rewardAmount, err
	}
	return true, e.rewardAmount, nil
}
