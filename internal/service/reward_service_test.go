package service

import (
	"math/rand"
	"testing"
	"time"

	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/domain"
	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRewardService(start time.Time, seed int64) (*RewardService, *testutil.FakeClock) {
	clock := testutil.NewFakeClock(start)
	gate := NewGateService(nil)
	rng := rand.New(rand.NewSource(seed))
	return NewRewardService(gate, clock, rng), clock
}

func aggregateWithNet(plan domain.Plan, day time.Time, income, expense int64) *domain.BudgetAggregate {
	agg := domain.NewBudgetAggregate()
	agg.Identity = domain.Identity{ID: "user-1", Email: "user@example.com"}
	agg.Subscription.CurrentPlan = plan
	if income > 0 {
		agg.Incomes = append(agg.Incomes, &domain.Transaction{
			ID:       "in-1",
			Amount:   decimal.NewFromInt(income),
			Category: domain.CategorySalary,
			Date:     day,
		})
	}
	if expense > 0 {
		agg.Expenses = append(agg.Expenses, &domain.Transaction{
			ID:       "ex-1",
			Amount:   decimal.NewFromInt(expense),
			Category: domain.CategoryFood,
			Date:     day,
		})
	}
	return agg
}

func TestEvaluateDailySpin_GrantsOnPositiveNet(t *testing.T) {
	day := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)
	svc, _ := setupRewardService(day, 1)
	agg := aggregateWithNet(domain.PlanFree, day, 100, 40)

	result := svc.EvaluateDailySpin(agg)

	require.True(t, result.Granted)
	assert.True(t, result.Net.Equal(decimal.NewFromInt(60)))
	assert.Equal(t, 1, agg.Gamification.Spins)
	assert.Equal(t, "2026-08-30", agg.Gamification.LastDailySpinAwardDate)
}

func TestEvaluateDailySpin_OncePerDay(t *testing.T) {
	day := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	svc, clock := setupRewardService(day, 1)
	agg := aggregateWithNet(domain.PlanFree, day, 100, 0)

	first := svc.EvaluateDailySpin(agg)
	require.True(t, first.Granted)

	// Same calendar day, later hour: no second grant.
	clock.SetNow(day.Add(8 * time.Hour))
	second := svc.EvaluateDailySpin(agg)
	assert.False(t, second.Granted)
	assert.True(t, second.AlreadyDone)
	assert.Equal(t, 1, agg.Gamification.Spins)

	// Next day with fresh positive net: a new grant.
	nextDay := day.AddDate(0, 0, 1)
	clock.SetNow(nextDay)
	agg.Incomes[0].Date = nextDay
	third := svc.EvaluateDailySpin(agg)
	assert.True(t, third.Granted)
	assert.Equal(t, 2, agg.Gamification.Spins)
}

func TestEvaluateDailySpin_NoGrantOnNonPositiveNet(t *testing.T) {
	day := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	svc, _ := setupRewardService(day, 1)

	// Expenses exceed incomes.
	agg := aggregateWithNet(domain.PlanFree, day, 30, 100)
	result := svc.EvaluateDailySpin(agg)
	assert.False(t, result.Granted)
	assert.Equal(t, 0, agg.Gamification.Spins)
	assert.Empty(t, agg.Gamification.LastDailySpinAwardDate)

	// Exactly break-even is not a grant either.
	agg = aggregateWithNet(domain.PlanFree, day, 50, 50)
	result = svc.EvaluateDailySpin(agg)
	assert.False(t, result.Granted)
	assert.True(t, result.Net.IsZero())
}

func TestEvaluateDailySpin_BonusClampedToRange(t *testing.T) {
	day := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)

	// Large net clamps to the max bonus.
	svc, _ := setupRewardService(day, 1)
	agg := aggregateWithNet(domain.PlanFree, day, 1000, 400)
	result := svc.EvaluateDailySpin(agg)
	require.True(t, result.Granted)
	assert.Equal(t, int64(DailyBonusMax), result.PointsAwarded)
	assert.Equal(t, int64(DailyBonusMax), agg.Gamification.Points)

	// Tiny net clamps to the min bonus.
	svc, _ = setupRewardService(day, 1)
	agg = aggregateWithNet(domain.PlanFree, day, 2, 0)
	result = svc.EvaluateDailySpin(agg)
	require.True(t, result.Granted)
	assert.Equal(t, int64(DailyBonusMin), result.PointsAwarded)
}

func TestEvaluateDailySpin_RolloverCapStopsBanking(t *testing.T) {
	day := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	svc, clock := setupRewardService(day, 1)
	agg := aggregateWithNet(domain.PlanFree, day, 100, 0)

	// FREE caps banked spins at 3. Grant five days in a row.
	for i := 0; i < 5; i++ {
		d := day.AddDate(0, 0, i)
		clock.SetNow(d)
		agg.Incomes[0].Date = d
		result := svc.EvaluateDailySpin(agg)
		require.True(t, result.Granted, "day %d", i)
	}

	assert.Equal(t, 3, agg.Gamification.Spins)
	// The date stamp and bonus still advance past the cap.
	assert.Equal(t, "2026-08-05", agg.Gamification.LastDailySpinAwardDate)
	assert.Equal(t, int64(5*DailyBonusMax), agg.Gamification.Points)
}

func TestConsumeSpinAndRoll_RequiresCredit(t *testing.T) {
	day := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	svc, _ := setupRewardService(day, 1)
	agg := aggregateWithNet(domain.PlanFree, day, 0, 0)

	_, err := svc.ConsumeSpinAndRoll(agg)
	assert.ErrorIs(t, err, domain.ErrNoSpinsAvailable)
}

func TestConsumeSpinAndRoll_DecrementsAndStamps(t *testing.T) {
	day := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	svc, _ := setupRewardService(day, 42)
	agg := aggregateWithNet(domain.PlanFree, day, 0, 0)
	agg.Gamification.Spins = 2

	reward, err := svc.ConsumeSpinAndRoll(agg)
	require.NoError(t, err)
	require.NotNil(t, reward)

	assert.Equal(t, 1, agg.Gamification.Spins)
	require.NotNil(t, agg.Gamification.LastSpinAt)
	assert.Equal(t, day, *agg.Gamification.LastSpinAt)
}

func TestConsumeSpinAndRoll_TierDistribution(t *testing.T) {
	day := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	svc, _ := setupRewardService(day, 7)

	counts := map[domain.RewardTier]int{}
	const draws = 10000
	for i := 0; i < draws; i++ {
		agg := aggregateWithNet(domain.PlanFree, day, 0, 0)
		agg.Gamification.Spins = 1
		reward, err := svc.ConsumeSpinAndRoll(agg)
		require.NoError(t, err)
		counts[reward.Tier]++
	}

	// Base weights are 45/35/15/5. Allow generous slack around expectation.
	assert.InDelta(t, 0.45, float64(counts[domain.RewardTierSmall])/draws, 0.03)
	assert.InDelta(t, 0.35, float64(counts[domain.RewardTierMedium])/draws, 0.03)
	assert.InDelta(t, 0.15, float64(counts[domain.RewardTierRare])/draws, 0.03)
	assert.InDelta(t, 0.05, float64(counts[domain.RewardTierEpic])/draws, 0.02)
}

func TestConsumeSpinAndRoll_ProNeverRollsSmall(t *testing.T) {
	day := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	svc, _ := setupRewardService(day, 11)

	for i := 0; i < 2000; i++ {
		agg := aggregateWithNet(domain.PlanPro, day, 0, 0)
		agg.Gamification.Spins = 1
		reward, err := svc.ConsumeSpinAndRoll(agg)
		require.NoError(t, err)
		assert.NotEqual(t, domain.RewardTierSmall, reward.Tier)
	}
}

func TestConsumeSpinAndRoll_RewardShapes(t *testing.T) {
	day := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	svc, _ := setupRewardService(day, 3)

	seen := map[domain.RewardTier]bool{}
	for i := 0; i < 500 && len(seen) < 4; i++ {
		agg := aggregateWithNet(domain.PlanFree, day, 0, 0)
		agg.Gamification.Spins = 1
		reward, err := svc.ConsumeSpinAndRoll(agg)
		require.NoError(t, err)
		if seen[reward.Tier] {
			continue
		}
		seen[reward.Tier] = true

		switch reward.Tier {
		case domain.RewardTierSmall:
			assert.Equal(t, domain.RewardKindPoints, reward.Kind)
			assert.Equal(t, int64(PointsSmall), reward.Points)
			assert.Equal(t, int64(PointsSmall), agg.Gamification.Points)
		case domain.RewardTierMedium:
			assert.Equal(t, domain.RewardKindPoints, reward.Kind)
			assert.Equal(t, int64(PointsMedium), reward.Points)
		case domain.RewardTierRare:
			assert.Equal(t, domain.RewardKindBooster, reward.Kind)
			require.NotNil(t, reward.Booster)
			assert.Equal(t, domain.BoosterKindPointsBonus, reward.Booster.Kind)
			assert.Equal(t, 0.10, reward.Booster.Value)
			assert.Equal(t, day.Add(24*time.Hour), reward.Booster.ExpiresAt)
			assert.Len(t, agg.Gamification.ActiveBoosters, 1)
		case domain.RewardTierEpic:
			assert.Equal(t, domain.RewardKindFreezeToken, reward.Kind)
			assert.Equal(t, 1, reward.FreezeTokens)
			assert.Equal(t, 1, agg.Gamification.FreezeTokens)
		}
	}
	require.Len(t, seen, 4, "expected all four tiers within 500 seeded draws")
}

func TestAwardPoints_BoosterMultiplier(t *testing.T) {
	day := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	svc, _ := setupRewardService(day, 1)

	gs := &domain.GamificationState{
		ActiveBoosters: []domain.Booster{
			{Kind: domain.BoosterKindPointsBonus, Value: 0.10, ExpiresAt: day.Add(time.Hour)},
		},
	}
	awarded := svc.awardPoints(gs, 100)
	assert.Equal(t, int64(110), awarded)
	assert.Equal(t, int64(110), gs.Points)
}

func TestAwardPoints_MultipleBoostersCompound(t *testing.T) {
	day := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	svc, _ := setupRewardService(day, 1)

	gs := &domain.GamificationState{
		ActiveBoosters: []domain.Booster{
			{Kind: domain.BoosterKindPointsBonus, Value: 0.10, ExpiresAt: day.Add(time.Hour)},
			{Kind: domain.BoosterKindPointsBonus, Value: 0.10, ExpiresAt: day.Add(time.Hour)},
		},
	}
	// 100 * 1.1 * 1.1 = 121
	assert.Equal(t, int64(121), svc.awardPoints(gs, 100))
}

func TestAwardPoints_ExpiredBoosterIgnored(t *testing.T) {
	day := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	svc, _ := setupRewardService(day, 1)

	gs := &domain.GamificationState{
		ActiveBoosters: []domain.Booster{
			{Kind: domain.BoosterKindPointsBonus, Value: 0.50, ExpiresAt: day.Add(-time.Minute)},
		},
	}
	assert.Equal(t, int64(100), svc.awardPoints(gs, 100))
	// Expired boosters stay on the list, they are just inert.
	assert.Len(t, gs.ActiveBoosters, 1)
}
