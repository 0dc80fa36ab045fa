package service

import (
	"math"
	"math/rand"
	"time"

	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/domain"
	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/util"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Reward amounts per tier.
const (
	PointsSmall  = 25
	PointsMedium = 100

	// Daily bonus points are proportional to the day's net savings, clamped
	// to this range.
	DailyBonusMin = 5
	DailyBonusMax = 25
)

// RewardService implements the daily spin-credit check and the
// weighted-random reward draw.
type RewardService struct {
	gate  *GateService
	clock util.Clock
	rng   *rand.Rand
}

// NewRewardService creates a new RewardService. rng may be seeded in tests for
// deterministic draws.
func NewRewardService(gate *GateService, clock util.Clock, rng *rand.Rand) *RewardService {
	return &RewardService{gate: gate, clock: clock, rng: rng}
}

// DailySpinResult reports the outcome of a daily eligibility evaluation.
type DailySpinResult struct {
	Granted       bool            `json:"granted"`
	AlreadyDone   bool            `json:"alreadyEvaluated"`
	Net           decimal.Decimal `json:"net"`
	Spins         int             `json:"spins"`
	PointsAwarded int64           `json:"pointsAwarded"`
}

// EvaluateDailySpin grants at most one spin credit per calendar day, when the
// day's incomes exceed its expenses. Repeated calls on the same day are
// no-ops. Extra eligibility above the plan's rollover cap is not banked.
func (s *RewardService) EvaluateDailySpin(agg *domain.BudgetAggregate) *DailySpinResult {
	now := s.clock.Now()
	gs := &agg.Gamification
	todayKey := util.DateKey(now)

	if gs.LastDailySpinAwardDate == todayKey {
		return &DailySpinResult{AlreadyDone: true, Spins: gs.Spins}
	}

	net := s.netForDay(agg, now)
	if net.LessThanOrEqual(decimal.Zero) {
		return &DailySpinResult{Net: net, Spins: gs.Spins}
	}

	plan := s.gate.EffectivePlan(agg.Subscription, agg.Identity.Email)
	rolloverCap := domain.LimitsFor(plan).SpinRolloverCap
	if gs.Spins < rolloverCap {
		gs.Spins++
	}
	gs.LastDailySpinAwardDate = todayKey

	bonus := clampInt64(roundDecimal(net), DailyBonusMin, DailyBonusMax)
	awarded := s.awardPoints(gs, bonus)

	return &DailySpinResult{
		Granted:       true,
		Net:           net,
		Spins:         gs.Spins,
		PointsAwarded: awarded,
	}
}

// ConsumeSpinAndRoll spends one spin and draws a reward. Consuming always
// decrements spins and stamps lastSpinAt, whatever the reward kind.
func (s *RewardService) ConsumeSpinAndRoll(agg *domain.BudgetAggregate) (*domain.Reward, error) {
	gs := &agg.Gamification
	if gs.Spins <= 0 {
		return nil, domain.ErrNoSpinsAvailable
	}

	now := s.clock.Now()
	plan := s.gate.EffectivePlan(agg.Subscription, agg.Identity.Email)
	limits := domain.LimitsFor(plan)

	tier := s.drawTier(limits.RareBoost)
	if limits.GuaranteedMinTier != "" && domain.TierBelow(tier, limits.GuaranteedMinTier) {
		tier = limits.GuaranteedMinTier
	}

	reward := &domain.Reward{Tier: tier}
	switch tier {
	case domain.RewardTierSmall:
		reward.Kind = domain.RewardKindPoints
		reward.Points = PointsSmall
		reward.PointsAwarded = s.awardPoints(gs, PointsSmall)
	case domain.RewardTierMedium:
		reward.Kind = domain.RewardKindPoints
		reward.Points = PointsMedium
		reward.PointsAwarded = s.awardPoints(gs, PointsMedium)
	case domain.RewardTierRare:
		booster := domain.Booster{
			Code:      uuid.New().String(),
			Kind:      domain.BoosterKindPointsBonus,
			Value:     0.10,
			ExpiresAt: now.Add(24 * time.Hour),
		}
		gs.ActiveBoosters = append(gs.ActiveBoosters, booster)
		reward.Kind = domain.RewardKindBooster
		reward.Booster = &booster
	case domain.RewardTierEpic:
		gs.FreezeTokens++
		reward.Kind = domain.RewardKindFreezeToken
		reward.FreezeTokens = 1
	}

	gs.Spins--
	gs.LastSpinAt = &now

	return reward, nil
}

// drawTier performs a cumulative-weight random selection over the four tiers,
// with the rare weight boosted per the plan's gamification benefits.
func (s *RewardService) drawTier(rareBoost float64) domain.RewardTier {
	rareWeight := domain.WeightRare + int(math.Round(domain.WeightRare*rareBoost))
	weights := []struct {
		tier   domain.RewardTier
		weight int
	}{
		{domain.RewardTierSmall, domain.WeightSmall},
		{domain.RewardTierMedium, domain.WeightMedium},
		{domain.RewardTierRare, rareWeight},
		{domain.RewardTierEpic, domain.WeightEpic},
	}

	total := 0
	for _, w := range weights {
		total += w.weight
	}

	roll := s.rng.Intn(total)
	cumulative := 0
	for _, w := range weights {
		cumulative += w.weight
		if roll < cumulative {
			return w.tier
		}
	}
	return domain.RewardTierSmall
}

// awardPoints applies the booster multiplier product to a base grant, rounds,
// and adds the result to the balance. Expired boosters are treated as absent
// but are not deleted here.
func (s *RewardService) awardPoints(gs *domain.GamificationState, base int64) int64 {
	now := s.clock.Now()
	multiplier := 1.0
	for _, b := range gs.ActiveBoosters {
		if b.Kind == domain.BoosterKindPointsBonus && b.Active(now) {
			multiplier *= 1 + b.Value
		}
	}
	awarded := int64(math.Round(float64(base) * multiplier))
	gs.Points += awarded
	return awarded
}

// netForDay sums incomes minus expenses whose date falls on the same local
// calendar day as ref.
func (s *RewardService) netForDay(agg *domain.BudgetAggregate, ref time.Time) decimal.Decimal {
	net := decimal.Zero
	for _, tx := range agg.Incomes {
		if util.SameLocalDay(tx.Date, ref) {
			net = net.Add(tx.Amount)
		}
	}
	for _, tx := range agg.Expenses {
		if util.SameLocalDay(tx.Date, ref) {
			net = net.Sub(tx.Amount)
		}
	}
	return net
}

func roundDecimal(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}

func clampInt64(v, min, max int64) int64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
