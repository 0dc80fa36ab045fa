package domain

import "time"

// RewardTier is one of the fixed weighted reward categories.
type RewardTier string

const (
	RewardTierSmall  RewardTier = "small"
	RewardTierMedium RewardTier = "medium"
	RewardTierRare   RewardTier = "rare"
	RewardTierEpic   RewardTier = "epic"
)

// Base draw weights per tier.
const (
	WeightSmall  = 45
	WeightMedium = 35
	WeightRare   = 15
	WeightEpic   = 5
)

// tierRank orders tiers for minimum-tier promotion.
var tierRank = map[RewardTier]int{
	RewardTierSmall:  0,
	RewardTierMedium: 1,
	RewardTierRare:   2,
	RewardTierEpic:   3,
}

// TierBelow reports whether a ranks strictly below b.
func TierBelow(a, b RewardTier) bool {
	return tierRank[a] < tierRank[b]
}

// BoosterKind classifies what a booster multiplies.
type BoosterKind string

const (
	BoosterKindPointsBonus BoosterKind = "points_bonus"
)

// Booster is a time-bounded multiplicative modifier. Expired boosters are
// inert but are not proactively purged from the aggregate.
type Booster struct {
	Code      string      `json:"code"`
	Kind      BoosterKind `json:"kind"`
	Value     float64     `json:"value"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// Active reports whether the booster is still in effect at the given instant.
func (b Booster) Active(now time.Time) bool {
	return now.Before(b.ExpiresAt)
}

// GamificationState is the per-user reward bookkeeping.
type GamificationState struct {
	Points                 int64      `json:"points"`
	Spins                  int        `json:"spins"`
	LastDailySpinAwardDate string     `json:"lastDailySpinAwardDate,omitempty"`
	LastSpinAt             *time.Time `json:"lastSpinAt,omitempty"`
	RerollTokens           int        `json:"rerollTokens"`
	FreezeTokens           int        `json:"freezeTokens"`
	ActiveBoosters         []Booster  `json:"activeBoosters"`
}

// Clone returns a deep copy of the state.
func (g *GamificationState) Clone() *GamificationState {
	cp := *g
	if g.LastSpinAt != nil {
		at := *g.LastSpinAt
		cp.LastSpinAt = &at
	}
	cp.ActiveBoosters = make([]Booster, len(g.ActiveBoosters))
	copy(cp.ActiveBoosters, g.ActiveBoosters)
	return &cp
}

// RewardKind classifies the outcome of a spin.
type RewardKind string

const (
	RewardKindPoints      RewardKind = "points"
	RewardKindBooster     RewardKind = "booster"
	RewardKindFreezeToken RewardKind = "freeze_token"
)

// Reward is the resolved outcome of one spin draw.
type Reward struct {
	Tier          RewardTier `json:"tier"`
	Kind          RewardKind `json:"kind"`
	Points        int64      `json:"points,omitempty"`
	PointsAwarded int64      `json:"pointsAwarded,omitempty"`
	Booster       *Booster   `json:"booster,omitempty"`
	FreezeTokens  int        `json:"freezeTokens,omitempty"`
}
