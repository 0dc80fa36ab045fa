package domain

// Plan identifies a subscription tier.
type Plan string

const (
	PlanFree    Plan = "FREE"
	PlanPremium Plan = "PREMIUM"
	PlanPro     Plan = "PRO"
)

// ParsePlan maps a stored plan identifier onto a known tier. Unknown
// identifiers degrade to the lowest-privilege plan.
func ParsePlan(s string) Plan {
	switch Plan(s) {
	case PlanFree, PlanPremium, PlanPro:
		return Plan(s)
	}
	return PlanFree
}

// Subscription holds the billing state attached to an aggregate. The plan
// actually used for gating may differ: privileged identities resolve to the
// top tier regardless of what is stored here.
type Subscription struct {
	CurrentPlan          Plan   `json:"currentPlan"`
	Status               string `json:"status"`
	StripeCustomerID     string `json:"stripeCustomerId,omitempty"`
	StripeSubscriptionID string `json:"stripeSubscriptionId,omitempty"`
}

// Feature names resolvable through the plan table.
type Feature string

const (
	FeatureMaxTransactions Feature = "maxTransactions"
	FeatureMaxSavingsGoals Feature = "maxSavingsGoals"
	FeatureAIAnalysis      Feature = "aiAnalysis"
	FeatureMaxActionPlans  Feature = "maxActionPlans"
	FeatureMultiAccount    Feature = "multiAccount"
	FeatureAdvancedReports Feature = "advancedReports"
	FeaturePrioritySupport Feature = "prioritySupport"
)

// AIAnalysisLevel is the depth of AI-driven analysis a plan unlocks.
type AIAnalysisLevel string

const (
	AIAnalysisOff     AIAnalysisLevel = "off"
	AIAnalysisPartial AIAnalysisLevel = "partial"
	AIAnalysisFull    AIAnalysisLevel = "full"
)

// Unlimited is the sentinel for limits without a ceiling.
const Unlimited = -1

// PlanLimits is the static feature/limit table for one tier.
type PlanLimits struct {
	MaxTransactions int
	MaxSavingsGoals int
	AIAnalysis      AIAnalysisLevel
	MaxActionPlans  int
	MultiAccount    bool
	AdvancedReports bool
	PrioritySupport bool

	// Gamification benefits
	SpinRolloverCap   int
	RareBoost         float64
	GuaranteedMinTier RewardTier // empty means no guarantee
}

var planTable = map[Plan]PlanLimits{
	PlanFree: {
		MaxTransactions: 200,
		MaxSavingsGoals: 3,
		AIAnalysis:      AIAnalysisOff,
		MaxActionPlans:  0,
		SpinRolloverCap: 3,
	},
	PlanPremium: {
		MaxTransactions: Unlimited,
		MaxSavingsGoals: 20,
		AIAnalysis:      AIAnalysisPartial,
		MaxActionPlans:  5,
		AdvancedReports: true,
		SpinRolloverCap: 7,
		RareBoost:       0.1,
	},
	PlanPro: {
		MaxTransactions:   Unlimited,
		MaxSavingsGoals:   Unlimited,
		AIAnalysis:        AIAnalysisFull,
		MaxActionPlans:    Unlimited,
		MultiAccount:      true,
		AdvancedReports:   true,
		PrioritySupport:   true,
		SpinRolloverCap:   15,
		RareBoost:         0.2,
		GuaranteedMinTier: RewardTierMedium,
	},
}

// LimitsFor returns the static limits for a plan. Unknown plans get the FREE
// table.
func LimitsFor(plan Plan) PlanLimits {
	if limits, ok := planTable[plan]; ok {
		return limits
	}
	return planTable[PlanFree]
}
