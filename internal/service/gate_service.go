package service

import (
	"strings"

	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/domain"
)

// GateService answers feature and usage-limit questions for a subscription
// plan. The plan table itself is static configuration in the domain package.
type GateService struct {
	privileged map[string]bool
}

// NewGateService creates a new GateService. privilegedEmails is the fixed
// allow-list of identities that always resolve to the top tier.
func NewGateService(privilegedEmails []string) *GateService {
	privileged := make(map[string]bool, len(privilegedEmails))
	for _, email := range privilegedEmails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			privileged[email] = true
		}
	}
	return &GateService{privileged: privileged}
}

// EffectivePlan resolves the plan used for gating. The privileged-email
// override is evaluated before any other gating logic.
func (s *GateService) EffectivePlan(sub domain.Subscription, email string) domain.Plan {
	if s.privileged[strings.ToLower(strings.TrimSpace(email))] {
		return domain.PlanPro
	}
	return domain.ParsePlan(string(sub.CurrentPlan))
}

// IsFeatureAvailable reports whether a feature is enabled for the plan. A
// feature is available unless its plan value is false or a zero limit.
func (s *GateService) IsFeatureAvailable(plan domain.Plan, feature domain.Feature) bool {
	limits := domain.LimitsFor(plan)
	switch feature {
	case domain.FeatureMaxTransactions:
		return limits.MaxTransactions != 0
	case domain.FeatureMaxSavingsGoals:
		return limits.MaxSavingsGoals != 0
	case domain.FeatureAIAnalysis:
		return limits.AIAnalysis != domain.AIAnalysisOff
	case domain.FeatureMaxActionPlans:
		return limits.MaxActionPlans != 0
	case domain.FeatureMultiAccount:
		return limits.MultiAccount
	case domain.FeatureAdvancedReports:
		return limits.AdvancedReports
	case domain.FeaturePrioritySupport:
		return limits.PrioritySupport
	}
	// Unknown feature names degrade to unavailable rather than erroring.
	return false
}

// UsageCheck is the result of a limit query.
type UsageCheck struct {
	Allowed   bool `json:"allowed"`
	Remaining int  `json:"remaining"`
	Unlimited bool `json:"unlimited"`
}

// CheckUsageLimit reports whether one more unit of a limited resource is
// allowed given the current usage, and how many units remain.
func (s *GateService) CheckUsageLimit(plan domain.Plan, feature domain.Feature, currentUsage int) UsageCheck {
	limits := domain.LimitsFor(plan)

	var limit int
	switch feature {
	case domain.FeatureMaxTransactions:
		limit = limits.MaxTransactions
	case domain.FeatureMaxSavingsGoals:
		limit = limits.MaxSavingsGoals
	case domain.FeatureMaxActionPlans:
		limit = limits.MaxActionPlans
	default:
		// Boolean features have no usage dimension: treat enabled as
		// unlimited and disabled as exhausted.
		if s.IsFeatureAvailable(plan, feature) {
			return UsageCheck{Allowed: true, Unlimited: true}
		}
		return UsageCheck{Allowed: false}
	}

	if limit == domain.Unlimited {
		return UsageCheck{Allowed: true, Unlimited: true}
	}
	if limit <= 0 {
		return UsageCheck{Allowed: false}
	}
	remaining := limit - currentUsage
	if remaining < 0 {
		remaining = 0
	}
	return UsageCheck{Allowed: remaining > 0, Remaining: remaining}
}
