package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/domain"
	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// GamificationHandler handles reward engine HTTP requests
type GamificationHandler struct {
	stores *service.StoreManager
}

// NewGamificationHandler creates a new GamificationHandler
func NewGamificationHandler(stores *service.StoreManager) *GamificationHandler {
	return &GamificationHandler{stores: stores}
}

// BoosterResponse represents an active booster in API responses
type BoosterResponse struct {
	Code      string  `json:"code"`
	Kind      string  `json:"kind"`
	Value     float64 `json:"value"`
	ExpiresAt string  `json:"expiresAt"`
}

// GamificationResponse represents the reward state in API responses
type GamificationResponse struct {
	Points         int64             `json:"points"`
	Spins          int               `json:"spins"`
	RerollTokens   int               `json:"rerollTokens"`
	FreezeTokens   int               `json:"freezeTokens"`
	LastSpinAt     *string           `json:"lastSpinAt,omitempty"`
	ActiveBoosters []BoosterResponse `json:"activeBoosters"`
}

// RewardResponse represents a spin outcome in API responses
type RewardResponse struct {
	Tier          string           `json:"tier"`
	Kind          string           `json:"kind"`
	Points        int64            `json:"points,omitempty"`
	PointsAwarded int64            `json:"pointsAwarded,omitempty"`
	FreezeTokens  int              `json:"freezeTokens,omitempty"`
	Booster       *BoosterResponse `json:"booster,omitempty"`
}

func toGamificationResponse(gs domain.GamificationState) GamificationResponse {
	resp := GamificationResponse{
		Points:         gs.Points,
		Spins:          gs.Spins,
		RerollTokens:   gs.RerollTokens,
		FreezeTokens:   gs.FreezeTokens,
		ActiveBoosters: make([]BoosterResponse, 0, len(gs.ActiveBoosters)),
	}
	if gs.LastSpinAt != nil {
		last := gs.LastSpinAt.Format(time.RFC3339)
		resp.LastSpinAt = &last
	}
	for _, b := range gs.ActiveBoosters {
		resp.ActiveBoosters = append(resp.ActiveBoosters, toBoosterResponse(b))
	}
	return resp
}

func toBoosterResponse(b domain.Booster) BoosterResponse {
	return BoosterResponse{
		Code:      b.Code,
		Kind:      string(b.Kind),
		Value:     b.Value,
		ExpiresAt: b.ExpiresAt.Format(time.RFC3339),
	}
}

// GetState godoc
// @Summary Get gamification state
// @Tags gamification
// @Produce json
// @Security BearerAuth
// @Success 200 {object} GamificationResponse
// @Router /gamification [get]
func (h *GamificationHandler) GetState(c echo.Context) error {
	store, err := resolveStore(c, h.stores)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toGamificationResponse(store.Gamification()))
}

// EvaluateDailySpin godoc
// @Summary Evaluate daily spin eligibility
// @Description Grant the daily spin credit if today's savings are positive
// @Tags gamification
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.DailySpinResult
// @Router /gamification/daily-spin [post]
func (h *GamificationHandler) EvaluateDailySpin(c echo.Context) error {
	store, err := resolveStore(c, h.stores)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, store.EvaluateDailySpin())
}

// Spin godoc
// @Summary Spend a spin credit
// @Description Consume one spin and draw a weighted-random reward
// @Tags gamification
// @Produce json
// @Security BearerAuth
// @Success 200 {object} RewardResponse
// @Failure 409 {object} ProblemDetails
// @Router /gamification/spin [post]
func (h *GamificationHandler) Spin(c echo.Context) error {
	store, err := resolveStore(c, h.stores)
	if err != nil {
		return err
	}

	reward, err := store.Spin()
	if err != nil {
		if errors.Is(err, domain.ErrNoSpinsAvailable) {
			return NewConflictError(c, "No spins available")
		}
		return NewInternalError(c, "Failed to resolve spin")
	}

	resp := RewardResponse{
		Tier:          string(reward.Tier),
		Kind:          string(reward.Kind),
		Points:        reward.Points,
		PointsAwarded: reward.PointsAwarded,
		FreezeTokens:  reward.FreezeTokens,
	}
	if reward.Booster != nil {
		booster := toBoosterResponse(*reward.Booster)
		resp.Booster = &booster
	}
	return c.JSON(http.StatusOK, resp)
}
