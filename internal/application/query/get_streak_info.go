// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"fmt"

	"github.com/linguaromana/engagement/internal/domain/shared"
	"github.com/linguaromana/engagement/internal/domain/streak"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET STREAK INFO QUERY
// Pure read of the streak state. Unknown users read as never active.
// ══════════════════════════════════════════════════════════════════════════════

// StreakInfoDTO is the streak state of a user.
type StreakInfoDTO struct {
	UserID           string `json:"user_id"`
	CurrentStreak    int    `json:"current_streak"`
	LongestStreak    int    `json:"longest_streak"`
	LastActivityDate string `json:"last_activity_date,omitempty"`
	TotalPoints      int    `json:"total_points"`
}

func newStreakInfoDTO(info streak.Info) *StreakInfoDTO {
	return &StreakInfoDTO{
		UserID:           info.UserID.String(),
		CurrentStreak:    info.CurrentStreak,
		LongestStreak:    info.LongestStreak,
		LastActivityDate: info.LastActivityDate.String(),
		TotalPoints:      info.TotalPoints,
	}
}

// GetStreakInfoHandler handles streak info reads.
type GetStreakInfoHandler struct {
	streaks streak.Repository
}

// NewGetStreakInfoHandler creates a new GetStreakInfoHandler.
func NewGetStreakInfoHandler(streaks streak.Repository) *GetStreakInfoHandler {
	return &GetStreakInfoHandler{streaks: streaks}
}

// Handle returns the streak info of a user without creating any state.
func (h *GetStreakInfoHandler) Handle(ctx context.Context, userID shared.UserID) (*StreakInfoDTO, error) {
	if !userID.IsValid() {
		return nil, fmt.Errorf("get_streak_info: %w", shared.ErrInvalidUserID)
	}

	info, err := loadStreakInfo(ctx, h.streaks, userID)
	if err != nil {
		return nil, fmt.Errorf("get_streak_info: %w", err)
	}
	return newStreakInfoDTO(info), nil
}

func loadStreakInfo(ctx context.Context, repo streak.Repository, userID shared.UserID) (streak.Info, error) {
	state, err := repo.Get(ctx, userID)
	if err != nil {
		if shared.IsNotFound(err) {
			return streak.Info{UserID: userID}, nil
		}
		return streak.Info{}, err
	}
	return state.Info(), nil
}
