package query

import (
	"context"
	"fmt"
	"time"

	"github.com/linguaromana/engagement/internal/domain/activity"
	"github.com/linguaromana/engagement/internal/domain/badge"
	"github.com/linguaromana/engagement/internal/domain/quiz"
	"github.com/linguaromana/engagement/internal/domain/shared"
	"github.com/linguaromana/engagement/internal/domain/streak"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET USER STATS QUERY
// Profile view: streak, quiz statistics, the last week of ledger records and
// earned badges.
// ══════════════════════════════════════════════════════════════════════════════

// UserStatsDTO aggregates the engagement figures of a user.
type UserStatsDTO struct {
	Streak StreakInfoDTO `json:"streak"`

	// TotalQuizzes is the number of distinct items with a stored result.
	TotalQuizzes int `json:"total_quizzes"`

	// AverageScore is the mean best score, rounded to one decimal.
	AverageScore float64 `json:"average_score"`

	// RecentActivity holds up to activity.RecentLimit records, newest first.
	RecentActivity []ActivityDTO `json:"recent_activity"`

	Badges []EarnedBadgeDTO `json:"badges"`
}

// ActivityDTO is one ledger record.
type ActivityDTO struct {
	Date             string `json:"date"`
	ArticlesRead     int    `json:"articles_read"`
	QuizzesCompleted int    `json:"quizzes_completed"`
	PointsEarned     int    `json:"points_earned"`
}

// EarnedBadgeDTO is one earned badge.
type EarnedBadgeDTO struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	EarnedAt    time.Time `json:"earned_at"`
}

// GetUserStatsHandler handles user statistics reads.
type GetUserStatsHandler struct {
	streaks streak.Repository
	ledger  activity.Repository
	quizzes quiz.Repository
	badges  badge.Repository
}

// NewGetUserStatsHandler creates a new GetUserStatsHandler.
func NewGetUserStatsHandler(
	streaks streak.Repository,
	ledger activity.Repository,
	quizzes quiz.Repository,
	badges badge.Repository,
) *GetUserStatsHandler {
	return &GetUserStatsHandler{
		streaks: streaks,
		ledger:  ledger,
		quizzes: quizzes,
		badges:  badges,
	}
}

// Handle executes the query.
func (h *GetUserStatsHandler) Handle(ctx context.Context, userID shared.UserID) (*UserStatsDTO, error) {
	if !userID.IsValid() {
		return nil, fmt.Errorf("get_user_stats: %w", shared.ErrInvalidUserID)
	}

	info, err := loadStreakInfo(ctx, h.streaks, userID)
	if err != nil {
		return nil, fmt.Errorf("get_user_stats: load streak: %w", err)
	}

	summary, err := h.quizzes.Summary(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get_user_stats: load quiz summary: %w", err)
	}

	records, err := h.ledger.ListRecent(ctx, userID, activity.RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("get_user_stats: load activity: %w", err)
	}

	earned, err := h.badges.ListEarned(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get_user_stats: load badges: %w", err)
	}

	dto := &UserStatsDTO{
		Streak:         *newStreakInfoDTO(info),
		TotalQuizzes:   summary.Count,
		AverageScore:   summary.AverageScore(),
		RecentActivity: make([]ActivityDTO, 0, len(records)),
		Badges:         make([]EarnedBadgeDTO, 0, len(earned)),
	}

	for _, r := range records {
		dto.RecentActivity = append(dto.RecentActivity, ActivityDTO{
			Date:             r.Date.String(),
			ArticlesRead:     r.ArticlesRead,
			QuizzesCompleted: r.QuizzesCompleted,
			PointsEarned:     r.PointsEarned,
		})
	}

	for _, ub := range earned {
		dto.Badges = append(dto.Badges, EarnedBadgeDTO{
			ID:          int64(ub.Badge.ID),
			Name:        ub.Badge.Name,
			Description: ub.Badge.Description,
			Icon:        ub.Badge.Icon,
			EarnedAt:    ub.EarnedAt,
		})
	}

	return dto, nil
}
