package badge

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/linguaromana/engagement/internal/domain/shared"
)

func testCatalog() Catalog {
	badges := DefaultCatalog()
	for i := range badges {
		badges[i].ID = shared.BadgeID(i + 1)
	}
	return NewCatalog(badges)
}

func names(badges []Badge) []string {
	out := make([]string, 0, len(badges))
	for _, b := range badges {
		out = append(out, b.Name)
	}
	return out
}

func TestBadge_IsSatisfiedBy_RequiresAllThresholds(t *testing.T) {
	b := Badge{PointsRequired: 200, StreakRequired: 5}

	assert.False(t, b.IsSatisfiedBy(Stats{TotalPoints: 300, CurrentStreak: 4}))
	assert.False(t, b.IsSatisfiedBy(Stats{TotalPoints: 150, CurrentStreak: 9}))
	assert.True(t, b.IsSatisfiedBy(Stats{TotalPoints: 200, CurrentStreak: 5}))

	// zero thresholds are always satisfied
	assert.True(t, Badge{}.IsSatisfiedBy(Stats{}))
}

func TestBadge_Validate(t *testing.T) {
	assert.NoError(t, Badge{Name: "Expert", PointsRequired: 500}.Validate())
	assert.ErrorIs(t, Badge{Name: " "}.Validate(), shared.ErrInvalidBadge)
	assert.ErrorIs(t, Badge{Name: "x", StreakRequired: -1}.Validate(), shared.ErrInvalidThreshold)
}

func TestNewCatalog_OrderAndActiveOnly(t *testing.T) {
	c := NewCatalog([]Badge{
		{ID: 3, Name: "c", PointsRequired: 50, IsActive: true},
		{ID: 1, Name: "a", PointsRequired: 0, IsActive: true},
		{ID: 2, Name: "b", PointsRequired: 0, IsActive: true},
		{ID: 4, Name: "retired", PointsRequired: 10, IsActive: false},
	})

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []string{"a", "b", "c"}, names(c.Badges()))
}

func TestCatalog_Evaluate(t *testing.T) {
	c := testCatalog()

	tests := []struct {
		name   string
		stats  Stats
		earned map[shared.BadgeID]bool
		want   []string
	}{
		{
			name:  "nothing yet",
			stats: Stats{},
			want:  nil,
		},
		{
			name:  "first quiz",
			stats: Stats{QuizCount: 1, TotalPoints: 10, CurrentStreak: 1},
			want:  []string{"Premier Pas"},
		},
		{
			name:  "several at once in points order",
			stats: Stats{QuizCount: 40, TotalPoints: 600, CurrentStreak: 7},
			want:  []string{"Premier Pas", "Série de 3", "Série de 7", "Étudiant Assidu", "Expert"},
		},
		{
			name:   "earned badges are skipped",
			stats:  Stats{QuizCount: 40, TotalPoints: 1200, CurrentStreak: 1},
			earned: map[shared.BadgeID]bool{1: true, 2: true, 4: true},
			want:   []string{"Maître Linguiste"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Evaluate(tt.stats, tt.earned)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestEarnedSet(t *testing.T) {
	set := EarnedSet([]UserBadge{{Badge: Badge{ID: 2}}, {Badge: Badge{ID: 5}}})

	assert.True(t, set[2])
	assert.True(t, set[5])
	assert.False(t, set[1])
}
