package streak

import (
	"context"

	"github.com/linguaromana/engagement/internal/domain/shared"
)

// Repository defines the interface for streak state persistence.
type Repository interface {
	// GetOrCreate returns the state of a user, creating the never-active
	// state if none is stored yet.
	GetOrCreate(ctx context.Context, userID shared.UserID) (*State, error)

	// Get returns the stored state or shared.ErrStreakStateNotFound.
	Get(ctx context.Context, userID shared.UserID) (*State, error)

	// Save persists the state. The row must exist.
	Save(ctx context.Context, state *State) error
}
