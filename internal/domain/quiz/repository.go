package quiz

import (
	"context"

	"github.com/linguaromana/engagement/internal/domain/shared"
)

// Repository defines the interface for quiz result persistence.
type Repository interface {
	// Get returns the result for (user, item) or shared.ErrQuizResultNotFound.
	Get(ctx context.Context, userID shared.UserID, itemID shared.ItemID) (*Result, error)

	// Create inserts a first result. The (user, item) key must be free.
	Create(ctx context.Context, result *Result) error

	// Update overwrites score, points and time spent of an existing result.
	Update(ctx context.Context, result *Result) error

	// Summary returns the number of results of a user and their score sum.
	Summary(ctx context.Context, userID shared.UserID) (Summary, error)
}
