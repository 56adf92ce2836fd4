package activity

import (
	"context"

	"github.com/linguaromana/engagement/internal/domain/shared"
)

// Repository defines the interface for ledger persistence.
// This interface is implemented by the infrastructure layer.
type Repository interface {
	// Upsert creates the (user, date) record with zero counters if absent and
	// adds the delta in one atomic step. Returns the resulting record.
	Upsert(ctx context.Context, userID shared.UserID, date shared.Date, delta Delta) (*Record, error)

	// Get returns the record for (user, date) or shared.ErrRecordNotFound.
	Get(ctx context.Context, userID shared.UserID, date shared.Date) (*Record, error)

	// ListRecent returns up to limit records of a user, newest first.
	ListRecent(ctx context.Context, userID shared.UserID, limit int) ([]*Record, error)
}

// HasMeaningfulActivity reports whether the ledger shows a meaningful record
// for (user, date). A missing record is not an error.
func HasMeaningfulActivity(ctx context.Context, repo Repository, userID shared.UserID, date shared.Date) (bool, error) {
	record, err := repo.Get(ctx, userID, date)
	if err != nil {
		if shared.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return record.IsMeaningful(), nil
}
