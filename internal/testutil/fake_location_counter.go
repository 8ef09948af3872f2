package testutil

import (
	"context"

	ierr "github.com/localpulse/localpulse/internal/errors"
)

// FakeLocationCounter implements gbp.LocationCounter from a fixed map of
// account id to location count.
type FakeLocationCounter struct {
	Counts map[string]int
	Err    error
}

func NewFakeLocationCounter(counts map[string]int) *FakeLocationCounter {
	if counts == nil {
		counts = make(map[string]int)
	}
	return &FakeLocationCounter{Counts: counts}
}

func (f *FakeLocationCounter) CountLocations(ctx context.Context, accountID string) (int, error) {
	if f.Err != nil {
		return 0, f.Err
	}
	count, ok := f.Counts[accountID]
	if !ok {
		return 0, ierr.NewError("unknown business account").
			WithReportableDetails(map[string]interface{}{"account_id": accountID}).
			Mark(ierr.ErrNotFound)
	}
	return count, nil
}
