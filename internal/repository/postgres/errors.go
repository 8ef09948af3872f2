package postgres

import (
	"errors"

	ierr "github.com/localpulse/localpulse/internal/errors"

	"gorm.io/gorm"
)

// translateErr maps gorm's translated errors onto the internal sentinels.
func translateErr(err error, notFoundMsg string, details map[string]interface{}) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ierr.NewError(notFoundMsg).
			WithReportableDetails(details).
			Mark(ierr.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ierr.WithError(err).
			WithReportableDetails(details).
			Mark(ierr.ErrAlreadyExists)
	default:
		return ierr.WithError(err).
			WithReportableDetails(details).
			Mark(ierr.ErrDatabase)
	}
}
