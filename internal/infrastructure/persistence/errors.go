package persistence

import (
	"errors"

	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared"
	"gorm.io/gorm"
)

// translateError maps gorm errors onto domain errors. Anything else is
// returned as is and becomes StoreUnavailable in the application layer.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.ErrAlreadyExists
	default:
		return err
	}
}

// guarded checks the result of a conditional update. Zero rows affected
// means the guard lost a race.
func guarded(result *gorm.DB) error {
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}
