package mysql

import (
	"errors"
	"fmt"

	"btc-lending-backend/internal/domain"

	"gorm.io/gorm"
)

// notFound maps gorm's missing-row error onto the domain sentinel.
func notFound(err error, what, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", what, id, domain.ErrNotFound)
	}
	return err
}
