// Package store is the MySQL persistence for patrol data. Lookups return
// nil, nil when the row does not exist.
package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"guardpatrol.com/patrol/core"
)

type Store struct {
	dm *core.DatabaseManager
}

func New(dm *core.DatabaseManager) *Store {
	return &Store{dm: dm}
}

// take runs a single-row query and folds ErrRecordNotFound into found=false.
func (s *Store) take(ctx context.Context, fn func(db *gorm.DB) error) (bool, error) {
	return notFoundAsFalse(s.dm.Exec(ctx, fn))
}

func notFoundAsFalse(err error) (bool, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
