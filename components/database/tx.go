package database

import (
	"context"

	"gorm.io/gorm"
)

// InTransaction runs fn inside a transaction on db and returns its result.
// It commits when fn succeeds; on error or panic the transaction is rolled back
// and the zero value is returned (a panic propagates).
func InTransaction[T any](ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) (T, error)) (T, error) {
	var out T
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		v, err := fn(tx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
