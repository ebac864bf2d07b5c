package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// TimeOperation executes an operation and logs its execution time
func TimeOperation(ctx context.Context, name string, operation func() error) error {
	start := time.Now()
	err := operation()
	slog.DebugContext(ctx, "store operation", "op", name, "elapsed", time.Since(start), "err", err)
	return err
}

// WithTransaction runs operation inside a database transaction. The
// transaction commits when operation returns nil and rolls back otherwise,
// including on panic.
func WithTransaction(ctx context.Context, db *gorm.DB, operation func(tx *gorm.DB) error) (err error) {
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to start transaction: %w", tx.Error)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p) // re-throw panic after Rollback
		} else if err != nil {
			if rbErr := tx.Rollback().Error; rbErr != nil {
				slog.ErrorContext(ctx, "error while rolling back transaction", "err", rbErr)
			}
		} else {
			err = tx.Commit().Error
		}
	}()

	err = operation(tx)
	return err
}

// IsUniqueViolation reports whether err came from a unique constraint, for
// both the lib/pq pool used in production and gorm's translated errors.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// IsNotFound reports whether err is gorm's missing-row error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
