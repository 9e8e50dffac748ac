// Package sequence issues gap-free document numbers backed by a per-prefix
// counter row. Numbers are allocated inside the caller's transaction so a
// rollback returns the value to the pool before anyone observes it.
package sequence

import (
	"fmt"

	"gorm.io/gorm"

	apperrors "github.com/shopflow-app/shopflow-backend/pkg/errors"
)

const (
	PrefixEstimate = "EST-"
	PrefixInvoice  = "INV-"
)

// Next increments the counter for prefix and returns the formatted document
// number, e.g. "EST-0001". The upsert-increment is a single atomic statement
// on both PostgreSQL and SQLite, so concurrent callers serialize on the
// counter row instead of racing a read-modify-write.
func Next(tx *gorm.DB, prefix string) (string, error) {
	var last int64
	err := tx.Raw(
		`INSERT INTO sequences (prefix, last_value) VALUES (?, 1)
		 ON CONFLICT (prefix) DO UPDATE SET last_value = sequences.last_value + 1
		 RETURNING last_value`,
		prefix,
	).Scan(&last).Error
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternal, err, "allocate document number")
	}
	return fmt.Sprintf("%s%04d", prefix, last), nil
}
