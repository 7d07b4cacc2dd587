// file: repository/repository.go

package repository

import (
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a lookup or targeted mutation matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when an insert violates a unique constraint.
	ErrConflict = errors.New("record already exists")
)

// isUUID guards id columns so malformed ids read as "no such row" instead of
// a driver cast error.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
