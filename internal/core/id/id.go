// Package id generates identifiers for receipts, lines, directory entries,
// audit records and outbox messages.
package id

import "github.com/google/uuid"

// ID is the identifier type of every stored row.
type ID = uuid.UUID

// New returns a UUIDv7. Its timestamp prefix keeps inserts append-only in
// B-tree indexes and makes ids sortable by creation time.
func New() ID {
	if v, err := uuid.NewV7(); err == nil {
		return v
	}
	return uuid.New()
}

func Parse(s string) (ID, error) { return uuid.Parse(s) }

// MustParse panics on malformed input; for fixtures only.
func MustParse(s string) ID { return uuid.MustParse(s) }

func Nil() ID { return uuid.Nil }

func IsNil(v ID) bool { return v == uuid.Nil }
