package store

import (
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator hands out entity ids. Ids must never repeat within a session.
type IDGenerator interface {
	NewID() string
}

// UUIDs generates time-ordered UUIDv7 ids, falling back to random v4 ids if
// the v7 generator fails.
type UUIDs struct{}

func (UUIDs) NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// SequenceIDs yields Prefix+1, Prefix+2, ... and is meant for tests and
// reproducible fixtures.
type SequenceIDs struct {
	Prefix string

	mu   sync.Mutex
	next int
}

func (s *SequenceIDs) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.Prefix + strconv.Itoa(s.next)
}
