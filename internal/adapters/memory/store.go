// Package memory provides in-memory adapters for deterministic tests of the
// release engine, mirroring the behavior of the production implementations.
package memory

import (
	"context"
	"encoding/json"

	"github.com/relkit/relkit/pkg/domain"
)

// Store is an in-memory ports.AttemptStore. Records round-trip through JSON
// to simulate serialization, so callers never share memory with the store.
type Store struct {
	record []byte

	// SaveCalls counts Save invocations, for side-effect assertions.
	SaveCalls int
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{}
}

func (s *Store) Load(ctx context.Context) (*domain.ReleaseAttempt, error) {
	if s.record == nil {
		return nil, domain.ErrNoAttempt
	}
	var attempt domain.ReleaseAttempt
	if err := json.Unmarshal(s.record, &attempt); err != nil {
		return nil, &domain.CorruptStateError{Path: "memory", Err: err}
	}
	return &attempt, nil
}

func (s *Store) Save(ctx context.Context, attempt *domain.ReleaseAttempt) error {
	data, err := json.Marshal(attempt)
	if err != nil {
		return err
	}
	s.record = data
	s.SaveCalls++
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.record = nil
	return nil
}

// Corrupt replaces the record with unparsable bytes, for corruption tests.
func (s *Store) Corrupt() {
	s.record = []byte("{half a record")
}
