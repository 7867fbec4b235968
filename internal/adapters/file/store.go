// Package file implements ports.AttemptStore on the local filesystem.
// The record is a single JSON file written atomically.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/relkit/relkit/pkg/domain"
)

// Store persists the release attempt record as one JSON file.
type Store struct {
	Path string
}

// New creates a Store writing to the given file path.
func New(path string) *Store {
	return &Store{Path: path}
}

// Load reads the attempt record. A missing file is domain.ErrNoAttempt; any
// unreadable or unparsable content is a *domain.CorruptStateError, never
// silently discarded.
func (s *Store) Load(ctx context.Context) (*domain.ReleaseAttempt, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNoAttempt
		}
		return nil, &domain.CorruptStateError{Path: s.Path, Err: err}
	}

	attempt, err := decode(data)
	if err != nil {
		return nil, &domain.CorruptStateError{Path: s.Path, Err: err}
	}
	return attempt, nil
}

// Save persists the record atomically: write to a temp file in the same
// directory, fsync, close, then rename over the destination. A crash mid-save
// leaves either the previous record or a stray temp file, never a truncated
// record.
func (s *Store) Save(ctx context.Context, attempt *domain.ReleaseAttempt) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to ensure state directory: %w", err)
	}

	data, err := encode(attempt)
	if err != nil {
		return fmt.Errorf("failed to marshal attempt: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "tmp-attempt-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.Path); err != nil {
		return fmt.Errorf("failed to rename temp file into place: %w", err)
	}
	return nil
}

// Clear removes the record. A missing record is not an error.
func (s *Store) Clear(ctx context.Context) error {
	if err := os.Remove(s.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete attempt record: %w", err)
	}
	return nil
}

// decode reads the record through a generic map so fields written by newer
// versions of the tool survive a load/save cycle instead of being dropped.
func decode(data []byte) (*domain.ReleaseAttempt, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	var attempt domain.ReleaseAttempt
	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     &attempt,
		Metadata:   &md,
		TagName:    "json",
		DecodeHook: mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(doc); err != nil {
		return nil, err
	}

	for _, key := range md.Unused {
		if strings.Contains(key, ".") {
			continue // nested leftovers belong to known fields
		}
		if attempt.Unknown == nil {
			attempt.Unknown = make(map[string]any)
		}
		attempt.Unknown[key] = doc[key]
	}

	if attempt.AttemptID == "" {
		return nil, fmt.Errorf("record has no attempt_id")
	}
	if !attempt.Phase.Valid() {
		return nil, fmt.Errorf("record has unknown phase %q", attempt.Phase)
	}
	return &attempt, nil
}

// encode renders the record plus any preserved unknown fields.
func encode(attempt *domain.ReleaseAttempt) ([]byte, error) {
	known, err := json.Marshal(attempt)
	if err != nil {
		return nil, err
	}
	if len(attempt.Unknown) == 0 {
		var out any
		if err := json.Unmarshal(known, &out); err != nil {
			return nil, err
		}
		return json.MarshalIndent(out, "", "  ")
	}

	var doc map[string]any
	if err := json.Unmarshal(known, &doc); err != nil {
		return nil, err
	}
	for k, v := range attempt.Unknown {
		if _, exists := doc[k]; !exists {
			doc[k] = v
		}
	}
	return json.MarshalIndent(doc, "", "  ")
}
