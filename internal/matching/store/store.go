package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type mapping struct {
	RawPattern    string    `json:"raw_pattern"`
	PreferredName string    `json:"preferred_name"`
	CreatedAt     time.Time `json:"created_at"`
}

// Store keeps merchant name mappings in a single JSON file.
type Store struct {
	path string
	mu   sync.Mutex
}

func New(path string) *Store {
	return &Store{path: path}
}

// FindMatch returns the preferred name of the longest pattern contained in merchantName,
// ignoring case. Among equally long patterns the newest wins.
func (s *Store) FindMatch(ctx context.Context, merchantName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mappings, err := s.read()
	if err != nil {
		return "", fmt.Errorf("finding match: %w", err)
	}

	name := strings.ToLower(merchantName)

	var best *mapping

	for i := range mappings {
		m := &mappings[i]
		if !strings.Contains(name, strings.ToLower(m.RawPattern)) {
			continue
		}

		if best == nil || len(m.RawPattern) > len(best.RawPattern) ||
			(len(m.RawPattern) == len(best.RawPattern) && !m.CreatedAt.Before(best.CreatedAt)) {
			best = m
		}
	}

	if best == nil {
		return "", nil
	}

	return best.PreferredName, nil
}

func (s *Store) CreateMapping(ctx context.Context, rawPattern, preferredName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mappings, err := s.read()
	if err != nil {
		return fmt.Errorf("creating mapping: %w", err)
	}

	mappings = append(mappings, mapping{
		RawPattern:    rawPattern,
		PreferredName: preferredName,
		CreatedAt:     time.Now().UTC(),
	})

	if err := s.write(mappings); err != nil {
		return fmt.Errorf("creating mapping: %w", err)
	}

	return nil
}

func (s *Store) read() ([]mapping, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, err
	}

	var mappings []mapping
	if err := json.Unmarshal(data, &mappings); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(s.path), err)
	}

	return mappings, nil
}

func (s *Store) write(mappings []mapping) error {
	data, err := json.MarshalIndent(mappings, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp := filepath.Join(dir, "."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return err
	}

	return nil
}
