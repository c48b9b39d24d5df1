package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/piggy/internal/plan"
)

const (
	jsonExt = ".json"
	csvExt  = ".csv"
)

// Store keeps one JSON document per plan in a directory, named after the plan id.
type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() string {
	return s.dir
}

// PlanPath returns the file a plan with the given id and extension is stored in.
func (s *Store) PlanPath(id, ext string) string {
	return filepath.Join(s.dir, id+ext)
}

// ListIDs returns the ids of stored plans in lexical order. A missing directory holds no plans.
func (s *Store) ListIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("read storage dir: %w", err)
	}

	var ids []string

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != jsonExt {
			continue
		}

		ids = append(ids, strings.TrimSuffix(name, jsonExt))
	}

	slices.Sort(ids)

	return ids, nil
}

func (s *Store) LoadPlan(ctx context.Context, id string) (*plan.Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.PlanPath(id, jsonExt))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: plan %q not found", plan.ErrNotFound, id)
		}

		return nil, fmt.Errorf("read plan: %w", err)
	}

	p, err := plan.FromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}

	return p, nil
}

// SavePlan writes the plan through a temporary file and a rename, so a crash never leaves
// a truncated document behind.
func (s *Store) SavePlan(ctx context.Context, id string, p *plan.Plan) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := p.ToJSON()
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}

	return s.writeFile(s.PlanPath(id, jsonExt), func(w io.Writer) error {
		_, err := w.Write(append(data, '\n'))
		return err
	})
}

// DeletePlan removes a stored plan. Deleting a plan that is not stored is not an error.
func (s *Store) DeletePlan(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(s.PlanPath(id, jsonExt)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove plan: %w", err)
	}

	return nil
}

// ExportCSV writes the plan as CSV next to its JSON document and returns the file path.
func (s *Store) ExportCSV(ctx context.Context, id string, p *plan.Plan) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := s.PlanPath(id, csvExt)
	if err := s.writeFile(path, p.WriteCSV); err != nil {
		return "", err
	}

	return path, nil
}

func (s *Store) writeFile(path string, write func(w io.Writer) error) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}

	tmp := filepath.Join(s.dir, "."+uuid.NewString()+".tmp")

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)

		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}
