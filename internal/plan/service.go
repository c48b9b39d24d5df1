package plan

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=plan
type Repository interface {
	ListIDs(ctx context.Context) ([]string, error)
	LoadPlan(ctx context.Context, id string) (*Plan, error)
	SavePlan(ctx context.Context, id string, p *Plan) error
	DeletePlan(ctx context.Context, id string) error
	ExportCSV(ctx context.Context, id string, p *Plan) (string, error)
}

// Service keeps the working set of plans keyed by id and persists it through a Repository.
// Reads hand out clones; writes go through Add, Create, Update, Rename and Remove.
type Service struct {
	repo Repository

	mu           sync.RWMutex
	order        []string
	plans        map[string]*Plan
	removed      map[string]struct{}
	version      uint64
	savedVersion uint64
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:    repo,
		plans:   make(map[string]*Plan),
		removed: make(map[string]struct{}),
	}
}

// Add stores a copy of p under id, replacing any plan already stored there.
func (s *Service) Add(id string, p *Plan) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: plan id is required", ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.put(id, p.Clone())
	s.version++

	return nil
}

// Create builds a plan from params and stores it under a freshly generated id.
func (s *Service) Create(params BuildParams) (Entry, error) {
	p, err := Build(params)
	if err != nil {
		return Entry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.generateID(p.merchantName, p.purchaseDate, "")
	s.put(id, p)
	s.version++

	return Entry{ID: id, Plan: p.Clone()}, nil
}

func (s *Service) Get(id string) (*Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.plans[id]
	if !ok {
		return nil, fmt.Errorf("%w: plan %q not found", ErrNotFound, id)
	}

	return p.Clone(), nil
}

// Remove drops the plan from the working set. Its stored copy is deleted on the next SaveAll.
func (s *Service) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.plans[id]; !ok {
		return false
	}

	delete(s.plans, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	s.removed[id] = struct{}{}
	s.version++

	return true
}

// List returns copies of all plans in insertion order.
func (s *Service) List() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshot()
}

func (s *Service) HasPlans() bool {
	return s.Len() > 0
}

func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.order)
}

// Update applies fn to a working copy of plan id and commits it only when fn succeeds.
func (s *Service) Update(id string, fn func(p *Plan) error) (*Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plans[id]
	if !ok {
		return nil, fmt.Errorf("%w: plan %q not found", ErrNotFound, id)
	}

	work := p.Clone()
	if err := fn(work); err != nil {
		return nil, err
	}

	s.plans[id] = work
	s.version++

	return work.Clone(), nil
}

// Rename changes the merchant name and re-keys the plan under a new generated id.
// The plan keeps its position in the listing.
func (s *Service) Rename(id, merchantName string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plans[id]
	if !ok {
		return "", fmt.Errorf("%w: plan %q not found", ErrNotFound, id)
	}

	work := p.Clone()
	if err := work.SetMerchantName(merchantName); err != nil {
		return "", err
	}

	newID := s.generateID(work.merchantName, work.purchaseDate, id)
	if newID != id {
		delete(s.plans, id)
		s.removed[id] = struct{}{}
		delete(s.removed, newID)
		s.order[slices.Index(s.order, id)] = newID
	}

	s.plans[newID] = work
	s.version++

	return newID, nil
}

// GenerateID derives an id of the form <merchant>_<YYYY-MM-DD>, adding _2, _3, ... when taken.
func (s *Service) GenerateID(merchantName string, purchaseDate time.Time) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.generateID(merchantName, purchaseDate, "")
}

// UpdateOverdueStatus flags overdue installments across all plans and returns how many changed.
func (s *Service) UpdateOverdueStatus(asOf time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, id := range s.order {
		count += s.plans[id].UpdateOverdueStatus(asOf)
	}

	if count > 0 {
		s.version++
	}

	return count
}

func (s *Service) HasUnsavedChanges() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.version != s.savedVersion
}

func (s *Service) MarkModified() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.version++
}

// SaveAll writes every plan and deletes removed ones. It never stops at the first failure:
// it returns how many plans were written and one message per failure.
// Unsaved changes are cleared only when nothing failed.
func (s *Service) SaveAll(ctx context.Context) (int, []string) {
	s.mu.RLock()
	entries := s.snapshot()
	removed := slices.Sorted(maps.Keys(s.removed))
	version := s.version
	s.mu.RUnlock()

	var errs []string

	for _, id := range removed {
		if err := s.repo.DeletePlan(ctx, id); err != nil {
			errs = append(errs, fmt.Sprintf("error removing %s: %v", id, err))
			continue
		}

		s.mu.Lock()
		if _, back := s.plans[id]; !back {
			delete(s.removed, id)
		}
		s.mu.Unlock()
	}

	saved := 0

	for _, e := range entries {
		if err := s.repo.SavePlan(ctx, e.ID, e.Plan); err != nil {
			errs = append(errs, fmt.Sprintf("error saving %s: %v", e.ID, err))
			continue
		}

		saved++
	}

	if len(errs) == 0 {
		s.mu.Lock()
		if s.savedVersion < version {
			s.savedVersion = version
		}
		s.mu.Unlock()
	}

	return saved, errs
}

// LoadAll reads every stored plan into the working set, replacing plans with the same id.
// It returns how many plans loaded and one message per plan that could not be read.
func (s *Service) LoadAll(ctx context.Context) (int, []string) {
	ids, err := s.repo.ListIDs(ctx)
	if err != nil {
		return 0, []string{fmt.Sprintf("error listing plans: %v", err)}
	}

	var errs []string

	loaded := 0

	for _, id := range ids {
		p, err := s.repo.LoadPlan(ctx, id)
		if err != nil {
			errs = append(errs, fmt.Sprintf("error loading %s: %v", id, err))
			continue
		}

		s.mu.Lock()
		s.put(id, p)
		delete(s.removed, id)
		s.mu.Unlock()

		loaded++
	}

	return loaded, errs
}

// Reload replaces the working set with the stored plans, dropping anything not on disk.
// Unsaved changes are cleared only when every stored plan loaded. If the plans cannot be
// listed, the working set is left untouched.
func (s *Service) Reload(ctx context.Context) (int, []string) {
	ids, err := s.repo.ListIDs(ctx)
	if err != nil {
		return 0, []string{fmt.Sprintf("error listing plans: %v", err)}
	}

	var (
		errs  []string
		order []string
		plans = make(map[string]*Plan, len(ids))
	)

	for _, id := range ids {
		p, err := s.repo.LoadPlan(ctx, id)
		if err != nil {
			errs = append(errs, fmt.Sprintf("error loading %s: %v", id, err))
			continue
		}

		order = append(order, id)
		plans[id] = p
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = order
	s.plans = plans
	s.removed = make(map[string]struct{})
	s.version++

	if len(errs) == 0 {
		s.savedVersion = s.version
	}

	return len(order), errs
}

// ExportCSV writes plan id through the repository and returns where it was written.
func (s *Service) ExportCSV(ctx context.Context, id string) (string, error) {
	p, err := s.Get(id)
	if err != nil {
		return "", err
	}

	path, err := s.repo.ExportCSV(ctx, id, p)
	if err != nil {
		return "", fmt.Errorf("export plan %s: %w", id, err)
	}

	return path, nil
}

type ImportResult struct {
	Imported  []Entry
	New       []*Plan
	Conflicts []Conflict
}

// Conflict pairs an incoming plan with the stored plan it appears to duplicate.
type Conflict struct {
	Incoming *Plan
	Existing Entry
}

// ImportBatch adds plans unless any of them matches a stored plan by merchant, purchase date and
// total. On conflict nothing is added and the result lists the clean and conflicting plans.
func (s *Service) ImportBatch(plans []*Plan) *ImportResult {
	if len(plans) == 0 {
		return &ImportResult{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		fresh     []*Plan
		conflicts []Conflict
	)

	for _, p := range plans {
		if existing, found := s.findDuplicate(p); found {
			conflicts = append(conflicts, Conflict{Incoming: p, Existing: existing})
			continue
		}

		fresh = append(fresh, p)
	}

	if len(conflicts) > 0 {
		return &ImportResult{New: fresh, Conflicts: conflicts}
	}

	return &ImportResult{Imported: s.addBatch(plans)}
}

// AddBatch stores every plan under a generated id, duplicates included.
func (s *Service) AddBatch(plans []*Plan) []Entry {
	if len(plans) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.addBatch(plans)
}

func (s *Service) addBatch(plans []*Plan) []Entry {
	entries := make([]Entry, 0, len(plans))

	for _, p := range plans {
		id := s.generateID(p.merchantName, p.purchaseDate, "")
		s.put(id, p.Clone())
		entries = append(entries, Entry{ID: id, Plan: p.Clone()})
	}

	s.version++

	return entries
}

func (s *Service) findDuplicate(p *Plan) (Entry, bool) {
	for _, id := range s.order {
		existing := s.plans[id]
		if strings.EqualFold(existing.merchantName, p.merchantName) &&
			existing.purchaseDate.Equal(p.purchaseDate) &&
			existing.totalAmount.Equal(p.totalAmount) {
			return Entry{ID: id, Plan: existing.Clone()}, true
		}
	}

	return Entry{}, false
}

func (s *Service) put(id string, p *Plan) {
	if _, ok := s.plans[id]; !ok {
		s.order = append(s.order, id)
	}

	s.plans[id] = p
}

func (s *Service) snapshot() []Entry {
	entries := make([]Entry, 0, len(s.order))
	for _, id := range s.order {
		entries = append(entries, Entry{ID: id, Plan: s.plans[id].Clone()})
	}

	return entries
}

// generateID ignores a collision with self so a renamed plan can keep its id.
func (s *Service) generateID(merchantName string, purchaseDate time.Time, self string) string {
	base := safeName(merchantName) + "_" + purchaseDate.Format(time.DateOnly)
	candidate := base

	for n := 2; ; n++ {
		if _, taken := s.plans[candidate]; !taken || candidate == self {
			return candidate
		}

		candidate = fmt.Sprintf("%s_%d", base, n)
	}
}

func safeName(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == ' ' || r == '.' {
			return r
		}

		return '_'
	}, strings.TrimSpace(name))
}
