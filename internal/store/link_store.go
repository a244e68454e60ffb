// Package store keeps the authoritative in-memory index of links and writes
// every mutation through to the persistence repository.
package store

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	customerrors "github.com/axellelanca/linkquota/internal/errors"
	"github.com/axellelanca/linkquota/internal/models"
	"github.com/axellelanca/linkquota/internal/repository"
)

// ErrCodeNotFound is returned by Modify when no link has the requested code.
var ErrCodeNotFound = errors.New("short code not found")

// Action tells Modify what to do with the record once the callback returns.
type Action int

const (
	// Keep leaves the record as it was.
	Keep Action = iota
	// Save persists the callback's changes.
	Save
	// Remove deletes the record.
	Remove
)

// ModifyFunc receives a copy of the record. Changes are only kept when it returns Save.
type ModifyFunc func(link *models.Link) (Action, error)

// LinkStore is the authoritative short-code index. A single mutex covers every
// read-modify-write sequence including the repository write, so two callers
// can never act on the same record at once.
type LinkStore struct {
	mu     sync.Mutex
	repo   repository.LinkRepository
	byID   map[string]*models.Link
	byCode map[string]string // short code -> link ID
}

// New returns an empty store writing through to repo.
func New(repo repository.LinkRepository) *LinkStore {
	return &LinkStore{
		repo:   repo,
		byID:   make(map[string]*models.Link),
		byCode: make(map[string]string),
	}
}

// Open builds a store and loads every persisted link once.
func Open(ctx context.Context, repo repository.LinkRepository) (*LinkStore, error) {
	s := New(repo)
	links, err := repo.GetAllLinks(ctx)
	if err != nil {
		return nil, customerrors.Persistence("load links", err)
	}
	for i := range links {
		s.index(&links[i])
	}
	log.Printf("[STORE] Loaded %d link(s) from storage.", len(links))
	return s, nil
}

// Insert persists link and indexes it by ID, overwriting any previous version.
// Short code uniqueness is the caller's job.
func (s *LinkStore) Insert(ctx context.Context, link *models.Link) error {
	rec := *link

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.SaveLink(ctx, &rec); err != nil {
		return customerrors.Persistence("insert link", err)
	}
	if old, ok := s.byID[rec.ID]; ok && s.byCode[old.ShortCode] == old.ID {
		delete(s.byCode, old.ShortCode)
	}
	s.index(&rec)
	return nil
}

// FindByCode returns a copy of the current record for code.
func (s *LinkStore) FindByCode(code string) (*models.Link, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.lookup(code)
	if !ok {
		return nil, false
	}
	cp := *rec
	return &cp, true
}

// FindByOwner returns copies of every record owned by ownerID, oldest first.
func (s *LinkStore) FindByOwner(ownerID string) []models.Link {
	s.mu.Lock()
	links := make([]models.Link, 0)
	for _, rec := range s.byID {
		if rec.OwnerID == ownerID {
			links = append(links, *rec)
		}
	}
	s.mu.Unlock()

	sort.Slice(links, func(i, j int) bool {
		if links[i].CreatedAt.Equal(links[j].CreatedAt) {
			return links[i].ShortCode < links[j].ShortCode
		}
		return links[i].CreatedAt.Before(links[j].CreatedAt)
	})
	return links
}

// CodeExists reports whether a stored record uses code.
func (s *LinkStore) CodeExists(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.byCode[code]
	return ok
}

// DeleteByID removes a record. Removing an absent ID is a no-op.
func (s *LinkStore) DeleteByID(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return nil
	}
	if err := s.repo.DeleteLink(ctx, id); err != nil {
		return customerrors.Persistence("delete link", err)
	}
	s.unindex(rec)
	return nil
}

// SweepExpired removes every record with ExpiresAt before now and returns how many were removed.
// The removal is a single repository transaction: on failure nothing is removed.
func (s *LinkStore) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []*models.Link
	for _, rec := range s.byID {
		if rec.ExpiresAt.Before(now) {
			expired = append(expired, rec)
		}
	}
	if len(expired) == 0 {
		return 0, nil
	}

	ids := make([]string, len(expired))
	for i, rec := range expired {
		ids[i] = rec.ID
	}
	if err := s.repo.DeleteLinks(ctx, ids); err != nil {
		return 0, customerrors.Persistence("sweep expired links", err)
	}
	for _, rec := range expired {
		s.unindex(rec)
	}
	return len(expired), nil
}

// Modify runs fn on the record for code inside the store's critical section and
// applies the returned action. The action is persisted before it is committed to
// memory, so a failed write leaves the previous record in place and the
// persistence error is returned instead of fn's error.
func (s *LinkStore) Modify(ctx context.Context, code string, fn ModifyFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.lookup(code)
	if !ok {
		return ErrCodeNotFound
	}

	cp := *rec
	action, fnErr := fn(&cp)

	switch action {
	case Save:
		// identity is fixed once stored
		cp.ID, cp.ShortCode, cp.OwnerID = rec.ID, rec.ShortCode, rec.OwnerID
		if err := s.repo.SaveLink(ctx, &cp); err != nil {
			return customerrors.Persistence("save link", err)
		}
		*rec = cp
	case Remove:
		if err := s.repo.DeleteLink(ctx, rec.ID); err != nil {
			return customerrors.Persistence("delete link", err)
		}
		s.unindex(rec)
	}
	return fnErr
}

// Len returns the number of stored records.
func (s *LinkStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func (s *LinkStore) lookup(code string) (*models.Link, bool) {
	id, ok := s.byCode[code]
	if !ok {
		return nil, false
	}
	rec, ok := s.byID[id]
	return rec, ok
}

func (s *LinkStore) index(rec *models.Link) {
	s.byID[rec.ID] = rec
	s.byCode[rec.ShortCode] = rec.ID
}

func (s *LinkStore) unindex(rec *models.Link) {
	delete(s.byID, rec.ID)
	if s.byCode[rec.ShortCode] == rec.ID {
		delete(s.byCode, rec.ShortCode)
	}
}
