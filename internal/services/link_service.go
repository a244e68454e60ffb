// Package services contains the business logic layer: the link lifecycle and the user policies.
package services

import (
	"context"
	"errors"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/axellelanca/linkquota/internal/config"
	customerrors "github.com/axellelanca/linkquota/internal/errors"
	"github.com/axellelanca/linkquota/internal/models"
	"github.com/axellelanca/linkquota/internal/store"
)

// CodeGenerator produces random short codes of a given length.
type CodeGenerator interface {
	Generate(length int) (string, error)
}

// PolicyProvider resolves the link policy of an owner.
// A missing owner is reported with customerrors.ErrNotFound.
type PolicyProvider interface {
	GetPolicy(ctx context.Context, ownerID string) (*models.UserProfile, error)
}

// LinkStore is the subset of *store.LinkStore the service relies on.
type LinkStore interface {
	Insert(ctx context.Context, link *models.Link) error
	FindByCode(code string) (*models.Link, bool)
	FindByOwner(ownerID string) []models.Link
	CodeExists(code string) bool
	Modify(ctx context.Context, code string, fn store.ModifyFunc) error
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}

// LinkService orchestrates creation, resolution, deletion and expiry of short links.
type LinkService struct {
	store    LinkStore
	policies PolicyProvider
	codes    CodeGenerator
	settings config.LinkSettings
	nowFunc  func() time.Time

	// createMu makes the exists-check and the insert of a new code one step.
	createMu sync.Mutex
}

// NewLinkService creates and returns a new instance of LinkService.
func NewLinkService(st LinkStore, policies PolicyProvider, codes CodeGenerator, settings config.LinkSettings) *LinkService {
	return &LinkService{
		store:    st,
		policies: policies,
		codes:    codes,
		settings: settings,
		nowFunc:  time.Now,
	}
}

// CreateLink validates the destination, applies the owner's policy and stores a new link.
func (s *LinkService) CreateLink(ctx context.Context, ownerID, longURL string) (*models.Link, error) {
	const op = "create link"

	dest, err := validateDestination(longURL)
	if err != nil {
		return nil, err
	}

	policy, err := s.policies.GetPolicy(ctx, ownerID)
	if err != nil {
		if errors.Is(err, customerrors.ErrNotFound) || errors.Is(err, customerrors.ErrValidation) {
			return nil, customerrors.Validation(op, "owner %q unknown", ownerID)
		}
		return nil, customerrors.Persistence(op, err)
	}
	if !s.settings.QuotaInBounds(policy.DefaultMaxClicks) {
		return nil, customerrors.CorruptState(op, "owner %s has click quota %d outside [%d, %d]",
			ownerID, policy.DefaultMaxClicks, s.settings.MinClicks, s.settings.MaxClicks)
	}

	if int64(policy.TTLHours) > config.MaxTTLHours {
		return nil, customerrors.CorruptState(op, "owner %s has TTL of %d hours, above %d",
			ownerID, policy.TTLHours, config.MaxTTLHours)
	}
	ttl := policy.TTL()
	if ttl <= 0 {
		ttl = s.settings.FallbackTTL()
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()

	code, err := s.uniqueCode()
	if err != nil {
		return nil, err
	}

	now := s.nowFunc().UTC()
	link := &models.Link{
		ID:         uuid.NewString(),
		ShortCode:  code,
		LongURL:    dest,
		OwnerID:    policy.ID,
		MaxClicks:  policy.DefaultMaxClicks,
		ClickCount: 0,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
		Active:     true,
	}
	if err := s.store.Insert(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

// uniqueCode retries until the store has no record with the generated code.
// There is no retry cap: with 62^n codes the chance of a collision after k stored
// links is about k/62^n per try, so for n >= 6 the loop ends on the first try in
// practice.
func (s *LinkService) uniqueCode() (string, error) {
	for attempt := 1; ; attempt++ {
		code, err := s.codes.Generate(s.settings.CodeLength)
		if err != nil {
			return "", err
		}
		if !s.store.CodeExists(code) {
			return code, nil
		}
		log.Printf("Short code '%s' already exists, retrying generation (attempt %d)...", code, attempt)
	}
}

// ResolveLink consumes one click of the link and returns its destination.
// The whole check-and-increment runs inside the store's critical section, so
// concurrent callers can never spend the same last click twice.
func (s *LinkService) ResolveLink(ctx context.Context, code string) (string, error) {
	const op = "resolve link"

	var dest string
	err := s.store.Modify(ctx, code, func(link *models.Link) (store.Action, error) {
		now := s.nowFunc()
		switch {
		case !link.Active:
			return store.Keep, customerrors.QuotaExceeded(op, "link %s is deactivated", code)
		case link.IsExpired(now):
			return store.Remove, customerrors.Expired(op, "link %s expired at %s", code, link.ExpiresAt.Format(time.RFC3339))
		case link.QuotaReached():
			link.Active = false
			return store.Save, customerrors.QuotaExceeded(op, "link %s used all %d clicks", code, link.MaxClicks)
		}

		link.ClickCount++
		if link.QuotaReached() {
			link.Active = false
		}
		dest = link.LongURL
		return store.Save, nil
	})
	if errors.Is(err, store.ErrCodeNotFound) {
		return "", customerrors.NotFound(op, "short code %s not found", code)
	}
	if err != nil {
		return "", err
	}
	return dest, nil
}

// GetLink returns the link for code without consuming a click.
func (s *LinkService) GetLink(_ context.Context, code string) (*models.Link, error) {
	link, ok := s.store.FindByCode(code)
	if !ok {
		return nil, customerrors.NotFound("get link", "short code %s not found", code)
	}
	return link, nil
}

// ListOwnerLinks returns every link owned by ownerID, active or not.
func (s *LinkService) ListOwnerLinks(_ context.Context, ownerID string) ([]models.Link, error) {
	return s.store.FindByOwner(ownerID), nil
}

// DeleteOwnerLink removes the link for code when ownerID owns it.
// The ownership check and the removal use the same snapshot.
func (s *LinkService) DeleteOwnerLink(ctx context.Context, ownerID, code string) error {
	const op = "delete link"

	err := s.store.Modify(ctx, code, func(link *models.Link) (store.Action, error) {
		if link.OwnerID != ownerID {
			return store.Keep, customerrors.AccessDenied(op, "link %s belongs to another user", code)
		}
		return store.Remove, nil
	})
	if errors.Is(err, store.ErrCodeNotFound) {
		return customerrors.NotFound(op, "short code %s not found", code)
	}
	return err
}

// SweepOnce removes every link that expired before now. It is shared by the
// background sweeper and the manual sweep command.
func (s *LinkService) SweepOnce(ctx context.Context, now time.Time) (int, error) {
	return s.store.SweepExpired(ctx, now)
}

// validateDestination requires a non-blank absolute http(s) URL with a host.
func validateDestination(raw string) (string, error) {
	const op = "create link"

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", customerrors.Validation(op, "URL must not be empty")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", customerrors.Validation(op, "malformed URL: %v", err)
	}
	if !u.IsAbs() {
		return "", customerrors.Validation(op, "URL %q is not absolute", trimmed)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", customerrors.Validation(op, "URL must start with http:// or https://")
	}
	if u.Hostname() == "" {
		return "", customerrors.Validation(op, "URL %q has no host", trimmed)
	}
	return trimmed, nil
}
