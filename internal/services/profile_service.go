package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finpulse/internal/core"
	"finpulse/internal/storage"
)

// ProfileStore is the persistence surface for user profiles.
type ProfileStore interface {
	GetHealthProfile(ctx context.Context, userID string) (core.HealthProfile, error)
	UpsertHealthProfile(ctx context.Context, h core.HealthProfile) error
	GetPortfolioProfile(ctx context.Context, userID string) (core.PortfolioProfile, error)
	UpsertPortfolioProfile(ctx context.Context, p core.PortfolioProfile) error
}

// ProfileService reads and writes the two dashboard profiles. Missing
// profiles read as zero values so a fresh user sees a working dashboard
// before saving anything.
type ProfileService struct {
	store ProfileStore
}

func NewProfileService(store ProfileStore) *ProfileService {
	return &ProfileService{store: store}
}

// GetHealthProfile returns the saved health profile, or an all-zero one
// when the user never saved it.
func (s *ProfileService) GetHealthProfile(ctx context.Context, userID string) (core.HealthProfile, error) {
	h, err := s.store.GetHealthProfile(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return core.HealthProfile{UserID: userID}, nil
	}
	if err != nil {
		return core.HealthProfile{}, fmt.Errorf("get health profile: %w", err)
	}
	return h, nil
}

// SaveHealthProfile validates and overwrites the user's health profile.
func (s *ProfileService) SaveHealthProfile(ctx context.Context, h core.HealthProfile) error {
	if err := h.Validate(); err != nil {
		return err
	}
	if err := s.store.UpsertHealthProfile(ctx, h); err != nil {
		return fmt.Errorf("save health profile: %w", err)
	}
	return nil
}

// GetPortfolioProfile returns the saved portfolio profile, defaulting to
// the moderate risk tier when the user never chose one.
func (s *ProfileService) GetPortfolioProfile(ctx context.Context, userID string) (core.PortfolioProfile, error) {
	p, err := s.store.GetPortfolioProfile(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return core.PortfolioProfile{
			UserID:    userID,
			Risk:      core.Moderate,
			UpdatedAt: time.Time{},
		}, nil
	}
	if err != nil {
		return core.PortfolioProfile{}, fmt.Errorf("get portfolio profile: %w", err)
	}
	return p, nil
}

// SavePortfolioProfile validates and overwrites the user's risk choice.
func (s *ProfileService) SavePortfolioProfile(ctx context.Context, p core.PortfolioProfile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.store.UpsertPortfolioProfile(ctx, p); err != nil {
		return fmt.Errorf("save portfolio profile: %w", err)
	}
	return nil
}
