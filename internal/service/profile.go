package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/utafrali/storefront/internal/backend"
	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ProfileInput is the caller's editable contact information.
type ProfileInput struct {
	FullName string
	Email    string
	Address  string
	Phone    string
}

// ProfileService reads and writes the caller's own profile.
type ProfileService struct {
	backend backend.Client
	logger  *slog.Logger
}

// NewProfileService creates a new profile service.
func NewProfileService(b backend.Client, logger *slog.Logger) *ProfileService {
	return &ProfileService{backend: b, logger: logger}
}

// Role returns the caller's role. Anonymous callers are guests.
func (s *ProfileService) Role(ctx context.Context) (domain.Role, error) {
	role, err := s.backend.CallerRole(ctx)
	if err != nil {
		return "", fmt.Errorf("get caller role: %w", err)
	}
	return role, nil
}

// Profile returns the caller's profile, or nil when none was saved yet.
func (s *ProfileService) Profile(ctx context.Context) (*domain.Profile, error) {
	p, err := s.backend.MyProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// SaveProfile trims and validates in, then stores it as the caller's
// profile.
func (s *ProfileService) SaveProfile(ctx context.Context, in ProfileInput) (*domain.Profile, error) {
	p := domain.Profile{
		FullName: strings.TrimSpace(in.FullName),
		Email:    strings.TrimSpace(in.Email),
		Address:  strings.TrimSpace(in.Address),
		Phone:    strings.TrimSpace(in.Phone),
	}
	if p.Email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if !emailPattern.MatchString(p.Email) {
		return nil, apperrors.InvalidInput("email address is invalid")
	}

	if err := s.backend.SaveMyProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	s.logger.InfoContext(ctx, "profile saved")
	return &p, nil
}
