package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/utafrali/storefront/internal/backend"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/listing"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
)

// SecretKeyPrefix is the prefix every payment secret key carries.
const SecretKeyPrefix = "sk_"

// PaymentConfigInput is the admin payment form. Countries is a comma
// separated list of ISO 3166-1 alpha-2 codes.
type PaymentConfigInput struct {
	SecretKey string
	Countries string
}

// AdminService holds the operations of the admin console.
type AdminService struct {
	backend backend.Client
	logger  *slog.Logger
}

// NewAdminService creates a new admin service.
func NewAdminService(b backend.Client, logger *slog.Logger) *AdminService {
	return &AdminService{backend: b, logger: logger}
}

// IsAdmin reports whether the caller is an administrator.
func (s *AdminService) IsAdmin(ctx context.Context) (bool, error) {
	ok, err := s.backend.IsCallerAdmin(ctx)
	if err != nil {
		return false, fmt.Errorf("check admin: %w", err)
	}
	return ok, nil
}

// Users returns one page of the registered users matching q.
func (s *AdminService) Users(ctx context.Context, q listing.UserQuery, page pagination.Params) (pagination.Result[domain.Profile], error) {
	users, err := s.backend.ListProfiles(ctx)
	if err != nil {
		return pagination.Result[domain.Profile]{}, fmt.Errorf("list profiles: %w", err)
	}
	return listing.Paginate(listing.FilterUsers(users, q), page), nil
}

// AssignRole changes the role of principal.
func (s *AdminService) AssignRole(ctx context.Context, principal, role string) error {
	principal = strings.TrimSpace(principal)
	if principal == "" {
		return apperrors.InvalidInput("principal is required")
	}
	r, err := domain.ParseRole(role)
	if err != nil {
		return apperrors.InvalidInput(err.Error())
	}

	if err := s.backend.AssignRole(ctx, principal, r); err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	s.logger.InfoContext(ctx, "role assigned",
		slog.String("target_principal", principal),
		slog.String("role", string(r)),
	)
	return nil
}

// PaymentConfigured reports whether a payment secret has been set.
func (s *AdminService) PaymentConfigured(ctx context.Context) (bool, error) {
	ok, err := s.backend.IsPaymentConfigured(ctx)
	if err != nil {
		return false, fmt.Errorf("check payment configuration: %w", err)
	}
	return ok, nil
}

// SetPaymentConfig validates and stores the payment configuration. The
// stored countries are returned; the secret never is.
func (s *AdminService) SetPaymentConfig(ctx context.Context, in PaymentConfigInput) ([]string, error) {
	cfg, err := ParsePaymentConfig(in)
	if err != nil {
		return nil, err
	}
	if err := s.backend.SetPaymentConfig(ctx, cfg); err != nil {
		return nil, fmt.Errorf("set payment config: %w", err)
	}
	s.logger.InfoContext(ctx, "payment configuration updated",
		slog.Int("countries", len(cfg.AllowedCountries)),
	)
	return cfg.AllowedCountries, nil
}

// ParsePaymentConfig validates the payment form. Country codes are
// upper-cased and entries that are not two letters long are dropped.
func ParsePaymentConfig(in PaymentConfigInput) (domain.PaymentConfig, error) {
	key := strings.TrimSpace(in.SecretKey)
	if key == "" {
		return domain.PaymentConfig{}, apperrors.InvalidInput("secret key is required")
	}
	if !strings.HasPrefix(key, SecretKeyPrefix) {
		return domain.PaymentConfig{}, apperrors.InvalidInput("secret key must start with " + SecretKeyPrefix)
	}

	var countries []string
	for _, c := range strings.Split(in.Countries, ",") {
		c = strings.ToUpper(strings.TrimSpace(c))
		if len(c) == 2 {
			countries = append(countries, c)
		}
	}
	if len(countries) == 0 {
		return domain.PaymentConfig{}, apperrors.InvalidInput("at least one valid country code is required")
	}

	return domain.PaymentConfig{SecretKey: key, AllowedCountries: countries}, nil
}
