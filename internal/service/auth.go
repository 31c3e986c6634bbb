package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/workos/workos-go/v6/pkg/usermanagement"

	"github.com/vicharanashala/ajrasakha-sub003/common/id"
	"github.com/vicharanashala/ajrasakha-sub003/core/config"
	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
	"github.com/vicharanashala/ajrasakha-sub003/internal/store"
)

var ErrIdentityUnavailable = fmt.Errorf("identity provider %w", ErrUnavailable)

var (
	ErrIdentityNoEmail     = fmt.Errorf("%w: identity has no email", ErrForbidden)
	ErrIdentityEmailLinked = fmt.Errorf("%w: email is linked to another identity", ErrForbidden)
)

// IdentityProfile is what the identity provider knows about a subject.
type IdentityProfile struct {
	ExternalID string
	Email      string
	FirstName  string
	LastName   string
}

// IdentityProvider looks up profiles for token subjects seen for the first time.
type IdentityProvider interface {
	GetUser(ctx context.Context, externalID string) (*IdentityProfile, error)
}

type workOSIdentityProvider struct{}

// NewWorkOSIdentityProvider configures the WorkOS user management client.
func NewWorkOSIdentityProvider(cfg config.WorkOSConfig) IdentityProvider {
	usermanagement.SetAPIKey(cfg.APIKey)
	return &workOSIdentityProvider{}
}

func (p *workOSIdentityProvider) GetUser(ctx context.Context, externalID string) (*IdentityProfile, error) {
	u, err := usermanagement.GetUser(ctx, usermanagement.GetUserOpts{User: externalID})
	if err != nil {
		return nil, fmt.Errorf("fetching workos user: %w", err)
	}
	return &IdentityProfile{
		ExternalID: u.ID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
	}, nil
}

type AuthService interface {
	// ResolveUser maps a verified token subject to a local account, creating
	// one on first sign-in.
	ResolveUser(ctx context.Context, externalID string) (*model.User, error)
}

type authService struct {
	stores      StoreProvider
	identity    IdentityProvider
	adminEmails map[string]bool
}

func NewAuthService(stores StoreProvider, identity IdentityProvider, adminEmails []string) AuthService {
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		admins[strings.ToLower(e)] = true
	}
	return &authService{
		stores:      stores,
		identity:    identity,
		adminEmails: admins,
	}
}

func (s *authService) ResolveUser(ctx context.Context, externalID string) (*model.User, error) {
	user, err := s.stores.Users().GetByExternalID(ctx, externalID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("getting user: %w", err)
	}

	if s.identity == nil {
		return nil, ErrIdentityUnavailable
	}
	profile, err := s.identity.GetUser(ctx, externalID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to fetch identity profile", "error", err, "external_id", externalID)
		return nil, fmt.Errorf("%w: %w", ErrIdentityUnavailable, err)
	}
	email := strings.ToLower(strings.TrimSpace(profile.Email))
	if email == "" {
		slog.WarnContext(ctx, "identity profile has no email", "external_id", externalID)
		return nil, ErrIdentityNoEmail
	}

	// Accounts seeded by email get linked to the identity on first sign-in.
	// An account already bound to another identity is never rebound.
	existing, err := s.stores.Users().GetByEmail(ctx, email)
	switch {
	case err == nil && existing.ExternalID != nil:
		slog.WarnContext(ctx, "email already linked to another identity",
			"user_id", existing.ID,
			"external_id", externalID)
		return nil, ErrIdentityEmailLinked
	case err == nil:
		linked, err := s.stores.Users().Patch(ctx, existing.ID, store.UserPatch{ExternalID: &externalID})
		if err != nil {
			return nil, fmt.Errorf("linking user: %w", err)
		}
		slog.InfoContext(ctx, "user linked to identity", "user_id", linked.ID)
		return linked, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("getting user by email: %w", err)
	}

	role := model.RoleUser
	if s.adminEmails[email] {
		role = model.RoleAdmin
	}
	user = &model.User{
		ID:         id.New(),
		ExternalID: &externalID,
		Name:       buildUserName(profile),
		Email:      email,
		Role:       role,
		Preference: model.Preference{EmailNotifications: true},
	}
	if err := s.stores.Users().Create(ctx, user); err != nil {
		// Concurrent first requests race on the unique externalId index.
		if errors.Is(err, store.ErrConflict) {
			return s.stores.Users().GetByExternalID(ctx, externalID)
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	slog.InfoContext(ctx, "user created",
		"user_id", user.ID,
		"role", user.Role)

	return user, nil
}

func buildUserName(p *IdentityProfile) string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		if at := strings.Index(p.Email, "@"); at > 0 {
			return p.Email[:at]
		}
		return p.Email
	}
	return name
}
