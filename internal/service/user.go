package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
	"github.com/vicharanashala/ajrasakha-sub003/internal/store"
)

type SetBlockedInput struct {
	ActorID int64
	UserID  int64
	Blocked bool
	// Until is optional; the unblock job lifts expired blocks.
	Until *time.Time
}

type UserService interface {
	Get(ctx context.Context, userID int64) (*model.User, error)
	ListExperts(ctx context.Context, includeBlocked bool) ([]model.User, error)
	UpdatePreference(ctx context.Context, userID int64, pref model.Preference) (*model.User, error)
	SetBlocked(ctx context.Context, in SetBlockedInput) (*model.User, error)
	SetRole(ctx context.Context, actorID, userID int64, role model.Role) (*model.User, error)
	UnblockExpired(ctx context.Context, now time.Time) (int, error)
}

type userService struct {
	stores StoreProvider
}

func NewUserService(stores StoreProvider) UserService {
	return &userService{stores: stores}
}

func (s *userService) Get(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.stores.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return user, nil
}

func (s *userService) ListExperts(ctx context.Context, includeBlocked bool) ([]model.User, error) {
	experts, err := s.stores.Users().ListExperts(ctx, includeBlocked)
	if err != nil {
		return nil, fmt.Errorf("listing experts: %w", err)
	}
	return experts, nil
}

func (s *userService) UpdatePreference(ctx context.Context, userID int64, pref model.Preference) (*model.User, error) {
	err := validation.ValidateStruct(&pref,
		validation.Field(&pref.Language, validation.Length(0, 32)),
		validation.Field(&pref.Domain, validation.Length(0, 100)),
	)
	if err != nil {
		return nil, invalid(err)
	}

	return s.patch(ctx, userID, store.UserPatch{Preference: &pref}, "updating preference")
}

func (s *userService) SetBlocked(ctx context.Context, in SetBlockedInput) (*model.User, error) {
	if in.ActorID == in.UserID {
		return nil, ErrSelfAction
	}
	if in.Until != nil && !in.Blocked {
		return nil, invalid(validation.Errors{"until": validation.NewError("validation_until_unblocked", "must be empty when unblocking")})
	}
	if in.Until != nil && !in.Until.After(time.Now()) {
		return nil, invalid(validation.Errors{"until": validation.NewError("validation_until_past", "must be in the future")})
	}

	block := &store.UserBlock{Blocked: in.Blocked}
	if in.Blocked && in.Until != nil {
		until := in.Until.UTC()
		block.Until = &until
	}
	user, err := s.patch(ctx, in.UserID, store.UserPatch{Block: block}, "updating user")
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "user block changed",
		"user_id", user.ID,
		"blocked", user.IsBlocked)

	return user, nil
}

func (s *userService) SetRole(ctx context.Context, actorID, userID int64, role model.Role) (*model.User, error) {
	if !role.IsValid() {
		return nil, invalid(validation.Errors{"role": validation.ErrInInvalid})
	}
	if actorID == userID {
		return nil, ErrSelfAction
	}

	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role == role {
		return user, nil
	}

	user, err = s.patch(ctx, userID, store.UserPatch{Role: &role}, "updating user")
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "user role changed", "user_id", user.ID, "role", role)
	return user, nil
}

func (s *userService) patch(ctx context.Context, userID int64, patch store.UserPatch, op string) (*model.User, error) {
	user, err := s.stores.Users().Patch(ctx, userID, patch)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err, ErrUserNotFound))
	}
	return user, nil
}

func (s *userService) UnblockExpired(ctx context.Context, now time.Time) (int, error) {
	n, err := s.stores.Users().UnblockExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("unblocking experts: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "expired blocks lifted", "count", n)
	}
	return n, nil
}
