package service

import (
	"context"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/vicharanashala/ajrasakha-sub003/common/id"
	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
)

type ContextService interface {
	Create(ctx context.Context, authorID int64, text string) (*model.Context, error)
	Get(ctx context.Context, contextID int64) (*model.Context, error)
}

type contextService struct {
	stores StoreProvider
}

func NewContextService(stores StoreProvider) ContextService {
	return &contextService{stores: stores}
}

func (s *contextService) Create(ctx context.Context, authorID int64, text string) (*model.Context, error) {
	text = strings.TrimSpace(text)
	if err := validation.Validate(text, validation.Required, validation.Length(1, 20000)); err != nil {
		return nil, invalid(validation.Errors{"text": err})
	}

	c := &model.Context{
		ID:        id.New(),
		Text:      text,
		CreatedBy: authorID,
	}
	if err := s.stores.Contexts().Create(ctx, c); err != nil {
		return nil, fmt.Errorf("creating context: %w", err)
	}
	return c, nil
}

func (s *contextService) Get(ctx context.Context, contextID int64) (*model.Context, error) {
	c, err := s.stores.Contexts().GetByID(ctx, contextID)
	if err != nil {
		return nil, notFound(err, ErrContextNotFound)
	}
	return c, nil
}
