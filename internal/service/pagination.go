package service

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
)

// Paging turns raw page/limit query values into a model.Page.
type Paging struct {
	DefaultLimit int
	MaxLimit     int
}

// Normalize fills defaults for zero values and rejects out-of-range input.
// Pages past the end are valid and simply return no items.
func (p Paging) Normalize(page, limit int) (model.Page, error) {
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = p.DefaultLimit
	}
	maxLimit := p.MaxLimit
	if maxLimit <= 0 {
		maxLimit = 100
	}

	err := validation.Errors{
		"page":  validation.Validate(page, validation.Min(1)),
		"limit": validation.Validate(limit, validation.Min(1), validation.Max(maxLimit)),
	}.Filter()
	if err != nil {
		return model.Page{}, invalid(err)
	}
	// Clamp so page*limit stays representable; every clamped page is empty anyway.
	if lastPage := model.MaxOffset/limit + 1; page > lastPage {
		page = lastPage + 1
	}
	return model.Page{Page: page, Limit: limit}, nil
}
