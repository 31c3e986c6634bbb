package dto

import "github.com/vicharanashala/ajrasakha-sub003/internal/model"

type PageQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

type PageResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// ToPageResponse converts one page of models with fn. Items is never null.
func ToPageResponse[M, T any](result model.PageResult[M], p model.Page, fn func(*M) T) PageResponse[T] {
	items := make([]T, len(result.Items))
	for i := range result.Items {
		items[i] = fn(&result.Items[i])
	}
	return PageResponse[T]{Items: items, Total: result.Total, Page: p.Page, Limit: p.Limit}
}

func toList[M, T any](in []M, fn func(*M) T) []T {
	out := make([]T, len(in))
	for i := range in {
		out[i] = fn(&in[i])
	}
	return out
}
