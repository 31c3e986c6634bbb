package llm

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/openai/openai-go"
)

// IsRetryable reports whether a later call could succeed: rate limits,
// provider 5xx and transport failures. Cancellation and 4xx are final.
func IsRetryable(ctx context.Context, err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		slog.WarnContext(ctx, "llm transport error", "error", err)
		return true
	}

	retry := apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= http.StatusInternalServerError
	level := slog.LevelWarn
	if !retry {
		level = slog.LevelError
	}
	slog.Log(ctx, level, "llm api error",
		"status_code", apiErr.StatusCode,
		"error_type", apiErr.Type,
		"error_code", apiErr.Code,
		"retryable", retry)
	return retry
}
