package logger

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// LogFields are attached to the context by handlers, jobs and workers and
// show up on every record logged below them.
type LogFields struct {
	QuestionID *int64
	AnswerID   *int64
	UserID     *int64
	RunID      *int64  // workload balance run
	MessageID  *string // redis stream entry
	Job        *string // cron job name
	Component  string  // e.g. "ajrasakha.worker.balancer"
}

// WithLogFields merges fields into those already on ctx. Set fields win.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	return context.WithValue(ctx, contextKey{}, GetLogFields(ctx).merge(fields))
}

func GetLogFields(ctx context.Context) LogFields {
	fields, _ := ctx.Value(contextKey{}).(LogFields)
	return fields
}

func (f LogFields) merge(o LogFields) LogFields {
	f.QuestionID = pick(o.QuestionID, f.QuestionID)
	f.AnswerID = pick(o.AnswerID, f.AnswerID)
	f.UserID = pick(o.UserID, f.UserID)
	f.RunID = pick(o.RunID, f.RunID)
	f.MessageID = pick(o.MessageID, f.MessageID)
	f.Job = pick(o.Job, f.Job)
	if o.Component != "" {
		f.Component = o.Component
	}
	return f
}

func pick[T any](preferred, fallback *T) *T {
	if preferred != nil {
		return preferred
	}
	return fallback
}

func (f LogFields) attrs() []slog.Attr {
	var out []slog.Attr
	ids := []struct {
		key string
		v   *int64
	}{
		{"question_id", f.QuestionID},
		{"answer_id", f.AnswerID},
		{"user_id", f.UserID},
		{"run_id", f.RunID},
	}
	for _, id := range ids {
		if id.v != nil {
			out = append(out, slog.Int64(id.key, *id.v))
		}
	}
	if f.MessageID != nil {
		out = append(out, slog.String("message_id", *f.MessageID))
	}
	if f.Job != nil {
		out = append(out, slog.String("job", *f.Job))
	}
	if f.Component != "" {
		out = append(out, slog.String("component", f.Component))
	}
	return out
}
