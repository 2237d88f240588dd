package observability

import (
	"context"
	"log/slog"
)

// RepoLogger provides structured logging for repository operations.
type RepoLogger struct {
	backend string
	table   string
}

// NewRepoLogger creates a RepoLogger for one table of one backend.
func NewRepoLogger(backend, table string) *RepoLogger {
	return &RepoLogger{backend: backend, table: table}
}

func (l *RepoLogger) attrs(operation string, fields []any) []any {
	return append([]any{
		slog.String("backend", l.backend),
		slog.String("table", l.table),
		slog.String("operation", operation),
	}, fields...)
}

// LogMutation records a successful write.
func (l *RepoLogger) LogMutation(ctx context.Context, operation string, fields ...any) {
	slog.Default().DebugContext(ctx, "repository mutation", l.attrs(operation, fields)...)
}

// LogCascade records how many dependent rows a delete removed.
func (l *RepoLogger) LogCascade(ctx context.Context, rootID uint, removed map[string]int) {
	fields := []any{slog.Uint64("root_id", uint64(rootID))}
	for entity, n := range removed {
		fields = append(fields, slog.Int(entity, n))
		CascadeDeletes.WithLabelValues(entity).Add(float64(n))
	}
	slog.Default().InfoContext(ctx, "cascade delete", l.attrs("delete", fields)...)
}

// LogError logs a repository error.
func (l *RepoLogger) LogError(ctx context.Context, err error, operation string) {
	slog.Default().ErrorContext(ctx, "repository error", l.attrs(operation, []any{slog.String("error", err.Error())})...)
}
