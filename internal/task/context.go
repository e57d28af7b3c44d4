package task

import (
	"context"
	"log/slog"
)

type runInfo struct {
	name   string
	id     string
	logger *slog.Logger
}

type runKeyType struct{}

var runKey runKeyType

func withRun(ctx context.Context, info runInfo) context.Context {
	return context.WithValue(ctx, runKey, info)
}

// RunID returns the ID of the task run carried by ctx, or "".
func RunID(ctx context.Context) string {
	if info, ok := ctx.Value(runKey).(runInfo); ok {
		return info.id
	}
	return ""
}

// Logger returns the run-scoped logger carried by ctx, or slog.Default().
func Logger(ctx context.Context) *slog.Logger {
	if info, ok := ctx.Value(runKey).(runInfo); ok && info.logger != nil {
		return info.logger
	}
	return slog.Default()
}
