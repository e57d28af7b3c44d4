package config

import (
	"slices"
	"strings"

	ferrors "git.home.luguber.info/inful/themebuilder/internal/foundation/errors"
)

// Validate checks a configuration after defaults have been applied.
func Validate(cfg *Config) error {
	if strings.TrimSpace(cfg.ThemeRoot) == "" {
		return ferrors.ValidationError("theme_root must not be empty").Build()
	}
	if cfg.LiveReload.Port < 0 || cfg.LiveReload.Port > 65535 {
		return ferrors.ValidationError("livereload.port out of range").
			WithContext("port", cfg.LiveReload.Port).
			Build()
	}
	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return ferrors.ValidationError("metrics.path must start with '/'").
			WithContext("path", cfg.Metrics.Path).
			Build()
	}
	if IsReservedPath(cfg.Metrics.Path) || strings.ContainsAny(cfg.Metrics.Path, "{} \t") {
		return ferrors.ValidationError("metrics.path collides with a live-reload route").
			WithContext("path", cfg.Metrics.Path).
			Build()
	}
	return nil
}

// reservedPaths are served by the live-reload listener itself.
var reservedPaths = []string{"/", "/changed", "/events", "/livereload", "/livereload.js"}

// IsReservedPath reports whether p is one of the listener's own routes.
func IsReservedPath(p string) bool {
	return slices.Contains(reservedPaths, p)
}
