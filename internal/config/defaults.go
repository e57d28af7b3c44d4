package config

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// ThemeDefaultApplier handles the theme root default.
type ThemeDefaultApplier struct{}

func (ThemeDefaultApplier) Domain() string { return "theme" }

func (ThemeDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.ThemeRoot == "" {
		cfg.ThemeRoot = DefaultThemeRoot
	}
	return nil
}

// LiveReloadDefaultApplier handles listener defaults.
type LiveReloadDefaultApplier struct{}

func (LiveReloadDefaultApplier) Domain() string { return "livereload" }

func (LiveReloadDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.LiveReload.Port == 0 {
		cfg.LiveReload.Port = DefaultLiveReloadPort
	}
	return nil
}

// MetricsDefaultApplier handles metrics endpoint defaults.
type MetricsDefaultApplier struct{}

func (MetricsDefaultApplier) Domain() string { return "metrics" }

func (MetricsDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	return nil
}

// LoggingDefaultApplier normalizes log level and format, rejecting unknown values.
type LoggingDefaultApplier struct{}

func (LoggingDefaultApplier) Domain() string { return "logging" }

func (LoggingDefaultApplier) ApplyDefaults(cfg *Config) error {
	level, err := logLevelNormalizer.Parse(string(cfg.Logging.Level))
	if err != nil {
		return err
	}
	format, err := logFormatNormalizer.Parse(string(cfg.Logging.Format))
	if err != nil {
		return err
	}
	cfg.Logging.Level = level
	cfg.Logging.Format = format
	return nil
}

var defaultAppliers = []DefaultApplier{
	ThemeDefaultApplier{},
	LiveReloadDefaultApplier{},
	MetricsDefaultApplier{},
	LoggingDefaultApplier{},
}

// ApplyDefaults runs every domain applier in order.
func ApplyDefaults(cfg *Config) error {
	for _, a := range defaultAppliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}
