package surfaceloop

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Config is the file-backed configuration of a bridge and its runners.
type Config struct {
	// LogLevel is a syslog keyword (e.g. "info", "debug"), or "disabled".
	LogLevel string
	// FrameRate is the target ticks per second, used unless FrameInterval
	// is set.
	FrameRate int
	// FrameInterval overrides FrameRate, if positive.
	FrameInterval time.Duration
	// WarnRatePerSecond and WarnRatePerMinute limit the "no consumer"
	// warning, per command kind. Zero disables that window, and with both
	// zero every warning is logged.
	WarnRatePerSecond int
	WarnRatePerMinute int
	// TickOnPause, see WithTickOnPause.
	TickOnPause bool
	// ReplaceDuplicateSurface, see WithReplaceDuplicateSurface.
	ReplaceDuplicateSurface bool
}

type fileConfig struct {
	LogLevel                string `toml:"log_level"`
	FrameInterval           string `toml:"frame_interval"`
	FrameRate               int    `toml:"frame_rate"`
	WarnRatePerSecond       int    `toml:"warn_rate_per_second"`
	WarnRatePerMinute       int    `toml:"warn_rate_per_minute"`
	TickOnPause             bool   `toml:"tick_on_pause"`
	ReplaceDuplicateSurface bool   `toml:"replace_duplicate_surface"`
}

// DefaultConfig returns the configuration used for keys a file omits.
func DefaultConfig() Config {
	return Config{
		LogLevel:          "info",
		FrameRate:         60,
		WarnRatePerSecond: 1,
		WarnRatePerMinute: 10,
	}
}

// LoadConfig reads a TOML file, overlaying the keys it defines onto
// DefaultConfig. The result is validated.
func LoadConfig(path string) (Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load surfaceloop config: %w", err)
	}
	return overlayConfig(raw, meta)
}

// ParseConfig is LoadConfig for TOML already in memory.
func ParseConfig(data string) (Config, error) {
	var raw fileConfig
	meta, err := toml.Decode(data, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("parse surfaceloop config: %w", err)
	}
	return overlayConfig(raw, meta)
}

func overlayConfig(raw fileConfig, meta toml.MetaData) (Config, error) {
	cfg := DefaultConfig()

	if undecoded := meta.Undecoded(); len(undecoded) != 0 {
		return Config{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}

	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if meta.IsDefined("frame_rate") {
		cfg.FrameRate = raw.FrameRate
	}

	if meta.IsDefined("frame_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.FrameInterval))
		if err != nil {
			return Config{}, fmt.Errorf("parse frame_interval: %w", err)
		}
		cfg.FrameInterval = d
	}

	if meta.IsDefined("warn_rate_per_second") {
		cfg.WarnRatePerSecond = raw.WarnRatePerSecond
	}

	if meta.IsDefined("warn_rate_per_minute") {
		cfg.WarnRatePerMinute = raw.WarnRatePerMinute
	}

	if meta.IsDefined("tick_on_pause") {
		cfg.TickOnPause = raw.TickOnPause
	}

	if meta.IsDefined("replace_duplicate_surface") {
		cfg.ReplaceDuplicateSurface = raw.ReplaceDuplicateSurface
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.FrameInterval < 0 {
		return fmt.Errorf("frame_interval must not be negative: %v", c.FrameInterval)
	}
	if c.FrameInterval == 0 && c.FrameRate <= 0 {
		return fmt.Errorf("frame_rate must be positive: %d", c.FrameRate)
	}
	if c.Interval() <= 0 {
		return fmt.Errorf("frame_rate too high: %d", c.FrameRate)
	}
	if c.WarnRatePerSecond < 0 || c.WarnRatePerMinute < 0 {
		return fmt.Errorf("warn rates must not be negative")
	}
	if _, err := newWarnLimiter(c.warnRates()); err != nil {
		return err
	}
	return nil
}

// Interval returns the effective frame interval.
func (c Config) Interval() time.Duration {
	if c.FrameInterval > 0 {
		return c.FrameInterval
	}
	if c.FrameRate > 0 {
		return time.Second / time.Duration(c.FrameRate)
	}
	return DefaultFrameInterval
}

func (c Config) warnRates() map[time.Duration]int {
	rates := make(map[time.Duration]int, 2)
	if c.WarnRatePerSecond > 0 {
		rates[time.Second] = c.WarnRatePerSecond
	}
	if c.WarnRatePerMinute > 0 {
		rates[time.Minute] = c.WarnRatePerMinute
	}
	return rates
}

// RunnerOptions returns the options equivalent to the config, excluding the
// logger, see [Config.NewLogger]. They may be passed to [NewBridge], whose
// runners inherit them, or to [NewRunner] directly.
func (c Config) RunnerOptions() []Option {
	return []Option{
		WithFrameInterval(c.Interval()),
		WithTickOnPause(c.TickOnPause),
		WithReplaceDuplicateSurface(c.ReplaceDuplicateSurface),
		WithWarnRates(c.warnRates()),
	}
}

// Level returns the parsed LogLevel, or LevelInformational if it is invalid.
func (c Config) Level() logiface.Level {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		return logiface.LevelInformational
	}
	return level
}

// NewLogger builds a JSON lines logger writing to w, at the configured
// level.
func (c Config) NewLogger(w io.Writer) *logiface.Logger[logiface.Event] {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		stumpy.L.WithLevel(c.Level()),
	).Logger()
}

// ParseLevel parses a log level keyword, as returned by logiface.Level's
// String method, or one of the deprecated syslog aliases.
func ParseLevel(s string) (logiface.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "disabled", "off", "none":
		return logiface.LevelDisabled, nil
	case "emerg", "emergency", "panic":
		return logiface.LevelEmergency, nil
	case "alert":
		return logiface.LevelAlert, nil
	case "crit", "critical":
		return logiface.LevelCritical, nil
	case "err", "error":
		return logiface.LevelError, nil
	case "warning", "warn":
		return logiface.LevelWarning, nil
	case "notice":
		return logiface.LevelNotice, nil
	case "info", "informational", "":
		return logiface.LevelInformational, nil
	case "debug":
		return logiface.LevelDebug, nil
	case "trace":
		return logiface.LevelTrace, nil
	default:
		return logiface.LevelDisabled, fmt.Errorf("unknown log level %q", s)
	}
}
