package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	Theme     ThemeConfig     `toml:"theme"`
	Swing     SwingConfig     `toml:"swing"`
	Metronome MetronomeConfig `toml:"metronome"`
	Camera    CameraConfig    `toml:"camera"`
	History   HistoryConfig   `toml:"history"`
	Display   DisplayConfig   `toml:"display"`

	// Debug is set from SWINGTEMPO_DEBUG; it is never written back.
	Debug bool `toml:"-"`
}

type SwingConfig struct {
	Handedness          string  `toml:"handedness,omitempty"` // right or left
	DetectionConfidence float64 `toml:"detection_confidence,omitempty"`
	BackswingThreshold  float64 `toml:"backswing_threshold,omitempty"`
	DownswingThreshold  float64 `toml:"downswing_threshold,omitempty"`
	IdleTimeoutMS       *int    `toml:"idle_timeout_ms,omitempty"` // 0 disables
	FrameRate           int     `toml:"frame_rate,omitempty"`
	AutoReset           *bool   `toml:"auto_reset,omitempty"`
}

type MetronomeConfig struct {
	BPM            int      `toml:"bpm,omitempty"`
	BackswingBeats int      `toml:"backswing_beats,omitempty"`
	DownswingBeats int      `toml:"downswing_beats,omitempty"`
	Sound          *bool    `toml:"sound,omitempty"`
	Volume         *float64 `toml:"volume,omitempty"`
}

type CameraConfig struct {
	Enabled    *bool  `toml:"enabled,omitempty"`
	DeviceID   string `toml:"device_id,omitempty"` // passed through to the estimator page
	Feed       string `toml:"feed,omitempty"`      // ws or replay
	ListenAddr string `toml:"listen_addr,omitempty"`
	ReplayPath string `toml:"replay_path,omitempty"`
}

type DisplayConfig struct {
	NerdFonts bool `toml:"nerd_fonts,omitempty"`
}

type HistoryConfig struct {
	Backend       string `toml:"backend,omitempty"` // sqlite, redis or none
	Path          string `toml:"path,omitempty"`
	RedisAddr     string `toml:"redis_addr,omitempty"`
	RedisPassword string `toml:"redis_password,omitempty"`
	RedisDB       int    `toml:"redis_db,omitempty"`
	RedisKey      string `toml:"redis_key,omitempty"`
}

type ThemeConfig struct {
	BG          string `toml:"bg,omitempty"`
	FG          string `toml:"fg,omitempty"`
	Accent      string `toml:"accent,omitempty"`
	Accent2     string `toml:"accent2,omitempty"`
	Muted       string `toml:"muted,omitempty"`
	Dim         string `toml:"dim,omitempty"`
	Good        string `toml:"good,omitempty"`
	Close       string `toml:"close,omitempty"`
	Off         string `toml:"off,omitempty"`
	BeatBG      string `toml:"beat_bg,omitempty"`
	StatusBarBG string `toml:"status_bar_bg,omitempty"`
	StatusBarFG string `toml:"status_bar_fg,omitempty"`
	Error       string `toml:"error,omitempty"`
	CursorBG    string `toml:"cursor_bg,omitempty"`

	SpinnerFG         string `toml:"spinner_fg,omitempty"`
	SpinnerType       string `toml:"spinner_type,omitempty"`
	FeedbackSuccessFG string `toml:"feedback_success_fg,omitempty"`
	FeedbackSuccessBG string `toml:"feedback_success_bg,omitempty"`
	FeedbackWarningFG string `toml:"feedback_warning_fg,omitempty"`
	FeedbackWarningBG string `toml:"feedback_warning_bg,omitempty"`
	FeedbackErrorFG   string `toml:"feedback_error_fg,omitempty"`
	FeedbackErrorBG   string `toml:"feedback_error_bg,omitempty"`
}

// Feed kinds.
const (
	FeedWebSocket = "ws"
	FeedReplay    = "replay"
)

// DefaultConfigPath returns ~/.config/swingtempo/config.toml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "swingtempo", "config.toml")
}

func Load(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	configDir := filepath.Dir(path)
	absConfigDir, err := filepath.Abs(configDir)
	if err != nil {
		return cfg, fmt.Errorf("resolving config directory: %w", err)
	}

	// Relative paths are relative to the config file.
	cfg.History.Path = resolvePath(cfg.History.Path, absConfigDir)
	cfg.Camera.ReplayPath = resolvePath(cfg.Camera.ReplayPath, absConfigDir)

	return cfg, nil
}

func resolvePath(p, base string) string {
	if p == "" {
		return ""
	}
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	if !filepath.IsAbs(p) {
		return filepath.Join(base, p)
	}
	return p
}

// Environment overrides.
const (
	EnvListenAddr     = "SWINGTEMPO_LISTEN_ADDR"
	EnvRedisAddr      = "SWINGTEMPO_REDIS_ADDR"
	EnvHistoryBackend = "SWINGTEMPO_HISTORY_BACKEND"
	EnvDebug          = "SWINGTEMPO_DEBUG"
)

// ApplyEnv loads envFile (if it exists) into the environment and applies
// SWINGTEMPO_* overrides to cfg. Variables already set in the environment
// win over the file.
func ApplyEnv(cfg *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	if v := os.Getenv(EnvListenAddr); v != "" {
		cfg.Camera.ListenAddr = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		cfg.History.RedisAddr = v
	}
	if v := os.Getenv(EnvHistoryBackend); v != "" {
		cfg.History.Backend = v
	}
	if v := os.Getenv(EnvDebug); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDebug, err)
		}
		cfg.Debug = debug
	}
	return nil
}

// ResolvedHandedness returns the configured handedness or "right".
func (c Config) ResolvedHandedness() string {
	return pick(strings.ToLower(c.Swing.Handedness), "right")
}

// ResolvedDetectionConfidence returns the minimum landmark visibility or 0.7.
func (c Config) ResolvedDetectionConfidence() float64 {
	return pickFloat(c.Swing.DetectionConfidence, 0.7)
}

func (c Config) ResolvedBackswingThreshold() float64 {
	return pickFloat(c.Swing.BackswingThreshold, 0.7)
}

func (c Config) ResolvedDownswingThreshold() float64 {
	return pickFloat(c.Swing.DownswingThreshold, 0.6)
}

// ResolvedIdleTimeout returns the configured idle timeout or 5s. An explicit
// 0 disables it.
func (c Config) ResolvedIdleTimeout() time.Duration {
	if c.Swing.IdleTimeoutMS != nil {
		return time.Duration(max(0, *c.Swing.IdleTimeoutMS)) * time.Millisecond
	}
	return 5 * time.Second
}

// ResolvedFrameRate returns the configured detection rate or 30.
func (c Config) ResolvedFrameRate() int {
	if c.Swing.FrameRate > 0 {
		return c.Swing.FrameRate
	}
	return 30
}

// ResolvedAutoReset returns the configured auto_reset or true as default.
func (c Config) ResolvedAutoReset() bool {
	if c.Swing.AutoReset != nil {
		return *c.Swing.AutoReset
	}
	return true
}

// ResolvedBPM returns the configured bpm clamped to 40-208, or 60.
func (c Config) ResolvedBPM() int {
	if c.Metronome.BPM > 0 {
		return max(40, min(208, c.Metronome.BPM))
	}
	return 60
}

// ResolvedBeats returns the backswing:downswing beat split, 3:1 by default.
func (c Config) ResolvedBeats() (back, down int) {
	back, down = 3, 1
	if c.Metronome.BackswingBeats > 0 {
		back = c.Metronome.BackswingBeats
	}
	if c.Metronome.DownswingBeats > 0 {
		down = c.Metronome.DownswingBeats
	}
	return back, down
}

// ResolvedSound returns the configured sound or true as default.
func (c Config) ResolvedSound() bool {
	if c.Metronome.Sound != nil {
		return *c.Metronome.Sound
	}
	return true
}

// ResolvedVolume returns the configured volume in 0..1, or 0.8.
func (c Config) ResolvedVolume() float64 {
	if c.Metronome.Volume != nil {
		return max(0, min(1, *c.Metronome.Volume))
	}
	return 0.8
}

// ResolvedCameraEnabled returns the configured camera.enabled or true.
func (c Config) ResolvedCameraEnabled() bool {
	if c.Camera.Enabled != nil {
		return *c.Camera.Enabled
	}
	return true
}

// ResolvedFeed returns "replay" when a replay path is set without an explicit
// feed, otherwise the configured feed or "ws".
func (c Config) ResolvedFeed() string {
	if c.Camera.Feed != "" {
		return c.Camera.Feed
	}
	if c.Camera.ReplayPath != "" {
		return FeedReplay
	}
	return FeedWebSocket
}

func (c Config) ResolvedListenAddr() string {
	return pick(c.Camera.ListenAddr, ":8787")
}

// ResolvedHistoryBackend returns the configured backend or "sqlite".
func (c Config) ResolvedHistoryBackend() string {
	return pick(c.History.Backend, "sqlite")
}

// DefaultTheme returns the Vesper color palette.
func DefaultTheme() ThemeConfig {
	return ThemeConfig{
		BG:          "#101010",
		FG:          "#ffffff",
		Accent:      "#ffc799",
		Accent2:     "#99ffe4",
		Muted:       "#505050",
		Dim:         "#a0a0a0",
		Good:        "#99ffe4",
		Close:       "#ffc799",
		Off:         "#ff8080",
		BeatBG:      "#2a2a2a",
		StatusBarBG: "#1a1a1a",
		StatusBarFG: "#a0a0a0",
		Error:       "#ff8080",
		CursorBG:    "#2a2a2a",

		SpinnerFG:         "#ffc799",
		SpinnerType:       "minidot",
		FeedbackSuccessFG: "#99ffe4",
		FeedbackSuccessBG: "#1a3a2a",
		FeedbackWarningFG: "#ffc799",
		FeedbackWarningBG: "#2a2215",
		FeedbackErrorFG:   "#ff8080",
		FeedbackErrorBG:   "#3a1a1a",
	}
}

// ResolvedTheme merges config theme with defaults for any unset fields.
func (c Config) ResolvedTheme() ThemeConfig {
	d := DefaultTheme()
	return ThemeConfig{
		BG:          pick(c.Theme.BG, d.BG),
		FG:          pick(c.Theme.FG, d.FG),
		Accent:      pick(c.Theme.Accent, d.Accent),
		Accent2:     pick(c.Theme.Accent2, d.Accent2),
		Muted:       pick(c.Theme.Muted, d.Muted),
		Dim:         pick(c.Theme.Dim, d.Dim),
		Good:        pick(c.Theme.Good, d.Good),
		Close:       pick(c.Theme.Close, d.Close),
		Off:         pick(c.Theme.Off, d.Off),
		BeatBG:      pick(c.Theme.BeatBG, d.BeatBG),
		StatusBarBG: pick(c.Theme.StatusBarBG, d.StatusBarBG),
		StatusBarFG: pick(c.Theme.StatusBarFG, d.StatusBarFG),
		Error:       pick(c.Theme.Error, d.Error),
		CursorBG:    pick(c.Theme.CursorBG, d.CursorBG),

		SpinnerFG:         pick(c.Theme.SpinnerFG, d.SpinnerFG),
		SpinnerType:       pick(c.Theme.SpinnerType, d.SpinnerType),
		FeedbackSuccessFG: pick(c.Theme.FeedbackSuccessFG, d.FeedbackSuccessFG),
		FeedbackSuccessBG: pick(c.Theme.FeedbackSuccessBG, d.FeedbackSuccessBG),
		FeedbackWarningFG: pick(c.Theme.FeedbackWarningFG, d.FeedbackWarningFG),
		FeedbackWarningBG: pick(c.Theme.FeedbackWarningBG, d.FeedbackWarningBG),
		FeedbackErrorFG:   pick(c.Theme.FeedbackErrorFG, d.FeedbackErrorFG),
		FeedbackErrorBG:   pick(c.Theme.FeedbackErrorBG, d.FeedbackErrorBG),
	}
}

func pick(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func pickFloat(a, b float64) float64 {
	if a > 0 {
		return a
	}
	return b
}

// Save writes the config back to a TOML file.
func Save(path string, cfg Config) error {
	configDir := filepath.Dir(path)

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}
