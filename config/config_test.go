package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAndResolve(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	data := `
[swing]
handedness = "Left"
detection_confidence = 0.8
idle_timeout_ms = 0
auto_reset = false

[metronome]
bpm = 300
backswing_beats = 2

[camera]
replay_path = "swings/session.jsonl"

[history]
backend = "redis"
path = "history.db"

[theme]
accent = "#123456"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := cfg.ResolvedHandedness(); got != "left" {
		t.Errorf("handedness = %q", got)
	}
	if got := cfg.ResolvedDetectionConfidence(); got != 0.8 {
		t.Errorf("confidence = %v", got)
	}
	if got := cfg.ResolvedBackswingThreshold(); got != 0.7 {
		t.Errorf("backswing threshold = %v", got)
	}
	if got := cfg.ResolvedIdleTimeout(); got != 0 {
		t.Errorf("idle timeout = %v, want disabled", got)
	}
	if cfg.ResolvedAutoReset() {
		t.Error("auto_reset = false was ignored")
	}
	if got := cfg.ResolvedBPM(); got != 208 {
		t.Errorf("bpm = %d, want clamped 208", got)
	}
	if back, down := cfg.ResolvedBeats(); back != 2 || down != 1 {
		t.Errorf("beats = %d:%d", back, down)
	}
	if got := cfg.ResolvedFeed(); got != FeedReplay {
		t.Errorf("feed = %q", got)
	}
	if want := filepath.Join(dir, "swings", "session.jsonl"); cfg.Camera.ReplayPath != want {
		t.Errorf("replay path = %q, want %q", cfg.Camera.ReplayPath, want)
	}
	if want := filepath.Join(dir, "history.db"); cfg.History.Path != want {
		t.Errorf("history path = %q, want %q", cfg.History.Path, want)
	}
	if got := cfg.ResolvedHistoryBackend(); got != "redis" {
		t.Errorf("backend = %q", got)
	}
	theme := cfg.ResolvedTheme()
	if theme.Accent != "#123456" || theme.Good != DefaultTheme().Good {
		t.Errorf("theme merge: accent %q good %q", theme.Accent, theme.Good)
	}
}

func TestDefaults(t *testing.T) {
	var cfg Config
	if cfg.ResolvedBPM() != 60 || cfg.ResolvedIdleTimeout() != 5*time.Second || cfg.ResolvedFrameRate() != 30 {
		t.Errorf("defaults: bpm %d idle %v fps %d", cfg.ResolvedBPM(), cfg.ResolvedIdleTimeout(), cfg.ResolvedFrameRate())
	}
	if !cfg.ResolvedAutoReset() || !cfg.ResolvedSound() || !cfg.ResolvedCameraEnabled() {
		t.Error("boolean defaults should be true")
	}
	if cfg.ResolvedFeed() != FeedWebSocket || cfg.ResolvedListenAddr() != ":8787" {
		t.Errorf("feed %q addr %q", cfg.ResolvedFeed(), cfg.ResolvedListenAddr())
	}
	if cfg.ResolvedVolume() != 0.8 || cfg.ResolvedHistoryBackend() != "sqlite" {
		t.Errorf("volume %v backend %q", cfg.ResolvedVolume(), cfg.ResolvedHistoryBackend())
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want ErrNotExist", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	sound := false
	cfg := Config{
		Swing:     SwingConfig{Handedness: "left"},
		Metronome: MetronomeConfig{BPM: 72, BackswingBeats: 3, DownswingBeats: 1, Sound: &sound},
		Debug:     true,
	}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Metronome.BPM != 72 || got.ResolvedHandedness() != "left" || got.ResolvedSound() {
		t.Errorf("round trip = %+v", got)
	}
	if got.Debug {
		t.Error("Debug should not be persisted")
	}
}

func TestApplyEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("SWINGTEMPO_REDIS_ADDR=cache:6379\nSWINGTEMPO_DEBUG=true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvListenAddr, "127.0.0.1:9000")
	// Registered so the values loaded from the file are cleaned up.
	t.Setenv(EnvRedisAddr, "")
	t.Setenv(EnvDebug, "")
	os.Unsetenv(EnvRedisAddr)
	os.Unsetenv(EnvDebug)

	var cfg Config
	if err := ApplyEnv(&cfg, envFile); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Camera.ListenAddr != "127.0.0.1:9000" {
		t.Errorf("listen addr = %q", cfg.Camera.ListenAddr)
	}
	if cfg.History.RedisAddr != "cache:6379" {
		t.Errorf("redis addr = %q", cfg.History.RedisAddr)
	}
	if !cfg.Debug {
		t.Error("debug not set from .env")
	}

	if err := ApplyEnv(&cfg, filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("missing .env should be ignored: %v", err)
	}
}
