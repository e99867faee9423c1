package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dylan/swingtempo/analyze"
	"github.com/dylan/swingtempo/audio"
	"github.com/dylan/swingtempo/clock"
	"github.com/dylan/swingtempo/config"
	"github.com/dylan/swingtempo/history"
	"github.com/dylan/swingtempo/metronome"
	"github.com/dylan/swingtempo/pose"
	"github.com/dylan/swingtempo/swing"
	"github.com/dylan/swingtempo/trainer"
	"github.com/dylan/swingtempo/tui"
	"github.com/dylan/swingtempo/tui/shared"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: ~/.config/swingtempo/config.toml)")
	envFile := flag.String("env", ".env", "dotenv file with SWINGTEMPO_* overrides")
	debug := flag.Bool("debug", false, "write a debug log to swingtempo.log")
	analyzePath := flag.String("analyze", "", "time the swings in a landmark recording and exit")
	flag.Parse()

	path := *configPath
	explicit := path != ""
	if !explicit {
		path = config.DefaultConfigPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		// If using default path and file doesn't exist, use empty config
		if !explicit && errors.Is(err, os.ErrNotExist) {
			cfg = config.Config{}
		} else {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	if err := config.ApplyEnv(&cfg, *envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg.Debug = cfg.Debug || *debug

	detCfg, err := detectorConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *analyzePath != "" {
		if err := runAnalyze(*analyzePath, detCfg, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	logger := slog.New(slog.DiscardHandler)
	if cfg.Debug {
		f, err := tea.LogToFile("swingtempo.log", "swingtempo")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	if err := run(cfg, path, detCfg, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, configPath string, detCfg swing.DetectorConfig, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := tui.NewEvents()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Warn("history storage unavailable, keeping history in memory", "err", err)
		store = &history.MemoryStore{}
	}
	defer store.Close()

	tr := trainer.New(trainer.Options{
		Detector:  swing.NewDetector(detCfg),
		Store:     store,
		FrameRate: cfg.ResolvedFrameRate(),
		AutoReset: cfg.ResolvedAutoReset(),
		Logger:    logger.With("component", "trainer"),
		OnUpdate:  func(u trainer.Update) { events.Send(shared.TrainerUpdateMsg{Update: u}) },
	})

	back, down := cfg.ResolvedBeats()
	metCfg := metronome.Config{BPM: cfg.ResolvedBPM(), BackswingBeats: back, DownswingBeats: down}
	opts := []metronome.Option{
		metronome.WithVolume(cfg.ResolvedVolume()),
		metronome.WithLogger(logger.With("component", "metronome")),
		metronome.WithBeatHandler(func(b metronome.Beat) { events.Send(shared.BeatMsg{Beat: b}) }),
		metronome.WithFailureHandler(func(err error) { events.Deliver(ctx, shared.MetronomeFailedMsg{Err: err}) }),
	}
	if !cfg.ResolvedSound() {
		opts = append(opts, metronome.WithAudio(func() (audio.Output, error) { return &audio.Discard{}, nil }))
	}
	met, err := metronome.New(metCfg, opts...)
	if err != nil {
		return err
	}
	defer met.Close()

	src, perm, label, err := openSource(cfg, logger)
	if err != nil {
		return err
	}

	app := tui.NewApp(cfg, tui.Deps{
		Ctx:        ctx,
		Trainer:    tr,
		Metronome:  met,
		Source:     src,
		Permission: perm,
		FeedLabel:  label,
		Events:     events,
		ConfigPath: configPath,
		Logger:     logger,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func detectorConfig(cfg config.Config) (swing.DetectorConfig, error) {
	h, err := swing.ParseHandedness(cfg.ResolvedHandedness())
	if err != nil {
		return swing.DetectorConfig{}, err
	}
	return swing.DetectorConfig{
		Handedness:         h,
		MinVisibility:      cfg.ResolvedDetectionConfidence(),
		BackswingThreshold: cfg.ResolvedBackswingThreshold(),
		DownswingThreshold: cfg.ResolvedDownswingThreshold(),
		IdleTimeout:        cfg.ResolvedIdleTimeout(),
	}, nil
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (history.Store, error) {
	opts := history.Options{
		Backend:       cfg.ResolvedHistoryBackend(),
		Path:          cfg.History.Path,
		RedisAddr:     cfg.History.RedisAddr,
		RedisPassword: cfg.History.RedisPassword,
		RedisDB:       cfg.History.RedisDB,
		RedisKey:      cfg.History.RedisKey,
	}
	logger.Info("opening history", "backend", opts.Backend)
	return history.Open(ctx, opts)
}

// openSource returns a nil source when the camera is disabled; swings are
// then marked by hand.
func openSource(cfg config.Config, logger *slog.Logger) (pose.Source, pose.Permission, string, error) {
	if !cfg.ResolvedCameraEnabled() {
		return nil, nil, "", nil
	}

	switch cfg.ResolvedFeed() {
	case config.FeedReplay:
		p := cfg.Camera.ReplayPath
		src, err := pose.OpenReplay(p, clock.Real{}, logger.With("component", "replay"))
		if err != nil {
			return nil, nil, "", err
		}
		return src, pose.FilePermission(p), "replay " + filepath.Base(p), nil
	case config.FeedWebSocket:
		addr := cfg.ResolvedListenAddr()
		logger.Info("waiting for landmarks", "addr", addr, "device", cfg.Camera.DeviceID)
		return pose.NewWSSource(addr, logger.With("component", "ws")), pose.StaticPermission(true), "ws " + addr, nil
	}
	return nil, nil, "", fmt.Errorf("unknown camera feed %q", cfg.Camera.Feed)
}

func runAnalyze(path string, detCfg swing.DetectorConfig, cfg config.Config) error {
	rep, err := analyze.Run(context.Background(), path, analyze.Options{
		Detector:  detCfg,
		FrameRate: cfg.ResolvedFrameRate(),
		Progress:  os.Stderr,
	})
	if err != nil {
		return err
	}
	for _, e := range rep.Errors {
		fmt.Fprintf(os.Stderr, "warning: %v\n", e)
	}
	return analyze.Write(os.Stdout, rep)
}
