// pathsight - camera-to-audio navigation assistant for visually
// impaired users. Captures webcam frames, asks a cloud vision model
// what is in the way, and turns the answer into spoken advisories and
// positional audio cues. A local dashboard exposes live detections and
// runtime configuration.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/pathsight/go-pathsight/internal/config"
	"github.com/pathsight/go-pathsight/internal/journal"
	"github.com/pathsight/go-pathsight/internal/log"
	"github.com/pathsight/go-pathsight/pkg/capture"
	"github.com/pathsight/go-pathsight/pkg/pipeline"
	"github.com/pathsight/go-pathsight/pkg/spatial"
	"github.com/pathsight/go-pathsight/pkg/speech"
	"github.com/pathsight/go-pathsight/pkg/vision"
	"github.com/pathsight/go-pathsight/pkg/web"
)

type options struct {
	apiKey        string
	saveKey       bool
	model         string
	camera        int
	width         int
	height        int
	interval      time.Duration
	navMode       string
	detectionMode string
	tracking      string
	port          string
	journalPath   string
	noJournal     bool
	noSpeech      bool
	noAudio       bool
	ttsCommand    string
	logLevel      string
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pathsight: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Optional .env for local development.
	_ = godotenv.Load()

	opts := parseFlags()
	log.Init(opts.logLevel)
	logger := log.L()

	store := config.NewCredentialStore(config.DefaultCredentialPath())
	apiKey, err := config.ResolveAPIKey(opts.apiKey, store)
	if err != nil {
		return err
	}
	if apiKey == "" {
		return fmt.Errorf("no API key: pass -api-key, set %s, or save one with -save-key", config.EnvAPIKey)
	}
	if opts.saveKey {
		if err := store.Save(apiKey); err != nil {
			return fmt.Errorf("save credentials: %w", err)
		}
		logger.Info("credentials saved", "path", store.FilePath)
	}

	source, err := capture.OpenWebcam(capture.WebcamOptions{
		DeviceID: opts.camera,
		Width:    opts.width,
		Height:   opts.height,
	})
	if err != nil {
		return err
	}
	defer source.Close()

	provider, err := vision.NewGemini(
		vision.WithAPIKey(apiKey),
		vision.WithModel(opts.model),
		vision.WithLogger(log.Component("vision")),
	)
	if err != nil {
		return err
	}
	defer provider.Close()

	var synth speech.Synthesizer
	if !opts.noSpeech {
		synth, err = speech.NewSystemSynth(opts.ttsCommand)
		if err != nil {
			logger.Warn("speech disabled", "error", err)
			synth = nil
		} else {
			defer synth.Close()
		}
	}

	var mixer *spatial.Mixer
	if !opts.noAudio {
		mixerCfg := spatial.DefaultConfig()
		sink, err := spatial.NewAplaySink("", mixerCfg.SampleRate)
		if err != nil {
			logger.Warn("spatial audio disabled", "error", err)
		} else {
			if err := sink.Start(context.Background()); err != nil {
				logger.Warn("spatial audio disabled", "error", err)
			} else {
				defer sink.Close()
				mixer = spatial.NewMixer(mixerCfg, sink, log.Component("spatial"))
			}
		}
	}

	var j *journal.Journal
	if !opts.noJournal {
		if dir := filepath.Dir(opts.journalPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0700); err != nil {
				return fmt.Errorf("journal directory: %w", err)
			}
		}
		j, err = journal.Open(opts.journalPath)
		if err != nil {
			logger.Warn("journal disabled", "error", err)
		} else {
			defer j.Close()
		}
	}

	cfg := pipeline.DefaultConfig()
	cfg.Interval = opts.interval
	cfg.NavMode = pipeline.ParseNavMode(opts.navMode)
	cfg.DetectionMode = vision.Mode(opts.detectionMode)
	cfg.Tracking = opts.tracking

	deps := pipeline.Deps{
		Source:   source,
		Provider: provider,
		Synth:    synth,
		Mixer:    mixer,
		Journal:  j,
		Logger:   log.Component("pipeline"),
	}
	session, err := pipeline.NewSession(cfg, deps)
	if err != nil {
		return err
	}

	server := web.NewServer(":"+opts.port, session, j, log.Component("web"))
	session.Subscribe(server.PublishFrame, server.PublishStatus)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		if err := server.Start(); err != nil {
			logger.Error("dashboard failed", "error", err)
			cancel()
		}
	}()
	defer server.Shutdown()

	logger.Info("pathsight running",
		"camera", opts.camera,
		"model", opts.model,
		"nav_mode", cfg.NavMode,
		"interval", cfg.Interval,
		"dashboard", ":"+opts.port,
	)

	if err := session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func parseFlags() options {
	var opts options

	flag.StringVar(&opts.apiKey, "api-key", "", "Gemini API key (overrides "+config.EnvAPIKey+")")
	flag.BoolVar(&opts.saveKey, "save-key", false, "Persist the resolved API key to the credential file")
	flag.StringVar(&opts.model, "model", vision.DefaultConfig().Model, "Vision model name")
	flag.IntVar(&opts.camera, "camera", 0, "Camera device id")
	flag.IntVar(&opts.width, "width", 640, "Requested capture width")
	flag.IntVar(&opts.height, "height", 480, "Requested capture height")
	flag.DurationVar(&opts.interval, "interval",
		config.GetenvDuration(config.EnvPollInterval, 3*time.Second),
		"Nominal time between vision requests")
	flag.StringVar(&opts.navMode, "nav-mode", "basic", "Navigation mode: basic, detailed, advanced")
	flag.StringVar(&opts.detectionMode, "detection-mode", "2d", "Detection mode: 2d, 3d, points")
	flag.StringVar(&opts.tracking, "tracking", "default", "Tracker preset: default, sticky, strict")
	flag.StringVar(&opts.port, "port", config.Getenv(config.EnvDashboard, "8787"), "Dashboard port")
	flag.StringVar(&opts.journalPath, "journal", defaultJournalPath(), "Journal database path")
	flag.BoolVar(&opts.noJournal, "no-journal", false, "Disable the session journal")
	flag.BoolVar(&opts.noSpeech, "no-speech", false, "Disable spoken advisories")
	flag.BoolVar(&opts.noAudio, "no-audio", false, "Disable spatial audio tones")
	flag.StringVar(&opts.ttsCommand, "tts", "", "TTS command (default: espeak-ng, espeak, say)")
	flag.StringVar(&opts.logLevel, "log-level", config.Getenv(config.EnvLogLevel, "info"), "Log level: debug, info, warn, error")
	flag.Parse()

	return opts
}

func defaultJournalPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "pathsight.db"
	}
	return filepath.Join(home, ".pathsight", "journal.db")
}
