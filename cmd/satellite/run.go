package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/lexiqai/voice-satellite/internal/audio"
	"github.com/lexiqai/voice-satellite/internal/audio/media"
	"github.com/lexiqai/voice-satellite/internal/audio/playback"
	"github.com/lexiqai/voice-satellite/internal/audio/portaudio"
	"github.com/lexiqai/voice-satellite/internal/config"
	"github.com/lexiqai/voice-satellite/internal/device"
	"github.com/lexiqai/voice-satellite/internal/discovery"
	"github.com/lexiqai/voice-satellite/internal/esphome/api"
	"github.com/lexiqai/voice-satellite/internal/observability"
	"github.com/lexiqai/voice-satellite/internal/resilience"
	"github.com/lexiqai/voice-satellite/internal/satellite"
	"github.com/lexiqai/voice-satellite/internal/server"
	"github.com/lexiqai/voice-satellite/internal/settings"
	"github.com/lexiqai/voice-satellite/internal/status"
	"github.com/lexiqai/voice-satellite/internal/timers"
	"github.com/lexiqai/voice-satellite/internal/wakeword"
	"github.com/lexiqai/voice-satellite/internal/wakeword/tflite"
)

const (
	manufacturer   = "LexiqAI"
	model          = "Go Voice Satellite"
	projectName    = "lexiqai.voice-satellite"
	projectVersion = "1.0.0"

	featureFlags = api.VoiceAssistantFeatureVoiceAssistant |
		api.VoiceAssistantFeatureAPIAudio |
		api.VoiceAssistantFeatureTimers |
		api.VoiceAssistantFeatureAnnounce |
		api.VoiceAssistantFeatureStartConversation
)

// wordSource is one installed word directory.
type wordSource struct {
	provider *wakeword.DirProvider
	words    []wakeword.WakeWord
}

func loadWords(logger zerolog.Logger, fs afero.Fs, dir string) (wordSource, error) {
	provider := wakeword.NewDirProvider(fs, dir, logger)
	words, err := provider.Words()
	if err != nil {
		return wordSource{}, err
	}
	return wordSource{provider: provider, words: words}, nil
}

// detectorFactory builds TensorFlow Lite backed detectors for the input loop.
func detectorFactory(logger zerolog.Logger, wake, stop wordSource) satellite.DetectorFactory {
	return func(set satellite.WordSet, ids []string) satellite.Detector {
		src := wake
		if set == satellite.StopWords {
			src = stop
		}
		var selected []wakeword.WakeWord
		for _, id := range ids {
			if w, ok := wakeword.Find(src.words, id); ok {
				selected = append(selected, w)
			}
		}
		models := wakeword.LoadModels(logger, src.provider, tflite.New, selected)
		return wakeword.NewDetector(logger, models)
	}
}

func run(parent context.Context, cfg *config.Config) error {
	logger := observability.GetLogger()
	logger.Info().
		Str("name", cfg.SatelliteName).
		Int("port", cfg.SatellitePort).
		Int("http_port", cfg.HTTPPort).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Voice satellite starting")

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fs := afero.NewOsFs()
	store, err := settings.Open(logger, fs, cfg.SettingsFile)
	if err != nil {
		return err
	}
	st := store.Get()

	wake, err := loadWords(logger, fs, cfg.WakeWordsDir)
	if err != nil {
		return err
	}
	stopWords, err := loadWords(logger, fs, cfg.StopWordsDir)
	if err != nil {
		return err
	}
	activeWake := satellite.ActiveWords(wake.words, st.WakeWords()...)
	if len(activeWake) == 0 && len(wake.words) > 0 {
		logger.Warn().Strs("configured", st.WakeWords()).Str("fallback", wake.words[0].ID).Msg("Configured wake word not installed")
		activeWake = []string{wake.words[0].ID}
	}
	activeStop := satellite.ActiveWords(stopWords.words, st.StopWord)

	if err := portaudio.Initialize(); err != nil {
		return err
	}
	defer portaudio.Terminate()

	loaderConfig := media.DefaultLoaderConfig()
	loaderConfig.OutputRate = cfg.AudioSampleRateOut
	loaderConfig.Retry = &resilience.RetryConfig{
		MaxAttempts:       cfg.RetryMaxAttempts,
		InitialBackoff:    time.Duration(cfg.RetryInitialBackoff) * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            true,
	}
	loader := media.NewLoader(logger, fs, loaderConfig)

	ttsSpeaker := portaudio.NewSpeaker(cfg.AudioSampleRateOut)
	mediaSpeaker := portaudio.NewSpeaker(cfg.AudioSampleRateOut)
	defer ttsSpeaker.Close()
	defer mediaSpeaker.Close()
	ttsPlayer := playback.New(logger, "tts", ttsSpeaker, loader)
	mediaPlayer := playback.New(logger, "media", mediaSpeaker, loader)

	player := satellite.NewPlayer(ttsPlayer, mediaPlayer, st.Volume, float32(cfg.DuckMultiplier))
	player.OnVolumeChanged = func(volume float32) {
		if err := store.SaveVolume(volume); err != nil {
			logger.Error().Err(err).Msg("Failed to save volume")
		}
	}

	input := satellite.NewInputLoop(logger, portaudio.NewMicrophone(), detectorFactory(logger, wake, stopWords), activeWake, activeStop, st.Muted)
	sat := satellite.New(logger, satellite.Config{
		Settings:         store,
		Player:           player,
		Input:            input,
		Timers:           timers.NewModel(),
		WakeWords:        wake.words,
		UniqueID:         st.MACAddress,
		TimerRepeatDelay: cfg.TimerRepeatDelay(),
	})
	mediaPlayer.OnStateChange = func(audio.PlayerState) { sat.PublishMediaState() }

	srv := server.New(logger)
	if err := srv.Start(fmt.Sprintf(":%d", cfg.SatellitePort)); err != nil {
		return err
	}
	defer srv.Close()

	session := device.NewSession(logger, srv, device.Info{
		Name:           discovery.InstanceName(cfg.SatelliteName),
		FriendlyName:   cfg.SatelliteName,
		MacAddress:     st.MACAddress,
		Manufacturer:   manufacturer,
		Model:          model,
		ProjectName:    projectName,
		ProjectVersion: projectVersion,
		ESPHomeVersion: discovery.Version,
		FeatureFlags:   featureFlags,
	}, sat.Entities()...)
	session.SetHandler(sat)
	sat.SetSession(session)

	hub := status.NewHub(logger, func() any { return sat.Status() })
	sat.OnChange = hub.Notify

	mux := http.NewServeMux()
	mux.HandleFunc("/health", observability.HealthCheckHandler())
	mux.HandleFunc("/ready", observability.ReadinessHandler(map[string]observability.HealthCheckFunc{
		"transport": func(ctx context.Context) (bool, error) {
			if srv.Addr() == nil {
				return false, errors.New("native API server not bound")
			}
			return true, nil
		},
		"media":      loader.Healthy,
		"wake_words": func(ctx context.Context) (bool, error) {
			if len(wake.words) == 0 {
				return false, fmt.Errorf("no wake words in %s", cfg.WakeWordsDir)
			}
			return true, nil
		},
	}))
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}
	mux.Handle("/status", hub)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	start := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}
	start(func() { sat.Run(ctx) })
	start(func() { session.Run(ctx, srv.Events()) })
	start(func() { hub.Run(ctx) })

	if cfg.HTTPPort > 0 {
		go func() {
			logger.Info().Str("addr", httpServer.Addr).Msg("HTTP server listening")
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("HTTP server failed")
			}
		}()
	}

	var advertiser *discovery.Advertiser
	if cfg.MDNSEnabled {
		advertiser = discovery.NewAdvertiser(logger, discovery.Info{
			Name:       cfg.SatelliteName,
			Port:       cfg.SatellitePort,
			MACAddress: st.MACAddress,
		}, &resilience.ReconnectConfig{
			MaxAttempts: cfg.ReconnectMaxAttempts,
			Backoff:     time.Duration(cfg.ReconnectBackoff) * time.Millisecond,
			Multiplier:  2.0,
			MaxBackoff:  30 * time.Second,
		})
		go func() {
			if err := advertiser.Start(ctx); err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Msg("Service advertisement failed")
			}
		}()
	}

	<-ctx.Done()
	logger.Info().Msg("Shutting down satellite...")

	if advertiser != nil {
		advertiser.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("HTTP server forced to shutdown")
	}
	srv.Close()
	wg.Wait()
	ttsPlayer.Stop()
	mediaPlayer.Stop()

	logger.Info().Msg("Satellite exited gracefully")
	return nil
}
