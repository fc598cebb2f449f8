// Package main provides the spotplay CLI application entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"spotplay/internal/core"
	httpserver "spotplay/internal/http"
	"spotplay/internal/mqtt"
	"spotplay/internal/spotify"
)

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "spotplay",
	Short: "spotplay - Spotify playback orchestration service",
	Long: `spotplay listens for playback events on an MQTT broker, resolves each
event's free-form attributes into a concrete Spotify entity and drives the
chosen playback device accordingly.`,
	RunE: runSpotplay,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("spotify-client-id", "", "Spotify client ID")
	rootCmd.PersistentFlags().String("spotify-client-secret", "", "Spotify client secret")
	rootCmd.PersistentFlags().String("spotify-country", "CA", "market used for search and browse")
	rootCmd.PersistentFlags().String("spotify-language", "en_CA", "locale used for browse listings")
	rootCmd.PersistentFlags().String("mqtt-broker-url", "tcp://localhost:1883", "MQTT broker URL")
	rootCmd.PersistentFlags().String("mqtt-topic-base", "spotify", "base of the play and controls topics")
	rootCmd.PersistentFlags().Int("server-port", 8080, "HTTP server port")
	rootCmd.PersistentFlags().Int("default-track-count", 10, "tracks selected when no count is requested")
	rootCmd.PersistentFlags().Int("volume-step", 5, "percent change per volume increase or decrease")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(".env")
		viper.SetConfigType("env")
	}

	viper.SetEnvPrefix("SPOTPLAY")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}

	config = buildConfig()
	logger = buildLogger(config.Log.Level)
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	cfg.Spotify.ClientID = viper.GetString("spotify-client-id")
	cfg.Spotify.ClientSecret = viper.GetString("spotify-client-secret")
	if v := viper.GetString("spotify-redirect-url"); v != "" {
		cfg.Spotify.RedirectURL = v
	}
	if v := viper.GetString("spotify-token-path"); v != "" {
		cfg.Spotify.TokenPath = v
	}
	if v := viper.GetString("spotify-country"); v != "" {
		cfg.Spotify.Country = v
	}
	if v := viper.GetString("spotify-language"); v != "" {
		cfg.Spotify.Language = v
	}

	if v := viper.GetString("mqtt-broker-url"); v != "" {
		cfg.MQTT.BrokerURL = v
	}
	if v := viper.GetString("mqtt-client-id"); v != "" {
		cfg.MQTT.ClientID = v
	}
	cfg.MQTT.Username = viper.GetString("mqtt-username")
	cfg.MQTT.Password = viper.GetString("mqtt-password")
	if v := viper.GetString("mqtt-topic-base"); v != "" {
		cfg.MQTT.TopicBase = v
	}

	if v := viper.GetString("server-host"); v != "" {
		cfg.Server.Host = v
	}
	if v := viper.GetInt("server-port"); v != 0 {
		cfg.Server.Port = v
	}

	cfg.Log.Level = viper.GetString("log-level")

	if aliases := viper.GetStringMapString("user-aliases"); len(aliases) > 0 {
		cfg.Aliases.Users = aliases
	}
	if aliases := viper.GetStringMapString("device-aliases"); len(aliases) > 0 {
		cfg.Aliases.Devices = aliases
	}

	if v := viper.GetInt("default-track-count"); v > 0 {
		cfg.Play.DefaultTrackCount = v
	}
	if v := viper.GetInt("volume-step"); v > 0 {
		cfg.Play.VolumeStep = v
	}

	return cfg
}

func buildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	builtLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	return builtLogger
}

func runSpotplay(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting spotplay",
		zap.String("broker", config.MQTT.BrokerURL),
		zap.String("topic_base", config.MQTT.TopicBase),
		zap.String("country", config.Spotify.Country))

	if err := validateConfig(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	spotifyClient := spotify.NewClient(&config.Spotify, logger.Named("spotify"))
	if err := spotifyClient.Authenticate(ctx); err != nil {
		return fmt.Errorf("failed to authenticate with Spotify: %w", err)
	}

	httpServer := httpserver.NewServer(&config.Server, logger.Named("http"))

	orchestrator := core.NewOrchestrator(config, spotifyClient, logger.Named("orchestrator"))
	snapshots := core.NewSnapshotManager(spotifyClient, logger.Named("snapshot"))
	controls := core.NewControlDispatcher(
		spotifyClient,
		orchestrator.Aliases(),
		snapshots,
		config.Play.VolumeStep,
		logger.Named("controls"),
	)

	bus := mqtt.NewBus(&config.MQTT, logger.Named("mqtt"))
	bus.SetPlayHandler(playHandler(orchestrator, httpServer))
	bus.SetControlHandler(controlHandler(controls, httpServer))

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return httpServer.Start(gCtx)
	})

	g.Go(func() error {
		return bus.Start(gCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-ticker.C:
				devices, err := spotifyClient.Devices(gCtx)
				if err != nil {
					continue
				}
				httpServer.SetKnownDevices(len(devices))
			}
		}
	})

	logger.Info("spotplay started successfully",
		zap.String("http_addr", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)))

	if err := g.Wait(); err != nil {
		logger.Error("spotplay stopped with error", zap.Error(err))
		return err
	}

	logger.Info("spotplay stopped gracefully")
	return nil
}

func playHandler(orchestrator *core.Orchestrator, httpServer *httpserver.Server) mqtt.Handler {
	return func(ctx context.Context, attrs map[string]any) {
		start := time.Now()

		req, err := core.ParsePlayRequest(attrs, logger.Named("request"))
		if err != nil {
			logger.Warn("Rejecting play event", zap.Error(err))
			httpServer.RecordPlay("invalid", "rejected")
			httpServer.RecordError("request", errorType(err))
			return
		}

		intent := orchestrator.Intent(req)
		if err := orchestrator.HandlePlay(ctx, req); err != nil {
			logger.Error("Play request failed",
				zap.String("intent", intent),
				zap.Error(err))
			httpServer.RecordPlay(intent, "error")
			httpServer.RecordError("orchestrator", errorType(err))
			return
		}

		httpServer.RecordPlay(intent, "ok")
		httpServer.RecordProcessingTime("play", time.Since(start))
	}
}

func controlHandler(controls *core.ControlDispatcher, httpServer *httpserver.Server) mqtt.Handler {
	return func(ctx context.Context, attrs map[string]any) {
		start := time.Now()

		req, err := core.ParseControlRequest(attrs)
		if err != nil {
			logger.Warn("Rejecting control event", zap.Error(err))
			httpServer.RecordControl("invalid", "rejected")
			httpServer.RecordError("request", errorType(err))
			return
		}

		if err := controls.HandleControl(ctx, req); err != nil {
			logger.Error("Control request failed",
				zap.String("action", string(req.Action)),
				zap.Error(err))
			httpServer.RecordControl(string(req.Action), "error")
			httpServer.RecordError("controls", errorType(err))
			return
		}

		httpServer.RecordControl(string(req.Action), "ok")
		httpServer.RecordProcessingTime("control", time.Since(start))
	}
}

func errorType(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, core.ErrNotFound):
		return "not_found"
	case errors.Is(err, core.ErrNoRecommendations):
		return "no_recommendations"
	case errors.Is(err, core.ErrNoSnapshot):
		return "no_snapshot"
	default:
		return "internal"
	}
}

func validateConfig() error {
	if config.Spotify.ClientID == "" {
		return fmt.Errorf("spotify client ID is required")
	}

	if config.Spotify.ClientSecret == "" {
		return fmt.Errorf("spotify client secret is required")
	}

	if config.MQTT.BrokerURL == "" {
		return fmt.Errorf("MQTT broker URL is required")
	}

	return nil
}
