package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"snapfeed_client/config"
	"snapfeed_client/models"
	"snapfeed_client/services"
	"snapfeed_client/socket"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Headless snapfeed client: connects to the backend, subscribes to the
// push channel and logs the merged activity feed until interrupted.
func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	log.Info().Str("api", cfg.API.BaseURL).Str("socket", cfg.Socket.URL).Str("user", cfg.User.ID).Msg("Starting snapfeed client")

	api := services.NewAPIService(cfg.API.BaseURL, cfg.API.Token)
	activity := services.NewActivityService(api)
	activity.OnEvent = func(ev models.ActivityEvent) {
		log.Info().Str("kind", ev.Kind).Str("actor", ev.ActorID).Str("subject", ev.SubjectID).Msg("🔔 New activity")
	}

	push := socket.NewClient(cfg.Socket.URL+"?userId="+cfg.User.ID, cfg.API.Token)
	push.ReconnectDelay = time.Duration(cfg.Socket.ReconnectSeconds) * time.Second
	push.Connect()

	sub, err := activity.Start(context.Background(), cfg.User.ID, push)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start activity feed")
	}
	log.Info().Int("seeded", len(activity.Events())).Msg("Activity feed running")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("Shutting down...")
	activity.Stop(sub)
	push.Close()
}
