/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/mergington/announcements/internal/mq"
	"github.com/mergington/announcements/internal/services"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect announcement change events",
}

var eventsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Log every announcement change event until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		broker, err := mq.Open(ctx, cfg)
		if err != nil {
			return err
		}
		if broker == nil {
			return errors.New("EVENTS_BACKEND is not configured")
		}
		defer broker.Close() //nolint:errcheck

		logger.Info("watching announcement events",
			zap.String("backend", cfg.Events.Backend),
			zap.String("channel", cfg.Events.Channel),
		)
		err = broker.Subscribe(ctx, cfg.Events.Channel, logEvent(logger))
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsWatchCmd)
}

// logEvent acknowledges undecodable payloads after logging them so they
// are not redelivered forever.
func logEvent(logger *zap.Logger) mq.Handler {
	return func(_ context.Context, msg mq.Message) error {
		event, err := services.DecodeAnnouncementEvent(msg.Data)
		if err != nil {
			logger.Warn("undecodable event", zap.String("message_id", msg.ID), zap.Error(err))
			return nil
		}
		fields := []zap.Field{
			zap.String("message_id", msg.ID),
			zap.String("type", event.Type),
			zap.String("id", event.ID),
			zap.String("actor", event.Actor),
			zap.String("occurred_at", event.OccurredAt),
		}
		if event.Announcement != nil {
			fields = append(fields, zap.String("title", event.Announcement.Title))
		}
		logger.Info("announcement event", fields...)
		return nil
	}
}
