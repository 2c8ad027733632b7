/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/mergington/announcements/internal/services"
	"github.com/mergington/announcements/internal/storage"
	"github.com/mergington/announcements/internal/store"
	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Export announcements to object storage",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSnapshotService(cmd, true, func(svc *services.SnapshotService) error {
			result, err := svc.Export(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s/%s (%d announcements, %d bytes)\n", result.Bucket, result.Key, result.Count, result.Size)
			return nil
		})
	},
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Print a stored snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSnapshotService(cmd, false, func(svc *services.SnapshotService) error {
			snapshot, err := svc.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(snapshot)
		})
	},
}

var snapshotDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete a stored snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSnapshotService(cmd, false, func(svc *services.SnapshotService) error {
			return svc.Remove(cmd.Context(), args[0])
		})
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.AddCommand(snapshotShowCmd, snapshotDeleteCmd)
}

func withSnapshotService(cmd *cobra.Command, readsStore bool, run func(*services.SnapshotService) error) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	objects, err := storage.Open(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	var repo services.AnnouncementRepository
	if readsStore {
		backend, err := store.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer backend.Close(cmd.Context()) //nolint:errcheck
		repo = backend.Announcements
	}

	svc := services.NewSnapshotService(repo, objects, cfg.Storage.Prefix, logger)
	return run(svc)
}
