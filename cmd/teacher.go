/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mergington/announcements/internal/services"
	"github.com/mergington/announcements/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var teacherInput services.CreateTeacherInput

var teacherCmd = &cobra.Command{
	Use:   "teacher",
	Short: "Manage staff accounts",
}

var teacherCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a teacher account",
	Long: `Create a teacher account in the configured store. The password is read
from --password or, when omitted, from TEACHER_PASSWORD.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		if teacherInput.Password == "" {
			teacherInput.Password = os.Getenv("TEACHER_PASSWORD")
		}
		if strings.TrimSpace(teacherInput.Password) == "" {
			return errors.New("a password is required")
		}

		backend, err := store.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer backend.Close(cmd.Context()) //nolint:errcheck

		teacher, err := services.NewTeacherService(backend.Teachers, cfg.Auth.BcryptCost).Create(cmd.Context(), teacherInput)
		if err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return fmt.Errorf("teacher %q already exists", teacherInput.Username)
			}
			return err
		}

		logger.Info("teacher created",
			zap.String("store", backend.Name),
			zap.String("username", teacher.Username),
			zap.String("role", teacher.Role),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(teacherCmd)
	teacherCmd.AddCommand(teacherCreateCmd)

	flags := teacherCreateCmd.Flags()
	flags.StringVar(&teacherInput.Username, "username", "", "login name")
	flags.StringVar(&teacherInput.DisplayName, "display-name", "", "name shown to students (defaults to username)")
	flags.StringVar(&teacherInput.Role, "role", "", "account role (defaults to teacher)")
	flags.StringVar(&teacherInput.Password, "password", "", "account password")
	_ = teacherCreateCmd.MarkFlagRequired("username")
}
