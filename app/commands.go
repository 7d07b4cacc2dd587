package app

import (
	"bufio"
	"errors"
	"fmt"
	"personal-brand-api/config"
	"personal-brand-api/db"
	"personal-brand-api/logger"
	"personal-brand-api/repository"
	"personal-brand-api/service"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "personal-brand-api",
		Short:        "Authentication and profile API for a personal brand site",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "directory containing config.yml")

	load := func() (*config.Config, error) {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		logger.Configure(cfg.Log.Level, cfg.Log.Format)
		return cfg, nil
	}

	rootCmd.AddCommand(
		newServeCommand(load),
		newMigrateCommand(load),
		newHashPasswordCommand(load),
		newPruneTokensCommand(load),
	)

	return rootCmd
}

type configLoader func() (*config.Config, error)

func newServeCommand(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return Serve(cmd.Context(), cfg)
		},
	}
}

func newMigrateCommand(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "migrate",
		Args:    cobra.NoArgs,
		Aliases: []string{"m"},
		Short:   "Database migration commands",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			database, err := db.Connect(cfg.Database)
			if err != nil {
				return err
			}
			defer database.Close()
			return db.MigrateUp(database)
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps <= 0 {
				return errors.New("--steps must be positive")
			}
			cfg, err := load()
			if err != nil {
				return err
			}
			database, err := db.Connect(cfg.Database)
			if err != nil {
				return err
			}
			defer database.Close()
			return db.MigrateDown(database, steps)
		},
	}
	down.Flags().IntVarP(&steps, "steps", "n", 1, "number of migrations to roll back")

	cmd.AddCommand(up, down)
	return cmd
}

// newHashPasswordCommand prints a bcrypt hash suitable for admin.password_hash.
// The password is read from the argument or, if absent, from stdin.
func newHashPasswordCommand(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for the admin password",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("could not read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return errors.New("password must not be empty")
			}

			hash, err := service.NewBcryptHasher(cfg.Auth.BcryptCost).Hash(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func newPruneTokensCommand(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "prune-tokens",
		Short: "Delete expired refresh and reset tokens once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			database, err := db.Connect(cfg.Database)
			if err != nil {
				return err
			}
			defer database.Close()

			janitor := service.NewTokenJanitor(
				repository.NewTokenRepository(database),
				repository.NewResetTokenRepository(database),
				cfg.Auth.PruneInterval,
			)
			res, err := janitor.PruneOnce(cmd.Context())
			if err != nil {
				return err
			}
			logger.Log.WithFields(logrus.Fields{
				"refresh_tokens": res.RefreshTokens,
				"reset_tokens":   res.ResetTokens,
			}).Info("Pruned expired tokens")
			return nil
		},
	}
}
