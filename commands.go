package main

import (
	"context"
	"fmt"
	"recipe-api/auth"
	"recipe-api/config"
	"recipe-api/database"
	"recipe-api/repositories"
	"recipe-api/services"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var logger *zap.Logger

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "recipe-api",
		Short:         "Recipe management API",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync() // Make sure the buffer is flushed before the program exits
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newCreateSuperuserCmd())
	return root
}

// setup loads the configuration and initializes the logger and token signing.
func setup() error {
	if err := config.InitConfig(); err != nil {
		return err
	}
	cfg := config.AppConfig

	var err error
	logger, err = newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	zap.ReplaceGlobals(logger)

	auth.SetSigningKey([]byte(cfg.JwtSecret))
	auth.SetTokenTTL(cfg.TokenTTL)
	if cfg.UsesInsecureSecret() {
		logger.Warn("jwt_secret is the built-in default; set RECIPEAPI_JWT_SECRET in production")
	}
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	switch level {
	case "debug":
		return zap.NewDevelopment()
	default:
		return zap.NewProduction()
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and gRPC servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := database.InitDB(); err != nil {
				return err
			}
			logger.Info("Database migrated", zap.String("driver", config.AppConfig.Database.Driver))
			return nil
		},
	}
}

func newCreateSuperuserCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create a staff user with every permission",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.InitDB()
			if err != nil {
				return err
			}
			return createSuperuser(cmd.Context(), services.NewUserService(repositories.NewUserRepository(db)), email, password)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address of the new superuser")
	cmd.Flags().StringVar(&password, "password", "", "password of the new superuser")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func createSuperuser(ctx context.Context, users services.UserService, email, password string) error {
	user, err := users.CreateSuperuser(ctx, email, password)
	if err != nil {
		return fmt.Errorf("failed to create superuser: %w", err)
	}
	logger.Info("Superuser created", zap.Uint("id", user.ID), zap.String("email", user.Email))
	return nil
}
