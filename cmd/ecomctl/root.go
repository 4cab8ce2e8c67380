package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"go-ecom-api/internal/cache"
	"go-ecom-api/internal/model"
	"go-ecom-api/internal/repository"
	"go-ecom-api/internal/service"
	"go-ecom-api/pkg/config"
	"go-ecom-api/pkg/database"
	"go-ecom-api/pkg/jwt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// catalogPrefixes are flushed when cache-flush runs without --prefix.
var catalogPrefixes = []string{
	cache.AllProductsKey,
	cache.AllCategoriesKey,
	cache.ProductKeyPrefix,
	"category:",
	cache.OwnerKeyPrefix,
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ecomctl",
		Short:         "Operator tasks for the e-commerce API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newMigrateCmd(),
		newSeedAdminCmd(),
		newResetPasswordCmd(),
		newCacheFlushCmd(),
	)
	return root
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update every table",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := connect()
			if err != nil {
				return err
			}
			if err := db.AutoMigrate(model.AllModels()...); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			log.Println("Migration complete")
			return nil
		},
	}
}

func newSeedAdminCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the bootstrap administrator from ADMIN_EMAIL and ADMIN_PASSWORD",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := connect()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			created, err := authService(cfg, db).SeedAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
			if err != nil {
				return err
			}
			if created {
				log.Printf("Admin user created: %s", cfg.AdminEmail)
			} else {
				log.Printf("Admin user %s already exists", cfg.AdminEmail)
			}
			return nil
		},
	}
}

func newResetPasswordCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password for an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := connect()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			if err := authService(cfg, db).ResetPassword(ctx, email, password); err != nil {
				return err
			}
			log.Printf("Password for %s has been reset", email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "new password, at least 8 characters")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newCacheFlushCmd() *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "cache-flush",
		Short: "Drop cached catalog entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
			if err != nil {
				if client != nil {
					client.Close()
				}
				return err
			}
			defer client.Close()

			c := cache.NewRedisCache(client, cfg.CacheTTL)
			prefixes := catalogPrefixes
			if prefix != "" {
				prefixes = []string{prefix}
			}
			for _, p := range prefixes {
				c.DeletePattern(ctx, p)
				log.Printf("Flushed %s*", p)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "only drop keys starting with this prefix")
	return cmd
}

func connect() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.ConnectDB(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func authService(cfg *config.Config, db *gorm.DB) service.AuthService {
	return service.NewAuthService(repository.NewUserRepo(db), jwt.NewManager(cfg.JWTSecret, cfg.JWTTTL))
}
