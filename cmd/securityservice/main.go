package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/TransactionProcessing/SecurityService-sub001/internal/app"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/config"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/http/server"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/observability/logger"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/security/secretbox"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/store/migrate"
)

var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "WARN: .env: %v\n", err)
	}
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath = envOr("SECURITYSERVICE_CONFIG", "configs/config.yaml")
		cfg        *config.Config
	)

	root := &cobra.Command{
		Use:           "securityservice",
		Short:         "Servicio admin de identidades: clients, recursos, roles y usuarios",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if c.App.Version == "" {
				c.App.Version = version
			}
			logger.Init(logger.Config{
				Env:         c.App.Env,
				Level:       c.Log.Level,
				ServiceName: c.App.Name,
				Version:     c.App.Version,
			})
			cfg = c
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", configPath, "Path al YAML de config (env SECURITYSERVICE_CONFIG)")

	// serve
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el API HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.Build(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			return server.New(cfg, a.Handler).Run(ctx)
		},
	}

	// migrate up|down|status
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migraciones de PostgreSQL (goose)",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := root.PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			if cfg.Storage.Driver != "postgres" {
				return fmt.Errorf("migrate requiere storage.driver=postgres (actual %q)", cfg.Storage.Driver)
			}
			return nil
		},
	}
	for name, run := range map[string]func(context.Context, string) error{
		"up":     migrate.Up,
		"down":   migrate.Down,
		"status": migrate.Status,
	} {
		migrateCmd.AddCommand(&cobra.Command{
			Use:   name,
			Short: "goose " + name,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd.Context(), cfg.Storage.DSN)
			},
		})
	}

	// seed
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Crea los identity resources estándar (openid, profile, email) si faltan",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Storage.SeedOnStart = true
			a, err := app.Build(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return a.Close()
		},
	}

	// encrypt: cifra un valor para smtp.password_enc
	encryptCmd := &cobra.Command{
		Use:   "encrypt [valor]",
		Short: "Cifra un secreto con SECRETBOX_MASTER_KEY (sin argumento lee stdin)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Security.SecretboxKey == "" {
				return fmt.Errorf("falta %s (o security.secretbox_key)", secretbox.EnvKey)
			}
			box, err := secretbox.FromString(cfg.Security.SecretboxKey)
			if err != nil {
				return err
			}
			plain := ""
			if len(args) == 1 {
				plain = args[0]
			} else {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				plain = strings.TrimRight(string(b), "\r\n")
			}
			sealed, err := box.Seal(plain)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sealed)
			return nil
		},
	}

	root.AddCommand(serveCmd, migrateCmd, seedCmd, encryptCmd)
	return root
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
