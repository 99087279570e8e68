// Package main provides the erp-server binary entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/connectingdots/erp-backend/internal/application/container"
	"github.com/connectingdots/erp-backend/internal/application/services"
	"github.com/connectingdots/erp-backend/internal/application/startup"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/connectingdots/erp-backend/internal/infrastructure/persistence/database"
	"github.com/connectingdots/erp-backend/internal/infrastructure/security"
	"github.com/spf13/cobra"
)

const (
	Version = "1.0.0"
	appName = "erp-server"
)

// BuildTime is set with -ldflags at release time.
var BuildTime = "dev"

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	serve := serveCmd()
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Connecting Dots ERP backend",
		Long: `erp-server runs the Connecting Dots ERP HTTP API: lead capture,
dashboard authentication, role-based access control, settings, audit
trails and the blog CMS.

Without a subcommand it starts the server.`,
		SilenceUsage: true,
		RunE:         serve.RunE,
	}

	cmd.AddCommand(serve, seedCmd(), createAdminCmd(), createBlogUserCmd(), genSecretCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startup.Initialize()
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create missing tables and seed default role permissions and settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, db, err := openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()
			defer logger.Close()
			fmt.Println("Database schema and defaults are up to date.")
			return nil
		},
	}
}

func createAdminCmd() *cobra.Command {
	var in services.NewAdmin
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a dashboard admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, db, err := openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()
			defer logger.Close()

			c := container.NewContainer(db, nil, nil, logger, nil)
			acct, err := c.AdminService.Create(cmd.Context(), services.Caller{}, in)
			if err != nil {
				return fmt.Errorf("create admin: %w", err)
			}
			fmt.Printf("Created %s %q (id %s)\n", acct.Role, acct.Username, acct.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Username, "username", "", "Login name")
	cmd.Flags().StringVar(&in.Password, "password", "", "Initial password")
	cmd.Flags().StringVar(&in.Role, "role", "SuperAdmin", "SuperAdmin, Admin, EditMode or ViewMode")
	cmd.Flags().StringVar(&in.Email, "email", "", "Optional email address")
	cmd.Flags().StringVar(&in.Location, "location", "", "Office location")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func createBlogUserCmd() *cobra.Command {
	var in services.NewBlogUser
	cmd := &cobra.Command{
		Use:   "create-blog-user",
		Short: "Create a blog CMS account",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, db, err := openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()
			defer logger.Close()

			c := container.NewContainer(db, nil, nil, logger, nil)
			u, err := c.BlogAuthService.CreateUser(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("create blog user: %w", err)
			}
			fmt.Printf("Created blog %s %q (id %s)\n", u.Role, u.Username, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Username, "username", "", "Login name")
	cmd.Flags().StringVar(&in.Password, "password", "", "Password, at least 6 characters")
	cmd.Flags().StringVar(&in.Role, "role", "user", "user, admin or superadmin")
	cmd.Flags().StringVar(&in.Email, "email", "", "Optional email address")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func genSecretCmd() *cobra.Command {
	var length int
	cmd := &cobra.Command{
		Use:   "gen-secret",
		Short: "Print a random hex secret for JWT_SECRET or BLOG_JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := security.GenerateSecureKey(length)
			if err != nil {
				return err
			}
			fmt.Println(key)
			return nil
		},
	}
	cmd.Flags().IntVar(&length, "length", 64, "Number of hex characters")
	return cmd
}

func openDatabase(ctx context.Context) (*logging.ChanneledLogger, *database.DB, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger, err := startup.NewLogger()
	if err != nil {
		return nil, nil, fmt.Errorf("initialize logger: %w", err)
	}
	db, err := startup.PrepareDatabase(ctx, logger)
	if err != nil {
		logger.Close()
		return nil, nil, err
	}
	return logger, db, nil
}
