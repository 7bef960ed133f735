package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/gops/agent"
	"github.com/spf13/cobra"

	"github.com/hudeditor/hudstore/internal/adapters/repository"
	"github.com/hudeditor/hudstore/internal/application/services"
	"github.com/hudeditor/hudstore/internal/infrastructure/config"
	"github.com/hudeditor/hudstore/internal/infrastructure/database"
	"github.com/hudeditor/hudstore/internal/infrastructure/logger"
	"github.com/hudeditor/hudstore/internal/infrastructure/server"
)

// Build information, set with -ldflags
var (
	Version   = "1.0.0"
	BuildDate = "unknown"
	GitCommit = "development"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the hudstore server",
		Long:  "Serve the editor front end and the /save and /load endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage the schema used by the sql storage backend (up, down, version)",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run all up migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd, "up")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Run all down migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd, "down")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showMigrationVersion(cmd)
		},
	})

	return migrateCmd
}

// NewDocumentCommand creates the document command for moving documents in and
// out of the configured storage backend
func NewDocumentCommand() *cobra.Command {
	documentCmd := &cobra.Command{
		Use:   "document",
		Short: "Export and import stored documents",
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write a slot's document to stdout or a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, _ := cmd.Flags().GetString("slot")
			output, _ := cmd.Flags().GetString("output")
			return exportDocument(cmd, slot, output)
		},
	}
	exportCmd.Flags().String("slot", "", "Slot name (default or slotN)")
	exportCmd.Flags().StringP("output", "o", "", "Output file (default stdout)")

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Store a JSON file in a slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, _ := cmd.Flags().GetString("slot")
			input, _ := cmd.Flags().GetString("input")
			return importDocument(cmd, slot, input)
		},
	}
	importCmd.Flags().String("slot", "", "Slot name (default or slotN)")
	importCmd.Flags().StringP("input", "i", "", "JSON file to import (required)")
	_ = importCmd.MarkFlagRequired("input")

	documentCmd.AddCommand(exportCmd, importCmd)
	return documentCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print hudstore version",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "hudstore v%s\n", Version)
			fmt.Fprintf(out, "Build Date: %s\n", BuildDate)
			fmt.Fprintf(out, "Git Commit: %s\n", GitCommit)
		},
	}
}

func runServer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	if cfg.Diagnostics.GopsEnabled {
		if err := agent.Listen(agent.Options{Addr: cfg.Diagnostics.GopsAddr}); err != nil {
			appLogger.Warnw("Failed to start gops agent", "error", err)
		} else {
			defer agent.Close()
		}
	}

	registry := server.NewRegistry()

	repo, err := repository.New(ctx, cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer repo.Close()

	instrumented := repository.NewInstrumentedRepository(repo, cfg.Storage.Backend, repository.NewStorageMetrics(registry), appLogger)

	srv, err := server.New(cfg, instrumented, registry, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	appLogger.Infow("hudstore started",
		"address", cfg.Server.GetAddr(),
		"environment", cfg.App.Environment,
		"static_dir", cfg.Static.Dir,
	)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	appLogger.Infow("Server stopped")
	return nil
}

func openMigrator() (*database.DB, *database.Migrator, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	mg, err := database.NewMigrator(db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	return db, mg, nil
}

func runMigration(cmd *cobra.Command, direction string) error {
	db, mg, err := openMigrator()
	if err != nil {
		return err
	}
	defer db.Close()

	var changed bool
	switch direction {
	case "up":
		changed, err = mg.Up()
	case "down":
		changed, err = mg.Down()
	default:
		return fmt.Errorf("unknown migration direction %q", direction)
	}
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if !changed {
		fmt.Fprintln(cmd.OutOrStdout(), "No migrations to run")
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Migration %s completed successfully\n", direction)
	}
	return nil
}

func showMigrationVersion(cmd *cobra.Command) error {
	db, mg, err := openMigrator()
	if err != nil {
		return err
	}
	defer db.Close()

	version, dirty, err := mg.Version()
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Current migration version: %d\n", version)
	fmt.Fprintf(cmd.OutOrStdout(), "Dirty: %t\n", dirty)
	return nil
}

// openDocumentService opens the configured repository without request logging,
// since the document commands write their result to stdout.
func openDocumentService(ctx context.Context) (*services.DocumentService, func() error, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	quiet := logger.NewNop()
	repo, err := repository.New(ctx, cfg, quiet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}
	return services.NewDocumentService(repo, quiet), repo.Close, nil
}

func exportDocument(cmd *cobra.Command, slot, output string) error {
	ctx := commandContext(cmd)

	svc, closeRepo, err := openDocumentService(ctx)
	if err != nil {
		return err
	}
	defer closeRepo()

	doc, err := svc.Load(ctx, slot)
	if err != nil {
		return err
	}

	if output == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(doc))
		return err
	}
	if err := os.WriteFile(output, doc, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d bytes to %s\n", len(doc), output)
	return nil
}

func importDocument(cmd *cobra.Command, slot, input string) error {
	ctx := commandContext(cmd)

	content, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", input, err)
	}

	svc, closeRepo, err := openDocumentService(ctx)
	if err != nil {
		return err
	}
	defer closeRepo()

	if err := svc.Save(ctx, slot, content); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d bytes from %s\n", len(content), input)
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
