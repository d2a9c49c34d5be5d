package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-snax/config"
	"github.com/aluiziolira/go-snax/loader"
	"github.com/aluiziolira/go-snax/store"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "snaxdb",
		Short: "Load scraped products and persons into SQLite",
		Long: `snaxdb creates the products table from the scrape file, indexes it on the
product id, appends the incremental file while skipping known products, then
creates and indexes the persons table.

File and table names come from SNAXDB_* environment variables or .env.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.LoaderFromEnv()
	if err != nil {
		return fmt.Errorf("invalid environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			slog.Error("close database", slog.Any("error", err))
		}
	}()

	err = loader.New(cfg, s).Run(ctx)
	if errors.Is(err, context.Canceled) {
		fmt.Println("OK, stopping.")
		return nil
	}
	return err
}
