package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-snax/config"
	"github.com/aluiziolira/go-snax/models"
	"github.com/aluiziolira/go-snax/pipeline"
	"github.com/aluiziolira/go-snax/scraper"
)

var (
	linksOnly    bool
	productsOnly bool
	verbose      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "snax",
		Short: "Collect product links and extract product fields from a retail catalogue",
		Long: `snax walks every configured category listing, saves the product links it
finds, then fetches each product page and extracts the configured fields.

With no flags both steps run. --links stops after the links file is written;
--products reads the most recent links file in the output directory.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	rootCmd.Flags().BoolVar(&linksOnly, "links", false, "Only collect product links")
	rootCmd.Flags().BoolVar(&productsOnly, "products", false, "Only extract products from the latest links file")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("invalid environment: %w", err)
	}
	if verbose {
		cfg.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, level := newLogger(cfg.Verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	s, err := scraper.NewScraper(cfg)
	if err != nil {
		return fmt.Errorf("initialising scraper: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, s)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown failed", slog.Any("error", err))
			}
		}()
	}

	mode := pipeline.Mode{Links: linksOnly, Products: productsOnly}
	slog.Info("starting run",
		slog.String("run_id", s.RunID),
		slog.String("base_url", cfg.BaseURL),
		slog.Int("categories", len(cfg.Categories)),
		slog.Bool("links", mode.Links),
		slog.Bool("products", mode.Products),
	)

	result, err := pipeline.NewRunner(cfg, s).Run(ctx, mode)
	if errors.Is(err, context.Canceled) {
		fmt.Println("\nInterrupted, dropping in-memory results. Run not saved.")
		return nil
	}
	if err != nil {
		if result != nil {
			printSummary(result)
		}
		return err
	}

	printSummary(result)
	return nil
}

func serveMetrics(addr string, s *scraper.Scraper) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	slog.Info("metrics server enabled", slog.String("addr", addr))
	return srv
}

func printSummary(result *models.RunResult) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Run complete")
	fmt.Printf("  Run ID:        %s\n", result.RunID)
	fmt.Printf("  Links:         %d\n", result.LinkCount)
	fmt.Printf("  Products:      %d\n", result.ProductCount)
	fmt.Printf("  Requests:      %d\n", result.RequestCount)
	fmt.Printf("  Retries:       %d\n", result.RetryCount)
	if len(result.ErrorsByType) > 0 {
		fmt.Printf("  Error types:   %v\n", result.ErrorsByType)
	}
	if len(result.MissingFields) > 0 {
		fields := make([]string, 0, len(result.MissingFields))
		for f := range result.MissingFields {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		fmt.Println("  Missing fields:")
		for _, f := range fields {
			fmt.Printf("    %-14s %d\n", f, result.MissingFields[f])
		}
	}
	fmt.Printf("  Duration:      %v\n", result.EndTime.Sub(result.StartTime).Round(time.Millisecond))
	if result.LinksFile != "" {
		fmt.Printf("  Links file:    %s\n", result.LinksFile)
	}
	if result.ProductsFile != "" {
		fmt.Printf("  Products file: %s\n", result.ProductsFile)
	}
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
