package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mikey/mail-spam-detector/internal/adapters/gmail"
	"github.com/mikey/mail-spam-detector/internal/config"
	"github.com/mikey/mail-spam-detector/internal/core"
	"github.com/mikey/mail-spam-detector/internal/di"
	"go.uber.org/zap"
)

var (
	output    = flag.String("output", "", "Report output path (default from config, spam_detection_results.csv)")
	maxEmails = flag.Int("max-emails", 0, "Maximum number of emails to score (0 = use config)")
	workers   = flag.Int("workers", 0, "Number of concurrent classification workers (0 = use config)")
	authorize = flag.Bool("authorize", false, "Run the Gmail authorization flow and exit")
)

func main() {
	flag.Parse()

	// API keys may live in a .env file next to the binary.
	_ = godotenv.Load()

	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Apply flag overrides before anything downstream reads the config.
	if err := container.Invoke(func(cfg *config.Config) {
		if *output != "" {
			cfg.GetViper().Set("detector.output_path", *output)
		}
		if *maxEmails > 0 {
			cfg.GetViper().Set("detector.max_emails", *maxEmails)
		}
		if *workers > 0 {
			cfg.GetViper().Set("detector.workers", *workers)
		}
	}); err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if *authorize {
		if err := container.Invoke(runAuthorize); err != nil {
			fmt.Printf("Authorization failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// runAuthorize performs the interactive OAuth consent flow so a later run can
// reach the mailbox.
func runAuthorize(cfg *config.Config) error {
	gmailCfg := cfg.GetGmail()
	return gmail.Authorize(context.Background(), gmailCfg.CredentialsFile, gmailCfg.TokenFile, os.Stdin, os.Stdout)
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	cfg *config.Config,
	detector *core.SpamDetector,
	classifier core.SpamClassifier,
	cache core.ScoreCache,
) error {
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	outputPath := cfg.GetDetector().OutputPath
	logger.Info("Starting spam detection run",
		zap.String("provider", cfg.GetLLM().Provider),
		zap.String("output", outputPath))

	summary, runErr := detector.RunToFile(ctx, outputPath)

	fmt.Printf("\n=== Spam Detection Summary ===\n")
	fmt.Printf("Report:    %s\n", outputPath)
	fmt.Printf("Processed: %d\n", summary.Processed)
	fmt.Printf("Succeeded: %d\n", summary.Succeeded)
	fmt.Printf("Failed:    %d\n", summary.Failed)
	if len(summary.FailedIDs) > 0 {
		fmt.Printf("Failed ids: %s\n", strings.Join(summary.FailedIDs, ", "))
	}

	// Close any resources that need closing
	if closer, ok := classifier.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close classifier", zap.Error(err))
		}
	}
	if stopper, ok := cache.(interface{ Stop() }); ok {
		stopper.Stop()
	}

	if runErr != nil {
		logger.Error("Run aborted, partial report was flushed", zap.Error(runErr))
		return runErr
	}
	return nil
}
