package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mozilla/sign-addon/internal/api"
	"github.com/mozilla/sign-addon/internal/config"
	"github.com/mozilla/sign-addon/internal/logging"
	"github.com/mozilla/sign-addon/pkg/signing"
)

// runStatus fetches one snapshot of a status resource and prints a
// human-readable classification.
func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ExitOnError)

	statusURL := fs.String("url", "", "Status URL returned by a previous submission (required)")
	key := fs.String("key", "", "API key")
	secret := fs.String("secret", "", "API secret")
	apiURL := fs.String("api-url", "", "Signing API base URL")
	configPath := fs.String("config", "", "YAML configuration file")
	debug := fs.Bool("debug", false, "Log requests and responses (credentials redacted)")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: sign-addon status [options]

Fetch the current processing state of a previously submitted version.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	if *statusURL == "" {
		fmt.Fprintln(os.Stderr, "Error: -url is required")
		fs.Usage()
		return ExitInvalidArgs
	}

	cfg := config.Default()
	if *configPath != "" {
		fileCfg, err := config.LoadFromFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitInvalidArgs
		}
		cfg = fileCfg
	}
	if err := cfg.LoadFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}
	cfg = cfg.Merge(config.Config{
		APIKey:    *key,
		APISecret: *secret,
		BaseURL:   *apiURL,
		Debug:     *debug,
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	log := logging.New(os.Stderr, cfg.Debug)

	client, err := api.NewClient(api.Options{
		BaseURL:     cfg.BaseURL,
		ProxyURL:    cfg.ProxyURL,
		Key:         cfg.APIKey,
		Secret:      cfg.APISecret,
		TokenExpiry: cfg.TokenExpiry,
		Logger:      log.With("component", "api"),
	})
	if err != nil {
		log.Error(context.Background(), "invalid client configuration", "err", err)
		return ExitInvalidArgs
	}

	report, err := client.Status(context.Background(), *statusURL)
	if err != nil {
		log.Error(context.Background(), "fetching status", "err", err, "url", *statusURL)
		return ExitGeneralError
	}

	signedCount := 0
	for _, f := range report.Files {
		if f.Signed {
			signedCount++
		}
	}

	fmt.Printf("guid:      %s\n", report.GUID)
	fmt.Printf("state:     %s\n", describe(report))
	fmt.Printf("processed: %v\n", report.Processed)
	fmt.Printf("valid:     %v\n", report.Valid)
	fmt.Printf("active:    %v\n", report.Active)
	fmt.Printf("reviewed:  %v\n", report.Reviewed)
	fmt.Printf("files:     %d (%d signed)\n", len(report.Files), signedCount)
	if report.ValidationURL != "" {
		fmt.Printf("review:    %s\n", report.ValidationURL)
	}

	return ExitSuccess
}

// describe summarizes a report by running it through the same classifier the
// polling loop uses.
func describe(report *signing.StatusReport) string {
	switch signing.Classify(signing.PhaseValidating, report) {
	case signing.DecideWait:
		return "validating"
	case signing.DecideInvalid:
		return "invalid"
	}
	switch signing.Classify(signing.PhaseSigning, report) {
	case signing.DecideNeedsReview:
		return "awaiting manual review"
	case signing.DecideSuccess:
		return "signed"
	default:
		return "awaiting signing"
	}
}
