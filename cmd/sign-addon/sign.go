package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"

	"github.com/mozilla/sign-addon/internal/api"
	"github.com/mozilla/sign-addon/internal/config"
	"github.com/mozilla/sign-addon/internal/download"
	"github.com/mozilla/sign-addon/internal/logging"
	"github.com/mozilla/sign-addon/internal/progress"
	"github.com/mozilla/sign-addon/pkg/signing"
)

// runSign submits a package to the signing service, waits for validation and
// signing to finish, and downloads the signed files.
func runSign(args []string) int {
	fs := flag.NewFlagSet("sign", flag.ExitOnError)

	pkgPath := fs.String("package", "", "Path of the package to sign (required)")
	guid := fs.String("guid", "", "Add-on GUID (omit for a brand-new add-on)")
	version := fs.String("version", "", "Version being submitted (required)")
	channel := fs.String("channel", "", "Release channel: listed or unlisted")
	key := fs.String("key", "", "API key")
	secret := fs.String("secret", "", "API secret")
	apiURL := fs.String("api-url", "", "Signing API base URL")
	proxy := fs.String("proxy", "", "HTTP proxy URL")
	downloadDir := fs.String("download-dir", "", "Directory for signed files (default current directory)")
	dest := fs.String("dest", "", "Destination bucket URL for signed files, e.g. file:///var/signed?metadata=skip (overrides -download-dir)")
	pollInterval := fs.Duration("poll-interval", 0, "Delay between status polls")
	timeout := fs.Duration("timeout", 0, "Deadline for each polling phase")
	configPath := fs.String("config", "", "YAML configuration file")
	showProgress := fs.Bool("progress", false, "Show download progress output")
	debug := fs.Bool("debug", false, "Log requests and responses (credentials redacted)")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: sign-addon sign [options]

Upload a package to the signing service, poll until validation and signing
complete, and download the signed files.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	if *pkgPath == "" || *version == "" {
		fmt.Fprintln(os.Stderr, "Error: -package and -version are required")
		fs.Usage()
		return ExitInvalidArgs
	}

	// Layer configuration: file, then environment, then flags.
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
		APIKey:       *key,
		APISecret:    *secret,
		BaseURL:      *apiURL,
		ProxyURL:     *proxy,
		PollInterval: *pollInterval,
		PhaseTimeout: *timeout,
		DownloadDir:  *downloadDir,
		Dest:         *dest,
		Channel:      *channel,
		Debug:        *debug,
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\n[sign-addon] Received interrupt, shutting down...")
		cancel()
	}()

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
		log.Error(ctx, "invalid client configuration", "err", err)
		return ExitInvalidArgs
	}

	bucket, localDir, err := openDestination(ctx, cfg)
	if err != nil {
		log.Error(ctx, "opening download destination", "err", err)
		return ExitGeneralError
	}
	defer bucket.Close()

	var reporter *progress.Reporter
	if *showProgress {
		reporter = progress.NewReporter(progress.Options{
			Output:         os.Stderr,
			UpdateInterval: time.Second,
		})
	}

	downloader := download.New(client, bucket, download.Options{
		Dir:      localDir,
		Reporter: reporter,
		Logger:   log.With("component", "download"),
	})

	signer := signing.NewClient(client, downloader, signing.Options{
		PollInterval: cfg.PollInterval,
		PhaseTimeout: cfg.PhaseTimeout,
		Logger:       log,
	})

	result, err := signer.Sign(ctx, signing.UploadRequest{
		PackagePath: *pkgPath,
		GUID:        *guid,
		Version:     *version,
		Channel:     cfg.Channel,
	})
	if err != nil {
		return reportSignError(ctx, log, err)
	}

	return reportResult(ctx, log, result)
}

// openDestination opens the bucket signed files are written to. A dest URL
// takes precedence and may point at any registered blob scheme; otherwise the
// download directory is created and opened as a local fileblob bucket. The
// returned string is the local directory, empty for URL destinations.
func openDestination(ctx context.Context, cfg config.Config) (*blob.Bucket, string, error) {
	if cfg.Dest != "" {
		bucket, err := blob.OpenBucket(ctx, cfg.Dest)
		if err != nil {
			return nil, "", fmt.Errorf("open destination %q: %w", cfg.Dest, err)
		}
		return bucket, "", nil
	}

	if err := os.MkdirAll(cfg.DownloadDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("create download directory: %w", err)
	}
	// No metadata sidecar files next to the signed artifacts.
	bucket, err := fileblob.OpenBucket(cfg.DownloadDir, &fileblob.Options{
		Metadata: fileblob.MetadataDontWrite,
	})
	if err != nil {
		return nil, "", fmt.Errorf("open download directory: %w", err)
	}
	return bucket, cfg.DownloadDir, nil
}

func reportResult(ctx context.Context, log logging.Logger, result *signing.Result) int {
	if result.Success {
		fmt.Fprintf(os.Stderr, "[sign-addon] Signed %s\n", result.ID)
		for _, p := range result.DownloadedFiles {
			fmt.Fprintf(os.Stderr, "[sign-addon] Downloaded: %s\n", p)
		}
		return ExitSuccess
	}

	switch result.ErrorCode {
	case signing.CodeServerFailure:
		log.Error(ctx, "server rejected the submission", "details", result.ErrorDetails)
		return ExitServerRejected
	case signing.CodeValidationFailed:
		log.Error(ctx, "validation failed", "report", result.ErrorDetails)
		return ExitValidationFailed
	case signing.CodeNotAutoSigned:
		log.Error(ctx, "signing incomplete", "details", result.ErrorDetails)
		return ExitNeedsReview
	default:
		log.Error(ctx, "signing failed", "details", result.ErrorDetails)
		return ExitGeneralError
	}
}

func reportSignError(ctx context.Context, log logging.Logger, err error) int {
	log.Error(ctx, "signing failed", "err", err)

	var timeoutErr *signing.TimeoutError
	if errors.As(err, &timeoutErr) {
		return ExitTimeout
	}
	var noSigned *signing.NoSignedFilesError
	var downloadErr *signing.DownloadError
	if errors.As(err, &noSigned) || errors.As(err, &downloadErr) {
		return ExitDownloadFailed
	}
	return ExitGeneralError
}
