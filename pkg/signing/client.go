package signing

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Options configures a Client.
type Options struct {
	// PollInterval is the delay between sequential status polls.
	// Default: 1s
	PollInterval time.Duration

	// PhaseTimeout is the deadline for each polling phase.
	// Default: 15m
	PhaseTimeout time.Duration

	// Logger receives progress and debug messages. Default: discard.
	Logger Logger
}

// Client composes the gateway, the poller, and the downloader into the
// public sign workflow.
type Client struct {
	gateway Gateway
	poller  *Poller
	log     Logger
}

// NewClient creates a signing client around the given collaborators.
func NewClient(gateway Gateway, downloader Downloader, opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = nopLogger{}
	}
	// An unset timeout means the default here; NewPoller keeps honoring an
	// explicit zero as an immediate abort.
	timeout := opts.PhaseTimeout
	if timeout == 0 {
		timeout = DefaultPhaseTimeout
	}
	return &Client{
		gateway: gateway,
		poller:  NewPoller(gateway, downloader, opts.PollInterval, timeout, log),
		log:     log,
	}
}

// Sign submits the package, waits for validation and signing to complete,
// and downloads the signed artifacts.
//
// The four business outcomes (success, submit rejection, validation failure,
// manual-review hold) are returned as a Result; everything else (timeouts,
// transport failures, download failures) is returned as an error and should
// be treated as fatal for this invocation. Nothing is retried internally:
// the repeated polling is the designed happy path, not failure recovery.
func (c *Client) Sign(ctx context.Context, req UploadRequest) (*Result, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if req.GUID == "" && req.Channel != "" {
		c.log.Warn(ctx, "ignoring channel for new add-on; new add-ons cannot choose a channel",
			"channel", req.Channel)
	}

	statusURL, err := c.gateway.Submit(ctx, req)
	if err != nil {
		var se *ServerError
		if errors.As(err, &se) {
			// The service reported the failure itself; surface it as a
			// business outcome rather than an error.
			return &Result{
				ErrorCode:    CodeServerFailure,
				ErrorDetails: se.Message,
			}, nil
		}
		return nil, err
	}

	return c.poller.Wait(ctx, statusURL)
}

func validateRequest(req UploadRequest) error {
	if req.PackagePath == "" {
		return fmt.Errorf("signing: package path is required")
	}
	if req.Version == "" {
		return fmt.Errorf("signing: version is required")
	}
	return nil
}
