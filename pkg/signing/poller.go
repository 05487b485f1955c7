package signing

import (
	"context"
	"time"
)

// Poller drives the status-polling state machine for one submitted version.
//
// Each phase runs its own loop: fetch the status resource, classify the
// snapshot, and either settle the phase or schedule the next poll after the
// configured interval. Two timers govern every loop iteration: the next-poll
// timer and the phase deadline. Whichever fires first wins; the loser is
// cancelled before the phase settles, on every exit path.
type Poller struct {
	gateway    Gateway
	downloader Downloader
	log        Logger

	// interval between sequential status polls.
	interval time.Duration

	// timeout is the deadline for each phase. A fresh deadline is armed at
	// entry to every phase.
	timeout time.Duration
}

// NewPoller creates a poller. A non-positive interval or a negative timeout
// falls back to the package defaults (1s interval, 15m phase timeout). A
// zero timeout is honored as-is and aborts each phase immediately.
func NewPoller(gateway Gateway, downloader Downloader, interval, timeout time.Duration, log Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if timeout < 0 {
		timeout = DefaultPhaseTimeout
	}
	if log == nil {
		log = nopLogger{}
	}
	return &Poller{
		gateway:    gateway,
		downloader: downloader,
		log:        log,
		interval:   interval,
		timeout:    timeout,
	}
}

// Defaults for the polling protocol.
const (
	DefaultPollInterval = time.Second
	DefaultPhaseTimeout = 15 * time.Minute
)

// Wait polls statusURL until the submission reaches a terminal state and
// returns the business outcome. Validation failures and manual-review holds
// resolve into a Result; timeouts, transport errors, and download failures
// are returned as errors. Cancelling ctx stops the polling loop.
func (p *Poller) Wait(ctx context.Context, statusURL string) (*Result, error) {
	p.log.Info(ctx, "waiting for validation", "status_url", statusURL)

	dec, report, err := p.runPhase(ctx, PhaseValidating, statusURL, nil)
	if err != nil {
		return nil, err
	}
	if dec == DecideInvalid {
		p.log.Info(ctx, "validation failed", "validation_url", report.ValidationURL)
		return &Result{
			ErrorCode:    CodeValidationFailed,
			ErrorDetails: report.ValidationURL,
		}, nil
	}

	// Validation passed. The signing phase starts by re-classifying the
	// report that ended validation, so a fully-signed snapshot is not
	// fetched twice.
	p.log.Info(ctx, "validation passed, waiting for signed files")

	dec, report, err = p.runPhase(ctx, PhaseSigning, statusURL, report)
	if err != nil {
		return nil, err
	}
	switch dec {
	case DecideInvalid:
		return &Result{
			ErrorCode:    CodeValidationFailed,
			ErrorDetails: report.ValidationURL,
		}, nil
	case DecideNeedsReview:
		p.log.Info(ctx, "version requires manual review before signing")
		return &Result{
			ErrorCode:    CodeNotAutoSigned,
			ErrorDetails: "the add-on passed validation but cannot be signed without a manual review",
		}, nil
	default: // DecideSuccess
		paths, err := p.downloader.FetchAll(ctx, report.Files)
		if err != nil {
			return nil, err
		}
		return &Result{
			Success:         true,
			ID:              report.GUID,
			DownloadedFiles: paths,
		}, nil
	}
}

// runPhase polls until the classifier settles the phase or the phase
// deadline elapses. If initial is non-nil it is classified before the first
// poll. The returned decision is never DecideWait.
func (p *Poller) runPhase(ctx context.Context, phase Phase, statusURL string, initial *StatusReport) (Decision, *StatusReport, error) {
	phaseCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	last := initial
	report := initial
	for {
		if report == nil {
			r, err := p.gateway.Status(phaseCtx, statusURL)
			if err != nil {
				// The phase deadline bounds the in-flight request too;
				// tell a deadline abort apart from a transport failure
				// and from cancellation by the caller.
				if ctx.Err() != nil {
					return 0, last, ctx.Err()
				}
				if phaseCtx.Err() == context.DeadlineExceeded {
					return 0, last, &TimeoutError{Phase: phase, LastReport: last}
				}
				return 0, last, err
			}
			last = r
			report = r
		}

		dec := Classify(phase, report)
		p.log.Debug(ctx, "classified status report",
			"phase", phase.String(),
			"processed", report.Processed,
			"valid", report.Valid,
			"active", report.Active,
			"reviewed", report.Reviewed,
			"files", len(report.Files),
		)
		if dec != DecideWait {
			return dec, report, nil
		}
		report = nil

		// Race the next-poll timer against the phase deadline.
		poll := time.NewTimer(p.interval)
		select {
		case <-poll.C:
		case <-phaseCtx.Done():
			poll.Stop()
			if ctx.Err() != nil {
				return 0, last, ctx.Err()
			}
			return 0, last, &TimeoutError{Phase: phase, LastReport: last}
		}
	}
}
