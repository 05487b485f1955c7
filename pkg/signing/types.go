package signing

import "context"

// UploadRequest describes one package submission. It is consumed once by
// [Client.Sign].
type UploadRequest struct {
	// PackagePath is the local path of the package to sign (required).
	PackagePath string

	// GUID identifies the add-on across versions. Empty means a brand-new
	// add-on: the submit becomes a POST to /addons/ instead of a PUT to the
	// version endpoint.
	GUID string

	// Version is the version string being submitted (required).
	Version string

	// Channel selects the release channel ("listed" or "unlisted").
	// Only honored for existing add-ons; new add-ons cannot choose one.
	Channel string
}

// FileDescriptor is one artifact produced by the signing service.
type FileDescriptor struct {
	Signed      bool   `json:"signed"`
	DownloadURL string `json:"download_url"`
}

// StatusReport is a snapshot of the server-side processing state for a
// submitted version. Each poll returns a fresh snapshot; the report is never
// mutated locally.
type StatusReport struct {
	GUID          string           `json:"guid"`
	Active        bool             `json:"active"`
	Files         []FileDescriptor `json:"files"`
	Processed     bool             `json:"processed"`
	Reviewed      bool             `json:"reviewed"`
	Valid         bool             `json:"valid"`
	ValidationURL string           `json:"validation_url"`
	URL           string           `json:"url"`

	// AutomatedSigning reports whether the version qualifies for automatic
	// signing. Older API versions omit the field; absent means auto-signable.
	AutomatedSigning *bool `json:"automated_signing"`
}

// AutoSigned reports whether the version can be signed without a human
// review. An absent automated_signing field counts as auto-signable for
// compatibility with older API versions.
func (r *StatusReport) AutoSigned() bool {
	return r.AutomatedSigning == nil || *r.AutomatedSigning
}

// ErrorCode classifies a business failure reported through a Result.
type ErrorCode string

const (
	// CodeServerFailure means the submit step was rejected by the service.
	CodeServerFailure ErrorCode = "SERVER_FAILURE"

	// CodeValidationFailed means the package did not pass validation.
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// CodeNotAutoSigned means the version is valid but requires a manual
	// review before it can be signed.
	CodeNotAutoSigned ErrorCode = "ADDON_NOT_AUTO_SIGNED"
)

// Result is the terminal value of one Sign invocation. DownloadedFiles is
// populated if and only if Success is true.
type Result struct {
	Success bool

	// ID is the add-on GUID, taken from the final status report on success.
	ID string

	// DownloadedFiles are the local paths of the signed artifacts.
	DownloadedFiles []string

	ErrorCode    ErrorCode
	ErrorDetails string
}

// Gateway performs the HTTP exchanges with the signing service.
//
// Submit uploads the package and returns the URL of the status resource to
// poll. A failure reported by the service itself (an explicit error body)
// is returned as a [*ServerError]; unexpected responses and transport
// failures are returned as plain errors.
type Gateway interface {
	Submit(ctx context.Context, req UploadRequest) (statusURL string, err error)
	Status(ctx context.Context, statusURL string) (*StatusReport, error)
}

// Downloader fetches produced artifacts to local storage. It receives the
// full file list from a successful status report and returns the paths of
// the signed files it wrote.
type Downloader interface {
	FetchAll(ctx context.Context, files []FileDescriptor) ([]string, error)
}

// Logger is the minimal structured logger the client reports through. The
// variadic args are key-value pairs. internal/logging provides a slog-backed
// implementation.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
