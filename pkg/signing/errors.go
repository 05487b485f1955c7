package signing

import (
	"encoding/json"
	"fmt"
)

// ServerError is a failure the signing service reported explicitly, either
// as a non-2xx submit response or as an error field in the response body.
// Client.Sign converts it into a Result with CodeServerFailure instead of
// returning it to the caller.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("signing: server rejected submission (status %d): %s", e.StatusCode, e.Message)
}

// TimeoutError is returned when a phase deadline elapses before the status
// resource reaches a terminal state. LastReport is the most recent snapshot
// seen, or nil if no poll completed.
type TimeoutError struct {
	Phase      Phase
	LastReport *StatusReport
}

func (e *TimeoutError) Error() string {
	last := "no status received"
	if e.LastReport != nil {
		if b, err := json.Marshal(e.LastReport); err == nil {
			last = string(b)
		}
	}
	return fmt.Sprintf("signing: timed out waiting for %s to complete; last status: %s", e.Phase, last)
}

// NoSignedFilesError is returned by a Downloader when a successful status
// report contains no signed files. This usually means the package targets a
// platform the service does not auto-sign for.
type NoSignedFilesError struct {
	// Total is the number of files in the report, all unsigned.
	Total int
}

func (e *NoSignedFilesError) Error() string {
	return fmt.Sprintf("signing: no signed files in status report (%d file(s), none signed)", e.Total)
}

// DownloadError is returned when fetching a signed artifact fails with a
// non-2xx HTTP status.
type DownloadError struct {
	URL        string
	StatusCode int
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("signing: download of %s failed with status %d", e.URL, e.StatusCode)
}
