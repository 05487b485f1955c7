package signing

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// submitErrGateway fails every Submit with a fixed error.
type submitErrGateway struct {
	err error
}

func (g *submitErrGateway) Submit(ctx context.Context, req UploadRequest) (string, error) {
	return "", g.err
}

func (g *submitErrGateway) Status(ctx context.Context, statusURL string) (*StatusReport, error) {
	return nil, errors.New("unexpected status call")
}

// recordingLogger captures warnings for assertions.
type recordingLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *recordingLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (l *recordingLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (l *recordingLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func TestSignServerRejectionBecomesResult(t *testing.T) {
	gateway := &submitErrGateway{
		err: &ServerError{StatusCode: 400, Message: "Version already exists."},
	}
	client := NewClient(gateway, &fakeDownloader{}, Options{})

	result, err := client.Sign(context.Background(), UploadRequest{
		PackagePath: "addon.xpi",
		Version:     "1.0",
	})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, CodeServerFailure, result.ErrorCode)
	assert.Equal(t, "Version already exists.", result.ErrorDetails)
}

func TestSignTransportErrorPropagates(t *testing.T) {
	transportErr := errors.New("dial tcp: connection refused")
	client := NewClient(&submitErrGateway{err: transportErr}, &fakeDownloader{}, Options{})

	result, err := client.Sign(context.Background(), UploadRequest{
		PackagePath: "addon.xpi",
		Version:     "1.0",
	})
	assert.Nil(t, result)
	require.ErrorIs(t, err, transportErr)
}

func TestSignValidatesRequest(t *testing.T) {
	client := NewClient(newFakeGateway(StatusReport{}), &fakeDownloader{}, Options{})

	_, err := client.Sign(context.Background(), UploadRequest{Version: "1.0"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "package path")

	_, err = client.Sign(context.Background(), UploadRequest{PackagePath: "addon.xpi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version")
}

func TestSignWarnsOnChannelForNewAddon(t *testing.T) {
	gateway := newFakeGateway(
		StatusReport{
			GUID:      "generated@amo",
			Processed: true,
			Valid:     true,
			Active:    true,
			Reviewed:  true,
			Files:     []FileDescriptor{{Signed: true, DownloadURL: "http://x/f.xpi"}},
		},
	)
	log := &recordingLogger{}
	client := NewClient(gateway, &fakeDownloader{paths: []string{"f.xpi"}}, Options{Logger: log})

	result, err := client.Sign(context.Background(), UploadRequest{
		PackagePath: "addon.xpi",
		Version:     "1.0",
		Channel:     "unlisted",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)

	require.Len(t, log.warns, 1)
	assert.Contains(t, log.warns[0], "cannot choose a channel")
}

func TestSignNoWarningWithGUID(t *testing.T) {
	gateway := newFakeGateway(
		StatusReport{
			GUID:      "ext@x",
			Processed: true,
			Valid:     true,
			Active:    true,
			Reviewed:  true,
			Files:     []FileDescriptor{{Signed: true, DownloadURL: "http://x/f.xpi"}},
		},
	)
	log := &recordingLogger{}
	client := NewClient(gateway, &fakeDownloader{paths: []string{"f.xpi"}}, Options{Logger: log})

	result, err := client.Sign(context.Background(), UploadRequest{
		PackagePath: "addon.xpi",
		GUID:        "ext@x",
		Version:     "1.0",
		Channel:     "unlisted",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, log.warns)
}
