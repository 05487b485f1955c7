package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSigningService is an httptest-backed stand-in for the addons API:
// one submit endpoint, one status resource, one downloadable file.
func fakeSigningService(t *testing.T, statusReports []map[string]any) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var statusCalls atomic.Int32
	mux := http.NewServeMux()

	mux.HandleFunc("/addons/", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if _, _, err := r.FormFile("upload"); err != nil {
			http.Error(w, "missing upload field", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"url": "/status/1"})
	})

	mux.HandleFunc("/status/1", func(w http.ResponseWriter, r *http.Request) {
		n := int(statusCalls.Add(1)) - 1
		if n >= len(statusReports) {
			n = len(statusReports) - 1
		}
		json.NewEncoder(w).Encode(statusReports[n])
	})

	mux.HandleFunc("/files/f.xpi", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("signed xpi contents"))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &statusCalls
}

func writePackage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "addon.xpi")
	require.NoError(t, os.WriteFile(path, []byte("unsigned xpi"), 0o644))
	return path
}

func TestRunSignEndToEnd(t *testing.T) {
	server, statusCalls := fakeSigningService(t, []map[string]any{
		{"processed": false},
		{
			"guid":      "ext@x",
			"processed": true,
			"valid":     true,
			"active":    true,
			"reviewed":  true,
			"files": []map[string]any{
				// Relative, like the real service; the client resolves it
				// against the API base URL.
				{"signed": true, "download_url": "/files/f.xpi"},
			},
		},
	})
	downloadDir := t.TempDir()

	code := run([]string{"sign",
		"-package", writePackage(t),
		"-guid", "ext@x",
		"-version", "1.0",
		"-key", "user:1:2",
		"-secret", "s3cret",
		"-api-url", server.URL,
		"-download-dir", downloadDir,
		"-poll-interval", "10ms",
		"-timeout", "5s",
	})

	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, int32(2), statusCalls.Load())

	data, err := os.ReadFile(filepath.Join(downloadDir, "f.xpi"))
	require.NoError(t, err)
	assert.Equal(t, "signed xpi contents", string(data))
}

func TestRunSignDestBucketURL(t *testing.T) {
	server, _ := fakeSigningService(t, []map[string]any{
		{
			"guid":      "ext@x",
			"processed": true,
			"valid":     true,
			"active":    true,
			"reviewed":  true,
			"files": []map[string]any{
				{"signed": true, "download_url": "/files/f.xpi"},
			},
		},
	})
	destDir := t.TempDir()

	code := run([]string{"sign",
		"-package", writePackage(t),
		"-guid", "ext@x",
		"-version", "1.0",
		"-key", "user:1:2",
		"-secret", "s3cret",
		"-api-url", server.URL,
		"-dest", "file://" + destDir + "?metadata=skip",
		"-poll-interval", "10ms",
		"-timeout", "5s",
	})

	assert.Equal(t, ExitSuccess, code)

	data, err := os.ReadFile(filepath.Join(destDir, "f.xpi"))
	require.NoError(t, err)
	assert.Equal(t, "signed xpi contents", string(data))
}

func TestRunSignBadDestURL(t *testing.T) {
	server, _ := fakeSigningService(t, []map[string]any{
		{"processed": false},
	})

	code := run([]string{"sign",
		"-package", writePackage(t),
		"-guid", "ext@x",
		"-version", "1.0",
		"-key", "user:1:2",
		"-secret", "s3cret",
		"-api-url", server.URL,
		"-dest", "bogus://nowhere",
		"-poll-interval", "10ms",
		"-timeout", "5s",
	})

	assert.Equal(t, ExitGeneralError, code)
}

func TestRunSignValidationFailure(t *testing.T) {
	server, _ := fakeSigningService(t, []map[string]any{
		{"processed": true, "valid": false, "validation_url": "http://amo/validation/9"},
	})

	code := run([]string{"sign",
		"-package", writePackage(t),
		"-guid", "ext@x",
		"-version", "1.0",
		"-key", "user:1:2",
		"-secret", "s3cret",
		"-api-url", server.URL,
		"-download-dir", t.TempDir(),
		"-poll-interval", "10ms",
		"-timeout", "5s",
	})

	assert.Equal(t, ExitValidationFailed, code)
}

func TestRunSignTimeout(t *testing.T) {
	server, _ := fakeSigningService(t, []map[string]any{
		{"processed": false},
	})

	code := run([]string{"sign",
		"-package", writePackage(t),
		"-guid", "ext@x",
		"-version", "1.0",
		"-key", "user:1:2",
		"-secret", "s3cret",
		"-api-url", server.URL,
		"-download-dir", t.TempDir(),
		"-poll-interval", "10ms",
		"-timeout", "50ms",
	})

	assert.Equal(t, ExitTimeout, code)
}

func TestRunSignMissingArgs(t *testing.T) {
	code := run([]string{"sign", "-version", "1.0"})
	assert.Equal(t, ExitInvalidArgs, code)
}

func TestRunUnknownCommand(t *testing.T) {
	code := run([]string{"frobnicate"})
	assert.Equal(t, ExitInvalidArgs, code)
}

func TestRunNoArgs(t *testing.T) {
	code := run(nil)
	assert.Equal(t, ExitInvalidArgs, code)
}
