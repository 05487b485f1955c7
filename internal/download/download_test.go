package download

import (
	"context"
	"io"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/memblob"

	"github.com/mozilla/sign-addon/pkg/signing"
)

// fakeFetcher serves canned bodies by URL and counts requests.
type fakeFetcher struct {
	bodies   map[string]string
	failWith error
	failURL  string
	requests atomic.Int32
}

func (f *fakeFetcher) Download(ctx context.Context, fileURL string) (io.ReadCloser, int64, error) {
	f.requests.Add(1)
	if f.failWith != nil && fileURL == f.failURL {
		return nil, 0, f.failWith
	}
	body, ok := f.bodies[fileURL]
	if !ok {
		return nil, 0, &signing.DownloadError{URL: fileURL, StatusCode: 404}
	}
	return io.NopCloser(strings.NewReader(body)), int64(len(body)), nil
}

func openTestBucket(t *testing.T) *blob.Bucket {
	t.Helper()
	bucket, err := blob.OpenBucket(context.Background(), "mem://")
	require.NoError(t, err)
	t.Cleanup(func() { bucket.Close() })
	return bucket
}

func readObject(t *testing.T, bucket *blob.Bucket, key string) string {
	t.Helper()
	data, err := bucket.ReadAll(context.Background(), key)
	require.NoError(t, err)
	return string(data)
}

func TestFetchAllSkipsUnsignedFiles(t *testing.T) {
	fetcher := &fakeFetcher{bodies: map[string]string{
		"http://x/a.xpi": "signed a",
		"http://x/c.xpi": "signed c",
	}}
	bucket := openTestBucket(t)
	d := New(fetcher, bucket, Options{})

	paths, err := d.FetchAll(context.Background(), []signing.FileDescriptor{
		{Signed: true, DownloadURL: "http://x/a.xpi"},
		{Signed: false, DownloadURL: "http://x/b.xpi"},
		{Signed: true, DownloadURL: "http://x/c.xpi"},
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"a.xpi", "c.xpi"}, paths)
	assert.Equal(t, int32(2), fetcher.requests.Load())
	assert.Equal(t, "signed a", readObject(t, bucket, "a.xpi"))
	assert.Equal(t, "signed c", readObject(t, bucket, "c.xpi"))
}

func TestFetchAllRejectsAllUnsigned(t *testing.T) {
	fetcher := &fakeFetcher{}
	d := New(fetcher, openTestBucket(t), Options{})

	paths, err := d.FetchAll(context.Background(), []signing.FileDescriptor{
		{Signed: false, DownloadURL: "http://x/a.xpi"},
		{Signed: false, DownloadURL: "http://x/b.xpi"},
		{Signed: false, DownloadURL: "http://x/c.xpi"},
	})
	assert.Nil(t, paths)

	var noSigned *signing.NoSignedFilesError
	require.ErrorAs(t, err, &noSigned)
	assert.Equal(t, 3, noSigned.Total)
	assert.Equal(t, int32(0), fetcher.requests.Load(), "no HTTP requests for unsigned files")
}

func TestFetchAllEmptyList(t *testing.T) {
	d := New(&fakeFetcher{}, openTestBucket(t), Options{})

	_, err := d.FetchAll(context.Background(), nil)
	var noSigned *signing.NoSignedFilesError
	require.ErrorAs(t, err, &noSigned)
	assert.Equal(t, 0, noSigned.Total)
}

func TestFetchAllSingleFailureRejectsWhole(t *testing.T) {
	failErr := &signing.DownloadError{URL: "http://x/b.xpi", StatusCode: 502}
	fetcher := &fakeFetcher{
		bodies: map[string]string{
			"http://x/a.xpi": "signed a",
		},
		failWith: failErr,
		failURL:  "http://x/b.xpi",
	}
	d := New(fetcher, openTestBucket(t), Options{})

	paths, err := d.FetchAll(context.Background(), []signing.FileDescriptor{
		{Signed: true, DownloadURL: "http://x/a.xpi"},
		{Signed: true, DownloadURL: "http://x/b.xpi"},
	})
	assert.Nil(t, paths)

	var downloadErr *signing.DownloadError
	require.ErrorAs(t, err, &downloadErr)
	assert.Equal(t, 502, downloadErr.StatusCode)
}

func TestFetchAllStripsQueryFromName(t *testing.T) {
	fetcher := &fakeFetcher{bodies: map[string]string{
		"http://x/files/addon-1.0-fx.xpi?src=api&expires=123": "signed",
	}}
	bucket := openTestBucket(t)
	d := New(fetcher, bucket, Options{})

	paths, err := d.FetchAll(context.Background(), []signing.FileDescriptor{
		{Signed: true, DownloadURL: "http://x/files/addon-1.0-fx.xpi?src=api&expires=123"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"addon-1.0-fx.xpi"}, paths)
	assert.Equal(t, "signed", readObject(t, bucket, "addon-1.0-fx.xpi"))
}

func TestFetchAllJoinsDirIntoPaths(t *testing.T) {
	fetcher := &fakeFetcher{bodies: map[string]string{
		"http://x/f.xpi": "signed",
	}}
	d := New(fetcher, openTestBucket(t), Options{Dir: "downloads"})

	paths, err := d.FetchAll(context.Background(), []signing.FileDescriptor{
		{Signed: true, DownloadURL: "http://x/f.xpi"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"downloads/f.xpi"}, paths)
}

func TestObjectName(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{url: "http://x/f.xpi", want: "f.xpi"},
		{url: "http://x/a/b/c/f.xpi?query=1", want: "f.xpi"},
		{url: "http://x/", wantErr: true},
		{url: "http://x", wantErr: true},
	}

	for _, tt := range tests {
		got, err := objectName(tt.url)
		if tt.wantErr {
			assert.Error(t, err, "url %s", tt.url)
			continue
		}
		require.NoError(t, err, "url %s", tt.url)
		assert.Equal(t, tt.want, got, "url %s", tt.url)
	}
}
