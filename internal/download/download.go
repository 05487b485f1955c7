package download

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"

	"gocloud.dev/blob"
	"golang.org/x/sync/errgroup"

	"github.com/mozilla/sign-addon/internal/logging"
	"github.com/mozilla/sign-addon/internal/progress"
	"github.com/mozilla/sign-addon/pkg/signing"
)

// Fetcher opens an artifact URL for reading. The API client implements it;
// size is the Content-Length or -1 when unknown.
type Fetcher interface {
	Download(ctx context.Context, fileURL string) (body io.ReadCloser, size int64, err error)
}

// Options configures the downloader.
type Options struct {
	// Dir is the local directory the bucket is rooted at; it is joined
	// into the returned paths for display. Empty means the returned paths
	// are bare object names.
	Dir string

	// Reporter is an optional progress reporter.
	Reporter *progress.Reporter

	// Logger receives per-file messages. Default: discard.
	Logger logging.Logger
}

// Downloader writes signed artifacts from the service into a blob bucket.
type Downloader struct {
	fetcher Fetcher
	bucket  *blob.Bucket
	opts    Options
}

// New creates a downloader that fetches through fetcher and writes into
// bucket. The bucket is owned by the caller.
func New(fetcher Fetcher, bucket *blob.Bucket, opts Options) *Downloader {
	if opts.Logger == nil {
		opts.Logger = logging.New(io.Discard, false)
	}
	return &Downloader{fetcher: fetcher, bucket: bucket, opts: opts}
}

// FetchAll downloads every signed file concurrently and returns their local
// paths. Unsigned entries are skipped and logged. If no entry is signed it
// returns a *signing.NoSignedFilesError without issuing any request; if any
// single download fails the whole call fails.
func (d *Downloader) FetchAll(ctx context.Context, files []signing.FileDescriptor) ([]string, error) {
	var signed []signing.FileDescriptor
	for _, f := range files {
		if !f.Signed {
			d.opts.Logger.Warn(ctx, "skipping unsigned file", "url", f.DownloadURL)
			continue
		}
		signed = append(signed, f)
	}
	if len(signed) == 0 {
		return nil, &signing.NoSignedFilesError{Total: len(files)}
	}

	if r := d.opts.Reporter; r != nil {
		r.Start(len(signed))
		defer r.Stop()
	}

	paths := make([]string, len(signed))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range signed {
		i, f := i, f
		g.Go(func() error {
			p, err := d.fetchOne(gctx, f)
			if err != nil {
				return err
			}
			paths[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// fetchOne streams one artifact into the bucket and returns its local path.
func (d *Downloader) fetchOne(ctx context.Context, f signing.FileDescriptor) (string, error) {
	name, err := objectName(f.DownloadURL)
	if err != nil {
		return "", err
	}

	body, size, err := d.fetcher.Download(ctx, f.DownloadURL)
	if err != nil {
		return "", err
	}
	defer body.Close()

	r := io.Reader(body)
	if rep := d.opts.Reporter; rep != nil {
		rep.AddTotal(size)
		r = rep.Track(r)
	}

	w, err := d.bucket.NewWriter(ctx, name, nil)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}

	n, err := io.Copy(w, r)
	if err != nil {
		w.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finish %s: %w", name, err)
	}

	local := name
	if d.opts.Dir != "" {
		local = filepath.Join(d.opts.Dir, name)
	}
	d.opts.Logger.Info(ctx, "downloaded signed file", "path", local, "bytes", n)
	return local, nil
}

// objectName derives the destination object name from the download URL:
// the basename of the URL path with any query string stripped.
func objectName(fileURL string) (string, error) {
	u, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("parse download URL %q: %w", fileURL, err)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("download URL %q has no file name", fileURL)
	}
	return name, nil
}
