// Package download fetches signed artifacts to storage.
//
// This package coordinates between the API client and a gocloud.dev blob
// bucket. Unsigned entries in a status report are skipped and logged; the
// remaining files are fetched concurrently, and the first failure aborts
// the whole operation.
//
// # Usage
//
//	bucket, _ := fileblob.OpenBucket(downloadDir, nil)
//	d := download.New(client, bucket, download.Options{Dir: downloadDir})
//	paths, err := d.FetchAll(ctx, report.Files)
//
// The destination is storage-agnostic via gocloud.dev/blob: the CLI opens a
// file:// bucket rooted at the download directory, tests use mem://.
package download
