// Package progress provides progress reporting for artifact downloads.
//
// This package outputs human-readable progress information, including
// cumulative bytes received across concurrent downloads. It has no semantic
// effect on the sign workflow; the output is purely for humans.
//
// # Usage
//
//	reporter := progress.NewReporter(progress.Options{
//	    Output: os.Stderr,
//	})
//
//	reporter.Start(len(files))
//	defer reporter.Stop()
//
//	// Per download: register the expected size, then count bytes.
//	reporter.AddTotal(contentLength)
//	body = reporter.Track(body)
//
// When any download has an unknown Content-Length the display degrades to an
// indeterminate indicator (bytes received, no percentage).
//
// # Output Format
//
//	[sign-addon] Downloading 2 signed file(s)
//	[sign-addon] Progress: 45.2% | 1.13 MB / 2.50 MB
//	[sign-addon] Downloaded 2.50 MB in 3s
package progress
