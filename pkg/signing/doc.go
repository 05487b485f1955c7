// Package signing implements the client workflow for the addons signing API:
// submit a package, poll the returned status resource until it reaches a
// terminal state, then download the signed artifacts.
//
// # Usage
//
// The main entry point is [Client.Sign]:
//
//	client := signing.NewClient(gateway, downloader, signing.Options{
//	    PollInterval: time.Second,
//	    PhaseTimeout: 15 * time.Minute,
//	})
//
//	result, err := client.Sign(ctx, signing.UploadRequest{
//	    PackagePath: "my-addon.xpi",
//	    GUID:        "my-addon@example.com",
//	    Version:     "1.0.0",
//	})
//
// On success result.DownloadedFiles names the signed artifacts. Server-side
// business failures (validation errors, manual-review holds, submit
// rejections) resolve into a Result with Success=false and an ErrorCode;
// transport failures, timeouts, and download failures are returned as errors.
//
// # Polling
//
// A submitted version moves through two phases. During validation the service
// analyzes the package; during signing it produces the signed files. Each
// phase is polled on a fixed interval and guarded by its own deadline. Polls
// are strictly sequential: the next status request is scheduled only after
// the previous one has been classified.
//
// # Collaborators
//
// The HTTP exchanges and the artifact downloads are performed by injected
// [Gateway] and [Downloader] implementations (see internal/api and
// internal/download for the production ones), so tests can substitute fakes.
package signing
