// Package api implements the HTTP gateway for the addons signing service.
//
// This package handles:
//   - Multipart package submission (PUT for existing add-ons, POST for new)
//   - Status resource polling
//   - Artifact downloads
//   - Per-request JWT authentication
//   - Debug logging with credential redaction
//
// # Usage
//
//	client := api.NewClient(api.Options{
//	    BaseURL: "https://addons.mozilla.org/api/v4",
//	    Key:     key,
//	    Secret:  secret,
//	})
//
//	statusURL, err := client.Submit(ctx, req)
//	report, err := client.Status(ctx, statusURL)
//
// Every request carries a freshly issued token, and the request deadline is
// the token lifetime plus a fixed buffer so the token cannot expire while
// the request is in flight.
package api
