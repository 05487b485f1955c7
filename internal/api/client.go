package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mozilla/sign-addon/internal/auth"
	"github.com/mozilla/sign-addon/internal/logging"
	"github.com/mozilla/sign-addon/pkg/signing"
)

// DefaultBaseURL is the production signing API endpoint.
const DefaultBaseURL = "https://addons.mozilla.org/api/v4"

// requestBuffer is added to the token lifetime to form the request deadline,
// so a token never expires while its request is still in flight.
const requestBuffer = 30 * time.Second

// Options configures the API client.
type Options struct {
	// BaseURL of the signing API.
	// Default: DefaultBaseURL
	BaseURL string

	// ProxyURL routes all requests through an HTTP proxy when set.
	ProxyURL string

	// Key and Secret are the API credentials used to issue tokens.
	Key    string
	Secret string

	// TokenExpiry is the lifetime of each issued token.
	// Default: 5m
	TokenExpiry time.Duration

	// Logger receives debug dumps of requests and responses (with
	// credentials redacted). Default: discard.
	Logger logging.Logger
}

// Client talks to the signing service over HTTP/JSON. It implements
// signing.Gateway plus the Download operation used by the file downloader.
type Client struct {
	http        *http.Client
	base        *url.URL
	tokens      auth.Provider
	tokenExpiry time.Duration
	log         logging.Logger
}

// submitResponse is the body of a submit call: a status URL on success, an
// error message on failure.
type submitResponse struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// NewClient creates a client for the signing API.
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.TokenExpiry <= 0 {
		opts.TokenExpiry = 5 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = logging.New(io.Discard, false)
	}

	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	// Endpoint refs are relative to the base; a missing trailing slash
	// would make ResolveReference drop the last path segment.
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.ProxyURL != "" {
		proxy, err := url.Parse(opts.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy URL: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxy)
	}

	return &Client{
		http:        &http.Client{Transport: transport},
		base:        base,
		tokens:      auth.Provider{Key: opts.Key, Secret: opts.Secret},
		tokenExpiry: opts.TokenExpiry,
		log:         opts.Logger,
	}, nil
}

// Submit uploads the package as a multipart request and returns the URL of
// the status resource to poll.
//
// With a GUID the request is a PUT to /addons/{guid}/versions/{version}/ and
// may carry a channel field; without one it is a POST to /addons/ with a
// version field (new add-ons cannot choose a channel).
func (c *Client) Submit(ctx context.Context, req signing.UploadRequest) (string, error) {
	pkg, err := os.Open(req.PackagePath)
	if err != nil {
		return "", fmt.Errorf("open package: %w", err)
	}
	defer pkg.Close()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	part, err := form.CreateFormFile("upload", filepath.Base(req.PackagePath))
	if err != nil {
		return "", fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := io.Copy(part, pkg); err != nil {
		return "", fmt.Errorf("read package: %w", err)
	}

	var method, endpoint string
	if req.GUID != "" {
		method = http.MethodPut
		endpoint = fmt.Sprintf("addons/%s/versions/%s/", pathSegment(req.GUID), pathSegment(req.Version))
		if req.Channel != "" {
			if err := form.WriteField("channel", req.Channel); err != nil {
				return "", fmt.Errorf("build multipart body: %w", err)
			}
		}
	} else {
		method = http.MethodPost
		endpoint = "addons/"
		if err := form.WriteField("version", req.Version); err != nil {
			return "", fmt.Errorf("build multipart body: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("build multipart body: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.tokenExpiry+requestBuffer)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, method, c.resolve(endpoint), &body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var sr submitResponse
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read submit response: %w", err)
	}
	// The body is JSON on both success and failure paths; a non-JSON body
	// only matters when the status is unexpected, so decode errors are
	// folded into the status check below.
	_ = json.Unmarshal(raw, &sr)

	if sr.Error != "" {
		return "", &signing.ServerError{StatusCode: resp.StatusCode, Message: sr.Error}
	}
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
	default:
		return "", fmt.Errorf("api: unexpected status %d from %s %s", resp.StatusCode, method, httpReq.URL)
	}
	if sr.URL == "" {
		return "", fmt.Errorf("api: submit response carries no status URL")
	}

	return c.resolve(sr.URL), nil
}

// Status fetches one snapshot of the status resource.
func (c *Client) Status(ctx context.Context, statusURL string) (*signing.StatusReport, error) {
	ctx, cancel := context.WithTimeout(ctx, c.tokenExpiry+requestBuffer)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(statusURL), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api: unexpected status %d from %s", resp.StatusCode, req.URL)
	}

	var report signing.StatusReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("decode status report: %w", err)
	}
	return &report, nil
}

// Download opens a signed-artifact URL for reading. The returned size is the
// Content-Length, or -1 when the server did not send one. The caller owns
// the body. No deadline is applied beyond ctx: the body may take longer to
// stream than a token lifetime.
func (c *Client) Download(ctx context.Context, fileURL string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(fileURL), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, 0, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, 0, &signing.DownloadError{URL: fileURL, StatusCode: resp.StatusCode}
	}

	return resp.Body, resp.ContentLength, nil
}

// do attaches a fresh token and the JSON accept header, then performs the
// request with debug logging.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	token, err := c.tokens.IssueToken(c.tokenExpiry)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	req.Header.Set("Authorization", "JWT "+token)
	req.Header.Set("Accept", "application/json")

	c.log.Debug(req.Context(), "request",
		"method", req.Method,
		"url", req.URL.String(),
		"headers", Sanitize(req.Header),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: %s %s: %w", req.Method, req.URL, err)
	}

	c.log.Debug(req.Context(), "response",
		"status", resp.StatusCode,
		"headers", Sanitize(resp.Header),
	)
	return resp, nil
}

// pathSegment escapes s as a strict single path segment. Unlike
// url.PathEscape it also escapes '@', which add-on GUIDs commonly contain.
func pathSegment(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// resolve interprets ref relative to the API base URL. Absolute URLs pass
// through unchanged; the service returns both forms.
func (c *Client) resolve(ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if u.IsAbs() {
		return ref
	}
	return c.base.ResolveReference(u).String()
}
