// Package fetch pulls upload payloads from their pre-signed URLs to their
// final paths on disk. Fetch failures are transient: the URLs expire, so a
// failed transfer is reported and retried by re-running against a fresh
// manifest rather than retried in-process.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"voxpull/internal/fileutil"
	"voxpull/internal/services"
)

const defaultTimeout = 120 * time.Second

// Result reports what one Download call did.
type Result struct {
	// Skipped is true when the destination already held a non-empty file
	// and no transfer happened.
	Skipped bool
	// Bytes is the transferred size; zero when skipped.
	Bytes int64
}

// Client downloads upload payloads.
type Client struct {
	httpClient *http.Client
	progress   bool
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithProgress enables terminal progress bars. Bars render only when
// stderr is a TTY regardless of this setting.
func WithProgress(enabled bool) Option {
	return func(c *Client) {
		c.progress = enabled
	}
}

// NewClient constructs a download client. timeoutSeconds bounds each
// transfer end to end; zero selects the default.
func NewClient(timeoutSeconds int, opts ...Option) *Client {
	timeout := defaultTimeout
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}
	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Download fetches url into dest. A non-empty file already at dest is
// treated as complete and skipped, which is what makes re-runs resume
// instead of re-transferring. The payload lands via a temp file and
// rename so an interrupted transfer never leaves a partial dest behind.
func (c *Client) Download(ctx context.Context, url, dest string) (Result, error) {
	if fileutil.ExistsNonEmpty(dest) {
		return Result{Skipped: true}, nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return Result{}, fmt.Errorf("create destination directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, services.Wrap(services.ErrTransient, "fetch", "build request", "invalid upload URL", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, services.Wrap(services.ErrTransient, "fetch", "download", "transfer failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Result{}, services.Wrap(services.ErrTransient, "fetch", "download",
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*")
	if err != nil {
		return Result{}, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	var sink io.Writer = tmp
	if c.progress && isatty.IsTerminal(os.Stderr.Fd()) {
		bar := progressbar.DefaultBytes(resp.ContentLength, filepath.Base(dest))
		sink = io.MultiWriter(tmp, bar)
	}

	written, err := io.Copy(sink, resp.Body)
	if err != nil {
		tmp.Close()
		return Result{}, services.Wrap(services.ErrTransient, "fetch", "download", "transfer interrupted", err)
	}
	if err := tmp.Close(); err != nil {
		return Result{}, fmt.Errorf("flush temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return Result{}, fmt.Errorf("finalize download: %w", err)
	}
	return Result{Bytes: written}, nil
}

// Placeholder creates an empty file at dest, standing in for the payload
// during dry runs so path assignment stays observable on disk.
func Placeholder(dest string) error {
	if fileutil.Exists(dest) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}
	if err := os.WriteFile(dest, nil, 0o644); err != nil {
		return fmt.Errorf("write placeholder: %w", err)
	}
	return nil
}
