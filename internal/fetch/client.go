// Package fetch downloads Kaggle datasets into a local cache.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/schollz/progressbar/v3"

	"github.com/KaramelBytes/songlens-cli/internal/utils"
)

// DefaultBaseURL is the public Kaggle API root.
const DefaultBaseURL = "https://www.kaggle.com/api/v1"

// ErrBadHandle means a dataset handle is not "owner/slug".
var ErrBadHandle = errors.New("dataset must be of the form owner/slug")

// Client downloads datasets with retry and backoff.
type Client struct {
	httpClient       *http.Client
	creds            Credentials
	baseURL          string
	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration

	// Progress receives the download progress bar; nil disables it.
	Progress io.Writer
	Log      log.Interface
}

// NewClient allows customizing HTTP timeout and retry/backoff behavior.
func NewClient(creds Credentials, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) *Client {
	if httpTimeout <= 0 {
		httpTimeout = 300 * time.Second
	}
	if retryMax <= 0 {
		retryMax = 3
	}
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 4 * time.Second
	}
	return &Client{
		httpClient:       &http.Client{Timeout: httpTimeout},
		creds:            creds,
		baseURL:          DefaultBaseURL,
		retryMaxAttempts: retryMax,
		retryBaseDelay:   baseDelay,
		retryMaxDelay:    maxDelay,
		Log:              log.Log,
	}
}

// NewClientWithBaseURL allows injecting a custom base URL (used in tests).
func NewClientWithBaseURL(creds Credentials, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration, baseURL string) *Client {
	c := NewClient(creds, httpTimeout, retryMax, baseDelay, maxDelay)
	if baseURL != "" {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
	return c
}

// ParseHandle splits "owner/slug".
func ParseHandle(handle string) (owner, slug string, err error) {
	parts := strings.Split(strings.Trim(strings.TrimSpace(handle), "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" || parts[0] == ".." || parts[1] == ".." {
		return "", "", fmt.Errorf("%w: %q", ErrBadHandle, handle)
	}
	return parts[0], parts[1], nil
}

// CacheDir is where a handle is extracted under cacheRoot.
func CacheDir(cacheRoot, handle string) (string, error) {
	owner, slug, err := ParseHandle(handle)
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheRoot, owner, slug), nil
}

// Fetch returns a local directory holding the dataset files. A cache
// directory that already holds files is reused without a network call.
func (c *Client) Fetch(ctx context.Context, handle, cacheRoot string) (dir string, cached bool, err error) {
	dir, err = CacheDir(cacheRoot, handle)
	if err != nil {
		return "", false, err
	}
	ctxLog := c.logger().WithFields(log.Fields{"dataset": handle, "dir": dir})
	if utils.DirHasFiles(dir) {
		ctxLog.Debug("using cached dataset")
		return dir, true, nil
	}
	if !c.creds.Complete() {
		return "", false, ErrNoCredentials
	}
	// Everything lands in a staging dir first; dir only appears once the
	// payload is complete, so a failed run never leaves a usable-looking cache.
	staging := dir + ".partial"
	if err := os.RemoveAll(staging); err != nil {
		return "", false, fmt.Errorf("clear staging dir: %w", err)
	}
	if err := utils.EnsureDir(staging); err != nil {
		return "", false, fmt.Errorf("create cache dir: %w", err)
	}
	defer os.RemoveAll(staging)
	_, slug, _ := ParseHandle(handle)
	tmp := filepath.Join(staging, slug+".download.tmp")

	ctxLog.Info("downloading dataset")
	if err := c.Download(ctx, handle, tmp); err != nil {
		return "", false, err
	}
	zipped, err := isZip(tmp)
	if err != nil {
		return "", false, err
	}
	if zipped {
		files, err := Extract(tmp, staging)
		if err != nil {
			return "", false, err
		}
		if err := os.Remove(tmp); err != nil {
			return "", false, fmt.Errorf("remove archive: %w", err)
		}
		ctxLog.WithField("files", len(files)).Info("dataset extracted")
	} else if err := os.Rename(tmp, filepath.Join(staging, slug+".csv")); err != nil {
		// Single-file datasets are served uncompressed.
		return "", false, fmt.Errorf("store dataset: %w", err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return "", false, fmt.Errorf("replace cache dir: %w", err)
	}
	if err := os.Rename(staging, dir); err != nil {
		return "", false, fmt.Errorf("publish cache dir: %w", err)
	}
	return dir, false, nil
}

// Download streams the dataset archive for handle into path.
func (c *Client) Download(ctx context.Context, handle, path string) error {
	owner, slug, err := ParseHandle(handle)
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/datasets/download/%s/%s", c.baseURL, owner, slug)
	maxAttempts := c.retryMaxAttempts
	backoff := c.retryBaseDelay

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		wait, retry, err := c.attempt(ctx, endpoint, handle, path)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry || attempt == maxAttempts {
			break
		}
		if wait <= 0 {
			wait = withJitter(backoff)
			if c.retryMaxDelay > 0 && wait > c.retryMaxDelay {
				wait = c.retryMaxDelay
			}
			backoff *= 2
		}
		c.logger().WithFields(log.Fields{"attempt": attempt, "wait": wait.String()}).WithError(err).Warn("download failed, retrying")
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
	return lastErr
}

// attempt performs one request. It reports how long to wait before the next
// attempt (zero means use backoff) and whether a retry makes sense.
func (c *Client) attempt(ctx context.Context, endpoint, handle, path string) (time.Duration, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, false, fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.creds.Username, c.creds.Key)
	req.Header.Set("User-Agent", "songlens-cli")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isRetryableNetErr(err) {
			return 0, true, fmt.Errorf("http request: %w", err)
		}
		return 0, false, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := decodeAPIError(resp)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			var ra time.Duration
			if v := resp.Header.Get("Retry-After"); v != "" {
				if secs, err := parseRetryAfterSeconds(v); err == nil && secs > 0 {
					ra = time.Duration(secs) * time.Second
				}
			}
			if resp.StatusCode == http.StatusTooManyRequests {
				return ra, true, &RateLimitError{APIError: apiErr, RetryAfter: ra}
			}
			return ra, true, &ServerError{APIError: apiErr}
		}
		return 0, false, classifyAPIError(apiErr, handle)
	}

	out, err := os.Create(path)
	if err != nil {
		return 0, false, fmt.Errorf("create download file: %w", err)
	}
	bar := c.progressBar(resp.ContentLength, handle)
	_, copyErr := io.Copy(io.MultiWriter(out, bar), resp.Body)
	closeErr := out.Close()
	if copyErr != nil {
		return 0, isRetryableNetErr(copyErr), fmt.Errorf("read body: %w", copyErr)
	}
	if closeErr != nil {
		return 0, false, closeErr
	}
	_ = bar.Finish()
	return 0, false, nil
}

func (c *Client) progressBar(size int64, handle string) *progressbar.ProgressBar {
	w := c.Progress
	if w == nil {
		w = io.Discard
	}
	return progressbar.NewOptions64(
		size,
		progressbar.OptionSetDescription("downloading "+handle),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
	)
}

func (c *Client) logger() log.Interface {
	if c.Log == nil {
		return log.Log
	}
	return c.Log
}

func decodeAPIError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
	apiErr := &APIError{StatusCode: resp.StatusCode, RequestID: resp.Header.Get("X-Kaggle-Request-Id")}
	var raw map[string]any
	if json.Unmarshal(body, &raw) == nil {
		if msg, ok := raw["message"].(string); ok {
			apiErr.Message = msg
		}
	} else if s := strings.TrimSpace(string(body)); s != "" && len(s) < 200 {
		apiErr.Message = s
	}
	return apiErr
}

// classifyAPIError maps non-retryable statuses to typed errors.
func classifyAPIError(apiErr *APIError, handle string) error {
	switch apiErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{APIError: apiErr}
	case http.StatusNotFound:
		return &NotFoundError{APIError: apiErr, Dataset: handle}
	}
	return apiErr
}

func isRetryableNetErr(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// parseRetryAfterSeconds interprets Retry-After as seconds or an HTTP date.
func parseRetryAfterSeconds(v string) (int, error) {
	if s, err := strconv.Atoi(v); err == nil {
		return s, nil
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return int(d.Seconds()), nil
	}
	return 0, fmt.Errorf("invalid Retry-After: %q", v)
}

// withJitter returns a backoff duration with +/- 20% jitter applied.
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 500 * time.Millisecond
	}
	f := 0.8 + rand.Float64()*0.4
	out := time.Duration(float64(d) * f)
	if out <= 0 {
		return d
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
