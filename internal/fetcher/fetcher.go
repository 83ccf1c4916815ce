package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"hostsync/internal/common"
	"hostsync/internal/config"
)

// maxContentSize caps how much of a source response is read. Public hosts
// lists are a few MB at most; anything larger is not a hosts file.
const maxContentSize = 16 * 1024 * 1024

// ErrorKind classifies a fetch failure.
type ErrorKind int

const (
	// KindNetwork covers connection failures, DNS errors and non-OK HTTP statuses.
	KindNetwork ErrorKind = iota
	// KindTimeout covers deadline and timeout failures.
	KindTimeout
	// KindDecode covers responses that are not usable plaintext.
	KindDecode
)

// String returns a short label for the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is a typed per-source fetch failure. A failed source is excluded from
// the tick's aggregation; it never fails the tick on its own.
type Error struct {
	URL  string
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s failed (%s): %v", e.URL, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Result is the outcome of fetching one configured source.
type Result struct {
	URL     string
	Content string
	Err     *Error
}

// OK reports whether the fetch succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Client fetches raw hosts content from configured source URLs.
type Client struct {
	httpClient *http.Client
	userAgent  string
	logger     zerolog.Logger
}

// NewClient creates a fetch client with the configured per-request timeout.
func NewClient(cfg config.FetchConfig, logger zerolog.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = config.DefaultFetchTimeoutSecs * time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = config.DefaultFetchUserAgent
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		logger:     logger.With().Str("component", "Fetcher").Logger(),
	}
}

// Fetch retrieves the raw text of a single source URL. All failures surface
// as a typed *Error; it never panics or returns a bare transport error.
func (c *Client) Fetch(ctx context.Context, sourceURL string) (string, *Error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", &Error{URL: sourceURL, Kind: KindNetwork, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &Error{URL: sourceURL, Kind: classifyTransportError(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		httpErr := common.NewHTTPError(resp.StatusCode, resp.Status, sourceURL)
		return "", &Error{URL: sourceURL, Kind: KindNetwork, Err: httpErr}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxContentSize+1))
	if err != nil {
		return "", &Error{URL: sourceURL, Kind: classifyTransportError(err), Err: err}
	}
	if len(body) > maxContentSize {
		return "", &Error{URL: sourceURL, Kind: KindDecode, Err: common.NewError("response exceeds %d bytes", maxContentSize)}
	}

	content := string(body)
	if err := validateContent(content); err != nil {
		return "", &Error{URL: sourceURL, Kind: KindDecode, Err: err}
	}

	c.logger.Debug().Str("url", sourceURL).Int("size", len(content)).Msg("Source content fetched")
	return content, nil
}

// FetchAll fetches every source concurrently and waits for all of them.
// Results are returned in the original source order regardless of completion
// order; failed sources carry their typed error in place.
func (c *Client) FetchAll(ctx context.Context, sources []string) []Result {
	results := make([]Result, len(sources))

	var wg sync.WaitGroup
	for i, sourceURL := range sources {
		wg.Add(1)
		go func(idx int, u string) {
			defer wg.Done()
			content, fetchErr := c.Fetch(ctx, u)
			results[idx] = Result{URL: u, Content: content, Err: fetchErr}
		}(i, sourceURL)
	}
	wg.Wait()

	for _, r := range results {
		if r.Err != nil {
			c.logger.Warn().Str("url", r.URL).Str("kind", r.Err.Kind.String()).Err(r.Err.Err).Msg("Source fetch failed")
		}
	}

	return results
}

// classifyTransportError distinguishes timeouts from other network failures.
func classifyTransportError(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindNetwork
}

// validateContent rejects responses that cannot be hosts plaintext: empty
// bodies and bodies containing control characters other than line/tab
// whitespace. Line-level record syntax is deliberately not checked here.
func validateContent(content string) error {
	trimmed := false
	for _, c := range content {
		if c != ' ' && c != '\n' && c != '\r' && c != '\t' {
			trimmed = true
		}
		if c < 0x20 && c != '\n' && c != '\r' && c != '\t' {
			return common.NewError("response contains control character %q", c)
		}
		if c == 0x7f || c == 0xfffd {
			return common.NewError("response contains control character %q", c)
		}
	}
	if !trimmed {
		return common.NewError("response body is empty")
	}
	return nil
}
