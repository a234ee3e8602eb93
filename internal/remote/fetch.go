package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxRedirects = 10
)

var (
	errTooManyRedirects = errors.New("too many redirects")
	errRedirectScheme   = errors.New("redirect target scheme is not http/https")
	errInsecureRefused  = errors.New("plain http is disabled")
)

// FetchOptions bounds each remote fetch.
type FetchOptions struct {
	Timeout      time.Duration // default 30s
	MaxRedirects int           // default 10
	MaxBytes     int64         // 0 means unlimited
	AllowHTTP    bool          // permit records that are not secure
	RateLimit    float64       // requests per second, 0 means unlimited
	MaxParallel  int64         // concurrent requests, 0 means unlimited
}

// FetchError reports a failed fetch of a remote module.
type FetchError struct {
	URL    string
	Status int // HTTP status, 0 when no response was received
	Reason string
	Cause  error
}

func (e *FetchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("fetch %s: %s", e.URL, e.Reason)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Cause }

// Timeout reports whether the fetch failed because it ran out of time.
func (e *FetchError) Timeout() bool {
	if errors.Is(e.Cause, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Cause, &ne) && ne.Timeout()
}

// Fetcher downloads remote module bodies.
type Fetcher struct {
	client    *http.Client
	opts      FetchOptions
	limiter   *rate.Limiter
	semaphore *semaphore.Weighted
}

// NewFetcher creates a fetcher. Zero-valued options fall back to defaults.
func NewFetcher(opts FetchOptions) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = DefaultMaxRedirects
	}

	f := &Fetcher{opts: opts}
	f.client = &http.Client{
		Timeout:   opts.Timeout,
		Transport: http.DefaultTransport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > opts.MaxRedirects {
				return errTooManyRedirects
			}
			if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
				return errRedirectScheme
			}
			return nil
		},
	}
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	if opts.MaxParallel > 0 {
		f.semaphore = semaphore.NewWeighted(opts.MaxParallel)
	}
	return f
}

// Fetch GETs rec.URL and returns the whole body as text.
func (f *Fetcher) Fetch(ctx context.Context, rec Record) (string, error) {
	if !rec.Secure && !f.opts.AllowHTTP {
		return "", &FetchError{URL: rec.URL, Reason: "refused", Cause: errInsecureRefused}
	}

	if f.semaphore != nil {
		if err := f.semaphore.Acquire(ctx, 1); err != nil {
			return "", &FetchError{URL: rec.URL, Reason: "canceled while waiting", Cause: err}
		}
		defer f.semaphore.Release(1)
	}
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", &FetchError{URL: rec.URL, Reason: "canceled while waiting", Cause: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rec.URL, nil)
	if err != nil {
		return "", &FetchError{URL: rec.URL, Reason: "invalid request", Cause: err}
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, errTooManyRedirects) {
			return "", &FetchError{
				URL:    rec.URL,
				Reason: fmt.Sprintf("more than %d redirects", f.opts.MaxRedirects),
				Cause:  err,
			}
		}
		fe := &FetchError{URL: rec.URL, Reason: "request failed", Cause: err}
		if fe.Timeout() {
			fe.Reason = fmt.Sprintf("timed out after %s", f.opts.Timeout)
		}
		return "", fe
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &FetchError{
			URL:    rec.URL,
			Status: resp.StatusCode,
			Reason: fmt.Sprintf("unexpected status %d", resp.StatusCode),
		}
	}

	var reader io.Reader = resp.Body
	if f.opts.MaxBytes > 0 {
		// Read one extra byte so an oversized body is detected deterministically.
		reader = io.LimitReader(resp.Body, f.opts.MaxBytes+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		fe := &FetchError{URL: rec.URL, Status: resp.StatusCode, Reason: "reading body failed", Cause: err}
		if fe.Timeout() {
			fe.Reason = fmt.Sprintf("timed out after %s", f.opts.Timeout)
		}
		return "", fe
	}
	if f.opts.MaxBytes > 0 && int64(len(body)) > f.opts.MaxBytes {
		return "", &FetchError{
			URL:    rec.URL,
			Status: resp.StatusCode,
			Reason: fmt.Sprintf("body larger than %d bytes", f.opts.MaxBytes),
		}
	}

	log.Debug().
		Str("url", rec.URL).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("elapsed", time.Since(start)).
		Msg("Fetched remote module")

	return string(body), nil
}
