// Package httputil provides a retrying HTTP client for callers that want
// transient failures re-attempted. The upload pipeline itself performs a
// single attempt per operation; retry policy belongs to whoever invokes it.
package httputil

import (
	"errors"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"time"
)

type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}
}

type RetryClient struct {
	client *http.Client
	config RetryConfig
}

func NewRetryClient(client *http.Client, config RetryConfig) *RetryClient {
	if client == nil {
		client = http.DefaultClient
	}

	defaults := DefaultRetryConfig()
	if config.MaxRetries == 0 {
		config.MaxRetries = defaults.MaxRetries
	}
	if config.InitialDelay == 0 {
		config.InitialDelay = defaults.InitialDelay
	}
	if config.MaxDelay == 0 {
		config.MaxDelay = defaults.MaxDelay
	}
	if config.Multiplier == 0 {
		config.Multiplier = defaults.Multiplier
	}

	return &RetryClient{client: client, config: config}
}

// Do issues the request, re-attempting timeouts, connection failures, 429s
// and 5xx responses. Backoff is exponential with jitter, capped at MaxDelay;
// a Retry-After header on a 429 overrides the computed delay. The request
// context is honored while waiting between attempts, so a cancelled upload
// does not sit out a backoff window. A request carrying a body without
// GetBody gets a single attempt; its failure is returned as-is.
func (c *RetryClient) Do(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error
	delay := c.config.InitialDelay

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			if req.GetBody != nil {
				body, bodyErr := req.GetBody()
				if bodyErr != nil {
					return nil, bodyErr
				}
				req.Body = body
			}

			if err := waitWithContext(req, jitter(delay)); err != nil {
				return nil, err
			}
			delay = min(time.Duration(float64(delay)*c.config.Multiplier), c.config.MaxDelay)
		}

		resp, err = c.client.Do(req)
		if !retriable(resp, err) {
			return resp, err
		}

		// A consumed body without GetBody cannot be rebuilt; resending it
		// would deliver an empty request. Hand back the failure instead.
		if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
			return resp, err
		}

		if resp != nil {
			if after := retryAfter(resp); after > 0 {
				delay = min(after, c.config.MaxDelay)
			}
			_ = resp.Body.Close()
		}
	}

	return resp, err
}

// Transport adapts a RetryClient to http.RoundTripper so retry policy can
// sit underneath header-injecting wrappers such as oauth2's transport.
type Transport struct {
	Retry *RetryClient
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.Retry.Do(req)
}

func waitWithContext(req *http.Request, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-req.Context().Done():
		return req.Context().Err()
	case <-timer.C:
		return nil
	}
}

// retriable reports whether the attempt failed in a way another attempt
// could fix. Transport errors arrive wrapped in *url.Error, so the checks
// go through errors.As rather than direct type assertions.
func retriable(resp *http.Response, err error) bool {
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return true
		}
		var opErr *net.OpError
		if errors.As(err, &opErr) {
			return true
		}
		var dnsErr *net.DNSError
		return errors.As(err, &dnsErr)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return true
	}

	return resp.StatusCode >= 500 && resp.StatusCode < 600
}

func retryAfter(resp *http.Response) time.Duration {
	if resp.StatusCode != http.StatusTooManyRequests {
		return 0
	}
	seconds, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func jitter(delay time.Duration) time.Duration {
	factor := 0.9 + rand.Float64()*0.2
	return time.Duration(float64(delay) * factor)
}
