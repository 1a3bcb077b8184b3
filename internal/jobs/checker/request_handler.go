package checker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/proxy"

	"proxycheck/internal/domain"
	"proxycheck/internal/support"
)

const maxResponseBodyLength = 1 << 20

// Attempter performs a single probe attempt. Failures are returned as data on the outcome.
type Attempter interface {
	Attempt(ctx context.Context, attempt int) domain.Outcome
}

type judgeResponse struct {
	Origin *string `json:"origin"`
}

// CreateTransport routes both http and https traffic through proxyToUse.
// Keep-alives are disabled so every attempt opens a fresh connection through the proxy.
func CreateTransport(proxyToUse domain.Proxy, timeout time.Duration) (*http.Transport, error) {
	dialer := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: -1,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		DisableKeepAlives:     true,
		MaxIdleConns:          0,
		MaxIdleConnsPerHost:   0,
		IdleConnTimeout:       0,
		TLSHandshakeTimeout:   timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	switch proxyToUse.Scheme {
	case domain.SchemeHTTP, domain.SchemeHTTPS:
		transport.Proxy = http.ProxyURL(proxyToUse.URL())

	case domain.SchemeSOCKS5, domain.SchemeSOCKS5H:
		var auth *proxy.Auth
		if proxyToUse.Username != "" {
			auth = &proxy.Auth{User: proxyToUse.Username, Password: proxyToUse.Password}
		}
		socksDialer, err := proxy.SOCKS5("tcp", proxyToUse.GetFullProxy(), auth, dialer)
		if err != nil {
			return nil, &domain.ConfigError{Field: "proxy", Reason: "cannot build socks5 dialer", Err: err}
		}
		contextDialer, ok := socksDialer.(proxy.ContextDialer)
		if !ok {
			return nil, &domain.ConfigError{Field: "proxy", Reason: "socks5 dialer does not support contexts"}
		}
		transport.DialContext = contextDialer.DialContext

	default:
		return nil, &domain.ConfigError{Field: "proxy", Reason: fmt.Sprintf("unsupported proxy scheme %q", proxyToUse.Scheme)}
	}

	return transport, nil
}

type ProxyAttempter struct {
	cfg       domain.ProbeConfig
	client    *http.Client
	transport *http.Transport
}

// NewProxyAttempter returns an Attempter that sends cfg's request through cfg.Proxy.
// Close releases the transport once the run is over.
func NewProxyAttempter(cfg domain.ProbeConfig) (*ProxyAttempter, error) {
	transport, err := CreateTransport(cfg.Proxy, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	return &ProxyAttempter{
		cfg:       cfg,
		transport: transport,
		client:    &http.Client{Transport: transport},
	}, nil
}

func (a *ProxyAttempter) Attempt(ctx context.Context, attempt int) domain.Outcome {
	start := time.Now()
	originIP, attemptErr := ProxyCheckRequest(ctx, a.client, a.cfg.TargetURL, a.cfg.UserAgent, a.cfg.Timeout)
	latency := time.Since(start)

	if attemptErr != nil {
		return domain.Failure(attempt, attemptErr, latency)
	}
	return domain.Success(attempt, originIP, latency)
}

func (a *ProxyAttempter) Close() {
	a.transport.CloseIdleConnections()
}

// ProxyCheckRequest fetches targetURL with client and returns the echoed origin IP.
func ProxyCheckRequest(ctx context.Context, client *http.Client, targetURL, userAgent string, timeout time.Duration) (string, *domain.AttemptError) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return "", &domain.AttemptError{Kind: domain.AttemptConnection, Err: err}
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	req.Header.Set("Connection", "close")

	resp, err := client.Do(req)
	if err != nil {
		return "", classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBodyLength))
		return "", &domain.AttemptError{Kind: domain.AttemptStatus, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyLength))
	if err != nil {
		return "", classifyError(err)
	}

	originIP, err := parseOrigin(body)
	if err != nil {
		return "", &domain.AttemptError{Kind: domain.AttemptBody, Err: err}
	}

	return originIP, nil
}

func parseOrigin(body []byte) (string, error) {
	var parsed judgeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", err
	}
	if parsed.Origin == nil {
		return domain.UnknownOrigin, nil
	}
	return support.FirstOrigin(*parsed.Origin), nil
}

func classifyError(err error) *domain.AttemptError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.AttemptError{Kind: domain.AttemptTimeout, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &domain.AttemptError{Kind: domain.AttemptTimeout, Err: err}
	}

	return &domain.AttemptError{Kind: domain.AttemptConnection, Err: err}
}
