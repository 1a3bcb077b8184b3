package checker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"proxycheck/internal/support"
)

type directLookupResponse struct {
	Origin string `json:"origin"`
	IP     string `json:"ip"`
}

// DefaultRequest looks up the caller's own IP at lookupURL without any proxy,
// ignoring HTTP_PROXY style environment settings.
func DefaultRequest(ctx context.Context, lookupURL, userAgent string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	transport := &http.Transport{
		Proxy:             nil,
		DialContext:       (&net.Dialer{Timeout: timeout}).DialContext,
		DisableKeepAlives: true,
	}
	defer transport.CloseIdleConnections()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return "", err
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := (&http.Client{Transport: transport}).Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyLength))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("http status %d", resp.StatusCode)
	}

	return extractDirectIP(body)
}

func extractDirectIP(body []byte) (string, error) {
	var parsed directLookupResponse
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Origin != "" {
			first, _, _ := strings.Cut(parsed.Origin, ",")
			return strings.TrimSpace(first), nil
		}
		if parsed.IP != "" {
			return strings.TrimSpace(parsed.IP), nil
		}
	}

	// plain-text echo services such as api.ipify.org
	if ip := support.FindIP(string(body)); ip != "" {
		return ip, nil
	}

	return "", errors.New("no ip address in lookup response")
}
