package domain

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

const (
	SchemeHTTP    = "http"
	SchemeHTTPS   = "https"
	SchemeSOCKS5  = "socks5"
	SchemeSOCKS5H = "socks5h"
)

// Proxy is a parsed proxy endpoint. Credentials only come from the URL userinfo.
type Proxy struct {
	Scheme   string
	Host     string
	Port     uint16
	Username string
	Password string
}

func ParseProxy(raw string) (Proxy, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Proxy{}, &ConfigError{Field: "proxy", Reason: "proxy endpoint is empty"}
	}

	// "host:port" without a scheme is treated as a plain HTTP proxy
	if !strings.Contains(raw, "://") {
		raw = SchemeHTTP + "://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return Proxy{}, &ConfigError{Field: "proxy", Reason: "malformed proxy url", Err: err}
	}

	scheme := strings.ToLower(parsed.Scheme)
	switch scheme {
	case SchemeHTTP, SchemeHTTPS, SchemeSOCKS5, SchemeSOCKS5H:
	default:
		return Proxy{}, &ConfigError{Field: "proxy", Reason: fmt.Sprintf("unsupported proxy scheme %q", parsed.Scheme)}
	}

	host := parsed.Hostname()
	if host == "" {
		return Proxy{}, &ConfigError{Field: "proxy", Reason: "proxy host is missing"}
	}

	port := defaultPort(scheme)
	if rawPort := parsed.Port(); rawPort != "" {
		parsedPort, err := strconv.Atoi(rawPort)
		if err != nil || parsedPort < 1 || parsedPort > 65535 {
			return Proxy{}, &ConfigError{Field: "proxy", Reason: fmt.Sprintf("invalid proxy port %q", rawPort)}
		}
		port = uint16(parsedPort)
	}

	proxy := Proxy{
		Scheme: scheme,
		Host:   host,
		Port:   port,
	}
	if parsed.User != nil {
		proxy.Username = parsed.User.Username()
		proxy.Password, _ = parsed.User.Password()
	}

	return proxy, nil
}

func defaultPort(scheme string) uint16 {
	switch scheme {
	case SchemeHTTPS:
		return 443
	case SchemeSOCKS5, SchemeSOCKS5H:
		return 1080
	default:
		return 80
	}
}

func (proxy *Proxy) GetFullProxy() string {
	return net.JoinHostPort(proxy.Host, strconv.Itoa(int(proxy.Port)))
}

func (proxy *Proxy) HasAuth() bool {
	return proxy.Username != "" && proxy.Password != ""
}

func (proxy *Proxy) IsSOCKS() bool {
	return proxy.Scheme == SchemeSOCKS5 || proxy.Scheme == SchemeSOCKS5H
}

func (proxy *Proxy) URL() *url.URL {
	u := &url.URL{
		Scheme: proxy.Scheme,
		Host:   proxy.GetFullProxy(),
	}
	if proxy.Username != "" {
		if proxy.Password != "" {
			u.User = url.UserPassword(proxy.Username, proxy.Password)
		} else {
			u.User = url.User(proxy.Username)
		}
	}
	return u
}

// Redacted returns the proxy URL with the password masked, safe for logs and reports.
func (proxy *Proxy) Redacted() string {
	return proxy.URL().Redacted()
}
