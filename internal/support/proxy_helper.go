package support

import (
	"net"
	"regexp"
	"strings"

	"proxycheck/internal/domain"
)

var ipRegex = regexp.MustCompile(
	`\b(?:[0-9]{1,3}\.){3}[0-9]{1,3}\b|` + // IPv4
		`\b(?:[A-Fa-f0-9]{1,4}:){7}[A-Fa-f0-9]{1,4}\b`, // IPv6
)

// FindIP identifies the first IP address (IPv4 or IPv6) in a given string.
func FindIP(input string) string {
	return ipRegex.FindString(input)
}

// FirstOrigin reduces an echoed origin such as "1.2.3.4, 5.6.7.8" to its first entry.
func FirstOrigin(origin string) string {
	first, _, _ := strings.Cut(origin, ",")
	first = strings.TrimSpace(first)
	if first == "" {
		return domain.UnknownOrigin
	}
	return first
}

// GetAnonymityLevel reports whether the proxy leaked the direct IP in any observed origin.
// An empty result means no classification is possible.
func GetAnonymityLevel(origins []string, directIP string) string {
	if directIP == "" || len(origins) == 0 {
		return ""
	}

	for _, origin := range origins {
		if SameIP(origin, directIP) {
			return domain.AnonymityTransparent
		}
	}

	return domain.AnonymityAnonymous
}

// SameIP compares two addresses by value, so "::1" equals "0:0:0:0:0:0:0:1".
// Unparseable input only matches an identical string.
func SameIP(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)

	ipA, ipB := net.ParseIP(a), net.ParseIP(b)
	if ipA == nil || ipB == nil {
		return a == b
	}
	return ipA.Equal(ipB)
}
