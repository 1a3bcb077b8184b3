package geolite

import (
	"context"
	"fmt"
	"net"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/oschwald/geoip2-golang"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"proxycheck/internal/domain"
)

const (
	enrichWorkerLimit = 8
	dnsCacheTTL       = 12 * time.Hour
	dnsLookupTimeout  = 3 * time.Second
)

var (
	datacenterRegex     = regexp.MustCompile(`(?i)(amazon|google|microsoft|digitalocean|linode|hetzner|ovh|vultr|ibm|alibaba|tencent|cloudflare|rackspace|hostinger|upcloud|azure|gcp|aws)`)
	residentialKeywords = regexp.MustCompile(`(?i)(dyn|pool|dsl|cust|res|ip|adsl|ppp|user|mobile|static|dhcp)`)
	ispKeywords         = regexp.MustCompile(`(?i)(isp|broadband|telecom|communications|networks|carrier)`)
)

type dnsCacheEntry struct {
	names   []string
	expires time.Time
}

// countryReader and asnReader are the parts of *geoip2.Reader the enricher uses.
type countryReader interface {
	Country(ip net.IP) (*geoip2.Country, error)
	Close() error
}

type asnReader interface {
	ASN(ip net.IP) (*geoip2.ASN, error)
	Close() error
}

// Enricher annotates origin IPs with country and estimated network type from
// GeoLite2 databases. A nil database disables the matching annotation.
type Enricher struct {
	countryDB countryReader
	asnDB     asnReader

	lookupAddr     func(ctx context.Context, addr string) ([]string, error)
	dnsCache       sync.Map
	dnsLookupGroup singleflight.Group
}

// Open loads the databases at the given paths. Empty paths are skipped.
func Open(countryPath, asnPath string) (*Enricher, error) {
	enricher := &Enricher{
		lookupAddr: net.DefaultResolver.LookupAddr,
	}

	if countryPath != "" {
		db, err := geoip2.Open(countryPath)
		if err != nil {
			return nil, &domain.ConfigError{Field: "geolite.country_db", Reason: fmt.Sprintf("cannot open %s", countryPath), Err: err}
		}
		enricher.countryDB = db
	}

	if asnPath != "" {
		db, err := geoip2.Open(asnPath)
		if err != nil {
			enricher.Close()
			return nil, &domain.ConfigError{Field: "geolite.asn_db", Reason: fmt.Sprintf("cannot open %s", asnPath), Err: err}
		}
		enricher.asnDB = db
	}

	return enricher, nil
}

func (e *Enricher) Enabled() bool {
	return e != nil && (e.countryDB != nil || e.asnDB != nil)
}

func (e *Enricher) Close() {
	if e.countryDB != nil {
		if err := e.countryDB.Close(); err != nil {
			log.Warn("error closing geolite country database", "error", err)
		}
		e.countryDB = nil
	}
	if e.asnDB != nil {
		if err := e.asnDB.Close(); err != nil {
			log.Warn("error closing geolite asn database", "error", err)
		}
		e.asnDB = nil
	}
}

// Enrich fills Country and EstimatedType of every entry in place.
func (e *Enricher) Enrich(ctx context.Context, distribution []domain.IPCount) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichWorkerLimit)

	for i := range distribution {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			ip := distribution[i].IP
			distribution[i].Country = e.GetCountryCode(ip)
			distribution[i].EstimatedType = e.DetermineIPType(gctx, ip)
			return nil
		})
	}

	return g.Wait()
}

func (e *Enricher) GetCountryCode(ipAddress string) string {
	if e.countryDB == nil {
		return "N/A"
	}

	ip := net.ParseIP(ipAddress)
	if ip == nil {
		return "N/A"
	}

	record, err := e.countryDB.Country(ip)
	if err != nil || record.Country.IsoCode == "" {
		return "N/A"
	}

	return record.Country.IsoCode
}

func (e *Enricher) DetermineIPType(ctx context.Context, ipAddress string) string {
	if e.asnDB == nil {
		return "unknown"
	}

	ip := net.ParseIP(ipAddress)
	if ip == nil {
		return "unknown"
	}

	// Check cached reverse DNS results
	for _, name := range e.getCachedDNS(ctx, ipAddress) {
		if residentialKeywords.MatchString(name) {
			return "Residential"
		}
	}

	asnRecord, err := e.asnDB.ASN(ip)
	if err != nil {
		return "unknown"
	}

	return classifyOrganization(asnRecord.AutonomousSystemOrganization)
}

func classifyOrganization(organization string) string {
	org := strings.ToLower(organization)

	if datacenterRegex.MatchString(org) {
		return "Datacenter"
	}

	if ispKeywords.MatchString(org) {
		return "ISP"
	}

	if strings.Contains(org, "customer") || strings.Contains(org, "residential") {
		return "Residential"
	}

	return "N/A"
}

func (e *Enricher) getCachedDNS(ctx context.Context, ip string) []string {
	now := time.Now()
	if entry, ok := e.dnsCache.Load(ip); ok {
		cachedEntry := entry.(dnsCacheEntry)
		if now.Before(cachedEntry.expires) {
			return cachedEntry.names
		}
	}

	result, _, _ := e.dnsLookupGroup.Do(ip, func() (interface{}, error) {
		lookupCtx, cancel := context.WithTimeout(ctx, dnsLookupTimeout)
		defer cancel()

		names, err := e.lookupAddr(lookupCtx, ip)
		if err != nil {
			return []string{}, nil // Cache failures as empty results
		}
		return names, nil
	})

	names := result.([]string)
	e.dnsCache.Store(ip, dnsCacheEntry{
		names:   names,
		expires: now.Add(dnsCacheTTL),
	})
	return names
}
