package config

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"proxycheck/internal/domain"
	"proxycheck/internal/support"
	"proxycheck/internal/support/reputation"
)

const (
	EnvProxy         = "CRAWL_PROXY"
	EnvTarget        = "PROXYCHECK_TARGET"
	EnvTimeoutMs     = "PROXYCHECK_TIMEOUT_MS"
	EnvIntervalMs    = "PROXYCHECK_INTERVAL_MS"
	EnvCompareDirect = "PROXYCHECK_COMPARE_DIRECT"
	EnvCountryDB     = "GEOLITE_COUNTRY_DB"
	EnvASNDB         = "GEOLITE_ASN_DB"
)

type Config struct {
	Proxy     string `yaml:"proxy"`
	Target    string `yaml:"target"`
	Count     int    `yaml:"count"`
	UserAgent string `yaml:"user_agent"`

	Timeout  Timer `yaml:"timeout"`
	Interval Timer `yaml:"interval"`

	CompareDirect bool   `yaml:"compare_direct"`
	IpLookup      string `yaml:"ip_lookup"`

	BlockedTargets []string `yaml:"blocked_targets"`

	GeoLite struct {
		CountryDB string `yaml:"country_db"`
		ASNDB     string `yaml:"asn_db"`
	} `yaml:"geolite"`

	Report ReportConfig `yaml:"report"`

	// nil keeps the scorer's built-in weights
	ScoreWeights *reputation.Weights `yaml:"score_weights"`
}

type ReportConfig struct {
	TraceFirst int    `yaml:"trace_first"`
	TraceEvery int    `yaml:"trace_every"`
	JSONPath   string `yaml:"json_path"`
}

//go:embed default_settings.yaml
var defaultConfig []byte

func Default() Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultConfig, &cfg); err != nil {
		// the embedded file is part of the binary; failing here is a build defect
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// ReadSettings returns the embedded defaults overlaid with the YAML file at path.
// An empty path yields the defaults.
func ReadSettings(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, &domain.ConfigError{Field: "config", Reason: fmt.Sprintf("cannot read %s", path), Err: err}
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &domain.ConfigError{Field: "config", Reason: fmt.Sprintf("cannot parse %s", path), Err: err}
	}

	log.Debug("Settings file loaded", "path", path)
	return cfg, nil
}

// ApplyEnv overrides settings from the process environment.
func (cfg *Config) ApplyEnv() {
	cfg.Proxy = support.GetEnv(EnvProxy, cfg.Proxy)
	cfg.Target = support.GetEnv(EnvTarget, cfg.Target)
	cfg.CompareDirect = support.GetEnvBool(EnvCompareDirect, cfg.CompareDirect)
	cfg.GeoLite.CountryDB = support.GetEnv(EnvCountryDB, cfg.GeoLite.CountryDB)
	cfg.GeoLite.ASNDB = support.GetEnv(EnvASNDB, cfg.GeoLite.ASNDB)

	if ms := support.GetEnvInt(EnvTimeoutMs, -1); ms > 0 {
		cfg.Timeout = TimerFromDuration(time.Duration(ms) * time.Millisecond)
	}
	if ms := support.GetEnvInt(EnvIntervalMs, -1); ms >= 0 {
		cfg.Interval = TimerFromDuration(time.Duration(ms) * time.Millisecond)
	}
}

// ProbeConfig validates the settings and freezes them into a domain.ProbeConfig.
func (cfg Config) ProbeConfig() (domain.ProbeConfig, error) {
	proxy, err := domain.ParseProxy(cfg.Proxy)
	if err != nil {
		return domain.ProbeConfig{}, err
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = domain.DefaultUserAgent
	}

	probeCfg := domain.ProbeConfig{
		Proxy:        proxy,
		TargetURL:    strings.TrimSpace(cfg.Target),
		RequestCount: cfg.Count,
		Timeout:      CalculateDuration(cfg.Timeout),
		Interval:     CalculateDuration(cfg.Interval),
		UserAgent:    userAgent,
	}

	if err := errors.Join(probeCfg.Validate(), cfg.validateURLs(probeCfg.TargetURL), cfg.validateScoreWeights()); err != nil {
		return domain.ProbeConfig{}, err
	}

	return probeCfg, nil
}

func (cfg Config) validateURLs(target string) error {
	blocked := NewTargetBlocklistSet(cfg.BlockedTargets)

	var errs []error
	if target != "" {
		if err := validateHTTPURL("target", target); err != nil {
			errs = append(errs, err)
		} else if IsTargetBlocked(target, blocked) {
			errs = append(errs, &domain.ConfigError{Field: "target", Reason: fmt.Sprintf("target website is blocked: %s", target)})
		}
	}

	if cfg.CompareDirect {
		if err := validateHTTPURL("ip_lookup", cfg.IpLookup); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (cfg Config) validateScoreWeights() error {
	w := cfg.ScoreWeights
	if w == nil {
		return nil
	}

	if w.Uptime < 0 || w.Recency < 0 || w.Latency < 0 || w.Anonymity < 0 || w.Failures < 0 {
		return &domain.ConfigError{Field: "score_weights", Reason: "weights must not be negative"}
	}
	return nil
}

func validateHTTPURL(field, raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return &domain.ConfigError{Field: field, Reason: "malformed url", Err: err}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return &domain.ConfigError{Field: field, Reason: fmt.Sprintf("unsupported url scheme %q", parsed.Scheme)}
	}
	if parsed.Host == "" {
		return &domain.ConfigError{Field: field, Reason: "url host is missing"}
	}
	return nil
}
