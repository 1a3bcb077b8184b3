package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"proxycheck/internal/app/version"
	"proxycheck/internal/config"
	"proxycheck/internal/domain"
	"proxycheck/internal/geolite"
	"proxycheck/internal/jobs/checker"
	"proxycheck/internal/report"
	"proxycheck/internal/support"
	"proxycheck/internal/support/reputation"
)

type options struct {
	configPath    string
	target        string
	timeout       time.Duration
	interval      time.Duration
	jsonPath      string
	compareDirect bool
	debug         bool
	showVersion   bool
}

// Run parses args, probes the configured proxy and writes the report to stdout.
// Configuration problems are returned as *domain.ConfigError before any request is sent.
func Run(args []string, stdout io.Writer) error {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found. Falling back to system environment variables.")
	}

	opts, positional, err := parseFlags(args)
	if err != nil {
		return err
	}

	if opts.showVersion {
		_, err := fmt.Fprintln(stdout, version.Get())
		return err
	}

	if opts.debug {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := loadConfig(opts, positional)
	if err != nil {
		return err
	}

	probeCfg, err := cfg.ProbeConfig()
	if err != nil {
		return err
	}

	enricher, err := geolite.Open(cfg.GeoLite.CountryDB, cfg.GeoLite.ASNDB)
	if err != nil {
		return err
	}
	defer enricher.Close()

	return probe(context.Background(), cfg, probeCfg, enricher, stdout)
}

func parseFlags(args []string) (options, []string, error) {
	var opts options

	flags := flag.NewFlagSet("proxycheck", flag.ContinueOnError)
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), "Usage: %s=<proxy-url> proxycheck [flags] [count]\n", config.EnvProxy)
		flags.PrintDefaults()
	}
	flags.StringVar(&opts.configPath, "config", "", "Path to a YAML settings file")
	flags.StringVar(&opts.target, "target", "", "IP echo endpoint to request through the proxy")
	flags.DurationVar(&opts.timeout, "timeout", 0, "Per-request timeout (e.g. 10s)")
	flags.DurationVar(&opts.interval, "interval", 0, "Minimum delay between request starts")
	flags.StringVar(&opts.jsonPath, "json", "", "Also write the summary as JSON to this path")
	flags.BoolVar(&opts.compareDirect, "compare-direct", false, "Look up the direct IP first and classify proxy anonymity")
	flags.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	flags.BoolVar(&opts.showVersion, "version", false, "Print version and exit")

	// flag stops at the first positional argument; resume after it so
	// "proxycheck 50 -debug" works like "proxycheck -debug 50"
	var positional []string
	for {
		if err := flags.Parse(args); err != nil {
			return opts, nil, &domain.ConfigError{Field: "flags", Err: err}
		}
		args = flags.Args()
		if len(args) == 0 {
			break
		}
		positional = append(positional, args[0])
		args = args[1:]
	}

	// flags explicitly set on the command line win over file and environment
	set := make(map[string]bool)
	flags.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if !set["timeout"] {
		opts.timeout = -1
	}
	if !set["interval"] {
		opts.interval = -1
	}

	return opts, positional, nil
}

func loadConfig(opts options, positional []string) (config.Config, error) {
	cfg, err := config.ReadSettings(opts.configPath)
	if err != nil {
		return cfg, err
	}
	cfg.ApplyEnv()

	if opts.target != "" {
		cfg.Target = opts.target
	}
	if opts.timeout >= 0 {
		cfg.Timeout = config.TimerFromDuration(opts.timeout)
	}
	if opts.interval >= 0 {
		cfg.Interval = config.TimerFromDuration(opts.interval)
	}
	if opts.jsonPath != "" {
		cfg.Report.JSONPath = opts.jsonPath
	}
	if opts.compareDirect {
		cfg.CompareDirect = true
	}

	if strings.TrimSpace(cfg.Proxy) == "" {
		return cfg, &domain.ConfigError{Field: "proxy", Reason: fmt.Sprintf("%s environment variable is not set", config.EnvProxy)}
	}

	if len(positional) > 1 {
		return cfg, &domain.ConfigError{Field: "count", Reason: fmt.Sprintf("unexpected arguments: %s", strings.Join(positional[1:], " "))}
	}
	if len(positional) == 1 {
		count, err := readCount(positional[0])
		if err != nil {
			return cfg, err
		}
		cfg.Count = count
	}

	return cfg, nil
}

func readCount(raw string) (int, error) {
	count, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || count <= 0 {
		return 0, &domain.ConfigError{
			Field:  "count",
			Reason: "Invalid number of requests. Please provide a positive integer.",
		}
	}
	return count, nil
}

func probe(ctx context.Context, cfg config.Config, probeCfg domain.ProbeConfig, enricher *geolite.Enricher, stdout io.Writer) error {
	// transport problems are configuration errors and must surface before any request
	attempter, err := checker.NewProxyAttempter(probeCfg)
	if err != nil {
		return err
	}
	defer attempter.Close()

	writer := report.NewWriter(stdout, cfg.Report.TraceFirst, cfg.Report.TraceEvery)
	writer.Header(probeCfg)

	var directIP string
	if cfg.CompareDirect {
		ip, err := checker.DefaultRequest(ctx, cfg.IpLookup, probeCfg.UserAgent, probeCfg.Timeout)
		if err != nil {
			log.Warn("Direct IP lookup failed, anonymity will not be classified", "lookup", cfg.IpLookup, "error", err)
		} else {
			directIP = ip
			log.Debug("Direct IP resolved", "ip", directIP)
		}
	}

	summary, err := checker.NewRunner(attempter, writer.Progress).Run(ctx, probeCfg)
	if err != nil {
		return err
	}

	summary.DirectIP = directIP
	summary.Anonymity = support.GetAnonymityLevel(checker.OriginIPs(summary), directIP)

	if enricher.Enabled() && len(summary.Distribution) > 0 {
		if err := enricher.Enrich(ctx, summary.Distribution); err != nil {
			log.Warn("GeoLite enrichment incomplete", "error", err)
		}
	}

	scored := reputation.Score(reputation.MetricsFromSummary(summary), cfg.ScoreWeights)
	summary.Score = scored.Score
	summary.ScoreLabel = scored.Label
	log.Debug("Stability score computed", "score", scored.Score, "signals", scored.Signals)

	writer.Summary(summary)

	if cfg.Report.JSONPath != "" {
		if err := report.WriteJSONFile(cfg.Report.JSONPath, summary); err != nil {
			return fmt.Errorf("write json report: %w", err)
		}
		log.Info("JSON report written", "path", cfg.Report.JSONPath)
	}

	return nil
}

// ExitCode maps a Run error to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case domain.IsConfigError(err):
		return 2
	default:
		return 1
	}
}
