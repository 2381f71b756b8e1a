package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	ddns "github.com/Travis-Britz/ddnsd"
)

// Config holds all configuration for ddnsd.
type Config struct {
	// Profile tokens, "<prefix>:<host>:<domain>:<api_key>"
	Profiles []string

	Endpoints []string
	Params    []string
	Provider  string
	KeyFile   string

	Interval      time.Duration
	Schedule      string
	Timeout       time.Duration
	IP            string
	MetricsAddr   string
	KeepGoing     bool
	Once          bool
	Verbose       bool
}

// stringList collects a repeatable flag.
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// LoadConfig parses args, falling back to the environment for endpoints.
// Flags take precedence over environment variables.
func LoadConfig(args []string, getenv func(string) string, output io.Writer) (Config, error) {
	cfg := Config{
		Interval: ddns.DefaultInterval,
		Timeout:  ddns.DefaultTimeout,
	}

	fs := flag.NewFlagSet("ddnsd", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Var((*stringList)(&cfg.Endpoints), "e", "Public IP endpoint URL, tried in the order given (repeatable)")
	fs.Var((*stringList)(&cfg.Params), "p", "Provider parameter: host=<host>:<domain>, key=<api_key>:<domain> or url=<update url> (repeatable)")
	fs.StringVar(&cfg.Provider, "provider", "", "DNS provider: cloudflare, webhook or log (default cloudflare, or webhook when a url= parameter is given)")
	fs.StringVar(&cfg.KeyFile, "k", "", "Path to a Cloudflare API token file for cloudflare profiles without a key, e.g. ~/.cloudflare")
	fs.DurationVar(&cfg.Interval, "i", cfg.Interval, fmt.Sprintf("Duration to wait between IP checks; values below %s are raised to %s", ddns.MinInterval, ddns.MinInterval))
	fs.StringVar(&cfg.Schedule, "schedule", "", "Cron schedule for IP checks, overrides -i")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Time limit for a single endpoint lookup")
	fs.StringVar(&cfg.IP, "ip", "", "IP address to set instead of discovering it")
	fs.StringVar(&cfg.MetricsAddr, "metrics", "", "Listen address for Prometheus metrics, e.g. :9090")
	fs.BoolVar(&cfg.KeepGoing, "keep-going", false, "Wait for the next round when every endpoint fails instead of exiting")
	fs.BoolVar(&cfg.Once, "once", false, "Run a single round and exit")
	fs.BoolVar(&cfg.Verbose, "v", false, "Enable verbose logging")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), `ddnsd - keeps DNS records pointed at the public IP

Usage:
  ddnsd [flags] [<prefix>:<host>:<domain>:<api_key> ...]

Environment Variables:
  DDNSD_ENDPOINTS  comma separated endpoint URLs, used when no -e flag is given

Flags:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.Profiles = fs.Args()

	if len(cfg.Endpoints) == 0 {
		for _, e := range strings.Split(getenv("DDNSD_ENDPOINTS"), ",") {
			if e = strings.TrimSpace(e); e != "" {
				cfg.Endpoints = append(cfg.Endpoints, e)
			}
		}
	}
	return cfg, nil
}

// Validate checks for configuration that can never work.
func (c Config) Validate() error {
	if len(c.Endpoints) == 0 && c.IP == "" {
		return errors.New("at least one endpoint is required (set DDNSD_ENDPOINTS or use -e)")
	}
	switch c.Provider {
	case "", "cloudflare", "webhook", "log":
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.Interval <= 0 && c.Schedule == "" {
		return errors.New("interval must be positive")
	}
	return nil
}
