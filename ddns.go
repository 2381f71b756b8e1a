package ddns

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
)

// DefaultInterval is the time between discovery rounds unless WithInterval or WithSchedule is used.
const DefaultInterval = 5 * time.Minute

// New constructs a Daemon that keeps profiles pointed at the public IP.
//
// A resolver is required (see UsingWebResolver).
// Without an updater the daemon only reports the address it discovered.
func New(profiles []Profile, options ...Option) (*Daemon, error) {
	d := &Daemon{
		profiles: append([]Profile(nil), profiles...),
		schedule: cron.Every(DefaultInterval),
		logger:   logr.Discard(),
	}
	for i, opt := range options {
		if err := opt(d); err != nil {
			return nil, fmt.Errorf("ddns.New: option %d returned an error: %w", i, err)
		}
	}

	if d.Resolver == nil {
		return nil, errors.New("ddns.New: no resolver was registered and there is no default - use ddns.UsingWebResolver or similar")
	}

	// dependencies are configured last so the order of options does not matter
	d.configureDependencies()
	return d, nil
}

// Option configures a Daemon.
type Option func(*Daemon) error

// UsingResolver sets the source of the public IP.
func UsingResolver(resolver Resolver) Option {
	return func(d *Daemon) error {
		if resolver == nil {
			return errors.New("ddns.UsingResolver: resolver cannot be nil")
		}
		d.Resolver = resolver
		return nil
	}
}

// UsingWebResolver is shorthand for UsingResolver(WebResolver(serviceURL...)).
func UsingWebResolver(serviceURL ...string) Option {
	return func(d *Daemon) error {
		r, err := WebResolver(serviceURL...)
		if err != nil {
			return fmt.Errorf("ddns.UsingWebResolver: %w", err)
		}
		d.Resolver = r
		return nil
	}
}

// UsingUpdater sets the DNS provider integration.
func UsingUpdater(updater Updater) Option {
	return func(d *Daemon) error {
		d.Updater = updater
		return nil
	}
}

// UsingCloudflare updates records through the Cloudflare API,
// using each profile's API key as the API token.
func UsingCloudflare() Option {
	return func(d *Daemon) error {
		d.Updater = newCloudflareUpdater()
		return nil
	}
}

// UsingWebhook updates records by calling rawURL with the
// host, domain, key and ip query parameters.
func UsingWebhook(rawURL string) Option {
	return func(d *Daemon) (err error) {
		if d.Updater, err = newWebhookUpdater(rawURL); err != nil {
			return fmt.Errorf("ddns.UsingWebhook: %w", err)
		}
		return nil
	}
}

// UsingHTTPClient sets the client used by the resolver and the updater.
func UsingHTTPClient(httpclient *http.Client) Option {
	return func(d *Daemon) error {
		d.httpClient = httpclient
		return nil
	}
}

// WithTimeout limits each endpoint lookup.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Daemon) error {
		d.timeout = timeout
		return nil
	}
}

// WithLogger sets the logger passed to the resolver and the updater.
func WithLogger(logger logr.Logger) Option {
	return func(d *Daemon) error {
		d.logger = logger
		return nil
	}
}

// WithMetrics records discovery and update results in m.
func WithMetrics(m *Metrics) Option {
	return func(d *Daemon) error {
		d.metrics = m
		return nil
	}
}

// MinInterval is the shortest interval WithInterval will schedule.
const MinInterval = 1 * time.Minute

// WithInterval runs a round every interval.
// Intervals must be positive; intervals below MinInterval are raised to MinInterval.
func WithInterval(interval time.Duration) Option {
	return func(d *Daemon) error {
		if interval <= 0 {
			return fmt.Errorf("ddns.WithInterval: interval must be positive; got %s", interval)
		}
		if interval < MinInterval {
			interval = MinInterval
		}
		d.schedule = cron.Every(interval)
		return nil
	}
}

// WithSchedule runs rounds on a cron schedule, e.g. "*/10 * * * *" or "@every 90s".
func WithSchedule(spec string) Option {
	return func(d *Daemon) error {
		s, err := cron.ParseStandard(spec)
		if err != nil {
			return fmt.Errorf("ddns.WithSchedule: invalid schedule %q: %w", spec, err)
		}
		d.schedule = s
		return nil
	}
}

// UsingSchedule runs rounds whenever s activates.
func UsingSchedule(s cron.Schedule) Option {
	return func(d *Daemon) error {
		if s == nil {
			return errors.New("ddns.UsingSchedule: schedule cannot be nil")
		}
		d.schedule = s
		return nil
	}
}

// KeepRunningOnDiscoveryFailure makes Run log a round where every endpoint failed
// and wait for the next activation, instead of returning the error.
func KeepRunningOnDiscoveryFailure() Option {
	return func(d *Daemon) error {
		d.keepGoing = true
		return nil
	}
}

func (d *Daemon) configureDependencies() {
	type setLogger interface {
		SetLogger(logr.Logger)
	}
	type setHTTPClient interface {
		SetHTTPClient(*http.Client)
	}
	type setMetrics interface {
		SetMetrics(*Metrics)
	}
	type setTimeout interface {
		SetTimeout(time.Duration)
	}

	if r, ok := d.Resolver.(setLogger); ok {
		r.SetLogger(d.logger.WithName("resolver"))
	}
	if u, ok := d.Updater.(setLogger); ok {
		u.SetLogger(d.logger.WithName("updater"))
	}
	if r, ok := d.Resolver.(setMetrics); ok && d.metrics != nil {
		r.SetMetrics(d.metrics)
	}
	if r, ok := d.Resolver.(setTimeout); ok && d.timeout != 0 {
		r.SetTimeout(d.timeout)
	}
	if d.httpClient != nil {
		if r, ok := d.Resolver.(setHTTPClient); ok {
			r.SetHTTPClient(d.httpClient)
		}
		if u, ok := d.Updater.(setHTTPClient); ok {
			u.SetHTTPClient(d.httpClient)
		}
	}
}

// Daemon discovers the public IP on a schedule and updates every profile with it.
type Daemon struct {
	Resolver
	Updater
	profiles      []Profile
	schedule      cron.Schedule
	logger        logr.Logger
	metrics       *Metrics
	httpClient    *http.Client
	timeout       time.Duration
	keepGoing     bool
}

// RunOnce performs a single round.
//
// Profiles are updated one after another.
// A failed update does not stop the others; all update failures are returned together.
func (d *Daemon) RunOnce(ctx context.Context) error {
	ip, err := d.discover(ctx)
	if err != nil {
		return err
	}
	return d.updateAll(ctx, ip)
}

func (d *Daemon) discover(ctx context.Context) (string, error) {
	ip, err := d.Resolve(ctx)
	d.metrics.discoveryRound(err, time.Now())
	if err != nil {
		return "", fmt.Errorf("error getting public IP: %w", err)
	}
	d.logger.V(1).Info("discovered public IP", "ip", ip)
	return ip, nil
}

func (d *Daemon) updateAll(ctx context.Context, ip string) error {
	var errs error
	for _, p := range d.profiles {
		d.logger.Info("public IP", "profile", p.String(), "ip", ip)
		if d.Updater == nil {
			continue
		}
		err := d.Update(ctx, p, ip)
		d.metrics.profileUpdate(err)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("error updating %s: %w", p, err))
		}
	}
	return errs
}

// Run performs a round immediately and then one each time the schedule activates.
//
// When the public IP could not be discovered Run returns the error,
// unless KeepRunningOnDiscoveryFailure was given, in which case the failure is logged
// and retried on the next activation.
// Update failures are logged and never stop the loop.
// Run returns nil once ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		ip, err := d.discover(ctx)
		switch {
		case ctx.Err() != nil:
			return nil
		case err != nil && !d.keepGoing:
			return err
		case err != nil:
			d.logger.Error(err, "discovery failed, waiting for the next round")
		default:
			for _, e := range multierr.Errors(d.updateAll(ctx, ip)) {
				d.logger.Error(e, "update failed")
			}
		}

		next := d.schedule.Next(time.Now())
		d.logger.V(1).Info("waiting for next round", "next", next)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}
	return nil
}

// RunDaemon starts d as a goroutine.
//
// If Run returns an error it is sent to the daemon's logger.
func RunDaemon(d *Daemon, ctx context.Context) {
	go func() {
		if err := d.Run(ctx); err != nil {
			d.logger.Error(err, "ddns.RunDaemon")
		}
	}()
}
