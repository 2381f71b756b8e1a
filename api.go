package ddns

import (
	"context"
)

// Resolver discovers the public IP address of the host.
type Resolver interface {
	Resolve(context.Context) (string, error)
}

// Updater pushes a discovered address to the DNS provider that owns a profile's record.
type Updater interface {
	Update(ctx context.Context, p Profile, ip string) error
}

// ResolverFunc adapts an ordinary function to the Resolver interface.
type ResolverFunc func(context.Context) (string, error)

func (f ResolverFunc) Resolve(ctx context.Context) (string, error) {
	return f(ctx)
}

// UpdaterFunc adapts an ordinary function to the Updater interface.
type UpdaterFunc func(ctx context.Context, p Profile, ip string) error

func (f UpdaterFunc) Update(ctx context.Context, p Profile, ip string) error {
	return f(ctx, p, ip)
}
