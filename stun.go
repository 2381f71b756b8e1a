package ddns

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/pion/stun"
)

const defaultSTUNPort = "3478"

// stunEndpoint asks a STUN server for our server-reflexive address.
type stunEndpoint struct {
	addr    string
	timeout time.Duration
}

func newSTUNEndpoint(u *url.URL) *stunEndpoint {
	addr := u.Host
	if addr == "" {
		addr = u.Opaque
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, defaultSTUNPort)
	}
	return &stunEndpoint{addr: addr, timeout: DefaultTimeout}
}

func (e *stunEndpoint) String() string {
	return "stun://" + e.addr
}

func (e *stunEndpoint) Lookup(ctx context.Context) (string, error) {
	timeout := e.timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		ip  string
		err error
	}
	done := make(chan result, 1)
	go func() {
		var r result
		defer func() { done <- r }()

		// udp gives us the IPv4 mapping on most hosts
		c, err := stun.Dial("udp", e.addr)
		if err != nil {
			r.err = fmt.Errorf("error dialing STUN server: %w", err)
			return
		}
		defer c.Close()
		// closing the client aborts a pending transaction
		stop := context.AfterFunc(ctx, func() { c.Close() })
		defer stop()

		message := stun.MustBuild(stun.TransactionID, stun.BindingRequest)
		err = c.Do(message, func(res stun.Event) {
			if res.Error != nil {
				r.err = res.Error
				return
			}
			var xorAddr stun.XORMappedAddress
			if err := xorAddr.GetFrom(res.Message); err != nil {
				r.err = fmt.Errorf("error decoding XOR-MAPPED-ADDRESS: %w", err)
				return
			}
			r.ip = xorAddr.IP.String()
		})
		if err != nil && r.err == nil {
			r.err = fmt.Errorf("STUN request failed: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.ip, r.err
	}
}
