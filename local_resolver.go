package ddns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
)

// ifaceEndpoint reports the first global unicast address of a local interface.
// An empty name searches all interfaces.
type ifaceEndpoint struct {
	name string
}

func (e ifaceEndpoint) String() string {
	return "iface://" + e.name
}

func (e ifaceEndpoint) Lookup(ctx context.Context) (string, error) {
	addrs, err := e.addrs()
	if err != nil {
		return "", err
	}
	// addr: ip+net:192.168.86.253/24
	// addr: ip+net:fd64:9f44:fc30:0:b951:8b16:2812:a227/64
	// addr: ip+net:fe80::2cc9:801b:3551:9a43/64
	var parseErrors []error
	for _, addr := range addrs {
		ip, err := netip.ParsePrefix(addr.String())
		if err != nil {
			parseErrors = append(parseErrors, fmt.Errorf("error parsing local ip %s: %s", addr.String(), err))
			continue
		}
		if ip.Addr().IsGlobalUnicast() {
			return ip.Addr().String(), nil
		}
	}
	if err := errors.Join(parseErrors...); err != nil {
		return "", err
	}
	return "", errors.New("no global unicast address found")
}

func (e ifaceEndpoint) addrs() ([]net.Addr, error) {
	if e.name == "" {
		addrs, err := net.InterfaceAddrs()
		if err != nil {
			return nil, fmt.Errorf("error getting addresses for interfaces: %w", err)
		}
		return addrs, nil
	}
	iface, err := net.InterfaceByName(e.name)
	if err != nil {
		return nil, fmt.Errorf("error getting interface %s by name: %w", e.name, err)
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return nil, fmt.Errorf("error looking up addresses for interface %s: %w", e.name, err)
	}
	return addrs, nil
}
