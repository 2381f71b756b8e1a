package ddns

import (
	"fmt"
	"strings"
)

// Param is one provider parameter given as "key=value".
//
// The recognized forms are:
//
//	host=<host>:<domain>
//	key=<api_key>:<domain>
//	url=<update url>
type Param interface {
	param()
}

// HostParam names a record to keep updated.
type HostParam struct {
	Host   string
	Domain string
}

// KeyParam holds the API key used for every host in Domain.
type KeyParam struct {
	Key    string
	Domain string
}

// URLParam overrides the provider endpoint. Its value is opaque.
type URLParam string

func (HostParam) param() {}
func (KeyParam) param()  {}
func (URLParam) param()  {}

func (p HostParam) String() string { return fmt.Sprintf("host=%s:%s", p.Host, p.Domain) }
func (p KeyParam) String() string  { return fmt.Sprintf("key=<redacted>:%s", p.Domain) }
func (p URLParam) String() string  { return "url=" + string(p) }

// InvalidParamFormatError is returned for parameters that are not "key=value"
// or whose value lacks the expected sub-fields.
type InvalidParamFormatError struct {
	Raw string
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("invalid parameter format: %q", e.Raw)
}

// UnknownParamError is returned for a parameter key that is not recognized.
type UnknownParamError struct {
	Name string
}

func (e *UnknownParamError) Error() string {
	return fmt.Sprintf("unknown parameter: %q", e.Name)
}

// ParseParam parses a single provider parameter.
func ParseParam(s string) (Param, error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok {
		return nil, &InvalidParamFormatError{Raw: s}
	}
	switch name {
	case "host":
		host, domain, ok := strings.Cut(value, ":")
		if !ok {
			return nil, &InvalidParamFormatError{Raw: s}
		}
		return HostParam{Host: host, Domain: domain}, nil
	case "key":
		// the key is opaque and may contain colons; domains cannot
		i := strings.LastIndex(value, ":")
		if i < 0 {
			return nil, &InvalidParamFormatError{Raw: s}
		}
		return KeyParam{Key: value[:i], Domain: value[i+1:]}, nil
	case "url":
		return URLParam(value), nil
	default:
		return nil, &UnknownParamError{Name: name}
	}
}

// Params is an ordered list of provider parameters.
type Params []Param

// ParseParams parses every string, stopping at the first error.
func ParseParams(raw []string) (Params, error) {
	params := make(Params, 0, len(raw))
	for _, r := range raw {
		p, err := ParseParam(r)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}
	return params, nil
}

// Profiles pairs every host parameter with the key parameter for its domain.
// When a domain is given more than one key the last one wins.
func (ps Params) Profiles() ([]Profile, error) {
	keys := map[string]string{}
	for _, p := range ps {
		if k, ok := p.(KeyParam); ok {
			keys[k.Domain] = k.Key
		}
	}
	var profiles []Profile
	for _, p := range ps {
		h, ok := p.(HostParam)
		if !ok {
			continue
		}
		key, found := keys[h.Domain]
		if !found {
			return nil, fmt.Errorf("host %s:%s: %w", h.Host, h.Domain, &MissingArgError{Field: "api_key"})
		}
		profiles = append(profiles, Profile{Host: h.Host, Domain: h.Domain, APIKey: key})
	}
	return profiles, nil
}

// URL returns the last url parameter.
func (ps Params) URL() (string, bool) {
	var u string
	var found bool
	for _, p := range ps {
		if v, ok := p.(URLParam); ok {
			u, found = string(v), true
		}
	}
	return u, found
}
