package ddns

import (
	"fmt"
	"strings"
)

// Profile is one DNS record that should follow the public IP.
type Profile struct {
	Host   string
	Domain string
	APIKey string
}

// Name returns the fully qualified record name.
// An empty host or "@" names the domain apex.
func (p Profile) Name() string {
	if p.Host == "" || p.Host == "@" {
		return p.Domain
	}
	return p.Host + "." + p.Domain
}

// String omits the API key so profiles can be logged.
func (p Profile) String() string {
	return p.Name()
}

// MissingArgError reports a required profile field that was not supplied.
type MissingArgError struct {
	Field string
}

func (e *MissingArgError) Error() string {
	return fmt.Sprintf("missing required argument: %s", e.Field)
}

// ParseProfile parses a token of the form "<prefix>:<host>:<domain>:<api_key>".
//
// The first segment is ignored.
// Segments may be empty, but each of host, domain and api_key must be present;
// the first one that is absent is reported as a *MissingArgError.
// Segments after api_key are ignored.
func ParseProfile(raw string) (Profile, error) {
	fields := strings.Split(raw, ":")[1:]

	var p Profile
	for i, f := range []struct {
		name string
		dst  *string
	}{
		{"host", &p.Host},
		{"domain", &p.Domain},
		{"api_key", &p.APIKey},
	} {
		if i >= len(fields) {
			return Profile{}, &MissingArgError{Field: f.name}
		}
		*f.dst = fields[i]
	}
	return p, nil
}

// ParseProfiles parses every token and fails on the first one that does not parse.
// No partial result is returned.
func ParseProfiles(raw []string) ([]Profile, error) {
	profiles := make([]Profile, 0, len(raw))
	for i, r := range raw {
		p, err := ParseProfile(r)
		if err != nil {
			return nil, fmt.Errorf("profile %d: %w", i+1, err)
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}
