package ddns

import (
	"context"
	"fmt"
	"net/http"
	"net/netip"
	"strings"

	"github.com/cloudflare/cloudflare-go"
	"github.com/go-logr/logr"
)

func newCloudflareUpdater() *cloudflareUpdater {
	return &cloudflareUpdater{
		apis:    map[string]*cloudflare.API{},
		comment: "managed by ddnsd",
	}
}

// cloudflareUpdater implements ddns.Updater.
//
// The profile's API key is used as a Cloudflare API token.
// Each distinct token gets its own API client.
type cloudflareUpdater struct {
	apis       map[string]*cloudflare.API
	httpClient *http.Client
	baseURL    string
	logger     logr.Logger
	comment    string // optional comment to attach to each new DNS entry
}

func (cf *cloudflareUpdater) SetLogger(logger logr.Logger) {
	cf.logger = logger
}

func (cf *cloudflareUpdater) SetHTTPClient(c *http.Client) {
	cf.httpClient = c
	for _, api := range cf.apis {
		cloudflare.HTTPClient(c)(api)
	}
}

func (cf *cloudflareUpdater) api(token string) (*cloudflare.API, error) {
	if api, ok := cf.apis[token]; ok {
		return api, nil
	}
	var opts []cloudflare.Option
	if cf.httpClient != nil {
		opts = append(opts, cloudflare.HTTPClient(cf.httpClient))
	}
	if cf.baseURL != "" {
		opts = append(opts, cloudflare.BaseURL(cf.baseURL))
	}
	api, err := cloudflare.NewWithAPIToken(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating cloudflare api client: %w", err)
	}
	cf.apis[token] = api
	return api, nil
}

// Update implements ddns.Updater.
//
// Records of the same type with a different address are deleted,
// and a record for ip is created unless one already exists.
func (cf *cloudflareUpdater) Update(ctx context.Context, p Profile, ip string) error {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return fmt.Errorf("error parsing IP address %q: %w", ip, err)
	}
	addr = addr.Unmap()
	api, err := cf.api(p.APIKey)
	if err != nil {
		return err
	}
	name := p.Name()

	zid, err := cf.getZoneIDFromDomain(ctx, api, name)
	if err != nil {
		return fmt.Errorf("unable to get zone ID for %s: %w", name, err)
	}
	cf.logger.V(1).Info("got zone ID", "zone", zid, "name", name)

	rtype := recordType(addr)
	records, _, err := api.ListDNSRecords(ctx, cloudflare.ZoneIdentifier(zid), cloudflare.ListDNSRecordsParams{
		Type: rtype,
		Name: name,
	})
	if err != nil {
		return fmt.Errorf("error listing %s records for %s: %w", rtype, name, err)
	}
	cf.logger.V(1).Info("found existing records", "name", name, "count", len(records))

	exists := false
	for _, r := range records {
		existing, err := netip.ParseAddr(r.Content)
		if err == nil && existing == addr {
			cf.logger.V(1).Info("record already exists", "name", name, "ip", addr.String())
			exists = true
			continue
		}

		cf.logger.V(1).Info("deleting DNS record", "name", name, "content", r.Content)
		if err := api.DeleteDNSRecord(ctx, cloudflare.ZoneIdentifier(zid), r.ID); err != nil {
			return fmt.Errorf("unable to delete DNS record %s: %w", r.ID, err)
		}
	}
	if exists {
		return nil
	}

	cf.logger.V(1).Info("creating record", "name", name, "ip", addr.String())
	_, err = api.CreateDNSRecord(ctx, cloudflare.ZoneIdentifier(zid), cloudflare.CreateDNSRecordParams{
		Type:    rtype,
		Name:    name,
		Content: addr.String(),
		ZoneID:  zid,
		TTL:     60,
		Comment: cf.comment,
	})
	if err != nil {
		return fmt.Errorf("error creating DNS record: %w", err)
	}
	cf.logger.Info("record created", "name", name, "ip", addr.String())
	return nil
}

// getZoneIDFromDomain picks the longest zone that name belongs to.
func (cf *cloudflareUpdater) getZoneIDFromDomain(ctx context.Context, api *cloudflare.API, name string) (zid string, err error) {
	zones, err := api.ListZones(ctx)
	if err != nil {
		return "", fmt.Errorf("error listing zones: %w", err)
	}

	max := 0
	for _, z := range zones {
		if (name == z.Name || strings.HasSuffix(name, "."+z.Name)) && len(z.Name) > max {
			max, zid = len(z.Name), z.ID
		}
	}
	if max == 0 {
		return "", fmt.Errorf("unable to find a zone matching \"%s\"", name)
	}
	return zid, nil
}

func recordType(a netip.Addr) string {
	if a.Is4() {
		return "A"
	}
	return "AAAA"
}
