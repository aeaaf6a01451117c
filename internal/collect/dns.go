package collect

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/hakim/domainwatch/internal/models"
)

// Records queries the six standard DNS record types for a domain.
// Each record type is looked up independently; a failed lookup leaves an
// empty slice behind so that every type is always present in the result.
func Records(ctx context.Context, domain string) map[models.DNSRecordType][]string {
	r := net.DefaultResolver
	records := make(map[models.DNSRecordType][]string, len(models.DNSRecordTypes))
	for _, rtype := range models.DNSRecordTypes {
		records[rtype] = []string{}
	}

	if ips, err := r.LookupIP(ctx, "ip4", domain); err == nil {
		for _, ip := range ips {
			records[models.DNSRecordA] = append(records[models.DNSRecordA], ip.String())
		}
	}

	if ips, err := r.LookupIP(ctx, "ip6", domain); err == nil {
		for _, ip := range ips {
			records[models.DNSRecordAAAA] = append(records[models.DNSRecordAAAA], ip.String())
		}
	}

	if mxs, err := r.LookupMX(ctx, domain); err == nil {
		for _, mx := range mxs {
			records[models.DNSRecordMX] = append(records[models.DNSRecordMX], fmt.Sprintf("%d %s", mx.Pref, mx.Host))
		}
	}

	if nss, err := r.LookupNS(ctx, domain); err == nil {
		for _, ns := range nss {
			records[models.DNSRecordNS] = append(records[models.DNSRecordNS], ns.Host)
		}
	}

	if txts, err := r.LookupTXT(ctx, domain); err == nil {
		records[models.DNSRecordTXT] = append(records[models.DNSRecordTXT], txts...)
	}

	// LookupCNAME returns the queried name itself when no CNAME exists;
	// only a genuinely different canonical name counts as a record.
	if cname, err := r.LookupCNAME(ctx, domain); err == nil {
		canonical := strings.TrimSuffix(cname, ".")
		if canonical != "" && !strings.EqualFold(canonical, domain) {
			records[models.DNSRecordCNAME] = append(records[models.DNSRecordCNAME], canonical)
		}
	}

	return records
}

// ResolveFirst resolves the domain to a single IP address, preferring IPv4.
// Returns an error when the domain does not resolve at all.
func ResolveFirst(ctx context.Context, domain string) (net.IP, error) {
	ips, err := net.DefaultResolver.LookupIP(ctx, "ip", domain)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", domain, err)
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("resolving %s: no addresses", domain)
	}
	for _, ip := range ips {
		if ip.To4() != nil {
			return ip, nil
		}
	}
	return ips[0], nil
}
