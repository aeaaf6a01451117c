package collect

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
)

// ProbeResolver asks one specific public resolver for the domain's A records.
// Used by CDN bypass probing to detect resolver-dependent answers; the
// standard library resolver cannot target a specific server, hence miekg/dns.
func ProbeResolver(ctx context.Context, domain, server string, timeout time.Duration) ([]string, error) {
	client := &dns.Client{
		Net:          "udp",
		Timeout:      timeout,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), dns.TypeA)

	resp, _, err := client.ExchangeContext(ctx, msg, net.JoinHostPort(server, "53"))
	if err != nil {
		return nil, fmt.Errorf("probing %s via %s: %w", domain, server, err)
	}
	if resp.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("probing %s via %s: rcode %s", domain, server, dns.RcodeToString[resp.Rcode])
	}

	var ips []string
	for _, rr := range resp.Answer {
		if a, ok := rr.(*dns.A); ok {
			ips = append(ips, a.A.String())
		}
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("probing %s via %s: no A records in answer", domain, server)
	}

	return ips, nil
}
