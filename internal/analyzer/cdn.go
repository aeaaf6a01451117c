package analyzer

import (
	"context"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"github.com/hakim/domainwatch/internal/models"
)

// cdnSignatures maps providers to the name fragments that betray them in
// A-record values and CNAME targets. Order matters: first match wins.
var cdnSignatures = []struct {
	provider  string
	fragments []string
}{
	{"cloudflare", []string{"cloudflare", "cf-"}},
	{"akamai", []string{"akamai", "akamaihd"}},
	{"amazon", []string{"amazonaws", "cloudfront"}},
	{"maxcdn", []string{"maxcdn"}},
	{"keycdn", []string{"keycdn"}},
	{"incapsula", []string{"incapdns"}},
}

// detectCDN fingerprints a CDN from the observed DNS records and runs the
// bypass sub-probes against the fixed public resolvers.
func (a *Analyzer) detectCDN(ctx context.Context, domain string, records map[models.DNSRecordType][]string) models.CDNDetection {
	detection := models.CDNDetection{
		BypassAttempts: []models.BypassAttempt{},
	}

	values := append([]string{}, records[models.DNSRecordA]...)
	values = append(values, records[models.DNSRecordCNAME]...)

	for _, value := range values {
		if provider := matchCDNProvider(value); provider != "" {
			detection.Detected = true
			detection.Provider = provider
			break
		}
	}

	detection.BypassAttempts = a.bypassProbes(ctx, domain)
	return detection
}

// matchCDNProvider returns the first provider whose signature fragment
// appears in the value, or "" when none match
func matchCDNProvider(value string) string {
	lower := strings.ToLower(value)
	for _, sig := range cdnSignatures {
		for _, fragment := range sig.fragments {
			if strings.Contains(lower, fragment) {
				return sig.provider
			}
		}
	}
	return ""
}

// bypassProbes re-resolves the domain's A records against each fixed public
// resolver in parallel. A probe that fails or times out contributes nothing;
// resolver-dependent answers in the surviving attempts indicate CDN steering.
func (a *Analyzer) bypassProbes(ctx context.Context, domain string) []models.BypassAttempt {
	results := make([]*models.BypassAttempt, len(a.opts.BypassResolvers))

	p := pool.New().WithMaxGoroutines(a.opts.BypassConcurrency)
	for i, server := range a.opts.BypassResolvers {
		p.Go(func() {
			probeCtx, cancel := context.WithTimeout(ctx, a.opts.BypassTimeout)
			defer cancel()
			ips, err := a.probe(probeCtx, domain, server, a.opts.BypassTimeout)
			if err != nil {
				return
			}
			results[i] = &models.BypassAttempt{DNSServer: server, IPs: ips}
		})
	}
	p.Wait()

	attempts := []models.BypassAttempt{}
	for _, r := range results {
		if r != nil {
			attempts = append(attempts, *r)
		}
	}
	return attempts
}
