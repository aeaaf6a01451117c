package analyzer

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/hakim/domainwatch/internal/collect"
	"github.com/hakim/domainwatch/internal/config"
	"github.com/hakim/domainwatch/internal/models"
)

// ValidationError rejects input before any outbound collector call is made
type ValidationError struct {
	Domain string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid domain %q: %s", e.Domain, e.Reason)
}

// Error wraps an unexpected orchestration failure, carrying the domain it
// occurred for
type Error struct {
	Domain string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("analyzing %s: %v", e.Domain, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// localhostAliases are rejected by substring match, mirroring the SSRF guard
// on literal host spellings
var localhostAliases = []string{"localhost", "127.0.0.1", "0.0.0.0", "[::]", "::1"}

// Options controls collector endpoints, timeouts and fan-out sizing
type Options struct {
	DefaultTLD        string
	GeoAPI            string
	CTSearch          string
	BypassResolvers   []string
	DNSTimeout        time.Duration
	TLSTimeout        time.Duration
	GeoTimeout        time.Duration
	CTTimeout         time.Duration
	WhoisTimeout      time.Duration
	BypassTimeout     time.Duration
	Concurrency       int
	BypassConcurrency int
}

// Analyzer gathers DNS, TLS, WHOIS, geolocation and certificate-transparency
// evidence for a domain and derives status and suspicion score.
//
// The collector functions are fields so tests can stub individual evidence
// sources without network access.
type Analyzer struct {
	opts Options

	dnsRecords  func(ctx context.Context, domain string) map[models.DNSRecordType][]string
	certificate func(ctx context.Context, domain string, timeout time.Duration) (models.SSLInfo, error)
	ipInfo      func(ctx context.Context, domain, geoAPI string, timeout time.Duration) (models.IPInfo, error)
	subdomains  func(ctx context.Context, domain, ctSearch string, timeout time.Duration) ([]string, error)
	whoisLookup func(ctx context.Context, domain string, timeout time.Duration) (models.WhoisInfo, error)
	probe       func(ctx context.Context, domain, server string, timeout time.Duration) ([]string, error)
	resolveHost func(ctx context.Context, host string) (net.IP, error)
}

// New creates an Analyzer with live network collectors
func New(opts Options) *Analyzer {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 5
	}
	if opts.BypassConcurrency <= 0 {
		opts.BypassConcurrency = 3
	}
	return &Analyzer{
		opts:        opts,
		dnsRecords:  collect.Records,
		certificate: collect.Certificate,
		ipInfo:      collect.IPInfo,
		subdomains:  collect.Subdomains,
		whoisLookup: collect.Whois,
		probe:       collect.ProbeResolver,
		resolveHost: collect.ResolveFirst,
	}
}

// FromConfig builds an Analyzer from application configuration
func FromConfig(cfg *config.Config) *Analyzer {
	return New(Options{
		DefaultTLD:        cfg.DefaultTLD,
		GeoAPI:            cfg.Endpoints.GeoAPI,
		CTSearch:          cfg.Endpoints.CTSearch,
		BypassResolvers:   cfg.Bypass.Resolvers,
		DNSTimeout:        config.Timeout(cfg.Collectors.DNSTimeout, 3*time.Second),
		TLSTimeout:        config.Timeout(cfg.Collectors.TLSTimeout, 5*time.Second),
		GeoTimeout:        config.Timeout(cfg.Collectors.GeoTimeout, 8*time.Second),
		CTTimeout:         config.Timeout(cfg.Collectors.CTTimeout, 10*time.Second),
		WhoisTimeout:      config.Timeout(cfg.Collectors.WhoisTimeout, 10*time.Second),
		BypassTimeout:     config.Timeout(cfg.Bypass.Timeout, 2*time.Second),
		Concurrency:       cfg.Collectors.Concurrency,
		BypassConcurrency: cfg.Bypass.Concurrency,
	})
}

// Analyze gathers all evidence for a raw domain input and returns the merged
// analysis record.
//
// Individual collector failures degrade to their documented empty values and
// never fail the call. Only input validation and unexpected orchestration
// errors return a non-nil error; a panic anywhere below is recovered and
// reported the same way.
func (a *Analyzer) Analyze(ctx context.Context, raw string) (analysis *models.Analysis, err error) {
	domain := CleanDomain(raw, a.opts.DefaultTLD)

	defer func() {
		if r := recover(); r != nil {
			analysis = nil
			err = &Error{Domain: domain, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if domain == "" {
		return nil, &ValidationError{Domain: raw, Reason: "empty host after normalization"}
	}

	if reason := a.blockedInput(ctx, domain); reason != "" {
		return nil, &ValidationError{Domain: domain, Reason: reason}
	}

	analysis = models.NewAnalysis(domain)

	// Fan out the five evidence collectors over a bounded pool. Each writes
	// a distinct field of the record, so the join needs no locking.
	p := pool.New().WithMaxGoroutines(a.opts.Concurrency)

	p.Go(func() {
		dnsCtx, cancel := context.WithTimeout(ctx, a.opts.DNSTimeout)
		defer cancel()
		analysis.DNSRecords = a.dnsRecords(dnsCtx, domain)
	})

	p.Go(func() {
		tlsCtx, cancel := context.WithTimeout(ctx, a.opts.TLSTimeout)
		defer cancel()
		info, err := a.certificate(tlsCtx, domain, a.opts.TLSTimeout)
		if err != nil {
			analysis.SSLInfo = models.SSLInfo{Error: err.Error()}
			return
		}
		analysis.SSLInfo = info
	})

	p.Go(func() {
		geoCtx, cancel := context.WithTimeout(ctx, a.opts.GeoTimeout)
		defer cancel()
		info, err := a.ipInfo(geoCtx, domain, a.opts.GeoAPI, a.opts.GeoTimeout)
		if err != nil {
			analysis.IPInfo = models.IPInfo{Error: err.Error()}
			return
		}
		analysis.IPInfo = info
	})

	p.Go(func() {
		ctCtx, cancel := context.WithTimeout(ctx, a.opts.CTTimeout)
		defer cancel()
		subs, err := a.subdomains(ctCtx, domain, a.opts.CTSearch, a.opts.CTTimeout)
		if err != nil || subs == nil {
			subs = []string{}
		}
		analysis.Subdomains = subs
	})

	p.Go(func() {
		whoisCtx, cancel := context.WithTimeout(ctx, a.opts.WhoisTimeout)
		defer cancel()
		info, err := a.whoisLookup(whoisCtx, domain, a.opts.WhoisTimeout)
		if err != nil {
			info = models.WhoisInfo{}
		}
		analysis.WhoisInfo = info
	})

	p.Wait()

	// CDN detection consumes the merged DNS records
	analysis.CDNDetection = a.detectCDN(ctx, domain, analysis.DNSRecords)
	analysis.DomainStatus = Status(analysis)
	analysis.SuspiciousScore = HeuristicScore(analysis)

	return analysis, nil
}

// blockedInput applies the SSRF guard. It returns a non-empty reason when
// the host must be rejected before any outbound collector call.
func (a *Analyzer) blockedInput(ctx context.Context, domain string) string {
	lower := strings.ToLower(domain)
	for _, alias := range localhostAliases {
		if strings.Contains(lower, alias) {
			return "localhost alias is not allowed"
		}
	}

	if ip := net.ParseIP(strings.Trim(domain, "[]")); ip != nil {
		if collect.IsPrivateAddress(ip) {
			return "private or loopback address is not allowed"
		}
		return ""
	}

	// Resolution failure is not a rejection: an unregistered domain is a
	// legitimate analysis target. Only a resolved private address blocks.
	guardCtx, cancel := context.WithTimeout(ctx, a.opts.DNSTimeout)
	defer cancel()
	ip, err := a.resolveHost(guardCtx, domain)
	if err == nil && collect.IsPrivateAddress(ip) {
		return "host resolves to a private or loopback address"
	}

	return ""
}

// CleanDomain normalizes raw user input to a bare lowercase hostname.
// Scheme and path components are stripped; a missing TLD gets the configured
// default appended.
func CleanDomain(raw, defaultTLD string) string {
	domain := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), " ", "")
	if domain == "" {
		return ""
	}

	if !strings.Contains(domain, ".") && defaultTLD != "" {
		domain += "." + defaultTLD
	}

	if !strings.HasPrefix(domain, "http://") && !strings.HasPrefix(domain, "https://") {
		domain = "https://" + domain
	}

	parsed, err := url.Parse(domain)
	if err != nil {
		return strings.TrimPrefix(strings.TrimPrefix(domain, "https://"), "http://")
	}

	host := parsed.Host
	if host == "" {
		host = parsed.Path
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimSuffix(host, ".")
}
