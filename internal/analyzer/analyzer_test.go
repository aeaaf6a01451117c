package analyzer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hakim/domainwatch/internal/models"
)

// collectorCalls counts invocations per evidence source. Counters are atomic
// because collectors run concurrently.
type collectorCalls struct {
	dns, tls, geo, ct, whois, probe int32
}

func (c *collectorCalls) total() int32 {
	return atomic.LoadInt32(&c.dns) + atomic.LoadInt32(&c.tls) +
		atomic.LoadInt32(&c.geo) + atomic.LoadInt32(&c.ct) +
		atomic.LoadInt32(&c.whois) + atomic.LoadInt32(&c.probe)
}

// newStubbedAnalyzer builds an analyzer whose collectors return canned benign
// evidence and count their calls. No network access happens.
func newStubbedAnalyzer() (*Analyzer, *collectorCalls) {
	calls := &collectorCalls{}
	created := time.Now().Add(-2 * 365 * 24 * time.Hour)

	a := &Analyzer{
		opts: Options{
			DefaultTLD:        "com",
			BypassResolvers:   []string{"8.8.8.8", "1.1.1.1"},
			DNSTimeout:        time.Second,
			TLSTimeout:        time.Second,
			GeoTimeout:        time.Second,
			CTTimeout:         time.Second,
			WhoisTimeout:      time.Second,
			BypassTimeout:     time.Second,
			Concurrency:       5,
			BypassConcurrency: 3,
		},
		dnsRecords: func(ctx context.Context, domain string) map[models.DNSRecordType][]string {
			atomic.AddInt32(&calls.dns, 1)
			return map[models.DNSRecordType][]string{
				models.DNSRecordA:  {"93.184.216.34"},
				models.DNSRecordMX: {"10 mail.example.com"},
				models.DNSRecordNS: {"ns1.example.com"},
			}
		},
		certificate: func(ctx context.Context, domain string, timeout time.Duration) (models.SSLInfo, error) {
			atomic.AddInt32(&calls.tls, 1)
			return models.SSLInfo{
				Issuer:    "CN=DigiCert Global G2",
				NotBefore: time.Now().Add(-30 * 24 * time.Hour),
				NotAfter:  time.Now().Add(300 * 24 * time.Hour),
				Valid:     true,
			}, nil
		},
		ipInfo: func(ctx context.Context, domain, geoAPI string, timeout time.Duration) (models.IPInfo, error) {
			atomic.AddInt32(&calls.geo, 1)
			return models.IPInfo{
				IP:          "93.184.216.34",
				Geolocation: models.Geolocation{Country: "United States", CountryCode: "US"},
				ASN:         models.ASNInfo{ASN: "AS15133", Org: "Edgecast Inc."},
			}, nil
		},
		subdomains: func(ctx context.Context, domain, ctSearch string, timeout time.Duration) ([]string, error) {
			atomic.AddInt32(&calls.ct, 1)
			return []string{"www." + domain, "mail." + domain}, nil
		},
		whoisLookup: func(ctx context.Context, domain string, timeout time.Duration) (models.WhoisInfo, error) {
			atomic.AddInt32(&calls.whois, 1)
			return models.WhoisInfo{Registrar: "Example Registrar", CreationDate: &created}, nil
		},
		probe: func(ctx context.Context, domain, server string, timeout time.Duration) ([]string, error) {
			atomic.AddInt32(&calls.probe, 1)
			return nil, errors.New("probe disabled in tests")
		},
		resolveHost: func(ctx context.Context, host string) (net.IP, error) {
			return net.ParseIP("93.184.216.34"), nil
		},
	}
	return a, calls
}

func TestCleanDomain(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare domain", "example.com", "example.com"},
		{"uppercase and whitespace", "  Example.COM  ", "example.com"},
		{"embedded space", "exam ple.com", "example.com"},
		{"scheme and path stripped", "https://sub.example.com/login?x=1", "sub.example.com"},
		{"http scheme", "http://example.com", "example.com"},
		{"port stripped", "example.com:8443", "example.com"},
		{"trailing dot stripped", "example.com.", "example.com"},
		{"default tld appended", "myshop", "myshop.com"},
		{"empty input", "", ""},
		{"whitespace only", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanDomain(tt.raw, "com"))
		})
	}
}

func TestCleanDomainNoDefaultTLD(t *testing.T) {
	assert.Equal(t, "myshop", CleanDomain("myshop", ""))
}

func TestAnalyzeRejectsEmptyInput(t *testing.T) {
	a, calls := newStubbedAnalyzer()

	for _, raw := range []string{"", "   "} {
		analysis, err := a.Analyze(context.Background(), raw)
		require.Error(t, err)
		assert.Nil(t, analysis)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	}
	assert.Zero(t, calls.total(), "no collector may run for rejected input")
}

func TestAnalyzeRejectsLocalhostAliases(t *testing.T) {
	a, calls := newStubbedAnalyzer()

	for _, raw := range []string{"localhost", "127.0.0.1", "0.0.0.0", "[::1]", "localhost:8080"} {
		t.Run(raw, func(t *testing.T) {
			analysis, err := a.Analyze(context.Background(), raw)
			require.Error(t, err)
			assert.Nil(t, analysis)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
		})
	}
	assert.Zero(t, calls.total(), "no collector may run for blocked input")
}

func TestAnalyzeRejectsPrivateLiteralIP(t *testing.T) {
	a, calls := newStubbedAnalyzer()

	for _, raw := range []string{"192.168.1.10", "10.0.0.5", "169.254.1.1"} {
		t.Run(raw, func(t *testing.T) {
			_, err := a.Analyze(context.Background(), raw)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Reason, "private")
		})
	}
	assert.Zero(t, calls.total())
}

func TestAnalyzeRejectsHostResolvingToPrivateAddress(t *testing.T) {
	a, calls := newStubbedAnalyzer()
	a.resolveHost = func(ctx context.Context, host string) (net.IP, error) {
		return net.ParseIP("10.1.2.3"), nil
	}

	_, err := a.Analyze(context.Background(), "internal.example.com")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "resolves to a private")
	assert.Zero(t, calls.total())
}

func TestAnalyzeAllowsUnresolvableHost(t *testing.T) {
	// An unregistered domain is a legitimate target; only a resolved private
	// address blocks.
	a, _ := newStubbedAnalyzer()
	a.resolveHost = func(ctx context.Context, host string) (net.IP, error) {
		return nil, errors.New("no such host")
	}

	analysis, err := a.Analyze(context.Background(), "definitely-not-registered-9z8y7x.com")
	require.NoError(t, err)
	require.NotNil(t, analysis)
}

func TestAnalyzeAllowsPublicLiteralIP(t *testing.T) {
	a, calls := newStubbedAnalyzer()

	analysis, err := a.Analyze(context.Background(), "8.8.8.8")
	require.NoError(t, err)
	require.NotNil(t, analysis)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls.dns))
}

func TestAnalyzeMergesCollectorResults(t *testing.T) {
	a, calls := newStubbedAnalyzer()

	analysis, err := a.Analyze(context.Background(), "Example.com")
	require.NoError(t, err)
	require.NotNil(t, analysis)

	assert.Equal(t, "example.com", analysis.Domain)
	assert.NotEmpty(t, analysis.ID)
	assert.False(t, analysis.Timestamp.IsZero())

	assert.Equal(t, []string{"93.184.216.34"}, analysis.DNSRecords[models.DNSRecordA])
	assert.True(t, analysis.SSLInfo.Valid)
	assert.Equal(t, "93.184.216.34", analysis.IPInfo.IP)
	assert.Len(t, analysis.Subdomains, 2)
	assert.Equal(t, "Example Registrar", analysis.WhoisInfo.Registrar)
	assert.Equal(t, models.StatusActive, analysis.DomainStatus)

	// Each evidence source runs exactly once per analysis
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls.dns))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls.tls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls.geo))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls.ct))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls.whois))
}

func TestAnalyzeDegradesPerCollector(t *testing.T) {
	a, _ := newStubbedAnalyzer()
	a.certificate = func(ctx context.Context, domain string, timeout time.Duration) (models.SSLInfo, error) {
		return models.SSLInfo{}, errors.New("connection refused")
	}
	a.ipInfo = func(ctx context.Context, domain, geoAPI string, timeout time.Duration) (models.IPInfo, error) {
		return models.IPInfo{}, errors.New("geo API unreachable")
	}
	a.subdomains = func(ctx context.Context, domain, ctSearch string, timeout time.Duration) ([]string, error) {
		return nil, errors.New("crt.sh timeout")
	}
	a.whoisLookup = func(ctx context.Context, domain string, timeout time.Duration) (models.WhoisInfo, error) {
		return models.WhoisInfo{}, errors.New("whois refused")
	}

	analysis, err := a.Analyze(context.Background(), "example.com")
	require.NoError(t, err, "collector failures must not fail the analysis")

	assert.True(t, analysis.SSLInfo.Failed())
	assert.Equal(t, "connection refused", analysis.SSLInfo.Error)
	assert.True(t, analysis.IPInfo.Failed())
	assert.NotNil(t, analysis.Subdomains)
	assert.Empty(t, analysis.Subdomains)
	assert.True(t, analysis.WhoisInfo.Empty())
}

func TestAnalyzeRecoversCollectorPanic(t *testing.T) {
	a, _ := newStubbedAnalyzer()
	a.dnsRecords = func(ctx context.Context, domain string) map[models.DNSRecordType][]string {
		panic("boom")
	}

	analysis, err := a.Analyze(context.Background(), "example.com")
	require.Error(t, err)
	assert.Nil(t, analysis)

	var aerr *Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "example.com", aerr.Domain)
	assert.Contains(t, err.Error(), "panic")
}

func TestStatus(t *testing.T) {
	registrar := func(name string) models.WhoisInfo { return models.WhoisInfo{Registrar: name} }

	tests := []struct {
		name    string
		records map[models.DNSRecordType][]string
		whois   models.WhoisInfo
		want    models.DomainStatus
	}{
		{
			name:    "a record means active",
			records: map[models.DNSRecordType][]string{models.DNSRecordA: {"1.2.3.4"}},
			want:    models.StatusActive,
		},
		{
			name:    "mx only still active",
			records: map[models.DNSRecordType][]string{models.DNSRecordMX: {"10 mx.example.com"}},
			want:    models.StatusActive,
		},
		{
			name:    "txt only does not count as resolution",
			records: map[models.DNSRecordType][]string{models.DNSRecordTXT: {"v=spf1 -all"}},
			whois:   registrar("Example Registrar"),
			want:    models.StatusInactive,
		},
		{
			name:    "registered but unresolved is parked",
			records: map[models.DNSRecordType][]string{},
			whois:   registrar("Example Registrar"),
			want:    models.StatusInactive,
		},
		{
			name:    "no resolution and no registrar is unregistered",
			records: map[models.DNSRecordType][]string{},
			want:    models.StatusUnregistered,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := models.NewAnalysis("example.com")
			a.DNSRecords = tt.records
			a.WhoisInfo = tt.whois
			assert.Equal(t, tt.want, Status(a))
		})
	}
}

func TestAnalyzerErrorUnwrap(t *testing.T) {
	inner := errors.New("inner")
	err := &Error{Domain: "example.com", Err: fmt.Errorf("wrapped: %w", inner)}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "example.com")
}
