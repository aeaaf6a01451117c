package features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hakim/domainwatch/internal/models"
)

func TestNamesIsStableAndCopied(t *testing.T) {
	names := Names()
	assert.Len(t, names, 45)

	// Mutating the returned slice must not corrupt the contract
	names[0] = "tampered"
	assert.Equal(t, "domain_length", Names()[0])
}

func TestExtractCoversEveryFeature(t *testing.T) {
	v := Extract(models.NewAnalysis("example.com"))

	assert.Len(t, v, 45)
	for _, name := range Names() {
		_, ok := v[name]
		assert.True(t, ok, "missing feature %s", name)
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	a := models.NewAnalysis("login-secure4.xyz")
	a.DNSRecords[models.DNSRecordA] = []string{"1.2.3.4"}
	a.Subdomains = []string{"www.login-secure4.xyz"}

	assert.Equal(t, Extract(a), Extract(a))
}

func TestDomainFeatures(t *testing.T) {
	a := models.NewAnalysis("secure-login123.xyz")
	v := Extract(a)

	assert.Equal(t, 19.0, v["domain_length"])
	assert.Equal(t, 1.0, v["dot_count"])
	assert.Equal(t, 1.0, v["hyphen_count"])
	assert.Equal(t, 3.0, v["digit_count"])
	assert.Equal(t, 1.0, v["has_suspicious_tld"])
	assert.Equal(t, 1.0, v["has_phishing_keyword"])
	assert.Equal(t, 0.0, v["has_ip_in_domain"])
	assert.Greater(t, v["domain_entropy"], 0.0)
}

func TestIPInDomain(t *testing.T) {
	v := Extract(models.NewAnalysis("192.168.0.1.evil.com"))
	assert.Equal(t, 1.0, v["has_ip_in_domain"])
}

func TestVowelConsonantRatio(t *testing.T) {
	// "abc": one vowel, two consonants; dots and digits are neither
	v := Extract(models.NewAnalysis("abc"))
	assert.InDelta(t, 0.5, v["vowel_consonant_ratio"], 1e-9)

	// All vowels: the consonant count is floored at 1
	v = Extract(models.NewAnalysis("aeiou"))
	assert.InDelta(t, 5.0, v["vowel_consonant_ratio"], 1e-9)
}

func TestMaxConsecutiveConsonants(t *testing.T) {
	// "strength.com": "ngth" is the longest consonant run
	v := Extract(models.NewAnalysis("strength.com"))
	assert.Equal(t, 4.0, v["max_consecutive_consonants"])
}

func TestDNSFeatures(t *testing.T) {
	a := models.NewAnalysis("example.com")
	a.DNSRecords = map[models.DNSRecordType][]string{
		models.DNSRecordA:     {"1.2.3.4", "5.6.7.8"},
		models.DNSRecordAAAA:  {"2606:2800::1"},
		models.DNSRecordNS:    {"ns1.example.com", "ns2.example.com"},
		models.DNSRecordTXT:   {"v=spf1 -all"},
		models.DNSRecordCNAME: {"edge.example.net"},
	}
	v := Extract(a)

	assert.Equal(t, 2.0, v["a_record_count"])
	assert.Equal(t, 0.0, v["mx_record_count"])
	assert.Equal(t, 1.0, v["no_mx_records"])
	assert.Equal(t, 2.0, v["ns_record_count"])
	assert.Equal(t, 1.0, v["txt_record_count"])
	assert.Equal(t, 1.0, v["has_ipv6"])
	assert.Equal(t, 1.0, v["has_cname"])
	assert.Equal(t, 7.0, v["total_dns_records"])
}

func TestSSLFeatures(t *testing.T) {
	a := models.NewAnalysis("example.com")
	a.SSLInfo = models.SSLInfo{
		Issuer:          "CN=R3, O=Let's Encrypt",
		NotAfter:        time.Now().Add(70*24*time.Hour + time.Hour),
		Valid:           true,
		SubjectAltNames: []string{"example.com", "www.example.com"},
	}
	v := Extract(a)

	assert.Equal(t, 1.0, v["ssl_valid"])
	assert.Equal(t, 0.0, v["has_ssl_error"])
	assert.Equal(t, 2.0, v["ssl_san_count"])
	assert.Equal(t, 1.0, v["is_lets_encrypt"])
	assert.InDelta(t, 70.0, v["ssl_days_until_expiry"], 1.0)
	assert.Equal(t, 1.0, v["ssl_very_new"], "a 90-day cert far from expiry was issued recently")
}

func TestSSLErrorVariant(t *testing.T) {
	a := models.NewAnalysis("example.com")
	a.SSLInfo = models.SSLInfo{Error: "connection refused"}
	v := Extract(a)

	assert.Equal(t, 0.0, v["ssl_valid"])
	assert.Equal(t, 1.0, v["has_ssl_error"])
	assert.Equal(t, 0.0, v["ssl_days_until_expiry"])
	assert.Equal(t, 0.0, v["ssl_very_new"])
}

func TestIPFeatures(t *testing.T) {
	a := models.NewAnalysis("example.com")
	a.IPInfo = models.IPInfo{
		IP:          "198.51.100.1",
		Geolocation: models.Geolocation{Country: "Russia", CountryCode: "RU"},
		ASN:         models.ASNInfo{ASN: "AS64496", Org: "Bulletproof Hosting Ltd"},
	}
	v := Extract(a)

	assert.Equal(t, 0.0, v["is_private_ip"])
	assert.Equal(t, 1.0, v["has_geolocation"])
	assert.Equal(t, 1.0, v["high_risk_country"])
	assert.Equal(t, 1.0, v["has_asn"])
	assert.Equal(t, 0.0, v["trusted_hosting"])
	assert.Equal(t, 1.0, v["unknown_hosting"])
}

func TestTrustedHosting(t *testing.T) {
	a := models.NewAnalysis("example.com")
	a.IPInfo = models.IPInfo{
		IP:  "93.184.216.34",
		ASN: models.ASNInfo{ASN: "AS16509", Org: "Amazon.com, Inc."},
	}
	v := Extract(a)

	assert.Equal(t, 1.0, v["trusted_hosting"])
	assert.Equal(t, 0.0, v["unknown_hosting"])
}

func TestCDNFeatures(t *testing.T) {
	a := models.NewAnalysis("example.com")
	a.CDNDetection = models.CDNDetection{
		Detected: true,
		Provider: "cloudflare",
		BypassAttempts: []models.BypassAttempt{
			{DNSServer: "8.8.8.8", IPs: []string{"1.2.3.4"}},
			{DNSServer: "1.1.1.1", IPs: []string{"1.2.3.4"}},
		},
	}
	v := Extract(a)

	assert.Equal(t, 1.0, v["cdn_detected"])
	assert.Equal(t, 1.0, v["is_cloudflare"])
	assert.Equal(t, 0.0, v["is_akamai"])
	assert.Equal(t, 0.0, v["is_amazon_cdn"])
	assert.Equal(t, 2.0, v["cdn_bypass_count"])
}

func TestWhoisFeatures(t *testing.T) {
	created := time.Now().Add(-10 * 24 * time.Hour)
	a := models.NewAnalysis("example.com")
	a.WhoisInfo = models.WhoisInfo{
		Registrar:    "Privacy Protected Registrations LLC",
		CreationDate: &created,
		NameServers:  []string{"ns1.example.com", "ns2.example.com"},
	}
	v := Extract(a)

	assert.InDelta(t, 10.0, v["domain_age_days"], 1.0)
	assert.Equal(t, 1.0, v["very_new_domain"])
	assert.Equal(t, 1.0, v["new_domain"])
	assert.Equal(t, 1.0, v["has_privacy_protection"])
	assert.Equal(t, 1.0, v["has_registrar"])
	assert.Equal(t, 2.0, v["nameserver_count"])
}

func TestWhoisFeaturesMissing(t *testing.T) {
	v := Extract(models.NewAnalysis("example.com"))

	assert.Equal(t, 0.0, v["domain_age_days"])
	assert.Equal(t, 0.0, v["very_new_domain"])
	assert.Equal(t, 0.0, v["new_domain"])
	assert.Equal(t, 0.0, v["has_registrar"])
}

func TestSubdomainFeatures(t *testing.T) {
	a := models.NewAnalysis("example.com")
	for i := 0; i < 12; i++ {
		a.Subdomains = append(a.Subdomains, "host.example.com")
	}
	v := Extract(a)

	assert.Equal(t, 12.0, v["subdomain_count"])
	assert.Equal(t, 1.0, v["has_many_subdomains"])
	assert.Equal(t, 0.0, v["has_very_many_subdomains"])
	assert.InDelta(t, 16.0, v["avg_subdomain_length"], 1e-9)
}

func TestSliceProjection(t *testing.T) {
	v := Vector{"a": 1, "b": 2}

	got := v.Slice([]string{"b", "missing", "a"})
	require.Equal(t, []float64{2, 0, 1}, got, "missing names contribute zero")
}
