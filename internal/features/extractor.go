// Package features maps an analysis record to the fixed, named numeric
// feature vector consumed by the threat classifier. Extraction is pure and
// total: every feature is always present, and missing evidence maps to the
// group's zero defaults.
package features

import (
	"math"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/hakim/domainwatch/internal/models"
)

// Vector maps feature names to their numeric values
type Vector map[string]float64

// Slice projects the vector into the given column order. Names missing from
// the vector contribute 0, which keeps older artifacts usable when the
// extractor grows new features.
func (v Vector) Slice(names []string) []float64 {
	out := make([]float64, len(names))
	for i, name := range names {
		out[i] = v[name]
	}
	return out
}

// featureNames is the canonical column ordering. It is persisted inside
// every trained model artifact; trainer and predictor must agree on it.
var featureNames = []string{
	// Domain features
	"domain_length", "dot_count", "hyphen_count", "digit_count",
	"has_suspicious_tld", "domain_entropy", "has_ip_in_domain",
	"vowel_consonant_ratio", "has_phishing_keyword", "max_consecutive_consonants",

	// DNS features
	"a_record_count", "mx_record_count", "ns_record_count",
	"txt_record_count", "has_ipv6", "has_cname", "total_dns_records",
	"no_mx_records",

	// SSL features
	"ssl_valid", "ssl_days_until_expiry", "has_ssl_error",
	"ssl_san_count", "is_lets_encrypt", "ssl_very_new",

	// IP features
	"is_private_ip", "has_geolocation", "high_risk_country",
	"has_asn", "trusted_hosting", "unknown_hosting",

	// CDN features
	"cdn_detected", "is_cloudflare", "is_akamai",
	"is_amazon_cdn", "cdn_bypass_count",

	// WHOIS features
	"domain_age_days", "very_new_domain", "new_domain",
	"has_privacy_protection", "has_registrar", "nameserver_count",

	// Subdomain features
	"subdomain_count", "has_many_subdomains", "has_very_many_subdomains",
	"avg_subdomain_length",
}

// Names returns the canonical ordered feature name list. The returned slice
// is a copy; callers may not mutate the contract.
func Names() []string {
	return append([]string{}, featureNames...)
}

var suspiciousTLDs = []string{
	".tk", ".ml", ".ga", ".cf", ".gq", ".xyz", ".top",
	".work", ".click", ".link", ".download", ".racing",
	".stream", ".win", ".bid", ".trade", ".webcam",
}

var phishingKeywords = []string{
	"login", "verify", "account", "secure", "update",
	"confirm", "banking", "paypal", "signin", "suspended",
}

var trustedProviders = []string{
	"amazon", "google", "microsoft", "cloudflare",
	"digitalocean", "linode", "vultr", "ovh", "hetzner",
}

var highRiskCountries = []string{"CN", "RU", "KP", "IR", "SY", "VN"}

var ipInDomainPattern = regexp.MustCompile(`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`)

// Extract computes the full feature vector for an analysis record
func Extract(a *models.Analysis) Vector {
	v := make(Vector, len(featureNames))
	domainFeatures(v, a.Domain)
	dnsFeatures(v, a.DNSRecords)
	sslFeatures(v, a.SSLInfo)
	ipFeatures(v, a.IPInfo)
	cdnFeatures(v, a.CDNDetection)
	whoisFeatures(v, a.WhoisInfo)
	subdomainFeatures(v, a.Subdomains)
	return v
}

func domainFeatures(v Vector, domain string) {
	lower := strings.ToLower(domain)

	v["domain_length"] = float64(len(domain))
	v["dot_count"] = float64(strings.Count(domain, "."))
	v["hyphen_count"] = float64(strings.Count(domain, "-"))

	digits := 0
	for _, r := range domain {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	v["digit_count"] = float64(digits)

	v["has_suspicious_tld"] = boolFeature(hasSuffixAny(lower, suspiciousTLDs))
	v["domain_entropy"] = entropy(domain)
	v["has_ip_in_domain"] = boolFeature(ipInDomainPattern.MatchString(domain))

	vowels, consonants := 0, 0
	for _, r := range lower {
		switch {
		case strings.ContainsRune("aeiou", r):
			vowels++
		case unicode.IsLetter(r):
			consonants++
		}
	}
	v["vowel_consonant_ratio"] = float64(vowels) / math.Max(float64(consonants), 1)

	v["has_phishing_keyword"] = boolFeature(containsAny(lower, phishingKeywords))

	maxRun, run := 0, 0
	for _, r := range lower {
		if unicode.IsLetter(r) && !strings.ContainsRune("aeiou", r) {
			run++
			if run > maxRun {
				maxRun = run
			}
		} else {
			run = 0
		}
	}
	v["max_consecutive_consonants"] = float64(maxRun)
}

func dnsFeatures(v Vector, records map[models.DNSRecordType][]string) {
	v["a_record_count"] = float64(len(records[models.DNSRecordA]))
	v["mx_record_count"] = float64(len(records[models.DNSRecordMX]))
	v["ns_record_count"] = float64(len(records[models.DNSRecordNS]))
	v["txt_record_count"] = float64(len(records[models.DNSRecordTXT]))
	v["has_ipv6"] = boolFeature(len(records[models.DNSRecordAAAA]) > 0)
	v["has_cname"] = boolFeature(len(records[models.DNSRecordCNAME]) > 0)

	total := 0
	for _, values := range records {
		total += len(values)
	}
	v["total_dns_records"] = float64(total)
	v["no_mx_records"] = boolFeature(len(records[models.DNSRecordMX]) == 0)
}

func sslFeatures(v Vector, ssl models.SSLInfo) {
	v["ssl_valid"] = boolFeature(ssl.Valid)

	daysUntilExpiry := 0.0
	if !ssl.Failed() && !ssl.NotAfter.IsZero() {
		daysUntilExpiry = math.Max(time.Until(ssl.NotAfter).Hours()/24, 0)
		daysUntilExpiry = math.Floor(daysUntilExpiry)
	}
	v["ssl_days_until_expiry"] = daysUntilExpiry

	v["has_ssl_error"] = boolFeature(ssl.Failed())
	v["ssl_san_count"] = float64(len(ssl.SubjectAltNames))

	issuer := strings.ToLower(ssl.Issuer)
	v["is_lets_encrypt"] = boolFeature(
		strings.Contains(issuer, "let's encrypt") || strings.Contains(issuer, "letsencrypt"))

	// A 90-day cert more than 60 days from expiry was issued recently
	v["ssl_very_new"] = boolFeature(daysUntilExpiry > 60 && daysUntilExpiry < 90)
}

func ipFeatures(v Vector, ip models.IPInfo) {
	v["is_private_ip"] = boolFeature(!ip.Failed() && ip.IsPrivate)
	v["has_geolocation"] = boolFeature(ip.Geolocation.Country != "")

	highRisk := false
	for _, cc := range highRiskCountries {
		if ip.Geolocation.CountryCode == cc {
			highRisk = true
			break
		}
	}
	v["high_risk_country"] = boolFeature(highRisk)

	hasASN := ip.ASN.ASN != ""
	v["has_asn"] = boolFeature(hasASN)

	trusted := containsAny(strings.ToLower(ip.ASN.Org), trustedProviders)
	v["trusted_hosting"] = boolFeature(trusted)
	v["unknown_hosting"] = boolFeature(hasASN && !trusted)
}

func cdnFeatures(v Vector, cdn models.CDNDetection) {
	v["cdn_detected"] = boolFeature(cdn.Detected)
	v["is_cloudflare"] = boolFeature(cdn.Provider == "cloudflare")
	v["is_akamai"] = boolFeature(cdn.Provider == "akamai")
	v["is_amazon_cdn"] = boolFeature(cdn.Provider == "amazon")
	v["cdn_bypass_count"] = float64(len(cdn.BypassAttempts))
}

func whoisFeatures(v Vector, whois models.WhoisInfo) {
	ageDays := 0.0
	veryNew, isNew := false, false
	if whois.CreationDate != nil {
		age := time.Since(*whois.CreationDate).Hours() / 24
		ageDays = math.Max(math.Floor(age), 0)
		veryNew = age < 30
		isNew = age < 365
	}
	v["domain_age_days"] = ageDays
	v["very_new_domain"] = boolFeature(veryNew)
	v["new_domain"] = boolFeature(isNew)

	registrar := strings.ToLower(whois.Registrar)
	v["has_privacy_protection"] = boolFeature(
		strings.Contains(registrar, "privacy") ||
			strings.Contains(registrar, "protected") ||
			strings.Contains(registrar, "redacted"))
	v["has_registrar"] = boolFeature(whois.Registrar != "")
	v["nameserver_count"] = float64(len(whois.NameServers))
}

func subdomainFeatures(v Vector, subdomains []string) {
	count := len(subdomains)
	v["subdomain_count"] = float64(count)
	v["has_many_subdomains"] = boolFeature(count > 10)
	v["has_very_many_subdomains"] = boolFeature(count > 50)

	avg := 0.0
	if count > 0 {
		total := 0
		for _, s := range subdomains {
			total += len(s)
		}
		avg = float64(total) / float64(count)
	}
	v["avg_subdomain_length"] = avg
}

func entropy(s string) float64 {
	if s == "" {
		return 0
	}
	counts := make(map[rune]int)
	length := 0
	for _, r := range s {
		counts[r]++
		length++
	}
	e := 0.0
	for _, count := range counts {
		p := float64(count) / float64(length)
		e -= p * math.Log2(p)
	}
	return e
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func hasSuffixAny(s string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}

func containsAny(s string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
