package models

import (
	"time"

	"github.com/google/uuid"
)

// Analysis is the complete evidence record for a single domain lookup.
// Every top-level field is populated even when individual collectors fail;
// a failed collector leaves its documented empty value behind, never a nil.
type Analysis struct {
	ID              string                     `json:"id"`
	Domain          string                     `json:"domain"`
	Timestamp       time.Time                  `json:"timestamp"`
	DNSRecords      map[DNSRecordType][]string `json:"dns_records"`
	SSLInfo         SSLInfo                    `json:"ssl_info"`
	IPInfo          IPInfo                     `json:"ip_info"`
	CDNDetection    CDNDetection               `json:"cdn_detection"`
	Subdomains      []string                   `json:"subdomains"`
	WhoisInfo       WhoisInfo                  `json:"whois_info"`
	DomainStatus    DomainStatus               `json:"domain_status"`
	SuspiciousScore float64                    `json:"suspicious_score"`
	MLPrediction    *Prediction                `json:"ml_prediction,omitempty"`
	CombinedScore   *float64                   `json:"combined_score,omitempty"`
}

// NewAnalysis creates an analysis record with initialized collections so that
// consumers never observe nil maps or slices.
func NewAnalysis(domain string) *Analysis {
	records := make(map[DNSRecordType][]string, len(DNSRecordTypes))
	for _, rtype := range DNSRecordTypes {
		records[rtype] = []string{}
	}
	return &Analysis{
		ID:         uuid.New().String(),
		Domain:     domain,
		Timestamp:  time.Now().UTC(),
		DNSRecords: records,
		Subdomains: []string{},
	}
}

// HasResolution reports whether any of the A/AAAA/MX/NS lookups returned data
func (a *Analysis) HasResolution() bool {
	for _, rtype := range []DNSRecordType{DNSRecordA, DNSRecordAAAA, DNSRecordMX, DNSRecordNS} {
		if len(a.DNSRecords[rtype]) > 0 {
			return true
		}
	}
	return false
}

// SSLInfo describes the certificate served on port 443. Exactly one variant
// is populated: certificate fields when the handshake succeeded, or Error
// when it did not.
type SSLInfo struct {
	Subject         string    `json:"subject,omitempty"`
	Issuer          string    `json:"issuer,omitempty"`
	Version         int       `json:"version,omitempty"`
	SerialNumber    string    `json:"serial_number,omitempty"`
	NotBefore       time.Time `json:"not_before,omitempty"`
	NotAfter        time.Time `json:"not_after,omitempty"`
	SubjectAltNames []string  `json:"subject_alt_names,omitempty"`
	Valid           bool      `json:"valid"`
	Error           string    `json:"error,omitempty"`
}

// Failed reports whether this is the error variant
func (s SSLInfo) Failed() bool { return s.Error != "" }

// Geolocation holds best-effort location data for a resolved IP
type Geolocation struct {
	Country     string  `json:"country,omitempty"`
	CountryCode string  `json:"country_code,omitempty"`
	Region      string  `json:"region,omitempty"`
	City        string  `json:"city,omitempty"`
	Latitude    float64 `json:"latitude,omitempty"`
	Longitude   float64 `json:"longitude,omitempty"`
	Timezone    string  `json:"timezone,omitempty"`
	ISP         string  `json:"isp,omitempty"`
}

// ASNInfo identifies the network operator announcing the resolved IP
type ASNInfo struct {
	ASN string `json:"asn,omitempty"`
	Org string `json:"org,omitempty"`
}

// IPInfo describes the resolved address and its hosting context. Error is the
// failure variant; when set, the remaining fields are zero.
type IPInfo struct {
	IP          string      `json:"ip,omitempty"`
	Geolocation Geolocation `json:"geolocation"`
	ASN         ASNInfo     `json:"asn"`
	IsPrivate   bool        `json:"is_private"`
	Error       string      `json:"error,omitempty"`
}

// Failed reports whether this is the error variant
func (i IPInfo) Failed() bool { return i.Error != "" }

// BypassAttempt records the answer one fixed public resolver gave for the
// domain's A records during CDN bypass probing
type BypassAttempt struct {
	DNSServer string   `json:"dns_server"`
	IPs       []string `json:"ips"`
}

// CDNDetection summarises CDN fingerprinting for a domain
type CDNDetection struct {
	Detected       bool            `json:"detected"`
	Provider       string          `json:"provider,omitempty"`
	BypassAttempts []BypassAttempt `json:"bypass_attempts"`
}

// WhoisInfo carries registration metadata. All fields are best-effort; a
// lookup failure yields the zero value.
type WhoisInfo struct {
	Registrar      string     `json:"registrar,omitempty"`
	CreationDate   *time.Time `json:"creation_date,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	NameServers    []string   `json:"name_servers,omitempty"`
	Status         []string   `json:"status,omitempty"`
	Emails         []string   `json:"emails,omitempty"`
}

// Empty reports whether the lookup produced no data at all
func (w WhoisInfo) Empty() bool {
	return w.Registrar == "" && w.CreationDate == nil && w.ExpirationDate == nil &&
		len(w.NameServers) == 0 && len(w.Status) == 0 && len(w.Emails) == 0
}

// FeatureContribution explains one feature's weight in an ML prediction
type FeatureContribution struct {
	Feature      string  `json:"feature"`
	Value        float64 `json:"value"`
	Importance   float64 `json:"importance"`
	Contribution float64 `json:"contribution"`
}

// Prediction is the ML verdict for an analysis record. MLAvailable is false
// when the model artifact is missing or prediction failed; the remaining
// fields are only meaningful when it is true.
type Prediction struct {
	MLAvailable   bool                  `json:"ml_available"`
	Prediction    Label                 `json:"prediction,omitempty"`
	Confidence    float64               `json:"confidence,omitempty"`
	Probabilities map[Label]float64     `json:"probabilities,omitempty"`
	TopFeatures   []FeatureContribution `json:"top_features,omitempty"`
	MLScore       float64               `json:"ml_score,omitempty"`
	Error         string                `json:"error,omitempty"`
}
