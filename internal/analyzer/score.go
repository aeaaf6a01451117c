package analyzer

import (
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/hakim/domainwatch/internal/models"
)

// suspiciousTLDs are cheap or free TLDs disproportionately used for abuse
var suspiciousTLDs = []string{
	".tk", ".ml", ".ga", ".cf", ".gq", ".xyz", ".top",
	".work", ".click", ".link", ".download", ".racing",
	".stream", ".win", ".bid", ".trade", ".webcam", ".loan",
	".date", ".faith", ".accountant", ".cricket", ".science",
}

// phishingKeywords are terms commonly embedded in credential-phishing hosts
var phishingKeywords = []string{
	"login", "verify", "account", "secure", "update", "confirm",
	"banking", "paypal", "signin", "suspended", "support", "service",
	"official", "webmail", "portal", "checkout", "billing", "wallet",
	"blockchain", "coinbase", "binance", "metamask", "trustwallet",
}

// trustedBrands earn a flat score discount on substring match. The match is
// deliberately loose and spoofable (e.g. "google-secure.tk" qualifies); the
// behavior is preserved as-is from the scoring contract.
var trustedBrands = []string{
	"google", "microsoft", "apple", "amazon", "facebook", "facebookmail",
	"axisbank", "bankofbaroda", "hdfcbank", "icicibank", "sbi.co.in",
	"onlinesbi", "pnbindia", "canarabank", "unionbankofindia",
	"idbi", "kotak", "yesbank", "indusind", "rblbank", "hsbc", "standardchartered",
	"morganstanley", "jpmorgan", "goldmansachs", "barclays", "citibank",
	"paypal", "paytm", "phonepe", "googlepay", "razorpay",
}

// highRiskCountries by ISO code; geolocation there adds risk
var highRiskCountries = []string{"CN", "RU", "KP", "IR", "SY", "VN"}

// Status classifies a domain as active, inactive/parked or unregistered.
// Any resolution at all means active; no resolution and no registrar means
// the domain was never registered.
func Status(a *models.Analysis) models.DomainStatus {
	if a.HasResolution() {
		return models.StatusActive
	}
	if a.WhoisInfo.Registrar == "" {
		return models.StatusUnregistered
	}
	return models.StatusInactive
}

// HeuristicScore computes the additive suspicion score for an analysis
// record and clamps it to [0,100]. The contributions are a pure sum, so
// evaluation order does not matter; the clamp is the only non-linearity.
func HeuristicScore(a *models.Analysis) float64 {
	score := 0.0
	domain := strings.ToLower(a.Domain)

	// Trusted brand discount, applied before everything else
	for _, brand := range trustedBrands {
		if strings.Contains(domain, brand) {
			score -= 50
			break
		}
	}

	if !a.HasResolution() {
		score += 35
	}

	for _, tld := range suspiciousTLDs {
		if strings.HasSuffix(domain, tld) {
			score += 25
			break
		}
	}

	for _, keyword := range phishingKeywords {
		if strings.Contains(domain, keyword) {
			score += 30
			break
		}
	}

	if strings.Count(domain, ".") > 3 {
		score += 10
	}
	if strings.Count(domain, "-") > 2 {
		score += 15
	}
	if countDigits(domain) > 3 {
		score += 10
	}

	if Entropy(domain) > 4.0 {
		score += 20
	}

	if a.CDNDetection.Detected {
		score += 15
	}

	if !a.IPInfo.Failed() && a.IPInfo.IsPrivate {
		score += 40
	}

	// Domain age bands; an entirely missing creation date carries its own
	// penalty and is mutually exclusive with the bands
	if a.WhoisInfo.CreationDate != nil {
		age := time.Since(*a.WhoisInfo.CreationDate)
		switch {
		case age < 30*24*time.Hour:
			score += 40
		case age < 90*24*time.Hour:
			score += 25
		case age < 365*24*time.Hour:
			score += 10
		}
	} else {
		score += 15
	}

	if a.SSLInfo.Failed() {
		score += 20
	} else {
		issuer := strings.ToLower(a.SSLInfo.Issuer)
		if strings.Contains(issuer, "let's encrypt") || strings.Contains(issuer, "zerossl") {
			score += 5
		}
	}

	for _, cc := range highRiskCountries {
		if a.IPInfo.Geolocation.CountryCode == cc {
			score += 20
			break
		}
	}

	return clamp(score, 0, 100)
}

// Combine blends the ML score into the heuristic score with the given ML
// weight. Callers must only invoke it when a prediction is available.
func Combine(heuristic, mlScore, mlWeight float64) float64 {
	return clamp(mlScore*mlWeight+heuristic*(1-mlWeight), 0, 100)
}

// Entropy returns the Shannon entropy of a string in bits per character.
// High entropy flags algorithmically generated domain names.
func Entropy(s string) float64 {
	if s == "" {
		return 0
	}
	counts := make(map[rune]int)
	length := 0
	for _, r := range s {
		counts[r]++
		length++
	}
	entropy := 0.0
	for _, count := range counts {
		p := float64(count) / float64(length)
		entropy -= p * math.Log2(p)
	}
	return entropy
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
