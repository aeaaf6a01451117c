package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/hakim/domainwatch/internal/models"
)

// WriteAnalysisReport generates a markdown report for a single domain
// analysis and writes it to the specified output path.
func WriteAnalysisReport(analysis *models.Analysis, outputPath string) error {
	data := RenderAnalysis(analysis)
	if err := os.WriteFile(outputPath, []byte(data), 0644); err != nil {
		return fmt.Errorf("writing report to %s: %w", outputPath, err)
	}
	return nil
}

// RenderAnalysis renders an analysis record as markdown
func RenderAnalysis(analysis *models.Analysis) string {
	var b strings.Builder

	// Header
	b.WriteString("# Domain Analysis Report\n\n")
	b.WriteString(fmt.Sprintf("**Domain:** %s\n", analysis.Domain))
	b.WriteString(fmt.Sprintf("**Date:** %s\n", analysis.Timestamp.Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("**Status:** %s\n", analysis.DomainStatus))
	b.WriteString(fmt.Sprintf("**Suspicion score:** %.1f/100\n", analysis.SuspiciousScore))
	if analysis.CombinedScore != nil {
		b.WriteString(fmt.Sprintf("**Combined score:** %.1f/100\n", *analysis.CombinedScore))
	}
	b.WriteString("\n")

	// DNS records
	b.WriteString("## DNS Records\n\n")
	hasRecords := false
	b.WriteString("| Type | Values |\n")
	b.WriteString("|------|--------|\n")
	for _, rtype := range models.DNSRecordTypes {
		values := analysis.DNSRecords[rtype]
		if len(values) == 0 {
			continue
		}
		hasRecords = true
		b.WriteString(fmt.Sprintf("| %s | %s |\n", rtype, strings.Join(values, ", ")))
	}
	if !hasRecords {
		b.WriteString("| — | no records resolved |\n")
	}
	b.WriteString("\n")

	// TLS certificate
	b.WriteString("## TLS Certificate\n\n")
	if analysis.SSLInfo.Failed() {
		b.WriteString(fmt.Sprintf("Fetch failed: %s\n", analysis.SSLInfo.Error))
	} else {
		b.WriteString(fmt.Sprintf("**Subject:** %s\n", analysis.SSLInfo.Subject))
		b.WriteString(fmt.Sprintf("**Issuer:** %s\n", analysis.SSLInfo.Issuer))
		b.WriteString(fmt.Sprintf("**Valid:** %t (%s — %s)\n",
			analysis.SSLInfo.Valid,
			analysis.SSLInfo.NotBefore.Format("2006-01-02"),
			analysis.SSLInfo.NotAfter.Format("2006-01-02")))
		b.WriteString(fmt.Sprintf("**SANs:** %d\n", len(analysis.SSLInfo.SubjectAltNames)))
	}
	b.WriteString("\n")

	// Hosting
	b.WriteString("## Hosting\n\n")
	if analysis.IPInfo.Failed() {
		b.WriteString(fmt.Sprintf("Lookup failed: %s\n", analysis.IPInfo.Error))
	} else {
		b.WriteString(fmt.Sprintf("**IP:** %s\n", analysis.IPInfo.IP))
		geo := analysis.IPInfo.Geolocation
		if geo.Country != "" {
			b.WriteString(fmt.Sprintf("**Location:** %s, %s (%s)\n", geo.City, geo.Country, geo.CountryCode))
		}
		if analysis.IPInfo.ASN.ASN != "" {
			b.WriteString(fmt.Sprintf("**ASN:** %s — %s\n", analysis.IPInfo.ASN.ASN, analysis.IPInfo.ASN.Org))
		}
		b.WriteString(fmt.Sprintf("**Private address:** %t\n", analysis.IPInfo.IsPrivate))
	}
	b.WriteString("\n")

	// CDN
	b.WriteString("## CDN\n\n")
	if analysis.CDNDetection.Detected {
		b.WriteString(fmt.Sprintf("Detected: **%s**\n", analysis.CDNDetection.Provider))
	} else {
		b.WriteString("Not detected.\n")
	}
	if len(analysis.CDNDetection.BypassAttempts) > 0 {
		b.WriteString("\n| Resolver | A records |\n")
		b.WriteString("|----------|-----------|\n")
		for _, attempt := range analysis.CDNDetection.BypassAttempts {
			b.WriteString(fmt.Sprintf("| %s | %s |\n", attempt.DNSServer, strings.Join(attempt.IPs, ", ")))
		}
	}
	b.WriteString("\n")

	// WHOIS
	b.WriteString("## WHOIS\n\n")
	if analysis.WhoisInfo.Empty() {
		b.WriteString("No registration data available.\n")
	} else {
		if analysis.WhoisInfo.Registrar != "" {
			b.WriteString(fmt.Sprintf("**Registrar:** %s\n", analysis.WhoisInfo.Registrar))
		}
		if analysis.WhoisInfo.CreationDate != nil {
			b.WriteString(fmt.Sprintf("**Created:** %s\n", analysis.WhoisInfo.CreationDate.Format("2006-01-02")))
		}
		if analysis.WhoisInfo.ExpirationDate != nil {
			b.WriteString(fmt.Sprintf("**Expires:** %s\n", analysis.WhoisInfo.ExpirationDate.Format("2006-01-02")))
		}
		if len(analysis.WhoisInfo.NameServers) > 0 {
			b.WriteString(fmt.Sprintf("**Name servers:** %s\n", strings.Join(analysis.WhoisInfo.NameServers, ", ")))
		}
	}
	b.WriteString("\n")

	// Subdomains
	b.WriteString("## Subdomains (certificate transparency)\n\n")
	if len(analysis.Subdomains) > 0 {
		for _, sub := range analysis.Subdomains {
			b.WriteString(fmt.Sprintf("- %s\n", sub))
		}
	} else {
		b.WriteString("None found.\n")
	}
	b.WriteString("\n")

	// ML verdict
	if analysis.MLPrediction != nil && analysis.MLPrediction.MLAvailable {
		pred := analysis.MLPrediction
		b.WriteString("## ML Verdict\n\n")
		b.WriteString(fmt.Sprintf("**Prediction:** %s (confidence %.2f)\n", pred.Prediction, pred.Confidence))
		b.WriteString(fmt.Sprintf("**ML score:** %.1f/100\n\n", pred.MLScore))
		b.WriteString("| Feature | Value | Importance |\n")
		b.WriteString("|---------|-------|------------|\n")
		for _, contribution := range pred.TopFeatures {
			b.WriteString(fmt.Sprintf("| %s | %.2f | %.4f |\n",
				contribution.Feature, contribution.Value, contribution.Importance))
		}
		b.WriteString("\n")
	}

	return b.String()
}
