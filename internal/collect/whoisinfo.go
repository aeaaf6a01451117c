package collect

import (
	"context"
	"fmt"
	"strings"
	"time"

	whois "github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"

	"github.com/hakim/domainwatch/internal/models"
)

// whoisDateLayouts covers the date formats registrars are known to emit
var whoisDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02",
	"02-Jan-2006",
	"2006.01.02",
}

// Whois fetches registration metadata for a domain over the whois protocol.
// The result is best-effort; parse failures on individual fields leave those
// fields empty rather than failing the lookup.
func Whois(ctx context.Context, domain string, timeout time.Duration) (models.WhoisInfo, error) {
	if err := ctx.Err(); err != nil {
		return models.WhoisInfo{}, err
	}

	client := whois.NewClient()
	client.SetTimeout(timeout)

	raw, err := client.Whois(domain)
	if err != nil {
		return models.WhoisInfo{}, fmt.Errorf("whois lookup for %s: %w", domain, err)
	}

	parsed, err := whoisparser.Parse(raw)
	if err != nil {
		return models.WhoisInfo{}, fmt.Errorf("parsing whois for %s: %w", domain, err)
	}

	var info models.WhoisInfo

	if parsed.Registrar != nil {
		info.Registrar = parsed.Registrar.Name
	}

	if parsed.Domain != nil {
		info.CreationDate = parseWhoisDate(parsed.Domain.CreatedDate)
		info.ExpirationDate = parseWhoisDate(parsed.Domain.ExpirationDate)
		info.NameServers = append([]string{}, parsed.Domain.NameServers...)
		info.Status = append([]string{}, parsed.Domain.Status...)
	}

	for _, contact := range []*whoisparser.Contact{parsed.Registrant, parsed.Administrative, parsed.Technical} {
		if contact != nil && contact.Email != "" {
			info.Emails = appendUnique(info.Emails, strings.ToLower(contact.Email))
		}
	}

	return info, nil
}

// parseWhoisDate tries each known registrar date layout in turn.
// Returns nil when the value is empty or matches no layout.
func parseWhoisDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range whoisDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// appendUnique appends s to slice only if it is not already present
func appendUnique(slice []string, s string) []string {
	for _, existing := range slice {
		if existing == s {
			return slice
		}
	}
	return append(slice, s)
}
