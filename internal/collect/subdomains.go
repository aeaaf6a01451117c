package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// SubdomainCap bounds how many certificate-transparency subdomains are kept
const SubdomainCap = 50

// Subdomains enumerates subdomains of a domain via a crt.sh-style
// certificate-transparency log search. Names are parsed from the
// newline-delimited name_value fields, filtered to the domain, deduplicated,
// sorted and capped at SubdomainCap entries.
func Subdomains(ctx context.Context, domain, ctSearch string, timeout time.Duration) ([]string, error) {
	endpoint := fmt.Sprintf("%s/?q=%s&output=json", ctSearch, url.QueryEscape("%."+domain))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building ct search request: %w", err)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ct search for %s: %w", domain, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ct search for %s: status %d", domain, resp.StatusCode)
	}

	var entries []struct {
		NameValue string `json:"name_value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decoding ct search response: %w", err)
	}

	seen := make(map[string]bool)
	for _, entry := range entries {
		for _, name := range strings.Split(entry.NameValue, "\n") {
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "" {
				continue
			}
			if name == domain || strings.HasSuffix(name, "."+domain) {
				seen[name] = true
			}
		}
	}

	subdomains := make([]string, 0, len(seen))
	for name := range seen {
		subdomains = append(subdomains, name)
	}
	sort.Strings(subdomains)

	if len(subdomains) > SubdomainCap {
		subdomains = subdomains[:SubdomainCap]
	}

	return subdomains, nil
}
