package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/hakim/domainwatch/internal/models"
)

// IPInfo resolves the domain and enriches the address with geolocation and
// ASN data from an ipapi.co-style JSON endpoint. The enrichment call is
// best-effort: when it fails, the IP and privacy flag are still returned.
func IPInfo(ctx context.Context, domain, geoAPI string, timeout time.Duration) (models.IPInfo, error) {
	ip, err := ResolveFirst(ctx, domain)
	if err != nil {
		return models.IPInfo{}, err
	}

	info := models.IPInfo{
		IP:        ip.String(),
		IsPrivate: IsPrivateAddress(ip),
	}

	url := fmt.Sprintf("%s/%s/json/", geoAPI, ip.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return info, nil
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return info, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return info, nil
	}

	var payload struct {
		CountryName string  `json:"country_name"`
		CountryCode string  `json:"country_code"`
		Region      string  `json:"region"`
		City        string  `json:"city"`
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
		Timezone    string  `json:"timezone"`
		Org         string  `json:"org"`
		ASN         string  `json:"asn"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return info, nil
	}

	info.Geolocation = models.Geolocation{
		Country:     payload.CountryName,
		CountryCode: payload.CountryCode,
		Region:      payload.Region,
		City:        payload.City,
		Latitude:    payload.Latitude,
		Longitude:   payload.Longitude,
		Timezone:    payload.Timezone,
		ISP:         payload.Org,
	}
	info.ASN = models.ASNInfo{
		ASN: payload.ASN,
		Org: payload.Org,
	}

	return info, nil
}

// IsPrivateAddress reports whether ip belongs to a private, loopback,
// link-local or unspecified range
func IsPrivateAddress(ip net.IP) bool {
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsUnspecified()
}
