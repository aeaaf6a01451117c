package collect

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/hakim/domainwatch/internal/models"
)

// Certificate performs a TLS handshake on port 443 with SNI set to the
// domain and extracts the peer certificate's identity fields.
func Certificate(ctx context.Context, domain string, timeout time.Duration) (models.SSLInfo, error) {
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: timeout},
		Config:    &tls.Config{ServerName: domain},
	}

	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(domain, "443"))
	if err != nil {
		return models.SSLInfo{}, fmt.Errorf("tls handshake with %s: %w", domain, err)
	}
	defer conn.Close()

	state := conn.(*tls.Conn).ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return models.SSLInfo{}, fmt.Errorf("tls handshake with %s: no peer certificate", domain)
	}

	cert := state.PeerCertificates[0]
	now := time.Now().UTC()

	return models.SSLInfo{
		Subject:         cert.Subject.String(),
		Issuer:          cert.Issuer.String(),
		Version:         cert.Version,
		SerialNumber:    cert.SerialNumber.String(),
		NotBefore:       cert.NotBefore,
		NotAfter:        cert.NotAfter,
		SubjectAltNames: append([]string{}, cert.DNSNames...),
		Valid:           now.After(cert.NotBefore) && now.Before(cert.NotAfter),
	}, nil
}
