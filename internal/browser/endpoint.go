package browser

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	. "github.com/roelfdiedericks/rephrase/internal/logging"
)

// EndpointError represents a CDP endpoint that was refused.
type EndpointError struct {
	Endpoint string
	Reason   string
}

func (e *EndpointError) Error() string {
	return fmt.Sprintf("CDP endpoint refused: %s", e.Reason)
}

// ValidateEndpoint checks a DevTools endpoint before connecting to it.
// A DevTools session has full control of the browser, so by default only
// loopback endpoints are accepted. allowRemote lifts that restriction but
// link-local, multicast, unspecified and cloud metadata targets stay blocked.
func ValidateEndpoint(endpoint string, allowRemote bool) error {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return &EndpointError{Endpoint: endpoint, Reason: fmt.Sprintf("invalid URL: %v", err)}
	}

	scheme := strings.ToLower(parsed.Scheme)
	switch scheme {
	case "ws", "wss", "http", "https":
	default:
		return &EndpointError{Endpoint: endpoint, Reason: fmt.Sprintf("scheme '%s' not allowed, only ws/wss/http/https", parsed.Scheme)}
	}

	host := parsed.Hostname()
	if host == "" {
		return &EndpointError{Endpoint: endpoint, Reason: "empty hostname"}
	}
	if isCloudMetadataHost(host) {
		return &EndpointError{Endpoint: endpoint, Reason: fmt.Sprintf("cloud metadata hostname blocked: %s", host)}
	}

	ips, err := resolveHost(host)
	if err != nil {
		return &EndpointError{Endpoint: endpoint, Reason: fmt.Sprintf("DNS resolution failed: %v", err)}
	}

	for _, ip := range ips {
		if reason := endpointIPReason(ip, allowRemote); reason != "" {
			L_debug("browser: endpoint refused", "endpoint", endpoint, "host", host, "ip", ip.String(), "reason", reason)
			return &EndpointError{Endpoint: endpoint, Reason: fmt.Sprintf("%s (%s resolves to %s)", reason, host, ip.String())}
		}
	}
	return nil
}

// resolveHost resolves host to IPs. IP literals and "localhost" never touch DNS.
func resolveHost(host string) ([]net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []net.IP{ip}, nil
	}
	if strings.EqualFold(host, "localhost") {
		return []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback}, nil
	}
	return net.LookupIP(host)
}

// endpointIPReason returns why ip is refused, or "" if it is acceptable.
func endpointIPReason(ip net.IP, allowRemote bool) string {
	// IPv4-mapped IPv6 addresses: check the IPv4
	if ip4 := ip.To4(); ip4 != nil && !ip.Equal(ip4) {
		ip = ip4
	}

	if ip.IsUnspecified() {
		return "unspecified address blocked"
	}
	if ip.IsLinkLocalMulticast() || ip.IsInterfaceLocalMulticast() || ip.IsMulticast() {
		return "multicast address blocked"
	}
	// Link-local includes 169.254.169.254 (cloud metadata)
	if ip.IsLinkLocalUnicast() {
		return "link-local address blocked"
	}
	if ip.IsLoopback() || allowRemote {
		return ""
	}
	return "non-loopback address requires browser.allow_remote"
}

// isCloudMetadataHost checks for known cloud metadata hostnames
func isCloudMetadataHost(host string) bool {
	host = strings.ToLower(host)
	metadataHosts := []string{
		"metadata.google.internal", // GCP
		"metadata.goog",            // GCP alternate
		"kubernetes.default.svc",   // Kubernetes
		"kubernetes.default",       // Kubernetes
		"metadata",                 // Generic
	}
	for _, mh := range metadataHosts {
		if host == mh || strings.HasSuffix(host, "."+mh) {
			return true
		}
	}
	return false
}
