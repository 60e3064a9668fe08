package browser

import (
	"strings"
	"testing"
)

func TestValidateEndpoint(t *testing.T) {
	tests := []struct {
		name        string
		endpoint    string
		allowRemote bool
		wantErr     bool
		errMsg      string // substring to look for in error
	}{
		// Local endpoints
		{"localhost http", "http://localhost:9222", false, false, ""},
		{"localhost ws", "ws://localhost:9222/devtools/browser/abc", false, false, ""},
		{"127.0.0.1", "http://127.0.0.1:9222", false, false, ""},
		{"ipv6 loopback", "ws://[::1]:9222", false, false, ""},

		// Blocked schemes
		{"file scheme", "file:///tmp/devtools", false, true, "scheme"},
		{"no scheme", "localhost:9222", false, true, "scheme"},

		// Remote endpoints
		{"private without allow", "http://192.168.1.20:9222", false, true, "allow_remote"},
		{"public without allow", "ws://8.8.8.8:9222", false, true, "allow_remote"},
		{"private with allow", "http://192.168.1.20:9222", true, false, ""},

		// Always blocked
		{"metadata ip", "http://169.254.169.254", true, true, "link-local"},
		{"metadata hostname", "http://metadata.google.internal", true, true, "cloud metadata hostname"},
		{"unspecified", "ws://0.0.0.0:9222", true, true, "unspecified"},
		{"multicast", "ws://224.0.0.1:9222", true, true, "multicast"},
		{"ipv4-mapped link-local", "http://[::ffff:169.254.1.1]", true, true, "link-local"},

		// Edge cases
		{"empty host", "http:///json/version", false, true, "empty hostname"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEndpoint(tt.endpoint, tt.allowRemote)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEndpoint(%q) error = %v, wantErr %v", tt.endpoint, err, tt.wantErr)
				return
			}
			if tt.wantErr && tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("ValidateEndpoint(%q) error = %v, want error containing %q", tt.endpoint, err, tt.errMsg)
			}
		})
	}
}
