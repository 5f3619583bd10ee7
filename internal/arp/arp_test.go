package arp

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sampleTable = `IP address       HW type     Flags       HW address            Mask     Device
192.168.0.5      0x1         0x2         a4:77:33:01:02:03     *        eth0
192.168.0.6      0x1         0x0         00:00:00:00:00:00     *        eth0
192.168.0.7      0x1         0x2         00:00:00:00:00:00     *        eth0
192.168.0.8      0x1         0x2         not-a-mac             *        eth0
`

func writeTable(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "arp")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing table: %v", err)
	}
	return path
}

func TestResolve(t *testing.T) {
	resolver := &Resolver{Path: writeTable(t, sampleTable)}

	mac, err := resolver.Resolve("192.168.0.5")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if mac.String() != "a4:77:33:01:02:03" {
		t.Errorf("mac = %q, want a4:77:33:01:02:03", mac)
	}
}

func TestResolveSkipsUnusableEntries(t *testing.T) {
	resolver := &Resolver{Path: writeTable(t, sampleTable)}

	tests := []struct {
		name    string
		address string
	}{
		{"incomplete entry", "192.168.0.6"},
		{"complete but zeroed", "192.168.0.7"},
		{"malformed hardware address", "192.168.0.8"},
		{"absent address", "192.168.0.99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := resolver.Resolve(tt.address); !errors.Is(err, ErrNotFound) {
				t.Errorf("err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestResolveTableUnavailable(t *testing.T) {
	resolver := &Resolver{Path: filepath.Join(t.TempDir(), "missing")}

	if _, err := resolver.Resolve("192.168.0.5"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestResolveEmptyTable(t *testing.T) {
	resolver := &Resolver{Path: writeTable(t, "IP address HW type Flags HW address Mask Device\n")}

	if _, err := resolver.Resolve("192.168.0.5"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
