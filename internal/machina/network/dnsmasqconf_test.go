package network

import (
	"os"
	"strings"
	"testing"

	"github.com/machina-vm/machina/pkg/platform"
)

func TestNewServiceConfig(t *testing.T) {
	p := platform.NewPlatform()
	dataDir := t.TempDir()

	subnet, err := ParseSubnet("10.10.0.0/24")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg, err := newServiceConfig(p, dataDir, "mpbr0", subnet, "12h")
	if err != nil {
		t.Fatalf("newServiceConfig failed: %v", err)
	}

	content, err := os.ReadFile(cfg.ConfPath)
	if err != nil {
		t.Fatalf("failed to read generated config: %v", err)
	}

	for _, want := range []string{
		"interface=mpbr0",
		"listen-address=10.10.0.1",
		"dhcp-range=10.10.0.2,10.10.0.254,255.255.255.0,12h",
		"dhcp-leasefile=" + cfg.LeasePath,
		"bind-interfaces",
	} {
		if !strings.Contains(string(content), want) {
			t.Errorf("expected config to contain %q, got:\n%s", want, content)
		}
	}

	if _, err := os.Stat(cfg.LeasePath); err != nil {
		t.Errorf("lease file should exist: %v", err)
	}
}

func TestServiceConfigPathsAreUniquePerInstance(t *testing.T) {
	p := platform.NewPlatform()
	dataDir := t.TempDir()

	subnet, err := ParseSubnet("10.10.0.0/24")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, err := newServiceConfig(p, dataDir, "mpbr0", subnet, "")
	if err != nil {
		t.Fatalf("first instance failed: %v", err)
	}
	second, err := newServiceConfig(p, dataDir, "mpbr1", subnet, "")
	if err != nil {
		t.Fatalf("second instance failed: %v", err)
	}

	if first.ConfPath == second.ConfPath {
		t.Error("conf paths must not collide across instances")
	}
	if first.LeasePath == second.LeasePath {
		t.Error("lease paths must not collide across instances")
	}
}

func TestServiceConfigDefaultLeaseTime(t *testing.T) {
	p := platform.NewPlatform()

	subnet, err := ParseSubnet("10.10.0.0/24")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg, err := newServiceConfig(p, t.TempDir(), "mpbr0", subnet, "")
	if err != nil {
		t.Fatalf("newServiceConfig failed: %v", err)
	}

	if !strings.Contains(cfg.render(), ",12h\n") {
		t.Errorf("expected default 12h lease time, got:\n%s", cfg.render())
	}
}
