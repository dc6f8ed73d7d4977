package network

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/machina-vm/machina/pkg/platform"
)

// ServiceConfig holds the per-instance dnsmasq settings. Immutable once the
// daemon starts; the conf and lease paths are freshly created temp files so
// concurrent supervisors never collide on configuration or lease storage.
type ServiceConfig struct {
	DataDir    string
	BridgeName string
	Subnet     *Subnet
	LeaseTime  string

	ConfPath  string
	LeasePath string
}

// newServiceConfig creates the data directory, claims unique conf and lease
// files inside it and writes the rendered daemon configuration.
func newServiceConfig(p platform.Platform, dataDir, bridgeName string, subnet *Subnet, leaseTime string) (*ServiceConfig, error) {
	if err := p.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dataDir, err)
	}

	confFile, err := p.CreateTemp(dataDir, "dnsmasq-*.conf")
	if err != nil {
		return nil, fmt.Errorf("failed to create dnsmasq config file: %w", err)
	}
	confPath := confFile.Name()
	_ = confFile.Close()

	leaseFile, err := p.CreateTemp(dataDir, "dnsmasq-*.leases")
	if err != nil {
		return nil, fmt.Errorf("failed to create dnsmasq lease file: %w", err)
	}
	leasePath := leaseFile.Name()
	_ = leaseFile.Close()

	cfg := &ServiceConfig{
		DataDir:    filepath.Clean(dataDir),
		BridgeName: bridgeName,
		Subnet:     subnet,
		LeaseTime:  leaseTime,
		ConfPath:   confPath,
		LeasePath:  leasePath,
	}

	if err := p.WriteFile(confPath, []byte(cfg.render()), 0644); err != nil {
		return nil, fmt.Errorf("failed to write dnsmasq config: %w", err)
	}

	return cfg, nil
}

// render produces the dnsmasq configuration content. The grammar belongs to
// dnsmasq; we only bind it to our bridge, range and lease file.
func (c *ServiceConfig) render() string {
	var sb strings.Builder

	sb.WriteString("# Generated by machinad - do not edit manually\n")
	sb.WriteString("strict-order\n")
	sb.WriteString("bind-interfaces\n")
	sb.WriteString("except-interface=lo\n")
	sb.WriteString(fmt.Sprintf("interface=%s\n", c.BridgeName))
	sb.WriteString(fmt.Sprintf("listen-address=%s\n", c.Subnet.Gateway()))
	sb.WriteString("dhcp-no-override\n")
	sb.WriteString("dhcp-authoritative\n")
	sb.WriteString(fmt.Sprintf("dhcp-leasefile=%s\n", c.LeasePath))

	leaseTime := c.LeaseTime
	if leaseTime == "" {
		leaseTime = "12h"
	}
	sb.WriteString(fmt.Sprintf("dhcp-range=%s,%s,%s,%s\n",
		c.Subnet.RangeStart(), c.Subnet.RangeEnd(), c.Subnet.Netmask(), leaseTime))

	return sb.String()
}
