package network

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/machina-vm/machina/pkg/platform"
)

// Lease file entries consist of:
// <lease expiration> <mac addr> <ipv4> <name> <client id>
// with "*" standing in for absent name/client id fields.
const (
	leaseHWAddrIdx  = 1
	leaseIPIdx      = 2
	leaseMinFields  = 3
	leaseDelimiter  = " "
	leaseBlankField = "*"
)

// LeaseRecord is one entry in the dnsmasq lease database
type LeaseRecord struct {
	Expiry   int64
	HWAddr   string
	IP       string
	Hostname string
	ClientID string
}

// parseLeases turns raw lease-file bytes into records in file order.
// Lines with fewer than three fields are skipped rather than failing the
// whole read; the daemon may rewrite the file underneath us at any time
// and a torn line is simply not a lease.
func parseLeases(data []byte) []LeaseRecord {
	var records []LeaseRecord

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), leaseDelimiter)
		if len(fields) < leaseMinFields {
			continue
		}

		record := LeaseRecord{
			HWAddr: fields[leaseHWAddrIdx],
			IP:     fields[leaseIPIdx],
		}
		if expiry, err := strconv.ParseInt(fields[0], 10, 64); err == nil {
			record.Expiry = expiry
		}
		if len(fields) > 3 && fields[3] != leaseBlankField {
			record.Hostname = fields[3]
		}
		if len(fields) > 4 && fields[4] != leaseBlankField {
			record.ClientID = fields[4]
		}

		records = append(records, record)
	}

	return records
}

// readLeases reads the lease database from disk. A missing or unreadable
// file yields an empty result, never an error; the file only exists once
// the daemon has handed out its first lease.
func readLeases(p platform.Platform, path string) []LeaseRecord {
	data, err := p.ReadFile(path)
	if err != nil {
		return nil
	}
	return parseLeases(data)
}
